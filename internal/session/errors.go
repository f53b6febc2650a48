package session

import "errors"

var (
	ErrNoRepository = errors.New("no repository is open")
	ErrValidation   = errors.New("validation failed")
)
