package preferences

import "errors"

var ErrNotFound = errors.New("preference not found")
