package repocache

import (
	"errors"

	"github.com/nanogit/nanogit/internal/git"
)

var (
	ErrNotARepo     = git.ErrNotARepository
	ErrIO           = git.ErrIO
	ErrPathInvalid  = git.ErrPathInvalid
	ErrUnbornHead   = git.ErrUnbornHead
	ErrDetachedHead = git.ErrDetachedHead

	ErrMissingIdentity = errors.New("commit identity is not configured")
	ErrInternal        = errors.New("internal repository cache error")
	ErrClosed          = errors.New("repository cache is closed")
)
