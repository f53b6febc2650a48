package git

import "errors"

var (
	ErrNotARepository = errors.New("not a git repository")
	ErrIO             = errors.New("repository I/O failure")
	ErrPathInvalid    = errors.New("invalid repository path")
	ErrMissingConfig  = errors.New("configuration value missing")
	ErrUnbornHead     = errors.New("HEAD has no commits")
	ErrDetachedHead   = errors.New("HEAD is not a direct commit reference")
	ErrObjectNotFound = errors.New("object not found")
	ErrUnmergedIndex  = errors.New("index contains unmerged entries")
)
