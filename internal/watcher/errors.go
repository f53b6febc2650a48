package watcher

import "errors"

var (
	ErrDisabled = errors.New("working tree watcher is disabled")
	ErrStarted  = errors.New("watcher already started")
)
