package watcher

import "time"

const DefaultDebounce = 250 * time.Millisecond

type Config struct {
	Enabled  bool
	Debounce time.Duration
}
