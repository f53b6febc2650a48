package repocache

import (
	"sync"
	"time"
)

// projection is a snapshot published as a whole. Readers get a copy and
// never observe a partially written snapshot.
type projection[T any] struct {
	mu sync.RWMutex

	items []T
	at    time.Time
	set   bool
}

func (p *projection[T]) snapshot() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append(make([]T, 0, len(p.items)), p.items...)
}

func (p *projection[T]) len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.items)
}

// publish swaps in items and stamps the projection in the same critical
// section.
func (p *projection[T]) publish(items []T, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = items
	p.at = at
	p.set = true
}

// replace swaps in items without touching the timestamp.
func (p *projection[T]) replace(items []T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = items
}

func (p *projection[T]) stamp() (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.at, p.set
}

type clock struct {
	mu sync.RWMutex

	at  time.Time
	set bool
}

func (c *clock) mark(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.at = at
	c.set = true
}

func (c *clock) get() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.at, c.set
}
