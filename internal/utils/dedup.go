package utils

import (
	"sync"
	"time"
)

// Deduplicator remembers keys for a window so repeated submissions
// (a double tap on a phone, a retried upload) can be rejected
type Deduplicator struct {
	window time.Duration
	limit  int
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewDeduplicator returns a deduplicator that forgets keys after window
func NewDeduplicator(window time.Duration) *Deduplicator {
	return &Deduplicator{
		window: window,
		limit:  10000,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// IsDuplicate reports whether key was seen within the window and records it.
// Empty keys are never duplicates.
func (d *Deduplicator) IsDuplicate(key string) bool {
	if key == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if at, ok := d.seen[key]; ok && now.Sub(at) < d.window {
		return true
	}
	d.seen[key] = now

	// Cleanup old entries if map gets too big
	if len(d.seen) > d.limit {
		for k, at := range d.seen {
			if now.Sub(at) > d.window {
				delete(d.seen, k)
			}
		}
	}
	return false
}

// Forget drops key so it can be submitted again (used when the first attempt failed)
func (d *Deduplicator) Forget(key string) {
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
}
