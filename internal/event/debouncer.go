package event

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Debouncer drops redeliveries of the same comment within a time window.
type Debouncer struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, time.Time]
}

// NewDebouncer remembers up to size comments for window. A size of zero or
// less means no bound.
func NewDebouncer(window time.Duration, size int) *Debouncer {
	return &Debouncer{
		seen: expirable.NewLRU[string, time.Time](size, nil, window),
	}
}

// ShouldProcess reports whether the event has not been seen within the window,
// and records it.
func (d *Debouncer) ShouldProcess(event *Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := event.Key()
	if _, ok := d.seen.Get(key); ok {
		return false
	}
	d.seen.Add(key, time.Now())
	return true
}

// Len returns the number of remembered comments.
func (d *Debouncer) Len() int {
	return d.seen.Len()
}
