// Package dedupe tracks comparison event ids so a retried submission is
// applied to a family's ratings at most once.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSize is the number of event ids remembered when no size is set.
const DefaultMaxSize = 50000

// Deduper records seen event IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID so the event can be retried. Used when an event
	// was recorded but could not be applied (validation, persistence or
	// queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Key scopes an event id to its family. Event ids are only unique per family.
func Key(familyID, eventID string) string {
	return familyID + "/" + eventID
}

// inMemoryDeduper implements Deduper.
// For bounded mode (maxSize > 0): an LRU set that evicts the least recently
// seen id once full.
// For unbounded mode (maxSize <= 0): a plain map without eviction.
type inMemoryDeduper struct {
	maxSize int
	recent  *lru.Cache[string, struct{}]

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.maxSize > 0 {
		// lru.New only fails for a non-positive size.
		d.recent, _ = lru.New[string, struct{}](d.maxSize)
	} else {
		d.seen = make(map[string]struct{})
	}
	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if d.recent != nil {
		ok, _ := d.recent.ContainsOrAdd(id, struct{}{})
		return ok
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.seen[id]; exists {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

// Unrecord removes an ID from the seen set, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	if d.recent != nil {
		d.recent.Remove(id)
		return
	}

	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	if d.recent != nil {
		return int64(d.recent.Len())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
