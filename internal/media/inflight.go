package media

import (
	"sync"

	"brandforge/internal/core"
)

// Inflight tracks media keys with an outstanding generation or upload.
// Workflows acquire the target key before starting the async call and
// release it after, so a second generation for the same key cannot start
// while one is in flight.
type Inflight struct {
	mu   sync.Mutex
	keys map[core.MediaKey]struct{}
}

// NewInflight creates an empty in-flight set.
func NewInflight() *Inflight {
	return &Inflight{keys: make(map[core.MediaKey]struct{})}
}

// TryAcquire marks the key as in flight. It returns false when the key
// already is, in which case the caller must not start another operation.
func (f *Inflight) TryAcquire(key core.MediaKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

// Release clears the key after the operation finished or failed.
func (f *Inflight) Release(key core.MediaKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}
