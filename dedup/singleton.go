package dedup

import "sync"

// Process-wide store instance and initialization guard.
var (
	globalStore *Store
	globalOnce  sync.Once
)

// Global returns the process-wide store, creating an unbounded one on first
// use.
func Global() *Store {
	globalOnce.Do(func() {
		globalStore = NewStore()
	})
	return globalStore
}

// InitGlobal sets the process-wide store, e.g. a bounded one from config.
// Only the first call before any Global call has an effect.
func InitGlobal(s *Store) {
	globalOnce.Do(func() {
		globalStore = s
	})
}

// ResetGlobal clears the process-wide store for tests. It is not safe for
// concurrent use.
func ResetGlobal() {
	globalOnce = sync.Once{}
	globalStore = nil
}
