// Package repository defines the alignment session store interface and errors.
package repository

// defaultInitialCapacity sizes the session map for the common case of a
// handful of concurrent mounts.
const defaultInitialCapacity = 16

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithInitialCapacity pre-sizes the session map.
func WithInitialCapacity(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.sessions = make(map[string]Session, n)
		}
	}
}
