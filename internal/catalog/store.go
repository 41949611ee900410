package catalog

import "sync/atomic"

// Store holds the current catalog snapshot. Readers get a consistent
// catalog for the duration of a call; reloads replace the whole snapshot.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore returns a store holding c, which may be nil.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	if c != nil {
		s.current.Store(c)
	}
	return s
}

// Load returns the current snapshot or nil before the first load.
func (s *Store) Load() *Catalog {
	return s.current.Load()
}

// Swap installs c and returns the previous snapshot.
func (s *Store) Swap(c *Catalog) *Catalog {
	return s.current.Swap(c)
}
