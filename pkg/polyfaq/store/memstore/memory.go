// Package memstore keeps an index in memory.
package memstore

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
)

// Store is an in-memory index store for tests.
type Store struct {
	mu sync.RWMutex
	ix *index.SearchIndex
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveIndex validates ix and keeps a reference to it. Indexes are
// read-only once built, so no copy is made.
func (s *Store) SaveIndex(ctx context.Context, ix *index.SearchIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ix == nil {
		return errors.Wrap(internalerr.ErrInvalidIndex, "nil index")
	}
	if err := ix.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ix = ix
	return nil
}

// LoadIndex implements store.Store.
func (s *Store) LoadIndex(ctx context.Context) (*index.SearchIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ix == nil {
		return nil, errors.Wrap(internalerr.ErrNotFound, "no index saved")
	}
	return s.ix, nil
}
