// Package jsonfile stores an index as a single JSON document on disk.
package jsonfile

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/internalerr"
)

// Store reads and writes one JSON file.
type Store struct {
	path string
}

// Open returns a store for path. The file need not exist yet.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: empty path")
	}
	return &Store{path: path}, nil
}

// Path returns the file location.
func (s *Store) Path() string { return s.path }

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveIndex writes the index atomically.
func (s *Store) SaveIndex(ctx context.Context, ix *index.SearchIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return index.SaveFile(s.path, ix)
}

// LoadIndex implements store.Store.
func (s *Store) LoadIndex(ctx context.Context) (*index.SearchIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(internalerr.ErrNotFound, "index file %s", s.path)
	}
	return index.LoadFile(s.path)
}
