// Package store persists search indexes. A Store holds at most one index;
// saving replaces it.
package store

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/store/jsonfile"
	"github.com/cognicore/polyfaq/pkg/polyfaq/store/memstore"
	"github.com/cognicore/polyfaq/pkg/polyfaq/store/sqlite"
)

// Store is the persistence interface for built indexes.
type Store interface {
	Close() error

	// SaveIndex replaces the stored index atomically.
	SaveIndex(ctx context.Context, ix *index.SearchIndex) error
	// LoadIndex returns the stored index, validated. It returns
	// internalerr.ErrNotFound when nothing has been saved.
	LoadIndex(ctx context.Context) (*index.SearchIndex, error)
}

var (
	_ Store = (*jsonfile.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*memstore.Store)(nil)
)

// Open selects a backend from dsn:
//
//	sqlite:path, path.db, path.sqlite   SQLite database
//	json:path, any other path           JSON file
//	mem:                                in-memory, for tests
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("store: empty dsn")
	}
	scheme, rest, found := strings.Cut(dsn, ":")
	if found && len(scheme) > 1 {
		switch scheme {
		case "sqlite":
			return sqlite.Open(ctx, rest)
		case "json":
			return jsonfile.Open(rest)
		case "mem":
			return memstore.New(), nil
		}
	}
	switch {
	case strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return sqlite.Open(ctx, dsn)
	default:
		return jsonfile.Open(dsn)
	}
}
