// Package sqlite provides the embedded SQLite provider. Rows are stored as
// JSON blobs in one table per kind and hydrated into memory on open.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"repokit/internal/infra/persistence/sqlstore"
	"repokit/pkg/domain"
)

// DefaultPath is used when no file path is configured.
const DefaultPath = "repokit.db"

// Dialect is the SQLite flavour of the shared SQL layer.
var Dialect = sqlstore.Dialect{
	Name:        "sqlite",
	PayloadType: "BLOB",
	Placeholder: sqlstore.QuestionPlaceholder,
}

// Open opens (creating when needed) the database file at path and returns a
// provider for zone z.
func Open(ctx context.Context, path string, reg *domain.Registry, z domain.Zone) (*sqlstore.Provider, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	p, err := sqlstore.Open(ctx, db, Dialect, reg, z)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}
