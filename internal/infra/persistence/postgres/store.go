// Package postgres provides the PostgreSQL provider. Payloads are stored as
// JSONB in one table per kind and hydrated into memory on open.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"repokit/internal/infra/persistence/sqlstore"
	"repokit/pkg/domain"
)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no connection string is configured.
	DefaultDSN = "postgres://localhost/repokit?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Dialect is the PostgreSQL flavour of the shared SQL layer.
var Dialect = sqlstore.Dialect{
	Name:        "postgres",
	PayloadType: "JSONB",
	Placeholder: sqlstore.DollarPlaceholder,
}

// Open connects with dsn (falls back to DefaultDSN), creates missing tables
// and returns a provider for zone z.
func Open(ctx context.Context, dsn string, reg *domain.Registry, z domain.Zone) (*sqlstore.Provider, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p, err := sqlstore.Open(ctx, db, Dialect, reg, z)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
