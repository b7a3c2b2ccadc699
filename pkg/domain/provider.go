package domain

import (
	"context"

	"repokit/pkg/query"
)

// Provider is the storage backend behind a repository. Implementations apply
// committed records in the order given and serve reads as deep copies.
type Provider interface {
	// Commit applies records in order: later records for the same identity
	// override earlier ones. A non-nil error means the batch was not persisted.
	Commit(ctx context.Context, records []Record) error
	// Get returns the entity stored under kind/id.
	Get(ctx context.Context, kind Kind, id any) (Entity, bool, error)
	// Query returns the entities of kind matching e, windowed by args. A nil
	// expression matches everything and nil args return every row.
	Query(ctx context.Context, kind Kind, e *query.Exp, args *query.ListArgs) ([]Entity, error)
	// Count returns the number of entities of kind matching e.
	Count(ctx context.Context, kind Kind, e *query.Exp) (int, error)
	// Zone reports the partition this provider reads and writes.
	Zone() Zone
}

// Clearer is implemented by providers built with the repodebug tag. It wipes
// every row of one kind and exists for test fixtures only.
type Clearer interface {
	Clear(ctx context.Context, kind Kind) error
}

// Snapshotter is implemented by providers that can capture every row of their
// zone at a single instant. Rows of each kind keep provider order.
type Snapshotter interface {
	Snapshot(ctx context.Context) (map[Kind][]Entity, error)
}
