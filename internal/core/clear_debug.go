//go:build repodebug

package core

import (
	"context"
	"fmt"

	"repokit/pkg/domain"
)

// Clear wipes every row of kind in the repository's zone. It is compiled only
// with the repodebug tag and fails with ErrNotImplemented when the provider
// cannot clear.
func (r *Repository) Clear(ctx context.Context, kind domain.Kind) error {
	c, ok := r.provider.(domain.Clearer)
	if !ok {
		return fmt.Errorf("clear %s on %T: %w", kind, r.provider, domain.ErrNotImplemented)
	}
	return c.Clear(ctx, kind)
}

// Clear wipes every T row in the repository's zone.
func Clear[T domain.Entity](ctx context.Context, r *Repository) error {
	return r.Clear(ctx, domain.KindOf[T]())
}
