//go:build repodebug

package sqlstore

import (
	"context"
	"fmt"

	"repokit/pkg/domain"
)

var _ domain.Clearer = (*Provider)(nil)

// Clear deletes every row of kind in the provider's zone, in the database
// and in memory.
func (p *Provider) Clear(ctx context.Context, kind domain.Kind) error {
	table, ok := p.tables[kind]
	if !ok {
		return fmt.Errorf("%s: clear %s: %w", p.dialect.Name, kind, domain.ErrUnknownKind)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.db.ExecContext(ctx, p.dialect.deleteZone(table), p.Zone().ID); err != nil {
		return fmt.Errorf("%s: clear %s: %w", p.dialect.Name, table, err)
	}
	return p.Provider.Clear(ctx, kind)
}
