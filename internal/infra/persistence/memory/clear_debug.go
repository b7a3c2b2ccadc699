//go:build repodebug

package memory

import (
	"context"

	"repokit/pkg/domain"
)

var _ domain.Clearer = (*Provider)(nil)

// Clear wipes every row of kind in the provider's zone. Other kinds and zones
// are untouched.
func (p *Provider) Clear(_ context.Context, kind domain.Kind) error {
	part := p.store.partition(p.zone)
	part.mu.Lock()
	defer part.mu.Unlock()
	part.data.ClearKind(kind)
	return nil
}
