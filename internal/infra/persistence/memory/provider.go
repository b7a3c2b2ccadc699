package memory

import (
	"context"

	"repokit/pkg/domain"
	"repokit/pkg/query"
)

var (
	_ domain.Provider    = (*Provider)(nil)
	_ domain.Snapshotter = (*Provider)(nil)
)

// Provider serves one zone of a Store.
type Provider struct {
	store *Store
	zone  domain.Zone
}

// NewProvider binds a provider to zone z of store. A nil store gets a
// private one.
func NewProvider(store *Store, z domain.Zone) *Provider {
	if store == nil {
		store = NewStore()
	}
	return &Provider{store: store, zone: z}
}

// Store exposes the backing handle so other zones can share it.
func (p *Provider) Store() *Store { return p.store }

// Zone reports the partition this provider serves.
func (p *Provider) Zone() domain.Zone { return p.zone }

// Commit applies records in order under the zone write lock.
func (p *Provider) Commit(_ context.Context, records []domain.Record) error {
	part := p.store.partition(p.zone)
	part.mu.Lock()
	defer part.mu.Unlock()
	return part.data.Apply(records)
}

// Get returns a clone of kind/id.
func (p *Provider) Get(_ context.Context, kind domain.Kind, id any) (domain.Entity, bool, error) {
	part := p.store.partition(p.zone)
	part.mu.RLock()
	defer part.mu.RUnlock()
	e, ok := part.data.Get(kind, id)
	return e, ok, nil
}

// Query returns clones of the matching rows of kind.
func (p *Provider) Query(_ context.Context, kind domain.Kind, e *query.Exp, args *query.ListArgs) ([]domain.Entity, error) {
	part := p.store.partition(p.zone)
	part.mu.RLock()
	defer part.mu.RUnlock()
	return part.data.Query(kind, e, args)
}

// Count returns the number of matching rows of kind.
func (p *Provider) Count(_ context.Context, kind domain.Kind, e *query.Exp) (int, error) {
	part := p.store.partition(p.zone)
	part.mu.RLock()
	defer part.mu.RUnlock()
	return part.data.Count(kind, e)
}

// Snapshot clones every row of the zone under one read lock.
func (p *Provider) Snapshot(_ context.Context) (map[domain.Kind][]domain.Entity, error) {
	return p.store.ExportState(p.zone).Rows, nil
}
