// Package memory provides the reference in-memory storage provider, used for
// tests, ephemeral environments and as the read side of the durable providers.
package memory

import (
	"fmt"
	"sync"

	"repokit/pkg/domain"
)

// partition is the state of one zone.
type partition struct {
	mu   sync.RWMutex
	data *Collection
}

// Store is an explicit handle on in-memory state partitioned by zone. Each
// zone has its own lock, so traffic in one zone never blocks another.
type Store struct {
	mu    sync.Mutex
	zones map[string]*partition
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{zones: make(map[string]*partition)}
}

func (s *Store) partition(z domain.Zone) *partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.zones[z.ID]
	if !ok {
		p = &partition{data: NewCollection()}
		s.zones[z.ID] = p
	}
	return p
}

// Snapshot captures a point-in-time clone of one zone. Rows keep their
// iteration order.
type Snapshot struct {
	Kinds []domain.Kind
	Rows  map[domain.Kind][]domain.Entity
}

// ExportState clones the current rows of zone z.
func (s *Store) ExportState(z domain.Zone) Snapshot {
	p := s.partition(z)
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap := Snapshot{Kinds: p.data.Kinds(), Rows: make(map[domain.Kind][]domain.Entity)}
	for _, kind := range snap.Kinds {
		rows, _ := p.data.Query(kind, nil, nil)
		snap.Rows[kind] = rows
	}
	return snap
}

// ImportState replaces the rows of zone z with snap. Identities are resolved
// from the entities; the zone is left untouched when any row lacks one.
func (s *Store) ImportState(z domain.Zone, snap Snapshot) error {
	next := NewCollection()
	kinds := append([]domain.Kind(nil), snap.Kinds...)
	for kind := range snap.Rows {
		if !containsKind(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	for _, kind := range kinds {
		for _, e := range snap.Rows[kind] {
			if e == nil {
				return fmt.Errorf("import %s: %w", kind, domain.ErrNilEntity)
			}
			if e.Kind() != kind {
				return fmt.Errorf("import: %w", domain.TypeMismatchError{Want: kind, Got: e.Kind()})
			}
			id, err := domain.ResolveIdentity(e)
			if err != nil {
				return fmt.Errorf("import %s: %w", kind, err)
			}
			next.Put(id, e)
		}
	}
	p := s.partition(z)
	p.mu.Lock()
	p.data = next
	p.mu.Unlock()
	return nil
}

func containsKind(kinds []domain.Kind, kind domain.Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
