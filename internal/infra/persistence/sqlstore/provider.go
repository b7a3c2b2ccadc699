// Package sqlstore layers durable SQL persistence over the in-memory provider.
// Each registered kind gets its own table of JSON payloads keyed by zone and
// identity. Reads are served from memory; commits are written to the database
// first and applied to memory only after the SQL transaction succeeds.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"repokit/internal/infra/persistence/memory"
	"repokit/pkg/domain"
)

var _ domain.Provider = (*Provider)(nil)

// Provider persists one zone to a database while reusing the memory provider
// for reads.
type Provider struct {
	*memory.Provider
	db       *sql.DB
	dialect  Dialect
	registry *domain.Registry
	tables   map[domain.Kind]string

	mu  sync.Mutex
	seq int64
}

// Open creates missing tables for every kind in reg and hydrates memory with
// the rows already stored for zone z, in their original write order.
func Open(ctx context.Context, db *sql.DB, d Dialect, reg *domain.Registry, z domain.Zone) (*Provider, error) {
	if reg == nil {
		reg = domain.NewRegistry()
	}
	p := &Provider{
		db:       db,
		dialect:  d,
		registry: reg,
		tables:   make(map[domain.Kind]string),
	}
	snap := memory.Snapshot{Rows: make(map[domain.Kind][]domain.Entity)}
	for _, kind := range reg.Kinds() {
		table := TableName(kind)
		p.tables[kind] = table
		if _, err := db.ExecContext(ctx, d.createTable(table)); err != nil {
			return nil, fmt.Errorf("%s: create table %s: %w", d.Name, table, err)
		}
		rows, maxSeq, err := p.load(ctx, kind, table, z)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			snap.Kinds = append(snap.Kinds, kind)
			snap.Rows[kind] = rows
		}
		p.seq = max(p.seq, maxSeq)
	}
	store := memory.NewStore()
	if err := store.ImportState(z, snap); err != nil {
		return nil, fmt.Errorf("%s: hydrate zone %s: %w", d.Name, z, err)
	}
	p.Provider = memory.NewProvider(store, z)
	return p, nil
}

func (p *Provider) load(ctx context.Context, kind domain.Kind, table string, z domain.Zone) ([]domain.Entity, int64, error) {
	rows, err := p.db.QueryContext(ctx, p.dialect.selectZone(table), z.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: select %s: %w", p.dialect.Name, table, err)
	}
	defer func() { _ = rows.Close() }()
	var (
		out    []domain.Entity
		maxSeq int64
	)
	for rows.Next() {
		var (
			key     string
			seq     int64
			payload []byte
		)
		if err := rows.Scan(&key, &seq, &payload); err != nil {
			return nil, 0, fmt.Errorf("%s: scan %s: %w", p.dialect.Name, table, err)
		}
		e, err := p.registry.Decode(kind, payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: row %s of %s: %w", p.dialect.Name, key, table, err)
		}
		out = append(out, e)
		maxSeq = max(maxSeq, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: iterate %s: %w", p.dialect.Name, table, err)
	}
	return out, maxSeq, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (p *Provider) DB() *sql.DB { return p.db }

// Close releases the database handle.
func (p *Provider) Close() error { return p.db.Close() }

// Commit writes records in one SQL transaction, then applies them to memory.
// Records of kinds missing from the registry are rejected before anything is
// written.
func (p *Provider) Commit(ctx context.Context, records []domain.Record) error {
	if err := memory.CheckRecords(records); err != nil {
		return err
	}
	for _, rec := range records {
		if _, ok := p.tables[rec.Kind()]; !ok {
			return fmt.Errorf("%s: commit %s: %w", p.dialect.Name, rec, domain.ErrUnknownKind)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.persist(ctx, records); err != nil {
		return err
	}
	return p.Provider.Commit(ctx, records)
}

func (p *Provider) persist(ctx context.Context, records []domain.Record) (retErr error) {
	zone := p.Zone().ID
	seq := p.seq
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", p.dialect.Name, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, rec := range records {
		table := p.tables[rec.Kind()]
		key, err := json.Marshal(rec.ID())
		if err != nil {
			return fmt.Errorf("%s: encode id of %s: %w", p.dialect.Name, rec, err)
		}
		if rec.State() == domain.StateDeleted {
			if _, err := tx.ExecContext(ctx, p.dialect.deleteRow(table), zone, string(key)); err != nil {
				return fmt.Errorf("%s: delete %s: %w", p.dialect.Name, rec, err)
			}
			continue
		}
		payload, err := json.Marshal(rec.Value())
		if err != nil {
			return fmt.Errorf("%s: encode %s: %w", p.dialect.Name, rec, err)
		}
		seq++
		if _, err := tx.ExecContext(ctx, p.dialect.upsert(table), zone, string(key), seq, payload); err != nil {
			return fmt.Errorf("%s: upsert %s: %w", p.dialect.Name, rec, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", p.dialect.Name, err)
	}
	p.seq = seq
	return nil
}
