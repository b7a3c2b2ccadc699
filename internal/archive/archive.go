// Package archive exports the rows of one zone to a blob store as a single
// JSON document and imports such documents back through any provider.
//
// Document shape:
//
//	{"zone": {"id": "a"}, "exported_at": "...", "kinds": {"widget": [{...}, ...]}}
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"repokit/internal/blob"
	"repokit/pkg/domain"
)

// ContentType is stored with every archive blob.
const ContentType = "application/json"

// Document is the serialized form of a zone. Rows keep provider order.
type Document struct {
	Zone       domain.Zone                       `json:"zone"`
	ExportedAt time.Time                         `json:"exported_at"`
	Kinds      map[domain.Kind][]json.RawMessage `json:"kinds"`
}

// Summary reports what an export or import touched.
type Summary struct {
	Key    string
	Zone   domain.Zone
	Counts map[domain.Kind]int
}

// Total returns the number of rows across kinds.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Export writes every registered kind of p's zone to key, replacing any
// previous archive there. Providers implementing domain.Snapshotter are read
// at a single instant; others are queried kind by kind.
func Export(ctx context.Context, p domain.Provider, reg *domain.Registry, store blob.Store, key string) (Summary, error) {
	doc := Document{Zone: p.Zone(), ExportedAt: time.Now().UTC(), Kinds: make(map[domain.Kind][]json.RawMessage)}
	sum := Summary{Key: key, Zone: p.Zone(), Counts: make(map[domain.Kind]int)}
	rowsOf, err := reader(ctx, p)
	if err != nil {
		return Summary{}, fmt.Errorf("export: %w", err)
	}
	for _, kind := range reg.Kinds() {
		rows, err := rowsOf(kind)
		if err != nil {
			return Summary{}, fmt.Errorf("export %s: %w", kind, err)
		}
		if len(rows) == 0 {
			continue
		}
		payloads := make([]json.RawMessage, 0, len(rows))
		for _, row := range rows {
			b, err := json.Marshal(row)
			if err != nil {
				return Summary{}, fmt.Errorf("export %s: %w", kind, err)
			}
			payloads = append(payloads, b)
		}
		doc.Kinds[kind] = payloads
		sum.Counts[kind] = len(payloads)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return Summary{}, fmt.Errorf("encode archive: %w", err)
	}
	_, err = store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: ContentType,
		Metadata:    map[string]string{"zone": doc.Zone.ID},
		Overwrite:   true,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("store archive %s: %w", key, err)
	}
	return sum, nil
}

func reader(ctx context.Context, p domain.Provider) (func(domain.Kind) ([]domain.Entity, error), error) {
	if snap, ok := p.(domain.Snapshotter); ok {
		rows, err := snap.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return func(kind domain.Kind) ([]domain.Entity, error) { return rows[kind], nil }, nil
	}
	return func(kind domain.Kind) ([]domain.Entity, error) { return p.Query(ctx, kind, nil, nil) }, nil
}

// Read fetches and decodes the document stored at key.
func Read(ctx context.Context, store blob.Store, key string) (Document, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return Document{}, fmt.Errorf("read archive %s: %w", key, err)
	}
	defer rc.Close()
	var doc Document
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode archive %s: %w", key, err)
	}
	return doc, nil
}

// Import commits every row of the archive at key into p's zone as inserts, in
// one batch. Kinds are applied in registration order; a kind missing from
// reg fails the whole import before anything is committed.
func Import(ctx context.Context, p domain.Provider, reg *domain.Registry, store blob.Store, key string) (Summary, error) {
	doc, err := Read(ctx, store, key)
	if err != nil {
		return Summary{}, err
	}
	var errs []error
	for kind := range doc.Kinds {
		if !reg.Has(kind) {
			errs = append(errs, fmt.Errorf("import %s: %w", kind, domain.ErrUnknownKind))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Summary{}, err
	}
	sum := Summary{Key: key, Zone: p.Zone(), Counts: make(map[domain.Kind]int)}
	var records []domain.Record
	for _, kind := range reg.Kinds() {
		for i, payload := range doc.Kinds[kind] {
			e, err := reg.Decode(kind, payload)
			if err != nil {
				return Summary{}, fmt.Errorf("import %s row %d: %w", kind, i, err)
			}
			rec, err := domain.NewInsertRecord(e)
			if err != nil {
				return Summary{}, fmt.Errorf("import %s row %d: %w", kind, i, err)
			}
			records = append(records, rec)
			sum.Counts[kind]++
		}
	}
	if len(records) == 0 {
		return sum, nil
	}
	if err := p.Commit(ctx, records); err != nil {
		return Summary{}, fmt.Errorf("import %s: %w", key, err)
	}
	return sum, nil
}
