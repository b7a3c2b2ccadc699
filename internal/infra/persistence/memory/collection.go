package memory

import (
	"fmt"

	"repokit/pkg/domain"
	"repokit/pkg/query"
)

// Collection maps kinds to tables. Stored values are private clones: every
// write stores CloneEntity of the input and every read returns a fresh clone.
// A Collection is not safe for concurrent use; Store guards it per zone.
type Collection struct {
	tables map[domain.Kind]*table
	kinds  []domain.Kind
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{tables: make(map[domain.Kind]*table)}
}

func (c *Collection) table(kind domain.Kind, create bool) *table {
	t, ok := c.tables[kind]
	if !ok && create {
		t = newTable()
		c.tables[kind] = t
		c.kinds = append(c.kinds, kind)
	}
	return t
}

// Put upserts e under id. The latest write wins.
func (c *Collection) Put(id any, e domain.Entity) {
	c.table(e.Kind(), true).put(id, e.CloneEntity())
}

// Remove deletes kind/id; a missing row is not an error.
func (c *Collection) Remove(kind domain.Kind, id any) {
	if t := c.table(kind, false); t != nil {
		t.remove(id)
	}
}

// Get returns a clone of the row stored under kind/id.
func (c *Collection) Get(kind domain.Kind, id any) (domain.Entity, bool) {
	t := c.table(kind, false)
	if t == nil {
		return nil, false
	}
	e, ok := t.get(id)
	if !ok {
		return nil, false
	}
	return e.CloneEntity(), true
}

// Query filters the rows of kind through e, orders them when args carries an
// OrderBy, then applies Skip and Max. Returned entities are clones.
func (c *Collection) Query(kind domain.Kind, e *query.Exp, args *query.ListArgs) ([]domain.Entity, error) {
	matched, err := c.match(kind, e)
	if err != nil {
		return nil, err
	}
	if order := args.Order(); order != nil {
		if err := query.Sort(matched, order); err != nil {
			return nil, fmt.Errorf("query %s: %w", kind, err)
		}
	}
	start, end := args.Window(len(matched))
	out := make([]domain.Entity, 0, end-start)
	for _, row := range matched[start:end] {
		out = append(out, row.CloneEntity())
	}
	return out, nil
}

// Count returns the number of rows of kind matching e.
func (c *Collection) Count(kind domain.Kind, e *query.Exp) (int, error) {
	matched, err := c.match(kind, e)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (c *Collection) match(kind domain.Kind, e *query.Exp) ([]domain.Entity, error) {
	t := c.table(kind, false)
	if t == nil {
		return nil, nil
	}
	matched := make([]domain.Entity, 0, t.len())
	var matchErr error
	t.each(func(id any, row domain.Entity) bool {
		ok, err := e.IsMatch(row)
		if err != nil {
			matchErr = fmt.Errorf("query %s %v: %w", kind, id, err)
			return false
		}
		if ok {
			matched = append(matched, row)
		}
		return true
	})
	if matchErr != nil {
		return nil, matchErr
	}
	return matched, nil
}

// Kinds lists the kinds holding a table, in first-write order.
func (c *Collection) Kinds() []domain.Kind {
	return append([]domain.Kind(nil), c.kinds...)
}

// Len returns the row count of kind.
func (c *Collection) Len(kind domain.Kind) int {
	if t := c.table(kind, false); t != nil {
		return t.len()
	}
	return 0
}

// ClearKind removes every row of kind and leaves other kinds untouched.
func (c *Collection) ClearKind(kind domain.Kind) {
	if _, ok := c.tables[kind]; !ok {
		return
	}
	c.tables[kind] = newTable()
}

// Apply commits records in order. Deletions remove by identity; inserts and
// updates store a clone of the value. Records are checked before anything is
// written, so a rejected batch leaves the collection unchanged.
func (c *Collection) Apply(records []domain.Record) error {
	if err := CheckRecords(records); err != nil {
		return err
	}
	for _, rec := range records {
		if rec.State() == domain.StateDeleted {
			c.Remove(rec.Kind(), rec.ID())
			continue
		}
		c.Put(rec.ID(), rec.Value())
	}
	return nil
}

// CheckRecords reports the first record that Apply would reject.
func CheckRecords(records []domain.Record) error {
	for i, rec := range records {
		if err := checkRecord(rec); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, rec, err)
		}
	}
	return nil
}

func checkRecord(rec domain.Record) error {
	if rec.ID() == nil {
		return domain.ErrIdentityNotFound
	}
	switch rec.State() {
	case domain.StateDeleted:
		return nil
	case domain.StateInserted, domain.StateUpdated:
		if rec.Value() == nil {
			return domain.ErrNilEntity
		}
		if rec.Value().Kind() != rec.Kind() {
			return domain.TypeMismatchError{Want: rec.Kind(), Got: rec.Value().Kind()}
		}
		return nil
	default:
		return fmt.Errorf("unknown record state %s", rec.State())
	}
}
