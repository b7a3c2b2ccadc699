package core

import (
	"context"
	"fmt"

	"repokit/pkg/domain"
)

type recordKey struct {
	kind domain.Kind
	id   any
}

// Tracker is a unit of work: it stages inserts, updates and deletes until a
// Repository commits them. A Tracker is not safe for concurrent use.
type Tracker struct {
	records  []domain.Record
	latest   map[recordKey]int
	problems []*domain.ValidationError
}

// NewTracker returns an empty unit of work.
func NewTracker() *Tracker {
	return &Tracker{latest: make(map[recordKey]int)}
}

// Insert stages e as a new entity. Validation failures and unresolvable
// identities are returned and nothing is staged.
func (t *Tracker) Insert(e domain.Entity) error {
	if e == nil {
		return domain.ErrNilEntity
	}
	if verr := validate(e); verr != nil {
		return verr
	}
	rec, err := domain.NewInsertRecord(e)
	if err != nil {
		return err
	}
	t.stage(rec)
	return nil
}

// RegisterUpdate stages e as a replacement. A validation failure is recorded
// in Problems and returned. When the latest record staged for the same
// identity is still live, its value is replaced in place; otherwise a new
// update record is staged with a snapshot of e taken now.
func (t *Tracker) RegisterUpdate(e domain.Entity) error {
	if e == nil {
		return domain.ErrNilEntity
	}
	if verr := validate(e); verr != nil {
		t.problems = append(t.problems, verr)
		return verr
	}
	id, err := domain.ResolveIdentity(e)
	if err != nil {
		return fmt.Errorf("%s: %w", e.Kind(), err)
	}
	if i, ok := t.latest[recordKey{kind: e.Kind(), id: id}]; ok && t.records[i].State() != domain.StateDeleted {
		return t.records[i].Replace(e)
	}
	rec, err := domain.NewUpdateRecord(e)
	if err != nil {
		return err
	}
	t.stage(rec)
	return nil
}

// Delete stages removal of kind/id. The row does not need to exist.
func (t *Tracker) Delete(kind domain.Kind, id any) error {
	rec, err := domain.NewDeleteRecord(kind, id)
	if err != nil {
		return err
	}
	t.stage(rec)
	return nil
}

// Delete stages removal of the T identified by id.
func Delete[T domain.Entity](t *Tracker, id any) error {
	return t.Delete(domain.KindOf[T](), id)
}

func (t *Tracker) stage(rec domain.Record) {
	if t.latest == nil {
		t.latest = make(map[recordKey]int)
	}
	t.latest[recordKey{kind: rec.Kind(), id: rec.ID()}] = len(t.records)
	t.records = append(t.records, rec)
}

// Records returns the staged records in staging order.
func (t *Tracker) Records() []domain.Record {
	return append([]domain.Record(nil), t.records...)
}

// Len reports the number of staged records.
func (t *Tracker) Len() int { return len(t.records) }

// Problems returns the validation failures collected by RegisterUpdate since
// the last Complete.
func (t *Tracker) Problems() []*domain.ValidationError {
	return append([]*domain.ValidationError(nil), t.problems...)
}

// Complete discards staged records and collected problems.
func (t *Tracker) Complete() {
	t.records = nil
	t.latest = make(map[recordKey]int)
	t.problems = nil
}

func validate(e domain.Entity) *domain.ValidationError {
	v, ok := e.(domain.Validatable)
	if !ok {
		return nil
	}
	msgs := v.Validate()
	if len(msgs) == 0 {
		return nil
	}
	id, _ := domain.ResolveIdentity(e)
	return &domain.ValidationError{Kind: e.Kind(), ID: id, Messages: msgs}
}

type trackerKey struct{}

// WithTracker returns a context carrying t for collaborators that stage
// changes on behalf of the caller.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFrom returns the tracker stored by WithTracker.
func TrackerFrom(ctx context.Context) (*Tracker, bool) {
	t, ok := ctx.Value(trackerKey{}).(*Tracker)
	return t, ok && t != nil
}
