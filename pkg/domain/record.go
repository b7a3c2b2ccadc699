package domain

import (
	"fmt"
	"reflect"
)

// State is the pending operation carried by a Record.
type State int

const (
	// StateInserted stages a new entity.
	StateInserted State = iota
	// StateUpdated stages a replacement for an existing entity.
	StateUpdated
	// StateDeleted stages removal by identity.
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateInserted:
		return "inserted"
	case StateUpdated:
		return "updated"
	case StateDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Record is one staged operation. Records live for a single commit cycle:
// trackers create them and providers consume them.
type Record struct {
	id       any
	kind     Kind
	state    State
	value    Entity
	original Entity
}

// NewInsertRecord stages e for insertion.
func NewInsertRecord(e Entity) (Record, error) {
	id, err := entityIdentity(e)
	if err != nil {
		return Record{}, err
	}
	return Record{id: id, kind: e.Kind(), state: StateInserted, value: e}, nil
}

// NewUpdateRecord stages e for update and snapshots it immediately, so later
// in-place mutation by the caller does not leak into Original.
func NewUpdateRecord(e Entity) (Record, error) {
	id, err := entityIdentity(e)
	if err != nil {
		return Record{}, err
	}
	return Record{id: id, kind: e.Kind(), state: StateUpdated, value: e, original: e.CloneEntity()}, nil
}

// NewDeleteRecord stages removal of kind/id. No value is carried.
func NewDeleteRecord(kind Kind, id any) (Record, error) {
	if _, err := checkIdentity(string(kind), id); err != nil {
		return Record{}, err
	}
	return Record{id: id, kind: kind, state: StateDeleted}, nil
}

func entityIdentity(e Entity) (any, error) {
	if e == nil {
		return nil, ErrNilEntity
	}
	id, err := ResolveIdentity(e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Kind(), err)
	}
	return id, nil
}

// ID returns the record identity.
func (r Record) ID() any { return r.id }

// Kind returns the record kind; it never changes after construction.
func (r Record) Kind() Kind { return r.kind }

// State returns the pending operation.
func (r Record) State() State { return r.state }

// Value returns the staged entity, or nil for deletions.
func (r Record) Value() Entity { return r.value }

// Original returns the snapshot taken when an update was registered.
func (r Record) Original() Entity { return r.original }

// Replace swaps the staged value of a coalesced record. The identity and
// snapshot are kept. The new value must have the same kind and the same Go
// type as the staged one.
func (r *Record) Replace(e Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	if e.Kind() != r.kind || (r.value != nil && reflect.TypeOf(e) != reflect.TypeOf(r.value)) {
		return TypeMismatchError{
			Want:     r.kind,
			Got:      e.Kind(),
			WantType: fmt.Sprintf("%T", r.value),
			GotType:  fmt.Sprintf("%T", e),
		}
	}
	r.value = e
	return nil
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s/%v", r.state, r.kind, r.id)
}
