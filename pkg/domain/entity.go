// Package domain defines the contracts shared by the repository engine and its
// storage providers: entities, staged change records, zones, the kind registry
// used by durable backends, and the typed errors surfaced to callers.
package domain

import "reflect"

// Kind identifies the runtime type of an entity. Each kind owns its own table
// inside a zone.
type Kind string

// Entity is a value persisted as a unit by a repository.
//
// CloneEntity must return a deep copy that shares no mutable structure
// (slices, maps, pointers) with the receiver. Stores call it on every read and
// write so callers never alias stored state.
type Entity interface {
	Kind() Kind
	CloneEntity() Entity
}

// Identifiable exposes an explicit identity accessor. Entities that do not
// implement it are resolved from their struct fields; see ResolveIdentity.
type Identifiable interface {
	EntityID() any
}

// Validatable is an optional capability checked before an entity is staged.
// Validate returns human-readable messages; an empty result means valid.
type Validatable interface {
	Validate() []string
}

// KindOf reports the kind of T. For a pointer type, Kind is called on a fresh
// zero value rather than a nil pointer, so value and pointer receivers both
// work. T must be a concrete type.
func KindOf[T Entity]() Kind {
	if rt := reflect.TypeFor[T](); rt.Kind() == reflect.Pointer {
		return reflect.New(rt.Elem()).Interface().(Entity).Kind()
	}
	var zero T
	return zero.Kind()
}
