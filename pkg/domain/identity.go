package domain

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// IDTag is the struct tag marking an identity field whose name is not "Id".
//
//	type Account struct {
//		Login string `repo:"id"`
//	}
const IDTag = "repo"

// NewID returns a time-ordered identifier. Values created later sort after
// values created earlier, which keeps index locality in durable backends.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// ResolveIdentity extracts the identity of v. Resolution order:
//
//  1. the Identifiable capability;
//  2. an exported field named exactly "Id";
//  3. an exported field named "id" in any letter case;
//  4. an exported field tagged `repo:"id"`.
//
// It fails with ErrIdentityNotFound when nothing matches or the resolved value
// is nil or not comparable, including when the field is promoted through a nil
// embedded pointer. ResolveIdentity never mutates v.
func ResolveIdentity(v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil value", ErrIdentityNotFound)
	}
	if idf, ok := v.(Identifiable); ok {
		return checkIdentity(fmt.Sprintf("%T", v), idf.EntityID())
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %T", ErrIdentityNotFound, v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct", ErrIdentityNotFound, v)
	}
	field, ok := identityField(rv.Type())
	if !ok {
		return nil, fmt.Errorf("%w: %T has no Id field or %s:\"id\" tag", ErrIdentityNotFound, v, IDTag)
	}
	fv, err := rv.FieldByIndexErr(field.Index)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrIdentityNotFound, v, err)
	}
	return checkIdentity(fmt.Sprintf("%T", v), fv.Interface())
}

func identityField(rt reflect.Type) (reflect.StructField, bool) {
	if f, ok := rt.FieldByName("Id"); ok && f.IsExported() {
		return f, true
	}
	fields := reflect.VisibleFields(rt)
	for _, f := range fields {
		if f.IsExported() && strings.EqualFold(f.Name, "id") {
			return f, true
		}
	}
	for _, f := range fields {
		if f.IsExported() && f.Tag.Get(IDTag) == "id" {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func checkIdentity(owner string, id any) (any, error) {
	if id == nil {
		return nil, fmt.Errorf("%w: %s has a nil identity", ErrIdentityNotFound, owner)
	}
	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: %s has a nil identity", ErrIdentityNotFound, owner)
		}
	}
	if !rv.Type().Comparable() {
		return nil, fmt.Errorf("%w: %s identity of type %T is not comparable", ErrIdentityNotFound, owner, id)
	}
	return id, nil
}
