package query

import (
	"reflect"
	"strings"
)

// Fielder exposes named values to the path resolver without reflection.
// Entities with computed or renamed fields implement it to control what
// filters can see.
type Fielder interface {
	Field(name string) (any, bool)
}

// Lookup resolves a dotted path such as "Address.City" against obj. Each
// segment is looked up through Fielder, then map[string]any, then exported
// struct fields (exact name first, then case-insensitive). A missing segment
// a nil intermediate or a nil embedded pointer yields nil.
func Lookup(obj any, path string) any {
	if obj == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	current := obj
	for _, name := range strings.Split(path, ".") {
		if name == "" {
			continue
		}
		next, ok := step(current, name)
		if !ok || isNil(next) {
			return nil
		}
		current = next
	}
	return deref(current)
}

func step(obj any, name string) (any, bool) {
	if f, ok := obj.(Fielder); ok {
		return f.Field(name)
	}
	if m, ok := obj.(map[string]any); ok {
		v, ok := m[name]
		return v, ok
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	if f, ok := rt.FieldByName(name); ok && f.IsExported() {
		return fieldValue(rv, f)
	}
	for _, f := range reflect.VisibleFields(rt) {
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return fieldValue(rv, f)
		}
	}
	return nil, false
}

// fieldValue reads a possibly promoted field. A nil embedded pointer on the
// way makes the field missing.
func fieldValue(rv reflect.Value, f reflect.StructField) (any, bool) {
	fv, err := rv.FieldByIndexErr(f.Index)
	if err != nil {
		return nil, false
	}
	return fv.Interface(), true
}

// deref unwraps pointers so *int and int, or *time.Time and time.Time,
// compare alike. Pointers implementing Comparer are kept.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return v
	}
	if _, ok := v.(Comparer); ok {
		return v
	}
	return rv.Elem().Interface()
}
