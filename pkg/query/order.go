package query

import (
	"fmt"
	"sort"
	"strings"
)

// Direction is a sort direction.
type Direction int

const (
	// Asc sorts ascending.
	Asc Direction = iota
	// Desc sorts descending.
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "Desc"
	}
	return "Asc"
}

// OrderItem is one sort key.
type OrderItem struct {
	Field string
	Dir   Direction
}

// OrderBy is an ordered list of sort keys. Construction errors (an empty
// field) are kept and reported by Err so the fluent chain stays unbroken.
type OrderBy struct {
	items []OrderItem
	err   error
}

// NewOrderBy starts an ordering on field.
func NewOrderBy(field string, dir Direction) *OrderBy {
	return (&OrderBy{}).And(field, dir)
}

// And appends another sort key.
func (o *OrderBy) And(field string, dir Direction) *OrderBy {
	if strings.TrimSpace(field) == "" {
		if o.err == nil {
			o.err = ErrEmptyOrderField
		}
		return o
	}
	o.items = append(o.items, OrderItem{Field: field, Dir: dir})
	return o
}

// Merge appends every key of other.
func (o *OrderBy) Merge(other *OrderBy) *OrderBy {
	if other == nil {
		return o
	}
	o.items = append(o.items, other.items...)
	if o.err == nil {
		o.err = other.err
	}
	return o
}

// Items returns a copy of the sort keys.
func (o *OrderBy) Items() []OrderItem {
	if o == nil {
		return nil
	}
	return append([]OrderItem(nil), o.items...)
}

// Err reports the first construction error.
func (o *OrderBy) Err() error {
	if o == nil {
		return nil
	}
	return o.err
}

// ToSQL renders "A Asc,B Desc"; an empty ordering renders "".
func (o *OrderBy) ToSQL() string {
	if o == nil || len(o.items) == 0 {
		return ""
	}
	parts := make([]string, len(o.items))
	for i, it := range o.items {
		parts[i] = it.Field + " " + it.Dir.String()
	}
	return strings.Join(parts, ",")
}

// Sort orders items in place by the sort keys, resolving each field with
// Lookup. Nil values sort first. The sort is stable, so rows with equal keys
// keep their incoming order.
func Sort[T any](items []T, o *OrderBy) error {
	if o == nil || len(o.items) == 0 {
		return nil
	}
	if o.err != nil {
		return o.err
	}
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		for _, key := range o.items {
			c, err := compareNullable(Lookup(items[i], key.Field), Lookup(items[j], key.Field))
			if err != nil {
				if sortErr == nil {
					sortErr = fmt.Errorf("order by %s: %w", key.Field, err)
				}
				return false
			}
			if c == 0 {
				continue
			}
			if key.Dir == Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return sortErr
}

func compareNullable(a, b any) (int, error) {
	switch an, bn := isNil(a), isNil(b); {
	case an && bn:
		return 0, nil
	case an:
		return -1, nil
	case bn:
		return 1, nil
	}
	return Compare(a, b)
}
