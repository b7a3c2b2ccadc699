package query

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Comparer lets custom types take part in ordering comparisons. CompareTo
// returns a negative number, zero, or a positive number when the receiver is
// less than, equal to, or greater than other.
type Comparer interface {
	CompareTo(other any) (int, error)
}

// Compare orders left against right. Numbers compare across widths and
// signedness, strings lexically, times chronologically, UUIDs by bytes (the
// right side may be a UUID string), bools with false before true. Anything
// else must implement Comparer.
func Compare(left, right any) (int, error) {
	if c, ok := left.(Comparer); ok {
		return c.CompareTo(right)
	}
	switch l := left.(type) {
	case time.Time:
		if r, ok := right.(time.Time); ok {
			return l.Compare(r), nil
		}
		return 0, notComparable(left, right)
	case uuid.UUID:
		r, err := asUUID(right)
		if err != nil {
			return 0, notComparable(left, right)
		}
		return bytes.Compare(l[:], r[:]), nil
	}

	lv, rv := reflect.ValueOf(left), reflect.ValueOf(right)
	switch {
	case isString(lv) && isString(rv):
		return strings.Compare(lv.String(), rv.String()), nil
	case isBool(lv) && isBool(rv):
		return compareBool(lv.Bool(), rv.Bool()), nil
	case isNumber(lv) && isNumber(rv):
		return compareNumbers(lv, rv), nil
	}
	return 0, notComparable(left, right)
}

func notComparable(left, right any) error {
	return fmt.Errorf("%w: %T and %T", ErrNotComparable, left, right)
}

func asUUID(v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case string:
		return uuid.Parse(x)
	default:
		return uuid.Nil, ErrNotComparable
	}
}

func isString(v reflect.Value) bool { return v.Kind() == reflect.String }

func isBool(v reflect.Value) bool { return v.Kind() == reflect.Bool }

func isNumber(v reflect.Value) bool { return isSigned(v) || isUnsigned(v) || isFloat(v) }

func isSigned(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

func compareBool(l, r bool) int {
	switch {
	case l == r:
		return 0
	case !l:
		return -1
	default:
		return 1
	}
}

func compareNumbers(l, r reflect.Value) int {
	switch {
	case isSigned(l) && isSigned(r):
		return cmp.Compare(l.Int(), r.Int())
	case isUnsigned(l) && isUnsigned(r):
		return cmp.Compare(l.Uint(), r.Uint())
	case isSigned(l) && isUnsigned(r):
		if l.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(l.Int()), r.Uint())
	case isUnsigned(l) && isSigned(r):
		if r.Int() < 0 {
			return 1
		}
		return cmp.Compare(l.Uint(), uint64(r.Int()))
	}
	return cmp.Compare(toFloat(l), toFloat(r))
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isSigned(v):
		return float64(v.Int())
	case isUnsigned(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
