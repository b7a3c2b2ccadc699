package query

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Comparison operators accepted by New, And and Or.
const (
	OpEq   = "="
	OpGt   = ">"
	OpGte  = ">="
	OpLt   = "<"
	OpLte  = "<="
	OpLike = "like"
)

// operand is a single comparison: left is a field path resolved on the
// candidate object, right a literal.
type operand struct {
	left  string
	op    string
	right any
}

func newOperand(left, op string, right any) operand {
	return operand{left: left, op: strings.ToLower(strings.TrimSpace(op)), right: right}
}

// bind evaluates the comparison against obj.
func (o operand) bind(obj any) (bool, error) {
	leftVal := Lookup(obj, o.left)
	if isNil(leftVal) {
		return isNil(o.right), nil
	}
	if o.op == OpLike {
		if isNil(o.right) {
			return false, nil
		}
		return strings.Contains(fmt.Sprint(leftVal), fmt.Sprint(o.right)), nil
	}
	switch o.op {
	case OpEq, OpGt, OpGte, OpLt, OpLte:
	default:
		return false, UnsupportedOperatorError{Op: o.op}
	}
	if isNil(o.right) {
		return false, nil
	}
	if o.op == OpEq && sameComparable(leftVal, o.right) && leftVal == o.right {
		return true, nil
	}
	result, err := Compare(leftVal, o.right)
	if err != nil {
		return false, fmt.Errorf("%s %s %v: %w", o.left, o.op, o.right, err)
	}
	switch o.op {
	case OpEq:
		return result == 0, nil
	case OpGt:
		return result > 0, nil
	case OpGte:
		return result >= 0, nil
	case OpLt:
		return result < 0, nil
	default:
		return result <= 0, nil
	}
}

func (o operand) sql() string {
	right := o.right
	if o.op == OpLike {
		right = "%" + fmt.Sprint(right) + "%"
	}
	return o.left + " " + o.op + " " + sqlLiteral(right)
}

func sqlLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + escapeSQL(x) + "'"
	case time.Time:
		return "'" + x.Format(time.RFC3339Nano) + "'"
	case uuid.UUID:
		return "'" + x.String() + "'"
	case fmt.Stringer:
		return "'" + escapeSQL(x.String()) + "'"
	default:
		return fmt.Sprint(x)
	}
}

func escapeSQL(s string) string {
	s = strings.ReplaceAll(s, "'", "&#39;")
	return strings.ReplaceAll(s, `"`, "&#34;")
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func sameComparable(a, b any) bool {
	ta := reflect.TypeOf(a)
	return ta == reflect.TypeOf(b) && ta.Comparable()
}
