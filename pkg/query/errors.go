package query

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedOperator is matched by every UnsupportedOperatorError.
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrNotComparable reports operands that cannot be ordered against each other.
	ErrNotComparable = errors.New("values are not comparable")
	// ErrMalformedExpression reports a token stream that does not reduce to one value.
	ErrMalformedExpression = errors.New("malformed expression")
	// ErrEmptyOrderField reports an OrderBy item without a field.
	ErrEmptyOrderField = errors.New("order field cannot be empty")
)

// UnsupportedOperatorError names the comparison operator that was rejected.
type UnsupportedOperatorError struct {
	Op string
}

func (e UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q", e.Op)
}

// Is reports whether target is ErrUnsupportedOperator.
func (e UnsupportedOperatorError) Is(target error) bool { return target == ErrUnsupportedOperator }
