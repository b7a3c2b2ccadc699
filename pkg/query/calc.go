package query

import "fmt"

// token is a bound expression item: either an operand carrying its boolean
// result or a structural operator.
type token struct {
	op  *operator
	val bool
}

func (t token) isOperand() bool { return t.op == nil }

// postfix converts the infix token stream with the shunting-yard algorithm.
// A sentinel with priority zero sits at the bottom of the operator stack and
// is never emitted.
func postfix(in []token) ([]token, error) {
	out := make([]token, 0, len(in))
	stack := []*operator{opSentinel}
	pop := func() *operator {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top
	}
	for _, t := range in {
		switch {
		case t.isOperand():
			out = append(out, t)
		case t.op == opRightParen:
			for {
				if len(stack) == 1 {
					return nil, fmt.Errorf("%w: unbalanced )", ErrMalformedExpression)
				}
				y := pop()
				if y == opLeftParen {
					break
				}
				out = append(out, token{op: y})
			}
		default:
			for stack[len(stack)-1].isp > t.op.icp {
				out = append(out, token{op: pop()})
			}
			stack = append(stack, t.op)
		}
	}
	for len(stack) > 1 {
		y := pop()
		if y == opLeftParen {
			return nil, fmt.Errorf("%w: unbalanced (", ErrMalformedExpression)
		}
		out = append(out, token{op: y})
	}
	return out, nil
}

// evaluate reduces a postfix stream. Operators pop the right operand first,
// then the left.
func evaluate(post []token) (bool, error) {
	if len(post) == 1 && post[0].isOperand() {
		return post[0].val, nil
	}
	stack := make([]bool, 0, len(post))
	for _, t := range post {
		if t.isOperand() {
			stack = append(stack, t.val)
			continue
		}
		if len(stack) < 2 {
			return false, fmt.Errorf("%w: %s is missing an operand", ErrMalformedExpression, t.op.text)
		}
		right := stack[len(stack)-1]
		left := stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		switch t.op {
		case opAnd:
			stack = append(stack, left && right)
		case opOr:
			stack = append(stack, left || right)
		default:
			return false, fmt.Errorf("%w: unexpected %s", ErrMalformedExpression, t.op.text)
		}
	}
	if len(stack) != 1 {
		return false, fmt.Errorf("%w: %d values left after evaluation", ErrMalformedExpression, len(stack))
	}
	return stack[0], nil
}
