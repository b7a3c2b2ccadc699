// Package query provides the backend-agnostic filter language used by
// repositories: boolean expressions that evaluate against in-memory objects
// or render to SQL predicate text, plus ordering and paging arguments.
//
//	e := query.New("Age", ">", 18).And("Name", "like", "ann").
//		OrGroup(query.New("Role", "=", "admin"))
//	ok, err := e.IsMatch(user)
//	where := e.ToSQL() // Age > 18 And Name like '%ann%' Or ( Role = 'admin' )
package query

import "strings"

// item is either an operand or a structural operator.
type item struct {
	operand operand
	op      *operator
}

// Exp is a boolean filter expression built left to right. And binds tighter
// than Or; groups override precedence. The zero value and a nil *Exp match
// everything.
type Exp struct {
	items []item
}

// New starts an expression with a single comparison.
func New(field, op string, value any) *Exp {
	e := &Exp{}
	e.addOperand(field, op, value)
	return e
}

// NewGroup starts an expression with a parenthesised copy of sub.
func NewGroup(sub *Exp) *Exp {
	e := &Exp{}
	e.addGroup(sub)
	return e
}

// And appends "And field op value".
func (e *Exp) And(field, op string, value any) *Exp {
	e.items = append(e.items, item{op: opAnd})
	e.addOperand(field, op, value)
	return e
}

// Or appends "Or field op value".
func (e *Exp) Or(field, op string, value any) *Exp {
	e.items = append(e.items, item{op: opOr})
	e.addOperand(field, op, value)
	return e
}

// AndGroup appends "And ( sub )".
func (e *Exp) AndGroup(sub *Exp) *Exp {
	e.items = append(e.items, item{op: opAnd})
	e.addGroup(sub)
	return e
}

// OrGroup appends "Or ( sub )".
func (e *Exp) OrGroup(sub *Exp) *Exp {
	e.items = append(e.items, item{op: opOr})
	e.addGroup(sub)
	return e
}

func (e *Exp) addOperand(field, op string, value any) {
	e.items = append(e.items, item{operand: newOperand(field, op, value)})
}

func (e *Exp) addGroup(sub *Exp) {
	e.items = append(e.items, item{op: opLeftParen})
	if sub != nil {
		e.items = append(e.items, sub.items...)
	}
	e.items = append(e.items, item{op: opRightParen})
}

// Len returns the number of tokens, counting operators and parentheses.
func (e *Exp) Len() int {
	if e == nil {
		return 0
	}
	return len(e.items)
}

// Clone returns an independent copy that can be extended without affecting e.
func (e *Exp) Clone() *Exp {
	if e == nil {
		return nil
	}
	return &Exp{items: append([]item(nil), e.items...)}
}

// IsMatch binds every comparison against obj and evaluates the expression.
// Binding does not mutate e, so one expression may be matched concurrently.
func (e *Exp) IsMatch(obj any) (bool, error) {
	if e.Len() == 0 {
		return true, nil
	}
	bound := make([]token, len(e.items))
	for i, it := range e.items {
		if it.op != nil {
			bound[i] = token{op: it.op}
			continue
		}
		v, err := it.operand.bind(obj)
		if err != nil {
			return false, err
		}
		bound[i] = token{val: v}
	}
	post, err := postfix(bound)
	if err != nil {
		return false, err
	}
	return evaluate(post)
}

// ToSQL renders the token stream as SQL predicate text. Parentheses are
// already explicit, so no restructuring happens.
func (e *Exp) ToSQL() string {
	if e.Len() == 0 {
		return ""
	}
	parts := make([]string, len(e.items))
	for i, it := range e.items {
		if it.op != nil {
			parts[i] = it.op.sql()
			continue
		}
		parts[i] = it.operand.sql()
	}
	return strings.Join(parts, " ")
}

func (e *Exp) String() string { return e.ToSQL() }
