package memory

import "repokit/pkg/domain"

// table holds the rows of one kind. Iteration follows the order in which each
// identity was first written; overwriting a row keeps its position.
type table struct {
	keys []any
	rows map[any]domain.Entity
}

func newTable() *table {
	return &table{rows: make(map[any]domain.Entity)}
}

func (t *table) put(id any, e domain.Entity) {
	if _, ok := t.rows[id]; !ok {
		t.keys = append(t.keys, id)
	}
	t.rows[id] = e
}

func (t *table) remove(id any) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, k := range t.keys {
		if k == id {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

func (t *table) get(id any) (domain.Entity, bool) {
	e, ok := t.rows[id]
	return e, ok
}

func (t *table) len() int { return len(t.keys) }

// each visits rows in iteration order until fn returns false.
func (t *table) each(fn func(id any, e domain.Entity) bool) {
	for _, k := range t.keys {
		if !fn(k, t.rows[k]) {
			return
		}
	}
}
