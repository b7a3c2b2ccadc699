package query

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string
	Zip  *string
}

type row struct {
	A, B, C int
	Name    string
	Note    *string
	When    time.Time
	Ref     uuid.UUID
	Addr    *address
}

type located struct {
	*address
	Label string
}

func TestIsMatchPrecedence(t *testing.T) {
	obj := row{A: 0, B: 2, C: 3}

	ok, err := New("A", "=", 1).And("B", "=", 2).Or("C", "=", 3).IsMatch(obj)
	require.NoError(t, err)
	assert.True(t, ok, "(A And B) Or C should hold when only C holds")

	ok, err = New("C", "=", 3).Or("A", "=", 1).And("B", "=", 5).IsMatch(obj)
	require.NoError(t, err)
	assert.True(t, ok, "C Or (A And B) should hold")

	ok, err = NewGroup(New("C", "=", 3).Or("A", "=", 1)).And("B", "=", 5).IsMatch(obj)
	require.NoError(t, err)
	assert.False(t, ok, "(C Or A) And B should fail on B")

	ok, err = New("B", "=", 2).AndGroup(New("A", "=", 1).Or("C", "=", 3)).IsMatch(obj)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = New("A", "=", 7).OrGroup(New("B", "=", 2).And("C", ">", 1)).IsMatch(obj)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsMatchSingleOperand(t *testing.T) {
	ok, err := New("A", ">=", 0).IsMatch(row{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = New("A", "<", 0).IsMatch(row{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsMatchEmptyMatchesEverything(t *testing.T) {
	var nilExp *Exp
	ok, err := nilExp.IsMatch(row{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = (&Exp{}).IsMatch(nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsMatchNulls(t *testing.T) {
	note := "x"
	cases := []struct {
		name string
		exp  *Exp
		obj  any
		want bool
	}{
		{"nil field equals nil", New("Note", "=", nil), row{}, true},
		{"nil field vs value", New("Note", "=", "x"), row{}, false},
		{"nil field ordering vs nil", New("Note", ">", nil), row{}, true},
		{"set field vs nil", New("Note", "=", nil), row{Note: &note}, false},
		{"set pointer field compares by value", New("Note", "=", "x"), row{Note: &note}, true},
		{"missing path is nil", New("Addr.City", "=", nil), row{}, true},
		{"missing field is nil", New("Nope", "=", 1), row{}, false},
		{"nil object", New("A", "=", nil), nil, true},
		{"nil embedded pointer is nil", New("City", "=", nil), located{Label: "l"}, true},
		{"nil embedded pointer vs value", New("city", "=", "Oslo"), located{Label: "l"}, false},
		{"set embedded pointer", New("City", "=", "Oslo"), located{address: &address{City: "Oslo"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := tc.exp.IsMatch(tc.obj)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestIsMatchOperators(t *testing.T) {
	now := time.Now()
	id := uuid.New()
	obj := &row{A: 5, Name: "Annabel", When: now, Ref: id, Addr: &address{City: "Oslo"}}
	cases := []struct {
		name string
		exp  *Exp
		want bool
	}{
		{"gt", New("A", ">", 4), true},
		{"gte equal", New("A", ">=", 5), true},
		{"lt", New("A", "<", 5), false},
		{"lte", New("A", "<=", 5), true},
		{"cross width numbers", New("A", "=", int64(5)), true},
		{"int vs float", New("A", "<", 5.5), true},
		{"int vs uint", New("A", ">", uint8(3)), true},
		{"like", New("Name", "like", "nab"), true},
		{"like miss", New("Name", "like", "zzz"), false},
		{"like number", New("A", "LIKE", 5), true},
		{"upper-cased operator", New("A", " >= ", 5), true},
		{"string order", New("Name", "<", "B"), true},
		{"time", New("When", "<", now.Add(time.Second)), true},
		{"uuid equal", New("Ref", "=", id), true},
		{"uuid string", New("Ref", "=", id.String()), true},
		{"nested path", New("Addr.City", "=", "Oslo"), true},
		{"case-insensitive path", New("addr.city", "=", "Oslo"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := tc.exp.IsMatch(obj)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestIsMatchMapsAndFielders(t *testing.T) {
	ok, err := New("Profile.Age", ">", 30).IsMatch(map[string]any{"Profile": map[string]any{"Age": 41}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = New("score", "=", 9).IsMatch(fielder{"score": 9})
	require.NoError(t, err)
	assert.True(t, ok)
}

type fielder map[string]any

func (f fielder) Field(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

type version struct{ major, minor int }

func (v version) CompareTo(other any) (int, error) {
	o, ok := other.(version)
	if !ok {
		return 0, ErrNotComparable
	}
	if v.major != o.major {
		return v.major - o.major, nil
	}
	return v.minor - o.minor, nil
}

func TestIsMatchComparer(t *testing.T) {
	obj := map[string]any{"V": version{1, 4}}
	ok, err := New("V", ">", version{1, 2}).IsMatch(obj)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = New("V", ">", "1.2").IsMatch(obj)
	assert.ErrorIs(t, err, ErrNotComparable)
}

func TestIsMatchErrors(t *testing.T) {
	_, err := New("A", "!=", 1).IsMatch(row{A: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedOperator)
	var opErr UnsupportedOperatorError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "!=", opErr.Op)

	_, err = New("Name", ">", 3).IsMatch(row{Name: "x"})
	assert.ErrorIs(t, err, ErrNotComparable)

	_, err = NewGroup(nil).IsMatch(row{})
	assert.ErrorIs(t, err, ErrMalformedExpression)
}

func TestIsMatchDoesNotMutate(t *testing.T) {
	e := New("A", "=", 1).Or("B", "=", 2)
	before := e.ToSQL()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := e.IsMatch(row{A: i % 2})
			assert.NoError(t, err)
			assert.Equal(t, i%2 == 1, ok)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, before, e.ToSQL())
	assert.Equal(t, 3, e.Len())
}

func TestToSQL(t *testing.T) {
	assert.Equal(t, "A = 1 And B > 2", New("A", "=", 1).And("B", ">", 2).ToSQL())
	assert.Equal(t, "", (*Exp)(nil).ToSQL())
	assert.Equal(t, "Name like '%ann%'", New("Name", "like", "ann").ToSQL())
	assert.Equal(t, "Name = 'O&#39;Brien &#34;B&#34;'", New("Name", "=", `O'Brien "B"`).ToSQL())
	assert.Equal(t, "Note = NULL", New("Note", "=", nil).ToSQL())
	assert.Equal(t, "A = 1 Or ( B = 2 And C < 3 )",
		New("A", "=", 1).OrGroup(New("B", "=", 2).And("C", "<", 3)).ToSQL())

	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "When >= '2024-03-01T12:00:00Z'", New("When", ">=", when).ToSQL())
	id := uuid.MustParse("0190f2a4-7c4e-7b1a-9f00-000000000001")
	assert.Equal(t, "Ref = '0190f2a4-7c4e-7b1a-9f00-000000000001'", New("Ref", "=", id).ToSQL())
}

func TestClone(t *testing.T) {
	base := New("A", "=", 1)
	extended := base.Clone().And("B", "=", 2)
	assert.Equal(t, "A = 1", base.ToSQL())
	assert.Equal(t, "A = 1 And B = 2", extended.ToSQL())
	assert.Nil(t, (*Exp)(nil).Clone())
}
