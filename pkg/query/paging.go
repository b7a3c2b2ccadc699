package query

import (
	"encoding/json"
	"math"
)

// ListArgs windows a query result: skip Skip rows, then take at most Max. A
// Max of zero or less takes every remaining row.
type ListArgs struct {
	Max     int
	Skip    int
	OrderBy *OrderBy
}

// All returns arguments that keep every row.
func All() *ListArgs {
	return &ListArgs{Max: math.MaxInt}
}

// Window returns the [start, end) bounds of the page within n rows. Nil args
// select everything; a negative Skip counts as zero and a non-positive Max
// is unlimited.
func (a *ListArgs) Window(n int) (start, end int) {
	if a == nil {
		return 0, n
	}
	start = min(max(a.Skip, 0), n)
	if a.Max <= 0 || a.Max > n-start {
		return start, n
	}
	return start, start + a.Max
}

// Order returns the ordering of a, which may be nil.
func (a *ListArgs) Order() *OrderBy {
	if a == nil {
		return nil
	}
	return a.OrderBy
}

// PageInfo addresses one page of a listing.
type PageInfo struct {
	Size    uint
	Number  uint
	OrderBy *OrderBy
}

// ListArgs converts the page to row-level arguments.
func (p PageInfo) ListArgs() *ListArgs {
	size := max(p.Size, 1)
	number := max(p.Number, 1)
	return &ListArgs{
		Max:     int(size),
		Skip:    int(size * (number - 1)),
		OrderBy: p.OrderBy,
	}
}

// RecordInfo summarises a listing once its total row count is known.
type RecordInfo struct {
	Count     uint
	PageCount uint
}

// Pages tracks the current page of a listing and, after SetRecord, the totals.
type Pages struct {
	Current PageInfo
	Record  *RecordInfo
}

// NewPages clamps size and number to at least one.
func NewPages(size, number uint, orderBy *OrderBy) *Pages {
	return &Pages{Current: PageInfo{Size: max(size, 1), Number: max(number, 1), OrderBy: orderBy}}
}

// ChangeNumber moves to another page.
func (p *Pages) ChangeNumber(number uint) {
	p.Current.Number = max(number, 1)
}

// SetRecord records the total row count and derives the page count.
func (p *Pages) SetRecord(count int) {
	c := uint(max(count, 0))
	p.Record = &RecordInfo{
		Count:     c,
		PageCount: uint(math.Ceil(float64(c) / float64(p.Current.Size))),
	}
}

type pagesJSON struct {
	RecordCount uint `json:"RecordCount"`
	PageSize    uint `json:"PageSize"`
	CurrentPage uint `json:"CurrentPage"`
	PageCount   uint `json:"PageCount"`
}

// MarshalJSON renders the pager summary consumed by listing views.
func (p *Pages) MarshalJSON() ([]byte, error) {
	out := pagesJSON{PageSize: p.Current.Size, CurrentPage: p.Current.Number}
	if p.Record != nil {
		out.RecordCount = p.Record.Count
		out.PageCount = p.Record.PageCount
	}
	return json.Marshal(out)
}
