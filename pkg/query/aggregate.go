package query

// Fn names an aggregate function.
type Fn int

const (
	FnCount Fn = iota
	FnSum
	FnAvg
	FnMax
	FnMin
)

func (f Fn) String() string {
	switch f {
	case FnCount:
		return "count"
	case FnSum:
		return "sum"
	case FnAvg:
		return "avg"
	case FnMax:
		return "max"
	case FnMin:
		return "min"
	default:
		return "unknown"
	}
}
