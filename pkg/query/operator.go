package query

// operator is a structural token. isp is the priority while on the stack,
// icp the priority while arriving.
type operator struct {
	text string
	isp  int
	icp  int
}

func (o *operator) sql() string { return o.text }

var (
	opAnd        = &operator{text: "And", isp: 4, icp: 3}
	opOr         = &operator{text: "Or", isp: 2, icp: 1}
	opLeftParen  = &operator{text: "(", isp: 1, icp: 6}
	opRightParen = &operator{text: ")", isp: 6, icp: 1}
	opSentinel   = &operator{text: "#", isp: 0, icp: 0}
)
