package argconf

import "strconv"

type nargsKind int

const (
	nargsSingle nargsKind = iota
	nargsExact
	nargsOneOrMore
	nargsZeroOrMore
)

// Nargs describes how many values an option carries. The zero value is a
// scalar. Nargs values are comparable, which Option equality relies on.
type Nargs struct {
	kind  nargsKind
	count int
}

var (
	// NargsOneOrMore requires at least one value.
	NargsOneOrMore = Nargs{kind: nargsOneOrMore}
	// NargsZeroOrMore accepts any number of values, including none.
	NargsZeroOrMore = Nargs{kind: nargsZeroOrMore}
)

// NargsExact requires exactly n values.
func NargsExact(n int) Nargs {
	return Nargs{kind: nargsExact, count: n}
}

// IsScalar reports whether the option resolves to a single value rather
// than a list.
func (n Nargs) IsScalar() bool {
	return n.kind == nargsSingle
}

func (n Nargs) String() string {
	switch n.kind {
	case nargsOneOrMore:
		return "+"
	case nargsZeroOrMore:
		return "*"
	case nargsExact:
		return strconv.Itoa(n.count)
	default:
		return "1"
	}
}
