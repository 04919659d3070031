package types

// Variance is used both as the declared variance of a TypeParameter and as the
// projection kind of a TypeProjection, and as the usage context of a substitution
type Variance uint8

const (
	Invariant Variance = iota
	In
	Out
)

func (v Variance) String() string {
	switch v {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "invariant"
	}
}

// Label is the keyword used when rendering a projection, empty for Invariant
func (v Variance) Label() string {
	if v == Invariant {
		return ""
	}
	return v.String()
}

func (v Variance) AllowsInPosition() bool  { return v != Out }
func (v Variance) AllowsOutPosition() bool { return v != In }

// Allows reports whether a projection of the given kind may be substituted in a
// position used with variance v.
func (v Variance) Allows(projection Variance) bool {
	switch v {
	case In:
		return projection != Out
	case Out:
		return projection != In
	default:
		return true
	}
}

// Superpose composes the variance of an enclosing position with a nested one.
// Signs multiply: out is positive, in is negative, and invariant absorbs.
func (v Variance) Superpose(other Variance) Variance {
	if v == Invariant || other == Invariant {
		return Invariant
	}
	if v == other {
		return Out
	}
	return In
}

func (v Variance) Opposite() Variance {
	switch v {
	case In:
		return Out
	case Out:
		return In
	default:
		return Invariant
	}
}
