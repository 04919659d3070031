package types

// TypeParameter is a generic parameter of a class or a function. It is a
// Classifier: referring to it by name in a type produces its DefaultType.
type TypeParameter struct {
	name        string
	index       int
	variance    Variance
	upperBounds *Lazy[[]Type]
	constructor *TypeConstructor
	containing  Declaration
}

// NewTypeParameter creates a parameter at position index whose upper bounds are
// Any? until SetUpperBounds is called.
func NewTypeParameter(name string, index int, variance Variance) *TypeParameter {
	p := &TypeParameter{
		name:     name,
		index:    index,
		variance: variance,
	}
	p.upperBounds = LazyOf[[]Type](nil)
	// a type parameter behaves like a class whose supertypes are its bounds
	p.constructor = NewTypeConstructor(name, TypeParameterKind, nil, false, p.UpperBounds)
	p.constructor.declaration = p
	return p
}

// SetUpperBounds declares the bounds lazily, so that a bound may mention the
// parameter itself, as in `T : Comparable<T>`
func (p *TypeParameter) SetUpperBounds(bounds func() []Type) {
	p.upperBounds = NewLazy("upper bounds of "+p.name, bounds)
}

func (p *TypeParameter) Name() string                      { return p.name }
func (p *TypeParameter) Index() int                        { return p.index }
func (p *TypeParameter) Variance() Variance                { return p.variance }
func (p *TypeParameter) Containing() Declaration           { return p.containing }
func (p *TypeParameter) TypeConstructor() *TypeConstructor { return p.constructor }

func (p *TypeParameter) setContaining(d Declaration) { p.containing = d }

// HasDeclaredBounds reports whether bounds were given explicitly rather than
// defaulting to Any?
func (p *TypeParameter) HasDeclaredBounds() bool {
	bounds, err := p.upperBounds.Get()
	return err == nil && len(bounds) > 0
}

// UpperBounds returns the declared bounds, or Any? when there are none
func (p *TypeParameter) UpperBounds() []Type {
	bounds, err := p.upperBounds.Get()
	if err != nil {
		logger.Warn("cyclic upper bounds", "parameter", p.name, "error", err)
		return []Type{Builtins().NullableAnyType()}
	}
	if len(bounds) == 0 {
		return []Type{Builtins().NullableAnyType()}
	}
	return bounds
}

// UpperBoundsAsType returns the single type that all values of this parameter
// are known to be a subtype of
func (p *TypeParameter) UpperBoundsAsType() Type {
	bounds := p.UpperBounds()
	if len(bounds) == 1 {
		return bounds[0]
	}
	if intersection, ok := Intersect(bounds); ok {
		return intersection
	}
	return NewErrorType("empty intersection of upper bounds of " + p.name)
}

// DefaultType is the type `T` that refers to this parameter
func (p *TypeParameter) DefaultType() Type {
	return NewType(p.constructor, nil, false)
}

func (p *TypeParameter) String() string {
	if p.variance == Invariant {
		return p.name
	}
	return p.variance.Label() + " " + p.name
}
