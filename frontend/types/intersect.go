package types

// Intersect computes the greatest lower bound of types. The second result is false
// when the intersection is provably empty, e.g. two unrelated sealed classes.
//
// An empty input yields Any?. The result is nullable only if every input is.
// Types that have a subtype among the inputs are dropped. When more than one type
// remains the result is an intersection type whose supertypes are the remaining
// types.
func Intersect(types []Type) (Type, bool) {
	if len(types) == 0 {
		return Builtins().NullableAnyType(), true
	}
	allNullable := true
	nothingFound := false
	for _, t := range types {
		t = Unwrap(t)
		if t.IsError() {
			return t, true
		}
		allNullable = allNullable && t.IsNullable()
		nothingFound = nothingFound || Builtins().IsNothing(t)
	}
	if nothingFound {
		return MakeNullableAs(Builtins().NothingType(), allNullable), true
	}

	stripped := make([]Type, 0, len(types))
	for _, t := range types {
		stripped = append(stripped, MakeNotNullable(t))
	}
	stripped = dedupe(stripped)

	var resulting []Type
	for _, t := range stripped {
		if !CanHaveSubtypes(t) {
			for _, other := range stripped {
				if !mayBeEqual(t, other) && !IsSubtypeOf(t, other) && !IsSubtypeOf(other, t) {
					return nil, false
				}
			}
			return MakeNullableAs(t, allNullable), true
		}
		redundant := false
		for _, other := range stripped {
			if !Equal(t, other) && IsSubtypeOf(other, t) {
				redundant = true
				break
			}
		}
		if !redundant {
			resulting = append(resulting, t)
		}
	}

	if len(resulting) == 1 {
		return MakeNullableAs(resulting[0], allNullable), true
	}
	return NewIntersectionType(resulting, allNullable), true
}

// mayBeEqual approximates whether two types could become equal once their type
// parameters are known
func mayBeEqual(a, b Type) bool {
	return Equal(a, b) || ContainsTypeParameter(a) || ContainsTypeParameter(b)
}

// NewIntersectionType builds the synthetic type `{A & B}`, whose members are those of
// every component
func NewIntersectionType(components []Type, nullable bool) Type {
	name := "{"
	for i, c := range components {
		if i > 0 {
			name += " & "
		}
		name += Render(c)
	}
	name += "}"
	constructor := NewTypeConstructor(name, IntersectionKind, nil, false, func() []Type { return components })
	return NewType(constructor, nil, nullable)
}
