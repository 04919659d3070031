package types

// Equal is structural equality: same constructor, same nullability and pairwise
// equal arguments. Error types are only equal to themselves.
//
// Equal is stricter than EqualTypes, which is mutual subtyping and so treats error
// types as equal to anything.
func Equal(a, b Type) bool {
	a, b = Unwrap(a), Unwrap(b)
	if a == b {
		return true
	}
	if a.IsError() || b.IsError() {
		return false
	}
	if a.IsNullable() != b.IsNullable() || a.Constructor() != b.Constructor() {
		return false
	}
	aArgs, bArgs := a.Arguments(), b.Arguments()
	if len(aArgs) != len(bArgs) {
		return false
	}
	for i := range aArgs {
		if !ProjectionsEqual(aArgs[i], bArgs[i]) {
			return false
		}
	}
	return true
}

func ProjectionsEqual(a, b TypeProjection) bool {
	if a.IsStar() || b.IsStar() {
		return a.IsStar() == b.IsStar()
	}
	return a.Kind == b.Kind && Equal(a.Type, b.Type)
}

// dedupe removes structurally equal types, keeping the first occurrence
func dedupe(ts []Type) []Type {
	result := make([]Type, 0, len(ts))
outer:
	for _, t := range ts {
		for _, seen := range result {
			if Equal(seen, t) {
				continue outer
			}
		}
		result = append(result, t)
	}
	return result
}
