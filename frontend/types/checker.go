package types

import (
	"github.com/hashicorp/go-set/v3"
)

// IsSubtypeOf decides whether a value of type sub may be used where super is
// expected.
//
// Error types are subtypes and supertypes of everything. Nothing is a subtype of
// every type, and Nothing? of every nullable type. Otherwise the supertype of sub
// with the same constructor as super is found and their arguments are compared
// according to the declared variance of each parameter and the projections on
// both sides.
func IsSubtypeOf(sub, super Type) bool {
	sub, super = Unwrap(sub), Unwrap(super)
	if sub.IsError() || super.IsError() {
		return true
	}
	if sub.IsNullable() && !super.IsNullable() {
		return false
	}
	if Builtins().IsNothing(sub) {
		return true
	}
	if super.Constructor().Kind() == IntersectionKind {
		for _, component := range super.Constructor().Supertypes() {
			if !IsSubtypeOf(sub, MakeNullableIfNeeded(component, super.IsNullable())) {
				return false
			}
		}
		return true
	}
	ancestor := FindCorrespondingSupertype(sub, super.Constructor())
	if ancestor == nil {
		return false
	}
	if ancestor.IsNullable() && !super.IsNullable() {
		return false
	}
	return checkArguments(ancestor, super)
}

func checkArguments(sub, super Type) bool {
	params := super.Constructor().Parameters()
	subArgs, superArgs := sub.Arguments(), super.Arguments()
	if len(subArgs) != len(params) || len(superArgs) != len(params) {
		return false
	}
	for i, param := range params {
		subArg, superArg := subArgs[i], superArgs[i]
		if superArg.IsStar() {
			continue
		}
		if !subArg.IsStar() && param.Variance() == Invariant && subArg.Kind == Invariant && superArg.Kind == Invariant {
			if !EqualTypes(subArg.Type, superArg.Type) {
				return false
			}
			continue
		}
		if !IsSubtypeOf(OutType(param, subArg), OutType(param, superArg)) {
			return false
		}
		if superArg.Kind != Out && param.Variance() != Out {
			if !IsSubtypeOf(InType(param, superArg), InType(param, subArg)) {
				return false
			}
		}
	}
	return true
}

// OutType is what can be read from a value whose argument is arg
func OutType(param *TypeParameter, arg TypeProjection) Type {
	if arg.IsStar() || arg.Kind == In || param.Variance() == In {
		return param.UpperBoundsAsType()
	}
	return arg.Type
}

// InType is what can be written into a value whose argument is arg
func InType(param *TypeParameter, arg TypeProjection) Type {
	if arg.IsStar() || arg.Kind == Out || param.Variance() == Out {
		return Builtins().NothingType()
	}
	return arg.Type
}

// EqualTypes is mutual subtyping
func EqualTypes(a, b Type) bool {
	return IsSubtypeOf(a, b) && IsSubtypeOf(b, a)
}

// IsConvertibleTo is subtyping, except that anything converts to Unit
func IsConvertibleTo(sub, super Type) bool {
	if IsSubtypeOf(sub, super) {
		return true
	}
	super = Unwrap(super)
	return !super.IsError() && super.Constructor() == Builtins().Unit().TypeConstructor()
}

// FindCorrespondingSupertype walks the supertypes of t depth-first and returns the
// first one whose constructor is target, with arguments substituted along the way.
// A nullable type only has nullable supertypes. It returns nil if target is not a
// supertype of t.
func FindCorrespondingSupertype(t Type, target *TypeConstructor) Type {
	return findCorresponding(t, target, set.New[ConstructorID](4))
}

func findCorresponding(t Type, target *TypeConstructor, onPath *set.Set[ConstructorID]) Type {
	t = Unwrap(t)
	constructor := t.Constructor()
	if constructor == target {
		return t
	}
	// hierarchies are acyclic, but a broken declaration must not hang us
	if !onPath.Insert(constructor.ID()) {
		return nil
	}
	defer onPath.Remove(constructor.ID())

	substitutor := SubstitutorFor(t)
	for _, supertype := range constructor.Supertypes() {
		substituted := MakeNullableIfNeeded(substitutor.Substitute(supertype, Invariant), t.IsNullable())
		if found := findCorresponding(substituted, target, onPath); found != nil {
			return found
		}
	}
	return nil
}

// ImmediateSupertypes returns the declared supertypes of t in terms of t's arguments
func ImmediateSupertypes(t Type) []Type {
	t = Unwrap(t)
	substitutor := SubstitutorFor(t)
	declared := t.Constructor().Supertypes()
	result := make([]Type, 0, len(declared))
	for _, supertype := range declared {
		result = append(result, MakeNullableIfNeeded(substitutor.Substitute(supertype, Invariant), t.IsNullable()))
	}
	return result
}

// AllSupertypes returns every transitive supertype of t, excluding t itself,
// without duplicates and in depth-first order
func AllSupertypes(t Type) []Type {
	seen := set.NewHashSet[Type, uint64](8)
	var result []Type
	var collect func(Type)
	collect = func(current Type) {
		for _, supertype := range ImmediateSupertypes(current) {
			if seen.Insert(supertype) {
				result = append(result, supertype)
				collect(supertype)
			}
		}
	}
	collect(t)
	return result
}

// CanHaveSubtypes reports whether a proper subtype of t other than Nothing may
// exist. That is never the case for a non-nullable sealed constructor whose
// arguments are fixed.
func CanHaveSubtypes(t Type) bool {
	t = Unwrap(t)
	if t.IsError() || t.IsNullable() || !t.Constructor().Sealed() {
		return true
	}
	params := t.Constructor().Parameters()
	for i, arg := range t.Arguments() {
		param := params[i]
		if arg.IsStar() {
			return true
		}
		switch param.Variance() {
		case Invariant:
			switch arg.Kind {
			case Invariant:
				if lowerThanBound(arg.Type, param) || CanHaveSubtypes(arg.Type) {
					return true
				}
			case In:
				if lowerThanBound(arg.Type, param) {
					return true
				}
			case Out:
				if CanHaveSubtypes(arg.Type) {
					return true
				}
			}
		case In:
			if arg.Kind != Out {
				if lowerThanBound(arg.Type, param) {
					return true
				}
			} else if CanHaveSubtypes(arg.Type) {
				return true
			}
		case Out:
			if arg.Kind != In {
				if CanHaveSubtypes(arg.Type) {
					return true
				}
			} else if lowerThanBound(arg.Type, param) {
				return true
			}
		}
	}
	return false
}

func lowerThanBound(argument Type, param *TypeParameter) bool {
	for _, bound := range param.UpperBounds() {
		if IsSubtypeOf(argument, bound) && Unwrap(argument).Constructor() != Unwrap(bound).Constructor() {
			return true
		}
	}
	return false
}
