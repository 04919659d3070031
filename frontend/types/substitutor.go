package types

// TypeSubstitutor replaces occurrences of type constructors, usually those of
// type parameters, with projections. It is immutable.
type TypeSubstitutor struct {
	context map[*TypeConstructor]TypeProjection
}

var EmptySubstitutor = &TypeSubstitutor{}

func NewSubstitutor(context map[*TypeConstructor]TypeProjection) *TypeSubstitutor {
	if len(context) == 0 {
		return EmptySubstitutor
	}
	return &TypeSubstitutor{context: context}
}

// SubstitutorFor maps the parameters of t's constructor to t's arguments
func SubstitutorFor(t Type) *TypeSubstitutor {
	t = Unwrap(t)
	params := t.Constructor().Parameters()
	args := t.Arguments()
	if len(params) == 0 || len(params) != len(args) {
		return EmptySubstitutor
	}
	context := make(map[*TypeConstructor]TypeProjection, len(params))
	for i, p := range params {
		context[p.TypeConstructor()] = args[i]
	}
	return NewSubstitutor(context)
}

// SubstitutorForParameters maps each of params to the invariant projection of the
// corresponding argument
func SubstitutorForParameters(params []*TypeParameter, args []Type) *TypeSubstitutor {
	context := make(map[*TypeConstructor]TypeProjection, len(params))
	for i, p := range params {
		if i < len(args) {
			context[p.TypeConstructor()] = ProjectionOf(args[i])
		}
	}
	return NewSubstitutor(context)
}

func (s *TypeSubstitutor) IsEmpty() bool {
	return s == nil || len(s.context) == 0
}

func (s *TypeSubstitutor) Get(c *TypeConstructor) (TypeProjection, bool) {
	if s.IsEmpty() {
		return TypeProjection{}, false
	}
	p, ok := s.context[c]
	return p, ok
}

// Substitute replaces the occurrences in t, where t is used in a position of
// variance usage (Out for return types, In for parameters).
//
// A replacement whose projection kind conflicts with the usage of its position
// becomes an error type carrying the offending projection.
func (s *TypeSubstitutor) Substitute(t Type, usage Variance) Type {
	if s.IsEmpty() {
		return t
	}
	t = Unwrap(t)
	if t.IsError() {
		return t
	}
	if value, ok := s.context[t.Constructor()]; ok {
		if value.IsStar() {
			// nothing can be written into an unknown argument
			if usage == In {
				return Builtins().NothingType()
			}
			// supertypes and bounds are substituted with Invariant usage and
			// approximate an unknown argument by its upper bound
			return MakeNullableIfNeeded(value.Type, t.IsNullable())
		}
		if !usage.Allows(value.Kind) {
			return NewVarianceViolation(usage, value)
		}
		return MakeNullableIfNeeded(value.Type, t.IsNullable())
	}
	return s.specialize(t, usage)
}

// SubstituteProjection substitutes the argument p in the position of parameter
func (s *TypeSubstitutor) SubstituteProjection(p TypeProjection, parameter *TypeParameter, usage Variance) TypeProjection {
	if s.IsEmpty() {
		return p
	}
	return s.substituteArgument(p, parameter, usage)
}

func (s *TypeSubstitutor) specialize(t Type, usage Variance) Type {
	args := t.Arguments()
	if len(args) == 0 {
		return t
	}
	simple, ok := t.(*SimpleType)
	if !ok {
		return t
	}
	params := t.Constructor().Parameters()
	newArgs := make([]TypeProjection, len(args))
	changed := false
	for i, arg := range args {
		newArgs[i] = s.substituteArgument(arg, params[i], usage)
		changed = changed || !projectionIdentical(newArgs[i], arg)
	}
	if !changed {
		return t
	}
	result := NewType(simple.constructor, newArgs, simple.nullable)
	result.annotations = simple.annotations
	result.memberScope = NewLazy("member scope of "+simple.constructor.Name(), func() Scope {
		return NewSubstitutingScope(simple.MemberScope(), s)
	})
	return result
}

func (s *TypeSubstitutor) substituteArgument(arg TypeProjection, parameter *TypeParameter, usage Variance) TypeProjection {
	if arg.IsStar() {
		return arg
	}
	effective := arg.Kind
	if effective == Invariant {
		effective = parameter.Variance()
	}
	nestedUsage := usage.Superpose(effective)

	argType := Unwrap(arg.Type)
	if argType.IsError() {
		return arg
	}
	value, ok := s.context[argType.Constructor()]
	if !ok {
		return TypeProjection{Kind: arg.Kind, Type: s.Substitute(argType, nestedUsage)}
	}
	if value.IsStar() {
		return StarProjection(parameter)
	}
	if !nestedUsage.Allows(value.Kind) {
		return TypeProjection{Kind: arg.Kind, Type: NewVarianceViolation(nestedUsage, value)}
	}
	kind := arg.Kind
	switch {
	case kind == Invariant:
		kind = value.Kind
	case value.Kind != Invariant && value.Kind != kind:
		// `out T` with T := in X
		return TypeProjection{Kind: arg.Kind, Type: NewVarianceViolation(kind, value)}
	}
	return TypeProjection{Kind: kind, Type: MakeNullableIfNeeded(value.Type, argType.IsNullable())}
}

func projectionIdentical(a, b TypeProjection) bool {
	return a.star == b.star && a.Kind == b.Kind && a.Type == b.Type
}

// SubstituteAll substitutes every type in ts with the same usage
func (s *TypeSubstitutor) SubstituteAll(ts []Type, usage Variance) []Type {
	result := make([]Type, len(ts))
	for i, t := range ts {
		result[i] = s.Substitute(t, usage)
	}
	return result
}
