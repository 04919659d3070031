// Package types implements the type model of Jet: constructors, parameters,
// projections, substitution, and the subtyping relation built on top of them.
//
// Types are immutable values. The only mutable state lives in Lazy values
// (supertypes, bounds, deferred types) which are forced at most once.
package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/cottand/jet/internal/log"
)

var logger = log.Section("types")

// Type is one of *SimpleType, *ErrorType or *DeferredType
type Type interface {
	Constructor() *TypeConstructor
	Arguments() []TypeProjection
	IsNullable() bool
	Annotations() []Annotation
	MemberScope() Scope
	IsError() bool
	Hash() uint64
	fmt.Stringer

	isType()
}

type Annotation struct {
	Name      string
	Arguments []string
}

// SimpleType is the application of a TypeConstructor to arguments, one per
// constructor parameter
type SimpleType struct {
	constructor *TypeConstructor
	arguments   []TypeProjection
	nullable    bool
	annotations []Annotation
	memberScope *Lazy[Scope]
	hash        uint64
}

var _ Type = &SimpleType{}

// NewType applies constructor to arguments. It panics if the number of arguments
// does not match the parameters of constructor, which callers are expected to
// have checked and reported already.
func NewType(constructor *TypeConstructor, arguments []TypeProjection, nullable bool) *SimpleType {
	if len(arguments) != len(constructor.Parameters()) {
		panic(fmt.Sprintf("type %s expects %d arguments, got %d", constructor.Name(), len(constructor.Parameters()), len(arguments)))
	}
	t := &SimpleType{
		constructor: constructor,
		arguments:   arguments,
		nullable:    nullable,
	}
	t.memberScope = NewLazy("member scope of "+constructor.Name(), t.deriveMemberScope)
	return t
}

// NewInvariantType is NewType with every argument an invariant projection
func NewInvariantType(constructor *TypeConstructor, nullable bool, arguments ...Type) *SimpleType {
	projections := make([]TypeProjection, len(arguments))
	for i, argument := range arguments {
		projections[i] = ProjectionOf(argument)
	}
	return NewType(constructor, projections, nullable)
}

func (t *SimpleType) isType() {}

func (t *SimpleType) Constructor() *TypeConstructor { return t.constructor }
func (t *SimpleType) Arguments() []TypeProjection  { return t.arguments }
func (t *SimpleType) IsNullable() bool             { return t.nullable }
func (t *SimpleType) Annotations() []Annotation    { return t.annotations }
func (t *SimpleType) IsError() bool                { return false }

// WithAnnotations returns a copy of t carrying annotations
func (t *SimpleType) WithAnnotations(annotations ...Annotation) *SimpleType {
	cp := *t
	cp.annotations = annotations
	return &cp
}

func (t *SimpleType) MemberScope() Scope {
	scope, err := t.memberScope.Get()
	if err != nil {
		return EmptyScope{}
	}
	return scope
}

func (t *SimpleType) deriveMemberScope() Scope {
	switch decl := t.constructor.Declaration().(type) {
	case *ClassDescriptor:
		// own members first, then inherited ones
		scopes := ChainedScope{NewSubstitutingScope(decl.MemberScope(), SubstitutorFor(t))}
		for _, supertype := range ImmediateSupertypes(t) {
			scopes = append(scopes, supertype.MemberScope())
		}
		return scopes
	case *TypeParameter:
		return boundsScope(decl.UpperBounds())
	}
	if t.constructor.Kind() == IntersectionKind {
		return boundsScope(t.constructor.Supertypes())
	}
	return EmptyScope{}
}

func boundsScope(bounds []Type) Scope {
	scopes := make(ChainedScope, 0, len(bounds))
	for _, bound := range bounds {
		scopes = append(scopes, bound.MemberScope())
	}
	return scopes
}

func (t *SimpleType) Hash() uint64 {
	if t.hash != 0 {
		return t.hash
	}
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64(nil, uint64(t.constructor.ID()))
	if t.nullable {
		arr = append(arr, 1)
	}
	for _, arg := range t.arguments {
		arr = binary.LittleEndian.AppendUint64(arr, arg.Hash())
	}
	_, _ = h.Write(arr)
	t.hash = h.Sum64()
	return t.hash
}

func (t *SimpleType) String() string {
	return Render(t)
}

// TypeProjection is a type argument together with its use-site variance.
// A star projection stands for an unknown argument: it reads as the parameter's
// upper bound and accepts no writes.
type TypeProjection struct {
	Kind Variance
	Type Type
	star bool
}

func NewProjection(kind Variance, t Type) TypeProjection {
	return TypeProjection{Kind: kind, Type: t}
}

// ProjectionOf is the invariant projection of t
func ProjectionOf(t Type) TypeProjection {
	return TypeProjection{Kind: Invariant, Type: t}
}

// StarProjection is `*` in the position of parameter
func StarProjection(parameter *TypeParameter) TypeProjection {
	return TypeProjection{Kind: Out, Type: parameter.UpperBoundsAsType(), star: true}
}

func (p TypeProjection) IsStar() bool { return p.star }

func (p TypeProjection) Hash() uint64 {
	if p.star {
		return 0x5A
	}
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64([]byte{byte(p.Kind)}, p.Type.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (p TypeProjection) String() string {
	if p.star {
		return "*"
	}
	if p.Kind == Invariant {
		return p.Type.String()
	}
	return p.Kind.Label() + " " + p.Type.String()
}

// Unwrap resolves a DeferredType to the type it stands for
func Unwrap(t Type) Type {
	for {
		deferred, ok := t.(*DeferredType)
		if !ok {
			return t
		}
		t = deferred.Delegate()
	}
}

// MakeNullable returns the nullable version of t, or t itself when it already is
func MakeNullable(t Type) Type {
	return MakeNullableAs(t, true)
}

// MakeNullableAs returns t with nullability set to nullable
func MakeNullableAs(t Type, nullable bool) Type {
	t = Unwrap(t)
	simple, ok := t.(*SimpleType)
	if !ok || simple.nullable == nullable {
		return t
	}
	cp := *simple
	cp.nullable = nullable
	cp.hash = 0
	return &cp
}

// MakeNullableIfNeeded adds nullability to t when nullable is set, but never removes it
func MakeNullableIfNeeded(t Type, nullable bool) Type {
	if nullable {
		return MakeNullable(t)
	}
	return t
}

// MakeNotNullable strips nullability from t
func MakeNotNullable(t Type) Type {
	return MakeNullableAs(t, false)
}

// ContainsErrorType reports whether t or any of its arguments, transitively, is an
// error type
func ContainsErrorType(t Type) bool {
	t = Unwrap(t)
	if t.IsError() {
		return true
	}
	for _, arg := range t.Arguments() {
		if !arg.IsStar() && ContainsErrorType(arg.Type) {
			return true
		}
	}
	return false
}

// ContainsTypeParameter reports whether t mentions any type parameter
func ContainsTypeParameter(t Type) bool {
	t = Unwrap(t)
	if t.Constructor().Kind() == TypeParameterKind {
		return true
	}
	for _, arg := range t.Arguments() {
		if !arg.IsStar() && ContainsTypeParameter(arg.Type) {
			return true
		}
	}
	return false
}
