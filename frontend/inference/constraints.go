// Package inference infers the type arguments of a generic call from constraints
// between the types of its arguments and the types of its parameters.
package inference

import (
	"fmt"
	"slices"

	"github.com/cottand/jet/frontend/types"
	"github.com/cottand/jet/internal/log"
	"github.com/pkg/errors"
)

var logger = log.Section("inference")

// ErrConsumed is returned when a ConstraintSystem is used after Solve
var ErrConsumed = errors.New("constraint system was already solved")

type relation uint8

const (
	subtypeRelation relation = iota
	equalRelation
)

type constraint struct {
	sub, super types.Type
	relation   relation
}

func (c constraint) String() string {
	if c.relation == equalRelation {
		return fmt.Sprintf("%v == %v", c.sub, c.super)
	}
	return fmt.Sprintf("%v <: %v", c.sub, c.super)
}

// TypeBounds are what is known about a single type variable
type TypeBounds struct {
	parameter *types.TypeParameter
	lower     []types.Type
	upper     []types.Type
	exact     []types.Type
	// unknown is set when the variable met a type that was already reported
	// as broken, or was not known at all
	unknown bool
}

func (b *TypeBounds) Parameter() *types.TypeParameter { return b.parameter }
func (b *TypeBounds) Lower() []types.Type             { return b.lower }
func (b *TypeBounds) Upper() []types.Type             { return b.upper }
func (b *TypeBounds) Exact() []types.Type             { return b.exact }
func (b *TypeBounds) Unknown() bool                   { return b.unknown }

func (b *TypeBounds) all() []types.Type {
	return slices.Concat(b.exact, b.lower, b.upper)
}

// ConstraintSystem collects constraints over type variables, which are the type
// parameters of a generic function, and solves them into a substitution.
//
// A ConstraintSystem is consumed by Solve: it can only be solved once, and no
// constraints can be added afterwards.
type ConstraintSystem struct {
	variables   map[*types.TypeConstructor]*TypeBounds
	order       []*types.TypeParameter
	constraints []constraint
	failures    []string
	consumed    bool
}

func NewConstraintSystem() *ConstraintSystem {
	return &ConstraintSystem{variables: make(map[*types.TypeConstructor]*TypeBounds)}
}

// RegisterTypeVariable makes occurrences of p in constraints variables to be solved for
func (cs *ConstraintSystem) RegisterTypeVariable(p *types.TypeParameter) {
	if _, ok := cs.variables[p.TypeConstructor()]; ok {
		return
	}
	cs.variables[p.TypeConstructor()] = &TypeBounds{parameter: p}
	cs.order = append(cs.order, p)
}

// Bounds returns what was recorded for p so far
func (cs *ConstraintSystem) Bounds(p *types.TypeParameter) (*TypeBounds, bool) {
	b, ok := cs.variables[p.TypeConstructor()]
	return b, ok
}

// AddSubtypeConstraint records that sub must be a subtype of super
func (cs *ConstraintSystem) AddSubtypeConstraint(sub, super types.Type) error {
	return cs.add(constraint{sub: sub, super: super, relation: subtypeRelation})
}

// AddEqualityConstraint records that a and b must be the same type
func (cs *ConstraintSystem) AddEqualityConstraint(a, b types.Type) error {
	return cs.add(constraint{sub: a, super: b, relation: equalRelation})
}

func (cs *ConstraintSystem) add(c constraint) error {
	if cs.consumed {
		return ErrConsumed
	}
	logger.Debug("constraint", "c", c.String())
	cs.constraints = append(cs.constraints, c)
	cs.decompose(c.sub, c.super, c.relation)
	return nil
}

// AddUnknownConstraint records that a value of unknown type flows into t. The
// variables of t that are not inferred from anything else become error types
// without a failure, since whatever made the value unknown was reported already.
func (cs *ConstraintSystem) AddUnknownConstraint(t types.Type) error {
	if cs.consumed {
		return ErrConsumed
	}
	cs.markUnknown(t)
	return nil
}

func (cs *ConstraintSystem) markUnknown(t types.Type) {
	t = types.Unwrap(t)
	if t.IsError() {
		return
	}
	if variable, ok := cs.variables[t.Constructor()]; ok {
		variable.unknown = true
	}
	for _, arg := range t.Arguments() {
		if !arg.IsStar() {
			cs.markUnknown(arg.Type)
		}
	}
}

func (cs *ConstraintSystem) fail(format string, args ...any) {
	cs.failures = append(cs.failures, fmt.Sprintf(format, args...))
}

func (cs *ConstraintSystem) variableOf(t types.Type) *TypeBounds {
	if len(t.Arguments()) > 0 {
		return nil
	}
	return cs.variables[t.Constructor()]
}

func (cs *ConstraintSystem) mentionsVariables(t types.Type) bool {
	t = types.Unwrap(t)
	if t.IsError() {
		return false
	}
	if _, ok := cs.variables[t.Constructor()]; ok {
		return true
	}
	for _, arg := range t.Arguments() {
		if !arg.IsStar() && cs.mentionsVariables(arg.Type) {
			return true
		}
	}
	return false
}

// decompose breaks a constraint down until it only relates variables to types,
// and checks the parts that mention no variables right away
func (cs *ConstraintSystem) decompose(sub, super types.Type, rel relation) {
	sub, super = types.Unwrap(sub), types.Unwrap(super)
	if sub.IsError() || super.IsError() {
		cs.markUnknown(sub)
		cs.markUnknown(super)
		return
	}

	if variable := cs.variableOf(super); variable != nil {
		bound := sub
		if super.IsNullable() {
			// X <: T? only says something about the non-null part of X
			bound = types.MakeNotNullable(sub)
		}
		if rel == equalRelation {
			variable.exact = append(variable.exact, bound)
		} else {
			variable.lower = append(variable.lower, bound)
		}
		return
	}
	if variable := cs.variableOf(sub); variable != nil {
		if sub.IsNullable() && !super.IsNullable() {
			cs.fail("%v is nullable but %v is not", sub, super)
			return
		}
		bound := super
		if sub.IsNullable() && rel == equalRelation {
			bound = types.MakeNotNullable(super)
		}
		if rel == equalRelation {
			variable.exact = append(variable.exact, bound)
		} else {
			variable.upper = append(variable.upper, bound)
		}
		return
	}

	if !cs.mentionsVariables(sub) && !cs.mentionsVariables(super) {
		if rel == equalRelation && !types.EqualTypes(sub, super) {
			cs.fail("%v is not equal to %v", sub, super)
		} else if rel == subtypeRelation && !types.IsSubtypeOf(sub, super) {
			cs.fail("%v is not a subtype of %v", sub, super)
		}
		return
	}

	if rel == subtypeRelation && types.Builtins().IsNothing(sub) {
		if sub.IsNullable() && !super.IsNullable() {
			cs.fail("%v is not a subtype of %v", sub, super)
		}
		return
	}
	if sub.IsNullable() && !super.IsNullable() {
		cs.fail("%v is nullable but %v is not", sub, super)
		return
	}
	if rel == equalRelation && sub.Constructor() != super.Constructor() {
		cs.fail("%v is not equal to %v", sub, super)
		return
	}
	ancestor := types.FindCorrespondingSupertype(types.MakeNotNullable(sub), super.Constructor())
	if ancestor == nil {
		cs.fail("%v is not a subtype of %v", sub, super)
		return
	}
	params := super.Constructor().Parameters()
	subArgs, superArgs := ancestor.Arguments(), super.Arguments()
	for i, param := range params {
		subArg, superArg := subArgs[i], superArgs[i]
		if superArg.IsStar() {
			continue
		}
		if !subArg.IsStar() && param.Variance() == types.Invariant && subArg.Kind == types.Invariant && superArg.Kind == types.Invariant {
			cs.decompose(subArg.Type, superArg.Type, equalRelation)
			continue
		}
		cs.decompose(types.OutType(param, subArg), types.OutType(param, superArg), subtypeRelation)
		if superArg.Kind != types.Out && param.Variance() != types.Out {
			cs.decompose(types.InType(param, superArg), types.InType(param, subArg), subtypeRelation)
		}
	}
}
