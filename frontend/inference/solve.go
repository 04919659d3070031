package inference

import (
	"fmt"
	"slices"

	"github.com/cottand/jet/frontend/types"
)

// Solution is the result of solving a ConstraintSystem. It always assigns every
// variable a value; variables that could not be inferred get error types and a
// failure is recorded.
type Solution struct {
	parameters []*types.TypeParameter
	values     map[*types.TypeConstructor]types.Type
	failures   []string
}

func (s *Solution) IsSuccessful() bool { return len(s.failures) == 0 }

// Failures describes every constraint that could not be satisfied
func (s *Solution) Failures() []string { return s.failures }

// Value returns the type inferred for p
func (s *Solution) Value(p *types.TypeParameter) (types.Type, bool) {
	v, ok := s.values[p.TypeConstructor()]
	return v, ok
}

// Substitutor replaces each variable with its inferred value
func (s *Solution) Substitutor() *types.TypeSubstitutor {
	context := make(map[*types.TypeConstructor]types.TypeProjection, len(s.values))
	for constructor, value := range s.values {
		context[constructor] = types.ProjectionOf(value)
	}
	return types.NewSubstitutor(context)
}

// Solve computes a value for every registered variable:
//   - the exact bound if there is one, all exact bounds having to agree,
//   - otherwise the common supertype of the lower bounds,
//   - otherwise the intersection of the upper bounds,
//   - otherwise the declared upper bound of the parameter, if it has one.
//
// A variable with none of these that met an unknown type is an error type, and
// no failure is recorded for it.
//
// Bounds that mention other variables are solved once those variables are.
// Every recorded constraint, and the declared bounds of every parameter, are
// then checked against the result.
func (cs *ConstraintSystem) Solve() (*Solution, error) {
	if cs.consumed {
		return nil, ErrConsumed
	}
	cs.consumed = true

	solution := &Solution{
		parameters: cs.order,
		values:     make(map[*types.TypeConstructor]types.Type, len(cs.order)),
		failures:   slices.Clone(cs.failures),
	}

	pending := slices.Clone(cs.order)
	for progress := true; progress && len(pending) > 0; {
		progress = false
		substitutor := solution.Substitutor()
		var stillPending []*types.TypeParameter
		for _, p := range pending {
			if cs.dependsOnPending(p, pending) {
				stillPending = append(stillPending, p)
				continue
			}
			cs.solveVariable(p, substitutor, solution)
			progress = true
		}
		pending = stillPending
	}
	// what is left depends on itself through other variables
	for _, p := range pending {
		cs.solveVariable(p, solution.Substitutor(), solution)
	}

	cs.verify(solution)
	logger.Debug("solved", "values", len(solution.values), "failures", solution.failures)
	return solution, nil
}

func (cs *ConstraintSystem) dependsOnPending(p *types.TypeParameter, pending []*types.TypeParameter) bool {
	bounds := cs.variables[p.TypeConstructor()]
	for _, other := range pending {
		if other == p {
			continue
		}
		for _, bound := range bounds.all() {
			if mentions(bound, other.TypeConstructor()) {
				return true
			}
		}
	}
	return false
}

func mentions(t types.Type, constructor *types.TypeConstructor) bool {
	t = types.Unwrap(t)
	if t.IsError() {
		return false
	}
	if t.Constructor() == constructor {
		return true
	}
	for _, arg := range t.Arguments() {
		if !arg.IsStar() && mentions(arg.Type, constructor) {
			return true
		}
	}
	return false
}

func (cs *ConstraintSystem) solveVariable(p *types.TypeParameter, substitutor *types.TypeSubstitutor, solution *Solution) {
	bounds := cs.variables[p.TypeConstructor()]
	value, failure := cs.computeValue(p, bounds, substitutor)
	switch {
	case failure == "":
	case bounds.unknown && len(bounds.all()) == 0:
		logger.Debug("variable of unknown type", "name", p.Name(), "reason", failure)
		value = types.NewErrorType(failure)
	default:
		solution.failures = append(solution.failures, failure)
		value = types.NewErrorType(failure)
	}
	logger.Debug("variable", "name", p.Name(), "value", value)
	solution.values[p.TypeConstructor()] = value
}

func (cs *ConstraintSystem) computeValue(p *types.TypeParameter, bounds *TypeBounds, substitutor *types.TypeSubstitutor) (types.Type, string) {
	if exact := substitutor.SubstituteAll(bounds.exact, types.Invariant); len(exact) > 0 {
		for _, other := range exact[1:] {
			if !types.EqualTypes(exact[0], other) {
				return nil, fmt.Sprintf("conflicting values for %s: %v and %v", p.Name(), exact[0], other)
			}
		}
		return exact[0], ""
	}
	if lower := substitutor.SubstituteAll(bounds.lower, types.Invariant); len(lower) > 0 {
		return types.CommonSupertype(lower), ""
	}
	if upper := substitutor.SubstituteAll(bounds.upper, types.Invariant); len(upper) > 0 {
		intersection, ok := types.Intersect(upper)
		if !ok {
			return nil, fmt.Sprintf("upper bounds of %s have no common subtype: %v", p.Name(), upper)
		}
		return intersection, ""
	}
	if p.HasDeclaredBounds() {
		return substitutor.Substitute(p.UpperBoundsAsType(), types.Invariant), ""
	}
	return nil, fmt.Sprintf("not enough information to infer %s", p.Name())
}

func (cs *ConstraintSystem) verify(solution *Solution) {
	substitutor := solution.Substitutor()
	for _, p := range cs.order {
		value := solution.values[p.TypeConstructor()]
		for _, bound := range p.UpperBounds() {
			bound = substitutor.Substitute(bound, types.Invariant)
			if !types.IsSubtypeOf(value, bound) {
				solution.failures = append(solution.failures, fmt.Sprintf("%s = %v does not satisfy the bound %v", p.Name(), value, bound))
			}
		}
	}
	for _, c := range cs.constraints {
		// constraints without variables were checked when they were added
		if !cs.mentionsVariables(c.sub) && !cs.mentionsVariables(c.super) {
			continue
		}
		sub := substitutor.Substitute(c.sub, types.Invariant)
		super := substitutor.Substitute(c.super, types.Invariant)
		holds := types.IsSubtypeOf(sub, super)
		if c.relation == equalRelation {
			holds = types.EqualTypes(sub, super)
		}
		if !holds {
			solution.failures = append(solution.failures, "constraint violated: "+constraint{sub: sub, super: super, relation: c.relation}.String())
		}
	}
}
