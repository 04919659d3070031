package typeref

import (
	"fmt"

	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/trace"
	"github.com/cottand/jet/frontend/types"
)

// Resolve looks every name in ref up in scope and builds the type it denotes.
// Unresolved names and wrong numbers of arguments are reported to sink and
// yield error types, so resolution always produces a type.
func Resolve(scope types.Scope, ref *Reference, sink trace.Sink) types.Type {
	if ref.Tuple {
		elements := make([]types.Type, len(ref.Elements))
		for i, elem := range ref.Elements {
			elements[i] = Resolve(scope, elem, sink)
		}
		if len(elements) > types.MaxTupleArity {
			sink.Report(ilerr.New(ilerr.NewUnresolvedReference{Positioner: ref.Range, Name: fmt.Sprintf("Tuple%d", len(elements))}))
		}
		return types.MakeNullableIfNeeded(types.Builtins().TupleType(elements...), ref.Nullable)
	}

	classifier := scope.LookupType(ref.Name)
	if classifier == nil {
		sink.Report(ilerr.New(ilerr.NewUnresolvedReference{Positioner: ref.Range, Name: ref.Name}))
		return types.NewErrorType("unresolved type " + ref.Name)
	}
	constructor := classifier.TypeConstructor()
	params := constructor.Parameters()
	if len(ref.Arguments) != len(params) {
		sink.Report(ilerr.New(ilerr.NewWrongNumberOfTypeArguments{Positioner: ref.Range, Expected: len(params), Actual: len(ref.Arguments)}))
		return types.NewErrorType("wrong number of type arguments for " + ref.Name)
	}
	args := make([]types.TypeProjection, len(params))
	for i, param := range params {
		args[i] = ResolveProjection(scope, param, ref.Arguments[i], sink)
	}
	return types.NewType(constructor, args, ref.Nullable)
}

// ResolveProjection resolves the argument proj given for parameter. A projection
// that contradicts the declared variance of parameter, like `out` for an `in`
// parameter, is reported.
func ResolveProjection(scope types.Scope, parameter *types.TypeParameter, proj Projection, sink trace.Sink) types.TypeProjection {
	if proj.Star {
		return types.StarProjection(parameter)
	}
	t := Resolve(scope, proj.Type, sink)
	projection := types.NewProjection(proj.Kind, t)
	if proj.Kind != types.Invariant && parameter.Variance() != types.Invariant && proj.Kind != parameter.Variance() {
		sink.Report(ilerr.New(ilerr.NewVarianceViolation{Positioner: proj.Range, Projection: projection, Usage: parameter.Variance()}))
	}
	return projection
}

// ParseAndResolve is Parse followed by Resolve. A syntax error is reported to sink
// and yields an error type.
func ParseAndResolve(scope types.Scope, text string, sink trace.Sink) types.Type {
	ref, err := Parse(text, 1)
	if err != nil {
		if ileErr, ok := err.(ilerr.IleError); ok {
			sink.Report(ileErr)
		}
		return types.NewErrorType(err.Error())
	}
	return Resolve(scope, ref, sink)
}
