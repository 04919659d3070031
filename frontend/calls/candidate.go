package calls

import (
	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/inference"
	"github.com/cottand/jet/frontend/trace"
	"github.com/cottand/jet/frontend/typeref"
	"github.com/cottand/jet/frontend/types"
)

// attempt is one candidate tried against a call. Everything learnt while
// trying it is staged in its own trace.
type attempt struct {
	candidate *types.FunctionDescriptor
	// result is candidate with its type arguments substituted
	result *types.FunctionDescriptor
	trace  *trace.Temporary
	ok     bool
	// dirty is set when some argument had no known type
	dirty bool
}

func (r *Resolver) try(scope types.Scope, parent trace.Trace, call *Call, candidate *types.FunctionDescriptor) *attempt {
	a := &attempt{
		candidate: candidate,
		result:    candidate,
		trace:     trace.NewTemporary(parent, "candidate "+candidate.Name()),
	}
	a.trace.RecordResolvedCallee(call.Callee, candidate)

	mapped, ok := mapArguments(call, candidate, a.trace)
	if !ok {
		return a
	}
	for _, arg := range mapped {
		a.dirty = a.dirty || arg.Type == nil
	}
	if !checkReceiverPresence(call, candidate, a.trace) {
		return a
	}

	switch {
	case len(call.TypeArguments) > 0:
		a.result, ok = applyTypeArguments(scope, call, candidate, a.trace)
	case len(candidate.TypeParameters()) > 0:
		a.result, ok = inferTypeArguments(call, candidate, mapped, a.trace)
	}
	if !ok {
		return a
	}

	a.ok = checkReceiverType(call, a.result, a.trace)
	a.ok = checkArgumentTypes(mapped, a.result, a.trace) && a.ok
	if a.ok {
		a.trace.RecordResolvedCallee(call.Callee, a.result)
		a.trace.RecordExpressionType(call.Site, a.result.ReturnType())
	}
	r.logger.Debug("candidate", "call", call.String(), "candidate", candidate.String(), "trace", a.trace.ID(), "ok", a.ok, "dirty", a.dirty)
	return a
}

func checkReceiverPresence(call *Call, candidate *types.FunctionDescriptor, sink trace.Sink) bool {
	switch expected := candidate.ReceiverType(); {
	case call.Receiver != nil && expected == nil:
		sink.Report(ilerr.New(ilerr.NewNoReceiverAllowed{Positioner: call.Callee, Function: types.RenderFunction(candidate)}))
		return false
	case call.Receiver == nil && expected != nil:
		sink.Report(ilerr.New(ilerr.NewMissingReceiver{Positioner: call.Callee, Expected: expected}))
		return false
	}
	return true
}

func checkReceiverType(call *Call, f *types.FunctionDescriptor, sink trace.Sink) bool {
	expected := f.ReceiverType()
	if call.Receiver == nil || expected == nil || types.IsSubtypeOf(call.Receiver, expected) {
		return true
	}
	sink.Report(ilerr.New(ilerr.NewReceiverMismatch{Positioner: call.Callee, Expected: expected, Actual: call.Receiver}))
	return false
}

// checkArgumentTypes checks every argument against the parameter of f it was
// mapped to. Arguments of unknown type are accepted.
func checkArgumentTypes(mapped []mappedArgument, f *types.FunctionDescriptor, sink trace.Sink) bool {
	params := f.ValueParameters()
	ok := true
	for _, arg := range mapped {
		expected := params[arg.parameter.Index()].Type()
		if projection, usage, violated := findVarianceViolation(expected); violated {
			sink.Report(ilerr.New(ilerr.NewVarianceViolation{Positioner: arg.Range, Projection: projection, Usage: usage}))
			ok = false
			continue
		}
		if arg.Type == nil {
			continue
		}
		if !types.IsSubtypeOf(arg.Type, expected) {
			sink.Report(ilerr.New(ilerr.NewTypeMismatch{Positioner: arg.Range, Expected: expected, Actual: arg.Type}))
			ok = false
		}
	}
	return ok
}

// findVarianceViolation looks for a projection that substitution placed where
// its variance is not allowed, like the parameter of MutableList<out Int>.add
func findVarianceViolation(t types.Type) (types.TypeProjection, types.Variance, bool) {
	t = types.Unwrap(t)
	if errType, ok := t.(*types.ErrorType); ok {
		return errType.OffendingProjection()
	}
	for _, arg := range t.Arguments() {
		if arg.IsStar() {
			continue
		}
		if projection, usage, violated := findVarianceViolation(arg.Type); violated {
			return projection, usage, true
		}
	}
	return types.TypeProjection{}, types.Invariant, false
}

// inferTypeArguments solves the type parameters of candidate from the types of
// the arguments, the receiver, and the type the call is expected to have
func inferTypeArguments(call *Call, candidate *types.FunctionDescriptor, mapped []mappedArgument, sink trace.Sink) (*types.FunctionDescriptor, bool) {
	cs := inference.NewConstraintSystem()
	for _, p := range candidate.TypeParameters() {
		cs.RegisterTypeVariable(p)
	}

	var err error
	constrain := func(sub, super types.Type) {
		if err == nil {
			err = cs.AddSubtypeConstraint(sub, super)
		}
	}
	for _, arg := range mapped {
		switch {
		case arg.Type != nil:
			constrain(arg.Type, arg.parameter.Type())
		case err == nil:
			err = cs.AddUnknownConstraint(arg.parameter.Type())
		}
	}
	if call.Receiver != nil && candidate.ReceiverType() != nil {
		constrain(call.Receiver, candidate.ReceiverType())
	}
	if call.Expected != nil {
		constrain(candidate.ReturnType(), call.Expected)
	}

	var solution *inference.Solution
	if err == nil {
		solution, err = cs.Solve()
	}
	if err != nil {
		sink.Report(ilerr.New(ilerr.Unclassified{From: err, Positioner: call.Site}))
		return candidate, false
	}
	if !solution.IsSuccessful() {
		sink.Report(ilerr.New(ilerr.NewTypeInferenceFailed{
			Positioner: call.Site,
			Function:   types.RenderFunction(candidate),
			Reasons:    solution.Failures(),
		}))
		return candidate, false
	}
	return candidate.Substitute(solution.Substitutor()), true
}

// applyTypeArguments substitutes the explicitly given type arguments of call
// into candidate. Bound violations are reported without rejecting the
// candidate, since its signature is still known.
func applyTypeArguments(scope types.Scope, call *Call, candidate *types.FunctionDescriptor, sink trace.Sink) (*types.FunctionDescriptor, bool) {
	for _, proj := range call.TypeArguments {
		if proj.Star || proj.Kind != types.Invariant {
			sink.Report(ilerr.New(ilerr.NewProjectionOnCallTypeArgument{Positioner: proj.Range, Projection: proj.String()}))
		}
	}
	params := candidate.TypeParameters()
	if len(params) != len(call.TypeArguments) {
		sink.Report(ilerr.New(ilerr.NewWrongNumberOfTypeArguments{
			Positioner: call.typeArgumentsSite(),
			Expected:   len(params),
			Actual:     len(call.TypeArguments),
		}))
		return candidate, false
	}

	args := make([]types.Type, len(params))
	for i, proj := range call.TypeArguments {
		if proj.Star {
			args[i] = params[i].UpperBoundsAsType()
			continue
		}
		args[i] = typeref.Resolve(scope, proj.Type, sink)
	}
	substitutor := types.SubstitutorForParameters(params, args)
	for i, p := range params {
		for _, bound := range p.UpperBounds() {
			bound = substitutor.Substitute(bound, types.Invariant)
			if !types.IsSubtypeOf(args[i], bound) {
				site := call.TypeArguments[i].Range
				if ref := call.TypeArguments[i].Type; ref != nil {
					site = ref.Range
				}
				sink.Report(ilerr.New(ilerr.NewUpperBoundViolation{Positioner: site, Argument: args[i], Bound: bound}))
			}
		}
	}
	return candidate.Substitute(substitutor), true
}
