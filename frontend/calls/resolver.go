package calls

import (
	"log/slog"
	"slices"

	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/trace"
	"github.com/cottand/jet/frontend/types"
	"github.com/cottand/jet/internal/log"
	"github.com/samber/lo"
)

type Resolver struct {
	logger *slog.Logger
}

func NewResolver() *Resolver {
	return &Resolver{logger: log.Section("calls")}
}

// WithLogger returns a copy of r that logs to logger
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// task is a group of candidates of equal priority, tried together
type task struct {
	name       string
	candidates []*types.FunctionDescriptor
	// receiver is what is passed as the receiver to the candidates; members get
	// theirs implicitly
	receiver types.Type
}

// ResolveCall looks the functions call may refer to up in scope and resolves
// call against them, recording the outcome in t.
//
// Candidates are tried in groups, in order: functions declared locally, then
// members of the receiver's type, then everything else. Constructors of a class
// with the called name are candidates too. The first group that resolves wins.
// If none does, the errors of the first group are reported.
func (r *Resolver) ResolveCall(scope types.Scope, t trace.Trace, call *Call) Result {
	tasks := prioritizedTasks(scope, call)
	if len(tasks) == 0 {
		t.Report(ilerr.New(ilerr.NewUnresolvedReference{Positioner: call.Callee, Name: call.Name}))
		return Result{Status: Unresolved}
	}

	var first *trace.Temporary
	var firstResult Result
	for i, task := range tasks {
		staged := trace.NewTemporary(t, task.name)
		taskCall := *call
		taskCall.Receiver = task.receiver
		result := r.ResolveCandidates(scope, staged, &taskCall, task.candidates)
		if result.IsSuccess() {
			staged.Commit()
			return result
		}
		if i == 0 {
			first, firstResult = staged, result
		}
	}
	first.Commit()
	return firstResult
}

func prioritizedTasks(scope types.Scope, call *Call) []task {
	var tasks []task
	add := func(name string, candidates []*types.FunctionDescriptor, receiver types.Type) {
		if len(candidates) > 0 {
			tasks = append(tasks, task{name: name, candidates: candidates, receiver: receiver})
		}
	}
	container := scope.ContainingDeclaration()
	functions := scope.LookupFunctions(call.Name)

	if call.Receiver != nil {
		extensions := lo.Filter(functions, func(f *types.FunctionDescriptor, _ int) bool { return f.ReceiverType() != nil })
		local, nonLocal := splitLocal(extensions, container)
		members := call.Receiver.MemberScope()
		add("local extensions", local, call.Receiver)
		add("members", slices.Concat(members.LookupFunctions(call.Name), constructorsOf(members, call.Name)), nil)
		add("extensions", nonLocal, call.Receiver)
		return tasks
	}

	plain := lo.Filter(functions, func(f *types.FunctionDescriptor, _ int) bool { return f.ReceiverType() == nil })
	plain = append(plain, constructorsOf(scope, call.Name)...)
	local, nonLocal := splitLocal(plain, container)
	add("locals", local, nil)
	add("functions", nonLocal, nil)
	return tasks
}

func constructorsOf(scope types.Scope, name string) []*types.FunctionDescriptor {
	if class, ok := scope.LookupType(name).(*types.ClassDescriptor); ok {
		return class.Constructors()
	}
	return nil
}

// splitLocal separates the functions declared within container, at any depth,
// from the others
func splitLocal(functions []*types.FunctionDescriptor, container types.Declaration) (local, nonLocal []*types.FunctionDescriptor) {
	for _, f := range functions {
		if container != nil && isDeclaredIn(f, container) {
			local = append(local, f)
		} else {
			nonLocal = append(nonLocal, f)
		}
	}
	return local, nonLocal
}

func isDeclaredIn(f *types.FunctionDescriptor, container types.Declaration) bool {
	for d := f.Containing(); d != nil; d = d.Containing() {
		if d == container {
			return true
		}
	}
	return false
}

// ResolveCandidates resolves call against candidates. Each candidate is tried
// in its own temporary trace, and only the trace of the chosen one, if any,
// reaches t.
func (r *Resolver) ResolveCandidates(scope types.Scope, t trace.Trace, call *Call, candidates []*types.FunctionDescriptor) Result {
	if len(candidates) == 0 {
		t.Report(ilerr.New(ilerr.NewUnresolvedReference{Positioner: call.Callee, Name: call.Name}))
		return Result{Status: Unresolved}
	}
	attempts := lo.Map(candidates, func(c *types.FunctionDescriptor, _ int) *attempt {
		return r.try(scope, t, call, c)
	})
	successful := lo.Filter(attempts, func(a *attempt, _ int) bool { return a.ok })

	switch {
	case len(successful) == 1:
		return r.commit(successful[0])

	case len(successful) > 1:
		clean := lo.Filter(successful, func(a *attempt, _ int) bool { return !a.dirty })
		if len(clean) == 0 {
			clean = successful
		}
		if winner := maximallySpecific(clean); winner != nil {
			return r.commit(winner)
		}
		tied := lo.Map(clean, func(a *attempt, _ int) *types.FunctionDescriptor { return a.result })
		// an argument without a type already had its error reported
		if !lo.ContainsBy(successful, func(a *attempt) bool { return a.dirty }) {
			t.Report(ilerr.New(ilerr.NewOverloadAmbiguity{Positioner: call.Site, Candidates: render(tied)}))
		}
		r.logger.Debug("ambiguity", "call", call.String(), "candidates", len(tied))
		return Result{Status: Ambiguity, Candidates: tied}

	case len(attempts) == 1:
		only := attempts[0]
		only.trace.Commit()
		return Result{Status: SingleCandidateFailed, Descriptor: only.candidate, Candidates: candidates}

	default:
		t.Report(ilerr.New(ilerr.NewNoneApplicable{Positioner: call.Site, Candidates: render(candidates)}))
		return Result{Status: NoneApplicable, Candidates: candidates}
	}
}

func (r *Resolver) commit(winner *attempt) Result {
	winner.trace.Commit()
	return Result{Status: Success, Descriptor: winner.result, Candidates: []*types.FunctionDescriptor{winner.candidate}}
}

func render(functions []*types.FunctionDescriptor) []string {
	return lo.Map(functions, func(f *types.FunctionDescriptor, _ int) string { return types.RenderFunction(f) })
}

// maximallySpecific returns the attempt that is more specific than every other
// one while no other is more specific than it, if there is one
func maximallySpecific(attempts []*attempt) *attempt {
	for _, a := range attempts {
		beatsAll := true
		for _, other := range attempts {
			if other == a {
				continue
			}
			if !moreSpecific(a.result, other.result) || moreSpecific(other.result, a.result) {
				beatsAll = false
				break
			}
		}
		if beatsAll {
			return a
		}
	}
	return nil
}

// moreSpecific reports whether every parameter of f is a subtype of the
// corresponding one of g, which requires both to have as many parameters
func moreSpecific(f, g *types.FunctionDescriptor) bool {
	fReceiver, gReceiver := f.ReceiverType(), g.ReceiverType()
	if (fReceiver == nil) != (gReceiver == nil) {
		return false
	}
	if fReceiver != nil && !types.IsSubtypeOf(fReceiver, gReceiver) {
		return false
	}
	fParams, gParams := f.ValueParameters(), g.ValueParameters()
	if len(fParams) != len(gParams) {
		return false
	}
	for i := range fParams {
		if !types.IsSubtypeOf(fParams[i].Type(), gParams[i].Type()) {
			return false
		}
	}
	return true
}

// ResolveExactSignature finds the functions called name whose parameters have
// exactly the given types. With a receiver, extensions declared locally are
// preferred to members, and members to other extensions. Generic functions
// are never matched.
func (r *Resolver) ResolveExactSignature(scope types.Scope, receiver types.Type, name string, parameterTypes []types.Type) Result {
	var found []*types.FunctionDescriptor
	if receiver == nil {
		found = lo.Filter(scope.LookupFunctions(name), func(f *types.FunctionDescriptor, _ int) bool {
			return f.ReceiverType() == nil && matchesExactly(f, parameterTypes)
		})
		return exactResult(found)
	}

	extensions := lo.Filter(scope.LookupFunctions(name), func(f *types.FunctionDescriptor, _ int) bool {
		return f.ReceiverType() != nil && types.IsSubtypeOf(receiver, f.ReceiverType()) && matchesExactly(f, parameterTypes)
	})
	local, nonLocal := splitLocal(extensions, scope.ContainingDeclaration())
	if len(local) > 0 {
		return exactResult(local)
	}
	members := lo.Filter(receiver.MemberScope().LookupFunctions(name), func(f *types.FunctionDescriptor, _ int) bool {
		return f.ReceiverType() == nil && matchesExactly(f, parameterTypes)
	})
	if len(members) > 0 {
		return exactResult(members)
	}
	return exactResult(nonLocal)
}

func matchesExactly(f *types.FunctionDescriptor, parameterTypes []types.Type) bool {
	params := f.ValueParameters()
	if len(f.TypeParameters()) > 0 || len(params) != len(parameterTypes) {
		return false
	}
	for i, p := range params {
		if !types.EqualTypes(parameterTypes[i], p.Type()) {
			return false
		}
	}
	return true
}

func exactResult(found []*types.FunctionDescriptor) Result {
	switch len(found) {
	case 0:
		return Result{Status: Unresolved}
	case 1:
		return Result{Status: Success, Descriptor: found[0], Candidates: found}
	default:
		return Result{Status: Ambiguity, Candidates: found}
	}
}
