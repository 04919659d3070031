package calls

import (
	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/trace"
	"github.com/cottand/jet/frontend/types"
	"github.com/hashicorp/go-set/v3"
)

// mappedArgument is an argument together with the parameter it is passed for.
// Several arguments map to a vararg parameter.
type mappedArgument struct {
	Argument
	parameter *types.ValueParameterDescriptor
}

// mapArguments assigns every argument of call to a parameter of candidate,
// reporting to sink whatever does not fit. It returns false if anything was
// reported.
func mapArguments(call *Call, candidate *types.FunctionDescriptor, sink trace.Sink) ([]mappedArgument, bool) {
	params := candidate.ValueParameters()
	byName := make(map[string]*types.ValueParameterDescriptor, len(params))
	for _, p := range params {
		byName[p.Name()] = p
	}
	used := set.New[*types.ValueParameterDescriptor](len(params))
	var mapped []mappedArgument
	ok := true
	fail := func(err ilerr.IleError) {
		sink.Report(err)
		ok = false
	}

	var sawNamed, sawPositional, reportedMixing bool
	for i, arg := range call.Arguments {
		if arg.IsNamed() {
			sawNamed = true
			if sawPositional && !reportedMixing {
				reportedMixing = true
				fail(ilerr.New(ilerr.NewMixingNamedAndPositional{Positioner: arg.Range}))
			}
			p, found := byName[arg.Name]
			switch {
			case !found:
				fail(ilerr.New(ilerr.NewNamedParameterNotFound{Positioner: arg.Range, Name: arg.Name}))
			case !used.Insert(p) && !p.IsVararg():
				fail(ilerr.New(ilerr.NewArgumentPassedTwice{Positioner: arg.Range, Name: arg.Name}))
			default:
				mapped = append(mapped, mappedArgument{Argument: arg, parameter: p})
			}
			continue
		}

		sawPositional = true
		if sawNamed && !reportedMixing {
			reportedMixing = true
			fail(ilerr.New(ilerr.NewMixingNamedAndPositional{Positioner: arg.Range}))
			continue
		}
		switch {
		case i < len(params):
			p := params[i]
			used.Insert(p)
			mapped = append(mapped, mappedArgument{Argument: arg, parameter: p})
		case candidate.HasVararg():
			mapped = append(mapped, mappedArgument{Argument: arg, parameter: params[len(params)-1]})
		default:
			fail(ilerr.New(ilerr.NewTooManyArguments{Positioner: arg.Range, Function: types.RenderFunction(candidate)}))
		}
	}

	for i, literal := range call.FunctionLiterals {
		if i > 0 {
			fail(ilerr.New(ilerr.NewManyFunctionLiterals{Positioner: literal.Range}))
			continue
		}
		if len(params) == 0 {
			fail(ilerr.New(ilerr.NewTooManyArguments{Positioner: literal.Range, Function: types.RenderFunction(candidate)}))
			continue
		}
		last := params[len(params)-1]
		switch {
		case last.IsVararg():
			fail(ilerr.New(ilerr.NewVarargOutsideParens{Positioner: literal.Range}))
		case !used.Insert(last):
			fail(ilerr.New(ilerr.NewTooManyArguments{Positioner: literal.Range, Function: types.RenderFunction(candidate)}))
		default:
			mapped = append(mapped, mappedArgument{Argument: literal, parameter: last})
		}
	}

	for _, p := range params {
		if !used.Contains(p) && !p.HasDefault() && !p.IsVararg() {
			fail(ilerr.New(ilerr.NewNoValueForParameter{Positioner: call.argumentsSite(), Parameter: p.Name()}))
		}
	}
	return mapped, ok
}
