package calls

import (
	"go/token"
	"strings"
	"testing"

	"github.com/cottand/jet/frontend/ast"
	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/trace"
	"github.com/cottand/jet/frontend/typeref"
	"github.com/cottand/jet/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	scope    *types.WritableScope
	root     *trace.BindingTrace
	resolver *Resolver
	pos      token.Pos
}

func newFixture() *fixture {
	return &fixture{
		scope:    types.NewWritableScope(types.Builtins().Scope(), nil),
		root:     trace.NewBindingTrace(),
		resolver: NewResolver(),
		pos:      1000,
	}
}

func (f *fixture) nextRange() ast.Range {
	f.pos += 10
	return ast.Range{PosStart: f.pos, PosEnd: f.pos + 5}
}

func resolveIn(t *testing.T, scope types.Scope, text string) types.Type {
	t.Helper()
	sink := trace.NewBindingTrace()
	resolved := typeref.ParseAndResolve(scope, text, sink)
	require.False(t, sink.Diagnostics().HasError(), "resolving %s: %v", text, sink.Diagnostics())
	return resolved
}

func (f *fixture) typ(t *testing.T, text string) types.Type {
	return resolveIn(t, f.scope, text)
}

type param struct {
	name       string
	typ        string
	vararg     bool
	hasDefault bool
}

// signature declares a function. Type parameters are written `T` or `T : Bound`.
type signature struct {
	name       string
	typeParams []string
	receiver   string
	params     []param
	returns    string
	containing types.Declaration
}

func (f *fixture) declareIn(t *testing.T, scope *types.WritableScope, sig signature) *types.FunctionDescriptor {
	t.Helper()
	local := types.NewWritableScope(scope, nil)
	typeParams := make([]*types.TypeParameter, len(sig.typeParams))
	for i, text := range sig.typeParams {
		name, bound, bounded := strings.Cut(text, " : ")
		p := types.NewTypeParameter(name, i, types.Invariant)
		if bounded {
			p.SetUpperBounds(func() []types.Type { return []types.Type{resolveIn(t, local, bound)} })
		}
		typeParams[i] = p
		local.AddClassifier(p)
	}
	values := make([]*types.ValueParameterDescriptor, len(sig.params))
	for i, p := range sig.params {
		values[i] = types.NewValueParameter(p.name, resolveIn(t, local, p.typ), p.hasDefault, p.vararg)
	}
	var receiver, returns types.Type
	if sig.receiver != "" {
		receiver = resolveIn(t, local, sig.receiver)
	}
	if sig.returns != "" {
		returns = resolveIn(t, local, sig.returns)
	}
	fn := types.NewFunctionDescriptor(sig.name, sig.containing)
	require.NoError(t, fn.Initialize(typeParams, values, returns, receiver))
	scope.AddFunction(fn)
	return fn
}

func (f *fixture) declare(t *testing.T, sig signature) *types.FunctionDescriptor {
	return f.declareIn(t, f.scope, sig)
}

func (f *fixture) arg(t *testing.T, text string) Argument {
	return Argument{Range: f.nextRange(), Type: f.typ(t, text)}
}

func (f *fixture) named(t *testing.T, name, text string) Argument {
	return Argument{Range: f.nextRange(), Name: name, Type: f.typ(t, text)}
}

func (f *fixture) call(name string, args ...Argument) *Call {
	return &Call{
		Site:      ast.Range{PosStart: 1, PosEnd: 100},
		Callee:    ast.Range{PosStart: 1, PosEnd: 2},
		Name:      name,
		Arguments: args,
	}
}

func (f *fixture) withTypeArguments(t *testing.T, call *Call, text string) *Call {
	args, err := typeref.ParseArguments(text, 3)
	require.NoError(t, err)
	call.TypeArguments = args
	call.TypeArgumentsRange = &ast.Range{PosStart: 2, PosEnd: token.Pos(3 + len(text))}
	return call
}

func (f *fixture) resolve(call *Call) Result {
	return f.resolver.ResolveCall(f.scope, f.root, call)
}

func (f *fixture) codes() []ilerr.ErrCode {
	return f.root.Diagnostics().Codes()
}

func TestVarargAbsorbsExtraArguments(t *testing.T) {
	f := newFixture()
	fn := f.declare(t, signature{name: "f", params: []param{{name: "a", typ: "Int"}, {name: "b", typ: "Int", vararg: true}}})

	for _, n := range []int{1, 2, 5} {
		args := make([]Argument, n)
		for i := range args {
			args[i] = f.arg(t, "Int")
		}
		result := f.resolve(f.call("f", args...))
		assert.Equal(t, Success, result.Status, "%d arguments", n)
		assert.Same(t, fn, result.Descriptor)
	}
	assert.Empty(t, f.codes())

	result := f.resolve(f.call("f"))
	assert.Equal(t, SingleCandidateFailed, result.Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.NoValueForParameter}, f.codes())
	assert.Equal(t, "no value passed for parameter a", f.root.Diagnostics().Errors()[0].Error())
}

func TestTooManyArguments(t *testing.T) {
	f := newFixture()
	f.declare(t, signature{name: "f", params: []param{{name: "a", typ: "Int"}}})

	result := f.resolve(f.call("f", f.arg(t, "Int"), f.arg(t, "Int")))
	assert.Equal(t, SingleCandidateFailed, result.Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.TooManyArguments}, f.codes())
}

func TestDefaultedParametersMayBeOmitted(t *testing.T) {
	f := newFixture()
	result := f.resolve(f.call("println"))
	assert.Equal(t, Success, result.Status)
	assert.True(t, types.Builtins().IsUnit(result.ReturnType()))
	assert.Empty(t, f.codes())
}

func TestNamedArguments(t *testing.T) {
	sig := signature{name: "f", params: []param{{name: "a", typ: "Int"}, {name: "b", typ: "String"}}}

	t.Run("in any order", func(t *testing.T) {
		f := newFixture()
		f.declare(t, sig)
		result := f.resolve(f.call("f", f.named(t, "b", "String"), f.named(t, "a", "Int")))
		assert.Equal(t, Success, result.Status)
		assert.Empty(t, f.codes())
	})

	cases := map[string]struct {
		args func(f *fixture, t *testing.T) []Argument
		code ilerr.ErrCode
	}{
		"mixed with positional": {
			args: func(f *fixture, t *testing.T) []Argument { return []Argument{f.named(t, "a", "Int"), f.arg(t, "String")} },
			code: ilerr.MixingNamedAndPositional,
		},
		"unknown name": {
			args: func(f *fixture, t *testing.T) []Argument { return []Argument{f.named(t, "a", "Int"), f.named(t, "c", "String")} },
			code: ilerr.NamedParameterNotFound,
		},
		"passed twice": {
			args: func(f *fixture, t *testing.T) []Argument {
				return []Argument{f.named(t, "a", "Int"), f.named(t, "a", "Int"), f.named(t, "b", "String")}
			},
			code: ilerr.ArgumentPassedTwice,
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.declare(t, sig)
			result := f.resolve(f.call("f", c.args(f, t)...))
			assert.Equal(t, SingleCandidateFailed, result.Status)
			assert.Contains(t, f.codes(), c.code)
		})
	}
}

func TestMostSpecificCandidateWins(t *testing.T) {
	f := newFixture()
	specific := f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "Int"}}})
	general := f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "Any"}}})

	result := f.resolve(f.call("f", f.arg(t, "Int")))
	assert.Equal(t, Success, result.Status)
	assert.Same(t, specific, result.Descriptor)

	result = f.resolve(f.call("f", f.arg(t, "String")))
	assert.Equal(t, Success, result.Status)
	assert.Same(t, general, result.Descriptor)

	callee, ok := f.root.ResolvedCallee(ast.Range{PosStart: 1, PosEnd: 2})
	require.True(t, ok)
	assert.Same(t, general, callee)
	assert.Empty(t, f.codes())
}

func TestAmbiguity(t *testing.T) {
	f := newFixture()
	f.declare(t, signature{name: "f", params: []param{{name: "a", typ: "Int"}, {name: "b", typ: "Any"}}})
	f.declare(t, signature{name: "f", params: []param{{name: "a", typ: "Any"}, {name: "b", typ: "Int"}}})

	result := f.resolve(f.call("f", f.arg(t, "Int"), f.arg(t, "Int")))
	assert.Equal(t, Ambiguity, result.Status)
	assert.Len(t, result.Candidates, 2)
	assert.Equal(t, []ilerr.ErrCode{ilerr.OverloadAmbiguity}, f.codes())
	assert.Contains(t, f.root.Diagnostics().Errors()[0].Error(), "fun f(a: Int, b: Any): Unit")

	_, recorded := f.root.ExpressionType(ast.Range{PosStart: 1, PosEnd: 100})
	assert.False(t, recorded)
}

func TestAmbiguityWithUnknownArgumentsIsNotReported(t *testing.T) {
	f := newFixture()
	f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "Int"}}})
	f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "String"}}})

	result := f.resolve(f.call("f", Argument{Range: f.nextRange()}))
	assert.Equal(t, Ambiguity, result.Status)
	assert.Empty(t, f.codes())
}

func TestNoneApplicable(t *testing.T) {
	f := newFixture()
	f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "Int"}}})
	f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "String"}}})

	result := f.resolve(f.call("f", f.arg(t, "Boolean")))
	assert.Equal(t, NoneApplicable, result.Status)
	// the type mismatches of each candidate stay in their own traces
	assert.Equal(t, []ilerr.ErrCode{ilerr.NoneApplicable}, f.codes())
}

func TestFailedCandidatesDoNotLeak(t *testing.T) {
	f := newFixture()
	f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "Int"}}})
	f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "String"}}})

	result := f.resolve(f.call("f", f.arg(t, "Int")))
	assert.Equal(t, Success, result.Status)
	assert.Empty(t, f.codes())
}

func TestUnresolvedReference(t *testing.T) {
	f := newFixture()
	result := f.resolve(f.call("nope"))
	assert.Equal(t, Unresolved, result.Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.UnresolvedReference}, f.codes())
	assert.True(t, result.ReturnType().IsError())
}

func TestImplicitTypeArguments(t *testing.T) {
	f := newFixture()
	id := f.declare(t, signature{name: "id", typeParams: []string{"T"}, params: []param{{name: "x", typ: "T"}}, returns: "T"})

	call := f.call("id", f.arg(t, "Int"))
	result := f.resolve(call)
	require.Equal(t, Success, result.Status)
	assert.Same(t, id, result.Descriptor.Original())
	assert.Equal(t, "Int", result.Descriptor.ReturnType().String())

	recorded, ok := f.root.ExpressionType(call.Site)
	require.True(t, ok)
	assert.Equal(t, "Int", recorded.String())
	assert.Empty(t, f.codes())
}

func TestInferenceFromBrokenArgumentsReportsNothing(t *testing.T) {
	for name, arg := range map[string]func(f *fixture) Argument{
		"error type": func(f *fixture) Argument {
			return Argument{Range: f.nextRange(), Type: types.NewErrorType("already reported")}
		},
		"unknown type": func(f *fixture) Argument {
			return Argument{Range: f.nextRange()}
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.declare(t, signature{name: "id", typeParams: []string{"T"}, params: []param{{name: "x", typ: "T"}}, returns: "T"})

			result := f.resolve(f.call("id", arg(f)))
			assert.Equal(t, Success, result.Status)
			assert.Empty(t, f.codes())
			assert.True(t, result.ReturnType().IsError())
		})
	}
}

func TestInferenceJoinsArguments(t *testing.T) {
	f := newFixture()
	result := f.resolve(f.call("listOf", f.arg(t, "Int"), f.arg(t, "Int?")))
	require.Equal(t, Success, result.Status)
	assert.Equal(t, "List<Int?>", result.ReturnType().String())
}

func TestInferenceFromExpectedType(t *testing.T) {
	f := newFixture()
	result := f.resolve(f.call("emptyList"))
	assert.Equal(t, SingleCandidateFailed, result.Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.TypeInferenceFailed}, f.codes())

	f = newFixture()
	call := f.call("emptyList")
	call.Expected = f.typ(t, "List<Int>")
	result = f.resolve(call)
	require.Equal(t, Success, result.Status)
	assert.Equal(t, "List<Int>", result.ReturnType().String())
	assert.Empty(t, f.codes())
}

func TestExplicitTypeArguments(t *testing.T) {
	f := newFixture()
	f.declare(t, signature{name: "id", typeParams: []string{"T"}, params: []param{{name: "x", typ: "T"}}, returns: "T"})

	result := f.resolve(f.withTypeArguments(t, f.call("id", f.arg(t, "Int")), "Number"))
	require.Equal(t, Success, result.Status)
	assert.Equal(t, "Number", result.ReturnType().String())
	assert.Empty(t, f.codes())

	result = f.resolve(f.withTypeArguments(t, f.call("id", f.arg(t, "Int")), "String"))
	assert.Equal(t, SingleCandidateFailed, result.Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.TypeMismatch}, f.codes())
}

func TestExplicitTypeArgumentErrors(t *testing.T) {
	sig := signature{name: "num", typeParams: []string{"N : Number"}, params: []param{{name: "x", typ: "N"}}, returns: "N"}

	t.Run("wrong count", func(t *testing.T) {
		f := newFixture()
		f.declare(t, sig)
		call := f.withTypeArguments(t, f.call("num", f.arg(t, "Int")), "Int, Int")
		result := f.resolve(call)
		assert.Equal(t, SingleCandidateFailed, result.Status)
		require.Equal(t, []ilerr.ErrCode{ilerr.WrongNumberOfTypeArguments}, f.codes())
		assert.Equal(t, *call.TypeArgumentsRange, ast.RangeOf(f.root.Diagnostics().Errors()[0]))
	})

	t.Run("projection", func(t *testing.T) {
		f := newFixture()
		f.declare(t, sig)
		result := f.resolve(f.withTypeArguments(t, f.call("num", f.arg(t, "Int")), "out Int"))
		assert.Equal(t, Success, result.Status)
		assert.Equal(t, []ilerr.ErrCode{ilerr.ProjectionOnCallTypeArgument}, f.codes())
	})

	t.Run("bound violation", func(t *testing.T) {
		f := newFixture()
		f.declare(t, sig)
		call := f.withTypeArguments(t, f.call("num", f.arg(t, "String")), "String")
		result := f.resolve(call)
		// the signature is still known, so the candidate applies
		assert.Equal(t, Success, result.Status)
		require.Equal(t, []ilerr.ErrCode{ilerr.UpperBoundViolation}, f.codes())
		assert.Equal(t, call.TypeArguments[0].Type.Range, ast.RangeOf(f.root.Diagnostics().Errors()[0]))
	})
}

func TestMemberCalls(t *testing.T) {
	f := newFixture()

	call := f.call("get", f.arg(t, "Int"))
	call.Receiver = f.typ(t, "List<String>")
	result := f.resolve(call)
	require.Equal(t, Success, result.Status)
	assert.Equal(t, "String", result.ReturnType().String())

	// inherited from Collection
	call = f.call("size")
	call.Receiver = f.typ(t, "MutableList<Int>")
	result = f.resolve(call)
	require.Equal(t, Success, result.Status)
	assert.Equal(t, "Int", result.ReturnType().String())
	assert.Empty(t, f.codes())
}

func TestMemberCallThroughOutProjection(t *testing.T) {
	f := newFixture()
	call := f.call("add", f.arg(t, "Int"))
	call.Receiver = f.typ(t, "MutableList<out Int>")

	result := f.resolve(call)
	assert.Equal(t, SingleCandidateFailed, result.Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.VarianceViolation}, f.codes())
}

func TestExtensions(t *testing.T) {
	f := newFixture()
	f.declare(t, signature{name: "double", receiver: "Int", returns: "Int"})
	f.declare(t, signature{name: "firstOr", typeParams: []string{"T"}, receiver: "List<T>", params: []param{{name: "default", typ: "T"}}, returns: "T"})

	call := f.call("double")
	call.Receiver = f.typ(t, "Int")
	assert.Equal(t, Success, f.resolve(call).Status)

	call = f.call("firstOr", f.arg(t, "Int"))
	call.Receiver = f.typ(t, "List<Int>")
	result := f.resolve(call)
	require.Equal(t, Success, result.Status)
	assert.Equal(t, "Int", result.ReturnType().String())
	assert.Empty(t, f.codes())

	call = f.call("double")
	call.Receiver = f.typ(t, "String")
	assert.Equal(t, SingleCandidateFailed, f.resolve(call).Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.ReceiverMismatch}, f.codes())
}

func TestReceiverPresence(t *testing.T) {
	f := newFixture()
	extension := f.declare(t, signature{name: "double", receiver: "Int", returns: "Int"})
	plain := f.declare(t, signature{name: "twice", params: []param{{name: "x", typ: "Int"}}, returns: "Int"})

	result := f.resolver.ResolveCandidates(f.scope, f.root, f.call("double"), []*types.FunctionDescriptor{extension})
	assert.Equal(t, SingleCandidateFailed, result.Status)

	call := f.call("twice", f.arg(t, "Int"))
	call.Receiver = f.typ(t, "Int")
	result = f.resolver.ResolveCandidates(f.scope, f.root, call, []*types.FunctionDescriptor{plain})
	assert.Equal(t, SingleCandidateFailed, result.Status)

	assert.Equal(t, []ilerr.ErrCode{ilerr.MissingReceiver, ilerr.NoReceiverAllowed}, f.codes())
}

func TestLocalFunctionsComeFirst(t *testing.T) {
	f := newFixture()
	outer := f.declare(t, signature{name: "outer"})
	inner := types.NewWritableScope(f.scope, outer)

	f.declare(t, signature{name: "g", params: []param{{name: "x", typ: "Int"}}})
	local := f.declareIn(t, inner, signature{name: "g", params: []param{{name: "x", typ: "Any"}}, containing: outer})

	result := f.resolver.ResolveCall(inner, f.root, f.call("g", f.arg(t, "Int")))
	require.Equal(t, Success, result.Status)
	assert.Same(t, local, result.Descriptor)
}

func TestFallbackToNonLocalFunctions(t *testing.T) {
	f := newFixture()
	outer := f.declare(t, signature{name: "outer"})
	inner := types.NewWritableScope(f.scope, outer)

	global := f.declare(t, signature{name: "g", params: []param{{name: "x", typ: "Int"}}})
	f.declareIn(t, inner, signature{name: "g", params: []param{{name: "x", typ: "String"}}, containing: outer})

	result := f.resolver.ResolveCall(inner, f.root, f.call("g", f.arg(t, "Int")))
	require.Equal(t, Success, result.Status)
	assert.Same(t, global, result.Descriptor)
	assert.Empty(t, f.codes())

	// with no applicable group, the errors of the local one are reported
	result = f.resolver.ResolveCall(inner, f.root, f.call("g", f.arg(t, "Boolean")))
	assert.Equal(t, SingleCandidateFailed, result.Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.TypeMismatch}, f.codes())
}

func TestConstructorCalls(t *testing.T) {
	f := newFixture()
	classParam := types.NewTypeParameter("T", 0, types.Invariant)
	box := types.NewClassDescriptor("Box", []*types.TypeParameter{classParam}, false, nil)
	f.scope.AddClassifier(box)

	constructorParam := types.NewTypeParameter("T", 0, types.Invariant)
	constructor := types.NewFunctionDescriptor("Box", nil)
	require.NoError(t, constructor.Initialize(
		[]*types.TypeParameter{constructorParam},
		[]*types.ValueParameterDescriptor{types.NewValueParameter("value", constructorParam.DefaultType(), false, false)},
		types.NewInvariantType(box.TypeConstructor(), false, constructorParam.DefaultType()),
		nil,
	))
	box.AddConstructor(constructor)

	result := f.resolve(f.call("Box", f.arg(t, "String")))
	require.Equal(t, Success, result.Status)
	assert.Equal(t, "Box<String>", result.ReturnType().String())
}

func TestFunctionLiterals(t *testing.T) {
	f := newFixture()
	f.declare(t, signature{name: "run", params: []param{{name: "x", typ: "Int"}, {name: "block", typ: "Function0<Unit>"}}})
	f.declare(t, signature{name: "all", params: []param{{name: "xs", typ: "Function0<Unit>", vararg: true}}})
	literal := func() Argument {
		return Argument{Range: f.nextRange(), Type: types.Builtins().FunctionType(nil, types.Builtins().UnitType())}
	}

	call := f.call("run", f.arg(t, "Int"))
	call.FunctionLiterals = []Argument{literal()}
	assert.Equal(t, Success, f.resolve(call).Status)
	assert.Empty(t, f.codes())

	call = f.call("run", f.arg(t, "Int"))
	call.FunctionLiterals = []Argument{literal(), literal()}
	assert.Equal(t, SingleCandidateFailed, f.resolve(call).Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.ManyFunctionLiterals}, f.codes())

	f.root = trace.NewBindingTrace()
	call = f.call("all")
	call.FunctionLiterals = []Argument{literal()}
	assert.Equal(t, SingleCandidateFailed, f.resolve(call).Status)
	assert.Equal(t, []ilerr.ErrCode{ilerr.VarargOutsideParens}, f.codes())
}

func TestResolveExactSignature(t *testing.T) {
	f := newFixture()
	specific := f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "Int"}}})
	f.declare(t, signature{name: "f", params: []param{{name: "x", typ: "Any"}}})
	f.declare(t, signature{name: "f", typeParams: []string{"T"}, params: []param{{name: "x", typ: "T"}}})

	result := f.resolver.ResolveExactSignature(f.scope, nil, "f", []types.Type{f.typ(t, "Int")})
	require.Equal(t, Success, result.Status)
	assert.Same(t, specific, result.Descriptor)

	result = f.resolver.ResolveExactSignature(f.scope, nil, "f", []types.Type{f.typ(t, "String")})
	assert.Equal(t, Unresolved, result.Status)

	result = f.resolver.ResolveExactSignature(f.scope, f.typ(t, "List<String>"), "get", []types.Type{f.typ(t, "Int")})
	require.Equal(t, Success, result.Status)
	assert.Equal(t, "String", result.Descriptor.ReturnType().String())
}
