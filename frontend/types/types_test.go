package types_test

import (
	"strings"
	"testing"

	"github.com/cottand/jet/frontend/trace"
	"github.com/cottand/jet/frontend/typeref"
	"github.com/cottand/jet/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hierarchy is declared on top of the builtins. List shadows the builtin one
// and is invariant.
var hierarchy = []struct {
	header     string
	supertypes []string
}{
	{"Base_T<T>", nil},
	{"Derived_T<T>", []string{"Base_T<T>"}},
	{"DDerived_T<T>", []string{"Derived_T<T>"}},
	{"DDerived1_T<T>", []string{"Derived_T<T>"}},
	{"DDerived2_T<T>", []string{"Derived_T<T>", "Base_T<T>"}},
	{"Base_inT<in T>", nil},
	{"Derived_inT<in T>", []string{"Base_inT<T>"}},
	{"Derived1_inT<in T>", []string{"Base_inT<T>", "Derived_T<T>"}},
	{"Base_outT<out T>", nil},
	{"Derived_outT<out T>", []string{"Base_outT<T>"}},
	{"MDerived_T<T>", []string{"Base_outT<out T>", "Base_T<T>"}},
	{"List<E>", nil},
	{"AbstractList<E>", []string{"List<E?>"}},
	{"ArrayList<E>", []string{"Any", "AbstractList<E?>", "List<E?>"}},
}

func newHierarchyScope(t *testing.T) types.Scope {
	scope := types.NewWritableScope(types.Builtins().Scope(), nil)
	for _, def := range hierarchy {
		name, rest, _ := strings.Cut(def.header, "<")
		var params []*types.TypeParameter
		for i, text := range strings.Split(strings.TrimSuffix(rest, ">"), ", ") {
			variance := types.Invariant
			if kind, paramName, found := strings.Cut(text, " "); found {
				text = paramName
				variance = map[string]types.Variance{"in": types.In, "out": types.Out}[kind]
			}
			params = append(params, types.NewTypeParameter(text, i, variance))
		}
		class := types.NewClassDescriptor(name, params, false, nil)
		inner := types.NewWritableScope(scope, class)
		for _, p := range params {
			inner.AddClassifier(p)
		}
		supertypes := def.supertypes
		if len(supertypes) > 0 {
			class.SetSupertypes(func() []types.Type {
				result := make([]types.Type, len(supertypes))
				for i, text := range supertypes {
					result[i] = mustResolve(t, inner, text)
				}
				return result
			})
		}
		scope.AddClassifier(class)
	}
	return scope
}

// mustResolve ignores projections that contradict declared variance, which
// some of the cases below use on purpose
func mustResolve(t *testing.T, scope types.Scope, text string) types.Type {
	t.Helper()
	resolved := typeref.ParseAndResolve(scope, text, trace.Discard)
	require.False(t, types.ContainsErrorType(resolved), "could not resolve %s", text)
	return resolved
}

func assertSubtype(t *testing.T, scope types.Scope, sub, super string) {
	t.Helper()
	assert.True(t, types.IsSubtypeOf(mustResolve(t, scope, sub), mustResolve(t, scope, super)), "%s should be a subtype of %s", sub, super)
}

func assertNotSubtype(t *testing.T, scope types.Scope, sub, super string) {
	t.Helper()
	assert.False(t, types.IsSubtypeOf(mustResolve(t, scope, sub), mustResolve(t, scope, super)), "%s should not be a subtype of %s", sub, super)
}

func TestBasicSubtyping(t *testing.T) {
	scope := newHierarchyScope(t)
	primitives := []string{"Boolean", "Byte", "Char", "Short", "Int", "Long", "Float", "Double", "Unit"}
	for _, p := range primitives {
		assertSubtype(t, scope, p, p)
		assertSubtype(t, scope, p, "Any")
	}
	assertSubtype(t, scope, "Any", "Any")

	assertNotSubtype(t, scope, "Boolean", "Byte")
	assertNotSubtype(t, scope, "Byte", "Short")
	assertNotSubtype(t, scope, "Char", "Int")
	assertNotSubtype(t, scope, "Short", "Int")
	assertNotSubtype(t, scope, "Int", "Long")
	assertNotSubtype(t, scope, "Long", "Double")
	assertNotSubtype(t, scope, "Float", "Double")
	assertNotSubtype(t, scope, "Double", "Int")
	assertNotSubtype(t, scope, "Unit", "Int")
}

func TestTuples(t *testing.T) {
	scope := newHierarchyScope(t)
	assertSubtype(t, scope, "Unit", "#()")
	assertSubtype(t, scope, "#()", "Unit")
	assertSubtype(t, scope, "#()", "#()")
	for _, p := range []string{"Boolean", "Byte", "Char", "Short", "Int", "Long", "Float", "Double", "Unit"} {
		assertSubtype(t, scope, "#("+p+")", "#("+p+")")
	}
	assertSubtype(t, scope, "#(Unit, Unit)", "#(Unit, Unit)")

	assertNotSubtype(t, scope, "#(Unit)", "#(Int)")
	assertSubtype(t, scope, "#(Unit)", "#(Any)")
	assertSubtype(t, scope, "#(Unit, Unit)", "#(Any, Any)")
	assertSubtype(t, scope, "#(Unit, Unit)", "#(Any, Unit)")
	assertSubtype(t, scope, "#(Unit, Unit)", "#(Unit, Any)")
	assertNotSubtype(t, scope, "#(Unit, Unit)", "#(Unit)")
}

func TestProjections(t *testing.T) {
	scope := newHierarchyScope(t)
	subtypes := [][2]string{
		{"Base_T<Int>", "Base_T<Int>"},
		{"Base_inT<Int>", "Base_inT<Int>"},
		{"Base_inT<Any>", "Base_inT<Int>"},
		{"Base_outT<Int>", "Base_outT<Int>"},
		{"Base_outT<Int>", "Base_outT<Any>"},
		{"Base_T<Int>", "Base_T<out Any>"},
		{"Base_T<Any>", "Base_T<in Int>"},
		{"Base_T<out Int>", "Base_T<out Int>"},
		{"Base_T<in Int>", "Base_T<in Int>"},
		{"Base_inT<out Int>", "Base_inT<out Int>"},
		{"Base_inT<in Int>", "Base_inT<in Int>"},
		{"Base_outT<out Int>", "Base_outT<out Int>"},
		{"Base_outT<in Int>", "Base_outT<in Int>"},
		{"Base_T<Int>", "Base_T<*>"},
		{"Base_T<*>", "Base_T<*>"},
		{"Derived_T<Int>", "Base_T<Int>"},
		{"Derived_outT<Int>", "Base_outT<Int>"},
		{"Derived_inT<Int>", "Base_inT<Int>"},
		{"Derived_T<*>", "Base_T<*>"},
		{"Derived_outT<Int>", "Base_outT<Any>"},
		{"Derived_T<Int>", "Base_T<out Any>"},
		{"Derived_T<Any>", "Base_T<in Int>"},
		{"Derived_T<Int>", "Base_T<in Int>"},
		{"MDerived_T<Int>", "Base_T<in Int>"},
		{"ArrayList<Int>", "List<in Int>"},
	}
	for _, c := range subtypes {
		assertSubtype(t, scope, c[0], c[1])
	}

	notSubtypes := [][2]string{
		{"Base_T<Int>", "Base_T<Any>"},
		{"Base_inT<Int>", "Base_inT<Any>"},
		{"Base_outT<Any>", "Base_outT<Int>"},
		{"Base_T<out Any>", "Base_T<in Int>"},
		{"Base_T<in Int>", "Base_T<out Int>"},
		{"Base_T<*>", "Base_T<out Int>"},
		{"Derived_T<Int>", "Base_T<Any>"},
	}
	for _, c := range notSubtypes {
		assertNotSubtype(t, scope, c[0], c[1])
	}
}

func TestEffectiveProjectionKinds(t *testing.T) {
	scope := newHierarchyScope(t)
	for _, c := range [][2]string{
		{"Tuple1<Int>", "Tuple1<Int>"},
		{"Tuple1<out Int>", "Tuple1<out Int>"},
		{"Tuple1<out Int>", "Tuple1<Int>"},
		{"Tuple1<Int>", "Tuple1<out Int>"},
		{"Tuple1<in Int>", "Tuple1<out Any?>"},
		{"Tuple1<out Any?>", "Tuple1<in String>"},
		{"Base_inT<Int>", "Base_inT<Int>"},
		{"Base_inT<in Int>", "Base_inT<in Int>"},
		{"Base_inT<in Int>", "Base_inT<Int>"},
		{"Base_inT<Int>", "Base_inT<in Int>"},
		{"Base_inT<out Int>", "Base_inT<out Any?>"},
		{"Base_inT<out Any?>", "Base_inT<out Int>"},
	} {
		assertSubtype(t, scope, c[0], c[1])
	}
}

func TestNullable(t *testing.T) {
	scope := newHierarchyScope(t)
	assertSubtype(t, scope, "Any?", "Any?")
	assertSubtype(t, scope, "Any", "Any?")
	assertNotSubtype(t, scope, "Any?", "Any")
	assertSubtype(t, scope, "Int", "Any?")
	assertSubtype(t, scope, "Int?", "Any?")
	assertNotSubtype(t, scope, "Int?", "Any")
	assertNotSubtype(t, scope, "Base_T<Int>?", "Base_T<Int>")
	assertSubtype(t, scope, "Derived_T<Int>", "Base_T<Int>?")
}

func TestNothing(t *testing.T) {
	scope := newHierarchyScope(t)
	assertSubtype(t, scope, "Nothing", "Any")
	assertSubtype(t, scope, "Nothing?", "Any?")
	assertNotSubtype(t, scope, "Nothing?", "Any")
	assertSubtype(t, scope, "Nothing", "Int")
	assertSubtype(t, scope, "Nothing?", "Int?")
	assertNotSubtype(t, scope, "Nothing?", "Int")
	assertSubtype(t, scope, "Nothing?", "Base_T<*>?")
	assertSubtype(t, scope, "Nothing?", "Derived_T<*>?")
	assertNotSubtype(t, scope, "Any", "Nothing")
}

func TestErrorTypesAreCompatibleWithEverything(t *testing.T) {
	scope := newHierarchyScope(t)
	err := types.NewErrorType("broken")
	for _, text := range []string{"Int", "Nothing", "Base_T<in Int>?"} {
		typ := mustResolve(t, scope, text)
		assert.True(t, types.IsSubtypeOf(err, typ), text)
		assert.True(t, types.IsSubtypeOf(typ, err), text)
	}
	assert.False(t, types.Equal(err, types.NewErrorType("broken")))
}

func TestCommonSupertypes(t *testing.T) {
	scope := newHierarchyScope(t)
	for _, c := range []struct {
		expected string
		inputs   []string
	}{
		{"Int", []string{"Int", "Int"}},
		{"Int", []string{"Int", "Nothing"}},
		{"Int", []string{"Nothing", "Int"}},
		{"Nothing", []string{"Nothing", "Nothing"}},
		{"Int?", []string{"Int", "Nothing?"}},
		{"Nothing?", []string{"Nothing?", "Nothing?"}},
		{"Any", []string{"Int", "Char"}},
		{"Number", []string{"Number", "Int"}},
		{"Any", []string{"Int", "Double"}},
		{"Base_T<*>", []string{"Base_T<*>", "Derived_T<*>"}},
		{"Any", []string{"Base_inT<*>", "Derived_T<*>"}},
		{"Derived_T<Int>", []string{"DDerived_T<Int>", "Derived_T<Int>"}},
		{"Derived_T<Int>", []string{"DDerived_T<Int>", "DDerived1_T<Int>"}},
		{"Comparable<*>", []string{"Comparable<Int>", "Comparable<Boolean>"}},
		{"Comparable<*>", []string{"Int", "String"}},
		{"Comparable<*>", []string{"Int", "String", "Boolean"}},
		{"MutableList<out Comparable<*>>", []string{"MutableList<Int>", "MutableList<String>"}},
		{"Base_T<out Comparable<*>>", []string{"Base_T<Int>", "Base_T<Boolean>"}},
		{"Base_T<in Int>", []string{"Base_T<Int>", "Base_T<in Int>"}},
		{"Base_T<in Int>", []string{"Derived_T<Int>", "Base_T<in Int>"}},
		{"Base_T<in Int>", []string{"Derived_T<in Int>", "Base_T<Int>"}},
		{"Base_T<*>", []string{"Base_T<Int>", "Base_T<*>"}},
	} {
		t.Run(c.expected+" from "+strings.Join(c.inputs, ", "), func(t *testing.T) {
			inputs := make([]types.Type, len(c.inputs))
			for i, text := range c.inputs {
				inputs[i] = mustResolve(t, scope, text)
			}
			expected := mustResolve(t, scope, c.expected)
			actual := types.CommonSupertype(inputs)
			assert.True(t, types.Equal(expected, actual), "expected %s, got %s", types.Render(expected), types.Render(actual))
		})
	}
}

func TestBuiltinsAreBuiltOnce(t *testing.T) {
	b := types.Builtins()
	assert.Same(t, b, types.Builtins())
	// classes without declared supertypes reach back into the table
	fresh := types.NewClassDescriptor("Fresh", nil, false, nil)
	assert.True(t, types.IsSubtypeOf(fresh.DefaultType(), b.AnyType()))
}

func TestCommonSupertypeOfNothingIsNothing(t *testing.T) {
	assert.True(t, types.Builtins().IsNothing(types.CommonSupertype(nil)))
}

func TestCommonSupertypeKeepsErrors(t *testing.T) {
	err := types.NewErrorType("broken")
	actual := types.CommonSupertype([]types.Type{types.Builtins().IntType(), err})
	assert.Same(t, err, actual)
}

func TestIntersect(t *testing.T) {
	scope := newHierarchyScope(t)
	for _, c := range []struct {
		expected string
		inputs   []string
	}{
		{"Int?", []string{"Int?", "Int?"}},
		{"Int", []string{"Int?", "Int"}},
		{"Int", []string{"Int", "Int?"}},
		{"Int", []string{"Any", "Int"}},
		{"Int", []string{"Int", "Any"}},
		{"Int", []string{"Any", "Int?"}},
		{"Int", []string{"Int?", "Any"}},
		{"Int", []string{"Any?", "Int"}},
		{"Int", []string{"Int", "Any?"}},
		{"Nothing", []string{"Nothing", "Nothing"}},
		{"Nothing?", []string{"Nothing?", "Nothing?"}},
		{"Nothing", []string{"Nothing", "Nothing?"}},
		{"Nothing", []string{"Nothing?", "Nothing"}},
		{"Nothing?", []string{"String?", "Nothing?"}},
		{"Nothing?", []string{"Nothing?", "String?"}},
		{"Derived_T<Int>", []string{"Base_T<Int>", "Derived_T<Int>"}},
	} {
		t.Run(c.expected+" from "+strings.Join(c.inputs, ", "), func(t *testing.T) {
			inputs := make([]types.Type, len(c.inputs))
			for i, text := range c.inputs {
				inputs[i] = mustResolve(t, scope, text)
			}
			expected := mustResolve(t, scope, c.expected)
			actual, ok := types.Intersect(inputs)
			require.True(t, ok)
			assert.True(t, types.Equal(expected, actual), "expected %s, got %s", types.Render(expected), types.Render(actual))
		})
	}
}

func TestIntersectOfUnrelatedSealedTypesIsEmpty(t *testing.T) {
	b := types.Builtins()
	_, ok := types.Intersect([]types.Type{b.IntType(), b.StringType()})
	assert.False(t, ok)
}

func TestIntersectionTypes(t *testing.T) {
	scope := newHierarchyScope(t)
	base := mustResolve(t, scope, "Base_T<Int>")
	covariant := mustResolve(t, scope, "Base_outT<Int>")

	intersection, ok := types.Intersect([]types.Type{base, covariant})
	require.True(t, ok)
	assert.Equal(t, "{Base_T<Int> & Base_outT<Int>}", types.Render(intersection))
	assert.True(t, types.IsSubtypeOf(intersection, base))
	assert.True(t, types.IsSubtypeOf(intersection, covariant))
	assert.True(t, types.IsSubtypeOf(mustResolve(t, scope, "MDerived_T<Int>"), intersection))
	assert.False(t, types.IsSubtypeOf(mustResolve(t, scope, "Derived_T<Int>"), intersection))

	nullable, ok := types.Intersect([]types.Type{types.MakeNullable(base), types.MakeNullable(covariant)})
	require.True(t, ok)
	assert.True(t, nullable.IsNullable())
}

func TestAllSupertypes(t *testing.T) {
	scope := newHierarchyScope(t)
	for _, c := range []struct {
		typ        string
		supertypes []string
	}{
		{"DDerived1_T<Int>", []string{"Derived_T<Int>", "Base_T<Int>", "Any"}},
		{"DDerived2_T<Int>", []string{"Derived_T<Int>", "Base_T<Int>", "Any"}},
		{"Derived1_inT<Int>", []string{"Derived_T<Int>", "Base_T<Int>", "Any", "Base_inT<Int>"}},
	} {
		t.Run(c.typ, func(t *testing.T) {
			var actual []string
			for _, supertype := range types.AllSupertypes(mustResolve(t, scope, c.typ)) {
				actual = append(actual, types.Render(supertype))
			}
			assert.ElementsMatch(t, c.supertypes, actual)
		})
	}
}

func TestCanHaveSubtypes(t *testing.T) {
	scope := newHierarchyScope(t)
	for text, expected := range map[string]bool{
		"Int":            false,
		"Int?":           true,
		"Any":            true,
		"Base_T<Int>":    true,
		"Array<Any>":     true,
		"Array<out Int>": false,
		"Array<in Int>":  true,
		"#(Int, String)": false,
		"#(Int, Number)": true,
	} {
		assert.Equal(t, expected, types.CanHaveSubtypes(mustResolve(t, scope, text)), text)
	}
}

func TestMemberScopesAreSubstituted(t *testing.T) {
	scope := newHierarchyScope(t)
	b := types.Builtins()

	get := b.ListType(b.StringType()).MemberScope().LookupFunctions("get")
	require.Len(t, get, 1)
	assert.True(t, types.Equal(b.StringType(), get[0].ReturnType()))
	assert.Same(t, b.List().MemberScope().LookupFunctions("get")[0], get[0].Original())

	// inherited from Collection and Any
	assert.Len(t, b.ListType(b.IntType()).MemberScope().LookupFunctions("size"), 1)
	assert.NotEmpty(t, b.ListType(b.IntType()).MemberScope().LookupFunctions("toString"))

	add := mustResolve(t, scope, "MutableList<in Int>").MemberScope().LookupFunctions("add")
	require.Len(t, add, 1)
	assert.True(t, types.Equal(b.IntType(), add[0].ValueParameters()[0].Type()))
}

func TestSubstitutionReportsVarianceConflicts(t *testing.T) {
	scope := newHierarchyScope(t)
	add := mustResolve(t, scope, "MutableList<out Int>").MemberScope().LookupFunctions("add")
	require.Len(t, add, 1)

	param := add[0].ValueParameters()[0].Type()
	require.True(t, param.IsError())
	projection, usage, ok := param.(*types.ErrorType).OffendingProjection()
	require.True(t, ok)
	assert.Equal(t, types.In, usage)
	assert.Equal(t, types.Out, projection.Kind)
	assert.True(t, types.Equal(types.Builtins().IntType(), projection.Type))

	// reading through an out projection is fine
	set := mustResolve(t, scope, "MutableList<out Int>").MemberScope().LookupFunctions("set")
	require.Len(t, set, 1)
	assert.True(t, types.Equal(types.Builtins().IntType(), set[0].ReturnType()))
}

func TestSubstitutingStarProjections(t *testing.T) {
	scope := newHierarchyScope(t)
	b := types.Builtins()
	set := mustResolve(t, scope, "Array<*>").MemberScope().LookupFunctions("set")
	require.Len(t, set, 1)
	assert.True(t, b.IsNothing(set[0].ValueParameters()[1].Type()))

	get := mustResolve(t, scope, "Array<*>").MemberScope().LookupFunctions("get")
	require.Len(t, get, 1)
	assert.True(t, types.Equal(b.NullableAnyType(), get[0].ReturnType()))

	array := mustResolve(t, scope, "Array<*>")
	param := array.Constructor().Parameters()[0]
	substitutor := types.SubstitutorFor(array)
	assert.True(t, types.Equal(b.NullableAnyType(), substitutor.Substitute(param.DefaultType(), types.Invariant)))
	assert.True(t, b.IsNothing(substitutor.Substitute(param.DefaultType(), types.In)))
}

func TestLazyDetectsReentrantAccess(t *testing.T) {
	var l *types.Lazy[int]
	var innerErr error
	l = types.NewLazy("cycle", func() int {
		_, innerErr = l.Get()
		return 1
	})
	_, err := l.Get()
	assert.ErrorIs(t, err, types.ErrReentrant)
	assert.ErrorIs(t, innerErr, types.ErrReentrant)
	assert.Equal(t, types.Failed, l.State())

	_, again := l.Get()
	assert.ErrorIs(t, again, types.ErrReentrant)
}

func TestLazyComputesOnce(t *testing.T) {
	calls := 0
	l := types.NewLazy("once", func() string {
		calls++
		return "value"
	})
	assert.Equal(t, types.NotComputed, l.State())
	for range 3 {
		value, err := l.Get()
		require.NoError(t, err)
		assert.Equal(t, "value", value)
	}
	assert.Equal(t, 1, calls)
	assert.True(t, l.IsComputed())
}

func TestDeferredTypes(t *testing.T) {
	b := types.Builtins()
	var seenWhileComputing string
	var deferred *types.DeferredType
	deferred = types.NewDeferredType("x", func() types.Type {
		seenWhileComputing = deferred.String()
		return b.IntType()
	})
	assert.False(t, deferred.IsComputed())
	assert.True(t, types.IsSubtypeOf(deferred, b.AnyType()))
	assert.Equal(t, "<computing>", seenWhileComputing)
	assert.True(t, deferred.IsComputed())
	assert.Equal(t, "Int", deferred.String())

	var cyclic *types.DeferredType
	cyclic = types.NewDeferredType("y", func() types.Type { return cyclic.Delegate() })
	assert.True(t, cyclic.IsError())
}
