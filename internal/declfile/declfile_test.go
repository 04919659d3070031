package declfile

import (
	"embed"
	"io/fs"
	"strings"
	"testing"

	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/types"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata
var testSet embed.FS

func declare(t *testing.T, source string) *Module {
	t.Helper()
	f, err := Parse([]byte(source), "test.yaml")
	require.NoError(t, err)
	m, err := Declare(f)
	require.NoError(t, err)
	return m
}

func TestTestdata(t *testing.T) {
	paths, err := fs.Glob(testSet, "testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			f, err := Load(testSet, path)
			require.NoError(t, err)
			m, err := Declare(f)
			require.NoError(t, err)

			outcomes := m.Check()
			require.Len(t, outcomes, len(f.Queries))
			for _, outcome := range outcomes {
				assert.True(t, outcome.Passed(), "line %d: %s = %s: %v\n%s",
					outcome.Query.Line(), outcome.Question, outcome.Answer, outcome.Mismatches, pretty.Sprint(outcome.Diagnostics))
			}
		})
	}
}

func TestTextsKnowWhereTheyAre(t *testing.T) {
	f, err := Parse([]byte(`
functions:
  - name: f
    params: [{name: x, type: Int}]
`), "test.yaml")
	require.NoError(t, err)
	require.Len(t, f.Functions, 1)

	expected := Parameter{
		Name: Text{Value: "x", Line: 4, Column: 21},
		Type: Text{Value: "Int", Line: 4, Column: 30},
	}
	if diff := pretty.Diff(expected, f.Functions[0].Params[0]); len(diff) > 0 {
		t.Errorf("unexpected parameter:\n%s", strings.Join(diff, "\n"))
	}
	assert.Equal(t, Text{Value: "f", Line: 3, Column: 11}, f.Functions[0].Name)
}

func TestNullableTypesInFlowSequences(t *testing.T) {
	// a plain `Int?` cannot be followed by `,` or `]` in a flow sequence
	_, err := Parse([]byte("queries:\n  - common: [Int, Int?]\n"), "test.yaml")
	require.Error(t, err)

	m := declare(t, `
queries:
  - common: [Int, "Nothing?"]
    type: Int?
`)
	outcomes := m.Check()
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Passed(), outcomes[0].Mismatches)
	assert.Equal(t, 3, outcomes[0].Query.Common[1].Line)
	assert.Equal(t, 20, outcomes[0].Query.Common[1].Column)
}

func TestMalformedQueries(t *testing.T) {
	for name, c := range map[string]struct {
		source string
		err    string
	}{
		"no kind": {
			source: "queries:\n  - holds: true\n",
			err:    "line 2: a query needs exactly one of",
		},
		"two kinds": {
			source: "queries:\n  - subtype: [Int, Any]\n    common: [Int]\n",
			err:    "line 2: a query needs exactly one of",
		},
		"subtype of one type": {
			source: "queries:\n  - subtype: [Int]\n",
			err:    "subtype takes two types",
		},
		"type that is not a string": {
			source: "variables:\n  - name: x\n    type: [Int]\n",
			err:    "line 3: expected a string",
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(c.source), "test.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.err)
			assert.Contains(t, err.Error(), "parsing test.yaml")
		})
	}
}

func TestMalformedDeclarations(t *testing.T) {
	for name, c := range map[string]struct {
		source string
		err    string
	}{
		"unknown variance": {
			source: "classes:\n  - name: C\n    params: [inout T]\n",
			err:    `unknown variance "inout"`,
		},
		"variance on a function": {
			source: "functions:\n  - name: f\n    typeParams: [out T]\n",
			err:    `malformed type parameter "out T"`,
		},
		"empty bound": {
			source: "classes:\n  - name: C\n    params: [\"T : Any &\"]\n",
			err:    "empty bound",
		},
		"local member": {
			source: "classes:\n  - name: C\n    members:\n      - name: m\n        local: true\n",
			err:    "members cannot be local",
		},
		"parameter without a type": {
			source: "functions:\n  - name: f\n    params: [{name: x}]\n",
			err:    "parameters need a name and a type",
		},
		"anonymous class": {
			source: "classes:\n  - params: [T]\n",
			err:    "class without a name",
		},
	} {
		t.Run(name, func(t *testing.T) {
			f, err := Parse([]byte(c.source), "test.yaml")
			require.NoError(t, err)
			_, err = Declare(f)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.err)
		})
	}
}

func TestDiagnosticsPointIntoTheFile(t *testing.T) {
	m := declare(t, `
variables:
  - name: x
    type: List<Nope>
`)
	errs := m.Trace.Diagnostics().Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ilerr.UnresolvedReference, errs[0].Code())
	assert.Equal(t, "test.yaml:4:16: (E002) unresolved reference: Nope", m.Format(errs[0]))
}

func TestBoundsArePositionedWithinTheirParameter(t *testing.T) {
	m := declare(t, `
classes:
  - name: C
    params: ["T : Any & Nope"]
queries:
  - subtype: [C<Int>, Any]
`)
	// bounds are resolved once needed
	assert.Empty(t, m.Trace.Diagnostics().Errors())
	class, ok := m.Root.LookupType("C").(*types.ClassDescriptor)
	require.True(t, ok)
	class.TypeParameters()[0].UpperBounds()

	errs := m.Trace.Diagnostics().Errors()
	require.Len(t, errs, 1)
	// columns of quoted scalars start after the quote
	assert.Equal(t, "test.yaml:4:25: (E002) unresolved reference: Nope", m.Format(errs[0]))
}

func TestFailedExpectations(t *testing.T) {
	m := declare(t, `
queries:
  - subtype: [Int, String]
    holds: true
  - common: [Int, String]
    type: Int
  - intersect: [Int, String]
    type: Int
  - intersect: [Any, Int]
    type: empty
  - call: {name: listOf, args: [Int]}
    type: List<String>
    status: ambiguity
    errors: [TypeMismatch]
`)
	outcomes := m.Check()
	require.Len(t, outcomes, 5)
	for _, outcome := range outcomes {
		assert.False(t, outcome.Passed(), outcome.Question)
	}

	assert.Equal(t, "Int <: String", outcomes[0].Question)
	assert.Equal(t, "false", outcomes[0].Answer)
	assert.Equal(t, []string{"expected true"}, outcomes[0].Mismatches)

	assert.Equal(t, "empty", outcomes[2].Answer)
	assert.Equal(t, "Int", outcomes[3].Answer)
	assert.Equal(t, []string{"expected empty"}, outcomes[3].Mismatches)

	call := outcomes[4]
	assert.Len(t, call.Mismatches, 3)
	assert.Equal(t, "expected status ambiguity, got success", call.Mismatches[0])
	assert.Equal(t, "expected List<String>", call.Mismatches[1])
	assert.Equal(t, "expected errors [TypeMismatch], got []", call.Mismatches[2])
}

func TestQueriesOnlyEvaluatedWithoutExpectations(t *testing.T) {
	m := declare(t, `
queries:
  - common: [Int, Nothing]
  - call: {name: nope}
`)
	outcomes := m.Check()
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Passed())
	assert.Equal(t, "Int", outcomes[0].Answer)

	assert.True(t, outcomes[1].Passed())
	assert.Equal(t, "unresolved", outcomes[1].Answer)
	require.Len(t, outcomes[1].Diagnostics, 1)
	assert.Equal(t, "test.yaml:4:18: (E002) unresolved reference: nope", m.Format(outcomes[1].Diagnostics[0]))
	// committed to the module trace
	assert.Len(t, m.Trace.Diagnostics().Errors(), 1)
}

func TestSuccessfulCallsRenderTheChosenFunction(t *testing.T) {
	m := declare(t, `
functions:
  - name: id
    typeParams: [T]
    params: [{name: x, type: T}]
    returns: T
queries:
  - call: {name: id, args: [String]}
`)
	outcomes := m.Check()
	require.Len(t, outcomes, 1)
	assert.Equal(t, "fun id(x: String): String", outcomes[0].Answer)
}

func TestLocalFunctionsLiveInTheQueryScope(t *testing.T) {
	m := declare(t, `
functions:
  - name: f
  - name: g
    local: true
`)
	assert.Len(t, m.Root.LookupFunctions("f"), 1)
	assert.Empty(t, m.Root.LookupFunctions("g"))
	require.Len(t, m.Scope.LookupFunctions("g"), 1)
	assert.Equal(t, container{}, m.Scope.LookupFunctions("g")[0].Containing())
}

func TestConstructorsAreGenericInTheClassParameters(t *testing.T) {
	m := declare(t, `
classes:
  - name: Source
    params: [out T]
    constructors:
      - params: [{name: items, type: List<T>}]
`)
	class, ok := m.Root.LookupType("Source").(*types.ClassDescriptor)
	require.True(t, ok)
	require.Len(t, class.Constructors(), 1)
	constructor := class.Constructors()[0]
	require.Len(t, constructor.TypeParameters(), 1)
	assert.Equal(t, types.Invariant, constructor.TypeParameters()[0].Variance())
	assert.Equal(t, types.Out, class.TypeParameters()[0].Variance())
	assert.Equal(t, "Source<T>", types.Render(constructor.ReturnType()))
}
