package declfile

import (
	"fmt"
	"go/token"
	"slices"
	"strings"

	"github.com/cottand/jet/frontend/ast"
	"github.com/cottand/jet/frontend/calls"
	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/trace"
	"github.com/cottand/jet/frontend/typeref"
	"github.com/cottand/jet/frontend/types"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// emptyIntersection is how an expected empty intersection is written
const emptyIntersection = "empty"

// Outcome is the answer to a Query, compared to what it expected
type Outcome struct {
	Query *Query
	// Question renders the query, like `Int <: Any?`
	Question string
	// Answer renders the result, like `true` or `List<Int>`
	Answer string
	// Mismatches lists every expectation that was not met; it is empty when
	// the query passed
	Mismatches []string
	// Diagnostics are what evaluating the query reported
	Diagnostics []ilerr.IleError
}

func (o Outcome) Passed() bool { return len(o.Mismatches) == 0 }

// Check evaluates every query of the module's file in order. Each query
// reports to its own trace, which is committed to the module trace.
func (m *Module) Check() []Outcome {
	resolver := calls.NewResolver().WithLogger(m.logger)
	outcomes := make([]Outcome, 0, len(m.file.Queries))
	for i := range m.file.Queries {
		q := &m.file.Queries[i]
		staged := trace.NewTemporary(m.Trace, fmt.Sprintf("query at line %d", q.Line()))
		var outcome Outcome
		switch {
		case q.Subtype != nil:
			outcome = m.checkSubtype(staged, q)
		case q.Common != nil:
			outcome = m.checkCommon(staged, q)
		case q.Intersect != nil:
			outcome = m.checkIntersect(staged, q)
		case q.Call != nil:
			outcome = m.checkCall(resolver, staged, q)
		}
		outcome.Query = q
		outcome.Diagnostics = staged.Diagnostics().Errors()
		staged.Commit()
		m.logger.Debug("checked", "line", q.Line(), "question", outcome.Question, "answer", outcome.Answer, "passed", outcome.Passed())
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (m *Module) resolveAll(t trace.Trace, texts []Text) []types.Type {
	return lo.Map(texts, func(text Text, _ int) types.Type {
		return m.resolveIn(t, m.Scope, text)
	})
}

// resolveIn is resolve with diagnostics going to sink rather than the module trace
func (m *Module) resolveIn(sink trace.Sink, scope types.Scope, text Text) types.Type {
	return m.resolveAt(sink, scope, text, text.Value, 0)
}

func (m *Module) checkSubtype(t trace.Trace, q *Query) Outcome {
	resolved := m.resolveAll(t, q.Subtype)
	holds := types.IsSubtypeOf(resolved[0], resolved[1])
	outcome := Outcome{
		Question: fmt.Sprintf("%s <: %s", q.Subtype[0].Value, q.Subtype[1].Value),
		Answer:   fmt.Sprint(holds),
	}
	if q.Holds != nil && *q.Holds != holds {
		outcome.Mismatches = append(outcome.Mismatches, fmt.Sprintf("expected %v", *q.Holds))
	}
	return outcome
}

func (m *Module) checkCommon(t trace.Trace, q *Query) Outcome {
	result := types.CommonSupertype(m.resolveAll(t, q.Common))
	outcome := Outcome{
		Question: "common supertype of " + joinTexts(q.Common),
		Answer:   types.Render(result),
	}
	m.expectType(t, q, result, &outcome)
	return outcome
}

func (m *Module) checkIntersect(t trace.Trace, q *Query) Outcome {
	result, ok := types.Intersect(m.resolveAll(t, q.Intersect))
	outcome := Outcome{Question: "intersection of " + joinTexts(q.Intersect)}
	if !ok {
		outcome.Answer = emptyIntersection
		if !q.Type.IsEmpty() && q.Type.Value != emptyIntersection {
			outcome.Mismatches = append(outcome.Mismatches, "expected "+q.Type.Value)
		}
		return outcome
	}
	outcome.Answer = types.Render(result)
	if q.Type.Value == emptyIntersection {
		outcome.Mismatches = append(outcome.Mismatches, "expected "+emptyIntersection)
		return outcome
	}
	m.expectType(t, q, result, &outcome)
	return outcome
}

// expectType compares actual with the type the query expects, if any.
// Intersection types cannot be written, so they are compared rendered.
func (m *Module) expectType(t trace.Trace, q *Query, actual types.Type, outcome *Outcome) {
	if q.Type.IsEmpty() {
		return
	}
	if strings.HasPrefix(q.Type.Value, "{") {
		if types.Render(actual) != q.Type.Value {
			outcome.Mismatches = append(outcome.Mismatches, "expected "+q.Type.Value)
		}
		return
	}
	expected := m.resolveIn(t, m.Scope, q.Type)
	if !types.Equal(expected, actual) {
		outcome.Mismatches = append(outcome.Mismatches, "expected "+q.Type.Value)
	}
}

func (m *Module) checkCall(resolver *calls.Resolver, t trace.Trace, q *Query) Outcome {
	call, err := m.buildCall(t, q.Call)
	outcome := Outcome{Question: call.String()}
	if err != nil {
		outcome.Answer = "invalid call"
		outcome.Mismatches = append(outcome.Mismatches, err.Error())
		return outcome
	}

	// diagnostics of the call itself, not of the types written in the query
	before := len(t.Diagnostics().Errors())
	result := resolver.ResolveCall(m.Scope, t, call)
	reported := t.Diagnostics().Errors()[before:]

	outcome.Answer = result.Status.String()
	if result.IsSuccess() {
		outcome.Answer = types.RenderFunction(result.Descriptor)
	}
	if q.Status != "" && q.Status != result.Status.String() {
		outcome.Mismatches = append(outcome.Mismatches, fmt.Sprintf("expected status %s, got %s", q.Status, result.Status))
	}
	if !q.Type.IsEmpty() {
		m.expectType(t, q, result.ReturnType(), &outcome)
	}
	if q.Errors != nil {
		got := lo.Map(reported, func(e ilerr.IleError, _ int) string { return e.Code().String() })
		if !slices.Equal(got, q.Errors) {
			outcome.Mismatches = append(outcome.Mismatches, fmt.Sprintf("expected errors %v, got %v", q.Errors, got))
		}
	}
	return outcome
}

// buildCall turns the query into a calls.Call whose sites point into the file
func (m *Module) buildCall(t trace.Trace, q *CallQuery) (*calls.Call, error) {
	site := m.textRange(q.Name)
	call := &calls.Call{Site: site, Callee: site, Name: q.Name.Value}
	if q.Name.IsEmpty() {
		return call, errors.Errorf("line %d: a call needs a name", q.Name.Line)
	}
	if !q.Receiver.IsEmpty() {
		call.Receiver = m.resolveIn(t, m.Scope, q.Receiver)
	}
	if !q.TypeArgs.IsEmpty() {
		base := m.base(q.TypeArgs)
		args, err := typeref.ParseArguments(q.TypeArgs.Value, base)
		if err != nil {
			return call, errors.Wrap(err, "type arguments")
		}
		call.TypeArguments = args
		call.TypeArgumentsRange = &ast.Range{PosStart: base, PosEnd: base + token.Pos(len(q.TypeArgs.Value))}
	}
	for _, text := range q.Args {
		call.Arguments = append(call.Arguments, m.argument(t, text))
	}
	for _, text := range q.Lambdas {
		call.FunctionLiterals = append(call.FunctionLiterals, calls.Argument{
			Range: m.textRange(text),
			Type:  m.resolveIn(t, m.Scope, text),
		})
	}
	if !q.Expected.IsEmpty() {
		call.Expected = m.resolveIn(t, m.Scope, q.Expected)
	}
	return call, nil
}

// argument parses `[name = ]value`
func (m *Module) argument(t trace.Trace, text Text) calls.Argument {
	arg := calls.Argument{Range: m.textRange(text)}
	value := text
	if name, rest, named := strings.Cut(text.Value, "="); named {
		arg.Name = strings.TrimSpace(name)
		trimmed := strings.TrimSpace(rest)
		value = Text{Value: trimmed, Line: text.Line, Column: text.Column + len(name) + 1 + strings.Index(rest, trimmed)}
	}
	switch variable := m.Scope.LookupVariable(value.Value); {
	case value.Value == "?":
	case variable != nil:
		arg.Type = variable.Type()
	default:
		arg.Type = m.resolveIn(t, m.Scope, value)
	}
	return arg
}

func (m *Module) textRange(text Text) ast.Range {
	base := m.base(text)
	return ast.Range{PosStart: base, PosEnd: base + token.Pos(len(text.Value))}
}

func joinTexts(texts []Text) string {
	return strings.Join(lo.Map(texts, func(t Text, _ int) string { return t.Value }), ", ")
}
