package trace

import (
	"log/slog"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/jet/frontend/ast"
	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/types"
	"github.com/google/uuid"
)

type factKind uint8

const (
	calleeFact factKind = iota
	exprTypeFact
	diagnosticFact
)

type fact struct {
	kind   factKind
	site   ast.Range
	callee *types.FunctionDescriptor
	typ    types.Type
	err    ilerr.IleError
}

// Temporary stages facts on top of a parent Trace. Reads see the staged facts
// first. Nothing reaches the parent until Commit.
//
// Names are not unique (every overload of f is staged as "candidate f"), so each
// Temporary also gets an ID. Its log records carry the ID and the ID of its
// parent, if the parent is staged too.
type Temporary struct {
	id     uuid.UUID
	name   string
	parent Trace
	facts  *immutable.List[fact]
	logger *slog.Logger
}

func NewTemporary(parent Trace, name string) *Temporary {
	t := &Temporary{
		id:     uuid.New(),
		name:   name,
		parent: parent,
		facts:  immutable.NewList[fact](),
	}
	t.logger = logger.With("trace", name, "id", t.id)
	if staged, ok := parent.(*Temporary); ok {
		t.logger = t.logger.With("parent", staged.id)
	}
	t.logger.Debug("staged")
	return t
}

func (t *Temporary) ID() uuid.UUID { return t.id }

func (t *Temporary) Report(err ilerr.IleError) {
	t.logger.Debug("staged diagnostic", "error", ilerr.FormatWithCode(err))
	t.facts = t.facts.Append(fact{kind: diagnosticFact, site: ast.RangeOf(err), err: err})
}

func (t *Temporary) RecordResolvedCallee(site ast.Range, callee *types.FunctionDescriptor) {
	t.facts = t.facts.Append(fact{kind: calleeFact, site: site, callee: callee})
}

func (t *Temporary) RecordExpressionType(site ast.Range, typ types.Type) {
	t.facts = t.facts.Append(fact{kind: exprTypeFact, site: site, typ: typ})
}

func (t *Temporary) ResolvedCallee(site ast.Range) (*types.FunctionDescriptor, bool) {
	for i := t.facts.Len() - 1; i >= 0; i-- {
		if f := t.facts.Get(i); f.kind == calleeFact && f.site == site {
			return f.callee, true
		}
	}
	return t.parent.ResolvedCallee(site)
}

func (t *Temporary) ExpressionType(site ast.Range) (types.Type, bool) {
	for i := t.facts.Len() - 1; i >= 0; i-- {
		if f := t.facts.Get(i); f.kind == exprTypeFact && f.site == site {
			return f.typ, true
		}
	}
	return t.parent.ExpressionType(site)
}

// Diagnostics returns only the diagnostics staged in t
func (t *Temporary) Diagnostics() *ilerr.Errors {
	var errs *ilerr.Errors
	itr := t.facts.Iterator()
	for !itr.Done() {
		_, f := itr.Next()
		if f.kind == diagnosticFact {
			errs = errs.With(f.err)
		}
	}
	return errs
}

// Commit replays every staged fact into the parent, in the order they were
// recorded, and empties t
func (t *Temporary) Commit() {
	t.logger.Debug("commit", "facts", t.facts.Len())
	itr := t.facts.Iterator()
	for !itr.Done() {
		_, f := itr.Next()
		switch f.kind {
		case calleeFact:
			t.parent.RecordResolvedCallee(f.site, f.callee)
		case exprTypeFact:
			t.parent.RecordExpressionType(f.site, f.typ)
		case diagnosticFact:
			t.parent.Report(f.err)
		}
	}
	t.facts = immutable.NewList[fact]()
}
