// Package trace records what resolution learns about the program: which function
// each call site resolved to, the type of each expression, and diagnostics.
//
// Speculative work, like trying one overload candidate, writes to a Temporary
// trace that is either committed to its parent in one step or dropped.
package trace

import (
	"github.com/benbjohnson/immutable"
	"github.com/cottand/jet/frontend/ast"
	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/types"
	"github.com/cottand/jet/internal/log"
)

var logger = log.Section("trace")

// Sink receives diagnostics
type Sink interface {
	Report(err ilerr.IleError)
}

// Discard is a Sink that drops everything
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(ilerr.IleError) {}

type Trace interface {
	Sink
	RecordResolvedCallee(site ast.Range, callee *types.FunctionDescriptor)
	RecordExpressionType(site ast.Range, t types.Type)
	ResolvedCallee(site ast.Range) (*types.FunctionDescriptor, bool)
	ExpressionType(site ast.Range) (types.Type, bool)
	// Diagnostics returns what was reported to this trace, in order
	Diagnostics() *ilerr.Errors
}

var (
	_ Trace = &BindingTrace{}
	_ Trace = &Temporary{}
)

type rangeHasher struct{}

func (rangeHasher) Hash(key ast.Range) uint32 {
	h := key.Hash()
	return uint32(h ^ (h >> 32))
}

func (rangeHasher) Equal(a, b ast.Range) bool {
	return a == b
}

// BindingTrace is the root trace of a resolution session
type BindingTrace struct {
	callees *immutable.Map[ast.Range, *types.FunctionDescriptor]
	exprs   *immutable.Map[ast.Range, types.Type]
	errs    *ilerr.Errors
}

func NewBindingTrace() *BindingTrace {
	return &BindingTrace{
		callees: immutable.NewMap[ast.Range, *types.FunctionDescriptor](rangeHasher{}),
		exprs:   immutable.NewMap[ast.Range, types.Type](rangeHasher{}),
	}
}

func (b *BindingTrace) Report(err ilerr.IleError) {
	logger.Debug("reported", "error", ilerr.FormatWithCode(err), "at", ast.RangeOf(err))
	b.errs = b.errs.With(err)
}

func (b *BindingTrace) RecordResolvedCallee(site ast.Range, callee *types.FunctionDescriptor) {
	b.callees = b.callees.Set(site, callee)
}

func (b *BindingTrace) RecordExpressionType(site ast.Range, t types.Type) {
	b.exprs = b.exprs.Set(site, t)
}

func (b *BindingTrace) ResolvedCallee(site ast.Range) (*types.FunctionDescriptor, bool) {
	return b.callees.Get(site)
}

func (b *BindingTrace) ExpressionType(site ast.Range) (types.Type, bool) {
	return b.exprs.Get(site)
}

func (b *BindingTrace) Diagnostics() *ilerr.Errors {
	return b.errs
}
