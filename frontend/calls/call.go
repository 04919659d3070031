// Package calls resolves a call site to one of the functions it may refer to:
// it maps arguments to parameters, infers or checks type arguments, and picks
// the most specific of the applicable candidates.
package calls

import (
	"fmt"
	"strings"

	"github.com/cottand/jet/frontend/ast"
	"github.com/cottand/jet/frontend/typeref"
	"github.com/cottand/jet/frontend/types"
)

// Argument is a value passed to a call. Its Type is computed by the caller
// beforehand and is nil when it could not be determined.
type Argument struct {
	ast.Range
	// Name is empty for positional arguments
	Name string
	Type types.Type
}

func (a Argument) IsNamed() bool { return a.Name != "" }

func (a Argument) String() string {
	typ := "?"
	if a.Type != nil {
		typ = a.Type.String()
	}
	if a.IsNamed() {
		return a.Name + " = " + typ
	}
	return typ
}

// Call is everything resolution needs to know about a call site
type Call struct {
	// Site covers the whole call expression. The type of the call is recorded on it.
	Site ast.Range
	// Callee covers the name being called. The resolved function is recorded on it.
	Callee ast.Range
	Name   string

	// Receiver is the type of the expression before the dot, nil for calls without one
	Receiver types.Type

	TypeArguments []typeref.Projection
	// TypeArgumentsRange covers the type argument list, when there is one
	TypeArgumentsRange *ast.Range

	Arguments []Argument
	// ArgumentsRange covers the parenthesised arguments, when there are any
	ArgumentsRange *ast.Range
	// FunctionLiterals are passed after the parentheses
	FunctionLiterals []Argument

	// Expected is the type the context expects of the call, or nil
	Expected types.Type
}

func (c *Call) typeArgumentsSite() ast.Range {
	if c.TypeArgumentsRange != nil {
		return *c.TypeArgumentsRange
	}
	return c.Site
}

func (c *Call) argumentsSite() ast.Range {
	if c.ArgumentsRange != nil {
		return *c.ArgumentsRange
	}
	return c.Site
}

func (c *Call) String() string {
	sb := strings.Builder{}
	if c.Receiver != nil {
		sb.WriteString(c.Receiver.String())
		sb.WriteString(".")
	}
	sb.WriteString(c.Name)
	if len(c.TypeArguments) > 0 {
		args := make([]string, len(c.TypeArguments))
		for i, arg := range c.TypeArguments {
			args[i] = arg.String()
		}
		sb.WriteString("<" + strings.Join(args, ", ") + ">")
	}
	args := make([]string, len(c.Arguments))
	for i, arg := range c.Arguments {
		args[i] = arg.String()
	}
	sb.WriteString("(" + strings.Join(args, ", ") + ")")
	for _, literal := range c.FunctionLiterals {
		sb.WriteString(" {" + literal.String() + "}")
	}
	return sb.String()
}

type Status uint8

const (
	Success Status = iota
	// Ambiguity means several candidates apply and none is more specific than all others
	Ambiguity
	// NoneApplicable means several candidates were tried and all failed
	NoneApplicable
	// SingleCandidateFailed means the only candidate failed; its errors were reported
	SingleCandidateFailed
	// Unresolved means no function with that name was found
	Unresolved
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Ambiguity:
		return "ambiguity"
	case NoneApplicable:
		return "none applicable"
	case SingleCandidateFailed:
		return "single candidate failed"
	case Unresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// Result is the outcome of resolving a call
type Result struct {
	Status Status
	// Descriptor is the chosen function with its type arguments substituted. It
	// is also set when the only candidate failed.
	Descriptor *types.FunctionDescriptor
	// Candidates are the functions that were tied, or that all failed
	Candidates []*types.FunctionDescriptor
}

func (r Result) IsSuccess() bool { return r.Status == Success }

// ReturnType is the type of the call, or an error type when it did not resolve
func (r Result) ReturnType() types.Type {
	if r.Descriptor == nil || r.Status != Success {
		return types.NewErrorType("unresolved call")
	}
	return r.Descriptor.ReturnType()
}
