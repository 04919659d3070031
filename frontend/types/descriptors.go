package types

import (
	"github.com/pkg/errors"
)

// Declaration is anything that can be declared and looked up in a Scope
type Declaration interface {
	Name() string
	Containing() Declaration
}

// Classifier is a declaration that can be referred to as a type
type Classifier interface {
	Declaration
	TypeConstructor() *TypeConstructor
	DefaultType() Type
}

var (
	_ Classifier = &ClassDescriptor{}
	_ Classifier = &TypeParameter{}
)

// ClassDescriptor declares a class: its constructor, its members and its
// constructor functions, which are named after the class
type ClassDescriptor struct {
	name         string
	constructor  *TypeConstructor
	supertypes   func() []Type
	members      *WritableScope
	constructors []*FunctionDescriptor
	containing   Declaration
}

// NewClassDescriptor declares a class. A class without supertypes set through
// SetSupertypes extends Any. A sealed class cannot be subclassed.
func NewClassDescriptor(name string, typeParameters []*TypeParameter, sealed bool, containing Declaration) *ClassDescriptor {
	c := &ClassDescriptor{
		name:       name,
		containing: containing,
	}
	c.constructor = NewTypeConstructor(name, ClassKind, typeParameters, sealed, func() []Type {
		if c.supertypes == nil {
			return []Type{Builtins().AnyType()}
		}
		return c.supertypes()
	})
	c.constructor.declaration = c
	c.members = NewWritableScope(EmptyScope{}, c)
	for _, p := range typeParameters {
		p.setContaining(c)
	}
	return c
}

// SetSupertypes declares the supertypes, computed on first use
func (c *ClassDescriptor) SetSupertypes(supertypes func() []Type) {
	c.supertypes = supertypes
}

func (c *ClassDescriptor) Name() string                      { return c.name }
func (c *ClassDescriptor) Containing() Declaration           { return c.containing }
func (c *ClassDescriptor) TypeConstructor() *TypeConstructor { return c.constructor }
func (c *ClassDescriptor) TypeParameters() []*TypeParameter  { return c.constructor.Parameters() }
func (c *ClassDescriptor) MemberScope() *WritableScope       { return c.members }
func (c *ClassDescriptor) Constructors() []*FunctionDescriptor {
	return c.constructors
}

// DefaultType is the class applied to its own parameters, `C<T1, T2>`
func (c *ClassDescriptor) DefaultType() Type {
	params := c.constructor.Parameters()
	args := make([]Type, len(params))
	for i, p := range params {
		args[i] = p.DefaultType()
	}
	return NewInvariantType(c.constructor, false, args...)
}

// AddMember declares a member function, looked up through the member scope of
// types of this class
func (c *ClassDescriptor) AddMember(f *FunctionDescriptor) {
	f.containing = c
	c.members.AddFunction(f)
}

// AddConstructor declares a constructor function, whose return type should be the
// DefaultType of c
func (c *ClassDescriptor) AddConstructor(f *FunctionDescriptor) {
	f.containing = c
	c.constructors = append(c.constructors, f)
}

func (c *ClassDescriptor) String() string {
	return "class " + Render(c.DefaultType())
}

// FunctionDescriptor is the signature of a function: a member, a top-level or
// local function, an extension, or a class constructor
type FunctionDescriptor struct {
	name            string
	typeParameters  []*TypeParameter
	valueParameters []*ValueParameterDescriptor
	returnType      Type
	receiverType    Type
	containing      Declaration
	original        *FunctionDescriptor
	overridden      []*FunctionDescriptor
}

func NewFunctionDescriptor(name string, containing Declaration) *FunctionDescriptor {
	return &FunctionDescriptor{name: name, containing: containing}
}

// Initialize completes the signature. receiverType is nil for functions that are
// not extensions. Only the last value parameter may be a vararg.
func (f *FunctionDescriptor) Initialize(typeParameters []*TypeParameter, valueParameters []*ValueParameterDescriptor, returnType Type, receiverType Type) error {
	for i, p := range valueParameters {
		if p.IsVararg() && i != len(valueParameters)-1 {
			return errors.Errorf("function %s: vararg parameter %s must be the last one", f.name, p.Name())
		}
		p.index = i
		p.function = f
	}
	for _, p := range typeParameters {
		p.setContaining(f)
	}
	if returnType == nil {
		returnType = Builtins().UnitType()
	}
	f.typeParameters = typeParameters
	f.valueParameters = valueParameters
	f.returnType = returnType
	f.receiverType = receiverType
	return nil
}

func (f *FunctionDescriptor) Name() string                                 { return f.name }
func (f *FunctionDescriptor) Containing() Declaration                      { return f.containing }
func (f *FunctionDescriptor) TypeParameters() []*TypeParameter             { return f.typeParameters }
func (f *FunctionDescriptor) ValueParameters() []*ValueParameterDescriptor { return f.valueParameters }
func (f *FunctionDescriptor) ReturnType() Type                             { return f.returnType }

// ReceiverType is nil unless f is an extension
func (f *FunctionDescriptor) ReceiverType() Type { return f.receiverType }

// Original is the declaration this descriptor was substituted from, or f itself
func (f *FunctionDescriptor) Original() *FunctionDescriptor {
	if f.original == nil {
		return f
	}
	return f.original
}

func (f *FunctionDescriptor) Overridden() []*FunctionDescriptor { return f.overridden }

func (f *FunctionDescriptor) AddOverridden(overridden *FunctionDescriptor) {
	f.overridden = append(f.overridden, overridden)
}

// HasVararg reports whether the last value parameter is a vararg
func (f *FunctionDescriptor) HasVararg() bool {
	n := len(f.valueParameters)
	return n > 0 && f.valueParameters[n-1].IsVararg()
}

// Substitute returns a copy of f with s applied to every type in its signature.
// Type parameters bound by s are removed from the copy; the others are kept.
// Value parameter types are substituted in in-position and the return type in
// out-position.
func (f *FunctionDescriptor) Substitute(s *TypeSubstitutor) *FunctionDescriptor {
	if s.IsEmpty() {
		return f
	}
	result := &FunctionDescriptor{
		name:       f.name,
		containing: f.containing,
		original:   f.Original(),
		overridden: f.overridden,
	}
	for _, p := range f.typeParameters {
		if _, bound := s.Get(p.TypeConstructor()); !bound {
			result.typeParameters = append(result.typeParameters, p)
		}
	}
	for _, p := range f.valueParameters {
		substituted := *p
		substituted.typ = s.Substitute(p.typ, In)
		substituted.original = p.Original()
		substituted.function = result
		result.valueParameters = append(result.valueParameters, &substituted)
	}
	result.returnType = s.Substitute(f.returnType, Out)
	if f.receiverType != nil {
		result.receiverType = s.Substitute(f.receiverType, In)
	}
	return result
}

func (f *FunctionDescriptor) String() string {
	return RenderFunction(f)
}

// ValueParameterDescriptor is a parameter of a function. For a vararg, Type is the
// type of each element.
type ValueParameterDescriptor struct {
	name       string
	index      int
	typ        Type
	hasDefault bool
	vararg     bool
	function   *FunctionDescriptor
	original   *ValueParameterDescriptor
}

func NewValueParameter(name string, typ Type, hasDefault bool, vararg bool) *ValueParameterDescriptor {
	return &ValueParameterDescriptor{name: name, typ: typ, hasDefault: hasDefault, vararg: vararg}
}

func (p *ValueParameterDescriptor) Name() string     { return p.name }
func (p *ValueParameterDescriptor) Index() int       { return p.index }
func (p *ValueParameterDescriptor) Type() Type       { return p.typ }
func (p *ValueParameterDescriptor) HasDefault() bool { return p.hasDefault }
func (p *ValueParameterDescriptor) IsVararg() bool   { return p.vararg }

func (p *ValueParameterDescriptor) Containing() Declaration {
	if p.function == nil {
		return nil
	}
	return p.function
}

// Original is the parameter this one was substituted from, or p itself
func (p *ValueParameterDescriptor) Original() *ValueParameterDescriptor {
	if p.original == nil {
		return p
	}
	return p.original
}

// VariableDescriptor is a local or top-level value
type VariableDescriptor struct {
	name       string
	typ        Type
	containing Declaration
}

func NewVariableDescriptor(name string, typ Type, containing Declaration) *VariableDescriptor {
	return &VariableDescriptor{name: name, typ: typ, containing: containing}
}

func (v *VariableDescriptor) Name() string            { return v.name }
func (v *VariableDescriptor) Type() Type              { return v.typ }
func (v *VariableDescriptor) Containing() Declaration { return v.containing }
