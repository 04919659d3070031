package types

import (
	"slices"
)

// Scope answers name lookups. Absent names yield nil or an empty slice.
type Scope interface {
	LookupFunctions(name string) []*FunctionDescriptor
	LookupType(name string) Classifier
	LookupVariable(name string) *VariableDescriptor
	ContainingDeclaration() Declaration
}

var (
	_ Scope = EmptyScope{}
	_ Scope = &WritableScope{}
	_ Scope = &SubstitutingScope{}
	_ Scope = ChainedScope{}
)

type EmptyScope struct{}

func (EmptyScope) LookupFunctions(string) []*FunctionDescriptor { return nil }
func (EmptyScope) LookupType(string) Classifier                 { return nil }
func (EmptyScope) LookupVariable(string) *VariableDescriptor    { return nil }
func (EmptyScope) ContainingDeclaration() Declaration           { return nil }

// WritableScope holds declarations and falls back to its imports, then its parent.
// Functions are collected from all three, closest first; types and variables are
// taken from the closest scope declaring them.
type WritableScope struct {
	parent      Scope
	imports     []Scope
	containing  Declaration
	functions   map[string][]*FunctionDescriptor
	classifiers map[string]Classifier
	variables   map[string]*VariableDescriptor
}

func NewWritableScope(parent Scope, containing Declaration) *WritableScope {
	if parent == nil {
		parent = EmptyScope{}
	}
	return &WritableScope{
		parent:      parent,
		containing:  containing,
		functions:   make(map[string][]*FunctionDescriptor),
		classifiers: make(map[string]Classifier),
		variables:   make(map[string]*VariableDescriptor),
	}
}

func (s *WritableScope) AddFunction(f *FunctionDescriptor) {
	s.functions[f.Name()] = append(s.functions[f.Name()], f)
}

func (s *WritableScope) AddClassifier(c Classifier) {
	s.classifiers[c.Name()] = c
}

func (s *WritableScope) AddVariable(v *VariableDescriptor) {
	s.variables[v.Name()] = v
}

// Import makes the declarations of scope visible, after this scope's own
func (s *WritableScope) Import(scope Scope) {
	s.imports = append(s.imports, scope)
}

func (s *WritableScope) Parent() Scope { return s.parent }

// OwnFunctions returns only the functions declared directly in s
func (s *WritableScope) OwnFunctions(name string) []*FunctionDescriptor {
	return s.functions[name]
}

func (s *WritableScope) LookupFunctions(name string) []*FunctionDescriptor {
	result := slices.Clone(s.functions[name])
	for _, imported := range s.imports {
		result = appendNew(result, imported.LookupFunctions(name))
	}
	return appendNew(result, s.parent.LookupFunctions(name))
}

func appendNew(to []*FunctionDescriptor, from []*FunctionDescriptor) []*FunctionDescriptor {
	for _, f := range from {
		if !slices.Contains(to, f) {
			to = append(to, f)
		}
	}
	return to
}

func (s *WritableScope) LookupType(name string) Classifier {
	if c, ok := s.classifiers[name]; ok {
		return c
	}
	for _, imported := range s.imports {
		if c := imported.LookupType(name); c != nil {
			return c
		}
	}
	return s.parent.LookupType(name)
}

func (s *WritableScope) LookupVariable(name string) *VariableDescriptor {
	if v, ok := s.variables[name]; ok {
		return v
	}
	for _, imported := range s.imports {
		if v := imported.LookupVariable(name); v != nil {
			return v
		}
	}
	return s.parent.LookupVariable(name)
}

func (s *WritableScope) ContainingDeclaration() Declaration {
	return s.containing
}

// SubstitutingScope is a view of a scope in which every signature has a
// substitution applied, such as the members of List<Int> seen through those of
// List<T>. Substituted functions are cached per name.
type SubstitutingScope struct {
	inner       Scope
	substitutor *TypeSubstitutor
	cache       map[string][]*FunctionDescriptor
}

// NewSubstitutingScope returns inner itself when s is empty
func NewSubstitutingScope(inner Scope, s *TypeSubstitutor) Scope {
	if s.IsEmpty() {
		return inner
	}
	return &SubstitutingScope{inner: inner, substitutor: s, cache: make(map[string][]*FunctionDescriptor)}
}

func (s *SubstitutingScope) LookupFunctions(name string) []*FunctionDescriptor {
	if cached, ok := s.cache[name]; ok {
		return cached
	}
	functions := s.inner.LookupFunctions(name)
	result := make([]*FunctionDescriptor, len(functions))
	for i, f := range functions {
		result[i] = f.Substitute(s.substitutor)
	}
	s.cache[name] = result
	return result
}

func (s *SubstitutingScope) LookupType(name string) Classifier {
	return s.inner.LookupType(name)
}

func (s *SubstitutingScope) LookupVariable(name string) *VariableDescriptor {
	v := s.inner.LookupVariable(name)
	if v == nil {
		return nil
	}
	return NewVariableDescriptor(v.Name(), s.substitutor.Substitute(v.Type(), Out), v.Containing())
}

func (s *SubstitutingScope) ContainingDeclaration() Declaration {
	return s.inner.ContainingDeclaration()
}

// ChainedScope looks names up in each scope in turn
type ChainedScope []Scope

func (c ChainedScope) LookupFunctions(name string) []*FunctionDescriptor {
	var result []*FunctionDescriptor
	for _, scope := range c {
		result = appendNew(result, scope.LookupFunctions(name))
	}
	return result
}

func (c ChainedScope) LookupType(name string) Classifier {
	for _, scope := range c {
		if found := scope.LookupType(name); found != nil {
			return found
		}
	}
	return nil
}

func (c ChainedScope) LookupVariable(name string) *VariableDescriptor {
	for _, scope := range c {
		if found := scope.LookupVariable(name); found != nil {
			return found
		}
	}
	return nil
}

func (c ChainedScope) ContainingDeclaration() Declaration {
	if len(c) == 0 {
		return nil
	}
	return c[0].ContainingDeclaration()
}
