package types

import (
	"log/slog"
	"sync/atomic"
)

// ConstructorID identifies a TypeConstructor for its whole lifetime.
// IDs are allocated in creation order so they also give a stable sort key.
type ConstructorID uint64

var nextConstructorID atomic.Uint64

type ConstructorKind uint8

const (
	ClassKind ConstructorKind = iota
	TypeParameterKind
	IntersectionKind
	ErrorKind
)

// TypeConstructor is the nominal head of a type: a class, a type parameter, or a
// synthetic intersection. Types refer to their constructor by pointer, and
// constructors are compared by identity.
//
// Supertypes are declared lazily because resolving them may need other classes which
// are not yet declared.
type TypeConstructor struct {
	id          ConstructorID
	name        string
	kind        ConstructorKind
	sealed      bool
	parameters  []*TypeParameter
	supertypes  *Lazy[[]Type]
	declaration Classifier
}

// NewTypeConstructor creates a constructor. supertypes may be nil for a
// constructor without supertypes (like Any or Nothing).
func NewTypeConstructor(name string, kind ConstructorKind, parameters []*TypeParameter, sealed bool, supertypes func() []Type) *TypeConstructor {
	if supertypes == nil {
		supertypes = func() []Type { return nil }
	}
	return &TypeConstructor{
		id:         ConstructorID(nextConstructorID.Add(1)),
		name:       name,
		kind:       kind,
		sealed:     sealed,
		parameters: parameters,
		supertypes: NewLazy("supertypes of "+name, supertypes),
	}
}

func (c *TypeConstructor) ID() ConstructorID             { return c.id }
func (c *TypeConstructor) Name() string                  { return c.name }
func (c *TypeConstructor) Kind() ConstructorKind         { return c.kind }
func (c *TypeConstructor) Parameters() []*TypeParameter { return c.parameters }
func (c *TypeConstructor) Declaration() Classifier       { return c.declaration }

// Sealed constructors admit no subtypes other than Nothing
func (c *TypeConstructor) Sealed() bool { return c.sealed }

// Supertypes returns the declared immediate supertypes, in terms of this
// constructor's own parameters. A cyclic declaration yields no supertypes.
func (c *TypeConstructor) Supertypes() []Type {
	supertypes, err := c.supertypes.Get()
	if err != nil {
		logger.Warn("cyclic supertypes", "constructor", c.name, "error", err)
		return nil
	}
	return supertypes
}

func (c *TypeConstructor) String() string {
	return c.name
}

func (c *TypeConstructor) LogValue() slog.Value {
	return slog.GroupValue(slog.String("name", c.name), slog.Uint64("id", uint64(c.id)))
}
