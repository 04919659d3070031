package types

// DeferredType is a type whose computation is postponed until it is first
// inspected, such as the inferred type of a declaration without annotation.
// If computing it requires itself, it becomes an error type.
type DeferredType struct {
	lazy *Lazy[Type]
}

var _ Type = &DeferredType{}

func NewDeferredType(name string, compute func() Type) *DeferredType {
	return &DeferredType{lazy: NewLazy(name, compute)}
}

func (d *DeferredType) isType() {}

// Delegate forces the computation
func (d *DeferredType) Delegate() Type {
	t, err := d.lazy.Get()
	if err != nil {
		return NewErrorType(err.Error())
	}
	if t == nil {
		return NewErrorType("deferred type computed to nothing")
	}
	return t
}

func (d *DeferredType) IsComputing() bool { return d.lazy.State() == BeingComputed }
func (d *DeferredType) IsComputed() bool  { return d.lazy.IsComputed() }

func (d *DeferredType) Constructor() *TypeConstructor { return d.Delegate().Constructor() }
func (d *DeferredType) Arguments() []TypeProjection  { return d.Delegate().Arguments() }
func (d *DeferredType) IsNullable() bool             { return d.Delegate().IsNullable() }
func (d *DeferredType) Annotations() []Annotation    { return d.Delegate().Annotations() }
func (d *DeferredType) MemberScope() Scope           { return d.Delegate().MemberScope() }
func (d *DeferredType) IsError() bool                { return d.Delegate().IsError() }
func (d *DeferredType) Hash() uint64                 { return d.Delegate().Hash() }

// String does not force the computation when called while it is running, so that
// debug output never turns a valid computation into a reentrant one
func (d *DeferredType) String() string {
	if d.lazy.State() == BeingComputed {
		return "<computing>"
	}
	return d.Delegate().String()
}
