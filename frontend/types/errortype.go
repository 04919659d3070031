package types

import (
	"hash/fnv"
)

var errorConstructor = NewTypeConstructor("[ERROR]", ErrorKind, nil, false, nil)

// ErrorType stands for a type that could not be determined. It is compatible with
// every type in both directions so that one mistake produces one diagnostic.
type ErrorType struct {
	message    string
	projection *TypeProjection
	usage      Variance
}

var _ Type = &ErrorType{}

func NewErrorType(message string) *ErrorType {
	return &ErrorType{message: message}
}

// NewVarianceViolation is the error type produced when projection is substituted
// into a position used with an incompatible variance
func NewVarianceViolation(usage Variance, projection TypeProjection) *ErrorType {
	return &ErrorType{
		message:    "'" + projection.String() + "' is not allowed in " + usage.String() + " position",
		projection: &projection,
		usage:      usage,
	}
}

func (e *ErrorType) isType() {}

func (e *ErrorType) Constructor() *TypeConstructor { return errorConstructor }
func (e *ErrorType) Arguments() []TypeProjection  { return nil }
func (e *ErrorType) IsNullable() bool             { return false }
func (e *ErrorType) Annotations() []Annotation    { return nil }
func (e *ErrorType) MemberScope() Scope           { return EmptyScope{} }
func (e *ErrorType) IsError() bool                { return true }
func (e *ErrorType) Message() string              { return e.message }

// OffendingProjection is the projection that caused a variance violation, and the
// usage of the position it was substituted into, if that is what e stands for
func (e *ErrorType) OffendingProjection() (TypeProjection, Variance, bool) {
	if e.projection == nil {
		return TypeProjection{}, Invariant, false
	}
	return *e.projection, e.usage, true
}

func (e *ErrorType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("[ERROR]" + e.message))
	return h.Sum64()
}

func (e *ErrorType) String() string {
	return "[ERROR : " + e.message + "]"
}
