package types

import (
	"github.com/pkg/errors"
)

// ErrReentrant is returned when a Lazy is read while its own computation is running,
// which happens for cyclic declarations such as `class A : B` where B needs A to resolve
var ErrReentrant = errors.New("value is being computed: reentrant lazy access")

type LazyState uint8

const (
	NotComputed LazyState = iota
	BeingComputed
	Computed
	Failed
)

func (s LazyState) String() string {
	switch s {
	case BeingComputed:
		return "being computed"
	case Computed:
		return "computed"
	case Failed:
		return "failed"
	default:
		return "not computed"
	}
}

// Lazy is a value computed at most once, on first access.
//
// Once Computed or Failed, a Lazy never changes state again. A Lazy that is accessed
// while it is BeingComputed fails with ErrReentrant, and so does the outer access
// that started the computation.
//
// Lazy is not safe for concurrent use
type Lazy[T any] struct {
	name    string
	state   LazyState
	compute func() T
	value   T
	err     error
}

// NewLazy creates a Lazy whose value is produced by compute.
// name is only used for error messages.
func NewLazy[T any](name string, compute func() T) *Lazy[T] {
	return &Lazy[T]{name: name, compute: compute}
}

// LazyOf returns an already Computed Lazy
func LazyOf[T any](value T) *Lazy[T] {
	return &Lazy[T]{state: Computed, value: value}
}

func (l *Lazy[T]) Get() (T, error) {
	var zero T
	switch l.state {
	case Computed:
		return l.value, nil
	case Failed:
		return zero, l.err
	case BeingComputed:
		l.state = Failed
		l.err = errors.Wrapf(ErrReentrant, "computing %s", l.name)
		return zero, l.err
	}

	l.state = BeingComputed
	value := l.compute()
	l.compute = nil
	if l.state == Failed {
		return zero, l.err
	}
	l.value = value
	l.state = Computed
	return value, nil
}

func (l *Lazy[T]) State() LazyState {
	return l.state
}

func (l *Lazy[T]) IsComputed() bool {
	return l.state == Computed
}
