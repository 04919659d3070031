package types

import (
	"fmt"
	"sync"
)

// StandardClasses is the table of classes and functions every program can see.
// It is created once, on first use, and is read-only afterwards.
type StandardClasses struct {
	scope *WritableScope

	any, nothing, unit               *ClassDescriptor
	boolean, char, number            *ClassDescriptor
	byte, short, int, long           *ClassDescriptor
	float, double                    *ClassDescriptor
	charSequence, string             *ClassDescriptor
	comparable, iterable, collection *ClassDescriptor
	list, mutableList, array         *ClassDescriptor

	// tuples[0] is Unit
	tuples    []*ClassDescriptor
	functions []*ClassDescriptor
}

// MaxTupleArity and MaxFunctionArity bound the synthetic TupleN and FunctionN classes
const (
	MaxTupleArity    = 3
	MaxFunctionArity = 2
)

var (
	builtinsOnce sync.Once
	builtins     *StandardClasses
)

// Builtins returns the standard classes table
func Builtins() *StandardClasses {
	builtinsOnce.Do(func() {
		builtins = newStandardClasses()
	})
	return builtins
}

// newStandardClasses must not call Builtins, directly or by forcing a Lazy
func newStandardClasses() *StandardClasses {
	b := &StandardClasses{scope: NewWritableScope(EmptyScope{}, nil)}

	b.any = b.declare("Any", false)
	b.any.SetSupertypes(func() []Type { return nil })
	b.nothing = b.declare("Nothing", true)
	b.nothing.SetSupertypes(func() []Type { return nil })

	b.boolean = b.declare("Boolean", true)
	b.char = b.declare("Char", true)
	b.number = b.declare("Number", false)
	b.byte = b.declare("Byte", true)
	b.short = b.declare("Short", true)
	b.int = b.declare("Int", true)
	b.long = b.declare("Long", true)
	b.float = b.declare("Float", true)
	b.double = b.declare("Double", true)
	b.charSequence = b.declare("CharSequence", false)
	b.string = b.declare("String", true)
	b.comparable = b.declare("Comparable", false, NewTypeParameter("T", 0, In))
	b.iterable = b.declare("Iterable", false, NewTypeParameter("T", 0, Out))
	b.collection = b.declare("Collection", false, NewTypeParameter("T", 0, Out))
	b.list = b.declare("List", false, NewTypeParameter("T", 0, Out))
	b.mutableList = b.declare("MutableList", false, NewTypeParameter("T", 0, Invariant))
	b.array = b.declare("Array", true, NewTypeParameter("T", 0, Invariant))

	b.unit = b.declare("Unit", true)
	b.tuples = append(b.tuples, b.unit)
	for arity := 1; arity <= MaxTupleArity; arity++ {
		params := make([]*TypeParameter, arity)
		for i := range params {
			params[i] = NewTypeParameter(fmt.Sprintf("T%d", i+1), i, Out)
		}
		b.tuples = append(b.tuples, b.declare(fmt.Sprintf("Tuple%d", arity), true, params...))
	}
	for arity := 0; arity <= MaxFunctionArity; arity++ {
		params := make([]*TypeParameter, arity+1)
		for i := 0; i < arity; i++ {
			params[i] = NewTypeParameter(fmt.Sprintf("P%d", i+1), i, In)
		}
		params[arity] = NewTypeParameter("R", arity, Out)
		b.functions = append(b.functions, b.declare(fmt.Sprintf("Function%d", arity), false, params...))
	}

	b.declareSupertypes()
	b.declareMembers()
	b.declareFunctions()
	return b
}

func (b *StandardClasses) declare(name string, sealed bool, params ...*TypeParameter) *ClassDescriptor {
	c := NewClassDescriptor(name, params, sealed, nil)
	b.scope.AddClassifier(c)
	return c
}

func (b *StandardClasses) declareSupertypes() {
	anyOnly := func() []Type { return []Type{b.AnyType()} }
	for _, c := range []*ClassDescriptor{b.char, b.number, b.charSequence, b.comparable, b.iterable, b.array, b.unit} {
		c.SetSupertypes(anyOnly)
	}
	comparableToSelf := func(c *ClassDescriptor) func() []Type {
		return func() []Type {
			return []Type{NewInvariantType(b.comparable.TypeConstructor(), false, c.DefaultType())}
		}
	}
	b.boolean.SetSupertypes(comparableToSelf(b.boolean))
	for _, c := range []*ClassDescriptor{b.byte, b.short, b.int, b.long, b.float, b.double} {
		comparable := comparableToSelf(c)
		c.SetSupertypes(func() []Type { return append([]Type{b.number.DefaultType()}, comparable()...) })
	}
	b.string.SetSupertypes(func() []Type {
		return append(comparableToSelf(b.string)(), b.charSequence.DefaultType())
	})

	// each collection extends its parent applied to its own parameter
	extendsWithOwnParameter := func(c, parent *ClassDescriptor) {
		c.SetSupertypes(func() []Type {
			return []Type{NewInvariantType(parent.TypeConstructor(), false, c.TypeParameters()[0].DefaultType())}
		})
	}
	extendsWithOwnParameter(b.collection, b.iterable)
	extendsWithOwnParameter(b.list, b.collection)
	extendsWithOwnParameter(b.mutableList, b.list)

	for _, c := range b.tuples[1:] {
		c.SetSupertypes(anyOnly)
	}
	for _, c := range b.functions {
		c.SetSupertypes(anyOnly)
	}
}

func (b *StandardClasses) member(class *ClassDescriptor, name string, returnType Type, params ...*ValueParameterDescriptor) {
	f := NewFunctionDescriptor(name, class)
	if err := f.Initialize(nil, params, returnType, nil); err != nil {
		panic(err)
	}
	class.AddMember(f)
}

func (b *StandardClasses) declareMembers() {
	boolean := b.boolean.DefaultType()
	integer := b.int.DefaultType()
	str := b.string.DefaultType()
	nullableAny := MakeNullable(b.any.DefaultType())

	b.member(b.any, "equals", boolean, NewValueParameter("other", nullableAny, false, false))
	b.member(b.any, "hashCode", integer)
	b.member(b.any, "toString", str)

	b.member(b.boolean, "not", boolean)
	b.member(b.boolean, "and", boolean, NewValueParameter("other", boolean, false, false))
	b.member(b.boolean, "or", boolean, NewValueParameter("other", boolean, false, false))

	b.member(b.char, "toInt", integer)

	for _, conversion := range []*ClassDescriptor{b.int, b.long, b.double} {
		b.member(b.number, "to"+conversion.Name(), conversion.DefaultType())
	}
	for _, numeric := range []*ClassDescriptor{b.byte, b.short, b.int, b.long, b.float, b.double} {
		self := numeric.DefaultType()
		for _, op := range []string{"plus", "minus", "times"} {
			b.member(numeric, op, self, NewValueParameter("other", self, false, false))
		}
	}
	// Int widens when combined with wider operands
	for _, wider := range []*ClassDescriptor{b.long, b.double} {
		b.member(b.int, "plus", wider.DefaultType(), NewValueParameter("other", wider.DefaultType(), false, false))
	}

	b.member(b.charSequence, "length", integer)
	b.member(b.charSequence, "get", b.char.DefaultType(), NewValueParameter("index", integer, false, false))
	b.member(b.string, "plus", str, NewValueParameter("other", nullableAny, false, false))

	b.member(b.comparable, "compareTo", integer, NewValueParameter("other", b.comparable.TypeParameters()[0].DefaultType(), false, false))

	b.member(b.collection, "size", integer)
	b.member(b.collection, "isEmpty", boolean)
	listElement := b.list.TypeParameters()[0].DefaultType()
	b.member(b.list, "get", listElement, NewValueParameter("index", integer, false, false))
	mutableElement := b.mutableList.TypeParameters()[0].DefaultType()
	b.member(b.mutableList, "add", boolean, NewValueParameter("element", mutableElement, false, false))
	b.member(b.mutableList, "set", mutableElement, NewValueParameter("index", integer, false, false), NewValueParameter("element", mutableElement, false, false))

	arrayElement := b.array.TypeParameters()[0].DefaultType()
	b.member(b.array, "size", integer)
	b.member(b.array, "get", arrayElement, NewValueParameter("index", integer, false, false))
	b.member(b.array, "set", b.unit.DefaultType(), NewValueParameter("index", integer, false, false), NewValueParameter("value", arrayElement, false, false))

	for _, function := range b.functions {
		params := function.TypeParameters()
		arity := len(params) - 1
		values := make([]*ValueParameterDescriptor, arity)
		for i := 0; i < arity; i++ {
			values[i] = NewValueParameter(fmt.Sprintf("p%d", i+1), params[i].DefaultType(), false, false)
		}
		b.member(function, "invoke", params[arity].DefaultType(), values...)
	}
}

// declareFunctions adds the top-level library functions
func (b *StandardClasses) declareFunctions() {
	generic := func(name string, returns func(t Type) Type, params func(t Type) []*ValueParameterDescriptor) {
		t := NewTypeParameter("T", 0, Invariant)
		f := NewFunctionDescriptor(name, nil)
		if err := f.Initialize([]*TypeParameter{t}, params(t.DefaultType()), returns(t.DefaultType()), nil); err != nil {
			panic(err)
		}
		b.scope.AddFunction(f)
	}
	varargOf := func(t Type) []*ValueParameterDescriptor {
		return []*ValueParameterDescriptor{NewValueParameter("elements", t, false, true)}
	}
	none := func(Type) []*ValueParameterDescriptor { return nil }
	generic("arrayOf", func(t Type) Type { return NewInvariantType(b.array.TypeConstructor(), false, t) }, varargOf)
	generic("listOf", func(t Type) Type { return NewInvariantType(b.list.TypeConstructor(), false, t) }, varargOf)
	generic("emptyList", func(t Type) Type { return NewInvariantType(b.list.TypeConstructor(), false, t) }, none)
	generic("mutableListOf", func(t Type) Type { return NewInvariantType(b.mutableList.TypeConstructor(), false, t) }, varargOf)

	printLine := NewFunctionDescriptor("println", nil)
	if err := printLine.Initialize(nil, []*ValueParameterDescriptor{NewValueParameter("message", MakeNullable(b.any.DefaultType()), true, false)}, b.unit.DefaultType(), nil); err != nil {
		panic(err)
	}
	b.scope.AddFunction(printLine)
}

// Scope is the root scope declaring every standard class and function
func (b *StandardClasses) Scope() Scope { return b.scope }

// Class looks a standard class up by name
func (b *StandardClasses) Class(name string) *ClassDescriptor {
	c, _ := b.scope.LookupType(name).(*ClassDescriptor)
	return c
}

func (b *StandardClasses) Any() *ClassDescriptor         { return b.any }
func (b *StandardClasses) Nothing() *ClassDescriptor     { return b.nothing }
func (b *StandardClasses) Unit() *ClassDescriptor        { return b.unit }
func (b *StandardClasses) Comparable() *ClassDescriptor  { return b.comparable }
func (b *StandardClasses) List() *ClassDescriptor        { return b.list }
func (b *StandardClasses) MutableList() *ClassDescriptor { return b.mutableList }
func (b *StandardClasses) Array() *ClassDescriptor       { return b.array }

func (b *StandardClasses) AnyType() Type             { return b.any.DefaultType() }
func (b *StandardClasses) NullableAnyType() Type     { return MakeNullable(b.any.DefaultType()) }
func (b *StandardClasses) NothingType() Type         { return b.nothing.DefaultType() }
func (b *StandardClasses) NullableNothingType() Type { return MakeNullable(b.nothing.DefaultType()) }
func (b *StandardClasses) UnitType() Type            { return b.unit.DefaultType() }
func (b *StandardClasses) BooleanType() Type         { return b.boolean.DefaultType() }
func (b *StandardClasses) CharType() Type            { return b.char.DefaultType() }
func (b *StandardClasses) NumberType() Type          { return b.number.DefaultType() }
func (b *StandardClasses) ByteType() Type            { return b.byte.DefaultType() }
func (b *StandardClasses) ShortType() Type           { return b.short.DefaultType() }
func (b *StandardClasses) IntType() Type             { return b.int.DefaultType() }
func (b *StandardClasses) LongType() Type            { return b.long.DefaultType() }
func (b *StandardClasses) FloatType() Type           { return b.float.DefaultType() }
func (b *StandardClasses) DoubleType() Type          { return b.double.DefaultType() }
func (b *StandardClasses) StringType() Type          { return b.string.DefaultType() }

func (b *StandardClasses) ListType(element Type) Type {
	return NewInvariantType(b.list.TypeConstructor(), false, element)
}

func (b *StandardClasses) ArrayType(element Type) Type {
	return NewInvariantType(b.array.TypeConstructor(), false, element)
}

// TupleType returns `#(a, b)`, or Unit for no elements
func (b *StandardClasses) TupleType(elements ...Type) Type {
	if len(elements) > MaxTupleArity {
		return NewErrorType(fmt.Sprintf("tuples have at most %d elements", MaxTupleArity))
	}
	return NewInvariantType(b.tuples[len(elements)].TypeConstructor(), false, elements...)
}

// FunctionType returns the type of functions taking parameters and returning result
func (b *StandardClasses) FunctionType(parameters []Type, result Type) Type {
	if len(parameters) > MaxFunctionArity {
		return NewErrorType(fmt.Sprintf("functions have at most %d parameters", MaxFunctionArity))
	}
	return NewInvariantType(b.functions[len(parameters)].TypeConstructor(), false, append(parameters[:len(parameters):len(parameters)], result)...)
}

func (b *StandardClasses) IsTupleConstructor(c *TypeConstructor) bool {
	for _, tuple := range b.tuples {
		if tuple.TypeConstructor() == c {
			return true
		}
	}
	return false
}

func (b *StandardClasses) IsNothing(t Type) bool {
	t = Unwrap(t)
	return !t.IsError() && t.Constructor() == b.nothing.TypeConstructor()
}

func (b *StandardClasses) IsAny(t Type) bool {
	t = Unwrap(t)
	return !t.IsError() && t.Constructor() == b.any.TypeConstructor()
}

func (b *StandardClasses) IsUnit(t Type) bool {
	t = Unwrap(t)
	return !t.IsError() && t.Constructor() == b.unit.TypeConstructor()
}
