package types

import (
	"strings"
)

// Render writes t the way it would be written in source, which is also the
// syntax accepted by the typeref package
func Render(t Type) string {
	sb := &strings.Builder{}
	renderType(sb, t)
	return sb.String()
}

func renderType(sb *strings.Builder, t Type) {
	if deferred, ok := t.(*DeferredType); ok && deferred.IsComputing() {
		sb.WriteString(deferred.String())
		return
	}
	t = Unwrap(t)
	if t.IsError() {
		sb.WriteString(t.String())
		return
	}
	constructor := t.Constructor()
	switch {
	case constructor.Kind() == IntersectionKind:
		sb.WriteString("{")
		for i, component := range constructor.Supertypes() {
			if i > 0 {
				sb.WriteString(" & ")
			}
			renderType(sb, component)
		}
		sb.WriteString("}")
	case Builtins().IsTupleConstructor(constructor) && len(t.Arguments()) > 0:
		sb.WriteString("#(")
		for i, arg := range t.Arguments() {
			if i > 0 {
				sb.WriteString(", ")
			}
			renderProjection(sb, arg)
		}
		sb.WriteString(")")
	default:
		sb.WriteString(constructor.Name())
		if args := t.Arguments(); len(args) > 0 {
			sb.WriteString("<")
			for i, arg := range args {
				if i > 0 {
					sb.WriteString(", ")
				}
				renderProjection(sb, arg)
			}
			sb.WriteString(">")
		}
	}
	if t.IsNullable() {
		sb.WriteString("?")
	}
}

func renderProjection(sb *strings.Builder, p TypeProjection) {
	if p.IsStar() {
		sb.WriteString("*")
		return
	}
	if p.Kind != Invariant {
		sb.WriteString(p.Kind.Label())
		sb.WriteString(" ")
	}
	renderType(sb, p.Type)
}

// RenderFunction renders the signature of f, as in `fun <T> Int.foo(x: T, vararg y: Int = ...): T`
func RenderFunction(f *FunctionDescriptor) string {
	sb := &strings.Builder{}
	sb.WriteString("fun ")
	if params := f.TypeParameters(); len(params) > 0 {
		sb.WriteString("<")
		for i, p := range params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
			if p.HasDeclaredBounds() {
				sb.WriteString(" : ")
				for j, bound := range p.UpperBounds() {
					if j > 0 {
						sb.WriteString(" & ")
					}
					renderType(sb, bound)
				}
			}
		}
		sb.WriteString("> ")
	}
	if receiver := f.ReceiverType(); receiver != nil {
		renderType(sb, receiver)
		sb.WriteString(".")
	}
	sb.WriteString(f.Name())
	sb.WriteString("(")
	for i, p := range f.ValueParameters() {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.IsVararg() {
			sb.WriteString("vararg ")
		}
		sb.WriteString(p.Name())
		sb.WriteString(": ")
		renderType(sb, p.Type())
		if p.HasDefault() {
			sb.WriteString(" = ...")
		}
	}
	sb.WriteString("): ")
	renderType(sb, f.ReturnType())
	return sb.String()
}
