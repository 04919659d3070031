package declfile

import (
	"fmt"
	"go/token"
	"log/slog"
	"strings"

	"github.com/cottand/jet/frontend/ast"
	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/trace"
	"github.com/cottand/jet/frontend/typeref"
	"github.com/cottand/jet/frontend/types"
	"github.com/cottand/jet/internal/log"
	"github.com/pkg/errors"
)

// Module is what a File declares. Queries run in Scope, whose parent declares
// everything that is not local.
type Module struct {
	file *File
	// Root holds the classes, functions and variables of the file on top of the
	// builtins
	Root *types.WritableScope
	// Scope is nested in Root and holds local functions
	Scope *types.WritableScope
	// Trace receives what declaring and querying reports
	Trace *trace.BindingTrace

	fset    *token.FileSet
	anchors map[int]Text
	logger  *slog.Logger
}

// container is the declaration local functions belong to
type container struct{}

func (container) Name() string                  { return "<queries>" }
func (container) Containing() types.Declaration { return nil }

// Declare builds the scopes of f. Types are resolved in order, except that
// supertypes and bounds are resolved when first needed, so they may refer to
// classes declared later. Unresolved names are reported to the module trace;
// malformed declarations are returned as errors.
func Declare(f *File) (*Module, error) {
	root := types.NewWritableScope(types.Builtins().Scope(), nil)
	m := &Module{
		file:    f,
		Root:    root,
		Scope:   types.NewWritableScope(root, container{}),
		Trace:   trace.NewBindingTrace(),
		fset:    token.NewFileSet(),
		anchors: make(map[int]Text),
		logger:  log.Section("declfile"),
	}

	classes := make([]*types.ClassDescriptor, len(f.Classes))
	for i, c := range f.Classes {
		class, err := m.declareClass(c)
		if err != nil {
			return nil, err
		}
		classes[i] = class
	}
	for i, c := range f.Classes {
		if err := m.declareClassBody(classes[i], c); err != nil {
			return nil, err
		}
	}
	for _, fn := range f.Functions {
		scope, containing := m.Root, types.Declaration(nil)
		if fn.Local {
			scope, containing = m.Scope, container{}
		}
		descriptor, err := m.declareFunction(scope, fn, containing)
		if err != nil {
			return nil, err
		}
		scope.AddFunction(descriptor)
	}
	for _, v := range f.Variables {
		if v.Name.IsEmpty() {
			return nil, errors.Errorf("%s:%d: variable without a name", f.Name, v.Type.Line)
		}
		m.Root.AddVariable(types.NewVariableDescriptor(v.Name.Value, m.resolve(m.Root, v.Type), nil))
	}
	m.logger.Debug("declared", "file", f.Name, "classes", len(f.Classes), "functions", len(f.Functions))
	return m, nil
}

// base registers text with the file set, returning the position of its
// first character
func (m *Module) base(text Text) token.Pos {
	file := m.fset.AddFile(m.file.Name, -1, len(text.Value)+1)
	m.anchors[file.Base()] = text
	return token.Pos(file.Base())
}

// Position translates a position in some declared text back to the file
func (m *Module) Position(pos token.Pos) token.Position {
	file := m.fset.File(pos)
	if file == nil {
		return token.Position{Filename: m.file.Name}
	}
	text := m.anchors[file.Base()]
	return token.Position{
		Filename: m.file.Name,
		Line:     text.Line,
		Column:   text.Column + file.Offset(pos),
	}
}

// Format renders err with its position in the file
func (m *Module) Format(err ilerr.IleError) string {
	pos := m.Position(err.Pos())
	if pos.Line == 0 {
		return fmt.Sprintf("%s: %s", pos.Filename, ilerr.FormatWithCode(err))
	}
	return fmt.Sprintf("%s:%d:%d: %s", pos.Filename, pos.Line, pos.Column, ilerr.FormatWithCode(err))
}

func (m *Module) resolve(scope types.Scope, text Text) types.Type {
	return m.resolveAt(m.Trace, scope, text, text.Value, 0)
}

// resolveAt resolves part, which starts at offset within text
func (m *Module) resolveAt(sink trace.Sink, scope types.Scope, text Text, part string, offset int) types.Type {
	base := m.base(text) + token.Pos(offset)
	ref, err := typeref.Parse(part, base)
	if err != nil {
		if ileErr, ok := err.(ilerr.IleError); ok {
			sink.Report(ileErr)
		} else {
			sink.Report(ilerr.New(ilerr.Unclassified{From: err, Positioner: ast.Range{PosStart: base, PosEnd: base}}))
		}
		return types.NewErrorType(err.Error())
	}
	return typeref.Resolve(scope, ref, sink)
}

// typeParameter is a parsed `[in|out] Name [: Bound & ...]`
type typeParameter struct {
	param  *types.TypeParameter
	text   Text
	bounds []string
	// offsets of each bound within text
	offsets []int
}

func parseTypeParameter(text Text, index int, allowVariance bool) (typeParameter, error) {
	head, boundsText, bounded := strings.Cut(text.Value, ":")
	fields := strings.Fields(head)
	variance := types.Invariant
	if len(fields) == 2 && allowVariance {
		switch fields[0] {
		case "in":
			variance = types.In
		case "out":
			variance = types.Out
		default:
			return typeParameter{}, errors.Errorf("line %d: unknown variance %q", text.Line, fields[0])
		}
		fields = fields[1:]
	}
	if len(fields) != 1 {
		return typeParameter{}, errors.Errorf("line %d: malformed type parameter %q", text.Line, text.Value)
	}
	p := typeParameter{param: types.NewTypeParameter(fields[0], index, variance), text: text}
	if !bounded {
		return p, nil
	}
	offset := len(head) + 1
	for _, bound := range strings.Split(boundsText, "&") {
		trimmed := strings.TrimSpace(bound)
		if trimmed == "" {
			return typeParameter{}, errors.Errorf("line %d: empty bound in %q", text.Line, text.Value)
		}
		p.bounds = append(p.bounds, trimmed)
		p.offsets = append(p.offsets, offset+strings.Index(bound, trimmed))
		offset += len(bound) + 1
	}
	return p, nil
}

// bind makes the parameters visible in scope and declares their bounds, which
// are resolved in scope once needed
func (m *Module) bind(scope *types.WritableScope, params []typeParameter) {
	for _, p := range params {
		scope.AddClassifier(p.param)
	}
	for _, p := range params {
		if len(p.bounds) == 0 {
			continue
		}
		p.param.SetUpperBounds(func() []types.Type {
			bounds := make([]types.Type, len(p.bounds))
			for i, bound := range p.bounds {
				bounds[i] = m.resolveAt(m.Trace, scope, p.text, bound, p.offsets[i])
			}
			return bounds
		})
	}
}

func (m *Module) parseTypeParameters(texts []Text, allowVariance bool) ([]typeParameter, error) {
	params := make([]typeParameter, len(texts))
	for i, text := range texts {
		p, err := parseTypeParameter(text, i, allowVariance)
		if err != nil {
			return nil, errors.Wrap(err, m.file.Name)
		}
		params[i] = p
	}
	return params, nil
}

func descriptors(params []typeParameter) []*types.TypeParameter {
	result := make([]*types.TypeParameter, len(params))
	for i, p := range params {
		result[i] = p.param
	}
	return result
}

// declareClass adds the class to the root scope. Its body is declared once
// every class is visible.
func (m *Module) declareClass(c Class) (*types.ClassDescriptor, error) {
	if c.Name.IsEmpty() {
		return nil, errors.Errorf("%s: class without a name", m.file.Name)
	}
	params, err := m.parseTypeParameters(c.Params, true)
	if err != nil {
		return nil, err
	}
	class := types.NewClassDescriptor(c.Name.Value, descriptors(params), c.Sealed, nil)
	inner := types.NewWritableScope(m.Root, class)
	m.bind(inner, params)
	if len(c.Supertypes) > 0 {
		class.SetSupertypes(func() []types.Type {
			supertypes := make([]types.Type, len(c.Supertypes))
			for i, text := range c.Supertypes {
				supertypes[i] = m.resolve(inner, text)
			}
			return supertypes
		})
	}
	m.Root.AddClassifier(class)
	return class, nil
}

func (m *Module) declareClassBody(class *types.ClassDescriptor, c Class) error {
	inner := types.NewWritableScope(m.Root, class)
	for _, p := range class.TypeParameters() {
		inner.AddClassifier(p)
	}
	for _, member := range c.Members {
		if member.Local {
			return errors.Errorf("%s:%d: members cannot be local", m.file.Name, member.Name.Line)
		}
		f, err := m.declareFunction(inner, member, class)
		if err != nil {
			return err
		}
		class.AddMember(f)
	}
	for _, constructor := range c.Constructors {
		f, err := m.declareConstructor(class, c, constructor)
		if err != nil {
			return err
		}
		class.AddConstructor(f)
	}
	return nil
}

// declareConstructor declares a function named after the class, generic in
// copies of the class parameters, which returns the class applied to them
func (m *Module) declareConstructor(class *types.ClassDescriptor, c Class, constructor Constructor) (*types.FunctionDescriptor, error) {
	params, err := m.parseTypeParameters(c.Params, true)
	if err != nil {
		return nil, err
	}
	// a constructor's parameters are invariant whatever the class declares
	for i, p := range params {
		params[i].param = types.NewTypeParameter(p.param.Name(), i, types.Invariant)
	}
	scope := types.NewWritableScope(m.Root, class)
	m.bind(scope, params)

	args := make([]types.Type, len(params))
	for i, p := range params {
		args[i] = p.param.DefaultType()
	}
	values, err := m.valueParameters(scope, constructor.Params)
	if err != nil {
		return nil, err
	}
	f := types.NewFunctionDescriptor(class.Name(), class)
	returns := types.NewInvariantType(class.TypeConstructor(), false, args...)
	if err := f.Initialize(descriptors(params), values, returns, nil); err != nil {
		return nil, errors.Wrap(err, m.file.Name)
	}
	return f, nil
}

func (m *Module) declareFunction(outer *types.WritableScope, fn Function, containing types.Declaration) (*types.FunctionDescriptor, error) {
	if fn.Name.IsEmpty() {
		return nil, errors.Errorf("%s: function without a name", m.file.Name)
	}
	params, err := m.parseTypeParameters(fn.TypeParams, false)
	if err != nil {
		return nil, err
	}
	scope := types.NewWritableScope(outer, containing)
	m.bind(scope, params)

	values, err := m.valueParameters(scope, fn.Params)
	if err != nil {
		return nil, err
	}
	var receiver, returns types.Type
	if !fn.Receiver.IsEmpty() {
		receiver = m.resolve(scope, fn.Receiver)
	}
	if !fn.Returns.IsEmpty() {
		returns = m.resolve(scope, fn.Returns)
	}
	f := types.NewFunctionDescriptor(fn.Name.Value, containing)
	if err := f.Initialize(descriptors(params), values, returns, receiver); err != nil {
		return nil, errors.Wrapf(err, "%s:%d", m.file.Name, fn.Name.Line)
	}
	return f, nil
}

func (m *Module) valueParameters(scope types.Scope, params []Parameter) ([]*types.ValueParameterDescriptor, error) {
	values := make([]*types.ValueParameterDescriptor, len(params))
	for i, p := range params {
		if p.Name.IsEmpty() || p.Type.IsEmpty() {
			return nil, errors.Errorf("%s:%d: parameters need a name and a type", m.file.Name, p.Name.Line)
		}
		values[i] = types.NewValueParameter(p.Name.Value, m.resolve(scope, p.Type), p.Default, p.Vararg)
	}
	return values, nil
}
