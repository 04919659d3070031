package ilerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/jet/frontend/ast"
	"github.com/cottand/jet/frontend/types"
)

// enableDebugErrorPrinting makes errors include the frame that created them when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	Parse
	UnresolvedReference
	TypeMismatch
	WrongNumberOfTypeArguments
	NoValueForParameter
	TooManyArguments
	MixingNamedAndPositional
	NamedParameterNotFound
	ArgumentPassedTwice
	OverloadAmbiguity
	NoneApplicable
	VarianceViolation
	UpperBoundViolation
	TypeInferenceFailed
	ProjectionOnCallTypeArgument
	ReceiverMismatch
	NoReceiverAllowed
	MissingReceiver
	VarargOutsideParens
	ManyFunctionLiterals
)

var codeNames = [...]string{
	None:                         "None",
	Parse:                        "Parse",
	UnresolvedReference:          "UnresolvedReference",
	TypeMismatch:                 "TypeMismatch",
	WrongNumberOfTypeArguments:   "WrongNumberOfTypeArguments",
	NoValueForParameter:          "NoValueForParameter",
	TooManyArguments:             "TooManyArguments",
	MixingNamedAndPositional:     "MixingNamedAndPositional",
	NamedParameterNotFound:       "NamedParameterNotFound",
	ArgumentPassedTwice:          "ArgumentPassedTwice",
	OverloadAmbiguity:            "OverloadAmbiguity",
	NoneApplicable:               "NoneApplicable",
	VarianceViolation:            "VarianceViolation",
	UpperBoundViolation:          "UpperBoundViolation",
	TypeInferenceFailed:          "TypeInferenceFailed",
	ProjectionOnCallTypeArgument: "ProjectionOnCallTypeArgument",
	ReceiverMismatch:             "ReceiverMismatch",
	NoReceiverAllowed:            "NoReceiverAllowed",
	MissingReceiver:              "MissingReceiver",
	VarargOutsideParens:          "VarargOutsideParens",
	ManyFunctionLiterals:         "ManyFunctionLiterals",
}

func (c ErrCode) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return fmt.Sprintf("ErrCode(%d)", int(c))
	}
	return codeNames[c]
}

// CodeNamed is the inverse of ErrCode.String
func CodeNamed(name string) (ErrCode, bool) {
	for code, codeName := range codeNames {
		if codeName == name {
			return ErrCode(code), true
		}
	}
	return None, false
}

// IleError is a diagnostic attached to a source range
type IleError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) IleError
	getStack() []byte
}

func FormatWithCode(e IleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if lines := strings.Split(stack, "\n"); !enableDebugFullStacktrace && len(lines) > 6 {
			stack = lines[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewParse struct {
	ast.Positioner
	ParserMessage string
	Hint          string
	stack         []byte
}

func (e NewParse) Error() string {
	if e.Hint != "" {
		return e.ParserMessage + " (" + e.Hint + ")"
	}
	return e.ParserMessage
}
func (e NewParse) Code() ErrCode    { return Parse }
func (e NewParse) getStack() []byte { return e.stack }
func (e NewParse) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUnresolvedReference struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUnresolvedReference) Error() string {
	return fmt.Sprintf("unresolved reference: %s", e.Name)
}
func (e NewUnresolvedReference) Code() ErrCode    { return UnresolvedReference }
func (e NewUnresolvedReference) getStack() []byte { return e.stack }
func (e NewUnresolvedReference) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewTypeMismatch struct {
	ast.Positioner
	Expected types.Type
	Actual   types.Type
	stack    []byte
}

func (e NewTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: inferred type is %v but %v was expected", e.Actual, e.Expected)
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewWrongNumberOfTypeArguments struct {
	ast.Positioner
	Expected int
	Actual   int
	stack    []byte
}

func (e NewWrongNumberOfTypeArguments) Error() string {
	if e.Expected == 1 {
		return fmt.Sprintf("1 type argument expected, got %d", e.Actual)
	}
	return fmt.Sprintf("%d type arguments expected, got %d", e.Expected, e.Actual)
}
func (e NewWrongNumberOfTypeArguments) Code() ErrCode    { return WrongNumberOfTypeArguments }
func (e NewWrongNumberOfTypeArguments) getStack() []byte { return e.stack }
func (e NewWrongNumberOfTypeArguments) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNoValueForParameter struct {
	ast.Positioner
	Parameter string
	stack     []byte
}

func (e NewNoValueForParameter) Error() string {
	return fmt.Sprintf("no value passed for parameter %s", e.Parameter)
}
func (e NewNoValueForParameter) Code() ErrCode    { return NoValueForParameter }
func (e NewNoValueForParameter) getStack() []byte { return e.stack }
func (e NewNoValueForParameter) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewTooManyArguments struct {
	ast.Positioner
	Function string
	stack    []byte
}

func (e NewTooManyArguments) Error() string {
	return fmt.Sprintf("too many arguments for %s", e.Function)
}
func (e NewTooManyArguments) Code() ErrCode    { return TooManyArguments }
func (e NewTooManyArguments) getStack() []byte { return e.stack }
func (e NewTooManyArguments) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewMixingNamedAndPositional struct {
	ast.Positioner
	stack []byte
}

func (e NewMixingNamedAndPositional) Error() string {
	return "mixing named and positioned arguments is not allowed"
}
func (e NewMixingNamedAndPositional) Code() ErrCode    { return MixingNamedAndPositional }
func (e NewMixingNamedAndPositional) getStack() []byte { return e.stack }
func (e NewMixingNamedAndPositional) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNamedParameterNotFound struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewNamedParameterNotFound) Error() string {
	return fmt.Sprintf("cannot find a parameter with this name: %s", e.Name)
}
func (e NewNamedParameterNotFound) Code() ErrCode    { return NamedParameterNotFound }
func (e NewNamedParameterNotFound) getStack() []byte { return e.stack }
func (e NewNamedParameterNotFound) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewArgumentPassedTwice struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewArgumentPassedTwice) Error() string {
	return fmt.Sprintf("an argument is already passed for parameter %s", e.Name)
}
func (e NewArgumentPassedTwice) Code() ErrCode    { return ArgumentPassedTwice }
func (e NewArgumentPassedTwice) getStack() []byte { return e.stack }
func (e NewArgumentPassedTwice) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewOverloadAmbiguity struct {
	ast.Positioner
	Candidates []string
	stack      []byte
}

func (e NewOverloadAmbiguity) Error() string {
	return "overload resolution ambiguity: \n" + strings.Join(e.Candidates, "\n")
}
func (e NewOverloadAmbiguity) Code() ErrCode    { return OverloadAmbiguity }
func (e NewOverloadAmbiguity) getStack() []byte { return e.stack }
func (e NewOverloadAmbiguity) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNoneApplicable struct {
	ast.Positioner
	Candidates []string
	stack      []byte
}

func (e NewNoneApplicable) Error() string {
	return "none of the following functions can be called with the arguments supplied: \n" + strings.Join(e.Candidates, "\n")
}
func (e NewNoneApplicable) Code() ErrCode    { return NoneApplicable }
func (e NewNoneApplicable) getStack() []byte { return e.stack }
func (e NewNoneApplicable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewVarianceViolation struct {
	ast.Positioner
	Projection types.TypeProjection
	Usage      types.Variance
	stack      []byte
}

func (e NewVarianceViolation) Error() string {
	return fmt.Sprintf("'%v' cannot be used in %v position", e.Projection, e.Usage)
}
func (e NewVarianceViolation) Code() ErrCode    { return VarianceViolation }
func (e NewVarianceViolation) getStack() []byte { return e.stack }
func (e NewVarianceViolation) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUpperBoundViolation struct {
	ast.Positioner
	Argument types.Type
	Bound    types.Type
	stack    []byte
}

func (e NewUpperBoundViolation) Error() string {
	return fmt.Sprintf("type argument %v is not within its bound %v", e.Argument, e.Bound)
}
func (e NewUpperBoundViolation) Code() ErrCode    { return UpperBoundViolation }
func (e NewUpperBoundViolation) getStack() []byte { return e.stack }
func (e NewUpperBoundViolation) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewTypeInferenceFailed struct {
	ast.Positioner
	Function string
	Reasons  []string
	stack    []byte
}

func (e NewTypeInferenceFailed) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("type inference failed for %s", e.Function)
	}
	return fmt.Sprintf("type inference failed for %s: %s", e.Function, strings.Join(e.Reasons, "; "))
}
func (e NewTypeInferenceFailed) Code() ErrCode    { return TypeInferenceFailed }
func (e NewTypeInferenceFailed) getStack() []byte { return e.stack }
func (e NewTypeInferenceFailed) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewProjectionOnCallTypeArgument struct {
	ast.Positioner
	Projection string
	stack      []byte
}

func (e NewProjectionOnCallTypeArgument) Error() string {
	return fmt.Sprintf("projections are not allowed on type arguments of functions, found '%s'", e.Projection)
}
func (e NewProjectionOnCallTypeArgument) Code() ErrCode    { return ProjectionOnCallTypeArgument }
func (e NewProjectionOnCallTypeArgument) getStack() []byte { return e.stack }
func (e NewProjectionOnCallTypeArgument) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewReceiverMismatch struct {
	ast.Positioner
	Expected types.Type
	Actual   types.Type
	stack    []byte
}

func (e NewReceiverMismatch) Error() string {
	return fmt.Sprintf("receiver of type %v cannot be used where %v is expected", e.Actual, e.Expected)
}
func (e NewReceiverMismatch) Code() ErrCode    { return ReceiverMismatch }
func (e NewReceiverMismatch) getStack() []byte { return e.stack }
func (e NewReceiverMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNoReceiverAllowed struct {
	ast.Positioner
	Function string
	stack    []byte
}

func (e NewNoReceiverAllowed) Error() string {
	return fmt.Sprintf("no receiver can be passed to %s", e.Function)
}
func (e NewNoReceiverAllowed) Code() ErrCode    { return NoReceiverAllowed }
func (e NewNoReceiverAllowed) getStack() []byte { return e.stack }
func (e NewNoReceiverAllowed) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewMissingReceiver struct {
	ast.Positioner
	Expected types.Type
	stack    []byte
}

func (e NewMissingReceiver) Error() string {
	return fmt.Sprintf("a receiver of type %v is required", e.Expected)
}
func (e NewMissingReceiver) Code() ErrCode    { return MissingReceiver }
func (e NewMissingReceiver) getStack() []byte { return e.stack }
func (e NewMissingReceiver) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewVarargOutsideParens struct {
	ast.Positioner
	stack []byte
}

func (e NewVarargOutsideParens) Error() string {
	return "passing a value for a vararg parameter outside parentheses is not allowed"
}
func (e NewVarargOutsideParens) Code() ErrCode    { return VarargOutsideParens }
func (e NewVarargOutsideParens) getStack() []byte { return e.stack }
func (e NewVarargOutsideParens) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewManyFunctionLiterals struct {
	ast.Positioner
	stack []byte
}

func (e NewManyFunctionLiterals) Error() string {
	return "only one function literal is allowed outside parentheses"
}
func (e NewManyFunctionLiterals) Code() ErrCode    { return ManyFunctionLiterals }
func (e NewManyFunctionLiterals) getStack() []byte { return e.stack }
func (e NewManyFunctionLiterals) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
