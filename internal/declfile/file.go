// Package declfile reads YAML documents that declare classes, functions and
// variables, and that ask questions about them: whether a type is a subtype of
// another, what the common supertype of some types is, or what a call resolves
// to. It drives the command line and the tests.
//
// Types are written in the syntax of the typeref package. Strings starting with
// `#` or `*`, or containing `: `, need quoting in YAML.
//
//	classes:
//	  - name: Box
//	    params: ["out T : Comparable<T>"]
//	    supertypes: ["Comparable<Box<T>>"]
//	    constructors:
//	      - params: [{name: value, type: T}]
//	functions:
//	  - name: first
//	    typeParams: [T]
//	    receiver: List<T>
//	    returns: T
//	queries:
//	  - subtype: [Box<Int>, "Comparable<Box<Int>>"]
//	    holds: true
//	  - call: {receiver: List<String>, name: first}
//	    type: String
package declfile

import (
	"io/fs"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is a parsed declaration file. Nothing is resolved until Declare.
type File struct {
	// Name is used in positions
	Name      string     `yaml:"-"`
	Classes   []Class    `yaml:"classes"`
	Functions []Function `yaml:"functions"`
	Variables []Variable `yaml:"variables"`
	Queries   []Query    `yaml:"queries"`
}

// Text is a scalar together with where it appears in the file
type Text struct {
	Value  string
	Line   int
	Column int
}

func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: expected a string", node.Line)
	}
	t.Value, t.Line, t.Column = node.Value, node.Line, node.Column
	if node.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		t.Column++
	}
	return nil
}

func (t Text) IsEmpty() bool { return t.Value == "" }

func (t Text) String() string { return t.Value }

type Class struct {
	Name Text `yaml:"name"`
	// Params are written `[in|out] Name [: Bound & Bound...]`
	Params       []Text        `yaml:"params"`
	Supertypes   []Text        `yaml:"supertypes"`
	Sealed       bool          `yaml:"sealed"`
	Members      []Function    `yaml:"members"`
	Constructors []Constructor `yaml:"constructors"`
}

type Constructor struct {
	Params []Parameter `yaml:"params"`
}

type Function struct {
	Name Text `yaml:"name"`
	// TypeParams are written like class params, without variance
	TypeParams []Text      `yaml:"typeParams"`
	Receiver   Text        `yaml:"receiver"`
	Params     []Parameter `yaml:"params"`
	Returns    Text        `yaml:"returns"`
	// Local functions are declared in the scope queries run in, rather than
	// the file scope, so that they take priority
	Local bool `yaml:"local"`
}

type Parameter struct {
	Name    Text `yaml:"name"`
	Type    Text `yaml:"type"`
	Vararg  bool `yaml:"vararg"`
	Default bool `yaml:"default"`
}

type Variable struct {
	Name Text `yaml:"name"`
	Type Text `yaml:"type"`
}

// Query is one question about the declarations. Exactly one of Subtype,
// Common, Intersect and Call is set. The remaining fields are expectations,
// and a query without any is only evaluated.
type Query struct {
	Subtype   []Text     `yaml:"subtype"`
	Common    []Text     `yaml:"common"`
	Intersect []Text     `yaml:"intersect"`
	Call      *CallQuery `yaml:"call"`

	// Holds is the expected answer of a subtype query
	Holds *bool `yaml:"holds"`
	// Type is the expected resulting type. For an intersection it may be
	// `empty`.
	Type Text `yaml:"type"`
	// Status is the expected status of a call, as printed by calls.Status
	Status string `yaml:"status"`
	// Errors are the codes of the diagnostics a call is expected to report,
	// in order
	Errors []string `yaml:"errors"`

	line int
}

func (q *Query) UnmarshalYAML(node *yaml.Node) error {
	type plain Query
	if err := node.Decode((*plain)(q)); err != nil {
		return err
	}
	q.line = node.Line
	set := 0
	for _, present := range []bool{q.Subtype != nil, q.Common != nil, q.Intersect != nil, q.Call != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return errors.Errorf("line %d: a query needs exactly one of subtype, common, intersect or call", node.Line)
	}
	if q.Subtype != nil && len(q.Subtype) != 2 {
		return errors.Errorf("line %d: subtype takes two types", node.Line)
	}
	return nil
}

// Line is where the query starts in the file
func (q *Query) Line() int { return q.line }

type CallQuery struct {
	Receiver Text `yaml:"receiver"`
	Name     Text `yaml:"name"`
	// TypeArgs is the text between the angle brackets, like `Int, out String`
	TypeArgs Text `yaml:"typeArgs"`
	// Args are written `[name = ]Value`, where Value is a type, a declared
	// variable, or `?` for an argument whose type is unknown
	Args []Text `yaml:"args"`
	// Lambdas are the types of the function literals passed after the parentheses
	Lambdas  []Text `yaml:"lambdas"`
	Expected Text   `yaml:"expected"`
}

// Parse reads a declaration file; name is only used in positions
func Parse(data []byte, name string) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", name)
	}
	f.Name = name
	return f, nil
}

// Load reads and parses the file at path in fsys
func Load(fsys fs.FS, path string) (*File, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Parse(data, path)
}
