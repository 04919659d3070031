// Package typeref parses and resolves textual type references such as
// `Map<in K, out List<V>?>`, `#(Int, String)` or `Comparable<*>`.
//
// Grammar:
//
//	type := ( name [ '<' proj { ',' proj } '>' ] | '#(' [ type { ',' type } ] ')' ) [ '?' ]
//	proj := '*' | [ 'in' | 'out' ] type
package typeref

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cottand/jet/frontend/ast"
	"github.com/cottand/jet/frontend/ilerr"
	"github.com/cottand/jet/frontend/types"
	"github.com/smasher164/xid"
)

// Reference is a parsed type. Exactly one of Name and Tuple is set.
type Reference struct {
	ast.Range
	Name      string
	Tuple     bool
	Arguments []Projection
	Elements  []*Reference
	Nullable  bool
}

// Projection is a parsed type argument. Type is nil for a star.
type Projection struct {
	ast.Range
	Kind types.Variance
	Star bool
	Type *Reference
}

func (r *Reference) String() string {
	sb := &strings.Builder{}
	if r.Tuple {
		sb.WriteString("#(")
		for i, elem := range r.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(elem.String())
		}
		sb.WriteString(")")
	} else {
		sb.WriteString(r.Name)
		if len(r.Arguments) > 0 {
			sb.WriteString("<")
			for i, arg := range r.Arguments {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(arg.String())
			}
			sb.WriteString(">")
		}
	}
	if r.Nullable {
		sb.WriteString("?")
	}
	return sb.String()
}

func (p Projection) String() string {
	if p.Star {
		return "*"
	}
	if p.Kind == types.Invariant {
		return p.Type.String()
	}
	return p.Kind.Label() + " " + p.Type.String()
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLess
	tokGreater
	tokComma
	tokQuestion
	tokStar
	tokHash
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokIdent:
		return "identifier"
	case tokLess:
		return "'<'"
	case tokGreater:
		return "'>'"
	case tokComma:
		return "','"
	case tokQuestion:
		return "'?'"
	case tokStar:
		return "'*'"
	case tokHash:
		return "'#'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "end of input"
	}
}

type tok struct {
	kind       tokenKind
	text       string
	start, end int
}

var punctuation = map[rune]tokenKind{
	'<': tokLess,
	'>': tokGreater,
	',': tokComma,
	'?': tokQuestion,
	'*': tokStar,
	'#': tokHash,
	'(': tokLParen,
	')': tokRParen,
}

func isIdentStart(ch rune) bool {
	return ch == '_' || xid.Start(ch)
}

type parser struct {
	base   token.Pos
	tokens []tok
	i      int
}

func scan(text string, base token.Pos) ([]tok, error) {
	var tokens []tok
	for offset := 0; offset < len(text); {
		ch, size := utf8.DecodeRuneInString(text[offset:])
		switch {
		case unicode.IsSpace(ch):
			offset += size
		case isIdentStart(ch):
			start := offset
			offset += size
			for offset < len(text) {
				next, nextSize := utf8.DecodeRuneInString(text[offset:])
				if !xid.Continue(next) {
					break
				}
				offset += nextSize
			}
			tokens = append(tokens, tok{kind: tokIdent, text: text[start:offset], start: start, end: offset})
		default:
			kind, ok := punctuation[ch]
			if !ok {
				return nil, ilerr.New(ilerr.NewParse{
					Positioner:    ast.Range{PosStart: base + token.Pos(offset), PosEnd: base + token.Pos(offset+size)},
					ParserMessage: fmt.Sprintf("unexpected character %q in type", ch),
				})
			}
			tokens = append(tokens, tok{kind: kind, text: string(ch), start: offset, end: offset + size})
			offset += size
		}
	}
	return append(tokens, tok{kind: tokEOF, start: len(text), end: len(text)}), nil
}

// Parse parses a single type. Positions in the result are offsets into text
// added to base.
func Parse(text string, base token.Pos) (*Reference, error) {
	p, err := newParser(text, base)
	if err != nil {
		return nil, err
	}
	ref, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokEOF); err != nil {
		return nil, err
	}
	return ref, nil
}

// ParseArguments parses a comma-separated list of projections, as written
// between the angle brackets of an explicit type argument list
func ParseArguments(text string, base token.Pos) ([]Projection, error) {
	p, err := newParser(text, base)
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokEOF {
		return nil, nil
	}
	projections, err := p.parseProjections()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokEOF); err != nil {
		return nil, err
	}
	return projections, nil
}

func newParser(text string, base token.Pos) (*parser, error) {
	tokens, err := scan(text, base)
	if err != nil {
		return nil, err
	}
	return &parser{base: base, tokens: tokens}, nil
}

func (p *parser) peek() tok {
	return p.tokens[p.i]
}

func (p *parser) peekAt(n int) tok {
	if p.i+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.i+n]
}

func (p *parser) advance() tok {
	t := p.tokens[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) pos(offset int) token.Pos {
	return p.base + token.Pos(offset)
}

func (p *parser) errorAt(t tok, format string, args ...any) error {
	return ilerr.New(ilerr.NewParse{
		Positioner:    ast.Range{PosStart: p.pos(t.start), PosEnd: p.pos(t.end)},
		ParserMessage: fmt.Sprintf(format, args...),
	})
}

func (p *parser) expect(kind tokenKind) error {
	if t := p.peek(); t.kind != kind {
		return p.errorAt(t, "expected %v, found %v", kind, t.kind)
	}
	p.advance()
	return nil
}

func (p *parser) parseType() (*Reference, error) {
	start := p.peek()
	ref := &Reference{}
	switch start.kind {
	case tokIdent:
		p.advance()
		ref.Name = start.text
		if p.peek().kind == tokLess {
			p.advance()
			args, err := p.parseProjections()
			if err != nil {
				return nil, err
			}
			ref.Arguments = args
			if err := p.expect(tokGreater); err != nil {
				return nil, err
			}
		}
	case tokHash:
		p.advance()
		if err := p.expect(tokLParen); err != nil {
			return nil, err
		}
		ref.Tuple = true
		for p.peek().kind != tokRParen {
			if len(ref.Elements) > 0 {
				if err := p.expect(tokComma); err != nil {
					return nil, err
				}
			}
			elem, err := p.parseType()
			if err != nil {
				return nil, err
			}
			ref.Elements = append(ref.Elements, elem)
		}
		p.advance()
	default:
		return nil, p.errorAt(start, "expected a type, found %v", start.kind)
	}
	if p.peek().kind == tokQuestion {
		p.advance()
		ref.Nullable = true
	}
	ref.Range = ast.Range{PosStart: p.pos(start.start), PosEnd: p.pos(p.tokens[p.i-1].end)}
	return ref, nil
}

func (p *parser) parseProjections() ([]Projection, error) {
	var projections []Projection
	for {
		projection, err := p.parseProjection()
		if err != nil {
			return nil, err
		}
		projections = append(projections, projection)
		if p.peek().kind != tokComma {
			return projections, nil
		}
		p.advance()
	}
}

func (p *parser) parseProjection() (Projection, error) {
	start := p.peek()
	if start.kind == tokStar {
		p.advance()
		return Projection{Range: ast.Range{PosStart: p.pos(start.start), PosEnd: p.pos(start.end)}, Star: true}, nil
	}
	kind := types.Invariant
	// `in` and `out` are only modifiers when a type follows them
	if next := p.peekAt(1).kind; start.kind == tokIdent && (next == tokIdent || next == tokHash) {
		switch start.text {
		case "in":
			kind = types.In
			p.advance()
		case "out":
			kind = types.Out
			p.advance()
		}
	}
	ref, err := p.parseType()
	if err != nil {
		return Projection{}, err
	}
	return Projection{
		Range: ast.Range{PosStart: p.pos(start.start), PosEnd: ref.End()},
		Kind:  kind,
		Type:  ref,
	}, nil
}
