package directive

import (
	"strings"

	"github.com/lattice-tmpl/lattice/internal/ast"
	"github.com/lattice-tmpl/lattice/internal/errcode"
	"github.com/lattice-tmpl/lattice/internal/lexer"
	"github.com/lattice-tmpl/lattice/internal/parser"
)

// Tokenize implements spec component E: it scans src and produces a flat
// directive list, delegating bracketed and keyword expressions to
// internal/lexer and internal/parser. Line tracking advances on every
// newline byte seen, including inside expression strings and comments.
func Tokenize(src string) ([]Flat, error) {
	t := &tokenizer{src: src, line: 1}
	return t.run()
}

type tokenizer struct {
	src  string
	pos  int
	line int

	flats    []Flat
	span     strings.Builder
	spanLine int
}

func (t *tokenizer) errf(format string, args ...any) error {
	return errcode.New(errcode.Syntax, t.line, format, args...)
}

func (t *tokenizer) writeSpanByte(c byte) {
	if t.span.Len() == 0 {
		t.spanLine = t.line
	}
	t.span.WriteByte(c)
}

func (t *tokenizer) flushSpan() {
	if t.span.Len() == 0 {
		return
	}
	t.flats = append(t.flats, Flat{Kind: FlatSpan, Text: t.span.String(), Line: t.spanLine})
	t.span.Reset()
}

func (t *tokenizer) run() ([]Flat, error) {
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if c != '$' {
			if c == '\n' {
				t.line++
			}
			t.writeSpanByte(c)
			t.pos++
			continue
		}

		t.pos++
		if t.pos >= len(t.src) {
			return nil, t.errf("dangling '$' at end of template")
		}
		// `$$` keeps one '$' in the current span; every other directive ends it.
		if t.src[t.pos] != '$' {
			t.flushSpan()
		}
		if err := t.directive(); err != nil {
			return nil, err
		}
	}
	t.flushSpan()
	return t.flats, nil
}

// directive handles everything that can follow a '$' sigil.
func (t *tokenizer) directive() error {
	c := t.src[t.pos]
	switch c {
	case '$':
		t.writeSpanByte('$')
		t.pos++
		return nil
	case '(':
		return t.skipComment()
	case '[':
		return t.substitution(FlatSubEsc, ']')
	case '{':
		return t.substitution(FlatSubRaw, '}')
	case '<':
		return t.include()
	default:
		return t.keyword()
	}
}

// skipComment consumes `$(...)` through the matching, non-nested ')'.
func (t *tokenizer) skipComment() error {
	t.pos++ // consume '('
	for {
		if t.pos >= len(t.src) {
			return t.errf("unterminated comment")
		}
		c := t.src[t.pos]
		if c == ')' {
			t.pos++
			return nil
		}
		if c == '\n' {
			t.line++
		}
		t.pos++
	}
}

func (t *tokenizer) substitution(kind FlatKind, term byte) error {
	t.pos++ // consume '[' or '{'
	line := t.line
	expr, err := t.parseExpr(string(term))
	if err != nil {
		return err
	}
	if t.pos >= len(t.src) || t.src[t.pos] != term {
		return t.errf("unterminated %s substitution", kind)
	}
	t.pos++ // consume terminator
	t.flats = append(t.flats, Flat{Kind: kind, Expr: expr, Line: line})
	return nil
}

// include handles `$<path>` and the two-argument `$<path|fallback>` form.
func (t *tokenizer) include() error {
	t.pos++ // consume '<'
	line := t.line
	start := t.pos
	for t.pos < len(t.src) && t.src[t.pos] != '>' {
		if t.src[t.pos] == '\n' {
			t.line++
		}
		t.pos++
	}
	if t.pos >= len(t.src) {
		return t.errf("unterminated include directive")
	}
	text := t.src[start:t.pos]
	t.pos++ // consume '>'

	path, fallback := text, ""
	if i := strings.IndexByte(text, '|'); i >= 0 {
		path, fallback = text[:i], text[i+1:]
	}
	t.flats = append(t.flats, Flat{Kind: FlatInclude, Text: path, Fallback: fallback, Line: line})
	return nil
}

var keywordKinds = map[string]FlatKind{
	"if":      FlatIf,
	"elif":    FlatElif,
	"else":    FlatElse,
	"switch":  FlatSwitch,
	"case":    FlatCase,
	"default": FlatDefault,
	"with":    FlatWith,
	"end":     FlatEnd,
}

// keyword handles `$keyword...:` control directives. Keywords are scanned
// as a maximal run of identifier bytes, which already gives the
// longest-match behaviour spec.md's design notes ask for (a naive reverse
// scan is an artifact of the original's fixed-size buffer, not something
// the tokenizer needs to reproduce).
func (t *tokenizer) keyword() error {
	line := t.line
	word := t.scanWord()
	if word == "" {
		return t.errf("unrecognized directive '$%c'", t.src[t.pos])
	}
	switch word {
	case "end":
		t.flats = append(t.flats, Flat{Kind: FlatEnd, Line: line})
		return nil
	case "else":
		if err := t.expectColon(); err != nil {
			return err
		}
		t.flats = append(t.flats, Flat{Kind: FlatElse, Line: line})
		return nil
	case "default":
		if err := t.expectColon(); err != nil {
			return err
		}
		t.flats = append(t.flats, Flat{Kind: FlatDefault, Line: line})
		return nil
	case "if", "elif", "switch", "case", "with":
		expr, err := t.parseExpr(":")
		if err != nil {
			return err
		}
		if err := t.expectColon(); err != nil {
			return err
		}
		t.flats = append(t.flats, Flat{Kind: keywordKinds[word], Expr: expr, Line: line})
		return nil
	case "for":
		return t.forClause(line)
	default:
		return t.errf("unrecognized directive keyword %q", word)
	}
}

func (t *tokenizer) forClause(line int) error {
	t.skipHSpace()
	varName := t.scanWord()
	if varName == "" {
		return t.errf("expected loop variable after 'for'")
	}
	t.skipHSpace()
	clause := t.scanWord()
	switch clause {
	case "from":
		t.skipHSpace()
		lo, err := t.parseExpr("..")
		if err != nil {
			return err
		}
		if !strings.HasPrefix(t.src[t.pos:], "..") {
			return t.errf("expected '..' in 'for ... from' clause")
		}
		t.pos += 2
		inclusive := false
		if t.pos < len(t.src) && t.src[t.pos] == '=' {
			inclusive = true
			t.pos++
		}
		hi, err := t.parseExpr(":")
		if err != nil {
			return err
		}
		if err := t.expectColon(); err != nil {
			return err
		}
		kind := FlatForRangeExc
		if inclusive {
			kind = FlatForRangeInc
		}
		t.flats = append(t.flats, Flat{Kind: kind, Var: varName, Lo: lo, Hi: hi, Line: line})
		return nil
	case "in":
		t.skipHSpace()
		iter, err := t.parseExpr(":")
		if err != nil {
			return err
		}
		if err := t.expectColon(); err != nil {
			return err
		}
		t.flats = append(t.flats, Flat{Kind: FlatForIter, Var: varName, Expr: iter, Line: line})
		return nil
	default:
		return t.errf("expected 'from' or 'in' after loop variable, got %q", clause)
	}
}

func (t *tokenizer) expectColon() error {
	t.skipHSpace()
	if t.pos >= len(t.src) || t.src[t.pos] != ':' {
		return t.errf("expected ':' to terminate directive")
	}
	t.pos++
	return nil
}

func (t *tokenizer) skipHSpace() {
	for t.pos < len(t.src) {
		switch t.src[t.pos] {
		case ' ', '\t', '\r':
			t.pos++
		case '\n':
			t.line++
			t.pos++
		default:
			return
		}
	}
}

func (t *tokenizer) scanWord() string {
	start := t.pos
	for t.pos < len(t.src) && isWordByte(t.src[t.pos]) {
		t.pos++
	}
	return t.src[start:t.pos]
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// parseExpr delegates to internal/lexer and internal/parser for the
// bracketed and keyword-clause sub-expressions, advancing the tokenizer's
// position and line counter past the consumed lexemes (but not the
// terminator itself, which the caller consumes).
func (t *tokenizer) parseExpr(term string) (ast.Node, error) {
	lx := lexer.New(t.src, t.pos, t.line, term, true)
	toks, err := lx.Lex()
	if err != nil {
		return nil, err
	}
	expr, err := parser.Parse(toks)
	if err != nil {
		return nil, err
	}
	t.pos = lx.Pos()
	t.line = lx.Line()
	return expr, nil
}
