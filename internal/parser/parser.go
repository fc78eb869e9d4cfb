// Package parser implements spec component C, the expression parser: a
// recursive-descent, precedence-climbing parser turning the lexeme list
// from internal/lexer into the AST defined by internal/ast.
package parser

import (
	"github.com/lattice-tmpl/lattice/internal/ast"
	"github.com/lattice-tmpl/lattice/internal/errcode"
	"github.com/lattice-tmpl/lattice/internal/lexer"
	spanpkg "github.com/lattice-tmpl/lattice/internal/span"
)

// Parse consumes all of toks and returns the single expression they encode,
// or a syntax error. Per spec.md §4.C, the outermost call must consume
// exactly the token list; anything left over is "extra tokens in
// expression".
func Parse(toks []lexer.Token) (ast.Node, error) {
	p := &parser{toks: toks}
	expr, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, p.errAt(p.cur(), "extra tokens in expression")
	}
	return expr, nil
}

type parser struct {
	toks []lexer.Token
	pos  int
}

func (p *parser) cur() lexer.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	line := 0
	if len(p.toks) > 0 {
		line = p.toks[len(p.toks)-1].At.Line
	}
	return lexer.Token{Kind: lexer.KindEOF, At: spanpkg.Span{Line: line}}
}

func (p *parser) atEnd() bool { return p.pos >= len(p.toks) }

func (p *parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) errAt(t lexer.Token, format string, args ...any) error {
	return errcode.New(errcode.Syntax, t.At.Line, format, args...)
}

func (p *parser) expect(k lexer.Kind) (lexer.Token, error) {
	t := p.cur()
	if t.Kind != k {
		return t, p.errAt(t, "expected %s, got %s", k, t.Kind)
	}
	return p.advance(), nil
}

// --- ternary ---

func (p *parser) parseTernary() (ast.Node, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.atEnd() || p.cur().Kind != lexer.KindQuestion {
		return cond, nil
	}
	q := p.advance()
	thenExpr, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindColon); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	return ast.NewTernary(spanOf(q), cond, thenExpr, elseExpr), nil
}

// --- binary precedence levels, lowest to highest, per spec.md §4.C item 4 ---

type levelOp struct {
	kind lexer.Kind
	op   ast.BinaryOp
}

var levels = [][]levelOp{
	{{lexer.KindAndAnd, ast.OpBoth}, {lexer.KindOrOr, ast.OpEither}},
	{
		{lexer.KindEq, ast.OpEq}, {lexer.KindNeq, ast.OpNeq},
		{lexer.KindLt, ast.OpLt}, {lexer.KindLte, ast.OpLte},
		{lexer.KindGt, ast.OpGt}, {lexer.KindGte, ast.OpGte},
	},
	{{lexer.KindAmp, ast.OpAnd}, {lexer.KindPipe, ast.OpOr}, {lexer.KindCaret, ast.OpXor}},
	{{lexer.KindPlus, ast.OpAdd}, {lexer.KindMinus, ast.OpSub}},
	{
		{lexer.KindStar, ast.OpMul}, {lexer.KindSlash, ast.OpDiv},
		{lexer.KindSlashSlash, ast.OpQuot}, {lexer.KindPercent, ast.OpMod},
	},
	{{lexer.KindStarStar, ast.OpExp}},
}

func (p *parser) parseBinary(level int) (ast.Node, error) {
	if level >= len(levels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, matched := matchLevel(levels[level], p.cur().Kind)
		if !matched {
			return left, nil
		}
		tok := p.advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(spanOf(tok), op, left, right)
	}
}

func matchLevel(ops []levelOp, k lexer.Kind) (ast.BinaryOp, bool) {
	for _, o := range ops {
		if o.kind == k {
			return o.op, true
		}
	}
	return 0, false
}

// --- unary ---

var unaryOps = map[lexer.Kind]ast.UnaryOp{
	lexer.KindPlus:  ast.OpPos,
	lexer.KindMinus: ast.OpNeg,
	lexer.KindNot:   ast.OpNot,
	lexer.KindTilde: ast.OpComp,
}

func (p *parser) parseUnary() (ast.Node, error) {
	if op, ok := unaryOps[p.cur().Kind]; ok {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(spanOf(tok), op, operand), nil
	}
	return p.parseCall()
}

// --- call / postfix: .ident, .ident(args), [i], [i, j] ---

func (p *parser) parseCall() (ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case lexer.KindDot:
			dot := p.advance()
			nameTok, err := p.expect(lexer.KindIdent)
			if err != nil {
				return nil, err
			}
			if p.cur().Kind == lexer.KindLParen {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				node = ast.NewMethod(spanOf(dot), node, nameTok.StrValue, args)
				continue
			}
			node = ast.NewLookup(spanOf(dot), node, nameTok.StrValue)
		case lexer.KindLBracket:
			lb := p.advance()
			lo, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			var hi ast.Node
			if p.cur().Kind == lexer.KindComma {
				p.advance()
				hi, err = p.parseTernary()
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(lexer.KindRBracket); err != nil {
				return nil, err
			}
			node = ast.NewIndex(spanOf(lb), node, lo, hi)
		default:
			return node, nil
		}
	}
}

func (p *parser) parseArgs() ([]ast.Node, error) {
	if _, err := p.expect(lexer.KindLParen); err != nil {
		return nil, err
	}
	var args []ast.Node
	if p.cur().Kind == lexer.KindRParen {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur().Kind == lexer.KindComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.KindRParen); err != nil {
		return nil, err
	}
	return args, nil
}

// --- primary ---

func (p *parser) parsePrimary() (ast.Node, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.KindNull:
		p.advance()
		return ast.NewNull(spanOf(t)), nil
	case lexer.KindBool:
		p.advance()
		return ast.NewBool(spanOf(t), t.BoolValue), nil
	case lexer.KindNumber:
		p.advance()
		return ast.NewNumber(spanOf(t), t.NumValue), nil
	case lexer.KindString:
		p.advance()
		return ast.NewStr(spanOf(t), t.StrValue), nil
	case lexer.KindAt:
		p.advance()
		return ast.NewRoot(spanOf(t)), nil
	case lexer.KindIdent:
		p.advance()
		return ast.NewIdent(spanOf(t), t.StrValue), nil
	case lexer.KindLParen:
		p.advance()
		inner, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KindRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.KindLBracket:
		return p.parseArrayLiteral(t)
	case lexer.KindLBrace:
		return p.parseObjectLiteral(t)
	default:
		return nil, p.errAt(t, "unexpected %s in expression", t.Kind)
	}
}

func (p *parser) parseArrayLiteral(open lexer.Token) (ast.Node, error) {
	p.advance()
	var items []ast.Node
	if p.cur().Kind == lexer.KindRBracket {
		p.advance()
		return ast.NewArray(spanOf(open), items), nil
	}
	for {
		item, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.cur().Kind == lexer.KindComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.KindRBracket); err != nil {
		return nil, err
	}
	return ast.NewArray(spanOf(open), items), nil
}

func (p *parser) parseObjectLiteral(open lexer.Token) (ast.Node, error) {
	p.advance()
	var entries []ast.ObjectEntry
	if p.cur().Kind == lexer.KindRBrace {
		p.advance()
		return ast.NewObject(spanOf(open), entries), nil
	}
	for {
		key, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KindColon); err != nil {
			return nil, err
		}
		val, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.ObjectEntry{Key: key, Value: val})
		if p.cur().Kind == lexer.KindComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.KindRBrace); err != nil {
		return nil, err
	}
	return ast.NewObject(spanOf(open), entries), nil
}

func spanOf(t lexer.Token) spanpkg.Span { return t.At }
