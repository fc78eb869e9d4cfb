package directive

import "github.com/lattice-tmpl/lattice/internal/errcode"

// Build implements spec component F: a single recursive pass over the flat
// directive list pairing openers with their terminators into a tree.
func Build(flats []Flat) ([]Node, error) {
	b := &builder{flats: flats}
	body, err := b.buildBody()
	if err != nil {
		return nil, err
	}
	if b.pos != len(flats) {
		f := flats[b.pos]
		return nil, errcode.New(errcode.Syntax, f.Line, "unexpected '%s' at top level", f.Kind)
	}
	return body, nil
}

type builder struct {
	flats []Flat
	pos   int
}

func (b *builder) cur() (Flat, bool) {
	if b.pos < len(b.flats) {
		return b.flats[b.pos], true
	}
	return Flat{}, false
}

// buildBody consumes span/sub/include/block directives until it reaches a
// token that closes an enclosing block (end, elif, else, case, default) or
// runs out of input; it does not consume that terminator, leaving it for
// the caller to interpret.
func (b *builder) buildBody() ([]Node, error) {
	var nodes []Node
	for {
		f, ok := b.cur()
		if !ok {
			return nodes, nil
		}
		switch f.Kind {
		case FlatEnd, FlatElif, FlatElse, FlatCase, FlatDefault:
			return nodes, nil

		case FlatSpan:
			nodes = append(nodes, &Span{base: base{f.Line}, Text: f.Text})
			b.pos++
		case FlatSubEsc:
			nodes = append(nodes, &SubEsc{base: base{f.Line}, Expr: f.Expr})
			b.pos++
		case FlatSubRaw:
			nodes = append(nodes, &SubRaw{base: base{f.Line}, Expr: f.Expr})
			b.pos++
		case FlatInclude:
			nodes = append(nodes, &Include{base: base{f.Line}, Path: f.Text, Fallback: f.Fallback})
			b.pos++

		case FlatIf:
			n, err := b.buildConditional()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case FlatSwitch:
			n, err := b.buildSwitch()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case FlatForRangeExc, FlatForRangeInc, FlatForIter:
			n, err := b.buildFor(f)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case FlatWith:
			n, err := b.buildWith(f)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)

		default:
			return nil, errcode.New(errcode.Syntax, f.Line, "unexpected directive %s", f.Kind)
		}
	}
}

// buildConditional groups an `if` and its `elif`/`else` siblings into one
// Conditional node, per the design note's recommended representation.
func (b *builder) buildConditional() (Node, error) {
	start := b.flats[b.pos]
	b.pos++ // consume 'if'

	body, err := b.buildBody()
	if err != nil {
		return nil, err
	}
	arms := []CondArm{{Cond: start.Expr, Body: body}}

	for {
		f, ok := b.cur()
		if !ok {
			return nil, errcode.New(errcode.Syntax, start.Line, "unclosed 'if' block")
		}
		switch f.Kind {
		case FlatElif:
			b.pos++
			body, err := b.buildBody()
			if err != nil {
				return nil, err
			}
			arms = append(arms, CondArm{Cond: f.Expr, Body: body})
		case FlatElse:
			b.pos++
			body, err := b.buildBody()
			if err != nil {
				return nil, err
			}
			arms = append(arms, CondArm{Cond: nil, Body: body})
			end, ok := b.cur()
			if !ok || end.Kind != FlatEnd {
				return nil, errcode.New(errcode.Syntax, f.Line, "'else' must be the last arm of an 'if' chain")
			}
			b.pos++
			return &Conditional{base: base{start.Line}, Arms: arms}, nil
		case FlatEnd:
			b.pos++
			return &Conditional{base: base{start.Line}, Arms: arms}, nil
		default:
			return nil, errcode.New(errcode.Syntax, f.Line, "unexpected %s inside 'if' chain", f.Kind)
		}
	}
}

// buildSwitch adopts only case/default children until end; default, if
// present, must be last.
func (b *builder) buildSwitch() (Node, error) {
	start := b.flats[b.pos]
	b.pos++ // consume 'switch'

	var cases []CaseArm
	sawDefault := false
	for {
		f, ok := b.cur()
		if !ok {
			return nil, errcode.New(errcode.Syntax, start.Line, "unclosed 'switch' block")
		}
		switch f.Kind {
		case FlatCase:
			if sawDefault {
				return nil, errcode.New(errcode.Syntax, f.Line, "'case' after 'default'")
			}
			b.pos++
			body, err := b.buildBody()
			if err != nil {
				return nil, err
			}
			cases = append(cases, CaseArm{Cond: f.Expr, Body: body})
		case FlatDefault:
			if sawDefault {
				return nil, errcode.New(errcode.Syntax, f.Line, "duplicate 'default' in 'switch'")
			}
			sawDefault = true
			b.pos++
			body, err := b.buildBody()
			if err != nil {
				return nil, err
			}
			cases = append(cases, CaseArm{Cond: nil, Body: body})
		case FlatEnd:
			b.pos++
			return &Switch{base: base{start.Line}, Disc: start.Expr, Cases: cases}, nil
		default:
			return nil, errcode.New(errcode.Syntax, f.Line, "'switch' may only contain 'case'/'default', got %s", f.Kind)
		}
	}
}

func (b *builder) buildFor(start Flat) (Node, error) {
	b.pos++ // consume the for_* token
	body, err := b.buildBody()
	if err != nil {
		return nil, err
	}
	if err := b.expectEnd(start.Line, "for"); err != nil {
		return nil, err
	}
	switch start.Kind {
	case FlatForRangeExc:
		return &ForRangeExc{base: base{start.Line}, Var: start.Var, Lo: start.Lo, Hi: start.Hi, Body: body}, nil
	case FlatForRangeInc:
		return &ForRangeInc{base: base{start.Line}, Var: start.Var, Lo: start.Lo, Hi: start.Hi, Body: body}, nil
	default: // FlatForIter
		return &ForIter{base: base{start.Line}, Var: start.Var, Iter: start.Expr, Body: body}, nil
	}
}

func (b *builder) buildWith(start Flat) (Node, error) {
	b.pos++ // consume 'with'
	body, err := b.buildBody()
	if err != nil {
		return nil, err
	}
	if err := b.expectEnd(start.Line, "with"); err != nil {
		return nil, err
	}
	return &With{base: base{start.Line}, Expr: start.Expr, Body: body}, nil
}

func (b *builder) expectEnd(openLine int, what string) error {
	f, ok := b.cur()
	if !ok || f.Kind != FlatEnd {
		return errcode.New(errcode.Syntax, openLine, "unclosed '%s' block", what)
	}
	b.pos++
	return nil
}
