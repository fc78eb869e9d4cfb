package lattice

import (
	"github.com/lattice-tmpl/lattice/internal/ast"
	"github.com/lattice-tmpl/lattice/internal/directive"
	"github.com/lattice-tmpl/lattice/internal/errcode"
	"github.com/lattice-tmpl/lattice/internal/eval"
	"github.com/lattice-tmpl/lattice/value"
)

// Render walks t's directive tree against root, calling emit for every
// chunk of output (spec component H). It returns the total number of bytes
// accepted by emit, or the first error encountered — rendering aborts on
// the first error and any output already emitted is not rolled back, per
// spec.md §7's propagation rule.
func (t *Template) Render(cap value.Capability, root Handle, emit EmitFunc) (int, error) {
	rs := &renderState{
		cap:    cap,
		ev:     eval.New(cap),
		emit:   emit,
		opts:   t.opts,
		escape: t.opts.escape(),
	}
	if err := rs.renderNodes(t.body, root, root); err != nil {
		return 0, err
	}
	return rs.written, nil
}

type renderState struct {
	cap     value.Capability
	ev      *eval.Evaluator
	emit    EmitFunc
	opts    Options
	escape  func(string) string
	written int
}

func (rs *renderState) emitBytes(data []byte, line int) error {
	if len(data) == 0 {
		return nil
	}
	n, err := rs.emit(data)
	if err != nil {
		return errcode.New(errcode.IO, line, "emit failed: %v", err)
	}
	if n == 0 && !rs.opts.IgnoreEmitZero {
		return errcode.New(errcode.IO, line, "emit callback accepted zero bytes")
	}
	rs.written += n
	return nil
}

func (rs *renderState) renderNodes(nodes []directive.Node, scope, root Handle) error {
	for _, n := range nodes {
		if err := rs.renderNode(n, scope, root); err != nil {
			return err
		}
	}
	return nil
}

func (rs *renderState) renderNode(n directive.Node, scope, root Handle) error {
	switch nd := n.(type) {
	case *directive.Span:
		return rs.emitBytes([]byte(nd.Text), nd.Line())
	case *directive.SubRaw:
		return rs.renderSub(nd.Expr, scope, root, nd.Line(), false)
	case *directive.SubEsc:
		return rs.renderSub(nd.Expr, scope, root, nd.Line(), true)
	case *directive.Include:
		return rs.renderNodes(nd.Children, scope, root)
	case *directive.Conditional:
		return rs.renderConditional(nd, scope, root)
	case *directive.Switch:
		return rs.renderSwitch(nd, scope, root)
	case *directive.ForRangeExc:
		return rs.renderForRange(nd.Var, nd.Lo, nd.Hi, false, nd.Body, scope, root, nd.Line())
	case *directive.ForRangeInc:
		return rs.renderForRange(nd.Var, nd.Lo, nd.Hi, true, nd.Body, scope, root, nd.Line())
	case *directive.ForIter:
		return rs.renderForIter(nd, scope, root)
	case *directive.With:
		return rs.renderWith(nd, scope, root)
	default:
		return errcode.New(errcode.Unknown, n.Line(), "unhandled directive node %T", n)
	}
}

// renderSub implements `sub_raw`/`sub_esc`: evaluate, stringify (strings
// pass through, everything else is JSON-printed), optionally escape, emit.
func (rs *renderState) renderSub(expr ast.Node, scope, root Handle, line int, escape bool) error {
	v, err := rs.ev.Eval(expr, scope, root)
	if err != nil {
		return err
	}
	defer rs.cap.Free(v)

	var s string
	if rs.cap.Type(v) == value.KindString {
		s, _ = rs.cap.String(v)
	} else {
		s, err = rs.cap.Print(v)
		if err != nil {
			return errcode.New(errcode.JSON, line, "cannot serialize value: %v", err)
		}
	}
	if escape {
		s = rs.escape(s)
	}
	return rs.emitBytes([]byte(s), line)
}

// renderConditional implements the if/elif/else chain: the first arm whose
// condition is truthy renders its body; an unconditional (else) arm always
// matches; if nothing matches, output is empty.
func (rs *renderState) renderConditional(nd *directive.Conditional, scope, root Handle) error {
	for _, arm := range nd.Arms {
		if arm.Cond == nil {
			return rs.renderNodes(arm.Body, scope, root)
		}
		v, err := rs.ev.Eval(arm.Cond, scope, root)
		if err != nil {
			return err
		}
		match := eval.Truthy(rs.cap, v)
		rs.cap.Free(v)
		if match {
			return rs.renderNodes(arm.Body, scope, root)
		}
	}
	return nil
}

// renderSwitch evaluates the discriminant once and renders the first
// matching `case`'s body (by the `eq` rule), or `default` if none match.
func (rs *renderState) renderSwitch(nd *directive.Switch, scope, root Handle) error {
	disc, err := rs.ev.Eval(nd.Disc, scope, root)
	if err != nil {
		return err
	}
	defer rs.cap.Free(disc)

	for _, c := range nd.Cases {
		if c.Cond == nil {
			return rs.renderNodes(c.Body, scope, root)
		}
		v, err := rs.ev.Eval(c.Cond, scope, root)
		if err != nil {
			return err
		}
		match := eval.Equal(rs.cap, disc, v)
		rs.cap.Free(v)
		if match {
			return rs.renderNodes(c.Body, scope, root)
		}
	}
	return nil
}

// renderForRange implements `for id from lo..hi:` / `for id from lo..=hi:`.
func (rs *renderState) renderForRange(id string, loExpr, hiExpr ast.Node, inclusive bool, body []directive.Node, scope, root Handle, line int) error {
	loH, err := rs.ev.Eval(loExpr, scope, root)
	if err != nil {
		return err
	}
	lo, ok := rs.cap.Number(loH)
	rs.cap.Free(loH)
	if !ok {
		return errcode.New(errcode.Type, line, "'for ... from' lower bound must be a number")
	}
	hiH, err := rs.ev.Eval(hiExpr, scope, root)
	if err != nil {
		return err
	}
	hi, ok := rs.cap.Number(hiH)
	rs.cap.Free(hiH)
	if !ok {
		return errcode.New(errcode.Type, line, "'for ... from' upper bound must be a number")
	}

	for i := lo; (inclusive && i <= hi) || (!inclusive && i < hi); i++ {
		iterScope, err := rs.bindLoop(scope, id, rs.cap.NewNumber(i), line)
		if err != nil {
			return err
		}
		err = rs.renderNodes(body, iterScope, root)
		if iterScope != scope {
			rs.cap.Free(iterScope)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// renderForIter implements `for id in coll:` over a string's characters, an
// array's elements, or an object's keys.
func (rs *renderState) renderForIter(nd *directive.ForIter, scope, root Handle) error {
	coll, err := rs.ev.Eval(nd.Iter, scope, root)
	if err != nil {
		return err
	}
	defer rs.cap.Free(coll)
	line := nd.Line()

	switch rs.cap.Type(coll) {
	case value.KindString:
		s, _ := rs.cap.String(coll)
		for i := 0; i < len(s); i++ {
			if err := rs.iterateOnce(nd.Var, rs.cap.NewString(s[i:i+1]), nd.Body, scope, root, line); err != nil {
				return err
			}
		}
	case value.KindArray:
		n, _ := rs.cap.Length(coll)
		for i := 0; i < n; i++ {
			elem, _ := rs.cap.Index(coll, i)
			if err := rs.iterateOnce(nd.Var, rs.cap.Clone(elem), nd.Body, scope, root, line); err != nil {
				return err
			}
		}
	case value.KindObject:
		keys, _ := rs.cap.Keys(coll)
		for _, k := range keys {
			if err := rs.iterateOnce(nd.Var, rs.cap.NewString(k), nd.Body, scope, root, line); err != nil {
				return err
			}
		}
	default:
		return errcode.New(errcode.Type, line, "cannot iterate a %s", rs.cap.Type(coll))
	}
	return nil
}

func (rs *renderState) iterateOnce(id string, val Handle, body []directive.Node, scope, root Handle, line int) error {
	iterScope, err := rs.bindLoop(scope, id, val, line)
	if err != nil {
		return err
	}
	err = rs.renderNodes(body, iterScope, root)
	if iterScope != scope {
		rs.cap.Free(iterScope)
	}
	return err
}

// bindLoop builds the scope a loop body sees: the anonymous binding `_`
// reuses the outer scope untouched (val is then unused and freed); any
// other id requires an object scope and binds id to val in a fresh object
// that otherwise mirrors scope (spec.md §4.H).
func (rs *renderState) bindLoop(scope Handle, id string, val Handle, line int) (Handle, error) {
	if id == "_" {
		rs.cap.Free(val)
		return scope, nil
	}
	if rs.cap.Type(scope) != value.KindObject {
		rs.cap.Free(val)
		return nil, errcode.New(errcode.Type, line, "loop scope must be an object to bind %q", id)
	}
	next := rs.cap.NewObject()
	keys, _ := rs.cap.Keys(scope)
	for _, k := range keys {
		if k == id {
			continue
		}
		v, _ := rs.cap.Get(scope, k)
		rs.cap.SetKey(next, k, rs.cap.Clone(v))
	}
	rs.cap.SetKey(next, id, val)
	return next, nil
}

// renderWith implements `with(expr):`: rebind scope wholesale (no merge)
// for the duration of Body.
func (rs *renderState) renderWith(nd *directive.With, scope, root Handle) error {
	v, err := rs.ev.Eval(nd.Expr, scope, root)
	if err != nil {
		return err
	}
	defer rs.cap.Free(v)
	return rs.renderNodes(nd.Body, v, root)
}
