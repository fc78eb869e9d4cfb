// Package eval implements spec component D, the expression evaluator: an
// AST-plus-scope tree walker that calls back into a value.Capability for
// every value operation, and never mutates the scope it's given.
package eval

import (
	"math"

	"github.com/lattice-tmpl/lattice/internal/ast"
	"github.com/lattice-tmpl/lattice/internal/errcode"
	"github.com/lattice-tmpl/lattice/value"
)

// Evaluator walks an expression AST against a value.Capability. It carries
// no per-call state; one Evaluator is reused across every expression a
// render evaluates.
type Evaluator struct {
	Cap value.Capability
}

// New constructs an Evaluator bound to cap.
func New(cap value.Capability) *Evaluator {
	return &Evaluator{Cap: cap}
}

// Eval evaluates node against scope (the current, read-only lookup object)
// and root (the value `@` always resolves to, regardless of scope). It
// returns a freshly owned Handle the caller must eventually Free, or a
// typed *errcode.Err.
func (e *Evaluator) Eval(node ast.Node, scope, root value.Handle) (value.Handle, error) {
	cap := e.Cap
	switch n := node.(type) {
	case *ast.Null:
		return cap.NewNull(), nil
	case *ast.Bool:
		return cap.NewBool(n.Value), nil
	case *ast.Number:
		return cap.NewNumber(n.Value), nil
	case *ast.Str:
		return cap.NewString(n.Value), nil
	case *ast.Root:
		return cap.Clone(root), nil
	case *ast.Ident:
		return e.evalIdent(n, scope)
	case *ast.Array:
		return e.evalArray(n, scope, root)
	case *ast.Object:
		return e.evalObject(n, scope, root)
	case *ast.Binary:
		return e.evalBinary(n, scope, root)
	case *ast.Unary:
		return e.evalUnary(n, scope, root)
	case *ast.Lookup:
		return e.evalLookup(n, scope, root)
	case *ast.Method:
		return e.evalMethod(n, scope, root)
	case *ast.Index:
		return e.evalIndex(n, scope, root)
	case *ast.Ternary:
		return e.evalTernary(n, scope, root)
	default:
		return nil, errcode.New(errcode.Unknown, node.Span().Line, "unhandled expression node %T", node)
	}
}

func (e *Evaluator) evalIdent(n *ast.Ident, scope value.Handle) (value.Handle, error) {
	if e.Cap.Type(scope) != value.KindObject {
		return nil, errcode.New(errcode.Type, n.Span().Line, "cannot look up %q: scope is not an object", n.Name)
	}
	v, ok := e.Cap.Get(scope, n.Name)
	if !ok {
		return nil, errcode.New(errcode.Name, n.Span().Line, "undefined name %q", n.Name)
	}
	return e.Cap.Clone(v), nil
}

func (e *Evaluator) evalArray(n *ast.Array, scope, root value.Handle) (value.Handle, error) {
	arr := e.Cap.NewArray()
	for _, item := range n.Items {
		v, err := e.Eval(item, scope, root)
		if err != nil {
			e.Cap.Free(arr)
			return nil, err
		}
		e.Cap.AddElem(arr, v)
	}
	return arr, nil
}

func (e *Evaluator) evalObject(n *ast.Object, scope, root value.Handle) (value.Handle, error) {
	obj := e.Cap.NewObject()
	for _, entry := range n.Entries {
		keyH, err := e.Eval(entry.Key, scope, root)
		if err != nil {
			e.Cap.Free(obj)
			return nil, err
		}
		if e.Cap.Type(keyH) == value.KindNull {
			e.Cap.Free(keyH)
			// Key is null: evaluate the value for side-effect-free error
			// detection, then discard it (spec.md §4.D).
			v, err := e.Eval(entry.Value, scope, root)
			if err != nil {
				e.Cap.Free(obj)
				return nil, err
			}
			e.Cap.Free(v)
			continue
		}
		key, ok := e.Cap.String(keyH)
		e.Cap.Free(keyH)
		if !ok {
			e.Cap.Free(obj)
			return nil, errcode.New(errcode.Type, entry.Key.Span().Line, "object literal key must be a string or null")
		}
		v, err := e.Eval(entry.Value, scope, root)
		if err != nil {
			e.Cap.Free(obj)
			return nil, err
		}
		e.Cap.SetKey(obj, key, v)
	}
	return obj, nil
}

func (e *Evaluator) evalLookup(n *ast.Lookup, scope, root value.Handle) (value.Handle, error) {
	obj, err := e.Eval(n.Object, scope, root)
	if err != nil {
		return nil, err
	}
	defer e.Cap.Free(obj)
	if e.Cap.Type(obj) != value.KindObject {
		return nil, errcode.New(errcode.Type, n.Span().Line, "cannot look up %q: not an object", n.Name)
	}
	v, ok := e.Cap.Get(obj, n.Name)
	if !ok {
		return nil, errcode.New(errcode.Name, n.Span().Line, "no key %q in object", n.Name)
	}
	return e.Cap.Clone(v), nil
}

func (e *Evaluator) evalTernary(n *ast.Ternary, scope, root value.Handle) (value.Handle, error) {
	cond, err := e.Eval(n.Cond, scope, root)
	if err != nil {
		return nil, err
	}
	isTrue := truthy(e.Cap, cond)
	e.Cap.Free(cond)
	if isTrue {
		return e.Eval(n.Then, scope, root)
	}
	return e.Eval(n.Else, scope, root)
}

func (e *Evaluator) evalUnary(n *ast.Unary, scope, root value.Handle) (value.Handle, error) {
	operand, err := e.Eval(n.Operand, scope, root)
	if err != nil {
		return nil, err
	}
	defer e.Cap.Free(operand)
	line := n.Span().Line

	switch n.Op {
	case ast.OpNot:
		return e.Cap.NewBool(!truthy(e.Cap, operand)), nil
	case ast.OpPos, ast.OpNeg:
		if e.Cap.Type(operand) != value.KindNumber {
			return nil, errcode.New(errcode.Type, line, "unary %s requires a number", n.Op)
		}
		num, _ := e.Cap.Number(operand)
		if n.Op == ast.OpNeg {
			num = -num
		}
		return e.Cap.NewNumber(num), nil
	case ast.OpComp:
		u, err := toUint64(e.Cap, line, operand)
		if err != nil {
			return nil, err
		}
		return e.Cap.NewNumber(float64(^u)), nil
	default:
		return nil, errcode.New(errcode.Unknown, line, "unhandled unary operator %s", n.Op)
	}
}

func (e *Evaluator) evalBinary(n *ast.Binary, scope, root value.Handle) (value.Handle, error) {
	// Short-circuit operators evaluate at most one side.
	switch n.Op {
	case ast.OpEither:
		left, err := e.Eval(n.Left, scope, root)
		if err != nil {
			return nil, err
		}
		if truthy(e.Cap, left) {
			return left, nil
		}
		e.Cap.Free(left)
		return e.Eval(n.Right, scope, root)
	case ast.OpBoth:
		left, err := e.Eval(n.Left, scope, root)
		if err != nil {
			return nil, err
		}
		if !truthy(e.Cap, left) {
			return left, nil
		}
		e.Cap.Free(left)
		return e.Eval(n.Right, scope, root)
	}

	left, err := e.Eval(n.Left, scope, root)
	if err != nil {
		return nil, err
	}
	right, err := e.Eval(n.Right, scope, root)
	if err != nil {
		e.Cap.Free(left)
		return nil, err
	}
	defer e.Cap.Free(left)
	defer e.Cap.Free(right)
	line := n.Span().Line

	switch n.Op {
	case ast.OpEq:
		return e.Cap.NewBool(equal(e.Cap, left, right)), nil
	case ast.OpNeq:
		return e.Cap.NewBool(!equal(e.Cap, left, right)), nil
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		cmp, err := compare(e.Cap, line, left, right)
		if err != nil {
			return nil, err
		}
		var result bool
		switch n.Op {
		case ast.OpLt:
			result = cmp < 0
		case ast.OpLte:
			result = cmp <= 0
		case ast.OpGt:
			result = cmp > 0
		case ast.OpGte:
			result = cmp >= 0
		}
		return e.Cap.NewBool(result), nil
	case ast.OpAnd, ast.OpOr, ast.OpXor:
		lu, err := toUint64(e.Cap, line, left)
		if err != nil {
			return nil, err
		}
		ru, err := toUint64(e.Cap, line, right)
		if err != nil {
			return nil, err
		}
		var result uint64
		switch n.Op {
		case ast.OpAnd:
			result = lu & ru
		case ast.OpOr:
			result = lu | ru
		case ast.OpXor:
			result = lu ^ ru
		}
		return e.Cap.NewNumber(float64(result)), nil
	default:
		return e.arith(line, n.Op, left, right)
	}
}

// arith implements spec.md §4.D's arithmetic rules: numeric ops on two
// numbers; `+` also concatenates two strings or two arrays; `*` also
// repeats a string or array by an integral number.
func (e *Evaluator) arith(line int, op ast.BinaryOp, left, right value.Handle) (value.Handle, error) {
	cap := e.Cap
	lk, rk := cap.Type(left), cap.Type(right)

	if lk == value.KindNumber && rk == value.KindNumber {
		a, _ := cap.Number(left)
		b, _ := cap.Number(right)
		return cap.NewNumber(applyNumericOp(op, a, b)), nil
	}

	switch op {
	case ast.OpAdd:
		if lk == value.KindString && rk == value.KindString {
			as, _ := cap.String(left)
			bs, _ := cap.String(right)
			return cap.NewString(as + bs), nil
		}
		if lk == value.KindArray && rk == value.KindArray {
			out := cap.NewArray()
			appendCloned(cap, out, left)
			appendCloned(cap, out, right)
			return out, nil
		}
	case ast.OpMul:
		if lk == value.KindString && rk == value.KindNumber {
			s, _ := cap.String(left)
			n, _ := cap.Number(right)
			count, err := wholeCount(line, n)
			if err != nil {
				return nil, err
			}
			return cap.NewString(repeatString(s, count)), nil
		}
		if lk == value.KindArray && rk == value.KindNumber {
			n, _ := cap.Number(right)
			count, err := wholeCount(line, n)
			if err != nil {
				return nil, err
			}
			out := cap.NewArray()
			for i := 0; i < count; i++ {
				appendCloned(cap, out, left)
			}
			return out, nil
		}
	}

	return nil, errcode.New(errcode.Type, line, "operator %s not defined for %s and %s", op, lk, rk)
}

func applyNumericOp(op ast.BinaryOp, a, b float64) float64 {
	switch op {
	case ast.OpAdd:
		return a + b
	case ast.OpSub:
		return a - b
	case ast.OpMul:
		return a * b
	case ast.OpDiv:
		return a / b
	case ast.OpQuot:
		return math.Floor(a / b)
	case ast.OpMod:
		return math.Mod(a, b)
	case ast.OpExp:
		return math.Pow(a, b)
	default:
		return math.NaN()
	}
}

func wholeCount(line int, n float64) (int, error) {
	if n != math.Trunc(n) {
		return 0, errcode.New(errcode.Value, line, "repeat count must be a whole number")
	}
	if n < 0 {
		n = 0
	}
	return int(n), nil
}

func repeatString(s string, count int) string {
	out := make([]byte, 0, len(s)*count)
	for i := 0; i < count; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func appendCloned(cap value.Capability, dst, src value.Handle) {
	n, _ := cap.Length(src)
	for i := 0; i < n; i++ {
		elem, _ := cap.Index(src, i)
		cap.AddElem(dst, cap.Clone(elem))
	}
}

func (e *Evaluator) evalIndex(n *ast.Index, scope, root value.Handle) (value.Handle, error) {
	coll, err := e.Eval(n.Collection, scope, root)
	if err != nil {
		return nil, err
	}
	defer e.Cap.Free(coll)
	loH, err := e.Eval(n.Lo, scope, root)
	if err != nil {
		return nil, err
	}
	defer e.Cap.Free(loH)
	var hiH value.Handle
	if n.Hi != nil {
		hiH, err = e.Eval(n.Hi, scope, root)
		if err != nil {
			return nil, err
		}
		defer e.Cap.Free(hiH)
	}
	line := n.Span().Line
	cap := e.Cap

	switch cap.Type(coll) {
	case value.KindObject:
		if n.Hi != nil {
			return nil, errcode.New(errcode.Type, line, "range indexing is not defined for objects")
		}
		key, ok := cap.String(loH)
		if !ok {
			return nil, errcode.New(errcode.Type, line, "object index must be a string")
		}
		v, ok := cap.Get(coll, key)
		if !ok {
			return nil, errcode.New(errcode.Value, line, "no key %q in object", key)
		}
		return cap.Clone(v), nil

	case value.KindString:
		s, _ := cap.String(coll)
		lo, ok := cap.Number(loH)
		if !ok {
			return nil, errcode.New(errcode.Type, line, "string index must be a number")
		}
		if n.Hi == nil {
			idx := normalizeIndex(int(lo), len(s))
			if idx < 0 || idx >= len(s) {
				return nil, errcode.New(errcode.Value, line, "string index out of range")
			}
			return cap.NewString(s[idx : idx+1]), nil
		}
		hi, ok := cap.Number(hiH)
		if !ok {
			return nil, errcode.New(errcode.Type, line, "string range index must be a number")
		}
		a, b := clampRange(int(lo), int(hi), len(s))
		return cap.NewString(s[a:b]), nil

	case value.KindArray:
		length, _ := cap.Length(coll)
		lo, ok := cap.Number(loH)
		if !ok {
			return nil, errcode.New(errcode.Type, line, "array index must be a number")
		}
		if n.Hi == nil {
			idx := normalizeIndex(int(lo), length)
			if idx < 0 || idx >= length {
				return nil, errcode.New(errcode.Value, line, "array index out of range")
			}
			elem, _ := cap.Index(coll, idx)
			return cap.Clone(elem), nil
		}
		hi, ok := cap.Number(hiH)
		if !ok {
			return nil, errcode.New(errcode.Type, line, "array range index must be a number")
		}
		a, b := clampRange(int(lo), int(hi), length)
		out := cap.NewArray()
		for i := a; i < b; i++ {
			elem, _ := cap.Index(coll, i)
			cap.AddElem(out, cap.Clone(elem))
		}
		return out, nil

	default:
		return nil, errcode.New(errcode.Type, line, "cannot index a %s", cap.Type(coll))
	}
}

func (e *Evaluator) evalMethod(n *ast.Method, scope, root value.Handle) (value.Handle, error) {
	recv, err := e.Eval(n.Object, scope, root)
	if err != nil {
		return nil, err
	}
	defer e.Cap.Free(recv)

	args := make([]value.Handle, 0, len(n.Args))
	defer func() {
		for _, a := range args {
			e.Cap.Free(a)
		}
	}()
	for _, argExpr := range n.Args {
		v, err := e.Eval(argExpr, scope, root)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	return e.dispatchMethod(n.Span().Line, n.Name, recv, args)
}
