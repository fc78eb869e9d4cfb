// Package ast defines the expression abstract syntax tree (spec component
// C's output / component D's input): the node set of spec.md §3 "Expression
// AST".
package ast

import "github.com/lattice-tmpl/lattice/internal/span"

// BinaryOp names a binary operator node's operation.
type BinaryOp int

const (
	OpEither BinaryOp = iota // || short-circuit OR
	OpBoth                   // && short-circuit AND
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpQuot // // floor division
	OpMod  // % IEEE fmod
	OpExp  // ** power
	OpAnd  // & bitwise
	OpOr   // | bitwise
	OpXor  // ^ bitwise
)

func (op BinaryOp) String() string {
	switch op {
	case OpEither:
		return "||"
	case OpBoth:
		return "&&"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpQuot:
		return "//"
	case OpMod:
		return "%"
	case OpExp:
		return "**"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	default:
		return "?"
	}
}

// UnaryOp names a unary operator node's operation.
type UnaryOp int

const (
	OpPos  UnaryOp = iota // unary +
	OpNeg                 // unary -
	OpNot                 // ! truthiness negation
	OpComp                // ~ bitwise complement
)

func (op UnaryOp) String() string {
	switch op {
	case OpPos:
		return "+"
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	case OpComp:
		return "~"
	default:
		return "?"
	}
}

// Node is implemented by every expression AST node. The unexported
// marker method keeps the node set closed to this package, mirroring the
// teacher's node()/expr() tag-interface idiom.
type Node interface {
	Span() span.Span
	exprNode()
}

type base struct {
	At span.Span
}

func (b base) Span() span.Span { return b.At }
func (base) exprNode()         {}

// Null is the literal `null`.
type Null struct{ base }

// Bool is a literal `true`/`false`.
type Bool struct {
	base
	Value bool
}

// Number is a literal numeric constant (always binary64).
type Number struct {
	base
	Value float64
}

// Str is a literal string constant.
type Str struct {
	base
	Value string
}

// Array is an array literal `[e, e, ...]`.
type Array struct {
	base
	Items []Node
}

// ObjectEntry is one `key: value` pair of an Object literal. Key is
// evaluated like any expression; spec.md requires it to produce a string
// (or null, to skip the entry) at evaluation time, not parse time.
type ObjectEntry struct {
	Key   Node
	Value Node
}

// Object is an object literal `{k: v, ...}`.
type Object struct {
	base
	Entries []ObjectEntry
}

// Binary is a two-operand operator node.
type Binary struct {
	base
	Op          BinaryOp
	Left, Right Node
}

// Unary is a one-operand operator node.
type Unary struct {
	base
	Op      UnaryOp
	Operand Node
}

// Root is the `@` expression: the top-level value passed to Render,
// reachable regardless of current scope.
type Root struct{ base }

// Ident is a bare identifier, looked up in the current scope object.
type Ident struct {
	base
	Name string
}

// Lookup is `obj.name` attribute access.
type Lookup struct {
	base
	Object Node
	Name   string
}

// Method is `obj.name(args...)` method dispatch.
type Method struct {
	base
	Object Node
	Name   string
	Args   []Node
}

// Index is `coll[i]` (Hi == nil) or the range form `coll[i, j]` (Hi != nil).
type Index struct {
	base
	Collection Node
	Lo         Node
	Hi         Node // nil for single-index form
}

// Ternary is `cond ? a : b`.
type Ternary struct {
	base
	Cond, Then, Else Node
}

// Constructors stamp the span at construction so the parser's call sites
// stay terse: ast.NewNull(sp), not &ast.Null{base{sp}}.

func NewNull(sp span.Span) *Null { return &Null{base{sp}} }
func NewBool(sp span.Span, v bool) *Bool { return &Bool{base{sp}, v} }
func NewNumber(sp span.Span, v float64) *Number { return &Number{base{sp}, v} }
func NewStr(sp span.Span, v string) *Str { return &Str{base{sp}, v} }
func NewArray(sp span.Span, items []Node) *Array { return &Array{base{sp}, items} }
func NewObject(sp span.Span, entries []ObjectEntry) *Object { return &Object{base{sp}, entries} }
func NewBinary(sp span.Span, op BinaryOp, l, r Node) *Binary { return &Binary{base{sp}, op, l, r} }
func NewUnary(sp span.Span, op UnaryOp, operand Node) *Unary { return &Unary{base{sp}, op, operand} }
func NewRoot(sp span.Span) *Root { return &Root{base{sp}} }
func NewIdent(sp span.Span, name string) *Ident { return &Ident{base{sp}, name} }
func NewLookup(sp span.Span, obj Node, name string) *Lookup { return &Lookup{base{sp}, obj, name} }
func NewMethod(sp span.Span, obj Node, name string, args []Node) *Method {
	return &Method{base{sp}, obj, name, args}
}
func NewIndex(sp span.Span, coll, lo, hi Node) *Index { return &Index{base{sp}, coll, lo, hi} }
func NewTernary(sp span.Span, cond, then, els Node) *Ternary {
	return &Ternary{base{sp}, cond, then, els}
}
