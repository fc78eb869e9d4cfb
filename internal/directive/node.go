// Package directive implements spec components E and F: the template
// tokenizer (source bytes to a flat directive list) and the block builder
// (flat list to a directive tree). It follows the design note's recommended
// approach (ii): nested owned child slices, with if/elif/else grouped into a
// single conditional-chain node rather than left as builder-linked siblings.
package directive

import "github.com/lattice-tmpl/lattice/internal/ast"

// Node is one element of a directive tree. Every concrete type below
// corresponds to one of spec.md §3's directive token tags; `end` never
// appears in a built tree (it only delimits during tokenizing/building).
type Node interface {
	Line() int
	directiveNode()
}

type base struct{ At int }

func (b base) Line() int      { return b.At }
func (base) directiveNode()   {}

// Span is a run of literal output bytes between directives.
type Span struct {
	base
	Text string
}

// SubEsc is `$[expr]`: evaluate, then pass through the escape function.
type SubEsc struct {
	base
	Expr ast.Node
}

// SubRaw is `${expr}`: evaluate, emit as-is (string) or JSON-printed.
type SubRaw struct {
	base
	Expr ast.Node
}

// Include is `$<path>` or the two-argument `$<path|fallback>` form.
// Children is filled in by the include resolver (component G) once the
// referenced template has been located, tokenized, and built.
type Include struct {
	base
	Path     string
	Fallback string // "" if no fallback was given
	Children []Node
}

// CondArm is one arm of a conditional chain: Cond is nil for the trailing
// `else` arm.
type CondArm struct {
	Cond ast.Node
	Body []Node
}

// Conditional groups an `if` with its `elif`/`else` siblings into one node,
// per the design note's recommended representation.
type Conditional struct {
	base
	Arms []CondArm
}

// CaseArm is one arm of a switch: Cond is nil for the `default` arm, which
// if present must be last (enforced by the builder).
type CaseArm struct {
	Cond ast.Node
	Body []Node
}

// Switch evaluates Disc once and renders the first matching Cases arm.
type Switch struct {
	base
	Disc  ast.Node
	Cases []CaseArm
}

// ForRangeExc is `$for id from lo..hi:`: iterates lo, lo+1, ... while i < hi.
type ForRangeExc struct {
	base
	Var      string
	Lo, Hi   ast.Node
	Body     []Node
}

// ForRangeInc is `$for id from lo..=hi:`: iterates while i <= hi.
type ForRangeInc struct {
	base
	Var    string
	Lo, Hi ast.Node
	Body   []Node
}

// ForIter is `$for id in coll:`: iterates a string's characters, an array's
// elements, or an object's keys.
type ForIter struct {
	base
	Var  string
	Iter ast.Node
	Body []Node
}

// With rebinds the scope to Expr's value for the duration of Body.
type With struct {
	base
	Expr ast.Node
	Body []Node
}
