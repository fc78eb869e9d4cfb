package parser

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-tmpl/lattice/internal/ast"
	"github.com/lattice-tmpl/lattice/internal/lexer"
	"github.com/lattice-tmpl/lattice/internal/span"
)

// exportAll lets cmp.Diff traverse the ast nodes' unexported embedded
// base struct instead of panicking on it.
var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

func parseSrc(t *testing.T, src string) ast.Node {
	t.Helper()
	toks, err := lexer.New(src, 0, 1, "", false).Lex()
	require.NoError(t, err)
	node, err := Parse(toks)
	require.NoError(t, err)
	return node
}

func TestParsePrecedenceArithmeticOverComparisonOverLogic(t *testing.T) {
	// && and || share the lowest level and associate left, so
	// a || b && c == d + e * f  must parse as  (a || b) && (c == (d + (e * f)))
	n := parseSrc(t, "a || b && c == d + e * f")
	andNode, ok := n.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpBoth, andNode.Op)

	orNode, ok := andNode.Left.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpEither, orNode.Op)

	eqNode, ok := andNode.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpEq, eqNode.Op)

	addNode, ok := eqNode.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, addNode.Op)

	mulNode, ok := addNode.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, mulNode.Op)
}

func TestParsePowerIsLeftAssociative(t *testing.T) {
	// 2 ** 3 ** 2 must parse as (2 ** 3) ** 2, not 2 ** (3 ** 2).
	n := parseSrc(t, "2 ** 3 ** 2")
	outer, ok := n.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpExp, outer.Op)

	inner, ok := outer.Left.(*ast.Binary)
	require.True(t, ok, "left operand of the outer ** must itself be a ** node")
	assert.Equal(t, ast.OpExp, inner.Op)

	_, rightIsBinary := outer.Right.(*ast.Binary)
	assert.False(t, rightIsBinary, "right operand must be the bare literal 2, not another ** node")
}

func TestParseTernary(t *testing.T) {
	n := parseSrc(t, "a ? b : c")
	tern, ok := n.(*ast.Ternary)
	require.True(t, ok)
	assert.IsType(t, &ast.Ident{}, tern.Cond)
	assert.IsType(t, &ast.Ident{}, tern.Then)
	assert.IsType(t, &ast.Ident{}, tern.Else)
}

func TestParseLookupAndMethodCall(t *testing.T) {
	n := parseSrc(t, "@.user.name.upper()")
	method, ok := n.(*ast.Method)
	require.True(t, ok)
	assert.Equal(t, "upper", method.Name)
	assert.Empty(t, method.Args)

	lookup, ok := method.Object.(*ast.Lookup)
	require.True(t, ok)
	assert.Equal(t, "name", lookup.Name)

	inner, ok := lookup.Object.(*ast.Lookup)
	require.True(t, ok)
	assert.Equal(t, "user", inner.Name)
	assert.IsType(t, &ast.Root{}, inner.Object)
}

func TestParseMethodCallWithArgs(t *testing.T) {
	n := parseSrc(t, "x.join(\", \")")
	method, ok := n.(*ast.Method)
	require.True(t, ok)
	assert.Equal(t, "join", method.Name)
	require.Len(t, method.Args, 1)
	assert.IsType(t, &ast.Str{}, method.Args[0])
}

func TestParseIndexAndRange(t *testing.T) {
	n := parseSrc(t, "xs[1, 3]")
	idx, ok := n.(*ast.Index)
	require.True(t, ok)
	require.NotNil(t, idx.Hi)
	lo, ok := idx.Lo.(*ast.Number)
	require.True(t, ok)
	assert.Equal(t, 1.0, lo.Value)
	hi, ok := idx.Hi.(*ast.Number)
	require.True(t, ok)
	assert.Equal(t, 3.0, hi.Value)
}

func TestParseArrayAndObjectLiterals(t *testing.T) {
	n := parseSrc(t, `[1, 2, 3]`)
	arr, ok := n.(*ast.Array)
	require.True(t, ok)
	assert.Len(t, arr.Items, 3)

	n = parseSrc(t, `{"a": 1, "b": 2}`)
	obj, ok := n.(*ast.Object)
	require.True(t, ok)
	require.Len(t, obj.Entries, 2)
	key, ok := obj.Entries[0].Key.(*ast.Str)
	require.True(t, ok)
	assert.Equal(t, "a", key.Value)
}

func TestParseUnaryOperators(t *testing.T) {
	n := parseSrc(t, "!-~x")
	not, ok := n.(*ast.Unary)
	require.True(t, ok)
	assert.Equal(t, ast.OpNot, not.Op)
	neg, ok := not.Operand.(*ast.Unary)
	require.True(t, ok)
	assert.Equal(t, ast.OpNeg, neg.Op)
	comp, ok := neg.Operand.(*ast.Unary)
	require.True(t, ok)
	assert.Equal(t, ast.OpComp, comp.Op)
}

func TestParseExtraTokensIsSyntaxError(t *testing.T) {
	toks, err := lexer.New("a b", 0, 1, "", false).Lex()
	require.NoError(t, err)
	_, err = Parse(toks)
	require.Error(t, err)
}

func TestParseUnexpectedTokenIsSyntaxError(t *testing.T) {
	toks, err := lexer.New(")", 0, 1, "", false).Lex()
	require.NoError(t, err)
	_, err = Parse(toks)
	require.Error(t, err)
}

// TestParseStructuralShapeMatchesHandBuiltTree diffs a full parsed
// expression against a tree built directly with the ast constructors,
// catching any shape or span drift a field-by-field assertion would miss.
func TestParseStructuralShapeMatchesHandBuiltTree(t *testing.T) {
	n := parseSrc(t, "a + b * 2")

	sp := span.Span{Line: 1}
	want := ast.NewBinary(sp, ast.OpAdd,
		ast.NewIdent(sp, "a"),
		ast.NewBinary(sp, ast.OpMul,
			ast.NewIdent(sp, "b"),
			ast.NewNumber(sp, 2),
		),
	)

	if diff := cmp.Diff(want, n, exportAll); diff != "" {
		t.Errorf("parsed tree differs from expected shape (-want +got):\n%s", diff)
	}
}

// TestParseStructuralShapeOfArrayAndTernary exercises cmp over slice-typed
// and multi-branch nodes (Array, Ternary) rather than only binary chains.
func TestParseStructuralShapeOfArrayAndTernary(t *testing.T) {
	n := parseSrc(t, "cond ? [1, 2] : [3]")

	sp := span.Span{Line: 1}
	want := ast.NewTernary(sp,
		ast.NewIdent(sp, "cond"),
		ast.NewArray(sp, []ast.Node{ast.NewNumber(sp, 1), ast.NewNumber(sp, 2)}),
		ast.NewArray(sp, []ast.Node{ast.NewNumber(sp, 3)}),
	)

	if diff := cmp.Diff(want, n, exportAll); diff != "" {
		t.Errorf("parsed tree differs from expected shape (-want +got):\n%s", diff)
	}
}
