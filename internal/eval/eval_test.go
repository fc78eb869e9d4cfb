package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-tmpl/lattice/internal/lexer"
	"github.com/lattice-tmpl/lattice/internal/parser"
	"github.com/lattice-tmpl/lattice/value"
)

func TestEvalArithmetic(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()
	cases := []struct {
		src  string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 // 3", 3},
		{"10 % 3", 1},
		{"2 ** 10", 1024},
		{"-5 + 2", -3},
	}
	for _, c := range cases {
		v, be2, err := evalSrcWith(t, c.src, be, scope)
		require.NoError(t, err, c.src)
		n, ok := be2.Number(v)
		require.True(t, ok, c.src)
		assert.Equal(t, c.want, n, c.src)
	}
}

func evalSrcWith(t *testing.T, src string, be value.Capability, scope value.Handle) (value.Handle, value.Capability, error) {
	t.Helper()
	toks, err := lexer.New(src, 0, 1, "", false).Lex()
	require.NoError(t, err)
	node, err := parser.Parse(toks)
	require.NoError(t, err)
	ev := New(be)
	v, err := ev.Eval(node, scope, scope)
	return v, be, err
}

func TestEvalStringConcatAndRepeat(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()

	v, _, err := evalSrcWith(t, `"ab" + "cd"`, be, scope)
	require.NoError(t, err)
	s, _ := be.String(v)
	assert.Equal(t, "abcd", s)

	v, _, err = evalSrcWith(t, `"ab" * 3`, be, scope)
	require.NoError(t, err)
	s, _ = be.String(v)
	assert.Equal(t, "ababab", s)
}

func TestEvalArrayConcat(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()
	v, _, err := evalSrcWith(t, `[1, 2] + [3]`, be, scope)
	require.NoError(t, err)
	n, _ := be.Length(v)
	assert.Equal(t, 3, n)
}

func TestEvalIdentLookupAndRoot(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()
	be.SetKey(scope, "name", be.NewString("ada"))
	inner := be.NewObject()
	be.SetKey(inner, "count", be.NewNumber(3))
	be.SetKey(scope, "info", inner)

	v, _, err := evalSrcWith(t, "name", be, scope)
	require.NoError(t, err)
	s, _ := be.String(v)
	assert.Equal(t, "ada", s)

	v, _, err = evalSrcWith(t, "info.count", be, scope)
	require.NoError(t, err)
	n, _ := be.Number(v)
	assert.Equal(t, 3.0, n)

	v, _, err = evalSrcWith(t, "@.name", be, scope)
	require.NoError(t, err)
	s, _ = be.String(v)
	assert.Equal(t, "ada", s)
}

func TestEvalUndefinedNameIsNameError(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()
	_, _, err := evalSrcWith(t, "missing", be, scope)
	require.Error(t, err)
}

func TestEvalTernaryAndShortCircuit(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()

	v, _, err := evalSrcWith(t, "1 > 0 ? 10 : 20", be, scope)
	require.NoError(t, err)
	n, _ := be.Number(v)
	assert.Equal(t, 10.0, n)

	// The right side of || must not be evaluated (and so must not error)
	// when the left side is already truthy.
	v, _, err = evalSrcWith(t, "true || missing", be, scope)
	require.NoError(t, err)
	b, _ := be.Bool(v)
	assert.True(t, b)
}

func TestEvalComparisonAcrossTypesIsTypeError(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()
	_, _, err := evalSrcWith(t, `1 < "a"`, be, scope)
	require.Error(t, err)
}

func TestEvalContainerEqualityIsAlwaysFalse(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()
	v, _, err := evalSrcWith(t, "[1, 2] == [1, 2]", be, scope)
	require.NoError(t, err)
	b, _ := be.Bool(v)
	assert.False(t, b, "arrays must never compare equal, even to an identical literal")
}

func TestEvalIndexAndRange(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()
	be.SetKey(scope, "xs", parseArrayLiteral(t, be, "[10, 20, 30, 40]"))

	v, _, err := evalSrcWith(t, "xs[1]", be, scope)
	require.NoError(t, err)
	n, _ := be.Number(v)
	assert.Equal(t, 20.0, n)

	v, _, err = evalSrcWith(t, "xs[1, 3]", be, scope)
	require.NoError(t, err)
	length, _ := be.Length(v)
	assert.Equal(t, 2, length)

	v, _, err = evalSrcWith(t, "xs[-1]", be, scope)
	require.NoError(t, err)
	n, _ = be.Number(v)
	assert.Equal(t, 40.0, n)

	_, _, err = evalSrcWith(t, "xs[100]", be, scope)
	require.Error(t, err)
}

func parseArrayLiteral(t *testing.T, be value.Capability, src string) value.Handle {
	t.Helper()
	toks, err := lexer.New(src, 0, 1, "", false).Lex()
	require.NoError(t, err)
	node, err := parser.Parse(toks)
	require.NoError(t, err)
	v, err := New(be).Eval(node, be.NewObject(), be.NewObject())
	require.NoError(t, err)
	return v
}

func TestEvalBitwiseRequiresWholeFiniteNumbers(t *testing.T) {
	be := value.NewStdBackend()
	scope := be.NewObject()
	v, _, err := evalSrcWith(t, "6 & 3", be, scope)
	require.NoError(t, err)
	n, _ := be.Number(v)
	assert.Equal(t, 2.0, n)

	_, _, err = evalSrcWith(t, "1.5 & 3", be, scope)
	require.Error(t, err)
}
