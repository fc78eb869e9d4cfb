package eval

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-tmpl/lattice/value"
)

func TestMethodNumberOfBadStringYieldsZero(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	recv := be.NewString("not a number")
	v, err := ev.dispatchMethod(0, "number", recv, nil)
	require.NoError(t, err)
	n, ok := be.Number(v)
	require.True(t, ok)
	assert.Equal(t, 0.0, n)
}

func TestMethodNumberOfGoodString(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	v, err := ev.dispatchMethod(0, "number", be.NewString("  3.5 "), nil)
	require.NoError(t, err)
	n, _ := be.Number(v)
	assert.Equal(t, 3.5, n)
}

func TestMethodRoundIsHalfAwayFromZero(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	cases := []struct {
		in, want float64
	}{
		{2.5, 3},
		{-2.5, -3},
		{2.4, 2},
		{-2.4, -2},
	}
	for _, c := range cases {
		v, err := ev.dispatchMethod(0, "round", be.NewNumber(c.in), nil)
		require.NoError(t, err)
		n, _ := be.Number(v)
		assert.Equal(t, c.want, n, c.in)
	}
}

func TestMethodUnknownNameReturnsNull(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	v, err := ev.dispatchMethod(0, "no_such_method", be.NewNumber(1), nil)
	require.NoError(t, err)
	assert.Equal(t, value.KindNull, be.Type(v))
}

func TestMethodKnownNameWrongArityIsValueError(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	_, err := ev.dispatchMethod(0, "upper", be.NewString("x"), []value.Handle{be.NewString("extra")})
	require.Error(t, err)
}

func TestMethodWrongReceiverTypeIsTolerantNull(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	// "upper" on a number has no defined behavior: tolerant null, not error.
	v, err := ev.dispatchMethod(0, "upper", be.NewNumber(42), nil)
	require.NoError(t, err)
	assert.Equal(t, value.KindNull, be.Type(v))
}

func TestMethodLowerUpperAreASCIIOnly(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	v, err := ev.dispatchMethod(0, "upper", be.NewString("Hello, World!"), nil)
	require.NoError(t, err)
	s, _ := be.String(v)
	assert.Equal(t, "HELLO, WORLD!", s)

	v, err = ev.dispatchMethod(0, "lower", be.NewString("Hello, World!"), nil)
	require.NoError(t, err)
	s, _ = be.String(v)
	assert.Equal(t, "hello, world!", s)
}

func TestMethodContainsAndFind(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	arr := be.NewArray()
	be.AddElem(arr, be.NewNumber(1))
	be.AddElem(arr, be.NewNumber(2))
	be.AddElem(arr, be.NewNumber(3))

	v, err := ev.dispatchMethod(0, "contains", arr, []value.Handle{be.NewNumber(2)})
	require.NoError(t, err)
	b, _ := be.Bool(v)
	assert.True(t, b)

	v, err = ev.dispatchMethod(0, "find", arr, []value.Handle{be.NewNumber(3)})
	require.NoError(t, err)
	n, _ := be.Number(v)
	assert.Equal(t, 2.0, n)

	v, err = ev.dispatchMethod(0, "find", arr, []value.Handle{be.NewNumber(99)})
	require.NoError(t, err)
	n, _ = be.Number(v)
	assert.Equal(t, -1.0, n)
}

func TestMethodJoin(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	arr := be.NewArray()
	be.AddElem(arr, be.NewString("a"))
	be.AddElem(arr, be.NewString("b"))
	be.AddElem(arr, be.NewString("c"))

	v, err := ev.dispatchMethod(0, "join", arr, []value.Handle{be.NewString("-")})
	require.NoError(t, err)
	s, _ := be.String(v)
	assert.Equal(t, "a-b-c", s)
}

func TestMethodRepeat(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	v, err := ev.dispatchMethod(0, "repeat", be.NewString("ab"), []value.Handle{be.NewNumber(3)})
	require.NoError(t, err)
	s, _ := be.String(v)
	assert.Equal(t, "ababab", s)
}

func TestMethodKeysAndValues(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	obj := be.NewObject()
	be.SetKey(obj, "a", be.NewNumber(1))
	be.SetKey(obj, "b", be.NewNumber(2))

	v, err := ev.dispatchMethod(0, "keys", obj, nil)
	require.NoError(t, err)
	n, _ := be.Length(v)
	assert.Equal(t, 2, n)

	v, err = ev.dispatchMethod(0, "values", obj, nil)
	require.NoError(t, err)
	n, _ = be.Length(v)
	assert.Equal(t, 2, n)
}

func TestMethodNaNAndReal(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	v, err := ev.dispatchMethod(0, "nan", be.NewNumber(1), nil)
	require.NoError(t, err)
	b, _ := be.Bool(v)
	assert.False(t, b)

	v, err = ev.dispatchMethod(0, "real", be.NewNumber(1), nil)
	require.NoError(t, err)
	b, _ = be.Bool(v)
	assert.True(t, b)
}

func TestMethodDatetimeFormatsKnownDirectives(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	v, err := ev.dispatchMethod(0, "datetime", be.NewString("%Y-%m-%d"), nil)
	require.NoError(t, err)
	s, _ := be.String(v)
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), s)
}

func TestMethodDatetimeRejectsOversizedPattern(t *testing.T) {
	be := value.NewStdBackend()
	ev := New(be)
	huge := make([]byte, maxDatetimePattern+1)
	for i := range huge {
		huge[i] = 'Y'
	}
	_, err := ev.dispatchMethod(0, "datetime", be.NewString(string(huge)), nil)
	require.Error(t, err)
}
