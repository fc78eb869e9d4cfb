package lattice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-tmpl/lattice/value"
)

func renderSrc(t *testing.T, src string, root value.Handle, be value.Capability, opts Options) string {
	t.Helper()
	tmpl, err := Parse("inline", src, opts)
	require.NoError(t, err)
	out, err := tmpl.RenderToBuffer(be, root)
	require.NoError(t, err)
	return string(out)
}

func TestRenderEscapedAndRawSubstitution(t *testing.T) {
	be := value.NewStdBackend()
	root := be.NewObject()
	be.SetKey(root, "name", be.NewString(`<b>Ada</b>`))

	out := renderSrc(t, `$[name]`, root, be, Options{})
	assert.Equal(t, "&#60;b&#62;Ada&#60;/b&#62;", out)

	out = renderSrc(t, `${name}`, root, be, Options{})
	assert.Equal(t, "<b>Ada</b>", out)
}

func TestRenderCustomEscapeFunction(t *testing.T) {
	be := value.NewStdBackend()
	root := be.NewObject()
	be.SetKey(root, "name", be.NewString("ada"))

	out := renderSrc(t, `$[name]`, root, be, Options{Escape: func(s string) string { return "<<" + s + ">>" }})
	assert.Equal(t, "<<ada>>", out)
}

func TestRenderConditionalChain(t *testing.T) {
	be := value.NewStdBackend()
	root := be.NewObject()

	be.SetKey(root, "n", be.NewNumber(2))
	out := renderSrc(t, `$if n == 1:one$elif n == 2:two$else:other$end`, root, be, Options{})
	assert.Equal(t, "two", out)

	be.SetKey(root, "n", be.NewNumber(99))
	out = renderSrc(t, `$if n == 1:one$elif n == 2:two$else:other$end`, root, be, Options{})
	assert.Equal(t, "other", out)
}

func TestRenderForRangeIteration(t *testing.T) {
	be := value.NewStdBackend()
	root := be.NewObject()
	out := renderSrc(t, `$for i from 0..3:${i}-$end`, root, be, Options{})
	assert.Equal(t, "0-1-2-", out)

	out = renderSrc(t, `$for i from 0..=3:${i}-$end`, root, be, Options{})
	assert.Equal(t, "0-1-2-3-", out)
}

func TestRenderForInOverArray(t *testing.T) {
	be := value.NewStdBackend()
	root := be.NewObject()
	xs := be.NewArray()
	be.AddElem(xs, be.NewString("a"))
	be.AddElem(xs, be.NewString("b"))
	be.AddElem(xs, be.NewString("c"))
	be.SetKey(root, "xs", xs)

	out := renderSrc(t, `$for item in xs:${item}$end`, root, be, Options{})
	assert.Equal(t, "abc", out)
}

func TestRenderForInOverObjectRebindsScope(t *testing.T) {
	be := value.NewStdBackend()
	root := be.NewObject()
	be.SetKey(root, "title", be.NewString("report"))
	fields := be.NewObject()
	be.SetKey(fields, "a", be.NewNumber(1))
	be.SetKey(fields, "b", be.NewNumber(2))
	be.SetKey(root, "fields", fields)

	// Inside the loop, `title` must still resolve from the untouched outer
	// scope even though the loop variable `field` (bound to each key of
	// the object in turn) now also shares the current scope object.
	out := renderSrc(t, `$for field in fields:${title}:${field}/$end`, root, be, Options{})
	assert.Equal(t, "report:a/report:b/", out)
}

func TestRenderWithRebindsScope(t *testing.T) {
	be := value.NewStdBackend()
	root := be.NewObject()
	user := be.NewObject()
	be.SetKey(user, "name", be.NewString("grace"))
	be.SetKey(root, "user", user)

	out := renderSrc(t, `$with user:${name}$end`, root, be, Options{})
	assert.Equal(t, "grace", out)
}

func TestRenderIncludeResolution(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.tmpl"), []byte("HEADER"), 0o644))

	be := value.NewStdBackend()
	root := be.NewObject()
	out := renderSrc(t, `$<header.tmpl> body`, root, be, Options{SearchPath: []string{dir}})
	assert.Equal(t, "HEADER body", out)
}

func TestRenderRecursiveIncludeIsIncludeErrorNamingInnermostFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.tmpl"), []byte("$<b.tmpl>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.tmpl"), []byte("$<a.tmpl>"), 0o644))

	_, err := Parse("a.tmpl", "$<a.tmpl>", Options{SearchPath: []string{dir}})
	require.Error(t, err)
	var latErr *Error
	require.ErrorAs(t, err, &latErr)
	assert.Equal(t, ErrInclude, latErr.Code)
	// The cycle closes at b.tmpl's `$<a.tmpl>`, the innermost include.
	assert.Equal(t, filepath.Join(dir, "a.tmpl"), latErr.Include)
}

func TestRenderCommentIsDropped(t *testing.T) {
	be := value.NewStdBackend()
	root := be.NewObject()
	out := renderSrc(t, `before$(dropped)after`, root, be, Options{})
	assert.Equal(t, "beforeafter", out)
}

func TestRenderUndefinedNameIsNameError(t *testing.T) {
	be := value.NewStdBackend()
	root := be.NewObject()
	tmpl, err := Parse("inline", `${missing}`, Options{})
	require.NoError(t, err) // parsing never evaluates expressions
	_, err = tmpl.RenderToBuffer(be, root)
	require.Error(t, err)
	var latErr *Error
	require.ErrorAs(t, err, &latErr)
	assert.Equal(t, ErrName, latErr.Code)
}
