package include

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-tmpl/lattice/internal/directive"
)

func buildOne(t *testing.T, src string) *directive.Include {
	t.Helper()
	flats, err := directive.Tokenize(src)
	require.NoError(t, err)
	nodes, err := directive.Build(flats)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	inc, ok := nodes[0].(*directive.Include)
	require.True(t, ok)
	return inc
}

func TestResolveDefaultsToCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.tmpl"), []byte("hi"), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	inc := buildOne(t, "$<header.tmpl>")
	r := New(Options{})
	require.NoError(t, r.ResolveAll([]directive.Node{inc}, nil))
	require.Len(t, inc.Children, 1)
	span, ok := inc.Children[0].(*directive.Span)
	require.True(t, ok)
	assert.Equal(t, "hi", span.Text)
}

func TestResolveSearchesEachPathInOrder(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(b, "body.tmpl"), []byte("from b"), 0o644))

	inc := buildOne(t, "$<body.tmpl>")
	r := New(Options{SearchPath: []string{a, b}})
	require.NoError(t, r.ResolveAll([]directive.Node{inc}, nil))
	require.Len(t, inc.Children, 1)
	span := inc.Children[0].(*directive.Span)
	assert.Equal(t, "from b", span.Text)
}

func TestResolveMissingIncludeIsIncludeError(t *testing.T) {
	dir := t.TempDir()
	inc := buildOne(t, "$<missing.tmpl>")
	r := New(Options{SearchPath: []string{dir}})
	err := r.ResolveAll([]directive.Node{inc}, nil)
	require.Error(t, err)
}

func TestResolveCallbackAsPathWhenSearchPathEmpty(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "actual.tmpl")
	require.NoError(t, os.WriteFile(target, []byte("resolved"), 0o644))

	inc := buildOne(t, "$<logical-name>")
	r := New(Options{
		Resolve: func(path string) (string, error) {
			assert.Equal(t, "logical-name", path)
			return target, nil
		},
	})
	require.NoError(t, r.ResolveAll([]directive.Node{inc}, nil))
	span := inc.Children[0].(*directive.Span)
	assert.Equal(t, "resolved", span.Text)
}

func TestResolveCallbackAsContentsWhenSearchPathSet(t *testing.T) {
	inc := buildOne(t, "$<logical-name>")
	r := New(Options{
		SearchPath: []string{"unused"},
		Resolve: func(path string) (string, error) {
			return "straight from the callback", nil
		},
	})
	require.NoError(t, r.ResolveAll([]directive.Node{inc}, nil))
	span := inc.Children[0].(*directive.Span)
	assert.Equal(t, "straight from the callback", span.Text)
}

func TestResolveDetectsRecursiveInclude(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.tmpl"), []byte("$<b.tmpl>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.tmpl"), []byte("$<a.tmpl>"), 0o644))

	inc := buildOne(t, "$<a.tmpl>")
	r := New(Options{SearchPath: []string{dir}})
	err := r.ResolveAll([]directive.Node{inc}, nil)
	require.Error(t, err)
}

func TestResolveFallbackEngagesOnlyWhenPrimaryResolutionFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fallback.tmpl"), []byte("fallback text"), 0o644))

	inc := buildOne(t, "$<primary.tmpl|fallback.tmpl>")
	r := New(Options{SearchPath: []string{dir}})
	require.NoError(t, r.ResolveAll([]directive.Node{inc}, nil))
	span := inc.Children[0].(*directive.Span)
	assert.Equal(t, "fallback text", span.Text)
}

func TestResolveFailingFallbackIsReportedUnderPrimaryName(t *testing.T) {
	dir := t.TempDir()
	inc := buildOne(t, "$<primary.tmpl|also-missing.tmpl>")
	r := New(Options{SearchPath: []string{dir}})
	err := r.ResolveAll([]directive.Node{inc}, nil)
	require.Error(t, err)
}

func TestResolveNestedIncludesRecurseThroughControlFlow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inner.tmpl"), []byte("deep"), 0o644))

	flats, err := directive.Tokenize("$if x:$<inner.tmpl>$end")
	require.NoError(t, err)
	nodes, err := directive.Build(flats)
	require.NoError(t, err)

	r := New(Options{SearchPath: []string{dir}})
	require.NoError(t, r.ResolveAll(nodes, nil))

	cond := nodes[0].(*directive.Conditional)
	inc := cond.Arms[0].Body[0].(*directive.Include)
	require.Len(t, inc.Children, 1)
	span := inc.Children[0].(*directive.Span)
	assert.Equal(t, "deep", span.Text)
}
