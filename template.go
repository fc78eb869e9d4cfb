package lattice

import (
	"github.com/lattice-tmpl/lattice/include"
	"github.com/lattice-tmpl/lattice/internal/directive"
)

// Template is a parsed Lattice template: a directive tree with every
// `$<path>` include already located, tokenized, and block-built. It holds
// no reference to a value.Capability or a root value, so one Template may
// be rendered many times against different roots, and even against
// different Capability implementations (spec.md §3 "Lifecycles").
type Template struct {
	name string
	body []directive.Node
	opts Options
}

// Parse tokenizes, block-builds, and resolves includes for src, returning a
// Template ready to Render. name identifies the template for include-error
// messages; it need not be a real filesystem path when Options.Resolve or
// the top-level caller never includes anything.
func Parse(name, src string, opts Options) (*Template, error) {
	flats, err := directive.Tokenize(src)
	if err != nil {
		return nil, err
	}
	body, err := directive.Build(flats)
	if err != nil {
		return nil, err
	}

	resolver := include.New(include.Options{
		SearchPath: opts.SearchPath,
		Resolve:    opts.Resolve,
	})
	// TODO: name matches the stack id resolveInclude compares against only
	// when SearchPath is empty; under an explicit SearchPath the resolved
	// id is filepath.Join(dir, name), so a top-level self-include can be
	// reported one frame deeper than the innermost-name-wins rule intends.
	if err := resolver.ResolveAll(body, []string{name}); err != nil {
		return nil, err
	}

	return &Template{name: name, body: body, opts: opts}, nil
}

// Name returns the identifier Template was parsed with.
func (t *Template) Name() string { return t.name }
