// Package include implements spec component G, the include resolver: it
// locates, reads, tokenizes, and block-builds templates referenced by
// `$<path>` directives, recursively, guarding against include cycles.
package include

import (
	"os"
	"path/filepath"

	"github.com/lattice-tmpl/lattice/internal/directive"
	"github.com/lattice-tmpl/lattice/internal/errcode"
)

// Options mirrors spec.md §6's options record fields relevant to include
// resolution. A zero Options is a valid default: search the current
// directory, no caller callback.
type Options struct {
	// SearchPath, if non-empty, is an ordered list of directories to search
	// for an include identifier.
	SearchPath []string

	// Resolve, if set, overrides filesystem search. Its return value is
	// interpreted as a resolved path when SearchPath is empty, or as the
	// included template's contents directly when SearchPath is non-empty
	// (spec.md §4.G's behaviour table).
	Resolve func(path string) (string, error)
}

// Resolver walks a directive tree filling in Include nodes' Children by
// loading and parsing the templates they name.
type Resolver struct {
	opts Options
}

// New constructs a Resolver bound to opts.
func New(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// ResolveAll recursively resolves every Include node reachable from nodes.
// stack holds the resolved identifiers of templates currently being
// expanded, for recursive-include detection; callers resolving a top-level
// template pass a nil stack.
func (r *Resolver) ResolveAll(nodes []directive.Node, stack []string) error {
	for _, n := range nodes {
		switch nd := n.(type) {
		case *directive.Include:
			if err := r.resolveInclude(nd, stack); err != nil {
				return err
			}
		case *directive.Conditional:
			for _, arm := range nd.Arms {
				if err := r.ResolveAll(arm.Body, stack); err != nil {
					return err
				}
			}
		case *directive.Switch:
			for _, c := range nd.Cases {
				if err := r.ResolveAll(c.Body, stack); err != nil {
					return err
				}
			}
		case *directive.ForRangeExc:
			if err := r.ResolveAll(nd.Body, stack); err != nil {
				return err
			}
		case *directive.ForRangeInc:
			if err := r.ResolveAll(nd.Body, stack); err != nil {
				return err
			}
		case *directive.ForIter:
			if err := r.ResolveAll(nd.Body, stack); err != nil {
				return err
			}
		case *directive.With:
			if err := r.ResolveAll(nd.Body, stack); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) resolveInclude(nd *directive.Include, stack []string) error {
	contents, id, err := r.load(nd.Path)
	if err != nil {
		if nd.Fallback == "" {
			return wrapInclude(err, nd.Path)
		}
		contents, id, err = r.load(nd.Fallback)
		if err != nil {
			// A failed fallback is reported under the primary path's name,
			// per spec.md's "supplemented features" include-fallback note.
			return wrapInclude(err, nd.Path)
		}
	}

	for _, s := range stack {
		if s == id {
			return errcode.New(errcode.Include, nd.Line(), "recursive include of %q", id).WithInclude(id)
		}
	}

	flats, err := directive.Tokenize(contents)
	if err != nil {
		return wrapInclude(err, id)
	}
	children, err := directive.Build(flats)
	if err != nil {
		return wrapInclude(err, id)
	}
	if err := r.ResolveAll(children, append(stack, id)); err != nil {
		return err
	}
	nd.Children = children
	return nil
}

// load implements spec.md §4.G's four-row behaviour table.
func (r *Resolver) load(path string) (contents, id string, err error) {
	if r.opts.Resolve == nil {
		dirs := r.opts.SearchPath
		if len(dirs) == 0 {
			dirs = []string{"."}
		}
		for _, dir := range dirs {
			full := filepath.Join(dir, path)
			data, readErr := os.ReadFile(full)
			if readErr == nil {
				return string(data), full, nil
			}
		}
		return "", "", errcode.New(errcode.Include, 0, "cannot resolve include %q", path)
	}

	result, resolveErr := r.opts.Resolve(path)
	if resolveErr != nil {
		return "", "", errcode.New(errcode.Include, 0, "resolve callback failed for %q: %v", path, resolveErr)
	}
	if len(r.opts.SearchPath) == 0 {
		data, readErr := os.ReadFile(result)
		if readErr != nil {
			return "", "", errcode.New(errcode.Include, 0, "cannot read resolved include %q: %v", result, readErr)
		}
		return string(data), result, nil
	}
	return result, path, nil
}

func wrapInclude(err error, name string) error {
	if e, ok := err.(*errcode.Err); ok {
		return e.WithInclude(name)
	}
	return err
}
