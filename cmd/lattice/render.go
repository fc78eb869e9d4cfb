package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lattice-tmpl/lattice"
	"github.com/lattice-tmpl/lattice/value"
)

type renderCmd struct {
	Templates      []string `arg:"" help:"Template files to render, in order." type:"existingfile"`
	SearchPath     []string `help:"Directories to search for $<...> includes (default: the current directory)."`
	Escape         string   `help:"Escape mode for $[...] substitutions." enum:"html,none" default:"html"`
	IgnoreEmitZero bool     `help:"Treat a zero-byte write to stdout as success."`
}

func ioErr(format string, args ...any) error {
	return &lattice.Error{Code: lattice.ErrIO, Message: fmt.Sprintf(format, args...)}
}

func jsonErr(format string, args ...any) error {
	return &lattice.Error{Code: lattice.ErrJSON, Message: fmt.Sprintf(format, args...)}
}

func (r *renderCmd) Run(app *appContext) error {
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ioErr("reading stdin: %v", err)
	}

	backend := value.NewStdBackend()
	root, err := backend.Parse(string(input))
	if err != nil {
		return jsonErr("parsing stdin as JSON: %v", err)
	}
	defer backend.Free(root)

	opts := lattice.Options{
		SearchPath:     r.searchPath(app),
		IgnoreEmitZero: r.IgnoreEmitZero || app.cfg.IgnoreEmitZero,
	}
	if r.Escape == "none" || app.cfg.Escape == "none" {
		opts.Escape = func(s string) string { return s }
	}

	for _, path := range r.Templates {
		src, err := os.ReadFile(path)
		if err != nil {
			return ioErr("reading template %s: %v", path, err)
		}
		tmpl, err := lattice.Parse(path, string(src), opts)
		if err != nil {
			return err
		}
		app.logger.Debug("rendering", "template", path)
		if _, err := tmpl.RenderToFile(backend, root, os.Stdout); err != nil {
			return err
		}
	}
	return nil
}

// searchPath prefers an explicit flag over the layered config's default,
// matching spec.md §6's "options override configuration" expectation.
func (r *renderCmd) searchPath(app *appContext) []string {
	if len(r.SearchPath) > 0 {
		return r.SearchPath
	}
	return app.cfg.SearchPath
}
