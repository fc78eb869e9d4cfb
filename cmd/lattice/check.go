package main

import (
	"fmt"
	"os"

	"github.com/lattice-tmpl/lattice"
)

type checkCmd struct {
	Templates  []string `arg:"" help:"Template files to parse." type:"existingfile"`
	SearchPath []string `help:"Directories to search for $<...> includes."`
}

func (c *checkCmd) Run(app *appContext) error {
	opts := lattice.Options{SearchPath: c.SearchPath}
	if len(opts.SearchPath) == 0 {
		opts.SearchPath = app.cfg.SearchPath
	}

	for _, path := range c.Templates {
		src, err := os.ReadFile(path)
		if err != nil {
			return ioErr("reading template %s: %v", path, err)
		}
		if _, err := lattice.Parse(path, string(src), opts); err != nil {
			return err
		}
		fmt.Printf("%s: ok\n", path)
	}
	return nil
}
