// Command lattice is the CLI surface spec.md §6 sketches: a render pipeline
// over stdin/stdout, plus a check subcommand for syntax-only validation and
// a serve subcommand that renders templates from a directory over HTTP.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lattice-tmpl/lattice"
)

type cli struct {
	Config  string `help:"Path to a lattice.yaml config file." type:"path"`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Render renderCmd `cmd:"" help:"Render one or more templates against a JSON document read from stdin."`
	Check  checkCmd  `cmd:"" help:"Parse templates without rendering them, reporting any syntax errors."`
	Serve  serveCmd  `cmd:"" help:"Serve templates from a directory over HTTP."`
}

// appContext is threaded through every subcommand's Run method via kong's
// Bind mechanism, the way ardnew's cli package binds a shared context value.
type appContext struct {
	logger *slog.Logger
	cfg    *Config
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("lattice"),
		kong.Description("Render Lattice templates against a JSON value."),
		kong.UsageOnError(),
	)

	logger := newLogger(c.Verbose)
	cfg, err := loadConfig(c.Config)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}

	err = kctx.Run(&appContext{logger: logger, cfg: cfg})
	if err != nil {
		logger.Error("lattice", "error", err)
	}
	os.Exit(exitCode(err))
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitCode maps a Run error onto spec.md §6's exit-code table: 0 success, 1
// argument error, 2 IO, 3 JSON parse failure, 4 template error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var latErr *lattice.Error
	if !errors.As(err, &latErr) {
		return 1
	}
	switch latErr.Code {
	case lattice.ErrIO:
		return 2
	case lattice.ErrJSON:
		return 3
	default:
		return 4
	}
}
