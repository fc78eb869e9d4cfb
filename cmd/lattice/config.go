package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the render defaults layered from (lowest to highest
// precedence) built-in defaults, an optional lattice.yaml file,
// LATTICE_-prefixed environment variables, and CLI flags.
type Config struct {
	SearchPath     []string `koanf:"search_path"`
	Escape         string   `koanf:"escape"`
	IgnoreEmitZero bool     `koanf:"ignore_emit_zero"`
}

// loadConfig layers configuration the way leapsql's CLI does, adapted to
// Lattice's much smaller settings surface. path overrides the default
// "lattice.yaml" lookup in the current directory; empty means "look for
// the default name, and it's fine if it isn't there".
func loadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"escape":           "html",
		"ignore_emit_zero": false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("loading config defaults: %w", err)
	}

	configPath := path
	if configPath == "" {
		configPath = "lattice.yaml"
	}
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	} else if path != "" {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider("LATTICE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LATTICE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	fs := pflag.NewFlagSet("lattice", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.StringSlice("search-path", nil, "directories to search for $<...> includes")
	fs.String("escape", "", "escape mode for $[...] substitutions: html or none")
	fs.Bool("ignore-emit-zero", false, "treat a zero-byte emit as success")
	_ = fs.Parse(os.Args[1:])

	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading flag overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}
