// Package lattice implements the Lattice text-templating engine: literal
// byte spans interleaved with `$`-sigil directives for substitution,
// conditionals, iteration, scoping, and inclusion, evaluated against a
// caller-supplied JSON-shaped value model.
//
// A Template is parsed once with Parse and may be rendered many times
// against different root values with Render, RenderToBuffer, or
// RenderToFile. The engine holds no dependency on a concrete JSON library:
// callers provide a value.Capability, and value.StdBackend is a ready-to-use
// implementation backed by encoding/json.
package lattice
