package lattice

// Options is spec.md §6's options record. A zero Options is a valid
// default: resolve includes against the current directory, use the
// built-in HTML escape, and treat a zero-byte emit as an IO error.
type Options struct {
	// SearchPath is an ordered list of directories searched for include
	// identifiers. Empty means "search the current directory".
	SearchPath []string

	// Resolve, if set, overrides filesystem search for includes. See
	// include.Options for the exact calling convention.
	Resolve func(path string) (string, error)

	// Escape transforms a raw substitution's string form before a `$[...]`
	// directive emits it. Nil means DefaultEscape.
	Escape func(string) string

	// IgnoreEmitZero treats an emit callback returning (0, nil) as "wrote
	// nothing, keep going" instead of an IO error.
	IgnoreEmitZero bool
}

func (o Options) escape() func(string) string {
	if o.Escape != nil {
		return o.Escape
	}
	return DefaultEscape
}
