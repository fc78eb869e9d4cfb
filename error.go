package lattice

import "github.com/lattice-tmpl/lattice/internal/errcode"

// ErrorCode is spec.md §7's error taxonomy, re-exported here so callers
// never need to import internal/errcode directly.
type ErrorCode = errcode.Code

// Error is the typed error record every Lattice operation returns on
// failure: a code, the offending source line, an optional included-file
// tag, and a message.
type Error = errcode.Err

// Error codes, re-exported from internal/errcode.
const (
	ErrUnknown    = errcode.Unknown
	ErrAllocation = errcode.Allocation
	ErrIO         = errcode.IO
	ErrOptions    = errcode.Options
	ErrJSON       = errcode.JSON
	ErrSyntax     = errcode.Syntax
	ErrType       = errcode.Type
	ErrValue      = errcode.Value
	ErrName       = errcode.Name
	ErrInclude    = errcode.Include
)
