// Package errcode holds the error taxonomy (spec component I, "Error
// Plumbing") shared by every internal package and re-exported by the root
// package as the public Error/ErrorCode types. Keeping it here, rather than
// in the root package, lets internal/lexer, internal/parser, internal/eval,
// internal/directive, and include all construct typed errors without
// importing the root package (which imports them).
package errcode

import "fmt"

// Code is spec.md §7's error taxonomy.
type Code int

const (
	Unknown Code = iota
	Allocation
	IO
	Options
	JSON
	Syntax
	Type
	Value
	Name
	Include
)

func (c Code) String() string {
	switch c {
	case Unknown:
		return "unknown"
	case Allocation:
		return "allocation"
	case IO:
		return "io"
	case Options:
		return "options"
	case JSON:
		return "json"
	case Syntax:
		return "syntax"
	case Type:
		return "type"
	case Value:
		return "value"
	case Name:
		return "name"
	case Include:
		return "include"
	default:
		return "error"
	}
}

// Err is the typed error record spec.md §6/§7 describes: a code, the source
// line of the offending directive or expression, an optional included-file
// tag, and a message.
type Err struct {
	Code    Code
	Line    int
	Include string // included-file identifier, set when the error surfaces through an include
	Message string
}

func (e *Err) Error() string {
	if e.Include != "" {
		return fmt.Sprintf("%s: %s (%s:%d)", e.Code, e.Message, e.Include, e.Line)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Code, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs an Err at the given line with a formatted message.
func New(code Code, line int, format string, args ...any) *Err {
	return &Err{Code: code, Line: line, Message: fmt.Sprintf(format, args...)}
}

// WithInclude tags an error with the included-file identifier it surfaced
// through, without overwriting one an inner include already set (the
// innermost/original file name is the one spec.md's scenario 6 expects in
// the message).
func (e *Err) WithInclude(name string) *Err {
	if e.Include == "" {
		e.Include = name
	}
	return e
}
