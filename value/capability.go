// Package value defines the abstract value model that Lattice templates
// evaluate over (spec component A, "Value Capability"), plus a built-in
// reference implementation of it.
//
// The engine never assumes a concrete JSON representation. Instead every
// piece of code that needs to inspect or build a value — the expression
// evaluator and the renderer — goes
// through a Capability, a small vtable-shaped interface analogous to the
// function-pointer table the original C implementation's callers supply
// (see lattice.h's lattice_iface in _examples/original_source). Swapping the
// Capability swaps the JSON backend without touching the tokenizer, parser,
// or evaluator.
//
// Handle is the opaque reference type a Capability hands back and accepts.
// Treat it the way spec.md treats the C implementation's void* handles:
// owned, freshly allocated on every constructor/clone/parse call, and
// caller-freeable via Free. A Go implementation's Free is usually a no-op
// (the garbage collector owns reclamation) but the method stays part of the
// interface so a Capability backed by pooled or cgo-owned memory can honor
// it; StdBackend's Free does nothing.
package value

import "fmt"

// Kind is one of the six JSON-shaped type tags spec.md §3 defines.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Handle is an opaque reference to a value owned by a Capability. The core
// never looks inside it; every operation on a Handle goes back through the
// Capability that produced it.
type Handle = any

// Capability is the abstract interface to the caller's JSON model (spec
// component A). One implementation, StdBackend, ships with this package as a
// usable default; callers with their own JSON tree (a decoder's
// map[string]any, a third-party parser's node type, cgo bindings onto a C
// JSON library) implement Capability directly over it instead of converting.
//
// Length, Index, and String report byte lengths and byte-indexed positions,
// not Unicode codepoints or runes: spec.md §1 scopes the engine to ASCII
// template and value content and explicitly excludes Unicode-aware
// behavior, so a byte is the unit of measure throughout.
type Capability interface {
	// Parse decodes a JSON document into a freshly owned Handle.
	Parse(src string) (Handle, error)
	// Print serializes a Handle back to a JSON string. It does not consume
	// or free h.
	Print(h Handle) (string, error)
	// Free releases a Handle previously returned by any other method on
	// this Capability. Implementations that don't need explicit release
	// (StdBackend included) may make this a no-op.
	Free(h Handle)

	// Clone returns a deep, independently owned copy of h.
	Clone(h Handle) Handle

	// NewNull, NewBool, NewNumber, and NewString construct a fresh scalar
	// Handle of the given primitive type.
	NewNull() Handle
	NewBool(b bool) Handle
	NewNumber(n float64) Handle
	NewString(s string) Handle
	// NewArray and NewObject construct a fresh, empty container. Elements
	// are attached afterward with AddElem/SetKey.
	NewArray() Handle
	NewObject() Handle

	// Type reports h's type tag.
	Type(h Handle) Kind

	// Bool, Number, and String extract a scalar's primitive value. ok is
	// false if h is not of the matching type.
	Bool(h Handle) (v bool, ok bool)
	Number(h Handle) (v float64, ok bool)
	String(h Handle) (v string, ok bool)

	// Length reports a string's byte length, an array's element count, or
	// an object's key count. ok is false for null/bool/number.
	Length(h Handle) (n int, ok bool)

	// Index retrieves the i'th element of an array Handle. ok is false if
	// h is not an array or i is out of [0, length).
	Index(h Handle, i int) (v Handle, ok bool)
	// Get retrieves the value stored under key in an object Handle. ok is
	// false if h is not an object or the key is absent.
	Get(h Handle, key string) (v Handle, ok bool)
	// Keys enumerates an object's keys in insertion order. ok is false if h
	// is not an object.
	Keys(h Handle) (keys []string, ok bool)

	// AddElem appends item to the end of the array Handle arr, taking
	// ownership of item.
	AddElem(arr Handle, item Handle)
	// SetKey stores item under key in the object Handle obj, taking
	// ownership of item. Setting an existing key replaces its value
	// in place, without changing its position in iteration order; a new
	// key is appended to the order.
	SetKey(obj Handle, key string, item Handle)
}
