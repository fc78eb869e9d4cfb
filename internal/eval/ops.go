package eval

import (
	"math"
	"strings"

	"github.com/lattice-tmpl/lattice/internal/errcode"
	"github.com/lattice-tmpl/lattice/value"
)

// truthy implements spec.md §4.D's truthiness table.
func truthy(cap value.Capability, h value.Handle) bool {
	switch cap.Type(h) {
	case value.KindNull:
		return false
	case value.KindBool:
		b, _ := cap.Bool(h)
		return b
	case value.KindNumber:
		n, _ := cap.Number(h)
		return n != 0
	case value.KindString:
		s, _ := cap.String(h)
		return len(s) > 0
	case value.KindArray, value.KindObject:
		n, _ := cap.Length(h)
		return n > 0
	default:
		return false
	}
}

// equal implements the `eq`/`neq` rule: same type required for a true
// result; arrays and objects are never equal to anything, including another
// container (spec.md §9 open question — deep equality on containers is
// explicitly unspecified; Lattice resolves it as "always unequal", matching
// the teacher's default "containers compare by identity" instinct without
// introducing an identity concept into a value-capability model that has
// none). Mismatched types are not an error here: switch/case relies on
// comparing a discriminant against arms of possibly differing type.
func equal(cap value.Capability, a, b value.Handle) bool {
	ka, kb := cap.Type(a), cap.Type(b)
	if ka != kb {
		return false
	}
	switch ka {
	case value.KindNull:
		return true
	case value.KindBool:
		av, _ := cap.Bool(a)
		bv, _ := cap.Bool(b)
		return av == bv
	case value.KindNumber:
		av, _ := cap.Number(a)
		bv, _ := cap.Number(b)
		return av == bv
	case value.KindString:
		av, _ := cap.String(a)
		bv, _ := cap.String(b)
		return av == bv
	default: // array, object
		return false
	}
}

// compare implements ordered comparison (<, <=, >, >=): both operands must
// be numbers or both strings (byte-wise), anything else is a type error.
func compare(cap value.Capability, line int, a, b value.Handle) (int, error) {
	ka, kb := cap.Type(a), cap.Type(b)
	if ka == value.KindNumber && kb == value.KindNumber {
		av, _ := cap.Number(a)
		bv, _ := cap.Number(b)
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if ka == value.KindString && kb == value.KindString {
		av, _ := cap.String(a)
		bv, _ := cap.String(b)
		return strings.Compare(av, bv), nil
	}
	return 0, errcode.New(errcode.Type, line, "cannot order %s and %s", ka, kb)
}

// toUint64 requires a whole, finite number and casts it for bitwise
// operators, per spec.md §4.D "both sides must be whole-number finite
// doubles; cast to 64-bit unsigned for the op".
func toUint64(cap value.Capability, line int, h value.Handle) (uint64, error) {
	if cap.Type(h) != value.KindNumber {
		return 0, errcode.New(errcode.Type, line, "bitwise operand must be a number")
	}
	n, _ := cap.Number(h)
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, errcode.New(errcode.Value, line, "bitwise operand must be a whole, finite number")
	}
	return uint64(int64(n)), nil
}

// normalizeIndex resolves a possibly-negative single index against length,
// without clamping: out-of-range is the caller's error to raise.
func normalizeIndex(i, length int) int {
	if i < 0 {
		return length + i
	}
	return i
}

// clampRange implements spec.md §3's range-index invariant: both endpoints
// clamp to [0, len], and j<i yields an empty slice.
func clampRange(lo, hi, length int) (int, int) {
	lo = normalizeIndex(lo, length)
	hi = normalizeIndex(hi, length)
	if lo < 0 {
		lo = 0
	}
	if lo > length {
		lo = length
	}
	if hi < 0 {
		hi = 0
	}
	if hi > length {
		hi = length
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Equal exposes the `eq`/`neq` comparison rule to the renderer, which needs
// it for `switch`/`case` discriminant matching outside of any AST node.
func Equal(cap value.Capability, a, b value.Handle) bool { return equal(cap, a, b) }

// Truthy exposes the truthiness table to the renderer, which needs it for
// `if`/`elif` conditions already evaluated to a value.
func Truthy(cap value.Capability, h value.Handle) bool { return truthy(cap, h) }
