package eval

import (
	"strconv"
	"strings"
	"time"

	"github.com/lattice-tmpl/lattice/internal/errcode"
	"github.com/lattice-tmpl/lattice/value"
)

// maxDatetimePattern bounds the `datetime` method's format-string length.
// The original C implementation formats into a fixed 1 KiB strftime
// buffer (_examples/original_source/lib/lattice.c); Go strings grow
// freely, so Lattice has no output-size cap, but it keeps a cap on the
// *pattern* as a guard against pathological format strings (see
// SPEC_FULL.md "supplemented features", item 4).
const maxDatetimePattern = 4096

type methodEntry struct {
	arity int
	fn    func(e *Evaluator, line int, recv value.Handle, args []value.Handle) (value.Handle, error)
}

// methodTable is the method catalog of spec.md §4.D. A Go map already gives
// O(1) dispatch by name, which is what the spec's "fixed perfect hash"
// language is really asking for; see DESIGN.md for why a hand-rolled
// perfect-hash table would add nothing a map doesn't already give us here.
var methodTable = map[string]methodEntry{
	"boolean":  {0, methodBoolean},
	"number":   {0, methodNumber},
	"string":   {0, methodString},
	"type":     {0, methodType},
	"length":   {0, methodLength},
	"keys":     {0, methodKeys},
	"values":   {0, methodValues},
	"contains": {1, methodContains},
	"find":     {1, methodFind},
	"join":     {1, methodJoin},
	"repeat":   {1, methodRepeat},
	"lower":    {0, methodLower},
	"upper":    {0, methodUpper},
	"round":    {0, methodRound},
	"nan":      {0, methodNaN},
	"real":     {0, methodReal},
	"datetime": {0, methodDatetime},
}

// dispatchMethod resolves and invokes a method by name. An unrecognized
// name fails soft with null (spec.md §4.D: "a collision with the stored
// name fails softly with null", generalized in the design notes to any
// unknown name); a recognized name called with the wrong number of
// arguments is a value error. Receiver-type mismatches are the individual
// method's responsibility and also fail soft with null per the method
// catalog table's "wrong receiver type returns null (tolerant)".
func (e *Evaluator) dispatchMethod(line int, name string, recv value.Handle, args []value.Handle) (value.Handle, error) {
	entry, ok := methodTable[name]
	if !ok {
		return e.Cap.NewNull(), nil
	}
	if len(args) != entry.arity {
		return nil, errcode.New(errcode.Value, line, "method %q expects %d argument(s), got %d", name, entry.arity, len(args))
	}
	return entry.fn(e, line, recv, args)
}

func methodBoolean(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	return e.Cap.NewBool(truthy(e.Cap, recv)), nil
}

func methodNumber(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	cap := e.Cap
	switch cap.Type(recv) {
	case value.KindNull:
		return cap.NewNumber(0), nil
	case value.KindBool:
		b, _ := cap.Bool(recv)
		if b {
			return cap.NewNumber(1), nil
		}
		return cap.NewNumber(0), nil
	case value.KindNumber:
		n, _ := cap.Number(recv)
		return cap.NewNumber(n), nil
	case value.KindString:
		s, _ := cap.String(recv)
		// Matches the original's C `atof`: an unparseable string yields 0,
		// not an error (spec.md §9 open question, resolved in SPEC_FULL.md).
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return cap.NewNumber(0), nil
		}
		return cap.NewNumber(f), nil
	default:
		return cap.NewNull(), nil
	}
}

func methodString(e *Evaluator, line int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	s, err := e.Cap.Print(recv)
	if err != nil {
		return nil, errcode.New(errcode.JSON, line, "cannot serialize value: %v", err)
	}
	return e.Cap.NewString(s), nil
}

func methodType(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	return e.Cap.NewString(e.Cap.Type(recv).String()), nil
}

func methodLength(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	n, ok := e.Cap.Length(recv)
	if !ok {
		return e.Cap.NewNull(), nil
	}
	return e.Cap.NewNumber(float64(n)), nil
}

func methodKeys(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	cap := e.Cap
	switch cap.Type(recv) {
	case value.KindObject:
		keys, _ := cap.Keys(recv)
		out := cap.NewArray()
		for _, k := range keys {
			cap.AddElem(out, cap.NewString(k))
		}
		return out, nil
	case value.KindArray, value.KindString:
		n, _ := cap.Length(recv)
		out := cap.NewArray()
		for i := 0; i < n; i++ {
			cap.AddElem(out, cap.NewNumber(float64(i)))
		}
		return out, nil
	default:
		return cap.NewNull(), nil
	}
}

func methodValues(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	cap := e.Cap
	switch cap.Type(recv) {
	case value.KindObject:
		keys, _ := cap.Keys(recv)
		out := cap.NewArray()
		for _, k := range keys {
			v, _ := cap.Get(recv, k)
			cap.AddElem(out, cap.Clone(v))
		}
		return out, nil
	case value.KindArray:
		out := cap.NewArray()
		appendCloned(cap, out, recv)
		return out, nil
	case value.KindString:
		s, _ := cap.String(recv)
		out := cap.NewArray()
		for i := 0; i < len(s); i++ {
			cap.AddElem(out, cap.NewString(s[i:i+1]))
		}
		return out, nil
	default:
		return cap.NewNull(), nil
	}
}

func methodContains(e *Evaluator, _ int, recv value.Handle, args []value.Handle) (value.Handle, error) {
	cap := e.Cap
	needle := args[0]
	switch cap.Type(recv) {
	case value.KindString:
		s, _ := cap.String(recv)
		sub, ok := cap.String(needle)
		if !ok {
			return cap.NewNull(), nil
		}
		return cap.NewBool(strings.Contains(s, sub)), nil
	case value.KindArray:
		n, _ := cap.Length(recv)
		for i := 0; i < n; i++ {
			elem, _ := cap.Index(recv, i)
			if equal(cap, elem, needle) {
				return cap.NewBool(true), nil
			}
		}
		return cap.NewBool(false), nil
	default:
		return cap.NewNull(), nil
	}
}

func methodFind(e *Evaluator, _ int, recv value.Handle, args []value.Handle) (value.Handle, error) {
	cap := e.Cap
	needle := args[0]
	switch cap.Type(recv) {
	case value.KindString:
		s, _ := cap.String(recv)
		sub, ok := cap.String(needle)
		if !ok {
			return cap.NewNull(), nil
		}
		return cap.NewNumber(float64(strings.Index(s, sub))), nil
	case value.KindArray:
		n, _ := cap.Length(recv)
		for i := 0; i < n; i++ {
			elem, _ := cap.Index(recv, i)
			if equal(cap, elem, needle) {
				return cap.NewNumber(float64(i)), nil
			}
		}
		return cap.NewNumber(-1), nil
	default:
		return cap.NewNull(), nil
	}
}

func methodJoin(e *Evaluator, _ int, recv value.Handle, args []value.Handle) (value.Handle, error) {
	cap := e.Cap
	if cap.Type(recv) != value.KindArray {
		return cap.NewNull(), nil
	}
	sep, ok := cap.String(args[0])
	if !ok {
		return cap.NewNull(), nil
	}
	n, _ := cap.Length(recv)
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		elem, _ := cap.Index(recv, i)
		s, ok := cap.String(elem)
		if !ok {
			return cap.NewNull(), nil
		}
		parts = append(parts, s)
	}
	return cap.NewString(strings.Join(parts, sep)), nil
}

func methodRepeat(e *Evaluator, line int, recv value.Handle, args []value.Handle) (value.Handle, error) {
	cap := e.Cap
	n, ok := cap.Number(args[0])
	if !ok {
		return nil, errcode.New(errcode.Value, line, "repeat count must be a number")
	}
	count, err := wholeCount(line, n)
	if err != nil {
		return nil, err
	}
	switch cap.Type(recv) {
	case value.KindString:
		s, _ := cap.String(recv)
		return cap.NewString(repeatString(s, count)), nil
	case value.KindArray:
		out := cap.NewArray()
		for i := 0; i < count; i++ {
			appendCloned(cap, out, recv)
		}
		return out, nil
	default:
		return cap.NewNull(), nil
	}
}

func methodLower(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	cap := e.Cap
	s, ok := cap.String(recv)
	if !ok {
		return cap.NewNull(), nil
	}
	return cap.NewString(asciiLower(s)), nil
}

func methodUpper(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	cap := e.Cap
	s, ok := cap.String(recv)
	if !ok {
		return cap.NewNull(), nil
	}
	return cap.NewString(asciiUpper(s)), nil
}

// asciiLower/asciiUpper fold only ASCII letters: spec.md §1 explicitly
// excludes Unicode-aware case folding.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func methodRound(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	cap := e.Cap
	n, ok := cap.Number(recv)
	if !ok {
		return cap.NewNull(), nil
	}
	// math.Round is round-half-away-from-zero, matching C's round()
	// (spec.md §9 open question, pinned down per SPEC_FULL.md).
	return cap.NewNumber(roundHalfAwayFromZero(n)), nil
}

func methodNaN(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	cap := e.Cap
	n, ok := cap.Number(recv)
	if !ok {
		return cap.NewNull(), nil
	}
	return cap.NewBool(isNaN(n)), nil
}

func methodReal(e *Evaluator, _ int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	cap := e.Cap
	n, ok := cap.Number(recv)
	if !ok {
		return cap.NewNull(), nil
	}
	return cap.NewBool(!isNaN(n) && !isInf(n)), nil
}

func methodDatetime(e *Evaluator, line int, recv value.Handle, _ []value.Handle) (value.Handle, error) {
	cap := e.Cap
	pattern, ok := cap.String(recv)
	if !ok {
		return cap.NewNull(), nil
	}
	if len(pattern) > maxDatetimePattern {
		return nil, errcode.New(errcode.Value, line, "datetime pattern exceeds %d bytes", maxDatetimePattern)
	}
	return cap.NewString(strftime(pattern, time.Now())), nil
}
