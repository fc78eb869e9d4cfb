package value

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// stdNode is the concrete payload behind every Handle StdBackend hands out.
// Handles are always *stdNode so type assertions inside StdBackend's methods
// cannot fail for well-behaved callers; a Handle from a different
// Capability passed to StdBackend by mistake fails the assertion and is
// treated as absent/wrong-type rather than panicking.
type stdNode struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []*stdNode
	obj  *orderedMap
}

// orderedMap preserves JSON object key order, which encoding/json's native
// map decoding does not. spec.md §3 requires objects to preserve insertion
// order for iteration (method catalog "keys", renderer's for_iter), so a
// plain map[string]Value cannot back KindObject.
type orderedMap struct {
	keys []string
	vals map[string]*stdNode
}

func newOrderedMap() *orderedMap {
	return &orderedMap{vals: make(map[string]*stdNode)}
}

func (m *orderedMap) set(key string, v *stdNode) {
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

func (m *orderedMap) get(key string) (*stdNode, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// StdBackend is the built-in, dependency-free reference implementation of
// Capability. It is the Go-idiomatic analogue of the three interchangeable
// adapters the original C implementation ships (cJSON, json-c, Jansson,
// see _examples/original_source/lib/lattice-*.c): one vtable, one concrete
// JSON tree, usable out of the box without requiring a caller to bring
// their own JSON library. It holds no state and is safe for concurrent use
// by multiple independent Render calls (it never mutates a Handle shared
// across calls; each constructor/Clone returns a fresh tree).
type StdBackend struct{}

var _ Capability = StdBackend{}

// NewStdBackend returns the built-in Capability implementation.
func NewStdBackend() StdBackend { return StdBackend{} }

func asNode(h Handle) (*stdNode, bool) {
	n, ok := h.(*stdNode)
	return n, ok
}

// Parse decodes src as JSON, preserving object key order.
func (StdBackend) Parse(src string) (Handle, error) {
	dec := json.NewDecoder(strings.NewReader(src))
	dec.UseNumber()
	node, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func decodeValue(dec *json.Decoder) (*stdNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*stdNode, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '[':
			n := &stdNode{kind: KindArray}
			for dec.More() {
				elem, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				n.arr = append(n.arr, elem)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return n, nil
		case '{':
			n := &stdNode{kind: KindObject, obj: newOrderedMap()}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("lattice: JSON object key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				n.obj.set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return n, nil
		default:
			return nil, fmt.Errorf("lattice: unexpected JSON delimiter %v", v)
		}
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return &stdNode{kind: KindNumber, n: f}, nil
	case string:
		return &stdNode{kind: KindString, s: v}, nil
	case bool:
		return &stdNode{kind: KindBool, b: v}, nil
	case nil:
		return &stdNode{kind: KindNull}, nil
	default:
		return nil, fmt.Errorf("lattice: unexpected JSON token %v", tok)
	}
}

// Print serializes h back to a JSON string.
func (StdBackend) Print(h Handle) (string, error) {
	var buf strings.Builder
	n, ok := asNode(h)
	if !ok {
		return "", fmt.Errorf("lattice: Print called on foreign handle")
	}
	if err := writeNode(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeNode(w io.Writer, n *stdNode) error {
	switch n.kind {
	case KindNull:
		_, err := io.WriteString(w, "null")
		return err
	case KindBool:
		_, err := io.WriteString(w, strconv.FormatBool(n.b))
		return err
	case KindNumber:
		_, err := io.WriteString(w, formatNumber(n.n))
		return err
	case KindString:
		b, err := json.Marshal(n.s)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case KindArray:
		if _, err := io.WriteString(w, "["); err != nil {
			return err
		}
		for i, elem := range n.arr {
			if i > 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			if err := writeNode(w, elem); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "]")
		return err
	case KindObject:
		if _, err := io.WriteString(w, "{"); err != nil {
			return err
		}
		for i, key := range n.obj.keys {
			if i > 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			kb, err := json.Marshal(key)
			if err != nil {
				return err
			}
			if _, err := w.Write(kb); err != nil {
				return err
			}
			if _, err := io.WriteString(w, ":"); err != nil {
				return err
			}
			v, _ := n.obj.get(key)
			if err := writeNode(w, v); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "}")
		return err
	default:
		return fmt.Errorf("lattice: cannot print kind %v", n.kind)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Free is a no-op: Go's garbage collector owns stdNode reclamation.
func (StdBackend) Free(Handle) {}

// Clone deep-copies h.
func (StdBackend) Clone(h Handle) Handle {
	n, ok := asNode(h)
	if !ok {
		return h
	}
	return cloneNode(n)
}

func cloneNode(n *stdNode) *stdNode {
	switch n.kind {
	case KindArray:
		out := &stdNode{kind: KindArray, arr: make([]*stdNode, len(n.arr))}
		for i, e := range n.arr {
			out.arr[i] = cloneNode(e)
		}
		return out
	case KindObject:
		out := &stdNode{kind: KindObject, obj: newOrderedMap()}
		for _, k := range n.obj.keys {
			v, _ := n.obj.get(k)
			out.obj.set(k, cloneNode(v))
		}
		return out
	default:
		cp := *n
		return &cp
	}
}

func (StdBackend) NewNull() Handle           { return &stdNode{kind: KindNull} }
func (StdBackend) NewBool(b bool) Handle     { return &stdNode{kind: KindBool, b: b} }
func (StdBackend) NewNumber(n float64) Handle { return &stdNode{kind: KindNumber, n: n} }
func (StdBackend) NewString(s string) Handle { return &stdNode{kind: KindString, s: s} }
func (StdBackend) NewArray() Handle          { return &stdNode{kind: KindArray} }
func (StdBackend) NewObject() Handle         { return &stdNode{kind: KindObject, obj: newOrderedMap()} }

func (StdBackend) Type(h Handle) Kind {
	n, ok := asNode(h)
	if !ok {
		return KindNull
	}
	return n.kind
}

func (StdBackend) Bool(h Handle) (bool, bool) {
	n, ok := asNode(h)
	if !ok || n.kind != KindBool {
		return false, false
	}
	return n.b, true
}

func (StdBackend) Number(h Handle) (float64, bool) {
	n, ok := asNode(h)
	if !ok || n.kind != KindNumber {
		return 0, false
	}
	return n.n, true
}

func (StdBackend) String(h Handle) (string, bool) {
	n, ok := asNode(h)
	if !ok || n.kind != KindString {
		return "", false
	}
	return n.s, true
}

func (StdBackend) Length(h Handle) (int, bool) {
	n, ok := asNode(h)
	if !ok {
		return 0, false
	}
	switch n.kind {
	case KindString:
		return len(n.s), true
	case KindArray:
		return len(n.arr), true
	case KindObject:
		return len(n.obj.keys), true
	default:
		return 0, false
	}
}

func (StdBackend) Index(h Handle, i int) (Handle, bool) {
	n, ok := asNode(h)
	if !ok || n.kind != KindArray || i < 0 || i >= len(n.arr) {
		return nil, false
	}
	return n.arr[i], true
}

func (StdBackend) Get(h Handle, key string) (Handle, bool) {
	n, ok := asNode(h)
	if !ok || n.kind != KindObject {
		return nil, false
	}
	v, ok := n.obj.get(key)
	if !ok {
		return nil, false
	}
	return v, true
}

func (StdBackend) Keys(h Handle) ([]string, bool) {
	n, ok := asNode(h)
	if !ok || n.kind != KindObject {
		return nil, false
	}
	out := make([]string, len(n.obj.keys))
	copy(out, n.obj.keys)
	return out, true
}

func (StdBackend) AddElem(arr Handle, item Handle) {
	n, ok := asNode(arr)
	if !ok || n.kind != KindArray {
		return
	}
	in, _ := asNode(item)
	n.arr = append(n.arr, in)
}

func (StdBackend) SetKey(obj Handle, key string, item Handle) {
	n, ok := asNode(obj)
	if !ok || n.kind != KindObject {
		return
	}
	in, _ := asNode(item)
	n.obj.set(key, in)
}
