package lattice

import (
	"bytes"
	"io"

	"github.com/lattice-tmpl/lattice/value"
)

// Handle re-exports value.Handle for callers that only import the root
// package.
type Handle = value.Handle

// EmitFunc is the output sink spec.md §6 calls `emit`: it receives a chunk
// of rendered bytes and reports how many were accepted, or an error. The
// opaque `ctx` parameter of the original's C signature has no Go analogue —
// a closure already captures whatever context the callback needs.
type EmitFunc func(data []byte) (int, error)

// writerSink adapts an io.Writer to EmitFunc; this is what RenderToFile and
// RenderToBuffer build on.
func writerSink(w io.Writer) EmitFunc {
	return func(data []byte) (int, error) { return w.Write(data) }
}

// RenderToFile renders t against root, writing output to w (spec.md §6's
// `render_to_file` entry point generalized to any io.Writer).
func (t *Template) RenderToFile(cap value.Capability, root Handle, w io.Writer) (int, error) {
	return t.Render(cap, root, writerSink(w))
}

// RenderToBuffer renders t against root into a freshly allocated buffer
// (spec.md §6's `render_to_buffer` entry point) and returns its bytes.
func (t *Template) RenderToBuffer(cap value.Capability, root Handle) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := t.Render(cap, root, writerSink(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
