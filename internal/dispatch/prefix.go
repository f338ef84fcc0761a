// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"bytes"
	"io"
	"sync"
)

// PrefixWriter prefixes every complete line written to it. Partial lines are
// held until their newline arrives or Flush is called. Writers created with
// the same mutex never interleave their lines on the shared destination.
type PrefixWriter struct {
	mu     *sync.Mutex
	dst    io.Writer
	prefix []byte
	buf    bytes.Buffer
}

// NewPrefixWriter creates a PrefixWriter. mu guards dst and may be shared.
func NewPrefixWriter(dst io.Writer, prefix string, mu *sync.Mutex) *PrefixWriter {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	if dst == nil {
		dst = io.Discard
	}
	return &PrefixWriter{mu: mu, dst: dst, prefix: []byte(prefix)}
}

func (w *PrefixWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			return len(p), nil
		}
		if err := w.emit(w.buf.Next(i + 1)); err != nil {
			return len(p), err
		}
	}
}

// Flush writes a pending partial line, terminated with a newline.
func (w *PrefixWriter) Flush() error {
	if w.buf.Len() == 0 {
		return nil
	}
	line := append(bytes.Clone(w.buf.Bytes()), '\n')
	w.buf.Reset()
	return w.emit(line)
}

func (w *PrefixWriter) emit(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]byte, 0, len(w.prefix)+len(line))
	out = append(out, w.prefix...)
	out = append(out, line...)
	_, err := w.dst.Write(out)
	return err
}
