package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Writer encodes samples into a raw stream. Output is buffered; callers
// must Flush (or Close) when done.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	format Format
	buf    [8]byte
	count  int64
}

// NewWriter wraps w
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{w: bufio.NewWriter(w), format: format}
}

// CreateFile creates path for writing. "-" or "" writes standard output.
func CreateFile(path string, format Format) (*Writer, error) {
	if path == "" || path == "-" {
		return NewWriter(os.Stdout, format), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w := NewWriter(f, format)
	w.closer = f
	return w, nil
}

// Write encodes one sample
func (w *Writer) Write(v float64) error {
	n := w.format.Size()
	if n == 4 {
		binary.LittleEndian.PutUint32(w.buf[:4], math.Float32bits(float32(v)))
	} else {
		binary.LittleEndian.PutUint64(w.buf[:8], math.Float64bits(v))
	}
	if _, err := w.w.Write(w.buf[:n]); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	w.count++
	return nil
}

// WriteFrame encodes every value of frame
func (w *Writer) WriteFrame(frame []float64) error {
	for _, v := range frame {
		if err := w.Write(v); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of samples written so far
func (w *Writer) Count() int64 {
	return w.count
}

// Flush writes any buffered data
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Close flushes and releases the underlying file, if the writer created one
func (w *Writer) Close() error {
	err := w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
