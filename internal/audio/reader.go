// Package audio provides raw binary sample and coefficient stream I/O
package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ErrUnknownFormat indicates a sample format other than "d" or "f"
var ErrUnknownFormat = errors.New("audio: unknown sample format")

// Format is the on-disk representation of one sample
type Format int

const (
	FormatDouble Format = iota // little-endian IEEE-754 float64
	FormatFloat                // little-endian IEEE-754 float32
)

// ParseFormat accepts the single-letter format names used on the command line
func ParseFormat(s string) (Format, error) {
	switch s {
	case "d", "double":
		return FormatDouble, nil
	case "f", "float":
		return FormatFloat, nil
	default:
		return 0, fmt.Errorf("%w: %q (use d or f)", ErrUnknownFormat, s)
	}
}

// Size returns the number of bytes per sample
func (f Format) Size() int {
	if f == FormatFloat {
		return 4
	}
	return 8
}

func (f Format) String() string {
	if f == FormatFloat {
		return "f"
	}
	return "d"
}

// Reader decodes a stream of raw samples
type Reader struct {
	r      *bufio.Reader
	closer io.Closer
	format Format
	buf    [8]byte
	count  int64
}

// Metadata describes an opened stream
type Metadata struct {
	Path    string
	Format  Format
	Samples int64 // -1 when the stream length is not known in advance
}

// NewReader wraps r
func NewReader(r io.Reader, format Format) *Reader {
	return &Reader{r: bufio.NewReader(r), format: format}
}

// OpenFile opens path for reading. "-" or "" reads standard input, whose
// length is reported as unknown.
func OpenFile(path string, format Format) (*Reader, *Metadata, error) {
	meta := &Metadata{Path: path, Format: format, Samples: -1}
	if path == "" || path == "-" {
		meta.Path = "-"
		return NewReader(os.Stdin, format), meta, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
		meta.Samples = info.Size() / int64(format.Size())
	}

	reader := NewReader(f, format)
	reader.closer = f
	return reader, meta, nil
}

// Read returns the next sample, or io.EOF at a clean end of stream.
// A truncated trailing sample is reported as io.ErrUnexpectedEOF.
func (r *Reader) Read() (float64, error) {
	n := r.format.Size()
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		return 0, err
	}
	r.count++
	if n == 4 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(r.buf[:4]))), nil
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r.buf[:8])), nil
}

// ReadFrame fills dst. It returns io.EOF when the stream ends before the
// frame starts and io.ErrUnexpectedEOF when it ends inside the frame; in the
// latter case dst holds the samples that were read, zero padded.
func (r *Reader) ReadFrame(dst []float64) error {
	for i := range dst {
		v, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) && i > 0 {
				clear(dst[i:])
				return io.ErrUnexpectedEOF
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				clear(dst[i:])
			}
			return err
		}
		dst[i] = v
	}
	return nil
}

// Count returns the number of samples read so far
func (r *Reader) Count() int64 {
	return r.count
}

// Close releases the underlying file, if the reader opened one
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
