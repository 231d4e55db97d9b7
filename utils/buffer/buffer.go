// Package buffer implements the little-endian word codec of the binary
// records of Calc, Fit3D, Region and Map.
//
// The codec works on the buffer of its destination or source instead of
// going through an intermediate slice: a Writer lends the free tail of its
// buffer and a Reader lets the codec look ahead and skip. bufio.Writer and
// bufio.Reader satisfy both interfaces, which is how map files are
// streamed. Buffer satisfies them over a single fixed-size slice, which is
// how MarshalBinary and UnmarshalBinary are built, since BinarySize gives
// the exact record size up front.
package buffer

import (
	"errors"
	"io"
)

// ErrFull is returned when a write does not fit in a Buffer.
var ErrFull = errors.New("buffer: record larger than buffer")

// Writer is a destination that exposes the unused tail of its buffer.
// The codec appends to AvailableBuffer and hands the result to Write, and
// calls Flush when fewer than a word's worth of bytes are Available.
type Writer interface {
	io.Writer
	Flush() (err error)
	AvailableBuffer() []byte
	Available() int
}

// Reader is a source that can be looked ahead into. Size bounds how many
// bytes a single Peek may return.
type Reader interface {
	io.Reader
	Size() int
	Peek(n int) ([]byte, error)
	Discard(n int) (discarded int, err error)
}

// Buffer holds one binary record in a slice of fixed length. Writes fill
// the slice from the start and fail with ErrFull past its end. Reads
// consume it from the start, independently of writes.
type Buffer struct {
	data []byte
	wpos int
	rpos int
}

// NewBuffer returns a Buffer over data, for instance to decode a record.
// Writing to it overwrites data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// NewBufferSize returns a Buffer over a zeroed slice of the given size,
// for instance to encode a record of known BinarySize.
func NewBufferSize(size int) *Buffer {
	return NewBuffer(make([]byte, size))
}

// Bytes returns the whole slice, written or not.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) free() []byte {
	return b.data[b.wpos:]
}

func (b *Buffer) unread() []byte {
	return b.data[b.rpos:]
}

// Write appends p after the bytes written so far.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) > len(b.free()) {
		return 0, ErrFull
	}
	// p is usually AvailableBuffer() grown in place, making the copy a no-op.
	n = copy(b.free(), p)
	b.wpos += n
	return n, nil
}

// Flush is a no-op: the bytes are already in place.
func (b *Buffer) Flush() (err error) {
	return nil
}

// AvailableBuffer returns a zero-length slice aliasing the free tail.
// It is invalidated by the next Write.
func (b *Buffer) AvailableBuffer() []byte {
	return b.free()[:0]
}

// Available returns the number of bytes that can still be written.
func (b *Buffer) Available() int {
	return len(b.free())
}

// Read consumes up to len(p) bytes into p. It returns io.EOF when the
// unread bytes do not fill p.
func (b *Buffer) Read(p []byte) (n int, err error) {
	n = copy(p, b.unread())
	b.rpos += n
	if n < len(p) {
		err = io.EOF
	}
	return
}

// Size returns the number of unread bytes.
func (b *Buffer) Size() int {
	return len(b.unread())
}

// Peek returns the next n unread bytes without consuming them, or all of
// them with io.EOF if fewer than n remain.
func (b *Buffer) Peek(n int) ([]byte, error) {
	rest := b.unread()
	if n > len(rest) {
		return rest, io.EOF
	}
	return rest[:n], nil
}

// Discard consumes the next n unread bytes, or all of them with io.EOF if
// fewer than n remain.
func (b *Buffer) Discard(n int) (discarded int, err error) {
	discarded = min(n, b.Size())
	b.rpos += discarded
	if discarded < n {
		err = io.EOF
	}
	return
}
