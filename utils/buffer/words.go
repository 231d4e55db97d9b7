package buffer

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WordSize is the encoded size of a Word.
const WordSize = 8

// Word is a value encoded on WordSize little-endian bytes. Floats are
// stored as their IEEE-754 bits and signed integers in two's complement.
type Word interface {
	int | int64 | uint64 | float64
}

func toBits[T Word](c T) uint64 {
	switch v := any(c).(type) {
	case float64:
		return math.Float64bits(v)
	case int:
		return uint64(v)
	case int64:
		return uint64(v)
	default:
		return any(c).(uint64)
	}
}

func fromBits[T Word](u uint64) (c T) {
	switch p := any(&c).(type) {
	case *float64:
		*p = math.Float64frombits(u)
	case *int:
		*p = int(u)
	case *int64:
		*p = int64(u)
	case *uint64:
		*p = u
	}
	return
}

// grow makes sure w has room for at least min bytes, flushing it if needed.
func grow(w Writer, min int) error {
	if w.Available() >= min {
		return nil
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if w.Available() < min {
		return fmt.Errorf("available buffer is %d bytes after flush, need %d", w.Available(), min)
	}
	return nil
}

// WriteUint8 writes the byte c to w.
func WriteUint8(w Writer, c uint8) (n int64, err error) {
	if err = grow(w, 1); err != nil {
		return 0, fmt.Errorf("cannot WriteUint8: %w", err)
	}
	nint, err := w.Write(append(w.AvailableBuffer(), c))
	return int64(nint), err
}

// WriteWord writes c to w.
func WriteWord[T Word](w Writer, c T) (n int64, err error) {
	if err = grow(w, WordSize); err != nil {
		return 0, fmt.Errorf("cannot WriteWord: %w", err)
	}
	nint, err := w.Write(binary.LittleEndian.AppendUint64(w.AvailableBuffer(), toBits(c)))
	return int64(nint), err
}

// WriteWords writes the elements of c to w, without length prefix. It
// encodes directly into the internal buffer of w, flushing it as it fills.
func WriteWords[T Word](w Writer, c []T) (n int64, err error) {

	for len(c) > 0 {

		if err = grow(w, WordSize); err != nil {
			return n, fmt.Errorf("cannot WriteWords: %w", err)
		}

		chunk := min(len(c), w.Available()/WordSize)

		buf := w.AvailableBuffer()
		for _, v := range c[:chunk] {
			buf = binary.LittleEndian.AppendUint64(buf, toBits(v))
		}

		var nint int
		nint, err = w.Write(buf)
		n += int64(nint)
		if err != nil {
			return n, err
		}

		c = c[chunk:]
	}

	return n, nil
}

// ReadUint8 reads a byte from r into *c.
func ReadUint8(r Reader, c *uint8) (n int64, err error) {
	var b [1]byte
	nint, err := io.ReadFull(r, b[:])
	*c = b[0]
	return int64(nint), err
}

// ReadWord reads a Word from r into *c.
func ReadWord[T Word](r Reader, c *T) (n int64, err error) {
	var b [WordSize]byte
	nint, err := io.ReadFull(r, b[:])
	if err != nil {
		return int64(nint), err
	}
	*c = fromBits[T](binary.LittleEndian.Uint64(b[:]))
	return int64(nint), nil
}

// ReadWords fills c with Words read from r. It decodes directly from the
// internal buffer of r, refilling it as it drains.
func ReadWords[T Word](r Reader, c []T) (n int64, err error) {

	for len(c) > 0 {

		want := min(len(c)*WordSize, r.Size()/WordSize*WordSize)
		if want == 0 {
			want = WordSize
		}

		var buf []byte
		if buf, err = r.Peek(want); len(buf) < WordSize {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return n, err
		}

		chunk := len(buf) / WordSize
		for i := range c[:chunk] {
			c[i] = fromBits[T](binary.LittleEndian.Uint64(buf[i*WordSize:]))
		}

		var discarded int
		discarded, err = r.Discard(chunk * WordSize)
		n += int64(discarded)
		if err != nil {
			return n, err
		}

		c = c[chunk:]
	}

	return n, nil
}
