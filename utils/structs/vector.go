package structs

import (
	"bufio"
	"fmt"
	"io"

	"github.com/google/go-cmp/cmp"

	"github.com/alice-offline/chebfield/utils/buffer"
)

// MaxVectorLen is the largest length prefix ReadFrom accepts.
const MaxVectorLen = 1 << 28

// Vector is a length-prefixed sequence of T. Components are either
// buffer.Word values (int, int64, uint64, float64), stored on 8 bytes each,
// or objects whose pointer implements CopyNewer, BinarySizer, io.WriterTo,
// io.ReaderFrom or Equatable, as required by the method called.
type Vector[T any] []T

func isWord[T any]() bool {
	var t T
	switch any(t).(type) {
	case int, int64, uint64, float64:
		return true
	default:
		return false
	}
}

// CopyNew returns a deep copy of v.
func (v Vector[T]) CopyNew() Vector[T] {

	vcpy := make(Vector[T], len(v))

	if isWord[T]() {
		copy(vcpy, v)
		return vcpy
	}

	if _, ok := any(new(T)).(CopyNewer[T]); !ok {
		panic(fmt.Errorf("vector component of type %T does not implement CopyNewer", *new(T)))
	}

	for i := range v {
		vcpy[i] = *any(&v[i]).(CopyNewer[T]).CopyNew()
	}

	return vcpy
}

// BinarySize returns the serialized size of v in bytes.
func (v Vector[T]) BinarySize() (size int) {

	size = buffer.WordSize

	if isWord[T]() {
		return size + len(v)*buffer.WordSize
	}

	if _, ok := any(new(T)).(BinarySizer); !ok {
		panic(fmt.Errorf("vector component of type %T does not implement BinarySizer", *new(T)))
	}

	for i := range v {
		size += any(&v[i]).(BinarySizer).BinarySize()
	}

	return
}

// WriteTo writes the length of v, then its components, on w. It writes
// exactly v.BinarySize() bytes.
//
// Writers that do not implement buffer.Writer are wrapped in a
// bufio.Writer; callers writing many records should wrap w once.
func (v Vector[T]) WriteTo(w io.Writer) (n int64, err error) {

	bw, ok := w.(buffer.Writer)
	if !ok {
		return v.WriteTo(bufio.NewWriter(w))
	}

	if n, err = buffer.WriteWord(bw, len(v)); err != nil {
		return n, fmt.Errorf("length: %w", err)
	}

	var inc int64

	if isWord[T]() {
		inc, err = writeWords(bw, v)
		if n += inc; err != nil {
			return n, err
		}
		return n, bw.Flush()
	}

	if _, ok := any(new(T)).(io.WriterTo); !ok {
		return n, fmt.Errorf("vector component of type %T does not implement io.WriterTo", *new(T))
	}

	for i := range v {
		inc, err = any(&v[i]).(io.WriterTo).WriteTo(bw)
		if n += inc; err != nil {
			return n, fmt.Errorf("[%d]: %w", i, err)
		}
	}

	return n, bw.Flush()
}

// ReadFrom reads a vector written by WriteTo, reusing the backing array of
// v when it is large enough. Length prefixes above MaxVectorLen are
// rejected.
func (v *Vector[T]) ReadFrom(r io.Reader) (n int64, err error) {
	return v.ReadFromBounded(r, MaxVectorLen)
}

// ReadFromBounded is ReadFrom with an explicit bound on the length prefix.
// A larger prefix is an error and nothing is allocated.
//
// Readers that do not implement buffer.Reader are wrapped in a
// bufio.Reader, which may read past the end of the vector.
func (v *Vector[T]) ReadFromBounded(r io.Reader, maxLen int) (n int64, err error) {

	br, ok := r.(buffer.Reader)
	if !ok {
		return v.ReadFromBounded(bufio.NewReader(r), maxLen)
	}

	var size int
	if n, err = buffer.ReadWord(br, &size); err != nil {
		return n, fmt.Errorf("length: %w", err)
	}

	if size < 0 || size > maxLen {
		return n, fmt.Errorf("invalid vector length %d: must be in [0, %d]", size, maxLen)
	}

	if cap(*v) < size {
		*v = make([]T, size)
	}
	*v = (*v)[:size]

	var inc int64

	if isWord[T]() {
		inc, err = readWords(br, *v)
		return n + inc, err
	}

	if _, ok := any(new(T)).(io.ReaderFrom); !ok {
		return n, fmt.Errorf("vector component of type %T does not implement io.ReaderFrom", *new(T))
	}

	for i := range *v {
		inc, err = any(&(*v)[i]).(io.ReaderFrom).ReadFrom(br)
		if n += inc; err != nil {
			return n, fmt.Errorf("[%d]: %w", i, err)
		}
	}

	return n, nil
}

// MarshalBinary returns the WriteTo encoding of v.
func (v Vector[T]) MarshalBinary() ([]byte, error) {
	buf := buffer.NewBufferSize(v.BinarySize())
	_, err := v.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes p, as produced by MarshalBinary, into v.
func (v *Vector[T]) UnmarshalBinary(p []byte) error {
	_, err := v.ReadFrom(buffer.NewBuffer(p))
	return err
}

// Equal returns true if v and other have equal components.
func (v Vector[T]) Equal(other Vector[T]) bool {

	if isWord[T]() {
		return cmp.Equal([]T(v), []T(other))
	}

	if _, ok := any(new(T)).(Equatable[T]); !ok {
		panic(fmt.Errorf("vector component of type %T does not implement Equatable", *new(T)))
	}

	if len(v) != len(other) {
		return false
	}

	for i := range v {
		if !any(&v[i]).(Equatable[T]).Equal(&other[i]) {
			return false
		}
	}

	return true
}

func writeWords[T any](w buffer.Writer, v []T) (int64, error) {
	switch v := any(v).(type) {
	case []int:
		return buffer.WriteWords(w, v)
	case []int64:
		return buffer.WriteWords(w, v)
	case []uint64:
		return buffer.WriteWords(w, v)
	case []float64:
		return buffer.WriteWords(w, v)
	default:
		return 0, fmt.Errorf("%T is not a slice of words", v)
	}
}

func readWords[T any](r buffer.Reader, v []T) (int64, error) {
	switch v := any(v).(type) {
	case []int:
		return buffer.ReadWords(r, v)
	case []int64:
		return buffer.ReadWords(r, v)
	case []uint64:
		return buffer.ReadWords(r, v)
	case []float64:
		return buffer.ReadWords(r, v)
	default:
		return 0, fmt.Errorf("%T is not a slice of words", v)
	}
}
