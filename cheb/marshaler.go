package cheb

import (
	"bufio"
	"fmt"
	"io"

	"github.com/alice-offline/chebfield/utils/buffer"
)

// maxRecordLen bounds every count read from a record, so that a corrupted
// header cannot trigger a huge allocation.
const maxRecordLen = 1 << 26

// maxOutputDim bounds the output dimension read from a record.
const maxOutputDim = 1 << 10

// BinarySize returns the serialized size of the object in bytes.
func (c *Calc) BinarySize() int {
	return 8 * (4 + 2*c.nRows + 2*len(c.nCoefs) + len(c.coefs))
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// The record is: nCoefsTotal, nRows, nCols, nBoundaryElems, colCountPerRow,
// colStartPerRow, boundaryNCoefs, boundaryStart, coefficients.
//
// Unless w implements the buffer.Writer interface (see utils/buffer/buffer.go),
// it will be wrapped into a bufio.Writer. Since this requires allocations, it
// is preferable to pass a buffer.Writer directly.
func (c *Calc) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		for _, v := range []int{len(c.coefs), c.nRows, c.nCols, len(c.nCoefs)} {
			if inc, err = buffer.WriteWord[int](w, v); err != nil {
				return n + inc, fmt.Errorf("buffer.WriteWord[int]: %w", err)
			}
			n += inc
		}

		for _, v := range [][]int{c.colsAtRow, c.colBeg, c.nCoefs, c.coefBeg} {
			if inc, err = buffer.WriteWords[int](w, v); err != nil {
				return n + inc, fmt.Errorf("buffer.WriteWords[int]: %w", err)
			}
			n += inc
		}

		if inc, err = buffer.WriteWords[float64](w, c.coefs); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteWords[float64]: %w", err)
		}
		n += inc

		return n, w.Flush()

	default:
		return c.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. The decoded tables are checked for consistency
// and an error wrapping ErrMalformed is returned if they are not.
//
// Unless r implements the buffer.Reader interface (see utils/buffer/buffer.go),
// it will be wrapped into a bufio.Reader. Since this requires allocation, it
// is preferable to pass a buffer.Reader directly.
func (c *Calc) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		var header [4]int
		names := [4]string{"nCoefsTotal", "nRows", "nCols", "nBoundaryElems"}
		for i := range header {
			if inc, err = buffer.ReadWord[int](r, &header[i]); err != nil {
				return n + inc, fmt.Errorf("%s: %w", names[i], err)
			}
			n += inc
			if header[i] < 0 || header[i] > maxRecordLen {
				return n, fmt.Errorf("%w: %s=%d not in [0, %d]", ErrMalformed, names[i], header[i], maxRecordLen)
			}
		}

		nCoefs, nRows, nCols, nElems := header[0], header[1], header[2], header[3]

		c.nRows = nRows
		c.nCols = nCols
		c.colsAtRow = make([]int, nRows)
		c.colBeg = make([]int, nRows)
		c.nCoefs = make([]int, nElems)
		c.coefBeg = make([]int, nElems)
		c.coefs = make([]float64, nCoefs)

		tables := [4][]int{c.colsAtRow, c.colBeg, c.nCoefs, c.coefBeg}
		tableNames := [4]string{"colCountPerRow", "colStartPerRow", "boundaryNCoefs", "boundaryStart"}
		for i := range tables {
			if inc, err = buffer.ReadWords[int](r, tables[i]); err != nil {
				return n + inc, fmt.Errorf("%s: %w", tableNames[i], err)
			}
			n += inc
		}

		if inc, err = buffer.ReadWords[float64](r, c.coefs); err != nil {
			return n + inc, fmt.Errorf("coefficients: %w", err)
		}
		n += inc

		return n, c.validate()

	default:
		return c.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (c *Calc) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(c.BinarySize())
	_, err = c.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (c *Calc) UnmarshalBinary(p []byte) (err error) {
	_, err = c.ReadFrom(buffer.NewBuffer(p))
	return
}

// BinarySize returns the serialized size of the object in bytes.
func (f *Fit3D) BinarySize() (size int) {
	size = 8 * (1 + 3 + 3 + 1)
	for i := range f.calcs {
		size += f.calcs[i].BinarySize()
	}
	return
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// The record is: outputDimension, boundsMin[3], boundsMax[3], precision,
// then one Calc record per output dimension. The name and the boundary
// policy are not part of the record.
func (f *Fit3D) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = buffer.WriteWord[int](w, len(f.calcs)); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteWord[int]: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteWords[float64](w, f.bMin[:]); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteWords[float64]: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteWords[float64](w, f.bMax[:]); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteWords[float64]: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteWord[float64](w, f.prec); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteWord[float64]: %w", err)
		}
		n += inc

		for i := range f.calcs {
			if inc, err = f.calcs[i].WriteTo(w); err != nil {
				return n + inc, fmt.Errorf("calc[%d]: %w", i, err)
			}
			n += inc
		}

		return n, w.Flush()

	default:
		return f.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. Errors name the output dimension whose record
// failed to decode.
func (f *Fit3D) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		var dimOut int
		if inc, err = buffer.ReadWord[int](r, &dimOut); err != nil {
			return n + inc, fmt.Errorf("outputDimension: %w", err)
		}
		n += inc

		if dimOut < 1 || dimOut > maxOutputDim {
			return n, fmt.Errorf("%w: outputDimension=%d not in [1, %d]", ErrMalformed, dimOut, maxOutputDim)
		}

		var bMin, bMax [3]float64

		if inc, err = buffer.ReadWords[float64](r, bMin[:]); err != nil {
			return n + inc, fmt.Errorf("boundsMin: %w", err)
		}
		n += inc

		if inc, err = buffer.ReadWords[float64](r, bMax[:]); err != nil {
			return n + inc, fmt.Errorf("boundsMax: %w", err)
		}
		n += inc

		if inc, err = buffer.ReadWord[float64](r, &f.prec); err != nil {
			return n + inc, fmt.Errorf("precision: %w", err)
		}
		n += inc

		if err = f.setBounds(bMin, bMax); err != nil {
			return n, err
		}

		f.calcs = make([]Calc, dimOut)
		for i := range f.calcs {
			if inc, err = f.calcs[i].ReadFrom(r); err != nil {
				return n + inc, fmt.Errorf("calc[%d]: %w", i, err)
			}
			n += inc
		}

		return n, nil

	default:
		return f.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (f *Fit3D) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(f.BinarySize())
	_, err = f.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (f *Fit3D) UnmarshalBinary(p []byte) (err error) {
	_, err = f.ReadFrom(buffer.NewBuffer(p))
	return
}
