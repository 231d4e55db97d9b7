package cheb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alice-offline/chebfield/utils/buffer"
)

func testFit(t testing.TB) *Fit3D {
	f := func(p [3]float64, out []float64) {
		out[0] = math.Sin(p[0]) * math.Cos(2*p[1]) * p[2]
		out[1] = p[0]*p[0] - p[2]
		out[2] = 1.25
	}
	return fitTestFunc(t, f, 3, [3]float64{-2, 0, 10}, [3]float64{1, 3, 12}, [3]int{9, 8, 7}, 1e-7)
}

func TestMarshaler(t *testing.T) {

	fit := testFit(t)

	t.Run("Calc", func(t *testing.T) {
		c := fit.Calc(0)
		data, err := c.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, data, c.BinarySize())

		var got Calc
		require.NoError(t, got.UnmarshalBinary(data))
		require.True(t, c.Equal(&got))
	})

	t.Run("Fit3D/MarshalBinary", func(t *testing.T) {
		data, err := fit.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, data, fit.BinarySize())

		var got Fit3D
		require.NoError(t, got.UnmarshalBinary(data))
		require.True(t, fit.Equal(&got))
		require.Equal(t, fit.Scale(), got.Scale())
		require.Equal(t, fit.Offset(), got.Offset())

		p := [3]float64{-0.5, 1.5, 11}
		require.Equal(t, fit.EvalNew(p), got.EvalNew(p))
	})

	t.Run("Fit3D/WriterTo", func(t *testing.T) {
		// bytes.Buffer does not implement buffer.Writer.
		var b bytes.Buffer
		n, err := fit.WriteTo(&b)
		require.NoError(t, err)
		require.Equal(t, int64(fit.BinarySize()), n)

		var got Fit3D
		n, err = got.ReadFrom(&b)
		require.NoError(t, err)
		require.Equal(t, int64(fit.BinarySize()), n)
		require.True(t, fit.Equal(&got))
	})

	t.Run("Fit3D/Truncated", func(t *testing.T) {
		data, err := fit.MarshalBinary()
		require.NoError(t, err)
		for _, size := range []int{0, 7, 8, 60, len(data) / 2, len(data) - 1} {
			var got Fit3D
			require.Error(t, got.UnmarshalBinary(data[:size]), "size=%d", size)
		}
	})

	t.Run("Fit3D/Concatenated", func(t *testing.T) {
		// Records are self-delimiting.
		other := testFit(t)
		require.NoError(t, other.ShiftBound(2, 2))
		var b bytes.Buffer
		_, err := fit.WriteTo(&b)
		require.NoError(t, err)
		_, err = other.WriteTo(&b)
		require.NoError(t, err)

		r := buffer.NewBuffer(b.Bytes())
		var got1, got2 Fit3D
		_, err = got1.ReadFrom(r)
		require.NoError(t, err)
		_, err = got2.ReadFrom(r)
		require.NoError(t, err)
		require.True(t, fit.Equal(&got1))
		require.True(t, other.Equal(&got2))
	})
}

func TestMarshalerMalformed(t *testing.T) {

	// Constant Calc record: nCoefsTotal, nRows, nCols, nBoundaryElems,
	// colCountPerRow[0], colStartPerRow[0], boundaryNCoefs[0],
	// boundaryStart[0], coefficients[0].
	record := func() []byte {
		data, err := NewConstantCalc(1).MarshalBinary()
		require.NoError(t, err)
		require.Len(t, data, 9*8)
		return data
	}

	set := func(data []byte, field int, v uint64) []byte {
		binary.LittleEndian.PutUint64(data[8*field:], v)
		return data
	}

	cases := map[string][]byte{
		"HugeRows":       set(record(), 1, 1<<40),
		"NegativeRows":   set(record(), 1, math.MaxUint64),
		"Cols":           set(record(), 2, 2),
		"HugeCols":       set(record(), 2, 1<<20),
		"NoCols":         set(record(), 2, 0),
		"ColCount":       set(record(), 4, 2),
		"ColStart":       set(record(), 5, 1),
		"BoundaryNCoefs": set(record(), 6, 3),
		"BoundaryStart":  set(record(), 7, 1),
	}

	for name, data := range cases {
		t.Run("Calc/"+name, func(t *testing.T) {
			var c Calc
			err := c.UnmarshalBinary(data)
			require.Error(t, err)
			if !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
				require.ErrorIs(t, err, ErrMalformed)
			}
		})
	}

	t.Run("Fit3D/OutputDim", func(t *testing.T) {
		data, err := testFit(t).MarshalBinary()
		require.NoError(t, err)
		var f Fit3D
		require.ErrorIs(t, f.UnmarshalBinary(set(data, 0, 0)), ErrMalformed)
	})

	t.Run("Fit3D/EmptyBox", func(t *testing.T) {
		data, err := testFit(t).MarshalBinary()
		require.NoError(t, err)
		// boundsMax[0] = boundsMin[0]
		copy(data[4*8:5*8], data[1*8:2*8])
		var f Fit3D
		require.ErrorIs(t, f.UnmarshalBinary(data), ErrMalformed)
	})

	t.Run("Fit3D/CalcIndex", func(t *testing.T) {
		fit := testFit(t)
		data, err := fit.MarshalBinary()
		require.NoError(t, err)
		// boundaryStart[0] of the second calc
		off := 8*8 + fit.Calc(0).BinarySize()
		c := fit.Calc(1)
		field := 4 + 2*c.Rows() + c.NBoundaryElems()
		set(data[off:], field, 1<<20)
		var f Fit3D
		err = f.UnmarshalBinary(data)
		require.ErrorIs(t, err, ErrMalformed)
		require.True(t, strings.HasPrefix(err.Error(), "calc[1]: "), err.Error())
	})
}
