package magfield

import (
	"bufio"
	"fmt"
	"io"

	"github.com/alice-offline/chebfield/cheb"
	"github.com/alice-offline/chebfield/utils/buffer"
	"github.com/alice-offline/chebfield/utils/structs"
)

// maxLevelLen bounds the length of every segmentation table read from a
// record.
const maxLevelLen = 1 << 24

// maxPoolLen bounds the number of fits of a region read from a record.
const maxPoolLen = 1 << 20

// BinarySize returns the serialized size of the object in bytes.
func (r *Region) BinarySize() (size int) {
	size = 1 + 8*3 + 8*3
	for l := range r.seg.Levels {
		lv := &r.seg.Levels[l]
		size += structs.Vector[int](lv.Beg).BinarySize()
		size += structs.Vector[int](lv.N).BinarySize()
		size += structs.Vector[float64](lv.Lo).BinarySize()
		size += structs.Vector[float64](lv.Hi).BinarySize()
	}
	size += structs.Vector[int](r.seg.FitID).BinarySize()
	size += r.fits.BinarySize()
	return
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// The record is: coordinate system, Min[3], Max[3], then for each level
// Beg, N, Lo and Hi as length-prefixed vectors, FitID, and the pool of fits.
func (r *Region) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = buffer.WriteUint8(w, uint8(r.system)); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteUint8: %w", err)
		}
		n += inc

		for _, v := range [][]float64{r.min[:], r.max[:]} {
			if inc, err = buffer.WriteWords[float64](w, v); err != nil {
				return n + inc, fmt.Errorf("buffer.WriteWords[float64]: %w", err)
			}
			n += inc
		}

		for l := range r.seg.Levels {
			lv := &r.seg.Levels[l]

			for _, v := range [][]int{lv.Beg, lv.N} {
				if inc, err = structs.Vector[int](v).WriteTo(w); err != nil {
					return n + inc, fmt.Errorf("level %d: %w", l, err)
				}
				n += inc
			}

			for _, v := range [][]float64{lv.Lo, lv.Hi} {
				if inc, err = structs.Vector[float64](v).WriteTo(w); err != nil {
					return n + inc, fmt.Errorf("level %d: %w", l, err)
				}
				n += inc
			}
		}

		if inc, err = structs.Vector[int](r.seg.FitID).WriteTo(w); err != nil {
			return n + inc, fmt.Errorf("FitID: %w", err)
		}
		n += inc

		if inc, err = r.fits.WriteTo(w); err != nil {
			return n + inc, fmt.Errorf("pool: %w", err)
		}
		n += inc

		return n, w.Flush()

	default:
		return r.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. The decoded region is validated as by
// NewRegion, and its recorded extents must match its segmentation.
func (r *Region) ReadFrom(rd io.Reader) (n int64, err error) {
	switch rd := rd.(type) {
	case buffer.Reader:

		var inc int64

		var system uint8
		if inc, err = buffer.ReadUint8(rd, &system); err != nil {
			return n + inc, fmt.Errorf("coordinate system: %w", err)
		}
		n += inc

		var min, max [3]float64
		for _, v := range [][]float64{min[:], max[:]} {
			if inc, err = buffer.ReadWords[float64](rd, v); err != nil {
				return n + inc, fmt.Errorf("extents: %w", err)
			}
			n += inc
		}

		var seg Segmentation

		for l := range seg.Levels {

			var beg, cnt structs.Vector[int]
			var lo, hi structs.Vector[float64]

			for _, v := range []*structs.Vector[int]{&beg, &cnt} {
				if inc, err = v.ReadFromBounded(rd, maxLevelLen); err != nil {
					return n + inc, fmt.Errorf("level %d: %w", l, err)
				}
				n += inc
			}

			for _, v := range []*structs.Vector[float64]{&lo, &hi} {
				if inc, err = v.ReadFromBounded(rd, maxLevelLen); err != nil {
					return n + inc, fmt.Errorf("level %d: %w", l, err)
				}
				n += inc
			}

			seg.Levels[l] = Level{Lo: lo, Hi: hi, Beg: beg, N: cnt}
		}

		var fitID structs.Vector[int]
		if inc, err = fitID.ReadFromBounded(rd, maxLevelLen); err != nil {
			return n + inc, fmt.Errorf("FitID: %w", err)
		}
		n += inc
		seg.FitID = fitID

		var fits structs.Vector[cheb.Fit3D]
		if inc, err = fits.ReadFromBounded(rd, maxPoolLen); err != nil {
			return n + inc, fmt.Errorf("pool: %w", err)
		}
		n += inc

		*r = Region{system: CoordSystem(system), seg: seg, fits: fits}

		if err = r.init(); err != nil {
			return n, err
		}

		if r.min != min || r.max != max {
			return n, fmt.Errorf("%w: recorded extents %v %v do not match segmentation extents %v %v", ErrFormat, min, max, r.min, r.max)
		}

		return n, nil

	default:
		return r.ReadFrom(bufio.NewReader(rd))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (r *Region) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(r.BinarySize())
	_, err = r.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (r *Region) UnmarshalBinary(p []byte) (err error) {
	_, err = r.ReadFrom(buffer.NewBuffer(p))
	return
}

// BinarySize returns the serialized size of the object in bytes.
func (m *Map) BinarySize() (size int) {
	for _, r := range m.regions {
		size++
		if r != nil {
			size += r.BinarySize()
		}
	}
	return
}

// WriteTo writes the object on an io.Writer. It implements the io.WriterTo
// interface, and will write exactly object.BinarySize() bytes on w.
//
// The record is, for the solenoid, dipole and tpc-integral regions in this
// order, a presence byte followed by the region record if present.
func (m *Map) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		for k, r := range m.regions {

			var present uint8
			if r != nil {
				present = 1
			}

			if inc, err = buffer.WriteUint8(w, present); err != nil {
				return n + inc, fmt.Errorf("region %q: %w", RegionKind(k), err)
			}
			n += inc

			if r == nil {
				continue
			}

			if inc, err = r.WriteTo(w); err != nil {
				return n + inc, fmt.Errorf("region %q: %w", RegionKind(k), err)
			}
			n += inc
		}

		return n, w.Flush()

	default:
		return m.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Writer. It implements the
// io.ReaderFrom interface. Errors name the region and the record that
// failed to decode.
func (m *Map) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64

		var regions [NumRegions]*Region

		for k := range regions {

			var present uint8
			if inc, err = buffer.ReadUint8(r, &present); err != nil {
				return n + inc, fmt.Errorf("region %q: %w", RegionKind(k), err)
			}
			n += inc

			switch present {
			case 0:
				continue
			case 1:
			default:
				return n, fmt.Errorf("%w: region %q: invalid presence byte %d", ErrFormat, RegionKind(k), present)
			}

			regions[k] = new(Region)
			if inc, err = regions[k].ReadFrom(r); err != nil {
				return n + inc, fmt.Errorf("region %q: %w", RegionKind(k), err)
			}
			n += inc
		}

		*m = Map{regions: regions}

		return n, m.validate()

	default:
		return m.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the object into a binary form on a newly allocated slice of bytes.
func (m *Map) MarshalBinary() (p []byte, err error) {
	buf := buffer.NewBufferSize(m.BinarySize())
	_, err = m.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a slice of bytes generated by
// MarshalBinary or WriteTo on the object.
func (m *Map) UnmarshalBinary(p []byte) (err error) {
	_, err = m.ReadFrom(buffer.NewBuffer(p))
	return
}
