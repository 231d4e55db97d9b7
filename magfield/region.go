package magfield

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/alice-offline/chebfield/cheb"
	"github.com/alice-offline/chebfield/utils/structs"
)

// CoordSystem is the coordinate system a Region is parameterized in.
type CoordSystem uint8

const (
	// Cylindrical regions take (r, phi, z) points and return (r, phi, z)
	// field components.
	Cylindrical = CoordSystem(0)
	// Cartesian regions take (x, y, z) points and return (x, y, z) field
	// components.
	Cartesian = CoordSystem(1)
)

func (c CoordSystem) String() string {
	switch c {
	case Cylindrical:
		return "cylindrical"
	case Cartesian:
		return "cartesian"
	default:
		return fmt.Sprintf("CoordSystem(%d)", uint8(c))
	}
}

// ParseCoordSystem returns the coordinate system named s.
func ParseCoordSystem(s string) (CoordSystem, error) {
	switch s {
	case "cylindrical":
		return Cylindrical, nil
	case "cartesian":
		return Cartesian, nil
	default:
		return 0, fmt.Errorf("invalid coordinate system %q: valid systems are cylindrical and cartesian", s)
	}
}

// Region is a piecewise parameterization: a Segmentation whose leaves
// select fits from a pool owned by the region. A Region is immutable once
// built and can be evaluated concurrently.
type Region struct {
	system CoordSystem
	min    [3]float64
	max    [3]float64
	seg    Segmentation
	fits   structs.Vector[cheb.Fit3D]
}

// NewRegion returns a Region after checking that seg is consistent with
// the pool fits and that every fit has the same output dimension. The
// region takes ownership of seg and fits.
func NewRegion(system CoordSystem, seg Segmentation, fits []cheb.Fit3D) (*Region, error) {
	r := &Region{system: system, seg: seg, fits: fits}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Region) init() error {

	if r.system != Cylindrical && r.system != Cartesian {
		return fmt.Errorf("%w: invalid coordinate system %d", ErrFormat, r.system)
	}

	if err := r.seg.Validate(len(r.fits)); err != nil {
		return err
	}

	for i := range r.fits {
		if r.fits[i].OutputDim() != r.fits[0].OutputDim() {
			return fmt.Errorf("%w: fit %d has output dimension %d, fit 0 has %d", ErrFormat, i, r.fits[i].OutputDim(), r.fits[0].OutputDim())
		}
	}

	r.min, r.max = r.seg.Extents()

	return nil
}

// System returns the coordinate system of the region.
func (r *Region) System() CoordSystem {
	return r.system
}

// Min returns the lower corner of the box enclosing every segment.
func (r *Region) Min() [3]float64 {
	return r.min
}

// Max returns the upper corner of the box enclosing every segment.
func (r *Region) Max() [3]float64 {
	return r.max
}

// Segmentation returns the segmentation of the region. It shares its
// tables with the region and must not be modified.
func (r *Region) Segmentation() *Segmentation {
	return &r.seg
}

// NumFits returns the size of the pool.
func (r *Region) NumFits() int {
	return len(r.fits)
}

// Fit returns the fit of the pool with the given ID.
func (r *Region) Fit(id int) *cheb.Fit3D {
	return &r.fits[id]
}

// OutputDim returns the output dimension of the fits, 0 for an empty pool.
func (r *Region) OutputDim() int {
	if len(r.fits) == 0 {
		return 0
	}
	return r.fits[0].OutputDim()
}

// NCoefs returns the number of coefficients retained over the pool.
func (r *Region) NCoefs() (n int) {
	for i := range r.fits {
		n += r.fits[i].NCoefs()
	}
	return
}

// FindSegment returns the ID of the fit covering p, given in the
// coordinates of the region, or NoSegment. The azimuth of cylindrical
// points may be given in any turn.
func (r *Region) FindSegment(p [3]float64) int {

	if r.system == Cylindrical {
		p[1] = NormalizePhi(p[1])
	}

	for d := 0; d < 3; d++ {
		if !(p[d] >= r.min[d] && p[d] < r.max[d]) {
			return NoSegment
		}
	}

	return r.seg.Find(p)
}

// Eval evaluates the fit covering p and writes its outputs in out. It
// returns false and sets out to zero if no fit covers p.
func (r *Region) Eval(p [3]float64, out []float64) bool {

	if r.system == Cylindrical {
		p[1] = NormalizePhi(p[1])
	}

	id := r.FindSegment(p)

	if id == NoSegment {
		for i := range out {
			out[i] = 0
		}
		return false
	}

	r.fits[id].Eval(p, out)

	return true
}

// EvalDim evaluates output i of the fit covering p. It returns 0 and false
// if no fit covers p.
func (r *Region) EvalDim(p [3]float64, i int) (float64, bool) {

	if r.system == Cylindrical {
		p[1] = NormalizePhi(p[1])
	}

	id := r.FindSegment(p)

	if id == NoSegment {
		return 0, false
	}

	return r.fits[id].EvalDim(p, i), true
}

// eval3 is Eval for three outputs.
func (r *Region) eval3(p [3]float64) (b [3]float64, ok bool) {
	ok = r.Eval(p, b[:])
	return
}

// WithBoundaryPolicy returns a view of r whose fits apply the given
// policy. The view shares the segmentation and coefficient tables of r.
func (r *Region) WithBoundaryPolicy(policy cheb.BoundaryPolicy) *Region {
	view := *r
	view.fits = make([]cheb.Fit3D, len(r.fits))
	for i := range r.fits {
		view.fits[i] = *r.fits[i].WithBoundaryPolicy(policy)
	}
	return &view
}

// CopyNew returns a deep copy of the object.
func (r *Region) CopyNew() *Region {
	return &Region{
		system: r.system,
		min:    r.min,
		max:    r.max,
		seg:    *r.seg.CopyNew(),
		fits:   r.fits.CopyNew(),
	}
}

// Equal returns true if both regions have the same segmentation and pool.
func (r *Region) Equal(other *Region) bool {
	return r.system == other.system &&
		r.min == other.min &&
		r.max == other.max &&
		cmp.Equal(r.seg, other.seg, cmpopts.EquateEmpty()) &&
		r.fits.Equal(other.fits)
}
