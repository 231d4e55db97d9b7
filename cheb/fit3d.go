package cheb

import (
	"fmt"
	"math"

	"github.com/alice-offline/chebfield/utils"
)

// BoundaryTolerance is the slack, in source units, allowed by IsInside
// around the validity box.
const BoundaryTolerance = 1e-4

// BoundaryPolicy selects how points outside the validity box are mapped
// to the canonical cube.
type BoundaryPolicy int

const (
	// Extrapolate maps points linearly, so that points outside the box
	// evaluate the series outside [-1, 1]. Chebyshev series diverge quickly
	// there: the returned values are defined but carry no physical meaning.
	Extrapolate = BoundaryPolicy(0)
	// ClampToBoundary clamps the canonical coordinates to [-1, 1], so that a
	// point outside the box evaluates as its projection on the box surface.
	ClampToBoundary = BoundaryPolicy(1)
)

func (p BoundaryPolicy) String() string {
	switch p {
	case Extrapolate:
		return "extrapolate"
	case ClampToBoundary:
		return "clamp"
	default:
		return fmt.Sprintf("BoundaryPolicy(%d)", int(p))
	}
}

// ParseBoundaryPolicy returns the policy named s ("extrapolate" or "clamp").
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "extrapolate", "":
		return Extrapolate, nil
	case "clamp":
		return ClampToBoundary, nil
	default:
		return Extrapolate, fmt.Errorf("invalid boundary policy %q: valid policies are extrapolate and clamp", s)
	}
}

// Fit3D is a vector-valued Chebyshev parameterization of a function of
// three variables over the box [BoundMin, BoundMax]. It owns one Calc per
// output dimension and maps source coordinates to [-1, 1]^3 with
// u = (x - offset)*scale.
//
// Evaluation methods are safe for concurrent use. ShiftBound is the only
// mutating method and must not run concurrently with any other method.
type Fit3D struct {
	name   string
	bMin   [3]float64
	bMax   [3]float64
	scale  [3]float64
	offset [3]float64
	prec   float64
	policy BoundaryPolicy
	calcs  []Calc
}

// NewFit3D returns a Fit3D over [bMin, bMax] with one output dimension per
// element of calcs. The box must be non-empty along every axis.
func NewFit3D(name string, bMin, bMax [3]float64, prec float64, calcs []Calc) (*Fit3D, error) {
	f := &Fit3D{name: name, prec: prec, calcs: calcs}
	if err := f.setBounds(bMin, bMax); err != nil {
		return nil, err
	}
	if len(calcs) == 0 {
		return nil, fmt.Errorf("%w: output dimension must be at least 1", ErrMalformed)
	}
	return f, nil
}

func (f *Fit3D) setBounds(bMin, bMax [3]float64) error {
	for d := 0; d < 3; d++ {
		if math.IsNaN(bMin[d]) || math.IsInf(bMin[d], 0) || math.IsNaN(bMax[d]) || math.IsInf(bMax[d], 0) {
			return fmt.Errorf("%w: non-finite bounds [%g, %g] along axis %d", ErrMalformed, bMin[d], bMax[d], d)
		}
		if !(bMin[d] < bMax[d]) {
			return fmt.Errorf("%w: empty bounds [%g, %g] along axis %d", ErrMalformed, bMin[d], bMax[d], d)
		}
	}
	f.bMin, f.bMax = bMin, bMax
	for d := 0; d < 3; d++ {
		f.scale[d] = 2 / (bMax[d] - bMin[d])
		f.offset[d] = (bMax[d] + bMin[d]) / 2
	}
	return nil
}

// Name returns the informational name of the parameterization.
func (f *Fit3D) Name() string {
	return f.name
}

// OutputDim returns the number of output dimensions.
func (f *Fit3D) OutputDim() int {
	return len(f.calcs)
}

// BoundMin returns the lower corner of the validity box.
func (f *Fit3D) BoundMin() [3]float64 {
	return f.bMin
}

// BoundMax returns the upper corner of the validity box.
func (f *Fit3D) BoundMax() [3]float64 {
	return f.bMax
}

// Scale returns 2/(max-min) for each axis.
func (f *Fit3D) Scale() [3]float64 {
	return f.scale
}

// Offset returns (max+min)/2 for each axis.
func (f *Fit3D) Offset() [3]float64 {
	return f.offset
}

// Precision returns the absolute precision the parameterization was built for.
func (f *Fit3D) Precision() float64 {
	return f.prec
}

// BoundaryPolicy returns the policy applied to points outside the box.
func (f *Fit3D) BoundaryPolicy() BoundaryPolicy {
	return f.policy
}

// Calc returns the series of output dimension i.
func (f *Fit3D) Calc(i int) *Calc {
	return &f.calcs[i]
}

// NCoefs returns the total number of retained coefficients.
func (f *Fit3D) NCoefs() (n int) {
	for i := range f.calcs {
		n += f.calcs[i].NCoefs()
	}
	return
}

// WithBoundaryPolicy returns a shallow copy of f applying the given policy.
// The copy shares the coefficient tables of f.
func (f *Fit3D) WithBoundaryPolicy(policy BoundaryPolicy) *Fit3D {
	g := *f
	g.policy = policy
	return &g
}

// WithName returns a shallow copy of f carrying the given name.
func (f *Fit3D) WithName(name string) *Fit3D {
	g := *f
	g.name = name
	return &g
}

// CopyNew returns a deep copy of the object.
func (f *Fit3D) CopyNew() *Fit3D {
	g := *f
	g.calcs = make([]Calc, len(f.calcs))
	for i := range f.calcs {
		g.calcs[i] = *f.calcs[i].CopyNew()
	}
	return &g
}

// Equal returns true if both parameterizations have the same box, precision
// and coefficient tables. The name and the boundary policy are ignored.
func (f *Fit3D) Equal(other *Fit3D) bool {
	return f.bMin == other.bMin &&
		f.bMax == other.bMax &&
		f.prec == other.prec &&
		calcsEqual(f.calcs, other.calcs)
}

func calcsEqual(a, b []Calc) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}

// MapToInternal maps the source coordinate x along axis dim to the
// canonical interval, clamped to [-1, 1] under ClampToBoundary.
func (f *Fit3D) MapToInternal(x float64, dim int) float64 {
	u := (x - f.offset[dim]) * f.scale[dim]
	if f.policy == ClampToBoundary {
		return utils.Clamp(u, -1, 1)
	}
	return u
}

func (f *Fit3D) mapPoint(p [3]float64) (u [3]float64) {
	for d := 0; d < 3; d++ {
		u[d] = f.MapToInternal(p[d], d)
	}
	return
}

// Eval evaluates every output dimension at p and writes them in out,
// which must have length at least OutputDim.
func (f *Fit3D) Eval(p [3]float64, out []float64) {
	u := f.mapPoint(p)
	out = out[:len(f.calcs)]
	for i := range f.calcs {
		out[i] = f.calcs[i].Eval(u)
	}
}

// EvalNew evaluates every output dimension at p in a newly allocated slice.
func (f *Fit3D) EvalNew(p [3]float64) (out []float64) {
	out = make([]float64, len(f.calcs))
	f.Eval(p, out)
	return
}

// EvalDim evaluates output dimension i at p.
func (f *Fit3D) EvalDim(p [3]float64, i int) float64 {
	return f.calcs[i].Eval(f.mapPoint(p))
}

// EvalDeriv evaluates the derivative along source axis dim of every output
// dimension at p and writes them in out.
func (f *Fit3D) EvalDeriv(dim int, p [3]float64, out []float64) {
	u := f.mapPoint(p)
	out = out[:len(f.calcs)]
	for i := range f.calcs {
		out[i] = f.calcs[i].EvalDeriv(dim, u) * f.scale[dim]
	}
}

// EvalDerivDim evaluates the derivative along source axis dim of output
// dimension i at p.
func (f *Fit3D) EvalDerivDim(dim int, p [3]float64, i int) float64 {
	return f.calcs[i].EvalDeriv(dim, f.mapPoint(p)) * f.scale[dim]
}

// EvalDeriv2 evaluates the second derivative along source axes dim1 and
// dim2 of every output dimension at p and writes them in out.
func (f *Fit3D) EvalDeriv2(dim1, dim2 int, p [3]float64, out []float64) {
	u := f.mapPoint(p)
	s := f.scale[dim1] * f.scale[dim2]
	out = out[:len(f.calcs)]
	for i := range f.calcs {
		out[i] = f.calcs[i].EvalDeriv2(dim1, dim2, u) * s
	}
}

// EvalDeriv2Dim evaluates the second derivative along source axes dim1 and
// dim2 of output dimension i at p.
func (f *Fit3D) EvalDeriv2Dim(dim1, dim2 int, p [3]float64, i int) float64 {
	return f.calcs[i].EvalDeriv2(dim1, dim2, f.mapPoint(p)) * f.scale[dim1] * f.scale[dim2]
}

// IsInside returns true if p lies in the validity box up to
// BoundaryTolerance. NaN coordinates are outside.
func (f *Fit3D) IsInside(p [3]float64) bool {
	for d := 0; d < 3; d++ {
		if !(p[d]-f.bMin[d] >= -BoundaryTolerance && f.bMax[d]-p[d] >= -BoundaryTolerance) {
			return false
		}
	}
	return true
}

// ShiftBound translates the validity box by delta along axis dim. Both
// bounds move and the width of the box is kept. It is used to patch boundaries of
// neighbouring parameterizations without refitting, and must be called
// before f is shared with concurrent readers.
func (f *Fit3D) ShiftBound(dim int, delta float64) error {
	if dim < 0 || dim > 2 {
		return fmt.Errorf("cannot ShiftBound: invalid axis %d", dim)
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("cannot ShiftBound: non-finite delta %g", delta)
	}
	bMin, bMax := f.bMin, f.bMax
	bMin[dim] += delta
	bMax[dim] += delta
	if err := f.setBounds(bMin, bMax); err != nil {
		return fmt.Errorf("cannot ShiftBound: %w", err)
	}
	return nil
}
