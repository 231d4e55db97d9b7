// Package model implements analytic magnetic field models, used to build
// field maps and to check them.
package model

import (
	"fmt"
	"math"
)

// Field is a vector field of three variables. Eval writes the three field
// components at p in out, in the coordinate system of the region the
// field describes. Implementations are safe for concurrent use.
type Field interface {
	Eval(p [3]float64, out []float64)
}

// Constant is a constant vector field.
type Constant struct {
	B [3]float64
}

// Eval implements Field.
func (c Constant) Eval(p [3]float64, out []float64) {
	copy(out[:3], c.B[:])
}

// Uniform is the field (0, 0, Bz) of an infinite ideal solenoid. It reads
// the same in cylindrical and Cartesian components.
type Uniform struct {
	Bz float64
}

// Eval implements Field.
func (u Uniform) Eval(p [3]float64, out []float64) {
	out[0], out[1], out[2] = 0, 0, u.Bz
}

// FiniteSolenoid is the field of a solenoid of radius Radius and half
// length HalfLength centred on the origin, normalized to B0 at the
// centre, in cylindrical components (Br, Bphi, Bz) at (r, phi, z).
//
// The on-axis field b(z) is exact; off axis the field is expanded to
// second order in r: Br = -r/2 b'(z), Bz = b(z) - r²/4 b''(z).
type FiniteSolenoid struct {
	B0         float64
	Radius     float64
	HalfLength float64
}

// Validate checks that the geometry is non-degenerate.
func (s FiniteSolenoid) Validate() error {
	if !(s.Radius > 0) || !(s.HalfLength > 0) {
		return fmt.Errorf("invalid solenoid geometry: radius %g and half length %g must be positive", s.Radius, s.HalfLength)
	}
	return nil
}

// Eval implements Field.
func (s FiniteSolenoid) Eval(p [3]float64, out []float64) {

	r, z := p[0], p[2]
	a2 := s.Radius * s.Radius
	l := s.HalfLength

	// b(z) = k [g(z+L) - g(z-L)] with g(u) = u/sqrt(u²+a²)
	k := s.B0 * math.Sqrt(l*l+a2) / (2 * l)

	g0, g1, g2 := edge(z+l, a2)
	h0, h1, h2 := edge(z-l, a2)

	b := k * (g0 - h0)
	db := k * (g1 - h1)
	d2b := k * (g2 - h2)

	out[0] = -0.5 * r * db
	out[1] = 0
	out[2] = b - 0.25*r*r*d2b
}

// edge returns g(u) = u/sqrt(u²+a²) and its first two derivatives.
func edge(u, a2 float64) (g, dg, d2g float64) {
	s := u*u + a2
	rs := 1 / math.Sqrt(s)
	g = u * rs
	dg = a2 * rs * rs * rs
	d2g = -3 * u * dg / s
	return
}

// EngeDipole is a dipole field along y, in Cartesian components at
// (x, y, z). Along z the field follows an Enge profile around the
// interval [Center-HalfLength, Center+HalfLength]:
//
//	F(s) = 1/(1+exp(c0 + c1 s + c2 s² + ...)), s = (|z-Center| - HalfLength)/Gap
//
// and Bz = y B0 F'(z) keeps the field curl-free to first order in y.
type EngeDipole struct {
	B0         float64
	Center     float64
	HalfLength float64
	Gap        float64
	Coeffs     []float64
}

// DefaultEngeCoeffs is a typical Enge profile.
var DefaultEngeCoeffs = []float64{0.478959, 1.911289, -1.185953, 1.630554, -1.082657, 0.318111}

// Validate checks that the profile is well defined.
func (d EngeDipole) Validate() error {
	if !(d.Gap > 0) || d.HalfLength < 0 {
		return fmt.Errorf("invalid dipole geometry: gap %g must be positive and half length %g non-negative", d.Gap, d.HalfLength)
	}
	return nil
}

// Eval implements Field.
func (d EngeDipole) Eval(p [3]float64, out []float64) {

	coeffs := d.Coeffs
	if len(coeffs) == 0 {
		coeffs = DefaultEngeCoeffs
	}

	dz := p[2] - d.Center
	sign := 1.0
	if dz < 0 {
		sign = -1
	}
	s := (math.Abs(dz) - d.HalfLength) / d.Gap

	// P(s) and P'(s) by Horner
	var poly, dpoly float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		dpoly = dpoly*s + poly
		poly = poly*s + coeffs[i]
	}

	var f, df float64
	if poly > 700 {
		// exp overflows, the field vanishes
		f, df = 0, 0
	} else {
		e := math.Exp(poly)
		f = 1 / (1 + e)
		df = -e * dpoly * f * f * sign / d.Gap
	}

	out[0] = 0
	out[1] = d.B0 * f
	out[2] = d.B0 * p[1] * df
}

// DefaultSimpsonSteps is the number of integration intervals of TPCIntegral.
const DefaultSimpsonSteps = 64

// TPCIntegral integrates a cylindrical solenoid field along z, from the
// cathode plane z = 0 to the point, and returns at (r, phi, z)
//
//	(∫ Br/Bz dz, ∫ Bphi/Bz dz, ∫ (Br²+Bphi²)/Bz² dz)
//
// with the composite Simpson rule over Steps intervals. Points where Bz
// vanishes do not contribute.
type TPCIntegral struct {
	Solenoid Field
	Steps    int
}

// Eval implements Field.
func (t TPCIntegral) Eval(p [3]float64, out []float64) {

	n := t.Steps
	if n <= 0 {
		n = DefaultSimpsonSteps
	}
	if n%2 == 1 {
		n++
	}

	out[0], out[1], out[2] = 0, 0, 0

	if p[2] == 0 {
		return
	}

	h := p[2] / float64(n)

	var b [3]float64
	var sum [3]float64
	for i := 0; i <= n; i++ {

		w := 2.0
		switch {
		case i == 0 || i == n:
			w = 1
		case i%2 == 1:
			w = 4
		}

		t.Solenoid.Eval([3]float64{p[0], p[1], float64(i) * h}, b[:])

		if b[2] == 0 {
			continue
		}

		br, bphi := b[0]/b[2], b[1]/b[2]
		sum[0] += w * br
		sum[1] += w * bphi
		sum[2] += w * (br*br + bphi*bphi)
	}

	for i := range sum {
		out[i] = sum[i] * h / 3
	}
}
