package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func eval(f Field, p [3]float64) (b [3]float64) {
	f.Eval(p, b[:])
	return
}

func TestFiniteSolenoid(t *testing.T) {

	s := FiniteSolenoid{B0: 0.5, Radius: 3, HalfLength: 5}
	require.NoError(t, s.Validate())

	t.Run("Centre", func(t *testing.T) {
		require.InDelta(t, 0.5, eval(s, [3]float64{0, 0, 0})[2], 1e-15)
		require.Zero(t, eval(s, [3]float64{0, 1, 0})[0])
	})

	t.Run("Symmetry", func(t *testing.T) {
		for _, z := range []float64{0.5, 2, 4.9, 7} {
			up := eval(s, [3]float64{1, 0.3, z})
			down := eval(s, [3]float64{1, 0.3, -z})
			require.InDelta(t, up[2], down[2], 1e-14)
			require.InDelta(t, up[0], -down[0], 1e-14)
			require.Zero(t, up[1])
		}
	})

	t.Run("Edge", func(t *testing.T) {
		// Half the central field at the ends of a long solenoid.
		long := FiniteSolenoid{B0: 1, Radius: 0.1, HalfLength: 100}
		require.InDelta(t, 0.5, eval(long, [3]float64{0, 0, 100})[2], 1e-5)
		require.Less(t, eval(long, [3]float64{0, 0, 120})[2], 1e-4)
	})

	t.Run("Divergence", func(t *testing.T) {
		// div B = 1/r d(r Br)/dr + dBz/dz vanishes to the order of the expansion.
		const h = 1e-4
		p := [3]float64{0.1, 0, 3}
		rbr := func(r float64) float64 { return r * eval(s, [3]float64{r, 0, p[2]})[0] }
		bz := func(z float64) float64 { return eval(s, [3]float64{p[0], 0, z})[2] }
		div := (rbr(p[0]+h)-rbr(p[0]-h))/(2*h)/p[0] + (bz(p[2]+h)-bz(p[2]-h))/(2*h)
		require.InDelta(t, 0, div, 1e-4)
	})

	require.Error(t, FiniteSolenoid{B0: 1, Radius: 0, HalfLength: 1}.Validate())
}

func TestEngeDipole(t *testing.T) {

	d := EngeDipole{B0: -0.7, Center: 9, HalfLength: 2, Gap: 0.5}
	require.NoError(t, d.Validate())

	t.Run("Profile", func(t *testing.T) {
		centre := eval(d, [3]float64{0, 0, 9})
		require.InDelta(t, -0.7, centre[1], 1e-3)
		require.Zero(t, centre[0])
		require.Zero(t, centre[2])
		far := eval(d, [3]float64{0, 0, 30})
		require.InDelta(t, 0, far[1], 1e-12)
		// symmetric around the centre
		require.InDelta(t, eval(d, [3]float64{0, 0, 8})[1], eval(d, [3]float64{0, 0, 10})[1], 1e-15)
	})

	t.Run("CurlFree", func(t *testing.T) {
		// dBy/dz = dBz/dy
		const h = 1e-5
		p := [3]float64{0, 0.1, 11.2}
		dBydz := (eval(d, [3]float64{p[0], p[1], p[2] + h})[1] - eval(d, [3]float64{p[0], p[1], p[2] - h})[1]) / (2 * h)
		dBzdy := (eval(d, [3]float64{p[0], p[1] + h, p[2]})[2] - eval(d, [3]float64{p[0], p[1] - h, p[2]})[2]) / (2 * h)
		require.InDelta(t, dBydz, dBzdy, 1e-6)
	})

	require.Error(t, EngeDipole{Gap: 0}.Validate())
}

func TestTPCIntegral(t *testing.T) {

	t.Run("Uniform", func(t *testing.T) {
		tpc := TPCIntegral{Solenoid: Uniform{Bz: 0.5}}
		require.Equal(t, [3]float64{}, eval(tpc, [3]float64{100, 1, 200}))
	})

	t.Run("Constant", func(t *testing.T) {
		tpc := TPCIntegral{Solenoid: Constant{B: [3]float64{0.1, -0.2, 0.5}}, Steps: 4}
		v := eval(tpc, [3]float64{100, 1, -50})
		require.InDelta(t, 0.2*-50, v[0], 1e-12)
		require.InDelta(t, -0.4*-50, v[1], 1e-12)
		require.InDelta(t, (0.04+0.16)*-50, v[2], 1e-12)
		require.Equal(t, [3]float64{}, eval(tpc, [3]float64{100, 1, 0}))
	})

	t.Run("Solenoid", func(t *testing.T) {
		// Br/Bz = -r/2 b'/b at leading order, so the integral is -r/2 ln(b(z)/b(0)).
		s := FiniteSolenoid{B0: 0.5, Radius: 3, HalfLength: 5}
		tpc := TPCIntegral{Solenoid: s, Steps: 200}
		const r, z = 0.01, 2.5
		want := -r / 2 * math.Log(eval(s, [3]float64{0, 0, z})[2]/eval(s, [3]float64{})[2])
		require.InDelta(t, want, eval(tpc, [3]float64{r, 0, z})[0], 1e-7)
	})
}

func TestNew(t *testing.T) {

	specs := []Spec{
		{Kind: "constant", B: [3]float64{1, 2, 3}},
		{Kind: "uniform", B: [3]float64{0, 0, 0.5}},
		{Kind: "solenoid", B: [3]float64{0, 0, 0.5}, Radius: 3, HalfLength: 5},
		{Kind: "dipole", B: [3]float64{0, -0.7, 0}, Center: 9, HalfLength: 2, Gap: 0.5},
		{Kind: "tpcint", Solenoid: &Spec{Kind: "uniform", B: [3]float64{0, 0, 0.5}}},
	}

	for _, s := range specs {
		t.Run(s.Kind, func(t *testing.T) {
			f, err := New(s)
			require.NoError(t, err)
			require.NotNil(t, f)
		})
	}

	f, err := New(specs[0])
	require.NoError(t, err)
	require.Equal(t, Constant{B: [3]float64{1, 2, 3}}, f)

	for _, s := range []Spec{
		{Kind: "toroid"},
		{Kind: "solenoid", Radius: -1, HalfLength: 1},
		{Kind: "dipole", Gap: 0},
		{Kind: "tpcint"},
		{Kind: "tpcint", Solenoid: &Spec{Kind: "toroid"}},
	} {
		_, err := New(s)
		require.Error(t, err, s.Kind)
	}
}
