package magfield

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alice-offline/chebfield/cheb"
)

// constantFit returns a fit over [bMin, bMax] evaluating to b everywhere.
func constantFit(t testing.TB, bMin, bMax [3]float64, b [3]float64) cheb.Fit3D {
	calcs := make([]cheb.Calc, 3)
	for i := range calcs {
		calcs[i] = *cheb.NewConstantCalc(b[i])
	}
	fit, err := cheb.NewFit3D("constant", bMin, bMax, 0, calcs)
	require.NoError(t, err)
	return *fit
}

// zSlabRegion returns a region with one segment per z interval, each
// covering the whole transverse extent of the region and evaluating to a
// constant field.
func zSlabRegion(t testing.TB, system CoordSystem, z [][2]float64, b [][3]float64) *Region {

	var lo1, hi1, lo2, hi2 float64
	switch system {
	case Cylindrical:
		lo1, hi1, lo2, hi2 = 0, 2*math.Pi, 0, 100
	default:
		lo1, hi1, lo2, hi2 = -100, 100, -100, 100
	}

	spec := RegionSpec{System: system}
	for i := range z {
		spec.Segments = append(spec.Segments, SegmentSpec{
			Lo: z[i][0],
			Hi: z[i][1],
			Children: []SegmentSpec{{
				Lo:       lo1,
				Hi:       hi1,
				Children: []SegmentSpec{{Lo: lo2, Hi: hi2}},
			}},
		})
	}

	seg, boxes, err := spec.Segmentation()
	require.NoError(t, err)
	require.Len(t, boxes, len(z))

	fits := make([]cheb.Fit3D, len(boxes))
	for i := range boxes {
		fits[i] = constantFit(t, boxes[i][0], boxes[i][1], b[i])
	}

	r, err := NewRegion(system, seg, fits)
	require.NoError(t, err)
	return r
}

var (
	testSlabs  = [][2]float64{{-10, 0}, {0, 10}, {10, 20}}
	testFields = [][3]float64{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}}
)

func TestMapSegmentLookup(t *testing.T) {

	t.Run("Dipole", func(t *testing.T) {
		m, err := NewMap(nil, zSlabRegion(t, Cartesian, testSlabs, testFields), nil)
		require.NoError(t, err)
		require.Equal(t, [3]float64{1, 0, 0}, m.Field([3]float64{0, 0, -5}))
		require.Equal(t, [3]float64{2, 0, 0}, m.Field([3]float64{0, 0, 5}))
		require.Equal(t, [3]float64{3, 0, 0}, m.Field([3]float64{0, 0, 15}))
		require.Equal(t, [3]float64{0, 0, 0}, m.Field([3]float64{0, 0, 25}))
		require.Equal(t, [3]float64{0, 0, 0}, m.Field([3]float64{0, 0, -10.5}))
		require.Equal(t, [3]float64{0, 0, 0}, m.Field([3]float64{200, 0, 5}))
	})

	t.Run("Solenoid", func(t *testing.T) {
		m, err := NewMap(zSlabRegion(t, Cylindrical, testSlabs, testFields), nil, nil)
		require.NoError(t, err)
		// On the x axis, radial and x components coincide.
		require.Equal(t, [3]float64{1, 0, 0}, m.Field([3]float64{1, 0, -5}))
		require.Equal(t, [3]float64{2, 0, 0}, m.Field([3]float64{1, 0, 5}))
		require.Equal(t, [3]float64{3, 0, 0}, m.Field([3]float64{1, 0, 15}))
		require.Equal(t, [3]float64{0, 0, 0}, m.Field([3]float64{1, 0, 25}))
		// On the y axis the radial field points along y.
		requireInDelta3(t, [3]float64{0, 2, 0}, m.Field([3]float64{0, 3, 5}), 1e-15)
		require.Equal(t, [3]float64{2, 0, 0}, m.FieldCyl([3]float64{3, math.Pi / 2, 5}))
		require.Equal(t, [3]float64{2, 0, 0}, m.FieldCyl([3]float64{3, -math.Pi / 2, 5}))
		require.Equal(t, [3]float64{0, 0, 0}, m.FieldCyl([3]float64{3, 1, 20}))
	})

	t.Run("Empty", func(t *testing.T) {
		m, err := NewMap(nil, nil, nil)
		require.NoError(t, err)
		require.Equal(t, [3]float64{}, m.Field([3]float64{1, 2, 3}))
		require.Equal(t, [3]float64{}, m.FieldCyl([3]float64{1, 2, 3}))
		require.Equal(t, [3]float64{}, m.TPCInt([3]float64{1, 2, 3}))
		require.Equal(t, [3]float64{}, m.TPCIntCyl([3]float64{1, 2, 3}))
		require.Zero(t, m.Bz([3]float64{1, 2, 3}))
		require.Zero(t, m.SolenoidField())
	})
}

func TestMap(t *testing.T) {

	solenoid := zSlabRegion(t, Cylindrical, [][2]float64{{-5, 5}}, [][3]float64{{0.1, 0.2, 0.5}})
	dipole := zSlabRegion(t, Cartesian, [][2]float64{{5, 15}}, [][3]float64{{0, -0.7, 0.05}})
	tpcint := zSlabRegion(t, Cylindrical, [][2]float64{{-5, 0}, {0, 5}}, [][3]float64{{-1, -2, 3}, {1, 2, 3}})

	m, err := NewMap(solenoid, dipole, tpcint)
	require.NoError(t, err)

	require.Same(t, solenoid, m.Region(Solenoid))
	require.Same(t, dipole, m.Region(Dipole))
	require.Same(t, tpcint, m.Region(TPCIntegral))

	t.Run("Field", func(t *testing.T) {
		xyz := [3]float64{0.6, 0.8, 1}
		// (Br, Bphi) = (0.1, 0.2) at cos = 0.6, sin = 0.8
		requireInDelta3(t, [3]float64{0.1*0.6 - 0.2*0.8, 0.1*0.8 + 0.2*0.6, 0.5}, m.Field(xyz), 1e-15)
		requireInDelta3(t, [3]float64{0.1, 0.2, 0.5}, m.FieldCyl(CartToCyl(xyz)), 1e-15)
		require.Equal(t, 0.5, m.Bz(xyz))
		require.Equal(t, 0.5, m.SolenoidField())
	})

	t.Run("DipoleFallback", func(t *testing.T) {
		xyz := [3]float64{0.6, 0.8, 10}
		require.Equal(t, [3]float64{0, -0.7, 0.05}, m.Field(xyz))
		require.Equal(t, 0.05, m.Bz(xyz))
		requireInDelta3(t, CartToCylCartB(xyz, [3]float64{0, -0.7, 0.05}), m.FieldCyl(CartToCyl(xyz)), 1e-15)
		require.Equal(t, [3]float64{}, m.Field([3]float64{0.6, 0.8, 30}))
	})

	t.Run("TPCInt", func(t *testing.T) {
		require.Equal(t, [3]float64{1, 2, 3}, m.TPCIntCyl([3]float64{1, 0.5, 2}))
		require.Equal(t, [3]float64{-1, -2, 3}, m.TPCIntCyl([3]float64{1, 0.5, -2}))
		require.Equal(t, [3]float64{}, m.TPCIntCyl([3]float64{1, 0.5, 6}))
		xyz := [3]float64{0, 2, 1}
		requireInDelta3(t, [3]float64{-2, 1, 3}, m.TPCInt(xyz), 1e-15)
	})

	t.Run("WithBoundaryPolicy", func(t *testing.T) {
		clamped := m.WithBoundaryPolicy(cheb.ClampToBoundary)
		require.Equal(t, cheb.ClampToBoundary, clamped.Region(Solenoid).Fit(0).BoundaryPolicy())
		require.Equal(t, cheb.Extrapolate, m.Region(Solenoid).Fit(0).BoundaryPolicy())
		require.True(t, m.Equal(clamped))
	})

	t.Run("NCoefs", func(t *testing.T) {
		require.Equal(t, 3*4, m.NCoefs())
	})

	t.Run("Validate", func(t *testing.T) {
		_, err := NewMap(dipole, nil, nil)
		require.ErrorIs(t, err, ErrFormat)
		_, err = NewMap(nil, solenoid, nil)
		require.ErrorIs(t, err, ErrFormat)

		fit := constantFit(t, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, [3]float64{})
		calcs := []cheb.Calc{*fit.Calc(0)}
		scalar, err := cheb.NewFit3D("", fit.BoundMin(), fit.BoundMax(), 0, calcs)
		require.NoError(t, err)
		seg, _, err := RegionSpec{System: Cartesian, Segments: []SegmentSpec{{Lo: 0, Hi: 1, Children: []SegmentSpec{{Lo: 0, Hi: 1, Children: []SegmentSpec{{Lo: 0, Hi: 1}}}}}}}.Segmentation()
		require.NoError(t, err)
		r, err := NewRegion(Cartesian, seg, []cheb.Fit3D{*scalar})
		require.NoError(t, err)
		_, err = NewMap(nil, r, nil)
		require.ErrorIs(t, err, ErrFormat)
	})
}

func TestRegion(t *testing.T) {

	r := zSlabRegion(t, Cylindrical, testSlabs, testFields)

	require.Equal(t, Cylindrical, r.System())
	require.Equal(t, [3]float64{0, 0, -10}, r.Min())
	require.Equal(t, [3]float64{100, 2 * math.Pi, 20}, r.Max())
	require.Equal(t, 3, r.NumFits())
	require.Equal(t, 3, r.OutputDim())

	require.Equal(t, 1, r.FindSegment([3]float64{50, 1, 0}))
	require.Equal(t, 1, r.FindSegment([3]float64{50, -1, 0}))
	require.Equal(t, 1, r.FindSegment([3]float64{50, 1 + 2*math.Pi, 0}))
	require.Equal(t, NoSegment, r.FindSegment([3]float64{100, 1, 0}))
	require.Equal(t, NoSegment, r.FindSegment([3]float64{math.NaN(), 1, 0}))

	out := []float64{7, 7, 7}
	require.False(t, r.Eval([3]float64{50, 1, 30}, out))
	require.Equal(t, []float64{0, 0, 0}, out)
	require.True(t, r.Eval([3]float64{50, 1, 10}, out))
	require.Equal(t, []float64{3, 0, 0}, out)

	v, ok := r.EvalDim([3]float64{50, 1, -3}, 0)
	require.True(t, ok)
	require.Equal(t, 1.0, v)

	cpy := r.CopyNew()
	require.True(t, r.Equal(cpy))
	require.NoError(t, cpy.Fit(0).ShiftBound(0, 1))
	require.False(t, r.Equal(cpy))

	for _, s := range []string{"cylindrical", "cartesian"} {
		c, err := ParseCoordSystem(s)
		require.NoError(t, err)
		require.Equal(t, s, c.String())
	}
	_, err := ParseCoordSystem("spherical")
	require.Error(t, err)

	for k := RegionKind(0); k < NumRegions; k++ {
		kk, err := ParseRegionKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, kk)
	}
	_, err = ParseRegionKind("toroid")
	require.Error(t, err)
}

func TestMapConcurrentEval(t *testing.T) {

	m, err := NewMap(
		zSlabRegion(t, Cylindrical, testSlabs, testFields),
		zSlabRegion(t, Cartesian, [][2]float64{{20, 30}}, [][3]float64{{0, 1, 0}}),
		zSlabRegion(t, Cylindrical, testSlabs, testFields),
	)
	require.NoError(t, err)

	points := make([][3]float64, 500)
	for i := range points {
		s := float64(i) / float64(len(points))
		points[i] = [3]float64{50 * math.Cos(9*s), 50 * math.Sin(9*s), -15 + 50*s}
	}

	want := make([][2][3]float64, len(points))
	for i, p := range points {
		want[i] = [2][3]float64{m.Field(p), m.TPCInt(p)}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, p := range points {
				if have := [2][3]float64{m.Field(p), m.TPCInt(p)}; have != want[i] {
					errs <- fmt.Errorf("point %v: %v != %v", p, have, want[i])
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}

func BenchmarkMap(b *testing.B) {

	m, err := NewMap(zSlabRegion(b, Cylindrical, testSlabs, testFields), nil, nil)
	require.NoError(b, err)

	xyz := [3]float64{0.6, 0.8, 1}

	b.Run("Field", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			m.Field(xyz)
		}
	})

	b.Run("FindSegment", func(b *testing.B) {
		r := m.Region(Solenoid)
		rphiz := CartToCyl(xyz)
		for i := 0; i < b.N; i++ {
			r.FindSegment(rphiz)
		}
	})
}
