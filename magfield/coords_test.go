package magfield

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireInDelta3(t *testing.T, want, have [3]float64, delta float64) {
	t.Helper()
	for i := range want {
		require.InDelta(t, want[i], have[i], delta, "component %d: want %v, have %v", i, want, have)
	}
}

func TestNormalizePhi(t *testing.T) {
	require.Equal(t, 0.0, NormalizePhi(0))
	require.Equal(t, 1.0, NormalizePhi(1))
	require.InDelta(t, 2*math.Pi-1, NormalizePhi(-1), 1e-15)
	require.InDelta(t, 1, NormalizePhi(1+4*math.Pi), 1e-14)
	require.Equal(t, 0.0, NormalizePhi(2*math.Pi))
	for _, phi := range []float64{-1e-300, -7.5, 13, 1e6} {
		v := NormalizePhi(phi)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 2*math.Pi)
	}
}

func TestCoords(t *testing.T) {

	points := [][3]float64{
		{1, 0, 0},
		{0, 2, -3},
		{-1.5, 0.5, 7},
		{-0.3, -0.4, 1},
		{3, -4, -250},
	}

	fields := [][3]float64{
		{1, 0, 0},
		{0.2, -0.1, 0.5},
		{-3, 4, 0},
	}

	t.Run("CartToCyl", func(t *testing.T) {
		require.Equal(t, [3]float64{5, NormalizePhi(math.Atan2(-4, 3)), -250}, CartToCyl([3]float64{3, -4, -250}))
		cyl := CartToCyl([3]float64{0, 2, -3})
		requireInDelta3(t, [3]float64{2, math.Pi / 2, -3}, cyl, 1e-15)
		require.Equal(t, [3]float64{0, 0, 4}, CartToCyl([3]float64{0, 0, 4}))
	})

	t.Run("RoundTrip", func(t *testing.T) {
		for _, xyz := range points {
			rphiz := CartToCyl(xyz)
			require.GreaterOrEqual(t, rphiz[1], 0.0)
			require.Less(t, rphiz[1], 2*math.Pi)
			requireInDelta3(t, xyz, CylToCart(rphiz), 1e-12)
		}
	})

	t.Run("Field", func(t *testing.T) {
		for _, xyz := range points {
			rphiz := CartToCyl(xyz)
			for _, b := range fields {
				bcyl := CartToCylCartB(xyz, b)
				requireInDelta3(t, bcyl, CartToCylCylB(rphiz, b), 1e-12)
				requireInDelta3(t, b, CylToCartCylB(rphiz, bcyl), 1e-12)
				requireInDelta3(t, b, CylToCartCartB(xyz, bcyl), 1e-12)
				// the rotation keeps the transverse magnitude
				require.InDelta(t, math.Hypot(b[0], b[1]), math.Hypot(bcyl[0], bcyl[1]), 1e-12)
				require.Equal(t, b[2], bcyl[2])
			}
		}
	})

	t.Run("Radial", func(t *testing.T) {
		// A radial unit field points along (x, y)/r.
		xyz := [3]float64{-0.3, -0.4, 1}
		requireInDelta3(t, [3]float64{-0.6, -0.8, 0}, CylToCartCartB(xyz, [3]float64{1, 0, 0}), 1e-15)
		requireInDelta3(t, [3]float64{0.8, -0.6, 0}, CylToCartCartB(xyz, [3]float64{0, 1, 0}), 1e-15)
		requireInDelta3(t, [3]float64{1, 0, 0}, CartToCylCartB(xyz, [3]float64{-0.6, -0.8, 0}), 1e-15)
	})

	t.Run("Axis", func(t *testing.T) {
		require.Equal(t, [3]float64{1, 2, 3}, CylToCartCartB([3]float64{0, 0, 5}, [3]float64{1, 2, 3}))
		require.Equal(t, [3]float64{1, 2, 3}, CartToCylCartB([3]float64{0, 0, 5}, [3]float64{1, 2, 3}))
	})
}
