package magfield

import (
	"math"
)

const twoPi = 2 * math.Pi

// NormalizePhi maps an azimuth to [0, 2π).
func NormalizePhi(phi float64) float64 {
	if phi >= 0 && phi < twoPi {
		return phi
	}
	phi = math.Mod(phi, twoPi)
	if phi < 0 {
		phi += twoPi
	}
	if phi >= twoPi {
		phi = 0
	}
	return phi
}

// CartToCyl converts a Cartesian point (x, y, z) to cylindrical
// coordinates (r, phi, z), with phi in [0, 2π).
func CartToCyl(xyz [3]float64) [3]float64 {
	return [3]float64{
		math.Hypot(xyz[0], xyz[1]),
		NormalizePhi(math.Atan2(xyz[1], xyz[0])),
		xyz[2],
	}
}

// CylToCart converts a cylindrical point (r, phi, z) to Cartesian
// coordinates (x, y, z).
func CylToCart(rphiz [3]float64) [3]float64 {
	sin, cos := math.Sincos(rphiz[1])
	return [3]float64{rphiz[0] * cos, rphiz[0] * sin, rphiz[2]}
}

// cylToCartB rotates the field (Br, Bphi, Bz) at azimuth phi to (Bx, By, Bz).
func cylToCartB(sin, cos float64, b [3]float64) [3]float64 {
	return [3]float64{
		b[0]*cos - b[1]*sin,
		b[0]*sin + b[1]*cos,
		b[2],
	}
}

// cartToCylB rotates the field (Bx, By, Bz) at azimuth phi to (Br, Bphi, Bz).
func cartToCylB(sin, cos float64, b [3]float64) [3]float64 {
	return [3]float64{
		b[0]*cos + b[1]*sin,
		-b[0]*sin + b[1]*cos,
		b[2],
	}
}

// sincosXY returns the sine and cosine of the azimuth of (x, y),
// (0, 1) on the z axis.
func sincosXY(x, y float64) (sin, cos float64) {
	r := math.Hypot(x, y)
	if r == 0 {
		return 0, 1
	}
	return y / r, x / r
}

// CylToCartCylB converts the cylindrical field brphiz at the cylindrical
// point rphiz to Cartesian components.
func CylToCartCylB(rphiz, brphiz [3]float64) [3]float64 {
	sin, cos := math.Sincos(rphiz[1])
	return cylToCartB(sin, cos, brphiz)
}

// CylToCartCartB converts the cylindrical field brphiz at the Cartesian
// point xyz to Cartesian components.
func CylToCartCartB(xyz, brphiz [3]float64) [3]float64 {
	sin, cos := sincosXY(xyz[0], xyz[1])
	return cylToCartB(sin, cos, brphiz)
}

// CartToCylCartB converts the Cartesian field bxyz at the Cartesian point
// xyz to cylindrical components.
func CartToCylCartB(xyz, bxyz [3]float64) [3]float64 {
	sin, cos := sincosXY(xyz[0], xyz[1])
	return cartToCylB(sin, cos, bxyz)
}

// CartToCylCylB converts the Cartesian field bxyz at the cylindrical point
// rphiz to cylindrical components.
func CartToCylCylB(rphiz, bxyz [3]float64) [3]float64 {
	sin, cos := math.Sincos(rphiz[1])
	return cartToCylB(sin, cos, bxyz)
}
