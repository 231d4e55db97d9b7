package cheb

import (
	"github.com/alice-offline/chebfield/utils/structs"
)

// maxStackTerms is the largest number of terms per axis handled with
// stack-allocated scratch space. Larger footprints borrow from scratchPool.
const maxStackTerms = 64

var scratchPool = structs.NewSyncPool(func() *[]float64 {
	buf := make([]float64, 0, 4*maxStackTerms)
	return &buf
})

// borrow returns buf[:n] if it is large enough, else a slice of length n
// taken from scratchPool together with the handle to give back to release.
func borrow(buf []float64, n int) ([]float64, *[]float64) {
	if n <= len(buf) {
		return buf[:n], nil
	}
	p := scratchPool.Get()
	if cap(*p) < n {
		*p = make([]float64, n)
	}
	return (*p)[:n], p
}

func release(p *[]float64) {
	if p != nil {
		scratchPool.Put(p)
	}
}

// Clenshaw evaluates the Chebyshev series sum_{i<n} c[i]*T_i(x), for x
// in [-1, 1], with the Clenshaw recurrence. An empty series evaluates to 0.
func Clenshaw(x float64, c []float64) float64 {
	n := len(c)
	if n < 1 {
		return 0
	}
	x2 := x + x
	b0, b1, b2 := c[n-1], 0.0, 0.0
	for i := n - 2; i >= 0; i-- {
		b2 = b1
		b1 = b0
		b0 = c[i] + x2*b1 - b2
	}
	return b0 - x*b1
}

// ClenshawDeriv evaluates d/dx sum_{i<n} c[i]*T_i(x).
//
// The coefficients d[k] of the derivative series obey
// d[n-1] = 0, d[k] = d[k+2] + 2(k+1)c[k+1], with the constant term
// weighted by 1/2. They are generated on the fly, top-down, and fed to
// the Clenshaw recurrence in the same loop.
func ClenshawDeriv(x float64, c []float64) float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	x2 := x + x
	var dk1, dk2 float64 // d[k+1], d[k+2]
	var b0, b1, b2 float64
	for k := n - 2; k >= 0; k-- {
		dk := dk2 + 2*float64(k+1)*c[k+1]
		b2 = b1
		b1 = b0
		b0 = dk + x2*b1 - b2
		dk2 = dk1
		dk1 = dk
	}
	// dk1 holds d[0], which enters the series with weight 1/2.
	return b0 - x*b1 - 0.5*dk1
}

// ClenshawDeriv2 evaluates d^2/dx^2 sum_{i<n} c[i]*T_i(x).
func ClenshawDeriv2(x float64, c []float64) float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var stack [maxStackTerms]float64
	d, handle := borrow(stack[:], n-1)
	derivCoeffs(c, d)
	v := ClenshawDeriv(x, d)
	release(handle)
	return v
}

// derivCoeffs writes in d, of length len(c)-1, the coefficients of the
// derivative of the series c, with the constant term already halved so
// that d is again a plain series.
func derivCoeffs(c, d []float64) {
	n := len(c)
	var dk1, dk2 float64
	for k := n - 2; k >= 0; k-- {
		dk := dk2 + 2*float64(k+1)*c[k+1]
		d[k] = dk
		dk2 = dk1
		dk1 = dk
	}
	d[0] *= 0.5
}

// clenshawOrder dispatches to the evaluator of the given derivative order.
func clenshawOrder(order int, x float64, c []float64) float64 {
	switch order {
	case 0:
		return Clenshaw(x, c)
	case 1:
		return ClenshawDeriv(x, c)
	default:
		return ClenshawDeriv2(x, c)
	}
}
