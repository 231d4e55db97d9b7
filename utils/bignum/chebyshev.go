package bignum

import (
	"math/big"
)

// DefaultPrecision is the number of bits used by the Chebyshev tables.
const DefaultPrecision = 128

// ChebyshevRoots returns the n roots of T_n on [-1, 1], x_i = cos(pi*(i+1/2)/n),
// in descending order. The cosines are computed with prec bits of precision
// and rounded once to float64.
func ChebyshevRoots(n int, prec uint) (roots []float64) {
	roots = make([]float64, n)
	for i := range roots {
		roots[i] = cosPiRational(2*i+1, 2*n, prec)
	}
	return
}

// ChebyshevTable returns the n x n table T_k(x_i) = cos(pi*k*(i+1/2)/n) of the
// first n Chebyshev polynomials evaluated at the n roots of T_n, stored
// row-major as table[k*n+i].
func ChebyshevTable(n int, prec uint) (table []float64) {
	table = make([]float64, n*n)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			table[k*n+i] = cosPiRational(k*(2*i+1), 2*n, prec)
		}
	}
	return
}

// cosPiRational returns cos(pi*num/den) for num >= 0, den > 0, reducing the
// angle to [0, pi] with integer arithmetic before calling Cos.
func cosPiRational(num, den int, prec uint) float64 {

	// cos is 2pi periodic: reduce num modulo 2*den
	num %= 2 * den

	// cos(pi + a) = cos(pi - a)
	if num > den {
		num = 2*den - num
	}

	switch {
	case num == 0:
		return 1
	case 2*num == den:
		return 0
	case num == den:
		return -1
	}

	angle := Pi(prec)
	angle.Mul(angle, NewFloat(num, prec))
	angle.Quo(angle, NewFloat(den, prec))

	f, _ := Cos(angle).Float64()
	return f
}

// ChebyshevEval evaluates y = sum T_i(x) * coeffs[i] for x in [-1, 1] with
// prec bits of precision, using the three-term recurrence of T_i. It serves
// as the high precision reference of float64 evaluators.
func ChebyshevEval(x float64, coeffs []float64, prec uint) float64 {

	if len(coeffs) == 0 {
		return 0
	}

	two := NewFloat(2, prec)
	u := NewFloat(x, prec)

	Tprev := NewFloat(1, prec)
	T := new(big.Float).Set(u)
	Tnext := new(big.Float).SetPrec(prec)
	tmp := new(big.Float).SetPrec(prec)

	y := NewFloat(coeffs[0], prec)

	for i := 1; i < len(coeffs); i++ {
		y.Add(y, tmp.Mul(T, NewFloat(coeffs[i], prec)))
		Tnext.Mul(two, u)
		Tnext.Mul(Tnext, T)
		Tnext.Sub(Tnext, Tprev)
		Tprev.Set(T)
		T.Set(Tnext)
	}

	f, _ := y.Float64()
	return f
}
