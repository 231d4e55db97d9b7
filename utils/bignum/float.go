// Package bignum implements arbitrary precision helpers used to build
// Chebyshev node and basis tables without float64 drift.
package bignum

import (
	"math/big"
)

// pi to 1000 decimal places, enough for any precision used by the tables.
const pi = "3.1415926535897932384626433832795028841971693993751058209749445923078164062862089986280348253421170679821480865132823066470938446095505822317253594081284811174502841027019385211055596446229489549303819644288109756659334461284756482337867831652712019091456485669234603486104543266482133936072602491412737245870066063155881748815209209628292540917153643678925903600113305305488204665213841469519415116094330572703657595919530921861173819326117931051185480744623799627495673518857527248912279381830119491298336733624406566430860213949463952247371907021798609437027705392171762931767523846748184676694051320005681271452635608277857713427577896091736371787214684409012249534301465495853710507922796892589235420199561121290219608640344181598136297747713099605187072113499999983729780499510597317328160963185950244594553469083026425223082533446850352619311881710100031378387528865875332083814206171776691473035982534904287554687311595628638823537875937519577818577805321712268066130019278766111959092164201989"

// Pi returns pi rounded to prec bits.
func Pi(prec uint) *big.Float {
	x, _ := new(big.Float).SetPrec(prec).SetString(pi)
	return x
}

// NewFloat returns x as a big.Float with prec bits of precision.
func NewFloat[T int | float64](x T, prec uint) *big.Float {
	y := new(big.Float).SetPrec(prec)
	switch x := any(x).(type) {
	case int:
		y.SetInt64(int64(x))
	case float64:
		y.SetFloat64(x)
	}
	return y
}

// Cos returns cos(x) at the precision of x, for |x| <= pi.
//
// It squares the half-angle repeatedly: with s_0 = (x/2^k)^2, the map
// s -> s(4-s) takes 2-2cos(a) to 2-2cos(2a), so after k steps
// cos(x) = 1 - s_k/2. The error after k steps is about 4^-k.
//
// B. T. Johansson, An elementary algorithm to evaluate trigonometric
// functions to high precision, 2018.
func Cos(x *big.Float) *big.Float {

	prec := x.Prec()
	k := prec/2 - 1

	// s = (x 2^-k)^2
	s := new(big.Float).SetPrec(prec).SetMantExp(x, -int(k))
	s.Mul(s, s)

	four := NewFloat(4, prec)
	tmp := new(big.Float).SetPrec(prec)

	for i := uint(0); i < k; i++ {
		tmp.Sub(four, s)
		s.Mul(s, tmp)
	}

	s.Quo(s, NewFloat(2, prec))

	return s.Sub(NewFloat(1, prec), s)
}
