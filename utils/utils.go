// Package utils implements generic helpers shared by the approximation
// and field map packages.
package utils

import (
	"golang.org/x/exp/constraints"
)

// Clamp returns x restricted to [lo, hi].
func Clamp[T constraints.Ordered](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Abs returns the absolute value of x.
func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
