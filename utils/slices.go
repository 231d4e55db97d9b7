package utils

import (
	"golang.org/x/exp/constraints"
)

// MaxSlice returns the largest element of s, or the zero value if s is empty.
func MaxSlice[T constraints.Ordered](s []T) (max T) {
	if len(s) == 0 {
		return
	}
	max = s[0]
	for _, v := range s[1:] {
		if v > max {
			max = v
		}
	}
	return
}

// MaxAbsSlice returns the largest absolute value of the elements of s.
func MaxAbsSlice[T constraints.Signed | constraints.Float](s []T) (max T) {
	for _, v := range s {
		if Abs(v) > max {
			max = Abs(v)
		}
	}
	return
}

// IsPartition returns true if the intervals [lo[i], hi[i]) are non-empty,
// sorted ascending and non-overlapping. Gaps between intervals are allowed.
func IsPartition[T constraints.Ordered](lo, hi []T) bool {
	if len(lo) != len(hi) {
		return false
	}
	for i := range lo {
		if !(lo[i] < hi[i]) {
			return false
		}
		if i > 0 && hi[i-1] > lo[i] {
			return false
		}
	}
	return true
}
