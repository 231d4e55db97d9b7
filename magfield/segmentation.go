package magfield

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/alice-offline/chebfield/utils"
)

// NoSegment is the fit ID of points that lie in no segment.
const NoSegment = -1

// NumLevels is the depth of a segmentation.
const NumLevels = 3

// levelAxis is the coordinate searched at each level: z first, then the
// second coordinate (phi or y), then the first (r or x).
var levelAxis = [NumLevels]int{2, 1, 0}

// Level is one level of a Segmentation: half-open intervals [Lo[i], Hi[i])
// along one axis. The intervals sharing a parent are stored contiguously,
// sorted ascending and non-overlapping. Beg[i] and N[i] locate the children
// of interval i in the next level; they are empty on the last level.
type Level struct {
	Lo  []float64
	Hi  []float64
	Beg []int
	N   []int
}

// Len returns the number of intervals of the level.
func (l *Level) Len() int {
	return len(l.Lo)
}

// Segmentation partitions a box in nested intervals: along z, then along
// the second coordinate inside each z interval, then along the first
// coordinate inside each of those. Each interval of the last level is a
// leaf carrying the ID of the fit covering it, or NoSegment for a hole.
type Segmentation struct {
	Levels [NumLevels]Level
	FitID  []int
}

// Validate checks the consistency of the tables against a pool of nFits
// fits. The returned error wraps ErrFormat.
func (s *Segmentation) Validate(nFits int) error {

	for l := 0; l < NumLevels; l++ {

		lv := &s.Levels[l]

		if len(lv.Hi) != len(lv.Lo) {
			return fmt.Errorf("%w: level %d: %d lower edges for %d upper edges", ErrFormat, l, len(lv.Lo), len(lv.Hi))
		}

		for i := range lv.Lo {
			if math.IsNaN(lv.Lo[i]) || math.IsNaN(lv.Hi[i]) {
				return fmt.Errorf("%w: level %d: NaN edge at %d", ErrFormat, l, i)
			}
		}
	}

	for l := 0; l < NumLevels; l++ {

		lv := &s.Levels[l]

		if l == NumLevels-1 {
			if len(lv.Beg) != 0 || len(lv.N) != 0 {
				return fmt.Errorf("%w: level %d: leaf level has children", ErrFormat, l)
			}
			continue
		}

		if len(lv.Beg) != lv.Len() || len(lv.N) != lv.Len() {
			return fmt.Errorf("%w: level %d: child tables have lengths %d and %d, want %d", ErrFormat, l, len(lv.Beg), len(lv.N), lv.Len())
		}

		next := &s.Levels[l+1]
		for i := range lv.Beg {
			beg, n := lv.Beg[i], lv.N[i]
			if beg < 0 || n < 0 || beg+n > next.Len() {
				return fmt.Errorf("%w: level %d: children [%d, %d+%d) of interval %d exceed %d intervals", ErrFormat, l, beg, beg, n, i, next.Len())
			}
			if !utils.IsPartition(next.Lo[beg:beg+n], next.Hi[beg:beg+n]) {
				return fmt.Errorf("%w: level %d: children of interval %d are not sorted non-overlapping intervals", ErrFormat, l+1, i)
			}
		}
	}

	if !utils.IsPartition(s.Levels[0].Lo, s.Levels[0].Hi) {
		return fmt.Errorf("%w: level 0: intervals are not sorted non-overlapping intervals", ErrFormat)
	}

	if len(s.FitID) != s.Levels[NumLevels-1].Len() {
		return fmt.Errorf("%w: %d fit IDs for %d leaves", ErrFormat, len(s.FitID), s.Levels[NumLevels-1].Len())
	}

	for i, id := range s.FitID {
		if id < NoSegment || id >= nFits {
			return fmt.Errorf("%w: FitID[%d]=%d not in [%d, %d)", ErrFormat, i, id, NoSegment, nFits)
		}
	}

	return nil
}

// Find returns the fit ID of the leaf containing p, or NoSegment if p
// falls in a gap, outside every interval or in a hole.
func (s *Segmentation) Find(p [3]float64) int {
	beg, n := 0, s.Levels[0].Len()
	idx := NoSegment
	for l := 0; l < NumLevels; l++ {
		lv := &s.Levels[l]
		if idx = search(lv.Lo[beg:beg+n], lv.Hi[beg:beg+n], p[levelAxis[l]]); idx == NoSegment {
			return NoSegment
		}
		idx += beg
		if l < NumLevels-1 {
			beg, n = lv.Beg[idx], lv.N[idx]
		}
	}
	return s.FitID[idx]
}

// search returns the index of the interval [lo[i], hi[i]) containing x,
// or NoSegment.
func search(lo, hi []float64, x float64) int {
	i, found := slices.BinarySearch(lo, x)
	if !found {
		// lo[i-1] < x < lo[i]
		i--
	}
	if i < 0 || !(x < hi[i]) {
		return NoSegment
	}
	return i
}

// Extents returns the smallest box containing every interval. Axes with no
// interval are left at [+Inf, -Inf].
func (s *Segmentation) Extents() (min, max [3]float64) {
	for d := 0; d < 3; d++ {
		min[d], max[d] = math.Inf(1), math.Inf(-1)
	}
	for l := 0; l < NumLevels; l++ {
		d := levelAxis[l]
		lv := &s.Levels[l]
		for i := range lv.Lo {
			min[d] = math.Min(min[d], lv.Lo[i])
			max[d] = math.Max(max[d], lv.Hi[i])
		}
	}
	return
}

// NumLeaves returns the number of leaves, holes included.
func (s *Segmentation) NumLeaves() int {
	return len(s.FitID)
}

// CopyNew returns a deep copy of the object.
func (s *Segmentation) CopyNew() *Segmentation {
	cpy := &Segmentation{FitID: slices.Clone(s.FitID)}
	for l := range s.Levels {
		cpy.Levels[l] = Level{
			Lo:  slices.Clone(s.Levels[l].Lo),
			Hi:  slices.Clone(s.Levels[l].Hi),
			Beg: slices.Clone(s.Levels[l].Beg),
			N:   slices.Clone(s.Levels[l].N),
		}
	}
	return cpy
}
