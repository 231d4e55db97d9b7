package magfield

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/alice-offline/chebfield/cheb"
)

// SegmentSpec describes an interval [Lo, Hi) of a segmentation level and,
// except on the last level, its children along the next axis. A leaf with
// Hole set is not fitted and evaluates to zero.
type SegmentSpec struct {
	Lo       float64       `yaml:"lo"`
	Hi       float64       `yaml:"hi"`
	Hole     bool          `yaml:"hole,omitempty"`
	Children []SegmentSpec `yaml:"children,omitempty"`
}

// RegionSpec describes the segmentation of a region as nested intervals:
// along z, then along the second coordinate, then along the first.
type RegionSpec struct {
	System   CoordSystem
	Segments []SegmentSpec
}

// Segmentation returns the tables of the segmentation described by s. Fit
// IDs are assigned to the non-hole leaves in depth-first order, and the
// box of each fit is returned along, indexed by fit ID.
func (s RegionSpec) Segmentation() (seg Segmentation, boxes [][2][3]float64, err error) {

	// Children of the level l intervals are appended level by level, so
	// that siblings are contiguous.
	parents := []struct {
		children []SegmentSpec
		box      [2][3]float64
	}{{children: s.Segments}}

	for l := 0; l < NumLevels; l++ {

		d := levelAxis[l]
		lv := &seg.Levels[l]

		var next []struct {
			children []SegmentSpec
			box      [2][3]float64
		}

		var beg int

		for pi, parent := range parents {

			if l > 0 {
				prev := &seg.Levels[l-1]
				prev.Beg = append(prev.Beg, beg)
				prev.N = append(prev.N, len(parent.children))
			}

			for ci, c := range parent.children {

				if c.Hole && l != NumLevels-1 {
					return seg, nil, fmt.Errorf("level %d: segment %d of parent %d: only leaves can be holes", l, ci, pi)
				}

				if l == NumLevels-1 && len(c.Children) != 0 {
					return seg, nil, fmt.Errorf("level %d: segment %d of parent %d: leaves have no children", l, ci, pi)
				}

				lv.Lo = append(lv.Lo, c.Lo)
				lv.Hi = append(lv.Hi, c.Hi)

				box := parent.box
				box[0][d], box[1][d] = c.Lo, c.Hi

				if l == NumLevels-1 {
					if c.Hole {
						seg.FitID = append(seg.FitID, NoSegment)
					} else {
						seg.FitID = append(seg.FitID, len(boxes))
						boxes = append(boxes, box)
					}
					continue
				}

				next = append(next, struct {
					children []SegmentSpec
					box      [2][3]float64
				}{c.Children, box})
			}

			beg += len(parent.children)
		}

		parents = next
	}

	if err = seg.Validate(len(boxes)); err != nil {
		return seg, nil, err
	}

	return seg, boxes, nil
}

// Build fits f, given in the coordinates of spec.System, on every leaf of
// spec and returns the resulting Region. params provides the fit settings
// shared by the leaves; its bounds and name are set per leaf. Leaves are
// fitted concurrently.
func Build(ctx context.Context, spec RegionSpec, f cheb.Func, params cheb.FitParameters) (*Region, error) {

	seg, boxes, err := spec.Segmentation()
	if err != nil {
		return nil, fmt.Errorf("cannot Build: %w", err)
	}

	fits := make([]cheb.Fit3D, len(boxes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range boxes {
		g.Go(func() error {
			p := params
			p.Name = fmt.Sprintf("%s_seg%d", params.Name, i)
			p.BoundMin, p.BoundMax = boxes[i][0], boxes[i][1]
			if p.Workers == 0 {
				p.Workers = 1
			}
			fit, err := cheb.Fit(gctx, f, p)
			if err != nil {
				return fmt.Errorf("segment %d %v-%v: %w", i, p.BoundMin, p.BoundMax, err)
			}
			fits[i] = *fit
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return nil, fmt.Errorf("cannot Build: %w", err)
	}

	r, err := NewRegion(spec.System, seg, fits)
	if err != nil {
		return nil, fmt.Errorf("cannot Build: %w", err)
	}

	return r, nil
}
