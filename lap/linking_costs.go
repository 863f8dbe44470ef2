package lap

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// altCostFallback prices track birth and death when a matrix has no finite
// cost to calibrate the percentile from. Any finite value works: every
// competing entry in those quadrants is blocked.
const altCostFallback = 1.0

// LinkingCostMatrixBuilder builds the square cost matrix for linking the
// spots of two consecutive frames (step 1). With n0 spots in the earlier
// frame and n1 in the later one, the (n0+n1)×(n0+n1) matrix holds four
// quadrants:
//
//   - top-left (n0×n1): squared distance for each pair within
//     MaxDistObjects, blocked beyond;
//   - top-right (n0×n0): the "terminate track" alternative cost on the
//     diagonal, blocked elsewhere;
//   - bottom-left (n1×n1): the "start track" alternative cost on the
//     diagonal, blocked elsewhere;
//   - bottom-right (n1×n0): zero cost at the mirror of every finite
//     top-left entry, blocked elsewhere. The mirror keeps every complete
//     assignment feasible without ever changing which links win.
type LinkingCostMatrixBuilder struct {
	t0       []*Spot
	t1       []*Spot
	settings TrackerSettings
}

// NewLinkingCostMatrixBuilder creates a builder for the frame pair t0, t1.
func NewLinkingCostMatrixBuilder(t0, t1 []*Spot, settings TrackerSettings) *LinkingCostMatrixBuilder {
	return &LinkingCostMatrixBuilder{
		t0:       t0,
		t1:       t1,
		settings: settings,
	}
}

// Build returns the linking cost matrix. Either frame being empty is an
// ErrEmptyFrame: the caller must special-case empty frames instead of
// asking for a matrix over them.
func (b *LinkingCostMatrixBuilder) Build() (*mat.Dense, error) {
	n0, n1 := len(b.t0), len(b.t1)
	if n0 == 0 || n1 == 0 {
		return nil, errors.Wrapf(ErrEmptyFrame, "cannot link %d spots to %d spots", n0, n1)
	}
	size := n0 + n1
	costs := mat.NewDense(size, size, nil)
	fillDense(costs, BlockedCost)

	maxSq := b.settings.MaxDistObjects * b.settings.MaxDistObjects
	finite := make([]float64, 0, n0*n1)
	for i, s0 := range b.t0 {
		for j, s1 := range b.t1 {
			d2 := s0.SquareDistanceTo(s1)
			if d2 > maxSq {
				continue
			}
			costs.Set(i, j, d2)
			costs.Set(n0+j, n1+i, 0)
			finite = append(finite, d2)
		}
	}

	alt := alternativeCost(finite, b.settings)
	for i := 0; i < n0; i++ {
		costs.Set(i, n1+i, alt)
	}
	for j := 0; j < n1; j++ {
		costs.Set(n0+j, j, alt)
	}
	return costs, nil
}
