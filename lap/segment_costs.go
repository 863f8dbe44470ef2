package lap

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SegmentCostMatrixBuilder builds the stitching cost matrix (step 2) over
// the track segments produced by frame-to-frame linking. Segments shorter
// than MinSegmentLength are dropped from consideration; their spots stay
// in the final graph as isolated mini tracks.
//
// The core block has one row per linkable segment followed by one row per
// splitting middle point, and one column per linkable segment followed by
// one column per merging middle point:
//
//   - segment × segment: gap closing, end of the row segment to start of
//     the column segment;
//   - segment × merging middle: the row segment's end merges into the
//     middle point;
//   - splitting middle × segment: the middle point mothers the column
//     segment's start.
//
// The full matrix wraps the core block with birth/death alternative-cost
// diagonals and a zero-cost mirror quadrant, same construction as the
// linking matrix.
type SegmentCostMatrixBuilder struct {
	segments []TrackSegment
	settings TrackerSettings

	linkable         []TrackSegment
	splittingMiddles []*Spot
	splittingOwners  []int
	mergingMiddles   []*Spot
	mergingOwners    []int
	costs            *mat.Dense
}

// NewSegmentCostMatrixBuilder creates a builder over the given segments.
func NewSegmentCostMatrixBuilder(segments []TrackSegment, settings TrackerSettings) *SegmentCostMatrixBuilder {
	return &SegmentCostMatrixBuilder{
		segments: segments,
		settings: settings,
	}
}

// Build computes the cost matrix and the middle point lists. An empty
// segment list is an ErrNoSegments. When no segment passes the length
// filter there is nothing to stitch: Build succeeds and CostMatrix stays
// nil.
func (b *SegmentCostMatrixBuilder) Build() error {
	if len(b.segments) == 0 {
		return errors.Wrap(ErrNoSegments, "cannot build the segment cost matrix")
	}
	b.linkable = b.linkable[:0]
	for _, segment := range b.segments {
		if segment.Len() >= b.settings.MinSegmentLength {
			b.linkable = append(b.linkable, segment)
		}
	}
	b.collectMiddlePoints()

	nseg := len(b.linkable)
	coreRows := nseg + len(b.splittingMiddles)
	coreCols := nseg + len(b.mergingMiddles)
	if coreRows == 0 || coreCols == 0 {
		b.costs = nil
		return nil
	}
	size := coreRows + coreCols
	costs := mat.NewDense(size, size, nil)
	fillDense(costs, BlockedCost)
	finite := make([]float64, 0)

	// Gap closing.
	for i, from := range b.linkable {
		for j, to := range b.linkable {
			if i == j {
				continue
			}
			cost, ok := b.gapClosingCost(from, to)
			if !ok {
				continue
			}
			costs.Set(i, j, cost)
			costs.Set(coreRows+j, coreCols+i, 0)
			finite = append(finite, cost)
		}
	}

	// Merging: a segment end absorbed by the middle of another segment.
	for i, from := range b.linkable {
		end := from.Last()
		for j, middle := range b.mergingMiddles {
			if b.mergingOwners[j] == i {
				continue
			}
			cost, ok := b.endpointMiddleCost(end, middle, 1)
			if !ok {
				continue
			}
			col := nseg + j
			costs.Set(i, col, cost)
			costs.Set(coreRows+col, coreCols+i, 0)
			finite = append(finite, cost)
		}
	}

	// Splitting: a middle point mothering the start of another segment.
	for i, middle := range b.splittingMiddles {
		row := nseg + i
		for j, to := range b.linkable {
			if b.splittingOwners[i] == j {
				continue
			}
			cost, ok := b.endpointMiddleCost(to.First(), middle, -1)
			if !ok {
				continue
			}
			costs.Set(row, j, cost)
			costs.Set(coreRows+j, coreCols+row, 0)
			finite = append(finite, cost)
		}
	}

	alt := alternativeCost(finite, b.settings)
	for i := 0; i < coreRows; i++ {
		costs.Set(i, coreCols+i, alt)
	}
	for j := 0; j < coreCols; j++ {
		costs.Set(coreRows+j, j, alt)
	}
	b.costs = costs
	return nil
}

// CostMatrix returns the matrix built by Build, nil when nothing is linkable.
func (b *SegmentCostMatrixBuilder) CostMatrix() *mat.Dense {
	return b.costs
}

// LinkableSegments returns the segments that passed the length filter, in
// input order. Row and column indices of the core block refer to this list.
func (b *SegmentCostMatrixBuilder) LinkableSegments() []TrackSegment {
	return b.linkable
}

// SplittingMiddlePoints returns the spots eligible as the mother of a
// split: every spot of a linkable segment except its first.
func (b *SegmentCostMatrixBuilder) SplittingMiddlePoints() []*Spot {
	return b.splittingMiddles
}

// MergingMiddlePoints returns the spots eligible as the target of a
// merge: every spot of a linkable segment except its last.
func (b *SegmentCostMatrixBuilder) MergingMiddlePoints() []*Spot {
	return b.mergingMiddles
}

func (b *SegmentCostMatrixBuilder) collectMiddlePoints() {
	b.splittingMiddles = b.splittingMiddles[:0]
	b.splittingOwners = b.splittingOwners[:0]
	b.mergingMiddles = b.mergingMiddles[:0]
	b.mergingOwners = b.mergingOwners[:0]
	for idx, segment := range b.linkable {
		for i, spot := range segment {
			if i > 0 {
				b.splittingMiddles = append(b.splittingMiddles, spot)
				b.splittingOwners = append(b.splittingOwners, idx)
			}
			if i < segment.Len()-1 {
				b.mergingMiddles = append(b.mergingMiddles, spot)
				b.mergingOwners = append(b.mergingOwners, idx)
			}
		}
	}
}

// gapClosingCost prices bridging the detection gap between the end of one
// segment and the start of a later one: squared distance scaled by the
// frame gap. The gap must fit GapClosingTimeWindow and the distance
// MaxDistSegments.
func (b *SegmentCostMatrixBuilder) gapClosingCost(from, to TrackSegment) (float64, bool) {
	end := from.Last()
	start := to.First()
	gap := start.Frame - end.Frame
	if gap < 1 || gap > b.settings.GapClosingTimeWindow {
		return 0, false
	}
	var d2 float64
	if b.settings.UseMotionPrediction {
		predicted := predictSegmentPosition(from, gap)
		planar := euclideanDistance(predicted, Point{X: start.X, Y: start.Y})
		dz := end.Z - start.Z
		d2 = planar*planar + dz*dz
	} else {
		d2 = end.SquareDistanceTo(start)
	}
	if d2 > b.settings.MaxDistSegments*b.settings.MaxDistSegments {
		return 0, false
	}
	return d2 * float64(gap), true
}

// endpointMiddleCost prices linking a segment endpoint to the middle point
// of another segment. The middle point must sit frameDelta frames from the
// endpoint (+1 for merging into it, -1 for splitting from it), within
// MaxDistSegments, and the intensity ratio middle/endpoint must fall
// inside the configured range. The cost penalizes ratios away from 1.
func (b *SegmentCostMatrixBuilder) endpointMiddleCost(endpoint, middle *Spot, frameDelta int) (float64, bool) {
	if middle.Frame-endpoint.Frame != frameDelta {
		return 0, false
	}
	d2 := endpoint.SquareDistanceTo(middle)
	if d2 > b.settings.MaxDistSegments*b.settings.MaxDistSegments {
		return 0, false
	}
	if endpoint.Intensity <= 0 || middle.Intensity <= 0 {
		return 0, false
	}
	ratio := middle.Intensity / endpoint.Intensity
	if ratio < b.settings.MinIntensityRatio || ratio > b.settings.MaxIntensityRatio {
		return 0, false
	}
	if ratio >= 1 {
		return d2 * ratio, true
	}
	return d2 / ratio, true
}
