package lap

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TrackerState is the phase a tracker has completed.
type TrackerState uint16

const (
	// StateInitialized means no work has been done yet.
	StateInitialized TrackerState = iota
	// StateCostMatricesBuilt means the step-1 linking cost matrices exist.
	StateCostMatricesBuilt
	// StateSegmentsLinked means frame-to-frame links are in the graph and
	// track segments have been compiled.
	StateSegmentsLinked
	// StateSegmentCostMatrixBuilt means the step-2 stitching matrix exists.
	StateSegmentCostMatrixBuilt
	// StateTracksLinked is terminal: stitching solutions are in the graph.
	StateTracksLinked
)

// LAPTracker links spots across frames by solving two linear assignment
// problems, after Jaqaman et al., "Robust single-particle tracking in
// live-cell time-lapse sequences", Nature Methods 2008. Step 1 links spots
// of consecutive frames into track segments; step 2 stitches segments into
// final tracks through gap closing, merging and splitting. Both steps
// build a cost matrix and hand it to an AssignmentSolver.
//
// With the default cost model, call CheckInput and then Process. To supply
// custom cost matrices instead, call SetLinkingCosts and
// LinkObjectsToTrackSegments, then SetSegmentCosts and
// LinkTrackSegmentsToFinalTracks. A custom segment matrix indexes the
// segments returned by TrackSegments and has no middle point columns, so
// only its gap closing solutions are applied.
type LAPTracker struct {
	spots    *SpotCollection
	settings TrackerSettings
	solver   AssignmentSolver

	linkingCosts map[int]*mat.Dense
	segmentCosts *mat.Dense
	defaultCosts bool

	graph    *TrackGraph
	segments []TrackSegment

	linkable         []TrackSegment
	splittingMiddles []*Spot
	mergingMiddles   []*Spot

	state        TrackerState
	inputChecked bool
}

// NewLAPTracker creates a tracker with the default Munkres solver.
func NewLAPTracker(spots *SpotCollection, settings TrackerSettings) *LAPTracker {
	return NewLAPTrackerWithSolver(spots, settings, NewSolver(MatchingAlgorithmMunkres))
}

// NewLAPTrackerWithSolver creates a tracker with the given solver strategy.
func NewLAPTrackerWithSolver(spots *SpotCollection, settings TrackerSettings, solver AssignmentSolver) *LAPTracker {
	return &LAPTracker{
		spots:        spots,
		settings:     settings,
		solver:       solver,
		defaultCosts: true,
		graph:        NewTrackGraph(),
		state:        StateInitialized,
	}
}

// State returns the phase the tracker has completed.
func (t *LAPTracker) State() TrackerState {
	return t.state
}

// CheckInput validates the observation table: it must exist and hold at
// least one spot. It must succeed before Process.
func (t *LAPTracker) CheckInput() error {
	if t.spots == nil {
		return errors.Wrap(ErrInvalidInput, "the spot collection is nil")
	}
	if len(t.spots.Frames()) == 0 {
		return errors.Wrap(ErrInvalidInput, "the spot collection is empty")
	}
	if t.spots.Empty() {
		return errors.Wrap(ErrInvalidInput, "the spot collection contains no spots")
	}
	t.inputChecked = true
	return nil
}

// Process runs the full two-step pipeline with the default cost model.
// A failed phase never corrupts results already committed by earlier
// phases; its own partial results are discarded.
func (t *LAPTracker) Process() error {
	if !t.inputChecked {
		return errors.Wrap(ErrInvalidInput, "CheckInput must be executed before Process")
	}

	// Step 1 - link spots into track segments.
	if err := t.buildLinkingCostMatrices(); err != nil {
		return err
	}
	if err := t.LinkObjectsToTrackSegments(); err != nil {
		return err
	}

	// Step 2 - stitch segments into final tracks.
	if err := t.buildSegmentCostMatrix(); err != nil {
		return err
	}
	if len(t.linkable) == 0 {
		// Nothing passed the length filter; short segments stay as
		// isolated mini tracks.
		t.state = StateTracksLinked
		return nil
	}
	return t.LinkTrackSegmentsToFinalTracks()
}

// LinkingCosts returns the step-1 cost matrices keyed by the earlier frame
// of each pair.
func (t *LAPTracker) LinkingCosts() map[int]*mat.Dense {
	return t.linkingCosts
}

// SetLinkingCosts injects custom step-1 cost matrices, keyed by the
// earlier frame of each pair. Each matrix must have the quadrant layout
// documented on LinkingCostMatrixBuilder for its frame pair's sizes.
func (t *LAPTracker) SetLinkingCosts(linkingCosts map[int]*mat.Dense) {
	t.linkingCosts = linkingCosts
}

// SegmentCosts returns the step-2 cost matrix, nil before it is built.
func (t *LAPTracker) SegmentCosts() *mat.Dense {
	return t.segmentCosts
}

// SetSegmentCosts injects a custom step-2 cost matrix indexing the
// segments returned by TrackSegments.
func (t *LAPTracker) SetSegmentCosts(segmentCosts *mat.Dense) {
	t.segmentCosts = segmentCosts
	t.defaultCosts = false
}

// TrackSegments returns the segments compiled in step 1, nil before
// LinkObjectsToTrackSegments has run.
func (t *LAPTracker) TrackSegments() []TrackSegment {
	return t.segments
}

// Graph returns the link graph built so far.
func (t *LAPTracker) Graph() *TrackGraph {
	return t.graph
}

// LinkObjectsToTrackSegments solves the frame-to-frame LAPs, commits the
// resulting links to the graph and compiles its connected components into
// track segments. Call directly after SetLinkingCosts when supplying
// custom matrices.
func (t *LAPTracker) LinkObjectsToTrackSegments() error {
	if t.linkingCosts == nil {
		return errors.Wrap(ErrInvalidInput, "the linking cost matrices are not set")
	}
	if err := t.solveLAPForTrackSegments(); err != nil {
		return err
	}
	t.segments = t.graph.ConnectedComponents()
	t.state = StateSegmentsLinked
	return nil
}

// LinkTrackSegmentsToFinalTracks solves the stitching LAP and applies the
// gap closing, merging and splitting solutions as graph edges. Call
// directly after SetSegmentCosts when supplying a custom matrix.
func (t *LAPTracker) LinkTrackSegmentsToFinalTracks() error {
	if len(t.segments) == 0 {
		return errors.Wrap(ErrNoSegments, "there are no track segments to link")
	}
	if t.segmentCosts == nil {
		return errors.Wrap(ErrInvalidInput, "the segment cost matrix is not set")
	}
	solution, err := t.solver.Solve(t.segmentCosts)
	if err != nil {
		return errors.Wrap(err, "solving the segment LAP")
	}
	t.compileFinalTracks(solution)
	t.state = StateTracksLinked
	return nil
}

// buildLinkingCostMatrices creates the step-1 cost matrix for every
// consecutive pair of present frames, in ascending frame order. Pairs with
// an empty side get no matrix: no link can cross them.
func (t *LAPTracker) buildLinkingCostMatrices() error {
	linkingCosts := make(map[int]*mat.Dense)
	frames := t.spots.Frames()
	for k := 0; k+1 < len(frames); k++ {
		t0 := t.spots.Get(frames[k])
		t1 := t.spots.Get(frames[k+1])
		if len(t0) == 0 || len(t1) == 0 {
			continue
		}
		costs, err := NewLinkingCostMatrixBuilder(t0, t1, t.settings).Build()
		if err != nil {
			return errors.Wrapf(err, "frame pair %d-%d", frames[k], frames[k+1])
		}
		linkingCosts[frames[k]] = costs
	}
	t.linkingCosts = linkingCosts
	t.state = StateCostMatricesBuilt
	return nil
}

// buildSegmentCostMatrix runs the step-2 builder and stores its products.
func (t *LAPTracker) buildSegmentCostMatrix() error {
	builder := NewSegmentCostMatrixBuilder(t.segments, t.settings)
	if err := builder.Build(); err != nil {
		return err
	}
	t.segmentCosts = builder.CostMatrix()
	t.linkable = builder.LinkableSegments()
	t.splittingMiddles = builder.SplittingMiddlePoints()
	t.mergingMiddles = builder.MergingMiddlePoints()
	t.defaultCosts = true
	t.state = StateSegmentCostMatrixBuilt
	return nil
}

type pendingLink struct {
	from *Spot
	to   *Spot
}

// solveLAPForTrackSegments seeds the graph with every spot, solves each
// frame pair's LAP and commits the linking-quadrant solutions as edges.
// Edges are staged and committed only after every pair solved, so a
// mid-phase failure leaves the graph untouched.
func (t *LAPTracker) solveLAPForTrackSegments() error {
	frames := t.spots.Frames()
	for _, frame := range frames {
		for _, spot := range t.spots.Get(frame) {
			t.graph.AddSpot(spot)
		}
	}

	var staged []pendingLink
	for k := 0; k+1 < len(frames); k++ {
		costs, ok := t.linkingCosts[frames[k]]
		if !ok {
			continue
		}
		t0 := t.spots.Get(frames[k])
		t1 := t.spots.Get(frames[k+1])
		solution, err := t.solver.Solve(costs)
		if err != nil {
			return errors.Wrapf(err, "frame pair %d-%d", frames[k], frames[k+1])
		}
		for _, assignment := range solution {
			if assignment.Row >= len(t0) || assignment.Col >= len(t1) {
				// Outside the linking quadrant: a track start or end.
				continue
			}
			if costs.At(assignment.Row, assignment.Col) == BlockedCost {
				continue
			}
			staged = append(staged, pendingLink{from: t0[assignment.Row], to: t1[assignment.Col]})
		}
	}
	for _, link := range staged {
		t.graph.AddLink(link.from, link.to)
	}
	return nil
}

// compileFinalTracks turns stitching solutions into graph edges. Solutions
// landing in the alternative or mirror quadrants represent segment births
// and deaths and need no change to the graph.
func (t *LAPTracker) compileFinalTracks(solution []Assignment) {
	segments := t.linkable
	if !t.defaultCosts {
		segments = t.segments
	}
	nseg := len(segments)
	nsplit := len(t.splittingMiddles)
	nmerge := len(t.mergingMiddles)
	if !t.defaultCosts {
		nsplit, nmerge = 0, 0
	}
	for _, assignment := range solution {
		i, j := assignment.Row, assignment.Col
		if t.segmentCosts.At(i, j) == BlockedCost {
			continue
		}
		switch {
		case i < nseg && j < nseg:
			// Gap closing: end of segment i to start of segment j.
			t.graph.AddLink(segments[i].Last(), segments[j].First())
		case i < nseg && j < nseg+nmerge:
			// Merging: end of segment i into a middle point.
			t.graph.AddLink(segments[i].Last(), t.mergingMiddles[j-nseg])
		case i >= nseg && i < nseg+nsplit && j < nseg:
			// Splitting: a middle point mothers the start of segment j.
			t.graph.AddLink(t.splittingMiddles[i-nseg], segments[j].First())
		}
	}
}
