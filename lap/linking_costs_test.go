package lap

import (
	"testing"

	"github.com/pkg/errors"
)

func TestLinkingCostMatrixSingleLink(t *testing.T) {
	settings := DefaultTrackerSettings()
	settings.MaxDistObjects = 5
	s0 := NewSpot(0, 0, 0, 0, 1)
	s1 := NewSpot(1, 0, 0, 1, 1)

	costs, err := NewLinkingCostMatrixBuilder([]*Spot{s0}, []*Spot{s1}, settings).Build()
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := costs.Dims()
	if rows != 2 || cols != 2 {
		t.Fatalf("matrix is %dx%d, expected 2x2", rows, cols)
	}
	if got := costs.At(0, 0); got != 1 {
		t.Errorf("link cost %f, expected 1", got)
	}
	// The single finite cost is its own 90th percentile.
	expectedAlt := settings.AltLinkingCostFactor * 1
	if got := costs.At(0, 1); got != expectedAlt {
		t.Errorf("terminate cost %f, expected %f", got, expectedAlt)
	}
	if got := costs.At(1, 0); got != expectedAlt {
		t.Errorf("start cost %f, expected %f", got, expectedAlt)
	}
	if got := costs.At(1, 1); got != 0 {
		t.Errorf("mirror cost %f, expected 0", got)
	}
}

func TestLinkingCostMatrixBeyondMaxDist(t *testing.T) {
	settings := DefaultTrackerSettings()
	settings.MaxDistObjects = 0.5
	s0 := NewSpot(0, 0, 0, 0, 1)
	s1 := NewSpot(1, 0, 0, 1, 1)

	costs, err := NewLinkingCostMatrixBuilder([]*Spot{s0}, []*Spot{s1}, settings).Build()
	if err != nil {
		t.Fatal(err)
	}
	if got := costs.At(0, 0); got != BlockedCost {
		t.Errorf("link cost %f, expected blocked", got)
	}
	if got := costs.At(1, 1); got != BlockedCost {
		t.Errorf("mirror cost %f, expected blocked", got)
	}
	// No finite link cost: the fixed fallback prices birth and death.
	if got := costs.At(0, 1); got != altCostFallback {
		t.Errorf("terminate cost %f, expected %f", got, altCostFallback)
	}
	if got := costs.At(1, 0); got != altCostFallback {
		t.Errorf("start cost %f, expected %f", got, altCostFallback)
	}
}

func TestLinkingCostMatrixQuadrants(t *testing.T) {
	settings := DefaultTrackerSettings()
	settings.MaxDistObjects = 5
	t0 := []*Spot{NewSpot(0, 0, 0, 0, 1), NewSpot(10, 0, 0, 0, 1)}
	t1 := []*Spot{NewSpot(1, 0, 0, 1, 1), NewSpot(11, 0, 0, 1, 1)}

	costs, err := NewLinkingCostMatrixBuilder(t0, t1, settings).Build()
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := costs.Dims()
	if rows != 4 || cols != 4 {
		t.Fatalf("matrix is %dx%d, expected 4x4", rows, cols)
	}
	// Finite links only along the near pairs.
	if got := costs.At(0, 0); got != 1 {
		t.Errorf("cost[0][0] = %f, expected 1", got)
	}
	if got := costs.At(1, 1); got != 1 {
		t.Errorf("cost[1][1] = %f, expected 1", got)
	}
	if got := costs.At(0, 1); got != BlockedCost {
		t.Errorf("cost[0][1] = %f, expected blocked", got)
	}
	if got := costs.At(1, 0); got != BlockedCost {
		t.Errorf("cost[1][0] = %f, expected blocked", got)
	}
	// Alternative diagonals, off-diagonal blocked.
	expectedAlt := settings.AltLinkingCostFactor * 1
	for i := 0; i < 2; i++ {
		if got := costs.At(i, 2+i); got != expectedAlt {
			t.Errorf("terminate cost at (%d, %d) = %f, expected %f", i, 2+i, got, expectedAlt)
		}
		if got := costs.At(2+i, i); got != expectedAlt {
			t.Errorf("start cost at (%d, %d) = %f, expected %f", 2+i, i, got, expectedAlt)
		}
	}
	if got := costs.At(0, 3); got != BlockedCost {
		t.Errorf("cost[0][3] = %f, expected blocked", got)
	}
	if got := costs.At(3, 0); got != BlockedCost {
		t.Errorf("cost[3][0] = %f, expected blocked", got)
	}
	// Mirrors of the finite links.
	if got := costs.At(2, 2); got != 0 {
		t.Errorf("mirror cost at (2, 2) = %f, expected 0", got)
	}
	if got := costs.At(3, 3); got != 0 {
		t.Errorf("mirror cost at (3, 3) = %f, expected 0", got)
	}
	if got := costs.At(2, 3); got != BlockedCost {
		t.Errorf("mirror cost at (2, 3) = %f, expected blocked", got)
	}
}

func TestLinkingCostMatrixEmptyFrame(t *testing.T) {
	settings := DefaultTrackerSettings()
	s0 := NewSpot(0, 0, 0, 0, 1)
	if _, err := NewLinkingCostMatrixBuilder(nil, []*Spot{s0}, settings).Build(); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("empty earlier frame: got %v, expected ErrEmptyFrame", err)
	}
	if _, err := NewLinkingCostMatrixBuilder([]*Spot{s0}, nil, settings).Build(); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("empty later frame: got %v, expected ErrEmptyFrame", err)
	}
}

func TestLinkingCostMatrixRoundTripAvoidsBlocked(t *testing.T) {
	settings := DefaultTrackerSettings()
	settings.MaxDistObjects = 5
	t0 := []*Spot{NewSpot(0, 0, 0, 0, 1), NewSpot(3, 0, 0, 0, 1), NewSpot(50, 0, 0, 0, 1)}
	t1 := []*Spot{NewSpot(1, 0, 0, 1, 1), NewSpot(4, 1, 0, 1, 1)}

	costs, err := NewLinkingCostMatrixBuilder(t0, t1, settings).Build()
	if err != nil {
		t.Fatal(err)
	}
	solution, err := NewSolver(MatchingAlgorithmMunkres).Solve(costs)
	if err != nil {
		t.Fatal(err)
	}
	for _, assignment := range solution {
		if costs.At(assignment.Row, assignment.Col) == BlockedCost {
			t.Errorf("blocked pair (%d, %d) selected", assignment.Row, assignment.Col)
		}
	}
}
