package lap

import "testing"

func TestTrackGraphNoDuplicateLinks(t *testing.T) {
	graph := NewTrackGraph()
	a := NewSpot(0, 0, 0, 0, 1)
	b := NewSpot(1, 0, 0, 1, 1)
	graph.AddLink(a, b)
	graph.AddLink(a, b)
	graph.AddLink(b, a)
	if got := graph.NumLinks(); got != 1 {
		t.Errorf("incorrect number of links: %d, expected: 1", got)
	}
	if !graph.HasLink(a, b) || !graph.HasLink(b, a) {
		t.Error("link between a and b missing")
	}
}

func TestTrackGraphSelfLinkIgnored(t *testing.T) {
	graph := NewTrackGraph()
	a := NewSpot(0, 0, 0, 0, 1)
	graph.AddSpot(a)
	graph.AddLink(a, a)
	if got := graph.NumLinks(); got != 0 {
		t.Errorf("incorrect number of links: %d, expected: 0", got)
	}
	if got := graph.NumSpots(); got != 1 {
		t.Errorf("incorrect number of spots: %d, expected: 1", got)
	}
}

func TestTrackGraphDegree(t *testing.T) {
	graph := NewTrackGraph()
	a := NewSpot(0, 0, 0, 0, 1)
	b := NewSpot(1, 0, 0, 1, 1)
	c := NewSpot(2, 0, 0, 2, 1)
	isolated := NewSpot(9, 9, 0, 0, 1)
	graph.AddLink(a, b)
	graph.AddLink(b, c)
	graph.AddSpot(isolated)
	if got := graph.Degree(b); got != 2 {
		t.Errorf("degree of b is %d, expected 2", got)
	}
	if got := graph.Degree(isolated); got != 0 {
		t.Errorf("degree of isolated spot is %d, expected 0", got)
	}
}

func TestTrackGraphConnectedComponents(t *testing.T) {
	graph := NewTrackGraph()
	a0 := NewSpot(0, 0, 0, 0, 1)
	a1 := NewSpot(0, 0, 0, 1, 1)
	a2 := NewSpot(0, 0, 0, 2, 1)
	b0 := NewSpot(5, 0, 0, 1, 1)
	b1 := NewSpot(5, 0, 0, 2, 1)
	lone := NewSpot(9, 9, 0, 4, 1)
	// Insert out of frame order to exercise the sorting.
	graph.AddLink(a1, a2)
	graph.AddLink(a0, a1)
	graph.AddLink(b1, b0)
	graph.AddSpot(lone)

	for run := 0; run < 5; run++ {
		segments := graph.ConnectedComponents()
		if len(segments) != 3 {
			t.Fatalf("run %d: incorrect number of segments: %d, expected: 3", run, len(segments))
		}
		// Segments ordered by their earliest spot, spots by frame.
		if segments[0].First() != a0 || segments[0].Last() != a2 {
			t.Errorf("run %d: first segment is not the a-chain", run)
		}
		if segments[1].First() != b0 || segments[1].Last() != b1 {
			t.Errorf("run %d: second segment is not the b-chain", run)
		}
		if segments[2].Len() != 1 || segments[2].First() != lone {
			t.Errorf("run %d: third segment is not the lone spot", run)
		}
		for _, segment := range segments {
			for i := 1; i < segment.Len(); i++ {
				if segment[i].Frame <= segment[i-1].Frame {
					t.Errorf("run %d: segment spots not strictly ascending by frame", run)
				}
			}
		}
	}
}
