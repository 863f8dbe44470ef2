package lap

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

type spotNode int64

func (n spotNode) ID() int64 { return int64(n) }

// TrackGraph is an undirected simple graph over spots: vertices are
// detections, edges are established links. Duplicate and self links are
// ignored, so the edge set stays simple no matter how often a link is
// re-applied.
type TrackGraph struct {
	g      *simple.UndirectedGraph
	ids    map[*Spot]int64
	spots  map[int64]*Spot
	order  []*Spot
	nextID int64
}

// NewTrackGraph creates an empty track graph.
func NewTrackGraph() *TrackGraph {
	return &TrackGraph{
		g:     simple.NewUndirectedGraph(),
		ids:   make(map[*Spot]int64),
		spots: make(map[int64]*Spot),
	}
}

// AddSpot inserts the spot as an isolated vertex. Adding a spot twice is a
// no-op.
func (tg *TrackGraph) AddSpot(spot *Spot) {
	if _, ok := tg.ids[spot]; ok {
		return
	}
	id := tg.nextID
	tg.nextID++
	tg.ids[spot] = id
	tg.spots[id] = spot
	tg.order = append(tg.order, spot)
	tg.g.AddNode(spotNode(id))
}

// HasSpot reports whether the spot is a vertex of the graph.
func (tg *TrackGraph) HasSpot(spot *Spot) bool {
	_, ok := tg.ids[spot]
	return ok
}

// AddLink connects two spots, inserting them first if needed.
func (tg *TrackGraph) AddLink(a, b *Spot) {
	if a == b {
		return
	}
	tg.AddSpot(a)
	tg.AddSpot(b)
	ia, ib := tg.ids[a], tg.ids[b]
	if tg.g.HasEdgeBetween(ia, ib) {
		return
	}
	tg.g.SetEdge(tg.g.NewEdge(spotNode(ia), spotNode(ib)))
}

// HasLink reports whether the two spots are directly linked.
func (tg *TrackGraph) HasLink(a, b *Spot) bool {
	ia, oka := tg.ids[a]
	ib, okb := tg.ids[b]
	return oka && okb && tg.g.HasEdgeBetween(ia, ib)
}

// NumSpots returns the number of vertices.
func (tg *TrackGraph) NumSpots() int {
	return len(tg.order)
}

// NumLinks returns the number of edges.
func (tg *TrackGraph) NumLinks() int {
	count := 0
	edges := tg.g.Edges()
	for edges.Next() {
		count++
	}
	return count
}

// Degree returns the number of links attached to the spot.
func (tg *TrackGraph) Degree(spot *Spot) int {
	id, ok := tg.ids[spot]
	if !ok {
		return 0
	}
	return tg.g.From(id).Len()
}

// ConnectedComponents splits the graph into track segments. Spots inside a
// segment are sorted by (frame, insertion order) and segments by their
// leading spot, so repeated runs over the same input produce identical
// segment lists.
func (tg *TrackGraph) ConnectedComponents() []TrackSegment {
	pos := make(map[*Spot]int, len(tg.order))
	for i, spot := range tg.order {
		pos[spot] = i
	}
	byPos := func(a, b *Spot) bool {
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return pos[a] < pos[b]
	}

	components := topo.ConnectedComponents(tg.g)
	segments := make([]TrackSegment, 0, len(components))
	for _, component := range components {
		segment := make(TrackSegment, 0, len(component))
		for _, node := range component {
			segment = append(segment, tg.spots[node.ID()])
		}
		sort.Slice(segment, func(i, j int) bool {
			return byPos(segment[i], segment[j])
		})
		segments = append(segments, segment)
	}
	sort.Slice(segments, func(i, j int) bool {
		return byPos(segments[i].First(), segments[j].First())
	})
	return segments
}
