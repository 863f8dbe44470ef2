package lap

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// Spot is a single detection: a point in space with a frame index and a
// scalar intensity used to weight merge and split costs. The tracker never
// mutates spots, it only links them. Identity is by reference; the UUID is
// a stable handle for callers that need one.
type Spot struct {
	id        uuid.UUID
	X         float64
	Y         float64
	Z         float64
	Frame     int
	Intensity float64
}

// NewSpot creates a spot at the given position.
func NewSpot(x, y, z float64, frame int, intensity float64) *Spot {
	return &Spot{
		id:        uuid.New(),
		X:         x,
		Y:         y,
		Z:         z,
		Frame:     frame,
		Intensity: intensity,
	}
}

// ID returns the spot's identifier.
func (s *Spot) ID() uuid.UUID {
	return s.id
}

// DistanceTo returns the Euclidean distance to the other spot.
func (s *Spot) DistanceTo(other *Spot) float64 {
	return math.Sqrt(s.SquareDistanceTo(other))
}

// SquareDistanceTo returns the squared Euclidean distance to the other spot.
func (s *Spot) SquareDistanceTo(other *Spot) float64 {
	dx := s.X - other.X
	dy := s.Y - other.Y
	dz := s.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// SpotCollection stores the detections to track, grouped by frame. Frame
// indices do not have to be contiguous; iteration order is always
// ascending by frame. The collection is owned by the caller and read-only
// for the duration of a tracking run.
type SpotCollection struct {
	frames map[int][]*Spot
}

// NewSpotCollection creates an empty collection.
func NewSpotCollection() *SpotCollection {
	return &SpotCollection{
		frames: make(map[int][]*Spot),
	}
}

// Add appends spots to the collection, each under its own frame index.
// Insertion order within a frame is preserved.
func (c *SpotCollection) Add(spots ...*Spot) {
	for _, spot := range spots {
		c.frames[spot.Frame] = append(c.frames[spot.Frame], spot)
	}
}

// AddFrame registers a frame that holds no detections. Such a frame still
// takes part in frame-pair iteration, so no link can cross it.
func (c *SpotCollection) AddFrame(frame int) {
	if _, ok := c.frames[frame]; !ok {
		c.frames[frame] = nil
	}
}

// Get returns the spots of the given frame in insertion order.
func (c *SpotCollection) Get(frame int) []*Spot {
	return c.frames[frame]
}

// Frames returns the registered frame indices sorted ascending.
func (c *SpotCollection) Frames() []int {
	frames := make([]int, 0, len(c.frames))
	for frame := range c.frames {
		frames = append(frames, frame)
	}
	sort.Ints(frames)
	return frames
}

// NumSpots returns the total number of spots across all frames.
func (c *SpotCollection) NumSpots() int {
	total := 0
	for _, spots := range c.frames {
		total += len(spots)
	}
	return total
}

// Empty reports whether no frame contains a spot.
func (c *SpotCollection) Empty() bool {
	return c.NumSpots() == 0
}
