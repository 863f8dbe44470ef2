package lap

// TrackSegment is one contiguous chain of spots ordered by ascending
// frame. No two spots of a segment share a frame.
type TrackSegment []*Spot

// First returns the earliest spot of the segment.
func (ts TrackSegment) First() *Spot {
	return ts[0]
}

// Last returns the latest spot of the segment.
func (ts TrackSegment) Last() *Spot {
	return ts[len(ts)-1]
}

// Len returns the number of spots in the segment.
func (ts TrackSegment) Len() int {
	return len(ts)
}
