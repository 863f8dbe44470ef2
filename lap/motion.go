package lap

import (
	kalman_filter "github.com/LdDl/kalman-filter"
)

/* Kalman filter props */
const (
	kalmanDt       = 1.0
	kalmanUx       = 1.0
	kalmanUy       = 1.0
	kalmanStdDevA  = 2.0
	kalmanStdDevMx = 0.1
	kalmanStdDevMy = 0.1
)

// predictSegmentPosition runs a 2D Kalman filter over the planar track of
// the segment and projects it the given number of frames past the last
// observation. A single-spot segment carries no velocity estimate, so its
// raw position comes back unchanged. Depth is not modeled: callers keep
// the last observed Z.
func predictSegmentPosition(segment TrackSegment, steps int) Point {
	last := segment.Last()
	if segment.Len() < 2 || steps < 1 {
		return Point{X: last.X, Y: last.Y}
	}
	first := segment.First()
	kf := kalman_filter.NewKalman2D(kalmanDt, kalmanUx, kalmanUy, kalmanStdDevA, kalmanStdDevMx, kalmanStdDevMy,
		kalman_filter.WithState2D(first.X, first.Y))
	for _, spot := range segment[1:] {
		kf.Predict()
		if err := kf.Update(spot.X, spot.Y); err != nil {
			return Point{X: last.X, Y: last.Y}
		}
	}
	for i := 0; i < steps; i++ {
		kf.Predict()
	}
	x, y := kf.GetState()
	return Point{X: x, Y: y}
}
