package lap

import "math"

// Point is a planar position, used for motion-predicted segment endpoints.
type Point struct {
	X float64
	Y float64
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}
