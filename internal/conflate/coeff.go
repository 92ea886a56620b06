package conflate

import (
	"math"

	"github.com/sells-group/netconflate/internal/network"
)

// VerticalSlope stands in for the infinite slope of a vertical segment.
const VerticalSlope = 1e9

// Slope returns the angular coefficient of a segment from its end points.
func Slope(f network.Feature) float64 {
	s, e := f.Start(), f.End()
	dx := e.X() - s.X()
	if dx == 0 {
		return VerticalSlope
	}
	return (e.Y() - s.Y()) / dx
}

// Angle returns the acute angle in degrees between two lines of slopes m1
// and m2. Perpendicular lines give 90.
func Angle(m1, m2 float64) float64 {
	return math.Atan(math.Abs((m1-m2)/(1+m1*m2))) * 180 / math.Pi
}
