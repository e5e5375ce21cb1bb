package features

import "math"

// NetX is the goal line x coordinate in the normalized (attacking toward +x) frame.
const NetX = 89.0

// League-average shot location used when coordinates are unavailable.
const (
	DefaultDistance = 30.0
	DefaultAngle    = 15.0
)

// Geometry computes distance and angle to the net. Shots are mirrored onto the
// +x half (xNorm = |x|); a missing y is treated as 0. A missing x has no usable
// location, so the league-average defaults apply. Shots from behind the goal
// line (|x| > NetX) get an angle above 90°.
func Geometry(x, y float64, hasX, hasY bool) (distance, angle float64) {
	if !hasX {
		return DefaultGeometry()
	}
	if !hasY {
		y = 0
	}
	dx := NetX - math.Abs(x)
	distance = math.Hypot(dx, y)
	angle = math.Atan2(math.Abs(y), dx) * 180 / math.Pi
	return distance, angle
}

// DefaultGeometry is used for datasets without coordinate columns.
func DefaultGeometry() (distance, angle float64) {
	return DefaultDistance, DefaultAngle
}
