package sensors

import "math"

// RollAngle returns the roll, in degrees, implied by a gravity reading in g
// with X forward, Y lateral and Z vertical. The result is in (-180, 180];
// a reading with ax = az = 0 yields ±90.
func RollAngle(ax, ay, az float64) float64 {
	return math.Atan2(ay, math.Sqrt(ax*ax+az*az)) * (180 / math.Pi)
}

// PitchAngle returns the pitch, in degrees, implied by a gravity reading.
// Nose up is positive.
func PitchAngle(ax, ay, az float64) float64 {
	return -math.Atan2(ax, math.Sqrt(ay*ay+az*az)) * (180 / math.Pi)
}
