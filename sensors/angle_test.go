package sensors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollAngle(t *testing.T) {
	tests := []struct {
		name       string
		ax, ay, az float64
		want       float64
	}{
		{"lateral gravity right", 0, 1, 0, 90},
		{"lateral gravity left", 0, -1, 0, -90},
		{"forward gravity", 1, 0, 0, 0},
		{"upright", 0, 0, 1, 0},
		{"45 right", 0, 1, 1, 45},
		{"30 left", 0, -0.5, math.Sqrt(3) / 2, -30},
		{"inverted", 0, 0, -1, 0},
		{"all zero", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RollAngle(tt.ax, tt.ay, tt.az), 1e-9)
		})
	}
}

func TestRollAngle_IgnoresForwardAcceleration(t *testing.T) {
	// Braking adds to ax; the projection keeps roll unchanged only when
	// ay is zero.
	assert.InDelta(t, 0, RollAngle(0.8, 0, 1), 1e-12)
	assert.Less(t, RollAngle(0.8, 0.5, 1), RollAngle(0, 0.5, 1))
}

func TestPitchAngle(t *testing.T) {
	assert.InDelta(t, 0, PitchAngle(0, 0, 1), 1e-9)
	assert.InDelta(t, -90, PitchAngle(1, 0, 0), 1e-9)
	assert.InDelta(t, 90, PitchAngle(-1, 0, 0), 1e-9)
	assert.InDelta(t, -45, PitchAngle(1, 0, 1), 1e-9)
}

func TestSample(t *testing.T) {
	s := Sample{
		Accel: [3]float64{0, 1, 0},
		Gyro:  [3]float64{12.5, -3, 4},
	}
	assert.InDelta(t, 90, s.Roll(), 1e-9)
	assert.InDelta(t, 0, s.Pitch(), 1e-9)
	assert.Equal(t, 12.5, s.RollRate())
}
