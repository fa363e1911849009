// Package kalman fuses an accelerometer-derived angle with a gyroscope rate
// into a single angle estimate using a two-state (angle, gyro bias) Kalman
// filter.
package kalman

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidParams is the cause of every error returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid filter parameters")

// Params holds the noise model of the filter. It is fixed for the life of
// an Estimator.
type Params struct {
	QAngle float64 `json:"q_angle"` // Angle process noise, variance per second.
	QBias  float64 `json:"q_bias"`  // Gyro bias process noise, variance per second.
	RAngle float64 `json:"r_angle"` // Angle measurement noise variance.
}

// DefaultParams returns the noise values tuned for an MPU6050 at 100 Hz.
func DefaultParams() Params {
	return Params{
		QAngle: 0.001,
		QBias:  0.003,
		RAngle: 0.03,
	}
}

// Validate checks that every noise value is finite and strictly positive.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"q_angle", p.QAngle},
		{"q_bias", p.QBias},
		{"r_angle", p.RAngle},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return errors.Wrapf(ErrInvalidParams, "%s must be > 0, got %v", f.name, f.v)
		}
	}
	return nil
}
