package kalman

import "math"

// State is the mutable part of an Estimator.
type State struct {
	Angle float64    `json:"angle"` // Fused angle, degrees.
	Bias  float64    `json:"bias"`  // Estimated gyro bias, degrees/second.
	Rate  float64    `json:"rate"`  // Last unbiased rate, degrees/second.
	P     Covariance `json:"p"`
}

// Estimator is a two-state Kalman filter tracking an angle and the bias of
// the gyro measuring its rate. The zero state has angle, bias and
// covariance all zero.
//
// An Estimator is not safe for concurrent use. Updates must be applied in
// time order with dt equal to the time elapsed since the previous update.
type Estimator struct {
	params Params
	state  State
}

// New returns an Estimator with zero state, or an error wrapping
// ErrInvalidParams if p does not validate.
func New(p Params) (*Estimator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{params: p}, nil
}

// Update feeds one tick: an absolute angle measurement (degrees), a gyro
// rate (degrees/second) and the seconds elapsed since the last tick. It
// returns the fused angle. A negative dt is treated as zero.
func (e *Estimator) Update(angle, rate, dt float64) float64 {
	if dt < 0 {
		dt = 0
	}
	s := &e.state

	// Predict.
	s.Rate = rate - s.Bias
	s.Angle += dt * s.Rate
	s.P.predict(dt, e.params.QAngle, e.params.QBias)

	// Correct.
	inn := s.P.P00 + e.params.RAngle
	k0 := s.P.P00 / inn
	k1 := s.P.P01 / inn
	y := angle - s.Angle
	s.Angle += k0 * y
	s.Bias += k1 * y
	s.P.correct(k0, k1)

	return s.Angle
}

// Angle returns the current fused angle in degrees.
func (e *Estimator) Angle() float64 { return e.state.Angle }

// Bias returns the current gyro bias estimate in degrees/second.
func (e *Estimator) Bias() float64 { return e.state.Bias }

// Rate returns the unbiased rate used by the last update.
func (e *Estimator) Rate() float64 { return e.state.Rate }

// Covariance returns a copy of the error covariance.
func (e *Estimator) Covariance() Covariance { return e.state.P }

// State returns a copy of the whole filter state.
func (e *Estimator) State() State { return e.state }

// Params returns the noise model the Estimator was built with.
func (e *Estimator) Params() Params { return e.params }

// Finite reports whether the state is free of NaN and Inf. Once a
// non-finite sample has reached the filter every later estimate is
// corrupted, and the caller should replace the Estimator.
func (e *Estimator) Finite() bool {
	s := e.state
	for _, v := range [...]float64{s.Angle, s.Bias, s.Rate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return s.P.finite()
}
