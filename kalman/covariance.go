package kalman

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Covariance is the symmetric 2x2 error covariance over (angle, bias).
// The off-diagonal is stored once, so P[0][1] == P[1][0] always holds.
type Covariance struct {
	P00 float64 `json:"p00"`
	P01 float64 `json:"p01"`
	P11 float64 `json:"p11"`
}

// At returns the matrix entry at row i, column j.
func (c Covariance) At(i, j int) float64 {
	switch {
	case i == 0 && j == 0:
		return c.P00
	case i == 1 && j == 1:
		return c.P11
	case (i == 0 && j == 1) || (i == 1 && j == 0):
		return c.P01
	}
	panic("kalman: covariance index out of range")
}

// SymDense returns a copy of the covariance as a gonum symmetric matrix.
func (c Covariance) SymDense() *mat.SymDense {
	return mat.NewSymDense(2, []float64{
		c.P00, c.P01,
		c.P01, c.P11,
	})
}

func (c Covariance) finite() bool {
	for _, v := range [...]float64{c.P00, c.P01, c.P11} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// predict propagates the covariance dt seconds forward for a model where
// the angle integrates the unbiased rate and the bias is a random walk.
func (c *Covariance) predict(dt, qAngle, qBias float64) {
	c.P00 += dt * (dt*c.P11 - 2*c.P01 + qAngle)
	c.P01 -= dt * c.P11
	c.P11 += qBias * dt
}

// correct applies the measurement update for gains k0 (angle) and k1
// (bias). Every entry is computed from the pre-update values.
func (c *Covariance) correct(k0, k1 float64) {
	p00, p01 := c.P00, c.P01
	c.P00 = p00 - k0*p00
	c.P01 = p01 - k0*p01
	c.P11 -= k1 * p01
}
