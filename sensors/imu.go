// Package sensors reads inertial samples and turns them into the roll
// angle and roll rate consumed by the lean estimator.
package sensors

import "time"

// Sample is one accelerometer and gyro reading in physical units.
// Axes are X forward, Y lateral, Z vertical.
type Sample struct {
	T     time.Time
	Accel [3]float64 // g
	Gyro  [3]float64 // deg/s
}

// Roll returns the accelerometer roll angle in degrees.
func (s Sample) Roll() float64 {
	return RollAngle(s.Accel[0], s.Accel[1], s.Accel[2])
}

// Pitch returns the accelerometer pitch angle in degrees.
func (s Sample) Pitch() float64 {
	return PitchAngle(s.Accel[0], s.Accel[1], s.Accel[2])
}

// RollRate returns the gyro rate about the forward axis in deg/s.
func (s Sample) RollRate() float64 {
	return s.Gyro[0]
}

// IMUReader provides an interface to the Inertial Measurement Units the
// lean meter can run on, such as the InvenSense MPU6050 or ICM-20948.
type IMUReader interface {
	// Read returns the latest gyro/accel sample.
	Read() (Sample, error)
	// Close stops reading the IMU.
	Close()
}
