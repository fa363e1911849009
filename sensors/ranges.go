package sensors

import "github.com/pkg/errors"

// GyroRange is a gyroscope full-scale range in degrees/second.
type GyroRange int

// Gyro full-scale ranges supported by the InvenSense parts.
const (
	Gyro250  GyroRange = 250
	Gyro500  GyroRange = 500
	Gyro1000 GyroRange = 1000
	Gyro2000 GyroRange = 2000
)

// ParseGyroRange returns the GyroRange for a full scale given in deg/s.
func ParseGyroRange(dps int) (GyroRange, error) {
	r := GyroRange(dps)
	if r.index() < 0 {
		return 0, errors.Errorf("unsupported gyro range %d dps", dps)
	}
	return r, nil
}

func (r GyroRange) index() int {
	switch r {
	case Gyro250:
		return 0
	case Gyro500:
		return 1
	case Gyro1000:
		return 2
	case Gyro2000:
		return 3
	}
	return -1
}

// Sensitivity returns the LSB per deg/s for the range.
func (r GyroRange) Sensitivity() float64 {
	switch r {
	case Gyro500:
		return 65.5
	case Gyro1000:
		return 32.8
	case Gyro2000:
		return 16.4
	}
	return 131
}

// Bits returns the FS_SEL value for the GYRO_CONFIG register.
func (r GyroRange) Bits() byte {
	if i := r.index(); i > 0 {
		return byte(i) << 3
	}
	return 0
}

// Rate converts a raw gyro count to degrees/second.
func (r GyroRange) Rate(raw int16) float64 {
	return float64(raw) / r.Sensitivity()
}

// AccelRange is an accelerometer full-scale range in g.
type AccelRange int

// Accelerometer full-scale ranges supported by the InvenSense parts.
const (
	Accel2G  AccelRange = 2
	Accel4G  AccelRange = 4
	Accel8G  AccelRange = 8
	Accel16G AccelRange = 16
)

// ParseAccelRange returns the AccelRange for a full scale given in g.
func ParseAccelRange(g int) (AccelRange, error) {
	r := AccelRange(g)
	if r.index() < 0 {
		return 0, errors.Errorf("unsupported accel range %dg", g)
	}
	return r, nil
}

func (r AccelRange) index() int {
	switch r {
	case Accel2G:
		return 0
	case Accel4G:
		return 1
	case Accel8G:
		return 2
	case Accel16G:
		return 3
	}
	return -1
}

// Sensitivity returns the LSB per g for the range.
func (r AccelRange) Sensitivity() float64 {
	if i := r.index(); i > 0 {
		return 16384 / float64(int(1)<<uint(i))
	}
	return 16384
}

// Bits returns the AFS_SEL value for the ACCEL_CONFIG register.
func (r AccelRange) Bits() byte {
	if i := r.index(); i > 0 {
		return byte(i) << 3
	}
	return 0
}

// Accel converts a raw accelerometer count to g.
func (r AccelRange) Accel(raw int16) float64 {
	return float64(raw) / r.Sensitivity()
}
