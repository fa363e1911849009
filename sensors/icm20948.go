package sensors

import (
	"time"

	"github.com/b3nn0/goflying/icm20948"
	"github.com/kidoman/embd"
	"github.com/pkg/errors"
)

const (
	icmUpdateFreq = 100 // icmUpdateFreq is the rate at which the driver samples, Hz.
	icmLPF        = 25  // Gyro/accel low pass, Hz; cuts engine vibration.
	icmMaxWaits   = 5
)

// ICM20948 represents an InvenSense ICM-20948 attached to the I2C bus and
// satisfies the IMUReader interface. The goflying driver already reports
// gyro in deg/s and accel in g.
type ICM20948 struct {
	mpu *icm20948.ICM20948
	avg <-chan *icm20948.MPUData
}

var (
	errICMClosed   = errors.New("icm20948: driver stopped")
	errICMNoSample = errors.New("icm20948: no samples averaged")
)

// NewICM20948 returns an instance of the ICM-20948 IMUReader, connected to
// an ICM-20948 attached on the I2C bus.
func NewICM20948(i2cbus *embd.I2CBus, gyro GyroRange, accel AccelRange) (*ICM20948, error) {
	mpu, err := icm20948.NewICM20948(i2cbus, int(gyro), int(accel), icmUpdateFreq, false, false)
	if err != nil {
		return nil, err
	}
	mpu.SetGyroLPF(icmLPF)
	mpu.SetAccelLPF(icmLPF)
	return &ICM20948{mpu: mpu, avg: mpu.CAvg}, nil
}

// Read returns the average of the driver's samples since the last Read. It
// fails rather than report an empty average.
func (m *ICM20948) Read() (Sample, error) {
	for i := 0; i < icmMaxWaits; i++ {
		data, ok := <-m.avg
		if !ok || data == nil {
			return Sample{}, errICMClosed
		}
		if data.GAError != nil {
			return Sample{}, data.GAError
		}
		if data.N > 0 {
			return fromMPUData(data.T, data.A1, data.A2, data.A3, data.G1, data.G2, data.G3), nil
		}
	}
	return Sample{}, errICMNoSample
}

func fromMPUData(t time.Time, a1, a2, a3, g1, g2, g3 float64) Sample {
	return Sample{
		T:     t,
		Accel: [3]float64{a1, a2, a3},
		Gyro:  [3]float64{g1, g2, g3},
	}
}

// Close stops reading the MPU.
func (m *ICM20948) Close() {
	m.mpu.CloseMPU()
}
