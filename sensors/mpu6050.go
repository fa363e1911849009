package sensors

import (
	"encoding/binary"
	"time"

	"github.com/kidoman/embd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// https://www.olimex.com/Products/Modules/Sensors/MOD-MPU6050/resources/RM-MPU-60xxA_rev_4.pdf
const (
	mpu6050Address    = 0x68
	mpu6050AltAddress = 0x69

	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regAccelXOutH  = 0x3B // Start of the 14 byte accel/temp/gyro block.
	regPwrMgmt1    = 0x6B
	regWhoAmI      = 0x75

	sampleBlockLen = 14
)

// MPU6050 represents an InvenSense MPU6050 on the I2C bus and satisfies the
// IMUReader interface.
type MPU6050 struct {
	bus     embd.I2CBus
	address byte
	gyro    GyroRange
	accel   AccelRange
	log     logrus.FieldLogger

	now func() time.Time
}

// NewMPU6050 wakes the MPU6050 on bus, sets its full-scale ranges and
// returns a reader for it. alternate selects address 0x69 (AD0 high).
func NewMPU6050(bus embd.I2CBus, alternate bool, gyro GyroRange, accel AccelRange, log logrus.FieldLogger) (*MPU6050, error) {
	m := &MPU6050{
		bus:     bus,
		address: mpu6050Address,
		gyro:    gyro,
		accel:   accel,
		log:     log.WithField("sensor", "mpu6050"),
		now:     time.Now,
	}
	if alternate {
		m.address = mpu6050AltAddress
	}

	// WHO_AM_I holds the default address even when AD0 selects the alternate.
	id, err := bus.ReadByteFromReg(m.address, regWhoAmI)
	if err != nil {
		return nil, errors.Wrapf(err, "mpu6050: reading WHO_AM_I at 0x%02x", m.address)
	}
	if id != mpu6050Address {
		return nil, errors.Errorf("mpu6050: unexpected device at 0x%02x: WHO_AM_I 0x%02x", m.address, id)
	}

	for _, w := range []struct {
		reg, value byte
	}{
		{regPwrMgmt1, 0}, // Clear the sleep bit.
		{regGyroConfig, gyro.Bits()},
		{regAccelConfig, accel.Bits()},
	} {
		if err := bus.WriteByteToReg(m.address, w.reg, w.value); err != nil {
			return nil, errors.Wrapf(err, "mpu6050: writing register 0x%02x", w.reg)
		}
	}

	m.log.WithFields(logrus.Fields{
		"address":  m.address,
		"gyro_dps": int(gyro),
		"accel_g":  int(accel),
	}).Info("IMU Info: MPU6050 initialized")
	return m, nil
}

// Read returns the current gyro/accel sample.
func (m *MPU6050) Read() (Sample, error) {
	buf := make([]byte, sampleBlockLen)
	if err := m.bus.ReadFromReg(m.address, regAccelXOutH, buf); err != nil {
		return Sample{}, errors.Wrap(err, "mpu6050: reading sample block")
	}
	return m.decode(buf), nil
}

// decode converts the accel (0:6), temperature (6:8) and gyro (8:14) words.
func (m *MPU6050) decode(buf []byte) Sample {
	word := func(i int) int16 {
		return int16(binary.BigEndian.Uint16(buf[i : i+2]))
	}
	s := Sample{T: m.now()}
	for i := 0; i < 3; i++ {
		s.Accel[i] = m.accel.Accel(word(2 * i))
		s.Gyro[i] = m.gyro.Rate(word(8 + 2*i))
	}
	return s
}

// Close puts the device to sleep.
func (m *MPU6050) Close() {
	if err := m.bus.WriteByteToReg(m.address, regPwrMgmt1, 1<<6); err != nil {
		m.log.WithError(err).Warn("IMU Error: couldn't put MPU6050 to sleep")
	}
}
