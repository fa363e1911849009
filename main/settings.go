/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	settings.go: Lean meter settings file.
*/

package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/b3nn0/leanangle/kalman"
	"github.com/b3nn0/leanangle/sensors"
	"github.com/b3nn0/leanangle/session"
)

const (
	configLocation = "/etc/leanangle.conf"

	imuMPU6050  = "mpu6050"
	imuICM20948 = "icm20948"
)

// Settings is the persistent daemon configuration.
type Settings struct {
	IMU            string        `json:"imu"`
	I2CBus         byte          `json:"i2c_bus"`
	AltAddress     bool          `json:"alt_address"`
	GyroRange      int           `json:"gyro_range_dps"`
	AccelRange     int           `json:"accel_range_g"`
	SamplePeriodMS int           `json:"sample_period_ms"`
	Filter         kalman.Params `json:"filter"`
	ResetAfterMS   int           `json:"reset_after_ms"`
	AnalysisLog    bool          `json:"analysis_log"`
	LogDir         string        `json:"log_dir"`
	SessionDB      string        `json:"session_db"`
	HTTPAddr       string        `json:"http_addr"`
	Debug          bool          `json:"debug"`
}

func defaultSettings() Settings {
	return Settings{
		IMU:            imuMPU6050,
		I2CBus:         1,
		GyroRange:      int(sensors.Gyro250),
		AccelRange:     int(sensors.Accel2G),
		SamplePeriodMS: 10,
		Filter:         kalman.DefaultParams(),
		ResetAfterMS:   int(session.DefaultResetAfter / time.Millisecond),
		LogDir:         "/var/log/leanangle",
		SessionDB:      "/var/lib/leanangle/sessions.db",
		HTTPAddr:       ":9978",
	}
}

// SamplePeriod returns the tick interval.
func (s Settings) SamplePeriod() time.Duration {
	return time.Duration(s.SamplePeriodMS) * time.Millisecond
}

// ResetAfter returns the upright time that clears the session maxima.
func (s Settings) ResetAfter() time.Duration {
	return time.Duration(s.ResetAfterMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (s Settings) Validate() error {
	if s.IMU != imuMPU6050 && s.IMU != imuICM20948 {
		return errors.Errorf("settings: unknown imu %q", s.IMU)
	}
	if _, err := sensors.ParseGyroRange(s.GyroRange); err != nil {
		return errors.Wrap(err, "settings")
	}
	if _, err := sensors.ParseAccelRange(s.AccelRange); err != nil {
		return errors.Wrap(err, "settings")
	}
	if s.SamplePeriodMS <= 0 {
		return errors.Errorf("settings: sample_period_ms must be > 0, got %d", s.SamplePeriodMS)
	}
	if s.ResetAfterMS <= 0 {
		return errors.Errorf("settings: reset_after_ms must be > 0, got %d", s.ResetAfterMS)
	}
	return errors.Wrap(s.Filter.Validate(), "settings: filter")
}

// readSettings loads path over the defaults. A missing file is not an
// error; the defaults are returned.
func readSettings(path string) (Settings, error) {
	s := defaultSettings()
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, errors.Wrapf(err, "can't read settings %s", path)
	}
	if err := json.Unmarshal(buf, &s); err != nil {
		return defaultSettings(), errors.Wrapf(err, "can't parse settings %s", path)
	}
	if err := s.Validate(); err != nil {
		return defaultSettings(), err
	}
	return s, nil
}

func saveSettings(path string, s Settings) error {
	buf, err := json.MarshalIndent(&s, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, buf, 0644), "can't save settings %s", path)
}

// loadSettings reads path and, when the file doesn't exist yet, writes the
// defaults there so they can be edited.
func loadSettings(path string) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s := defaultSettings()
		return s, saveSettings(path, s)
	}
	return readSettings(path)
}
