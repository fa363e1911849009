/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	sensors.go: IMU polling, lean estimation and status publishing.
*/

package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kidoman/embd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/b3nn0/leanangle/datalog"
	"github.com/b3nn0/leanangle/kalman"
	"github.com/b3nn0/leanangle/sensors"
	"github.com/b3nn0/leanangle/session"
)

const (
	numRetries        uint8 = 5
	reconnectInterval       = 4 * time.Second
)

// LeanStatus is the snapshot served on /getLean and pushed to /lean.
type LeanStatus struct {
	Roll         float64         `json:"roll"`
	Pitch        float64         `json:"pitch"`
	AccelRoll    float64         `json:"accel_roll"`
	Rate         float64         `json:"rate"`
	Bias         float64         `json:"bias"`
	P00          float64         `json:"p00"`
	MaxRight     float64         `json:"max_right"`
	MaxLeft      float64         `json:"max_left"`
	Readout      session.Readout `json:"readout"`
	Display      string          `json:"display"`
	Ticks        uint64          `json:"ticks"`
	FilterResets uint64          `json:"filter_resets"`
	IMUConnected bool            `json:"imu_connected"`
	LastTick     time.Time       `json:"last_tick"`
	LastReset    string          `json:"last_reset"`
	Uptime       float64         `json:"uptime_s"`
	Sessions     int             `json:"stored_sessions"`

	lastReset time.Time
}

type imuOpener func(s Settings, log logrus.FieldLogger) (sensors.IMUReader, error)

// leanMeter owns the IMU and the estimator. Everything but Status and
// Reload runs on the loop goroutine.
type leanMeter struct {
	settings Settings
	log      logrus.FieldLogger
	clock    *monotonic
	openIMU  imuOpener
	metrics  *metrics
	sessions *datalog.Log   // optional
	ui       *uibroadcaster // optional
	analysis *analysisLog   // optional

	imu         sensors.IMUReader
	est         *kalman.Estimator
	tracker     *session.Tracker
	lastT       time.Time
	lastAttempt time.Time
	failnum     uint8
	reload      chan Settings

	mu     sync.Mutex
	status LeanStatus
}

func newLeanMeter(s Settings, log logrus.FieldLogger, clock *monotonic, m *metrics) (*leanMeter, error) {
	est, err := kalman.New(s.Filter)
	if err != nil {
		return nil, err
	}
	return &leanMeter{
		settings: s,
		log:      log.WithField("component", "imu"),
		clock:    clock,
		openIMU:  openIMU,
		metrics:  m,
		est:      est,
		tracker:  session.NewTracker(s.ResetAfter()),
		reload:   make(chan Settings, 1),
	}, nil
}

// busIMU closes the I2C bus together with the reader.
type busIMU struct {
	sensors.IMUReader
	bus embd.I2CBus
}

func (b busIMU) Close() {
	b.IMUReader.Close()
	b.bus.Close()
}

func openIMU(s Settings, log logrus.FieldLogger) (sensors.IMUReader, error) {
	gyro, err := sensors.ParseGyroRange(s.GyroRange)
	if err != nil {
		return nil, err
	}
	accel, err := sensors.ParseAccelRange(s.AccelRange)
	if err != nil {
		return nil, err
	}

	bus := embd.NewI2CBus(s.I2CBus)
	var imu sensors.IMUReader
	switch s.IMU {
	case imuICM20948:
		imu, err = sensors.NewICM20948(&bus, gyro, accel)
	default:
		imu, err = sensors.NewMPU6050(bus, s.AltAddress, gyro, accel, log)
	}
	if err != nil {
		bus.Close()
		return nil, errors.Wrapf(err, "can't open %s on i2c bus %d", s.IMU, s.I2CBus)
	}
	return busIMU{IMUReader: imu, bus: bus}, nil
}

func (lm *leanMeter) connect() bool {
	lm.log.Infof("IMU Info: attempting to connect to %s", lm.settings.IMU)
	imu, err := lm.openIMU(lm.settings, lm.log)
	if err != nil {
		lm.log.WithError(err).Warn("IMU Error: couldn't initialize IMU")
		return false
	}
	lm.imu = imu
	lm.failnum = 0
	lm.lastT = time.Time{}
	lm.setConnected(true)
	lm.log.Infof("IMU Info: successfully connected %s", lm.settings.IMU)
	return true
}

func (lm *leanMeter) disconnect() {
	if lm.imu == nil {
		return
	}
	lm.imu.Close()
	lm.imu = nil
	lm.setConnected(false)
}

func (lm *leanMeter) setConnected(ok bool) {
	lm.mu.Lock()
	lm.status.IMUConnected = ok
	lm.mu.Unlock()
}

// step connects when needed, at most every reconnectInterval, and
// processes one sample.
func (lm *leanMeter) step() {
	if lm.imu == nil {
		if !lm.lastAttempt.IsZero() && lm.clock.Since(lm.lastAttempt) < reconnectInterval {
			return
		}
		lm.lastAttempt = lm.clock.Time()
		if !lm.connect() {
			return
		}
	}
	lm.tick()
}

func (lm *leanMeter) tick() {
	s, err := lm.imu.Read()
	if err != nil {
		lm.metrics.sensorErrors.Inc()
		lm.failnum++
		lm.log.WithError(err).Warn("IMU Error: couldn't read IMU")
		if lm.failnum > numRetries {
			lm.log.Errorf("IMU Error: couldn't read IMU %d times, closing", lm.failnum)
			lm.disconnect() // Try reconnecting a little later.
		}
		return
	}
	lm.failnum = 0

	t := s.T
	if t.IsZero() {
		t = lm.clock.Time()
	}
	var dt float64
	if !lm.lastT.IsZero() {
		dt = t.Sub(lm.lastT).Seconds()
		lm.metrics.tickInterval.Observe(dt)
	}
	lm.lastT = t

	accelRoll, rate := s.Roll(), s.RollRate()
	roll := lm.est.Update(accelRoll, rate, dt)
	if !lm.est.Finite() {
		lm.log.WithFields(logrus.Fields{
			"accel_roll": accelRoll,
			"rate":       rate,
			"dt":         dt,
		}).Warn("IMU Error: estimator diverged, restarting it")
		lm.est, _ = kalman.New(lm.settings.Filter)
		lm.metrics.filterResets.Inc()
		lm.mu.Lock()
		lm.status.FilterResets++
		lm.mu.Unlock()
		return
	}
	lm.metrics.ticks.Inc()

	readout, finished := lm.tracker.Update(roll, t)
	if finished != nil {
		lm.recordSession(*finished)
	}

	p := lm.est.Covariance()
	lm.metrics.roll.Set(roll)
	lm.metrics.bias.Set(lm.est.Bias())
	lm.metrics.maxRight.Set(lm.tracker.MaxRight())
	lm.metrics.maxLeft.Set(lm.tracker.MaxLeft())

	lm.mu.Lock()
	lm.status.Roll = roll
	lm.status.Pitch = s.Pitch()
	lm.status.AccelRoll = accelRoll
	lm.status.Rate = lm.est.Rate()
	lm.status.Bias = lm.est.Bias()
	lm.status.P00 = p.P00
	lm.status.MaxRight = lm.tracker.MaxRight()
	lm.status.MaxLeft = lm.tracker.MaxLeft()
	lm.status.Readout = readout
	lm.status.Display = readout.String()
	lm.status.Ticks++
	lm.status.LastTick = t
	lm.status.lastReset = lm.tracker.LastReset()
	lm.mu.Unlock()

	if lm.ui != nil {
		if msg, err := json.Marshal(lm.Status()); err == nil {
			lm.ui.Send(msg)
		}
	}
	if lm.analysis != nil {
		lm.analysis.Write(analysisRow{
			T:         t,
			DT:        dt,
			AccelRoll: accelRoll,
			Rate:      rate,
			Roll:      roll,
			Bias:      lm.est.Bias(),
			P00:       p.P00,
		})
		if err := lm.analysis.Err(); err != nil {
			lm.log.WithError(err).Error("IMU Error: analysis log stopped")
			lm.analysis = nil
		}
	}
}

func (lm *leanMeter) recordSession(s session.Session) {
	lm.metrics.sessions.Inc()
	log := lm.log.WithFields(logrus.Fields{
		"max_right": s.MaxRight,
		"max_left":  s.MaxLeft,
		"duration":  s.Duration().String(),
	})
	log.Info("IMU Info: session finished")
	if lm.sessions == nil {
		return
	}
	if _, err := lm.sessions.Insert(s); err != nil {
		log.WithError(err).Error("IMU Error: couldn't store session")
		return
	}
	lm.mu.Lock()
	lm.status.Sessions++
	lm.mu.Unlock()
}

// attachSessions stores finished sessions in db from now on.
func (lm *leanMeter) attachSessions(db *datalog.Log) error {
	n, err := db.Count()
	if err != nil {
		return err
	}
	lm.sessions = db
	lm.mu.Lock()
	lm.status.Sessions = n
	lm.mu.Unlock()
	return nil
}

// apply swaps in new settings. The estimator and tracker restart; the IMU
// is reopened when its wiring or ranges changed.
func (lm *leanMeter) apply(s Settings) {
	est, err := kalman.New(s.Filter)
	if err != nil {
		lm.log.WithError(err).Error("IMU Error: rejecting new settings")
		return
	}
	old := lm.settings
	lm.settings = s
	lm.est = est
	lm.tracker = session.NewTracker(s.ResetAfter())
	if old.IMU != s.IMU || old.I2CBus != s.I2CBus || old.AltAddress != s.AltAddress ||
		old.GyroRange != s.GyroRange || old.AccelRange != s.AccelRange {
		lm.disconnect()
		lm.lastAttempt = time.Time{}
	}
	lm.log.Info("IMU Info: settings applied")
}

// Reload queues s for the loop. A pending reload is replaced.
func (lm *leanMeter) Reload(s Settings) {
	for {
		select {
		case lm.reload <- s:
			return
		default:
		}
		select {
		case <-lm.reload:
		default:
		}
	}
}

// Status returns a copy of the latest status.
func (lm *leanMeter) Status() LeanStatus {
	lm.mu.Lock()
	st := lm.status
	lm.mu.Unlock()
	st.LastReset = lm.clock.HumanizeTime(st.lastReset)
	st.Uptime = lm.clock.Uptime().Seconds()
	return st
}

func (lm *leanMeter) run(ctx context.Context) {
	timer := time.NewTicker(lm.settings.SamplePeriod())
	defer timer.Stop()
	defer lm.disconnect()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-lm.reload:
			lm.apply(s)
			timer.Reset(lm.settings.SamplePeriod())
		case <-timer.C:
			lm.step()
		}
	}
}
