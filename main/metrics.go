/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	metrics.go: Prometheus collectors for the lean meter.
*/

package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the Prometheus collectors exported on /metrics.
type metrics struct {
	roll         prometheus.Gauge
	bias         prometheus.Gauge
	maxRight     prometheus.Gauge
	maxLeft      prometheus.Gauge
	cpuTemp      prometheus.Gauge
	ticks        prometheus.Counter
	sensorErrors prometheus.Counter
	filterResets prometheus.Counter
	sessions     prometheus.Counter
	tickInterval prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		roll: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lean_roll_degrees",
			Help: "Fused roll angle, positive to the right.",
		}),
		bias: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lean_gyro_bias_dps",
			Help: "Estimated roll gyro bias.",
		}),
		maxRight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lean_max_right_degrees",
			Help: "Largest right lean in the current session.",
		}),
		maxLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lean_max_left_degrees",
			Help: "Largest left lean in the current session, as a negative angle.",
		}),
		cpuTemp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpu_temp_celsius",
			Help: "Current CPU temp.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lean_ticks_total",
			Help: "Samples fed to the estimator.",
		}),
		sensorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lean_sensor_errors_total",
			Help: "Failed IMU reads.",
		}),
		filterResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lean_filter_resets_total",
			Help: "Estimators replaced after reaching a non-finite state.",
		}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lean_sessions_total",
			Help: "Finished ride sessions.",
		}),
		tickInterval: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lean_tick_interval_seconds",
			Help:    "Time between consecutive samples.",
			Buckets: prometheus.ExponentialBuckets(0.0025, 2, 8),
		}),
	}
	reg.MustRegister(
		m.roll, m.bias, m.maxRight, m.maxLeft, m.cpuTemp,
		m.ticks, m.sensorErrors, m.filterResets, m.sessions,
		m.tickInterval,
	)
	return m
}
