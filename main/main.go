/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	main.go: Lean angle meter daemon.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/kidoman/embd/host/all"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/takama/daemon"

	"github.com/b3nn0/leanangle/common"
	"github.com/b3nn0/leanangle/datalog"
)

const (
	// name of the service
	name        = "leanangle"
	description = "motorcycle lean angle meter"
)

// Service has embedded daemon
type Service struct {
	daemon.Daemon
	log *logrus.Logger
}

// Manage by daemon commands or run the daemon
func (service *Service) Manage() (string, error) {
	configPath := flag.String("config", configLocation, "Settings file")
	httpAddr := flag.String("http", "", "HTTP listen address, overrides the settings file")
	flag.Parse()

	usage := "Usage: " + name + " install | remove | start | stop | status"
	// if received any kind of command, do it
	if flag.NArg() > 0 {
		command := flag.Arg(0)
		switch command {
		case "install", "remove":
			if !common.IsRunningAsRoot() {
				return "", errors.Errorf("%s must be run as root", command)
			}
			if command == "install" {
				return service.Install("-config", *configPath)
			}
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	settings, err := loadSettings(*configPath)
	if err != nil {
		service.log.WithError(err).Warn("using default settings")
	}
	if *httpAddr != "" {
		settings.HTTPAddr = *httpAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	files := initLogging(service.log, settings.LogDir, settings.Debug, ctx.Done())
	defer files.Close()

	reg := prometheus.NewRegistry()
	m := newMetrics(reg)
	clock := newMonotonic()

	meter, err := newLeanMeter(settings, service.log, clock, m)
	if err != nil {
		return "", err
	}

	sessions, err := datalog.Open(settings.SessionDB)
	if err != nil {
		service.log.WithError(err).Error("session history disabled")
	} else {
		defer sessions.Close()
		if err := meter.attachSessions(sessions); err != nil {
			service.log.WithError(err).Error("session history disabled")
		}
	}

	if settings.AnalysisLog {
		analysis, err := openAnalysisLog(settings.LogDir, clock.Time())
		if err != nil {
			service.log.WithError(err).Warn("analysis log disabled")
		} else {
			defer analysis.Close()
			meter.analysis = analysis
			service.log.Infof("analysis log %s", analysis.Path())
		}
	}

	ui := NewUIBroadcaster()
	meter.ui = ui

	go common.CpuTempMonitor(ctx, common.ThermalZone, func(cpuTemp float32) {
		m.cpuTemp.Set(float64(cpuTemp))
	})

	mi := &managementInterface{
		meter:    meter,
		sessions: meter.sessions,
		ui:       ui,
		gatherer: reg,
		log:      service.log.WithField("component", "web"),
	}
	srv := &http.Server{Addr: settings.HTTPAddr, Handler: mi.handler()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			service.log.WithError(err).Error("http server failed")
		}
	}()
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		meter.run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Set up channel on which to send signal notifications.
	// We must use a buffered channel or risk missing the signal
	// if we're not ready to receive when the signal is sent.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	// interrupt by system signal
	for {
		killSignal := <-interrupt
		service.log.Infof("Got signal: %v", killSignal)
		switch killSignal {
		case syscall.SIGINT:
			return "Daemon was interrupted by system signal", nil
		case syscall.SIGUSR1:
			s, err := readSettings(*configPath)
			if err != nil {
				service.log.WithError(err).Error("keeping current settings")
				continue
			}
			meter.Reload(s)
		default:
			return "Daemon was killed", nil
		}
	}
}

func main() {
	logger := logrus.New()
	srv, err := daemon.New(name, description, daemon.SystemDaemon)
	if err != nil {
		logger.WithError(err).Error("Error")
		os.Exit(1)
	}
	service := &Service{Daemon: srv, log: logger}
	status, err := service.Manage()
	if err != nil {
		logger.WithError(err).Error(status)
		os.Exit(1)
	}
	fmt.Println(status)
}
