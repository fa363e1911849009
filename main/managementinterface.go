/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	managementinterface.go: HTTP status, session history, metrics and the
	live lean websocket.
*/

package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"

	"github.com/b3nn0/leanangle/datalog"
)

const defaultSessionCount = 20

type managementInterface struct {
	meter    *leanMeter
	sessions *datalog.Log // optional
	ui       *uibroadcaster
	gatherer prometheus.Gatherer
	log      logrus.FieldLogger
}

func setNoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

func setJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	setNoCache(w)
}

func (mi *managementInterface) writeJSON(w http.ResponseWriter, v interface{}) {
	setJSONHeaders(w)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		mi.log.WithError(err).Debug("Web Info: client write failed")
	}
}

// AJAX call - /getLean. Responds with the current lean status.
func (mi *managementInterface) handleLeanRequest(w http.ResponseWriter, r *http.Request) {
	mi.writeJSON(w, mi.meter.Status())
}

// AJAX call - /getSessions. Responds with the most recent sessions; ?n=
// sets the count.
func (mi *managementInterface) handleSessionsRequest(w http.ResponseWriter, r *http.Request) {
	n := defaultSessionCount
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = v
	}
	if mi.sessions == nil {
		mi.writeJSON(w, []datalog.Record{})
		return
	}
	recs, err := mi.sessions.Recent(n)
	if err != nil {
		mi.log.WithError(err).Error("Web Error: reading sessions")
		http.Error(w, "can't read sessions", http.StatusInternalServerError)
		return
	}
	mi.writeJSON(w, recs)
}

func (mi *managementInterface) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/getLean", mi.handleLeanRequest)
	mux.HandleFunc("/getSessions", mi.handleSessionsRequest)
	mux.Handle("/metrics", promhttp.HandlerFor(mi.gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/lean", websocket.Server{Handler: mi.ui.Handler()})
	return mux
}
