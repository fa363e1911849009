package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/b3nn0/leanangle/datalog"
	"github.com/b3nn0/leanangle/sensors"
	"github.com/b3nn0/leanangle/session"
)

func newTestInterface(t *testing.T, sessions *datalog.Log) (*managementInterface, *fakeIMU) {
	t.Helper()
	imu := &fakeIMU{samples: leanSamples(t0, 10, 20)}
	clock := &testClock{cur: t0}
	reg := prometheus.NewRegistry()
	lm, err := newLeanMeter(defaultSettings(), quietLogger(), clock.monotonic(), newMetrics(reg))
	require.NoError(t, err)
	lm.openIMU = func(Settings, logrus.FieldLogger) (sensors.IMUReader, error) { return imu, nil }
	return &managementInterface{
		meter:    lm,
		sessions: sessions,
		ui:       NewUIBroadcaster(),
		gatherer: reg,
		log:      quietLogger(),
	}, imu
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleLeanRequest(t *testing.T) {
	mi, _ := newTestInterface(t, nil)
	for i := 0; i < 10; i++ {
		mi.meter.step()
	}

	rec := get(t, mi.handler(), "/getLean")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var st LeanStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.IMUConnected)
	assert.Equal(t, uint64(10), st.Ticks)
	assert.Equal(t, mi.meter.Status().Roll, st.Roll)
	assert.Equal(t, "never", st.LastReset)
}

func TestHandleSessionsRequest(t *testing.T) {
	db, err := datalog.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	for i := 0; i < 3; i++ {
		start := t0.Add(time.Duration(i) * time.Minute)
		_, err := db.Insert(session.Session{Start: start, End: start.Add(30 * time.Second), MaxRight: float64(10 + i), MaxLeft: -5})
		require.NoError(t, err)
	}
	mi, _ := newTestInterface(t, db)
	h := mi.handler()

	rec := get(t, h, "/getSessions")
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []datalog.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 3)
	assert.Equal(t, 12.0, recs[0].MaxRight)

	rec = get(t, h, "/getSessions?n=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	assert.Len(t, recs, 2)

	for _, q := range []string{"abc", "0", "-3"} {
		rec = get(t, h, "/getSessions?n="+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestHandleSessionsRequestWithoutStore(t *testing.T) {
	mi, _ := newTestInterface(t, nil)
	rec := get(t, mi.handler(), "/getSessions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	mi, _ := newTestInterface(t, nil)
	mi.meter.step()

	rec := get(t, mi.handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lean_ticks_total 1")
	assert.Contains(t, rec.Body.String(), "lean_tick_interval_seconds_bucket")
}

func TestLeanWebsocket(t *testing.T) {
	mi, _ := newTestInterface(t, nil)
	mi.meter.ui = mi.ui
	srv := httptest.NewServer(mi.handler())
	defer srv.Close()

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/lean", "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return mi.ui.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	mi.meter.step()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var st LeanStatus
	require.NoError(t, websocket.JSON.Receive(conn, &st))
	assert.Equal(t, uint64(1), st.Ticks)
	assert.True(t, st.IMUConnected)

	conn.Close()
	require.Eventually(t, func() bool { return mi.ui.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestUIBroadcasterSendNeverBlocks(t *testing.T) {
	u := &uibroadcaster{messages: make(chan []byte, 1)}
	u.Send([]byte("a"))
	u.Send([]byte("b"))
	assert.Equal(t, []byte("a"), <-u.messages)
	assert.Empty(t, u.messages)
}

func TestUIBroadcasterRemoveSocket(t *testing.T) {
	u := NewUIBroadcaster()
	a, b := &websocket.Conn{}, &websocket.Conn{}
	u.AddSocket(a)
	u.AddSocket(b)
	u.RemoveSocket(a)
	assert.Equal(t, 1, u.Len())
	u.RemoveSocket(a)
	assert.Equal(t, 1, u.Len())
}
