package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/tripshift/core/metrics"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordRun(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer func() { _ = sink.Close() }()

	now := time.Now()
	ev := coremetrics.RunEvent{RunID: "r1", Cars: 5, Input: 10, Assigned: 8, Dropped: 1, Filtered: 1,
		Elapsed: 1500 * time.Microsecond, Time: now}
	if err := sink.RecordRun(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("assignment_run").
		AddTag("run_id", "r1").
		AddTag("component", "assign_engine").
		AddField("cars", 5).
		AddField("input", 10).
		AddField("assigned", 8).
		AddField("dropped", 1).
		AddField("filtered", 1).
		AddField("opened", 0).
		AddField("elapsed_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestInfluxSink_RecordUtilization(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer func() { _ = sink.Close() }()

	now := time.Now()
	samples := []coremetrics.UtilizationSample{
		{RunID: "r1", CarID: "6", Phase: coremetrics.PhaseAfter, Ratio: 0.25, Occupied: 6 * time.Hour, Trips: 3, Time: now},
		{RunID: "r1", Phase: coremetrics.PhaseAfter, Ratio: 0.5, Occupied: 12 * time.Hour, Trips: 6, Time: now},
	}
	if err := sink.RecordUtilization(samples); err != nil {
		t.Fatalf("record error: %v", err)
	}
	got := bodies()
	if len(got) != 2 {
		t.Fatalf("expected 2 writes got %d", len(got))
	}
	if !strings.Contains(got[0], "car_id=6") || !strings.Contains(got[1], "car_id=fleet") {
		t.Errorf("unexpected bodies: %#v", got)
	}
	if !strings.Contains(got[0], "ratio=0.25") {
		t.Errorf("ratio missing in %s", got[0])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
