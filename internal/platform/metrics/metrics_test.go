package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_counters(t *testing.T) {
	m := New()

	m.IncTicks()
	m.IncTicks()
	m.IncEmissions("left_arm_joint1")
	m.IncEmissions("left_arm_joint1")
	m.IncEmissions("torso_joint1")
	m.IncLoopRestarts()
	m.AddCellParseWarnings(3)
	m.IncTransportErrors()
	m.SetFramesLoaded(120)
	m.SetCursor(7)
	m.SetState(2)

	if got := testutil.ToFloat64(m.ticksTotal); got != 2 {
		t.Errorf("ticks = %v", got)
	}
	if got := testutil.ToFloat64(m.emissionsTotal.WithLabelValues("left_arm_joint1")); got != 2 {
		t.Errorf("left_arm_joint1 emissions = %v", got)
	}
	if got := testutil.ToFloat64(m.cellParseWarningsTotal); got != 3 {
		t.Errorf("cell warnings = %v", got)
	}
	if got := testutil.ToFloat64(m.framesLoaded); got != 120 {
		t.Errorf("frames loaded = %v", got)
	}
	if got := testutil.ToFloat64(m.state); got != 2 {
		t.Errorf("state = %v", got)
	}
	if n := testutil.CollectAndCount(m.emissionsTotal); n != 2 {
		t.Errorf("expected 2 channel series, got %d", n)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.IncLoopRestarts()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "replay_loop_restarts_total 1") {
		t.Errorf("expected loop restart counter in exposition:\n%s", body)
	}
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if got := testutil.ToFloat64(m.requestsTotal); got != 2 {
		t.Errorf("requests = %v", got)
	}
	if got := testutil.ToFloat64(m.errorsTotal); got != 1 {
		t.Errorf("errors = %v", got)
	}
}

func TestRequestMiddleware_nil_metrics(t *testing.T) {
	called := false
	h := RequestMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("nil metrics should pass requests through")
	}
}
