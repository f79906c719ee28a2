package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for motion replay.
type Metrics struct {
	registry               *prometheus.Registry
	ticksTotal             prometheus.Counter
	emissionsTotal         *prometheus.CounterVec
	loopRestartsTotal      prometheus.Counter
	cellParseWarningsTotal prometheus.Counter
	transportErrorsTotal   prometheus.Counter
	framesLoaded           prometheus.Gauge
	cursor                 prometheus.Gauge
	state                  prometheus.Gauge
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
}

// New creates and registers Prometheus metrics for playback.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	ticksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_ticks_total",
		Help: "Total number of scheduler ticks handled while running",
	})
	emissionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replay_emissions_total",
		Help: "Total number of values emitted, by channel",
	}, []string{"channel"})
	loopRestartsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_loop_restarts_total",
		Help: "Total number of times playback rewound to the first frame",
	})
	cellParseWarningsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_cell_parse_warnings_total",
		Help: "Total number of recognized cells dropped because they were not numeric",
	})
	transportErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_transport_errors_total",
		Help: "Total number of publishes the transport failed to deliver",
	})
	framesLoaded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "replay_frames_loaded",
		Help: "Number of frames in the loaded recording",
	})
	cursor := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "replay_cursor",
		Help: "Index of the next frame to emit",
	})
	state := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "replay_state",
		Help: "Scheduler state: 0 idle, 1 running, 2 halted",
	})
	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_http_requests_total",
		Help: "Total number of status HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_http_errors_total",
		Help: "Total number of status HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		ticksTotal,
		emissionsTotal,
		loopRestartsTotal,
		cellParseWarningsTotal,
		transportErrorsTotal,
		framesLoaded,
		cursor,
		state,
		requestsTotal,
		errorsTotal,
	)

	return &Metrics{
		registry:               registry,
		ticksTotal:             ticksTotal,
		emissionsTotal:         emissionsTotal,
		loopRestartsTotal:      loopRestartsTotal,
		cellParseWarningsTotal: cellParseWarningsTotal,
		transportErrorsTotal:   transportErrorsTotal,
		framesLoaded:           framesLoaded,
		cursor:                 cursor,
		state:                  state,
		requestsTotal:          requestsTotal,
		errorsTotal:            errorsTotal,
	}
}

// IncTicks increments the tick counter.
func (m *Metrics) IncTicks() {
	m.ticksTotal.Inc()
}

// IncEmissions increments the emission counter for channel.
func (m *Metrics) IncEmissions(channel string) {
	m.emissionsTotal.WithLabelValues(channel).Inc()
}

// IncLoopRestarts increments the loop restart counter.
func (m *Metrics) IncLoopRestarts() {
	m.loopRestartsTotal.Inc()
}

// AddCellParseWarnings adds n dropped cells.
func (m *Metrics) AddCellParseWarnings(n int) {
	m.cellParseWarningsTotal.Add(float64(n))
}

// IncTransportErrors increments the transport error counter.
func (m *Metrics) IncTransportErrors() {
	m.transportErrorsTotal.Inc()
}

// SetFramesLoaded sets the loaded frames gauge.
func (m *Metrics) SetFramesLoaded(n int) {
	m.framesLoaded.Set(float64(n))
}

// SetCursor sets the cursor gauge.
func (m *Metrics) SetCursor(n int) {
	m.cursor.Set(float64(n))
}

// SetState sets the scheduler state gauge.
func (m *Metrics) SetState(s int) {
	m.state.Set(float64(s))
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
