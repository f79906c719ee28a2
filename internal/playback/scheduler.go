package playback

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"motion-replay/internal/platform/metrics"
)

// State is the scheduler lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Ticker is the periodic tick source driving playback.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every period.
type TickerFunc func(period time.Duration) Ticker

type wallTicker struct {
	t *time.Ticker
}

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

// NewWallTicker is the default TickerFunc, backed by time.Ticker.
func NewWallTicker(period time.Duration) Ticker {
	return wallTicker{t: time.NewTicker(period)}
}

// SchedulerConfig holds the static playback settings.
type SchedulerConfig struct {
	FrequencyHz float64
	Loop        bool
}

// Period returns the tick period for the configured frequency, clamped to
// the range of time.Duration.
func (c SchedulerConfig) Period() time.Duration {
	p := float64(time.Second) / c.FrequencyHz
	switch {
	case p >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	case p < 1:
		return time.Nanosecond
	}
	return time.Duration(p)
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithTicker replaces the wall-clock tick source.
func WithTicker(fn TickerFunc) Option {
	return func(s *Scheduler) {
		s.newTicker = fn
	}
}

// Snapshot is a point-in-time view of playback progress.
type Snapshot struct {
	State       string  `json:"state"`
	Cursor      int     `json:"cursor"`
	Frames      int     `json:"frames"`
	Passes      uint64  `json:"passes"`
	Loop        bool    `json:"loop"`
	FrequencyHz float64 `json:"frequency_hz"`
	Channels    int     `json:"channels"`
}

// Scheduler replays a Recording to a SinkTable, one frame per tick.
//
// The cursor is owned by the tick handler and has no other writer. Ticks run
// one at a time: Run handles a tick to completion before it reads the next
// one from the ticker.
type Scheduler struct {
	rec       *Recording
	sinks     SinkTable
	cfg       SchedulerConfig
	log       *slog.Logger
	metrics   *metrics.Metrics
	newTicker TickerFunc

	cursor int

	state      atomic.Int32
	cursorView atomic.Int64
	passes     atomic.Uint64
}

// NewScheduler returns an idle Scheduler. Metrics may be nil.
func NewScheduler(rec *Recording, sinks SinkTable, cfg SchedulerConfig, log *slog.Logger, m *metrics.Metrics, opts ...Option) (*Scheduler, error) {
	if cfg.FrequencyHz <= 0 || math.IsInf(cfg.FrequencyHz, 0) || math.IsNaN(cfg.FrequencyHz) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrequency, cfg.FrequencyHz)
	}
	if rec == nil {
		rec = &Recording{}
	}
	s := &Scheduler{
		rec:       rec,
		sinks:     sinks,
		cfg:       cfg,
		log:       log,
		metrics:   m,
		newTicker: NewWallTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start moves the scheduler from idle to running. An empty recording never
// starts: ErrEmptyRecording is returned and the scheduler stays idle.
func (s *Scheduler) Start() error {
	if s.rec.Len() == 0 {
		s.log.Error("recording is empty, playback not started", slog.String("source", s.rec.Source))
		return ErrEmptyRecording
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	s.observeState(StateRunning)
	s.log.Info("playback started",
		slog.Float64("frequency_hz", s.cfg.FrequencyHz),
		slog.Int("frames", s.rec.Len()),
		slog.Int("channels", s.sinks.Len()),
		slog.Bool("loop", s.cfg.Loop))
	return nil
}

// Tick handles one tick and returns the resulting state. It is a no-op
// unless the scheduler is running.
//
// While frames remain, the frame at the cursor is emitted and the cursor
// advances. At the end of the recording the scheduler either rewinds and
// emits the first frame again (loop) or halts without emitting.
func (s *Scheduler) Tick() State {
	if s.State() != StateRunning {
		return s.State()
	}
	if s.metrics != nil {
		s.metrics.IncTicks()
	}

	if s.cursor >= s.rec.Len() {
		if !s.cfg.Loop {
			s.state.Store(int32(StateHalted))
			s.observeState(StateHalted)
			s.log.Info("playback complete", slog.Int("frames", s.rec.Len()))
			return StateHalted
		}
		s.cursor = 0
		pass := s.passes.Add(1)
		if s.metrics != nil {
			s.metrics.IncLoopRestarts()
		}
		s.log.Info("restarting playback", slog.Uint64("pass", pass+1))
	}

	s.emit(s.rec.Frames[s.cursor])
	s.cursor++
	s.cursorView.Store(int64(s.cursor))
	if s.metrics != nil {
		s.metrics.SetCursor(s.cursor)
	}
	return StateRunning
}

// Run starts playback and ticks at the configured frequency until the
// scheduler halts or ctx is cancelled. The ticker is stopped on return.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	t := s.newTicker(s.cfg.Period())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("playback stopped", slog.Int("cursor", s.cursor))
			return nil
		case <-t.C():
			if s.Tick() == StateHalted {
				return nil
			}
		}
	}
}

// State returns the current lifecycle state. Safe for concurrent use.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Snapshot returns playback progress. Safe for concurrent use.
func (s *Scheduler) Snapshot() Snapshot {
	return Snapshot{
		State:       s.State().String(),
		Cursor:      int(s.cursorView.Load()),
		Frames:      s.rec.Len(),
		Passes:      s.passes.Load(),
		Loop:        s.cfg.Loop,
		FrequencyHz: s.cfg.FrequencyHz,
		Channels:    s.sinks.Len(),
	}
}

func (s *Scheduler) emit(f Frame) {
	for _, smp := range f.samples {
		sink, ok := s.sinks.Lookup(smp.Channel)
		if !ok {
			continue
		}
		sink.Emit(smp.Value)
		if s.metrics != nil {
			s.metrics.IncEmissions(string(smp.Channel))
		}
	}
}

func (s *Scheduler) observeState(st State) {
	if s.metrics != nil {
		s.metrics.SetState(int(st))
	}
}
