// Package refresh drives the poll-and-render cycle of the detection status
// display: cache-bust the image slot, fetch the status endpoint, render the
// snapshot, then re-arm a fixed delay. A failed poll leaves the text slots
// stale and the loop keeps going.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/metrics"
)

// DefaultInterval is the delay between the end of one cycle and the start
// of the next.
const DefaultInterval = 500 * time.Millisecond

// ErrAlreadyStarted is returned by a second Start on the same Loop.
var ErrAlreadyStarted = errors.New("refresh: loop already started")

// State of the loop.
type State int

const (
	Idle    State = iota // between cycles, timer armed
	Polling              // cycle in progress
)

func (s State) String() string {
	if s == Polling {
		return "Polling"
	}
	return "Idle"
}

// Result is the typed outcome of one cycle. Exactly one of Snapshot and Err
// is set.
type Result struct {
	Snapshot *Snapshot
	Err      *PollFailure
	Token    int64 // freshness token written to the image slot
	Duration time.Duration
}

// OK reports whether the cycle rendered a snapshot.
func (r Result) OK() bool { return r.Err == nil }

// Loop is the refresh loop. Create with New.
type Loop struct {
	fetcher  Fetcher
	sched    Scheduler
	now      func() time.Time
	interval time.Duration
	format   DateFormat
	log      *logger.ModuleLogger
	metrics  *metrics.Metrics
	observer func(Result)

	mu        sync.Mutex
	state     State
	started   bool
	timer     Timer
	lastToken int64
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithScheduler replaces the runtime timer.
func WithScheduler(s Scheduler) Option {
	return func(l *Loop) { l.sched = s }
}

// WithClock replaces time.Now for freshness tokens and durations.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// WithDateFormat sets how the timestamp slot is rendered.
func WithDateFormat(f DateFormat) Option {
	return func(l *Loop) { l.format = f.withDefaults() }
}

// WithLogger sets the logger; poll failures go to DEBUG.
func WithLogger(m *logger.ModuleLogger) Option {
	return func(l *Loop) { l.log = m }
}

// WithMetrics records cycle outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// WithObserver receives every cycle Result after rendering.
func WithObserver(fn func(Result)) Option {
	return func(l *Loop) { l.observer = fn }
}

// New creates a Loop polling through fetcher.
func New(fetcher Fetcher, opts ...Option) *Loop {
	l := &Loop{
		fetcher:  fetcher,
		sched:    TimeScheduler{},
		now:      time.Now,
		interval: DefaultInterval,
		format:   DateFormat{}.withDefaults(),
		log:      logger.For("Refresh"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval returns the configured delay between cycles.
func (l *Loop) Interval() time.Duration { return l.interval }

// State returns the current loop state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start runs the first cycle immediately and keeps cycling until ctx is
// cancelled. Cancelling abandons the in-flight fetch and any pending timer.
func (l *Loop) Start(ctx context.Context, surface DisplaySurface) error {
	if surface == nil {
		return errors.New("refresh: nil display surface")
	}

	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.started = true
	l.state = Polling
	l.mu.Unlock()

	context.AfterFunc(ctx, l.stopTimer)

	l.log.Infof("Polling every %s (image %s)", l.interval, ImageBase(surface.ImageSource()))
	go l.run(ctx, surface)
	return nil
}

func (l *Loop) run(ctx context.Context, surface DisplaySurface) {
	if ctx.Err() != nil {
		return
	}

	l.mu.Lock()
	l.state = Polling
	l.mu.Unlock()

	l.RunCycle(ctx, surface)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = Idle
	if ctx.Err() != nil {
		return
	}
	l.timer = l.sched.AfterFunc(l.interval, func() { l.run(ctx, surface) })
}

func (l *Loop) stopTimer() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
	}
	l.log.Debugf("Loop stopped")
}

// RunCycle performs one cache-bust, fetch, render pass and returns its
// outcome. It does not schedule anything.
func (l *Loop) RunCycle(ctx context.Context, surface DisplaySurface) Result {
	start := l.now()

	token := l.nextToken(start)
	surface.SetImageSource(BustCache(surface.ImageSource(), token))

	res := Result{Token: token}
	snap, err := l.fetcher.Fetch(ctx)
	if err == nil && ctx.Err() != nil {
		// torn down while the fetch resolved
		err = ctx.Err()
	}
	if err != nil {
		res.Err = asPollFailure(err)
	} else {
		render(surface, snap.Render(l.format))
		res.Snapshot = &snap
	}
	res.Duration = l.now().Sub(start)

	l.report(res)
	return res
}

func render(surface DisplaySurface, f Fields) {
	surface.SetDate(f.Date)
	surface.SetEntityCount(f.EntityCount)
	surface.SetCaptureLatency(f.CaptureLatency)
	surface.SetInferenceLatency(f.InferenceLatency)
}

// nextToken derives the image version from the clock, bumping it when the
// clock has not advanced so consecutive cycles never share a token.
func (l *Loop) nextToken(t time.Time) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	token := t.UnixMilli()
	if token <= l.lastToken {
		token = l.lastToken + 1
	}
	l.lastToken = token
	return token
}

func (l *Loop) report(res Result) {
	reason := ""
	if res.Err != nil {
		reason = string(res.Err.Reason)
		l.log.Debugf("Keeping previous values: %v", res.Err)
	}
	if l.metrics != nil {
		l.metrics.ObserveCycle(res.Duration, reason)
	}
	if l.observer != nil {
		l.observer(res)
	}
}
