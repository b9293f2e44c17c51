package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const samplePayload = `{"detect":{"date":1700000000,"entities":[{},{}],"cam-time":12,"inf-time":34}}`

// manualScheduler records every AfterFunc and fires only on demand.
type manualScheduler struct {
	armed chan *manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped atomic.Bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{armed: make(chan *manualTimer, 64)}
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{d: d, f: f}
	s.armed <- t
	return t
}

func (t *manualTimer) Stop() bool {
	return !t.stopped.Swap(true)
}

func (t *manualTimer) fire() {
	if !t.stopped.Load() {
		t.f()
	}
}

func (s *manualScheduler) next(t *testing.T) *manualTimer {
	t.Helper()
	select {
	case tm := <-s.armed:
		return tm
	case <-time.After(2 * time.Second):
		t.Fatalf("no cycle was scheduled")
		return nil
	}
}

func (s *manualScheduler) requireNothingArmed(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case tm := <-s.armed:
		t.Fatalf("unexpected cycle scheduled after %s", tm.d)
	case <-time.After(wait):
	}
}

// scriptFetcher replays a fixed sequence of outcomes; the last one repeats.
type scriptFetcher struct {
	mu    sync.Mutex
	steps []fetchStep
	calls int
}

type fetchStep struct {
	snap Snapshot
	err  error
}

func (f *scriptFetcher) Fetch(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	f.calls++
	return f.steps[i].snap, f.steps[i].err
}

func (f *scriptFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func frozenClock(ms int64) func() time.Time {
	t := time.UnixMilli(ms)
	return func() time.Time { return t }
}

var testFormat = DateFormat{
	Location: time.FixedZone("CET", 3600),
	Layout:   DefaultDateLayout,
}

func requireFields(t *testing.T, got, want Fields) {
	t.Helper()
	if got != want {
		t.Fatalf("fields = %+v, want %+v", got, want)
	}
}

func requireResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("no cycle result observed")
		return Result{}
	}
}
