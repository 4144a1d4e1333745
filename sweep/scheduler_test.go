package sweep

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/RowanDark/internpool/logging"
	"github.com/RowanDark/internpool/pool"
)

func garbagePool(name string, n int) *pool.Pool {
	p := pool.New(pool.WithName(name))
	for i := 0; i < n; i++ {
		h := p.InternString(strings.Repeat("x", i+1))
		h.Release()
	}
	return p
}

func TestSweepNow(t *testing.T) {
	a := garbagePool("a", 3)
	b := garbagePool("b", 2)
	keep := a.InternString("keep")
	defer keep.Release()

	s := New(Options{}, a, b)
	if removed := s.SweepNow(); removed != 5 {
		t.Fatalf("expected 5 removals, got %d", removed)
	}
	if a.Len() != 1 || b.Len() != 0 {
		t.Fatalf("unexpected pool sizes %d %d", a.Len(), b.Len())
	}
	summary := s.Stop()
	if summary.Sweeps != 1 || summary.Removed != 5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestIntervalSweeps(t *testing.T) {
	p := garbagePool("p", 4)
	s := New(Options{Interval: 5 * time.Millisecond}, p)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for p.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("interval sweep never ran")
		}
		time.Sleep(time.Millisecond)
	}
	if summary := s.Stop(); summary.Removed != 4 || summary.Sweeps == 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestIdleSweepIsThrottled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: logging.LevelDebug, Console: &buf})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	p := garbagePool("p", 1)
	s := New(Options{Rate: 1, Logger: logger}, p)
	s.Start(context.Background())

	s.Idle()
	deadline := time.Now().Add(2 * time.Second)
	for s.Summary().Sweeps == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle sweep never ran")
		}
		time.Sleep(time.Millisecond)
	}
	s.Idle()
	for s.Summary().Throttled == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("second idle sweep was not throttled")
		}
		time.Sleep(time.Millisecond)
	}
	summary := s.Stop()
	if summary.Sweeps != 1 || summary.Removed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !strings.Contains(buf.String(), "sweep: idle sweep of p removed 1 entries") {
		t.Fatalf("missing sweep log: %s", buf.String())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := New(Options{Interval: time.Hour})
	s.Start(context.Background())
	s.Start(context.Background())
	s.Stop()
	s.Stop()

	var nilScheduler *Scheduler
	nilScheduler.Idle()
	if nilScheduler.Stop() != (Summary{}) {
		t.Fatalf("nil scheduler must report nothing")
	}
}
