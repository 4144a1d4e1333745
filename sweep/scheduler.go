// Package sweep schedules CollectGarbage calls on one or more pools.
//
// Pools never drop entries on their own. A Scheduler sweeps them on a fixed
// interval, whenever the caller reports an idle moment through Idle, or on
// demand through SweepNow. Interval and idle sweeps draw from a Budget so a
// busy caller signalling idle in a tight loop cannot turn the scheduler into
// a sweep storm.
package sweep

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RowanDark/internpool/logging"
)

// Collector is anything that can be swept. *pool.Pool satisfies it.
type Collector interface {
	Name() string
	CollectGarbage() int
}

type Options struct {
	// Interval between periodic sweeps. Zero disables the ticker; sweeps then
	// only happen through Idle and SweepNow.
	Interval time.Duration
	// Rate caps interval and idle sweeps per second. Zero means unlimited.
	Rate   float64
	Logger *logging.Logger
}

// Summary reports what a Scheduler did over its lifetime.
type Summary struct {
	Sweeps    int
	Removed   int
	Throttled int
	Duration  time.Duration
}

type Scheduler struct {
	targets  []Collector
	interval time.Duration
	budget   *Budget
	logger   *logging.Logger

	idle     chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex // serialises sweeps
	start    time.Time
	started  atomic.Bool
	stopOnce sync.Once

	sweeps    atomic.Int64
	removed   atomic.Int64
	throttled atomic.Int64
}

func New(opts Options, targets ...Collector) *Scheduler {
	return &Scheduler{
		targets:  targets,
		interval: opts.Interval,
		budget:   NewBudget(opts.Rate),
		logger:   opts.Logger.With("sweep"),
		idle:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		start:    time.Now(),
	}
}

// Start runs the scheduler until ctx is done or Stop is called. Calling it
// more than once has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || !s.started.CompareAndSwap(false, true) {
		return
	}
	if s.logger.Enabled(logging.LevelDebug) {
		status := s.budget.Status()
		s.logger.Debugf("scheduler started for %d pool(s): interval=%s rate=%.2f/s", len(s.targets), s.interval, status.Rate)
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		tick = ticker.C
		s.wg.Add(1)
		go func() {
			defer ticker.Stop()
			s.loop(ctx, tick)
		}()
		return
	}
	s.wg.Add(1)
	go s.loop(ctx, tick)
}

func (s *Scheduler) loop(ctx context.Context, tick <-chan time.Time) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-tick:
			s.throttledSweep("interval")
		case <-s.idle:
			s.throttledSweep("idle")
		}
	}
}

// Idle requests a sweep without blocking. Requests made while one is
// already pending are merged.
func (s *Scheduler) Idle() {
	if s == nil {
		return
	}
	select {
	case s.idle <- struct{}{}:
	default:
	}
}

func (s *Scheduler) throttledSweep(reason string) {
	if !s.budget.Allow() {
		s.throttled.Add(1)
		if s.logger.Enabled(logging.LevelDebug) {
			s.logger.Debugf("%s sweep skipped: budget exhausted, refill in %s", reason, s.budget.Status().RefillIn)
		}
		return
	}
	s.sweep(reason)
}

// SweepNow sweeps every target immediately, ignoring the budget, and
// returns the number of entries removed.
func (s *Scheduler) SweepNow() int {
	if s == nil {
		return 0
	}
	return s.sweep("manual")
}

func (s *Scheduler) sweep(reason string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, target := range s.targets {
		removed := target.CollectGarbage()
		total += removed
		if removed > 0 && s.logger.Enabled(logging.LevelDebug) {
			s.logger.Debugf("%s sweep of %s removed %d entries", reason, target.Name(), removed)
		}
	}
	s.sweeps.Add(1)
	s.removed.Add(int64(total))
	return total
}

// Stop halts the scheduler, waits for an in-flight sweep, and returns the
// summary. It is safe to call more than once.
func (s *Scheduler) Stop() Summary {
	if s == nil {
		return Summary{}
	}
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return s.Summary()
}

// Summary returns the counters collected so far.
func (s *Scheduler) Summary() Summary {
	if s == nil {
		return Summary{}
	}
	return Summary{
		Sweeps:    int(s.sweeps.Load()),
		Removed:   int(s.removed.Load()),
		Throttled: int(s.throttled.Load()),
		Duration:  time.Since(s.start),
	}
}
