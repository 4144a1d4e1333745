// Package stats tracks progress of a dedup run and periodically logs it
// together with the counters of the pools doing the interning.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RowanDark/internpool/logging"
	"github.com/RowanDark/internpool/pool"
)

type Options struct {
	Logger   *logging.Logger
	Interval time.Duration
	Pools    []*pool.Pool
}

type Tracker struct {
	mu         sync.RWMutex
	start      time.Time
	lines      int
	unique     int
	duplicates int
	rejected   int

	sourceBreakdown map[string]int

	pools    []*pool.Pool
	logger   *logging.Logger
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

type Snapshot struct {
	Lines      int
	Unique     int
	Duplicates int
	Rejected   int
	Sources    map[string]int
	Pools      []pool.Stats
	Duration   time.Duration
}

func NewTracker(opts Options) *Tracker {
	interval := opts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Tracker{
		pools:           opts.Pools,
		logger:          opts.Logger,
		interval:        interval,
		sourceBreakdown: make(map[string]int),
		done:            make(chan struct{}),
	}
}

func (t *Tracker) Start(ctxDone <-chan struct{}) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.start = time.Now()
	t.mu.Unlock()

	if t.logger == nil {
		return
	}

	t.ticker = time.NewTicker(t.interval)
	go func() {
		for {
			select {
			case <-t.ticker.C:
				t.logSnapshot(false)
			case <-ctxDone:
				return
			case <-t.done:
				return
			}
		}
	}()
}

func (t *Tracker) Stop() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.stopOnce.Do(func() {
		close(t.done)
		if t.ticker != nil {
			t.ticker.Stop()
		}
	})
	return t.Snapshot()
}

// RecordLine counts one accepted input line from source. duplicate is true
// when the value had already been seen.
func (t *Tracker) RecordLine(source string, duplicate bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.lines++
	if duplicate {
		t.duplicates++
	} else {
		t.unique++
	}
	if source = strings.TrimSpace(source); source != "" {
		t.sourceBreakdown[source]++
	}
	t.mu.Unlock()
}

// RecordRejected counts a line dropped by a filter or a validator.
func (t *Tracker) RecordRejected() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.lines++
	t.rejected++
	t.mu.Unlock()
}

func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	copyMap := make(map[string]int, len(t.sourceBreakdown))
	for key, value := range t.sourceBreakdown {
		copyMap[key] = value
	}
	poolStats := make([]pool.Stats, 0, len(t.pools))
	for _, p := range t.pools {
		poolStats = append(poolStats, p.Stats())
	}
	duration := time.Duration(0)
	if !t.start.IsZero() {
		duration = time.Since(t.start)
	}
	return Snapshot{
		Lines:      t.lines,
		Unique:     t.unique,
		Duplicates: t.duplicates,
		Rejected:   t.rejected,
		Sources:    copyMap,
		Pools:      poolStats,
		Duration:   duration,
	}
}

// DuplicateRate is the percentage of accepted lines that repeated an
// earlier value.
func (s Snapshot) DuplicateRate() float64 {
	accepted := s.Unique + s.Duplicates
	if accepted == 0 {
		return 0
	}
	return (float64(s.Duplicates) / float64(accepted)) * 100
}

func (t *Tracker) logSnapshot(final bool) {
	if t == nil || t.logger == nil {
		return
	}
	snapshot := t.Snapshot()
	if final {
		t.logger.Infof("Run statistics: %s", Render(snapshot))
	} else {
		t.logger.Infof("Stats update: %s", Render(snapshot))
	}
	for _, ps := range snapshot.Pools {
		t.logger.Debugf("%s", ps)
	}
}

// LogSummary writes the final statistics line.
func (t *Tracker) LogSummary() {
	t.logSnapshot(true)
}

// Render formats a snapshot as a single log line.
func Render(s Snapshot) string {
	parts := []string{
		fmt.Sprintf("lines=%d", s.Lines),
		fmt.Sprintf("unique=%d", s.Unique),
		fmt.Sprintf("duplicates=%d", s.Duplicates),
		fmt.Sprintf("duplicate_rate=%.1f%%", s.DuplicateRate()),
		fmt.Sprintf("duration=%s", s.Duration.Truncate(time.Millisecond)),
	}
	if s.Rejected > 0 {
		parts = append(parts, fmt.Sprintf("rejected=%d", s.Rejected))
	}
	if len(s.Sources) > 1 {
		parts = append(parts, fmt.Sprintf("sources=%s", FormatSourceBreakdown(s.Sources, 5)))
	}
	return strings.Join(parts, " | ")
}

// FormatSourceBreakdown converts a map of source counts into a human readable string.
func FormatSourceBreakdown(sources map[string]int, limit int) string {
	if limit <= 0 {
		limit = len(sources)
	}
	type item struct {
		name  string
		count int
	}
	entries := make([]item, 0, len(sources))
	for name, count := range sources {
		entries = append(entries, item{name: name, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count == entries[j].count {
			return entries[i].name < entries[j].name
		}
		return entries[i].count > entries[j].count
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	formatted := make([]string, 0, len(entries))
	for _, entry := range entries {
		formatted = append(formatted, fmt.Sprintf("%s=%d", entry.name, entry.count))
	}
	return strings.Join(formatted, ", ")
}
