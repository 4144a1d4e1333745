package main

import (
	"context"
	"io"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RowanDark/internpool/filters"
	"github.com/RowanDark/internpool/internal/bufpool"
	"github.com/RowanDark/internpool/internal/input"
	"github.com/RowanDark/internpool/logging"
	"github.com/RowanDark/internpool/output"
	"github.com/RowanDark/internpool/pool"
	"github.com/RowanDark/internpool/stats"
	"github.com/RowanDark/internpool/sweep"
)

// selector maps an input line to the value to intern. A nil result rejects
// the line.
type selector func(line []byte) []byte

type line struct {
	seq    int64
	source string
	buf    []byte
}

// tally is the per-value state kept while a run is in progress. The map
// holding it owns one reference to the handle.
type tally struct {
	h         pool.Handle
	count     atomic.Int64
	first     atomic.Int64
	firstSeen string

	mu      sync.Mutex
	sources []string
}

func (t *tally) observe(seq int64, source string) {
	t.count.Add(1)
	for {
		cur := t.first.Load()
		if seq >= cur || t.first.CompareAndSwap(cur, seq) {
			break
		}
	}
	t.mu.Lock()
	if !slices.Contains(t.sources, source) {
		t.sources = append(t.sources, source)
	}
	t.mu.Unlock()
}

type pipeline struct {
	env     *env
	pool    *pool.Pool
	filter  *filters.Filter
	sel     selector
	known   map[pool.Handle]struct{}
	display func(string) string

	tracker *stats.Tracker
	sweeper *sweep.Scheduler
	seen    sync.Map // pool.Handle -> *tally
}

func newPipeline(e *env, p *pool.Pool, filter *filters.Filter, sel selector) *pipeline {
	pl := &pipeline{env: e, pool: p, filter: filter, sel: sel}
	var progress *logging.Logger
	if e.cfg.StatsInterval > 0 {
		progress = e.logger.With("stats")
	}
	pl.tracker = stats.NewTracker(stats.Options{
		Logger:   progress,
		Interval: e.cfg.StatsInterval,
		Pools:    []*pool.Pool{p},
	})
	if e.cfg.SweepInterval > 0 || e.cfg.SweepRate > 0 {
		pl.sweeper = sweep.New(sweep.Options{
			Interval: e.cfg.SweepInterval,
			Rate:     e.cfg.SweepRate,
			Logger:   e.logger,
		}, p)
	}
	return pl
}

// loadKnown interns the values of a previous run's output; matching values
// are counted but not emitted again.
func (pl *pipeline) loadKnown(path string) error {
	records, err := output.LoadRecords(path)
	if err != nil {
		return err
	}
	pl.known = make(map[pool.Handle]struct{}, len(records))
	for _, rec := range records {
		v := pl.sel([]byte(rec.Value))
		if v == nil {
			continue
		}
		h := pl.pool.Intern(v)
		if _, dup := pl.known[h]; dup {
			h.Release()
			continue
		}
		pl.known[h] = struct{}{}
	}
	pl.env.logger.Infof("Loaded %d known value(s) from %s", len(pl.known), path)
	return nil
}

func (pl *pipeline) run(ctx context.Context, paths []string, stdin io.Reader, writer *output.Writer) error {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	pl.tracker.Start(ctx.Done())
	if pl.sweeper != nil {
		pl.sweeper.Start(ctx)
	}

	lines := make(chan line, 4*pl.env.cfg.Workers)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(lines)
		var seq int64
		for _, path := range paths {
			src, err := input.Open(path, stdin)
			if err != nil {
				return err
			}
			if src.Mapped {
				pl.env.logger.Debugf("Mapped %s into memory", src.Name)
			}
			err = src.Lines(func(b []byte) error {
				buf := append(bufpool.Get(len(b)), b...)
				select {
				case lines <- line{seq: seq, source: src.Name, buf: buf}:
					seq++
					return nil
				case <-gctx.Done():
					bufpool.Put(buf)
					return gctx.Err()
				}
			})
			closeErr := src.Close()
			if err != nil {
				return err
			}
			if closeErr != nil {
				return closeErr
			}
			pl.sweeper.Idle()
		}
		return nil
	})

	for i := 0; i < pl.env.cfg.Workers; i++ {
		g.Go(func() error {
			for l := range lines {
				pl.process(l)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		pl.release()
		return err
	}
	return pl.emit(writer)
}

func (pl *pipeline) process(l line) {
	defer bufpool.Put(l.buf)

	v := pl.sel(l.buf)
	if v == nil || !pl.filter.Match(string(v)) {
		pl.tracker.RecordRejected()
		return
	}

	h := pl.pool.Intern(v)
	if _, ok := pl.known[h]; ok {
		h.Release()
		pl.tracker.RecordLine(l.source, true)
		return
	}

	fresh := &tally{h: h, firstSeen: output.Timestamp(time.Now())}
	fresh.first.Store(l.seq)
	actual, loaded := pl.seen.LoadOrStore(h, fresh)
	if loaded {
		h.Release()
	}
	actual.(*tally).observe(l.seq, l.source)
	pl.tracker.RecordLine(l.source, loaded)
}

func (pl *pipeline) emit(writer *output.Writer) error {
	var tallies []*tally
	pl.seen.Range(func(_, value any) bool {
		tallies = append(tallies, value.(*tally))
		return true
	})
	sort.Slice(tallies, func(i, j int) bool {
		return tallies[i].first.Load() < tallies[j].first.Load()
	})

	multiSource := false
	for _, t := range tallies {
		if len(t.sources) > 1 {
			multiSource = true
			break
		}
	}

	var writeErr error
	for _, t := range tallies {
		rec := output.Record{
			Value:     t.h.String(),
			Count:     int(t.count.Load()),
			FirstSeen: t.firstSeen,
		}
		if multiSource {
			rec.Sources = slices.Sorted(slices.Values(t.sources))
		}
		if pl.display != nil {
			if d := pl.display(rec.Value); d != rec.Value {
				rec.Display = d
			}
		}
		if writeErr = writer.WriteRecord(rec); writeErr != nil {
			break
		}
	}

	snapshot := pl.tracker.Stop()
	pl.release()
	if writeErr != nil {
		return writeErr
	}
	pl.logSummary(snapshot, writer.Written())
	return nil
}

// release drops every reference the run holds and sweeps the pool.
func (pl *pipeline) release() {
	summary := pl.sweeper.Stop()
	pl.seen.Range(func(key, value any) bool {
		t := value.(*tally)
		t.h.Release()
		pl.seen.Delete(key)
		return true
	})
	for h := range pl.known {
		h.Release()
	}
	pl.known = nil

	removed := pl.pool.CollectGarbage()
	if pl.env.logger.Enabled(logging.LevelDebug) {
		pl.env.logger.Debugf("Released run state: final sweep removed %d entries (%d scheduled sweeps, %d throttled)", removed, summary.Sweeps, summary.Throttled)
	}
}

func (pl *pipeline) logSummary(snapshot stats.Snapshot, written int) {
	logger := pl.env.logger
	logger.Infof("Processed %d line(s) in %s: %d distinct, %d duplicate (%.1f%%), %d rejected",
		snapshot.Lines, snapshot.Duration.Truncate(time.Millisecond), snapshot.Unique, snapshot.Duplicates, snapshot.DuplicateRate(), snapshot.Rejected)
	if breakdown := stats.FormatSourceBreakdown(snapshot.Sources, 5); breakdown != "" && len(snapshot.Sources) > 1 {
		logger.Infof("Top sources: %s", breakdown)
	}
	for _, ps := range snapshot.Pools {
		logger.Debugf("Pool %s", ps)
	}
	if pl.env.cfg.LiveOutput() {
		logger.Debugf("Wrote %d record(s) to stdout using %s format", written, pl.env.cfg.Format)
	} else {
		logger.Infof("Wrote %d record(s) to %s", written, pl.env.cfg.OutputPath)
	}
}
