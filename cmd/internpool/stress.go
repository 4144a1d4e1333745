package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/RowanDark/internpool/config"
	"github.com/RowanDark/internpool/mow"
	"github.com/RowanDark/internpool/pool"
	"github.com/RowanDark/internpool/sweep"
)

// errIdentity reports that two live handles for equal content differed or
// a handle returned the wrong content.
var errIdentity = errors.New("interning identity violated")

type stressOptions struct {
	duration    time.Duration
	interners   int
	collectors  int
	keys        int
	// collectRate caps collector sweeps per second; 0 runs them back to back.
	collectRate float64
}

func newStressCommand(cfg *config.Config) *cobra.Command {
	var opts stressOptions

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer a pool with concurrent interning and collection",
		Long: `stress runs interning goroutines against collecting goroutines on one
pool for the given duration and fails if any handle ever disagrees with its
content or with another live handle for the same content.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			if opts.interners <= 0 {
				opts.interners = cfg.Workers
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := pool.New(pool.WithName("stress"), pool.WithLogger(e.logger))
			var sweeper *sweep.Scheduler
			if cfg.SweepInterval > 0 {
				sweeper = sweep.New(sweep.Options{Interval: cfg.SweepInterval, Rate: cfg.SweepRate, Logger: e.logger}, p)
				sweeper.Start(ctx)
			}

			e.logger.Infof("Stressing pool for %s: %d interner(s), %d collector(s), %d key(s)", opts.duration, opts.interners, opts.collectors, opts.keys)
			ops, err := runStress(ctx, p, opts)
			summary := sweeper.Stop()
			if err != nil {
				return err
			}

			p.CollectGarbage()
			st := p.Stats()
			if st.Live != 0 {
				return fmt.Errorf("%w: %d entries survived the final sweep", errIdentity, st.Live)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ops=%d %s\n", ops, st)
			e.logger.Infof("Stress run passed: %d operations, %d reconciliations, %d retries, %d scheduled sweeps",
				ops, st.Reconciliations, st.Retries, summary.Sweeps)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.DurationVar(&opts.duration, "duration", 2*time.Second, "How long to run")
	flags.IntVar(&opts.interners, "interners", 0, "Interning goroutines (defaults to --workers)")
	flags.IntVar(&opts.collectors, "collectors", 2, "Goroutines calling CollectGarbage in a loop")
	flags.IntVar(&opts.keys, "keys", 64, "Distinct values to intern")
	flags.Float64Var(&opts.collectRate, "collect-rate", 0, "Maximum collector sweeps per second across all collectors (0 = unbounded)")
	return cmd
}

func runStress(ctx context.Context, p *pool.Pool, opts stressOptions) (int64, error) {
	if opts.keys <= 0 {
		opts.keys = 1
	}
	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	var ops atomic.Int64
	g, gctx := errgroup.WithContext(ctx)

	budget := sweep.NewBudget(opts.collectRate)
	for i := 0; i < opts.collectors; i++ {
		g.Go(func() error {
			for {
				if err := budget.Wait(gctx); err != nil || gctx.Err() != nil {
					return nil
				}
				p.CollectGarbage()
			}
		})
	}

	for i := 0; i < opts.interners; i++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(i), uint64(time.Now().UnixNano())))
			for gctx.Err() == nil {
				key := "k" + strconv.Itoa(rng.IntN(opts.keys))
				if err := stressOnce(p, key); err != nil {
					return err
				}
				ops.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	return ops.Load(), err
}

// stressOnce interns key directly and by building it in a mutable value,
// and checks both paths agree.
func stressOnce(p *pool.Pool, key string) error {
	direct := mow.NewIStr(p, key)
	defer direct.Release()
	if direct.String() != key {
		return fmt.Errorf("%w: interned %q but read %q", errIdentity, key, direct.String())
	}

	built := mow.MutEmptyStr(p)
	built.PushStr(key[:1])
	built.PushStr(key[1:])
	built.Intern()
	defer built.Release()

	other, ok := built.TryIStr()
	if !ok {
		return fmt.Errorf("%w: interned value is not shared", errIdentity)
	}
	defer other.Release()
	if !other.Equal(direct) {
		return fmt.Errorf("%w: two live handles for %q differ", errIdentity, key)
	}
	return nil
}
