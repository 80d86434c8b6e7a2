package main

import (
	"github.com/spf13/cobra"

	"github.com/unklstewy/shipnav/internal/monitor"
	"github.com/unklstewy/shipnav/internal/report"
	"github.com/unklstewy/shipnav/internal/sweep"
	"github.com/unklstewy/shipnav/pkg/drift"
)

func newSweepCmd(a *app) *cobra.Command {
	var (
		moving bool
		store  bool
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run many trajectories over a range of destination bearings",
		Long: `sweep computes one run per bearing in [bearing-from, bearing-to], in
parallel. With --moving every run chases a moving destination; --seeds n
runs each bearing n times with seeds seed-base, seed-base+1, ... and
--seeds 0 lets all runs draw from one shared source seeded with --seed.`,
		Example: `  shipnav sweep --bearing-steps 13 --workers 8
  shipnav sweep --moving --seeds 4 --monitor --store`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rc, sc := a.cfg.Run, a.cfg.Sweep

			f, err := drift.Resolve(rc.Drift)
			if err != nil {
				return err
			}

			spec := sweep.Spec{
				Drift:      rc.Drift,
				DriftFunc:  f,
				Base:       rc.PursuitParams(),
				Moving:     moving,
				Bearings:   sc.Bearings(),
				SharedSeed: rc.Seed,
				Workers:    sc.Workers,
			}
			if moving {
				spec.Seeds = sc.SeedList()
			}

			var opts []sweep.Option
			if store {
				database, repo, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer database.Close()
				opts = append(opts, sweep.WithSink(repo, sc.PersistPerSecond, sc.RetryAttempts))
			}

			var out *sweep.Outcome
			if watch {
				events := make(chan sweep.Event)
				runner := sweep.NewRunner(a.logger, append(opts, sweep.WithEvents(events))...)
				out, err = monitor.Watch(ctx, runner, spec, events)
			} else {
				out, err = sweep.NewRunner(a.logger, opts...).Run(ctx, spec)
			}
			if out != nil {
				if werr := report.WriteSweep(cmd.OutOrStdout(), out); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}

	addRunFlags(cmd.Flags())
	addPursuitFlags(cmd.Flags())
	cmd.Flags().Int("workers", 0, "Runs computed in parallel")
	cmd.Flags().Float64("bearing-from", 0, "First destination bearing in radians")
	cmd.Flags().Float64("bearing-to", 0, "Last destination bearing in radians")
	cmd.Flags().Int("bearing-steps", 0, "Number of bearings")
	cmd.Flags().Int("seeds", 0, "Seeds per bearing for moving runs (0 shares one source)")
	cmd.Flags().Uint64("seed-base", 0, "First per-run seed")
	cmd.Flags().BoolVar(&moving, "moving", false, "Chase a moving destination")
	cmd.Flags().BoolVar(&store, "store", false, "Save every run to the database")
	cmd.Flags().BoolVar(&watch, "monitor", false, "Show live progress in the terminal")
	return cmd
}
