package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/unklstewy/shipnav/internal/db"
	"github.com/unklstewy/shipnav/internal/report"
	"github.com/unklstewy/shipnav/pkg/drift"
	"github.com/unklstewy/shipnav/pkg/navigation"
)

// addRunFlags registers the parameters shared by every engine.
// Defaults here are placeholders; unset flags fall through to the configuration.
func addRunFlags(fs *pflag.FlagSet) {
	fs.String("drift", "", `Drift profile: "constant:c", "linear:a,b", "parabolic:c,w" or an expression in x`)
	fs.Float64("s0", 0, "Stream speed scale")
	fs.Float64("v", 0, "Ship speed")
	fs.Float64("l", 0, "Initial distance to the destination")
	fs.Float64("fi", 0, "Initial bearing of the destination in radians")
	fs.Int("n", 0, "Nominal step count")
	fs.Int("k", 0, "Extra steps allowed beyond n")
	fs.Float64("epsilon", 0, "Arrival radius")
	fs.String("format", "", "Output format: text, json or csv")
	fs.Bool("samples", false, "Print every ship position after the text report")
}

func addPursuitFlags(fs *pflag.FlagSet) {
	fs.Float64("v-dest", 0, "Destination speed")
	fs.Float64("a-min", 0, "Lower bound of the destination heading in radians")
	fs.Float64("a-max", 0, "Upper bound of the destination heading in radians")
	fs.Uint64("seed", 0, "Seed of the destination heading source")
}

func newTrajectoryCmd(a *app) *cobra.Command {
	var (
		store bool
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "trajectory",
		Short: "Steer toward a fixed destination",
		Example: `  shipnav trajectory --drift "parabolic:0,5" --fi 0.8 --samples
  shipnav trajectory --drift "0.5*sin(x)" --format csv > run.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rc := a.cfg.Run

			f, err := drift.Resolve(rc.Drift)
			if err != nil {
				return err
			}

			p := rc.Params()
			info, runErr := navigation.TrajectoryShip(f, p)
			a.logRun(db.KindFixed, info, runErr)

			if store {
				database, repo, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer database.Close()

				rec := db.NewRunRecord(db.KindFixed, rc.Drift, navigation.PursuitParams{Params: p}, nil, info, runErr)
				if err := a.saveRun(ctx, repo, rec); err != nil {
					return err
				}
			}
			if runErr != nil {
				return runErr
			}

			if plain {
				return report.WritePlain(cmd.OutOrStdout(), info.ShipTrajectory)
			}
			in := report.RunInput{Run: 1, Drift: rc.Drift, Params: navigation.PursuitParams{Params: p}}
			return report.Write(cmd.OutOrStdout(), a.cfg.Output.Format, in, info, a.cfg.Output.ShowSamples)
		},
	}

	addRunFlags(cmd.Flags())
	cmd.Flags().BoolVar(&store, "store", false, "Save the run to the database")
	cmd.Flags().BoolVar(&plain, "plain", false, `Print the sample count, then "x1 x2" per line`)
	return cmd
}

func newPursueCmd(a *app) *cobra.Command {
	var (
		store bool
		runs  int
	)

	cmd := &cobra.Command{
		Use:   "pursue",
		Short: "Chase a destination that moves in random headings",
		Long: `pursue runs the moving-destination engine. Each step the destination
draws a heading uniformly from [a-min, a-max] and moves v-dest*tau, then
the ship steers toward its new position.

With --runs n, run i uses seed+i-1, so every run can be reproduced alone.`,
		Example: `  shipnav pursue --v-dest 0.3 --seed 42
  shipnav pursue --runs 5 --a-min 0 --a-max 1.57`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runs <= 0 {
				return fmt.Errorf("%w: runs must be positive, got %d", navigation.ErrInvalidParameter, runs)
			}

			ctx := cmd.Context()
			rc := a.cfg.Run

			f, err := drift.Resolve(rc.Drift)
			if err != nil {
				return err
			}
			p := rc.PursuitParams()

			var repo *db.RunRepository
			if store {
				database, r, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer database.Close()
				repo = r
			}

			for i := 0; i < runs; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				seed := rc.Seed + uint64(i)
				info, runErr := navigation.TrajectoryShipAndDestination(f, p, navigation.NewLockedSource(seed))
				a.logRun(db.KindMoving, info, runErr, zap.Uint64("seed", seed))

				if repo != nil {
					rec := db.NewRunRecord(db.KindMoving, rc.Drift, p, &seed, info, runErr)
					if err := a.saveRun(ctx, repo, rec); err != nil {
						return err
					}
				}
				if runErr != nil {
					return fmt.Errorf("run %d (seed %d): %w", i+1, seed, runErr)
				}

				in := report.RunInput{Run: i + 1, Drift: rc.Drift, Moving: true, Params: p, Seed: &seed}
				if err := report.Write(cmd.OutOrStdout(), a.cfg.Output.Format, in, info, a.cfg.Output.ShowSamples); err != nil {
					return err
				}
			}
			return nil
		},
	}

	addRunFlags(cmd.Flags())
	addPursuitFlags(cmd.Flags())
	cmd.Flags().BoolVar(&store, "store", false, "Save every run to the database")
	cmd.Flags().IntVar(&runs, "runs", 1, "Number of runs, with consecutive seeds")
	return cmd
}

func (a *app) logRun(kind string, info *navigation.TrajectoryInfo, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", kind))
	if err != nil {
		a.logger.Warn("Run failed", append(fields, zap.Error(err))...)
		return
	}
	a.logger.Info("Run finished", append(fields,
		zap.String("status", string(info.Status)),
		zap.Int("steps", info.Steps()),
		zap.Float64("total_time", info.TotalTime()),
		zap.Float64("final_distance", info.FinalDistance()))...)
}

func (a *app) saveRun(ctx context.Context, repo *db.RunRepository, rec db.RunRecord) error {
	err := db.WithRetry(ctx, a.cfg.Sweep.RetryAttempts, a.logger, func() error {
		return repo.SaveRun(ctx, rec)
	})
	if err != nil {
		return err
	}

	a.logger.Info("Run stored", zap.String("run_id", rec.ID.String()))
	return nil
}
