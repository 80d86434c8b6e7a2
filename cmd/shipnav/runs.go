package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unklstewy/shipnav/internal/browser"
	"github.com/unklstewy/shipnav/internal/db"
	"github.com/unklstewy/shipnav/internal/report"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
	}

	cmd.AddCommand(
		newRunsListCmd(a),
		newRunsShowCmd(a),
		newRunsBrowseCmd(a),
		newRunsPruneCmd(a),
		newRunsStatsCmd(a),
	)
	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	var (
		limit   int
		sweepID string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			database, repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			var runs []db.RunRecord
			if sweepID != "" {
				id, err := uuid.Parse(sweepID)
				if err != nil {
					return fmt.Errorf("invalid sweep ID: %w", err)
				}
				runs, err = repo.ListSweep(ctx, id)
				if err != nil {
					return err
				}
			} else {
				runs, err = repo.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
			}

			return report.WriteRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")
	cmd.Flags().StringVar(&sweepID, "sweep", "", "Only runs of this sweep")
	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			ctx := cmd.Context()
			database, repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			rec, err := repo.GetRun(ctx, id)
			if err != nil {
				return err
			}

			info := rec.Info()
			if info == nil {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "run %s %s: %s\n", rec.ID, rec.Status, rec.Error)
				return err
			}
			return report.Write(cmd.OutOrStdout(), a.cfg.Output.Format, report.RecordInput(1, *rec), info, a.cfg.Output.ShowSamples)
		},
	}

	cmd.Flags().String("format", "", "Output format: text, json or csv")
	cmd.Flags().Bool("samples", false, "Print every ship position after the text report")
	return cmd
}

func newRunsBrowseCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse stored runs interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			database, repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			return browser.New(ctx, repo, limit, a.logger).Run()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 200, "Maximum number of runs to load")
	return cmd
}

func newRunsPruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}

			ctx := cmd.Context()
			database, _, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			n, err := database.PruneRuns(ctx, olderThan)
			if err != nil {
				return err
			}

			a.logger.Info("Runs pruned", zap.Int64("deleted", n), zap.Duration("older_than", olderThan))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d runs\n", n)
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum age of deleted runs")
	return cmd
}

func newRunsStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show run store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			database, _, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.HealthCheck(ctx, database); err != nil {
				return fmt.Errorf("database health check failed: %w", err)
			}

			s, err := database.GetStats(ctx)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"runs:      %d\narrived:   %d\nexhausted: %d\nfailed:    %d\nsamples:   %d\n",
				s.Runs, s.Arrived, s.Exhausted, s.Failed, s.Samples)
			return err
		},
	}
}
