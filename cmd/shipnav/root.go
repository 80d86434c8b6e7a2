package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/unklstewy/shipnav/internal/db"
	"github.com/unklstewy/shipnav/internal/observability"
	"github.com/unklstewy/shipnav/pkg/config"
)

// flagKeys maps command-line flags to configuration keys.
// A flag overrides the file and the environment only when it is set.
var flagKeys = map[string]string{
	"drift":         "run.drift",
	"s0":            "run.s0",
	"v":             "run.v",
	"l":             "run.l",
	"fi":            "run.fi",
	"n":             "run.n",
	"k":             "run.k",
	"epsilon":       "run.epsilon",
	"v-dest":        "run.v_destination",
	"a-min":         "run.a_min",
	"a-max":         "run.a_max",
	"seed":          "run.seed",
	"workers":       "sweep.workers",
	"bearing-from":  "sweep.bearing_from",
	"bearing-to":    "sweep.bearing_to",
	"bearing-steps": "sweep.bearing_steps",
	"seeds":         "sweep.seeds",
	"seed-base":     "sweep.seed_base",
	"format":        "output.format",
	"samples":       "output.show_samples",
	"log-level":     "logger.level",
}

var errDatabaseDisabled = errors.New("database is disabled (set database.enabled or SHIPNAV_DATABASE_ENABLED=true)")

// app carries what every command needs after startup.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "shipnav",
		Short: "Ship navigation in a drifting stream",
		Long: `shipnav steers a ship across a stream whose speed depends on the
cross-stream coordinate, toward a fixed or a randomly moving destination.

Runs can be printed, swept over many bearings in parallel, stored in
PostgreSQL and browsed later.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "configs/shipnav.json", "Path to configuration file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newTrajectoryCmd(a),
		newPursueCmd(a),
		newSweepCmd(a),
		newRunsCmd(a),
	)

	return root
}

// setup loads configuration with the command's flags bound on top and
// starts logging on stderr, keeping stdout for reports.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadWith(a.configPath, func(v *viper.Viper) error {
		for name, key := range flagKeys {
			f := cmd.Flags().Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	observability.InitializeLogger(cfg.Logger)

	a.cfg = cfg
	a.logger = observability.GetLogger()
	a.logger.Debug("Configuration loaded",
		zap.String("path", a.configPath),
		zap.String("command", cmd.CommandPath()))
	return nil
}

// openStore connects to the run database and makes sure the schema exists.
func (a *app) openStore(ctx context.Context) (*db.DB, *db.RunRepository, error) {
	if !a.cfg.Database.Enabled {
		return nil, nil, errDatabaseDisabled
	}

	database, err := db.ReconnectWithRetry(ctx, a.cfg.Database, 3, time.Second, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.InitSchema(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}

	return database, db.NewRunRepository(database), nil
}
