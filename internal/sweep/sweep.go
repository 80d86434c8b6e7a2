// Package sweep runs many trajectory computations over a grid of
// destination bearings and heading seeds.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/unklstewy/shipnav/internal/db"
	"github.com/unklstewy/shipnav/pkg/navigation"
)

// Spec describes a sweep.
type Spec struct {
	// Drift labels the drift profile in stored runs
	Drift string

	// DriftFunc is the profile every run uses
	DriftFunc navigation.DriftFunc

	// Base holds the parameters shared by all runs; Fi is replaced per job
	Base navigation.PursuitParams

	// Moving selects the moving-destination engine
	Moving bool

	// Bearings are the destination bearings to run
	Bearings []float64

	// Seeds gives each moving run its own heading source.
	// When empty, all moving runs draw from one shared source seeded with SharedSeed.
	Seeds []uint64

	// SharedSeed seeds the shared heading source
	SharedSeed uint64

	// Workers bounds how many runs are computed at once
	Workers int
}

// Job is one run of a sweep.
type Job struct {
	ID      uuid.UUID
	Index   int
	Bearing float64
	Seed    *uint64
}

// Jobs expands the bearing and seed grid in bearing-major order.
func (s Spec) Jobs() []Job {
	var jobs []Job
	for _, b := range s.Bearings {
		if s.Moving && len(s.Seeds) > 0 {
			for _, seed := range s.Seeds {
				seed := seed
				jobs = append(jobs, Job{ID: uuid.New(), Index: len(jobs), Bearing: b, Seed: &seed})
			}
			continue
		}
		jobs = append(jobs, Job{ID: uuid.New(), Index: len(jobs), Bearing: b})
	}
	return jobs
}

// Validate checks the spec before any run starts.
func (s Spec) Validate() error {
	if s.DriftFunc == nil {
		return fmt.Errorf("%w: drift function is nil", navigation.ErrInvalidParameter)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", navigation.ErrInvalidParameter, s.Workers)
	}
	if len(s.Bearings) == 0 {
		return fmt.Errorf("%w: no bearings to sweep", navigation.ErrInvalidParameter)
	}
	if s.Moving {
		return s.Base.Validate()
	}
	return s.Base.Params.Validate()
}

// Result is the outcome of one job.
type Result struct {
	Job      Job
	Info     *navigation.TrajectoryInfo
	Err      error
	Duration time.Duration
}

// Status returns the run's terminal state, or failed.
func (r Result) Status() navigation.Status {
	if r.Err != nil || r.Info == nil {
		return db.StatusFailed
	}
	return r.Info.Status
}

// Event reports progress after each finished job.
type Event struct {
	Result Result
	Done   int
	Total  int
}

// Outcome is everything a sweep produced.
type Outcome struct {
	SweepID uuid.UUID
	Results []Result
	Summary Summary
}

// Sink persists finished runs.
type Sink interface {
	SaveRun(ctx context.Context, rec db.RunRecord) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink stores every result in sink, at most perSecond writes per second,
// retrying connection failures up to retries times.
func WithSink(sink Sink, perSecond float64, retries int) Option {
	return func(r *Runner) {
		r.sink = sink
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		r.retries = retries
	}
}

// WithEvents sends an Event per finished job on ch.
// Run closes ch when it returns.
func WithEvents(ch chan<- Event) Option {
	return func(r *Runner) {
		r.events = ch
	}
}

// Runner executes sweeps.
type Runner struct {
	logger  *zap.Logger
	sink    Sink
	limiter *rate.Limiter
	retries int
	events  chan<- Event
}

// NewRunner creates a sweep runner.
func NewRunner(logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{logger: logger.Named("sweep")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run computes every job of spec with a bounded worker pool.
//
// Engine failures are recorded in the job's Result and do not stop the
// sweep. A persistence failure or a cancelled context does: Run then
// returns the results gathered so far together with the error.
// Results are in job order regardless of completion order.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Outcome, error) {
	if r.events != nil {
		defer close(r.events)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	jobs := spec.Jobs()
	out := &Outcome{
		SweepID: uuid.New(),
		Results: make([]Result, len(jobs)),
	}

	var shared navigation.HeadingSource
	if spec.Moving && len(spec.Seeds) == 0 {
		shared = navigation.NewLockedSource(spec.SharedSeed)
	}

	r.logger.Info("Sweep started",
		zap.String("sweep_id", out.SweepID.String()),
		zap.Int("jobs", len(jobs)),
		zap.Int("workers", spec.Workers),
		zap.Bool("moving", spec.Moving))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(spec.Workers)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res := runJob(spec, job, shared)
			out.Results[i] = res

			if res.Err != nil {
				r.logger.Debug("Run failed",
					zap.Int("job", job.Index),
					zap.Float64("bearing", job.Bearing),
					zap.Error(res.Err))
			}

			if r.sink != nil {
				if err := r.persist(gctx, out.SweepID, spec, res); err != nil {
					return err
				}
			}

			n := int(done.Add(1))
			if r.events != nil {
				select {
				case r.events <- Event{Result: res, Done: n, Total: len(jobs)}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	err := g.Wait()
	out.Summary = Summarize(out.Results)

	if err != nil {
		r.logger.Warn("Sweep stopped", zap.String("sweep_id", out.SweepID.String()), zap.Error(err))
		return out, err
	}

	r.logger.Info("Sweep finished",
		zap.String("sweep_id", out.SweepID.String()),
		zap.Int("arrived", out.Summary.Arrived),
		zap.Int("exhausted", out.Summary.Exhausted),
		zap.Int("failed", out.Summary.Failed))

	return out, nil
}

func runJob(spec Spec, job Job, shared navigation.HeadingSource) Result {
	start := time.Now()
	p := spec.Base
	p.Fi = job.Bearing

	var (
		info *navigation.TrajectoryInfo
		err  error
	)
	if spec.Moving {
		src := shared
		if job.Seed != nil {
			src = navigation.NewLockedSource(*job.Seed)
		}
		info, err = navigation.TrajectoryShipAndDestination(spec.DriftFunc, p, src)
	} else {
		info, err = navigation.TrajectoryShip(spec.DriftFunc, p.Params)
	}

	return Result{Job: job, Info: info, Err: err, Duration: time.Since(start)}
}

func (r *Runner) persist(ctx context.Context, sweepID uuid.UUID, spec Spec, res Result) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	kind := db.KindFixed
	if spec.Moving {
		kind = db.KindMoving
	}

	p := spec.Base
	p.Fi = res.Job.Bearing
	rec := db.NewRunRecord(kind, spec.Drift, p, res.Job.Seed, res.Info, res.Err)
	rec.ID = res.Job.ID
	rec.SweepID = uuid.NullUUID{UUID: sweepID, Valid: true}

	err := db.WithRetry(ctx, r.retries, r.logger, func() error {
		return r.sink.SaveRun(ctx, rec)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}
	return err
}
