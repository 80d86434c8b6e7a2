package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/unklstewy/shipnav/pkg/coordinates"
	"github.com/unklstewy/shipnav/pkg/navigation"
)

// Run kinds.
const (
	KindFixed  = "fixed"
	KindMoving = "moving"
)

// StatusFailed marks a run the engine rejected or aborted.
const StatusFailed navigation.Status = "failed"

// Sample bodies.
const (
	bodyShip        = "ship"
	bodyDestination = "destination"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is a stored trajectory run.
// Ship and Destination are only populated by GetRun.
type RunRecord struct {
	ID      uuid.UUID
	SweepID uuid.NullUUID
	Kind    string
	Drift   string
	Params  navigation.PursuitParams
	Seed    *uint64

	Status        navigation.Status
	Steps         int
	Tau           float64
	TotalTime     float64
	FinalDistance float64
	Error         string
	CreatedAt     time.Time

	Ship        []coordinates.V2
	Destination []coordinates.V2
}

// NewRunRecord builds a record from a finished run.
// When runErr is non-nil the record is marked failed and info is ignored.
func NewRunRecord(kind, drift string, params navigation.PursuitParams, seed *uint64, info *navigation.TrajectoryInfo, runErr error) RunRecord {
	rec := RunRecord{
		ID:        uuid.New(),
		Kind:      kind,
		Drift:     drift,
		Params:    params,
		Seed:      seed,
		Tau:       params.Tau(),
		CreatedAt: time.Now().UTC(),
	}

	if runErr != nil || info == nil {
		rec.Status = StatusFailed
		if runErr != nil {
			rec.Error = runErr.Error()
		}
		return rec
	}

	rec.Status = info.Status
	rec.Steps = info.Steps()
	rec.Tau = info.Tau
	rec.TotalTime = info.TotalTime()
	rec.FinalDistance = info.FinalDistance()
	rec.Ship = info.ShipTrajectory
	rec.Destination = info.DestinationTrajectory
	return rec
}

// Info rebuilds the trajectory summary from stored samples.
// Returns nil for failed runs or records loaded without samples.
func (r RunRecord) Info() *navigation.TrajectoryInfo {
	if r.Status == StatusFailed || len(r.Ship) == 0 {
		return nil
	}
	return navigation.NewTrajectoryInfo(r.Ship, r.Destination, r.Tau, r.Status)
}

// RunRepository handles database operations for trajectory runs.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun stores a run and its samples in one transaction.
// Saving the same ID again replaces the run.
func (r *RunRepository) SaveRun(ctx context.Context, rec RunRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p := rec.Params
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
			id, sweep_id, kind, drift,
			s0, v, l, fi, n, k, epsilon,
			v_destination, a_min, a_max, seed,
			status, steps, tau, total_time, final_distance, error, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			steps = EXCLUDED.steps,
			tau = EXCLUDED.tau,
			total_time = EXCLUDED.total_time,
			final_distance = EXCLUDED.final_distance,
			error = EXCLUDED.error`,
		rec.ID, rec.SweepID, rec.Kind, rec.Drift,
		p.S0, p.V, p.L, p.Fi, p.N, p.K, p.Epsilon,
		p.VDestination, p.AMin, p.AMax, seedValue(rec.Seed),
		string(rec.Status), rec.Steps, rec.Tau, rec.TotalTime, rec.FinalDistance, rec.Error, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_samples WHERE run_id = $1`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear samples: %w", err)
	}

	rows := sampleRows(rec)
	if len(rows) > 0 {
		if err := copySamples(ctx, tx, rec.ID, rows); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// copySamples bulk-loads samples with COPY FROM STDIN.
func copySamples(ctx context.Context, tx *sql.Tx, runID uuid.UUID, rows []sampleRow) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("run_samples", "run_id", "body", "idx", "x1", "x2"))
	if err != nil {
		return fmt.Errorf("failed to prepare sample copy: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, runID, row.body, row.idx, row.pos.X1, row.pos.X2); err != nil {
			return fmt.Errorf("failed to copy sample %s/%d: %w", row.body, row.idx, err)
		}
	}

	// An empty Exec flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to flush sample copy: %w", err)
	}
	return nil
}

// GetRun loads a run with its samples.
func (r *RunRepository) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	row := r.db.QueryRowContext(ctx, selectRunColumns+` FROM runs WHERE id = $1`, id)

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rec.Ship, rec.Destination, err = r.GetSamples(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetSamples loads the ship and destination trajectories of a run.
func (r *RunRepository) GetSamples(ctx context.Context, id uuid.UUID) (ship, destination []coordinates.V2, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT body, idx, x1, x2 FROM run_samples WHERE run_id = $1 ORDER BY body, idx`,
		id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []sampleRow
	for rows.Next() {
		var s sampleRow
		if err := rows.Scan(&s.body, &s.idx, &s.pos.X1, &s.pos.X2); err != nil {
			return nil, nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read samples: %w", err)
	}

	ship, destination = splitSamples(samples)
	return ship, destination, nil
}

// ListRuns returns the most recent runs without their samples.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		selectRunColumns+` FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

// ListSweep returns every run that belongs to a sweep, in creation order.
func (r *RunRepository) ListSweep(ctx context.Context, sweepID uuid.UUID) ([]RunRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		selectRunColumns+` FROM runs WHERE sweep_id = $1 ORDER BY created_at, id`,
		sweepID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweep: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

const selectRunColumns = `SELECT id, sweep_id, kind, drift,
	s0, v, l, fi, n, k, epsilon,
	v_destination, a_min, a_max, seed,
	status, steps, tau, total_time, final_distance, error, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var (
		rec    RunRecord
		seed   sql.NullInt64
		status string
	)
	p := &rec.Params

	err := s.Scan(
		&rec.ID, &rec.SweepID, &rec.Kind, &rec.Drift,
		&p.S0, &p.V, &p.L, &p.Fi, &p.N, &p.K, &p.Epsilon,
		&p.VDestination, &p.AMin, &p.AMax, &seed,
		&status, &rec.Steps, &rec.Tau, &rec.TotalTime, &rec.FinalDistance, &rec.Error, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = navigation.Status(status)
	if seed.Valid {
		v := uint64(seed.Int64)
		rec.Seed = &v
	}
	return &rec, nil
}

// seedValue maps an optional seed onto a nullable BIGINT.
// Seeds above MaxInt64 wrap; they round-trip through uint64 unchanged.
func seedValue(seed *uint64) sql.NullInt64 {
	if seed == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*seed), Valid: true}
}

type sampleRow struct {
	body string
	idx  int
	pos  coordinates.V2
}

func sampleRows(rec RunRecord) []sampleRow {
	rows := make([]sampleRow, 0, len(rec.Ship)+len(rec.Destination))
	for i, p := range rec.Ship {
		rows = append(rows, sampleRow{body: bodyShip, idx: i, pos: p})
	}
	for i, p := range rec.Destination {
		rows = append(rows, sampleRow{body: bodyDestination, idx: i, pos: p})
	}
	return rows
}

// splitSamples rebuilds both trajectories, placing each sample at its index.
func splitSamples(rows []sampleRow) (ship, destination []coordinates.V2) {
	place := func(dst []coordinates.V2, r sampleRow) []coordinates.V2 {
		for len(dst) <= r.idx {
			dst = append(dst, coordinates.V2{})
		}
		dst[r.idx] = r.pos
		return dst
	}

	for _, r := range rows {
		switch r.body {
		case bodyShip:
			ship = place(ship, r)
		case bodyDestination:
			destination = place(destination, r)
		}
	}
	return ship, destination
}
