package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/urbanflux/complaints-etl/internal/models"
)

// StartRun persists a fresh run record in the running state and returns
// its identifier.
func (m *PostgresDBManager) StartRun(mode models.RunMode, sourceFile, checksum string) (uuid.UUID, error) {
	runID := uuid.New()

	query := `
	INSERT INTO etl_runs (run_id, run_mode, status, source_file, checksum, started_at)
	VALUES ($1, $2, $3, $4, $5, now());`

	_, err := m.dbpool.Exec(m.ctx, query, runID, string(mode), string(models.StatusRunning), sourceFile, checksum)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error starting run: %w", err)
	}

	return runID, nil
}

// CompleteRun marks the run completed with its final statistics and the
// resume point for the next incremental run. Called at most once per run.
func (m *PostgresDBManager) CompleteRun(runID uuid.UUID, stats models.RunStats, lastCreatedAt *time.Time, lastUniqueKey *int64) error {
	query := `
	UPDATE etl_runs
	SET status = $2,
		completed_at = now(),
		last_created_at = $3,
		last_unique_key = $4,
		rows_read = $5,
		rows_parsed = $6,
		rows_validated = $7,
		rows_inserted = $8,
		rows_duplicated = $9,
		rows_rejected = $10,
		parse_errors = $11,
		validation_errors = $12
	WHERE run_id = $1;`

	_, err := m.dbpool.Exec(m.ctx, query, runID, string(models.StatusCompleted),
		lastCreatedAt, lastUniqueKey,
		stats.RowsRead, stats.RowsParsed, stats.RowsValidated, stats.RowsInserted,
		stats.RowsDuplicated, stats.RowsRejected, stats.ParseErrors, stats.ValidationErrors)
	if err != nil {
		return fmt.Errorf("error completing run %s: %w", runID, err)
	}

	return nil
}

// FailRun marks the run failed and records the error message.
func (m *PostgresDBManager) FailRun(runID uuid.UUID, message string) error {
	query := `
	UPDATE etl_runs
	SET status = $2,
		completed_at = now(),
		error_message = $3
	WHERE run_id = $1;`

	_, err := m.dbpool.Exec(m.ctx, query, runID, string(models.StatusFailed), message)
	if err != nil {
		return fmt.Errorf("error failing run %s: %w", runID, err)
	}

	return nil
}

// LastWatermark returns the resume point of the most recently completed
// run, or nil if no run has ever completed. Failed runs are never a
// watermark source.
func (m *PostgresDBManager) LastWatermark() (*models.Watermark, error) {
	query := `
	SELECT run_id, run_mode, last_created_at, last_unique_key
	FROM etl_runs
	WHERE status = $1
	ORDER BY completed_at DESC
	LIMIT 1;`

	var (
		wm      models.Watermark
		modeStr string
	)
	err := m.dbpool.QueryRow(m.ctx, query, string(models.StatusCompleted)).
		Scan(&wm.RunID, &modeStr, &wm.LastCreatedAt, &wm.LastUniqueKey)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying last watermark: %w", err)
	}

	mode, err := models.ParseRunMode(modeStr)
	if err != nil {
		return nil, err
	}
	wm.Mode = mode

	return &wm, nil
}

// LatestRun returns the most recently started run regardless of status,
// for the reporting surface. Returns nil when no run exists.
func (m *PostgresDBManager) LatestRun() (*models.Run, error) {
	query := `
	SELECT run_id, run_mode, status, COALESCE(source_file, ''), COALESCE(checksum, ''),
		started_at, completed_at, last_created_at, last_unique_key,
		rows_read, rows_parsed, rows_validated, rows_inserted,
		rows_duplicated, rows_rejected, parse_errors, validation_errors,
		COALESCE(error_message, '')
	FROM etl_runs
	ORDER BY started_at DESC
	LIMIT 1;`

	var (
		run       models.Run
		modeStr   string
		statusStr string
	)
	err := m.dbpool.QueryRow(m.ctx, query).Scan(
		&run.RunID, &modeStr, &statusStr, &run.SourceFile, &run.Checksum,
		&run.StartedAt, &run.CompletedAt, &run.LastCreatedAt, &run.LastUniqueKey,
		&run.Stats.RowsRead, &run.Stats.RowsParsed, &run.Stats.RowsValidated, &run.Stats.RowsInserted,
		&run.Stats.RowsDuplicated, &run.Stats.RowsRejected, &run.Stats.ParseErrors, &run.Stats.ValidationErrors,
		&run.ErrorMessage)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying latest run: %w", err)
	}

	mode, err := models.ParseRunMode(modeStr)
	if err != nil {
		return nil, err
	}
	status, err := models.ParseRunStatus(statusStr)
	if err != nil {
		return nil, err
	}
	run.Mode = mode
	run.Status = status

	return &run, nil
}
