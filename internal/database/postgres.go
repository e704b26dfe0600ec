package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/urbanflux/complaints-etl/internal/models"
)

// insertBatchSize bounds the number of rows per INSERT statement. Each row
// binds complaintColumnCount parameters and Postgres caps a statement at
// 65535 bind parameters.
const (
	insertBatchSize      = 1000
	complaintColumnCount = 8
)

func ConnectDB(connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return dbpool, nil
}

type PostgresDBManager struct {
	dbpool *pgxpool.Pool
	ctx    context.Context
}

func NewPostgresDBManager(ctx context.Context, pool *pgxpool.Pool) *PostgresDBManager {
	return &PostgresDBManager{dbpool: pool, ctx: ctx}
}

func (m *PostgresDBManager) InitSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS complaints (
			unique_key BIGINT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			closed_at TIMESTAMPTZ,
			complaint_type TEXT NOT NULL,
			descriptor TEXT,
			borough VARCHAR(20),
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION
		);`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_created_at ON complaints (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_complaints_type ON complaints (complaint_type);`,
		`CREATE TABLE IF NOT EXISTS etl_runs (
			run_id UUID PRIMARY KEY,
			run_mode VARCHAR(20) NOT NULL CHECK (run_mode IN ('full', 'incremental')),
			status VARCHAR(20) NOT NULL CHECK (status IN ('running', 'completed', 'failed')),
			source_file TEXT,
			checksum VARCHAR(64),
			started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ,
			last_created_at TIMESTAMPTZ,
			last_unique_key BIGINT,
			rows_read BIGINT NOT NULL DEFAULT 0,
			rows_parsed BIGINT NOT NULL DEFAULT 0,
			rows_validated BIGINT NOT NULL DEFAULT 0,
			rows_inserted BIGINT NOT NULL DEFAULT 0,
			rows_duplicated BIGINT NOT NULL DEFAULT 0,
			rows_rejected BIGINT NOT NULL DEFAULT 0,
			parse_errors BIGINT NOT NULL DEFAULT 0,
			validation_errors BIGINT NOT NULL DEFAULT 0,
			error_message TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_etl_runs_completed ON etl_runs (status, completed_at DESC);`,
	}

	for _, query := range queries {
		if _, err := m.dbpool.Exec(m.ctx, query); err != nil {
			return fmt.Errorf("error initializing schema: %w", err)
		}
	}

	return nil
}

// BulkInsertComplaints commits one batch of clean records as a single
// transaction, skipping rows whose unique_key already exists. It returns
// the count of rows actually inserted; skipped rows are not counted.
func (m *PostgresDBManager) BulkInsertComplaints(records []*models.Complaint) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := m.dbpool.Begin(m.ctx)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(m.ctx)

	var inserted int64
	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		query, args := buildInsertQuery(batch)
		tag, err := tx.Exec(m.ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("error bulk inserting complaints: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(m.ctx); err != nil {
		return 0, fmt.Errorf("error committing bulk insert: %w", err)
	}

	log.Printf("Bulk insert: %d of %d records newly inserted", inserted, len(records))
	return inserted, nil
}

func buildInsertQuery(batch []*models.Complaint) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO complaints (unique_key, created_at, closed_at, complaint_type, descriptor, borough, latitude, longitude) VALUES `)

	args := make([]interface{}, 0, len(batch)*complaintColumnCount)
	for i, record := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * complaintColumnCount
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))

		var borough interface{}
		if record.Borough != nil {
			borough = record.Borough.String()
		}
		var lat, lon interface{}
		if record.Position != nil {
			lat = record.Position.Latitude
			lon = record.Position.Longitude
		}
		var descriptor interface{}
		if record.Descriptor != "" {
			descriptor = record.Descriptor
		}

		args = append(args, record.UniqueKey, record.CreatedAt, record.ClosedAt,
			record.ComplaintType, descriptor, borough, lat, lon)
	}

	sb.WriteString(" ON CONFLICT (unique_key) DO NOTHING")
	return sb.String(), args
}

func (m *PostgresDBManager) CountComplaints() (int64, error) {
	var count int64
	err := m.dbpool.QueryRow(m.ctx, `SELECT COUNT(*) FROM complaints`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting complaints: %w", err)
	}

	return count, nil
}

// RefreshViews refreshes the reporting materialized views. The view
// definitions live with the schema-management tooling; this only triggers
// the refresh.
func (m *PostgresDBManager) RefreshViews(concurrently bool) error {
	keyword := ""
	if concurrently {
		keyword = "CONCURRENTLY "
	}

	views := []string{
		"mv_complaints_by_day_borough",
		"mv_complaints_by_type_month",
	}

	for _, view := range views {
		query := fmt.Sprintf("REFRESH MATERIALIZED VIEW %s%s", keyword, view)
		if _, err := m.dbpool.Exec(m.ctx, query); err != nil {
			return fmt.Errorf("error refreshing materialized view %s: %w", view, err)
		}
		log.Printf("Refreshed materialized view %s", view)
	}

	return nil
}
