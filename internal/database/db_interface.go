package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/urbanflux/complaints-etl/internal/models"
)

// Store defines the persistence operations the pipeline depends on.
type Store interface {
	// Schema management.
	InitSchema() error
	RefreshViews(concurrently bool) error

	// Complaint storage.
	BulkInsertComplaints(records []*models.Complaint) (int64, error)
	CountComplaints() (int64, error)

	// Run tracking.
	StartRun(mode models.RunMode, sourceFile, checksum string) (uuid.UUID, error)
	CompleteRun(runID uuid.UUID, stats models.RunStats, lastCreatedAt *time.Time, lastUniqueKey *int64) error
	FailRun(runID uuid.UUID, message string) error
	LastWatermark() (*models.Watermark, error)
	LatestRun() (*models.Run, error)
}
