package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunMode declares how a pipeline run bounds its source window.
type RunMode string

const (
	ModeFull        RunMode = "full"
	ModeIncremental RunMode = "incremental"
)

func ParseRunMode(s string) (RunMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return ModeFull, nil
	case "incremental":
		return ModeIncremental, nil
	default:
		return "", fmt.Errorf("invalid run mode: %q (expected full or incremental)", s)
	}
}

// RunStatus is the run state machine: running is the only non-terminal
// state, completed and failed are final.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

func ParseRunStatus(s string) (RunStatus, error) {
	switch RunStatus(s) {
	case StatusRunning, StatusCompleted, StatusFailed:
		return RunStatus(s), nil
	default:
		return "", fmt.Errorf("invalid run status: %q", s)
	}
}

// Run is one persisted pipeline attempt. It is created as running before
// any chunk is processed and mutated exactly once at the end.
type Run struct {
	RunID         uuid.UUID  `json:"run_id"`
	Mode          RunMode    `json:"run_mode"`
	Status        RunStatus  `json:"status"`
	SourceFile    string     `json:"source_file,omitempty"`
	Checksum      string     `json:"checksum,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	LastCreatedAt *time.Time `json:"last_created_at,omitempty"`
	LastUniqueKey *int64     `json:"last_unique_key,omitempty"`
	Stats         RunStats   `json:"stats"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

// Watermark is the resume point taken from the most recently completed
// run. An incremental run only admits records strictly after it.
type Watermark struct {
	RunID         uuid.UUID
	Mode          RunMode
	LastCreatedAt *time.Time
	LastUniqueKey *int64
}

// Admits reports whether a record at (createdAt, uniqueKey) lies after the
// watermark. Ties on the timestamp are broken by the key so re-running
// never re-admits the boundary record.
func (w *Watermark) Admits(createdAt time.Time, uniqueKey int64) bool {
	if w == nil || w.LastCreatedAt == nil {
		return true
	}
	if createdAt.After(*w.LastCreatedAt) {
		return true
	}
	if createdAt.Equal(*w.LastCreatedAt) && w.LastUniqueKey != nil {
		return uniqueKey > *w.LastUniqueKey
	}
	return false
}
