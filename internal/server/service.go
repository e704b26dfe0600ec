package server

import (
	"encoding/json"
	"net/http"

	"github.com/urbanflux/complaints-etl/internal/database"
)

// RunService exposes read-only access to run statistics for reporting.
type RunService struct {
	DBManager database.Store
}

func NewRunService(dbManager database.Store) *RunService {
	return &RunService{DBManager: dbManager}
}

// GetLatestRun returns the most recent run record, whatever its status,
// so operators can assess data quality without inspecting logs.
func (h *RunService) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.DBManager.LatestRun()
	if err != nil {
		http.Error(w, "Failed to retrieve run information", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "No runs recorded yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(run); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// GetComplaintCount reports the total number of stored complaints.
func (h *RunService) GetComplaintCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.DBManager.CountComplaints()
	if err != nil {
		http.Error(w, "Failed to count complaints", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]int64{"count": count}); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
