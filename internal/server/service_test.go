package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/urbanflux/complaints-etl/internal/models"
)

// MockStore is a mock implementation of the database.Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) InitSchema() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStore) RefreshViews(concurrently bool) error {
	args := m.Called(concurrently)
	return args.Error(0)
}

func (m *MockStore) BulkInsertComplaints(records []*models.Complaint) (int64, error) {
	args := m.Called(records)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CountComplaints() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) StartRun(mode models.RunMode, sourceFile, checksum string) (uuid.UUID, error) {
	args := m.Called(mode, sourceFile, checksum)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockStore) CompleteRun(runID uuid.UUID, stats models.RunStats, lastCreatedAt *time.Time, lastUniqueKey *int64) error {
	args := m.Called(runID, stats, lastCreatedAt, lastUniqueKey)
	return args.Error(0)
}

func (m *MockStore) FailRun(runID uuid.UUID, message string) error {
	args := m.Called(runID, message)
	return args.Error(0)
}

func (m *MockStore) LastWatermark() (*models.Watermark, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Watermark), args.Error(1)
}

func (m *MockStore) LatestRun() (*models.Run, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Run), args.Error(1)
}

func TestGetLatestRun(t *testing.T) {
	completedAt := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	run := &models.Run{
		RunID:       uuid.New(),
		Mode:        models.ModeFull,
		Status:      models.StatusCompleted,
		StartedAt:   completedAt.Add(-time.Hour),
		CompletedAt: &completedAt,
		Stats:       models.RunStats{RowsRead: 100, RowsInserted: 95, RowsRejected: 5},
	}

	store := new(MockStore)
	store.On("LatestRun").Return(run, nil)

	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	rec := httptest.NewRecorder()

	NewRunService(store).GetLatestRun(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got models.Run
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, int64(100), got.Stats.RowsRead)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestGetLatestRunWithoutRuns(t *testing.T) {
	store := new(MockStore)
	store.On("LatestRun").Return(nil, nil)

	rec := httptest.NewRecorder()
	NewRunService(store).GetLatestRun(rec, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLatestRunStoreError(t *testing.T) {
	store := new(MockStore)
	store.On("LatestRun").Return(nil, fmt.Errorf("boom"))

	rec := httptest.NewRecorder()
	NewRunService(store).GetLatestRun(rec, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetComplaintCount(t *testing.T) {
	store := new(MockStore)
	store.On("CountComplaints").Return(int64(12345), nil)

	rec := httptest.NewRecorder()
	NewRunService(store).GetComplaintCount(rec, httptest.NewRequest(http.MethodGet, "/complaints/count", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]int64
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(12345), got["count"])
}
