package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRunMode(t *testing.T) {
	mode, err := ParseRunMode("full")
	assert.NoError(t, err)
	assert.Equal(t, ModeFull, mode)

	mode, err = ParseRunMode("  Incremental ")
	assert.NoError(t, err)
	assert.Equal(t, ModeIncremental, mode)

	_, err = ParseRunMode("partial")
	assert.Error(t, err)
}

func TestParseRunStatus(t *testing.T) {
	for _, s := range []RunStatus{StatusRunning, StatusCompleted, StatusFailed} {
		got, err := ParseRunStatus(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseRunStatus("retrying")
	assert.Error(t, err)
}

func TestWatermarkAdmitsEverythingWhenEmpty(t *testing.T) {
	var wm *Watermark
	assert.True(t, wm.Admits(time.Now(), 1))

	wm = &Watermark{Mode: ModeFull}
	assert.True(t, wm.Admits(time.Now(), 1))
}

func TestWatermarkAdmitsStrictlyAfter(t *testing.T) {
	cutoff := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	key := int64(100)
	wm := &Watermark{Mode: ModeIncremental, LastCreatedAt: &cutoff, LastUniqueKey: &key}

	assert.True(t, wm.Admits(cutoff.Add(time.Second), 1))
	assert.False(t, wm.Admits(cutoff.Add(-time.Second), 999))

	// Ties on the timestamp are broken by the key.
	assert.True(t, wm.Admits(cutoff, 101))
	assert.False(t, wm.Admits(cutoff, 100))
	assert.False(t, wm.Admits(cutoff, 99))
}
