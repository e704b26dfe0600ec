package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicatorFirstOccurrencePasses(t *testing.T) {
	dedup := NewDeduplicator()

	assert.False(t, dedup.IsDuplicate(1))
	assert.True(t, dedup.IsDuplicate(1))
	assert.False(t, dedup.IsDuplicate(2))
	assert.True(t, dedup.IsDuplicate(2))
	assert.Equal(t, 2, dedup.UniqueCount())
}

func TestDeduplicatorClear(t *testing.T) {
	dedup := NewDeduplicator()
	dedup.IsDuplicate(1)
	dedup.IsDuplicate(2)

	dedup.Clear()

	assert.Equal(t, 0, dedup.UniqueCount())
	assert.False(t, dedup.IsDuplicate(1))
}
