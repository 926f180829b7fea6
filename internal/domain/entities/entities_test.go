package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viortio/core/internal/domain/entities"
)

func TestValidNickname(t *testing.T) {
	valid := []string{"alice_1", "bob-22", "ABCD", "a_b-c_d"}
	for _, nickname := range valid {
		assert.True(t, entities.ValidNickname(nickname), nickname)
	}

	invalid := []string{"", "abc", "has spaces", "dot.ted", "p@ss"}
	for _, nickname := range invalid {
		assert.False(t, entities.ValidNickname(nickname), nickname)
	}
}

func TestTaskActive(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	task := &entities.Task{StartDate: now.Add(-time.Hour)}
	assert.True(t, task.Active(now))

	task.StartDate = now
	assert.True(t, task.Active(now))

	task.StartDate = now.Add(time.Hour)
	assert.False(t, task.Active(now))

	task.StartDate = now.Add(-time.Hour)
	task.Complete = true
	assert.False(t, task.Active(now))
}

func TestParseTimeLayouts(t *testing.T) {
	want := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	for _, value := range []string{
		"2026-09-15 00:00:00",
		"2026-09-15",
		"2026-09-15T00:00:00Z",
	} {
		got, err := entities.ParseTime(value)
		require.NoError(t, err, value)
		assert.True(t, got.Equal(want), value)
	}

	_, err := entities.ParseTime("next tuesday")
	assert.Error(t, err)
}

func TestFormatTimeRoundTrip(t *testing.T) {
	orig := time.Date(2026, 9, 15, 8, 30, 0, 0, time.UTC)

	parsed, err := entities.ParseTime(entities.FormatTime(orig))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(orig))
}
