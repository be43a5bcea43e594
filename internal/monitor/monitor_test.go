package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStatus(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewService(Dependencies{
		Sessions:       func() []string { return []string{"1", "3"} },
		PendingLookups: func() int { return 7 },
		StartedAt:      start,
	})
	s.now = func() time.Time { return start.Add(90 * time.Second) }

	status := s.GetStatus()
	assert.Equal(t, 2, status.ActiveSessions)
	assert.Equal(t, []string{"1", "3"}, status.SessionIDs)
	assert.Equal(t, 7, status.PendingLookups)
	assert.Equal(t, "1m30s", status.Uptime)
	assert.Positive(t, status.Goroutines)
}

func TestGetStatus_NoSources(t *testing.T) {
	status := NewService(Dependencies{}).GetStatus()
	assert.Zero(t, status.ActiveSessions)
	assert.Empty(t, status.SessionIDs)
	assert.NotNil(t, status.SessionIDs)
	assert.Zero(t, status.PendingLookups)
}

func TestWriteStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{
		Sessions:   func() []string { return []string{"9"} },
		StatusPath: path,
	})

	require.NoError(t, s.WriteStatus())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var status Status
	require.NoError(t, json.Unmarshal(data, &status))
	assert.Equal(t, 1, status.ActiveSessions)
	assert.Equal(t, []string{"9"}, status.SessionIDs)
}

func TestWriteStatus_NoPath(t *testing.T) {
	assert.NoError(t, NewService(Dependencies{}).WriteStatus())
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{StatusPath: path, Interval: 5 * time.Millisecond})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}
