package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorDeduplicatesRepeatedLogs(t *testing.T) {
	c := NewLogCollector(&CollectionConfig{Capacity: 10, Retention: time.Hour})

	for i := 0; i < 5; i++ {
		c.AddLog("error", "stream read failed", map[string]interface{}{"code": "eof"}, "stream/client.go:120")
	}
	c.AddLog("warn", "http request slow", nil, "middleware/metrics.go:95")

	logs := c.Recent()
	require.Len(t, logs, 2)

	var errEntry *AggregatedLogEntry
	for i := range logs {
		if logs[i].Level == "error" {
			errEntry = &logs[i]
		}
	}
	require.NotNil(t, errEntry)
	assert.Equal(t, 5, errEntry.Count)
	assert.False(t, errEntry.FirstSeen.After(errEntry.LastSeen))
}

func TestCollectorEvictsOldestAtCapacity(t *testing.T) {
	c := NewLogCollector(&CollectionConfig{Capacity: 2, Retention: time.Hour})

	c.AddLog("error", "first", nil, "a.go:1")
	c.AddLog("error", "second", nil, "b.go:2")
	c.AddLog("error", "third", nil, "c.go:3")

	logs := c.Recent()
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.NotEqual(t, "first", l.Message)
	}
}

func TestCollectorDropsEntriesPastRetention(t *testing.T) {
	c := NewLogCollector(&CollectionConfig{Capacity: 10, Retention: time.Millisecond})

	c.AddLog("error", "ephemeral", nil, "a.go:1")
	time.Sleep(5 * time.Millisecond)

	assert.Empty(t, c.Recent())
}

func TestLoggerRecentLogsWithoutCollector(t *testing.T) {
	l, err := New(&Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	assert.Nil(t, l.RecentLogs())
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	l, err := New(&Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	l.AddCollector(&CollectionConfig{Capacity: 10, Retention: time.Hour})

	l.Error("backend unreachable", String("url", "http://localhost:9"))

	logs := l.RecentLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "backend unreachable", logs[0].Message)
	assert.Equal(t, "http://localhost:9", logs[0].Fields["url"])
}
