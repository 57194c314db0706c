package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"nutriplan/internal/shared"
	"nutriplan/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestRecordAndDailyUsage(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Record(ExecutionMetric{
		AgentName:        "Validator",
		Model:            "gemini-2.5-flash",
		PromptTokens:     120,
		CompletionTokens: 30,
		LatencyMS:        450,
	}))
	require.NoError(t, s.Record(ExecutionMetric{
		AgentName:        "Generator",
		Model:            "gemini-2.5-flash",
		PromptTokens:     300,
		CompletionTokens: 200,
		LatencyMS:        2100,
	}))

	usage, err := s.GetDailyUsage(7)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 420, usage[0].TotalPrompt)
	assert.Equal(t, 230, usage[0].TotalCompletion)
	assert.Equal(t, 2, usage[0].TotalExecution)
}

func TestRecordMetaSkipsZeroUsage(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.RecordMeta(shared.AgentMeta{AgentName: "Validator"}))

	usage, err := s.GetDailyUsage(7)
	require.NoError(t, err)
	assert.Empty(t, usage)

	require.NoError(t, s.RecordMeta(shared.AgentMeta{
		AgentName: "Validator",
		Usage:     shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, Model: "gemini-2.5-flash"},
		Latency:   300 * time.Millisecond,
	}))

	usage, err = s.GetDailyUsage(7)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 10, usage[0].TotalPrompt)
}

func TestCleanup(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Record(ExecutionMetric{
		AgentName: "Validator",
		Model:     "gemini-2.5-flash",
		Timestamp: time.Now().UTC().AddDate(0, 0, -30),
	}))
	require.NoError(t, s.Record(ExecutionMetric{
		AgentName: "Generator",
		Model:     "gemini-2.5-flash",
	}))

	removed, err := s.Cleanup(14)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	usage, err := s.GetDailyUsage(60)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].TotalExecution)
}
