package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results", "catan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(ended time.Time) models.GameResult {
	return models.GameResult{
		GameID:    uuid.New(),
		Winner:    2,
		Reason:    "victory",
		StartedAt: ended.Add(-time.Hour),
		EndedAt:   ended,
		Players: []models.PlayerResult{
			{PlayerID: 1, Name: "Ada", Color: models.Red, Points: 7, Knights: 1},
			{PlayerID: 2, Name: "Bo", Color: models.Blue, Points: 10, Knights: 3, HasLargestArmy: true},
		},
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	older := sampleResult(now.Add(-time.Hour))
	newer := sampleResult(now)
	newer.Winner = 0
	newer.Aborted = true
	newer.Reason = "not enough players"

	require.NoError(t, s.RecordGameResult(ctx, older))
	require.NoError(t, s.RecordGameResult(ctx, newer))

	got, err := s.RecentResults(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, newer.GameID, got[0].GameID)
	assert.True(t, got[0].Aborted)
	assert.Equal(t, "not enough players", got[0].Reason)

	assert.Equal(t, older.GameID, got[1].GameID)
	assert.False(t, got[1].Aborted)
	assert.Equal(t, 2, got[1].Winner)
	assert.True(t, older.EndedAt.Equal(got[1].EndedAt))
	require.Len(t, got[1].Players, 2)
	assert.Equal(t, 2, got[1].Players[0].PlayerID, "ordered by points")
	assert.True(t, got[1].Players[0].HasLargestArmy)
	assert.Equal(t, models.Red, got[1].Players[1].Color)

	limited, err := s.RecentResults(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStoreRecordIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := sampleResult(time.Now())
	require.NoError(t, s.RecordGameResult(ctx, r))
	r.Players[0].Points = 8
	require.NoError(t, s.RecordGameResult(ctx, r))

	got, err := s.RecentResults(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Players, 2)
	assert.Equal(t, 8, got[0].Players[1].Points)
}

func TestSQLiteMigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catan.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	var count int
	require.NoError(t, s.conn.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}
