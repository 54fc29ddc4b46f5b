package store

import (
	"path/filepath"
	"testing"
	"time"

	"git.lost.host/meutraa/rushline/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFlags(t *testing.T) {
	s := openTemp(t)
	ok, err := s.Flag("unlock_normal")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetFlag("unlock_normal"))
	require.NoError(t, s.SetFlag("unlock_normal"))
	ok, err = s.Flag("unlock_normal")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = s.Flag("unlock_hard")
	assert.False(t, ok)
}

func TestScoreCacheKeepsMax(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.SaveField("u1", game.FieldLevel2, 500))
	require.NoError(t, s.SaveField("u1", game.FieldLevel2, 300))
	require.NoError(t, s.SaveField("u1", game.FieldLevel1Easy, 9000))
	require.NoError(t, s.SaveField("u2", game.FieldLevel1Easy, 10))

	entry, err := s.LoadEntry("u1")
	require.NoError(t, err)
	assert.Equal(t, game.ScoreEntry{Level1Easy: 9000, Level2Score: 500}, entry)

	entry, err = s.LoadEntry("nobody")
	require.NoError(t, err)
	assert.Equal(t, game.ScoreEntry{}, entry)
}

func TestResults(t *testing.T) {
	s := openTemp(t)
	base := time.UnixMilli(1_700_000_000_000)
	for i, score := range []int{100, 300, 200} {
		s.SaveResult(Result{
			ID:         string(rune('a' + i)),
			UserID:     "u1",
			Level:      game.Easy,
			Score:      score,
			Rank:       "D",
			Tally:      game.Tally{PerfectCount: i},
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	results := s.Results("u1", game.Easy, 2)
	require.Len(t, results, 2)
	assert.Equal(t, 200, results[0].Score)
	assert.Equal(t, 300, results[1].Score)
	assert.Equal(t, 2, results[0].Tally.PerfectCount)
	assert.Empty(t, s.Results("u1", game.Hard, 10))
}
