package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/cbodonnell/memorymatch/pkg/repositories/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()
	ctx := context.Background()
	repository, err := NewSQLiteRepository(ctx, filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(ctx) })
	return repository
}

func score(id string, player string, difficulty string, moves int, elapsed float64) *models.Score {
	return &models.Score{
		SubmissionID:   id,
		Player:         player,
		Difficulty:     difficulty,
		Moves:          moves,
		ElapsedSeconds: elapsed,
	}
}

func TestSQLiteRepository_SaveScore(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	saved, err := repository.SaveScore(ctx, score("AB12-1", "Alice Smith", "easy", 12, 41.5))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "alice-smith", saved.PlayerSlug)
	assert.Equal(t, 12, saved.Moves)
	assert.False(t, saved.CreatedAt.IsZero())

	// a retried submission keeps the first stored score
	retried, err := repository.SaveScore(ctx, score("AB12-1", "Alice Smith", "easy", 99, 100))
	require.NoError(t, err)
	assert.Equal(t, saved.ID, retried.ID)
	assert.Equal(t, 12, retried.Moves)

	got, err := repository.GetScore(ctx, "AB12-1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestSQLiteRepository_SaveScoreInvalid(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		score *models.Score
	}{
		{name: "missing submission id", score: score("", "alice", "easy", 10, 1)},
		{name: "missing player", score: score("x-1", "", "easy", 10, 1)},
		{name: "unknown difficulty", score: score("x-2", "alice", "insane", 10, 1)},
		{name: "no moves", score: score("x-3", "alice", "easy", 0, 1)},
		{name: "negative time", score: score("x-4", "alice", "easy", 10, -1)},
		{name: "unsluggable name", score: score("x-5", "!!!", "easy", 10, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repository.SaveScore(ctx, tt.score)
			require.Error(t, err)
			assert.True(t, IsInvalid(err))
		})
	}
}

func TestSQLiteRepository_GetScoreNotFound(t *testing.T) {
	repository := newTestRepository(t)

	_, err := repository.GetScore(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestSQLiteRepository_TopScores(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	for _, s := range []*models.Score{
		score("a", "alice", "easy", 14, 30),
		score("b", "bob", "easy", 10, 50),
		score("c", "carol", "easy", 10, 20),
		score("d", "dave", "medium", 5, 10),
	} {
		_, err := repository.SaveScore(ctx, s)
		require.NoError(t, err)
	}

	top, err := repository.TopScores(ctx, "easy", 10)
	require.NoError(t, err)
	var ids []string
	for _, s := range top {
		ids = append(ids, s.SubmissionID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)

	top, err = repository.TopScores(ctx, "hard", 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestSQLiteRepository_TopScoresLimit(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := repository.SaveScore(ctx, score(fmt.Sprintf("s-%d", i), "alice", "hard", 30+i, 60))
		require.NoError(t, err)
	}

	top, err := repository.TopScores(ctx, "hard", 0)
	require.NoError(t, err)
	assert.Len(t, top, DefaultTopScoresLimit)
	assert.Equal(t, 30, top[0].Moves)

	top, err = repository.TopScores(ctx, "hard", 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)
}

func TestSQLiteRepository_PlayerScores(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	_, err := repository.SaveScore(ctx, score("1", "Alice Smith", "easy", 12, 40))
	require.NoError(t, err)
	_, err = repository.SaveScore(ctx, score("2", "alice smith", "medium", 20, 80))
	require.NoError(t, err)
	_, err = repository.SaveScore(ctx, score("3", "bob", "easy", 9, 30))
	require.NoError(t, err)

	scores, err := repository.PlayerScores(ctx, "alice-smith")
	require.NoError(t, err)
	assert.Len(t, scores, 2)

	_, err = repository.PlayerScores(ctx, "nobody")
	assert.True(t, IsNotFound(err))
}

func TestNewRepository(t *testing.T) {
	ctx := context.Background()

	repository, err := NewRepository(ctx, "sqlite://"+filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	require.NoError(t, repository.Close(ctx))

	tests := []string{
		"mysql://localhost/scores",
		"sqlite://",
		"://bad",
	}
	for _, connStr := range tests {
		t.Run(connStr, func(t *testing.T) {
			_, err := NewRepository(ctx, connStr)
			assert.Error(t, err)
		})
	}
}
