package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/game"
	"github.com/cbodonnell/memorymatch/pkg/game/types"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/repositories"
	"github.com/cbodonnell/memorymatch/pkg/repositories/models"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultRetryInterval is how often failed score submissions are retried.
	DefaultRetryInterval = 10 * time.Second
	// MaxPendingScores bounds the submissions kept for retry.
	MaxPendingScores = 1000
)

// SaveScoreWorker records the winner of every finished round on the leaderboard.
// Submissions that fail are retried on an interval; the submission id keeps retries idempotent.
type SaveScoreWorker struct {
	repository    repositories.Repository
	summaries     <-chan game.RoundSummary
	clock         clockwork.Clock
	retryInterval time.Duration
	pending       []*models.Score
}

type NewSaveScoreWorkerOptions struct {
	Repository    repositories.Repository
	Summaries     <-chan game.RoundSummary
	Clock         clockwork.Clock
	RetryInterval time.Duration
}

// NewSaveScoreWorker creates a new SaveScoreWorker.
func NewSaveScoreWorker(opts NewSaveScoreWorkerOptions) *SaveScoreWorker {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	return &SaveScoreWorker{
		repository:    opts.Repository,
		summaries:     opts.Summaries,
		clock:         opts.Clock,
		retryInterval: opts.RetryInterval,
	}
}

func (w *SaveScoreWorker) Start(ctx context.Context) {
	ticker := w.clock.NewTicker(w.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case summary := <-w.summaries:
			score, ok := ScoreFromSummary(summary)
			if !ok {
				log.Room(summary.RoomCode).Debug("Round %d ended in a draw, nothing to record", summary.Round)
				continue
			}
			if err := w.save(ctx, score); err != nil {
				log.Room(summary.RoomCode).Error("Failed to save score: %v", err)
				w.retryLater(score)
			}
		case <-ticker.Chan():
			w.retryPending(ctx)
		}
	}
}

// ScoreFromSummary builds the leaderboard entry of a round. Draws have no entry.
// The winner is credited with the pair evaluations made on their own turns.
func ScoreFromSummary(summary game.RoundSummary) (*models.Score, bool) {
	winner := summary.Result.WinnerID
	if winner == "" || winner == types.WinnerDraw {
		return nil, false
	}
	moves, ok := summary.Result.PlayerMoves[winner]
	if !ok {
		moves = summary.Result.Moves
	}
	return &models.Score{
		SubmissionID:   fmt.Sprintf("%s-%d", summary.RoomCode, summary.Round),
		Player:         winner,
		Difficulty:     string(summary.Difficulty),
		Moves:          moves,
		ElapsedSeconds: summary.Elapsed.Seconds(),
	}, true
}

func (w *SaveScoreWorker) save(ctx context.Context, score *models.Score) error {
	saved, err := w.repository.SaveScore(ctx, score)
	if err != nil {
		return err
	}
	log.Info("Recorded score %s for %s: %d moves in %.1fs", saved.SubmissionID, saved.Player, saved.Moves, saved.ElapsedSeconds)
	return nil
}

func (w *SaveScoreWorker) retryLater(score *models.Score) {
	if len(w.pending) >= MaxPendingScores {
		log.Warn("Dropping score %s, too many pending submissions", w.pending[0].SubmissionID)
		w.pending = w.pending[1:]
	}
	w.pending = append(w.pending, score)
}

func (w *SaveScoreWorker) retryPending(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	remaining := w.pending[:0]
	for _, score := range w.pending {
		err := w.save(ctx, score)
		switch {
		case err == nil:
		case repositories.IsInvalid(err):
			log.Warn("Discarding invalid score %s: %v", score.SubmissionID, err)
		default:
			log.Error("Failed to save score %s: %v", score.SubmissionID, err)
			remaining = append(remaining, score)
		}
	}
	w.pending = remaining
}
