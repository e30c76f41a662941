package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database and applies the migrations.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	if err := pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %v", err)
	}
	log.Info("Connected to %s as %s", database, username)

	scripts, err := readMigrations("postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}
	for i, migration := range scripts {
		if _, err := pool.Exec(ctx, migration); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %v", i+1, err)
		}
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) SaveScore(ctx context.Context, score *models.Score) (*models.Score, error) {
	prepared, err := prepareScore(score, time.Now())
	if err != nil {
		return nil, err
	}

	q := `
	INSERT INTO scores (submission_id, player, player_slug, difficulty, moves, elapsed_seconds, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (submission_id) DO NOTHING;
	`
	_, err = r.pool.Exec(ctx, q,
		prepared.SubmissionID,
		prepared.Player,
		prepared.PlayerSlug,
		prepared.Difficulty,
		prepared.Moves,
		prepared.ElapsedSeconds,
		prepared.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert score: %v", err)
	}

	return r.GetScore(ctx, prepared.SubmissionID)
}

func (r *PostgresRepository) GetScore(ctx context.Context, submissionID string) (*models.Score, error) {
	q := `
	SELECT id, submission_id, player, player_slug, difficulty, moves, elapsed_seconds, created_at
	FROM scores WHERE submission_id = $1;
	`
	score, err := scanScore(r.pool.QueryRow(ctx, q, submissionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan score: %v", err)
	}
	return score, nil
}

func (r *PostgresRepository) TopScores(ctx context.Context, difficulty string, limit int) ([]*models.Score, error) {
	q := `
	SELECT id, submission_id, player, player_slug, difficulty, moves, elapsed_seconds, created_at
	FROM scores WHERE difficulty = $1
	ORDER BY moves ASC, elapsed_seconds ASC, created_at ASC, id ASC
	LIMIT $2;
	`
	rows, err := r.pool.Query(ctx, q, difficulty, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %v", err)
	}
	defer rows.Close()
	return collectScores(rows)
}

func (r *PostgresRepository) PlayerScores(ctx context.Context, player string) ([]*models.Score, error) {
	q := `
	SELECT id, submission_id, player, player_slug, difficulty, moves, elapsed_seconds, created_at
	FROM scores WHERE player_slug = $1
	ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.pool.Query(ctx, q, PlayerKey(player))
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %v", err)
	}
	defer rows.Close()

	scores, err := collectScores(rows)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, &ErrNotFound{}
	}
	return scores, nil
}

func collectScores(rows pgx.Rows) ([]*models.Score, error) {
	scores := []*models.Score{}
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %v", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %v", err)
	}
	return scores, nil
}
