package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cbodonnell/memorymatch/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// sqlite serializes writers; one connection also keeps in-memory databases intact
	db.SetMaxOpenConns(1)

	scripts, err := readMigrations("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for i, migration := range scripts {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %v", i+1, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveScore(ctx context.Context, score *models.Score) (*models.Score, error) {
	prepared, err := prepareScore(score, time.Now())
	if err != nil {
		return nil, err
	}

	q := `
	INSERT INTO scores (submission_id, player, player_slug, difficulty, moves, elapsed_seconds, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (submission_id) DO NOTHING;
	`
	_, err = r.db.ExecContext(ctx, q,
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

func (r *SQLiteRepository) GetScore(ctx context.Context, submissionID string) (*models.Score, error) {
	q := `
	SELECT id, submission_id, player, player_slug, difficulty, moves, elapsed_seconds, created_at
	FROM scores WHERE submission_id = ?;
	`
	score, err := scanScore(r.db.QueryRowContext(ctx, q, submissionID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan score: %v", err)
	}
	return score, nil
}

func (r *SQLiteRepository) TopScores(ctx context.Context, difficulty string, limit int) ([]*models.Score, error) {
	q := `
	SELECT id, submission_id, player, player_slug, difficulty, moves, elapsed_seconds, created_at
	FROM scores WHERE difficulty = ?
	ORDER BY moves ASC, elapsed_seconds ASC, created_at ASC, id ASC
	LIMIT ?;
	`
	rows, err := r.db.QueryContext(ctx, q, difficulty, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %v", err)
	}
	defer rows.Close()
	return scanScores(rows)
}

func (r *SQLiteRepository) PlayerScores(ctx context.Context, player string) ([]*models.Score, error) {
	q := `
	SELECT id, submission_id, player, player_slug, difficulty, moves, elapsed_seconds, created_at
	FROM scores WHERE player_slug = ?
	ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.db.QueryContext(ctx, q, PlayerKey(player))
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %v", err)
	}
	defer rows.Close()

	scores, err := scanScores(rows)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, &ErrNotFound{}
	}
	return scores, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScore(row rowScanner) (*models.Score, error) {
	score := &models.Score{}
	var createdAt int64
	if err := row.Scan(
		&score.ID,
		&score.SubmissionID,
		&score.Player,
		&score.PlayerSlug,
		&score.Difficulty,
		&score.Moves,
		&score.ElapsedSeconds,
		&createdAt,
	); err != nil {
		return nil, err
	}
	score.CreatedAt = time.UnixMilli(createdAt).UTC()
	return score, nil
}

func scanScores(rows *sql.Rows) ([]*models.Score, error) {
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
