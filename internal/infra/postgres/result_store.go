package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"live-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultStore persists final scores and stats snapshots to Postgres. All
// writes are plain appends; the leaderboard query orders by score, then by
// who finished first.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) RecordFinalScore(ctx context.Context, quizID, displayName string, score int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO participants (quiz_id, name, score) VALUES ($1, $2, $3)`,
		quizID, displayName, score)
	if err != nil {
		return fmt.Errorf("record final score: %w", err)
	}
	return nil
}

func (s *ResultStore) FetchLeaderboard(ctx context.Context, quizID string) ([]domain.StoredScore, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, score, submitted_at FROM participants WHERE quiz_id=$1 ORDER BY score DESC, submitted_at ASC`,
		quizID)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var board []domain.StoredScore
	for rows.Next() {
		var row domain.StoredScore
		if err := rows.Scan(&row.DisplayName, &row.Score, &row.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		board = append(board, row)
	}
	return board, rows.Err()
}

func (s *ResultStore) RecordQuestionStats(ctx context.Context, quizID string, stats domain.QuestionStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO question_stats (quiz_id, question_id, stats) VALUES ($1, $2, $3::jsonb)`,
		quizID, stats.QuestionID, string(data))
	if err != nil {
		return fmt.Errorf("record question stats: %w", err)
	}
	return nil
}
