package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore, used in demo
// mode and tests. Rows are append-only, like the Postgres tables they stand
// in for.
type ResultStore struct {
	clock func() time.Time

	mu     sync.RWMutex
	scores map[string][]domain.StoredScore
	stats  map[string][]StatsSnapshot
}

// StatsSnapshot is one recorded stats computation with its timestamp.
type StatsSnapshot struct {
	Stats      domain.QuestionStats
	RecordedAt time.Time
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		clock:  time.Now,
		scores: make(map[string][]domain.StoredScore),
		stats:  make(map[string][]StatsSnapshot),
	}
}

// NewResultStoreWithClock is test-only for deterministic timestamps.
func NewResultStoreWithClock(clock func() time.Time) *ResultStore {
	store := NewResultStore()
	store.clock = clock
	return store
}

func (s *ResultStore) RecordFinalScore(_ context.Context, quizID, displayName string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[quizID] = append(s.scores[quizID], domain.StoredScore{
		DisplayName: displayName,
		Score:       score,
		SubmittedAt: s.clock(),
	})
	return nil
}

func (s *ResultStore) FetchLeaderboard(_ context.Context, quizID string) ([]domain.StoredScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.StoredScore, len(s.scores[quizID]))
	copy(rows, s.scores[quizID])

	// Same ordering as the SQL query: score DESC, submitted_at ASC.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].SubmittedAt.Before(rows[j].SubmittedAt)
	})
	return rows, nil
}

func (s *ResultStore) RecordQuestionStats(_ context.Context, quizID string, stats domain.QuestionStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[quizID] = append(s.stats[quizID], StatsSnapshot{
		Stats:      stats,
		RecordedAt: s.clock(),
	})
	return nil
}

// StatsSnapshots returns the recorded snapshots for a quiz, oldest first.
func (s *ResultStore) StatsSnapshots(quizID string) []StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StatsSnapshot, len(s.stats[quizID]))
	copy(out, s.stats[quizID])
	return out
}
