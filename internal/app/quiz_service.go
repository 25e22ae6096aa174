package app

import (
	"context"
	"encoding/json"
	"log"

	"live-quiz-service/internal/domain"
)

// ResultStore persists session outcomes: final scores at finish, stats
// snapshots as they are computed. Writes are append-only and best-effort;
// the engine never reads them back.
type ResultStore interface {
	RecordFinalScore(ctx context.Context, quizID, displayName string, score int) error
	FetchLeaderboard(ctx context.Context, quizID string) ([]domain.StoredScore, error)
	RecordQuestionStats(ctx context.Context, quizID string, stats domain.QuestionStats) error
}

// EventSink mirrors session lifecycle events to an external broker.
// Implementations must not block.
type EventSink interface {
	SessionStarted(quizID string)
	QuestionStarted(quizID, questionID string)
	SessionEnded(quizID string)
}

// QuizService contains the live-session use cases. It orchestrates the
// registry, the session engine, the result store, and the optional event
// sink; all broadcasting to connected clients happens through session
// subscriptions.
type QuizService struct {
	registry SessionRegistry
	results  ResultStore
	sink     EventSink
}

func NewQuizService(registry SessionRegistry, results ResultStore) *QuizService {
	return &QuizService{registry: registry, results: results}
}

// SetEventSink attaches an optional lifecycle-event mirror. Call before
// serving traffic.
func (s *QuizService) SetEventSink(sink EventSink) {
	s.sink = sink
}

// Join registers a participant, creating the session (and snapshotting the
// quiz's questions) on first join.
func (s *QuizService) Join(ctx context.Context, quizID, clientID, displayName string) (domain.Leaderboard, error) {
	session, err := s.registry.GetOrCreate(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return session.join(clientID, displayName), nil
}

// Leave removes a participant from the roster. The session is retained even
// with an empty roster; only Finish evicts it.
func (s *QuizService) Leave(_ context.Context, quizID, clientID string) {
	session, ok := s.registry.Get(quizID)
	if !ok {
		return
	}
	session.leave(clientID)
}

// Start begins the quiz, broadcasting the first question. Returns false
// without error when the session is not pending (forgiving no-op).
func (s *QuizService) Start(_ context.Context, quizID string) (domain.CurrentQuestion, bool, error) {
	session, ok := s.registry.Get(quizID)
	if !ok {
		return domain.CurrentQuestion{}, false, domain.ErrSessionNotFound
	}
	cq, started := session.start()
	if started && s.sink != nil {
		s.sink.SessionStarted(quizID)
		s.sink.QuestionStarted(quizID, cq.Question.ID)
	}
	return cq, started, nil
}

// Advance broadcasts stats for the outgoing question, then moves the cursor.
// While questions remain it broadcasts the next one and returns it with
// more=true; past the last question the session ends and the final
// leaderboard is broadcast instead.
func (s *QuizService) Advance(ctx context.Context, quizID string) (domain.CurrentQuestion, bool, error) {
	session, ok := s.registry.Get(quizID)
	if !ok {
		return domain.CurrentQuestion{}, false, domain.ErrSessionNotFound
	}

	if current, inProgress := session.currentQuestion(); inProgress {
		if stats, err := session.statsFor(current.Question.ID); err == nil {
			session.publishStats(stats)
			s.snapshotStats(quizID, stats)
		}
	}

	next, more := session.advance()
	if more && s.sink != nil {
		s.sink.QuestionStarted(quizID, next.Question.ID)
	}
	return next, more, nil
}

// SubmitAnswer records a raw answer value for a question, decoded according
// to the question's kind, and scores it synchronously. Submissions for
// question IDs outside the snapshot are recorded but never counted.
func (s *QuizService) SubmitAnswer(_ context.Context, quizID, clientID, questionID string, value json.RawMessage) (bool, int, error) {
	session, ok := s.registry.Get(quizID)
	if !ok {
		return false, 0, domain.ErrSessionNotFound
	}

	var answer domain.Answer
	if kind, known := session.questionKind(questionID); known {
		decoded, err := domain.DecodeAnswer(kind, value)
		if err != nil {
			return false, 0, err
		}
		answer = decoded
	}
	correct, awarded := session.submit(clientID, questionID, answer)
	return correct, awarded, nil
}

// Stats computes, broadcasts, and snapshots the response summary for one
// question at or before the cursor.
func (s *QuizService) Stats(_ context.Context, quizID, questionID string) (domain.QuestionStats, error) {
	session, ok := s.registry.Get(quizID)
	if !ok {
		return domain.QuestionStats{}, domain.ErrSessionNotFound
	}
	stats, err := session.statsFor(questionID)
	if err != nil {
		return domain.QuestionStats{}, err
	}
	session.publishStats(stats)
	s.snapshotStats(quizID, stats)
	return stats, nil
}

// Finish force-ends the session, broadcasts the final leaderboard, persists
// every participant's final score, and evicts the session from the registry.
// Persistence failures are logged and never block the broadcast.
func (s *QuizService) Finish(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	session, ok := s.registry.Get(quizID)
	if !ok {
		return domain.Leaderboard{}, domain.ErrSessionNotFound
	}

	final := session.finish()
	for _, entry := range final.Entries {
		if err := s.results.RecordFinalScore(ctx, quizID, entry.DisplayName, entry.Score); err != nil {
			log.Printf("record final score for %q in quiz %s: %v", entry.DisplayName, quizID, err)
		}
	}
	s.registry.Remove(quizID)
	if s.sink != nil {
		s.sink.SessionEnded(quizID)
	}
	return final, nil
}

// Leaderboard reads the persisted standings for a quiz, for clients polling
// after the session has ended.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string) ([]domain.StoredScore, error) {
	return s.results.FetchLeaderboard(ctx, quizID)
}

// Subscribe returns a channel that receives session broadcasts for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, quizID string) (<-chan domain.Event, func(), error) {
	session, ok := s.registry.Get(quizID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// snapshotStats persists a stats computation for historical analytics.
// Fire-and-forget: session state is fully mutated before this runs.
func (s *QuizService) snapshotStats(quizID string, stats domain.QuestionStats) {
	go func() {
		if err := s.results.RecordQuestionStats(context.Background(), quizID, stats); err != nil {
			log.Printf("record stats for question %s in quiz %s: %v", stats.QuestionID, quizID, err)
		}
	}()
}
