package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"live-quiz-service/internal/domain"
)

type stubQuizRepo struct {
	calls   int32
	quizzes map[string]domain.Quiz
}

func (r *stubQuizRepo) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	atomic.AddInt32(&r.calls, 1)
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func TestGetOrCreateConcurrentCreatesOne(t *testing.T) {
	repo := &stubQuizRepo{quizzes: map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Questions: threeQuestions()},
	}}
	registry := NewRegistry(repo)

	const workers = 16
	sessions := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := registry.GetOrCreate(context.Background(), "quiz-1")
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatalf("worker %d got a different session", i)
		}
	}
	if registry.Len() != 1 {
		t.Fatalf("expected exactly one registered session, got %d", registry.Len())
	}
}

func TestGetOrCreateEmptyQuizNotRegistered(t *testing.T) {
	repo := &stubQuizRepo{quizzes: map[string]domain.Quiz{
		"quiz-empty": {ID: "quiz-empty"},
	}}
	registry := NewRegistry(repo)

	if _, err := registry.GetOrCreate(context.Background(), "quiz-empty"); err != domain.ErrSessionNotReady {
		t.Fatalf("expected ErrSessionNotReady, got %v", err)
	}
	if _, ok := registry.Get("quiz-empty"); ok {
		t.Fatalf("empty quiz must not leave a zombie session behind")
	}
}

func TestGetOrCreateUnknownQuiz(t *testing.T) {
	registry := NewRegistry(&stubQuizRepo{quizzes: map[string]domain.Quiz{}})
	if _, err := registry.GetOrCreate(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestGetOrCreateSnapshotsQuestions(t *testing.T) {
	repo := &stubQuizRepo{quizzes: map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Questions: threeQuestions()},
	}}
	registry := NewRegistry(repo)

	s1, err := registry.GetOrCreate(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Later edits to the authored quiz do not affect the running session.
	repo.quizzes["quiz-1"] = domain.Quiz{ID: "quiz-1", Questions: threeQuestions()[:1]}

	s2, err := registry.GetOrCreate(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("expected the same live session")
	}
	if len(s1.questions) != 3 {
		t.Fatalf("snapshot must be immutable, got %d questions", len(s1.questions))
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	repo := &stubQuizRepo{quizzes: map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Questions: threeQuestions()},
	}}
	registry := NewRegistry(repo)

	if _, err := registry.GetOrCreate(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	registry.Remove("quiz-1")
	registry.Remove("quiz-1")
	if _, ok := registry.Get("quiz-1"); ok {
		t.Fatalf("session must be gone after remove")
	}
}
