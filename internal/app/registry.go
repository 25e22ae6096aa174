package app

import (
	"context"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionRepository loads quiz content (from cache/backing store).
type QuestionRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SessionRegistry is the process-wide lookup from quiz ID to live session.
// Implementations must make GetOrCreate atomic with respect to the existence
// check: two simultaneous first-joiners get the same session.
type SessionRegistry interface {
	GetOrCreate(ctx context.Context, quizID string) (*Session, error)
	Get(quizID string) (*Session, bool)
	Remove(quizID string)
}

// Registry is the in-process SessionRegistry. It is an explicit service
// object, constructed once at startup and injected, never a package global.
// Sessions snapshot their question list at creation; a quiz with no questions
// never gets an entry, which keeps zombie sessions out of the map.
type Registry struct {
	quizzes QuestionRepository
	now     func() time.Time
	sf      singleflight.Group

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(quizzes QuestionRepository) *Registry {
	return &Registry{
		quizzes:  quizzes,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the live session for the quiz, creating and registering
// one on first use. Creation loads and snapshots the question list; an empty
// list fails with ErrSessionNotReady and registers nothing. Concurrent
// first-joiners are collapsed through singleflight so exactly one session is
// created per quiz.
func (r *Registry) GetOrCreate(ctx context.Context, quizID string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[quizID]
	r.mu.RUnlock()
	if ok {
		return session, nil
	}

	v, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		r.mu.RLock()
		session, ok := r.sessions[quizID]
		r.mu.RUnlock()
		if ok {
			return session, nil
		}

		quiz, err := r.quizzes.GetQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if len(quiz.Questions) == 0 {
			return nil, domain.ErrSessionNotReady
		}

		created := newSession(quizID, quiz.Questions, r.now)
		r.mu.Lock()
		r.sessions[quizID] = created
		r.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Get returns the session for the quiz, if one is registered.
func (r *Registry) Get(quizID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[quizID]
	return session, ok
}

// Remove evicts the session. Idempotent.
func (r *Registry) Remove(quizID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, quizID)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
