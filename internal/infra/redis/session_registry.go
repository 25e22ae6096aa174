package redis

import (
	"context"
	"time"

	"live-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionRegistry decorates the in-process registry with Redis liveness
// markers, so operators (and sibling services) can see which quizzes are
// live. The session state itself stays in process memory; it is volatile by
// design.
type SessionRegistry struct {
	inner  app.SessionRegistry
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRegistry(inner app.SessionRegistry, client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{inner: inner, client: client, ttl: ttl}
}

func (r *SessionRegistry) GetOrCreate(ctx context.Context, quizID string) (*app.Session, error) {
	session, err := r.inner.GetOrCreate(ctx, quizID)
	if err != nil {
		return nil, err
	}
	// best-effort liveness marker
	_ = r.client.Set(ctx, r.key(quizID), "1", r.ttl).Err()
	return session, nil
}

func (r *SessionRegistry) Get(quizID string) (*app.Session, bool) {
	return r.inner.Get(quizID)
}

func (r *SessionRegistry) Remove(quizID string) {
	r.inner.Remove(quizID)
	_ = r.client.Del(context.Background(), r.key(quizID)).Err()
}

func (r *SessionRegistry) key(quizID string) string {
	return "quiz:session:" + quizID
}
