package app

import (
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// cursorPending marks a session that has not been started yet. Once started,
// the cursor only ever moves forward; a cursor at or past the question count
// means the session has ended.
const cursorPending = -1

// Session owns one quiz's live run: the progression cursor, the participant
// roster, the per-question answer ledger, and the subscriber set that
// receives broadcasts. All mutation goes through the methods below, each of
// which holds the session mutex for its full duration, so handlers observe
// the same ordering as a single-threaded event loop would.
type Session struct {
	quizID    string
	questions []domain.Question
	byID      map[string]int
	now       func() time.Time

	mu           sync.RWMutex
	cursor       int
	finished     bool
	participants map[string]*domain.Participant
	ledger       map[string]map[string]domain.Answer
	subscribers  map[chan domain.Event]struct{}
}

func newSession(quizID string, questions []domain.Question, now func() time.Time) *Session {
	byID := make(map[string]int, len(questions))
	for i, q := range questions {
		byID[q.ID] = i
	}
	return &Session{
		quizID:       quizID,
		questions:    questions,
		byID:         byID,
		now:          now,
		cursor:       cursorPending,
		participants: make(map[string]*domain.Participant),
		ledger:       make(map[string]map[string]domain.Answer),
		subscribers:  make(map[chan domain.Event]struct{}),
	}
}

// NewSession is exported for infrastructure and test seeding.
func NewSession(quizID string, questions []domain.Question) *Session {
	return newSession(quizID, questions, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(quizID string, questions []domain.Question, now func() time.Time) *Session {
	return newSession(quizID, questions, now)
}

// join registers a participant, or refreshes the display name on re-join
// while keeping any accumulated score. Valid in any state.
func (s *Session) join(clientID, displayName string) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.participants[clientID]; ok {
		p.DisplayName = displayName
	} else {
		now := s.now()
		s.participants[clientID] = &domain.Participant{
			ClientID:    clientID,
			DisplayName: displayName,
			JoinedAt:    now,
			LastScored:  now,
		}
	}
	lb := s.snapshotLocked()
	s.publishLocked(domain.Event{Type: domain.EventRoster, Leaderboard: &lb})
	return lb
}

// leave drops a participant from the roster. Answers already recorded in the
// ledger stay attributed to the departed client ID.
func (s *Session) leave(clientID string) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.participants, clientID)
	lb := s.snapshotLocked()
	s.publishLocked(domain.Event{Type: domain.EventRoster, Leaderboard: &lb})
	return lb
}

// start moves the cursor to the first question. A no-op unless the session is
// still pending and has questions.
func (s *Session) start() (domain.CurrentQuestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor != cursorPending || s.finished || len(s.questions) == 0 {
		return domain.CurrentQuestion{}, false
	}
	s.cursor = 0
	cq := s.currentLocked()
	s.publishLocked(domain.Event{Type: domain.EventQuestion, Question: &cq})
	return cq, true
}

// advance moves to the next question, or ends the session when the cursor is
// already at the last one. Returns the new question and true while more
// questions remain; (zero, false) once the session has ended. Calling advance
// on a pending or finished session is a forgiving no-op.
func (s *Session) advance() (domain.CurrentQuestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == cursorPending || s.finished || s.cursor >= len(s.questions) {
		return domain.CurrentQuestion{}, false
	}
	if s.cursor+1 < len(s.questions) {
		s.cursor++
		cq := s.currentLocked()
		s.publishLocked(domain.Event{Type: domain.EventQuestion, Question: &cq})
		return cq, true
	}

	s.cursor = len(s.questions)
	s.finished = true
	lb := s.snapshotLocked()
	s.publishLocked(domain.Event{Type: domain.EventEnded, Leaderboard: &lb})
	return domain.CurrentQuestion{}, false
}

// finish force-ends the session from any state and returns the final
// leaderboard. Idempotent.
func (s *Session) finish() domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	alreadyDone := s.finished
	s.finished = true
	if s.cursor < len(s.questions) {
		s.cursor = len(s.questions)
	}
	lb := s.snapshotLocked()
	if !alreadyDone {
		s.publishLocked(domain.Event{Type: domain.EventEnded, Leaderboard: &lb})
	}
	return lb
}

// submit records an answer in the ledger, keyed by question ID rather than
// the cursor so a submission racing an advance still lands on the question it
// was meant for. The latest submission per participant wins. Scoring happens
// synchronously: a correct answer awards the question's points on every
// submission event, so resubmitting a correct answer awards again (inherited
// behavior, kept as-is).
func (s *Session) submit(clientID, questionID string, ans domain.Answer) (correct bool, awarded int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == cursorPending || s.finished {
		return false, 0
	}

	entries, ok := s.ledger[questionID]
	if !ok {
		entries = make(map[string]domain.Answer)
		s.ledger[questionID] = entries
	}
	entries[clientID] = ans

	idx, known := s.byID[questionID]
	if !known {
		// Unknown question: recorded but never counted.
		return false, 0
	}

	question := s.questions[idx]
	if !scoreAnswer(question, ans) {
		return false, 0
	}
	p, joined := s.participants[clientID]
	if !joined {
		return true, 0
	}
	points := questionPoints(question)
	p.Score += points
	p.LastScored = s.now()

	lb := s.snapshotLocked()
	s.publishLocked(domain.Event{Type: domain.EventRoster, Leaderboard: &lb})
	return true, points
}

// questionKind looks up a question's kind in the immutable snapshot. No lock
// needed: questions never change after construction.
func (s *Session) questionKind(questionID string) (domain.QuestionKind, bool) {
	idx, ok := s.byID[questionID]
	if !ok {
		return "", false
	}
	return s.questions[idx].Kind, true
}

// currentQuestion returns the question at the cursor, if the session is in
// progress.
func (s *Session) currentQuestion() (domain.CurrentQuestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cursor == cursorPending || s.cursor >= len(s.questions) {
		return domain.CurrentQuestion{}, false
	}
	return s.currentLocked(), true
}

// leaderboard returns the current in-memory standings.
func (s *Session) leaderboard() domain.Leaderboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// publishStats broadcasts a computed stats summary to all subscribers.
func (s *Session) publishStats(stats domain.QuestionStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(domain.Event{Type: domain.EventStats, Stats: &stats})
}

// subscribe returns a channel that receives session broadcasts, primed with a
// roster snapshot. The caller must invoke the returned cancel function.
func (s *Session) subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	lb := s.snapshotLocked()
	s.mu.Unlock()

	ch <- domain.Event{Type: domain.EventRoster, Leaderboard: &lb}

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) currentLocked() domain.CurrentQuestion {
	return domain.CurrentQuestion{
		Question: s.questions[s.cursor],
		Ordinal:  s.cursor + 1,
		Total:    len(s.questions),
	}
}

func (s *Session) publishLocked(event domain.Event) {
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop its oldest pending event so broadcast
			// never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (s *Session) snapshotLocked() domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(s.participants))
	for _, p := range s.participants {
		entries = append(entries, domain.LeaderboardEntry{
			ClientID:    p.ClientID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
		})
	}

	// Score descending; ties broken by who reached their score first, then
	// by display name. Mirrors the persisted ordering (score DESC,
	// submitted_at ASC).
	sortLeaderboard(entries, s.participants)

	return domain.Leaderboard{
		QuizID:    s.quizID,
		Entries:   entries,
		UpdatedAt: s.now(),
	}
}
