package domain

import "time"

// QuestionKind discriminates how a question is answered and scored.
type QuestionKind string

const (
	KindSingleSelect QuestionKind = "single"
	KindMultiSelect  QuestionKind = "multi"
	KindFreeText     QuestionKind = "text"
	KindMatching     QuestionKind = "matching"
)

// Option represents a possible answer for a select question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Pair is one left/right association of a matching question.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question models one quiz question. The answer key lives in the field
// matching the kind: Options for select kinds, Accepted for free text,
// Pairs for matching. A session snapshots questions at creation, so the
// values are immutable for the session's lifetime.
type Question struct {
	ID        string       `json:"id"`
	Prompt    string       `json:"prompt"`
	Kind      QuestionKind `json:"kind"`
	TimeLimit int          `json:"timeLimitSec"` // enforced client-side only
	Points    int          `json:"points"`       // defaults to 1 if zero
	Options   []Option     `json:"options,omitempty"`
	Accepted  []string     `json:"accepted,omitempty"`
	Pairs     []Pair       `json:"pairs,omitempty"`
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// CurrentQuestion annotates a question with its 1-based position for display.
type CurrentQuestion struct {
	Question Question `json:"question"`
	Ordinal  int      `json:"ordinal"`
	Total    int      `json:"total"`
}

// Participant represents a connected client and their accumulated score.
type Participant struct {
	ClientID    string
	DisplayName string
	Score       int
	JoinedAt    time.Time
	LastScored  time.Time
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Leaderboard captures the ordered scoreboard for a quiz session.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// StoredScore is one persisted final-score row.
type StoredScore struct {
	DisplayName string    `json:"name"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// QuestionStats is a derived, read-only aggregation of one question's
// submitted answers. OptionCounts is populated for select kinds,
// Correct/IncorrectCount for free-text and matching.
type QuestionStats struct {
	QuestionID        string       `json:"questionId"`
	Kind              QuestionKind `json:"kind"`
	TotalParticipants int          `json:"totalParticipants"`
	Submissions       int          `json:"submissions"`
	OptionCounts      map[int]int  `json:"optionCounts,omitempty"`
	CorrectCount      int          `json:"correctCount"`
	IncorrectCount    int          `json:"incorrectCount"`
	Accepted          []string     `json:"accepted,omitempty"`
}

// EventType names the broadcasts a session emits to its subscribers.
type EventType string

const (
	EventRoster   EventType = "roster"
	EventQuestion EventType = "question"
	EventStats    EventType = "stats"
	EventEnded    EventType = "ended"
)

// Event is one outbound broadcast. Exactly one payload field is set,
// selected by Type.
type Event struct {
	Type        EventType        `json:"type"`
	Leaderboard *Leaderboard     `json:"leaderboard,omitempty"`
	Question    *CurrentQuestion `json:"question,omitempty"`
	Stats       *QuestionStats   `json:"stats,omitempty"`
}
