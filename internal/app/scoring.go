package app

import (
	"sort"

	"live-quiz-service/internal/domain"
)

// scoreAnswer reports whether a submitted answer is correct for the question.
// An answer whose tag does not match the question kind is never correct.
func scoreAnswer(q domain.Question, a domain.Answer) bool {
	if a.Kind != q.Kind {
		return false
	}
	switch q.Kind {
	case domain.KindSingleSelect:
		return a.Option >= 0 && a.Option < len(q.Options) && q.Options[a.Option].Correct
	case domain.KindMultiSelect:
		return matchesCorrectSet(q.Options, a.Options)
	case domain.KindFreeText:
		submitted := domain.NormalizeText(a.Text)
		for _, accepted := range q.Accepted {
			if domain.NormalizeText(accepted) == submitted {
				return true
			}
		}
		return false
	case domain.KindMatching:
		return matchesAllPairs(q.Pairs, a.Pairs)
	}
	return false
}

// matchesCorrectSet requires the submitted index set to equal exactly the set
// of correct-flagged option indices. No partial credit.
func matchesCorrectSet(options []domain.Option, submitted []int) bool {
	want := make(map[int]struct{})
	for i, opt := range options {
		if opt.Correct {
			want[i] = struct{}{}
		}
	}
	got := make(map[int]struct{}, len(submitted))
	for _, idx := range submitted {
		got[idx] = struct{}{}
	}
	if len(got) != len(want) {
		return false
	}
	for idx := range got {
		if _, ok := want[idx]; !ok {
			return false
		}
	}
	return true
}

// matchesAllPairs requires a complete exact assignment: every defined pair
// present, nothing extra. No partial credit.
func matchesAllPairs(defined, submitted []domain.Pair) bool {
	want := make(map[domain.Pair]struct{}, len(defined))
	for _, p := range defined {
		want[p] = struct{}{}
	}
	got := make(map[domain.Pair]struct{}, len(submitted))
	for _, p := range submitted {
		got[p] = struct{}{}
	}
	if len(got) != len(want) {
		return false
	}
	for p := range got {
		if _, ok := want[p]; !ok {
			return false
		}
	}
	return true
}

// questionPoints returns the question's point value, defaulting to 1.
func questionPoints(q domain.Question) int {
	if q.Points > 0 {
		return q.Points
	}
	return 1
}

// sortLeaderboard orders entries by score descending, then by the earliest
// time the participant reached their score, then by display name.
func sortLeaderboard(entries []domain.LeaderboardEntry, participants map[string]*domain.Participant) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		pi := participants[entries[i].ClientID]
		pj := participants[entries[j].ClientID]
		if pi != nil && pj != nil && !pi.LastScored.Equal(pj.LastScored) {
			return pi.LastScored.Before(pj.LastScored)
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
}
