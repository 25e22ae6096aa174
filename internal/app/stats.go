package app

import "live-quiz-service/internal/domain"

// statsFor derives the response summary for one question from the ledger and
// the question definition. A pure read: no session state is touched.
//
// Select kinds report per-option-index counts; out-of-range or mis-typed
// submissions are skipped, not errors. Free text reports correct vs incorrect
// counts plus the accepted answers for display. Matching reports the
// submission count and correct vs incorrect counts.
func (s *Session) statsFor(questionID string) (domain.QuestionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[questionID]
	if !ok {
		return domain.QuestionStats{}, domain.ErrQuestionNotFound
	}
	entries := s.ledger[questionID]
	if len(entries) == 0 {
		return domain.QuestionStats{}, domain.ErrStatsUnavailable
	}

	question := s.questions[idx]
	stats := domain.QuestionStats{
		QuestionID:        questionID,
		Kind:              question.Kind,
		TotalParticipants: len(s.participants),
		Submissions:       len(entries),
	}

	switch question.Kind {
	case domain.KindSingleSelect:
		stats.OptionCounts = make(map[int]int, len(question.Options))
		for i := range question.Options {
			stats.OptionCounts[i] = 0
		}
		for _, ans := range entries {
			if ans.Kind != domain.KindSingleSelect {
				continue
			}
			if ans.Option < 0 || ans.Option >= len(question.Options) {
				continue
			}
			stats.OptionCounts[ans.Option]++
		}
	case domain.KindMultiSelect:
		stats.OptionCounts = make(map[int]int, len(question.Options))
		for i := range question.Options {
			stats.OptionCounts[i] = 0
		}
		for _, ans := range entries {
			if ans.Kind != domain.KindMultiSelect {
				continue
			}
			for _, idx := range ans.Options {
				if idx < 0 || idx >= len(question.Options) {
					continue
				}
				stats.OptionCounts[idx]++
			}
		}
	case domain.KindFreeText:
		stats.Accepted = question.Accepted
		for _, ans := range entries {
			if scoreAnswer(question, ans) {
				stats.CorrectCount++
			} else {
				stats.IncorrectCount++
			}
		}
	case domain.KindMatching:
		for _, ans := range entries {
			if scoreAnswer(question, ans) {
				stats.CorrectCount++
			} else {
				stats.IncorrectCount++
			}
		}
	}
	return stats, nil
}
