package domain

import (
	"encoding/json"
	"strings"
)

// Answer is a kind-tagged answer value. Exactly one variant field carries the
// submission, selected by Kind: Option for single select, Options for multi
// select, Text for free text, Pairs for matching. Scoring switches on the tag,
// so a new kind cannot be scored until every switch handles it.
type Answer struct {
	Kind    QuestionKind `json:"kind"`
	Option  int          `json:"option,omitempty"`
	Options []int        `json:"options,omitempty"`
	Text    string       `json:"text,omitempty"`
	Pairs   []Pair       `json:"pairs,omitempty"`
}

func SingleAnswer(option int) Answer {
	return Answer{Kind: KindSingleSelect, Option: option}
}

func MultiAnswer(options ...int) Answer {
	return Answer{Kind: KindMultiSelect, Options: options}
}

func TextAnswer(text string) Answer {
	return Answer{Kind: KindFreeText, Text: text}
}

func MatchingAnswer(pairs ...Pair) Answer {
	return Answer{Kind: KindMatching, Pairs: pairs}
}

// DecodeAnswer parses a raw JSON answer value according to the question kind:
// a number for single select, an array of numbers for multi select, a string
// for free text, and an array of {left,right} objects for matching.
func DecodeAnswer(kind QuestionKind, raw json.RawMessage) (Answer, error) {
	switch kind {
	case KindSingleSelect:
		var option int
		if err := json.Unmarshal(raw, &option); err != nil {
			return Answer{}, ErrInvalidAnswer
		}
		return SingleAnswer(option), nil
	case KindMultiSelect:
		var options []int
		if err := json.Unmarshal(raw, &options); err != nil {
			return Answer{}, ErrInvalidAnswer
		}
		return MultiAnswer(options...), nil
	case KindFreeText:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return Answer{}, ErrInvalidAnswer
		}
		return TextAnswer(text), nil
	case KindMatching:
		var pairs []Pair
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return Answer{}, ErrInvalidAnswer
		}
		return MatchingAnswer(pairs...), nil
	}
	return Answer{}, ErrInvalidAnswer
}

// NormalizeText canonicalizes a free-text submission for comparison against
// the accepted answers: leading/trailing whitespace is trimmed and the result
// is lowercased. No fuzzy matching beyond that.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
