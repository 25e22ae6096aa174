package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// LeaderboardHandler serves the persisted standings for a quiz, for clients
// polling after their session has ended.
type LeaderboardHandler struct {
	service *app.QuizService
}

func NewLeaderboardHandler(service *app.QuizService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	board, err := h.service.Leaderboard(r.Context(), quizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch leaderboard", http.StatusInternalServerError)
		return
	}
	if board == nil {
		board = []domain.StoredScore{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		QuizID      string               `json:"quizId"`
		Leaderboard []domain.StoredScore `json:"leaderboard"`
	}{QuizID: quizID, Leaderboard: board})
}
