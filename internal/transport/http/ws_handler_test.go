package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quizRepo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleQuiz()), time.Minute)
	service := app.NewQuizService(app.NewRegistry(quizRepo), memory.NewResultStore())
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketAnswerFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "quizId=quiz-1&clientId=c1&name=Alice")

	// Joined comes first, then the subscription's primed roster.
	readNext(conn, t, "joined")
	readNext(conn, t, "roster")

	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	_, payload := readNext(conn, t, "question")
	question, ok := payload["question"].(map[string]any)
	if !ok || question["id"] != "q1" {
		t.Fatalf("expected question q1, got %v", payload)
	}

	answer := map[string]any{
		"type": "submitAnswer",
		"payload": map[string]any{
			"questionId": "q1",
			"value":      1,
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	// Expect the direct answerResult plus the roster broadcast, in either order.
	answerSeen := false
	rosterSeen := false
	for i := 0; i < 2; i++ {
		typ, payload := readNext(conn, t, "")
		switch typ {
		case "answerResult":
			answerSeen = true
			if payload["correct"] != true {
				t.Fatalf("expected correct answer, got %v", payload)
			}
		case "roster":
			rosterSeen = true
		}
	}
	if !answerSeen || !rosterSeen {
		t.Fatalf("expected answerResult and roster, got answerResult=%v roster=%v", answerSeen, rosterSeen)
	}
}

func TestWebSocketAdvanceToEnd(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "quizId=quiz-1&clientId=c1&name=Alice")

	readNext(conn, t, "joined")
	readNext(conn, t, "roster")

	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	readNext(conn, t, "question")

	if err := conn.WriteJSON(map[string]any{"type": "advance"}); err != nil {
		t.Fatalf("write advance: %v", err)
	}
	_, payload := readNext(conn, t, "question")
	question, ok := payload["question"].(map[string]any)
	if !ok || question["id"] != "q2" {
		t.Fatalf("expected question q2, got %v", payload)
	}

	// Advancing past the last question ends the session.
	if err := conn.WriteJSON(map[string]any{"type": "advance"}); err != nil {
		t.Fatalf("write advance: %v", err)
	}
	readNext(conn, t, "ended")
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws?quizId=quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocketUnknownMessageType(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "quizId=quiz-1&clientId=c1&name=Alice")

	readNext(conn, t, "joined")
	readNext(conn, t, "roster")

	if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, "error")
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Kind:   domain.KindSingleSelect,
					Options: []domain.Option{
						{Text: "3"}, {Text: "4", Correct: true}, {Text: "5"},
					},
					Points: 1,
				},
				{
					ID:       "q2",
					Prompt:   "Capital of France?",
					Kind:     domain.KindFreeText,
					Accepted: []string{"Paris"},
					Points:   2,
				},
			},
		},
	}
}
