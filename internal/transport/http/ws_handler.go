package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler is the event gateway: it upgrades connections, feeds inbound
// actions into the quiz service, and relays session broadcasts back out.
// Every outbound event is a broadcast to the whole session; the only direct
// replies are answer acknowledgements and errors.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string          `json:"questionId"`
	Value      json.RawMessage `json:"value"`
}

type statsPayload struct {
	QuestionID string `json:"questionId"`
}

type answerResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the live
// session. Joining happens on connect, leaving on disconnect; everything else
// arrives as typed messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	clientID := r.URL.Query().Get("clientId")
	displayName := r.URL.Query().Get("name")
	if quizID == "" || clientID == "" || displayName == "" {
		http.Error(w, "missing quizId, clientId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	joined, err := h.service.Join(r.Context(), quizID, clientID, displayName)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer h.service.Leave(r.Context(), quizID, clientID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not allow concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(update.Type), Payload: eventPayload(update)}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, quizID, clientID, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, quizID, clientID string, inbound inboundMessage, send chan<- outboundMessage[any]) {
	ctx := r.Context()
	switch inbound.Type {
	case "start":
		if _, _, err := h.service.Start(ctx, quizID); err != nil {
			send <- errorMessage(err)
		}
	case "advance":
		if _, _, err := h.service.Advance(ctx, quizID); err != nil {
			send <- errorMessage(err)
		}
	case "finish":
		if _, err := h.service.Finish(ctx, quizID); err != nil {
			send <- errorMessage(err)
		}
	case "submitAnswer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage(errors.New("invalid answer payload"))
			return
		}
		correct, awarded, err := h.service.SubmitAnswer(ctx, quizID, clientID, payload.QuestionID, payload.Value)
		if err != nil {
			send <- errorMessage(err)
			return
		}
		send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
			QuestionID: payload.QuestionID,
			Correct:    correct,
			Awarded:    awarded,
		}}
	case "requestStats":
		var payload statsPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage(errors.New("invalid stats payload"))
			return
		}
		if _, err := h.service.Stats(ctx, quizID, payload.QuestionID); err != nil {
			send <- errorMessage(err)
		}
	default:
		send <- errorMessage(errors.New("unsupported message type"))
	}
}

func eventPayload(ev domain.Event) any {
	switch ev.Type {
	case domain.EventQuestion:
		return ev.Question
	case domain.EventStats:
		return ev.Stats
	default:
		return ev.Leaderboard
	}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
