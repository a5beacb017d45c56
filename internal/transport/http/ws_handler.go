package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.AttemptService
	logger   *slog.Logger
	tick     time.Duration
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		tick:    time.Second,
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
	QuestionIndex *int `json:"questionIndex"`
	Answer        *int `json:"answer"`
}

type navigatePayload struct {
	Index *int `json:"index"`
}

type tickPayload struct {
	Phase       domain.Phase `json:"phase"`
	RemainingMS int64        `json:"remainingMs"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS streams the caller's attempt: every state change as a "snapshot",
// a "tick" with the remaining time once per tick interval, and replies to
// inbound commands. The attempt must have been started over REST first.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	quizID := chi.URLParam(r, "quizID")

	updates, cancel, err := h.service.Subscribe(r.Context(), actor, quizID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	var producers sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	emit := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		}
	}

	producers.Add(2)
	go func() {
		defer producers.Done()
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				if !emit(outboundMessage[any]{Type: "snapshot", Payload: snap}) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	go func() {
		defer producers.Done()
		ticker := time.NewTicker(h.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// Get also completes the attempt if the deadline has passed.
				snap, err := h.service.Get(r.Context(), actor, quizID)
				if err != nil {
					continue
				}
				if !emit(outboundMessage[any]{Type: "tick", Payload: tickPayload{Phase: snap.Phase, RemainingMS: snap.RemainingMS}}) {
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
		if msg, ok := h.dispatch(r, actor, quizID, inbound); ok {
			if !emit(msg) {
				break
			}
		}
	}

	close(closeSignals)
	producers.Wait()
	close(send)
	<-writerDone
}

// dispatch applies one inbound command. State changes reach the client through
// the snapshot stream, so only errors and the final result are answered here.
func (h *WSHandler) dispatch(r *http.Request, actor app.Actor, quizID string, inbound inboundMessage) (outboundMessage[any], bool) {
	ctx := r.Context()
	var err error
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionIndex == nil || payload.Answer == nil {
			return errorMessage("invalid answer payload"), true
		}
		_, err = h.service.RecordAnswer(ctx, actor, quizID, *payload.QuestionIndex, *payload.Answer)
	case "clear":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionIndex == nil {
			return errorMessage("invalid clear payload"), true
		}
		_, err = h.service.ClearAnswer(ctx, actor, quizID, *payload.QuestionIndex)
	case "navigate":
		var payload navigatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Index == nil {
			return errorMessage("invalid navigate payload"), true
		}
		_, err = h.service.Navigate(ctx, actor, quizID, *payload.Index)
	case "finish":
		_, err = h.service.RequestFinish(ctx, actor, quizID)
	case "cancel":
		_, err = h.service.CancelFinish(ctx, actor, quizID)
	case "confirm":
		result, err := h.service.ConfirmFinish(ctx, actor, quizID)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		return outboundMessage[any]{Type: "result", Payload: result}, true
	default:
		return errorMessage("unsupported message type"), true
	}
	if err != nil {
		return errorMessage(err.Error()), true
	}
	return outboundMessage[any]{}, false
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
