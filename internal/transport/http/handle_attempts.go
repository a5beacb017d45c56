package http

import (
	"net/http"
	"strconv"

	"quiz-attempt-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Pointers tell a missing field from index 0.
type answerRequest struct {
	Answer *int `json:"answer"`
}

type navigateRequest struct {
	Index *int `json:"index"`
}

func (h *Handler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	snap, err := h.attempts.Start(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"))
	h.writeSnapshot(w, snap, err)
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	snap, err := h.attempts.Get(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"))
	h.writeSnapshot(w, snap, err)
}

func (h *Handler) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	index, ok := questionIndex(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Answer == nil {
		writeError(w, http.StatusBadRequest, "answer is required")
		return
	}
	snap, err := h.attempts.RecordAnswer(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"), index, *req.Answer)
	h.writeSnapshot(w, snap, err)
}

func (h *Handler) handleClearAnswer(w http.ResponseWriter, r *http.Request) {
	index, ok := questionIndex(w, r)
	if !ok {
		return
	}
	snap, err := h.attempts.ClearAnswer(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"), index)
	h.writeSnapshot(w, snap, err)
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	snap, err := h.attempts.Navigate(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"), *req.Index)
	h.writeSnapshot(w, snap, err)
}

func (h *Handler) handleRequestFinish(w http.ResponseWriter, r *http.Request) {
	snap, err := h.attempts.RequestFinish(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"))
	h.writeSnapshot(w, snap, err)
}

func (h *Handler) handleCancelFinish(w http.ResponseWriter, r *http.Request) {
	snap, err := h.attempts.CancelFinish(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"))
	h.writeSnapshot(w, snap, err)
}

func (h *Handler) handleConfirmFinish(w http.ResponseWriter, r *http.Request) {
	result, err := h.attempts.ConfirmFinish(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, snap domain.AttemptSnapshot, err error) {
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func questionIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidQuestion.Error())
		return 0, false
	}
	return index, true
}
