package http

import (
	"net/http"
	"strconv"

	"quiz-attempt-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// handleListQuizzes serves GET /api/quizzes; ?mine=true keeps the caller's own.
func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	mine := false
	if raw := r.URL.Query().Get("mine"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "mine must be a boolean")
			return
		}
		mine = v
	}
	quizzes, err := h.catalog.ListQuizzes(r.Context(), actorFrom(r), mine)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.catalog.GetQuiz(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var draft domain.QuizDraft
	if err := readJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quiz, err := h.catalog.CreateQuiz(r.Context(), actorFrom(r), draft)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) handleUpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var draft domain.QuizDraft
	if err := readJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.catalog.UpdateQuiz(r.Context(), actorFrom(r), chi.URLParam(r, "quizID"), draft); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.catalog.ScoresByUser(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
