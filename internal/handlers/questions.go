package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/services"
)

// QuestionHandler serves the Q&A board.
type QuestionHandler struct {
	questionService *services.QuestionService
	log             *logger.Logger
}

// QuestionRouter registers question routes. A founder's board is public.
func QuestionRouter(r chi.Router, questionService *services.QuestionService, authMiddleware func(http.Handler) http.Handler, log *logger.Logger) {
	handler := &QuestionHandler{questionService: questionService, log: log}

	r.Get("/founder/{founderID}", handler.ListForFounder)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", handler.Ask)
		r.Get("/mine", handler.ListMine)
		r.Put("/{questionID}/answer", handler.Answer)
		r.Put("/{questionID}", handler.Edit)
		r.Delete("/{questionID}", handler.Delete)
	})
}

func (h *QuestionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	q, err := h.questionService.Ask(r.Context(), actorFromContext(r.Context()), services.AskInput{
		FounderID: req.FounderID,
		Text:      req.Question,
		Category:  req.Category,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, q)
}

func (h *QuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "questionID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	var req AnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	q, err := h.questionService.Answer(r.Context(), actorFromContext(r.Context()), id, req.Answer)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, q)
}

func (h *QuestionHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "questionID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	var req EditQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	q, err := h.questionService.Edit(r.Context(), actorFromContext(r.Context()), id, services.EditQuestionInput{
		Text:      req.Question,
		Category:  req.Category,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, q)
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "questionID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if err := h.questionService.Delete(r.Context(), actorFromContext(r.Context()), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuestionHandler) ListForFounder(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "founderID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	questions, err := h.questionService.ListForFounder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, questions)
}

func (h *QuestionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionService.ListMine(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, questions)
}

type AskRequest struct {
	FounderID int    `json:"founderId"`
	Question  string `json:"question"`
	Category  string `json:"category"`
	Anonymous bool   `json:"anonymous"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type EditQuestionRequest struct {
	Question  *string `json:"question"`
	Category  *string `json:"category"`
	Anonymous *bool   `json:"anonymous"`
}
