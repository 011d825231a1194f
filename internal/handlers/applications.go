package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/services"
)

// ApplicationHandler serves applications and the notifications they produce.
type ApplicationHandler struct {
	applicationService  *services.ApplicationService
	notificationService *services.NotificationService
	log                 *logger.Logger
}

// ApplicationRouter registers application and notification routes. Every
// route requires authentication.
func ApplicationRouter(
	r chi.Router,
	applicationService *services.ApplicationService,
	notificationService *services.NotificationService,
	authMiddleware func(http.Handler) http.Handler,
	log *logger.Logger,
) {
	handler := &ApplicationHandler{
		applicationService:  applicationService,
		notificationService: notificationService,
		log:                 log,
	}

	r.Use(authMiddleware)
	r.Post("/", handler.Submit)
	r.Get("/mine", handler.ListMine)
	r.Get("/founder/{founderID}", handler.ListForFounder)
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", handler.ListNotifications)
		r.Put("/read-all", handler.MarkAllRead)
		r.Put("/{notificationID}/read", handler.MarkRead)
	})
	r.Route("/{applicationID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Put("/status", handler.ChangeStatus)
		r.Put("/withdraw", handler.Withdraw)
		r.Post("/responses", handler.Respond)
	})
}

func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	app, err := h.applicationService.Submit(r.Context(), actorFromContext(r.Context()), services.SubmitInput{
		FounderID:  req.FounderID,
		Role:       req.Role,
		Message:    req.Message,
		Experience: req.Experience,
		Skills:     req.Skills,
		Email:      req.Email,
		Phone:      req.Phone,
		Resume:     req.Resume,
		Portfolio:  req.Portfolio,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "applicationID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	app, err := h.applicationService.Get(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, app)
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applicationService.ListMine(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) ListForFounder(w http.ResponseWriter, r *http.Request) {
	founderID, err := parseIDParam(r, "founderID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	list, err := h.applicationService.ListForFounder(r.Context(), actorFromContext(r.Context()), founderID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

// ChangeStatus applies a founder's status change. actionBy and actionDate in
// the body are ignored in favour of the session user and the server clock.
func (h *ApplicationHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "applicationID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	app, err := h.applicationService.ChangeStatus(r.Context(), actorFromContext(r.Context()), id, services.StatusInput{
		Status:        req.Status,
		CustomMessage: req.CustomMessage,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "applicationID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	var req WithdrawRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	app, err := h.applicationService.Withdraw(r.Context(), actorFromContext(r.Context()), id, req.Message)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "applicationID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	var req RespondRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	app, err := h.applicationService.Respond(r.Context(), actorFromContext(r.Context()), id, req.Message)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.notificationService.List(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (h *ApplicationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "notificationID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	n, err := h.notificationService.MarkRead(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, n)
}

func (h *ApplicationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	changed, err := h.notificationService.MarkAllRead(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, MarkAllReadResponse{Updated: changed})
}

type SubmitApplicationRequest struct {
	FounderID  int    `json:"founderId"`
	Role       string `json:"role"`
	Message    string `json:"message"`
	Experience string `json:"experience"`
	Skills     string `json:"skills"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Resume     string `json:"resume"`
	Portfolio  string `json:"portfolio"`
}

type StatusRequest struct {
	Status        string `json:"status"`
	CustomMessage string `json:"customMessage"`
}

type WithdrawRequest struct {
	Message string `json:"message"`
}

type RespondRequest struct {
	Message string `json:"message"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}
