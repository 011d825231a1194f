package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/services"
	"github.com/startup-vidyapith/apiserver/types"
)

// UserHandler provides account management endpoints.
type UserHandler struct {
	userService *services.UserService
	log         *logger.Logger
}

// UserRouter registers user routes. Every route requires authentication.
func UserRouter(r chi.Router, userService *services.UserService, authMiddleware func(http.Handler) http.Handler, log *logger.Logger) {
	handler := &UserHandler{userService: userService, log: log}

	r.Use(authMiddleware)
	r.Put("/me", handler.UpdateMe)
	r.Put("/{userID}/active", handler.SetActive)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), actorFromContext(r.Context()), services.UpdateUserInput{
		Name:        req.Name,
		Branch:      req.Branch,
		Year:        req.Year,
		StartupName: req.StartupName,
		Designation: req.Designation,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, types.NewUserView(user))
}

func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	var req SetActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if req.Active == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "active is required", Field: "active"})
		return
	}

	user, err := h.userService.SetActive(r.Context(), actorFromContext(r.Context()), id, *req.Active)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, types.NewUserView(user))
}

type UpdateUserRequest struct {
	Name        *string `json:"name"`
	Branch      *string `json:"branch"`
	Year        *int    `json:"year"`
	StartupName *string `json:"startupName"`
	Designation *string `json:"designation"`
}

type SetActiveRequest struct {
	Active *bool `json:"active"`
}
