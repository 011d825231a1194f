package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/services"
	"github.com/startup-vidyapith/apiserver/types"
)

// AuthHandler provides registration, login and session endpoints.
type AuthHandler struct {
	userService *services.UserService
	log         *logger.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, log: log}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, log *logger.Logger) {
	handler := NewAuthHandler(userService, log)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(userService, log))
		r.Get("/me", handler.Me)
		r.Post("/logout", handler.Logout)
	})
}

// RequireAuth resolves the bearer token into a session and injects it into
// the request context.
func RequireAuth(userService *services.UserService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
				return
			}
			session, err := userService.Authenticate(r.Context(), token)
			if err != nil {
				writeServiceError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// Register creates a new account and returns a token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	user, token, err := h.userService.Register(r.Context(), services.RegisterInput{
		Name:            req.Name,
		InstitutionalID: req.InstitutionalID,
		Email:           req.Email,
		Password:        req.Password,
		Role:            req.Role,
		Branch:          req.Branch,
		Year:            req.Year,
		StartupName:     req.StartupName,
		Designation:     req.Designation,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusCreated, AuthResponse{Token: token, User: types.NewUserView(user)})
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	identifier := req.Identifier
	for _, candidate := range []string{req.Email, req.InstitutionalID} {
		if strings.TrimSpace(identifier) == "" {
			identifier = candidate
		}
	}

	user, token, err := h.userService.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeData(w, http.StatusOK, AuthResponse{Token: token, User: types.NewUserView(user)})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
		return
	}
	writeData(w, http.StatusOK, types.NewUserView(session.User))
}

// Logout revokes the token the request was made with.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
		return
	}
	if err := h.userService.Logout(r.Context(), session); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type RegisterRequest struct {
	Name            string `json:"name"`
	InstitutionalID string `json:"institutionalId"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	Branch          string `json:"branch"`
	Year            int    `json:"year"`
	StartupName     string `json:"startupName"`
	Designation     string `json:"designation"`
}

// LoginRequest accepts the identifier under any of its names.
type LoginRequest struct {
	Identifier      string `json:"identifier"`
	Email           string `json:"email"`
	InstitutionalID string `json:"institutionalId"`
	Password        string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}
