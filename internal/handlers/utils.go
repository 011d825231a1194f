package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/startup-vidyapith/apiserver/internal/authz"
	"github.com/startup-vidyapith/apiserver/internal/lifecycle"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/services"
)

// maxBodyBytes leaves room for a base64-encoded 5MB asset.
const maxBodyBytes = 8 << 20

type contextKey string

const contextSessionKey contextKey = "session"

func withSession(ctx context.Context, s services.Session) context.Context {
	return context.WithValue(ctx, contextSessionKey, s)
}

func sessionFromContext(ctx context.Context) (services.Session, bool) {
	s, ok := ctx.Value(contextSessionKey).(services.Session)
	return s, ok
}

// actorFromContext returns the zero Actor for anonymous requests, which
// every authz predicate denies.
func actorFromContext(ctx context.Context) authz.Actor {
	s, ok := sessionFromContext(ctx)
	if !ok {
		return authz.Actor{}
	}
	return s.Actor()
}

// DataResponse wraps every successful payload.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, DataResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError maps service errors onto status codes. Unexpected errors
// are logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var (
		validation   *services.ValidationError
		authzErr     *services.AuthorizationError
		notFound     *services.NotFoundError
		conflict     *services.ConflictError
		invalidTrans *lifecycle.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: validation.Message, Field: validation.Field})
	case errors.Is(err, services.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &authzErr):
		writeError(w, http.StatusForbidden, authzErr.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &invalidTrans):
		writeError(w, http.StatusBadRequest, invalidTrans.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, false)
}

// decodeOptionalJSON is decodeJSON for routes whose body may be absent,
// including chunked requests that carry no bytes. dst is left untouched then.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	if r.Body == nil {
		if optional {
			return nil
		}
		return &services.ValidationError{Message: "request body is required"}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return &services.ValidationError{Message: "request body is too large"}
		case errors.Is(err, io.EOF):
			if optional {
				return nil
			}
			return &services.ValidationError{Message: "request body is required"}
		default:
			return &services.ValidationError{Message: "invalid request body"}
		}
	}
	return nil
}

func parseIDParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil || id < 1 {
		return 0, &services.ValidationError{Field: name, Message: "invalid id"}
	}
	return id, nil
}

func parseOptionalInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
