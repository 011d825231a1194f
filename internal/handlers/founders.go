package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/services"
)

// FounderHandler serves founder profiles.
type FounderHandler struct {
	founderService *services.FounderService
	log            *logger.Logger
}

// FounderRouter registers founder profile routes. Reads are public.
func FounderRouter(r chi.Router, founderService *services.FounderService, authMiddleware func(http.Handler) http.Handler, log *logger.Logger) {
	handler := &FounderHandler{founderService: founderService, log: log}

	r.Get("/", handler.List)
	r.With(authMiddleware).Put("/profile", handler.UpsertProfile)
	r.Get("/{founderID}", handler.Get)
}

func (h *FounderHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.founderService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, profiles)
}

func (h *FounderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "founderID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	profile, err := h.founderService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, profile)
}

func (h *FounderHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req FounderProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	profile, err := h.founderService.UpsertProfile(r.Context(), actorFromContext(r.Context()), services.FounderProfileInput{
		Bio:           req.Bio,
		Location:      req.Location,
		BusinessStage: req.BusinessStage,
		FundingStage:  req.FundingStage,
		Skills:        req.Skills,
		Interests:     req.Interests,
		LookingFor:    req.LookingFor,
		Hiring:        req.Hiring,
		HiringDetails: req.HiringDetails,
		ProfilePhoto:  req.ProfilePhoto,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, profile)
}

type FounderProfileRequest struct {
	Bio           string   `json:"bio"`
	Location      string   `json:"location"`
	BusinessStage string   `json:"businessStage"`
	FundingStage  string   `json:"fundingStage"`
	Skills        []string `json:"skills"`
	Interests     []string `json:"interests"`
	LookingFor    []string `json:"lookingFor"`
	Hiring        bool     `json:"hiring"`
	HiringDetails string   `json:"hiringDetails"`
	ProfilePhoto  string   `json:"profilePhoto"`
}
