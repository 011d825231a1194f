package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/services"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	productService *services.ProductService
	log            *logger.Logger
}

// ProductRouter registers product routes. Reads are public.
func ProductRouter(r chi.Router, productService *services.ProductService, authMiddleware func(http.Handler) http.Handler, log *logger.Logger) {
	handler := &ProductHandler{productService: productService, log: log}

	r.Get("/", handler.List)
	r.With(authMiddleware).Post("/", handler.Create)
	r.Route("/{productID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(authMiddleware).Put("/", handler.Update)
		r.With(authMiddleware).Delete("/", handler.Delete)
	})
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	founderID, err := parseOptionalInt(r.URL.Query().Get("founderId"))
	if err != nil || founderID < 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid founder id", Field: "founderId"})
		return
	}
	products, err := h.productService.List(r.Context(), founderID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	product, err := h.productService.Create(r.Context(), actorFromContext(r.Context()), req.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	product, err := h.productService.Update(r.Context(), actorFromContext(r.Context()), id, req.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "productID")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if err := h.productService.Delete(r.Context(), actorFromContext(r.Context()), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	Image       string   `json:"image"`
}

func (req ProductRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		URL:         req.URL,
		Tags:        req.Tags,
		Image:       req.Image,
	}
}
