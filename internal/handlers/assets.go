package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/storage"
)

// AssetOpener reads stored assets by key.
type AssetOpener interface {
	Open(ctx context.Context, key string) (storage.Object, error)
}

// AssetHandler streams uploaded assets.
type AssetHandler struct {
	assets AssetOpener
	log    *logger.Logger
}

// AssetRouter registers the public asset route.
func AssetRouter(r chi.Router, assets AssetOpener, log *logger.Logger) {
	handler := &AssetHandler{assets: assets, log: log}
	r.Get("/*", handler.Serve)
}

func (h *AssetHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || strings.Contains(key, "..") {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	obj, err := h.assets.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}
	defer obj.Body.Close()

	etag := ""
	if obj.ETag != "" {
		etag = `"` + strings.Trim(obj.ETag, `"`) + `"`
		w.Header().Set("ETag", etag)
	}
	if !obj.ModTime.IsZero() {
		w.Header().Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if etag != "" && r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.log.Warn("asset stream interrupted", "key", key, "error", err)
	}
}
