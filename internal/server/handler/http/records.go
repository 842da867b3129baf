// Package http provides the HTTP handlers of the records API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/SymbolBoard/internal/middleware"
	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/atinyakov/SymbolBoard/internal/service"
)

// RecordService defines the record operations required by the RecordsHandler.
type RecordService interface {
	Get(ctx context.Context, ownerID, key string) (models.RemoteRecord, error)
	GetMany(ctx context.Context, ownerID string, keys []string) ([]models.RemoteRecord, error)
	List(ctx context.Context, ownerID, prefix string) ([]models.RemoteRecord, error)
	Put(ctx context.Context, ownerID, key string, payload []byte) (models.RemoteRecord, error)
	Delete(ctx context.Context, ownerID, key string) error
}

// RecordsHandler serves the owner-scoped records API.
type RecordsHandler struct {
	RecordService RecordService
	Log           *zap.Logger
}

// NewRecordsHandler creates a RecordsHandler.
func NewRecordsHandler(svc RecordService, log *zap.Logger) *RecordsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordsHandler{RecordService: svc, Log: log}
}

// maxBodySize leaves room for the base64 expansion of the largest payload.
const maxBodySize = service.MaxPayloadSize*4/3 + 1024

// recordKey returns the wildcard part of the path decoded exactly once. chi
// matches on RawPath when the request has one, and only then is the wildcard
// still escaped.
func recordKey(r *http.Request) string {
	key := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return key
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *RecordsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrNoOwner):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrInvalidKey), errors.Is(err, service.ErrTooManyKeys):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrPayloadTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		h.Log.Error("record request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Get handles GET /api/records/{key}.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.RecordService.Get(ctx, middleware.GetOwnerIDFromContext(ctx), recordKey(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Put handles PUT /api/records/{key} with a PutRecordRequest body.
func (h *RecordsHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.PutRecordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	rec, err := h.RecordService.Put(ctx, middleware.GetOwnerIDFromContext(ctx), recordKey(r), req.Payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /api/records/{key}.
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.RecordService.Delete(ctx, middleware.GetOwnerIDFromContext(ctx), recordKey(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/records?prefix=.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recs, err := h.RecordService.List(ctx, middleware.GetOwnerIDFromContext(ctx), r.URL.Query().Get("prefix"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// BatchRead handles POST /api/batch/read with a BatchReadRequest body.
// Missing keys are left out of the response.
func (h *RecordsHandler) BatchRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.BatchReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	recs, err := h.RecordService.GetMany(ctx, middleware.GetOwnerIDFromContext(ctx), req.Keys)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
