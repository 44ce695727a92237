// Package handler provides the HTTP surface the calculator UI consumes.
// It proxies verb-shaped calls straight to the catalog client facade and
// exposes no cascade or synthesis details.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/GE3O/fence-catalog/internal/model"
)

// Catalog abstracts the client facade consumed by the handlers.
type Catalog interface {
	Read(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
	Create(ctx context.Context, path string, body any) (json.RawMessage, error)
	Update(ctx context.Context, path string, body any) (json.RawMessage, error)
	Delete(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	catalog Catalog
	logger  *slog.Logger
}

// New creates a Handler backed by the given catalog facade.
func New(c Catalog, logger *slog.Logger) *Handler {
	return &Handler{catalog: c, logger: logger}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns. The {path...} wildcard carries the
// logical upstream resource path (e.g. products/categories).
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /catalog/{path...}", h.handleRead)
	mux.HandleFunc("POST /catalog/{path...}", h.handleCreate)
	mux.HandleFunc("PUT /catalog/{path...}", h.handleUpdate)
	mux.HandleFunc("DELETE /catalog/{path...}", h.handleDelete)

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	raw, err := h.catalog.Read(r.Context(), r.PathValue("path"), r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRaw(w, http.StatusOK, raw)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := decodeJSON(r)
	if err != nil {
		h.writeBadRequest(w)
		return
	}
	raw, err := h.catalog.Create(r.Context(), r.PathValue("path"), body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRaw(w, http.StatusCreated, raw)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := decodeJSON(r)
	if err != nil {
		h.writeBadRequest(w)
		return
	}
	raw, err := h.catalog.Update(r.Context(), r.PathValue("path"), body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRaw(w, http.StatusOK, raw)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	raw, err := h.catalog.Delete(r.Context(), r.PathValue("path"), r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRaw(w, http.StatusOK, raw)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeRaw(w, http.StatusOK, json.RawMessage(`{"status":"ok"}`))
}

// === Response Helpers ===

// writeRaw sends an already-encoded JSON payload.
func (h *Handler) writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		h.logger.Error("failed to write response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response. Transport failures map to gateway
// statuses; the UI renders all of them as a generic could-not-load state.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	code := "UPSTREAM_UNAVAILABLE"
	message := "could not load catalog data"

	var terr *model.TransportError
	switch {
	case errors.As(err, &terr):
		code = terr.Code
		if errors.Is(err, model.ErrTimeout) {
			status = http.StatusGatewayTimeout
		}
	case errors.Is(err, context.Canceled):
		// Client went away; best-effort status, likely unseen.
		status = 499
		code = "CLIENT_CLOSED_REQUEST"
	default:
		status = http.StatusInternalServerError
		code = "INTERNAL_ERROR"
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{
		Error: errorBody{Code: code, Message: message},
	}); err != nil {
		h.logger.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}

// writeBadRequest rejects an unparseable request body.
func (h *Handler) writeBadRequest(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(errorResponse{
		Error: errorBody{Code: "VALIDATION_ERROR", Message: "invalid JSON body"},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeJSON reads the request body as an arbitrary JSON value.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
func decodeJSON(r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	var v any
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
