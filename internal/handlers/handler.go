package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/omnidesk/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	ds       store.DataStore
	tokens   store.TokenStore
	tokenTTL time.Duration
	logger   zerolog.Logger
}

// NewHandler creates a new Handler with the given stores.
func NewHandler(ds store.DataStore, tokens store.TokenStore, tokenTTL time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{ds: ds, tokens: tokens, tokenTTL: tokenTTL, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// decode reads a JSON body into v, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// customerParam returns the unescaped {id} route parameter.
func customerParam(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if un, err := url.PathUnescape(id); err == nil {
		id = un
	}
	return strings.TrimSpace(id)
}

// limitParam parses ?limit=, clamped to [1, 500], default 100.
func limitParam(r *http.Request) int {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

func rfc3339Millis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}
