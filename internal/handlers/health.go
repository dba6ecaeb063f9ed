package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/eldtechnologies/omnidesk/internal/models"
)

const version = "0.1.0"

type pinger interface {
	Ping(ctx context.Context) error
}

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Instance  string           `json:"instance,omitempty"`
	Checks    map[string]Check `json:"checks"`
	Channels  map[string]bool  `json:"channels"`
	Timestamp string           `json:"timestamp"`
}

func probe(ctx context.Context, p pinger) Check {
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return Check{Status: "fail", Message: "connection failed"}
	}
	return Check{Status: "pass", Latency: time.Since(start).String()}
}

// Health handles the health check endpoint. A disconnected channel account
// is reported but does not degrade the service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]Check{"datastore": probe(ctx, h.ds)}
	if p, ok := h.tokens.(pinger); ok {
		checks["tokens"] = probe(ctx, p)
	}

	channels := make(map[string]bool, len(models.Platforms))
	if checks["datastore"].Status == "pass" {
		for _, platform := range models.Platforms {
			ch, err := h.ds.GetChannel(ctx, platform)
			channels[platform] = err == nil && ch != nil && ch.Connected
		}
	}

	status, statusCode := "healthy", http.StatusOK
	for _, c := range checks {
		if c.Status != "pass" {
			status, statusCode = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	h.JSON(w, statusCode, HealthResponse{
		Status:    status,
		Version:   version,
		Instance:  os.Getenv("HOSTNAME"),
		Checks:    checks,
		Channels:  channels,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// RootResponse lists the API surface.
type RootResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Platforms []string `json:"platforms"`
	Endpoints []string `json:"endpoints"`
}

// Root handles GET /api.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{
		Name:      "omnidesk",
		Version:   version,
		Platforms: models.Platforms,
		Endpoints: []string{
			"POST /auth/login",
			"GET /auth/me",
			"POST /auth/logout",
			"GET /{platform}/conversations",
			"GET /{platform}/conversations/{id}/messages",
			"PUT /{platform}/conversations/{id}/automation",
			"GET /{platform}/settings",
			"POST /{platform}/test",
			"POST /whatsapp/send",
			"POST /instagram/messages",
			"POST /messenger/send",
			"GET /conversations?platform=",
			"GET /conversations/{id}/messages?platform=",
			"POST /conversations/{id}/messages?platform=",
			"POST /ai/test",
			"GET /health",
			"GET /metrics",
		},
	})
}
