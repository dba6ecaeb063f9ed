package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/omnidesk/internal/api/middleware"
	"github.com/eldtechnologies/omnidesk/internal/handlers"
	"github.com/eldtechnologies/omnidesk/internal/models"
	"github.com/eldtechnologies/omnidesk/internal/store"
)

// Options tunes the router. The zero value is usable.
type Options struct {
	TokenTTL           time.Duration
	LoginPerMinute     int
	RateLimitWhitelist []string
	MaxBodyBytes       int64
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, ds store.DataStore, tokens store.TokenStore, opts Options) *chi.Mux {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 * 1024
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}

	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(opts.MaxBodyBytes))
	r.Use(middleware.RequireJSON)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(ds, tokens, opts.TokenTTL, logger)
	auth := middleware.NewAuthMiddleware(ds, tokens)
	loginLimiter := middleware.NewRateLimiter(logger, middleware.RateLimiterConfig{
		PerMinute: opts.LoginPerMinute,
		Whitelist: opts.RateLimitWhitelist,
		Endpoint:  "/auth/login",
	})

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Get("/api", h.Root)
	r.Get("/health", h.Health)
	r.With(loginLimiter.Middleware).Post("/auth/login", h.Login)

	// Authenticated routes (require bearer token)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/auth/me", h.Me)
		r.Post("/auth/logout", h.Logout)

		r.Route("/whatsapp", func(r chi.Router) {
			r.Get("/conversations", h.WhatsAppConversations)
			r.Get("/conversations/{id}/messages", h.WhatsAppMessages)
			r.Put("/conversations/{id}/automation", h.SetAutomation(models.PlatformWhatsApp))
			r.Post("/send", h.WhatsAppSend)
			r.Get("/settings", h.WhatsAppSettings)
			r.Post("/test", h.TestChannel(models.PlatformWhatsApp))
		})

		r.Route("/instagram", func(r chi.Router) {
			r.Get("/conversations", h.InstagramConversations)
			r.Get("/conversations/{id}/messages", h.InstagramMessages)
			r.Put("/conversations/{id}/automation", h.SetAutomation(models.PlatformInstagram))
			r.Post("/messages", h.InstagramSend)
			r.Get("/settings", h.InstagramSettings)
			r.Post("/test", h.TestChannel(models.PlatformInstagram))
		})

		r.Route("/messenger", func(r chi.Router) {
			r.Get("/conversations", h.MessengerConversations)
			r.Get("/conversations/{id}/messages", h.MessengerMessages)
			r.Put("/conversations/{id}/automation", h.SetAutomation(models.PlatformMessenger))
			r.Post("/send", h.MessengerSend)
			r.Get("/settings", h.MessengerSettings)
			r.Post("/test", h.TestChannel(models.PlatformMessenger))
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", h.ListConversations)
			r.Get("/{id}/messages", h.ConversationMessages)
			r.Post("/{id}/messages", h.SendConversationMessage)
		})

		r.Post("/ai/test", h.AITest)
	})

	return r
}
