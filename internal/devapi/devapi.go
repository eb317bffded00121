// Package devapi assembles the development stand-in for the remote task
// REST API: the /api/Auth, /api/States and /api/Tasks routes over the
// in-memory store.
package devapi

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	v1 "github.com/gosuda/taskboard/internal/api/v1"
	"github.com/gosuda/taskboard/internal/auth"
	"github.com/gosuda/taskboard/internal/server/middleware"
)

// Per-user request budget of the authenticated routes.
const (
	rateLimitRPS   = 100
	rateLimitBurst = 200
)

// New returns the API handler. ctx bounds the rate limiter's sweep
// goroutine.
func New(ctx context.Context, store v1.DataStore, authSvc *auth.Service, origins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Unauthenticated auth routes (register, login).
	router.Group(func(r chi.Router) {
		authConfig := huma.DefaultConfig("Taskboard Auth API", "1.0.0")
		authConfig.OpenAPIPath = "/api/auth-openapi"
		authConfig.DocsPath = ""
		authConfig.SchemasPath = "/api/auth-schemas"
		authAPI := humachi.New(r, authConfig)
		v1.RegisterAuthRoutes(authAPI, authSvc)
	})

	// Authenticated routes (states, tasks).
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authSvc))
		r.Use(middleware.RateLimit(ctx, rateLimitRPS, rateLimitBurst))

		apiConfig := huma.DefaultConfig("Taskboard API", "1.0.0")
		apiConfig.OpenAPIPath = "/api/openapi"
		apiConfig.DocsPath = ""
		apiConfig.SchemasPath = "/api/schemas"
		api := humachi.New(r, apiConfig)
		v1.RegisterStateRoutes(api, store)
		v1.RegisterTaskRoutes(api, store)
	})

	return router
}
