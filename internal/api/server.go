// Package api provides the HTTP API server and handlers for RecipeBox.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/metrics"
	"github.com/recipebox/recipebox-server/internal/store"
)

// APIVersion is reported in the OpenAPI document.
const APIVersion = "1.0.0"

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins    []string
	MetricsEnabled bool

	// Login and registration limits per client IP.
	AuthPerMinute int
	AuthBurst     int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       store.Store
	services    *Services
	images      *images.Storage
	router      *chi.Mux
	api         huma.API
	authLimiter *RateLimiter
	opts        Options
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, imageStorage *images.Storage, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.AuthPerMinute <= 0 {
		opts.AuthPerMinute = 20
	}
	if opts.AuthBurst <= 0 {
		opts.AuthBurst = 10
	}

	s := &Server{
		store:       st,
		services:    services,
		images:      imageStorage,
		router:      chi.NewRouter(),
		authLimiter: NewRateLimiter(opts.AuthPerMinute, time.Minute, opts.AuthBurst),
		opts:        opts,
		logger:      logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("RecipeBox API", APIVersion)
	humaConfig.Info.Description = "Recipes, tags and ingredients, scoped to the authenticated user."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(logger)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Shutdown stops background work owned by the server.
func (s *Server) Shutdown() error {
	s.authLimiter.Stop()
	return nil
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.StripSlashes)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.opts.MetricsEnabled {
		s.router.Use(metrics.Middleware)
	}
	s.router.Use(authMiddleware(s.services.Auth))
}

func (s *Server) corsOrigins() []string {
	if len(s.opts.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.opts.CORSOrigins
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerRecipeRoutes()
	s.registerAttributeRoutes(tagResource)
	s.registerAttributeRoutes(ingredientResource)

	// Multipart upload and file serving stay on chi.
	s.router.Post("/api/v1/recipes/{id}/upload-image", s.handleUploadRecipeImage)
	s.router.Get("/media/recipes/{file}", s.handleGetRecipeImage)

	if s.opts.MetricsEnabled {
		s.router.Handle("/metrics", metrics.Handler())
	}
}

// bearerSecurity marks an operation as requiring a token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}
