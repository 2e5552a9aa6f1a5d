package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/course-content/pkg/coursecontent"
	"github.com/tendant/course-content/pkg/coursecontent/api"
	"github.com/tendant/course-content/pkg/coursecontent/config"
)

// HTTPServer wraps the course content service for HTTP access
type HTTPServer struct {
	service        coursecontent.Service
	config         *config.ServerConfig
	requestTimeout time.Duration
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(service coursecontent.Service, serverConfig *config.ServerConfig, requestTimeout time.Duration) *HTTPServer {
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &HTTPServer{
		service:        service,
		config:         serverConfig,
		requestTimeout: requestTimeout,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(s.requestTimeout))

	// CORS for development
	if s.config.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", s.handleHealth)
	r.Get("/config", s.handleGetConfig)

	// API routes
	r.Mount("/api/v1", api.NewContentHandler(s.service).Routes())

	return r
}

// HealthResponse is the response body of /health
type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Store       string `json:"store"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:      "healthy",
		Environment: s.config.Environment,
		Store:       s.config.StoreType,
	})
}

// ConfigResponse is the response body of /config
type ConfigResponse struct {
	Environment        string `json:"environment"`
	Store              string `json:"store"`
	DeleteMode         string `json:"delete_mode"`
	Concurrency        string `json:"concurrency"`
	EnableEventLogging bool   `json:"enable_event_logging"`
}

func (s *HTTPServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ConfigResponse{
		Environment:        s.config.Environment,
		Store:              s.config.StoreType,
		DeleteMode:         string(s.config.DeleteMode),
		Concurrency:        string(s.config.Concurrency),
		EnableEventLogging: s.config.EnableEventLogging,
	})
}
