package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/sitesync/sitesync-server/internal/auth"
	"github.com/sitesync/sitesync-server/internal/config"
	"github.com/sitesync/sitesync-server/internal/integration"
	"github.com/sitesync/sitesync-server/internal/logbook"
	"github.com/sitesync/sitesync-server/internal/storage"
	"github.com/sitesync/sitesync-server/internal/validation"
)

// ctxKey is the context key type for request-scoped values
type ctxKey string

const claimsKey ctxKey = "claims"

// RESTServer represents the REST API server
type RESTServer struct {
	config    *config.Config
	store     storage.Store
	auth      *auth.JWTManager
	validator *validation.Validator
	lifecycle *logbook.Service
	publisher *integration.Publisher
	router    chi.Router
	server    *http.Server
}

// NewRESTServer creates a new REST API server. publisher may be nil
// when NATS is not configured.
func NewRESTServer(cfg *config.Config, store storage.Store, publisher *integration.Publisher) *RESTServer {
	s := &RESTServer{
		config:    cfg,
		store:     store,
		auth:      auth.NewJWTManager(&cfg.JWT),
		validator: validation.NewValidator(),
		publisher: publisher,
		router:    chi.NewRouter(),
	}

	if publisher != nil {
		s.lifecycle = logbook.NewService(store, publisher)
	} else {
		s.lifecycle = logbook.NewService(store, nil)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all routes
func (s *RESTServer) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		s.setupAPIRoutes(r)
	})
}

// ListenAndServe starts the server
func (s *RESTServer) ListenAndServe(addr string) error {
	s.server.Addr = addr

	// Serve the web UI build when present
	webDir := s.config.Web.StaticDir
	if envWebDir := os.Getenv("WEB_DIR"); envWebDir != "" {
		webDir = envWebDir
	}

	if webDir != "" {
		if _, err := os.Stat(webDir); os.IsNotExist(err) {
			log.Warn().Str("dir", webDir).Msg("Web directory not found, Web UI will not be available")
		} else {
			log.Info().Str("dir", webDir).Msg("Serving Web UI from directory")

			s.server.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasPrefix(r.URL.Path, "/api/") {
					s.router.ServeHTTP(w, r)
					return
				}

				fs := http.FileServer(http.Dir(webDir))

				// The SPA router owns extensionless paths
				if r.URL.Path == "/" || !strings.Contains(r.URL.Path, ".") {
					http.ServeFile(w, r, filepath.Join(webDir, "index.html"))
					return
				}

				fs.ServeHTTP(w, r)
			})
		}
	}

	log.Info().Str("addr", addr).Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *RESTServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// authMiddleware is the authentication middleware
func (s *RESTServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get token from header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		// Parse Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.respondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		// Validate token
		claims, err := s.auth.ValidateToken(parts[1])
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		// Add claims to context
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFrom extracts the authenticated claims from the request context
func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}
