// Package api assembles the HTTP surface: the router, route table, and
// request handlers. Handlers parse input, call the core services, and write
// envelopes; they never render errors themselves.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/edupilot/edupilot/pkg/auth"
	"github.com/edupilot/edupilot/pkg/httputil"
	"github.com/edupilot/edupilot/pkg/middleware"
	"github.com/edupilot/edupilot/pkg/observability"
	"github.com/edupilot/edupilot/pkg/storage"
)

const (
	loginRateLimit  = 10
	loginRateWindow = 60 * time.Second
)

// Server wires the route table over the core services.
type Server struct {
	router *mux.Router

	sessions *auth.SessionService
	hasher   *auth.PasswordHasher
	users    storage.UserStore
	classes  storage.ClassStore

	authn   *middleware.Authenticator
	limiter *middleware.RateLimiter

	allowedOrigins []string

	logger  *observability.Logger
	metrics *observability.Metrics
}

// ServerConfig carries the collaborators the server needs.
type ServerConfig struct {
	Sessions      *auth.SessionService
	Hasher        *auth.PasswordHasher
	Users         storage.UserStore
	Classes       storage.ClassStore
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	// AllowedOrigins configures CORS; empty disables cross-origin access.
	AllowedOrigins []string
	Logger         *observability.Logger
	Metrics        *observability.Metrics
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		sessions:       cfg.Sessions,
		hasher:         cfg.Hasher,
		users:          cfg.Users,
		classes:        cfg.Classes,
		authn:          cfg.Authenticator,
		limiter:        cfg.RateLimiter,
		allowedOrigins: cfg.AllowedOrigins,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}
	s.setupRoutes()
	return s
}

// Router exposes the configured router for the HTTP server and tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures the route table. Login and refresh sit behind the
// per-IP rate limit; everything else behind the auth guards it needs.
func (s *Server) setupRoutes() {
	rate := s.limiter.Limit(loginRateLimit, loginRateWindow)

	s.router.Handle("/api/v1/auth/login",
		rate(http.HandlerFunc(s.login))).Methods("POST")
	s.router.Handle("/api/v1/auth/refresh",
		rate(http.HandlerFunc(s.refresh))).Methods("POST")
	s.router.Handle("/api/v1/auth/profile",
		s.authn.RequireUser(http.HandlerFunc(s.profile))).Methods("GET")
	s.router.Handle("/api/v1/auth/verify_token",
		s.authn.RequireUser(http.HandlerFunc(s.verifyToken))).Methods("GET")

	// User administration
	s.router.Handle("/api/v1/users",
		s.authn.RequireAdmin(http.HandlerFunc(s.registerUser))).Methods("POST")
	s.router.Handle("/api/v1/users/{uuid}",
		s.authn.RequireAdmin(http.HandlerFunc(s.deleteUser))).Methods("DELETE")

	// Classes and assignments
	s.router.Handle("/api/v1/classes",
		s.authn.RequireAdmin(http.HandlerFunc(s.createClass))).Methods("POST")
	s.router.Handle("/api/v1/classes/join",
		s.authn.RequireUser(http.HandlerFunc(s.joinClass))).Methods("POST")
	s.router.Handle("/api/v1/classes/{class_uuid}/assignments",
		s.authn.RequireTeacherOrAdmin(http.HandlerFunc(s.createAssignment))).Methods("POST")
	s.router.Handle("/api/v1/classes/{class_uuid}/assignments/{uuid}",
		s.authn.RequireUser(http.HandlerFunc(s.getAssignment))).Methods("GET")

	s.router.HandleFunc("/health", s.health).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	base := []mux.MiddlewareFunc{
		httputil.RecoveryMiddleware(s.logger),
		httputil.AccessLogMiddleware(s.logger),
	}
	if len(s.allowedOrigins) > 0 {
		base = append(base, httputil.CORSMiddleware(s.allowedOrigins))
	}
	if s.metrics != nil {
		base = append(base, s.metrics.Middleware)
	}
	s.router.Use(base...)
}

// health reports process liveness.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, "ok", map[string]string{"status": "ok"})
}
