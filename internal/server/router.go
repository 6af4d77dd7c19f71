package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"selfserve-cloud-portal/internal/audit"
	"selfserve-cloud-portal/internal/dispatch"
	"selfserve-cloud-portal/internal/identity/service"
	"selfserve-cloud-portal/internal/session"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth     *service.AuthService
	Sessions *session.Manager
	Dispatch *dispatch.Service
	Trail    *audit.Recorder
	Logger   *slog.Logger
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET  /healthz - liveness probe
//   - POST /api/v1/auth/register - create an identity
//   - POST /api/v1/auth/login - exchange credentials for a session token
//   - POST /api/v1/auth/logout - end the bearer session
//   - POST /api/v1/providers/{provider}/resources - create a resource (authenticated)
//   - GET  /api/v1/providers/{provider}/resources - list resources (authenticated)
//   - GET  /api/v1/audit - audit trail in insertion order (authenticated)
//   - GET  /api/v1/metrics/mock - mock utilization sample (authenticated)
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		WriteJSONOK(w, map[string]string{"status": "ok"})
	})

	authHandler := NewAuthHandler(deps.Auth)
	dispatchHandler := NewDispatchHandler(deps.Dispatch)
	auditHandler := NewAuditHandler(deps.Trail)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(SessionAuth(deps.Sessions))
			r.Post("/providers/{provider}/resources", dispatchHandler.Create)
			r.Get("/providers/{provider}/resources", dispatchHandler.List)
			r.Get("/audit", auditHandler.List)
			r.Get("/metrics/mock", MockMetrics)
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status, and duration.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
