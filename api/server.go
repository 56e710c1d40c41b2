/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (zap)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend
  5. Authenticate + Require: per route group (auth.go)

ROUTE GROUPS:
  /api/auth/login       Public
  /api/directory/*      Any authenticated user
  /api/records/*        query / enter / edit permissions
  /api/reports/*        query / classification / unpaid / stats permissions
  /api/users/*          Admin
  /api/scenarios/*      Admin

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/warp/remittance-engine/users"
)

// RouterOptions configure NewRouter.
type RouterOptions struct {
	CORSOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Get("/auth/me", h.Me)

			// Directory routes
			r.Route("/directory", func(r chi.Router) {
				r.Get("/", h.GetDirectory)
				r.Get("/funding", h.GetFunding)
			})

			// Record routes
			r.Route("/records", func(r chi.Router) {
				r.With(h.Require(users.PermQueryData)).Get("/", h.ListRecords)
				r.With(h.Require(users.PermEnterData)).Post("/", h.CreateRecord)
				r.With(h.Require(users.PermQueryData)).Get("/{id}", h.GetRecord)
				r.With(h.Require(users.PermEditDelete)).Put("/{id}", h.UpdateRecord)
				r.With(h.Require(users.PermEditDelete)).Delete("/{id}", h.DeleteRecord)
			})

			// Report routes
			r.Route("/reports", func(r chi.Router) {
				r.With(h.Require(users.PermQueryData)).Get("/search", h.Search)
				r.With(h.Require(users.PermQueryData)).Get("/search.csv", h.ExportSearchCSV)
				r.With(h.Require(users.PermViewClassification)).Get("/classification", h.GetClassification)
				r.With(h.Require(users.PermViewUnpaid)).Get("/unpaid", h.GetUnpaid)
				r.With(h.Require(users.PermViewUnpaid)).Get("/unpaid/reminder", h.GetReminder)
				r.With(h.Require(users.PermViewUnpaid)).Get("/roster", h.GetRoster)
				r.With(h.Require(users.PermViewStats)).Get("/statistics", h.GetStatistics)
			})

			// User routes
			r.Route("/users", func(r chi.Router) {
				r.Use(h.Require(users.PermAdmin))
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
			})

			// Scenario routes
			r.Route("/scenarios", func(r chi.Router) {
				r.Use(h.Require(users.PermAdmin))
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetRecords)
			})
		})
	})

	return r
}

// requestLogger logs one line per request with zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
