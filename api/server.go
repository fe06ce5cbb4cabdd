/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. Logging:    Structured request logging via slog
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/pay-periods/*    Pay period lifecycle
  /api/settlements/*    Per-period settlement lifecycle
  /api/caregivers/*     Caregiver management
  /api/time-entries/*   Hours worked
  /api/expenses/*       Household expenses
  /health               Liveness probe

SECURITY NOTE:
  No authentication middleware. This runs on a trusted home network for
  exactly two users.

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
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Pay period routes
		r.Route("/pay-periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreatePeriod)
			r.Get("/current", h.GetCurrentPeriod)
			r.Post("/generate", h.GeneratePeriods)
			r.Get("/{id}", h.GetPeriod)
			r.Put("/{id}", h.UpdatePeriod)
			r.Post("/{id}/close", h.ClosePeriod)
			r.Post("/{id}/reopen", h.ReopenPeriod)
		})

		// Settlement routes
		r.Route("/settlements", func(r chi.Router) {
			r.Get("/{periodID}", h.GetSettlement)
			r.Post("/{periodID}/calculate", h.RecalculateSettlement)
			r.Post("/{periodID}/mark-settled", h.MarkSettled)
			r.Post("/{periodID}/unsettle", h.UnsettleSettlement)
		})

		// Caregiver routes
		r.Route("/caregivers", func(r chi.Router) {
			r.Get("/", h.ListCaregivers)
			r.Post("/", h.CreateCaregiver)
			r.Get("/{id}", h.GetCaregiver)
			r.Put("/{id}", h.UpdateCaregiver)
			r.Delete("/{id}", h.DeactivateCaregiver)
		})

		// Time entry routes
		r.Route("/time-entries", func(r chi.Router) {
			r.Get("/", h.ListTimeEntries)
			r.Post("/", h.CreateTimeEntry)
			r.Get("/{id}", h.GetTimeEntry)
			r.Put("/{id}", h.UpdateTimeEntry)
			r.Delete("/{id}", h.DeleteTimeEntry)
		})

		// Expense routes
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Get("/summary", h.ExpenseSummary)
			r.Get("/{id}", h.GetExpense)
			r.Put("/{id}", h.UpdateExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func requestLogger(h *Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			h.Logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
