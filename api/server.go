/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (slog, carries the request ID)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a local frontend

ROUTE GROUPS:
  /api/reports/*        Service reports and summaries
  /api/plans/*          Day and recurring plans
  /api/planned/*        Planned-minutes aggregations
  /api/preferences      Publisher preferences
  /api/cache            Planned-minutes cache

SECURITY NOTE:
  No authentication middleware. The server is meant to run next to a
  single user's client.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
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
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.ListReports)
			r.Post("/", h.CreateReport)
			r.Get("/month", h.GetMonthReport)
			r.Get("/service-year/{sy}", h.GetServiceYearReport)
			r.Put("/{id}", h.UpdateReport)
			r.Delete("/{id}", h.DeleteReport)
		})

		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Delete("/", h.DeleteAllPlans)

			r.Route("/day", func(r chi.Router) {
				r.Get("/", h.ListDayPlans)
				r.Post("/", h.CreateDayPlan)
				r.Put("/{id}", h.UpdateDayPlan)
				r.Delete("/{id}", h.DeleteDayPlan)
			})

			r.Route("/recurring", func(r chi.Router) {
				r.Get("/", h.ListRecurringPlans)
				r.Post("/", h.CreateRecurringPlan)
				r.Put("/{id}", h.UpdateRecurringPlan)
				r.Delete("/{id}", h.DeleteRecurringPlan)
				r.Get("/{id}/date/{date}", h.GetRecurringPlanForDate)
				r.Get("/{id}/occurrences", h.ListOccurrences)
				r.Get("/{id}/rrule", h.GetRRule)
				r.Post("/{id}/overrides", h.AddOverride)
				r.Put("/{id}/overrides", h.UpdateOverride)
				r.Delete("/{id}/overrides/{date}", h.RemoveOverride)
				r.Post("/{id}/deleted-dates/{date}", h.DeleteOccurrence)
				r.Delete("/{id}/deleted-dates/{date}", h.RestoreOccurrence)
			})
		})

		// Planned-minutes routes
		r.Route("/planned", func(r chi.Router) {
			r.Get("/", h.GetPlannedMonth)
			r.Get("/service-year/{sy}", h.GetPlannedServiceYear)
			r.Get("/day/{date}", h.GetPlannedDay)
		})

		r.Get("/preferences", h.GetPreferences)
		r.Put("/preferences", h.UpdatePreferences)

		r.Get("/cache", h.GetCache)
		r.Delete("/cache", h.ClearCache)
	})

	return r
}

// requestLogger logs one line per request at info level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.InfoContext(r.Context(), "request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"requestID", middleware.GetReqID(r.Context()))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
