/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/categories          Category listing
  /api/budget/*            Weekly budgets and limit
  /api/expenses/*          Expense tracking
  /api/smart/*             Smart budget features
  /api/analytics/*         Trends and forecasts
  /api/recommendations/*   Savings recommendations

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", h.ListCategories)

		// Budget routes
		r.Route("/budget", func(r chi.Router) {
			r.Get("/current", h.GetCurrentWeekBudget)
			r.Get("/week", h.GetWeekBudget)
			r.Post("/week", h.SetWeekBudget)
			r.Get("/limit", h.GetWeeklyLimit)
			r.Put("/limit", h.UpdateWeeklyLimit)
			r.Get("/summary", h.GetWeekSummary)
		})

		r.Get("/reconciliation", h.GetReconciliation)

		// Expense routes
		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", h.AddExpense)
			r.Put("/{id}", h.UpdateExpense)
			r.Delete("/{id}", h.DeleteExpense)
			r.Get("/week", h.GetWeekExpenses)
			r.Get("/range", h.GetExpensesByRange)
		})

		// Smart budget routes
		r.Route("/smart", func(r chi.Router) {
			r.Get("/reallocate", h.GetReallocations)
			r.Post("/adjust", h.AutoAdjust)
			r.Get("/health", h.GetHealthScore)
			r.Get("/predict", h.GetPrediction)
			r.Get("/alerts", h.GetAlerts)
		})

		// Analytics routes
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/trends", h.GetTrends)
			r.Get("/forecast", h.GetForecast)
			r.Get("/top", h.GetTopCategories)
		})

		r.Get("/recommendations/savings", h.GetSavings)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
