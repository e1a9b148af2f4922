/*
handlers.go - HTTP API handlers for the budget engine

PURPOSE:
  Exposes the weekly budget engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Budget:
    GET    /api/categories           List spending categories
    GET    /api/budget/current       Current week's budget (lazily initialized)
    GET    /api/budget/week?date=    A specific week's budget
    POST   /api/budget/week          Set one allocation (with overflow rebalancing)
    GET    /api/budget/limit         Weekly budget limit
    PUT    /api/budget/limit         Update weekly budget limit
    GET    /api/budget/summary?date= Compact week rollup
    GET    /api/reconciliation?date= Full reconciliation report

  Expenses:
    POST   /api/expenses             Add expense
    PUT    /api/expenses/{id}        Update expense (amount/desc/payment/location)
    DELETE /api/expenses/{id}        Delete expense
    GET    /api/expenses/week?date=  A week's expenses
    GET    /api/expenses/range?start=&end=  Expenses in a date range

  Smart:
    GET    /api/smart/reallocate?date=  Reallocation suggestions
    POST   /api/smart/adjust            Auto-adjust next week
    GET    /api/smart/health?date=      Budget health score
    GET    /api/smart/predict?weeks=    Next-week prediction
    GET    /api/smart/alerts?date=      Spending alerts

  Analytics:
    GET    /api/analytics/trends?weeks=          Weekly spending trends
    GET    /api/analytics/forecast?month=&year=  Monthly forecast
    GET    /api/recommendations/savings          Savings recommendations

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown category or expense
  - 409: Concurrent write conflict
  - 500: Persistence failures
*/
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry   *budget.Registry
	Ledger     *budget.Ledger
	Expenses   *budget.Tracker
	Reconciler *budget.Reconciler
	Advisor    *budget.Advisor
	Analyzer   *budget.Analyzer
	Store      budget.Store
	Anchor     time.Weekday
}

// NewHandler wires the engine components around the given store.
func NewHandler(store budget.Store, anchor time.Weekday) *Handler {
	registry := budget.NewRegistry(store)
	ledger := budget.NewLedger(store, registry)
	reconciler := budget.NewReconciler(store)
	analyzer := budget.NewAnalyzer(store, registry)
	return &Handler{
		Registry:   registry,
		Ledger:     ledger,
		Expenses:   budget.NewTracker(store, registry),
		Reconciler: reconciler,
		Advisor:    budget.NewAdvisor(ledger, reconciler, analyzer, store),
		Analyzer:   analyzer,
		Store:      store,
		Anchor:     anchor,
	}
}

// weekParam resolves the `date` query parameter (or the given fallback field)
// to a week anchor, defaulting to the current week.
func (h *Handler) weekParam(value string) (budget.Week, error) {
	if value == "" {
		return budget.CurrentWeek(h.Anchor), nil
	}
	return budget.ParseWeek(value, h.Anchor)
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns all spending categories in priority order.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Registry.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BUDGET HANDLERS
// =============================================================================

// GetCurrentWeekBudget initializes the current week if needed and returns
// its reconciled budget.
func (h *Handler) GetCurrentWeekBudget(w http.ResponseWriter, r *http.Request) {
	h.serveWeekBudget(w, r, budget.CurrentWeek(h.Anchor))
}

// GetWeekBudget initializes the requested week if needed and returns its
// reconciled budget.
func (h *Handler) GetWeekBudget(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	h.serveWeekBudget(w, r, week)
}

func (h *Handler) serveWeekBudget(w http.ResponseWriter, r *http.Request, week budget.Week) {
	ctx := r.Context()
	if err := h.Ledger.EnsureWeek(ctx, week); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to initialize week", err)
		return
	}
	report, err := h.Reconciler.ReconcileWeek(ctx, week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reconcile week", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekReportDTO(report))
}

// SetWeekBudget sets one category's planned amount, rebalancing other
// non-essential categories when the edit would exceed the weekly limit.
func (h *Handler) SetWeekBudget(w http.ResponseWriter, r *http.Request) {
	var req SetBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CategoryID == 0 {
		writeError(w, http.StatusBadRequest, "category_id is required", nil)
		return
	}

	week, err := h.weekParam(req.WeekDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_date", err)
		return
	}

	err = h.Advisor.SmartSet(r.Context(), week, req.CategoryID, budget.Money(req.Amount), budget.ActionPlan(req.ActionPlan), req.Notes)
	if err != nil {
		writeDomainError(w, "Failed to set budget", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"week_date": week.String(), "updated": true})
}

// GetWeeklyLimit returns the global weekly budget limit.
func (h *Handler) GetWeeklyLimit(w http.ResponseWriter, r *http.Request) {
	limit, err := h.Store.WeeklyLimit(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read weekly limit", err)
		return
	}
	writeJSON(w, http.StatusOK, LimitDTO{WeeklyBudgetLimit: num(limit)})
}

// UpdateWeeklyLimit sets the global weekly budget limit.
func (h *Handler) UpdateWeeklyLimit(w http.ResponseWriter, r *http.Request) {
	var req LimitDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WeeklyBudgetLimit <= 0 {
		writeError(w, http.StatusBadRequest, "Valid weekly budget limit is required", nil)
		return
	}

	if err := h.Store.SetWeeklyLimit(r.Context(), budget.Money(req.WeeklyBudgetLimit)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update weekly limit", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetWeekSummary returns the compact rollup for a week.
func (h *Handler) GetWeekSummary(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	summary, err := h.Reconciler.Summary(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize week", err)
		return
	}
	writeJSON(w, http.StatusOK, WeekSummaryDTO{
		WeekDate:      summary.Week.String(),
		TotalPlanned:  num(summary.TotalPlanned),
		TotalSpent:    num(summary.TotalSpent),
		CategoryCount: summary.CategoryCount,
		WeeklyLimit:   num(summary.WeeklyLimit),
	})
}

// GetReconciliation returns the full reconciliation report for a week
// without initializing it.
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	report, err := h.Reconciler.ReconcileWeek(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reconcile week", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekReportDTO(report))
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// AddExpense records a new expense against a (week, category).
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	var req AddExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CategoryID == 0 {
		writeError(w, http.StatusBadRequest, "category_id is required", nil)
		return
	}

	week, err := h.weekParam(req.WeekDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_date", err)
		return
	}

	id, err := h.Expenses.Add(r.Context(), week, req.CategoryID, budget.Money(req.Amount),
		req.Description, req.PaymentMethod, req.Location)
	if err != nil {
		writeDomainError(w, "Failed to add expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "week_date": week.String()})
}

// UpdateExpense edits an expense's mutable fields.
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense id", err)
		return
	}

	var req UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err = h.Expenses.Update(r.Context(), id, budget.Money(req.Amount),
		req.Description, req.PaymentMethod, req.Location)
	if err != nil {
		writeDomainError(w, "Failed to update expense", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "updated": true})
}

// DeleteExpense removes an expense.
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense id", err)
		return
	}

	if err := h.Expenses.Delete(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete expense", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// GetWeekExpenses returns a week's expenses, newest first.
func (h *Handler) GetWeekExpenses(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	expenses, err := h.Expenses.ByWeek(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTOs(expenses))
}

// GetExpensesByRange returns expenses between two dates (inclusive).
func (h *Handler) GetExpensesByRange(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "Start date and end date are required for range query", nil)
		return
	}

	start, err := budget.ParseDate(startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := budget.ParseDate(endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}

	expenses, err := h.Expenses.ByDateRange(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, "Failed to list expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTOs(expenses))
}

// =============================================================================
// SMART HANDLERS
// =============================================================================

// GetReallocations returns advisory reallocation suggestions for a week.
func (h *Handler) GetReallocations(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	suggestions, err := h.Advisor.Reallocations(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute reallocations", err)
		return
	}

	dtos := make([]ReallocationDTO, len(suggestions))
	for i, s := range suggestions {
		dtos[i] = ReallocationDTO{
			Category:           s.Category,
			CurrentAmount:      num(s.CurrentAmount),
			SuggestedReduction: num(s.SuggestedReduction),
			SuggestedIncrease:  num(s.SuggestedIncrease),
			Reason:             s.Reason,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AutoAdjust applies the next-week auto-adjustment rules.
func (h *Handler) AutoAdjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	week, err := h.weekParam(req.WeekDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_date", err)
		return
	}

	count, err := h.Advisor.AutoAdjustNextWeek(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to auto-adjust", err)
		return
	}
	writeJSON(w, http.StatusOK, AdjustResultDTO{
		WeekDate:      week.String(),
		NextWeekDate:  week.Next().String(),
		AdjustedCount: count,
	})
}

// GetHealthScore returns the 0-100 budget health score for a week.
func (h *Handler) GetHealthScore(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	score, err := h.Advisor.HealthScore(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute health score", err)
		return
	}
	writeJSON(w, http.StatusOK, HealthDTO{WeekDate: week.String(), Score: score})
}

// GetPrediction returns suggested next-week allocations from recent history.
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	weeks := intParam(r, "weeks", 4)

	predictions, err := h.Analyzer.PredictNextWeek(r.Context(), budget.CurrentWeek(h.Anchor), weeks)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to predict next week", err)
		return
	}

	dtos := make([]PredictionDTO, len(predictions))
	for i, p := range predictions {
		dtos[i] = PredictionDTO{
			CategoryID:      p.Category.ID,
			CategoryName:    p.Category.Name,
			AvgSpending:     num(p.AvgSpending),
			Frequency:       p.Frequency,
			SuggestedAmount: num(p.SuggestedAmount),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAlerts returns spending alerts for a week.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	week, err := h.weekParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	alerts, err := h.Advisor.Alerts(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute alerts", err)
		return
	}

	dtos := make([]AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = AlertDTO{Type: a.Type, Message: a.Message, Priority: a.Priority}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ANALYTICS HANDLERS
// =============================================================================

// GetTrends returns weekly spending trends, newest first.
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	weeks := intParam(r, "weeks", 4)

	trends, err := h.Analyzer.SpendingTrends(r.Context(), budget.CurrentWeek(h.Anchor), weeks)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute trends", err)
		return
	}

	dtos := make([]TrendDTO, len(trends))
	for i, t := range trends {
		dtos[i] = TrendDTO{
			WeekDate:         t.Week.String(),
			TotalSpent:       num(t.TotalSpent),
			TransactionCount: t.TransactionCount,
			AvgTransaction:   num(t.AvgTransaction),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetForecast returns the monthly spending forecast. Defaults to the
// current month.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	month := intParam(r, "month", int(now.Month()))
	year := intParam(r, "year", now.Year())

	forecast, err := h.Analyzer.MonthlyForecast(r.Context(), time.Month(month), year)
	if err != nil {
		writeDomainError(w, "Failed to compute forecast", err)
		return
	}

	dto := ForecastDTO{
		Month:        int(forecast.Month),
		Year:         forecast.Year,
		TotalSpent:   num(forecast.TotalSpent),
		DailyAverage: num(forecast.DailyAverage),
		Categories:   make([]CategoryForecastDTO, len(forecast.Categories)),
	}
	for i, c := range forecast.Categories {
		dto.Categories[i] = CategoryForecastDTO{
			CategoryID:       c.Category.ID,
			CategoryName:     c.Category.Name,
			TotalSpent:       num(c.TotalSpent),
			TransactionCount: c.TransactionCount,
			AvgTransaction:   num(c.AvgTransaction),
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetTopCategories returns the heaviest-spending categories over recent weeks.
func (h *Handler) GetTopCategories(w http.ResponseWriter, r *http.Request) {
	weeks := intParam(r, "weeks", 4)
	limit := intParam(r, "limit", 5)

	top, err := h.Analyzer.TopCategories(r.Context(), budget.CurrentWeek(h.Anchor), weeks, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute top categories", err)
		return
	}

	dtos := make([]CategoryForecastDTO, len(top))
	for i, c := range top {
		dtos[i] = CategoryForecastDTO{
			CategoryID:       c.Category.ID,
			CategoryName:     c.Category.Name,
			TotalSpent:       num(c.TotalSpent),
			TransactionCount: c.TransactionCount,
			AvgTransaction:   num(c.AvgTransaction),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSavings returns savings recommendations for non-essential categories.
func (h *Handler) GetSavings(w http.ResponseWriter, r *http.Request) {
	recommendations, err := h.Analyzer.SavingsRecommendations(r.Context(), budget.CurrentWeek(h.Anchor))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute recommendations", err)
		return
	}

	dtos := make([]SavingsDTO, len(recommendations))
	for i, rec := range recommendations {
		dtos[i] = SavingsDTO{
			Category:        rec.Category,
			CurrentSpending: num(rec.CurrentSpending),
			PotentialSaving: num(rec.PotentialSaving),
			Suggestion:      rec.Suggestion,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		log.Printf("%s: %v", message, err)
		message = message + ": " + err.Error()
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case budget.IsInvalid(err):
		writeError(w, http.StatusBadRequest, message, err)
	case budget.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case budget.IsRetryable(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
