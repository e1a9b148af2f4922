/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Amounts cross
  the boundary as JSON numbers; internally everything stays decimal.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CategoryDTO represents a spending category.
type CategoryDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Bank        string `json:"bank"`
	Description string `json:"description,omitempty"`
	IsEssential bool   `json:"is_essential"`
	Priority    int    `json:"priority_order"`
}

// CategoryStatusDTO is one reconciled category row.
type CategoryStatusDTO struct {
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Bank         string  `json:"bank"`
	IsEssential  bool    `json:"is_essential"`
	Planned      float64 `json:"planned_amount"`
	Actual       float64 `json:"actual_amount"`
	Remaining    float64 `json:"remaining"`
	Variance     float64 `json:"variance"`
	Utilization  float64 `json:"utilization_pct"`
	ActionPlan   string  `json:"action_plan"`
	Status       string  `json:"status"`
}

// WeekReportDTO is the weekly reconciliation report.
type WeekReportDTO struct {
	WeekDate          string              `json:"week_date"`
	Categories        []CategoryStatusDTO `json:"categories"`
	TotalPlanned      float64             `json:"total_planned"`
	TotalActual       float64             `json:"total_actual"`
	TotalRemaining    float64             `json:"total_remaining"`
	WeeklyLimit       float64             `json:"weekly_budget_limit"`
	BudgetUtilization float64             `json:"budget_utilization"`
}

// WeekSummaryDTO is the compact week rollup.
type WeekSummaryDTO struct {
	WeekDate      string  `json:"week_date"`
	TotalPlanned  float64 `json:"total_planned"`
	TotalSpent    float64 `json:"total_spent"`
	CategoryCount int     `json:"category_count"`
	WeeklyLimit   float64 `json:"weekly_budget_limit"`
}

// SetBudgetRequest sets one category's planned amount for a week.
type SetBudgetRequest struct {
	WeekDate   string  `json:"week_date"`
	CategoryID int64   `json:"category_id"`
	Amount     float64 `json:"amount"`
	ActionPlan string  `json:"action_plan,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// LimitDTO carries the global weekly budget limit.
type LimitDTO struct {
	WeeklyBudgetLimit float64 `json:"weekly_budget_limit"`
}

// ExpenseDTO represents one expense transaction.
type ExpenseDTO struct {
	ID            int64   `json:"id"`
	WeekDate      string  `json:"week_date"`
	CategoryID    int64   `json:"category_id"`
	CategoryName  string  `json:"category_name,omitempty"`
	Bank          string  `json:"bank,omitempty"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Location      string  `json:"location,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// AddExpenseRequest records a new expense.
type AddExpenseRequest struct {
	WeekDate      string  `json:"week_date,omitempty"` // defaults to current week
	CategoryID    int64   `json:"category_id"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Location      string  `json:"location,omitempty"`
}

// UpdateExpenseRequest edits an existing expense. Week and category are
// fixed and deliberately absent.
type UpdateExpenseRequest struct {
	Amount        float64 `json:"amount"`
	Description   string  `json:"description,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Location      string  `json:"location,omitempty"`
}

// ReallocationDTO is one advisory budget-move suggestion.
type ReallocationDTO struct {
	Category           string  `json:"category"`
	CurrentAmount      float64 `json:"current_amount"`
	SuggestedReduction float64 `json:"suggested_reduction,omitempty"`
	SuggestedIncrease  float64 `json:"suggested_increase,omitempty"`
	Reason             string  `json:"reason"`
}

// AdjustRequest triggers the next-week auto-adjustment.
type AdjustRequest struct {
	WeekDate string `json:"week_date,omitempty"` // defaults to current week
}

// AdjustResultDTO reports how many categories were adjusted.
type AdjustResultDTO struct {
	WeekDate      string `json:"week_date"`
	NextWeekDate  string `json:"next_week_date"`
	AdjustedCount int    `json:"adjusted_count"`
}

// HealthDTO is the weekly budget health score.
type HealthDTO struct {
	WeekDate string  `json:"week_date"`
	Score    float64 `json:"score"`
}

// AlertDTO is one spending alert.
type AlertDTO struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// TrendDTO is one week's spending rollup.
type TrendDTO struct {
	WeekDate         string  `json:"week_date"`
	TotalSpent       float64 `json:"total_spent"`
	TransactionCount int     `json:"transaction_count"`
	AvgTransaction   float64 `json:"avg_transaction"`
}

// PredictionDTO is one suggested next-week allocation.
type PredictionDTO struct {
	CategoryID      int64   `json:"category_id"`
	CategoryName    string  `json:"category_name"`
	AvgSpending     float64 `json:"avg_weekly_spending"`
	Frequency       int     `json:"transaction_frequency"`
	SuggestedAmount float64 `json:"suggested_amount"`
}

// ForecastDTO is the monthly spending forecast.
type ForecastDTO struct {
	Month        int                   `json:"month"`
	Year         int                   `json:"year"`
	TotalSpent   float64               `json:"total_spent"`
	Categories   []CategoryForecastDTO `json:"categories"`
	DailyAverage float64               `json:"daily_average"`
}

// CategoryForecastDTO is one category's monthly rollup.
type CategoryForecastDTO struct {
	CategoryID       int64   `json:"category_id"`
	CategoryName     string  `json:"category_name"`
	TotalSpent       float64 `json:"total_spent"`
	TransactionCount int     `json:"transaction_count"`
	AvgTransaction   float64 `json:"avg_transaction"`
}

// SavingsDTO is one savings recommendation.
type SavingsDTO struct {
	Category        string  `json:"category"`
	CurrentSpending float64 `json:"current_spending"`
	PotentialSaving float64 `json:"potential_savings"`
	Suggestion      string  `json:"suggestion"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func num(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toCategoryDTO(c budget.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Bank:        c.Bank,
		Description: c.Description,
		IsEssential: c.Essential,
		Priority:    c.Priority,
	}
}

func toWeekReportDTO(r *budget.WeekReport) WeekReportDTO {
	dto := WeekReportDTO{
		WeekDate:          r.Week.String(),
		Categories:        make([]CategoryStatusDTO, len(r.Categories)),
		TotalPlanned:      num(r.TotalPlanned),
		TotalActual:       num(r.TotalActual),
		TotalRemaining:    num(r.TotalRemaining),
		WeeklyLimit:       num(r.WeeklyLimit),
		BudgetUtilization: r.BudgetUtilization,
	}
	for i, row := range r.Categories {
		dto.Categories[i] = CategoryStatusDTO{
			CategoryID:   row.Category.ID,
			CategoryName: row.Category.Name,
			Bank:         row.Category.Bank,
			IsEssential:  row.Category.Essential,
			Planned:      num(row.Planned),
			Actual:       num(row.Actual),
			Remaining:    num(row.Remaining),
			Variance:     num(row.Variance),
			Utilization:  row.Utilization,
			ActionPlan:   string(row.Plan),
			Status:       string(row.Status),
		}
	}
	return dto
}

func toExpenseDTO(e budget.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:            e.ID,
		WeekDate:      e.Week.String(),
		CategoryID:    e.CategoryID,
		CategoryName:  e.CategoryName,
		Bank:          e.Bank,
		Amount:        num(e.Amount),
		Description:   e.Description,
		PaymentMethod: e.PaymentMethod,
		Location:      e.Location,
		CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toExpenseDTOs(expenses []budget.Expense) []ExpenseDTO {
	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	return dtos
}
