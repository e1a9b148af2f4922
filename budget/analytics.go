/*
analytics.go - Multi-week aggregation over the two ledgers

PURPOSE:
  Read-only summaries across historical weeks: spending trends, next-week
  prediction, monthly forecast, savings recommendations. Everything here
  is derived from the expense log plus the category registry; nothing is
  written back.
*/
package budget

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var predictionBuffer = MustMoney("1.1") // +10% volatility buffer

// Analyzer aggregates ledger history. Read-only.
type Analyzer struct {
	store    Store
	registry *Registry
}

// NewAnalyzer creates an analytics summarizer.
func NewAnalyzer(store Store, registry *Registry) *Analyzer {
	return &Analyzer{store: store, registry: registry}
}

// =============================================================================
// TRENDS
// =============================================================================

// WeekTrend is one week's spending rollup.
type WeekTrend struct {
	Week             Week
	TotalSpent       decimal.Decimal
	TransactionCount int
	AvgTransaction   decimal.Decimal
}

// SpendingTrends returns per-week rollups for the `weeks` most recent weeks
// ending at `latest`, newest first. Weeks without expenses are omitted.
func (an *Analyzer) SpendingTrends(ctx context.Context, latest Week, weeks int) ([]WeekTrend, error) {
	if weeks < 1 {
		weeks = 1
	}
	expenses, err := an.windowExpenses(ctx, latest, weeks)
	if err != nil {
		return nil, err
	}

	byWeek := make(map[string]*WeekTrend)
	for _, e := range expenses {
		k := e.Week.String()
		t, ok := byWeek[k]
		if !ok {
			t = &WeekTrend{Week: e.Week}
			byWeek[k] = t
		}
		t.TotalSpent = t.TotalSpent.Add(e.Amount)
		t.TransactionCount++
	}

	trends := make([]WeekTrend, 0, len(byWeek))
	for _, t := range byWeek {
		t.AvgTransaction = t.TotalSpent.Div(decimal.NewFromInt(int64(t.TransactionCount)))
		trends = append(trends, *t)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[j].Week.Before(trends[i].Week) })
	return trends, nil
}

// =============================================================================
// PREDICTION
// =============================================================================

// Prediction is a suggested next-week allocation for one category.
type Prediction struct {
	Category        Category
	AvgSpending     decimal.Decimal
	Frequency       int
	SuggestedAmount decimal.Decimal
}

// PredictNextWeek suggests next week's allocations from the spending of the
// last `history` weeks: average transaction amount per category plus a 10%
// buffer, scaled down proportionally when the total would exceed the weekly
// limit.
func (an *Analyzer) PredictNextWeek(ctx context.Context, latest Week, history int) ([]Prediction, error) {
	if history < 1 {
		history = 4
	}
	expenses, err := an.windowExpenses(ctx, latest, history)
	if err != nil {
		return nil, err
	}
	stats, order, err := an.categoryStats(ctx, expenses)
	if err != nil {
		return nil, err
	}

	predictions := make([]Prediction, 0, len(order))
	totalPredicted := decimal.Zero
	for _, cat := range order {
		s := stats[cat.ID]
		if s == nil || s.count == 0 {
			continue
		}
		avg := s.total.Div(decimal.NewFromInt(int64(s.count)))
		p := Prediction{
			Category:        cat,
			AvgSpending:     avg,
			Frequency:       s.count,
			SuggestedAmount: avg.Mul(predictionBuffer),
		}
		totalPredicted = totalPredicted.Add(p.SuggestedAmount)
		predictions = append(predictions, p)
	}

	limit, err := an.store.WeeklyLimit(ctx)
	if err != nil {
		return nil, err
	}
	if totalPredicted.GreaterThan(limit) {
		ratio := limit.Div(totalPredicted)
		for i := range predictions {
			predictions[i].SuggestedAmount = predictions[i].SuggestedAmount.Mul(ratio)
		}
	}
	return predictions, nil
}

// =============================================================================
// MONTHLY FORECAST
// =============================================================================

// CategoryForecast is one category's monthly rollup.
type CategoryForecast struct {
	Category         Category
	TotalSpent       decimal.Decimal
	TransactionCount int
	AvgTransaction   decimal.Decimal
}

// Forecast is the monthly spending rollup.
type Forecast struct {
	Month        time.Month
	Year         int
	TotalSpent   decimal.Decimal
	Categories   []CategoryForecast
	DailyAverage decimal.Decimal
}

// MonthlyForecast aggregates expenses whose week anchor falls within the
// calendar month, grouped by category, biggest spender first.
func (an *Analyzer) MonthlyForecast(ctx context.Context, month time.Month, year int) (*Forecast, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month out of range", ErrInvalidArgument)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, -1)

	expenses, err := an.store.ExpensesByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	stats, order, err := an.categoryStats(ctx, expenses)
	if err != nil {
		return nil, err
	}

	forecast := &Forecast{Month: month, Year: year}
	for _, cat := range order {
		s := stats[cat.ID]
		if s == nil || s.count == 0 {
			continue
		}
		forecast.Categories = append(forecast.Categories, CategoryForecast{
			Category:         cat,
			TotalSpent:       s.total,
			TransactionCount: s.count,
			AvgTransaction:   s.total.Div(decimal.NewFromInt(int64(s.count))),
		})
		forecast.TotalSpent = forecast.TotalSpent.Add(s.total)
	}
	sort.Slice(forecast.Categories, func(i, j int) bool {
		return forecast.Categories[i].TotalSpent.GreaterThan(forecast.Categories[j].TotalSpent)
	})

	forecast.DailyAverage = forecast.TotalSpent.Div(decimal.NewFromInt(int64(end.Day())))
	return forecast, nil
}

// TopCategories returns the heaviest-spending categories over the `weeks`
// most recent weeks, biggest first, at most `limit` entries.
func (an *Analyzer) TopCategories(ctx context.Context, latest Week, weeks, limit int) ([]CategoryForecast, error) {
	if limit < 1 {
		limit = 5
	}
	expenses, err := an.windowExpenses(ctx, latest, weeks)
	if err != nil {
		return nil, err
	}
	stats, order, err := an.categoryStats(ctx, expenses)
	if err != nil {
		return nil, err
	}

	top := make([]CategoryForecast, 0, len(order))
	for _, cat := range order {
		s := stats[cat.ID]
		if s == nil || s.count == 0 {
			continue
		}
		top = append(top, CategoryForecast{
			Category:         cat,
			TotalSpent:       s.total,
			TransactionCount: s.count,
			AvgTransaction:   s.total.Div(decimal.NewFromInt(int64(s.count))),
		})
	}
	sort.Slice(top, func(i, j int) bool {
		return top[i].TotalSpent.GreaterThan(top[j].TotalSpent)
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// =============================================================================
// SAVINGS RECOMMENDATIONS
// =============================================================================

// Thresholds for the savings filter: only non-essential categories averaging
// over 100/week qualify, and only when a 20% cut saves more than 50.
var (
	savingsMinAvg    = decimal.NewFromInt(100)
	savingsMinSaving = decimal.NewFromInt(50)
	savingsCut       = MustMoney("0.2")
)

// SavingsRecommendation is one suggested spending cut.
type SavingsRecommendation struct {
	Category        string
	CurrentSpending decimal.Decimal
	PotentialSaving decimal.Decimal
	Suggestion      string
}

// SavingsRecommendations suggests cuts in non-essential spending, based on
// the last four weeks.
func (an *Analyzer) SavingsRecommendations(ctx context.Context, latest Week) ([]SavingsRecommendation, error) {
	expenses, err := an.windowExpenses(ctx, latest, 4)
	if err != nil {
		return nil, err
	}
	stats, order, err := an.categoryStats(ctx, expenses)
	if err != nil {
		return nil, err
	}

	recommendations := []SavingsRecommendation{}
	for _, cat := range order {
		if cat.Essential {
			continue
		}
		s := stats[cat.ID]
		if s == nil || s.count == 0 {
			continue
		}
		avg := s.total.Div(decimal.NewFromInt(int64(s.count)))
		if !avg.GreaterThan(savingsMinAvg) {
			continue
		}
		saving := avg.Mul(savingsCut)
		if !saving.GreaterThan(savingsMinSaving) {
			continue
		}
		recommendations = append(recommendations, SavingsRecommendation{
			Category:        cat.Name,
			CurrentSpending: avg,
			PotentialSaving: saving,
			Suggestion:      fmt.Sprintf("Consider reducing %s spending by 20%% to save %s per week", cat.Name, saving),
		})
	}
	return recommendations, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type catStat struct {
	total decimal.Decimal
	count int
}

// windowExpenses loads the expenses of the `weeks` most recent weeks ending
// at `latest` (inclusive).
func (an *Analyzer) windowExpenses(ctx context.Context, latest Week, weeks int) ([]Expense, error) {
	start := latest.Time.AddDate(0, 0, -7*(weeks-1))
	end := latest.Time
	return an.store.ExpensesByRange(ctx, start, end)
}

// categoryStats groups expenses per category, returning the categories in
// priority order alongside the stats.
func (an *Analyzer) categoryStats(ctx context.Context, expenses []Expense) (map[int64]*catStat, []Category, error) {
	categories, err := an.registry.Categories(ctx)
	if err != nil {
		return nil, nil, err
	}
	stats := make(map[int64]*catStat, len(categories))
	for _, e := range expenses {
		s, ok := stats[e.CategoryID]
		if !ok {
			s = &catStat{}
			stats[e.CategoryID] = s
		}
		s.total = s.total.Add(e.Amount)
		s.count++
	}
	return stats, categories, nil
}
