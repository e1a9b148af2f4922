/*
reconcile.go - Joins the budget and expense ledgers for one week

PURPOSE:
  Computes planned vs. actual variance, utilization, and a status per
  category, plus the week-level rollup against the global weekly limit.
  Stateless: every call is a fresh transform over current ledger contents.

STATUS THRESHOLDS:
  variance > 200        over_budget
  0 < variance <= 200   close_to_limit
  variance <= 0         on_track
  The thresholds are absolute currency units, not percentages. That is the
  system's historical behavior and is preserved exactly, boundary included
  (variance == 200 is close_to_limit).
*/
package budget

import (
	"context"

	"github.com/shopspring/decimal"
)

var (
	varianceWarn   = decimal.NewFromInt(200)
	percentHundred = decimal.NewFromInt(100)
)

// Reconciler joins the two ledgers. Read-only.
type Reconciler struct {
	store Store
}

// NewReconciler creates a reconciliation engine.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// ReconcileWeek computes per-category status rows and the week rollup.
// Actual spend is recomputed from the expense log on every call, so a stale
// cached column (e.g. expenses recorded before the week was initialized)
// never leaks into the report.
func (r *Reconciler) ReconcileWeek(ctx context.Context, week Week) (*WeekReport, error) {
	allocs, err := r.store.AllocationsByWeek(ctx, week)
	if err != nil {
		return nil, err
	}

	actuals, err := r.actualsByCategory(ctx, week)
	if err != nil {
		return nil, err
	}

	limit, err := r.store.WeeklyLimit(ctx)
	if err != nil {
		return nil, err
	}

	report := &WeekReport{
		Week:           week,
		Categories:     make([]CategoryStatus, 0, len(allocs)),
		TotalPlanned:   decimal.Zero,
		TotalActual:    decimal.Zero,
		TotalRemaining: decimal.Zero,
		WeeklyLimit:    limit,
	}

	for _, a := range allocs {
		actual := actuals[a.CategoryID]
		row := CategoryStatus{
			Category: Category{
				ID:        a.CategoryID,
				Name:      a.CategoryName,
				Bank:      a.Bank,
				Essential: a.Essential,
				Priority:  a.Priority,
			},
			Planned:   a.Planned,
			Actual:    actual,
			Remaining: a.Planned.Sub(actual),
			Variance:  actual.Sub(a.Planned),
			Plan:      a.Plan,
		}
		row.Utilization = utilization(actual, a.Planned)
		row.Status = classify(row.Variance)

		report.Categories = append(report.Categories, row)
		report.TotalPlanned = report.TotalPlanned.Add(a.Planned)
		report.TotalActual = report.TotalActual.Add(actual)
		report.TotalRemaining = report.TotalRemaining.Add(row.Remaining)
	}

	report.BudgetUtilization = utilization(report.TotalPlanned, limit)
	return report, nil
}

// Summary computes the compact week rollup.
func (r *Reconciler) Summary(ctx context.Context, week Week) (*WeekSummary, error) {
	report, err := r.ReconcileWeek(ctx, week)
	if err != nil {
		return nil, err
	}
	return &WeekSummary{
		Week:          week,
		TotalPlanned:  report.TotalPlanned,
		TotalSpent:    report.TotalActual,
		CategoryCount: len(report.Categories),
		WeeklyLimit:   report.WeeklyLimit,
	}, nil
}

func (r *Reconciler) actualsByCategory(ctx context.Context, week Week) (map[int64]decimal.Decimal, error) {
	expenses, err := r.store.ExpensesByWeek(ctx, week)
	if err != nil {
		return nil, err
	}
	actuals := make(map[int64]decimal.Decimal, len(expenses))
	for _, e := range expenses {
		actuals[e.CategoryID] = actuals[e.CategoryID].Add(e.Amount)
	}
	return actuals, nil
}

// classify maps a variance to its status. Strict inequality at the boundary:
// exactly 200 over is still close_to_limit.
func classify(variance decimal.Decimal) Status {
	switch {
	case variance.GreaterThan(varianceWarn):
		return StatusOverBudget
	case variance.IsPositive():
		return StatusCloseToLimit
	default:
		return StatusOnTrack
	}
}

// utilization returns actual/planned as a percentage, 0 when planned is 0.
func utilization(actual, planned decimal.Decimal) float64 {
	if planned.IsZero() {
		return 0
	}
	pct, _ := actual.Div(planned).Mul(percentHundred).Float64()
	return pct
}
