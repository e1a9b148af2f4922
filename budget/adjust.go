/*
adjust.go - Auto-adjustment and reallocation under the weekly ceiling

PURPOSE:
  Two independent write paths plus advisory read paths, all stateless
  transforms over current ledger contents:

  (a) SmartSet - overflow rebalancing when a single category edit would
      push the week's total over the weekly limit. The excess is spread
      evenly over the other non-essential categories, floored at zero.
      The edit itself always commits; over-limit totals are tolerated
      when rebalancing can not fully absorb them.

  (b) AutoAdjustNextWeek - nudges next week's allocations from this
      week's variance: persistently-over categories grow by 20% of the
      overage, persistently-under ones shrink by 30% of the slack.

  (c) HealthScore, Reallocations, Alerts - informational only, never
      gate writes.

PARTIAL FAILURE:
  Per-category writes are independent and best effort: a failed write is
  skipped and the rest proceed. Callers get the count of successes.
*/
package budget

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// Adjustment rule bands. Absolute currency units and percent thresholds,
// preserved from the system's historical behavior.
var (
	overBand     = decimal.NewFromInt(300)  // variance above this + util > 120% -> grow next week
	underBand    = decimal.NewFromInt(-300) // variance below this + util < 60%  -> shrink next week
	growFactor   = MustMoney("0.2")
	shrinkFactor = MustMoney("0.3")

	reallocReduceFactor   = MustMoney("0.5")
	reallocIncreaseFactor = MustMoney("0.3")

	alertDanger   = decimal.NewFromInt(500)
	alertHeadroom = decimal.NewFromInt(2000) // warn when remaining drops below this
)

// Advisor applies the auto-adjustment rules. Reads through the reconciler,
// writes through the budget ledger.
type Advisor struct {
	ledger     *Ledger
	reconciler *Reconciler
	analyzer   *Analyzer
	store      Store
}

// NewAdvisor creates an auto-adjustment engine.
func NewAdvisor(ledger *Ledger, reconciler *Reconciler, analyzer *Analyzer, store Store) *Advisor {
	return &Advisor{ledger: ledger, reconciler: reconciler, analyzer: analyzer, store: store}
}

// =============================================================================
// (a) OVERFLOW REBALANCING
// =============================================================================

// SmartSet sets a new planned amount for one category. When the edit would
// push the week's total over the weekly limit, the difference is first
// distributed as an even reduction across all other non-essential
// categories (floored at zero, essential categories exempt). The edit then
// commits regardless of whether the reduction fully absorbed the overflow.
func (a *Advisor) SmartSet(ctx context.Context, week Week, categoryID int64, amount decimal.Decimal, plan ActionPlan, notes string) error {
	if amount.IsNegative() {
		return &AmountError{Field: "planned_amount", Reason: "must not be negative"}
	}
	if plan == "" {
		plan = PlanSpend
	}
	ok, err := a.ledger.registry.Exists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}

	if err := a.ledger.EnsureWeek(ctx, week); err != nil {
		return err
	}

	allocs, err := a.ledger.Allocations(ctx, week)
	if err != nil {
		return err
	}

	totalPlanned := decimal.Zero
	oldAmount := decimal.Zero
	for _, al := range allocs {
		totalPlanned = totalPlanned.Add(al.Planned)
		if al.CategoryID == categoryID {
			oldAmount = al.Planned
		}
	}

	limit, err := a.store.WeeklyLimit(ctx)
	if err != nil {
		return err
	}

	difference := amount.Sub(oldAmount)
	if totalPlanned.Add(difference).GreaterThan(limit) {
		a.reduceOthers(ctx, week, categoryID, difference.Abs(), allocs)
	}

	if notes == "" {
		notes = "Smart adjustment"
	}
	return a.ledger.Upsert(ctx, week, categoryID, amount, plan, notes)
}

// reduceOthers spreads an even reduction over the other non-essential
// categories. Best effort: individual write failures are logged and skipped.
func (a *Advisor) reduceOthers(ctx context.Context, week Week, excludeID int64, excess decimal.Decimal, allocs []Allocation) {
	categories, err := a.ledger.registry.Categories(ctx)
	if err != nil || len(categories) < 2 {
		return
	}

	perCategory := excess.Div(decimal.NewFromInt(int64(len(categories) - 1)))

	for _, al := range allocs {
		if al.CategoryID == excludeID || al.Essential {
			continue
		}
		reduced := al.Planned.Sub(perCategory)
		if reduced.IsNegative() {
			reduced = decimal.Zero
		}
		if err := a.ledger.Upsert(ctx, week, al.CategoryID, reduced, al.Plan, "Auto-reduced for budget balance"); err != nil {
			log.Printf("rebalance: skipping category %d: %v", al.CategoryID, err)
		}
	}
}

// =============================================================================
// (b) NEXT-WEEK AUTO-ADJUSTMENT
// =============================================================================

// AutoAdjustNextWeek adjusts next week's allocations from this week's
// variance. Next week is fully initialized first so the writes land on a
// rolled-over baseline, never a partially-seeded week. Returns the number of
// categories adjusted.
func (a *Advisor) AutoAdjustNextWeek(ctx context.Context, week Week) (int, error) {
	next := week.Next()
	if err := a.ledger.EnsureWeek(ctx, next); err != nil {
		return 0, err
	}

	report, err := a.reconciler.ReconcileWeek(ctx, week)
	if err != nil {
		return 0, err
	}

	adjusted := 0
	for _, row := range report.Categories {
		var newAmount decimal.Decimal
		switch {
		case row.Variance.GreaterThan(overBand) && row.Utilization > 120:
			// Persistently over budget: grow by 20% of the overage.
			newAmount = row.Planned.Add(row.Variance.Mul(growFactor))
		case row.Variance.LessThan(underBand) && row.Utilization < 60:
			// Persistently under-utilized: shrink by 30% of the slack.
			newAmount = row.Planned.Add(row.Variance.Mul(shrinkFactor))
			if newAmount.IsNegative() {
				newAmount = decimal.Zero
			}
		default:
			continue
		}

		err := a.ledger.Upsert(ctx, next, row.Category.ID, newAmount, row.Plan, "Auto-adjusted based on spending pattern")
		if err != nil {
			log.Printf("auto-adjust: skipping category %d: %v", row.Category.ID, err)
			continue
		}
		adjusted++
	}
	return adjusted, nil
}

// =============================================================================
// (c) INFORMATIONAL - health score, suggestions, alerts
// =============================================================================

// HealthScore grades the week 0-100. Start at 100; each over-budget category
// deducts min(20, overage% x 2); staying within the weekly limit adds 10;
// overall utilization below 70% deducts (70 - utilization) x 0.5.
func (a *Advisor) HealthScore(ctx context.Context, week Week) (float64, error) {
	report, err := a.reconciler.ReconcileWeek(ctx, week)
	if err != nil {
		return 0, err
	}

	score := 100.0
	for _, row := range report.Categories {
		if !row.Variance.IsPositive() {
			continue
		}
		deduction := 20.0
		if row.Planned.IsPositive() {
			overagePct, _ := row.Variance.Div(row.Planned).Mul(percentHundred).Float64()
			if overagePct*2 < deduction {
				deduction = overagePct * 2
			}
		}
		score -= deduction
	}

	if !report.TotalActual.GreaterThan(report.WeeklyLimit) {
		score += 10
	}

	util := utilization(report.TotalActual, report.WeeklyLimit)
	if util < 70 {
		score -= (70 - util) * 0.5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

// Reallocation is an advisory suggestion to move budget between categories.
// Suggestions are never applied automatically.
type Reallocation struct {
	Category           string
	CurrentAmount      decimal.Decimal
	SuggestedReduction decimal.Decimal
	SuggestedIncrease  decimal.Decimal
	Reason             string
}

// Reallocations suggests budget moves from this week's spending pattern:
// heavily under-utilized categories are reduction candidates, over-budget
// ones are increase candidates.
func (a *Advisor) Reallocations(ctx context.Context, week Week) ([]Reallocation, error) {
	report, err := a.reconciler.ReconcileWeek(ctx, week)
	if err != nil {
		return nil, err
	}

	suggestions := []Reallocation{}
	for _, row := range report.Categories {
		if row.Variance.LessThan(varianceWarn.Neg()) && row.Utilization < 50 {
			suggestions = append(suggestions, Reallocation{
				Category:           row.Category.Name,
				CurrentAmount:      row.Planned,
				SuggestedReduction: row.Variance.Abs().Mul(reallocReduceFactor),
				Reason:             "Underutilized budget - can be reallocated",
			})
		}
		if row.Variance.GreaterThan(varianceWarn) {
			suggestions = append(suggestions, Reallocation{
				Category:          row.Category.Name,
				CurrentAmount:     row.Planned,
				SuggestedIncrease: row.Variance.Mul(reallocIncreaseFactor),
				Reason:            "Consistently over budget - needs more allocation",
			})
		}
	}
	return suggestions, nil
}

// Alert is a spending warning.
type Alert struct {
	Type     string // info, warning, danger
	Message  string
	Priority string // low, medium, high
}

// Alerts surfaces spending warnings for the week: approaching the weekly
// limit, individual category overages, and a sharp week-over-week increase.
func (a *Advisor) Alerts(ctx context.Context, week Week) ([]Alert, error) {
	report, err := a.reconciler.ReconcileWeek(ctx, week)
	if err != nil {
		return nil, err
	}

	alerts := []Alert{}

	remaining := report.WeeklyLimit.Sub(report.TotalActual)
	if remaining.LessThan(alertHeadroom) {
		alerts = append(alerts, Alert{
			Type:     "warning",
			Message:  fmt.Sprintf("You've spent %s this week. Only %s remaining.", report.TotalActual, remaining),
			Priority: "high",
		})
	}

	for _, row := range report.Categories {
		switch {
		case row.Variance.GreaterThan(alertDanger):
			alerts = append(alerts, Alert{
				Type:     "danger",
				Message:  fmt.Sprintf("%s is %s over budget", row.Category.Name, row.Variance),
				Priority: "high",
			})
		case row.Variance.GreaterThan(varianceWarn):
			alerts = append(alerts, Alert{
				Type:     "warning",
				Message:  fmt.Sprintf("%s is %s over budget", row.Category.Name, row.Variance),
				Priority: "medium",
			})
		}
	}

	trends, err := a.analyzer.SpendingTrends(ctx, week, 2)
	if err != nil {
		return nil, err
	}
	if len(trends) >= 2 && trends[1].TotalSpent.IsPositive() {
		change, _ := trends[0].TotalSpent.Sub(trends[1].TotalSpent).
			Div(trends[1].TotalSpent).Mul(percentHundred).Float64()
		if change > 30 {
			alerts = append(alerts, Alert{
				Type:     "info",
				Message:  fmt.Sprintf("Spending increased by %.1f%% compared to last week", change),
				Priority: "medium",
			})
		}
	}

	return alerts, nil
}
