/*
Package budget provides the core weekly budget reconciliation engine.

PURPOSE:
  This package contains the domain types and algorithms for weekly budget
  tracking: planned allocations per category, expense logging, planned vs.
  actual reconciliation, and rule-based reallocation under a fixed weekly
  ceiling.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: Static reference data (essential flag, priority order)
  - Allocation: Planned amount for one category in one week
  - Expense: A single spending transaction
  - CategoryStatus / WeekReport: Reconciliation output

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all amounts - no floats in state
  2. Natural keys: Allocations are keyed by (week, category), never by
     auto-increment duplication
  3. Derived values: Actual spend is always recomputable from expenses;
     the cached column is a materialized view, not independent truth

SEE ALSO:
  - week.go: Week anchor resolution
  - ledger.go: Allocation persistence and week rollover
  - reconcile.go: Planned vs. actual reconciliation
*/
package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// DefaultWeeklyLimit is the global ceiling on total planned allocation for one
// week, used when no limit has been configured.
var DefaultWeeklyLimit = decimal.NewFromInt(12000)

// Money builds a decimal amount from a float. Test and seed-table helper;
// stored amounts always round-trip through decimal strings.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// MustMoney parses a decimal string, returning zero on failure.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// CATEGORY - Static reference data
// =============================================================================

// Category is one spending category. Created at setup time, effectively
// immutable afterwards. Priority is the canonical processing/display order.
type Category struct {
	ID          int64
	Name        string
	Bank        string
	Description string
	Essential   bool
	Priority    int
}

// =============================================================================
// ALLOCATION - Planned amount per (week, category)
// =============================================================================

// ActionPlan records what the user intends to do with an allocation.
type ActionPlan string

const (
	PlanSpend ActionPlan = "spend"
	PlanSave  ActionPlan = "save"
)

// Valid reports whether the plan is one of the known values.
func (p ActionPlan) Valid() bool {
	return p == PlanSpend || p == PlanSave
}

// Allocation is the planned spending amount for one category in one week.
// At most one row exists per (Week, CategoryID) - enforced by natural-key
// upsert in every Store implementation.
//
// Actual is a cached aggregate of expenses for the same (week, category).
// It is refreshed on every expense mutation and recomputed from expenses
// during reconciliation, so staleness never survives a read.
type Allocation struct {
	Week       Week
	CategoryID int64
	Planned    decimal.Decimal
	Actual     decimal.Decimal
	Plan       ActionPlan
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined category fields, filled by Store reads.
	CategoryName string
	Bank         string
	Essential    bool
	Priority     int
}

// =============================================================================
// EXPENSE - Spending transaction
// =============================================================================

// Expense is a single spending transaction. Week and CategoryID are fixed at
// creation; updates may only touch amount, description, payment method and
// location.
type Expense struct {
	ID            int64
	Week          Week
	CategoryID    int64
	Amount        decimal.Decimal
	Description   string
	PaymentMethod string
	Location      string
	CreatedAt     time.Time

	// Joined category fields, filled by Store reads.
	CategoryName string
	Bank         string
}

// =============================================================================
// RECONCILIATION OUTPUT
// =============================================================================

// Status classifies a category's planned vs. actual position.
type Status string

const (
	StatusOverBudget   Status = "over_budget"
	StatusCloseToLimit Status = "close_to_limit"
	StatusOnTrack      Status = "on_track"
)

// CategoryStatus is the reconciliation result for one category in one week.
type CategoryStatus struct {
	Category    Category
	Planned     decimal.Decimal
	Actual      decimal.Decimal
	Remaining   decimal.Decimal // planned - actual
	Variance    decimal.Decimal // actual - planned (positive = overspent)
	Utilization float64         // actual / planned * 100, 0 when planned is 0
	Plan        ActionPlan
	Status      Status
}

// WeekReport is the week-level reconciliation rollup.
type WeekReport struct {
	Week           Week
	Categories     []CategoryStatus
	TotalPlanned   decimal.Decimal
	TotalActual    decimal.Decimal
	TotalRemaining decimal.Decimal
	WeeklyLimit    decimal.Decimal
	// TotalPlanned / WeeklyLimit * 100
	BudgetUtilization float64
}

// StatusFor returns the reconciliation row for a category id, or nil.
func (r *WeekReport) StatusFor(categoryID int64) *CategoryStatus {
	for i := range r.Categories {
		if r.Categories[i].Category.ID == categoryID {
			return &r.Categories[i]
		}
	}
	return nil
}

// =============================================================================
// SUMMARY
// =============================================================================

// WeekSummary is a compact derivable rollup of one week.
type WeekSummary struct {
	Week          Week
	TotalPlanned  decimal.Decimal
	TotalSpent    decimal.Decimal
	CategoryCount int
	WeeklyLimit   decimal.Decimal
}
