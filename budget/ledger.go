/*
ledger.go - The budget ledger: planned allocations per week

PURPOSE:
  Stores one planned allocation per (week, category) and owns week
  initialization: a newly-queried week is populated by rolling over the
  previous week's allocations, falling back to the built-in default table
  when there is no previous week.

CRITICAL INVARIANTS:
  1. At most one allocation row per (week, category) - natural-key upsert
  2. EnsureWeek is the ONLY path that creates rows for a new week
  3. EnsureWeek is idempotent - already-initialized weeks are untouched
  4. Validation happens before any write

CONCURRENCY:
  Two concurrent first-reads of the same uninitialized week could both
  observe "no rows" and both seed. EnsureWeek serializes per week anchor
  with a keyed mutex, and the underlying upsert converges anyway because
  rollover rows are deterministic given the previous week's state.

SEE ALSO:
  - store.go: Persistence port with the upsert contract
  - expenses.go: Expense log, refreshes the cached actual-spend column
  - adjust.go: Writes allocations through Upsert during rebalancing
*/
package budget

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DEFAULT ALLOCATION TABLE
// =============================================================================

// DefaultAllocation is one row of the built-in seed table used when a new
// week has no previous week to roll over from.
type DefaultAllocation struct {
	CategoryID int64
	Amount     decimal.Decimal
}

// DefaultAllocations returns the fixed seed table, one row per default
// category, in priority order.
func DefaultAllocations() []DefaultAllocation {
	return []DefaultAllocation{
		{CategoryID: 1, Amount: Money(750)},   // Phone
		{CategoryID: 2, Amount: Money(500)},   // Groceries
		{CategoryID: 3, Amount: Money(1750)},  // Rent
		{CategoryID: 4, Amount: Money(400)},   // Electric
		{CategoryID: 5, Amount: Money(900)},   // Motorbike
		{CategoryID: 6, Amount: Money(1050)},  // Daily Expense
		{CategoryID: 7, Amount: Money(1000)},  // Savings
		{CategoryID: 8, Amount: Money(0)},     // GCredit
		{CategoryID: 9, Amount: Money(3650)},  // CIMB Credit
		{CategoryID: 10, Amount: Money(2000)}, // Misc
		{CategoryID: 11, Amount: Money(0)},    // Extra Debts
	}
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger manages planned allocations. All dependencies are injected; the
// ledger holds no state beyond the per-week initialization locks.
type Ledger struct {
	store    Store
	registry *Registry

	initMu sync.Mutex
	init   map[string]*weekInit // per week-anchor locks for EnsureWeek
}

// weekInit is one entry in the initialization lock table. refs counts the
// goroutines holding or waiting on the lock so the entry can be dropped
// once the last one releases it.
type weekInit struct {
	mu   sync.Mutex
	refs int
}

// NewLedger creates a budget ledger.
func NewLedger(store Store, registry *Registry) *Ledger {
	return &Ledger{
		store:    store,
		registry: registry,
		init:     make(map[string]*weekInit),
	}
}

// Allocations returns the week's allocations joined with categories, in
// priority order. Does not initialize the week; call EnsureWeek first when
// lazy seeding is wanted.
func (l *Ledger) Allocations(ctx context.Context, week Week) ([]Allocation, error) {
	return l.store.AllocationsByWeek(ctx, week)
}

// PlannedAmount returns the planned amount for one (week, category), or zero
// when no allocation row exists.
func (l *Ledger) PlannedAmount(ctx context.Context, week Week, categoryID int64) (decimal.Decimal, error) {
	allocs, err := l.store.AllocationsByWeek(ctx, week)
	if err != nil {
		return decimal.Zero, err
	}
	for _, a := range allocs {
		if a.CategoryID == categoryID {
			return a.Planned, nil
		}
	}
	return decimal.Zero, nil
}

// Upsert validates and writes one allocation by natural key. A conflicting
// concurrent write is retried once; rollover rows are deterministic so the
// retry converges.
func (l *Ledger) Upsert(ctx context.Context, week Week, categoryID int64, amount decimal.Decimal, plan ActionPlan, notes string) error {
	if amount.IsNegative() {
		return &AmountError{Field: "planned_amount", Reason: "must not be negative"}
	}
	if plan == "" {
		plan = PlanSpend
	}
	if !plan.Valid() {
		return &AmountError{Field: "action_plan", Reason: "must be spend or save"}
	}
	ok, err := l.registry.Exists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}

	now := time.Now()
	a := Allocation{
		Week:       week,
		CategoryID: categoryID,
		Planned:    amount,
		Plan:       plan,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = l.store.UpsertAllocation(ctx, a)
	if IsRetryable(err) {
		err = l.store.UpsertAllocation(ctx, a)
	}
	return err
}

// EnsureWeek initializes a week that has no allocations yet. When the
// previous week has allocations they are rolled over (planned amount and
// action plan); otherwise the default table is seeded. Idempotent: an
// already-initialized week is a no-op.
func (l *Ledger) EnsureWeek(ctx context.Context, week Week) error {
	release := l.lockWeek(week)
	defer release()

	existing, err := l.store.AllocationsByWeek(ctx, week)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	previous, err := l.store.AllocationsByWeek(ctx, week.Prev())
	if err != nil {
		return err
	}

	if len(previous) > 0 {
		for _, p := range previous {
			if err := l.Upsert(ctx, week, p.CategoryID, p.Planned, p.Plan, ""); err != nil {
				return err
			}
		}
		return nil
	}

	for _, d := range DefaultAllocations() {
		if err := l.Upsert(ctx, week, d.CategoryID, d.Amount, PlanSpend, "Default allocation"); err != nil {
			return err
		}
	}
	return nil
}

// lockWeek acquires the initialization lock for one week anchor and returns
// its release func. The table only holds weeks with an initialization in
// flight; the entry is removed when the last holder releases it.
func (l *Ledger) lockWeek(week Week) func() {
	k := week.String()

	l.initMu.Lock()
	e, ok := l.init[k]
	if !ok {
		e = &weekInit{}
		l.init[k] = e
	}
	e.refs++
	l.initMu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		l.initMu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.init, k)
		}
		l.initMu.Unlock()
	}
}
