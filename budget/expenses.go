/*
expenses.go - The expense ledger: individual spending transactions

PURPOSE:
  Records expenses against (week, category) pairs and keeps the cached
  actual-spend aggregate on the matching allocation row in sync. The
  aggregate is derived state: every insert, update, and delete recomputes
  SUM(amount) for the affected pair.

INVARIANTS:
  1. Week and category are fixed at creation - updates can not move an
     expense between weeks or categories
  2. actual_amount(week, category) == exact sum of live expenses for the
     pair, refreshed on every mutation
  3. Recomputing the aggregate never creates an allocation row - a week
     without allocations gets its aggregate at reconciliation time instead
*/
package budget

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Tracker manages the expense log.
type Tracker struct {
	store    Store
	registry *Registry
}

// NewTracker creates an expense tracker.
func NewTracker(store Store, registry *Registry) *Tracker {
	return &Tracker{store: store, registry: registry}
}

// Add validates and records a new expense, then refreshes the aggregate for
// its (week, category). Returns the new expense id.
func (t *Tracker) Add(ctx context.Context, week Week, categoryID int64, amount decimal.Decimal, description, paymentMethod, location string) (int64, error) {
	if !amount.IsPositive() {
		return 0, &AmountError{Field: "amount", Reason: "must be positive"}
	}
	ok, err := t.registry.Exists(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrCategoryNotFound
	}

	id, err := t.store.InsertExpense(ctx, Expense{
		Week:          week,
		CategoryID:    categoryID,
		Amount:        amount,
		Description:   description,
		PaymentMethod: paymentMethod,
		Location:      location,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		return 0, err
	}

	if err := t.refreshActual(ctx, week, categoryID); err != nil {
		return 0, err
	}
	return id, nil
}

// Update applies field changes to an existing expense. The row's week and
// category are looked up first and kept - the aggregate refresh targets the
// original pair, so an expense can never drift between weeks or categories.
func (t *Tracker) Update(ctx context.Context, id int64, amount decimal.Decimal, description, paymentMethod, location string) error {
	if !amount.IsPositive() {
		return &AmountError{Field: "amount", Reason: "must be positive"}
	}

	existing, err := t.store.ExpenseByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrExpenseNotFound
	}

	updated := *existing
	updated.Amount = amount
	updated.Description = description
	updated.PaymentMethod = paymentMethod
	updated.Location = location

	affected, err := t.store.UpdateExpense(ctx, updated)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExpenseNotFound
	}

	return t.refreshActual(ctx, existing.Week, existing.CategoryID)
}

// Delete removes an expense and refreshes the aggregate for its pair.
func (t *Tracker) Delete(ctx context.Context, id int64) error {
	existing, err := t.store.ExpenseByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrExpenseNotFound
	}

	affected, err := t.store.DeleteExpense(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExpenseNotFound
	}

	return t.refreshActual(ctx, existing.Week, existing.CategoryID)
}

// ByWeek returns the week's expenses, newest first.
func (t *Tracker) ByWeek(ctx context.Context, week Week) ([]Expense, error) {
	return t.store.ExpensesByWeek(ctx, week)
}

// ByCategory returns one category's expenses for a week, newest first.
func (t *Tracker) ByCategory(ctx context.Context, week Week, categoryID int64) ([]Expense, error) {
	return t.store.ExpensesByCategory(ctx, week, categoryID)
}

// ByDateRange returns expenses with week anchors in [start, end], newest first.
func (t *Tracker) ByDateRange(ctx context.Context, start, end time.Time) ([]Expense, error) {
	if end.Before(start) {
		return nil, &AmountError{Field: "date range", Reason: "end before start"}
	}
	return t.store.ExpensesByRange(ctx, start, end)
}

// Sum recomputes the exact expense total for one (week, category).
func (t *Tracker) Sum(ctx context.Context, week Week, categoryID int64) (decimal.Decimal, error) {
	expenses, err := t.store.ExpensesByCategory(ctx, week, categoryID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// refreshActual recomputes the aggregate and writes it to the cached column.
// Writing is a no-op when no allocation row exists for the pair.
func (t *Tracker) refreshActual(ctx context.Context, week Week, categoryID int64) error {
	total, err := t.Sum(ctx, week, categoryID)
	if err != nil {
		return err
	}
	return t.store.SetActualAmount(ctx, week, categoryID, total)
}
