/*
store.go - Persistence port for the budget engine

PURPOSE:
  Defines the single interface between the domain logic and the database.
  The original system shipped several parallel backends (relational,
  document store, embedded KV) with the same ledger operations duplicated
  in each; here exactly one backend implements this port per deployment.

NATURAL-KEY UPSERT CONTRACT:
  Allocations are keyed by (week, category). UpsertAllocation must be an
  atomic insert-or-replace on that key so concurrent week seeding converges
  to one row per pair. A backend that instead detects a collision reports
  ErrConflict; the ledger retries once.

IMPLEMENTATIONS:
  - store/sqlite:        Production SQLite backend
  - budget/store.Memory: In-memory backend for tests/dev
*/
package budget

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence port. All methods are safe for concurrent use.
type Store interface {
	// -------------------------------------------------------------------------
	// Categories (static reference data)
	// -------------------------------------------------------------------------

	// ListCategories returns all categories ordered by priority.
	ListCategories(ctx context.Context) ([]Category, error)

	// SeedCategories inserts the given categories only when the table is
	// empty. Idempotent.
	SeedCategories(ctx context.Context, categories []Category) error

	// -------------------------------------------------------------------------
	// Allocations (one row per week x category)
	// -------------------------------------------------------------------------

	// AllocationsByWeek returns the week's allocations joined with their
	// categories, ordered by category priority.
	AllocationsByWeek(ctx context.Context, week Week) ([]Allocation, error)

	// UpsertAllocation writes an allocation by natural key, replacing any
	// existing (week, category) row.
	UpsertAllocation(ctx context.Context, a Allocation) error

	// SetActualAmount refreshes the cached actual-spend column on the
	// matching allocation row. A no-op when the row doesn't exist; the
	// aggregate is recomputed on the next reconciliation read instead.
	SetActualAmount(ctx context.Context, week Week, categoryID int64, actual decimal.Decimal) error

	// -------------------------------------------------------------------------
	// Expenses (transaction log)
	// -------------------------------------------------------------------------

	// ExpenseByID returns one expense, or nil when absent.
	ExpenseByID(ctx context.Context, id int64) (*Expense, error)

	// ExpensesByWeek returns the week's expenses joined with their
	// categories, newest first.
	ExpensesByWeek(ctx context.Context, week Week) ([]Expense, error)

	// ExpensesByCategory returns one category's expenses for a week,
	// newest first.
	ExpensesByCategory(ctx context.Context, week Week, categoryID int64) ([]Expense, error)

	// ExpensesByRange returns expenses whose week anchor falls in
	// [start, end], newest first.
	ExpensesByRange(ctx context.Context, start, end time.Time) ([]Expense, error)

	// InsertExpense persists a new expense and returns its id.
	InsertExpense(ctx context.Context, e Expense) (int64, error)

	// UpdateExpense applies amount/description/payment/location changes to
	// an existing row and returns the affected row count. Week and
	// category are never modified.
	UpdateExpense(ctx context.Context, e Expense) (int64, error)

	// DeleteExpense removes an expense and returns the affected row count.
	DeleteExpense(ctx context.Context, id int64) (int64, error)

	// -------------------------------------------------------------------------
	// Configuration
	// -------------------------------------------------------------------------

	// WeeklyLimit returns the configured global ceiling, or
	// DefaultWeeklyLimit when none has been set.
	WeeklyLimit(ctx context.Context) (decimal.Decimal, error)

	// SetWeeklyLimit stores the global ceiling.
	SetWeeklyLimit(ctx context.Context, limit decimal.Decimal) error

	// SeedWeeklyLimit stores the global ceiling only when none has been
	// stored yet. A limit already set through SetWeeklyLimit is preserved,
	// so startup seeding never clobbers a user-chosen value.
	SeedWeeklyLimit(ctx context.Context, limit decimal.Decimal) error
}
