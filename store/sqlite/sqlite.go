/*
Package sqlite provides the SQLite-backed implementation of the budget
persistence port.

PURPOSE:
  Implements budget.Store using database/sql + mattn/go-sqlite3. The same
  patterns apply to PostgreSQL or MySQL - only minor SQL dialect
  differences (notably the upsert clause).

NATURAL-KEY UPSERT:
  weekly_budgets is keyed by (week_date, category_id). UpsertAllocation
  uses INSERT ... ON CONFLICT DO UPDATE so concurrent seeding of the same
  week converges to one row per pair. The cached actual_amount column is
  deliberately NOT touched by the upsert - it belongs to the expense
  aggregate refresh.

AMOUNT ENCODING:
  Amounts are stored as decimal strings and summed in Go, never as REAL,
  so no float rounding ever reaches persisted state.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - budget/store.go: Interface definition and upsert contract
  - budget/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// Store implements budget.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Spending categories (static reference data)
	CREATE TABLE IF NOT EXISTS budget_categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		bank TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		is_essential INTEGER NOT NULL DEFAULT 0,
		priority_order INTEGER NOT NULL DEFAULT 0
	);

	-- Planned allocations, one row per (week, category)
	CREATE TABLE IF NOT EXISTS weekly_budgets (
		week_date TEXT NOT NULL,
		category_id INTEGER NOT NULL REFERENCES budget_categories(id),
		planned_amount TEXT NOT NULL DEFAULT '0',
		actual_amount TEXT NOT NULL DEFAULT '0',
		action_plan TEXT NOT NULL DEFAULT 'spend',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (week_date, category_id)
	);

	CREATE INDEX IF NOT EXISTS idx_weekly_budgets_week
		ON weekly_budgets(week_date);

	-- Expense transaction log
	CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		week_date TEXT NOT NULL,
		category_id INTEGER NOT NULL REFERENCES budget_categories(id),
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Aggregate recompute per (week, category) is the hot path
	CREATE INDEX IF NOT EXISTS idx_expenses_week_category
		ON expenses(week_date, category_id);
	CREATE INDEX IF NOT EXISTS idx_expenses_created_at
		ON expenses(created_at DESC);

	-- Process-wide configuration (weekly limit lives here)
	CREATE TABLE IF NOT EXISTS budget_config (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) ListCategories(ctx context.Context) ([]budget.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, bank, description, is_essential, priority_order
		FROM budget_categories
		ORDER BY priority_order ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []budget.Category
	for rows.Next() {
		var c budget.Category
		var essential int
		if err := rows.Scan(&c.ID, &c.Name, &c.Bank, &c.Description, &essential, &c.Priority); err != nil {
			return nil, err
		}
		c.Essential = essential != 0
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) SeedCategories(ctx context.Context, categories []budget.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budget_categories`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO budget_categories (id, name, bank, description, is_essential, priority_order)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, c.Name, c.Bank, c.Description, boolToInt(c.Essential), c.Priority)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (s *Store) AllocationsByWeek(ctx context.Context, week budget.Week) ([]budget.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT wb.week_date, wb.category_id, wb.planned_amount, wb.actual_amount,
		       wb.action_plan, wb.notes, wb.created_at, wb.updated_at,
		       bc.name, bc.bank, bc.is_essential, bc.priority_order
		FROM weekly_budgets wb
		JOIN budget_categories bc ON wb.category_id = bc.id
		WHERE wb.week_date = ?
		ORDER BY bc.priority_order ASC
	`, week.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	defer rows.Close()

	var allocations []budget.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

func (s *Store) UpsertAllocation(ctx context.Context, a budget.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekly_budgets
			(week_date, category_id, planned_amount, action_plan, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(week_date, category_id) DO UPDATE SET
			planned_amount = excluded.planned_amount,
			action_plan    = excluded.action_plan,
			notes          = excluded.notes,
			updated_at     = excluded.updated_at
	`,
		a.Week.String(),
		a.CategoryID,
		a.Planned.String(),
		string(a.Plan),
		a.Notes,
		a.CreatedAt.UTC().Format(time.RFC3339),
		a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return budget.ErrConflict
		}
		return fmt.Errorf("failed to upsert allocation: %w", err)
	}
	return nil
}

func (s *Store) SetActualAmount(ctx context.Context, week budget.Week, categoryID int64, actual decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE weekly_budgets
		SET actual_amount = ?
		WHERE week_date = ? AND category_id = ?
	`, actual.String(), week.String(), categoryID)
	if err != nil {
		return fmt.Errorf("failed to set actual amount: %w", err)
	}
	return nil
}

// =============================================================================
// EXPENSES
// =============================================================================

const expenseColumns = `
	e.id, e.week_date, e.category_id, e.amount, e.description,
	e.payment_method, e.location, e.created_at, bc.name, bc.bank
`

func (s *Store) ExpenseByID(ctx context.Context, id int64) (*budget.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN budget_categories bc ON e.category_id = bc.id
		WHERE e.id = ?
	`, id)

	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ExpensesByWeek(ctx context.Context, week budget.Week) ([]budget.Expense, error) {
	return s.queryExpenses(ctx, `WHERE e.week_date = ?`, week.String())
}

func (s *Store) ExpensesByCategory(ctx context.Context, week budget.Week, categoryID int64) ([]budget.Expense, error) {
	return s.queryExpenses(ctx, `WHERE e.week_date = ? AND e.category_id = ?`, week.String(), categoryID)
}

func (s *Store) ExpensesByRange(ctx context.Context, start, end time.Time) ([]budget.Expense, error) {
	return s.queryExpenses(ctx, `WHERE e.week_date >= ? AND e.week_date <= ?`,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func (s *Store) queryExpenses(ctx context.Context, where string, args ...any) ([]budget.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN budget_categories bc ON e.category_id = bc.id
		`+where+`
		ORDER BY e.created_at DESC, e.id DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []budget.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) InsertExpense(ctx context.Context, e budget.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (week_date, category_id, amount, description, payment_method, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.Week.String(),
		e.CategoryID,
		e.Amount.String(),
		e.Description,
		e.PaymentMethod,
		e.Location,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert expense: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) UpdateExpense(ctx context.Context, e budget.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount = ?, description = ?, payment_method = ?, location = ?
		WHERE id = ?
	`, e.Amount.String(), e.Description, e.PaymentMethod, e.Location, e.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to update expense: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expense: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// CONFIGURATION
// =============================================================================

const weeklyLimitKey = "weekly_budget_limit"

func (s *Store) WeeklyLimit(ctx context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM budget_config WHERE key = ?`, weeklyLimitKey).Scan(&value)
	if err == sql.ErrNoRows {
		return budget.DefaultWeeklyLimit, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read weekly limit: %w", err)
	}

	limit, err := decimal.NewFromString(value)
	if err != nil {
		return budget.DefaultWeeklyLimit, nil
	}
	return limit, nil
}

func (s *Store) SetWeeklyLimit(ctx context.Context, limit decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budget_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, weeklyLimitKey, limit.String())
	if err != nil {
		return fmt.Errorf("failed to set weekly limit: %w", err)
	}
	return nil
}

func (s *Store) SeedWeeklyLimit(ctx context.Context, limit decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budget_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, weeklyLimitKey, limit.String())
	if err != nil {
		return fmt.Errorf("failed to seed weekly limit: %w", err)
	}
	return nil
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanAllocation(row scanner) (budget.Allocation, error) {
	var a budget.Allocation
	var weekDate, planned, actual, plan, createdAt, updatedAt string
	var essential int

	err := row.Scan(&weekDate, &a.CategoryID, &planned, &actual, &plan, &a.Notes,
		&createdAt, &updatedAt, &a.CategoryName, &a.Bank, &essential, &a.Priority)
	if err != nil {
		return budget.Allocation{}, err
	}

	week, err := budget.ParseDate(weekDate)
	if err != nil {
		return budget.Allocation{}, err
	}
	a.Week = budget.Week{Time: week}
	a.Planned = budget.MustMoney(planned)
	a.Actual = budget.MustMoney(actual)
	a.Plan = budget.ActionPlan(plan)
	a.Essential = essential != 0
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return a, nil
}

func scanExpense(row scanner) (budget.Expense, error) {
	var e budget.Expense
	var weekDate, amount, createdAt string

	err := row.Scan(&e.ID, &weekDate, &e.CategoryID, &amount, &e.Description,
		&e.PaymentMethod, &e.Location, &createdAt, &e.CategoryName, &e.Bank)
	if err != nil {
		return budget.Expense{}, err
	}

	week, err := budget.ParseDate(weekDate)
	if err != nil {
		return budget.Expense{}, err
	}
	e.Week = budget.Week{Time: week}
	e.Amount = budget.MustMoney(amount)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
