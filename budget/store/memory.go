// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	categories  []budget.Category
	allocations map[allocKey]budget.Allocation
	expenses    map[int64]budget.Expense
	nextID      int64
	limit       decimal.Decimal
	limitSet    bool
}

type allocKey struct {
	Week       string
	CategoryID int64
}

func NewMemory() *Memory {
	return &Memory{
		allocations: make(map[allocKey]budget.Allocation),
		expenses:    make(map[int64]budget.Expense),
		nextID:      1,
	}
}

// -----------------------------------------------------------------------------
// Categories
// -----------------------------------------------------------------------------

func (m *Memory) ListCategories(_ context.Context) ([]budget.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]budget.Category, len(m.categories))
	copy(out, m.categories)
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (m *Memory) SeedCategories(_ context.Context, categories []budget.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.categories) > 0 {
		return nil
	}
	m.categories = make([]budget.Category, len(categories))
	copy(m.categories, categories)
	return nil
}

func (m *Memory) categoryLocked(id int64) (budget.Category, bool) {
	for _, c := range m.categories {
		if c.ID == id {
			return c, true
		}
	}
	return budget.Category{}, false
}

// -----------------------------------------------------------------------------
// Allocations
// -----------------------------------------------------------------------------

func (m *Memory) AllocationsByWeek(_ context.Context, week budget.Week) ([]budget.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []budget.Allocation
	for k, a := range m.allocations {
		if k.Week != week.String() {
			continue
		}
		if c, ok := m.categoryLocked(a.CategoryID); ok {
			a.CategoryName = c.Name
			a.Bank = c.Bank
			a.Essential = c.Essential
			a.Priority = c.Priority
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (m *Memory) UpsertAllocation(_ context.Context, a budget.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := allocKey{Week: a.Week.String(), CategoryID: a.CategoryID}
	if existing, ok := m.allocations[k]; ok {
		// Replace by natural key, keeping the original creation time and
		// the cached aggregate.
		a.CreatedAt = existing.CreatedAt
		a.Actual = existing.Actual
	}
	m.allocations[k] = a
	return nil
}

func (m *Memory) SetActualAmount(_ context.Context, week budget.Week, categoryID int64, actual decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := allocKey{Week: week.String(), CategoryID: categoryID}
	a, ok := m.allocations[k]
	if !ok {
		return nil
	}
	a.Actual = actual
	m.allocations[k] = a
	return nil
}

// -----------------------------------------------------------------------------
// Expenses
// -----------------------------------------------------------------------------

func (m *Memory) ExpenseByID(_ context.Context, id int64) (*budget.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.expenses[id]
	if !ok {
		return nil, nil
	}
	m.joinCategoryLocked(&e)
	return &e, nil
}

func (m *Memory) ExpensesByWeek(_ context.Context, week budget.Week) ([]budget.Expense, error) {
	return m.filterExpenses(func(e budget.Expense) bool {
		return e.Week.Equal(week)
	})
}

func (m *Memory) ExpensesByCategory(_ context.Context, week budget.Week, categoryID int64) ([]budget.Expense, error) {
	return m.filterExpenses(func(e budget.Expense) bool {
		return e.Week.Equal(week) && e.CategoryID == categoryID
	})
}

func (m *Memory) ExpensesByRange(_ context.Context, start, end time.Time) ([]budget.Expense, error) {
	from := dateOnly(start)
	to := dateOnly(end)
	return m.filterExpenses(func(e budget.Expense) bool {
		d := dateOnly(e.Week.Time)
		return !d.Before(from) && !d.After(to)
	})
}

func (m *Memory) filterExpenses(keep func(budget.Expense) bool) ([]budget.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []budget.Expense
	for _, e := range m.expenses {
		if keep(e) {
			m.joinCategoryLocked(&e)
			out = append(out, e)
		}
	}
	// Newest first; id breaks creation-time ties deterministically.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) InsertExpense(_ context.Context, e budget.Expense) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = m.nextID
	m.nextID++
	m.expenses[e.ID] = e
	return e.ID, nil
}

func (m *Memory) UpdateExpense(_ context.Context, e budget.Expense) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.expenses[e.ID]
	if !ok {
		return 0, nil
	}
	existing.Amount = e.Amount
	existing.Description = e.Description
	existing.PaymentMethod = e.PaymentMethod
	existing.Location = e.Location
	m.expenses[e.ID] = existing
	return 1, nil
}

func (m *Memory) DeleteExpense(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expenses[id]; !ok {
		return 0, nil
	}
	delete(m.expenses, id)
	return 1, nil
}

func (m *Memory) joinCategoryLocked(e *budget.Expense) {
	if c, ok := m.categoryLocked(e.CategoryID); ok {
		e.CategoryName = c.Name
		e.Bank = c.Bank
	}
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

func (m *Memory) WeeklyLimit(_ context.Context) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.limitSet {
		return budget.DefaultWeeklyLimit, nil
	}
	return m.limit, nil
}

func (m *Memory) SetWeeklyLimit(_ context.Context, limit decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.limit = limit
	m.limitSet = true
	return nil
}

func (m *Memory) SeedWeeklyLimit(_ context.Context, limit decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.limitSet {
		return nil
	}
	m.limit = limit
	m.limitSet = true
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
