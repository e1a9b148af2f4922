package budget

import (
	"context"
	"sort"
	"sync"
)

// =============================================================================
// DEFAULT CATEGORIES - Fixed reference data
// =============================================================================

// DefaultCategories returns the built-in category table. Priority is the
// canonical processing order; essential categories are exempt from automatic
// overflow reduction.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Phone", Bank: "UnoBank", Description: "Mobile phone bills and data", Essential: true, Priority: 1},
		{ID: 2, Name: "Groceries", Bank: "GoTyme", Description: "Food and household items", Essential: true, Priority: 2},
		{ID: 3, Name: "Rent", Bank: "GSave", Description: "Monthly rent payment", Essential: true, Priority: 3},
		{ID: 4, Name: "Electric", Bank: "MayBank", Description: "Electricity bills", Essential: true, Priority: 4},
		{ID: 5, Name: "Motorbike", Bank: "Maya", Description: "Transportation and fuel", Essential: true, Priority: 5},
		{ID: 6, Name: "Daily Expense", Bank: "GCash", Description: "Daily miscellaneous expenses", Essential: false, Priority: 6},
		{ID: 7, Name: "Savings", Bank: "Maya Savings", Description: "Emergency and future savings", Essential: true, Priority: 7},
		{ID: 8, Name: "GCredit", Bank: "GCash", Description: "GCash credit payments", Essential: false, Priority: 8},
		{ID: 9, Name: "CIMB Credit", Bank: "CIMB", Description: "CIMB credit card payments", Essential: false, Priority: 9},
		{ID: 10, Name: "Misc", Bank: "BPI", Description: "Miscellaneous expenses", Essential: false, Priority: 10},
		{ID: 11, Name: "Extra Debts", Bank: "Cebuana", Description: "Additional debt payments", Essential: false, Priority: 11},
	}
}

// =============================================================================
// REGISTRY - Read-only category lookups
// =============================================================================

// Registry serves category lookups. Categories are immutable reference data,
// so the registry caches them after the first successful load.
type Registry struct {
	store Store

	mu   sync.RWMutex
	list []Category
	byID map[int64]Category
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// EnsureSeeded inserts the default category table when the store is empty,
// then primes the cache. Safe to call more than once.
func (r *Registry) EnsureSeeded(ctx context.Context) error {
	if err := r.store.SeedCategories(ctx, DefaultCategories()); err != nil {
		return err
	}
	_, err := r.load(ctx)
	return err
}

// Categories returns all categories ordered by priority.
func (r *Registry) Categories(ctx context.Context) ([]Category, error) {
	cached := r.cached()
	if cached != nil {
		return cached, nil
	}
	return r.load(ctx)
}

// Get returns one category, or ErrCategoryNotFound.
func (r *Registry) Get(ctx context.Context, id int64) (Category, error) {
	r.mu.RLock()
	c, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	if _, err := r.load(ctx); err != nil {
		return Category{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok = r.byID[id]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	return c, nil
}

// Exists reports whether the category id is known.
func (r *Registry) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := r.Get(ctx, id)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (r *Registry) cached() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.list == nil {
		return nil
	}
	out := make([]Category, len(r.list))
	copy(out, r.list)
	return out
}

func (r *Registry) load(ctx context.Context) ([]Category, error) {
	cats, err := r.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Priority < cats[j].Priority })

	byID := make(map[int64]Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	r.mu.Lock()
	if len(cats) > 0 {
		r.list = cats
		r.byID = byID
	}
	r.mu.Unlock()

	out := make([]Category, len(cats))
	copy(out, cats)
	return out, nil
}
