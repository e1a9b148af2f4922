package budget_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// EXPENSE RECORDING TESTS
// =============================================================================

func TestAdd_RefreshesActualAggregate(t *testing.T) {
	// GIVEN: An initialized week
	// WHEN: Recording two expenses against one category
	// THEN: The cached aggregate on the allocation row is the exact sum

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")
	require.NoError(t, env.ledger.EnsureWeek(ctx, w))

	_, err := env.tracker.Add(ctx, w, 2, money(100), "groceries", "GoTyme", "market")
	require.NoError(t, err)
	_, err = env.tracker.Add(ctx, w, 2, money(50), "more groceries", "GoTyme", "")
	require.NoError(t, err)

	allocs := allocByCategory(t, env, w)
	assert.True(t, allocs[2].Actual.Equal(money(150)),
		"expected cached actual 150, got %s", allocs[2].Actual)

	sum, err := env.tracker.Sum(ctx, w, 2)
	require.NoError(t, err)
	assert.True(t, sum.Equal(money(150)))
}

func TestDelete_RefreshesActualAggregate(t *testing.T) {
	// Deleting an expense shrinks the aggregate back to the surviving sum.

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")
	require.NoError(t, env.ledger.EnsureWeek(ctx, w))

	_, err := env.tracker.Add(ctx, w, 2, money(100), "", "", "")
	require.NoError(t, err)
	id, err := env.tracker.Add(ctx, w, 2, money(50), "", "", "")
	require.NoError(t, err)

	require.NoError(t, env.tracker.Delete(ctx, id))

	allocs := allocByCategory(t, env, w)
	assert.True(t, allocs[2].Actual.Equal(money(100)),
		"expected cached actual 100 after delete, got %s", allocs[2].Actual)
}

func TestUpdate_RefreshesOriginalPair(t *testing.T) {
	// GIVEN: A recorded expense
	// WHEN: Updating its amount
	// THEN: The aggregate for the expense's original (week, category) is
	//       recomputed; the expense never moves between weeks or categories

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")
	require.NoError(t, env.ledger.EnsureWeek(ctx, w))

	id, err := env.tracker.Add(ctx, w, 6, money(200), "lunch", "GCash", "")
	require.NoError(t, err)

	require.NoError(t, env.tracker.Update(ctx, id, money(350), "dinner", "GCash", "downtown"))

	allocs := allocByCategory(t, env, w)
	assert.True(t, allocs[6].Actual.Equal(money(350)))

	expenses, err := env.tracker.ByCategory(ctx, w, 6)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "dinner", expenses[0].Description)
	assert.Equal(t, "downtown", expenses[0].Location)
	assert.Equal(t, int64(6), expenses[0].CategoryID, "category must not change on update")
	assert.True(t, expenses[0].Week.Equal(w), "week must not change on update")
}

func TestAdd_RejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	_, err := env.tracker.Add(ctx, w, 1, money(0), "", "", "")
	require.Error(t, err)
	assert.True(t, budget.IsInvalid(err))

	_, err = env.tracker.Add(ctx, w, 1, money(-5), "", "", "")
	require.Error(t, err)
	assert.True(t, budget.IsInvalid(err))
}

func TestAdd_RejectsUnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.tracker.Add(context.Background(), week(t, "2025-08-27"), 42, money(10), "", "", "")

	require.Error(t, err)
	assert.True(t, budget.IsNotFound(err))
}

func TestUpdateAndDelete_UnknownExpense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.tracker.Update(ctx, 12345, money(10), "", "", "")
	assert.ErrorIs(t, err, budget.ErrExpenseNotFound)

	err = env.tracker.Delete(ctx, 12345)
	assert.ErrorIs(t, err, budget.ErrExpenseNotFound)
}

func TestAdd_BeforeWeekInitialized_NoAllocationCreated(t *testing.T) {
	// GIVEN: A week with no allocations yet
	// WHEN: Recording an expense against it
	// THEN: No allocation row is created; the spend surfaces at
	//       reconciliation time once the week exists

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	_, err := env.tracker.Add(ctx, w, 2, money(75), "early expense", "", "")
	require.NoError(t, err)

	allocs, err := env.ledger.Allocations(ctx, w)
	require.NoError(t, err)
	assert.Empty(t, allocs, "recording an expense must not create allocation rows")

	// Initialize the week afterwards: the reconciler recomputes actuals
	// from the expense log, so the early expense is not lost.
	require.NoError(t, env.ledger.EnsureWeek(ctx, w))
	report, err := env.reconciler.ReconcileWeek(ctx, w)
	require.NoError(t, err)
	assert.True(t, report.TotalActual.Equal(money(75)),
		"expected pre-initialization spend to surface, got %s", report.TotalActual)
}

func TestByDateRange_EndBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	start, _ := budget.ParseDate("2025-08-27")
	end, _ := budget.ParseDate("2025-08-20")

	_, err := env.tracker.ByDateRange(context.Background(), start, end)
	require.Error(t, err)
	assert.True(t, budget.IsInvalid(err))
}

func TestByWeek_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")
	require.NoError(t, env.ledger.EnsureWeek(ctx, w))

	first, err := env.tracker.Add(ctx, w, 6, money(10), "first", "", "")
	require.NoError(t, err)
	second, err := env.tracker.Add(ctx, w, 6, money(20), "second", "", "")
	require.NoError(t, err)

	expenses, err := env.tracker.ByWeek(ctx, w)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, second, expenses[0].ID)
	assert.Equal(t, first, expenses[1].ID)
}
