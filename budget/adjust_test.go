package budget_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// OVERFLOW REBALANCING TESTS
// =============================================================================

func TestSmartSet_RebalancesNonEssentialCategories(t *testing.T) {
	// GIVEN: A default week (planned total 12000 == weekly limit)
	// WHEN: Raising Misc from 2000 to 3000 (1000 over the limit)
	// THEN: The excess is spread evenly over the other non-essential
	//       categories (1000 / 10 = 100 each), floored at zero, essential
	//       categories untouched, and the edit itself commits

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	require.NoError(t, env.advisor.SmartSet(ctx, w, 10, money(3000), budget.PlanSpend, ""))

	allocs := allocByCategory(t, env, w)

	// The edit committed.
	assert.True(t, allocs[10].Planned.Equal(money(3000)))
	assert.Equal(t, "Smart adjustment", allocs[10].Notes)

	// Non-essential categories reduced by 100 each, floored at zero.
	assert.True(t, allocs[6].Planned.Equal(money(950)), "Daily Expense 1050 - 100")
	assert.True(t, allocs[9].Planned.Equal(money(3550)), "CIMB Credit 3650 - 100")
	assert.True(t, allocs[8].Planned.Equal(money(0)), "GCredit floored at zero")
	assert.True(t, allocs[11].Planned.Equal(money(0)), "Extra Debts floored at zero")
	assert.Equal(t, "Auto-reduced for budget balance", allocs[6].Notes)

	// Essential categories untouched.
	assert.True(t, allocs[1].Planned.Equal(money(750)), "Phone is essential")
	assert.True(t, allocs[3].Planned.Equal(money(1750)), "Rent is essential")
	assert.True(t, allocs[7].Planned.Equal(money(1000)), "Savings is essential")
}

func TestSmartSet_WithinLimit_NoRebalance(t *testing.T) {
	// An edit that keeps the total at or under the limit touches nothing else.

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	require.NoError(t, env.advisor.SmartSet(ctx, w, 10, money(1500), budget.PlanSpend, ""))

	allocs := allocByCategory(t, env, w)
	assert.True(t, allocs[10].Planned.Equal(money(1500)))
	assert.True(t, allocs[6].Planned.Equal(money(1050)), "other categories untouched")
	assert.True(t, allocs[9].Planned.Equal(money(3650)))
}

func TestSmartSet_RejectsNegativeAmount(t *testing.T) {
	env := newTestEnv(t)
	err := env.advisor.SmartSet(context.Background(), week(t, "2025-08-27"), 1, money(-1), budget.PlanSpend, "")

	require.Error(t, err)
	assert.True(t, budget.IsInvalid(err))
}

func TestSmartSet_UnknownCategoryWritesNothing(t *testing.T) {
	// GIVEN: An initialized week
	// WHEN: Smart-setting an unknown category with an amount far over the limit
	// THEN: Not-found, and no other category was rebalanced

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")
	require.NoError(t, env.ledger.EnsureWeek(ctx, w))

	err := env.advisor.SmartSet(ctx, w, 999, money(50000), budget.PlanSpend, "")
	require.Error(t, err)
	assert.True(t, budget.IsNotFound(err), "expected not-found error, got %v", err)

	allocs := allocByCategory(t, env, w)
	assert.True(t, allocs[6].Planned.Equal(money(1050)), "Daily Expense must be untouched")
	assert.True(t, allocs[10].Planned.Equal(money(2000)), "Misc must be untouched")
}

func TestSmartSet_CustomNotesPreserved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	require.NoError(t, env.advisor.SmartSet(ctx, w, 6, money(800), budget.PlanSpend, "cutting back"))

	allocs := allocByCategory(t, env, w)
	assert.Equal(t, "cutting back", allocs[6].Notes)
}

// =============================================================================
// NEXT-WEEK AUTO-ADJUSTMENT TESTS
// =============================================================================

func TestAutoAdjustNextWeek(t *testing.T) {
	// GIVEN: A week with one heavily-over, one heavily-under, one on-band,
	//        and one boundary category
	// WHEN: Auto-adjusting
	// THEN: Over grows by 20% of the overage, under shrinks by 30% of the
	//       slack, the rest roll over unchanged

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-20")

	plans := map[int64]float64{1: 1000, 2: 1000, 3: 1000, 4: 1000}
	for id, amount := range plans {
		require.NoError(t, env.ledger.Upsert(ctx, w, id, money(amount), budget.PlanSpend, ""))
	}
	spending := map[int64]float64{
		1: 1400, // variance +400, util 140% -> grow
		2: 400,  // variance -600, util 40%  -> shrink
		3: 1000, // variance 0               -> untouched
		4: 1300, // variance exactly +300    -> untouched (strict band)
	}
	for id, amount := range spending {
		_, err := env.tracker.Add(ctx, w, id, money(amount), "", "", "")
		require.NoError(t, err)
	}

	adjusted, err := env.advisor.AutoAdjustNextWeek(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 2, adjusted)

	next := allocByCategory(t, env, w.Next())
	require.Len(t, next, 4, "next week was initialized by rollover first")

	assert.True(t, next[1].Planned.Equal(money(1080)), "1000 + 400*0.2, got %s", next[1].Planned)
	assert.True(t, next[2].Planned.Equal(money(820)), "1000 - 600*0.3, got %s", next[2].Planned)
	assert.True(t, next[3].Planned.Equal(money(1000)))
	assert.True(t, next[4].Planned.Equal(money(1000)))
	assert.Equal(t, "Auto-adjusted based on spending pattern", next[1].Notes)
}

func TestAutoAdjustNextWeek_ShrinkWithZeroSpend(t *testing.T) {
	// A completely unused category shrinks by 30% of its full allocation
	// and stays non-negative.

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-20")

	require.NoError(t, env.ledger.Upsert(ctx, w, 6, money(400), budget.PlanSpend, ""))
	// Variance -400 with 0 spend: util 0 < 60, shrink = 400*0.3 = 120.
	adjusted, err := env.advisor.AutoAdjustNextWeek(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 1, adjusted)

	next := allocByCategory(t, env, w.Next())
	assert.True(t, next[6].Planned.Equal(money(280)), "400 - 120, got %s", next[6].Planned)
	assert.False(t, next[6].Planned.IsNegative())
}

// =============================================================================
// HEALTH SCORE TESTS
// =============================================================================

func TestHealthScore_HealthyWeek(t *testing.T) {
	// No overspend, within the limit, utilization above 70%: full marks.

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	require.NoError(t, env.ledger.Upsert(ctx, w, 1, money(10000), budget.PlanSpend, ""))
	_, err := env.tracker.Add(ctx, w, 1, money(9000), "", "", "")
	require.NoError(t, err)

	score, err := env.advisor.HealthScore(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 100.0, score)
}

func TestHealthScore_OverspendAndLowUtilization(t *testing.T) {
	// One category 50% over (capped -20), within limit (+10), overall
	// utilization 12.5% (-28.75): 100 - 20 + 10 - 28.75 = 61.25.

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	require.NoError(t, env.ledger.Upsert(ctx, w, 1, money(1000), budget.PlanSpend, ""))
	_, err := env.tracker.Add(ctx, w, 1, money(1500), "", "", "")
	require.NoError(t, err)

	score, err := env.advisor.HealthScore(ctx, w)
	require.NoError(t, err)
	assert.InDelta(t, 61.25, score, 0.001)
}

func TestHealthScore_NeverBelowZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	// Six categories each far over budget: deductions alone exceed 100.
	for id := int64(1); id <= 6; id++ {
		require.NoError(t, env.ledger.Upsert(ctx, w, id, money(100), budget.PlanSpend, ""))
		_, err := env.tracker.Add(ctx, w, id, money(500), "", "", "")
		require.NoError(t, err)
	}

	score, err := env.advisor.HealthScore(ctx, w)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.0)
}

// =============================================================================
// REALLOCATION SUGGESTION TESTS
// =============================================================================

func TestReallocations(t *testing.T) {
	// GIVEN: One heavily-underutilized and one over-budget category
	// WHEN: Computing suggestions
	// THEN: A reduction (50% of slack) and an increase (30% of overage)

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	require.NoError(t, env.ledger.Upsert(ctx, w, 6, money(1000), budget.PlanSpend, ""))
	_, err := env.tracker.Add(ctx, w, 6, money(100), "", "", "") // variance -900, util 10%
	require.NoError(t, err)

	require.NoError(t, env.ledger.Upsert(ctx, w, 10, money(500), budget.PlanSpend, ""))
	_, err = env.tracker.Add(ctx, w, 10, money(800), "", "", "") // variance +300
	require.NoError(t, err)

	suggestions, err := env.advisor.Reallocations(ctx, w)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	byCategory := make(map[string]budget.Reallocation)
	for _, s := range suggestions {
		byCategory[s.Category] = s
	}

	reduce := byCategory["Daily Expense"]
	assert.True(t, reduce.SuggestedReduction.Equal(money(450)), "900 * 0.5, got %s", reduce.SuggestedReduction)

	increase := byCategory["Misc"]
	assert.True(t, increase.SuggestedIncrease.Equal(money(90)), "300 * 0.3, got %s", increase.SuggestedIncrease)
}

func TestReallocations_QuietWeekHasNone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	require.NoError(t, env.ledger.Upsert(ctx, w, 1, money(1000), budget.PlanSpend, ""))
	_, err := env.tracker.Add(ctx, w, 1, money(950), "", "", "")
	require.NoError(t, err)

	suggestions, err := env.advisor.Reallocations(ctx, w)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

// =============================================================================
// ALERT TESTS
// =============================================================================

func TestAlerts(t *testing.T) {
	// GIVEN: Heavy spending this week (category 9500 over, 1500 headroom
	//        left) after a much calmer previous week
	// WHEN: Computing alerts
	// THEN: A high-priority headroom warning, a category danger alert, and
	//       a week-over-week info alert

	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")
	prev := w.Prev()

	_, err := env.tracker.Add(ctx, prev, 6, money(5000), "", "", "")
	require.NoError(t, err)

	require.NoError(t, env.ledger.Upsert(ctx, w, 6, money(1000), budget.PlanSpend, ""))
	_, err = env.tracker.Add(ctx, w, 6, money(10500), "", "", "")
	require.NoError(t, err)

	alerts, err := env.advisor.Alerts(ctx, w)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	types := make(map[string]budget.Alert)
	for _, a := range alerts {
		types[a.Type] = a
	}

	warning, ok := types["warning"]
	require.True(t, ok, "expected headroom warning")
	assert.Equal(t, "high", warning.Priority)

	danger, ok := types["danger"]
	require.True(t, ok, "expected category overage danger alert")
	assert.Contains(t, danger.Message, "Daily Expense")

	info, ok := types["info"]
	require.True(t, ok, "expected week-over-week info alert")
	assert.Contains(t, info.Message, "increased")
}

func TestAlerts_QuietWeekHasNone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	w := week(t, "2025-08-27")

	require.NoError(t, env.ledger.Upsert(ctx, w, 1, money(1000), budget.PlanSpend, ""))
	_, err := env.tracker.Add(ctx, w, 1, money(500), "", "", "")
	require.NoError(t, err)

	alerts, err := env.advisor.Alerts(ctx, w)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
