package budget_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// TREND TESTS
// =============================================================================

func TestSpendingTrends(t *testing.T) {
	// GIVEN: Expenses spread over two consecutive weeks
	// WHEN: Asking for a two-week trend window
	// THEN: Per-week rollups come back newest first with correct averages

	env := newTestEnv(t)
	ctx := context.Background()
	current := week(t, "2025-08-27")
	previous := current.Prev()

	_, err := env.tracker.Add(ctx, previous, 6, money(100), "", "", "")
	require.NoError(t, err)
	_, err = env.tracker.Add(ctx, previous, 6, money(300), "", "", "")
	require.NoError(t, err)
	_, err = env.tracker.Add(ctx, current, 6, money(500), "", "", "")
	require.NoError(t, err)

	trends, err := env.analyzer.SpendingTrends(ctx, current, 2)
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.True(t, trends[0].Week.Equal(current), "newest week first")
	assert.True(t, trends[0].TotalSpent.Equal(money(500)))
	assert.Equal(t, 1, trends[0].TransactionCount)

	assert.True(t, trends[1].Week.Equal(previous))
	assert.True(t, trends[1].TotalSpent.Equal(money(400)))
	assert.Equal(t, 2, trends[1].TransactionCount)
	assert.True(t, trends[1].AvgTransaction.Equal(money(200)))
}

func TestSpendingTrends_OmitsEmptyWeeks(t *testing.T) {
	// Weeks with no expenses simply do not appear; the window is not padded.

	env := newTestEnv(t)
	ctx := context.Background()
	current := week(t, "2025-08-27")

	_, err := env.tracker.Add(ctx, current, 6, money(50), "", "", "")
	require.NoError(t, err)

	trends, err := env.analyzer.SpendingTrends(ctx, current, 4)
	require.NoError(t, err)
	assert.Len(t, trends, 1)
}

func TestSpendingTrends_WindowExcludesOlderWeeks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	current := week(t, "2025-08-27")
	old := current.Prev().Prev().Prev() // three weeks back

	_, err := env.tracker.Add(ctx, old, 6, money(999), "", "", "")
	require.NoError(t, err)
	_, err = env.tracker.Add(ctx, current, 6, money(10), "", "", "")
	require.NoError(t, err)

	trends, err := env.analyzer.SpendingTrends(ctx, current, 2)
	require.NoError(t, err)
	require.Len(t, trends, 1, "three-week-old spending is outside a two-week window")
	assert.True(t, trends[0].Week.Equal(current))
}

// =============================================================================
// PREDICTION TESTS
// =============================================================================

func TestPredictNextWeek(t *testing.T) {
	// GIVEN: Two transactions (100 and 200) in one category over the window
	// WHEN: Predicting next week
	// THEN: Average 150 plus the 10% buffer suggests 165

	env := newTestEnv(t)
	ctx := context.Background()
	current := week(t, "2025-08-27")

	_, err := env.tracker.Add(ctx, current, 6, money(100), "", "", "")
	require.NoError(t, err)
	_, err = env.tracker.Add(ctx, current.Prev(), 6, money(200), "", "", "")
	require.NoError(t, err)

	predictions, err := env.analyzer.PredictNextWeek(ctx, current, 4)
	require.NoError(t, err)
	require.Len(t, predictions, 1)

	p := predictions[0]
	assert.Equal(t, int64(6), p.Category.ID)
	assert.True(t, p.AvgSpending.Equal(money(150)))
	assert.Equal(t, 2, p.Frequency)
	assert.True(t, p.SuggestedAmount.Equal(money(165)), "150 * 1.1, got %s", p.SuggestedAmount)
}

func TestPredictNextWeek_ScalesDownToLimit(t *testing.T) {
	// When the raw suggestions total more than the weekly limit, every
	// suggestion is scaled proportionally so the total lands on the limit.

	env := newTestEnv(t)
	ctx := context.Background()
	current := week(t, "2025-08-27")

	require.NoError(t, env.store.SetWeeklyLimit(ctx, money(100)))
	_, err := env.tracker.Add(ctx, current, 6, money(200), "", "", "")
	require.NoError(t, err)

	predictions, err := env.analyzer.PredictNextWeek(ctx, current, 4)
	require.NoError(t, err)
	require.Len(t, predictions, 1)

	// Raw suggestion 220 scaled by 100/220.
	assert.True(t, predictions[0].SuggestedAmount.Equal(money(100)),
		"expected 100, got %s", predictions[0].SuggestedAmount)
}

func TestPredictNextWeek_NoHistory(t *testing.T) {
	env := newTestEnv(t)
	predictions, err := env.analyzer.PredictNextWeek(context.Background(), week(t, "2025-08-27"), 4)

	require.NoError(t, err)
	assert.Empty(t, predictions)
}

// =============================================================================
// MONTHLY FORECAST TESTS
// =============================================================================

func TestMonthlyForecast(t *testing.T) {
	// GIVEN: Expenses in two categories during August, one outside it
	// WHEN: Forecasting August 2025
	// THEN: Only August weeks count; categories come back biggest first

	env := newTestEnv(t)
	ctx := context.Background()

	aug1 := week(t, "2025-08-06")
	aug2 := week(t, "2025-08-13")
	july := week(t, "2025-07-09")

	_, err := env.tracker.Add(ctx, aug1, 6, money(300), "", "", "")
	require.NoError(t, err)
	_, err = env.tracker.Add(ctx, aug2, 6, money(200), "", "", "")
	require.NoError(t, err)
	_, err = env.tracker.Add(ctx, aug1, 10, money(900), "", "", "")
	require.NoError(t, err)
	_, err = env.tracker.Add(ctx, july, 6, money(5000), "", "", "")
	require.NoError(t, err)

	forecast, err := env.analyzer.MonthlyForecast(ctx, time.August, 2025)
	require.NoError(t, err)

	assert.True(t, forecast.TotalSpent.Equal(money(1400)), "July spending excluded, got %s", forecast.TotalSpent)
	require.Len(t, forecast.Categories, 2)
	assert.Equal(t, "Misc", forecast.Categories[0].Category.Name, "biggest spender first")
	assert.True(t, forecast.Categories[0].TotalSpent.Equal(money(900)))
	assert.True(t, forecast.Categories[1].TotalSpent.Equal(money(500)))
	assert.Equal(t, 2, forecast.Categories[1].TransactionCount)

	// August has 31 days.
	expectedDaily := money(1400).Div(money(31))
	assert.True(t, forecast.DailyAverage.Equal(expectedDaily))
}

func TestMonthlyForecast_InvalidMonth(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.analyzer.MonthlyForecast(context.Background(), time.Month(13), 2025)

	require.Error(t, err)
	assert.True(t, budget.IsInvalid(err))
}

// =============================================================================
// TOP CATEGORY TESTS
// =============================================================================

func TestTopCategories(t *testing.T) {
	// GIVEN: Three categories with different spend over the window
	// WHEN: Asking for the top two
	// THEN: The two biggest spenders, biggest first

	env := newTestEnv(t)
	ctx := context.Background()
	current := week(t, "2025-08-27")

	for categoryID, amount := range map[int64]float64{2: 500, 6: 900, 10: 100} {
		_, err := env.tracker.Add(ctx, current, categoryID, money(amount), "", "", "")
		require.NoError(t, err)
	}

	top, err := env.analyzer.TopCategories(ctx, current, 4, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)

	assert.Equal(t, "Daily Expense", top[0].Category.Name)
	assert.True(t, top[0].TotalSpent.Equal(money(900)))
	assert.Equal(t, "Groceries", top[1].Category.Name)
}

// =============================================================================
// SAVINGS RECOMMENDATION TESTS
// =============================================================================

func TestSavingsRecommendations(t *testing.T) {
	// GIVEN: A non-essential category averaging 300/transaction, an
	//        essential one spending heavily, and a non-essential one
	//        whose 20% cut would save only 50 (not strictly more)
	// WHEN: Computing recommendations
	// THEN: Only the first qualifies

	env := newTestEnv(t)
	ctx := context.Background()
	current := week(t, "2025-08-27")

	// Qualifies: non-essential, avg 300, saving 60 > 50.
	_, err := env.tracker.Add(ctx, current, 10, money(300), "", "", "")
	require.NoError(t, err)
	_, err = env.tracker.Add(ctx, current.Prev(), 10, money(300), "", "", "")
	require.NoError(t, err)

	// Essential categories are never suggested, whatever the spend.
	_, err = env.tracker.Add(ctx, current, 3, money(2000), "", "", "")
	require.NoError(t, err)

	// Boundary: avg 250, saving exactly 50 is not strictly greater.
	_, err = env.tracker.Add(ctx, current, 6, money(250), "", "", "")
	require.NoError(t, err)

	recommendations, err := env.analyzer.SavingsRecommendations(ctx, current)
	require.NoError(t, err)
	require.Len(t, recommendations, 1)

	rec := recommendations[0]
	assert.Equal(t, "Misc", rec.Category)
	assert.True(t, rec.CurrentSpending.Equal(money(300)))
	assert.True(t, rec.PotentialSaving.Equal(money(60)))
	assert.Contains(t, rec.Suggestion, "Misc")
}

func TestSavingsRecommendations_LowSpendExcluded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	current := week(t, "2025-08-27")

	// Non-essential but avg 90 <= 100.
	_, err := env.tracker.Add(ctx, current, 6, money(90), "", "", "")
	require.NoError(t, err)

	recommendations, err := env.analyzer.SavingsRecommendations(ctx, current)
	require.NoError(t, err)
	assert.Empty(t, recommendations)
}
