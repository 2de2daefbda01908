package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlife/lifesim/internal/domain"
)

func TestGenerateSalarySchedule(t *testing.T) {
	cfg := domain.SalaryConfig{
		Base:       d("100000"),
		GrowthRate: d("0.1"),
	}
	schedule := GenerateSalarySchedule(cfg, 2024, 2027)

	require.Len(t, schedule, 4)
	assert.True(t, d("100000").Equal(schedule[2024]))
	assert.True(t, d("110000").Equal(schedule[2025]))
	assert.True(t, d("121000").Equal(schedule[2026]))
	assert.True(t, d("133100").Equal(schedule[2027]))
}

func TestGenerateSalaryScheduleWithPlateau(t *testing.T) {
	cfg := domain.SalaryConfig{
		Base:            d("100000"),
		GrowthRate:      d("0.1"),
		PlateauYear:     2025,
		PostPlateauRate: d("0"),
	}
	schedule := GenerateSalarySchedule(cfg, 2024, 2027)

	// Growth applies until the plateau year; the salary freezes after it.
	assert.True(t, d("110000").Equal(schedule[2025]))
	assert.True(t, d("110000").Equal(schedule[2026]), "got %s", schedule[2026])
	assert.True(t, d("110000").Equal(schedule[2027]))
}

func TestGenerateLivingCosts(t *testing.T) {
	cfg := domain.LivingCostConfig{
		Base:               d("20000"),
		PreRetirementRate:  d("0.1"),
		PostRetirementRate: d("0.2"),
	}
	costs := GenerateLivingCosts(cfg, 2025, 2026, 2028)

	require.Len(t, costs, 4)
	assert.True(t, d("20000").Equal(costs[2025]))
	// 2026 is the retirement year itself: still the pre-retirement rate.
	assert.True(t, d("22000").Equal(costs[2026]))
	assert.True(t, d("26400").Equal(costs[2027]), "got %s", costs[2027])
	assert.True(t, d("31680").Equal(costs[2028]))
}

func TestGenerateLivingCostsSlowdownAndOneOffs(t *testing.T) {
	cfg := domain.LivingCostConfig{
		Base:               d("20000"),
		PreRetirementRate:  d("0.1"),
		PostRetirementRate: d("0.1"),
		SlowdownYear:       2027,
		SlowdownRate:       d("0"),
		OneOffExpenses:     map[int]decimal.Decimal{2026: d("5000")},
	}
	costs := GenerateLivingCosts(cfg, 2025, 2026, 2029)

	assert.True(t, d("27000").Equal(costs[2026]), "22,000 plus the one-off")
	// The one-off does not compound: 2027 grows from the scheduled 22,000,
	// still at the post-retirement rate through the slow-down year itself.
	assert.True(t, d("24200").Equal(costs[2027]), "got %s", costs[2027])
	// The slow-down rate first applies the year after the slow-down year.
	assert.True(t, d("24200").Equal(costs[2028]), "got %s", costs[2028])
	assert.True(t, d("24200").Equal(costs[2029]))
}

func TestGenerateLivingCostsSlowdownBeforeRetirementIgnored(t *testing.T) {
	cfg := domain.LivingCostConfig{
		Base:               d("20000"),
		PreRetirementRate:  d("0.1"),
		PostRetirementRate: d("0.1"),
		SlowdownYear:       2026,
		SlowdownRate:       d("0"),
	}
	costs := GenerateLivingCosts(cfg, 2025, 2028, 2028)

	// A slow-down year before retirement has no effect on the schedule.
	assert.True(t, d("24200").Equal(costs[2027]), "got %s", costs[2027])
	assert.True(t, d("26620").Equal(costs[2028]), "got %s", costs[2028])
}

func TestDesiredUtility(t *testing.T) {
	cfg := domain.UtilityConfig{
		Baseline:   d("1000"),
		LinearRate: d("100"),
		ExpRate:    d("0.1"),
	}

	// Year zero: baseline only.
	assert.True(t, d("1000").Equal(DesiredUtility(cfg, 2025, 2025)))
	// Two years in: (1000 + 200) * 1.1^2 = 1,452.
	got := DesiredUtility(cfg, 2025, 2027)
	assert.InDelta(t, 1452, got.InexactFloat64(), 0.01)
	// Before the start year the target stays at the baseline.
	assert.True(t, d("1000").Equal(DesiredUtility(cfg, 2025, 2020)))
}

func TestDesiredUtilityNeverNegative(t *testing.T) {
	cfg := domain.UtilityConfig{
		Baseline:   d("100"),
		LinearRate: d("-100"),
		ExpRate:    d("0"),
	}
	assert.True(t, DesiredUtility(cfg, 2025, 2030).IsZero())
}
