package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveRulesDefaults(t *testing.T) {
	cfg := &Configuration{}
	rules := cfg.EffectiveRules()
	assert.True(t, decimal.NewFromInt(12570).Equal(rules.PersonalAllowance))

	custom := DefaultTaxRules()
	custom.PersonalAllowance = decimal.NewFromInt(15000)
	cfg.Rules = &custom
	assert.True(t, decimal.NewFromInt(15000).Equal(cfg.EffectiveRules().PersonalAllowance))
}

func TestConfigurationCloneIsDeep(t *testing.T) {
	rate := decimal.NewFromFloat(0.05)
	price := decimal.NewFromInt(3)
	rules := DefaultTaxRules()
	cfg := &Configuration{
		StartYear:      2025,
		FinalYear:      2030,
		RetirementYear: 2028,
		GIA:            GIAConfig{AverageBuyPrice: &price},
		LivingCosts: LivingCostConfig{
			OneOffExpenses: map[int]decimal.Decimal{2026: decimal.NewFromInt(5000)},
		},
		GrowthOverrides: map[int]GrowthOverride{
			2027: {ISA: &rate},
		},
		Rules: &rules,
	}

	clone := cfg.Clone()
	require.NotSame(t, cfg, clone)

	// Mutating the clone must not reach through to the original.
	clone.LivingCosts.OneOffExpenses[2026] = decimal.NewFromInt(9999)
	assert.True(t, decimal.NewFromInt(5000).Equal(cfg.LivingCosts.OneOffExpenses[2026]))

	*clone.GrowthOverrides[2027].ISA = decimal.NewFromInt(1)
	assert.True(t, decimal.NewFromFloat(0.05).Equal(*cfg.GrowthOverrides[2027].ISA))

	*clone.GIA.AverageBuyPrice = decimal.NewFromInt(99)
	assert.True(t, decimal.NewFromInt(3).Equal(*cfg.GIA.AverageBuyPrice))

	clone.Rules.PersonalAllowance = decimal.Zero
	assert.True(t, decimal.NewFromInt(12570).Equal(cfg.Rules.PersonalAllowance))
}
