package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/finlife/lifesim/internal/domain"
)

// DrawdownPlan fixes the tax-free lump sum entitlement once, at the
// retirement year, and amortizes the remaining pot over the years left until
// the final year. The entitlement is 25% of the pot at retirement capped at
// the statutory lump sum cap, paid in equal instalments over the configured
// spread.
type DrawdownPlan struct {
	retirementYear int
	finalYear      int
	spreadYears    int
	entitlementSet bool
	lumpSumTotal   decimal.Decimal
	lumpSumPerYear decimal.Decimal
	lumpSumCap     decimal.Decimal
	quarter        decimal.Decimal
}

func NewDrawdownPlan(retirementYear, finalYear, spreadYears int, rules domain.TaxRules) *DrawdownPlan {
	if spreadYears < 1 {
		spreadYears = 1
	}
	return &DrawdownPlan{
		retirementYear: retirementYear,
		finalYear:      finalYear,
		spreadYears:    spreadYears,
		lumpSumCap:     rules.LumpSumCap,
		quarter:        decimal.NewFromFloat(0.25),
	}
}

// TaxFreeInstalment returns the tax-free amount to withdraw in the given
// year. On the first call at the retirement year it freezes the entitlement
// from the pot balance; later pot movements do not change it. Years outside
// the spread window return zero.
func (p *DrawdownPlan) TaxFreeInstalment(year int, potBalance decimal.Decimal) decimal.Decimal {
	if year < p.retirementYear || year >= p.retirementYear+p.spreadYears {
		return decimal.Zero
	}
	if !p.entitlementSet {
		p.lumpSumTotal = decimal.Min(potBalance.Mul(p.quarter), p.lumpSumCap)
		p.lumpSumPerYear = p.lumpSumTotal.Div(decimal.NewFromInt(int64(p.spreadYears)))
		p.entitlementSet = true
	}
	return decimal.Min(p.lumpSumPerYear, potBalance)
}

// RegularDrawdown spreads the pot evenly over the remaining simulation
// years, final year inclusive. Called after the tax-free instalment has
// already been removed from the pot.
func (p *DrawdownPlan) RegularDrawdown(year int, potBalance decimal.Decimal) decimal.Decimal {
	if year < p.retirementYear || !potBalance.IsPositive() {
		return decimal.Zero
	}
	yearsLeft := p.finalYear - year + 1
	if yearsLeft < 1 {
		yearsLeft = 1
	}
	return potBalance.Div(decimal.NewFromInt(int64(yearsLeft)))
}

// LumpSumEntitlement reports the frozen entitlement, zero before retirement.
func (p *DrawdownPlan) LumpSumEntitlement() decimal.Decimal { return p.lumpSumTotal }
