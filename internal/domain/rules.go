package domain

import "github.com/shopspring/decimal"

// TaxRules is the fixed threshold/rate table the tax engine operates on.
// Every calculation is a pure function of its inputs and this table; the
// table itself is never mutated after construction.
type TaxRules struct {
	// Income tax
	PersonalAllowance      decimal.Decimal `yaml:"personal_allowance" json:"personal_allowance"`
	PersonalAllowanceLimit decimal.Decimal `yaml:"personal_allowance_limit" json:"personal_allowance_limit"`
	BasicBandWidth         decimal.Decimal `yaml:"basic_band_width" json:"basic_band_width"`
	AdditionalRateFloor    decimal.Decimal `yaml:"additional_rate_floor" json:"additional_rate_floor"`
	BasicRate              decimal.Decimal `yaml:"basic_rate" json:"basic_rate"`
	HigherRate             decimal.Decimal `yaml:"higher_rate" json:"higher_rate"`
	AdditionalRate         decimal.Decimal `yaml:"additional_rate" json:"additional_rate"`

	// National insurance (annual thresholds)
	NILowerThreshold decimal.Decimal `yaml:"ni_lower_threshold" json:"ni_lower_threshold"`
	NIUpperThreshold decimal.Decimal `yaml:"ni_upper_threshold" json:"ni_upper_threshold"`
	NIMainRate       decimal.Decimal `yaml:"ni_main_rate" json:"ni_main_rate"`
	NIUpperRate      decimal.Decimal `yaml:"ni_upper_rate" json:"ni_upper_rate"`

	// Personal savings allowance by marginal band
	SavingsAllowanceBasic      decimal.Decimal `yaml:"savings_allowance_basic" json:"savings_allowance_basic"`
	SavingsAllowanceHigher     decimal.Decimal `yaml:"savings_allowance_higher" json:"savings_allowance_higher"`
	SavingsAllowanceAdditional decimal.Decimal `yaml:"savings_allowance_additional" json:"savings_allowance_additional"`

	// Capital gains
	CGTAllowance  decimal.Decimal `yaml:"cgt_allowance" json:"cgt_allowance"`
	CGTBasicRate  decimal.Decimal `yaml:"cgt_basic_rate" json:"cgt_basic_rate"`
	CGTHigherRate decimal.Decimal `yaml:"cgt_higher_rate" json:"cgt_higher_rate"`

	// Pension annual allowance taper
	PensionThresholdIncomeLimit decimal.Decimal `yaml:"pension_threshold_income_limit" json:"pension_threshold_income_limit"`
	PensionStandardAllowance    decimal.Decimal `yaml:"pension_standard_allowance" json:"pension_standard_allowance"`
	PensionMinimumAllowance     decimal.Decimal `yaml:"pension_minimum_allowance" json:"pension_minimum_allowance"`
	PensionTaperThreshold       decimal.Decimal `yaml:"pension_taper_threshold" json:"pension_taper_threshold"`

	// Wrapper limits
	ISAAnnualAllowance decimal.Decimal `yaml:"isa_annual_allowance" json:"isa_annual_allowance"`
	LumpSumCap         decimal.Decimal `yaml:"lump_sum_cap" json:"lump_sum_cap"`
}

// DefaultTaxRules returns the 2025/26 UK table.
func DefaultTaxRules() TaxRules {
	return TaxRules{
		PersonalAllowance:      decimal.NewFromInt(12570),
		PersonalAllowanceLimit: decimal.NewFromInt(100000),
		BasicBandWidth:         decimal.NewFromInt(37700),
		AdditionalRateFloor:    decimal.NewFromInt(125140),
		BasicRate:              decimal.NewFromFloat(0.20),
		HigherRate:             decimal.NewFromFloat(0.40),
		AdditionalRate:         decimal.NewFromFloat(0.45),

		NILowerThreshold: decimal.NewFromInt(12570),
		NIUpperThreshold: decimal.NewFromInt(50270),
		NIMainRate:       decimal.NewFromFloat(0.08),
		NIUpperRate:      decimal.NewFromFloat(0.02),

		SavingsAllowanceBasic:      decimal.NewFromInt(1000),
		SavingsAllowanceHigher:     decimal.NewFromInt(500),
		SavingsAllowanceAdditional: decimal.Zero,

		CGTAllowance:  decimal.NewFromInt(3000),
		CGTBasicRate:  decimal.NewFromFloat(0.18),
		CGTHigherRate: decimal.NewFromFloat(0.24),

		PensionThresholdIncomeLimit: decimal.NewFromInt(200000),
		PensionStandardAllowance:    decimal.NewFromInt(60000),
		PensionMinimumAllowance:     decimal.NewFromInt(10000),
		PensionTaperThreshold:       decimal.NewFromInt(260000),

		ISAAnnualAllowance: decimal.NewFromInt(20000),
		LumpSumCap:         decimal.NewFromInt(268275),
	}
}
