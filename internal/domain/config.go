package domain

import "github.com/shopspring/decimal"

// AccountConfig describes the initial state of a single-balance account.
// Rate is the interest rate for savings-style accounts and the annual growth
// rate for invested wrappers.
type AccountConfig struct {
	Balance decimal.Decimal `yaml:"balance" json:"balance"`
	Rate    decimal.Decimal `yaml:"rate" json:"rate"`
}

// GIAConfig describes the initial state of the unitized general investment
// account. AverageBuyPrice is optional; when nil it is derived from
// Balance / Units.
type GIAConfig struct {
	Balance         decimal.Decimal  `yaml:"balance" json:"balance"`
	Units           decimal.Decimal  `yaml:"units" json:"units"`
	AverageBuyPrice *decimal.Decimal `yaml:"average_buy_price,omitempty" json:"average_buy_price,omitempty"`
	Rate            decimal.Decimal  `yaml:"rate" json:"rate"`
}

// SalaryConfig parameterizes the gross salary schedule. The salary grows at
// GrowthRate until PlateauYear (0 = no plateau), then at PostPlateauRate
// until the last working year.
type SalaryConfig struct {
	Base            decimal.Decimal `yaml:"base" json:"base"`
	GrowthRate      decimal.Decimal `yaml:"growth_rate" json:"growth_rate"`
	PlateauYear     int             `yaml:"plateau_year,omitempty" json:"plateau_year,omitempty"`
	PostPlateauRate decimal.Decimal `yaml:"post_plateau_rate" json:"post_plateau_rate"`
}

// LivingCostConfig parameterizes the required-spend schedule: one rate while
// working, another in active retirement, and an optional slow-down phase in
// later life. OneOffExpenses adds lump costs to specific years.
type LivingCostConfig struct {
	Base               decimal.Decimal         `yaml:"base" json:"base"`
	PreRetirementRate  decimal.Decimal         `yaml:"pre_retirement_rate" json:"pre_retirement_rate"`
	PostRetirementRate decimal.Decimal         `yaml:"post_retirement_rate" json:"post_retirement_rate"`
	SlowdownYear       int                     `yaml:"slowdown_year,omitempty" json:"slowdown_year,omitempty"`
	SlowdownRate       decimal.Decimal         `yaml:"slowdown_rate" json:"slowdown_rate"`
	OneOffExpenses     map[int]decimal.Decimal `yaml:"one_off_expenses,omitempty" json:"one_off_expenses,omitempty"`
}

// UtilityConfig parameterizes discretionary spending and the final score.
type UtilityConfig struct {
	Baseline          decimal.Decimal `yaml:"baseline" json:"baseline"`
	LinearRate        decimal.Decimal `yaml:"linear_rate" json:"linear_rate"`
	ExpRate           decimal.Decimal `yaml:"exp_rate" json:"exp_rate"`
	Exponent          float64         `yaml:"exponent" json:"exponent"`
	FailureExponent   float64         `yaml:"failure_exponent" json:"failure_exponent"`
	DiscountRate      float64         `yaml:"discount_rate" json:"discount_rate"`
	VolatilityPenalty float64         `yaml:"volatility_penalty" json:"volatility_penalty"`
}

// GrowthOverride replaces the configured growth rate of one or more accounts
// for a single simulated year. Used for stochastic and stress scenarios.
type GrowthOverride struct {
	ISA     *decimal.Decimal `yaml:"isa,omitempty" json:"isa,omitempty"`
	GIA     *decimal.Decimal `yaml:"gia,omitempty" json:"gia,omitempty"`
	Pension *decimal.Decimal `yaml:"pension,omitempty" json:"pension,omitempty"`
}

// Configuration is the complete engine input for one simulation run.
type Configuration struct {
	StartYear          int `yaml:"start_year" json:"start_year"`
	FinalYear          int `yaml:"final_year" json:"final_year"`
	RetirementYear     int `yaml:"retirement_year" json:"retirement_year"`
	LumpSumSpreadYears int `yaml:"lump_sum_spread_years" json:"lump_sum_spread_years"`

	StartingCash  decimal.Decimal `yaml:"starting_cash" json:"starting_cash"`
	Savings       AccountConfig   `yaml:"savings" json:"savings"`
	SecondSavings AccountConfig   `yaml:"second_savings" json:"second_savings"`
	ISA           AccountConfig   `yaml:"isa" json:"isa"`
	Pension       AccountConfig   `yaml:"pension" json:"pension"`
	GIA           GIAConfig       `yaml:"gia" json:"gia"`

	Salary      SalaryConfig     `yaml:"salary" json:"salary"`
	LivingCosts LivingCostConfig `yaml:"living_costs" json:"living_costs"`

	EmployeeContributionPct decimal.Decimal `yaml:"employee_contribution_pct" json:"employee_contribution_pct"`
	EmployerContributionPct decimal.Decimal `yaml:"employer_contribution_pct" json:"employer_contribution_pct"`

	BufferMultiplier decimal.Decimal `yaml:"buffer_multiplier" json:"buffer_multiplier"`
	Utility          UtilityConfig   `yaml:"utility" json:"utility"`

	// Optional one-time crash applied to invested balances at the
	// retirement year, e.g. 0.3 for a 30% drop.
	MarketShockPct decimal.Decimal `yaml:"market_shock_pct,omitempty" json:"market_shock_pct,omitempty"`

	// Optional per-year growth-rate overrides.
	GrowthOverrides map[int]GrowthOverride `yaml:"growth_overrides,omitempty" json:"growth_overrides,omitempty"`

	// Sell GIA units each year to use up the remaining CGT allowance.
	HarvestGains bool `yaml:"harvest_gains" json:"harvest_gains"`

	// Rule-table override; nil means DefaultTaxRules.
	Rules *TaxRules `yaml:"tax_rules,omitempty" json:"tax_rules,omitempty"`
}

// EffectiveRules returns the rule table this configuration runs under.
func (c *Configuration) EffectiveRules() TaxRules {
	if c.Rules != nil {
		return *c.Rules
	}
	return DefaultTaxRules()
}

// Clone returns a deep copy safe to mutate independently of the original.
// Parallel trial runners clone the base configuration per trial.
func (c *Configuration) Clone() *Configuration {
	out := *c
	if c.GIA.AverageBuyPrice != nil {
		v := *c.GIA.AverageBuyPrice
		out.GIA.AverageBuyPrice = &v
	}
	if c.LivingCosts.OneOffExpenses != nil {
		out.LivingCosts.OneOffExpenses = make(map[int]decimal.Decimal, len(c.LivingCosts.OneOffExpenses))
		for k, v := range c.LivingCosts.OneOffExpenses {
			out.LivingCosts.OneOffExpenses[k] = v
		}
	}
	if c.GrowthOverrides != nil {
		out.GrowthOverrides = make(map[int]GrowthOverride, len(c.GrowthOverrides))
		for k, v := range c.GrowthOverrides {
			ov := GrowthOverride{}
			if v.ISA != nil {
				d := *v.ISA
				ov.ISA = &d
			}
			if v.GIA != nil {
				d := *v.GIA
				ov.GIA = &d
			}
			if v.Pension != nil {
				d := *v.Pension
				ov.Pension = &d
			}
			out.GrowthOverrides[k] = ov
		}
	}
	if c.Rules != nil {
		r := *c.Rules
		out.Rules = &r
	}
	return &out
}
