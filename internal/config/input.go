package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/finlife/lifesim/internal/domain"
)

// Parser loads and validates simulation configurations. A configuration
// that passes Validate will not fail construction inside the engine.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// LoadFromFile reads a YAML configuration and validates it.
func (p *Parser) LoadFromFile(path string) (*domain.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return p.LoadFromBytes(data)
}

// LoadFromBytes parses a YAML configuration from memory and validates it.
func (p *Parser) LoadFromBytes(data []byte) (*domain.Configuration, error) {
	var cfg domain.Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.LumpSumSpreadYears == 0 {
		cfg.LumpSumSpreadYears = 1
	}
	if err := p.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configurations that would put the simulation in an
// inconsistent state. Rejection happens before the run starts; the engine
// itself assumes a validated input.
func (p *Parser) Validate(cfg *domain.Configuration) error {
	if cfg.StartYear <= 0 || cfg.FinalYear <= 0 || cfg.RetirementYear <= 0 {
		return fmt.Errorf("start, final and retirement years must all be set")
	}
	if cfg.FinalYear < cfg.StartYear {
		return fmt.Errorf("final year %d precedes start year %d", cfg.FinalYear, cfg.StartYear)
	}
	if cfg.RetirementYear < cfg.StartYear || cfg.RetirementYear > cfg.FinalYear {
		return fmt.Errorf("retirement year %d outside simulation range %d..%d",
			cfg.RetirementYear, cfg.StartYear, cfg.FinalYear)
	}
	if cfg.LumpSumSpreadYears < 1 {
		return fmt.Errorf("lump_sum_spread_years must be at least 1, got %d", cfg.LumpSumSpreadYears)
	}

	for _, b := range []struct {
		name    string
		balance decimal.Decimal
	}{
		{"savings", cfg.Savings.Balance},
		{"second_savings", cfg.SecondSavings.Balance},
		{"isa", cfg.ISA.Balance},
		{"pension", cfg.Pension.Balance},
		{"gia", cfg.GIA.Balance},
	} {
		if b.balance.IsNegative() {
			return fmt.Errorf("%s balance must not be negative, got %s", b.name, b.balance)
		}
	}
	if cfg.GIA.Units.IsNegative() {
		return fmt.Errorf("gia units must not be negative, got %s", cfg.GIA.Units)
	}
	if cfg.GIA.Balance.IsPositive() && !cfg.GIA.Units.IsPositive() {
		return fmt.Errorf("gia has value %s but no units; set gia.units", cfg.GIA.Balance)
	}
	if cfg.GIA.AverageBuyPrice != nil && cfg.GIA.AverageBuyPrice.IsNegative() {
		return fmt.Errorf("gia average buy price must not be negative, got %s", cfg.GIA.AverageBuyPrice)
	}

	for _, pct := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"employee_contribution_pct", cfg.EmployeeContributionPct},
		{"employer_contribution_pct", cfg.EmployerContributionPct},
	} {
		if pct.value.IsNegative() || pct.value.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be within [0, 1], got %s", pct.name, pct.value)
		}
	}
	if cfg.BufferMultiplier.IsNegative() {
		return fmt.Errorf("buffer_multiplier must not be negative, got %s", cfg.BufferMultiplier)
	}
	if cfg.MarketShockPct.IsNegative() || cfg.MarketShockPct.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("market_shock_pct must be within [0, 1], got %s", cfg.MarketShockPct)
	}

	if cfg.Salary.Base.IsNegative() {
		return fmt.Errorf("salary base must not be negative, got %s", cfg.Salary.Base)
	}
	if cfg.LivingCosts.Base.IsNegative() {
		return fmt.Errorf("living cost base must not be negative, got %s", cfg.LivingCosts.Base)
	}
	for year, amount := range cfg.LivingCosts.OneOffExpenses {
		if year < cfg.StartYear || year > cfg.FinalYear {
			return fmt.Errorf("one-off expense year %d outside simulation range %d..%d",
				year, cfg.StartYear, cfg.FinalYear)
		}
		if amount.IsNegative() {
			return fmt.Errorf("one-off expense for year %d must not be negative, got %s", year, amount)
		}
	}
	for year := range cfg.GrowthOverrides {
		if year < cfg.StartYear || year > cfg.FinalYear {
			return fmt.Errorf("growth override year %d outside simulation range %d..%d",
				year, cfg.StartYear, cfg.FinalYear)
		}
	}

	if cfg.Utility.Exponent <= 0 || cfg.Utility.Exponent > 1 {
		return fmt.Errorf("utility exponent must be within (0, 1], got %v", cfg.Utility.Exponent)
	}
	if cfg.Utility.FailureExponent < 1 {
		return fmt.Errorf("utility failure exponent must be at least 1, got %v", cfg.Utility.FailureExponent)
	}
	if cfg.Utility.DiscountRate < 0 {
		return fmt.Errorf("discount rate must not be negative, got %v", cfg.Utility.DiscountRate)
	}
	if cfg.Utility.VolatilityPenalty < 0 {
		return fmt.Errorf("volatility penalty must not be negative, got %v", cfg.Utility.VolatilityPenalty)
	}
	return nil
}

// ExampleConfiguration returns a complete, valid configuration with
// plausible defaults, used by the example subcommand and as a test fixture.
func ExampleConfiguration() *domain.Configuration {
	giaRate := decimal.NewFromFloat(0.02)
	return &domain.Configuration{
		StartYear:          2025,
		FinalYear:          2074,
		RetirementYear:     2055,
		LumpSumSpreadYears: 1,

		StartingCash: decimal.NewFromInt(5000),
		Savings: domain.AccountConfig{
			Balance: decimal.NewFromInt(1000),
			Rate:    decimal.NewFromFloat(0.02),
		},
		SecondSavings: domain.AccountConfig{
			Balance: decimal.NewFromInt(50000),
			Rate:    decimal.NewFromFloat(0.02),
		},
		ISA: domain.AccountConfig{
			Balance: decimal.NewFromInt(150000),
			Rate:    decimal.NewFromFloat(0.02),
		},
		Pension: domain.AccountConfig{
			Balance: decimal.NewFromInt(150000),
			Rate:    decimal.NewFromFloat(0.02),
		},
		GIA: domain.GIAConfig{
			Balance: decimal.NewFromInt(500000),
			Units:   decimal.NewFromInt(100),
			Rate:    giaRate,
		},

		Salary: domain.SalaryConfig{
			Base:       decimal.NewFromInt(100000),
			GrowthRate: decimal.NewFromFloat(0.01),
		},
		LivingCosts: domain.LivingCostConfig{
			Base:               decimal.NewFromInt(20000),
			PreRetirementRate:  decimal.NewFromFloat(0.02),
			PostRetirementRate: decimal.NewFromFloat(0.04),
		},

		EmployeeContributionPct: decimal.NewFromFloat(0.07),
		EmployerContributionPct: decimal.NewFromFloat(0.07),

		BufferMultiplier: decimal.NewFromFloat(1.2),
		Utility: domain.UtilityConfig{
			Baseline:          decimal.NewFromInt(30000),
			LinearRate:        decimal.Zero,
			ExpRate:           decimal.NewFromFloat(0.005),
			Exponent:          0.99,
			FailureExponent:   2,
			DiscountRate:      0.001,
			VolatilityPenalty: 100000,
		},
	}
}

// ExampleYAML renders the example configuration as YAML.
func ExampleYAML() ([]byte, error) {
	data, err := yaml.Marshal(ExampleConfiguration())
	if err != nil {
		return nil, fmt.Errorf("marshaling example config: %w", err)
	}
	return data, nil
}
