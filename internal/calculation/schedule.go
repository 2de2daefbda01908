package calculation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/finlife/lifesim/internal/domain"
)

// GenerateSalarySchedule builds the year-indexed gross salary map. The base
// year receives the base salary unchanged; subsequent years compound at the
// growth rate until the plateau year, after which the post-plateau rate
// applies (typically zero). Years after lastYear are excluded entirely.
func GenerateSalarySchedule(cfg domain.SalaryConfig, baseYear, lastYear int) map[int]decimal.Decimal {
	schedule := make(map[int]decimal.Decimal)
	salary := cfg.Base
	for year := baseYear; year <= lastYear; year++ {
		if year > baseYear {
			rate := cfg.GrowthRate
			if cfg.PlateauYear > 0 && year-1 >= cfg.PlateauYear {
				rate = cfg.PostPlateauRate
			}
			salary = salary.Mul(one.Add(rate))
		}
		schedule[year] = salary
	}
	return schedule
}

// GenerateLivingCosts builds the year-indexed required-spend map across the
// whole simulation horizon. Costs compound at the pre-retirement rate up to
// the retirement year, at the post-retirement rate through the slow-down
// year, and at the slow-down rate for the years after it (modelling reduced
// consumption in late retirement). A slow-down year before retirement is
// ignored. One-off expenses are added on top of the scheduled cost for
// their year.
func GenerateLivingCosts(cfg domain.LivingCostConfig, startYear, retirementYear, finalYear int) map[int]decimal.Decimal {
	costs := make(map[int]decimal.Decimal)
	cost := cfg.Base
	for year := startYear; year <= finalYear; year++ {
		if year > startYear {
			rate := cfg.PreRetirementRate
			if year > retirementYear {
				rate = cfg.PostRetirementRate
			}
			if cfg.SlowdownYear >= retirementYear && cfg.SlowdownYear > 0 && year > cfg.SlowdownYear {
				rate = cfg.SlowdownRate
			}
			cost = cost.Mul(one.Add(rate))
		}
		costs[year] = cost
		if extra, ok := cfg.OneOffExpenses[year]; ok {
			costs[year] = costs[year].Add(extra)
		}
	}
	return costs
}

// DesiredUtility is the target discretionary spend for a year:
// (baseline + linear*n) * (1+exp)^n where n is full years elapsed since the
// start. The result never falls below zero.
func DesiredUtility(cfg domain.UtilityConfig, startYear, year int) decimal.Decimal {
	n := year - startYear
	if n < 0 {
		n = 0
	}
	linear := cfg.Baseline.Add(cfg.LinearRate.Mul(decimal.NewFromInt(int64(n))))
	growth := math.Pow(one.Add(cfg.ExpRate).InexactFloat64(), float64(n))
	desired := linear.Mul(decimal.NewFromFloat(growth))
	if desired.IsNegative() {
		return decimal.Zero
	}
	return desired
}
