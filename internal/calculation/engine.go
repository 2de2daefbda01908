package calculation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/finlife/lifesim/internal/domain"
)

// SimulationEngine runs the year-by-year life simulation. One engine
// invocation owns its account and person state exclusively; callers wanting
// parallel runs create independent invocations with independent
// configurations.
type SimulationEngine struct {
	Log Logger
}

func NewSimulationEngine(log Logger) *SimulationEngine {
	if log == nil {
		log = NopLogger{}
	}
	return &SimulationEngine{Log: log}
}

// Run simulates every year from start to final inclusive and returns the
// full ledger, the scalar metric and (when enabled) the diagnostic trace.
// A fatal invariant violation aborts the run with an error naming the year,
// phase and offending value; no partial result is returned.
func (e *SimulationEngine) Run(cfg *domain.Configuration, traceEnabled bool) (*domain.Result, error) {
	rules := cfg.EffectiveRules()
	calc := NewTaxCalculator(rules)
	tr := NewTraceRecorder(traceEnabled)

	salarySchedule := GenerateSalarySchedule(cfg.Salary, cfg.StartYear-1, cfg.RetirementYear-1)
	livingCosts := GenerateLivingCosts(cfg.LivingCosts, cfg.StartYear, cfg.RetirementYear, cfg.FinalYear)

	person := NewPerson(cfg.StartingCash, livingCosts, cfg.Utility.Exponent, e.Log)
	employment := NewEmployment(salarySchedule, cfg.EmployeeContributionPct, cfg.EmployerContributionPct)

	savings := NewSavingsAccount("savings", cfg.Savings.Balance, cfg.Savings.Rate, e.Log)
	secondSavings := NewSavingsAccount("second savings", cfg.SecondSavings.Balance, cfg.SecondSavings.Rate, e.Log)
	isa := NewWrapperAccount("isa", cfg.ISA.Balance, cfg.ISA.Rate, e.Log)
	pension := NewWrapperAccount("pension", cfg.Pension.Balance, cfg.Pension.Rate, e.Log)
	gia := NewUnitizedAccount("gia", cfg.GIA.Balance, cfg.GIA.Units, cfg.GIA.AverageBuyPrice, cfg.GIA.Rate, e.Log)

	plan := NewDrawdownPlan(cfg.RetirementYear, cfg.FinalYear, cfg.LumpSumSpreadYears, rules)

	records := make([]domain.YearRecord, 0, cfg.FinalYear-cfg.StartYear+1)
	shockApplied := false

	for year := cfg.StartYear; year <= cfg.FinalYear; year++ {
		// Market-shock pre-phase: a one-time crash at the retirement year.
		if !shockApplied && year == cfg.RetirementYear && cfg.MarketShockPct.IsPositive() {
			factor := one.Sub(cfg.MarketShockPct)
			isa.Scale(factor)
			pension.Scale(factor)
			gia.ScalePrice(factor)
			shockApplied = true
			e.Log.Infof("year %d: market shock applied, factor %s", year, factor)
			tr.Record(year, "shock", "factor", factor, "invested balances scaled")
		}

		// Phase 1: desired utility.
		desired := DesiredUtility(cfg.Utility, cfg.StartYear, year)
		tr.Record(year, "desired", "utility_desired", desired, "")

		// Phase 2: income. Interest is paid gross into cash; tax on it is
		// settled in the tax phase. Dividends are a placeholder.
		taxableSalary := employment.TaxableSalary(year)
		grossInterest := savings.PayInterest().Add(secondSavings.PayInterest())
		person.ToCash(grossInterest)
		dividends := decimal.Zero
		tr.Record(year, "income", "taxable_salary", taxableSalary, "")
		tr.Record(year, "income", "gross_interest", grossInterest, "paid gross into cash")

		// Phase 3: growth, fixed order.
		override := cfg.GrowthOverrides[year]
		growWrapper(isa, override.ISA)
		if override.GIA != nil {
			gia.GrowAt(*override.GIA)
		} else {
			gia.Grow()
		}
		growWrapper(pension, override.Pension)
		for _, check := range []struct {
			name    string
			balance decimal.Decimal
		}{
			{"isa", isa.Balance()},
			{"gia", gia.Balance()},
			{"pension", pension.Balance()},
		} {
			if err := requireNonNegative(year, "growth", check.name, check.balance); err != nil {
				return nil, err
			}
		}
		tr.Record(year, "growth", "isa_balance", isa.Balance(), "")
		tr.Record(year, "growth", "gia_balance", gia.Balance(), "")
		tr.Record(year, "growth", "pension_balance", pension.Balance(), "")

		// Phase 4: pension contribution and drawdown. The tax-free lump sum
		// instalment goes straight to cash; the regular drawdown is taxable
		// income and reaches cash via the net-income deposit below.
		employeeContribution := employment.EmployeeContribution(year)
		employerContribution := employment.EmployerContribution(year)
		contribution := employeeContribution.Add(employerContribution)
		if contribution.IsPositive() {
			pension.Deposit(contribution)
		}

		taxFreePension := decimal.Zero
		if instalment := plan.TaxFreeInstalment(year, pension.Balance()); instalment.IsPositive() {
			res := pension.Withdraw(instalment)
			taxFreePension = res.Received
			person.ToCash(taxFreePension)
		}
		taxablePension := decimal.Zero
		if drawdown := plan.RegularDrawdown(year, pension.Balance()); drawdown.IsPositive() {
			res := pension.Withdraw(drawdown)
			taxablePension = res.Received
		}
		takenFromPension := taxFreePension.Add(taxablePension)
		tr.Record(year, "pension", "contribution", contribution, "")
		tr.Record(year, "pension", "tax_free_income", taxFreePension, "")
		tr.Record(year, "pension", "taxable_income", taxablePension, "")

		// Phase 5: taxes. The savings allowance is selected on an income
		// estimate that includes gross interest; NI is charged on gross pay.
		incomeEstimate := taxableSalary.Add(grossInterest).Add(taxablePension)
		taxableInterest := calc.TaxableInterest(incomeEstimate, grossInterest)
		pensionAllowance := calc.PensionAnnualAllowance(taxableSalary.Add(taxableInterest), employeeContribution, employerContribution)
		excessPensionPay := decimal.Max(decimal.Zero, contribution.Sub(pensionAllowance))

		totalTaxableIncome := taxableSalary.Add(taxableInterest).Add(excessPensionPay).
			Add(taxablePension).Add(dividends)
		incomeTax := calc.IncomeTax(totalTaxableIncome)
		nationalIns := calc.NationalInsurance(employment.GrossSalary(year))

		netIncome := taxableSalary.Add(taxablePension).Sub(incomeTax).Sub(nationalIns)
		person.ToCash(netIncome)
		tr.Record(year, "tax", "total_taxable_income", totalTaxableIncome, "")
		tr.Record(year, "tax", "income_tax", incomeTax, "")
		tr.Record(year, "tax", "national_insurance", nationalIns, "")
		tr.Record(year, "tax", "net_income", netIncome, "deposited into cash")

		// Phase 6: living costs, down to a £1 cash reserve.
		livingCost := person.LivingCost(year)
		unpaid := decimal.Zero
		if person.Cash().GreaterThanOrEqual(livingCost) {
			person.FromCash(livingCost)
		} else {
			payable := person.Cash().Sub(one)
			if payable.IsPositive() {
				person.FromCash(payable)
				unpaid = livingCost.Sub(payable)
			} else {
				unpaid = livingCost
			}
			e.Log.Warnf("year %d: living costs %s not fully covered, %s unpaid", year, livingCost, unpaid)
		}
		tr.Record(year, "living", "living_costs", livingCost, "")
		tr.Record(year, "living", "unpaid", unpaid, "")

		// Phase 7: fund the shortfall, desired spend and cash buffer from
		// investments, GIA first (net of the exact CGT on the realized
		// gain), then the ISA. Cash already on hand does not reduce the
		// need; any surplus is reinvested in phase 10.
		buffer := livingCost.Mul(cfg.BufferMultiplier)
		need := decimal.Max(decimal.Zero, unpaid.Add(desired).Add(buffer))
		realizedGains := decimal.Zero
		capitalGainsTax := decimal.Zero
		takenFromGIA := decimal.Zero
		takenFromISA := decimal.Zero
		if need.IsPositive() {
			// Gross up by the higher CGT rate so the net proceeds roughly
			// cover the need; the exact tax is computed on the actual gain.
			grossEstimate := decimal.Min(need.Mul(one.Add(rules.CGTHigherRate)), gia.Balance())
			if grossEstimate.IsPositive() {
				res := gia.Withdraw(grossEstimate)
				cgt := calc.CapitalGainsTax(res.RealizedGain, totalTaxableIncome)
				person.ToCash(res.Received.Sub(cgt))
				takenFromGIA = res.Received
				realizedGains = realizedGains.Add(res.RealizedGain)
				capitalGainsTax = capitalGainsTax.Add(cgt)
				need = decimal.Max(decimal.Zero, need.Sub(res.Received.Sub(cgt)))
			}
		}
		if need.IsPositive() {
			req := decimal.Min(need, isa.Balance())
			if req.IsPositive() {
				res := isa.Withdraw(req)
				person.ToCash(res.Received)
				takenFromISA = res.Received
			}
		}
		tr.Record(year, "funding", "taken_from_gia", takenFromGIA, "")
		tr.Record(year, "funding", "taken_from_isa", takenFromISA, "")
		tr.Record(year, "funding", "capital_gains_tax", capitalGainsTax, "")

		// Phase 8: settle remaining living costs, then spend on utility out
		// of cash above the buffer floor. A year with nothing affordable and
		// an unpaid shortfall scores a failure penalty instead.
		if unpaid.IsPositive() {
			pay := decimal.Min(unpaid, decimal.Max(decimal.Zero, person.Cash()))
			if pay.IsPositive() {
				person.FromCash(pay)
				unpaid = unpaid.Sub(pay)
			}
		}
		affordable := decimal.Min(desired, decimal.Max(decimal.Zero, person.Cash().Sub(buffer)))
		var utilityValue decimal.Decimal
		if !affordable.IsPositive() && unpaid.IsPositive() {
			penalty := decimal.NewFromFloat(-math.Pow(unpaid.InexactFloat64(), cfg.Utility.FailureExponent))
			person.PenalizeUtility(penalty)
			utilityValue = penalty
			affordable = penalty
			e.Log.Warnf("year %d: utility failure penalty %s for unpaid %s", year, penalty, unpaid)
		} else {
			person.BuyUtility(affordable)
			utilityValue = person.LastUtility()
		}
		tr.Record(year, "utility", "affordable", affordable, "")
		tr.Record(year, "utility", "value", utilityValue, "")

		// Phase 9: optional gains harvesting against the unused allowance.
		if cfg.HarvestGains {
			remaining := decimal.Max(decimal.Zero, rules.CGTAllowance.Sub(realizedGains))
			gainPerUnit := gia.CurrentPrice().Sub(gia.AverageCost())
			if remaining.IsPositive() && gainPerUnit.IsPositive() && gia.Units().IsPositive() {
				unitsToSell := decimal.Min(remaining.Div(gainPerUnit), gia.Units())
				res := gia.Withdraw(unitsToSell.Mul(gia.CurrentPrice()))
				person.ToCash(res.Received)
				takenFromGIA = takenFromGIA.Add(res.Received)
				realizedGains = realizedGains.Add(res.RealizedGain)
				tr.Record(year, "harvest", "realized_gain", res.RealizedGain, "allowance harvesting")
			}
		}

		// Phase 10: reinvest cash above the buffer, ISA first up to its
		// annual allowance, remainder into the GIA.
		investedISA := decimal.Zero
		investedGIA := decimal.Zero
		if investable := person.Cash().Sub(buffer); investable.IsPositive() {
			investedISA = decimal.Min(investable, rules.ISAAnnualAllowance)
			person.FromCash(investedISA)
			isa.Deposit(investedISA)
			if rest := investable.Sub(investedISA); rest.IsPositive() {
				person.FromCash(rest)
				gia.Deposit(rest)
				investedGIA = rest
			}
		}
		tr.Record(year, "reinvest", "invested_in_isa", investedISA, "")
		tr.Record(year, "reinvest", "invested_in_gia", investedGIA, "")

		// Phase 11: record the year.
		totalAssets := person.Cash().Add(savings.Balance()).Add(secondSavings.Balance()).
			Add(isa.Balance()).Add(gia.Balance()).Add(pension.Balance())
		if err := requireNonNegative(year, "recording", "total assets", totalAssets); err != nil {
			return nil, err
		}
		tr.Record(year, "recording", "total_assets", totalAssets, "")

		records = append(records, domain.YearRecord{
			Year:                 year,
			Cash:                 person.Cash(),
			Savings:              savings.Balance(),
			SecondSavings:        secondSavings.Balance(),
			ISABalance:           isa.Balance(),
			GIABalance:           gia.Balance(),
			PensionBalance:       pension.Balance(),
			TotalAssets:          totalAssets,
			TaxableSalary:        taxableSalary,
			GrossInterest:        grossInterest,
			TaxableInterest:      taxableInterest,
			Dividends:            dividends,
			TakenFromPension:     takenFromPension,
			TaxFreePensionIncome: taxFreePension,
			TaxablePensionIncome: taxablePension,
			TotalTaxableIncome:   totalTaxableIncome,
			NetIncome:            netIncome,
			PensionAllowance:     pensionAllowance,
			ExcessPensionPay:     excessPensionPay,
			RealizedGains:        realizedGains,
			CapitalGainsTax:      capitalGainsTax,
			IncomeTax:            incomeTax,
			NationalIns:          nationalIns,
			TotalTax:             incomeTax.Add(nationalIns).Add(capitalGainsTax),
			LivingCosts:          livingCost,
			UnpaidLivingCosts:    unpaid,
			UtilityDesired:       desired,
			UtilityAffordable:    affordable,
			UtilityValue:         utilityValue,
			InvestedInISA:        investedISA,
			InvestedInGIA:        investedGIA,
			TakenFromISA:         takenFromISA,
			TakenFromGIA:         takenFromGIA,
		})
	}

	metric := ComputeMetric(person.UtilityHistory(), cfg.Utility.DiscountRate, cfg.Utility.VolatilityPenalty)
	e.Log.Infof("run complete: %d years, metric %.2f", len(records), metric)

	return &domain.Result{
		Records: records,
		Metric:  metric,
		Trace:   tr.Events(),
	}, nil
}

func growWrapper(w *WrapperAccount, override *decimal.Decimal) {
	if override != nil {
		w.GrowAt(*override)
		return
	}
	w.Grow()
}

func requireNonNegative(year int, phase, name string, value decimal.Decimal) error {
	if value.LessThan(residualEpsilon.Neg()) {
		return fmt.Errorf("year %d, phase %s: %s is %s, invariant violated", year, phase, name, value)
	}
	return nil
}
