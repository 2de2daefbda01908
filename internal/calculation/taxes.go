package calculation

import (
	"github.com/finlife/lifesim/internal/domain"
	"github.com/shopspring/decimal"
)

// TaxBand is the effective marginal band of a taxpayer, used to select the
// personal savings allowance tier.
type TaxBand int

const (
	BandBasic TaxBand = iota
	BandHigher
	BandAdditional
)

func (b TaxBand) String() string {
	switch b {
	case BandBasic:
		return "basic"
	case BandHigher:
		return "higher"
	default:
		return "additional"
	}
}

// TaxCalculator maps income and gain figures to amounts owed under a fixed
// rule table. Every method is a pure function of its inputs and the table;
// inputs are assumed validated and non-negative, results are clamped at zero
// at each step so a negative amount due is impossible by construction.
type TaxCalculator struct {
	rules domain.TaxRules
}

func NewTaxCalculator(rules domain.TaxRules) *TaxCalculator {
	return &TaxCalculator{rules: rules}
}

// Rules returns the rule table the calculator operates on.
func (tc *TaxCalculator) Rules() domain.TaxRules { return tc.rules }

// PersonalAllowance returns the tax-free allowance after high-income
// tapering: £1 of allowance is lost for every £2 of income above the limit,
// floored at zero.
func (tc *TaxCalculator) PersonalAllowance(grossIncome decimal.Decimal) decimal.Decimal {
	allowance := tc.rules.PersonalAllowance
	if grossIncome.GreaterThan(tc.rules.PersonalAllowanceLimit) {
		reduction := grossIncome.Sub(tc.rules.PersonalAllowanceLimit).Div(decimal.NewFromInt(2))
		allowance = decimal.Max(decimal.Zero, allowance.Sub(reduction))
	}
	return allowance
}

// IncomeTax splits taxable income (gross minus the tapered personal
// allowance) across the basic, higher and additional bands and sums the
// per-band tax.
func (tc *TaxCalculator) IncomeTax(grossIncome decimal.Decimal) decimal.Decimal {
	taxable := decimal.Max(decimal.Zero, grossIncome.Sub(tc.PersonalAllowance(grossIncome)))

	atBasic := decimal.Max(decimal.Zero, decimal.Min(taxable, tc.rules.BasicBandWidth))
	remaining := taxable.Sub(atBasic)

	higherWidth := tc.rules.AdditionalRateFloor.Sub(tc.rules.BasicBandWidth)
	atHigher := decimal.Max(decimal.Zero, decimal.Min(higherWidth, remaining))
	remaining = remaining.Sub(atHigher)

	atAdditional := decimal.Max(decimal.Zero, remaining)

	return atBasic.Mul(tc.rules.BasicRate).
		Add(atHigher.Mul(tc.rules.HigherRate)).
		Add(atAdditional.Mul(tc.rules.AdditionalRate))
}

// NationalInsurance applies the two-band payroll structure: nothing below
// the lower threshold, the main rate up to the upper threshold, and the
// reduced rate above it.
func (tc *TaxCalculator) NationalInsurance(annualPay decimal.Decimal) decimal.Decimal {
	if annualPay.LessThanOrEqual(tc.rules.NILowerThreshold) {
		return decimal.Zero
	}
	if annualPay.LessThanOrEqual(tc.rules.NIUpperThreshold) {
		return annualPay.Sub(tc.rules.NILowerThreshold).Mul(tc.rules.NIMainRate)
	}
	mainBand := tc.rules.NIUpperThreshold.Sub(tc.rules.NILowerThreshold).Mul(tc.rules.NIMainRate)
	upperBand := annualPay.Sub(tc.rules.NIUpperThreshold).Mul(tc.rules.NIUpperRate)
	return mainBand.Add(upperBand)
}

// Band returns the effective marginal band for the given income figure.
func (tc *TaxCalculator) Band(income decimal.Decimal) TaxBand {
	switch {
	case income.LessThanOrEqual(tc.rules.BasicBandWidth):
		return BandBasic
	case income.GreaterThanOrEqual(tc.rules.AdditionalRateFloor):
		return BandAdditional
	default:
		return BandHigher
	}
}

// SavingsAllowance returns the tax-free interest allowance for the band the
// gross income figure falls in.
func (tc *TaxCalculator) SavingsAllowance(grossIncome decimal.Decimal) decimal.Decimal {
	switch tc.Band(grossIncome) {
	case BandBasic:
		return tc.rules.SavingsAllowanceBasic
	case BandHigher:
		return tc.rules.SavingsAllowanceHigher
	default:
		return tc.rules.SavingsAllowanceAdditional
	}
}

// TaxableInterest is the gross interest left after the savings allowance.
func (tc *TaxCalculator) TaxableInterest(grossIncome, grossInterest decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, grossInterest.Sub(tc.SavingsAllowance(grossIncome)))
}

// PensionAnnualAllowance computes the tax-relieved contribution allowance.
// Threshold income is post-pension income plus the employee contribution;
// adjusted income additionally includes the employer contribution. Below the
// threshold-income cutoff the standard allowance applies; above it the
// allowance tapers at £1 for every £2 of adjusted income over the taper
// threshold, down to the fixed minimum.
func (tc *TaxCalculator) PensionAnnualAllowance(postPensionIncome, employeeContribution, employerContribution decimal.Decimal) decimal.Decimal {
	thresholdIncome := postPensionIncome.Add(employeeContribution)
	adjustedIncome := thresholdIncome.Add(employerContribution)

	if thresholdIncome.LessThan(tc.rules.PensionThresholdIncomeLimit) {
		return tc.rules.PensionStandardAllowance
	}
	tapered := tc.rules.PensionStandardAllowance.Sub(
		adjustedIncome.Sub(tc.rules.PensionTaperThreshold).Div(decimal.NewFromInt(2)))
	tapered = decimal.Max(tc.rules.PensionMinimumAllowance, tapered)
	return decimal.Min(tapered, tc.rules.PensionStandardAllowance)
}

// CapitalGainsTax taxes the gain above the flat allowance at the lower rate
// for as much of it as fits in the unused width of the basic income-tax band,
// and at the higher rate beyond that. Other income therefore pushes gains
// into the higher rate; the basic-band ceiling is the tapered personal
// allowance plus the basic band width, recomputed from the taxpayer's total
// taxable income.
func (tc *TaxCalculator) CapitalGainsTax(realizedGain, totalTaxableIncome decimal.Decimal) decimal.Decimal {
	taxableGain := decimal.Max(decimal.Zero, realizedGain.Sub(tc.rules.CGTAllowance))
	if taxableGain.IsZero() {
		return decimal.Zero
	}
	basicCeiling := tc.PersonalAllowance(totalTaxableIncome).Add(tc.rules.BasicBandWidth)
	headroom := decimal.Max(decimal.Zero, basicCeiling.Sub(totalTaxableIncome))

	atLower := decimal.Min(taxableGain, headroom)
	atHigher := taxableGain.Sub(atLower)
	return atLower.Mul(tc.rules.CGTBasicRate).Add(atHigher.Mul(tc.rules.CGTHigherRate))
}
