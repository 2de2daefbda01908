package domain

import "github.com/shopspring/decimal"

// YearRecord is the immutable per-year row of the simulation ledger. Every
// quantity computed during the year ends up here.
type YearRecord struct {
	Year int `json:"year"`

	// End-of-year balances
	Cash           decimal.Decimal `json:"cash"`
	Savings        decimal.Decimal `json:"savings"`
	SecondSavings  decimal.Decimal `json:"second_savings"`
	ISABalance     decimal.Decimal `json:"isa_balance"`
	GIABalance     decimal.Decimal `json:"gia_balance"`
	PensionBalance decimal.Decimal `json:"pension_balance"`
	TotalAssets    decimal.Decimal `json:"total_assets"`

	// Income components
	TaxableSalary        decimal.Decimal `json:"taxable_salary"`
	GrossInterest        decimal.Decimal `json:"gross_interest"`
	TaxableInterest      decimal.Decimal `json:"taxable_interest"`
	Dividends            decimal.Decimal `json:"dividends"`
	TakenFromPension     decimal.Decimal `json:"taken_from_pension"`
	TaxFreePensionIncome decimal.Decimal `json:"tax_free_pension_income"`
	TaxablePensionIncome decimal.Decimal `json:"taxable_pension_income"`
	TotalTaxableIncome   decimal.Decimal `json:"total_taxable_income"`
	NetIncome            decimal.Decimal `json:"net_income"`

	// Taxes
	PensionAllowance decimal.Decimal `json:"pension_allowance"`
	ExcessPensionPay decimal.Decimal `json:"excess_pension_pay"`
	RealizedGains    decimal.Decimal `json:"realized_gains"`
	CapitalGainsTax  decimal.Decimal `json:"capital_gains_tax"`
	IncomeTax        decimal.Decimal `json:"income_tax"`
	NationalIns      decimal.Decimal `json:"national_insurance"`
	TotalTax         decimal.Decimal `json:"total_tax"`

	// Spending and utility
	LivingCosts       decimal.Decimal `json:"living_costs"`
	UnpaidLivingCosts decimal.Decimal `json:"unpaid_living_costs"`
	UtilityDesired    decimal.Decimal `json:"utility_desired"`
	UtilityAffordable decimal.Decimal `json:"utility_affordable"`
	UtilityValue      decimal.Decimal `json:"utility_value"`

	// Flows
	InvestedInISA decimal.Decimal `json:"invested_in_isa"`
	InvestedInGIA decimal.Decimal `json:"invested_in_gia"`
	TakenFromISA  decimal.Decimal `json:"taken_from_isa"`
	TakenFromGIA  decimal.Decimal `json:"taken_from_gia"`
}

// TraceEvent is one entry of the optional diagnostic trace: a named value
// observed at a given phase of a given year.
type TraceEvent struct {
	Year     int    `json:"year"`
	Phase    string `json:"phase"`
	Variable string `json:"variable"`
	Value    string `json:"value"`
	Context  string `json:"context,omitempty"`
}

// Result is the engine output for one run.
type Result struct {
	Records []YearRecord `json:"records"`
	Metric  float64      `json:"metric"`
	Trace   []TraceEvent `json:"trace,omitempty"`
}

// FinalAssets returns the total asset figure of the last simulated year.
func (r *Result) FinalAssets() decimal.Decimal {
	if len(r.Records) == 0 {
		return decimal.Zero
	}
	return r.Records[len(r.Records)-1].TotalAssets
}
