package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/finlife/lifesim/internal/domain"
)

// CSVFormatter writes the full ledger, one row per simulated year with every
// YearRecord column.
type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter { return &CSVFormatter{} }

var csvHeader = []string{
	"year",
	"cash", "savings", "second_savings", "isa_balance", "gia_balance", "pension_balance", "total_assets",
	"taxable_salary", "gross_interest", "taxable_interest", "dividends",
	"taken_from_pension", "tax_free_pension_income", "taxable_pension_income",
	"total_taxable_income", "net_income",
	"pension_allowance", "excess_pension_pay", "realized_gains", "capital_gains_tax",
	"income_tax", "national_insurance", "total_tax",
	"living_costs", "unpaid_living_costs",
	"utility_desired", "utility_affordable", "utility_value",
	"invested_in_isa", "invested_in_gia", "taken_from_isa", "taken_from_gia",
}

func (f *CSVFormatter) Write(w io.Writer, result *domain.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range result.Records {
		row := []string{
			strconv.Itoa(r.Year),
			r.Cash.StringFixed(2), r.Savings.StringFixed(2), r.SecondSavings.StringFixed(2),
			r.ISABalance.StringFixed(2), r.GIABalance.StringFixed(2), r.PensionBalance.StringFixed(2),
			r.TotalAssets.StringFixed(2),
			r.TaxableSalary.StringFixed(2), r.GrossInterest.StringFixed(2),
			r.TaxableInterest.StringFixed(2), r.Dividends.StringFixed(2),
			r.TakenFromPension.StringFixed(2), r.TaxFreePensionIncome.StringFixed(2),
			r.TaxablePensionIncome.StringFixed(2),
			r.TotalTaxableIncome.StringFixed(2), r.NetIncome.StringFixed(2),
			r.PensionAllowance.StringFixed(2), r.ExcessPensionPay.StringFixed(2),
			r.RealizedGains.StringFixed(2), r.CapitalGainsTax.StringFixed(2),
			r.IncomeTax.StringFixed(2), r.NationalIns.StringFixed(2), r.TotalTax.StringFixed(2),
			r.LivingCosts.StringFixed(2), r.UnpaidLivingCosts.StringFixed(2),
			r.UtilityDesired.StringFixed(2), r.UtilityAffordable.StringFixed(2),
			r.UtilityValue.StringFixed(2),
			r.InvestedInISA.StringFixed(2), r.InvestedInGIA.StringFixed(2),
			r.TakenFromISA.StringFixed(2), r.TakenFromGIA.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for year %d: %w", r.Year, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
