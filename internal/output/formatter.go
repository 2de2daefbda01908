package output

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/finlife/lifesim/internal/domain"
)

// FormatGBP renders a decimal amount as a pounds-and-pence string.
func FormatGBP(d decimal.Decimal) string {
	minor := d.Round(2).Shift(2).IntPart()
	return money.New(minor, money.GBP).Display()
}

// ConsoleFormatter renders a run as an aligned year-by-year table of the
// headline columns, followed by the metric.
type ConsoleFormatter struct{}

func NewConsoleFormatter() *ConsoleFormatter { return &ConsoleFormatter{} }

func (f *ConsoleFormatter) Format(result *domain.Result) string {
	var b strings.Builder

	header := []string{"Year", "Cash", "Savings", "ISA", "GIA", "Pension", "Total", "Income Tax", "Living", "Utility"}
	widths := []int{4, 14, 14, 14, 14, 14, 16, 14, 14, 14}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%*s", widths[i], cell)
		}
		b.WriteString("\n")
	}

	writeRow(header)
	for _, r := range result.Records {
		writeRow([]string{
			fmt.Sprintf("%d", r.Year),
			FormatGBP(r.Cash),
			FormatGBP(r.Savings.Add(r.SecondSavings)),
			FormatGBP(r.ISABalance),
			FormatGBP(r.GIABalance),
			FormatGBP(r.PensionBalance),
			FormatGBP(r.TotalAssets),
			FormatGBP(r.IncomeTax),
			FormatGBP(r.LivingCosts),
			r.UtilityValue.StringFixed(0),
		})
	}

	fmt.Fprintf(&b, "\nLife satisfaction metric: %.2f\n", result.Metric)
	if n := len(result.Records); n > 0 {
		fmt.Fprintf(&b, "Final assets: %s\n", FormatGBP(result.FinalAssets()))
	}
	return b.String()
}
