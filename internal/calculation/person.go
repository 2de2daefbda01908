package calculation

import (
	"math"

	"github.com/shopspring/decimal"
)

// Person holds the individual's cash, their required-spend schedule and the
// accumulated utility history. Cash is the one balance allowed to go
// transiently negative (overdraft); every other account enforces
// non-negativity itself.
type Person struct {
	cash            decimal.Decimal
	livingCosts     map[int]decimal.Decimal
	utilityExponent float64
	utility         []decimal.Decimal
	log             Logger
}

func NewPerson(startingCash decimal.Decimal, livingCosts map[int]decimal.Decimal, utilityExponent float64, log Logger) *Person {
	if log == nil {
		log = NopLogger{}
	}
	return &Person{
		cash:            startingCash,
		livingCosts:     livingCosts,
		utilityExponent: utilityExponent,
		log:             log,
	}
}

func (p *Person) Cash() decimal.Decimal { return p.cash }

// LivingCost returns the required spend for a year, zero outside the
// schedule.
func (p *Person) LivingCost(year int) decimal.Decimal {
	if c, ok := p.livingCosts[year]; ok {
		return c
	}
	return decimal.Zero
}

// BuyUtility converts discretionary spending into satisfaction through the
// concave power curve and deducts the spend from cash. Non-positive amounts
// record a zero utility entry and leave cash alone. Cash may go negative
// here without penalty; the overdraft deterrent lives in FromCash only.
func (p *Person) BuyUtility(amount decimal.Decimal) {
	if !amount.IsPositive() {
		p.utility = append(p.utility, decimal.Zero)
		return
	}
	value := decimal.NewFromFloat(math.Pow(amount.InexactFloat64(), p.utilityExponent))
	p.utility = append(p.utility, value)
	p.cash = p.cash.Sub(amount)
}

// PenalizeUtility appends a (typically negative) utility entry directly,
// bypassing the spending curve. Used for unpaid-living-cost penalties.
func (p *Person) PenalizeUtility(value decimal.Decimal) {
	p.utility = append(p.utility, value)
}

// ToCash adds money to cash.
func (p *Person) ToCash(amount decimal.Decimal) {
	p.cash = p.cash.Add(amount)
}

// FromCash withdraws from cash. The withdrawal always succeeds for the full
// requested amount; if it pushes cash negative, a quadratic penalty of the
// shortfall is subtracted from the most recent utility entry (or recorded as
// an initial negative entry). This coupling is the deterrent against
// bankruptcy-by-overspending.
func (p *Person) FromCash(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	if amount.GreaterThan(p.cash) {
		shortfall := amount.Sub(p.cash)
		penalty := shortfall.Mul(shortfall)
		p.log.Warnf("overdraft: cash %s, requested %s, utility penalty %s", p.cash, amount, penalty)
		if n := len(p.utility); n > 0 {
			p.utility[n-1] = p.utility[n-1].Sub(penalty)
		} else {
			p.utility = append(p.utility, penalty.Neg())
		}
	}
	p.cash = p.cash.Sub(amount)
	return amount
}

// UtilityHistory returns the ordered per-year utility values recorded so far.
func (p *Person) UtilityHistory() []decimal.Decimal { return p.utility }

// LastUtility returns the most recently recorded utility entry.
func (p *Person) LastUtility() decimal.Decimal {
	if n := len(p.utility); n > 0 {
		return p.utility[n-1]
	}
	return decimal.Zero
}

// Employment is an immutable salary schedule plus the two pension
// contribution percentages. Years outside the schedule yield zero.
type Employment struct {
	salary      map[int]decimal.Decimal
	employeePct decimal.Decimal
	employerPct decimal.Decimal
}

func NewEmployment(salary map[int]decimal.Decimal, employeePct, employerPct decimal.Decimal) *Employment {
	return &Employment{salary: salary, employeePct: employeePct, employerPct: employerPct}
}

func (e *Employment) GrossSalary(year int) decimal.Decimal {
	if s, ok := e.salary[year]; ok {
		return s
	}
	return decimal.Zero
}

// TaxableSalary is the gross salary net of the employee pension
// contribution, i.e. the part subject to income tax.
func (e *Employment) TaxableSalary(year int) decimal.Decimal {
	gross := e.GrossSalary(year)
	return gross.Sub(gross.Mul(e.employeePct))
}

func (e *Employment) EmployeeContribution(year int) decimal.Decimal {
	return e.GrossSalary(year).Mul(e.employeePct)
}

func (e *Employment) EmployerContribution(year int) decimal.Decimal {
	return e.GrossSalary(year).Mul(e.employerPct)
}
