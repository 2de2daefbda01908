package calculation

import (
	"github.com/shopspring/decimal"
)

// residualEpsilon is the threshold below which leftover balances and unit
// counts are snapped to exactly zero, so floating drift cannot accumulate
// across decades of iteration.
var residualEpsilon = decimal.New(1, -9) // 1e-9

var one = decimal.NewFromInt(1)

// WithdrawalResult is the uniform outcome of any withdrawal. RealizedGain is
// always populated; it is zero for accounts that do not track a cost basis.
type WithdrawalResult struct {
	Received     decimal.Decimal
	RealizedGain decimal.Decimal
}

// Account is the shared capability contract across the four account variants.
// Variant-specific behavior (unit accounting, interest paid as a side output)
// lives on the concrete types and is matched explicitly by the engine.
type Account interface {
	Balance() decimal.Decimal
	Deposit(amount decimal.Decimal)
	Withdraw(amount decimal.Decimal) WithdrawalResult
	Grow()
}

// SavingsAccount is an interest-bearing account. Interest is paid as a side
// output via PayInterest rather than compounded into the balance; Grow is a
// no-op. Withdrawals that exceed the balance clamp to whatever is available.
type SavingsAccount struct {
	name         string
	balance      decimal.Decimal
	interestRate decimal.Decimal
	log          Logger
}

func NewSavingsAccount(name string, balance, interestRate decimal.Decimal, log Logger) *SavingsAccount {
	if log == nil {
		log = NopLogger{}
	}
	return &SavingsAccount{name: name, balance: balance, interestRate: interestRate, log: log}
}

func (s *SavingsAccount) Balance() decimal.Decimal { return s.balance }

func (s *SavingsAccount) Deposit(amount decimal.Decimal) {
	if !amount.IsPositive() {
		s.log.Warnf("%s: ignoring non-positive deposit %s", s.name, amount)
		return
	}
	s.balance = s.balance.Add(amount)
}

// Withdraw clamps to the available balance: asking for more than the account
// holds empties the account and returns what was there.
func (s *SavingsAccount) Withdraw(amount decimal.Decimal) WithdrawalResult {
	if !amount.IsPositive() {
		s.log.Warnf("%s: ignoring non-positive withdrawal %s", s.name, amount)
		return WithdrawalResult{Received: decimal.Zero, RealizedGain: decimal.Zero}
	}
	if amount.GreaterThan(s.balance) {
		s.log.Warnf("%s: requested %s exceeds balance %s, returning available", s.name, amount, s.balance)
		available := s.balance
		s.balance = decimal.Zero
		return WithdrawalResult{Received: available, RealizedGain: decimal.Zero}
	}
	s.balance = s.balance.Sub(amount)
	s.snap()
	return WithdrawalResult{Received: amount, RealizedGain: decimal.Zero}
}

// Grow does not change the balance; interest is the caller's to route.
func (s *SavingsAccount) Grow() {}

// PayInterest returns one year of gross interest without mutating the
// balance. The caller decides where the proceeds go.
func (s *SavingsAccount) PayInterest() decimal.Decimal {
	return s.balance.Mul(s.interestRate)
}

func (s *SavingsAccount) snap() {
	if s.balance.Abs().LessThan(residualEpsilon) {
		s.balance = decimal.Zero
	}
}

// WrapperAccount is a tax-advantaged wrapper (ISA, pension pot) whose whole
// balance compounds proportionally each year. Withdrawals that exceed the
// balance are rejected outright: the balance is left untouched and zero is
// returned.
type WrapperAccount struct {
	name       string
	balance    decimal.Decimal
	growthRate decimal.Decimal
	log        Logger
}

func NewWrapperAccount(name string, balance, growthRate decimal.Decimal, log Logger) *WrapperAccount {
	if log == nil {
		log = NopLogger{}
	}
	return &WrapperAccount{name: name, balance: balance, growthRate: growthRate, log: log}
}

func (w *WrapperAccount) Balance() decimal.Decimal { return w.balance }

func (w *WrapperAccount) Deposit(amount decimal.Decimal) {
	if !amount.IsPositive() {
		w.log.Warnf("%s: ignoring non-positive deposit %s", w.name, amount)
		return
	}
	w.balance = w.balance.Add(amount)
}

func (w *WrapperAccount) Withdraw(amount decimal.Decimal) WithdrawalResult {
	if !amount.IsPositive() {
		w.log.Warnf("%s: ignoring non-positive withdrawal %s", w.name, amount)
		return WithdrawalResult{Received: decimal.Zero, RealizedGain: decimal.Zero}
	}
	if amount.GreaterThan(w.balance) {
		w.log.Warnf("%s: requested %s exceeds balance %s, rejecting", w.name, amount, w.balance)
		return WithdrawalResult{Received: decimal.Zero, RealizedGain: decimal.Zero}
	}
	w.balance = w.balance.Sub(amount)
	if w.balance.Abs().LessThan(residualEpsilon) {
		w.balance = decimal.Zero
	}
	return WithdrawalResult{Received: amount, RealizedGain: decimal.Zero}
}

func (w *WrapperAccount) Grow() { w.GrowAt(w.growthRate) }

// GrowAt applies one year of growth at the given rate, overriding the
// configured rate for stochastic or stress scenarios.
func (w *WrapperAccount) GrowAt(rate decimal.Decimal) {
	w.balance = w.balance.Mul(one.Add(rate))
}

// Scale multiplies the balance by factor. Used for one-off market shocks.
func (w *WrapperAccount) Scale(factor decimal.Decimal) {
	w.balance = w.balance.Mul(factor)
}

// UnitizedAccount is a general investment account tracked in purchased units
// at a variable price, so the cost basis of what is sold is known and capital
// gains can be computed. The average buy price is a units-weighted running
// mean updated only on deposit.
type UnitizedAccount struct {
	name       string
	balance    decimal.Decimal
	units      decimal.Decimal
	avgCost    decimal.Decimal
	price      decimal.Decimal
	growthRate decimal.Decimal
	log        Logger
}

// NewUnitizedAccount derives the initial price and cost basis from the
// opening state. An empty account starts with a unit price of 1 so that
// future buys have a well-defined price. avgCost may be nil, in which case it
// is derived as balance/units.
func NewUnitizedAccount(name string, balance, units decimal.Decimal, avgCost *decimal.Decimal, growthRate decimal.Decimal, log Logger) *UnitizedAccount {
	if log == nil {
		log = NopLogger{}
	}
	a := &UnitizedAccount{name: name, balance: balance, units: units, growthRate: growthRate, log: log}
	switch {
	case units.IsPositive():
		a.price = balance.Div(units)
		if avgCost != nil && avgCost.IsPositive() {
			a.avgCost = *avgCost
		} else {
			a.avgCost = a.price
		}
	default:
		a.avgCost = decimal.Zero
		if balance.IsZero() {
			a.price = one
		} else {
			// Value without units is inconsistent; config validation
			// rejects it before a run, but keep the account sane.
			log.Warnf("%s: inconsistent initial state value=%s units=%s", name, balance, units)
			a.price = decimal.Zero
		}
	}
	return a
}

func (a *UnitizedAccount) Balance() decimal.Decimal      { return a.balance }
func (a *UnitizedAccount) Units() decimal.Decimal        { return a.units }
func (a *UnitizedAccount) AverageCost() decimal.Decimal  { return a.avgCost }
func (a *UnitizedAccount) CurrentPrice() decimal.Decimal { return a.price }

func (a *UnitizedAccount) Deposit(amount decimal.Decimal) {
	if !amount.IsPositive() || !a.price.IsPositive() {
		a.log.Warnf("%s: ignoring deposit amount=%s price=%s", a.name, amount, a.price)
		return
	}
	newUnits := amount.Div(a.price)
	total := a.units.Add(newUnits)
	// Units-weighted mean of the old and new cost bases.
	a.avgCost = a.units.Mul(a.avgCost).Add(newUnits.Mul(a.price)).Div(total)
	a.units = total
	a.balance = a.balance.Add(amount)
}

// Withdraw sells units at the current price. Requests exceeding the balance
// (or an account in a non-sellable state) are rejected with a zero result.
// The realized gain is proceeds minus the average-cost basis of the units
// sold, floored at zero.
func (a *UnitizedAccount) Withdraw(amount decimal.Decimal) WithdrawalResult {
	if !amount.IsPositive() {
		a.log.Warnf("%s: ignoring non-positive withdrawal %s", a.name, amount)
		return WithdrawalResult{Received: decimal.Zero, RealizedGain: decimal.Zero}
	}
	if amount.GreaterThan(a.balance) || !a.price.IsPositive() || !a.units.IsPositive() {
		a.log.Warnf("%s: cannot withdraw %s (balance=%s units=%s price=%s), rejecting",
			a.name, amount, a.balance, a.units, a.price)
		return WithdrawalResult{Received: decimal.Zero, RealizedGain: decimal.Zero}
	}

	unitsOut := amount.Div(a.price)
	if unitsOut.GreaterThan(a.units) {
		// Absorb floating drift rather than selling units we don't hold.
		unitsOut = a.units
	}
	received := unitsOut.Mul(a.price)
	gain := received.Sub(unitsOut.Mul(a.avgCost))
	if gain.IsNegative() {
		gain = decimal.Zero
	}

	a.balance = a.balance.Sub(received)
	a.units = a.units.Sub(unitsOut)
	if a.units.LessThan(residualEpsilon) {
		a.units = decimal.Zero
		a.balance = decimal.Zero
		a.avgCost = decimal.Zero
	} else if a.balance.LessThan(residualEpsilon) {
		a.balance = decimal.Zero
	}
	return WithdrawalResult{Received: received, RealizedGain: gain}
}

func (a *UnitizedAccount) Grow() { a.GrowAt(a.growthRate) }

// GrowAt advances the unit price by one year at the given rate and
// recomputes the balance. The price moves even when no units are held; the
// balance of an empty account stays exactly zero.
func (a *UnitizedAccount) GrowAt(rate decimal.Decimal) {
	a.price = a.price.Mul(one.Add(rate))
	if a.units.IsPositive() {
		a.balance = a.units.Mul(a.price)
	} else {
		a.balance = decimal.Zero
	}
}

// ScalePrice multiplies the unit price by factor and recomputes the balance.
// Used for one-off market shocks.
func (a *UnitizedAccount) ScalePrice(factor decimal.Decimal) {
	a.price = a.price.Mul(factor)
	if a.units.IsPositive() {
		a.balance = a.units.Mul(a.price)
	} else {
		a.balance = decimal.Zero
	}
}
