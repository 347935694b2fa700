package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	hundred     = decimal.NewFromInt(100)
	monthsPerYr = decimal.NewFromInt(12)
	daysPerYr   = decimal.NewFromInt(365)
	minPercent  = decimal.NewFromInt(-100)
	maxPercent  = decimal.NewFromInt(10000)
	decimalOne  = decimal.NewFromInt(1)
)

// Percentage is a percentage-point value: 18.99 means 18.99%, not 0.1899.
type Percentage struct {
	value decimal.Decimal
}

// NewPercentFromString parses a wire percentage value such as "18.99".
func NewPercentFromString(value string) (Percentage, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Percentage{}, NewValidationError("percentage", fmt.Sprintf("malformed decimal string %q", value))
	}
	return FromPercent(d)
}

// FromPercent builds a Percentage from percentage points (5.5 -> 5.5%).
func FromPercent(value decimal.Decimal) (Percentage, error) {
	if value.Cmp(minPercent) < 0 || value.Cmp(maxPercent) > 0 {
		return Percentage{}, NewValidationError("percentage", fmt.Sprintf("%s%% is outside the allowed range [-100, 10000]", value))
	}
	return Percentage{value: value}, nil
}

// FromDecimal builds a Percentage from a fraction (0.055 -> 5.5%).
func FromDecimal(value decimal.Decimal) (Percentage, error) {
	return FromPercent(value.Mul(hundred))
}

// AsDecimal returns the fractional representation (5.5% -> 0.055).
func (p Percentage) AsDecimal() decimal.Decimal {
	return p.value.Div(hundred)
}

// AsPercent returns the percentage-point representation (5.5% -> 5.5).
func (p Percentage) AsPercent() decimal.Decimal {
	return p.value
}

func (p Percentage) IsZero() bool     { return p.value.IsZero() }
func (p Percentage) IsNegative() bool { return p.value.IsNegative() }

func (p Percentage) String() string {
	return p.value.String() + "%"
}

// Period is the time base a rate is quoted against.
type Period string

const (
	Annual  Period = "ANNUAL"
	Monthly Period = "MONTHLY"
	Daily   Period = "DAILY"
)

// ParsePeriod maps a wire period onto the Period enum.
func ParsePeriod(period string) (Period, error) {
	switch Period(period) {
	case Annual, Monthly, Daily:
		return Period(period), nil
	default:
		return "", NewValidationError("period", fmt.Sprintf("unsupported period %q", period))
	}
}

// Rate is a percentage bound to a time base. Compounding math is only
// correct when the period is explicit, so Rate never decays to a bare
// Percentage.
type Rate struct {
	percentage Percentage
	period     Period
}

func NewRate(percentage Percentage, period Period) Rate {
	return Rate{percentage: percentage, period: period}
}

func (r Rate) Percentage() Percentage { return r.percentage }
func (r Rate) Period() Period         { return r.period }

// PeriodicDecimal returns the fractional rate for the rate's own period.
func (r Rate) PeriodicDecimal() decimal.Decimal {
	return r.percentage.AsDecimal()
}

// ConvertToPeriod rescales the rate proportionally between time bases
// (12 months, 365 days per year). Proportional, not effective-rate,
// conversion: a 12% annual rate becomes 1% monthly.
func (r Rate) ConvertToPeriod(target Period) Rate {
	annual := r.percentage.AsDecimal()
	switch r.period {
	case Monthly:
		annual = annual.Mul(monthsPerYr)
	case Daily:
		annual = annual.Mul(daysPerYr)
	}

	converted := annual
	switch target {
	case Monthly:
		converted = annual.Div(monthsPerYr)
	case Daily:
		converted = annual.Div(daysPerYr)
	}

	return Rate{percentage: Percentage{value: converted.Mul(hundred)}, period: target}
}

// MonthlyDecimal is shorthand for the fractional monthly rate, the form
// every payoff simulation consumes.
func (r Rate) MonthlyDecimal() decimal.Decimal {
	return r.ConvertToPeriod(Monthly).PeriodicDecimal()
}

func (r Rate) String() string {
	return fmt.Sprintf("%s %s", r.percentage, r.period)
}

// CompoundInterest computes the future value of principal compounded
// compoundsPerYear times per year for the given number of years. The
// result is exact-decimal, rounded half up at the 4-digit boundary.
func CompoundInterest(principal Money, rate Rate, years int, compoundsPerYear int) (Money, error) {
	if years <= 0 {
		return Money{}, NewValidationError("years", "must be a positive integer")
	}
	if compoundsPerYear <= 0 {
		return Money{}, NewValidationError("compoundsPerYear", "must be a positive integer")
	}
	if rate.Percentage().IsNegative() {
		return Money{}, NewValidationError("rate", "interest rate must not be negative")
	}

	annual := rate.ConvertToPeriod(Annual).PeriodicDecimal()
	periodic := annual.Div(decimal.NewFromInt(int64(compoundsPerYear)))
	factor := decimalOne.Add(periodic).Pow(decimal.NewFromInt(int64(compoundsPerYear * years)))

	fv, err := principal.Mul(factor)
	if err != nil {
		return Money{}, err
	}
	return fv.Round(RoundHalfUp), nil
}
