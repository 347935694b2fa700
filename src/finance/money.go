package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Storage contract shared with the persistence collaborator: monetary
// columns are DECIMAL(19,4), share quantities DECIMAL(19,8). Amounts at or
// above 10^15 in magnitude are not representable.
const (
	MoneyScale    int32 = 4
	QuantityScale int32 = 8
)

// maxMagnitude is 10^15, the first unrepresentable magnitude.
var maxMagnitude = decimal.New(1, 15)

// RoundingMode selects how boundary rounding to 4 decimal places is done.
type RoundingMode int

const (
	// RoundHalfUp rounds .5 away from zero. This is the default mode for
	// every value crossing the wire.
	RoundHalfUp RoundingMode = iota
	// RoundHalfEven is banker's rounding, selectable per call.
	RoundHalfEven
)

// Money is an exact-decimal monetary amount tagged with a currency.
// Values are immutable; every operation returns a new instance. IEEE-754
// floats never enter or leave this type.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney parses a decimal string at a system boundary. It rejects
// malformed strings and amounts with more than 4 fractional digits
// (ValidationError), and magnitudes at or above 10^15
// (PrecisionOverflowError).
func NewMoney(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, NewValidationError("amount", fmt.Sprintf("malformed decimal string %q", amount))
	}
	if !d.Equal(d.Truncate(MoneyScale)) {
		return Money{}, NewValidationError("amount", fmt.Sprintf("%q has more than %d fractional digits", amount, MoneyScale))
	}
	if d.Abs().Cmp(maxMagnitude) >= 0 {
		return Money{}, NewPrecisionOverflowError("amount", fmt.Sprintf("%q exceeds DECIMAL(19,4) magnitude", amount))
	}
	return Money{amount: d, currency: currency}, nil
}

// NewMoneyFromDecimal builds a Money from an already-exact decimal. Only
// the magnitude bound is enforced; intermediate results may carry more
// than 4 fractional digits until they reach a boundary.
func NewMoneyFromDecimal(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.Abs().Cmp(maxMagnitude) >= 0 {
		return Money{}, NewPrecisionOverflowError("amount", "result exceeds DECIMAL(19,4) magnitude")
	}
	return Money{amount: amount, currency: currency}, nil
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount exposes the raw decimal for engine-internal math.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency tag.
func (m Money) Currency() Currency { return m.currency }

// Add fails with CurrencyMismatch when the operands' currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, NewCurrencyMismatchError(m.currency, other.currency)
	}
	return NewMoneyFromDecimal(m.amount.Add(other.amount), m.currency)
}

// Sub fails with CurrencyMismatch when the operands' currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, NewCurrencyMismatchError(m.currency, other.currency)
	}
	return NewMoneyFromDecimal(m.amount.Sub(other.amount), m.currency)
}

// Mul scales the amount by a dimensionless decimal factor.
func (m Money) Mul(factor decimal.Decimal) (Money, error) {
	return NewMoneyFromDecimal(m.amount.Mul(factor), m.currency)
}

// Div divides the amount by a dimensionless decimal divisor.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, NewDivisionByZeroError()
	}
	return NewMoneyFromDecimal(m.amount.Div(divisor), m.currency)
}

// Percent returns the given percentage of the amount, e.g.
// USD 200.00 at 18.99% -> USD 37.98 before rounding.
func (m Money) Percent(p Percentage) (Money, error) {
	return m.Mul(p.AsDecimal())
}

// Round returns the amount rounded to the boundary precision of 4
// fractional digits under the given mode.
func (m Money) Round(mode RoundingMode) Money {
	switch mode {
	case RoundHalfEven:
		return Money{amount: m.amount.RoundBank(MoneyScale), currency: m.currency}
	default:
		return Money{amount: m.amount.Round(MoneyScale), currency: m.currency}
	}
}

// String renders the amount with exactly 4 fractional digits, rounding
// half up. This is the wire representation; NewMoney(m.String(), ...) is
// a lossless round trip for boundary values.
func (m Money) String() string {
	return m.amount.Round(MoneyScale).StringFixed(MoneyScale)
}

// StringRounded renders at 4 fractional digits under an explicit mode.
func (m Money) StringRounded(mode RoundingMode) string {
	return m.Round(mode).amount.StringFixed(MoneyScale)
}

// Display renders a localized presentation string, e.g. "$1,234.57" or
// "¥1,235". Never used for further math.
func (m Money) Display() string {
	units := m.currency.minorUnits()
	rounded := m.amount.Round(units)
	s := rounded.StringFixed(units)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			intPart, fracPart = s[:i], s[i:]
			break
		}
	}
	grouped := groupThousands(intPart)
	out := m.currency.Symbol() + grouped + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var out []byte
	lead := n % 3
	if lead > 0 {
		out = append(out, digits[:lead]...)
	}
	for i := lead; i < n; i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i:i+3]...)
	}
	return string(out)
}

// Equal reports exact equality of amount and currency.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Cmp compares amounts, failing on currency mismatch.
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, NewCurrencyMismatchError(m.currency, other.currency)
	}
	return m.amount.Cmp(other.amount), nil
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// Neg returns the negated value.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// ParseQuantity parses a share quantity string: up to 8 fractional digits
// per the DECIMAL(19,8) storage contract.
func ParseQuantity(quantity string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(quantity)
	if err != nil {
		return decimal.Zero, NewValidationError("quantity", fmt.Sprintf("malformed decimal string %q", quantity))
	}
	if !d.Equal(d.Truncate(QuantityScale)) {
		return decimal.Zero, NewValidationError("quantity", fmt.Sprintf("%q has more than %d fractional digits", quantity, QuantityScale))
	}
	if d.Abs().Cmp(maxMagnitude) >= 0 {
		return decimal.Zero, NewPrecisionOverflowError("quantity", fmt.Sprintf("%q exceeds DECIMAL(19,8) magnitude", quantity))
	}
	return d, nil
}

// QuantityString renders a share quantity with exactly 8 fractional digits.
func QuantityString(quantity decimal.Decimal) string {
	return quantity.Round(QuantityScale).StringFixed(QuantityScale)
}
