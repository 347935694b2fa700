package finance

import "fmt"

// Currency is the closed set of currencies the engine operates on.
// Adding a currency is a compile-time change: every switch over Currency
// in this package must be extended, which is the point.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
	JPY Currency = "JPY"
	CHF Currency = "CHF"
	CNY Currency = "CNY"
)

// Currencies lists every supported currency in a stable order.
func Currencies() []Currency {
	return []Currency{USD, EUR, GBP, CAD, AUD, JPY, CHF, CNY}
}

// ParseCurrency maps a wire code onto the Currency enum.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(code) {
	case USD, EUR, GBP, CAD, AUD, JPY, CHF, CNY:
		return Currency(code), nil
	default:
		return "", NewValidationError("currency", fmt.Sprintf("unsupported currency code %q", code))
	}
}

// Symbol returns the display symbol used by Display. Presentational only.
func (c Currency) Symbol() string {
	switch c {
	case USD, CAD, AUD:
		return "$"
	case EUR:
		return "€"
	case GBP:
		return "£"
	case JPY:
		return "¥"
	case CHF:
		return "CHF "
	case CNY:
		return "CN¥"
	default:
		return string(c) + " "
	}
}

// minorUnits is the number of fractional digits conventionally displayed
// for the currency. Internal arithmetic always carries 4.
func (c Currency) minorUnits() int32 {
	switch c {
	case JPY:
		return 0
	default:
		return 2
	}
}

func (c Currency) String() string {
	return string(c)
}
