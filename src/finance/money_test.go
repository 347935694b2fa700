package finance

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustMoney(t *testing.T, amount string, currency Currency) Money {
	t.Helper()
	m, err := NewMoney(amount, currency)
	if err != nil {
		t.Fatalf("NewMoney(%q, %s): %v", amount, currency, err)
	}
	return m
}

func TestNewMoney_ExactSum(t *testing.T) {
	// The defining regression for the decimal core: 0.1 + 0.2 must render
	// "0.3000", not a floating-point artifact.
	a := mustMoney(t, "0.1", USD)
	b := mustMoney(t, "0.2", USD)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sum.String(); got != "0.3000" {
		t.Errorf("expected \"0.3000\", got %q", got)
	}
}

func TestNewMoney_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		wantKind ErrorKind
	}{
		{"max representable", "999999999999999.9999", ""},
		{"min representable", "-999999999999999.9999", ""},
		{"magnitude overflow", "1000000000000000.0000", KindPrecisionOverflow},
		{"too many fractional digits", "123.12345", KindValidation},
		{"trailing zeros within scale", "1.50000", ""},
		{"malformed", "12.3.4", KindValidation},
		{"empty", "", KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMoney(tt.amount, USD)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !IsKind(err, tt.wantKind) {
				t.Errorf("expected kind %s, got %v", tt.wantKind, err)
			}
		})
	}
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd := mustMoney(t, "100.00", USD)
	eur := mustMoney(t, "50.00", EUR)

	if _, err := usd.Add(eur); !IsKind(err, KindCurrencyMismatch) {
		t.Errorf("Add: expected CurrencyMismatch, got %v", err)
	}
	if _, err := usd.Sub(eur); !IsKind(err, KindCurrencyMismatch) {
		t.Errorf("Sub: expected CurrencyMismatch, got %v", err)
	}
	if _, err := usd.Cmp(eur); !IsKind(err, KindCurrencyMismatch) {
		t.Errorf("Cmp: expected CurrencyMismatch, got %v", err)
	}
}

func TestMoney_DivisionByZero(t *testing.T) {
	m := mustMoney(t, "100.00", USD)
	if _, err := m.Div(decimal.Zero); !IsKind(err, KindDivisionByZero) {
		t.Errorf("expected DivisionByZero, got %v", err)
	}
}

func TestMoney_ArithmeticOverflow(t *testing.T) {
	m := mustMoney(t, "999999999999999.9999", USD)
	if _, err := m.Add(mustMoney(t, "1.0000", USD)); !IsKind(err, KindPrecisionOverflow) {
		t.Errorf("Add: expected PrecisionOverflow, got %v", err)
	}
	if _, err := m.Mul(decimal.NewFromInt(2)); !IsKind(err, KindPrecisionOverflow) {
		t.Errorf("Mul: expected PrecisionOverflow, got %v", err)
	}
}

func TestMoney_RoundTrip(t *testing.T) {
	for _, amount := range []string{"151.0000", "0.0001", "-42.5", "999999999999999.9999", "0"} {
		m := mustMoney(t, amount, GBP)
		back, err := NewMoney(m.String(), GBP)
		if err != nil {
			t.Fatalf("round trip of %q: %v", amount, err)
		}
		if !m.Equal(back) {
			t.Errorf("round trip of %q: got %s", amount, back)
		}
	}
}

func TestMoney_StringAlwaysFourDigits(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"100.50", "50.50", "151.0000"},
		{"0.0001", "0.0002", "0.0003"},
		{"1", "2", "3.0000"},
	}
	for _, tt := range tests {
		a := mustMoney(t, tt.a, USD)
		b := mustMoney(t, tt.b, USD)
		sum, err := a.Add(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := sum.String(); got != tt.want {
			t.Errorf("%s + %s: expected %q, got %q", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestMoney_RoundingModes(t *testing.T) {
	// 2.00005 sits exactly on the half; the two modes must disagree.
	base := mustMoney(t, "4.0001", USD)
	halved, err := base.Div(decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := halved.StringRounded(RoundHalfUp); got != "2.0001" {
		t.Errorf("half up: expected \"2.0001\", got %q", got)
	}
	if got := halved.StringRounded(RoundHalfEven); got != "2.0000" {
		t.Errorf("half even: expected \"2.0000\", got %q", got)
	}
}

func TestMoney_Percent(t *testing.T) {
	m := mustMoney(t, "200.00", USD)
	p, err := FromPercent(decimal.NewFromFloat(18.99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cut, err := m.Percent(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cut.String(); got != "37.9800" {
		t.Errorf("expected \"37.9800\", got %q", got)
	}
}

func TestMoney_Display(t *testing.T) {
	tests := []struct {
		amount   string
		currency Currency
		want     string
	}{
		{"1234.5650", USD, "$1,234.57"},
		{"1234.5000", JPY, "¥1,235"},
		{"-99.9900", EUR, "-€99.99"},
		{"1000000.0000", GBP, "£1,000,000.00"},
	}
	for _, tt := range tests {
		m := mustMoney(t, tt.amount, tt.currency)
		if got := m.Display(); got != tt.want {
			t.Errorf("Display(%s %s): expected %q, got %q", tt.currency, tt.amount, tt.want, got)
		}
	}
}

func TestParseCurrency(t *testing.T) {
	if _, err := ParseCurrency("USD"); err != nil {
		t.Errorf("USD should parse: %v", err)
	}
	if _, err := ParseCurrency("XXX"); !IsKind(err, KindValidation) {
		t.Errorf("expected ValidationError for XXX, got %v", err)
	}
}

func TestParseQuantity(t *testing.T) {
	if _, err := ParseQuantity("10.12345678"); err != nil {
		t.Errorf("8 fractional digits should parse: %v", err)
	}
	if _, err := ParseQuantity("10.123456789"); !IsKind(err, KindValidation) {
		t.Errorf("expected ValidationError for 9 fractional digits, got %v", err)
	}
	q, err := ParseQuantity("2.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := QuantityString(q); got != "2.50000000" {
		t.Errorf("expected \"2.50000000\", got %q", got)
	}
}
