package portfolio

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

func mustMoney(t *testing.T, amount string) finance.Money {
	t.Helper()
	m, err := finance.NewMoney(amount, finance.USD)
	if err != nil {
		t.Fatalf("NewMoney(%q): %v", amount, err)
	}
	return m
}

func mustQuantity(t *testing.T, quantity string) decimal.Decimal {
	t.Helper()
	q, err := finance.ParseQuantity(quantity)
	if err != nil {
		t.Fatalf("ParseQuantity(%q): %v", quantity, err)
	}
	return q
}

func testAsset(t *testing.T, symbol string, class AssetClass, quantity, price string) Asset {
	t.Helper()
	return Asset{
		ID:       uuid.New(),
		Symbol:   symbol,
		Class:    class,
		Quantity: mustQuantity(t, quantity),
		Price:    mustMoney(t, price),
	}
}

func threeAssetPortfolio(t *testing.T) Portfolio {
	t.Helper()
	return Portfolio{
		ID: uuid.New(),
		Assets: []Asset{
			testAsset(t, "VTI", Equity, "10.5", "220.00"),
			testAsset(t, "BND", Bond, "40.12345678", "72.50"),
			testAsset(t, "GLD", Commodity, "5", "180.25"),
		},
	}
}

func TestValue_SumsMarketValues(t *testing.T) {
	p := Portfolio{
		ID: uuid.New(),
		Assets: []Asset{
			testAsset(t, "VTI", Equity, "2", "100.00"),
			testAsset(t, "BND", Bond, "3.5", "50.00"),
		},
	}

	total, err := Value(p, finance.USD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := total.String(); got != "375.0000" {
		t.Errorf("expected \"375.0000\", got %q", got)
	}
}

func TestValue_EmptyPortfolio(t *testing.T) {
	total, err := Value(Portfolio{ID: uuid.New()}, finance.USD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.IsZero() {
		t.Errorf("expected zero, got %s", total)
	}
}

func TestValue_CurrencyMismatch(t *testing.T) {
	eur, err := finance.NewMoney("100.00", finance.EUR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := Portfolio{
		ID: uuid.New(),
		Assets: []Asset{
			testAsset(t, "VTI", Equity, "2", "100.00"),
			{ID: uuid.New(), Symbol: "EZU", Class: Equity, Quantity: decimal.NewFromInt(1), Price: eur},
		},
	}

	if _, err := Value(p, finance.USD); !finance.IsKind(err, finance.KindCurrencyMismatch) {
		t.Errorf("expected CurrencyMismatch, got %v", err)
	}
}

func TestAllocate_WeightsSumToHundred(t *testing.T) {
	breakdown, err := Allocate(threeAssetPortfolio(t), finance.USD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	epsilon := decimal.NewFromFloat(0.0001)
	hundred := decimal.NewFromInt(100)

	assetSum := decimal.Zero
	for _, aw := range breakdown.ByAsset {
		assetSum = assetSum.Add(aw.Weight)
	}
	if assetSum.Sub(hundred).Abs().Cmp(epsilon) > 0 {
		t.Errorf("asset weights sum to %s, want 100 within 0.0001", assetSum)
	}

	classSum := decimal.Zero
	for _, cw := range breakdown.ByClass {
		classSum = classSum.Add(cw.Weight)
	}
	if classSum.Sub(hundred).Abs().Cmp(epsilon) > 0 {
		t.Errorf("class weights sum to %s, want 100 within 0.0001", classSum)
	}
}

func TestAllocate_ZeroValuePortfolio(t *testing.T) {
	p := Portfolio{
		ID: uuid.New(),
		Assets: []Asset{
			testAsset(t, "VTI", Equity, "0", "220.00"),
		},
	}

	if _, err := Allocate(p, finance.USD); !finance.IsKind(err, finance.KindInsufficientData) {
		t.Errorf("expected InsufficientDataError, got %v", err)
	}
}

func TestAllocate_GroupsByClass(t *testing.T) {
	p := Portfolio{
		ID: uuid.New(),
		Assets: []Asset{
			testAsset(t, "VTI", Equity, "1", "100.00"),
			testAsset(t, "VXUS", Equity, "2", "50.00"),
			testAsset(t, "BND", Bond, "4", "50.00"),
		},
	}

	breakdown, err := Allocate(p, finance.USD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(breakdown.ByClass) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(breakdown.ByClass))
	}
	for _, cw := range breakdown.ByClass {
		if !cw.Weight.Equal(decimal.NewFromInt(50)) {
			t.Errorf("class %s: expected weight 50, got %s", cw.Class, cw.Weight)
		}
	}
}
