package debt

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

var planStart = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func mustMoney(t *testing.T, amount string) finance.Money {
	t.Helper()
	m, err := finance.NewMoney(amount, finance.USD)
	if err != nil {
		t.Fatalf("NewMoney(%q): %v", amount, err)
	}
	return m
}

func mustRate(t *testing.T, annualPercent string) finance.Rate {
	t.Helper()
	p, err := finance.NewPercentFromString(annualPercent)
	if err != nil {
		t.Fatalf("NewPercentFromString(%q): %v", annualPercent, err)
	}
	return finance.NewRate(p, finance.Annual)
}

func testAccount(t *testing.T, name, balance, annualPercent, minimum string) Account {
	t.Helper()
	return Account{
		ID:             uuid.New(),
		Name:           name,
		Type:           CreditCard,
		Balance:        mustMoney(t, balance),
		InterestRate:   mustRate(t, annualPercent),
		MinimumPayment: mustMoney(t, minimum),
	}
}

func TestOptimizeAvalanche_HighestRateFirst(t *testing.T) {
	// The 22% card must absorb the extra payment before the larger
	// 18.5% card, even though its balance is smaller.
	accounts := []Account{
		testAccount(t, "big card", "8000.00", "18.5", "200.00"),
		testAccount(t, "small card", "2000.00", "22.0", "60.00"),
	}

	plan, err := OptimizeAvalanche(accounts, mustMoney(t, "300.00"), planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var firstExtra string
	for _, item := range plan.Schedule {
		if item.Month != 1 {
			break
		}
		minimum := accountMinimum(accounts, item.DebtName)
		if c, _ := item.Payment.Cmp(minimum); c > 0 {
			firstExtra = item.DebtName
			break
		}
	}
	if firstExtra != "small card" {
		t.Errorf("expected the 22%% debt to take the extra payment first, got %q", firstExtra)
	}
}

func TestCompare_AvalancheNeverCostsMore(t *testing.T) {
	accounts := []Account{
		testAccount(t, "card", "5000.00", "24.99", "150.00"),
		testAccount(t, "auto", "12000.00", "6.9", "280.00"),
		testAccount(t, "student", "20000.00", "4.5", "220.00"),
	}

	cmp, err := Compare(accounts, mustMoney(t, "400.00"), planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c, _ := cmp.Avalanche.TotalInterest.Cmp(cmp.Snowball.TotalInterest); c > 0 {
		t.Errorf("avalanche interest %s exceeds snowball %s",
			cmp.Avalanche.TotalInterest, cmp.Snowball.TotalInterest)
	}
	if cmp.InterestDelta.IsNegative() {
		t.Errorf("interest delta should never be negative, got %s", cmp.InterestDelta)
	}
	if cmp.InterestSavingsVsMinimum.IsNegative() {
		t.Errorf("savings vs minimum should never be negative, got %s", cmp.InterestSavingsVsMinimum)
	}
	if cmp.TimeSavedVsMinimumMonths < 0 {
		t.Errorf("time saved should never be negative, got %d", cmp.TimeSavedVsMinimumMonths)
	}
}

func TestOptimize_EmptyDebts(t *testing.T) {
	plan, err := OptimizeSnowball(nil, mustMoney(t, "500.00"), planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Months != 0 || len(plan.Schedule) != 0 {
		t.Errorf("expected an empty plan, got %d months and %d items", plan.Months, len(plan.Schedule))
	}
	if !plan.TotalInterest.IsZero() || !plan.TotalPaid.IsZero() {
		t.Errorf("expected zero totals, got interest %s paid %s", plan.TotalInterest, plan.TotalPaid)
	}
	if !plan.PayoffDate.Equal(planStart) {
		t.Errorf("expected payoff date %s, got %s", planStart, plan.PayoffDate)
	}
}

func TestOptimize_UnpayableDebt(t *testing.T) {
	// 29.99% annual on 10000.00 accrues ~249.92 the first month; a 100.00
	// minimum never touches principal.
	accounts := []Account{
		testAccount(t, "runaway card", "10000.00", "29.99", "100.00"),
	}

	_, err := OptimizeSnowball(accounts, mustMoney(t, "0.00"), planStart)
	if !finance.IsKind(err, finance.KindUnpayableDebt) {
		t.Fatalf("expected UnpayableDebtError, got %v", err)
	}
}

func TestOptimize_MixedCurrencies(t *testing.T) {
	eur, err := finance.NewMoney("1000.00", finance.EUR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	accounts := []Account{
		testAccount(t, "usd card", "1000.00", "10.0", "100.00"),
	}
	accounts[0].Balance = eur

	if _, err := OptimizeAvalanche(accounts, mustMoney(t, "50.00"), planStart); !finance.IsKind(err, finance.KindCurrencyMismatch) {
		t.Errorf("expected CurrencyMismatch, got %v", err)
	}
}

func TestOptimizeCustom_Degeneracy(t *testing.T) {
	accounts := []Account{
		testAccount(t, "big high-rate", "9000.00", "21.0", "250.00"),
		testAccount(t, "small low-rate", "1500.00", "8.0", "50.00"),
		testAccount(t, "mid", "4000.00", "15.0", "120.00"),
	}
	extra := mustMoney(t, "350.00")

	snowball, err := OptimizeSnowball(accounts, extra, planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	avalanche, err := OptimizeAvalanche(accounts, extra, planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	atOne, err := OptimizeCustom(accounts, extra, decimal.NewFromInt(1), planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !atOne.TotalInterest.Equal(snowball.TotalInterest) || atOne.Months != snowball.Months {
		t.Errorf("weight 1 should reproduce snowball: got %s over %d months, want %s over %d",
			atOne.TotalInterest, atOne.Months, snowball.TotalInterest, snowball.Months)
	}

	atZero, err := OptimizeCustom(accounts, extra, decimal.Zero, planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !atZero.TotalInterest.Equal(avalanche.TotalInterest) || atZero.Months != avalanche.Months {
		t.Errorf("weight 0 should reproduce avalanche: got %s over %d months, want %s over %d",
			atZero.TotalInterest, atZero.Months, avalanche.TotalInterest, avalanche.Months)
	}
}

func TestOptimizeCustom_WeightRange(t *testing.T) {
	accounts := []Account{testAccount(t, "card", "1000.00", "10.0", "100.00")}

	if _, err := OptimizeCustom(accounts, mustMoney(t, "0.00"), decimal.NewFromFloat(1.5), planStart); !finance.IsKind(err, finance.KindValidation) {
		t.Errorf("expected ValidationError above 1, got %v", err)
	}
	if _, err := OptimizeCustom(accounts, mustMoney(t, "0.00"), decimal.NewFromFloat(-0.1), planStart); !finance.IsKind(err, finance.KindValidation) {
		t.Errorf("expected ValidationError below 0, got %v", err)
	}
}

func TestOptimize_Deterministic(t *testing.T) {
	accounts := []Account{
		testAccount(t, "a", "3500.00", "19.99", "90.00"),
		testAccount(t, "b", "3500.00", "19.99", "90.00"),
		testAccount(t, "c", "700.00", "12.5", "35.00"),
	}
	extra := mustMoney(t, "150.00")

	first, err := OptimizeAvalanche(accounts, extra, planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := OptimizeAvalanche(accounts, extra, planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs should produce identical plans")
	}
}

func TestOptimize_BalancesReachZeroExactly(t *testing.T) {
	accounts := []Account{
		testAccount(t, "loan", "1200.00", "12.0", "110.00"),
	}

	plan, err := OptimizeSnowball(accounts, mustMoney(t, "0.00"), planStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := plan.Schedule[len(plan.Schedule)-1]
	if !last.RemainingBalance.IsZero() {
		t.Errorf("final balance should be exactly zero, got %s", last.RemainingBalance)
	}
	if c, _ := last.Payment.Cmp(mustMoney(t, "110.00")); c > 0 {
		t.Errorf("final payment %s should not exceed the minimum", last.Payment)
	}

	want := planStart.AddDate(0, plan.Months, 0)
	if !plan.PayoffDate.Equal(want) {
		t.Errorf("payoff date: expected %s, got %s", want, plan.PayoffDate)
	}
}

func accountMinimum(accounts []Account, name string) finance.Money {
	for _, a := range accounts {
		if a.Name == name {
			return a.MinimumPayment
		}
	}
	return finance.Money{}
}
