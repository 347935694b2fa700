package portfolio

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

func riskFreeRate(t *testing.T, annualPercent string) finance.Rate {
	t.Helper()
	p, err := finance.NewPercentFromString(annualPercent)
	if err != nil {
		t.Fatalf("NewPercentFromString(%q): %v", annualPercent, err)
	}
	return finance.NewRate(p, finance.Annual)
}

// alternating +2% / -1% months, 36 observations.
func sampleReturns() []decimal.Decimal {
	returns := make([]decimal.Decimal, 36)
	up := decimal.NewFromFloat(0.02)
	down := decimal.NewFromFloat(-0.01)
	for i := range returns {
		if i%2 == 0 {
			returns[i] = up
		} else {
			returns[i] = down
		}
	}
	return returns
}

func TestAnalyzeRisk_TooFewObservations(t *testing.T) {
	in := RiskInput{
		Returns:        sampleReturns()[:29],
		TotalValue:     mustMoney(t, "100000.00"),
		RiskFreeRate:   riskFreeRate(t, "2.0"),
		PeriodsPerYear: 12,
	}

	if _, err := AnalyzeRisk(in); !finance.IsKind(err, finance.KindInsufficientData) {
		t.Errorf("expected InsufficientDataError, got %v", err)
	}
}

func TestAnalyzeRisk_HistoricalVaR(t *testing.T) {
	in := RiskInput{
		Returns:        sampleReturns(),
		TotalValue:     mustMoney(t, "100000.00"),
		RiskFreeRate:   riskFreeRate(t, "2.0"),
		PeriodsPerYear: 12,
	}

	m, err := AnalyzeRisk(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The worst observation is -1%, so every loss quantile is 1% of value.
	want := mustMoney(t, "1000.00")
	if !m.VaR95.Equal(want) {
		t.Errorf("VaR95: expected %s, got %s", want, m.VaR95)
	}
	if !m.VaR99.Equal(want) {
		t.Errorf("VaR99: expected %s, got %s", want, m.VaR99)
	}
	if !m.CVaR95.Equal(want) {
		t.Errorf("CVaR95: expected %s, got %s", want, m.CVaR95)
	}

	if m.Volatility <= 0 {
		t.Errorf("volatility should be positive, got %f", m.Volatility)
	}
	if m.SharpeRatio <= 0 {
		t.Errorf("a +6%%/year series above a 2%% risk-free rate should have positive Sharpe, got %f", m.SharpeRatio)
	}
	if m.MaxDrawdown <= 0 || m.MaxDrawdown >= 0.02 {
		t.Errorf("max drawdown should be a single -1%% month, got %f", m.MaxDrawdown)
	}
	if m.HasBeta {
		t.Error("beta should be unset without a benchmark")
	}
}

func TestAnalyzeRisk_BetaAgainstSelf(t *testing.T) {
	returns := sampleReturns()
	in := RiskInput{
		Returns:        returns,
		Benchmark:      returns,
		TotalValue:     mustMoney(t, "50000.00"),
		RiskFreeRate:   riskFreeRate(t, "2.0"),
		PeriodsPerYear: 12,
	}

	m, err := AnalyzeRisk(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.HasBeta {
		t.Fatal("expected beta to be computed")
	}
	if math.Abs(m.Beta-1) > 1e-9 {
		t.Errorf("beta against itself should be 1, got %f", m.Beta)
	}
}

func TestAnalyzeRisk_TrackingAgainstSelf(t *testing.T) {
	returns := sampleReturns()
	in := RiskInput{
		Returns:        returns,
		Benchmark:      returns,
		TotalValue:     mustMoney(t, "50000.00"),
		RiskFreeRate:   riskFreeRate(t, "2.0"),
		PeriodsPerYear: 12,
	}

	m, err := AnalyzeRisk(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TrackingError != 0 {
		t.Errorf("tracking error against an identical benchmark should be 0, got %f", m.TrackingError)
	}
	if m.InformationRatio != 0 {
		t.Errorf("information ratio is 0 when tracking error is 0, got %f", m.InformationRatio)
	}
}

func TestAnalyzeRisk_TrackingAgainstHalfBenchmark(t *testing.T) {
	returns := sampleReturns()
	half := decimal.NewFromFloat(0.5)
	benchmark := make([]decimal.Decimal, len(returns))
	for i, r := range returns {
		benchmark[i] = r.Mul(half)
	}

	in := RiskInput{
		Returns:        returns,
		Benchmark:      benchmark,
		TotalValue:     mustMoney(t, "50000.00"),
		RiskFreeRate:   riskFreeRate(t, "2.0"),
		PeriodsPerYear: 12,
	}

	m, err := AnalyzeRisk(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The excess series is exactly half the return series, so its stddev is
	// half the portfolio volatility and the ratio collapses to mean/stddev.
	if math.Abs(m.TrackingError-0.5*m.Volatility) > 1e-12 {
		t.Errorf("tracking error: expected %f, got %f", 0.5*m.Volatility, m.TrackingError)
	}
	meanReturn := 0.005 // (18*0.02 + 18*-0.01) / 36
	wantIR := meanReturn / m.Volatility
	if math.Abs(m.InformationRatio-wantIR) > 1e-9 {
		t.Errorf("information ratio: expected %f, got %f", wantIR, m.InformationRatio)
	}
}

func TestAnalyzeRisk_BetaLengthMismatch(t *testing.T) {
	in := RiskInput{
		Returns:        sampleReturns(),
		Benchmark:      sampleReturns()[:30],
		TotalValue:     mustMoney(t, "50000.00"),
		RiskFreeRate:   riskFreeRate(t, "2.0"),
		PeriodsPerYear: 12,
	}

	if _, err := AnalyzeRisk(in); !finance.IsKind(err, finance.KindValidation) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestAnalyzeRisk_FlatBenchmark(t *testing.T) {
	flat := make([]decimal.Decimal, 36)
	in := RiskInput{
		Returns:        sampleReturns(),
		Benchmark:      flat,
		TotalValue:     mustMoney(t, "50000.00"),
		RiskFreeRate:   riskFreeRate(t, "2.0"),
		PeriodsPerYear: 12,
	}

	if _, err := AnalyzeRisk(in); !finance.IsKind(err, finance.KindInsufficientData) {
		t.Errorf("expected InsufficientDataError for zero-variance benchmark, got %v", err)
	}
}

func TestMaxDrawdown_PeakToTrough(t *testing.T) {
	// +10%, then two -10% months, then recovery: trough is 0.81x of the
	// 1.10 peak, a 19% drawdown within float tolerance.
	returns := []float64{0.10, -0.10, -0.10, 0.30}
	got := maxDrawdown(returns)
	if math.Abs(got-0.19) > 1e-9 {
		t.Errorf("expected drawdown 0.19, got %f", got)
	}
}
