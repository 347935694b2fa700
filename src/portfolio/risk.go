package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

// MinObservations is the smallest return series the risk statistics accept.
const MinObservations = 30

// RiskInput carries a portfolio's periodic return history plus the scaling
// context the loss figures need. Returns are fractional per-period values
// (0.01 is +1%). PeriodsPerYear is 12 for monthly series, 252 for daily.
type RiskInput struct {
	Returns        []decimal.Decimal
	Benchmark      []decimal.Decimal
	TotalValue     finance.Money
	RiskFreeRate   finance.Rate
	PeriodsPerYear int
}

// RiskMetrics is the historical-simulation risk profile of a return
// series. Loss figures (VaR, CVaR) are money amounts against the current
// portfolio value; ratios are dimensionless.
type RiskMetrics struct {
	VaR95  finance.Money
	VaR99  finance.Money
	CVaR95 finance.Money

	Volatility           float64
	AnnualizedVolatility float64
	AnnualizedReturn     float64
	SharpeRatio          float64
	SortinoRatio         float64
	CalmarRatio          float64
	MaxDrawdown          float64

	// Benchmark-relative metrics, set only when a benchmark series was
	// supplied. TrackingError is the per-period stddev of the excess
	// returns; InformationRatio is mean excess over tracking error.
	Beta             float64
	TrackingError    float64
	InformationRatio float64
	HasBeta          bool
}

// AnalyzeRisk computes the full metric set over a historical return
// series. Value-at-risk is the empirical loss quantile of the series, not
// a parametric estimate.
func AnalyzeRisk(in RiskInput) (RiskMetrics, error) {
	if len(in.Returns) < MinObservations {
		return RiskMetrics{}, finance.NewInsufficientDataError(fmt.Sprintf(
			"risk analysis needs at least %d return observations, got %d", MinObservations, len(in.Returns)))
	}
	if in.PeriodsPerYear <= 0 {
		return RiskMetrics{}, finance.NewValidationError("periodsPerYear", "must be a positive integer")
	}

	returns := make([]float64, len(in.Returns))
	for i, r := range in.Returns {
		returns[i] = r.InexactFloat64()
	}

	currency := in.TotalValue.Currency()
	value := in.TotalValue.Amount().InexactFloat64()
	if value < 0 {
		return RiskMetrics{}, finance.NewValidationError("totalValue", "must not be negative")
	}

	var95, err := lossMoney(valueAtRisk(returns, 0.95)*value, currency)
	if err != nil {
		return RiskMetrics{}, err
	}
	var99, err := lossMoney(valueAtRisk(returns, 0.99)*value, currency)
	if err != nil {
		return RiskMetrics{}, err
	}
	cvar95, err := lossMoney(conditionalValueAtRisk(returns, 0.95)*value, currency)
	if err != nil {
		return RiskMetrics{}, err
	}

	periods := float64(in.PeriodsPerYear)
	meanReturn := mean(returns)
	vol := stddev(returns, meanReturn)
	annualReturn := meanReturn * periods
	annualVol := vol * math.Sqrt(periods)
	riskFree := in.RiskFreeRate.ConvertToPeriod(finance.Annual).PeriodicDecimal().InexactFloat64()

	sharpe := 0.0
	if annualVol > 0 {
		sharpe = (annualReturn - riskFree) / annualVol
	}

	drawdown := maxDrawdown(returns)
	calmar := 0.0
	if drawdown > 0 {
		calmar = annualReturn / drawdown
	}

	downside := downsideDeviation(returns) * math.Sqrt(periods)
	sortino := 0.0
	if downside > 0 {
		sortino = (annualReturn - riskFree) / downside
	}

	m := RiskMetrics{
		VaR95:                var95,
		VaR99:                var99,
		CVaR95:               cvar95,
		Volatility:           vol,
		AnnualizedVolatility: annualVol,
		AnnualizedReturn:     annualReturn,
		SharpeRatio:          sharpe,
		SortinoRatio:         sortino,
		CalmarRatio:          calmar,
		MaxDrawdown:          drawdown,
	}

	if in.Benchmark != nil {
		if len(in.Benchmark) != len(in.Returns) {
			return RiskMetrics{}, finance.NewValidationError("benchmark", "benchmark series must match the return series length")
		}
		benchmark := make([]float64, len(in.Benchmark))
		for i, r := range in.Benchmark {
			benchmark[i] = r.InexactFloat64()
		}
		beta, err := betaAgainst(returns, benchmark)
		if err != nil {
			return RiskMetrics{}, err
		}
		m.Beta = beta
		m.TrackingError, m.InformationRatio = trackingAgainst(returns, benchmark)
		m.HasBeta = true
	}

	return m, nil
}

// valueAtRisk returns the empirical loss at the given confidence as a
// positive fraction of portfolio value, zero when the quantile is a gain.
func valueAtRisk(returns []float64, confidence float64) float64 {
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	loss := -sorted[idx]
	if loss < 0 {
		return 0
	}
	return loss
}

// conditionalValueAtRisk is the mean loss in the tail beyond the VaR
// quantile (expected shortfall).
func conditionalValueAtRisk(returns []float64, confidence float64) float64 {
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	cutoff := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if cutoff < 1 {
		cutoff = 1
	}
	sum := 0.0
	for _, r := range sorted[:cutoff] {
		sum += r
	}
	loss := -(sum / float64(cutoff))
	if loss < 0 {
		return 0
	}
	return loss
}

// maxDrawdown compounds the series and tracks the worst peak-to-trough
// decline as a positive fraction.
func maxDrawdown(returns []float64) float64 {
	value := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returns {
		value *= 1 + r
		if value > peak {
			peak = value
		}
		if peak > 0 {
			if dd := (peak - value) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// betaAgainst is covariance(portfolio, benchmark) / variance(benchmark).
func betaAgainst(returns, benchmark []float64) (float64, error) {
	meanP := mean(returns)
	meanB := mean(benchmark)

	cov := 0.0
	varB := 0.0
	for i := range returns {
		dp := returns[i] - meanP
		db := benchmark[i] - meanB
		cov += dp * db
		varB += db * db
	}
	n := float64(len(returns) - 1)
	cov /= n
	varB /= n

	if varB == 0 {
		return 0, finance.NewInsufficientDataError("benchmark series has zero variance, beta is undefined")
	}
	return cov / varB, nil
}

// trackingAgainst measures how closely the portfolio follows the
// benchmark: the stddev of the excess-return series and the mean excess
// return per unit of it. A zero tracking error (perfect replication up to
// a constant) yields a zero information ratio.
func trackingAgainst(returns, benchmark []float64) (trackingError, informationRatio float64) {
	excess := make([]float64, len(returns))
	for i := range returns {
		excess[i] = returns[i] - benchmark[i]
	}
	meanExcess := mean(excess)
	trackingError = stddev(excess, meanExcess)
	if trackingError > 0 {
		informationRatio = meanExcess / trackingError
	}
	return trackingError, informationRatio
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation.
func stddev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// downsideDeviation penalizes only negative periods (zero target).
func downsideDeviation(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		if x < 0 {
			sum += x * x
		}
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func lossMoney(amount float64, currency finance.Currency) (finance.Money, error) {
	return finance.NewMoneyFromDecimal(decimal.NewFromFloat(amount).Round(finance.MoneyScale), currency)
}
