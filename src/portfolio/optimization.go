package portfolio

import (
	"fmt"
	"math"

	"github.com/atlasfin/engine/src/finance"
)

// RiskTolerance selects the volatility ceiling the optimizer works under.
type RiskTolerance string

const (
	Conservative RiskTolerance = "CONSERVATIVE"
	Moderate     RiskTolerance = "MODERATE"
	Aggressive   RiskTolerance = "AGGRESSIVE"
	AllWeather   RiskTolerance = "ALL_WEATHER"
)

// ParseRiskTolerance maps a wire tolerance onto the enum.
func ParseRiskTolerance(s string) (RiskTolerance, error) {
	switch RiskTolerance(s) {
	case Conservative, Moderate, Aggressive, AllWeather:
		return RiskTolerance(s), nil
	default:
		return "", finance.NewValidationError("riskTolerance", fmt.Sprintf("unsupported risk tolerance %q", s))
	}
}

// VolatilityCeiling is the annualized volatility cap for each profile.
func (r RiskTolerance) VolatilityCeiling() float64 {
	switch r {
	case Conservative:
		return 0.08
	case Moderate:
		return 0.15
	case Aggressive:
		return 0.25
	case AllWeather:
		return 0.12
	default:
		return 0.15
	}
}

// GlidePathCeiling derives a volatility ceiling from investor age using
// the 110-minus-age equity heuristic: the implied equity share scales the
// ceiling between a cash-like floor and an all-equity cap.
func GlidePathCeiling(age int) (float64, error) {
	if age < 18 || age > 100 {
		return 0, finance.NewValidationError("age", "must be between 18 and 100")
	}
	equityShare := float64(110-age) / 100
	if equityShare > 1 {
		equityShare = 1
	}
	if equityShare < 0 {
		equityShare = 0
	}
	return 0.04 + equityShare*0.21, nil
}

// OptimizationInput describes the investable universe: one expected
// annual return per asset and the annualized covariance matrix between
// them. CurrentWeights (fractions summing to 1) are echoed back next to
// the targets; they may be nil.
type OptimizationInput struct {
	Symbols         []string
	ExpectedReturns []float64
	Covariance      [][]float64
	CurrentWeights  []float64
	RiskFreeRate    finance.Rate
	MaxVolatility   float64
}

// TargetWeight pairs an asset's current and optimized allocation,
// both as fractions.
type TargetWeight struct {
	Symbol  string
	Current float64
	Target  float64
}

// OptimizedPortfolio is the optimizer's result.
type OptimizedPortfolio struct {
	ExpectedReturn     float64
	ExpectedVolatility float64
	SharpeRatio        float64
	Weights            []TargetWeight
}

// Optimize searches the long-only weight simplex for the maximum-Sharpe
// allocation whose volatility stays under the ceiling. The search is a
// deterministic pairwise hill-climb: starting from equal weights it
// repeatedly shifts weight between asset pairs at shrinking step sizes
// until no shift improves the objective. Identical inputs always produce
// identical weights.
func Optimize(in OptimizationInput) (OptimizedPortfolio, error) {
	n := len(in.Symbols)
	if n == 0 {
		return OptimizedPortfolio{}, finance.NewInsufficientDataError("optimization needs at least one asset")
	}
	if len(in.ExpectedReturns) != n {
		return OptimizedPortfolio{}, finance.NewValidationError("expectedReturns", "must match the number of assets")
	}
	if len(in.Covariance) != n {
		return OptimizedPortfolio{}, finance.NewValidationError("covariance", "must be a square matrix matching the number of assets")
	}
	for _, row := range in.Covariance {
		if len(row) != n {
			return OptimizedPortfolio{}, finance.NewValidationError("covariance", "must be a square matrix matching the number of assets")
		}
	}
	if in.CurrentWeights != nil && len(in.CurrentWeights) != n {
		return OptimizedPortfolio{}, finance.NewValidationError("currentWeights", "must match the number of assets")
	}
	if in.MaxVolatility <= 0 {
		return OptimizedPortfolio{}, finance.NewValidationError("maxVolatility", "must be positive")
	}

	riskFree := in.RiskFreeRate.ConvertToPeriod(finance.Annual).PeriodicDecimal().InexactFloat64()

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}

	objective := func(w []float64) (float64, bool) {
		vol := portfolioVolatility(w, in.Covariance)
		if vol > in.MaxVolatility {
			return 0, false
		}
		ret := portfolioReturn(w, in.ExpectedReturns)
		if vol == 0 {
			// Degenerate but feasible: rank by excess return alone.
			return ret - riskFree, true
		}
		return (ret - riskFree) / vol, true
	}

	best, feasible := objective(weights)
	if !feasible {
		// Equal weights violate the ceiling; fall back to the single
		// lowest-variance asset as the starting point.
		lowest := 0
		for i := 1; i < n; i++ {
			if in.Covariance[i][i] < in.Covariance[lowest][lowest] {
				lowest = i
			}
		}
		for i := range weights {
			weights[i] = 0
		}
		weights[lowest] = 1
		best, feasible = objective(weights)
		if !feasible {
			return OptimizedPortfolio{}, finance.NewValidationError("maxVolatility",
				fmt.Sprintf("no allocation satisfies a %.4f volatility ceiling", in.MaxVolatility))
		}
	}

	steps := []float64{0.10, 0.05, 0.01, 0.005, 0.001}
	for _, step := range steps {
		for improved := true; improved; {
			improved = false
			for from := 0; from < n; from++ {
				if weights[from] < step {
					continue
				}
				for to := 0; to < n; to++ {
					if to == from {
						continue
					}
					if weights[from] < step {
						break
					}
					weights[from] -= step
					weights[to] += step
					if score, ok := objective(weights); ok && score > best+1e-12 {
						best = score
						improved = true
						continue
					}
					weights[from] += step
					weights[to] -= step
				}
			}
		}
	}

	ret := portfolioReturn(weights, in.ExpectedReturns)
	vol := portfolioVolatility(weights, in.Covariance)

	targets := make([]TargetWeight, n)
	for i, symbol := range in.Symbols {
		current := 0.0
		if in.CurrentWeights != nil {
			current = in.CurrentWeights[i]
		}
		targets[i] = TargetWeight{Symbol: symbol, Current: current, Target: weights[i]}
	}

	return OptimizedPortfolio{
		ExpectedReturn:     ret,
		ExpectedVolatility: vol,
		SharpeRatio:        best,
		Weights:            targets,
	}, nil
}

func portfolioReturn(weights, expected []float64) float64 {
	sum := 0.0
	for i, w := range weights {
		sum += w * expected[i]
	}
	return sum
}

func portfolioVolatility(weights []float64, covariance [][]float64) float64 {
	variance := 0.0
	for i, wi := range weights {
		for j, wj := range weights {
			variance += wi * wj * covariance[i][j]
		}
	}
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
