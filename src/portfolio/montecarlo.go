package portfolio

import (
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

// DefaultSeed keeps unseeded simulations reproducible across runs.
const DefaultSeed = 42

// lcg is a 32-bit linear congruential generator (numerical-recipes
// constants). Speed and reproducibility matter here, cryptographic
// quality does not.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed}
}

func (g *lcg) next() float64 {
	g.state = (g.state*1664525 + 1013904223) & 0xFFFFFFFF
	return float64(g.state) / 4294967296.0
}

// normal draws a standard normal via Box-Muller.
func (g *lcg) normal() float64 {
	u1 := g.next()
	for u1 == 0 {
		u1 = g.next()
	}
	u2 := g.next()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// MonteCarloInput parameterizes a parametric growth simulation. Returns
// are modeled as i.i.d. normal at monthly resolution. Seed 0 means
// DefaultSeed; Workers 0 picks a default fan-out.
type MonteCarloInput struct {
	InitialValue        finance.Money
	MonthlyContribution finance.Money
	AnnualReturn        float64
	AnnualVolatility    float64
	Years               int
	Iterations          int
	Seed                uint64
	Workers             int

	// TargetValue, when positive, enables the shortfall probability.
	TargetValue finance.Money
}

// Percentile is one row of the outcome distribution table.
type Percentile struct {
	Level int
	Value finance.Money
}

// MonteCarloResult summarizes the distribution of final values.
type MonteCarloResult struct {
	Iterations             int
	ExpectedFinalValue     finance.Money
	StdDevFinalValue       finance.Money
	Percentiles            []Percentile
	ProbabilityOfLoss      float64
	ProbabilityOfShortfall float64
	HasShortfall           bool
}

var percentileLevels = []int{5, 10, 25, 50, 75, 90, 95}

// RunMonteCarlo fans iterations out across workers. Each worker owns an
// independent generator seeded with base seed plus worker index and
// writes into its own slice region, so the result is bit-identical no
// matter how the scheduler interleaves the workers.
func RunMonteCarlo(in MonteCarloInput) (MonteCarloResult, error) {
	if in.Years <= 0 {
		return MonteCarloResult{}, finance.NewValidationError("years", "must be a positive integer")
	}
	if in.Iterations <= 0 {
		return MonteCarloResult{}, finance.NewValidationError("iterations", "must be a positive integer")
	}
	if in.AnnualVolatility < 0 {
		return MonteCarloResult{}, finance.NewValidationError("annualVolatility", "must not be negative")
	}
	if in.InitialValue.IsNegative() {
		return MonteCarloResult{}, finance.NewValidationError("initialValue", "must not be negative")
	}
	if c := in.MonthlyContribution.Currency(); c != "" && c != in.InitialValue.Currency() {
		return MonteCarloResult{}, finance.NewCurrencyMismatchError(in.InitialValue.Currency(), c)
	}
	if in.MonthlyContribution.IsNegative() {
		return MonteCarloResult{}, finance.NewValidationError("monthlyContribution", "must not be negative")
	}

	seed := in.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	workers := in.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > in.Iterations {
		workers = in.Iterations
	}

	initial := in.InitialValue.Amount().InexactFloat64()
	contribution := in.MonthlyContribution.Amount().InexactFloat64()
	monthlyReturn := in.AnnualReturn / 12
	monthlyVol := in.AnnualVolatility / math.Sqrt(12)
	months := in.Years * 12

	finals := make([]float64, in.Iterations)
	chunk := in.Iterations / workers
	remainder := in.Iterations % workers

	var wg sync.WaitGroup
	offset := 0
	for w := 0; w < workers; w++ {
		size := chunk
		if w < remainder {
			size++
		}
		start, end := offset, offset+size
		offset = end

		wg.Add(1)
		go func(workerSeed uint64, out []float64) {
			defer wg.Done()
			g := newLCG(workerSeed)
			for i := range out {
				value := initial
				for m := 0; m < months; m++ {
					growth := 1 + monthlyReturn + monthlyVol*g.normal()
					if growth < 0 {
						growth = 0
					}
					value = value*growth + contribution
				}
				out[i] = value
			}
		}(seed+uint64(w), finals[start:end])
	}
	wg.Wait()

	return summarize(in, finals)
}

func summarize(in MonteCarloInput, finals []float64) (MonteCarloResult, error) {
	currency := in.InitialValue.Currency()
	initial := in.InitialValue.Amount().InexactFloat64()
	contribution := in.MonthlyContribution.Amount().InexactFloat64()
	contributed := initial + contribution*float64(in.Years*12)

	sorted := append([]float64(nil), finals...)
	sort.Float64s(sorted)

	percentiles := make([]Percentile, 0, len(percentileLevels))
	for _, level := range percentileLevels {
		idx := int(math.Floor(float64(level) / 100 * float64(len(sorted))))
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		value, err := floatMoney(sorted[idx], currency)
		if err != nil {
			return MonteCarloResult{}, err
		}
		percentiles = append(percentiles, Percentile{Level: level, Value: value})
	}

	meanFinal := mean(finals)
	stddevFinal := stddev(finals, meanFinal)

	losses := 0
	for _, v := range finals {
		if v < contributed {
			losses++
		}
	}

	result := MonteCarloResult{
		Iterations:        len(finals),
		Percentiles:       percentiles,
		ProbabilityOfLoss: float64(losses) / float64(len(finals)),
	}

	var err error
	if result.ExpectedFinalValue, err = floatMoney(meanFinal, currency); err != nil {
		return MonteCarloResult{}, err
	}
	if result.StdDevFinalValue, err = floatMoney(stddevFinal, currency); err != nil {
		return MonteCarloResult{}, err
	}

	if in.TargetValue.IsPositive() {
		if in.TargetValue.Currency() != currency {
			return MonteCarloResult{}, finance.NewCurrencyMismatchError(currency, in.TargetValue.Currency())
		}
		target := in.TargetValue.Amount().InexactFloat64()
		short := 0
		for _, v := range finals {
			if v < target {
				short++
			}
		}
		result.ProbabilityOfShortfall = float64(short) / float64(len(finals))
		result.HasShortfall = true
	}

	return result, nil
}

func floatMoney(amount float64, currency finance.Currency) (finance.Money, error) {
	return finance.NewMoneyFromDecimal(decimal.NewFromFloat(amount).Round(finance.MoneyScale), currency)
}
