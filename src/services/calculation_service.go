package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/debt"
	"github.com/atlasfin/engine/src/finance"
	"github.com/atlasfin/engine/src/logger"
	"github.com/atlasfin/engine/src/models"
	"github.com/atlasfin/engine/src/portfolio"
	"github.com/atlasfin/engine/src/repository"
	"github.com/atlasfin/engine/src/utils"
)

// Operation names accepted by Calculate.
const (
	OpOptimizeDebts         = "optimizeDebts"
	OpCompareDebtStrategies = "compareDebtStrategies"
	OpAnalyzePortfolioRisk  = "analyzePortfolioRisk"
	OpOptimizePortfolio     = "optimizePortfolio"
	OpRunMonteCarlo         = "runMonteCarlo"
	OpAnalyzeRebalancing    = "analyzeRebalancing"
	OpValuePortfolio        = "valuePortfolio"
	OpCompoundInterest      = "compoundInterest"

	OpConsolidationOpportunities = "consolidationOpportunities"
)

// CalculationService validates wire input, dispatches to the engines and
// handles caching and history around them. The engines themselves stay
// side-effect free.
type CalculationService interface {
	Calculate(ctx context.Context, userID string, req models.CalculateRequest) (json.RawMessage, error)
	History(ctx context.Context, userID string, limit int) ([]models.CalculationRecord, error)
}

type calculationService struct {
	cache      repository.CacheRepository
	history    repository.HistoryRepository
	riskFree   finance.Rate
	iterations int
	workers    int
	now        func() time.Time
}

func NewCalculationService(cache repository.CacheRepository, history repository.HistoryRepository, riskFree finance.Rate, iterations, workers int) CalculationService {
	return &calculationService{
		cache:      cache,
		history:    history,
		riskFree:   riskFree,
		iterations: iterations,
		workers:    workers,
		now:        time.Now,
	}
}

func (s *calculationService) Calculate(ctx context.Context, userID string, req models.CalculateRequest) (json.RawMessage, error) {
	if req.Operation == "" {
		return nil, finance.NewValidationError("operation", "must not be empty")
	}
	if len(req.Input) == 0 {
		return nil, finance.NewValidationError("input", "must not be empty")
	}

	key, err := utils.HashJSON(req)
	if err != nil {
		return nil, fmt.Errorf("hashing calculation request: %w", err)
	}
	if cached, found := s.cache.Get(ctx, key); found {
		logger.L.Debug("Calculation cache hit", "operation", req.Operation, "key", key)
		return json.RawMessage(cached), nil
	}

	result, err := s.dispatch(req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding calculation result: %w", err)
	}

	if err := s.cache.Set(ctx, key, string(payload)); err != nil {
		logger.L.Warn("Failed to cache calculation result", "operation", req.Operation, "error", err)
	}
	s.saveHistory(ctx, userID, req.Operation, key, payload)

	return payload, nil
}

func (s *calculationService) History(ctx context.Context, userID string, limit int) ([]models.CalculationRecord, error) {
	records, err := s.history.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading calculation history: %w", err)
	}
	return records, nil
}

// saveHistory is best-effort: a failed save must never fail a calculation
// that already succeeded.
func (s *calculationService) saveHistory(ctx context.Context, userID, operation, key string, payload []byte) {
	record := models.CalculationRecord{
		RequestID:   uuid.NewString(),
		UserID:      userID,
		Operation:   operation,
		RequestHash: key,
		ResultJSON:  string(payload),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.history.Save(ctx, record); err != nil {
		logger.L.Warn("Failed to save calculation history", "operation", operation, "user", userID, "error", err)
	}
}

func (s *calculationService) dispatch(req models.CalculateRequest) (interface{}, error) {
	switch req.Operation {
	case OpOptimizeDebts:
		return s.optimizeDebts(req.Input)
	case OpCompareDebtStrategies:
		return s.compareDebtStrategies(req.Input)
	case OpConsolidationOpportunities:
		return s.consolidationOpportunities(req.Input)
	case OpAnalyzePortfolioRisk:
		return s.analyzePortfolioRisk(req.Input)
	case OpOptimizePortfolio:
		return s.optimizePortfolio(req.Input)
	case OpRunMonteCarlo:
		return s.runMonteCarlo(req.Input)
	case OpAnalyzeRebalancing:
		return s.analyzeRebalancing(req.Input)
	case OpValuePortfolio:
		return s.valuePortfolio(req.Input)
	case OpCompoundInterest:
		return s.compoundInterest(req.Input)
	default:
		return nil, finance.NewValidationError("operation", fmt.Sprintf("unsupported operation %q", req.Operation))
	}
}

func decodeInput(raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return finance.NewValidationError("input", fmt.Sprintf("malformed input: %v", err))
	}
	return nil
}

func (s *calculationService) optimizeDebts(raw json.RawMessage) (interface{}, error) {
	var in models.OptimizeDebtsInput
	if err := decodeInput(raw, &in); err != nil {
		return nil, err
	}

	accounts, err := parseDebts(in.Debts)
	if err != nil {
		return nil, err
	}
	extra, err := parseMoney(in.ExtraPayment, "extraPayment")
	if err != nil {
		return nil, err
	}
	start, err := parseStartDate(in.StartDate, s.now())
	if err != nil {
		return nil, err
	}
	strategy, err := debt.ParseStrategy(in.Strategy)
	if err != nil {
		return nil, err
	}

	var plan debt.PaymentPlan
	switch strategy {
	case debt.Snowball:
		plan, err = debt.OptimizeSnowball(accounts, extra, start)
	case debt.Avalanche:
		plan, err = debt.OptimizeAvalanche(accounts, extra, start)
	case debt.Custom:
		weight := decimal.NewFromFloat(0.5)
		if in.StrategyWeight != "" {
			weight, err = decimal.NewFromString(in.StrategyWeight)
			if err != nil {
				return nil, finance.NewValidationError("strategyWeight", fmt.Sprintf("malformed decimal string %q", in.StrategyWeight))
			}
		}
		plan, err = debt.OptimizeCustom(accounts, extra, weight, start)
	}
	if err != nil {
		return nil, err
	}
	return models.NewPaymentPlanDTO(plan), nil
}

func (s *calculationService) compareDebtStrategies(raw json.RawMessage) (interface{}, error) {
	var in models.CompareDebtStrategiesInput
	if err := decodeInput(raw, &in); err != nil {
		return nil, err
	}

	accounts, err := parseDebts(in.Debts)
	if err != nil {
		return nil, err
	}
	extra, err := parseMoney(in.ExtraPayment, "extraPayment")
	if err != nil {
		return nil, err
	}
	start, err := parseStartDate(in.StartDate, s.now())
	if err != nil {
		return nil, err
	}

	comparison, err := debt.Compare(accounts, extra, start)
	if err != nil {
		return nil, err
	}
	return models.NewComparisonDTO(comparison), nil
}

func (s *calculationService) consolidationOpportunities(raw json.RawMessage) (interface{}, error) {
	var in models.ConsolidationInput
	if err := decodeInput(raw, &in); err != nil {
		return nil, err
	}

	accounts, err := parseDebts(in.Debts)
	if err != nil {
		return nil, err
	}
	income, err := parseMoney(in.MonthlyIncome, "monthlyIncome")
	if err != nil {
		return nil, err
	}

	opportunities, err := debt.AnalyzeConsolidation(accounts, income, in.CreditScore)
	if err != nil {
		return nil, err
	}
	return models.NewConsolidationResultDTO(opportunities), nil
}

func (s *calculationService) analyzePortfolioRisk(raw json.RawMessage) (interface{}, error) {
	var in models.AnalyzeRiskInput
	if err := decodeInput(raw, &in); err != nil {
		return nil, err
	}

	returns, err := parseReturnSeries(in.Returns, "returns")
	if err != nil {
		return nil, err
	}
	benchmark, err := parseReturnSeries(in.Benchmark, "benchmark")
	if err != nil {
		return nil, err
	}
	totalValue, err := parseMoney(in.TotalValue, "totalValue")
	if err != nil {
		return nil, err
	}
	riskFree, err := parseOptionalRate(in.RiskFreeRate, s.riskFree, "riskFreeRate")
	if err != nil {
		return nil, err
	}

	metrics, err := portfolio.AnalyzeRisk(portfolio.RiskInput{
		Returns:        returns,
		Benchmark:      benchmark,
		TotalValue:     totalValue,
		RiskFreeRate:   riskFree,
		PeriodsPerYear: in.PeriodsPerYear,
	})
	if err != nil {
		return nil, err
	}
	return models.NewRiskMetricsDTO(metrics), nil
}

func (s *calculationService) optimizePortfolio(raw json.RawMessage) (interface{}, error) {
	var in models.OptimizePortfolioInput
	if err := decodeInput(raw, &in); err != nil {
		return nil, err
	}

	riskFree, err := parseOptionalRate(in.RiskFreeRate, s.riskFree, "riskFreeRate")
	if err != nil {
		return nil, err
	}

	var ceiling float64
	switch {
	case in.Age > 0:
		if ceiling, err = portfolio.GlidePathCeiling(in.Age); err != nil {
			return nil, err
		}
	case in.RiskTolerance != "":
		tolerance, err := portfolio.ParseRiskTolerance(in.RiskTolerance)
		if err != nil {
			return nil, err
		}
		ceiling = tolerance.VolatilityCeiling()
	default:
		return nil, finance.NewValidationError("riskTolerance", "either riskTolerance or age is required")
	}

	result, err := portfolio.Optimize(portfolio.OptimizationInput{
		Symbols:         in.Symbols,
		ExpectedReturns: in.ExpectedReturns,
		Covariance:      in.Covariance,
		CurrentWeights:  in.CurrentWeights,
		RiskFreeRate:    riskFree,
		MaxVolatility:   ceiling,
	})
	if err != nil {
		return nil, err
	}
	return models.NewOptimizedPortfolioDTO(result), nil
}

func (s *calculationService) runMonteCarlo(raw json.RawMessage) (interface{}, error) {
	var in models.MonteCarloInputDTO
	if err := decodeInput(raw, &in); err != nil {
		return nil, err
	}

	initial, err := parseMoney(in.InitialValue, "initialValue")
	if err != nil {
		return nil, err
	}
	contribution, err := parseOptionalMoney(in.MonthlyContribution, initial.Currency(), "monthlyContribution")
	if err != nil {
		return nil, err
	}
	target, err := parseOptionalMoney(in.TargetValue, initial.Currency(), "targetValue")
	if err != nil {
		return nil, err
	}

	iterations := in.Iterations
	if iterations == 0 {
		iterations = s.iterations
	}

	result, err := portfolio.RunMonteCarlo(portfolio.MonteCarloInput{
		InitialValue:        initial,
		MonthlyContribution: contribution,
		AnnualReturn:        in.AnnualReturn,
		AnnualVolatility:    in.AnnualVolatility,
		Years:               in.Years,
		Iterations:          iterations,
		Seed:                in.Seed,
		Workers:             s.workers,
		TargetValue:         target,
	})
	if err != nil {
		return nil, err
	}
	return models.NewMonteCarloResultDTO(result), nil
}

func (s *calculationService) analyzeRebalancing(raw json.RawMessage) (interface{}, error) {
	var in models.RebalanceInputDTO
	if err := decodeInput(raw, &in); err != nil {
		return nil, err
	}

	currency, err := finance.ParseCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	assets, err := parseAssets(in.Assets)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]decimal.Decimal, len(in.TargetWeights))
	for symbol, weight := range in.TargetWeights {
		d, err := decimal.NewFromString(weight)
		if err != nil {
			return nil, finance.NewValidationError("targetWeights."+symbol, fmt.Sprintf("malformed decimal string %q", weight))
		}
		targets[symbol] = d
	}

	threshold, err := finance.NewPercentFromString(in.DriftThreshold)
	if err != nil {
		return nil, finance.NewValidationError("driftThreshold", fmt.Sprintf("malformed percentage %q", in.DriftThreshold))
	}
	cost := finance.Percentage{}
	if in.TransactionCost != "" {
		if cost, err = finance.NewPercentFromString(in.TransactionCost); err != nil {
			return nil, finance.NewValidationError("transactionCost", fmt.Sprintf("malformed percentage %q", in.TransactionCost))
		}
	}

	plan, err := portfolio.AnalyzeRebalancing(portfolio.RebalanceInput{
		Portfolio:       portfolio.Portfolio{ID: uuid.New(), Assets: assets},
		Currency:        currency,
		TargetWeights:   targets,
		DriftThreshold:  threshold,
		TransactionCost: cost,
	})
	if err != nil {
		return nil, err
	}
	return models.NewRebalancePlanDTO(plan), nil
}

func (s *calculationService) valuePortfolio(raw json.RawMessage) (interface{}, error) {
	var in models.ValuePortfolioInput
	if err := decodeInput(raw, &in); err != nil {
		return nil, err
	}

	currency, err := finance.ParseCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	assets, err := parseAssets(in.Assets)
	if err != nil {
		return nil, err
	}

	breakdown, err := portfolio.Allocate(portfolio.Portfolio{ID: uuid.New(), Assets: assets}, currency)
	if err != nil {
		return nil, err
	}
	return models.NewValuationDTO(breakdown), nil
}

func (s *calculationService) compoundInterest(raw json.RawMessage) (interface{}, error) {
	var in models.CompoundInterestInput
	if err := decodeInput(raw, &in); err != nil {
		return nil, err
	}

	principal, err := parseMoney(in.Principal, "principal")
	if err != nil {
		return nil, err
	}
	rate, err := parseRate(in.Rate, "rate")
	if err != nil {
		return nil, err
	}

	fv, err := finance.CompoundInterest(principal, rate, in.Years, in.CompoundsPerYear)
	if err != nil {
		return nil, err
	}
	earned, err := fv.Sub(principal)
	if err != nil {
		return nil, err
	}
	return models.CompoundInterestResult{
		FutureValue:    models.NewMoneyDTO(fv),
		InterestEarned: models.NewMoneyDTO(earned),
	}, nil
}
