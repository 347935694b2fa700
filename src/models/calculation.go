package models

import (
	"encoding/json"
	"time"

	"github.com/atlasfin/engine/src/debt"
	"github.com/atlasfin/engine/src/finance"
	"github.com/atlasfin/engine/src/portfolio"
)

// CalculateRequest is the envelope of POST /api/calculate. Input decodes
// into the operation-specific payload after dispatch.
type CalculateRequest struct {
	Operation string          `json:"operation"`
	Input     json.RawMessage `json:"input"`
}

// ErrorBody is the wire form of an engine error.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Money crosses the wire as a decimal string rendered at exactly four
// fractional digits plus a currency code. Floats never appear in money
// fields.
type MoneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func NewMoneyDTO(m finance.Money) MoneyDTO {
	return MoneyDTO{Amount: m.String(), Currency: string(m.Currency())}
}

// RateDTO carries percentage points and a period ("5.5" + "ANNUAL").
type RateDTO struct {
	Percentage string `json:"percentage"`
	Period     string `json:"period"`
}

func NewRateDTO(r finance.Rate) RateDTO {
	return RateDTO{Percentage: r.Percentage().AsPercent().String(), Period: string(r.Period())}
}

// ----- debt -----

type DebtDTO struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	DebtType       string   `json:"debtType"`
	Balance        MoneyDTO `json:"balance"`
	InterestRate   RateDTO  `json:"interestRate"`
	MinimumPayment MoneyDTO `json:"minimumPayment"`
}

type OptimizeDebtsInput struct {
	Debts          []DebtDTO `json:"debts"`
	ExtraPayment   MoneyDTO  `json:"extraPayment"`
	Strategy       string    `json:"strategy"`
	StrategyWeight string    `json:"strategyWeight,omitempty"`
	StartDate      string    `json:"startDate,omitempty"`
}

type CompareDebtStrategiesInput struct {
	Debts        []DebtDTO `json:"debts"`
	ExtraPayment MoneyDTO  `json:"extraPayment"`
	StartDate    string    `json:"startDate,omitempty"`
}

type ScheduleItemDTO struct {
	Month            int      `json:"month"`
	DebtName         string   `json:"debtName"`
	Payment          MoneyDTO `json:"payment"`
	Principal        MoneyDTO `json:"principal"`
	Interest         MoneyDTO `json:"interest"`
	RemainingBalance MoneyDTO `json:"remainingBalance"`
}

type PaymentPlanDTO struct {
	Strategy      string            `json:"strategy"`
	Months        int               `json:"months"`
	PayoffDate    string            `json:"payoffDate"`
	TotalInterest MoneyDTO          `json:"totalInterest"`
	TotalPaid     MoneyDTO          `json:"totalPaid"`
	Schedule      []ScheduleItemDTO `json:"schedule"`
}

func NewPaymentPlanDTO(plan debt.PaymentPlan) PaymentPlanDTO {
	schedule := make([]ScheduleItemDTO, len(plan.Schedule))
	for i, item := range plan.Schedule {
		schedule[i] = ScheduleItemDTO{
			Month:            item.Month,
			DebtName:         item.DebtName,
			Payment:          NewMoneyDTO(item.Payment),
			Principal:        NewMoneyDTO(item.Principal),
			Interest:         NewMoneyDTO(item.Interest),
			RemainingBalance: NewMoneyDTO(item.RemainingBalance),
		}
	}
	return PaymentPlanDTO{
		Strategy:      string(plan.Strategy),
		Months:        plan.Months,
		PayoffDate:    plan.PayoffDate.Format(time.DateOnly),
		TotalInterest: NewMoneyDTO(plan.TotalInterest),
		TotalPaid:     NewMoneyDTO(plan.TotalPaid),
		Schedule:      schedule,
	}
}

type ComparisonDTO struct {
	Snowball                 PaymentPlanDTO `json:"snowball"`
	Avalanche                PaymentPlanDTO `json:"avalanche"`
	Recommended              string         `json:"recommended"`
	InterestDelta            MoneyDTO       `json:"interestDelta"`
	InterestSavingsVsMinimum MoneyDTO       `json:"interestSavingsVsMinimum"`
	TimeSavedVsMinimumMonths int            `json:"timeSavedVsMinimumMonths"`
}

func NewComparisonDTO(c debt.Comparison) ComparisonDTO {
	return ComparisonDTO{
		Snowball:                 NewPaymentPlanDTO(c.Snowball),
		Avalanche:                NewPaymentPlanDTO(c.Avalanche),
		Recommended:              string(c.Recommended),
		InterestDelta:            NewMoneyDTO(c.InterestDelta),
		InterestSavingsVsMinimum: NewMoneyDTO(c.InterestSavingsVsMinimum),
		TimeSavedVsMinimumMonths: c.TimeSavedVsMinimumMonths,
	}
}

type ConsolidationInput struct {
	Debts         []DebtDTO `json:"debts"`
	MonthlyIncome MoneyDTO  `json:"monthlyIncome"`
	CreditScore   int       `json:"creditScore,omitempty"`
}

type ConsolidationOpportunityDTO struct {
	Type                string    `json:"type"`
	ConsolidatedBalance MoneyDTO  `json:"consolidatedBalance"`
	NewRate             RateDTO   `json:"newRate"`
	NewMonthlyPayment   MoneyDTO  `json:"newMonthlyPayment"`
	TransferFee         *MoneyDTO `json:"transferFee,omitempty"`
	InterestSavings     MoneyDTO  `json:"interestSavings"`
	TimeSavedMonths     int       `json:"timeSavedMonths"`
	Requirements        []string  `json:"requirements"`
	Advantages          []string  `json:"advantages"`
	Disadvantages       []string  `json:"disadvantages"`
	Risk                string    `json:"risk"`
	Score               string    `json:"score"`
}

type ConsolidationResultDTO struct {
	Opportunities []ConsolidationOpportunityDTO `json:"opportunities"`
}

func NewConsolidationResultDTO(opportunities []debt.ConsolidationOpportunity) ConsolidationResultDTO {
	dtos := make([]ConsolidationOpportunityDTO, len(opportunities))
	for i, o := range opportunities {
		dto := ConsolidationOpportunityDTO{
			Type:                string(o.Type),
			ConsolidatedBalance: NewMoneyDTO(o.ConsolidatedBalance),
			NewRate:             NewRateDTO(o.NewRate),
			NewMonthlyPayment:   NewMoneyDTO(o.NewMonthlyPayment),
			InterestSavings:     NewMoneyDTO(o.InterestSavings),
			TimeSavedMonths:     o.TimeSavedMonths,
			Requirements:        o.Requirements,
			Advantages:          o.Advantages,
			Disadvantages:       o.Disadvantages,
			Risk:                string(o.Risk),
			Score:               o.Score.String(),
		}
		if o.Type == debt.BalanceTransfer {
			fee := NewMoneyDTO(o.TransferFee)
			dto.TransferFee = &fee
		}
		dtos[i] = dto
	}
	return ConsolidationResultDTO{Opportunities: dtos}
}

// ----- portfolio -----

type AssetDTO struct {
	ID         string   `json:"id,omitempty"`
	Symbol     string   `json:"symbol"`
	AssetClass string   `json:"assetClass"`
	Quantity   string   `json:"quantity"`
	Price      MoneyDTO `json:"price"`
}

type ValuePortfolioInput struct {
	Assets   []AssetDTO `json:"assets"`
	Currency string     `json:"currency"`
}

type AssetWeightDTO struct {
	Symbol string   `json:"symbol"`
	Value  MoneyDTO `json:"value"`
	Weight string   `json:"weight"`
}

type ClassWeightDTO struct {
	Class  string   `json:"class"`
	Value  MoneyDTO `json:"value"`
	Weight string   `json:"weight"`
}

// ValuationDTO is the wire result of valuePortfolio.
type ValuationDTO struct {
	TotalValue MoneyDTO         `json:"totalValue"`
	ByAsset    []AssetWeightDTO `json:"byAsset"`
	ByClass    []ClassWeightDTO `json:"byClass"`
}

func NewValuationDTO(b portfolio.AllocationBreakdown) ValuationDTO {
	byAsset := make([]AssetWeightDTO, len(b.ByAsset))
	for i, aw := range b.ByAsset {
		byAsset[i] = AssetWeightDTO{
			Symbol: aw.Symbol,
			Value:  NewMoneyDTO(aw.Value),
			Weight: aw.Weight.Round(4).String(),
		}
	}
	byClass := make([]ClassWeightDTO, len(b.ByClass))
	for i, cw := range b.ByClass {
		byClass[i] = ClassWeightDTO{
			Class:  string(cw.Class),
			Value:  NewMoneyDTO(cw.Value),
			Weight: cw.Weight.Round(4).String(),
		}
	}
	return ValuationDTO{
		TotalValue: NewMoneyDTO(b.TotalValue),
		ByAsset:    byAsset,
		ByClass:    byClass,
	}
}

type AnalyzeRiskInput struct {
	Returns        []string `json:"returns"`
	Benchmark      []string `json:"benchmark,omitempty"`
	TotalValue     MoneyDTO `json:"totalValue"`
	RiskFreeRate   *RateDTO `json:"riskFreeRate,omitempty"`
	PeriodsPerYear int      `json:"periodsPerYear"`
}

type RiskMetricsDTO struct {
	VaR95                MoneyDTO `json:"var95"`
	VaR99                MoneyDTO `json:"var99"`
	CVaR95               MoneyDTO `json:"cvar95"`
	Volatility           float64  `json:"volatility"`
	AnnualizedVolatility float64  `json:"annualizedVolatility"`
	AnnualizedReturn     float64  `json:"annualizedReturn"`
	SharpeRatio          float64  `json:"sharpeRatio"`
	SortinoRatio         float64  `json:"sortinoRatio"`
	CalmarRatio          float64  `json:"calmarRatio"`
	MaxDrawdown          float64  `json:"maxDrawdown"`
	Beta                 *float64 `json:"beta,omitempty"`
	TrackingError        *float64 `json:"trackingError,omitempty"`
	InformationRatio     *float64 `json:"informationRatio,omitempty"`
}

func NewRiskMetricsDTO(m portfolio.RiskMetrics) RiskMetricsDTO {
	dto := RiskMetricsDTO{
		VaR95:                NewMoneyDTO(m.VaR95),
		VaR99:                NewMoneyDTO(m.VaR99),
		CVaR95:               NewMoneyDTO(m.CVaR95),
		Volatility:           m.Volatility,
		AnnualizedVolatility: m.AnnualizedVolatility,
		AnnualizedReturn:     m.AnnualizedReturn,
		SharpeRatio:          m.SharpeRatio,
		SortinoRatio:         m.SortinoRatio,
		CalmarRatio:          m.CalmarRatio,
		MaxDrawdown:          m.MaxDrawdown,
	}
	if m.HasBeta {
		beta := m.Beta
		trackingError := m.TrackingError
		informationRatio := m.InformationRatio
		dto.Beta = &beta
		dto.TrackingError = &trackingError
		dto.InformationRatio = &informationRatio
	}
	return dto
}

type OptimizePortfolioInput struct {
	Symbols         []string    `json:"symbols"`
	ExpectedReturns []float64   `json:"expectedReturns"`
	Covariance      [][]float64 `json:"covariance"`
	CurrentWeights  []float64   `json:"currentWeights,omitempty"`
	RiskFreeRate    *RateDTO    `json:"riskFreeRate,omitempty"`
	RiskTolerance   string      `json:"riskTolerance,omitempty"`
	Age             int         `json:"age,omitempty"`
}

type TargetWeightDTO struct {
	Symbol  string  `json:"symbol"`
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
}

type OptimizedPortfolioDTO struct {
	ExpectedReturn     float64           `json:"expectedReturn"`
	ExpectedVolatility float64           `json:"expectedVolatility"`
	SharpeRatio        float64           `json:"sharpeRatio"`
	Weights            []TargetWeightDTO `json:"weights"`
}

func NewOptimizedPortfolioDTO(o portfolio.OptimizedPortfolio) OptimizedPortfolioDTO {
	weights := make([]TargetWeightDTO, len(o.Weights))
	for i, w := range o.Weights {
		weights[i] = TargetWeightDTO{Symbol: w.Symbol, Current: w.Current, Target: w.Target}
	}
	return OptimizedPortfolioDTO{
		ExpectedReturn:     o.ExpectedReturn,
		ExpectedVolatility: o.ExpectedVolatility,
		SharpeRatio:        o.SharpeRatio,
		Weights:            weights,
	}
}

type MonteCarloInputDTO struct {
	InitialValue        MoneyDTO  `json:"initialValue"`
	MonthlyContribution *MoneyDTO `json:"monthlyContribution,omitempty"`
	AnnualReturn        float64   `json:"annualReturn"`
	AnnualVolatility    float64   `json:"annualVolatility"`
	Years               int       `json:"years"`
	Iterations          int       `json:"iterations,omitempty"`
	Seed                uint64    `json:"seed,omitempty"`
	TargetValue         *MoneyDTO `json:"targetValue,omitempty"`
}

type PercentileDTO struct {
	Level int      `json:"level"`
	Value MoneyDTO `json:"value"`
}

type MonteCarloResultDTO struct {
	Iterations             int             `json:"iterations"`
	ExpectedFinalValue     MoneyDTO        `json:"expectedFinalValue"`
	StdDevFinalValue       MoneyDTO        `json:"stdDevFinalValue"`
	Percentiles            []PercentileDTO `json:"percentiles"`
	ProbabilityOfLoss      float64         `json:"probabilityOfLoss"`
	ProbabilityOfShortfall *float64        `json:"probabilityOfShortfall,omitempty"`
}

func NewMonteCarloResultDTO(r portfolio.MonteCarloResult) MonteCarloResultDTO {
	percentiles := make([]PercentileDTO, len(r.Percentiles))
	for i, p := range r.Percentiles {
		percentiles[i] = PercentileDTO{Level: p.Level, Value: NewMoneyDTO(p.Value)}
	}
	dto := MonteCarloResultDTO{
		Iterations:         r.Iterations,
		ExpectedFinalValue: NewMoneyDTO(r.ExpectedFinalValue),
		StdDevFinalValue:   NewMoneyDTO(r.StdDevFinalValue),
		Percentiles:        percentiles,
		ProbabilityOfLoss:  r.ProbabilityOfLoss,
	}
	if r.HasShortfall {
		shortfall := r.ProbabilityOfShortfall
		dto.ProbabilityOfShortfall = &shortfall
	}
	return dto
}

type RebalanceInputDTO struct {
	Assets          []AssetDTO        `json:"assets"`
	Currency        string            `json:"currency"`
	TargetWeights   map[string]string `json:"targetWeights"`
	DriftThreshold  string            `json:"driftThreshold"`
	TransactionCost string            `json:"transactionCost,omitempty"`
}

type TradeActionDTO struct {
	Symbol        string   `json:"symbol"`
	Side          string   `json:"side"`
	Amount        MoneyDTO `json:"amount"`
	CurrentWeight string   `json:"currentWeight"`
	TargetWeight  string   `json:"targetWeight"`
	Drift         string   `json:"drift"`
}

type RebalancePlanDTO struct {
	TotalValue       MoneyDTO         `json:"totalValue"`
	Actions          []TradeActionDTO `json:"actions"`
	TotalCost        MoneyDTO         `json:"totalCost"`
	NeedsRebalancing bool             `json:"needsRebalancing"`
}

func NewRebalancePlanDTO(p portfolio.RebalancePlan) RebalancePlanDTO {
	actions := make([]TradeActionDTO, len(p.Actions))
	for i, a := range p.Actions {
		actions[i] = TradeActionDTO{
			Symbol:        a.Symbol,
			Side:          string(a.Side),
			Amount:        NewMoneyDTO(a.Amount),
			CurrentWeight: a.CurrentWeight.Round(4).String(),
			TargetWeight:  a.TargetWeight.Round(4).String(),
			Drift:         a.Drift.Round(4).String(),
		}
	}
	return RebalancePlanDTO{
		TotalValue:       NewMoneyDTO(p.TotalValue),
		Actions:          actions,
		TotalCost:        NewMoneyDTO(p.TotalCost),
		NeedsRebalancing: p.NeedsRebalancing,
	}
}

// ----- compound interest -----

type CompoundInterestInput struct {
	Principal        MoneyDTO `json:"principal"`
	Rate             RateDTO  `json:"rate"`
	Years            int      `json:"years"`
	CompoundsPerYear int      `json:"compoundsPerYear"`
}

type CompoundInterestResult struct {
	FutureValue    MoneyDTO `json:"futureValue"`
	InterestEarned MoneyDTO `json:"interestEarned"`
}

// ----- history -----

type CalculationRecord struct {
	RequestID   string    `json:"requestId"`
	UserID      string    `json:"userId"`
	Operation   string    `json:"operation"`
	RequestHash string    `json:"requestHash"`
	ResultJSON  string    `json:"result"`
	CreatedAt   time.Time `json:"createdAt"`
}
