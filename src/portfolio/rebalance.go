package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

// TradeSide is the direction of a rebalancing trade.
type TradeSide string

const (
	Buy  TradeSide = "BUY"
	Sell TradeSide = "SELL"
	Hold TradeSide = "HOLD"
)

// TradeAction is one asset's rebalancing instruction. Weights and drift
// are in percentage points; Amount is the money to move.
type TradeAction struct {
	Symbol        string
	Side          TradeSide
	Amount        finance.Money
	CurrentWeight decimal.Decimal
	TargetWeight  decimal.Decimal
	Drift         decimal.Decimal
}

// RebalanceInput pairs current holdings with target weights (percentage
// points summing to 100). DriftThreshold is the absolute weight deviation
// that triggers a trade; TransactionCost is charged proportionally on
// every traded amount.
type RebalanceInput struct {
	Portfolio       Portfolio
	Currency        finance.Currency
	TargetWeights   map[string]decimal.Decimal
	DriftThreshold  finance.Percentage
	TransactionCost finance.Percentage
}

// RebalancePlan is the full set of trades restoring the targets.
type RebalancePlan struct {
	TotalValue       finance.Money
	Actions          []TradeAction
	TotalCost        finance.Money
	NeedsRebalancing bool
}

// AnalyzeRebalancing compares each holding's weight to its target and
// emits buy/sell amounts for everything drifted past the threshold.
// Assets inside the threshold come back as holds so callers can render
// the complete picture.
func AnalyzeRebalancing(in RebalanceInput) (RebalancePlan, error) {
	if in.DriftThreshold.IsNegative() {
		return RebalancePlan{}, finance.NewValidationError("driftThreshold", "must not be negative")
	}
	if in.TransactionCost.IsNegative() {
		return RebalancePlan{}, finance.NewValidationError("transactionCost", "must not be negative")
	}

	targetSum := decimal.Zero
	for _, w := range in.TargetWeights {
		targetSum = targetSum.Add(w)
	}
	if targetSum.Sub(decimal.NewFromInt(100)).Abs().Cmp(decimal.NewFromFloat(0.0001)) > 0 {
		return RebalancePlan{}, finance.NewValidationError("targetWeights", fmt.Sprintf("must sum to 100, got %s", targetSum))
	}

	allocation, err := Allocate(in.Portfolio, in.Currency)
	if err != nil {
		return RebalancePlan{}, err
	}

	hundred := decimal.NewFromInt(100)
	totalAmount := allocation.TotalValue.Amount()
	threshold := in.DriftThreshold.AsPercent()
	costRate := in.TransactionCost.AsDecimal()

	actions := make([]TradeAction, 0, len(allocation.ByAsset))
	totalCost := decimal.Zero
	needsRebalancing := false

	for _, aw := range allocation.ByAsset {
		target, ok := in.TargetWeights[aw.Symbol]
		if !ok {
			return RebalancePlan{}, finance.NewValidationError("targetWeights", fmt.Sprintf("no target weight for asset %q", aw.Symbol))
		}

		drift := aw.Weight.Sub(target)
		action := TradeAction{
			Symbol:        aw.Symbol,
			Side:          Hold,
			CurrentWeight: aw.Weight,
			TargetWeight:  target,
			Drift:         drift,
		}

		if drift.Abs().Cmp(threshold) > 0 {
			// Trade back to target: amount is the weight gap applied to
			// total value, at money scale.
			amount := drift.Abs().Div(hundred).Mul(totalAmount).Round(finance.MoneyScale)
			if drift.IsPositive() {
				action.Side = Sell
			} else {
				action.Side = Buy
			}
			if action.Amount, err = finance.NewMoneyFromDecimal(amount, in.Currency); err != nil {
				return RebalancePlan{}, err
			}
			totalCost = totalCost.Add(amount.Mul(costRate).Round(finance.MoneyScale))
			needsRebalancing = true
		} else {
			if action.Amount, err = finance.NewMoneyFromDecimal(decimal.Zero, in.Currency); err != nil {
				return RebalancePlan{}, err
			}
		}

		actions = append(actions, action)
	}

	cost, err := finance.NewMoneyFromDecimal(totalCost, in.Currency)
	if err != nil {
		return RebalancePlan{}, err
	}

	return RebalancePlan{
		TotalValue:       allocation.TotalValue,
		Actions:          actions,
		TotalCost:        cost,
		NeedsRebalancing: needsRebalancing,
	}, nil
}
