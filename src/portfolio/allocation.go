package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

// Value sums the market value of every holding. All holdings must be
// priced in currency; an empty portfolio values to zero.
func Value(p Portfolio, currency finance.Currency) (finance.Money, error) {
	total := finance.ZeroMoney(currency)
	for _, asset := range p.Assets {
		if asset.Price.Currency() != currency {
			return finance.Money{}, finance.NewCurrencyMismatchError(currency, asset.Price.Currency())
		}
		if asset.Quantity.IsNegative() {
			return finance.Money{}, finance.NewValidationError("quantity", fmt.Sprintf("asset %q has a negative quantity", asset.Symbol))
		}
		value, err := asset.MarketValue()
		if err != nil {
			return finance.Money{}, err
		}
		total, err = total.Add(value)
		if err != nil {
			return finance.Money{}, err
		}
	}
	return total, nil
}

// Allocate values the portfolio and derives per-asset and per-class
// weights in percentage points. A zero-value portfolio has no meaningful
// weights and is reported as insufficient data.
func Allocate(p Portfolio, currency finance.Currency) (AllocationBreakdown, error) {
	total, err := Value(p, currency)
	if err != nil {
		return AllocationBreakdown{}, err
	}
	if total.IsZero() {
		return AllocationBreakdown{}, finance.NewInsufficientDataError("portfolio has zero total value, weights are undefined")
	}

	hundred := decimal.NewFromInt(100)
	totalAmount := total.Amount()

	byAsset := make([]AssetWeight, 0, len(p.Assets))
	classValues := map[AssetClass]decimal.Decimal{}
	var classOrder []AssetClass

	for _, asset := range p.Assets {
		value, err := asset.MarketValue()
		if err != nil {
			return AllocationBreakdown{}, err
		}
		weight := value.Amount().Div(totalAmount).Mul(hundred)
		byAsset = append(byAsset, AssetWeight{
			Symbol: asset.Symbol,
			Value:  value,
			Weight: weight,
		})

		if _, seen := classValues[asset.Class]; !seen {
			classOrder = append(classOrder, asset.Class)
		}
		classValues[asset.Class] = classValues[asset.Class].Add(value.Amount())
	}

	byClass := make([]ClassWeight, 0, len(classOrder))
	for _, class := range classOrder {
		amount := classValues[class]
		value, err := finance.NewMoneyFromDecimal(amount, currency)
		if err != nil {
			return AllocationBreakdown{}, err
		}
		byClass = append(byClass, ClassWeight{
			Class:  class,
			Value:  value,
			Weight: amount.Div(totalAmount).Mul(hundred),
		})
	}

	return AllocationBreakdown{
		TotalValue: total,
		ByAsset:    byAsset,
		ByClass:    byClass,
	}, nil
}
