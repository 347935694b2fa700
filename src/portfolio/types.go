package portfolio

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

// AssetClass buckets holdings for allocation reporting. The engine never
// interprets the class beyond grouping.
type AssetClass string

const (
	Equity     AssetClass = "EQUITY"
	Bond       AssetClass = "BOND"
	Cash       AssetClass = "CASH"
	RealEstate AssetClass = "REAL_ESTATE"
	Commodity  AssetClass = "COMMODITY"
	Crypto     AssetClass = "CRYPTO"
)

// ParseAssetClass maps a wire asset class onto the enum.
func ParseAssetClass(s string) (AssetClass, error) {
	switch AssetClass(s) {
	case Equity, Bond, Cash, RealEstate, Commodity, Crypto:
		return AssetClass(s), nil
	default:
		return "", finance.NewValidationError("assetClass", fmt.Sprintf("unsupported asset class %q", s))
	}
}

// Asset is a single holding. Quantity carries up to 8 fractional digits
// (fractional shares); Price is per unit.
type Asset struct {
	ID       uuid.UUID
	Symbol   string
	Class    AssetClass
	Quantity decimal.Decimal
	Price    finance.Money
}

// MarketValue is quantity times unit price, at money scale.
func (a Asset) MarketValue() (finance.Money, error) {
	return a.Price.Mul(a.Quantity)
}

// Portfolio is a bag of holdings. All prices must share a currency; the
// valuation functions enforce it.
type Portfolio struct {
	ID     uuid.UUID
	Assets []Asset
}

// AssetWeight is one asset's share of the portfolio, in percentage points.
type AssetWeight struct {
	Symbol string
	Value  finance.Money
	Weight decimal.Decimal
}

// ClassWeight aggregates AssetWeight by asset class.
type ClassWeight struct {
	Class  AssetClass
	Value  finance.Money
	Weight decimal.Decimal
}

// AllocationBreakdown is the valuation result: total value plus per-asset
// and per-class weights. Weights sum to 100 within 0.0001.
type AllocationBreakdown struct {
	TotalValue finance.Money
	ByAsset    []AssetWeight
	ByClass    []ClassWeight
}
