package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/debt"
	"github.com/atlasfin/engine/src/finance"
	"github.com/atlasfin/engine/src/models"
	"github.com/atlasfin/engine/src/portfolio"
)

// All wire validation happens here, before any engine runs. Error fields
// name the offending JSON path so clients can highlight the right input.

func parseMoney(dto models.MoneyDTO, field string) (finance.Money, error) {
	currency, err := finance.ParseCurrency(dto.Currency)
	if err != nil {
		return finance.Money{}, finance.NewValidationError(field+".currency", fmt.Sprintf("unsupported currency %q", dto.Currency))
	}
	m, err := finance.NewMoney(dto.Amount, currency)
	if err != nil {
		if fe, ok := err.(*finance.Error); ok {
			return finance.Money{}, &finance.Error{Kind: fe.Kind, Field: field + ".amount", Message: fe.Message}
		}
		return finance.Money{}, err
	}
	return m, nil
}

func parseOptionalMoney(dto *models.MoneyDTO, currency finance.Currency, field string) (finance.Money, error) {
	if dto == nil {
		return finance.ZeroMoney(currency), nil
	}
	return parseMoney(*dto, field)
}

func parseRate(dto models.RateDTO, field string) (finance.Rate, error) {
	p, err := finance.NewPercentFromString(dto.Percentage)
	if err != nil {
		if fe, ok := err.(*finance.Error); ok {
			return finance.Rate{}, &finance.Error{Kind: fe.Kind, Field: field + ".percentage", Message: fe.Message}
		}
		return finance.Rate{}, err
	}
	period, err := finance.ParsePeriod(dto.Period)
	if err != nil {
		return finance.Rate{}, finance.NewValidationError(field+".period", fmt.Sprintf("unsupported period %q", dto.Period))
	}
	return finance.NewRate(p, period), nil
}

func parseOptionalRate(dto *models.RateDTO, fallback finance.Rate, field string) (finance.Rate, error) {
	if dto == nil {
		return fallback, nil
	}
	return parseRate(*dto, field)
}

func parseID(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, finance.NewValidationError(field, fmt.Sprintf("malformed id %q", raw))
	}
	return id, nil
}

func parseDebts(dtos []models.DebtDTO) ([]debt.Account, error) {
	accounts := make([]debt.Account, 0, len(dtos))
	for i, d := range dtos {
		field := fmt.Sprintf("debts[%d]", i)
		if d.Name == "" {
			return nil, finance.NewValidationError(field+".name", "must not be empty")
		}
		debtType, err := debt.ParseDebtType(d.DebtType)
		if err != nil {
			return nil, finance.NewValidationError(field+".debtType", fmt.Sprintf("unsupported debt type %q", d.DebtType))
		}
		id, err := parseID(d.ID, field+".id")
		if err != nil {
			return nil, err
		}
		balance, err := parseMoney(d.Balance, field+".balance")
		if err != nil {
			return nil, err
		}
		rate, err := parseRate(d.InterestRate, field+".interestRate")
		if err != nil {
			return nil, err
		}
		minimum, err := parseMoney(d.MinimumPayment, field+".minimumPayment")
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, debt.Account{
			ID:             id,
			Name:           d.Name,
			Type:           debtType,
			Balance:        balance,
			InterestRate:   rate,
			MinimumPayment: minimum,
		})
	}
	return accounts, nil
}

func parseAssets(dtos []models.AssetDTO) ([]portfolio.Asset, error) {
	assets := make([]portfolio.Asset, 0, len(dtos))
	for i, a := range dtos {
		field := fmt.Sprintf("assets[%d]", i)
		if a.Symbol == "" {
			return nil, finance.NewValidationError(field+".symbol", "must not be empty")
		}
		class, err := portfolio.ParseAssetClass(a.AssetClass)
		if err != nil {
			return nil, finance.NewValidationError(field+".assetClass", fmt.Sprintf("unsupported asset class %q", a.AssetClass))
		}
		id, err := parseID(a.ID, field+".id")
		if err != nil {
			return nil, err
		}
		quantity, err := finance.ParseQuantity(a.Quantity)
		if err != nil {
			if fe, ok := err.(*finance.Error); ok {
				return nil, &finance.Error{Kind: fe.Kind, Field: field + ".quantity", Message: fe.Message}
			}
			return nil, err
		}
		price, err := parseMoney(a.Price, field+".price")
		if err != nil {
			return nil, err
		}
		assets = append(assets, portfolio.Asset{
			ID:       id,
			Symbol:   a.Symbol,
			Class:    class,
			Quantity: quantity,
			Price:    price,
		})
	}
	return assets, nil
}

func parseReturnSeries(raw []string, field string) ([]decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	series := make([]decimal.Decimal, len(raw))
	for i, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, finance.NewValidationError(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("malformed decimal string %q", s))
		}
		series[i] = d
	}
	return series, nil
}

func parseStartDate(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, finance.NewValidationError("startDate", fmt.Sprintf("malformed date %q, want YYYY-MM-DD", raw))
	}
	return t, nil
}
