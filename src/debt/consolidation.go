package debt

import (
	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

// ConsolidationType names a way of rolling several debts into one.
type ConsolidationType string

const (
	PersonalLoanConsolidation ConsolidationType = "PERSONAL_LOAN"
	BalanceTransfer           ConsolidationType = "BALANCE_TRANSFER"
	HomeEquityLoan            ConsolidationType = "HOME_EQUITY_LOAN"
)

// RiskLevel grades how much an opportunity can hurt when it goes wrong.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

const (
	personalLoanTermMonths = 60
	homeEquityTermMonths   = 120
	homeEquityRatePoints   = "7.5"

	// introPeriodMonths is the typical 0% APR window on a balance
	// transfer card; the savings figure counts the interest the cards
	// would have accrued during it.
	introPeriodMonths = 18
)

var (
	// minConsolidationBalance is the smallest combined debt worth
	// consolidating, in whatever currency the debts carry.
	minConsolidationBalance = decimal.NewFromInt(5000)

	// maxPaymentToIncome is the 36% debt-to-income ceiling lenders
	// apply to the consolidated payment.
	maxPaymentToIncome = decimal.NewFromFloat(0.36)

	balanceTransferFeeRate = decimal.NewFromFloat(0.03)
	cardMinimumPaymentRate = decimal.NewFromFloat(0.025)
)

// ConsolidationOpportunity is one candidate way to restructure the debt
// set, with its estimated terms and what it saves against paying the
// existing minimums.
type ConsolidationOpportunity struct {
	Type                ConsolidationType
	ConsolidatedBalance finance.Money
	NewRate             finance.Rate
	NewMonthlyPayment   finance.Money
	InterestSavings     finance.Money
	TimeSavedMonths     int

	// TransferFee is set for balance transfers only.
	TransferFee finance.Money

	Requirements  []string
	Advantages    []string
	Disadvantages []string
	Risk          RiskLevel

	// Score is a 0-100 recommendation score for ordering opportunities.
	Score decimal.Decimal
}

// AnalyzeConsolidation surveys the debt set for consolidation options: a
// fixed-term personal loan, a balance transfer across the credit cards,
// and a home equity loan. An option only appears when its estimated rate
// beats the balance-weighted average of the existing debts and the new
// payment stays inside the debt-to-income ceiling. creditScore drives the
// rate estimates; pass 0 when it is unknown.
func AnalyzeConsolidation(accounts []Account, monthlyIncome finance.Money, creditScore int) ([]ConsolidationOpportunity, error) {
	if !monthlyIncome.IsPositive() {
		return nil, finance.NewValidationError("monthlyIncome", "must be positive")
	}
	if creditScore < 0 {
		return nil, finance.NewValidationError("creditScore", "must not be negative")
	}
	if len(accounts) == 0 {
		return []ConsolidationOpportunity{}, nil
	}

	currency := monthlyIncome.Currency()
	debts, err := buildSimDebts(accounts, currency)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.balance)
	}
	if total.Cmp(minConsolidationBalance) < 0 {
		return []ConsolidationOpportunity{}, nil
	}

	weighted := weightedAnnualRate(accounts, total)
	baselineInterest, baselineMonths, err := minimumOnlyBaseline(accounts, currency)
	if err != nil {
		return nil, err
	}
	baseline := baselineInterest.Amount()

	opportunities := []ConsolidationOpportunity{}

	personal, err := personalLoanOpportunity(total, weighted, baseline, baselineMonths, monthlyIncome, creditScore, currency)
	if err != nil {
		return nil, err
	}
	if personal != nil {
		opportunities = append(opportunities, *personal)
	}

	transfer, err := balanceTransferOpportunity(accounts, creditScore, currency)
	if err != nil {
		return nil, err
	}
	if transfer != nil {
		opportunities = append(opportunities, *transfer)
	}

	homeEquity, err := homeEquityOpportunity(total, weighted, baseline, baselineMonths, monthlyIncome, currency)
	if err != nil {
		return nil, err
	}
	if homeEquity != nil {
		opportunities = append(opportunities, *homeEquity)
	}

	return opportunities, nil
}

func personalLoanOpportunity(total, weighted, baselineInterest decimal.Decimal, baselineMonths int, income finance.Money, creditScore int, currency finance.Currency) (*ConsolidationOpportunity, error) {
	pct, err := finance.FromPercent(personalLoanRatePoints(creditScore))
	if err != nil {
		return nil, err
	}
	annual := pct.AsDecimal()
	if annual.Cmp(weighted) >= 0 {
		return nil, nil
	}

	payment := amortizedPayment(total, annual, personalLoanTermMonths).Round(finance.MoneyScale)
	if payment.Div(income.Amount()).Cmp(maxPaymentToIncome) > 0 {
		return nil, nil
	}

	newInterest := payment.Mul(decimal.NewFromInt(personalLoanTermMonths)).Sub(total)
	savings := baselineInterest.Sub(newInterest)
	if savings.IsNegative() {
		savings = decimal.Zero
	}
	timeSaved := baselineMonths - personalLoanTermMonths
	if timeSaved < 0 {
		timeSaved = 0
	}

	balanceMoney, err := finance.NewMoneyFromDecimal(total, currency)
	if err != nil {
		return nil, err
	}
	paymentMoney, err := finance.NewMoneyFromDecimal(payment, currency)
	if err != nil {
		return nil, err
	}
	savingsMoney, err := finance.NewMoneyFromDecimal(savings.Round(finance.MoneyScale), currency)
	if err != nil {
		return nil, err
	}

	return &ConsolidationOpportunity{
		Type:                PersonalLoanConsolidation,
		ConsolidatedBalance: balanceMoney,
		NewRate:             finance.NewRate(pct, finance.Annual),
		NewMonthlyPayment:   paymentMoney,
		InterestSavings:     savingsMoney,
		TimeSavedMonths:     timeSaved,
		TransferFee:         finance.ZeroMoney(currency),
		Requirements: []string{
			"Good to excellent credit (650+ score)",
			"Stable employment history",
			"Debt-to-income ratio below 36%",
		},
		Advantages: []string{
			"Fixed interest rate",
			"Predictable monthly payment",
			"Single payment simplification",
		},
		Disadvantages: []string{
			"Origination fees possible",
			"Temptation to accumulate new debt",
		},
		Risk:  RiskLow,
		Score: decimal.NewFromInt(85),
	}, nil
}

func balanceTransferOpportunity(accounts []Account, creditScore int, currency finance.Currency) (*ConsolidationOpportunity, error) {
	var cards []Account
	for _, acc := range accounts {
		if acc.Type == CreditCard {
			cards = append(cards, acc)
		}
	}
	if len(cards) == 0 {
		return nil, nil
	}

	debts, err := buildSimDebts(cards, currency)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.balance)
	}

	pct, err := finance.FromPercent(balanceTransferRatePoints(creditScore))
	if err != nil {
		return nil, err
	}

	fee := total.Mul(balanceTransferFeeRate).Round(finance.MoneyScale)
	payment := total.Mul(cardMinimumPaymentRate).Round(finance.MoneyScale)

	// Savings are the card interest the 0% intro window absorbs, net of
	// the transfer fee.
	savings := minimumOnlyInterest(debts, introPeriodMonths).Sub(fee)
	if savings.IsNegative() {
		savings = decimal.Zero
	}

	balanceMoney, err := finance.NewMoneyFromDecimal(total, currency)
	if err != nil {
		return nil, err
	}
	paymentMoney, err := finance.NewMoneyFromDecimal(payment, currency)
	if err != nil {
		return nil, err
	}
	feeMoney, err := finance.NewMoneyFromDecimal(fee, currency)
	if err != nil {
		return nil, err
	}
	savingsMoney, err := finance.NewMoneyFromDecimal(savings, currency)
	if err != nil {
		return nil, err
	}

	return &ConsolidationOpportunity{
		Type:                BalanceTransfer,
		ConsolidatedBalance: balanceMoney,
		NewRate:             finance.NewRate(pct, finance.Annual),
		NewMonthlyPayment:   paymentMoney,
		InterestSavings:     savingsMoney,
		TimeSavedMonths:     0,
		TransferFee:         feeMoney,
		Requirements: []string{
			"Good credit score (700+ preferred)",
			"Available credit limit on the new card",
			"Discipline to not accumulate new debt",
		},
		Advantages: []string{
			"0% APR during the intro period",
			"All credit card debt in one place",
		},
		Disadvantages: []string{
			"3% transfer fee",
			"High rate after the intro period",
			"Temptation to use the old cards again",
		},
		Risk:  RiskModerate,
		Score: decimal.NewFromInt(75),
	}, nil
}

func homeEquityOpportunity(total, weighted, baselineInterest decimal.Decimal, baselineMonths int, income finance.Money, currency finance.Currency) (*ConsolidationOpportunity, error) {
	pct, err := finance.NewPercentFromString(homeEquityRatePoints)
	if err != nil {
		return nil, err
	}
	annual := pct.AsDecimal()
	if annual.Cmp(weighted) >= 0 {
		return nil, nil
	}

	payment := amortizedPayment(total, annual, homeEquityTermMonths).Round(finance.MoneyScale)
	if payment.Div(income.Amount()).Cmp(maxPaymentToIncome) > 0 {
		return nil, nil
	}

	newInterest := payment.Mul(decimal.NewFromInt(homeEquityTermMonths)).Sub(total)
	savings := baselineInterest.Sub(newInterest)
	if savings.IsNegative() {
		savings = decimal.Zero
	}
	timeSaved := baselineMonths - homeEquityTermMonths
	if timeSaved < 0 {
		timeSaved = 0
	}

	balanceMoney, err := finance.NewMoneyFromDecimal(total, currency)
	if err != nil {
		return nil, err
	}
	paymentMoney, err := finance.NewMoneyFromDecimal(payment, currency)
	if err != nil {
		return nil, err
	}
	savingsMoney, err := finance.NewMoneyFromDecimal(savings.Round(finance.MoneyScale), currency)
	if err != nil {
		return nil, err
	}

	return &ConsolidationOpportunity{
		Type:                HomeEquityLoan,
		ConsolidatedBalance: balanceMoney,
		NewRate:             finance.NewRate(pct, finance.Annual),
		NewMonthlyPayment:   paymentMoney,
		InterestSavings:     savingsMoney,
		TimeSavedMonths:     timeSaved,
		TransferFee:         finance.ZeroMoney(currency),
		Requirements: []string{
			"Home ownership with sufficient equity",
			"Home appraisal required",
			"Stable income verification",
		},
		Advantages: []string{
			"Typically the lowest interest rates",
			"Longer repayment terms available",
		},
		Disadvantages: []string{
			"Home as collateral, foreclosure risk",
			"Closing costs and appraisal fees",
			"May extend the repayment period",
		},
		Risk:  RiskHigh,
		Score: decimal.NewFromInt(60),
	}, nil
}

// weightedAnnualRate is the balance-weighted average of the debts' annual
// rates as a fraction (0.14 is 14%).
func weightedAnnualRate(accounts []Account, totalBalance decimal.Decimal) decimal.Decimal {
	if totalBalance.IsZero() {
		return decimal.Zero
	}
	weighted := decimal.Zero
	for _, acc := range accounts {
		weight := acc.Balance.Amount().Div(totalBalance)
		annual := acc.InterestRate.ConvertToPeriod(finance.Annual).PeriodicDecimal()
		weighted = weighted.Add(weight.Mul(annual))
	}
	return weighted
}

// amortizedPayment is the level monthly payment that retires principal at
// the given annual rate over the given term.
func amortizedPayment(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	n := decimal.NewFromInt(int64(months))
	if annualRate.IsZero() {
		return principal.Div(n)
	}
	monthly := annualRate.Div(decimal.NewFromInt(12))
	factor := decimal.NewFromInt(1).Add(monthly).Pow(n)
	return principal.Mul(monthly).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1)))
}

// minimumOnlyInterest accrues the interest the debts would pay over the
// given number of months under minimum payments alone.
func minimumOnlyInterest(debts []simDebt, months int) decimal.Decimal {
	total := decimal.Zero
	for i := range debts {
		d := debts[i]
		for m := 0; m < months && d.balance.IsPositive(); m++ {
			interest := d.balance.Mul(d.monthlyRate).Round(finance.MoneyScale)
			payment := decimal.Min(d.minPayment, d.balance.Add(interest))
			d.balance = d.balance.Add(interest).Sub(payment)
			total = total.Add(interest)
		}
	}
	return total
}

func personalLoanRatePoints(creditScore int) decimal.Decimal {
	switch {
	case creditScore >= 750:
		return decimal.NewFromFloat(8.5)
	case creditScore >= 700:
		return decimal.NewFromFloat(12.0)
	case creditScore >= 650:
		return decimal.NewFromFloat(16.0)
	case creditScore > 0:
		return decimal.NewFromFloat(20.0)
	default:
		// Unknown score, conservative estimate.
		return decimal.NewFromFloat(15.0)
	}
}

func balanceTransferRatePoints(creditScore int) decimal.Decimal {
	switch {
	case creditScore >= 750:
		return decimal.NewFromFloat(15.9)
	case creditScore >= 700:
		return decimal.NewFromFloat(18.9)
	case creditScore >= 650:
		return decimal.NewFromFloat(22.9)
	case creditScore > 0:
		return decimal.NewFromFloat(25.9)
	default:
		return decimal.NewFromFloat(21.9)
	}
}
