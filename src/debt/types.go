package debt

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atlasfin/engine/src/finance"
)

// DebtType categorizes an account. Presentation and negotiation logic live
// with the callers; the engine only carries the tag through.
type DebtType string

const (
	CreditCard   DebtType = "CREDIT_CARD"
	StudentLoan  DebtType = "STUDENT_LOAN"
	Mortgage     DebtType = "MORTGAGE"
	PersonalLoan DebtType = "PERSONAL_LOAN"
	Auto         DebtType = "AUTO"
	Other        DebtType = "OTHER"
)

// ParseDebtType maps a wire debt type onto the enum.
func ParseDebtType(s string) (DebtType, error) {
	switch DebtType(s) {
	case CreditCard, StudentLoan, Mortgage, PersonalLoan, Auto, Other:
		return DebtType(s), nil
	default:
		return "", finance.NewValidationError("debtType", fmt.Sprintf("unsupported debt type %q", s))
	}
}

// Strategy selects the payoff priority function.
type Strategy string

const (
	Snowball  Strategy = "SNOWBALL"
	Avalanche Strategy = "AVALANCHE"
	Custom    Strategy = "CUSTOM"
)

// ParseStrategy maps a wire strategy onto the enum.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Snowball, Avalanche, Custom:
		return Strategy(s), nil
	default:
		return "", finance.NewValidationError("strategy", fmt.Sprintf("unsupported strategy %q", s))
	}
}

// Account is a single debt as supplied by the caller. The engine never
// mutates an Account; simulations derive a PaymentPlan instead.
type Account struct {
	ID             uuid.UUID
	Name           string
	Type           DebtType
	Balance        finance.Money
	InterestRate   finance.Rate
	MinimumPayment finance.Money
}

// ScheduleItem is one debt's payment in one month of the plan.
type ScheduleItem struct {
	Month            int
	DebtName         string
	Payment          finance.Money
	Principal        finance.Money
	Interest         finance.Money
	RemainingBalance finance.Money
}

// PaymentPlan is the read-only result of a payoff simulation.
type PaymentPlan struct {
	Strategy      Strategy
	Schedule      []ScheduleItem
	TotalInterest finance.Money
	TotalPaid     finance.Money
	Months        int
	PayoffDate    time.Time
}

// Comparison pairs the two canonical strategies over identical inputs so a
// caller can present a side-by-side choice.
type Comparison struct {
	Snowball    PaymentPlan
	Avalanche   PaymentPlan
	Recommended Strategy

	// InterestDelta is snowball's total interest minus avalanche's; it is
	// never negative (avalanche is mathematically optimal).
	InterestDelta finance.Money

	// Savings of the recommended strategy against paying minimums only.
	InterestSavingsVsMinimum finance.Money
	TimeSavedVsMinimumMonths int
}
