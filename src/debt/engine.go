package debt

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlasfin/engine/src/finance"
)

// maxPayoffMonths caps every payoff simulation at 50 years. A plan that
// runs past the cap is reported as unpayable rather than unbounded.
const maxPayoffMonths = 600

// minimumOnlyCapMonths caps the minimum-payments-only baseline. The
// baseline is a comparison figure, not a plan, so it is allowed a longer
// horizon (long mortgages are payable on minimums alone, just slowly).
const minimumOnlyCapMonths = 1200

// OptimizeSnowball builds a payoff plan prioritizing the smallest balance
// first. Ties keep the caller's input order.
func OptimizeSnowball(accounts []Account, extraPayment finance.Money, start time.Time) (PaymentPlan, error) {
	return optimize(Snowball, accounts, extraPayment, decimal.Zero, start)
}

// OptimizeAvalanche builds a payoff plan prioritizing the highest interest
// rate first. Ties break by ascending balance, then input order.
func OptimizeAvalanche(accounts []Account, extraPayment finance.Money, start time.Time) (PaymentPlan, error) {
	return optimize(Avalanche, accounts, extraPayment, decimal.Zero, start)
}

// OptimizeCustom blends the snowball and avalanche priority orders.
// weight is the snowball share in [0, 1]: 1 reproduces pure snowball,
// 0 pure avalanche. The blend ranks each debt under both orderings and
// sorts by the weighted average rank.
func OptimizeCustom(accounts []Account, extraPayment finance.Money, weight decimal.Decimal, start time.Time) (PaymentPlan, error) {
	if weight.IsNegative() || weight.Cmp(decimal.NewFromInt(1)) > 0 {
		return PaymentPlan{}, finance.NewValidationError("strategyWeight", "must be between 0 and 1")
	}
	return optimize(Custom, accounts, extraPayment, weight, start)
}

// Compare runs snowball and avalanche over identical inputs and derives
// the savings of the recommended strategy against a minimum-payments-only
// baseline. Avalanche is recommended whenever it saves interest; on exact
// ties snowball wins for its earlier payoffs.
func Compare(accounts []Account, extraPayment finance.Money, start time.Time) (Comparison, error) {
	snowball, err := OptimizeSnowball(accounts, extraPayment, start)
	if err != nil {
		return Comparison{}, err
	}
	avalanche, err := OptimizeAvalanche(accounts, extraPayment, start)
	if err != nil {
		return Comparison{}, err
	}

	delta, err := snowball.TotalInterest.Sub(avalanche.TotalInterest)
	if err != nil {
		return Comparison{}, err
	}

	recommended := Snowball
	plan := snowball
	if delta.IsPositive() {
		recommended = Avalanche
		plan = avalanche
	}

	currency := extraPayment.Currency()
	minInterest, minMonths, err := minimumOnlyBaseline(accounts, currency)
	if err != nil {
		return Comparison{}, err
	}

	savings, err := minInterest.Sub(plan.TotalInterest)
	if err != nil {
		return Comparison{}, err
	}
	if savings.IsNegative() {
		savings = finance.ZeroMoney(currency)
	}
	timeSaved := minMonths - plan.Months
	if timeSaved < 0 {
		timeSaved = 0
	}

	return Comparison{
		Snowball:                 snowball,
		Avalanche:                avalanche,
		Recommended:              recommended,
		InterestDelta:            delta,
		InterestSavingsVsMinimum: savings,
		TimeSavedVsMinimumMonths: timeSaved,
	}, nil
}

// simDebt is the engine's working copy of an account. Accounts themselves
// are never mutated.
type simDebt struct {
	idx         int
	name        string
	balance     decimal.Decimal
	minPayment  decimal.Decimal
	monthlyRate decimal.Decimal
}

func optimize(strategy Strategy, accounts []Account, extraPayment finance.Money, weight decimal.Decimal, start time.Time) (PaymentPlan, error) {
	currency := extraPayment.Currency()
	if extraPayment.IsNegative() {
		return PaymentPlan{}, finance.NewValidationError("extraPayment", "must not be negative")
	}

	if len(accounts) == 0 {
		return PaymentPlan{
			Strategy:      strategy,
			Schedule:      []ScheduleItem{},
			TotalInterest: finance.ZeroMoney(currency),
			TotalPaid:     finance.ZeroMoney(currency),
			Months:        0,
			PayoffDate:    start,
		}, nil
	}

	debts, err := buildSimDebts(accounts, currency)
	if err != nil {
		return PaymentPlan{}, err
	}

	var priority []int
	switch strategy {
	case Snowball:
		priority = snowballOrder(debts)
	case Avalanche:
		priority = avalancheOrder(debts)
	case Custom:
		priority = blendedOrder(debts, weight)
	}

	return simulate(strategy, debts, priority, extraPayment.Amount(), currency, start)
}

func buildSimDebts(accounts []Account, currency finance.Currency) ([]simDebt, error) {
	debts := make([]simDebt, 0, len(accounts))
	for i, acc := range accounts {
		if acc.Balance.Currency() != currency {
			return nil, finance.NewCurrencyMismatchError(currency, acc.Balance.Currency())
		}
		if acc.MinimumPayment.Currency() != currency {
			return nil, finance.NewCurrencyMismatchError(currency, acc.MinimumPayment.Currency())
		}
		if acc.Balance.IsNegative() {
			return nil, finance.NewValidationError("balance", fmt.Sprintf("debt %q has a negative balance", acc.Name))
		}
		if acc.MinimumPayment.IsNegative() {
			return nil, finance.NewValidationError("minimumPayment", fmt.Sprintf("debt %q has a negative minimum payment", acc.Name))
		}
		if acc.InterestRate.Percentage().IsNegative() {
			return nil, finance.NewValidationError("interestRate", fmt.Sprintf("debt %q has a negative interest rate", acc.Name))
		}

		d := simDebt{
			idx:         i,
			name:        acc.Name,
			balance:     acc.Balance.Amount(),
			minPayment:  acc.MinimumPayment.Amount(),
			monthlyRate: acc.InterestRate.MonthlyDecimal(),
		}

		// A minimum payment that cannot outpace the first month's interest
		// never reduces principal: the payoff date would be unbounded.
		if d.balance.IsPositive() {
			firstInterest := d.balance.Mul(d.monthlyRate).Round(finance.MoneyScale)
			if d.minPayment.Cmp(firstInterest) <= 0 {
				return nil, finance.NewUnpayableDebtError(acc.Name, fmt.Sprintf(
					"minimum payment %s does not cover monthly interest %s",
					acc.MinimumPayment, firstInterest.StringFixed(finance.MoneyScale)))
			}
		}

		debts = append(debts, d)
	}
	return debts, nil
}

// snowballOrder: ascending starting balance, ties by input order.
func snowballOrder(debts []simDebt) []int {
	order := indexSlice(len(debts))
	sort.SliceStable(order, func(a, b int) bool {
		return debts[order[a]].balance.Cmp(debts[order[b]].balance) < 0
	})
	return order
}

// avalancheOrder: descending interest rate, ties by ascending balance,
// then input order.
func avalancheOrder(debts []simDebt) []int {
	order := indexSlice(len(debts))
	sort.SliceStable(order, func(a, b int) bool {
		da, db := debts[order[a]], debts[order[b]]
		if c := da.monthlyRate.Cmp(db.monthlyRate); c != 0 {
			return c > 0
		}
		return da.balance.Cmp(db.balance) < 0
	})
	return order
}

// blendedOrder sorts by weight*snowballRank + (1-weight)*avalancheRank.
// The extremes degenerate to the pure orderings by construction.
func blendedOrder(debts []simDebt, weight decimal.Decimal) []int {
	snow := snowballOrder(debts)
	aval := avalancheOrder(debts)

	snowRank := make([]decimal.Decimal, len(debts))
	avalRank := make([]decimal.Decimal, len(debts))
	for pos, idx := range snow {
		snowRank[idx] = decimal.NewFromInt(int64(pos))
	}
	for pos, idx := range aval {
		avalRank[idx] = decimal.NewFromInt(int64(pos))
	}

	inverse := decimal.NewFromInt(1).Sub(weight)
	score := make([]decimal.Decimal, len(debts))
	for i := range debts {
		score[i] = weight.Mul(snowRank[i]).Add(inverse.Mul(avalRank[i]))
	}

	order := indexSlice(len(debts))
	sort.SliceStable(order, func(a, b int) bool {
		return score[order[a]].Cmp(score[order[b]]) < 0
	})
	return order
}

func indexSlice(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// monthEntry accumulates one debt's payment inside a single month while
// the minimum and priority passes both touch it.
type monthEntry struct {
	payment   decimal.Decimal
	principal decimal.Decimal
	interest  decimal.Decimal
}

// simulate runs the month-by-month payoff. Every month each open debt is
// charged interest and paid its minimum; the remaining budget (extra
// payment plus minimums freed by paid-off debts) cascades down the
// priority order. All amounts stay at 4-digit scale throughout, so the
// result is bit-identical across runs.
func simulate(strategy Strategy, debts []simDebt, priority []int, extra decimal.Decimal, currency finance.Currency, start time.Time) (PaymentPlan, error) {
	totalBudget := extra
	for _, d := range debts {
		totalBudget = totalBudget.Add(d.minPayment)
	}

	var schedule []ScheduleItem
	totalInterest := decimal.Zero
	totalPaid := decimal.Zero
	months := 0

	for months < maxPayoffMonths {
		if allPaid(debts) {
			break
		}
		months++
		available := totalBudget
		entries := make(map[int]*monthEntry, len(debts))

		// Minimum pass: accrue interest and pay minimums on every open debt.
		for i := range debts {
			d := &debts[i]
			if !d.balance.IsPositive() {
				continue
			}
			interest := d.balance.Mul(d.monthlyRate).Round(finance.MoneyScale)
			payoff := d.balance.Add(interest)
			payment := decimal.Min(d.minPayment, payoff)
			if payment.Cmp(available) > 0 {
				payment = available
			}
			principal := payment.Sub(interest)
			if principal.IsNegative() {
				principal = decimal.Zero
			}
			d.balance = d.balance.Add(interest).Sub(payment)
			totalInterest = totalInterest.Add(interest)
			available = available.Sub(payment)
			entries[i] = &monthEntry{payment: payment, principal: principal, interest: interest}
		}

		// Priority pass: cascade the remaining budget down the priority
		// order, paying principal directly.
		for _, idx := range priority {
			if !available.IsPositive() {
				break
			}
			d := &debts[idx]
			if !d.balance.IsPositive() {
				continue
			}
			extraPay := decimal.Min(available, d.balance)
			d.balance = d.balance.Sub(extraPay)
			available = available.Sub(extraPay)

			e := entries[idx]
			if e == nil {
				e = &monthEntry{payment: decimal.Zero, principal: decimal.Zero, interest: decimal.Zero}
				entries[idx] = e
			}
			e.payment = e.payment.Add(extraPay)
			e.principal = e.principal.Add(extraPay)
		}

		// Emit schedule items in input order for a stable layout.
		for i := range debts {
			e := entries[i]
			if e == nil || e.payment.IsZero() {
				continue
			}
			item, err := newScheduleItem(months, debts[i].name, *e, debts[i].balance, currency)
			if err != nil {
				return PaymentPlan{}, err
			}
			schedule = append(schedule, item)
			totalPaid = totalPaid.Add(e.payment)
		}
	}

	if !allPaid(debts) {
		return PaymentPlan{}, finance.NewUnpayableDebtError("", fmt.Sprintf("payoff exceeds %d months", maxPayoffMonths))
	}

	interestMoney, err := finance.NewMoneyFromDecimal(totalInterest, currency)
	if err != nil {
		return PaymentPlan{}, err
	}
	paidMoney, err := finance.NewMoneyFromDecimal(totalPaid, currency)
	if err != nil {
		return PaymentPlan{}, err
	}

	return PaymentPlan{
		Strategy:      strategy,
		Schedule:      schedule,
		TotalInterest: interestMoney,
		TotalPaid:     paidMoney,
		Months:        months,
		PayoffDate:    start.AddDate(0, months, 0),
	}, nil
}

func newScheduleItem(month int, name string, e monthEntry, remaining decimal.Decimal, currency finance.Currency) (ScheduleItem, error) {
	payment, err := finance.NewMoneyFromDecimal(e.payment, currency)
	if err != nil {
		return ScheduleItem{}, err
	}
	principal, err := finance.NewMoneyFromDecimal(e.principal, currency)
	if err != nil {
		return ScheduleItem{}, err
	}
	interest, err := finance.NewMoneyFromDecimal(e.interest, currency)
	if err != nil {
		return ScheduleItem{}, err
	}
	balance, err := finance.NewMoneyFromDecimal(remaining, currency)
	if err != nil {
		return ScheduleItem{}, err
	}
	return ScheduleItem{
		Month:            month,
		DebtName:         name,
		Payment:          payment,
		Principal:        principal,
		Interest:         interest,
		RemainingBalance: balance,
	}, nil
}

func allPaid(debts []simDebt) bool {
	for _, d := range debts {
		if d.balance.IsPositive() {
			return false
		}
	}
	return true
}

// minimumOnlyBaseline simulates each debt independently on its minimum
// payment alone. It is the "do nothing extra" figure the savings numbers
// are quoted against.
func minimumOnlyBaseline(accounts []Account, currency finance.Currency) (finance.Money, int, error) {
	if len(accounts) == 0 {
		return finance.ZeroMoney(currency), 0, nil
	}
	debts, err := buildSimDebts(accounts, currency)
	if err != nil {
		return finance.Money{}, 0, err
	}

	totalInterest := decimal.Zero
	maxMonths := 0
	for i := range debts {
		d := debts[i]
		months := 0
		for d.balance.IsPositive() && months < minimumOnlyCapMonths {
			months++
			interest := d.balance.Mul(d.monthlyRate).Round(finance.MoneyScale)
			payment := decimal.Min(d.minPayment, d.balance.Add(interest))
			d.balance = d.balance.Add(interest).Sub(payment)
			totalInterest = totalInterest.Add(interest)
		}
		if months > maxMonths {
			maxMonths = months
		}
	}

	interestMoney, err := finance.NewMoneyFromDecimal(totalInterest, currency)
	if err != nil {
		return finance.Money{}, 0, err
	}
	return interestMoney, maxMonths, nil
}
