package simulation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"debtplan/internal/core"
)

// debtState is the engine's working copy of one debt. Amounts are kept
// in integer cents so repeated payments never drift.
type debtState struct {
	id          int64
	creditor    string
	apr         float64
	minimum     int64
	balance     int64
	initial     int64
	interest    int64
	payoffMonth int
}

// monthlyInterest returns one month of interest in cents on a balance
// at the given annual percentage rate, rounded half up to the cent.
func monthlyInterest(balance int64, apr float64) int64 {
	if balance <= 0 || apr <= 0 {
		return 0
	}
	return decimal.NewFromInt(balance).
		Mul(decimal.NewFromFloat(apr)).
		DivRound(decimal.NewFromInt(1200), 0).
		IntPart()
}

// Run simulates the payoff of every debt in the snapshot and returns
// the month-by-month schedule. It fails atomically: on any error no
// partial schedule is returned.
func Run(in Input, opts Options) (*Result, error) {
	maxMonths := opts.MaxMonths
	if maxMonths <= 0 {
		maxMonths = DefaultMaxMonths
	}

	if err := validate(in); err != nil {
		return nil, err
	}

	var minSum int64
	for _, d := range in.Debts {
		minSum += d.MinimumPayment.Cents
	}
	budget := in.Settings.MonthlyBudget.Cents
	if budget < minSum {
		return nil, ErrBudgetTooLow
	}
	initialSnowball := budget - minSum

	ids, err := Order(in.Debts, in.Settings.Strategy, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	byID := make(map[int64]*debtState, len(in.Debts))
	for _, d := range in.Debts {
		byID[d.ID] = &debtState{
			id:       d.ID,
			creditor: d.Creditor,
			apr:      d.APR,
			minimum:  d.MinimumPayment.Cents,
			balance:  d.Balance.Cents,
			initial:  d.Balance.Cents,
		}
	}
	states := make([]*debtState, len(ids))
	for i, id := range ids {
		states[i] = byID[id]
	}

	extraByMonth := make(map[int]int64, len(in.Overrides))
	for _, o := range in.Overrides {
		extraByMonth[o.MonthIndex] += o.AdditionalAmount.Cents
	}
	pinsByMonth := collectPaymentOverrides(in.PaymentOverrides)

	result := &Result{
		Months: make([]MonthRecord, 0),
		Debts:  make([]DebtSummary, 0, len(states)),
	}

	var freed int64
	monthIndex := 1
	current := in.Settings.BalanceDate

	for anyOpen(states) {
		if monthIndex > maxMonths {
			return nil, fmt.Errorf("%w (%d months)", ErrMonthLimit, maxMonths)
		}

		// Step 1: accrue interest on every open balance.
		var monthInterest int64
		afterInterest := make(map[int64]int64, len(states))
		for _, st := range states {
			if st.balance > 0 {
				accrued := monthlyInterest(st.balance, st.apr)
				st.balance += accrued
				st.interest += accrued
				monthInterest += accrued
			}
			afterInterest[st.id] = st.balance
		}

		payments := make(map[int64]int64, len(states))
		for _, st := range states {
			payments[st.id] = 0
		}

		// Step 2: minimum payments. A debt smaller than its minimum
		// pays what it has; the difference re-enters this month's
		// funds instead of evaporating.
		var surplus int64
		for _, st := range states {
			if st.balance <= 0 {
				continue
			}
			pay := st.minimum
			if st.balance < pay {
				pay = st.balance
			}
			st.balance -= pay
			payments[st.id] += pay
			surplus += st.minimum - pay
		}
		surplusPaid, _ := distribute(surplus, states)
		for id, amt := range surplusPaid {
			payments[id] += amt
		}

		// Steps 3 and 4: the discretionary pool for this month.
		pool := initialSnowball + freed + extraByMonth[monthIndex]
		poolPaid, _ := distribute(pool, states)
		for id, amt := range poolPaid {
			payments[id] += amt
		}

		defaults := make(map[int64]int64, len(payments))
		for id, amt := range payments {
			defaults[id] = amt
		}

		var warnings []string
		if pins := pinsByMonth[monthIndex]; len(pins) > 0 {
			warnings = applyPaymentOverrides(pins, states, byID, afterInterest, defaults, payments)
		}

		result.Months = append(result.Months, MonthRecord{
			MonthIndex:        monthIndex,
			MonthLabel:        current.Label(),
			DateISO:           current.ISO(),
			InterestAccrued:   core.Money{Cents: monthInterest},
			SnowballAmount:    core.Money{Cents: pool},
			AdditionalAmount:  core.Money{Cents: extraByMonth[monthIndex]},
			DefaultPayments:   toMoneyMap(defaults),
			Payments:          toMoneyMap(payments),
			RemainingBalances: balancesMap(states),
			Warnings:          warnings,
		})

		// Minimums freed by payoffs this month join the pool from the
		// next month onward.
		for _, st := range states {
			if st.balance == 0 && st.payoffMonth == 0 {
				st.payoffMonth = monthIndex
				freed += st.minimum
			}
		}

		monthIndex++
		current = in.Settings.BalanceDate.AddMonths(monthIndex - 1)
	}

	summarize(result, states, in.Settings.BalanceDate, minSum, initialSnowball)
	return result, nil
}

func validate(in Input) error {
	if err := in.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: settings: %w", ErrInvalidInput, err)
	}
	seen := make(map[int64]struct{}, len(in.Debts))
	for _, d := range in.Debts {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: debt %d: %w", ErrInvalidInput, d.ID, err)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("%w: duplicate debt id %d", ErrInvalidInput, d.ID)
		}
		seen[d.ID] = struct{}{}
		if in.Settings.Strategy == core.StrategyCustom && d.CustomPriority == nil {
			return fmt.Errorf("%w: debt %d has no priority for the custom strategy", ErrInvalidInput, d.ID)
		}
	}
	for _, o := range in.Overrides {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("%w: override for month %d: %w", ErrInvalidInput, o.MonthIndex, err)
		}
	}
	return nil
}

// collectPaymentOverrides groups pinned payments by month, dropping
// entries the engine is specified to ignore. Each month's pins are
// sorted by debt id so warning order is stable.
func collectPaymentOverrides(pins []core.PaymentOverride) map[int][]core.PaymentOverride {
	byMonth := make(map[int][]core.PaymentOverride)
	for _, p := range pins {
		if p.MonthIndex < 1 || p.Amount.IsNegative() {
			continue
		}
		byMonth[p.MonthIndex] = append(byMonth[p.MonthIndex], p)
	}
	for _, list := range byMonth {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].DebtID < list[j].DebtID
		})
	}
	return byMonth
}

// applyPaymentOverrides replaces this month's computed payments with
// user-pinned amounts. Pins are capped at the debt's balance after
// interest, and balances are recomputed from that snapshot so a
// reduced payment leaves the difference on the debt. The returned
// warnings describe every deviation from the default plan.
func applyPaymentOverrides(pins []core.PaymentOverride, states []*debtState, byID map[int64]*debtState, afterInterest, defaults, payments map[int64]int64) []string {
	var warnings []string
	for _, p := range pins {
		st, ok := byID[p.DebtID]
		if !ok {
			continue
		}
		amount := p.Amount.Cents
		if limit := afterInterest[st.id]; amount > limit {
			warnings = append(warnings, fmt.Sprintf("Override for debt %d capped at remaining balance.", st.id))
			amount = limit
		}
		payments[st.id] = amount
	}

	var defaultTotal, finalTotal int64
	for _, amt := range defaults {
		defaultTotal += amt
	}
	for _, amt := range payments {
		finalTotal += amt
	}
	switch {
	case finalTotal > defaultTotal:
		need := core.Money{Cents: finalTotal - defaultTotal}
		warnings = append(warnings, fmt.Sprintf("Overrides require more funds than available; need an additional $%s.", need))
	case finalTotal < defaultTotal:
		warnings = append(warnings, "Overrides reduced payments; remaining budget left unallocated.")
	}

	for _, st := range states {
		st.balance = afterInterest[st.id] - payments[st.id]
	}
	return warnings
}
