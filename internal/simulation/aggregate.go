package simulation

import "debtplan/internal/core"

func anyOpen(states []*debtState) bool {
	for _, st := range states {
		if st.balance > 0 {
			return true
		}
	}
	return false
}

func toMoneyMap(cents map[int64]int64) map[int64]core.Money {
	out := make(map[int64]core.Money, len(cents))
	for id, amt := range cents {
		out[id] = core.Money{Cents: amt}
	}
	return out
}

func balancesMap(states []*debtState) map[int64]core.Money {
	out := make(map[int64]core.Money, len(states))
	for _, st := range states {
		out[st.id] = core.Money{Cents: st.balance}
	}
	return out
}

// summarize fills the per-debt lifetimes, in strategy order, and the
// run totals. It expects every state to have a payoff month.
func summarize(res *Result, states []*debtState, base core.Date, minSum, initialSnowball int64) {
	var totalInterest int64
	for _, st := range states {
		totalInterest += st.interest
		res.Debts = append(res.Debts, DebtSummary{
			ID:               st.id,
			Creditor:         st.creditor,
			InitialBalance:   core.Money{Cents: st.initial},
			InterestPaid:     core.Money{Cents: st.interest},
			MonthsToPayoff:   st.payoffMonth,
			PayoffMonthLabel: base.AddMonths(st.payoffMonth - 1).Label(),
		})
	}
	res.Totals = Totals{
		TotalInterest:         core.Money{Cents: totalInterest},
		TotalMonths:           len(res.Months),
		MinPaymentsSum:        core.Money{Cents: minSum},
		MinimumMonthlyPayment: core.Money{Cents: minSum},
		InitialSnowball:       core.Money{Cents: initialSnowball},
	}
}
