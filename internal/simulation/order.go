package simulation

import (
	"sort"
	"strings"

	"debtplan/internal/core"
)

// unsetPriority sorts debts without a custom priority after every debt
// that has one. Run rejects such debts under the custom strategy, so
// the sentinel only matters for callers ordering ad hoc lists.
const unsetPriority = 1 << 30

// Order returns debt ids in payoff priority for the given strategy.
// The ordering is computed once from the input balances and never
// re-evaluated mid-run, so debts whose relative balances cross during
// the simulation keep their original priority.
func Order(debts []core.Debt, strategy core.Strategy, opts Options) ([]int64, error) {
	var less func(a, b core.Debt) bool
	switch strategy {
	case core.StrategyAvalanche:
		less = lessAvalanche
	case core.StrategySnowball:
		less = lessSnowball
		if opts.SnowballByInterest {
			less = lessSnowballByInterest
		}
	case core.StrategyEntered:
		less = lessEntered
	case core.StrategyCustom:
		less = lessCustom
	default:
		return nil, core.ErrInvalidStrategy
	}

	ordered := make([]core.Debt, len(debts))
	copy(ordered, debts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return less(ordered[i], ordered[j])
	})

	ids := make([]int64, len(ordered))
	for i, d := range ordered {
		ids[i] = d.ID
	}
	return ids, nil
}

// lessAvalanche prefers the highest APR, breaking ties by smaller
// balance and then by creditor name.
func lessAvalanche(a, b core.Debt) bool {
	if a.APR != b.APR {
		return a.APR > b.APR
	}
	if a.Balance.Cents != b.Balance.Cents {
		return a.Balance.Cents < b.Balance.Cents
	}
	return creditorKey(a) < creditorKey(b)
}

// lessSnowball prefers the smallest balance, breaking ties by higher
// APR and then by creditor name.
func lessSnowball(a, b core.Debt) bool {
	if a.Balance.Cents != b.Balance.Cents {
		return a.Balance.Cents < b.Balance.Cents
	}
	if a.APR != b.APR {
		return a.APR > b.APR
	}
	return creditorKey(a) < creditorKey(b)
}

// lessSnowballByInterest prefers the smallest current monthly interest
// cost, breaking ties by smaller balance and then by creditor name.
func lessSnowballByInterest(a, b core.Debt) bool {
	ca := monthlyInterest(a.Balance.Cents, a.APR)
	cb := monthlyInterest(b.Balance.Cents, b.APR)
	if ca != cb {
		return ca < cb
	}
	if a.Balance.Cents != b.Balance.Cents {
		return a.Balance.Cents < b.Balance.Cents
	}
	return creditorKey(a) < creditorKey(b)
}

func lessEntered(a, b core.Debt) bool {
	return a.Position < b.Position
}

// lessCustom orders by user-assigned priority, lowest first.
func lessCustom(a, b core.Debt) bool {
	pa, pb := priorityOf(a), priorityOf(b)
	if pa != pb {
		return pa < pb
	}
	if a.Balance.Cents != b.Balance.Cents {
		return a.Balance.Cents < b.Balance.Cents
	}
	return creditorKey(a) < creditorKey(b)
}

func priorityOf(d core.Debt) int {
	if d.CustomPriority == nil {
		return unsetPriority
	}
	return *d.CustomPriority
}

func creditorKey(d core.Debt) string {
	return strings.ToLower(d.Creditor)
}
