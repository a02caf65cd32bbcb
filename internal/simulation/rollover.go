package simulation

// distribute walks the debts in strategy order and pays each open one
// up to its remaining balance until the pool is exhausted. It mutates
// the balances and returns the payments made plus the unspent pool.
//
// Both the redistribution of same-month minimum surplus and the
// application of the discretionary pool go through this one walk, so a
// freed-up euro always lands on the same debt no matter where it came
// from.
func distribute(pool int64, order []*debtState) (map[int64]int64, int64) {
	payments := make(map[int64]int64, len(order))
	for _, d := range order {
		if pool <= 0 {
			break
		}
		if d.balance <= 0 {
			continue
		}
		pay := pool
		if d.balance < pay {
			pay = d.balance
		}
		d.balance -= pay
		payments[d.id] = pay
		pool -= pay
	}
	return payments, pool
}
