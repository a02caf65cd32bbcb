package sheets

import (
	"debtplan/internal/core"
	"debtplan/internal/simulation"
)

// ScheduleRows flattens a simulation result into spreadsheet rows: a
// header, one row per month, and a totals row. Debt columns follow the
// strategy order of result.Debts.
func ScheduleRows(result *simulation.Result) [][]any {
	header := []any{"Month", "Date", "Interest", "Snowball", "Extra"}
	for _, d := range result.Debts {
		header = append(header, d.Creditor)
	}
	header = append(header, "Remaining")

	rows := make([][]any, 0, len(result.Months)+2)
	rows = append(rows, header)

	for _, m := range result.Months {
		row := []any{
			m.MonthLabel,
			m.DateISO,
			m.InterestAccrued.String(),
			m.SnowballAmount.String(),
			m.AdditionalAmount.String(),
		}
		var remaining int64
		for _, d := range result.Debts {
			row = append(row, m.Payments[d.ID].String())
			remaining += m.RemainingBalances[d.ID].Cents
		}
		row = append(row, core.Money{Cents: remaining}.String())
		rows = append(rows, row)
	}

	// Per debt, lifetime cost is principal plus the interest it accrued.
	totals := []any{"Total", "", result.Totals.TotalInterest.String(), "", ""}
	for _, d := range result.Debts {
		paid := core.Money{Cents: d.InitialBalance.Cents + d.InterestPaid.Cents}
		totals = append(totals, paid.String())
	}
	totals = append(totals, core.Money{}.String())
	rows = append(rows, totals)

	return rows
}
