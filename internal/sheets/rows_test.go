package sheets

import (
	"reflect"
	"testing"

	"debtplan/internal/core"
	"debtplan/internal/simulation"
)

func twoDebtResult() *simulation.Result {
	return &simulation.Result{
		Months: []simulation.MonthRecord{
			{
				MonthIndex:       1,
				MonthLabel:       "Feb 2024",
				DateISO:          "2024-02-15",
				InterestAccrued:  core.Money{Cents: 150},
				SnowballAmount:   core.Money{Cents: 5000},
				AdditionalAmount: core.Money{Cents: 0},
				Payments: map[int64]core.Money{
					1: {Cents: 7500},
					2: {Cents: 2500},
				},
				RemainingBalances: map[int64]core.Money{
					1: {Cents: 2650},
					2: {Cents: 17500},
				},
			},
			{
				MonthIndex:       2,
				MonthLabel:       "Mar 2024",
				DateISO:          "2024-03-15",
				InterestAccrued:  core.Money{Cents: 90},
				SnowballAmount:   core.Money{Cents: 5000},
				AdditionalAmount: core.Money{Cents: 1000},
				Payments: map[int64]core.Money{
					1: {Cents: 2690},
					2: {Cents: 8400},
				},
				RemainingBalances: map[int64]core.Money{
					1: {Cents: 0},
					2: {Cents: 9190},
				},
			},
		},
		Debts: []simulation.DebtSummary{
			{ID: 1, Creditor: "Visa", InitialBalance: core.Money{Cents: 10000}, InterestPaid: core.Money{Cents: 190}, MonthsToPayoff: 2},
			{ID: 2, Creditor: "Car Loan", InitialBalance: core.Money{Cents: 20000}, InterestPaid: core.Money{Cents: 140}, MonthsToPayoff: 4},
		},
		Totals: simulation.Totals{
			TotalInterest: core.Money{Cents: 330},
			TotalMonths:   4,
		},
	}
}

func TestScheduleRows_Layout(t *testing.T) {
	rows := ScheduleRows(twoDebtResult())

	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4 (header, 2 months, totals)", len(rows))
	}

	wantHeader := []any{"Month", "Date", "Interest", "Snowball", "Extra", "Visa", "Car Loan", "Remaining"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}

	wantFirst := []any{"Feb 2024", "2024-02-15", "1.50", "50.00", "0.00", "75.00", "25.00", "201.50"}
	if !reflect.DeepEqual(rows[1], wantFirst) {
		t.Errorf("first month row = %v, want %v", rows[1], wantFirst)
	}

	wantTotals := []any{"Total", "", "3.30", "", "", "101.90", "201.40", "0.00"}
	if !reflect.DeepEqual(rows[3], wantTotals) {
		t.Errorf("totals row = %v, want %v", rows[3], wantTotals)
	}
}

func TestScheduleRows_ColumnsFollowDebtOrder(t *testing.T) {
	result := twoDebtResult()
	result.Debts[0], result.Debts[1] = result.Debts[1], result.Debts[0]

	rows := ScheduleRows(result)

	if rows[0][5] != "Car Loan" || rows[0][6] != "Visa" {
		t.Errorf("header debt columns = %v, %v, want Car Loan, Visa", rows[0][5], rows[0][6])
	}
	if rows[1][5] != "25.00" || rows[1][6] != "75.00" {
		t.Errorf("first month payments = %v, %v, want 25.00, 75.00", rows[1][5], rows[1][6])
	}
}

func TestScheduleRows_EmptyResult(t *testing.T) {
	rows := ScheduleRows(&simulation.Result{})

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header and totals only", len(rows))
	}
	wantHeader := []any{"Month", "Date", "Interest", "Snowball", "Extra", "Remaining"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}
}
