// Package simulation implements the amortization engine that turns a
// snapshot of debts, settings, and overrides into a month-by-month
// payoff schedule.
//
// A run is a pure, synchronous computation: it starts from the
// caller-supplied snapshot, keeps its own working balances, and holds
// nothing between invocations. Concurrent runs are safe as long as each
// gets its own Input.
package simulation

import (
	"errors"

	"debtplan/internal/core"
)

// DefaultMaxMonths caps a run when feasibility slipped past validation.
// Hitting it is reported as ErrMonthLimit, never as a truncated result.
const DefaultMaxMonths = 1200

var (
	// ErrInvalidInput marks a snapshot that violates its domain before
	// any month is simulated.
	ErrInvalidInput = errors.New("invalid simulation input")

	// ErrBudgetTooLow means the monthly budget cannot cover the sum of
	// minimum payments, so the plan can never close.
	ErrBudgetTooLow = errors.New("monthly budget is less than the sum of minimum payments")

	// ErrMonthLimit means the month ceiling was hit with open balances.
	ErrMonthLimit = errors.New("simulation exceeded the month limit without paying off all debts")
)

// Input is the engine's boundary snapshot. The caller is responsible
// for it being internally consistent (one storage read per run).
type Input struct {
	Settings         core.Settings           `json:"settings"`
	Debts            []core.Debt             `json:"debts"`
	Overrides        []core.ScheduleOverride `json:"overrides,omitempty"`
	PaymentOverrides []core.PaymentOverride  `json:"paymentOverrides,omitempty"`
}

// Options tune engine behavior not covered by stored settings.
type Options struct {
	// SnowballByInterest switches the snowball strategy's primary key
	// from lowest balance to lowest current monthly interest cost.
	SnowballByInterest bool

	// MaxMonths overrides DefaultMaxMonths when positive.
	MaxMonths int
}

// Result is the full output snapshot for one run.
type Result struct {
	Months []MonthRecord `json:"months"`
	Debts  []DebtSummary `json:"debts"`
	Totals Totals        `json:"totals"`
}

// MonthRecord captures one simulated month. SnowballAmount is the
// discretionary pool available that month (initial snowball plus freed
// minimums plus the month's override); in every month except possibly
// the last it is also the amount applied.
type MonthRecord struct {
	MonthIndex        int                  `json:"monthIndex"`
	MonthLabel        string               `json:"monthLabel"`
	DateISO           string               `json:"dateISO"`
	InterestAccrued   core.Money           `json:"interestAccrued"`
	SnowballAmount    core.Money           `json:"snowballAmount"`
	AdditionalAmount  core.Money           `json:"additionalAmount"`
	DefaultPayments   map[int64]core.Money `json:"defaultPayments"`
	Payments          map[int64]core.Money `json:"payments"`
	RemainingBalances map[int64]core.Money `json:"remainingBalances"`
	Warnings          []string             `json:"paymentOverrideWarnings,omitempty"`
}

// DebtSummary aggregates one debt's lifetime, in initial strategy order.
type DebtSummary struct {
	ID               int64      `json:"id"`
	Creditor         string     `json:"creditor"`
	InitialBalance   core.Money `json:"initialBalance"`
	InterestPaid     core.Money `json:"interestPaid"`
	MonthsToPayoff   int        `json:"monthsToPayoff"`
	PayoffMonthLabel string     `json:"payoffMonthLabel,omitempty"`
}

type Totals struct {
	TotalInterest core.Money `json:"totalInterest"`
	TotalMonths   int        `json:"totalMonths"`
	// MinPaymentsSum and MinimumMonthlyPayment carry the same value;
	// both names are part of the output contract.
	MinPaymentsSum        core.Money `json:"minPaymentsSum"`
	MinimumMonthlyPayment core.Money `json:"minimumMonthlyPayment"`
	InitialSnowball       core.Money `json:"initialSnowball"`
}
