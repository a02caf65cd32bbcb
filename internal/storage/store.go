// Package storage persists the plan's source data: the debt list, the
// single settings row, and both override kinds. Three backends share
// one Store contract: sqlite (the default), postgres, and an in-memory
// store for tests and throwaway runs.
package storage

import (
	"context"
	"errors"

	"debtplan/internal/core"
	"debtplan/internal/simulation"
)

var (
	// ErrNotFound is returned when a row the caller addressed by id
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReorder is returned when a reorder request names an
	// unknown debt or names one twice.
	ErrInvalidReorder = errors.New("invalid reorder request")
)

// Store is the persistence contract the service layer works against.
// Writes persist exactly what they are given; validation happens
// before the store is reached.
type Store interface {
	ListDebts(ctx context.Context) ([]core.Debt, error)
	GetDebt(ctx context.Context, id int64) (core.Debt, error)
	CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
	UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
	DeleteDebt(ctx context.Context, id int64) error

	// ReorderDebts moves the listed debts to the front in the given
	// order; debts not listed keep their relative order after them.
	ReorderDebts(ctx context.Context, ids []int64) ([]core.Debt, error)

	// GetSettings seeds and returns a default row (avalanche, zero
	// budget, balance date today) the first time it is called.
	GetSettings(ctx context.Context) (core.Settings, error)
	UpdateSettings(ctx context.Context, s core.Settings) (core.Settings, error)

	ListScheduleOverrides(ctx context.Context) ([]core.ScheduleOverride, error)
	UpsertScheduleOverride(ctx context.Context, o core.ScheduleOverride) error
	DeleteScheduleOverride(ctx context.Context, monthIndex int) error

	// ListPaymentOverrides returns the pinned payments, all of them
	// when monthIndex is zero or negative.
	ListPaymentOverrides(ctx context.Context, monthIndex int) ([]core.PaymentOverride, error)

	// ReplacePaymentOverrides swaps the month's pinned payments for
	// the given set. An empty set clears the month.
	ReplacePaymentOverrides(ctx context.Context, monthIndex int, overrides []core.PaymentOverride) ([]core.PaymentOverride, error)
	DeletePaymentOverride(ctx context.Context, monthIndex int, debtID int64) error

	// Snapshot assembles one consistent engine input from the stored
	// state.
	Snapshot(ctx context.Context) (simulation.Input, error)

	Close() error
}

// defaultSettings is what GetSettings returns before the user stores
// anything: no budget, conventional strategy, plan starting today.
func defaultSettings(today core.Date) core.Settings {
	return core.Settings{
		BalanceDate:   today,
		MonthlyBudget: core.Money{},
		Strategy:      core.StrategyAvalanche,
	}
}
