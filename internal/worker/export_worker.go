// Package worker keeps the exported payoff schedule in sync with the
// stored plan. It rebuilds the simulation from a storage snapshot
// whenever a change notification arrives and on a periodic refresh
// tick, then hands the result to a ScheduleExporter.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"debtplan/internal/amqp"
	"debtplan/internal/sheets"
	"debtplan/internal/simulation"
	"debtplan/internal/storage"
)

// Consumer delivers plan change notifications to a handler. Satisfied
// by *amqp.Client.
type Consumer interface {
	ConsumePlanChanged(ctx context.Context, handler func(*amqp.PlanChangedMessage) error) error
}

// ExportWorker recomputes the schedule from storage and exports it.
type ExportWorker struct {
	store    storage.Store
	exporter sheets.ScheduleExporter
	simOpts  simulation.Options
}

func NewExportWorker(store storage.Store, exporter sheets.ScheduleExporter, simOpts simulation.Options) *ExportWorker {
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		simOpts:  simOpts,
	}
}

// Run exports once at startup to cover notifications missed while the
// worker was down, then consumes change messages and refreshes on a
// timer until ctx is cancelled. An interval of zero disables the
// periodic refresh.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	if err := w.Export(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.ConsumePlanChanged(ctx, func(msg *amqp.PlanChangedMessage) error {
			return w.HandlePlanChanged(ctx, msg)
		})
	})

	if interval > 0 {
		g.Go(func() error {
			w.runPeriodic(ctx, interval)
			return nil
		})
	} else {
		slog.InfoContext(ctx, "Periodic export disabled")
	}

	return g.Wait()
}

// HandlePlanChanged re-exports the schedule in response to one change
// notification. Errors that redelivery cannot fix, a plan that fails
// validation or an infeasible budget, are logged and swallowed so the
// message is acked; storage and export failures propagate so the
// message is requeued.
func (w *ExportWorker) HandlePlanChanged(ctx context.Context, msg *amqp.PlanChangedMessage) error {
	slog.InfoContext(ctx, "Processing plan change",
		"entity", msg.Entity,
		"action", msg.Action)

	err := w.Export(ctx)
	if isPlanStateError(err) {
		slog.WarnContext(ctx, "Plan cannot be simulated, skipping export",
			"entity", msg.Entity,
			"action", msg.Action,
			"error", err)
		return nil
	}
	return err
}

// Export snapshots the plan, runs the simulation, and exports the
// resulting schedule.
func (w *ExportWorker) Export(ctx context.Context) error {
	start := time.Now()

	input, err := w.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot plan: %w", err)
	}

	result, err := simulation.Run(input, w.simOpts)
	if err != nil {
		return fmt.Errorf("run simulation: %w", err)
	}

	if err := w.exporter.ExportSchedule(ctx, result); err != nil {
		return fmt.Errorf("export schedule: %w", err)
	}

	slog.InfoContext(ctx, "Schedule export completed",
		"months", result.Totals.TotalMonths,
		"debts", len(result.Debts),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (w *ExportWorker) runPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Periodic export started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := w.Export(ctx)
			switch {
			case err == nil:
			case isPlanStateError(err):
				slog.WarnContext(ctx, "Plan cannot be simulated, skipping periodic export", "error", err)
			default:
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}

// isPlanStateError reports whether err is deterministic for the current
// plan state. Retrying without a further write would fail the same way.
func isPlanStateError(err error) bool {
	return errors.Is(err, simulation.ErrInvalidInput) ||
		errors.Is(err, simulation.ErrBudgetTooLow) ||
		errors.Is(err, simulation.ErrMonthLimit)
}
