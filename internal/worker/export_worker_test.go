package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"debtplan/internal/amqp"
	"debtplan/internal/core"
	"debtplan/internal/sheets/memory"
	"debtplan/internal/simulation"
	"debtplan/internal/storage"
)

type failingExporter struct {
	err error
}

func (f *failingExporter) ExportSchedule(context.Context, *simulation.Result) error {
	return f.err
}

// fakeConsumer delivers the queued messages to the handler, then blocks
// until ctx is cancelled, like a live consumer with an idle queue.
type fakeConsumer struct {
	messages []*amqp.PlanChangedMessage

	mu          sync.Mutex
	handlerErrs []error
}

func (f *fakeConsumer) ConsumePlanChanged(ctx context.Context, handler func(*amqp.PlanChangedMessage) error) error {
	for _, msg := range f.messages {
		err := handler(msg)
		f.mu.Lock()
		f.handlerErrs = append(f.handlerErrs, err)
		f.mu.Unlock()
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeConsumer) errs() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.handlerErrs...)
}

func seedPlan(t *testing.T, store storage.Store, budgetCents int64) {
	t.Helper()
	ctx := context.Background()

	_, err := store.CreateDebt(ctx, core.Debt{
		Creditor:       "Visa",
		Balance:        core.Money{Cents: 10000},
		APR:            12.0,
		MinimumPayment: core.Money{Cents: 2500},
	})
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}

	_, err = store.UpdateSettings(ctx, core.Settings{
		BalanceDate:   core.NewDate(2024, 1, 15),
		MonthlyBudget: core.Money{Cents: budgetCents},
		Strategy:      core.StrategyAvalanche,
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
}

func TestExportWorker_HandlePlanChanged(t *testing.T) {
	store := storage.NewMemoryStore()
	exporter := memory.New()
	seedPlan(t, store, 20000)

	w := NewExportWorker(store, exporter, simulation.Options{})
	msg := &amqp.PlanChangedMessage{Entity: amqp.EntityDebt, Action: amqp.ActionCreated}

	if err := w.HandlePlanChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandlePlanChanged() error = %v", err)
	}

	if exporter.Exports() != 1 {
		t.Fatalf("Exports() = %d, want 1", exporter.Exports())
	}
	rows := exporter.LastRows()
	if len(rows) < 3 {
		t.Fatalf("rows = %d, want at least header, one month, totals", len(rows))
	}
	if rows[0][5] != "Visa" {
		t.Errorf("debt column = %v, want Visa", rows[0][5])
	}
}

func TestExportWorker_InfeasibleBudgetAcks(t *testing.T) {
	store := storage.NewMemoryStore()
	exporter := memory.New()
	seedPlan(t, store, 1000)

	w := NewExportWorker(store, exporter, simulation.Options{})
	msg := &amqp.PlanChangedMessage{Entity: amqp.EntitySettings, Action: amqp.ActionUpdated}

	if err := w.HandlePlanChanged(context.Background(), msg); err != nil {
		t.Fatalf("HandlePlanChanged() error = %v, want nil for infeasible budget", err)
	}
	if exporter.Exports() != 0 {
		t.Errorf("Exports() = %d, want 0", exporter.Exports())
	}
}

func TestExportWorker_ExporterFailureRequeues(t *testing.T) {
	store := storage.NewMemoryStore()
	seedPlan(t, store, 20000)

	wantErr := errors.New("sheets unavailable")
	w := NewExportWorker(store, &failingExporter{err: wantErr}, simulation.Options{})
	msg := &amqp.PlanChangedMessage{Entity: amqp.EntityDebt, Action: amqp.ActionUpdated}

	err := w.HandlePlanChanged(context.Background(), msg)
	if !errors.Is(err, wantErr) {
		t.Fatalf("HandlePlanChanged() error = %v, want %v", err, wantErr)
	}
}

func TestExportWorker_RunStartupAndMessages(t *testing.T) {
	store := storage.NewMemoryStore()
	exporter := memory.New()
	seedPlan(t, store, 20000)

	w := NewExportWorker(store, exporter, simulation.Options{})
	consumer := &fakeConsumer{messages: []*amqp.PlanChangedMessage{
		{Entity: amqp.EntityDebt, Action: amqp.ActionCreated},
		{Entity: amqp.EntitySettings, Action: amqp.ActionUpdated},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := w.Run(ctx, consumer, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}

	// One startup export plus one per message.
	if exporter.Exports() != 3 {
		t.Errorf("Exports() = %d, want 3", exporter.Exports())
	}
	for i, err := range consumer.errs() {
		if err != nil {
			t.Errorf("handler call %d returned %v", i, err)
		}
	}
}

func TestExportWorker_RunPeriodic(t *testing.T) {
	store := storage.NewMemoryStore()
	exporter := memory.New()
	seedPlan(t, store, 20000)

	w := NewExportWorker(store, exporter, simulation.Options{})
	consumer := &fakeConsumer{}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := w.Run(ctx, consumer, 30*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}

	// Startup export plus at least two ticks.
	if exporter.Exports() < 3 {
		t.Errorf("Exports() = %d, want at least 3", exporter.Exports())
	}
}
