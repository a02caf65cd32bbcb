package storage

import (
	"context"
	"errors"
	"testing"

	"debtplan/internal/core"
)

func newTestDebt(creditor string, balanceCents int64) core.Debt {
	return core.Debt{
		Creditor:       creditor,
		Balance:        core.Money{Cents: balanceCents},
		APR:            10.0,
		MinimumPayment: core.Money{Cents: 2500},
	}
}

func TestMemoryStore_DebtLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.CreateDebt(ctx, newTestDebt("Visa", 50000))
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("CreateDebt() did not assign an id")
	}
	if created.Position != 1 {
		t.Errorf("CreateDebt() position = %d, want 1", created.Position)
	}

	second, err := store.CreateDebt(ctx, newTestDebt("Car loan", 80000))
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}
	if second.Position != 2 {
		t.Errorf("second debt position = %d, want 2", second.Position)
	}

	got, err := store.GetDebt(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetDebt() error = %v", err)
	}
	if got.Creditor != "Visa" || got.Balance.Cents != 50000 {
		t.Errorf("GetDebt() = %+v", got)
	}

	got.Balance = core.Money{Cents: 45000}
	got.Position = 99 // must be ignored
	updated, err := store.UpdateDebt(ctx, got)
	if err != nil {
		t.Fatalf("UpdateDebt() error = %v", err)
	}
	if updated.Balance.Cents != 45000 {
		t.Errorf("UpdateDebt() balance = %d, want 45000", updated.Balance.Cents)
	}
	if updated.Position != 1 {
		t.Errorf("UpdateDebt() position = %d, want unchanged 1", updated.Position)
	}

	if err := store.DeleteDebt(ctx, created.ID); err != nil {
		t.Fatalf("DeleteDebt() error = %v", err)
	}
	if _, err := store.GetDebt(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDebt() after delete error = %v, want ErrNotFound", err)
	}

	debts, err := store.ListDebts(ctx)
	if err != nil {
		t.Fatalf("ListDebts() error = %v", err)
	}
	if len(debts) != 1 || debts[0].ID != second.ID {
		t.Errorf("ListDebts() = %+v, want only the second debt", debts)
	}
}

func TestMemoryStore_NotFoundErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.GetDebt(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDebt() error = %v, want ErrNotFound", err)
	}
	if _, err := store.UpdateDebt(ctx, core.Debt{ID: 42}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateDebt() error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteDebt(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteDebt() error = %v, want ErrNotFound", err)
	}
	_, err := store.ReplacePaymentOverrides(ctx, 1, []core.PaymentOverride{{MonthIndex: 1, DebtID: 42, Amount: core.Money{Cents: 100}}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ReplacePaymentOverrides() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ReorderDebts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var ids []int64
	for _, name := range []string{"A", "B", "C", "D"} {
		d, err := store.CreateDebt(ctx, newTestDebt(name, 10000))
		if err != nil {
			t.Fatalf("CreateDebt(%s) error = %v", name, err)
		}
		ids = append(ids, d.ID)
	}

	// Listed ids lead in the given order; the rest keep their relative
	// order after them.
	reordered, err := store.ReorderDebts(ctx, []int64{ids[2], ids[0]})
	if err != nil {
		t.Fatalf("ReorderDebts() error = %v", err)
	}
	want := []string{"C", "A", "B", "D"}
	for i, d := range reordered {
		if d.Creditor != want[i] {
			t.Errorf("reordered[%d] = %s, want %s", i, d.Creditor, want[i])
		}
		if d.Position != i+1 {
			t.Errorf("reordered[%d] position = %d, want %d", i, d.Position, i+1)
		}
	}

	if _, err := store.ReorderDebts(ctx, []int64{999}); !errors.Is(err, ErrInvalidReorder) {
		t.Errorf("ReorderDebts(unknown) error = %v, want ErrInvalidReorder", err)
	}
	if _, err := store.ReorderDebts(ctx, []int64{ids[0], ids[0]}); !errors.Is(err, ErrInvalidReorder) {
		t.Errorf("ReorderDebts(duplicate) error = %v, want ErrInvalidReorder", err)
	}
}

func TestMemoryStore_SettingsDefaultsThenPersists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	got, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got.Strategy != core.StrategyAvalanche {
		t.Errorf("default strategy = %s, want avalanche", got.Strategy)
	}
	if !got.MonthlyBudget.IsZero() {
		t.Errorf("default budget = %s, want 0.00", got.MonthlyBudget)
	}
	if got.BalanceDate.IsZero() {
		t.Error("default balance date is zero")
	}

	want := core.Settings{
		BalanceDate:   core.NewDate(2024, 5, 1),
		MonthlyBudget: core.Money{Cents: 75000},
		Strategy:      core.StrategySnowball,
	}
	if _, err := store.UpdateSettings(ctx, want); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	got, err = store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got.Strategy != want.Strategy || got.MonthlyBudget.Cents != want.MonthlyBudget.Cents || got.BalanceDate.ISO() != "2024-05-01" {
		t.Errorf("GetSettings() = %+v, want %+v", got, want)
	}
}

func TestMemoryStore_ScheduleOverrides(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, o := range []core.ScheduleOverride{
		{MonthIndex: 3, AdditionalAmount: core.Money{Cents: 5000}},
		{MonthIndex: 1, AdditionalAmount: core.Money{Cents: 10000}},
	} {
		if err := store.UpsertScheduleOverride(ctx, o); err != nil {
			t.Fatalf("UpsertScheduleOverride() error = %v", err)
		}
	}

	// Same month replaces, listing is month-ordered.
	if err := store.UpsertScheduleOverride(ctx, core.ScheduleOverride{MonthIndex: 3, AdditionalAmount: core.Money{Cents: 7500}}); err != nil {
		t.Fatalf("UpsertScheduleOverride() error = %v", err)
	}
	got, err := store.ListScheduleOverrides(ctx)
	if err != nil {
		t.Fatalf("ListScheduleOverrides() error = %v", err)
	}
	if len(got) != 2 || got[0].MonthIndex != 1 || got[1].AdditionalAmount.Cents != 7500 {
		t.Errorf("ListScheduleOverrides() = %+v", got)
	}

	if err := store.DeleteScheduleOverride(ctx, 1); err != nil {
		t.Fatalf("DeleteScheduleOverride() error = %v", err)
	}
	if err := store.DeleteScheduleOverride(ctx, 1); err != nil {
		t.Errorf("DeleteScheduleOverride() repeat error = %v, want idempotent nil", err)
	}
	got, _ = store.ListScheduleOverrides(ctx)
	if len(got) != 1 {
		t.Errorf("ListScheduleOverrides() after delete = %+v", got)
	}
}

func TestMemoryStore_PaymentOverridesFollowDebt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	d, err := store.CreateDebt(ctx, newTestDebt("Visa", 50000))
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}
	other, err := store.CreateDebt(ctx, newTestDebt("Car loan", 80000))
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}

	pin := core.PaymentOverride{MonthIndex: 2, DebtID: d.ID, Amount: core.Money{Cents: 12000}, Note: "bonus"}
	if _, err := store.ReplacePaymentOverrides(ctx, 2, []core.PaymentOverride{pin}); err != nil {
		t.Fatalf("ReplacePaymentOverrides() error = %v", err)
	}

	// Replacing the month swaps the whole set.
	swapped := []core.PaymentOverride{
		{DebtID: d.ID, Amount: core.Money{Cents: 13000}, Note: "bonus"},
		{DebtID: other.ID, Amount: core.Money{Cents: 2000}},
	}
	stored, err := store.ReplacePaymentOverrides(ctx, 2, swapped)
	if err != nil {
		t.Fatalf("ReplacePaymentOverrides() swap error = %v", err)
	}
	if len(stored) != 2 || stored[0].Amount.Cents != 13000 || stored[0].Note != "bonus" {
		t.Errorf("ReplacePaymentOverrides() = %+v", stored)
	}
	if stored[0].MonthIndex != 2 || stored[1].MonthIndex != 2 {
		t.Errorf("ReplacePaymentOverrides() month indexes = %+v", stored)
	}

	// A different month is untouched by a replace.
	if _, err := store.ReplacePaymentOverrides(ctx, 5, []core.PaymentOverride{{DebtID: d.ID, Amount: core.Money{Cents: 100}}}); err != nil {
		t.Fatalf("ReplacePaymentOverrides() month 5 error = %v", err)
	}
	monthTwo, err := store.ListPaymentOverrides(ctx, 2)
	if err != nil {
		t.Fatalf("ListPaymentOverrides(2) error = %v", err)
	}
	if len(monthTwo) != 2 {
		t.Errorf("ListPaymentOverrides(2) = %+v", monthTwo)
	}
	all, _ := store.ListPaymentOverrides(ctx, 0)
	if len(all) != 3 {
		t.Errorf("ListPaymentOverrides(0) = %+v", all)
	}

	// Deleting the debt removes its pins but not the other debt's.
	if err := store.DeleteDebt(ctx, d.ID); err != nil {
		t.Fatalf("DeleteDebt() error = %v", err)
	}
	all, _ = store.ListPaymentOverrides(ctx, 0)
	if len(all) != 1 || all[0].DebtID != other.ID {
		t.Errorf("ListPaymentOverrides() after debt delete = %+v", all)
	}
}

func TestMemoryStore_Snapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	d1, _ := store.CreateDebt(ctx, newTestDebt("Visa", 50000))
	d2, _ := store.CreateDebt(ctx, newTestDebt("Car loan", 80000))
	if _, err := store.UpdateSettings(ctx, core.Settings{
		BalanceDate:   core.NewDate(2024, 1, 15),
		MonthlyBudget: core.Money{Cents: 60000},
		Strategy:      core.StrategyAvalanche,
	}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if err := store.UpsertScheduleOverride(ctx, core.ScheduleOverride{MonthIndex: 2, AdditionalAmount: core.Money{Cents: 5000}}); err != nil {
		t.Fatalf("UpsertScheduleOverride() error = %v", err)
	}
	if _, err := store.ReplacePaymentOverrides(ctx, 1, []core.PaymentOverride{{DebtID: d2.ID, Amount: core.Money{Cents: 1000}}}); err != nil {
		t.Fatalf("ReplacePaymentOverrides() error = %v", err)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Debts) != 2 || snap.Debts[0].ID != d1.ID {
		t.Errorf("Snapshot() debts = %+v", snap.Debts)
	}
	if snap.Settings.MonthlyBudget.Cents != 60000 {
		t.Errorf("Snapshot() budget = %d, want 60000", snap.Settings.MonthlyBudget.Cents)
	}
	if len(snap.Overrides) != 1 || len(snap.PaymentOverrides) != 1 {
		t.Errorf("Snapshot() overrides = %+v pins = %+v", snap.Overrides, snap.PaymentOverrides)
	}
}
