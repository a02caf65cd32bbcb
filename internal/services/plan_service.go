// Package services orchestrates storage, the simulation engine, and
// change notifications behind one API the transport layers call.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"debtplan/internal/amqp"
	"debtplan/internal/core"
	"debtplan/internal/simulation"
	"debtplan/internal/storage"
)

// Publisher is the slice of the AMQP client the service needs. A nil
// Publisher disables notifications without disabling the API.
type Publisher interface {
	PublishPlanChanged(ctx context.Context, entity, action string) error
	Close() error
}

// PlanService owns every mutation of the plan's source data. Writes go
// to storage first; the change notification is best effort and never
// fails the request.
type PlanService struct {
	store     storage.Store
	publisher Publisher
	opts      simulation.Options
}

func NewPlanService(store storage.Store, publisher Publisher, opts simulation.Options) *PlanService {
	return &PlanService{
		store:     store,
		publisher: publisher,
		opts:      opts,
	}
}

func (s *PlanService) ListDebts(ctx context.Context) ([]core.Debt, error) {
	return s.store.ListDebts(ctx)
}

func (s *PlanService) GetDebt(ctx context.Context, id int64) (core.Debt, error) {
	return s.store.GetDebt(ctx, id)
}

func (s *PlanService) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	created, err := s.store.CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	s.publishChange(ctx, amqp.EntityDebt, amqp.ActionCreated)
	return created, nil
}

func (s *PlanService) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	updated, err := s.store.UpdateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, err
	}
	s.publishChange(ctx, amqp.EntityDebt, amqp.ActionUpdated)
	return updated, nil
}

func (s *PlanService) DeleteDebt(ctx context.Context, id int64) error {
	if err := s.store.DeleteDebt(ctx, id); err != nil {
		return err
	}
	s.publishChange(ctx, amqp.EntityDebt, amqp.ActionDeleted)
	return nil
}

func (s *PlanService) ReorderDebts(ctx context.Context, ids []int64) ([]core.Debt, error) {
	debts, err := s.store.ReorderDebts(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.publishChange(ctx, amqp.EntityDebt, amqp.ActionReordered)
	return debts, nil
}

func (s *PlanService) GetSettings(ctx context.Context) (core.Settings, error) {
	return s.store.GetSettings(ctx)
}

func (s *PlanService) UpdateSettings(ctx context.Context, st core.Settings) (core.Settings, error) {
	updated, err := s.store.UpdateSettings(ctx, st)
	if err != nil {
		return core.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	s.publishChange(ctx, amqp.EntitySettings, amqp.ActionUpdated)
	return updated, nil
}

func (s *PlanService) ListScheduleOverrides(ctx context.Context) ([]core.ScheduleOverride, error) {
	return s.store.ListScheduleOverrides(ctx)
}

// SetScheduleOverride stores the extra amount for a month. A zero
// amount removes the override instead of storing a no-op row.
func (s *PlanService) SetScheduleOverride(ctx context.Context, o core.ScheduleOverride) error {
	if o.AdditionalAmount.IsZero() {
		if err := s.store.DeleteScheduleOverride(ctx, o.MonthIndex); err != nil {
			return err
		}
		s.publishChange(ctx, amqp.EntityScheduleOverride, amqp.ActionDeleted)
		return nil
	}
	if err := s.store.UpsertScheduleOverride(ctx, o); err != nil {
		return err
	}
	s.publishChange(ctx, amqp.EntityScheduleOverride, amqp.ActionUpdated)
	return nil
}

// ListPaymentOverrides lists pinned payments, filtered to one month
// when monthIndex is positive.
func (s *PlanService) ListPaymentOverrides(ctx context.Context, monthIndex int) ([]core.PaymentOverride, error) {
	return s.store.ListPaymentOverrides(ctx, monthIndex)
}

// ReplacePaymentOverrides swaps a month's pinned payments for the
// given set.
func (s *PlanService) ReplacePaymentOverrides(ctx context.Context, monthIndex int, overrides []core.PaymentOverride) ([]core.PaymentOverride, error) {
	stored, err := s.store.ReplacePaymentOverrides(ctx, monthIndex, overrides)
	if err != nil {
		return nil, err
	}
	s.publishChange(ctx, amqp.EntityPaymentOverride, amqp.ActionUpdated)
	return stored, nil
}

func (s *PlanService) DeletePaymentOverride(ctx context.Context, monthIndex int, debtID int64) error {
	if err := s.store.DeletePaymentOverride(ctx, monthIndex, debtID); err != nil {
		return err
	}
	s.publishChange(ctx, amqp.EntityPaymentOverride, amqp.ActionDeleted)
	return nil
}

// Simulate snapshots the stored plan and runs the engine over it.
func (s *PlanService) Simulate(ctx context.Context) (*simulation.Result, error) {
	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot plan: %w", err)
	}

	started := time.Now()
	result, err := simulation.Run(snapshot, s.opts)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Simulation completed",
		"debts", len(result.Debts),
		"months", result.Totals.TotalMonths,
		"duration", time.Since(started))
	return result, nil
}

func (s *PlanService) publishChange(ctx context.Context, entity, action string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP publisher not available, skipping change notification",
			"entity", entity,
			"action", action)
		return
	}
	if err := s.publisher.PublishPlanChanged(ctx, entity, action); err != nil {
		// The write already succeeded; a lost notification only delays
		// the exported schedule until the next periodic refresh.
		slog.ErrorContext(ctx, "Failed to publish change notification",
			"entity", entity,
			"action", action,
			"error", err)
	}
}

// Close closes storage and the publisher.
func (s *PlanService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close plan service: %v", errs)
	}
	return nil
}
