package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"debtplan/internal/core"
	"debtplan/internal/simulation"
)

// MemoryStore keeps the whole plan in process memory. It backs tests
// and the "memory" data backend; nothing survives a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	debts     map[int64]core.Debt
	settings  *core.Settings
	schedule  map[int]core.ScheduleOverride
	pins      map[pinKey]core.PaymentOverride
	nextOrder int
}

type pinKey struct {
	monthIndex int
	debtID     int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		debts:    make(map[int64]core.Debt),
		schedule: make(map[int]core.ScheduleOverride),
		pins:     make(map[pinKey]core.PaymentOverride),
	}
}

func (m *MemoryStore) ListDebts(ctx context.Context) ([]core.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listDebtsLocked(), nil
}

func (m *MemoryStore) listDebtsLocked() []core.Debt {
	debts := make([]core.Debt, 0, len(m.debts))
	for _, d := range m.debts {
		debts = append(debts, d)
	}
	sort.Slice(debts, func(i, j int) bool {
		if debts[i].Position != debts[j].Position {
			return debts[i].Position < debts[j].Position
		}
		return debts[i].ID < debts[j].ID
	})
	return debts
}

func (m *MemoryStore) GetDebt(ctx context.Context, id int64) (core.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.debts[id]
	if !ok {
		return core.Debt{}, ErrNotFound
	}
	return d, nil
}

func (m *MemoryStore) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.nextID
	m.nextID++
	m.nextOrder++
	d.Position = m.nextOrder
	m.debts[d.ID] = d
	return d, nil
}

func (m *MemoryStore) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.debts[d.ID]
	if !ok {
		return core.Debt{}, ErrNotFound
	}
	// Entry order is not editable through an update.
	d.Position = existing.Position
	m.debts[d.ID] = d
	return d, nil
}

func (m *MemoryStore) DeleteDebt(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.debts[id]; !ok {
		return ErrNotFound
	}
	delete(m.debts, id)
	for k := range m.pins {
		if k.debtID == id {
			delete(m.pins, k)
		}
	}
	return nil
}

func (m *MemoryStore) ReorderDebts(ctx context.Context, ids []int64) ([]core.Debt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := m.debts[id]; !ok {
			return nil, fmt.Errorf("%w: unknown debt id %d", ErrInvalidReorder, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: debt id %d listed twice", ErrInvalidReorder, id)
		}
		seen[id] = struct{}{}
	}

	rest := make([]core.Debt, 0, len(m.debts))
	for _, d := range m.listDebtsLocked() {
		if _, listed := seen[d.ID]; !listed {
			rest = append(rest, d)
		}
	}

	order := 0
	for _, id := range ids {
		order++
		d := m.debts[id]
		d.Position = order
		m.debts[id] = d
	}
	for _, d := range rest {
		order++
		d.Position = order
		m.debts[d.ID] = d
	}
	m.nextOrder = order

	return m.listDebtsLocked(), nil
}

func (m *MemoryStore) GetSettings(ctx context.Context) (core.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settingsLocked(), nil
}

func (m *MemoryStore) settingsLocked() core.Settings {
	if m.settings == nil {
		s := defaultSettings(todayUTC())
		m.settings = &s
	}
	return *m.settings
}

func (m *MemoryStore) UpdateSettings(ctx context.Context, s core.Settings) (core.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return s, nil
}

func (m *MemoryStore) ListScheduleOverrides(ctx context.Context) ([]core.ScheduleOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scheduleLocked(), nil
}

func (m *MemoryStore) scheduleLocked() []core.ScheduleOverride {
	out := make([]core.ScheduleOverride, 0, len(m.schedule))
	for _, o := range m.schedule {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthIndex < out[j].MonthIndex })
	return out
}

func (m *MemoryStore) UpsertScheduleOverride(ctx context.Context, o core.ScheduleOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule[o.MonthIndex] = o
	return nil
}

func (m *MemoryStore) DeleteScheduleOverride(ctx context.Context, monthIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedule, monthIndex)
	return nil
}

func (m *MemoryStore) ListPaymentOverrides(ctx context.Context, monthIndex int) ([]core.PaymentOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if monthIndex <= 0 {
		return m.pinsLocked(), nil
	}
	all := m.pinsLocked()
	out := make([]core.PaymentOverride, 0, len(all))
	for _, o := range all {
		if o.MonthIndex == monthIndex {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MemoryStore) pinsLocked() []core.PaymentOverride {
	out := make([]core.PaymentOverride, 0, len(m.pins))
	for _, o := range m.pins {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonthIndex != out[j].MonthIndex {
			return out[i].MonthIndex < out[j].MonthIndex
		}
		return out[i].DebtID < out[j].DebtID
	})
	return out
}

func (m *MemoryStore) ReplacePaymentOverrides(ctx context.Context, monthIndex int, overrides []core.PaymentOverride) ([]core.PaymentOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range overrides {
		if _, ok := m.debts[o.DebtID]; !ok {
			return nil, fmt.Errorf("%w: debt %d", ErrNotFound, o.DebtID)
		}
	}

	for k := range m.pins {
		if k.monthIndex == monthIndex {
			delete(m.pins, k)
		}
	}
	stored := make([]core.PaymentOverride, 0, len(overrides))
	for _, o := range overrides {
		o.MonthIndex = monthIndex
		m.pins[pinKey{monthIndex, o.DebtID}] = o
	}
	for _, o := range m.pinsLocked() {
		if o.MonthIndex == monthIndex {
			stored = append(stored, o)
		}
	}
	return stored, nil
}

func (m *MemoryStore) DeletePaymentOverride(ctx context.Context, monthIndex int, debtID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pins, pinKey{monthIndex, debtID})
	return nil
}

func (m *MemoryStore) Snapshot(ctx context.Context) (simulation.Input, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return simulation.Input{
		Settings:         m.settingsLocked(),
		Debts:            m.listDebtsLocked(),
		Overrides:        m.scheduleLocked(),
		PaymentOverrides: m.pinsLocked(),
	}, nil
}

func (m *MemoryStore) Close() error { return nil }

func todayUTC() core.Date {
	y, mo, d := time.Now().UTC().Date()
	return core.NewDate(y, int(mo), d)
}
