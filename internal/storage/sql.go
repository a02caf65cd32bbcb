package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"debtplan/internal/core"
	"debtplan/internal/simulation"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

// SQLStore implements Store over database/sql. One set of queries
// serves both dialects: rebind rewrites placeholders for postgres, and
// inserts differ only in how the generated id comes back.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// querier is satisfied by both *sql.DB and *sql.Tx so the read helpers
// can run standalone or inside the snapshot transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// rebind rewrites ? placeholders into the $n form postgres expects.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const debtColumns = "id, creditor, balance_cents, apr, minimum_payment_cents, custom_priority, sort_order"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebt(row rowScanner) (core.Debt, error) {
	var (
		d        core.Debt
		balance  int64
		minimum  int64
		priority sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.Creditor, &balance, &d.APR, &minimum, &priority, &d.Position); err != nil {
		return core.Debt{}, err
	}
	d.Balance = core.Money{Cents: balance}
	d.MinimumPayment = core.Money{Cents: minimum}
	if priority.Valid {
		p := int(priority.Int64)
		d.CustomPriority = &p
	}
	return d, nil
}

func nullPriority(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func (s *SQLStore) ListDebts(ctx context.Context) ([]core.Debt, error) {
	return s.listDebts(ctx, s.db)
}

func (s *SQLStore) listDebts(ctx context.Context, q querier) ([]core.Debt, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+debtColumns+" FROM debts ORDER BY sort_order, id")
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	debts := make([]core.Debt, 0)
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debts: %w", err)
	}
	return debts, nil
}

func (s *SQLStore) GetDebt(ctx context.Context, id int64) (core.Debt, error) {
	return s.getDebt(ctx, s.db, id)
}

func (s *SQLStore) getDebt(ctx context.Context, q querier, id int64) (core.Debt, error) {
	row := q.QueryRowContext(ctx, s.rebind("SELECT "+debtColumns+" FROM debts WHERE id = ?"), id)
	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, ErrNotFound
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt %d: %w", id, err)
	}
	return d, nil
}

func (s *SQLStore) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Debt{}, fmt.Errorf("begin create debt: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(sort_order), 0) + 1 FROM debts").Scan(&d.Position); err != nil {
		return core.Debt{}, fmt.Errorf("next sort order: %w", err)
	}

	const insert = "INSERT INTO debts (creditor, balance_cents, apr, minimum_payment_cents, custom_priority, sort_order) VALUES (?, ?, ?, ?, ?, ?)"
	args := []any{d.Creditor, d.Balance.Cents, d.APR, d.MinimumPayment.Cents, nullPriority(d.CustomPriority), d.Position}
	if s.dialect == dialectPostgres {
		err = tx.QueryRowContext(ctx, s.rebind(insert+" RETURNING id"), args...).Scan(&d.ID)
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx, insert, args...)
		if err == nil {
			d.ID, err = res.LastInsertId()
		}
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Debt{}, fmt.Errorf("commit create debt: %w", err)
	}

	slog.InfoContext(ctx, "Debt created",
		"id", d.ID,
		"creditor", d.Creditor,
		"balance_cents", d.Balance.Cents)
	return d, nil
}

func (s *SQLStore) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE debts SET creditor = ?, balance_cents = ?, apr = ?, minimum_payment_cents = ?, custom_priority = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"),
		d.Creditor, d.Balance.Cents, d.APR, d.MinimumPayment.Cents, nullPriority(d.CustomPriority), d.ID)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt %d: %w", d.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt %d: %w", d.ID, err)
	}
	if affected == 0 {
		return core.Debt{}, ErrNotFound
	}
	return s.GetDebt(ctx, d.ID)
}

func (s *SQLStore) DeleteDebt(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete debt: %w", err)
	}
	defer tx.Rollback()

	// Pinned payments reference the debt; clear them first so the
	// delete works the same with and without foreign key enforcement.
	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM payment_overrides WHERE debt_id = ?"), id); err != nil {
		return fmt.Errorf("delete debt %d pins: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM debts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete debt %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete debt %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete debt: %w", err)
	}
	slog.InfoContext(ctx, "Debt deleted", "id", id)
	return nil
}

func (s *SQLStore) ReorderDebts(ctx context.Context, ids []int64) ([]core.Debt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	current, err := s.listDebts(ctx, tx)
	if err != nil {
		return nil, err
	}
	known := make(map[int64]struct{}, len(current))
	for _, d := range current {
		known[d.ID] = struct{}{}
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("%w: unknown debt id %d", ErrInvalidReorder, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: debt id %d listed twice", ErrInvalidReorder, id)
		}
		seen[id] = struct{}{}
	}

	order := 0
	setOrder := func(id int64) error {
		order++
		_, err := tx.ExecContext(ctx, s.rebind("UPDATE debts SET sort_order = ? WHERE id = ?"), order, id)
		return err
	}
	for _, id := range ids {
		if err := setOrder(id); err != nil {
			return nil, fmt.Errorf("reorder debt %d: %w", id, err)
		}
	}
	for _, d := range current {
		if _, listed := seen[d.ID]; listed {
			continue
		}
		if err := setOrder(d.ID); err != nil {
			return nil, fmt.Errorf("reorder debt %d: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reorder: %w", err)
	}
	slog.InfoContext(ctx, "Debts reordered", "listed", len(ids), "total", order)
	return s.ListDebts(ctx)
}

func (s *SQLStore) GetSettings(ctx context.Context) (core.Settings, error) {
	st, err := s.readSettings(ctx, s.db)
	if errors.Is(err, sql.ErrNoRows) {
		st = defaultSettings(todayUTC())
		if err := s.writeSettings(ctx, s.db, st); err != nil {
			return core.Settings{}, err
		}
		return st, nil
	}
	if err != nil {
		return core.Settings{}, err
	}
	return st, nil
}

func (s *SQLStore) readSettings(ctx context.Context, q querier) (core.Settings, error) {
	var (
		dateISO  string
		budget   int64
		strategy string
	)
	err := q.QueryRowContext(ctx,
		"SELECT balance_date, monthly_budget_cents, strategy FROM settings WHERE id = 1").
		Scan(&dateISO, &budget, &strategy)
	if err != nil {
		return core.Settings{}, err
	}
	date, err := core.ParseDate(dateISO)
	if err != nil {
		return core.Settings{}, fmt.Errorf("parse stored balance date %q: %w", dateISO, err)
	}
	return core.Settings{
		BalanceDate:   date,
		MonthlyBudget: core.Money{Cents: budget},
		Strategy:      core.Strategy(strategy),
	}, nil
}

func (s *SQLStore) writeSettings(ctx context.Context, q querier, st core.Settings) error {
	_, err := q.ExecContext(ctx, s.rebind(
		"INSERT INTO settings (id, balance_date, monthly_budget_cents, strategy, updated_at) VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP) "+
			"ON CONFLICT (id) DO UPDATE SET balance_date = excluded.balance_date, monthly_budget_cents = excluded.monthly_budget_cents, strategy = excluded.strategy, updated_at = CURRENT_TIMESTAMP"),
		st.BalanceDate.ISO(), st.MonthlyBudget.Cents, string(st.Strategy))
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateSettings(ctx context.Context, st core.Settings) (core.Settings, error) {
	if err := s.writeSettings(ctx, s.db, st); err != nil {
		return core.Settings{}, err
	}
	slog.InfoContext(ctx, "Settings updated",
		"strategy", string(st.Strategy),
		"budget_cents", st.MonthlyBudget.Cents,
		"balance_date", st.BalanceDate.ISO())
	return st, nil
}

func (s *SQLStore) ListScheduleOverrides(ctx context.Context) ([]core.ScheduleOverride, error) {
	return s.listSchedule(ctx, s.db)
}

func (s *SQLStore) listSchedule(ctx context.Context, q querier) ([]core.ScheduleOverride, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT month_index, additional_amount_cents FROM schedule_overrides ORDER BY month_index")
	if err != nil {
		return nil, fmt.Errorf("list schedule overrides: %w", err)
	}
	defer rows.Close()

	out := make([]core.ScheduleOverride, 0)
	for rows.Next() {
		var (
			o     core.ScheduleOverride
			cents int64
		)
		if err := rows.Scan(&o.MonthIndex, &cents); err != nil {
			return nil, fmt.Errorf("scan schedule override: %w", err)
		}
		o.AdditionalAmount = core.Money{Cents: cents}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule overrides: %w", err)
	}
	return out, nil
}

func (s *SQLStore) UpsertScheduleOverride(ctx context.Context, o core.ScheduleOverride) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO schedule_overrides (month_index, additional_amount_cents) VALUES (?, ?) "+
			"ON CONFLICT (month_index) DO UPDATE SET additional_amount_cents = excluded.additional_amount_cents"),
		o.MonthIndex, o.AdditionalAmount.Cents)
	if err != nil {
		return fmt.Errorf("upsert schedule override month %d: %w", o.MonthIndex, err)
	}
	return nil
}

func (s *SQLStore) DeleteScheduleOverride(ctx context.Context, monthIndex int) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		"DELETE FROM schedule_overrides WHERE month_index = ?"), monthIndex)
	if err != nil {
		return fmt.Errorf("delete schedule override month %d: %w", monthIndex, err)
	}
	return nil
}

func (s *SQLStore) ListPaymentOverrides(ctx context.Context, monthIndex int) ([]core.PaymentOverride, error) {
	if monthIndex > 0 {
		return s.listPinsWhere(ctx, s.db,
			"SELECT month_index, debt_id, amount_cents, note FROM payment_overrides WHERE month_index = ? ORDER BY debt_id",
			monthIndex)
	}
	return s.listPins(ctx, s.db)
}

func (s *SQLStore) listPins(ctx context.Context, q querier) ([]core.PaymentOverride, error) {
	return s.listPinsWhere(ctx, q,
		"SELECT month_index, debt_id, amount_cents, note FROM payment_overrides ORDER BY month_index, debt_id")
}

func (s *SQLStore) listPinsWhere(ctx context.Context, q querier, query string, args ...any) ([]core.PaymentOverride, error) {
	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list payment overrides: %w", err)
	}
	defer rows.Close()

	out := make([]core.PaymentOverride, 0)
	for rows.Next() {
		var (
			o     core.PaymentOverride
			cents int64
		)
		if err := rows.Scan(&o.MonthIndex, &o.DebtID, &cents, &o.Note); err != nil {
			return nil, fmt.Errorf("scan payment override: %w", err)
		}
		o.Amount = core.Money{Cents: cents}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment overrides: %w", err)
	}
	return out, nil
}

func (s *SQLStore) ReplacePaymentOverrides(ctx context.Context, monthIndex int, overrides []core.PaymentOverride) ([]core.PaymentOverride, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin replace payment overrides: %w", err)
	}
	defer tx.Rollback()

	for _, o := range overrides {
		if _, err := s.getDebt(ctx, tx, o.DebtID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: debt %d", ErrNotFound, o.DebtID)
			}
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(
		"DELETE FROM payment_overrides WHERE month_index = ?"), monthIndex); err != nil {
		return nil, fmt.Errorf("clear payment overrides month %d: %w", monthIndex, err)
	}
	for _, o := range overrides {
		if _, err := tx.ExecContext(ctx, s.rebind(
			"INSERT INTO payment_overrides (month_index, debt_id, amount_cents, note) VALUES (?, ?, ?, ?) "+
				"ON CONFLICT (month_index, debt_id) DO UPDATE SET amount_cents = excluded.amount_cents, note = excluded.note"),
			monthIndex, o.DebtID, o.Amount.Cents, o.Note); err != nil {
			return nil, fmt.Errorf("insert payment override month %d debt %d: %w", monthIndex, o.DebtID, err)
		}
	}

	stored, err := s.listPinsWhere(ctx, tx,
		"SELECT month_index, debt_id, amount_cents, note FROM payment_overrides WHERE month_index = ? ORDER BY debt_id",
		monthIndex)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace payment overrides: %w", err)
	}

	slog.InfoContext(ctx, "Payment overrides replaced",
		"month_index", monthIndex,
		"count", len(stored))
	return stored, nil
}

func (s *SQLStore) DeletePaymentOverride(ctx context.Context, monthIndex int, debtID int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		"DELETE FROM payment_overrides WHERE month_index = ? AND debt_id = ?"), monthIndex, debtID)
	if err != nil {
		return fmt.Errorf("delete payment override month %d debt %d: %w", monthIndex, debtID, err)
	}
	return nil
}

// Snapshot reads everything inside one transaction so the engine never
// sees a half-applied edit.
func (s *SQLStore) Snapshot(ctx context.Context) (simulation.Input, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return simulation.Input{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	settings, err := s.readSettings(ctx, tx)
	if errors.Is(err, sql.ErrNoRows) {
		settings = defaultSettings(todayUTC())
		err = s.writeSettings(ctx, tx, settings)
	}
	if err != nil {
		return simulation.Input{}, fmt.Errorf("snapshot settings: %w", err)
	}

	debts, err := s.listDebts(ctx, tx)
	if err != nil {
		return simulation.Input{}, err
	}
	overrides, err := s.listSchedule(ctx, tx)
	if err != nil {
		return simulation.Input{}, err
	}
	pins, err := s.listPins(ctx, tx)
	if err != nil {
		return simulation.Input{}, err
	}

	if err := tx.Commit(); err != nil {
		return simulation.Input{}, fmt.Errorf("commit snapshot: %w", err)
	}
	return simulation.Input{
		Settings:         settings,
		Debts:            debts,
		Overrides:        overrides,
		PaymentOverrides: pins,
	}, nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
