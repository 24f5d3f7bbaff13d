package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avilchesf/gestor-gastos/internal/model"
)

// MonthRepo manages accounting periods. Mutations that the closed-month
// rule applies to carry the gate inside the statement itself: the WHERE
// clause re-checks `closed` so a concurrent close cannot interleave
// between check and write. Zero affected rows on an existing month means
// the gate fired.
type MonthRepo struct {
	db *sql.DB
}

func NewMonthRepo(db *sql.DB) *MonthRepo { return &MonthRepo{db: db} }

// Create opens a new month for a manager.
func (r *MonthRepo) Create(ctx context.Context, m *model.Month) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO months (manager_id, start_date, closed) VALUES (?,?,0)",
		m.ManagerID, m.StartDate.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.Closed = false
	if m.Incomes == nil {
		m.Incomes = []model.Income{}
	}
	if m.Expenses == nil {
		m.Expenses = []model.Expense{}
	}
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM months WHERE id = ?", m.ID).Scan(&m.CreatedAt)
}

// GetByID fetches a bare month row without its entries.
func (r *MonthRepo) GetByID(ctx context.Context, id uint64) (*model.Month, error) {
	var m model.Month
	var closeDate sql.NullTime
	err := r.db.QueryRowContext(ctx,
		"SELECT id, manager_id, start_date, close_date, closed, created_at FROM months WHERE id = ?",
		id).Scan(&m.ID, &m.ManagerID, &m.StartDate, &closeDate, &m.Closed, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMonthNotFound
		}
		return nil, err
	}
	if closeDate.Valid {
		t := closeDate.Time
		m.CloseDate = &t
	}
	return &m, nil
}

// GetWithEntries fetches a month along with its incomes and expenses,
// entries ordered newest first.
func (r *MonthRepo) GetWithEntries(ctx context.Context, id uint64) (*model.Month, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadEntries(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListByManager returns all months of a manager, newest start date first,
// with entries attached.
func (r *MonthRepo) ListByManager(ctx context.Context, managerID uint64) ([]model.Month, error) {
	const q = `SELECT id, manager_id, start_date, close_date, closed, created_at
	           FROM months WHERE manager_id = ? ORDER BY start_date DESC`
	rows, err := r.db.QueryContext(ctx, q, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Month{}
	for rows.Next() {
		var m model.Month
		var closeDate sql.NullTime
		if err := rows.Scan(&m.ID, &m.ManagerID, &m.StartDate, &closeDate, &m.Closed, &m.CreatedAt); err != nil {
			return nil, err
		}
		if closeDate.Valid {
			t := closeDate.Time
			m.CloseDate = &t
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadEntries(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateStartDate changes a month's start date while it is still open.
// Returns ErrMonthClosed when the month exists but the gate fired and
// ErrMonthNotFound when there is no such month.
func (r *MonthRepo) UpdateStartDate(ctx context.Context, id uint64, start time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE months SET start_date = ? WHERE id = ? AND closed = 0",
		start.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.classifyGate(ctx, id)
	}
	return nil
}

// Close transitions a month from open to closed, recording the close date.
// The transition is one-way; a second close returns ErrMonthClosed.
func (r *MonthRepo) Close(ctx context.Context, id uint64, closeDate time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE months SET closed = 1, close_date = ? WHERE id = ? AND closed = 0",
		closeDate.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.classifyGate(ctx, id)
	}
	return nil
}

// classifyGate distinguishes "no such month" from "month closed" after a
// guarded statement affected zero rows. MySQL also reports zero rows for
// updates that change nothing, so an open month here means the statement
// was a no-op, not a gate failure.
func (r *MonthRepo) classifyGate(ctx context.Context, id uint64) error {
	var closed bool
	err := r.db.QueryRowContext(ctx,
		"SELECT closed FROM months WHERE id = ?", id).Scan(&closed)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMonthNotFound
	}
	if err != nil {
		return err
	}
	if closed {
		return ErrMonthClosed
	}
	return nil
}

func (r *MonthRepo) loadEntries(ctx context.Context, m *model.Month) error {
	incomes, err := scanIncomes(ctx, r.db, m.ID)
	if err != nil {
		return err
	}
	expenses, err := scanExpenses(ctx, r.db, m.ID)
	if err != nil {
		return err
	}
	m.Incomes = incomes
	m.Expenses = expenses
	return nil
}
