package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/avilchesf/gestor-gastos/internal/model"
)

// ExpenseRepo persists expense entries. Mutations carry the same in-statement
// closed-month gate as IncomeRepo.
type ExpenseRepo struct {
	db *sql.DB
}

func NewExpenseRepo(db *sql.DB) *ExpenseRepo { return &ExpenseRepo{db: db} }

// Create inserts an expense entry provided the owning month is still open.
func (r *ExpenseRepo) Create(ctx context.Context, e *model.Expense) error {
	const q = `INSERT INTO expenses (month_id, amount, description, category, entry_date)
	           SELECT id, ?, ?, ?, ? FROM months WHERE id = ? AND closed = 0`
	res, err := r.db.ExecContext(ctx, q, e.Amount, e.Description, e.Category, e.Date.UTC(), e.MonthID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.monthGate(ctx, e.MonthID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM expenses WHERE id = ?", e.ID).Scan(&e.CreatedAt)
}

// GetByID fetches a single expense entry.
func (r *ExpenseRepo) GetByID(ctx context.Context, id uint64) (*model.Expense, error) {
	var e model.Expense
	var category sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, month_id, amount, description, category, entry_date, created_at FROM expenses WHERE id = ?",
		id).Scan(&e.ID, &e.MonthID, &e.Amount, &e.Description, &category, &e.Date, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if category.Valid {
		c := category.String
		e.Category = &c
	}
	return &e, nil
}

// Update rewrites an expense entry while its month is open.
func (r *ExpenseRepo) Update(ctx context.Context, e *model.Expense) error {
	const q = `UPDATE expenses SET amount = ?, description = ?, category = ?, entry_date = ?
	           WHERE id = ? AND month_id IN (SELECT id FROM months WHERE closed = 0)`
	res, err := r.db.ExecContext(ctx, q, e.Amount, e.Description, e.Category, e.Date.UTC(), e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// zero rows is also what MySQL reports for a value-identical
		// update, which is not a gate failure
		if gateErr := r.entryGate(ctx, e.ID); gateErr != nil {
			return gateErr
		}
	}
	return nil
}

// Delete removes an expense entry while its month is open.
func (r *ExpenseRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM expenses
	           WHERE id = ? AND month_id IN (SELECT id FROM months WHERE closed = 0)`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if gateErr := r.entryGate(ctx, id); gateErr != nil {
			return gateErr
		}
		return ErrMonthClosed
	}
	return nil
}

// monthGate reports why a guarded insert against a month wrote nothing.
func (r *ExpenseRepo) monthGate(ctx context.Context, monthID uint64) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM months WHERE id = ?)", monthID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrMonthNotFound
	}
	return ErrMonthClosed
}

// entryGate mirrors IncomeRepo.entryGate for the expenses table.
func (r *ExpenseRepo) entryGate(ctx context.Context, id uint64) error {
	var closed bool
	err := r.db.QueryRowContext(ctx,
		`SELECT m.closed FROM months m JOIN expenses e ON e.month_id = m.id WHERE e.id = ?`,
		id).Scan(&closed)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEntryNotFound
	}
	if err != nil {
		return err
	}
	if closed {
		return ErrMonthClosed
	}
	return nil
}

// scanExpenses loads all expenses of a month ordered newest first.
func scanExpenses(ctx context.Context, db *sql.DB, monthID uint64) ([]model.Expense, error) {
	const q = `SELECT id, month_id, amount, description, category, entry_date, created_at
	           FROM expenses WHERE month_id = ? ORDER BY entry_date DESC, id DESC`
	rows, err := db.QueryContext(ctx, q, monthID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Expense{}
	for rows.Next() {
		var e model.Expense
		var category sql.NullString
		if err := rows.Scan(&e.ID, &e.MonthID, &e.Amount, &e.Description, &category, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		if category.Valid {
			c := category.String
			e.Category = &c
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
