package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/avilchesf/gestor-gastos/internal/model"
)

// IncomeRepo persists income entries. Every mutation re-checks the owning
// month's closed flag inside the statement, so a close racing with the
// mutation serializes at the storage engine: whichever lands first wins and
// the loser observes zero affected rows.
type IncomeRepo struct {
	db *sql.DB
}

func NewIncomeRepo(db *sql.DB) *IncomeRepo { return &IncomeRepo{db: db} }

// Create inserts an income entry provided the owning month is still open.
// Returns ErrMonthClosed when the month exists but is closed.
func (r *IncomeRepo) Create(ctx context.Context, in *model.Income) error {
	const q = `INSERT INTO incomes (month_id, amount, description, entry_date)
	           SELECT id, ?, ?, ? FROM months WHERE id = ? AND closed = 0`
	res, err := r.db.ExecContext(ctx, q, in.Amount, in.Description, in.Date.UTC(), in.MonthID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.monthGate(ctx, in.MonthID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	in.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM incomes WHERE id = ?", in.ID).Scan(&in.CreatedAt)
}

// GetByID fetches a single income entry.
func (r *IncomeRepo) GetByID(ctx context.Context, id uint64) (*model.Income, error) {
	var in model.Income
	err := r.db.QueryRowContext(ctx,
		"SELECT id, month_id, amount, description, entry_date, created_at FROM incomes WHERE id = ?",
		id).Scan(&in.ID, &in.MonthID, &in.Amount, &in.Description, &in.Date, &in.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &in, nil
}

// Update rewrites an income entry while its month is open.
func (r *IncomeRepo) Update(ctx context.Context, in *model.Income) error {
	const q = `UPDATE incomes SET amount = ?, description = ?, entry_date = ?
	           WHERE id = ? AND month_id IN (SELECT id FROM months WHERE closed = 0)`
	res, err := r.db.ExecContext(ctx, q, in.Amount, in.Description, in.Date.UTC(), in.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// zero rows is also what MySQL reports for a value-identical
		// update, which is not a gate failure
		if gateErr := r.entryGate(ctx, in.ID); gateErr != nil {
			return gateErr
		}
	}
	return nil
}

// Delete removes an income entry while its month is open.
func (r *IncomeRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM incomes
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
func (r *IncomeRepo) monthGate(ctx context.Context, monthID uint64) error {
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

// entryGate reports why a guarded update or delete touched nothing:
// ErrEntryNotFound when the row is gone, ErrMonthClosed when the owning
// month is closed, nil when the statement was simply a no-op.
func (r *IncomeRepo) entryGate(ctx context.Context, id uint64) error {
	var closed bool
	err := r.db.QueryRowContext(ctx,
		`SELECT m.closed FROM months m JOIN incomes i ON i.month_id = m.id WHERE i.id = ?`,
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

// scanIncomes loads all incomes of a month ordered newest first. Shared
// with MonthRepo for nested month payloads.
func scanIncomes(ctx context.Context, db *sql.DB, monthID uint64) ([]model.Income, error) {
	const q = `SELECT id, month_id, amount, description, entry_date, created_at
	           FROM incomes WHERE month_id = ? ORDER BY entry_date DESC, id DESC`
	rows, err := db.QueryContext(ctx, q, monthID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Income{}
	for rows.Next() {
		var in model.Income
		if err := rows.Scan(&in.ID, &in.MonthID, &in.Amount, &in.Description, &in.Date, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
