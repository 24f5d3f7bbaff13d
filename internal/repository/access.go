package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Access is the result of resolving a record's ownership chain for a user.
// A resolver walks entry -> month -> manager -> membership in one query;
// handlers consume the outcome in a fixed order: existence first (404),
// membership second (403), lifecycle state last (400).
type Access struct {
	ManagerID uint64
	MonthID   uint64 // zero for manager-level resolution
	Closed    bool   // owning month's closed flag; false for manager-level
	Role      string // caller's membership role on the manager
}

// HasRole reports whether the resolved membership carries one of the given
// roles. No route currently gates on it; the flat trust model of the ledger
// treats every member alike. Kept as the single place to hang role policy
// if admin-only operations are ever introduced.
func (a Access) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// AccessRepo resolves membership-based access for every entity in the
// ownership chain. Each resolver is a single LEFT JOIN query so the
// existence and membership checks cannot diverge.
type AccessRepo struct {
	db *sql.DB
}

func NewAccessRepo(db *sql.DB) *AccessRepo { return &AccessRepo{db: db} }

// ResolveManager checks that a manager exists and that the user belongs to
// it. Returns ErrManagerNotFound or ErrNotMember accordingly.
func (r *AccessRepo) ResolveManager(ctx context.Context, userID, managerID uint64) (Access, error) {
	const q = `SELECT g.id, ms.role
	           FROM managers g
	           LEFT JOIN memberships ms ON ms.manager_id = g.id AND ms.user_id = ?
	           WHERE g.id = ?`
	var a Access
	var role sql.NullString
	err := r.db.QueryRowContext(ctx, q, userID, managerID).Scan(&a.ManagerID, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Access{}, ErrManagerNotFound
		}
		return Access{}, err
	}
	if !role.Valid {
		return Access{}, ErrNotMember
	}
	a.Role = role.String
	return a, nil
}

// ResolveMonth walks month -> manager -> membership.
func (r *AccessRepo) ResolveMonth(ctx context.Context, userID, monthID uint64) (Access, error) {
	const q = `SELECT m.id, m.manager_id, m.closed, ms.role
	           FROM months m
	           LEFT JOIN memberships ms ON ms.manager_id = m.manager_id AND ms.user_id = ?
	           WHERE m.id = ?`
	return r.resolveChain(ctx, q, userID, monthID, ErrMonthNotFound)
}

// ResolveIncome walks income -> month -> manager -> membership.
func (r *AccessRepo) ResolveIncome(ctx context.Context, userID, incomeID uint64) (Access, error) {
	const q = `SELECT m.id, m.manager_id, m.closed, ms.role
	           FROM incomes i
	           JOIN months m ON m.id = i.month_id
	           LEFT JOIN memberships ms ON ms.manager_id = m.manager_id AND ms.user_id = ?
	           WHERE i.id = ?`
	return r.resolveChain(ctx, q, userID, incomeID, ErrEntryNotFound)
}

// ResolveExpense walks expense -> month -> manager -> membership.
func (r *AccessRepo) ResolveExpense(ctx context.Context, userID, expenseID uint64) (Access, error) {
	const q = `SELECT m.id, m.manager_id, m.closed, ms.role
	           FROM expenses e
	           JOIN months m ON m.id = e.month_id
	           LEFT JOIN memberships ms ON ms.manager_id = m.manager_id AND ms.user_id = ?
	           WHERE e.id = ?`
	return r.resolveChain(ctx, q, userID, expenseID, ErrEntryNotFound)
}

func (r *AccessRepo) resolveChain(ctx context.Context, q string, userID, id uint64, notFound error) (Access, error) {
	var a Access
	var role sql.NullString
	err := r.db.QueryRowContext(ctx, q, userID, id).Scan(&a.MonthID, &a.ManagerID, &a.Closed, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Access{}, notFound
		}
		return Access{}, err
	}
	if !role.Valid {
		return Access{}, ErrNotMember
	}
	a.Role = role.String
	return a, nil
}
