package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/avilchesf/gestor-gastos/internal/model"
)

// ManagerRepo encapsulates database queries for managers and their
// memberships. Creating a manager and joining one both write membership
// rows, so the two concerns live in a single repository.
type ManagerRepo struct {
	db *sql.DB
}

func NewManagerRepo(db *sql.DB) *ManagerRepo { return &ManagerRepo{db: db} }

// Create inserts a manager and an admin membership for its creator in one
// transaction. The manager ID is populated on the passed model. The return
// value is named so the deferred commit can report its failure.
func (r *ManagerRepo) Create(ctx context.Context, m *model.Manager, creatorID uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO managers (name, description) VALUES (?,?)", m.Name, m.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO memberships (user_id, manager_id, role) VALUES (?,?,?)",
		creatorID, m.ID, model.RoleAdmin); err != nil {
		return err
	}

	err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM managers WHERE id = ?", m.ID).Scan(&m.CreatedAt)
	return err
}

// GetByID fetches a manager regardless of membership. Callers enforce
// access separately; the join rule needs existence before membership.
func (r *ManagerRepo) GetByID(ctx context.Context, id uint64) (*model.Manager, error) {
	var m model.Manager
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at FROM managers WHERE id = ?",
		id).Scan(&m.ID, &m.Name, &m.Description, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrManagerNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByUser returns all managers the user belongs to, ordered by id.
// Months and entries are loaded separately by the caller.
func (r *ManagerRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Manager, error) {
	const q = `SELECT g.id, g.name, g.description, g.created_at
	           FROM managers g
	           JOIN memberships ms ON ms.manager_id = g.id
	           WHERE ms.user_id = ?
	           ORDER BY g.id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Manager
	for rows.Next() {
		m := new(model.Manager)
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Members returns all memberships of a manager with user names and emails
// resolved, ordered by join time.
func (r *ManagerRepo) Members(ctx context.Context, managerID uint64) ([]model.Membership, error) {
	const q = `SELECT ms.id, ms.user_id, ms.manager_id, ms.role, ms.created_at, u.name, u.email
	           FROM memberships ms
	           JOIN users u ON u.id = ms.user_id
	           WHERE ms.manager_id = ?
	           ORDER BY ms.id`
	rows, err := r.db.QueryContext(ctx, q, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Membership
	for rows.Next() {
		var ms model.Membership
		if err := rows.Scan(&ms.ID, &ms.UserID, &ms.ManagerID, &ms.Role, &ms.CreatedAt,
			&ms.UserName, &ms.UserEmail); err != nil {
			return nil, err
		}
		out = append(out, ms)
	}
	return out, rows.Err()
}

// Join adds the user to an existing manager with the member role. The
// creator path never goes through here, so joiners can never become admin.
// Returns ErrManagerNotFound when the manager does not exist and
// ErrAlreadyMember when a membership row is already present.
func (r *ManagerRepo) Join(ctx context.Context, userID, managerID uint64) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM managers WHERE id = ?)", managerID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrManagerNotFound
	}

	if err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM memberships WHERE user_id = ? AND manager_id = ?)",
		userID, managerID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAlreadyMember
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO memberships (user_id, manager_id, role) VALUES (?,?,?)",
		userID, managerID, model.RoleMember)
	return err
}
