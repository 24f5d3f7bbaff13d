package model

import "time"

// Roles assignable through a membership. The creator of a manager always
// receives RoleAdmin, users joining an existing manager always receive
// RoleMember. The role is stored and reported but no operation currently
// distinguishes between the two; members share a flat trust model.
const (
	RoleAdmin  = "admin"
	RoleMember = "miembro"
)

// Manager is a named shared ledger grouping months for a set of member
// users. Maps to a row in the `managers` table.
type Manager struct {
	ID          uint64       `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	Members     []Membership `json:"members,omitempty"`
	Months      []Month      `json:"months,omitempty"`
}

// Membership links a user to a manager with a role. At most one membership
// exists per (user, manager) pair; the unique key in the `memberships`
// table enforces it.
type Membership struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"userId"`
	ManagerID uint64    `json:"managerId"`
	Role      string    `json:"role"`
	UserName  string    `json:"userName,omitempty"`
	UserEmail string    `json:"userEmail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
