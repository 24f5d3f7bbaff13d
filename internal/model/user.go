package model

import "time"

// User represents an application user as stored in the `users` table.
// Passwords are never stored in clear text; only the bcrypt hash is kept.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, normalized (lower-cased) email address.
//	Name         – display name shown to other ledger members.
//	PasswordHash – bcrypt hashed password.
//	CreatedAt    – timestamp of registration.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}
