// Package repository contains data access logic separated from HTTP
// handlers. Sentinel errors defined here let handlers map storage-level
// outcomes onto HTTP statuses without inspecting driver errors: not-found
// values become 404, ErrNotMember becomes 403 and the domain-rule errors
// (ErrMonthClosed, ErrAlreadyMember, ErrUserExists) become 400.
package repository

import "errors"

// ErrUserExists is returned when registering an email that already has an
// account.
var ErrUserExists = errors.New("user already exists")

// ErrManagerNotFound is returned when a manager id has no row.
var ErrManagerNotFound = errors.New("manager not found")

// ErrMonthNotFound is returned when a month id has no row.
var ErrMonthNotFound = errors.New("month not found")

// ErrEntryNotFound is returned when an income or expense id has no row.
var ErrEntryNotFound = errors.New("entry not found")

// ErrNotMember is returned when the caller holds a valid session but no
// membership on the manager owning the target record.
var ErrNotMember = errors.New("not a member of this manager")

// ErrAlreadyMember is returned when joining a manager the user already
// belongs to.
var ErrAlreadyMember = errors.New("already a member of this manager")

// ErrMonthClosed is returned when a mutation targets a month whose closed
// flag is set. The flag is monotonic; nothing ever clears it.
var ErrMonthClosed = errors.New("month is closed")
