// Package handler implements the HTTP surface of the ledger service.
// Handlers follow one order for every guarded operation: request shape
// first, then existence, then membership, then the open-month rule, and
// only then the storage mutation.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avilchesf/gestor-gastos/internal/repository"
)

// LedgerHandler bundles the repositories behind the manager, month and
// entry endpoints.
type LedgerHandler struct {
	Managers *repository.ManagerRepo
	Months   *repository.MonthRepo
	Incomes  *repository.IncomeRepo
	Expenses *repository.ExpenseRepo
	Access   *repository.AccessRepo
}

// NewLedgerHandler constructs a LedgerHandler and panics if any dependency
// is nil; wiring bugs should fail at startup, not per request.
func NewLedgerHandler(managers *repository.ManagerRepo, months *repository.MonthRepo,
	incomes *repository.IncomeRepo, expenses *repository.ExpenseRepo, access *repository.AccessRepo) *LedgerHandler {
	if managers == nil || months == nil || incomes == nil || expenses == nil || access == nil {
		panic("nil repository passed to NewLedgerHandler")
	}
	return &LedgerHandler{
		Managers: managers,
		Months:   months,
		Incomes:  incomes,
		Expenses: expenses,
		Access:   access,
	}
}

// getUserID extracts the authenticated user id placed in context by the
// session middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID parses a numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

var errInvalidDate = errors.New("invalid date")

// parseFlexibleDate accepts a bare date ("2024-01-01"), an HTML
// datetime-local string without seconds ("2024-01-01T15:30") or a full
// timestamp. Bare dates are normalized by appending midnight before
// parsing; everything is interpreted as UTC.
func parseFlexibleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errInvalidDate
	}
	if !strings.Contains(s, "T") {
		s += "T00:00:00"
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errInvalidDate
}

// fail maps repository sentinel errors onto HTTP statuses. Unrecognized
// errors are logged and surfaced as a generic 500.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrManagerNotFound),
		errors.Is(err, repository.ErrMonthNotFound),
		errors.Is(err, repository.ErrEntryNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotMember):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrMonthClosed),
		errors.Is(err, repository.ErrAlreadyMember),
		errors.Is(err, repository.ErrUserExists):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("unexpected error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unexpected error"})
}
