package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avilchesf/gestor-gastos/internal/model"
	"github.com/avilchesf/gestor-gastos/internal/repository"
)

// CreateExpense handles POST /v1/expenses. Same shape rules as incomes
// plus an optional category label; an empty category is stored as NULL and
// reported under the uncategorized bucket.
func (h *LedgerHandler) CreateExpense(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		MonthID     uint64  `json:"monthId"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Category    *string `json:"category"`
		Date        string  `json:"date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}
	body.Description = strings.TrimSpace(body.Description)
	if body.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "description is required"})
	}
	date := time.Now().UTC()
	if body.Date != "" {
		if date, err = parseFlexibleDate(body.Date); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
	}

	ctx := c.Request().Context()
	access, err := h.Access.ResolveMonth(ctx, userID, body.MonthID)
	if err != nil {
		return fail(c, err)
	}
	if access.Closed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
	}

	e := &model.Expense{
		MonthID:     body.MonthID,
		Amount:      body.Amount,
		Description: body.Description,
		Category:    normalizeCategory(body.Category),
		Date:        date,
	}
	if err := h.Expenses.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrMonthClosed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// UpdateExpense handles PATCH /v1/expenses/:id. Sending an explicit empty
// category clears it; omitting the field keeps the stored value.
func (h *LedgerHandler) UpdateExpense(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Amount      *float64 `json:"amount"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Date        *string  `json:"date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.Amount != nil && *body.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}
	if body.Description != nil && strings.TrimSpace(*body.Description) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "description cannot be empty"})
	}
	var date *time.Time
	if body.Date != nil {
		t, err := parseFlexibleDate(*body.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		date = &t
	}

	ctx := c.Request().Context()
	access, err := h.Access.ResolveExpense(ctx, userID, id)
	if err != nil {
		return fail(c, err)
	}
	if access.Closed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
	}

	e, err := h.Expenses.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if body.Amount != nil {
		e.Amount = *body.Amount
	}
	if body.Description != nil {
		e.Description = strings.TrimSpace(*body.Description)
	}
	if body.Category != nil {
		e.Category = normalizeCategory(body.Category)
	}
	if date != nil {
		e.Date = *date
	}
	if err := h.Expenses.Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrMonthClosed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// DeleteExpense handles DELETE /v1/expenses/:id.
func (h *LedgerHandler) DeleteExpense(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	access, err := h.Access.ResolveExpense(ctx, userID, id)
	if err != nil {
		return fail(c, err)
	}
	if access.Closed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
	}
	if err := h.Expenses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMonthClosed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "expense deleted"})
}

// normalizeCategory maps empty or whitespace-only category labels to nil.
func normalizeCategory(cat *string) *string {
	if cat == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*cat)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
