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

const closedEntriesMsg = "cannot modify a closed month's entries"

// CreateIncome handles POST /v1/incomes. Payload shape is validated before
// any lookup: positive amount, non-empty description, parseable date.
func (h *LedgerHandler) CreateIncome(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		MonthID     uint64  `json:"monthId"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
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

	in := &model.Income{MonthID: body.MonthID, Amount: body.Amount, Description: body.Description, Date: date}
	if err := h.Incomes.Create(ctx, in); err != nil {
		if errors.Is(err, repository.ErrMonthClosed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, in)
}

// UpdateIncome handles PATCH /v1/incomes/:id. Fields are optional; absent
// ones keep their stored values.
func (h *LedgerHandler) UpdateIncome(c echo.Context) error {
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
	access, err := h.Access.ResolveIncome(ctx, userID, id)
	if err != nil {
		return fail(c, err)
	}
	if access.Closed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
	}

	in, err := h.Incomes.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if body.Amount != nil {
		in.Amount = *body.Amount
	}
	if body.Description != nil {
		in.Description = strings.TrimSpace(*body.Description)
	}
	if date != nil {
		in.Date = *date
	}
	if err := h.Incomes.Update(ctx, in); err != nil {
		if errors.Is(err, repository.ErrMonthClosed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, in)
}

// DeleteIncome handles DELETE /v1/incomes/:id.
func (h *LedgerHandler) DeleteIncome(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	access, err := h.Access.ResolveIncome(ctx, userID, id)
	if err != nil {
		return fail(c, err)
	}
	if access.Closed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
	}
	if err := h.Incomes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMonthClosed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": closedEntriesMsg})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "income deleted"})
}
