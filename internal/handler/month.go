package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avilchesf/gestor-gastos/internal/model"
	"github.com/avilchesf/gestor-gastos/internal/queue"
	"github.com/avilchesf/gestor-gastos/internal/repository"
	queue_publisher "github.com/avilchesf/gestor-gastos/internal/service"
)

// CreateMonth handles POST /v1/managers/:id/months and opens a new
// accounting period under the manager.
func (h *LedgerHandler) CreateMonth(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	managerID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		StartDate string `json:"startDate"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, err := parseFlexibleDate(body.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}

	ctx := c.Request().Context()
	if _, err := h.Access.ResolveManager(ctx, userID, managerID); err != nil {
		return fail(c, err)
	}

	m := &model.Month{ManagerID: managerID, StartDate: start}
	if err := h.Months.Create(ctx, m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// ListMonths handles GET /v1/managers/:id/months, newest start date first.
func (h *LedgerHandler) ListMonths(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	managerID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Access.ResolveManager(ctx, userID, managerID); err != nil {
		return fail(c, err)
	}
	months, err := h.Months.ListByManager(ctx, managerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, months)
}

// GetMonth handles GET /v1/months/:id with entries nested.
func (h *LedgerHandler) GetMonth(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Access.ResolveMonth(ctx, userID, id); err != nil {
		return fail(c, err)
	}
	m, err := h.Months.GetWithEntries(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// UpdateMonth handles PATCH /v1/months/:id. Only the start date can
// change, and only while the month is open.
func (h *LedgerHandler) UpdateMonth(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		StartDate string `json:"startDate"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, err := parseFlexibleDate(body.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}

	ctx := c.Request().Context()
	access, err := h.Access.ResolveMonth(ctx, userID, id)
	if err != nil {
		return fail(c, err)
	}
	if access.Closed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot modify a closed month"})
	}
	if err := h.Months.UpdateStartDate(ctx, id, start); err != nil {
		if errors.Is(err, repository.ErrMonthClosed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot modify a closed month"})
		}
		return fail(c, err)
	}
	m, err := h.Months.GetWithEntries(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// CloseMonth handles POST /v1/months/:id/close. The transition is one-way:
// the guarded UPDATE only fires for open months, so two concurrent closes
// serialize and the second receives the already-closed error.
func (h *LedgerHandler) CloseMonth(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		CloseDate string `json:"closeDate"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.CloseDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "close date required"})
	}
	closeDate, err := parseFlexibleDate(body.CloseDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}

	ctx := c.Request().Context()
	access, err := h.Access.ResolveMonth(ctx, userID, id)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Months.Close(ctx, id, closeDate); err != nil {
		if errors.Is(err, repository.ErrMonthClosed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "month already closed"})
		}
		return fail(c, err)
	}

	m, err := h.Months.GetWithEntries(ctx, id)
	if err != nil {
		return fail(c, err)
	}

	// Best effort: a broker outage must not fail the close.
	managerName := ""
	if mgr, err := h.Managers.GetByID(ctx, access.ManagerID); err == nil {
		managerName = mgr.Name
	}
	_ = queue_publisher.PublishMonthClosed(ctx, queue.MonthClosedEvent{
		MonthID:     m.ID,
		ManagerID:   access.ManagerID,
		ManagerName: managerName,
		ClosedByID:  userID,
		CloseDate:   closeDate.UTC().Format(time.RFC3339),
		ClosedAt:    time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, m)
}
