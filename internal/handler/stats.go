package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avilchesf/gestor-gastos/internal/stats"
)

// GetManagerStats handles GET /v1/managers/:id/stats. Statistics are
// recomputed from the full entry set on every request; with small
// personal-finance data volumes that is cheaper than keeping aggregates
// consistent.
func (h *LedgerHandler) GetManagerStats(c echo.Context) error {
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
	return c.JSON(http.StatusOK, stats.Compute(months))
}
