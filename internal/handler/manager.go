package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avilchesf/gestor-gastos/internal/model"
)

// CreateManager handles POST /v1/managers. The caller becomes the first
// member with the admin role; manager and membership are written in one
// transaction.
func (h *LedgerHandler) CreateManager(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	m := &model.Manager{Name: name, Description: body.Description}
	if err := h.Managers.Create(c.Request().Context(), m, userID); err != nil {
		return fail(c, err)
	}
	members, err := h.Managers.Members(c.Request().Context(), m.ID)
	if err != nil {
		return fail(c, err)
	}
	m.Members = members
	m.Months = []model.Month{}
	return c.JSON(http.StatusCreated, m)
}

// ListManagers handles GET /v1/managers and returns every manager the
// caller belongs to, with members, months and entries nested.
func (h *LedgerHandler) ListManagers(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	managers, err := h.Managers.ListByUser(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	for _, m := range managers {
		if m.Members, err = h.Managers.Members(ctx, m.ID); err != nil {
			return fail(c, err)
		}
		if m.Months, err = h.Months.ListByManager(ctx, m.ID); err != nil {
			return fail(c, err)
		}
	}
	if managers == nil {
		managers = []*model.Manager{}
	}
	return c.JSON(http.StatusOK, managers)
}

// GetManager handles GET /v1/managers/:id. Existence is resolved before
// membership, so a non-member probing an existing manager sees 403, not
// 404.
func (h *LedgerHandler) GetManager(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()

	if _, err := h.Access.ResolveManager(ctx, userID, id); err != nil {
		return fail(c, err)
	}
	m, err := h.Managers.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if m.Members, err = h.Managers.Members(ctx, id); err != nil {
		return fail(c, err)
	}
	if m.Months, err = h.Months.ListByManager(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// JoinManager handles POST /v1/managers/:id/join. The joiner always
// receives the member role, never admin.
func (h *LedgerHandler) JoinManager(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Managers.Join(c.Request().Context(), userID, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "joined manager"})
}
