// Package router wires HTTP routes to their handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/avilchesf/gestor-gastos/internal/handler"
	"github.com/avilchesf/gestor-gastos/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints. Register, login and logout
// live under /v1/auth and need no session; /v1/me is guarded.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.SessionAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterLedger registers every manager, month and entry route under the
// session-guarded /v1 group. Authorization beyond the session (membership,
// open-month gating) happens inside the handlers, where the ownership
// chain of each record is known.
func RegisterLedger(e *echo.Echo, h *handler.LedgerHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.SessionAuth(jwtSecret))

	g.POST("/managers", h.CreateManager)
	g.GET("/managers", h.ListManagers)
	g.GET("/managers/:id", h.GetManager)
	g.POST("/managers/:id/join", h.JoinManager)
	g.GET("/managers/:id/months", h.ListMonths)
	g.POST("/managers/:id/months", h.CreateMonth)
	g.GET("/managers/:id/stats", h.GetManagerStats)

	g.GET("/months/:id", h.GetMonth)
	g.PATCH("/months/:id", h.UpdateMonth)
	g.POST("/months/:id/close", h.CloseMonth)

	g.POST("/incomes", h.CreateIncome)
	g.PATCH("/incomes/:id", h.UpdateIncome)
	g.DELETE("/incomes/:id", h.DeleteIncome)

	g.POST("/expenses", h.CreateExpense)
	g.PATCH("/expenses/:id", h.UpdateExpense)
	g.DELETE("/expenses/:id", h.DeleteExpense)
}
