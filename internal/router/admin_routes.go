package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ALVINfrs/caffeine/internal/handler"
	"github.com/ALVINfrs/caffeine/internal/middleware"
	"github.com/ALVINfrs/caffeine/internal/model"
)

// RegisterAdmin registers the dashboard API behind an admin bearer token.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/stats", h.StatsSummary)
	g.GET("/sales-chart", h.SalesChart)
	g.GET("/users", h.ListUsers)
	g.GET("/products", h.ListProducts)
	g.GET("/orders", h.ListOrders)
	g.GET("/reservations", h.ListReservations)
	g.GET("/vouchers", h.ListVouchers)
	g.PUT("/reservations/:id/status", h.UpdateReservationStatus)
}
