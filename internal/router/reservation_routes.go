package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ALVINfrs/caffeine/internal/handler"
	"github.com/ALVINfrs/caffeine/internal/middleware"
)

// RegisterReservations registers table booking routes.  Guests may browse,
// book and look up by number; ownership of reschedule, cancel and history
// is enforced by the service.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, g Guards) {
	g = g.filled()
	r := e.Group("/api/reservations")
	r.GET("/rooms", h.Rooms, g.Cache)
	r.GET("/check-availability", h.CheckAvailability)
	r.POST("/create", h.Create, g.RateLimit)
	r.GET("/user/my-reservations", h.Mine, middleware.RequireSession())
	r.GET("/:reservationNumber", h.GetByNumber)
	r.PUT("/:id/reschedule", h.Reschedule, g.RateLimit)
	r.PUT("/:id/cancel", h.Cancel)
	r.GET("/:id/history", h.History)
}
