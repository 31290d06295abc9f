package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/middleware"
	"github.com/ALVINfrs/caffeine/internal/service"
)

// ReservationHandler serves table booking endpoints.  Identity comes from
// the session middleware; guests may book and look up by number.
type ReservationHandler struct {
	Svc *service.ReservationService
	Log *zap.Logger
}

func NewReservationHandler(svc *service.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{Svc: svc, Log: log}
}

// Rooms handles GET /api/reservations/rooms.
func (h *ReservationHandler) Rooms(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	rooms, err := h.Svc.ListRooms(ctx)
	if err != nil {
		return fail(c, h.Log, "list rooms", err)
	}
	return ok(c, http.StatusOK, echo.Map{"data": rooms})
}

// CheckAvailability handles GET /api/reservations/check-availability with
// roomType, tableNumber, date, time and an optional duration in hours.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	hours, _ := strconv.Atoi(c.QueryParam("duration"))
	ctx, cancel := withTimeout(c)
	defer cancel()
	q, err := h.Svc.Quote(ctx, c.QueryParam("roomType"), c.QueryParam("tableNumber"),
		c.QueryParam("date"), c.QueryParam("time"), hours)
	if err != nil {
		return fail(c, h.Log, "check availability", err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"available":      q.Available,
		"pricePerHour":   q.PricePerHour,
		"totalPrice":     q.TotalPrice,
		"formattedPrice": q.FormattedPrice,
	})
}

// Create handles POST /api/reservations/create.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in service.CreateReservationInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := h.Svc.Create(ctx, middleware.RequesterFrom(c), in)
	if err != nil {
		return fail(c, h.Log, "create reservation", err)
	}
	return ok(c, http.StatusCreated, echo.Map{"message": "reservation created", "data": res})
}

// GetByNumber handles GET /api/reservations/:reservationNumber.
func (h *ReservationHandler) GetByNumber(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	v, err := h.Svc.GetByNumber(ctx, c.Param("reservationNumber"))
	if err != nil {
		return fail(c, h.Log, "get reservation", err)
	}
	return ok(c, http.StatusOK, echo.Map{"data": v})
}

// Mine handles GET /api/reservations/user/my-reservations.
func (h *ReservationHandler) Mine(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Svc.ListForUser(ctx, middleware.RequesterFrom(c))
	if err != nil {
		return fail(c, h.Log, "list user reservations", err)
	}
	return ok(c, http.StatusOK, echo.Map{"data": list})
}

// Reschedule handles PUT /api/reservations/:id/reschedule.
func (h *ReservationHandler) Reschedule(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid reservation id"})
	}
	var in service.RescheduleInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Svc.Reschedule(ctx, middleware.RequesterFrom(c), id, in); err != nil {
		return fail(c, h.Log, "reschedule reservation", err)
	}
	return ok(c, http.StatusOK, echo.Map{"message": "reservation rescheduled"})
}

type cancelReq struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Cancel handles PUT /api/reservations/:id/cancel.  The body is optional.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid reservation id"})
	}
	var req cancelReq
	if c.Request().ContentLength != 0 {
		if okBind, err := bind(c, &req, "reason is too long"); !okBind {
			return err
		}
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Svc.Cancel(ctx, middleware.RequesterFrom(c), id, req.Reason); err != nil {
		return fail(c, h.Log, "cancel reservation", err)
	}
	return ok(c, http.StatusOK, echo.Map{"message": "reservation cancelled"})
}

// History handles GET /api/reservations/:id/history.
func (h *ReservationHandler) History(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid reservation id"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	hist, err := h.Svc.History(ctx, middleware.RequesterFrom(c), id)
	if err != nil {
		return fail(c, h.Log, "reservation history", err)
	}
	return ok(c, http.StatusOK, echo.Map{"data": hist})
}
