package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/repository"
	"github.com/ALVINfrs/caffeine/internal/service"
)

// AdminHandler serves the dashboard API.  Routes are guarded by JWTAuth
// and RequireRole("admin").
type AdminHandler struct {
	Stats        *repository.StatsRepo
	Users        *repository.UserRepo
	Products     *repository.ProductRepo
	Orders       *service.OrderService
	Reservations *service.ReservationService
	Vouchers     *service.VoucherService
	Log          *zap.Logger
}

func (h *AdminHandler) dbFailure(c echo.Context, what string, err error) error {
	h.Log.Error("admin query failed", zap.String("what", what), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error fetching " + what, "details": err.Error()})
}

// StatsSummary handles GET /api/admin/stats.
func (h *AdminHandler) StatsSummary(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	s, err := h.Stats.Summary(ctx)
	if err != nil {
		return h.dbFailure(c, "stats", err)
	}
	return c.JSON(http.StatusOK, s)
}

// SalesChart handles GET /api/admin/sales-chart?days=N (default 30).
func (h *AdminHandler) SalesChart(c echo.Context) error {
	days, err := strconv.Atoi(c.QueryParam("days"))
	if err != nil || days < 1 || days > 366 {
		days = 30
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	points, err := h.Stats.SalesChart(ctx, days)
	if err != nil {
		return h.dbFailure(c, "sales chart", err)
	}
	return c.JSON(http.StatusOK, points)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return h.dbFailure(c, "users", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) ListProducts(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	products, err := h.Products.List(ctx)
	if err != nil {
		return h.dbFailure(c, "products", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Orders.ListAll(ctx)
	if err != nil {
		return fail(c, h.Log, "admin list orders", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) ListReservations(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Reservations.ListAll(ctx)
	if err != nil {
		return fail(c, h.Log, "admin list reservations", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) ListVouchers(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Vouchers.ListAll(ctx)
	if err != nil {
		return fail(c, h.Log, "admin list vouchers", err)
	}
	return c.JSON(http.StatusOK, list)
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"max=500"`
}

// UpdateReservationStatus handles PUT /api/admin/reservations/:id/status.
func (h *AdminHandler) UpdateReservationStatus(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid reservation id"})
	}
	var req statusReq
	if okBind, err := bind(c, &req, "status is required"); !okBind {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Reservations.UpdateStatus(ctx, id, req.Status, req.Notes); err != nil {
		return fail(c, h.Log, "update reservation status", err)
	}
	return ok(c, http.StatusOK, echo.Map{"message": "reservation status updated"})
}
