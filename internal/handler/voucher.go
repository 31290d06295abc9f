package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/middleware"
	"github.com/ALVINfrs/caffeine/internal/service"
)

type VoucherHandler struct {
	Svc *service.VoucherService
	Log *zap.Logger
}

func NewVoucherHandler(svc *service.VoucherService, log *zap.Logger) *VoucherHandler {
	return &VoucherHandler{Svc: svc, Log: log}
}

type validateVoucherReq struct {
	VoucherCode string          `json:"voucherCode" validate:"required"`
	Total       decimal.Decimal `json:"total"`
	Email       string          `json:"email" validate:"omitempty,email"`
}

// Validate handles POST /api/vouchers/validate.  The email falls back to
// the session's; a rejected voucher answers 400 with the reason.
func (h *VoucherHandler) Validate(c echo.Context) error {
	var req validateVoucherReq
	if okBind, err := bind(c, &req, "incomplete data"); !okBind {
		return err
	}
	who := middleware.RequesterFrom(c).WithEmail(req.Email)
	if who.Email == "" || !req.Total.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "incomplete data"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := h.Svc.Validate(ctx, req.VoucherCode, who, req.Total)
	if err != nil {
		return fail(c, h.Log, "validate voucher", err)
	}
	if !res.Valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": res.Message})
	}
	return ok(c, http.StatusOK, echo.Map{
		"message": res.Message,
		"voucher": echo.Map{
			"id":             res.Voucher.ID,
			"code":           res.Voucher.Code,
			"name":           res.Voucher.Name,
			"discountAmount": res.DiscountAmount,
		},
	})
}

// Active handles GET /api/vouchers/active.
func (h *VoucherHandler) Active(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Svc.ListActive(ctx)
	if err != nil {
		return fail(c, h.Log, "list active vouchers", err)
	}
	return ok(c, http.StatusOK, echo.Map{"vouchers": list})
}
