package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/middleware"
	"github.com/ALVINfrs/caffeine/internal/payment"
	"github.com/ALVINfrs/caffeine/internal/service"
)

// OrderHandler serves checkout, order lookups and payment status sync.
type OrderHandler struct {
	Orders   *service.OrderService
	Payments *service.PaymentService
	Log      *zap.Logger
}

func NewOrderHandler(orders *service.OrderService, payments *service.PaymentService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{Orders: orders, Payments: payments, Log: log}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c echo.Context) error {
	var in service.CreateOrderInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Orders.Create(ctx, middleware.RequesterFrom(c), in)
	if err != nil {
		return fail(c, h.Log, "create order", err)
	}
	body := echo.Map{
		"message":     "order created",
		"orderId":     out.OrderID,
		"orderNumber": out.OrderNumber,
		"snapToken":   out.SnapToken,
		"redirectUrl": out.RedirectURL,
		"total":       out.Total,
	}
	if out.Voucher != nil {
		body["voucher"] = out.Voucher
	}
	return ok(c, http.StatusCreated, body)
}

// GetByID handles GET /api/orders/:id.
func (h *OrderHandler) GetByID(c echo.Context) error {
	id, valid := paramID(c, "id")
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid order id"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	o, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, "get order", err)
	}
	return ok(c, http.StatusOK, echo.Map{"data": o})
}

// GetByNumber handles GET /api/orders/number/:orderNumber.
func (h *OrderHandler) GetByNumber(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	o, err := h.Orders.GetByNumber(ctx, c.Param("orderNumber"))
	if err != nil {
		return fail(c, h.Log, "get order by number", err)
	}
	return ok(c, http.StatusOK, echo.Map{"data": o})
}

// Mine handles GET /api/orders/user/orders.
func (h *OrderHandler) Mine(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Orders.ListForUser(ctx, middleware.RequesterFrom(c))
	if err != nil {
		return fail(c, h.Log, "list user orders", err)
	}
	return ok(c, http.StatusOK, echo.Map{"data": list})
}

// Webhook handles POST /api/orders/webhook from the payment gateway.
// The gateway only looks at the status code.
func (h *OrderHandler) Webhook(c echo.Context) error {
	var n payment.Notification
	if err := c.Bind(&n); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "Error", "message": "invalid notification"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Payments.HandleNotification(ctx, n); err != nil {
		kind := service.KindOf(err)
		h.Log.Error("webhook processing failed",
			zap.String("order_number", n.OrderID),
			zap.String("kind", kind.String()),
			zap.Error(err))
		return c.JSON(statusFor(kind), echo.Map{"status": "Error", "message": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "OK"})
}

// PaymentUpdate handles PUT /api/orders/:orderNumber/payment-update.
func (h *OrderHandler) PaymentUpdate(c echo.Context) error {
	var in service.PaymentUpdateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Payments.UpdatePaymentMethod(ctx, c.Param("orderNumber"), in); err != nil {
		return fail(c, h.Log, "update payment method", err)
	}
	return ok(c, http.StatusOK, echo.Map{"message": "payment method updated successfully"})
}
