package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ALVINfrs/caffeine/internal/handler"
	"github.com/ALVINfrs/caffeine/internal/middleware"
)

// RegisterProducts registers the cached public menu.
func RegisterProducts(e *echo.Echo, h *handler.ProductHandler, g Guards) {
	g = g.filled()
	e.GET("/api/products", h.List, g.Cache)
}

// RegisterVouchers registers voucher validation and the active list.
func RegisterVouchers(e *echo.Echo, h *handler.VoucherHandler, g Guards) {
	g = g.filled()
	v := e.Group("/api/vouchers")
	v.POST("/validate", h.Validate, g.RateLimit)
	v.GET("/active", h.Active, g.Cache)
}

// RegisterOrders registers checkout, lookups and payment status sync.  The
// webhook is public; its authenticity is checked by signature.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler, g Guards) {
	g = g.filled()
	o := e.Group("/api/orders")
	o.POST("", h.Create, g.RateLimit)
	o.POST("/webhook", h.Webhook)
	o.GET("/user/orders", h.Mine, middleware.RequireSession())
	o.GET("/number/:orderNumber", h.GetByNumber)
	o.GET("/:id", h.GetByID)
	o.PUT("/:orderNumber/payment-update", h.PaymentUpdate, middleware.RequireSession())
}
