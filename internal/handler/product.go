package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/repository"
)

// ProductHandler serves the public menu.
type ProductHandler struct {
	Products *repository.ProductRepo
	Log      *zap.Logger
}

// List handles GET /api/products.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	products, err := h.Products.List(ctx)
	if err != nil {
		h.Log.Error("list products failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to load products"})
	}
	return c.JSON(http.StatusOK, products)
}
