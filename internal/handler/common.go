package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/service"
)

// requestTimeout bounds the database and gateway work of one request.
const requestTimeout = 10 * time.Second

// RequestValidator plugs go-playground/validator into Echo so handlers can
// call c.Validate on bound DTOs.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *RequestValidator) Validate(i any) error { return rv.v.Struct(i) }

// bind decodes and validates the body into dst.  On failure it has already
// written a 400 and returns false.
func bind(c echo.Context, dst any, msg string) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}
	if err := c.Validate(dst); err != nil {
		var ve validator.ValidationErrors
		details := err.Error()
		if errors.As(err, &ve) && len(ve) > 0 {
			details = ve[0].Field() + " failed " + ve[0].Tag()
		}
		return false, c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": msg, "details": details})
	}
	return true, nil
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// statusFor maps a service error kind to an HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail logs err and writes the error response.  Upstream and unexpected
// failures expose the cause as "details".
func fail(c echo.Context, log *zap.Logger, op string, err error) error {
	kind := service.KindOf(err)
	status := statusFor(kind)
	body := echo.Map{"success": false}

	var se *service.Error
	if errors.As(err, &se) {
		body["message"] = se.Message
		if status == http.StatusInternalServerError && se.Cause != nil {
			body["details"] = se.Cause.Error()
		}
	} else {
		body["message"] = "internal server error"
		body["details"] = err.Error()
	}

	fields := []zap.Field{zap.String("op", op), zap.String("kind", kind.String()), zap.Error(err)}
	if status == http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Info("request rejected", fields...)
	}
	return c.JSON(status, body)
}

func ok(c echo.Context, status int, body echo.Map) error {
	body["success"] = true
	return c.JSON(status, body)
}
