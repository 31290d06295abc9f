package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ALVINfrs/caffeine/internal/service"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(service.KindValidation))
	assert.Equal(t, http.StatusBadRequest, statusFor(service.KindConflict))
	assert.Equal(t, http.StatusNotFound, statusFor(service.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(service.KindUpstream))
	assert.Equal(t, http.StatusInternalServerError, statusFor(service.KindUnexpected))
}

func TestFail_ExposesCauseOnlyForServerErrors(t *testing.T) {
	e := echo.New()
	log := zaptest.NewLogger(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, fail(c, log, "test", service.Upstream("failed to create payment transaction", errors.New("401 unauthorized"))))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"failed to create payment transaction","details":"401 unauthorized"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, fail(c, log, "test", service.Conflictf("table not available for the chosen time")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"table not available for the chosen time"}`, rec.Body.String())
}

