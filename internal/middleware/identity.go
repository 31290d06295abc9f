package middleware

// identity.go resolves who is calling from the session cookie.  Requests
// without a valid session get a guest model.Requester.

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/config"
	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/session"
)

const (
	requesterKey = "requester"
	sessionKey   = "session"
)

// Identity loads the session named by the session cookie and stores the
// resulting Requester in the context.  Unknown or expired sessions leave
// the caller a guest; store errors are logged and also degrade to guest.
func Identity(store session.Store, cfg config.SessionConfig, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(requesterKey, model.Requester{})
			ck, err := c.Cookie(cfg.CookieName)
			if err != nil || ck.Value == "" {
				return next(c)
			}
			d, err := store.Get(c.Request().Context(), ck.Value)
			switch {
			case errors.Is(err, session.ErrNotFound):
			case err != nil:
				log.Warn("session lookup failed", zap.Error(err))
			default:
				c.Set(sessionKey, ck.Value)
				c.Set(requesterKey, d.Requester())
			}
			return next(c)
		}
	}
}

// RequesterFrom returns the caller identity; a zero Requester for guests.
func RequesterFrom(c echo.Context) model.Requester {
	if who, ok := c.Get(requesterKey).(model.Requester); ok {
		return who
	}
	return model.Requester{}
}

// SetRequester overrides the caller identity for the rest of the request.
func SetRequester(c echo.Context, who model.Requester) { c.Set(requesterKey, who) }

// SessionID returns the id of the loaded session, or "".
func SessionID(c echo.Context) string {
	s, _ := c.Get(sessionKey).(string)
	return s
}

// RequireSession rejects guests with 401.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !RequesterFrom(c).Authenticated() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "login required"})
			}
			return next(c)
		}
	}
}

// userKey is the identity component of cache and rate-limit keys.
func userKey(c echo.Context) string {
	if who := RequesterFrom(c); who.Authenticated() {
		return strconv.FormatUint(*who.UserID, 10)
	}
	return "anon"
}
