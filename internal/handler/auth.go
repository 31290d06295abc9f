package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/config"
	"github.com/ALVINfrs/caffeine/internal/middleware"
	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/repository"
	"github.com/ALVINfrs/caffeine/internal/session"
	"github.com/ALVINfrs/caffeine/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Sess  config.SessionConfig
	Users *repository.UserRepo
	Store session.Store
	Log   *zap.Logger
}

func NewAuthHandler(cfg config.Config, sess config.SessionConfig, users *repository.UserRepo, store session.Store, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Sess: sess, Users: users, Store: store, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a customer account.  It does not log the user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if okBind, err := bind(c, &req, "name, email and password are required"); !okBind {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, strings.TrimSpace(req.Name), req.Email, req.Password,
		strings.TrimSpace(req.Phone), model.RoleUser, h.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "email is already registered"})
	}
	if err != nil {
		h.Log.Error("register failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "registration failed"})
	}
	return ok(c, http.StatusCreated, echo.Map{"message": "registration successful", "userId": uid})
}

// authenticate checks credentials; nil user means bad credentials.
func (h *AuthHandler) authenticate(c echo.Context, req loginReq) (*model.User, error) {
	ctx, cancel := withTimeout(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return nil, nil
	}
	return &u, nil
}

// startSession stores a fresh session for u and sets the cookie.
func (h *AuthHandler) startSession(c echo.Context, u *model.User) (session.Data, error) {
	if old := middleware.SessionID(c); old != "" {
		_ = h.Store.Destroy(c.Request().Context(), old)
	}
	id := session.NewID()
	data := session.FromUser(u)
	if err := h.Store.Set(c.Request().Context(), id, data); err != nil {
		return data, err
	}
	c.SetCookie(h.cookie(id, int(h.Sess.TTL.Seconds())))
	return data, nil
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	ck := &http.Cookie{
		Name:     h.Sess.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.Sess.Secure {
		ck.Secure = true
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if okBind, err := bind(c, &req, "email and password are required"); !okBind {
		return err
	}
	u, err := h.authenticate(c, req)
	if err != nil {
		h.Log.Error("login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "login failed"})
	}
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid email or password"})
	}
	data, err := h.startSession(c, u)
	if err != nil {
		h.Log.Error("session store failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "login failed"})
	}
	return ok(c, http.StatusOK, echo.Map{"message": "login successful", "user": data.User})
}

// AdminLogin is Login restricted to admins.  It also returns a bearer
// token for the admin API.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req loginReq
	if okBind, err := bind(c, &req, "email and password are required"); !okBind {
		return err
	}
	u, err := h.authenticate(c, req)
	if err != nil {
		h.Log.Error("admin login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "login failed"})
	}
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid email or password"})
	}
	if u.Role != model.RoleAdmin {
		h.Log.Warn("non-admin attempted admin login", zap.Uint64("user_id", u.ID))
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "access denied, admin only"})
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		h.Log.Error("issue admin token failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "login failed"})
	}
	data, err := h.startSession(c, u)
	if err != nil {
		h.Log.Error("session store failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "login failed"})
	}
	return ok(c, http.StatusOK, echo.Map{
		"message": "admin login successful",
		"user":    data.User,
		"token":   tok.Token,
		"expires": tok.Exp,
	})
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if id := middleware.SessionID(c); id != "" {
		if err := h.Store.Destroy(c.Request().Context(), id); err != nil {
			h.Log.Error("session destroy failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "logout failed"})
		}
	}
	c.SetCookie(h.cookie("", -1))
	return ok(c, http.StatusOK, echo.Map{"message": "logout successful"})
}

// Me returns the signed-in user, or loggedIn=false for guests.
func (h *AuthHandler) Me(c echo.Context) error {
	id := middleware.SessionID(c)
	if id == "" {
		return c.JSON(http.StatusOK, echo.Map{"loggedIn": false})
	}
	data, err := h.Store.Get(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"loggedIn": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"loggedIn": true, "user": data.User})
}
