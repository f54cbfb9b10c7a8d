package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/config"
	"github.com/kamyarm/wedding-seating/internal/repository"
	"github.com/kamyarm/wedding-seating/internal/utils"
)

// AuthHandler bundles dependencies for planner account endpoints. Guests
// never authenticate this way; their lookup token is their whole credential.
type AuthHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AdminRepo) *AuthHandler {
	if a == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Admins: a}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	AdminID uint64    `json:"admin_id"`
	Email   string    `json:"email"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Register creates a planner account and returns an access token
// immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Admins.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create admin failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		AdminID: id,
		Email:   req.Email,
		Token:   access.Token,
		Expires: access.Exp,
	})
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Admins.GetByEmail(ctx, req.Email)
	if err != nil || !utils.VerifyPassword(a.PasswordHash, req.Password) {
		// Same response for unknown email and wrong password.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !a.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		AdminID: a.ID,
		Email:   a.Email,
		Token:   access.Token,
		Expires: access.Exp,
	})
}
