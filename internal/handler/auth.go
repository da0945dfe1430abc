package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/middleware"
	"github.com/iliyamo/inventory-service/internal/model"
	"github.com/iliyamo/inventory-service/internal/repository"
	"github.com/iliyamo/inventory-service/internal/service"
	"github.com/iliyamo/inventory-service/internal/utils"
)

var errInvalidCredentials = apperr.New(apperr.Unauthenticated, "Invalid credentials")

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users      *repository.UserRepo
	Tokens     *service.TokenService
	BcryptCost int
}

func NewAuthHandler(u *repository.UserRepo, t *service.TokenService, bcryptCost int) *AuthHandler {
	return &AuthHandler{Users: u, Tokens: t, BcryptCost: bcryptCost}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

func (registerReq) messages() map[string]string {
	return map[string]string{
		"name.required":     "Name is required",
		"email.required":    "Email is required",
		"email.email":       "Please provide a valid email",
		"password.required": "Password is required",
		"password.min":      "Password must be at least 6 characters",
		"role.oneof":        "Role must be either user or admin",
	}
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (loginReq) messages() map[string]string {
	return map[string]string{
		"email.required":    "Email is required",
		"email.email":       "Please provide a valid email",
		"password.required": "Password is required",
	}
}

type authResp struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Register creates a user and returns a session token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = model.RoleUser
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Registration failed", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, strings.TrimSpace(req.Name), req.Email, hash, role)
	if err != nil {
		return err
	}
	token, exp, err := h.Tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Registration successful", authResp{User: u, Token: token, ExpiresAt: exp})
}

// Login verifies credentials and issues a new token. Unknown email and wrong
// password are indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return errInvalidCredentials
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return errInvalidCredentials
	}

	token, exp, err := h.Tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Login successful", authResp{User: u, Token: token, ExpiresAt: exp})
}

// Logout revokes the bearer token the request authenticated with until its
// natural expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := middleware.BearerToken(c)
	if raw == "" {
		return apperr.New(apperr.Unauthenticated, "No token provided")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, raw); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.New(apperr.Unauthenticated, "User not found")
	}
	return success(c, http.StatusOK, "User retrieved successfully", u)
}
