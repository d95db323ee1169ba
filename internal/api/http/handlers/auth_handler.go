package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// AuthHandler exposes login and logout.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Message:   "login successful",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.FromAccount(*result.Account),
	})
}

// Logout handles POST /auth/logout. Tokens are stateless, so this only
// acknowledges the request.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), rc.AccountID); err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "logged out", nil)
}
