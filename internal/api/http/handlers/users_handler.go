package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// UsersHandler manages accounts.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var q dto.UserListQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	var companyID *string
	if q.CompanyID != "" {
		companyID = &q.CompanyID
	}
	result, err := h.users.List(c.UserContext(), rc, companyID, q.IncludeInactive, q.ToPage())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(result, dto.FromAccountSummary))
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	account, err := h.users.Get(c.UserContext(), rc, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromAccount(*account)})
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	account, err := h.users.Create(c.UserContext(), rc, service.UserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		CompanyID: req.CompanyID,
		Roles:     req.Roles,
	})
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusCreated, "user created", fiber.Map{"data": dto.FromAccount(*account)})
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	account, err := h.users.Update(c.UserContext(), rc, id, service.UserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		CompanyID: req.CompanyID,
		Roles:     req.Roles,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "user updated", fiber.Map{"data": dto.FromAccount(*account)})
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), rc, id); err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "user deactivated", nil)
}

// ResetPassword handles PUT /users/:id/password.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.ResetPasswordRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.ResetPassword(c.UserContext(), rc, id, req.NewPassword); err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "password updated", nil)
}

// Roles handles GET /users/roles.
func (h *UsersHandler) Roles(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	roles := h.users.Roles(rc)
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return c.JSON(fiber.Map{"data": names})
}
