package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=256"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse standard response for the login endpoint.
type LoginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	FirstName string   `json:"firstName" validate:"required,max=50"`
	LastName  string   `json:"lastName" validate:"max=50"`
	Email     string   `json:"email" validate:"required,email,max=256"`
	Phone     *string  `json:"phoneNumber" validate:"omitempty,max=20"`
	Password  string   `json:"password" validate:"required,min=6"`
	CompanyID *string  `json:"companyId" validate:"omitempty,optuuid"`
	Roles     []string `json:"roles"`
}

// UpdateUserRequest payload. Omitted fields are left unchanged.
type UpdateUserRequest struct {
	FirstName string   `json:"firstName" validate:"max=50"`
	LastName  string   `json:"lastName" validate:"max=50"`
	Email     string   `json:"email" validate:"omitempty,email,max=256"`
	Phone     *string  `json:"phoneNumber" validate:"omitempty,max=20"`
	CompanyID *string  `json:"companyId" validate:"omitempty,optuuid"`
	Roles     []string `json:"roles"`
	IsActive  *bool    `json:"isActive"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UserListQuery filters GET /users.
type UserListQuery struct {
	PageQuery
	CompanyID       string `query:"companyId" validate:"optuuid"`
	IncludeInactive bool   `query:"includeInactive"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	FullName    string     `json:"fullName"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phoneNumber,omitempty"`
	CompanyID   *string    `json:"companyId"`
	CompanyName *string    `json:"companyName,omitempty"`
	Roles       []string   `json:"roles"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// FromAccount maps an account without its password hash.
func FromAccount(a domain.Account) UserResponse {
	roles := make([]string, 0, len(a.Roles))
	for _, role := range a.Roles {
		roles = append(roles, string(role))
	}
	return UserResponse{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		FullName:  a.FullName(),
		Email:     a.Email,
		Phone:     a.Phone,
		CompanyID: a.CompanyID,
		Roles:     roles,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func FromAccountSummary(s domain.AccountSummary) UserResponse {
	out := FromAccount(s.Account)
	out.CompanyName = s.CompanyName
	return out
}
