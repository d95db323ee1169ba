package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketTypeRequest creates or updates a ticket type.
type TicketTypeRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Icon        string  `json:"icon" validate:"max=50"`
	Color       string  `json:"color" validate:"max=20"`
	SortOrder   int     `json:"sortOrder"`
	IsActive    *bool   `json:"isActive"`
}

// TaxonomyRequest creates a category or a module.
type TaxonomyRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Icon        *string `json:"icon" validate:"omitempty,max=50"`
	Color       *string `json:"color" validate:"omitempty,max=20"`
	SortOrder   int     `json:"sortOrder"`
}

// FormFieldRequest creates or updates a form field.
type FormFieldRequest struct {
	FieldName       string  `json:"fieldName" validate:"required,max=100"`
	DisplayName     string  `json:"displayName" validate:"required,max=100"`
	FieldType       string  `json:"fieldType" validate:"required"`
	DefaultValue    *string `json:"defaultValue"`
	PlaceholderText *string `json:"placeholderText" validate:"omitempty,max=200"`
	HelpText        *string `json:"helpText" validate:"omitempty,max=500"`
	IsRequired      bool    `json:"isRequired"`
	SortOrder       int     `json:"sortOrder"`
	MinLength       *int    `json:"minLength" validate:"omitempty,gte=0"`
	MaxLength       *int    `json:"maxLength" validate:"omitempty,gte=0"`
	ValidationRules *string `json:"validationRules"`
	Options         *string `json:"options"`
}

// TicketTypeListQuery filters GET /tickettypes.
type TicketTypeListQuery struct {
	PageQuery
	IncludeInactive bool `query:"includeInactive"`
}

type TicketTypeResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Icon        string     `json:"icon"`
	Color       string     `json:"color"`
	SortOrder   int        `json:"sortOrder"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// TicketTypeDetailResponse includes the active form fields.
type TicketTypeDetailResponse struct {
	TicketTypeResponse
	FormFields []FormFieldResponse `json:"formFields"`
}

// TaxonomyResponse renders categories and modules.
type TaxonomyResponse struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId,omitempty"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	Color       *string   `json:"color,omitempty"`
	SortOrder   int       `json:"sortOrder"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type FormFieldResponse struct {
	ID              string           `json:"id"`
	TicketTypeID    string           `json:"ticketTypeId"`
	FieldName       string           `json:"fieldName"`
	DisplayName     string           `json:"displayName"`
	FieldType       domain.FieldType `json:"fieldType"`
	DefaultValue    *string          `json:"defaultValue,omitempty"`
	PlaceholderText *string          `json:"placeholderText,omitempty"`
	HelpText        *string          `json:"helpText,omitempty"`
	IsRequired      bool             `json:"isRequired"`
	SortOrder       int              `json:"sortOrder"`
	MinLength       *int             `json:"minLength,omitempty"`
	MaxLength       *int             `json:"maxLength,omitempty"`
	ValidationRules *string          `json:"validationRules,omitempty"`
	Options         *string          `json:"options,omitempty"`
	IsActive        bool             `json:"isActive"`
}

func FromTicketType(t domain.TicketType) TicketTypeResponse {
	return TicketTypeResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Icon:        t.Icon,
		Color:       t.Color,
		SortOrder:   t.SortOrder,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromCategory(c domain.Category) TaxonomyResponse {
	return TaxonomyResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		Color:       c.Color,
		SortOrder:   c.SortOrder,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}

func FromModule(m domain.Module) TaxonomyResponse {
	return TaxonomyResponse{
		ID:          m.ID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Description: m.Description,
		Icon:        m.Icon,
		Color:       m.Color,
		SortOrder:   m.SortOrder,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
	}
}

func FromFormField(f domain.FormField) FormFieldResponse {
	return FormFieldResponse{
		ID:              f.ID,
		TicketTypeID:    f.TicketTypeID,
		FieldName:       f.FieldName,
		DisplayName:     f.DisplayName,
		FieldType:       f.FieldType,
		DefaultValue:    f.DefaultValue,
		PlaceholderText: f.PlaceholderText,
		HelpText:        f.HelpText,
		IsRequired:      f.IsRequired,
		SortOrder:       f.SortOrder,
		MinLength:       f.MinLength,
		MaxLength:       f.MaxLength,
		ValidationRules: f.ValidationRules,
		Options:         f.Options,
		IsActive:        f.IsActive,
	}
}
