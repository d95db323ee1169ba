package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateCompanyRequest payload.
type CreateCompanyRequest struct {
	Name               string  `json:"name" validate:"required,max=100"`
	DatabaseName       string  `json:"databaseName" validate:"required,max=50"`
	Address            *string `json:"address" validate:"omitempty,max=200"`
	Phone              *string `json:"phone" validate:"omitempty,max=20"`
	Email              *string `json:"email" validate:"omitempty,email,max=100"`
	ContactPerson      *string `json:"contactPerson" validate:"omitempty,max=50"`
	TicketCredits      *int    `json:"ticketCredits" validate:"omitempty,gte=0"`
	PlanType           *string `json:"planType"`
	MonthlyTicketLimit *int    `json:"monthlyTicketLimit" validate:"omitempty,gte=0"`
}

// UpdateCompanyRequest payload. Credits, plan, limit and active flag are
// honoured for SuperAdmin only.
type UpdateCompanyRequest struct {
	Name               string  `json:"name" validate:"max=100"`
	Address            *string `json:"address" validate:"omitempty,max=200"`
	Phone              *string `json:"phone" validate:"omitempty,max=20"`
	Email              *string `json:"email" validate:"omitempty,email,max=100"`
	ContactPerson      *string `json:"contactPerson" validate:"omitempty,max=50"`
	TicketCredits      *int    `json:"ticketCredits" validate:"omitempty,gte=0"`
	PlanType           *string `json:"planType"`
	MonthlyTicketLimit *int    `json:"monthlyTicketLimit" validate:"omitempty,gte=0"`
	IsActive           *bool   `json:"isActive"`
}

// AddCreditsRequest payload.
type AddCreditsRequest struct {
	Credits int `json:"credits" validate:"gte=1,lte=10000"`
}

// CompanyListQuery filters GET /companies.
type CompanyListQuery struct {
	PageQuery
	IncludeInactive bool `query:"includeInactive"`
}

// CompanyResponse is the company document.
type CompanyResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	DatabaseName       string          `json:"databaseName"`
	Address            *string         `json:"address,omitempty"`
	Phone              *string         `json:"phone,omitempty"`
	Email              *string         `json:"email,omitempty"`
	ContactPerson      *string         `json:"contactPerson,omitempty"`
	TicketCredits      int             `json:"ticketCredits"`
	PlanType           domain.PlanType `json:"planType"`
	MonthlyTicketLimit int             `json:"monthlyTicketLimit"`
	IsActive           bool            `json:"isActive"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          *time.Time      `json:"updatedAt,omitempty"`
	UserCount          *int            `json:"userCount,omitempty"`
	TicketCount        *int            `json:"ticketCount,omitempty"`
}

// CompanyStatsResponse aggregates usage.
type CompanyStatsResponse struct {
	UserCount           int `json:"userCount"`
	TicketCount         int `json:"ticketCount"`
	OpenTicketCount     int `json:"openTicketCount"`
	ResolvedTicketCount int `json:"resolvedTicketCount"`
	MonthlyTicketUsage  int `json:"monthlyTicketUsage"`
}

// CompanyDetailResponse is a company with its statistics.
type CompanyDetailResponse struct {
	CompanyResponse
	Stats CompanyStatsResponse `json:"stats"`
}

func FromCompany(c domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:                 c.ID,
		Name:               c.Name,
		DatabaseName:       c.DatabaseName,
		Address:            c.Address,
		Phone:              c.Phone,
		Email:              c.Email,
		ContactPerson:      c.ContactPerson,
		TicketCredits:      c.TicketCredits,
		PlanType:           c.PlanType,
		MonthlyTicketLimit: c.MonthlyTicketLimit,
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func FromCompanySummary(s domain.CompanySummary) CompanyResponse {
	out := FromCompany(s.Company)
	users, tickets := s.UserCount, s.TicketCount
	out.UserCount = &users
	out.TicketCount = &tickets
	return out
}

func FromCompanyDetail(c domain.Company, stats domain.CompanyStats) CompanyDetailResponse {
	return CompanyDetailResponse{
		CompanyResponse: FromCompany(c),
		Stats: CompanyStatsResponse{
			UserCount:           stats.UserCount,
			TicketCount:         stats.TicketCount,
			OpenTicketCount:     stats.OpenTicketCount,
			ResolvedTicketCount: stats.ResolvedTicketCount,
			MonthlyTicketUsage:  stats.MonthlyTicketUsage,
		},
	}
}
