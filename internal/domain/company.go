package domain

import (
	"strings"
	"time"
)

// PlanType is the commercial tier of a company.
type PlanType string

const (
	PlanFree       PlanType = "FREE"
	PlanBasic      PlanType = "BASIC"
	PlanPremium    PlanType = "PREMIUM"
	PlanEnterprise PlanType = "ENTERPRISE"
)

// PlanInfo describes the quota attached to a plan tier.
type PlanInfo struct {
	Name               string
	MonthlyTicketLimit int
	UserLimit          int
}

// Plans holds the catalogue of plan tiers.
var Plans = map[PlanType]PlanInfo{
	PlanFree:       {Name: "Free", MonthlyTicketLimit: 10, UserLimit: 3},
	PlanBasic:      {Name: "Basic", MonthlyTicketLimit: 50, UserLimit: 10},
	PlanPremium:    {Name: "Premium", MonthlyTicketLimit: 200, UserLimit: 50},
	PlanEnterprise: {Name: "Enterprise", MonthlyTicketLimit: 10000, UserLimit: 1000},
}

// ParsePlanType accepts FREE/Basic/premium style spellings.
func ParsePlanType(value string) (PlanType, bool) {
	plan := PlanType(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := Plans[plan]; ok {
		return plan, true
	}
	return "", false
}

// Company is a tenant; most data is partitioned by its id.
type Company struct {
	ID                 string
	Name               string
	DatabaseName       string
	Address            *string
	Phone              *string
	Email              *string
	ContactPerson      *string
	TicketCredits      int
	PlanType           PlanType
	MonthlyTicketLimit int
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

// CompanySummary is the list projection of a company.
type CompanySummary struct {
	Company
	UserCount   int
	TicketCount int
}

// CompanyStats aggregates usage figures for the detail view.
type CompanyStats struct {
	UserCount           int
	TicketCount         int
	OpenTicketCount     int
	ResolvedTicketCount int
	MonthlyTicketUsage  int
}
