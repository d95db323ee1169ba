package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CompaniesHandler manages tenants.
type CompaniesHandler struct {
	companies *service.CompanyService
}

// NewCompaniesHandler constructs handler.
func NewCompaniesHandler(companyService *service.CompanyService) *CompaniesHandler {
	return &CompaniesHandler{companies: companyService}
}

// List handles GET /companies.
func (h *CompaniesHandler) List(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var q dto.CompanyListQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	result, err := h.companies.List(c.UserContext(), rc, q.IncludeInactive, q.ToPage())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(result, dto.FromCompanySummary))
}

// Get handles GET /companies/:id.
func (h *CompaniesHandler) Get(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.companies.Get(c.UserContext(), rc, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromCompanyDetail(detail.Company, detail.Stats)})
}

// Create handles POST /companies.
func (h *CompaniesHandler) Create(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateCompanyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	company, err := h.companies.Create(c.UserContext(), rc, service.CompanyInput{
		Name:               req.Name,
		DatabaseName:       req.DatabaseName,
		Address:            req.Address,
		Phone:              req.Phone,
		Email:              req.Email,
		ContactPerson:      req.ContactPerson,
		TicketCredits:      req.TicketCredits,
		PlanType:           req.PlanType,
		MonthlyTicketLimit: req.MonthlyTicketLimit,
	})
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusCreated, "company created", fiber.Map{"data": dto.FromCompany(*company)})
}

// Update handles PUT /companies/:id.
func (h *CompaniesHandler) Update(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCompanyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	company, err := h.companies.Update(c.UserContext(), rc, id, service.CompanyInput{
		Name:               req.Name,
		Address:            req.Address,
		Phone:              req.Phone,
		Email:              req.Email,
		ContactPerson:      req.ContactPerson,
		TicketCredits:      req.TicketCredits,
		PlanType:           req.PlanType,
		MonthlyTicketLimit: req.MonthlyTicketLimit,
		IsActive:           req.IsActive,
	})
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "company updated", fiber.Map{"data": dto.FromCompany(*company)})
}

// AddCredits handles PUT /companies/:id/credits.
func (h *CompaniesHandler) AddCredits(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.AddCreditsRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	balance, err := h.companies.AddCredits(c.UserContext(), rc, id, req.Credits)
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "credits added", fiber.Map{
		"addedCredits":  req.Credits,
		"ticketCredits": balance,
	})
}

// Delete handles DELETE /companies/:id.
func (h *CompaniesHandler) Delete(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.companies.Delete(c.UserContext(), rc, id); err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "company deactivated", nil)
}

// Users handles GET /companies/:id/users.
func (h *CompaniesHandler) Users(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var q dto.PageQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	result, err := h.companies.Users(c.UserContext(), rc, id, q.ToPage())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(result, dto.FromAccountSummary))
}

// Tickets handles GET /companies/:id/tickets.
func (h *CompaniesHandler) Tickets(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var q dto.PageQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	result, err := h.companies.Tickets(c.UserContext(), rc, id, q.ToPage())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(result, dto.FromTicketView))
}
