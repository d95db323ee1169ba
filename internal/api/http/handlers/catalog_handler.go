package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CatalogHandler serves ticket types, categories, modules and form fields.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

// ListTicketTypes handles GET /tickettypes.
func (h *CatalogHandler) ListTicketTypes(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var q dto.TicketTypeListQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	result, err := h.catalog.ListTicketTypes(c.UserContext(), rc, q.IncludeInactive, q.ToPage())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(result, dto.FromTicketType))
}

// GetTicketType handles GET /tickettypes/:id.
func (h *CatalogHandler) GetTicketType(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.catalog.GetTicketType(c.UserContext(), id)
	if err != nil {
		return err
	}
	fields := make([]dto.FormFieldResponse, 0, len(detail.FormFields))
	for _, f := range detail.FormFields {
		fields = append(fields, dto.FromFormField(f))
	}
	return c.JSON(fiber.Map{"data": dto.TicketTypeDetailResponse{
		TicketTypeResponse: dto.FromTicketType(detail.TicketType),
		FormFields:         fields,
	}})
}

// CreateTicketType handles POST /tickettypes.
func (h *CatalogHandler) CreateTicketType(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.TicketTypeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	ticketType, err := h.catalog.CreateTicketType(c.UserContext(), rc, ticketTypeInput(req))
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusCreated, "ticket type created", fiber.Map{"data": dto.FromTicketType(*ticketType)})
}

// UpdateTicketType handles PUT /tickettypes/:id.
func (h *CatalogHandler) UpdateTicketType(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.TicketTypeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ticketType, err := h.catalog.UpdateTicketType(c.UserContext(), rc, id, ticketTypeInput(req))
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "ticket type updated", fiber.Map{"data": dto.FromTicketType(*ticketType)})
}

// ListCategories handles GET /tickettypes/categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	var q dto.PageQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	result, err := h.catalog.ListCategories(c.UserContext(), q.ToPage())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(result, dto.FromCategory))
}

// CreateCategory handles POST /tickettypes/categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.TaxonomyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	category, err := h.catalog.CreateCategory(c.UserContext(), rc, taxonomyInput(req))
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusCreated, "category created", fiber.Map{"data": dto.FromCategory(*category)})
}

// ListModules handles GET /tickettypes/categories/:id/modules.
func (h *CatalogHandler) ListModules(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	modules, err := h.catalog.ListModules(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.SingleList(modules, dto.FromModule))
}

// CreateModule handles POST /tickettypes/categories/:id/modules.
func (h *CatalogHandler) CreateModule(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.TaxonomyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	module, err := h.catalog.CreateModule(c.UserContext(), rc, id, taxonomyInput(req))
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusCreated, "module created", fiber.Map{"data": dto.FromModule(*module)})
}

// ListFormFields handles GET /tickettypes/:id/formfields.
func (h *CatalogHandler) ListFormFields(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fields, err := h.catalog.ListFormFields(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.SingleList(fields, dto.FromFormField))
}

// CreateFormField handles POST /tickettypes/:id/formfields.
func (h *CatalogHandler) CreateFormField(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.FormFieldRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	field, err := h.catalog.CreateFormField(c.UserContext(), rc, id, formFieldInput(req))
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusCreated, "form field created", fiber.Map{"data": dto.FromFormField(*field)})
}

// UpdateFormField handles PUT /tickettypes/:id/formfields/:fieldId.
func (h *CatalogHandler) UpdateFormField(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.FormFieldRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fieldID, err := pathID(c, "fieldId")
	if err != nil {
		return err
	}
	field, err := h.catalog.UpdateFormField(c.UserContext(), rc, id, fieldID, formFieldInput(req))
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "form field updated", fiber.Map{"data": dto.FromFormField(*field)})
}

// DeleteFormField handles DELETE /tickettypes/:id/formfields/:fieldId.
func (h *CatalogHandler) DeleteFormField(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fieldID, err := pathID(c, "fieldId")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteFormField(c.UserContext(), rc, id, fieldID); err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "form field deleted", nil)
}

// FieldTypes handles GET /tickettypes/field-types.
func (h *CatalogHandler) FieldTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.catalog.FieldTypes()})
}

func ticketTypeInput(req dto.TicketTypeRequest) service.TicketTypeInput {
	return service.TicketTypeInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	}
}

func taxonomyInput(req dto.TaxonomyRequest) service.TaxonomyInput {
	return service.TaxonomyInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		SortOrder:   req.SortOrder,
	}
}

func formFieldInput(req dto.FormFieldRequest) service.FormFieldInput {
	return service.FormFieldInput{
		FieldName:       req.FieldName,
		DisplayName:     req.DisplayName,
		FieldType:       req.FieldType,
		DefaultValue:    req.DefaultValue,
		PlaceholderText: req.PlaceholderText,
		HelpText:        req.HelpText,
		IsRequired:      req.IsRequired,
		SortOrder:       req.SortOrder,
		MinLength:       req.MinLength,
		MaxLength:       req.MaxLength,
		ValidationRules: req.ValidationRules,
		Options:         req.Options,
	}
}
