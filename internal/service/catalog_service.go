package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// CatalogService exposes the shared ticket taxonomy.
type CatalogService struct {
	catalog repository.CatalogRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(catalog repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// TicketTypeInput carries ticket type fields.
type TicketTypeInput struct {
	Name        string
	Description *string
	Icon        string
	Color       string
	SortOrder   int
	IsActive    *bool
}

// TicketTypeDetail is a ticket type with its active form fields.
type TicketTypeDetail struct {
	TicketType domain.TicketType
	FormFields []domain.FormField
}

// TaxonomyInput carries category and module fields.
type TaxonomyInput struct {
	Name        string
	Description *string
	Icon        *string
	Color       *string
	SortOrder   int
}

// FormFieldInput carries form field fields.
type FormFieldInput struct {
	FieldName       string
	DisplayName     string
	FieldType       string
	DefaultValue    *string
	PlaceholderText *string
	HelpText        *string
	IsRequired      bool
	SortOrder       int
	MinLength       *int
	MaxLength       *int
	ValidationRules *string
	Options         *string
}

func (s *CatalogService) ListTicketTypes(ctx context.Context, rc access.RequestContext, includeInactive bool, page repository.Page) (repository.PageResult[domain.TicketType], error) {
	if !access.Can(rc, access.ActionManageCatalog) {
		includeInactive = false
	}
	return s.catalog.ListTicketTypes(ctx, includeInactive, page)
}

// GetTicketType loads a ticket type together with its form.
func (s *CatalogService) GetTicketType(ctx context.Context, id string) (*TicketTypeDetail, error) {
	detail := &TicketTypeDetail{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticketType, err := s.catalog.GetTicketType(gctx, id)
		if err != nil {
			return mapNotFound(err, "ticket type")
		}
		detail.TicketType = *ticketType
		return nil
	})
	g.Go(func() (err error) {
		detail.FormFields, err = s.catalog.ListFormFields(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *CatalogService) CreateTicketType(ctx context.Context, rc access.RequestContext, input TicketTypeInput) (*domain.TicketType, error) {
	if err := requireAction(rc, access.ActionManageCatalog); err != nil {
		return nil, err
	}
	ticketType := &domain.TicketType{IsActive: true}
	if err := applyTicketType(ticketType, input); err != nil {
		return nil, err
	}
	if err := s.catalog.CreateTicketType(ctx, ticketType); err != nil {
		return nil, err
	}
	return ticketType, nil
}

func (s *CatalogService) UpdateTicketType(ctx context.Context, rc access.RequestContext, id string, input TicketTypeInput) (*domain.TicketType, error) {
	if err := requireAction(rc, access.ActionManageCatalog); err != nil {
		return nil, err
	}
	ticketType, err := s.catalog.GetTicketType(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "ticket type")
	}
	if err := applyTicketType(ticketType, input); err != nil {
		return nil, err
	}
	if err := s.catalog.UpdateTicketType(ctx, ticketType); err != nil {
		return nil, mapNotFound(err, "ticket type")
	}
	return ticketType, nil
}

func applyTicketType(t *domain.TicketType, input TicketTypeInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return apperrors.NewValidationError("name is required", nil)
	}
	t.Name = name
	t.Description = trimmedPtr(input.Description)
	t.Icon = strings.TrimSpace(input.Icon)
	if t.Icon == "" {
		t.Icon = "fas fa-ticket-alt"
	}
	t.Color = strings.TrimSpace(input.Color)
	if t.Color == "" {
		t.Color = "#007bff"
	}
	t.SortOrder = input.SortOrder
	if input.IsActive != nil {
		t.IsActive = *input.IsActive
	}
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context, page repository.Page) (repository.PageResult[domain.Category], error) {
	return s.catalog.ListCategories(ctx, page)
}

func (s *CatalogService) CreateCategory(ctx context.Context, rc access.RequestContext, input TaxonomyInput) (*domain.Category, error) {
	if err := requireAction(rc, access.ActionManageCatalog); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	category := &domain.Category{
		Name:        name,
		Description: trimmedPtr(input.Description),
		Icon:        trimmedPtr(input.Icon),
		Color:       trimmedPtr(input.Color),
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListModules returns the active modules of a category.
func (s *CatalogService) ListModules(ctx context.Context, categoryID string) ([]domain.Module, error) {
	if _, err := s.catalog.GetCategory(ctx, categoryID); err != nil {
		return nil, mapNotFound(err, "category")
	}
	return s.catalog.ListModules(ctx, categoryID)
}

func (s *CatalogService) CreateModule(ctx context.Context, rc access.RequestContext, categoryID string, input TaxonomyInput) (*domain.Module, error) {
	if err := requireAction(rc, access.ActionManageCatalog); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if _, err := s.catalog.GetCategory(ctx, categoryID); err != nil {
		return nil, mapNotFound(err, "category")
	}
	module := &domain.Module{
		CategoryID:  categoryID,
		Name:        name,
		Description: trimmedPtr(input.Description),
		Icon:        trimmedPtr(input.Icon),
		Color:       trimmedPtr(input.Color),
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}
	if err := s.catalog.CreateModule(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *CatalogService) ListFormFields(ctx context.Context, ticketTypeID string) ([]domain.FormField, error) {
	if _, err := s.catalog.GetTicketType(ctx, ticketTypeID); err != nil {
		return nil, mapNotFound(err, "ticket type")
	}
	return s.catalog.ListFormFields(ctx, ticketTypeID)
}

func (s *CatalogService) CreateFormField(ctx context.Context, rc access.RequestContext, ticketTypeID string, input FormFieldInput) (*domain.FormField, error) {
	if err := requireAction(rc, access.ActionManageCatalog); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetTicketType(ctx, ticketTypeID); err != nil {
		return nil, mapNotFound(err, "ticket type")
	}
	field := &domain.FormField{TicketTypeID: ticketTypeID, IsActive: true}
	if err := applyFormField(field, input); err != nil {
		return nil, err
	}
	if err := s.catalog.CreateFormField(ctx, field); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, apperrors.NewNotFound("ticket type", nil)
		}
		return nil, err
	}
	return field, nil
}

func (s *CatalogService) UpdateFormField(ctx context.Context, rc access.RequestContext, ticketTypeID, fieldID string, input FormFieldInput) (*domain.FormField, error) {
	if err := requireAction(rc, access.ActionManageCatalog); err != nil {
		return nil, err
	}
	field, err := s.formField(ctx, ticketTypeID, fieldID)
	if err != nil {
		return nil, err
	}
	if err := applyFormField(field, input); err != nil {
		return nil, err
	}
	if err := s.catalog.UpdateFormField(ctx, field); err != nil {
		return nil, mapNotFound(err, "form field")
	}
	return field, nil
}

// DeleteFormField deactivates the field.
func (s *CatalogService) DeleteFormField(ctx context.Context, rc access.RequestContext, ticketTypeID, fieldID string) error {
	if err := requireAction(rc, access.ActionManageCatalog); err != nil {
		return err
	}
	if _, err := s.formField(ctx, ticketTypeID, fieldID); err != nil {
		return err
	}
	return mapNotFound(s.catalog.DeactivateFormField(ctx, fieldID), "form field")
}

// FieldTypes lists the supported form widgets.
func (s *CatalogService) FieldTypes() []domain.FieldType {
	return domain.FieldTypes()
}

func (s *CatalogService) formField(ctx context.Context, ticketTypeID, fieldID string) (*domain.FormField, error) {
	field, err := s.catalog.GetFormField(ctx, fieldID)
	if err != nil {
		return nil, mapNotFound(err, "form field")
	}
	if field.TicketTypeID != ticketTypeID {
		return nil, apperrors.NewNotFound("form field", nil)
	}
	return field, nil
}

func applyFormField(f *domain.FormField, input FormFieldInput) error {
	f.FieldName = strings.TrimSpace(input.FieldName)
	f.DisplayName = strings.TrimSpace(input.DisplayName)
	if f.FieldName == "" || f.DisplayName == "" {
		return apperrors.NewValidationError("fieldName and displayName are required", nil)
	}
	if !domain.ValidFieldType(input.FieldType) {
		return apperrors.NewValidationError("unknown field type", map[string]any{"fieldType": input.FieldType})
	}
	if input.MinLength != nil && input.MaxLength != nil && *input.MinLength > *input.MaxLength {
		return apperrors.NewValidationError("minLength cannot exceed maxLength", nil)
	}
	f.FieldType = domain.FieldType(input.FieldType)
	f.DefaultValue = input.DefaultValue
	f.PlaceholderText = trimmedPtr(input.PlaceholderText)
	f.HelpText = trimmedPtr(input.HelpText)
	f.IsRequired = input.IsRequired
	f.SortOrder = input.SortOrder
	f.MinLength = input.MinLength
	f.MaxLength = input.MaxLength
	f.ValidationRules = trimmedPtr(input.ValidationRules)
	f.Options = trimmedPtr(input.Options)
	return nil
}
