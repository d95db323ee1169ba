package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	defaultTicketCredits      = 100
	defaultMonthlyTicketLimit = 50
	maxCreditTopUp            = 10000
)

var databaseNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// CompanyService manages tenants.
type CompanyService struct {
	companies repository.CompanyRepository
	users     repository.UserRepository
	tickets   repository.TicketRepository
	logger    *zap.Logger
	now       func() time.Time
}

// CompanyDependencies bundles collaborators for the company service.
type CompanyDependencies struct {
	CompanyRepo repository.CompanyRepository
	UserRepo    repository.UserRepository
	TicketRepo  repository.TicketRepository
	Logger      *zap.Logger
	Now         func() time.Time
}

// CompanyInput carries create and update fields. Nil pointers leave the
// stored value untouched on update.
type CompanyInput struct {
	Name               string
	DatabaseName       string
	Address            *string
	Phone              *string
	Email              *string
	ContactPerson      *string
	TicketCredits      *int
	PlanType           *string
	MonthlyTicketLimit *int
	IsActive           *bool
}

// CompanyDetail is a company with its usage statistics.
type CompanyDetail struct {
	Company domain.Company
	Stats   domain.CompanyStats
}

// NewCompanyService constructs the service.
func NewCompanyService(deps CompanyDependencies) *CompanyService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &CompanyService{
		companies: deps.CompanyRepo,
		users:     deps.UserRepo,
		tickets:   deps.TicketRepo,
		logger:    logger,
		now:       now,
	}
}

// List pages companies by name. Only SuperAdmin may include inactive ones.
func (s *CompanyService) List(ctx context.Context, rc access.RequestContext, includeInactive bool, page repository.Page) (repository.PageResult[domain.CompanySummary], error) {
	if err := requireAction(rc, access.ActionViewCompanies); err != nil {
		return repository.PageResult[domain.CompanySummary]{Page: page}, err
	}
	scope, err := scopeOrForbidden(rc, access.ResourceCompany)
	if err != nil {
		return repository.PageResult[domain.CompanySummary]{Page: page}, err
	}
	if rc.Role() != domain.RoleSuperAdmin {
		includeInactive = false
	}
	return s.companies.List(ctx, scope, includeInactive, page)
}

// Get loads a company and gathers its statistics concurrently.
func (s *CompanyService) Get(ctx context.Context, rc access.RequestContext, id string) (*CompanyDetail, error) {
	company, err := s.load(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	detail := &CompanyDetail{Company: *company}
	open := domain.TicketStatusOpen
	resolved := domain.TicketStatusResolved
	since := monthStart(s.now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		detail.Stats.UserCount, err = s.users.CountByCompany(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		detail.Stats.TicketCount, err = s.tickets.CountByCompany(gctx, id, repository.TicketCountFilter{})
		return err
	})
	g.Go(func() (err error) {
		detail.Stats.OpenTicketCount, err = s.tickets.CountByCompany(gctx, id, repository.TicketCountFilter{Status: &open})
		return err
	})
	g.Go(func() (err error) {
		detail.Stats.ResolvedTicketCount, err = s.tickets.CountByCompany(gctx, id, repository.TicketCountFilter{Status: &resolved})
		return err
	})
	g.Go(func() (err error) {
		detail.Stats.MonthlyTicketUsage, err = s.tickets.CountByCompany(gctx, id, repository.TicketCountFilter{CreatedSince: &since})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// Create registers a tenant. SuperAdmin only.
func (s *CompanyService) Create(ctx context.Context, rc access.RequestContext, input CompanyInput) (*domain.Company, error) {
	if err := requireAction(rc, access.ActionCreateCompany); err != nil {
		return nil, err
	}

	company := &domain.Company{
		Name:               strings.TrimSpace(input.Name),
		DatabaseName:       strings.TrimSpace(input.DatabaseName),
		Address:            trimmedPtr(input.Address),
		Phone:              trimmedPtr(input.Phone),
		Email:              trimmedPtr(input.Email),
		ContactPerson:      trimmedPtr(input.ContactPerson),
		TicketCredits:      defaultTicketCredits,
		PlanType:           domain.PlanBasic,
		MonthlyTicketLimit: defaultMonthlyTicketLimit,
		IsActive:           true,
	}
	if company.Name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if !databaseNamePattern.MatchString(company.DatabaseName) {
		return nil, apperrors.NewValidationError("databaseName may only contain letters, digits and underscores", map[string]any{"databaseName": company.DatabaseName})
	}
	if err := applyPrivilegedCompanyFields(company, input); err != nil {
		return nil, err
	}

	if err := s.companies.Create(ctx, company); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintCompanyDatabaseName) {
			return nil, apperrors.NewConflict("database name already in use", map[string]any{"databaseName": company.DatabaseName})
		}
		return nil, err
	}
	s.logger.Info("company created", zap.String("company_id", company.ID), zap.String("database_name", company.DatabaseName))
	return company, nil
}

// Update edits a company. Admins may change the contact fields of their own
// company; credits, plan, limit and the active flag are SuperAdmin only.
func (s *CompanyService) Update(ctx context.Context, rc access.RequestContext, id string, input CompanyInput) (*domain.Company, error) {
	if err := requireAction(rc, access.ActionUpdateCompany); err != nil {
		return nil, err
	}
	company, err := s.load(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	privileged := input.TicketCredits != nil || input.PlanType != nil || input.MonthlyTicketLimit != nil || input.IsActive != nil
	if privileged && !access.Can(rc, access.ActionManageCompany) {
		return nil, apperrors.NewForbidden("only SuperAdmin may change credits, plan, limit or status")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		company.Name = name
	}
	if input.Address != nil {
		company.Address = trimmedPtr(input.Address)
	}
	if input.Phone != nil {
		company.Phone = trimmedPtr(input.Phone)
	}
	if input.Email != nil {
		company.Email = trimmedPtr(input.Email)
	}
	if input.ContactPerson != nil {
		company.ContactPerson = trimmedPtr(input.ContactPerson)
	}
	if err := applyPrivilegedCompanyFields(company, input); err != nil {
		return nil, err
	}

	if err := s.companies.Update(ctx, company); err != nil {
		if repository.IsCheckViolation(err, repository.ConstraintCompanyCredits) {
			return nil, apperrors.NewValidationError("ticket credits cannot be negative", nil)
		}
		return nil, mapNotFound(err, "company")
	}
	return company, nil
}

// AddCredits tops up the balance by delta and returns the new balance.
func (s *CompanyService) AddCredits(ctx context.Context, rc access.RequestContext, id string, delta int) (int, error) {
	if err := requireAction(rc, access.ActionManageCompany); err != nil {
		return 0, err
	}
	if delta < 1 || delta > maxCreditTopUp {
		return 0, apperrors.NewValidationError("credits must be between 1 and 10000", map[string]any{"credits": delta})
	}
	balance, err := s.companies.AddCredits(ctx, id, delta)
	if err != nil {
		if repository.IsCheckViolation(err, repository.ConstraintCompanyCredits) {
			return 0, apperrors.NewValidationError("ticket credits cannot be negative", nil)
		}
		return 0, mapNotFound(err, "company")
	}
	s.logger.Info("company credits added", zap.String("company_id", id), zap.Int("delta", delta), zap.Int("balance", balance))
	return balance, nil
}

// Delete deactivates the company.
func (s *CompanyService) Delete(ctx context.Context, rc access.RequestContext, id string) error {
	if err := requireAction(rc, access.ActionManageCompany); err != nil {
		return err
	}
	if err := s.companies.Deactivate(ctx, id); err != nil {
		return mapNotFound(err, "company")
	}
	s.logger.Info("company deactivated", zap.String("company_id", id))
	return nil
}

// Users pages the accounts of one company.
func (s *CompanyService) Users(ctx context.Context, rc access.RequestContext, id string, page repository.Page) (repository.PageResult[domain.AccountSummary], error) {
	if _, err := s.load(ctx, rc, id); err != nil {
		return repository.PageResult[domain.AccountSummary]{Page: page}, err
	}
	return s.users.List(ctx, access.Unscoped(), repository.UserFilter{CompanyID: &id}, page)
}

// Tickets pages the tickets of one company.
func (s *CompanyService) Tickets(ctx context.Context, rc access.RequestContext, id string, page repository.Page) (repository.PageResult[domain.TicketView], error) {
	if _, err := s.load(ctx, rc, id); err != nil {
		return repository.PageResult[domain.TicketView]{Page: page}, err
	}
	return s.tickets.List(ctx, access.Unscoped(), repository.TicketFilter{CompanyID: &id}, page)
}

func (s *CompanyService) load(ctx context.Context, rc access.RequestContext, id string) (*domain.Company, error) {
	if err := requireAction(rc, access.ActionViewCompanies); err != nil {
		return nil, err
	}
	scope, err := scopeOrForbidden(rc, access.ResourceCompany)
	if err != nil {
		return nil, err
	}
	company, err := s.companies.GetByID(ctx, scope, id)
	if err != nil {
		return nil, mapNotFound(err, "company")
	}
	return company, nil
}

func applyPrivilegedCompanyFields(company *domain.Company, input CompanyInput) error {
	if input.TicketCredits != nil {
		if *input.TicketCredits < 0 {
			return apperrors.NewValidationError("ticket credits cannot be negative", map[string]any{"ticketCredits": *input.TicketCredits})
		}
		company.TicketCredits = *input.TicketCredits
	}
	if input.PlanType != nil {
		plan, ok := domain.ParsePlanType(*input.PlanType)
		if !ok {
			return apperrors.NewValidationError("unknown plan type", map[string]any{"planType": *input.PlanType})
		}
		company.PlanType = plan
	}
	if input.MonthlyTicketLimit != nil {
		if *input.MonthlyTicketLimit < 0 {
			return apperrors.NewValidationError("monthly ticket limit cannot be negative", map[string]any{"monthlyTicketLimit": *input.MonthlyTicketLimit})
		}
		company.MonthlyTicketLimit = *input.MonthlyTicketLimit
	}
	if input.IsActive != nil {
		company.IsActive = *input.IsActive
	}
	return nil
}
