package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const minPasswordLength = 6

// UserService manages accounts.
type UserService struct {
	users      repository.UserRepository
	companies  repository.CompanyRepository
	bcryptCost int
	logger     *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo    repository.UserRepository
	CompanyRepo repository.CompanyRepository
	BcryptCost  int
	Logger      *zap.Logger
}

// UserInput carries account fields. On update nil pointers and empty
// strings keep the stored value.
type UserInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Password  string
	CompanyID *string
	Roles     []string
	IsActive  *bool
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		companies:  deps.CompanyRepo,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
	}
}

// List pages accounts visible to the caller.
func (s *UserService) List(ctx context.Context, rc access.RequestContext, companyID *string, includeInactive bool, page repository.Page) (repository.PageResult[domain.AccountSummary], error) {
	if err := requireAction(rc, access.ActionViewUsers); err != nil {
		return repository.PageResult[domain.AccountSummary]{Page: page}, err
	}
	scope, err := scopeOrForbidden(rc, access.ResourceUser)
	if err != nil {
		return repository.PageResult[domain.AccountSummary]{Page: page}, err
	}
	return s.users.List(ctx, scope, repository.UserFilter{CompanyID: trimmedPtr(companyID), IncludeInactive: includeInactive}, page)
}

// Get loads one account.
func (s *UserService) Get(ctx context.Context, rc access.RequestContext, id string) (*domain.Account, error) {
	if err := requireAction(rc, access.ActionViewUsers); err != nil {
		return nil, err
	}
	return s.load(ctx, rc, id)
}

// Create registers an account with a hashed password.
func (s *UserService) Create(ctx context.Context, rc access.RequestContext, input UserInput) (*domain.Account, error) {
	if err := requireAction(rc, access.ActionManageUsers); err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
	}
	roles, err := s.resolveRoles(rc, input.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}

	companyID := trimmedPtr(input.CompanyID)
	if companyID == nil && rc.Role() != domain.RoleSuperAdmin && rc.HasTenant() {
		tenant := rc.Tenant()
		companyID = &tenant
	}
	if err := s.checkCompany(ctx, companyID, roles); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.TrimSpace(input.Email),
		Phone:        trimmedPtr(input.Phone),
		PasswordHash: hash,
		CompanyID:    companyID,
		Roles:        roles,
		IsActive:     true,
	}
	if account.FirstName == "" || account.Email == "" {
		return nil, apperrors.NewValidationError("firstName and email are required", nil)
	}
	if err := s.users.Create(ctx, account); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintUserEmail) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": account.Email})
		}
		return nil, err
	}
	s.logger.Info("account created", zap.String("user_id", account.ID), zap.Strings("roles", rolesToStrings(roles)))
	return account, nil
}

// Update edits an account's profile, company, roles and active flag.
func (s *UserService) Update(ctx context.Context, rc access.RequestContext, id string, input UserInput) (*domain.Account, error) {
	if err := requireAction(rc, access.ActionManageUsers); err != nil {
		return nil, err
	}
	account, err := s.load(ctx, rc, id)
	if err != nil {
		return nil, err
	}
	if err := guardSuperAdmin(rc, account, "modify"); err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(input.FirstName); v != "" {
		account.FirstName = v
	}
	if v := strings.TrimSpace(input.LastName); v != "" {
		account.LastName = v
	}
	if v := strings.TrimSpace(input.Email); v != "" {
		account.Email = v
	}
	if input.Phone != nil {
		account.Phone = trimmedPtr(input.Phone)
	}
	if input.Roles != nil {
		roles, err := s.resolveRoles(rc, input.Roles)
		if err != nil {
			return nil, err
		}
		if len(roles) == 0 {
			return nil, apperrors.NewValidationError("at least one role is required", nil)
		}
		account.Roles = roles
	}
	if input.CompanyID != nil {
		account.CompanyID = trimmedPtr(input.CompanyID)
	}
	if input.IsActive != nil {
		if !*input.IsActive && account.ID == rc.AccountID {
			return nil, apperrors.NewValidationError("cannot deactivate your own account", nil)
		}
		account.IsActive = *input.IsActive
	}
	if err := s.checkCompany(ctx, account.CompanyID, account.Roles); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, account); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintUserEmail) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": account.Email})
		}
		return nil, mapNotFound(err, "user")
	}
	return account, nil
}

// Delete deactivates the account.
func (s *UserService) Delete(ctx context.Context, rc access.RequestContext, id string) error {
	if err := requireAction(rc, access.ActionManageUsers); err != nil {
		return err
	}
	if id == rc.AccountID {
		return apperrors.NewValidationError("cannot delete your own account", nil)
	}
	target, err := s.load(ctx, rc, id)
	if err != nil {
		return err
	}
	if err := guardSuperAdmin(rc, target, "delete"); err != nil {
		return err
	}
	if err := s.users.Deactivate(ctx, id); err != nil {
		return mapNotFound(err, "user")
	}
	s.logger.Info("account deactivated", zap.String("user_id", id), zap.String("by", rc.AccountID))
	return nil
}

// ResetPassword sets a new password for another account.
func (s *UserService) ResetPassword(ctx context.Context, rc access.RequestContext, id, password string) error {
	if err := requireAction(rc, access.ActionManageUsers); err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("password must be at least 6 characters", nil)
	}
	target, err := s.load(ctx, rc, id)
	if err != nil {
		return err
	}
	if err := guardSuperAdmin(rc, target, "reset the password of"); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return mapNotFound(err, "user")
	}
	return nil
}

// guardSuperAdmin keeps platform owner accounts out of reach of tenant admins.
func guardSuperAdmin(rc access.RequestContext, target *domain.Account, verb string) error {
	if domain.HighestRole(target.Roles) == domain.RoleSuperAdmin && rc.Role() != domain.RoleSuperAdmin {
		return apperrors.NewForbidden("only SuperAdmin may " + verb + " a SuperAdmin account")
	}
	return nil
}

// Roles lists the roles the caller may assign.
func (s *UserService) Roles(rc access.RequestContext) []domain.Role {
	roles := domain.AllRoles()
	if rc.Role() == domain.RoleSuperAdmin {
		return roles
	}
	return roles[1:]
}

// EnsureSuperAdmin creates the first platform account when none exists.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	if strings.TrimSpace(cfg.SuperAdminEmail) == "" || cfg.SuperAdminPassword == "" {
		return nil
	}
	count, err := s.users.CountByRole(ctx, domain.RoleSuperAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(cfg.SuperAdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	account := &domain.Account{
		FirstName:    "Super",
		LastName:     "Admin",
		Email:        strings.TrimSpace(cfg.SuperAdminEmail),
		PasswordHash: hash,
		Roles:        []domain.Role{domain.RoleSuperAdmin},
		IsActive:     true,
	}
	if err := s.users.Create(ctx, account); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintUserEmail) {
			return nil
		}
		return err
	}
	s.logger.Info("bootstrap super admin created", zap.String("email", account.Email))
	return nil
}

func (s *UserService) load(ctx context.Context, rc access.RequestContext, id string) (*domain.Account, error) {
	scope, err := scopeOrForbidden(rc, access.ResourceUser)
	if err != nil {
		return nil, err
	}
	account, err := s.users.GetByID(ctx, scope, id)
	if err != nil {
		return nil, mapNotFound(err, "user")
	}
	return account, nil
}

func (s *UserService) resolveRoles(rc access.RequestContext, names []string) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(names))
	seen := make(map[domain.Role]struct{}, len(names))
	for _, name := range names {
		role, ok := domain.ParseRole(name)
		if !ok {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": name})
		}
		if role == domain.RoleSuperAdmin && rc.Role() != domain.RoleSuperAdmin {
			return nil, apperrors.NewForbidden("only SuperAdmin may grant SuperAdmin")
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles, nil
}

// checkCompany requires a live company for every non-platform account.
func (s *UserService) checkCompany(ctx context.Context, companyID *string, roles []domain.Role) error {
	if companyID == nil {
		if domain.HighestRole(roles) != domain.RoleSuperAdmin {
			return apperrors.NewValidationError("companyId is required for non-SuperAdmin accounts", nil)
		}
		return nil
	}
	company, err := s.companies.GetByID(ctx, access.Unscoped(), *companyID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewValidationError("company does not exist", map[string]any{"companyId": *companyID})
		}
		return err
	}
	if !company.IsActive {
		return apperrors.NewValidationError("company is inactive", map[string]any{"companyId": *companyID})
	}
	return nil
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}
