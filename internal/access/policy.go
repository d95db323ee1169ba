package access

import "github.com/spec-kit/helpdesk/internal/domain"

// Decision is the outcome of a policy check.
type Decision int

const (
	Denied Decision = iota
	TenantScoped
	FullAccess
)

func (d Decision) String() string {
	switch d {
	case FullAccess:
		return "FullAccess"
	case TenantScoped:
		return "TenantScoped"
	default:
		return "Denied"
	}
}

// Resource names the kind of data being accessed.
type Resource string

const (
	ResourceCompany    Resource = "company"
	ResourceUser       Resource = "user"
	ResourceTicket     Resource = "ticket"
	ResourceComment    Resource = "comment"
	ResourceAttachment Resource = "attachment"
	ResourceSetting    Resource = "setting"
	ResourceCatalog    Resource = "catalog"
)

var tenantRules = map[domain.Role]map[Resource]Decision{
	domain.RoleAdmin: {
		ResourceCompany:    TenantScoped,
		ResourceUser:       FullAccess,
		ResourceTicket:     FullAccess,
		ResourceComment:    FullAccess,
		ResourceAttachment: FullAccess,
		ResourceCatalog:    FullAccess,
	},
	domain.RoleSupport: {
		ResourceUser:       TenantScoped,
		ResourceTicket:     TenantScoped,
		ResourceComment:    TenantScoped,
		ResourceAttachment: TenantScoped,
		ResourceCatalog:    FullAccess,
	},
	domain.RoleCustomer: {
		ResourceTicket:     TenantScoped,
		ResourceComment:    TenantScoped,
		ResourceAttachment: TenantScoped,
		ResourceCatalog:    FullAccess,
	},
	domain.RoleUser: {
		ResourceTicket:     TenantScoped,
		ResourceComment:    TenantScoped,
		ResourceAttachment: TenantScoped,
		ResourceCatalog:    FullAccess,
	},
}

// Decide returns how far a caller with the given role and tenant may reach
// into resources of the given kind. A TenantScoped caller without a tenant
// is Denied.
func Decide(role domain.Role, callerTenant *string, kind Resource) Decision {
	if role == domain.RoleSuperAdmin {
		return FullAccess
	}
	decision := tenantRules[role][kind]
	if decision == TenantScoped && (callerTenant == nil || *callerTenant == "") {
		return Denied
	}
	return decision
}

// DecideFor applies Decide to a request context.
func DecideFor(rc RequestContext, kind Resource) Decision {
	return Decide(rc.Role(), rc.TenantID, kind)
}

// ScopeFor turns a decision into a query scope. The boolean is false when denied.
func ScopeFor(rc RequestContext, kind Resource) (Scope, bool) {
	switch DecideFor(rc, kind) {
	case FullAccess:
		return Unscoped(), true
	case TenantScoped:
		return TenantOnly(rc.Tenant()), true
	default:
		return Scope{}, false
	}
}

// Action is a role-gated operation.
type Action string

const (
	ActionCreateCompany  Action = "company:create"
	ActionUpdateCompany  Action = "company:update"
	ActionManageCompany  Action = "company:manage"
	ActionViewCompanies  Action = "company:view"
	ActionManageUsers    Action = "user:manage"
	ActionViewUsers      Action = "user:view"
	ActionChangeStatus   Action = "ticket:status"
	ActionViewInternal   Action = "comment:internal"
	ActionWriteInternal  Action = "comment:internal:write"
	ActionManageCatalog  Action = "catalog:manage"
	ActionViewSettings   Action = "setting:view"
	ActionManageSettings Action = "setting:manage"
	ActionManageFiles    Action = "file:manage"
)

var actionRoles = map[Action][]domain.Role{
	ActionCreateCompany:  {domain.RoleSuperAdmin},
	ActionManageCompany:  {domain.RoleSuperAdmin},
	ActionUpdateCompany:  {domain.RoleSuperAdmin, domain.RoleAdmin},
	ActionViewCompanies:  {domain.RoleSuperAdmin, domain.RoleAdmin},
	ActionManageUsers:    {domain.RoleSuperAdmin, domain.RoleAdmin},
	ActionViewUsers:      {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleSupport},
	ActionChangeStatus:   {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleSupport},
	ActionViewInternal:   {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleSupport},
	ActionWriteInternal:  {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleSupport},
	ActionManageCatalog:  {domain.RoleSuperAdmin, domain.RoleAdmin},
	ActionViewSettings:   {domain.RoleSuperAdmin, domain.RoleAdmin},
	ActionManageSettings: {domain.RoleSuperAdmin},
	ActionManageFiles:    {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleSupport},
}

// Can reports whether the caller's effective role may perform the action.
func Can(rc RequestContext, action Action) bool {
	role := rc.Role()
	for _, allowed := range actionRoles[action] {
		if allowed == role {
			return true
		}
	}
	return false
}
