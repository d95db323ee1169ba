// Package access decides who may touch which tenant's data.
package access

import "github.com/spec-kit/helpdesk/internal/domain"

// RequestContext identifies the caller of a core operation.
type RequestContext struct {
	AccountID string
	Email     string
	Name      string
	TenantID  *string
	Roles     []domain.Role
}

// Role returns the highest-precedence role held by the caller.
func (rc RequestContext) Role() domain.Role {
	return domain.HighestRole(rc.Roles)
}

// HasTenant reports whether the caller belongs to a company.
func (rc RequestContext) HasTenant() bool {
	return rc.TenantID != nil && *rc.TenantID != ""
}

// Tenant returns the caller's company id or "".
func (rc RequestContext) Tenant() string {
	if rc.TenantID == nil {
		return ""
	}
	return *rc.TenantID
}

// IsStaff reports whether the caller holds a support-organisation role.
func (rc RequestContext) IsStaff() bool {
	return rc.Role().IsStaff()
}
