package access

// Scope restricts a query to a tenant. A nil TenantID means all tenants.
type Scope struct {
	TenantID *string
}

// Unscoped reaches every tenant.
func Unscoped() Scope { return Scope{} }

// TenantOnly limits a query to one company.
func TenantOnly(tenantID string) Scope {
	return Scope{TenantID: &tenantID}
}

// IsUnscoped reports whether no tenant filter applies.
func (s Scope) IsUnscoped() bool { return s.TenantID == nil }

// Allows reports whether a row owned by tenantID is visible in this scope.
// Rows without a tenant are visible only unscoped.
func (s Scope) Allows(tenantID *string) bool {
	if s.TenantID == nil {
		return true
	}
	return tenantID != nil && *tenantID == *s.TenantID
}

// AllowsID is Allows for non-nullable tenant columns.
func (s Scope) AllowsID(tenantID string) bool {
	return s.Allows(&tenantID)
}
