package domain

import "strings"

// Role names an account capability set.
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleAdmin      Role = "Admin"
	RoleSupport    Role = "Support"
	RoleCustomer   Role = "Customer"
	RoleUser       Role = "User"
)

// rolePrecedence orders roles from most to least privileged.
var rolePrecedence = []Role{RoleSuperAdmin, RoleAdmin, RoleSupport, RoleCustomer, RoleUser}

// AllRoles lists every assignable role, most privileged first.
func AllRoles() []Role {
	out := make([]Role, len(rolePrecedence))
	copy(out, rolePrecedence)
	return out
}

// ParseRole matches a role name case-insensitively.
func ParseRole(value string) (Role, bool) {
	for _, role := range rolePrecedence {
		if strings.EqualFold(string(role), strings.TrimSpace(value)) {
			return role, true
		}
	}
	return "", false
}

// IsStaff reports whether the role belongs to the support organisation.
func (r Role) IsStaff() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleSupport
}

// HighestRole picks the most privileged role of the set. Unknown names are ignored;
// an empty or unrecognised set resolves to Customer.
func HighestRole(roles []Role) Role {
	for _, candidate := range rolePrecedence {
		for _, role := range roles {
			if role == candidate {
				return candidate
			}
		}
	}
	return RoleCustomer
}
