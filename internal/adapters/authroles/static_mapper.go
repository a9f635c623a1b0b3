// Package authroles maps identity-provider group claims to application roles.
package authroles

import (
	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
)

// StaticRoleMapper maps groups by simple string membership. Mitra membership
// wins over customer when an identity carries both.
type StaticRoleMapper struct {
	MitraGroup    string
	CustomerGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.MitraGroup != "" && g == m.MitraGroup {
			return domainauth.RoleMitra
		}
	}
	for _, g := range groups {
		if m.CustomerGroup != "" && g == m.CustomerGroup {
			return domainauth.RoleCustomer
		}
	}
	return domainauth.RoleGuest
}
