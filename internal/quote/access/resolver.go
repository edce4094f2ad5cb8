// Package access resolves what an identity may do: a fixed
// role→permission table with per-identity overrides, and per-resource
// gates combining role, ownership and company-sharing rules.
package access

import (
	"github.com/quotedesk/backend/internal/quote/models"
)

// rolePermissions is the authoritative role→permission table. Roles are
// a closed enumeration; an unknown role resolves to the empty set.
var rolePermissions = map[models.Role][]models.Permission{
	models.RoleAdmin: {
		models.PermUsersAll,
		models.PermProductsAll,
		models.PermQuotesAll,
		models.PermAnalyticsRead,
		models.PermSystemAdmin,
	},
	models.RoleManager: {
		models.PermUsersRead, models.PermUsersUpdate,
		models.PermProductsRead, models.PermProductsUpdate,
		models.PermQuotesCreate, models.PermQuotesRead, models.PermQuotesUpdate,
		models.PermAnalyticsRead,
	},
	models.RoleSalesRep: {
		models.PermProductsRead,
		models.PermQuotesCreate, models.PermQuotesRead, models.PermQuotesUpdate,
		models.PermCustomersRead,
	},
	models.RoleCustomer: {
		models.PermProductsRead,
		models.PermQuotesCreate, models.PermQuotesRead,
	},
	models.RoleCompanyAdmin: {
		models.PermProductsRead,
		models.PermQuotesCreate, models.PermQuotesRead, models.PermQuotesUpdate,
		models.PermCompanyManage,
	},
}

// Resolver answers permission questions from the static role table and
// identity overrides. It is a pure function over a finite domain: no
// state, no failure modes.
type Resolver struct{}

// NewResolver constructs a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// PermissionsFor returns a copy of the table entry for role. Unknown
// roles yield an empty set, never an error.
func (r *Resolver) PermissionsFor(role models.Role) []models.Permission {
	perms := rolePermissions[role]
	out := make([]models.Permission, len(perms))
	copy(out, perms)
	return out
}

// EffectivePermissions is the role table entry unioned with the
// identity's custom permission overrides.
func (r *Resolver) EffectivePermissions(identity models.Identity) []models.Permission {
	seen := make(map[models.Permission]bool)
	out := r.PermissionsFor(identity.Role)
	for _, p := range out {
		seen[p] = true
	}
	for _, p := range identity.Permissions {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// HasPermission reports whether the identity's effective permission set
// covers the requested permission, honoring resource wildcards.
func (r *Resolver) HasPermission(identity models.Identity, requested models.Permission) bool {
	for _, p := range r.EffectivePermissions(identity) {
		if p.Matches(requested) {
			return true
		}
	}
	return false
}
