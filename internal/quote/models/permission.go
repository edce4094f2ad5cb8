package models

import "strings"

// Permission represents an allowed action on a resource type.
// Format: "resource:action" (e.g., "quotes:create", "analytics:read").
type Permission string

// WildcardAll in the action position makes a permission cover every
// action on its resource ("quotes:*" covers "quotes:create").
const WildcardAll = "*"

// Permissions referenced by the role table and by identity overrides.
const (
	PermUsersAll       Permission = "users:*"
	PermUsersRead      Permission = "users:read"
	PermUsersUpdate    Permission = "users:update"
	PermProductsAll    Permission = "products:*"
	PermProductsRead   Permission = "products:read"
	PermProductsUpdate Permission = "products:update"
	PermQuotesAll      Permission = "quotes:*"
	PermQuotesCreate   Permission = "quotes:create"
	PermQuotesRead     Permission = "quotes:read"
	PermQuotesUpdate   Permission = "quotes:update"
	PermCustomersRead  Permission = "customers:read"
	PermAnalyticsRead  Permission = "analytics:read"
	PermSystemAdmin    Permission = "system:admin"
	PermCompanyManage  Permission = "company:manage"
)

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resource, action string) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// Matches checks if this permission covers a requested permission.
// "quotes:*" matches "quotes:read"; exact values match themselves.
func (p Permission) Matches(requested Permission) bool {
	if p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res == reqRes && act == WildcardAll
}
