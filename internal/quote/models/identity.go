// Package models defines the core domain models for the quotation
// platform: identities, companies, quotes and their history entries.
// The persistence layer maps these to its own record types; untyped
// documents never cross the package boundary.
package models

import (
	"github.com/google/uuid"
)

// Role is the closed set of roles an identity can hold.
type Role string

const (
	// RoleAdmin has full system access.
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleSalesRep     Role = "sales_rep"
	RoleCustomer     Role = "customer"
	RoleCompanyAdmin Role = "company_admin"
)

// IsStaff reports whether the role may see and mutate all quotes.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

// AccountStatus represents the lifecycle state of an identity's account.
type AccountStatus string

const (
	AccountActive              AccountStatus = "active"
	AccountInactive            AccountStatus = "inactive"
	AccountSuspended           AccountStatus = "suspended"
	AccountPendingVerification AccountStatus = "pending_verification"
)

// Identity is the authenticated caller as produced by the authentication
// subsystem. It is treated as an immutable value for the duration of a
// request.
type Identity struct {
	// ID is the unique identifier of the user.
	ID uuid.UUID `json:"id"`
	// Email is carried for logging and notification copies.
	Email string `json:"email"`
	// Role determines the base permission set.
	Role Role `json:"role"`
	// CompanyID links the identity to its company, if any.
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	// Permissions holds per-identity overrides on top of the role table.
	Permissions []Permission `json:"permissions,omitempty"`
	// Status is the account lifecycle state.
	Status AccountStatus `json:"status"`
}

// IsStaff reports whether the identity holds a staff role.
func (i Identity) IsStaff() bool {
	return i.Role.IsStaff()
}
