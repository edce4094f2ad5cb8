package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanyStatus represents the lifecycle state of a company account.
type CompanyStatus string

const (
	CompanyActive          CompanyStatus = "active"
	CompanyInactive        CompanyStatus = "inactive"
	CompanySuspended       CompanyStatus = "suspended"
	CompanyPendingApproval CompanyStatus = "pending_approval"
)

// Company groups customer identities so quotes can be shared among
// employees. Companies are created and updated by company management;
// the quote core only reads them.
type Company struct {
	// ID is the unique identifier for the company.
	ID uuid.UUID `json:"id"`
	// Name is the company's display name.
	Name string `json:"name"`
	// Status is the company account state.
	Status CompanyStatus `json:"status"`
	// QuoteSharingEnabled lets every employee of the company view
	// quotes created by their colleagues.
	QuoteSharingEnabled bool `json:"quote_sharing_enabled"`
	// RequireApprovalForQuotes flags that quotes above the threshold
	// need staff approval before sending.
	RequireApprovalForQuotes bool `json:"require_approval_for_quotes"`
	// MaxQuoteValueWithoutApproval is the approval threshold, if set.
	MaxQuoteValueWithoutApproval *decimal.Decimal `json:"max_quote_value_without_approval,omitempty"`
	// AssignedSalesRep references the sales rep handling this company.
	AssignedSalesRep *uuid.UUID `json:"assigned_sales_rep,omitempty"`
	// CreatedAt records when the company was registered.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt records the last modification.
	UpdatedAt time.Time `json:"updated_at"`
}
