package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the closed set of quote workflow states.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
	StatusArchived Status = "archived"
)

// Valid reports whether s is one of the seven workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusSent, StatusApproved,
		StatusRejected, StatusExpired, StatusArchived:
		return true
	}
	return false
}

// DefaultValidityWindow is how long a quote stays valid after creation.
const DefaultValidityWindow = 30 * 24 * time.Hour

// CustomerInfo is the customer a quote is addressed to. Company, phone
// and address are optional.
type CustomerInfo struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// QuoteItem is a single line item. A nil UnitPrice means "to be quoted".
// OriginalPrice is stamped once, on the first discount application, and
// preserved thereafter.
type QuoteItem struct {
	ProductID       uuid.UUID        `json:"product_id"`
	ProductName     string           `json:"product_name"`
	Quantity        int              `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
	DiscountApplied decimal.Decimal  `json:"discount_applied"`
	Notes           string           `json:"notes,omitempty"`
}

// Quote is the central aggregate: an ordered set of items priced for a
// customer, moving through the status workflow.
//
// TotalEstimate is derived: the sum of UnitPrice*Quantity over priced
// items, nil iff no item carries a price. It is recomputed on every item
// mutation and never stored stale.
type Quote struct {
	ID                    uuid.UUID        `json:"id"`
	CustomerInfo          CustomerInfo     `json:"customer_info"`
	Items                 []QuoteItem      `json:"items"`
	Status                Status           `json:"status"`
	TotalEstimate         *decimal.Decimal `json:"total_estimate,omitempty"`
	Notes                 string           `json:"notes,omitempty"`
	AdminNotes            string           `json:"admin_notes,omitempty"`
	CreatedBy             uuid.UUID        `json:"created_by"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	ExpiresAt             time.Time        `json:"expires_at"`
	RequestedDeliveryDate *time.Time       `json:"requested_delivery_date,omitempty"`
	LastEmailedAt         *time.Time       `json:"last_emailed_at,omitempty"`
	LastFollowUpAt        *time.Time       `json:"last_follow_up_at,omitempty"`
}

// QuoteUpdate represents the fields that can be patched on a quote.
// Pointer types are used to allow partial updates; a nil Items slice
// leaves the line items untouched.
type QuoteUpdate struct {
	ID            uuid.UUID
	CustomerInfo  *CustomerInfo
	Items         []QuoteItem
	Status        *Status
	Notes         *string
	AdminNotes    *string
	TotalEstimate *decimal.Decimal
}

// QuoteFilter narrows a quote listing. CreatedBy is filled in by the
// service for non-staff requestors; callers cannot widen their own view.
type QuoteFilter struct {
	Status        *Status
	CustomerEmail string
	CreatedBy     *uuid.UUID
	Skip          int
	Limit         int
}

// Product is the catalog projection consumed when enriching quote
// documents. Catalog CRUD lives elsewhere.
type Product struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}
