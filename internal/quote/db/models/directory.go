package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	domain "github.com/quotedesk/backend/internal/quote/models"
	"github.com/shopspring/decimal"
)

// Company is a company row. Companies are written by company
// management; the quote core reads them for access resolution.
type Company struct {
	ID                           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                         string    `gorm:"size:100;uniqueIndex"`
	Status                       string    `gorm:"size:20"`
	QuoteSharingEnabled          bool
	RequireApprovalForQuotes     bool
	MaxQuoteValueWithoutApproval *decimal.Decimal `gorm:"type:decimal(14,2)"`
	AssignedSalesRep             *uuid.UUID       `gorm:"type:uuid"`
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// User is a user row. Accounts are owned by the authentication
// subsystem; the quote core reads them when resolving shared access.
// Permission overrides are stored comma-separated.
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email       string     `gorm:"size:100;uniqueIndex"`
	Role        string     `gorm:"size:20"`
	CompanyID   *uuid.UUID `gorm:"type:uuid;index"`
	Status      string     `gorm:"size:32"`
	Permissions string     `gorm:"size:1000"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product is a catalog row, read only to enrich quote documents.
type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name        string           `gorm:"size:200"`
	Description string           `gorm:"size:2000"`
	Price       *decimal.Decimal `gorm:"type:decimal(14,2)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCompanyRecord maps a domain company to its persistence record.
func NewCompanyRecord(c *domain.Company) *Company {
	return &Company{
		ID:                           c.ID,
		Name:                         c.Name,
		Status:                       string(c.Status),
		QuoteSharingEnabled:          c.QuoteSharingEnabled,
		RequireApprovalForQuotes:     c.RequireApprovalForQuotes,
		MaxQuoteValueWithoutApproval: c.MaxQuoteValueWithoutApproval,
		AssignedSalesRep:             c.AssignedSalesRep,
		CreatedAt:                    c.CreatedAt,
		UpdatedAt:                    c.UpdatedAt,
	}
}

// Domain maps the record back to the domain model.
func (c *Company) Domain() *domain.Company {
	return &domain.Company{
		ID:                           c.ID,
		Name:                         c.Name,
		Status:                       domain.CompanyStatus(c.Status),
		QuoteSharingEnabled:          c.QuoteSharingEnabled,
		RequireApprovalForQuotes:     c.RequireApprovalForQuotes,
		MaxQuoteValueWithoutApproval: c.MaxQuoteValueWithoutApproval,
		AssignedSalesRep:             c.AssignedSalesRep,
		CreatedAt:                    c.CreatedAt,
		UpdatedAt:                    c.UpdatedAt,
	}
}

// NewUserRecord maps a domain identity to its persistence record.
func NewUserRecord(i *domain.Identity) *User {
	perms := make([]string, len(i.Permissions))
	for n, p := range i.Permissions {
		perms[n] = string(p)
	}
	return &User{
		ID:          i.ID,
		Email:       i.Email,
		Role:        string(i.Role),
		CompanyID:   i.CompanyID,
		Status:      string(i.Status),
		Permissions: strings.Join(perms, ","),
	}
}

// Domain maps the record back to the domain model.
func (u *User) Domain() *domain.Identity {
	var perms []domain.Permission
	if u.Permissions != "" {
		for _, p := range strings.Split(u.Permissions, ",") {
			perms = append(perms, domain.Permission(p))
		}
	}
	return &domain.Identity{
		ID:          u.ID,
		Email:       u.Email,
		Role:        domain.Role(u.Role),
		CompanyID:   u.CompanyID,
		Permissions: perms,
		Status:      domain.AccountStatus(u.Status),
	}
}

// Domain maps the record back to the domain model.
func (p *Product) Domain() domain.Product {
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}
