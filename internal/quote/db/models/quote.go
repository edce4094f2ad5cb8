// Package models contains the persistence records for the quote store,
// configured to work using GORM as the ORM, and the mapping between
// records and domain models. Domain types never carry storage tags.
package models

import (
	"time"

	"github.com/google/uuid"
	domain "github.com/quotedesk/backend/internal/quote/models"
	"github.com/shopspring/decimal"
)

// Quote is a quote document in the database. Line items live in their
// own table, ordered by position.
type Quote struct {
	ID                    uuid.UUID        `gorm:"type:uuid;primaryKey"`
	CustomerName          string           `gorm:"size:100;not null"`
	CustomerCompany       string           `gorm:"size:100"`
	CustomerEmail         string           `gorm:"size:100;index"`
	CustomerPhone         string           `gorm:"size:20"`
	CustomerAddress       string           `gorm:"size:500"`
	Status                string           `gorm:"size:20;index"`
	TotalEstimate         *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Notes                 string           `gorm:"size:1000"`
	AdminNotes            string           `gorm:"size:1000"`
	CreatedBy             uuid.UUID        `gorm:"type:uuid;index"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	ExpiresAt             time.Time `gorm:"index"`
	RequestedDeliveryDate *time.Time
	LastEmailedAt         *time.Time
	LastFollowUpAt        *time.Time
	Items                 []QuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
}

// QuoteItem is one line item row.
type QuoteItem struct {
	ID              uint             `gorm:"primaryKey;autoIncrement"`
	QuoteID         uuid.UUID        `gorm:"type:uuid;index;not null"`
	Position        int              `gorm:"not null"`
	ProductID       uuid.UUID        `gorm:"type:uuid"`
	ProductName     string           `gorm:"size:200"`
	Quantity        int              `gorm:"check:quantity > 0"`
	UnitPrice       *decimal.Decimal `gorm:"type:decimal(14,2)"`
	OriginalPrice   *decimal.Decimal `gorm:"type:decimal(14,2)"`
	DiscountApplied decimal.Decimal  `gorm:"type:decimal(14,2)"`
	Notes           string           `gorm:"size:500"`
}

// HistoryEntry is one append-only audit row. Rows are never updated or
// deleted.
type HistoryEntry struct {
	ID           string    `gorm:"size:64;primaryKey"`
	QuoteID      uuid.UUID `gorm:"type:uuid;index"`
	Action       string    `gorm:"size:32"`
	FieldChanged string    `gorm:"size:100"`
	OldValue     string    `gorm:"size:500"`
	NewValue     string    `gorm:"size:500"`
	ChangedBy    string    `gorm:"size:64"`
	Timestamp    time.Time `gorm:"index"`
	Notes        string    `gorm:"size:500"`
}

// NewQuoteRecord maps a domain quote to its persistence record.
func NewQuoteRecord(q *domain.Quote) *Quote {
	rec := &Quote{
		ID:                    q.ID,
		CustomerName:          q.CustomerInfo.Name,
		CustomerCompany:       q.CustomerInfo.Company,
		CustomerEmail:         q.CustomerInfo.Email,
		CustomerPhone:         q.CustomerInfo.Phone,
		CustomerAddress:       q.CustomerInfo.Address,
		Status:                string(q.Status),
		TotalEstimate:         q.TotalEstimate,
		Notes:                 q.Notes,
		AdminNotes:            q.AdminNotes,
		CreatedBy:             q.CreatedBy,
		CreatedAt:             q.CreatedAt,
		UpdatedAt:             q.UpdatedAt,
		ExpiresAt:             q.ExpiresAt,
		RequestedDeliveryDate: q.RequestedDeliveryDate,
		LastEmailedAt:         q.LastEmailedAt,
		LastFollowUpAt:        q.LastFollowUpAt,
	}
	rec.Items = make([]QuoteItem, len(q.Items))
	for i, item := range q.Items {
		rec.Items[i] = QuoteItem{
			QuoteID:         q.ID,
			Position:        i,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			OriginalPrice:   item.OriginalPrice,
			DiscountApplied: item.DiscountApplied,
			Notes:           item.Notes,
		}
	}
	return rec
}

// Domain maps the record back to the domain model. Items are assumed to
// be loaded in position order.
func (q *Quote) Domain() *domain.Quote {
	out := &domain.Quote{
		ID: q.ID,
		CustomerInfo: domain.CustomerInfo{
			Name:    q.CustomerName,
			Company: q.CustomerCompany,
			Email:   q.CustomerEmail,
			Phone:   q.CustomerPhone,
			Address: q.CustomerAddress,
		},
		Status:                domain.Status(q.Status),
		TotalEstimate:         q.TotalEstimate,
		Notes:                 q.Notes,
		AdminNotes:            q.AdminNotes,
		CreatedBy:             q.CreatedBy,
		CreatedAt:             q.CreatedAt,
		UpdatedAt:             q.UpdatedAt,
		ExpiresAt:             q.ExpiresAt,
		RequestedDeliveryDate: q.RequestedDeliveryDate,
		LastEmailedAt:         q.LastEmailedAt,
		LastFollowUpAt:        q.LastFollowUpAt,
	}
	out.Items = make([]domain.QuoteItem, len(q.Items))
	for i, item := range q.Items {
		out.Items[i] = domain.QuoteItem{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			OriginalPrice:   item.OriginalPrice,
			DiscountApplied: item.DiscountApplied,
			Notes:           item.Notes,
		}
	}
	return out
}

// NewHistoryRecord maps a domain history entry to its persistence record.
func NewHistoryRecord(e *domain.HistoryEntry) *HistoryEntry {
	return &HistoryEntry{
		ID:           e.ID,
		QuoteID:      e.QuoteID,
		Action:       string(e.Action),
		FieldChanged: e.FieldChanged,
		OldValue:     e.OldValue,
		NewValue:     e.NewValue,
		ChangedBy:    e.ChangedBy,
		Timestamp:    e.Timestamp,
		Notes:        e.Notes,
	}
}

// Domain maps the record back to the domain model.
func (e *HistoryEntry) Domain() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:           e.ID,
		QuoteID:      e.QuoteID,
		Action:       domain.HistoryAction(e.Action),
		FieldChanged: e.FieldChanged,
		OldValue:     e.OldValue,
		NewValue:     e.NewValue,
		ChangedBy:    e.ChangedBy,
		Timestamp:    e.Timestamp,
		Notes:        e.Notes,
	}
}
