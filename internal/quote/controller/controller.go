// Package controller implements the core business logic (service layer)
// for the quotation platform, orchestrating authorization, the status
// state machine, pricing, audit recording and notification hand-off.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/quote/access"
	e "github.com/quotedesk/backend/internal/quote/errors"
	"github.com/quotedesk/backend/internal/quote/models"
	"github.com/quotedesk/backend/internal/quote/pricing"
	"github.com/quotedesk/backend/internal/quote/workflow"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repository defines the storage interface for quote documents: a
// key-indexed store with filter-based queries and per-document writes.
type Repository interface {
	CreateQuote(ctx context.Context, quote *models.Quote) error
	GetQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ListQuotes(ctx context.Context, filter models.QuoteFilter) ([]*models.Quote, error)
	SaveQuote(ctx context.Context, quote *models.Quote) error
	DeleteQuote(ctx context.Context, id uuid.UUID) error
	ListExpirable(ctx context.Context, now time.Time) ([]*models.Quote, error)
}

// AccessGate resolves per-quote visibility.
type AccessGate interface {
	CanAccessQuote(ctx context.Context, quote *models.Quote, identity models.Identity) bool
}

// Trail records and reads the append-only quote history.
type Trail interface {
	Record(ctx context.Context, entry models.HistoryEntry)
	History(ctx context.Context, quote *models.Quote) []models.HistoryEntry
}

// NotificationDispatcher hands notifications to the delivery subsystem.
// All methods are fire-and-forget: the core only learns that dispatch
// was attempted, never whether anything was delivered.
type NotificationDispatcher interface {
	SendStatusChange(quote *models.Quote, newStatus models.Status, notes string)
	SendQuoteDocument(quote *models.Quote, recipient string, products []models.Product)
	SendFollowUp(quote *models.Quote, followUpType string)
}

// CatalogService enriches quote documents with product details. It is
// never consulted for authorization.
type CatalogService interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Service provides the identity-scoped quote operations external callers
// invoke. All writes flow service → gate → state machine/pricing →
// trail → repository.
type Service struct {
	repo       Repository
	gate       AccessGate
	trail      Trail
	dispatcher NotificationDispatcher
	catalog    CatalogService
	resolver   *access.Resolver
	machine    *workflow.StateMachine
	engine     *pricing.Engine
	logger     *zap.Logger
}

// NewService constructs a Service with its collaborators.
func NewService(
	repo Repository,
	gate AccessGate,
	trail Trail,
	dispatcher NotificationDispatcher,
	catalog CatalogService,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:       repo,
		gate:       gate,
		trail:      trail,
		dispatcher: dispatcher,
		catalog:    catalog,
		resolver:   access.NewResolver(),
		machine:    workflow.NewStateMachine(),
		engine:     pricing.NewEngine(),
		logger:     logger.Named("quote_service"),
	}
}

// CreateQuoteInput carries the fields needed to create a quote.
type CreateQuoteInput struct {
	CustomerInfo          models.CustomerInfo
	Items                 []models.QuoteItem
	Notes                 string
	RequestedDeliveryDate *time.Time
}

// CreateQuote creates a new quote in draft status on behalf of the
// requestor.
func (s *Service) CreateQuote(ctx context.Context, in CreateQuoteInput, requestor models.Identity) (*models.Quote, error) {
	if !s.resolver.HasPermission(requestor, models.PermQuotesCreate) {
		return nil, fmt.Errorf("%w: missing %s permission", e.ErrForbidden, models.PermQuotesCreate)
	}
	if err := validateQuoteInput(in.CustomerInfo, in.Items); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	quote := &models.Quote{
		ID:                    uuid.New(),
		CustomerInfo:          in.CustomerInfo,
		Items:                 in.Items,
		Status:                models.StatusDraft,
		TotalEstimate:         pricing.Total(in.Items),
		Notes:                 in.Notes,
		CreatedBy:             requestor.ID,
		CreatedAt:             now,
		UpdatedAt:             now,
		ExpiresAt:             now.Add(models.DefaultValidityWindow),
		RequestedDeliveryDate: in.RequestedDeliveryDate,
	}
	if err := s.repo.CreateQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	s.trail.Record(ctx, models.HistoryEntry{
		ID:           uuid.NewString(),
		QuoteID:      quote.ID,
		Action:       models.ActionCreated,
		FieldChanged: "status",
		NewValue:     string(models.StatusDraft),
		ChangedBy:    requestor.ID.String(),
		Timestamp:    now,
		Notes:        "Quote created",
	})
	s.logger.Info("Quote created",
		zap.String("quote_id", quote.ID.String()),
		zap.String("created_by", requestor.Email),
	)
	return quote, nil
}

// ListQuotes returns quotes visible to the requestor, newest first.
// Staff see all quotes; everyone else sees only their own.
func (s *Service) ListQuotes(ctx context.Context, filter models.QuoteFilter, requestor models.Identity) ([]*models.Quote, error) {
	if !requestor.IsStaff() {
		createdBy := requestor.ID
		filter.CreatedBy = &createdBy
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	quotes, err := s.repo.ListQuotes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

// GetQuote retrieves a quote by ID, enforcing the access gate.
func (s *Service) GetQuote(ctx context.Context, id uuid.UUID, requestor models.Identity) (*models.Quote, error) {
	quote, err := s.loadQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccessQuote(ctx, quote, requestor) {
		return nil, e.ErrForbidden
	}
	return quote, nil
}

// UpdateQuote applies a partial update. Only the creator or staff may
// update a quote; admin notes and total overrides are staff-only.
func (s *Service) UpdateQuote(ctx context.Context, update *models.QuoteUpdate, requestor models.Identity) (*models.Quote, error) {
	quote, err := s.loadQuote(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	if quote.CreatedBy != requestor.ID && !requestor.IsStaff() {
		return nil, e.ErrForbidden
	}

	var changed []string
	if update.CustomerInfo != nil {
		quote.CustomerInfo = *update.CustomerInfo
		changed = append(changed, "customer_info")
	}
	if update.Items != nil {
		quote.Items = update.Items
		quote.TotalEstimate = pricing.Total(update.Items)
		changed = append(changed, "items")
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", e.ErrInvalidInput, *update.Status)
		}
		quote.Status = *update.Status
		changed = append(changed, "status")
	}
	if update.Notes != nil {
		quote.Notes = *update.Notes
		changed = append(changed, "notes")
	}
	if requestor.IsStaff() {
		if update.AdminNotes != nil {
			quote.AdminNotes = *update.AdminNotes
			changed = append(changed, "admin_notes")
		}
		if update.TotalEstimate != nil {
			quote.TotalEstimate = update.TotalEstimate
			changed = append(changed, "total_estimate")
		}
	}
	if len(changed) == 0 {
		return quote, nil
	}
	quote.UpdatedAt = time.Now().UTC()

	if err := s.repo.SaveQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	s.trail.Record(ctx, models.HistoryEntry{
		ID:           uuid.NewString(),
		QuoteID:      quote.ID,
		Action:       models.ActionUpdated,
		FieldChanged: strings.Join(changed, ","),
		ChangedBy:    requestor.ID.String(),
		Timestamp:    quote.UpdatedAt,
		Notes:        "Quote updated",
	})
	return quote, nil
}

// DeleteQuote hard-deletes a quote. Staff only, and only while the quote
// is still a draft; everything else is archived via a status transition
// so history is preserved.
func (s *Service) DeleteQuote(ctx context.Context, id uuid.UUID, requestor models.Identity) error {
	if !requestor.IsStaff() {
		return e.ErrForbidden
	}
	quote, err := s.loadQuote(ctx, id)
	if err != nil {
		return err
	}
	if quote.Status != models.StatusDraft {
		return fmt.Errorf("%w: can only delete draft quotes", e.ErrInvalidInput)
	}
	if err := s.repo.DeleteQuote(ctx, id); err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	s.logger.Info("Quote deleted",
		zap.String("quote_id", id.String()),
		zap.String("deleted_by", requestor.Email),
	)
	return nil
}

// DuplicateQuote copies customer info and items into a fresh draft
// owned by the requestor, with new timestamps and expiry.
func (s *Service) DuplicateQuote(ctx context.Context, id uuid.UUID, requestor models.Identity) (*models.Quote, error) {
	original, err := s.loadQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccessQuote(ctx, original, requestor) {
		return nil, e.ErrForbidden
	}

	now := time.Now().UTC()
	items := make([]models.QuoteItem, len(original.Items))
	copy(items, original.Items)
	duplicate := &models.Quote{
		ID:            uuid.New(),
		CustomerInfo:  original.CustomerInfo,
		Items:         items,
		Status:        models.StatusDraft,
		TotalEstimate: pricing.Total(items),
		Notes:         fmt.Sprintf("Duplicated from quote #%s", original.ID),
		CreatedBy:     requestor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     now.Add(models.DefaultValidityWindow),
	}
	if err := s.repo.CreateQuote(ctx, duplicate); err != nil {
		return nil, fmt.Errorf("failed to duplicate quote: %w", err)
	}

	s.trail.Record(ctx, models.HistoryEntry{
		ID:           uuid.NewString(),
		QuoteID:      duplicate.ID,
		Action:       models.ActionCreated,
		FieldChanged: "status",
		NewValue:     string(models.StatusDraft),
		ChangedBy:    requestor.ID.String(),
		Timestamp:    now,
		Notes:        duplicate.Notes,
	})
	s.logger.Info("Quote duplicated",
		zap.String("source_quote_id", original.ID.String()),
		zap.String("quote_id", duplicate.ID.String()),
	)
	return duplicate, nil
}

// TransitionOptions configure a status transition.
type TransitionOptions struct {
	Notes  string
	Notify bool
}

// TransitionResult reports an applied status transition.
type TransitionResult struct {
	OldStatus        models.Status
	NewStatus        models.Status
	NotificationSent bool
}

// TransitionStatus moves a quote to a new status through the state
// machine, records the change, and optionally hands a customer
// notification to the dispatcher. The history append is attempted even
// if notification scheduling fails, and a notification failure never
// rolls back the state change.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, newStatus models.Status, opts TransitionOptions, requestor models.Identity) (*TransitionResult, error) {
	quote, err := s.loadQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.machine.Transition(quote, newStatus, requestor, opts.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to persist status change: %w", err)
	}
	s.trail.Record(ctx, res.Entry)

	notified := false
	if opts.Notify && quote.CustomerInfo.Email != "" {
		s.dispatcher.SendStatusChange(quote, newStatus, opts.Notes)
		notified = true
	}
	s.logger.Info("Quote status changed",
		zap.String("quote_id", quote.ID.String()),
		zap.String("old_status", string(res.OldStatus)),
		zap.String("new_status", string(res.NewStatus)),
		zap.String("changed_by", requestor.Email),
	)
	return &TransitionResult{
		OldStatus:        res.OldStatus,
		NewStatus:        res.NewStatus,
		NotificationSent: notified,
	}, nil
}

// ApplyDiscount applies a percentage or fixed discount to the targeted
// line items. Staff only.
func (s *Service) ApplyDiscount(ctx context.Context, id uuid.UUID, in pricing.Input, requestor models.Identity) (*pricing.Result, error) {
	if !requestor.IsStaff() {
		return nil, e.ErrForbidden
	}
	quote, err := s.loadQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.ApplyDiscount(quote, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to persist discount: %w", err)
	}

	s.trail.Record(ctx, models.HistoryEntry{
		ID:           uuid.NewString(),
		QuoteID:      quote.ID,
		Action:       models.ActionDiscountApplied,
		FieldChanged: "items",
		OldValue:     fmt.Sprintf("Total: %s", formatTotal(res.OldTotal)),
		NewValue:     fmt.Sprintf("Total: %s (Discount: %s)", formatTotal(res.NewTotal), res.TotalDiscount.StringFixed(2)),
		ChangedBy:    requestor.ID.String(),
		Timestamp:    quote.UpdatedAt,
		Notes:        describeDiscount(in),
	})
	s.logger.Info("Discount applied",
		zap.String("quote_id", quote.ID.String()),
		zap.String("total_discount", res.TotalDiscount.StringFixed(2)),
		zap.String("applied_by", requestor.Email),
	)
	return res, nil
}

// GetHistory returns the quote's audit trail, synthesized when no
// explicit entries exist.
func (s *Service) GetHistory(ctx context.Context, id uuid.UUID, requestor models.Identity) ([]models.HistoryEntry, error) {
	quote, err := s.loadQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccessQuote(ctx, quote, requestor) {
		return nil, e.ErrForbidden
	}
	return s.trail.History(ctx, quote), nil
}

// EmailReceipt reports that a notification was handed to the dispatcher.
// Queued means attempted, not delivered.
type EmailReceipt struct {
	Recipient string
	Queued    bool
}

// EmailQuote hands the quote document to the notification dispatcher for
// delivery to the customer (or an explicit recipient). Product details
// are fetched to enrich the document; a catalog failure downgrades the
// document rather than failing the dispatch.
func (s *Service) EmailQuote(ctx context.Context, id uuid.UUID, recipient string, requestor models.Identity) (*EmailReceipt, error) {
	quote, err := s.loadQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccessQuote(ctx, quote, requestor) {
		return nil, e.ErrForbidden
	}
	if recipient == "" {
		recipient = quote.CustomerInfo.Email
	}
	if recipient == "" {
		return nil, fmt.Errorf("%w: no recipient email provided", e.ErrInvalidInput)
	}

	ids := make([]uuid.UUID, 0, len(quote.Items))
	for _, item := range quote.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to fetch products for quote document",
			zap.Error(err),
			zap.String("quote_id", quote.ID.String()),
		)
		products = nil
	}

	s.dispatcher.SendQuoteDocument(quote, recipient, products)
	s.logger.Info("Quote email queued",
		zap.String("quote_id", quote.ID.String()),
		zap.String("recipient", recipient),
	)
	return &EmailReceipt{Recipient: recipient, Queued: true}, nil
}

// Follow-up types accepted by SendFollowUp.
const (
	FollowUpGeneral  = "general"
	FollowUpReminder = "reminder"
	FollowUpExpiring = "expiring"
)

// SendFollowUp queues a follow-up email for a quote. Staff and sales
// reps only.
func (s *Service) SendFollowUp(ctx context.Context, id uuid.UUID, followUpType string, requestor models.Identity) (*EmailReceipt, error) {
	if !requestor.IsStaff() && requestor.Role != models.RoleSalesRep {
		return nil, e.ErrForbidden
	}
	if followUpType != FollowUpGeneral && followUpType != FollowUpReminder && followUpType != FollowUpExpiring {
		return nil, fmt.Errorf("%w: invalid follow-up type %q", e.ErrInvalidInput, followUpType)
	}
	quote, err := s.loadQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanAccessQuote(ctx, quote, requestor) {
		return nil, e.ErrForbidden
	}
	if quote.CustomerInfo.Email == "" {
		return nil, fmt.Errorf("%w: quote has no customer email", e.ErrInvalidInput)
	}

	s.dispatcher.SendFollowUp(quote, followUpType)
	return &EmailReceipt{Recipient: quote.CustomerInfo.Email, Queued: true}, nil
}

// ExpireDueQuotes transitions quotes past their validity window from a
// live status to expired. The core never calls this on its own; it is
// invoked by an external scheduler. Returns the number of quotes
// expired; per-quote failures are logged and skipped.
func (s *Service) ExpireDueQuotes(ctx context.Context, now time.Time) (int, error) {
	quotes, err := s.repo.ListExpirable(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expirable quotes: %w", err)
	}

	scheduler := models.Identity{Role: models.RoleAdmin, Email: models.SystemActor}
	expired := 0
	for _, quote := range quotes {
		res, err := s.machine.Transition(quote, models.StatusExpired, scheduler, "Quote validity window elapsed")
		if err != nil {
			s.logger.Warn("Failed to expire quote",
				zap.Error(err),
				zap.String("quote_id", quote.ID.String()),
			)
			continue
		}
		if err := s.repo.SaveQuote(ctx, quote); err != nil {
			s.logger.Warn("Failed to persist quote expiry",
				zap.Error(err),
				zap.String("quote_id", quote.ID.String()),
			)
			continue
		}
		entry := res.Entry
		entry.ChangedBy = models.SystemActor
		s.trail.Record(ctx, entry)
		expired++
	}
	if expired > 0 {
		s.logger.Info("Expired quotes past their validity window", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *Service) loadQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return quote, nil
}

func validateQuoteInput(info models.CustomerInfo, items []models.QuoteItem) error {
	if info.Name == "" || info.Email == "" {
		return fmt.Errorf("%w: customer name and email are required", e.ErrInvalidInput)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: quote requires at least one item", e.ErrInvalidInput)
	}
	for i, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", e.ErrInvalidInput, i)
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %d unit price must not be negative", e.ErrInvalidInput, i)
		}
		if item.ProductName == "" {
			return fmt.Errorf("%w: item %d product name is required", e.ErrInvalidInput, i)
		}
	}
	return nil
}

func formatTotal(total *decimal.Decimal) string {
	if total == nil {
		return "0"
	}
	return total.StringFixed(2)
}

func describeDiscount(in pricing.Input) string {
	suffix := ""
	if in.Type == pricing.Percentage {
		suffix = "%"
	}
	desc := fmt.Sprintf("%s discount applied: %s%s", in.Type, in.Value.String(), suffix)
	if in.Reason != "" {
		desc += " - " + in.Reason
	}
	return desc
}
