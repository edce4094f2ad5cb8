// Package audit maintains the append-only history of state and pricing
// changes to quotes.
package audit

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/quote/models"
	"go.uber.org/zap"
)

// Store persists history entries. Entries are only ever appended.
type Store interface {
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	HistoryForQuote(ctx context.Context, quoteID uuid.UUID) ([]models.HistoryEntry, error)
}

// Trail is the audit log service. Recording is best-effort relative to
// the business mutation it describes: a store failure is logged, never
// propagated, so the authoritative mutation is not blocked by audit
// durability.
type Trail struct {
	store  Store
	logger *zap.Logger
}

// NewTrail constructs a Trail over the given store.
func NewTrail(store Store, logger *zap.Logger) *Trail {
	return &Trail{
		store:  store,
		logger: logger.Named("audit_trail"),
	}
}

// Record appends the entry to the trail. Failures are logged and
// swallowed.
func (t *Trail) Record(ctx context.Context, entry models.HistoryEntry) {
	if err := t.store.AppendHistory(ctx, &entry); err != nil {
		t.logger.Warn("Failed to record quote history",
			zap.Error(err),
			zap.String("quote_id", entry.QuoteID.String()),
			zap.String("action", string(entry.Action)),
		)
	}
}

// History returns the quote's entries sorted by timestamp descending.
// When no entries exist (legacy data, or a store read failure), it
// synthesizes a timeline from the quote's own timestamps so every quote
// has a history view; synthesized entries carry reserved ids and are
// distinguishable from recorded ones.
func (t *Trail) History(ctx context.Context, quote *models.Quote) []models.HistoryEntry {
	entries, err := t.store.HistoryForQuote(ctx, quote.ID)
	if err != nil {
		t.logger.Warn("Failed to load quote history",
			zap.Error(err),
			zap.String("quote_id", quote.ID.String()),
		)
		entries = nil
	}
	if len(entries) == 0 {
		entries = synthesize(quote)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries
}

func synthesize(quote *models.Quote) []models.HistoryEntry {
	creator := quote.CreatedBy.String()
	entries := []models.HistoryEntry{
		{
			ID:           models.SyntheticCreation,
			QuoteID:      quote.ID,
			Action:       models.ActionCreated,
			FieldChanged: "status",
			NewValue:     string(models.StatusDraft),
			ChangedBy:    creator,
			Timestamp:    quote.CreatedAt,
			Notes:        "Quote created",
		},
		{
			ID:           models.SyntheticLastUpdate,
			QuoteID:      quote.ID,
			Action:       models.ActionUpdated,
			FieldChanged: "status",
			OldValue:     string(models.StatusDraft),
			NewValue:     string(quote.Status),
			ChangedBy:    creator,
			Timestamp:    quote.UpdatedAt,
			Notes:        fmt.Sprintf("Quote status: %s", quote.Status),
		},
	}
	if quote.LastEmailedAt != nil {
		entries = append(entries, models.HistoryEntry{
			ID:           models.SyntheticEmailed,
			QuoteID:      quote.ID,
			Action:       models.ActionEmailed,
			FieldChanged: "status",
			NewValue:     string(models.StatusSent),
			ChangedBy:    models.SystemActor,
			Timestamp:    *quote.LastEmailedAt,
			Notes:        "Quote emailed to customer",
		})
	}
	return entries
}
