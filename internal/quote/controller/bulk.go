package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	e "github.com/quotedesk/backend/internal/quote/errors"
	"github.com/quotedesk/backend/internal/quote/models"
	"go.uber.org/zap"
)

// BulkAction is an operation applied independently across a batch of
// quotes.
type BulkAction string

const (
	BulkApprove BulkAction = "approve"
	BulkReject  BulkAction = "reject"
	BulkArchive BulkAction = "archive"
	BulkDelete  BulkAction = "delete"
)

// MaxBulkQuotes bounds a bulk request to cap per-request cost.
const MaxBulkQuotes = 50

// Per-item failure reasons. These are part of the response contract.
const (
	reasonNotFound   = "Quote not found"
	reasonNotDraft   = "Can only delete draft quotes"
	reasonProcessing = "Processing error"
)

// BulkActionInput describes a bulk request.
type BulkActionInput struct {
	QuoteIDs []uuid.UUID
	Action   BulkAction
	Notes    string
	Notify   bool
}

// BulkItemResult is one successfully processed quote.
type BulkItemResult struct {
	QuoteID   uuid.UUID `json:"quote_id"`
	Action    string    `json:"action"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
}

// BulkItemFailure is one quote the batch could not process.
type BulkItemFailure struct {
	QuoteID uuid.UUID `json:"quote_id"`
	Reason  string    `json:"reason"`
}

// BulkResult always carries both lists; there is no single pass/fail
// verdict for a bulk call and callers must inspect Failed.
type BulkResult struct {
	Processed []BulkItemResult  `json:"processed"`
	Failed    []BulkItemFailure `json:"failed"`
}

// BulkAction applies one action across a bounded batch of quotes. Staff
// only. Quotes are processed independently in input order; one quote's
// failure never aborts the batch.
func (s *Service) BulkAction(ctx context.Context, in BulkActionInput, requestor models.Identity) (*BulkResult, error) {
	if !requestor.IsStaff() {
		return nil, e.ErrForbidden
	}
	if len(in.QuoteIDs) == 0 || len(in.QuoteIDs) > MaxBulkQuotes {
		return nil, fmt.Errorf("%w: batch size must be between 1 and %d quotes", e.ErrInvalidInput, MaxBulkQuotes)
	}
	switch in.Action {
	case BulkApprove, BulkReject, BulkArchive, BulkDelete:
	default:
		return nil, fmt.Errorf("%w: unknown bulk action %q", e.ErrInvalidInput, in.Action)
	}

	result := &BulkResult{
		Processed: []BulkItemResult{},
		Failed:    []BulkItemFailure{},
	}
	for _, id := range in.QuoteIDs {
		quote, err := s.repo.GetQuote(ctx, id)
		if err != nil {
			if errors.Is(err, e.ErrNotFound) {
				result.Failed = append(result.Failed, BulkItemFailure{QuoteID: id, Reason: reasonNotFound})
			} else {
				s.logger.Error("Failed to load quote for bulk action", zap.Error(err), zap.String("quote_id", id.String()))
				result.Failed = append(result.Failed, BulkItemFailure{QuoteID: id, Reason: reasonProcessing})
			}
			continue
		}

		switch in.Action {
		case BulkApprove, BulkReject:
			s.bulkTransition(ctx, quote, in, requestor, result)
		case BulkArchive:
			s.bulkArchive(ctx, quote, in, requestor, result)
		case BulkDelete:
			s.bulkDelete(ctx, quote, result)
		}
	}

	s.logger.Info("Bulk action completed",
		zap.String("action", string(in.Action)),
		zap.Int("processed", len(result.Processed)),
		zap.Int("failed", len(result.Failed)),
		zap.String("requested_by", requestor.Email),
	)
	return result, nil
}

func (s *Service) bulkTransition(ctx context.Context, quote *models.Quote, in BulkActionInput, requestor models.Identity, result *BulkResult) {
	target := models.StatusApproved
	action := models.ActionBulkApprove
	if in.Action == BulkReject {
		target = models.StatusRejected
		action = models.ActionBulkReject
	}

	res, err := s.machine.Transition(quote, target, requestor, in.Notes)
	if err != nil {
		result.Failed = append(result.Failed, BulkItemFailure{QuoteID: quote.ID, Reason: failureReason(err)})
		return
	}
	if err := s.repo.SaveQuote(ctx, quote); err != nil {
		s.logger.Error("Failed to persist bulk transition", zap.Error(err), zap.String("quote_id", quote.ID.String()))
		result.Failed = append(result.Failed, BulkItemFailure{QuoteID: quote.ID, Reason: reasonProcessing})
		return
	}

	entry := res.Entry
	entry.Action = action
	if in.Notes == "" {
		entry.Notes = fmt.Sprintf("Bulk %s action", in.Action)
	}
	s.trail.Record(ctx, entry)

	if in.Notify && quote.CustomerInfo.Email != "" {
		s.dispatcher.SendStatusChange(quote, target, in.Notes)
	}
	result.Processed = append(result.Processed, BulkItemResult{
		QuoteID:   quote.ID,
		Action:    string(in.Action),
		OldStatus: string(res.OldStatus),
		NewStatus: string(res.NewStatus),
	})
}

// bulkArchive bypasses the state machine's "must change" check:
// archiving an already-archived quote is idempotent and simply
// re-recorded.
func (s *Service) bulkArchive(ctx context.Context, quote *models.Quote, in BulkActionInput, requestor models.Identity, result *BulkResult) {
	oldStatus := quote.Status
	now := time.Now().UTC()
	quote.Status = models.StatusArchived
	quote.UpdatedAt = now
	if in.Notes != "" {
		quote.AdminNotes = in.Notes
	}
	if err := s.repo.SaveQuote(ctx, quote); err != nil {
		s.logger.Error("Failed to persist bulk archive", zap.Error(err), zap.String("quote_id", quote.ID.String()))
		result.Failed = append(result.Failed, BulkItemFailure{QuoteID: quote.ID, Reason: reasonProcessing})
		return
	}

	notes := in.Notes
	if notes == "" {
		notes = "Bulk archive action"
	}
	s.trail.Record(ctx, models.HistoryEntry{
		ID:           uuid.NewString(),
		QuoteID:      quote.ID,
		Action:       models.ActionBulkArchive,
		FieldChanged: "status",
		OldValue:     string(oldStatus),
		NewValue:     string(models.StatusArchived),
		ChangedBy:    requestor.ID.String(),
		Timestamp:    now,
		Notes:        notes,
	})
	result.Processed = append(result.Processed, BulkItemResult{
		QuoteID:   quote.ID,
		Action:    "archived",
		OldStatus: string(oldStatus),
		NewStatus: string(models.StatusArchived),
	})
}

func (s *Service) bulkDelete(ctx context.Context, quote *models.Quote, result *BulkResult) {
	if quote.Status != models.StatusDraft {
		result.Failed = append(result.Failed, BulkItemFailure{QuoteID: quote.ID, Reason: reasonNotDraft})
		return
	}
	if err := s.repo.DeleteQuote(ctx, quote.ID); err != nil {
		s.logger.Error("Failed to delete quote in bulk action", zap.Error(err), zap.String("quote_id", quote.ID.String()))
		result.Failed = append(result.Failed, BulkItemFailure{QuoteID: quote.ID, Reason: reasonProcessing})
		return
	}
	result.Processed = append(result.Processed, BulkItemResult{
		QuoteID:   quote.ID,
		Action:    "deleted",
		OldStatus: string(models.StatusDraft),
		NewStatus: "deleted",
	})
}

// failureReason maps a per-item error to the response contract's reason
// strings; validation errors keep their message, everything else is the
// generic processing failure.
func failureReason(err error) string {
	switch {
	case errors.Is(err, e.ErrNoOpTransition):
		return e.ErrNoOpTransition.Error()
	case errors.Is(err, e.ErrForbidden), errors.Is(err, e.ErrInvalidInput):
		return err.Error()
	default:
		return reasonProcessing
	}
}
