// Package workflow implements the quote status state machine: which
// transitions are legal and who may trigger them.
package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	e "github.com/quotedesk/backend/internal/quote/errors"
	"github.com/quotedesk/backend/internal/quote/models"
)

// Result describes an applied transition along with the history entry
// the audit trail should record for it.
type Result struct {
	OldStatus models.Status
	NewStatus models.Status
	Entry     models.HistoryEntry
}

// StateMachine validates and applies status transitions. Beyond "the
// status must change", any pair among the seven states is permitted:
// staff may correct mistakes at any stage, so no directed-graph ordering
// is enforced.
type StateMachine struct{}

// NewStateMachine constructs a StateMachine.
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// Transition moves the quote to newStatus on behalf of requestor.
// It fails with ErrForbidden unless the requestor is staff or the
// quote's creator, with ErrNoOpTransition when the status would not
// change, and with ErrInvalidInput for an unknown status. On success it
// mutates the quote in place (status, updated_at, admin notes for staff)
// and returns the status_changed history entry; persisting the quote and
// recording the entry are the caller's responsibility.
func (m *StateMachine) Transition(quote *models.Quote, newStatus models.Status, requestor models.Identity, notes string) (*Result, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", e.ErrInvalidInput, newStatus)
	}
	if !requestor.IsStaff() && quote.CreatedBy != requestor.ID {
		return nil, fmt.Errorf("%w: insufficient permissions to change quote status", e.ErrForbidden)
	}
	if newStatus == quote.Status {
		return nil, e.ErrNoOpTransition
	}

	now := time.Now().UTC()
	oldStatus := quote.Status
	quote.Status = newStatus
	quote.UpdatedAt = now
	if notes != "" && requestor.IsStaff() {
		quote.AdminNotes = notes
	}

	entryNotes := notes
	if entryNotes == "" {
		entryNotes = fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus)
	}
	return &Result{
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Entry: models.HistoryEntry{
			ID:           uuid.NewString(),
			QuoteID:      quote.ID,
			Action:       models.ActionStatusChanged,
			FieldChanged: "status",
			OldValue:     string(oldStatus),
			NewValue:     string(newStatus),
			ChangedBy:    requestor.ID.String(),
			Timestamp:    now,
			Notes:        entryNotes,
		},
	}, nil
}
