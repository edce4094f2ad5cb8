package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryAction names what a history entry records. The values are part
// of the storage contract and must not be renamed.
type HistoryAction string

const (
	ActionCreated         HistoryAction = "created"
	ActionUpdated         HistoryAction = "updated"
	ActionStatusChanged   HistoryAction = "status_changed"
	ActionDiscountApplied HistoryAction = "discount_applied"
	ActionBulkApprove     HistoryAction = "bulk_approve"
	ActionBulkReject      HistoryAction = "bulk_reject"
	ActionBulkArchive     HistoryAction = "bulk_archive"
	ActionBulkDelete      HistoryAction = "bulk_delete"
	ActionEmailed         HistoryAction = "emailed"
)

// Reserved ids for entries synthesized from quote timestamps when no
// recorded history exists. Recorded entries always carry UUID ids.
const (
	SyntheticCreation   = "creation"
	SyntheticLastUpdate = "last_update"
	SyntheticEmailed    = "emailed"
)

// SystemActor is the ChangedBy value for entries not attributable to a
// user (synthesized timelines, scheduler-driven transitions).
const SystemActor = "system"

// HistoryEntry is one record in a quote's append-only audit trail.
// Entries are never mutated or deleted once written.
type HistoryEntry struct {
	ID           string        `json:"id"`
	QuoteID      uuid.UUID     `json:"quote_id"`
	Action       HistoryAction `json:"action"`
	FieldChanged string        `json:"field_changed,omitempty"`
	OldValue     string        `json:"old_value,omitempty"`
	NewValue     string        `json:"new_value,omitempty"`
	ChangedBy    string        `json:"changed_by"`
	Timestamp    time.Time     `json:"timestamp"`
	Notes        string        `json:"notes,omitempty"`
}

// Synthetic reports whether the entry was synthesized from quote
// timestamps rather than recorded through the audit trail.
func (e HistoryEntry) Synthetic() bool {
	switch e.ID {
	case SyntheticCreation, SyntheticLastUpdate, SyntheticEmailed:
		return true
	}
	return false
}
