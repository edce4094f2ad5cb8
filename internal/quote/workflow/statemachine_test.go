package workflow

import (
	"testing"

	"github.com/google/uuid"
	e "github.com/quotedesk/backend/internal/quote/errors"
	"github.com/quotedesk/backend/internal/quote/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuote(status models.Status, createdBy uuid.UUID) *models.Quote {
	return &models.Quote{
		ID:        uuid.New(),
		Status:    status,
		CreatedBy: createdBy,
	}
}

func TestStateMachine_Transition(t *testing.T) {
	creatorID := uuid.New()
	staff := models.Identity{ID: uuid.New(), Role: models.RoleAdmin}
	creator := models.Identity{ID: creatorID, Role: models.RoleCustomer}
	stranger := models.Identity{ID: uuid.New(), Role: models.RoleCustomer}

	tests := []struct {
		name          string
		from          models.Status
		to            models.Status
		requestor     models.Identity
		expectedError error
	}{
		{"staff draft to pending", models.StatusDraft, models.StatusPending, staff, nil},
		{"staff sent to approved", models.StatusSent, models.StatusApproved, staff, nil},
		{"staff rollback approved to draft", models.StatusApproved, models.StatusDraft, staff, nil},
		{"creator draft to pending", models.StatusDraft, models.StatusPending, creator, nil},
		{"same status rejected", models.StatusSent, models.StatusSent, staff, e.ErrNoOpTransition},
		{"stranger denied", models.StatusDraft, models.StatusPending, stranger, e.ErrForbidden},
		{"unknown status rejected", models.StatusDraft, models.Status("cancelled"), staff, e.ErrInvalidInput},
	}

	machine := NewStateMachine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := newQuote(tt.from, creatorID)
			res, err := machine.Transition(quote, tt.to, tt.requestor, "")

			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, tt.from, quote.Status, "failed transition must not mutate the quote")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, quote.Status)
			assert.Equal(t, tt.from, res.OldStatus)
			assert.Equal(t, tt.to, res.NewStatus)
		})
	}
}

func TestStateMachine_TransitionHistoryEntry(t *testing.T) {
	machine := NewStateMachine()
	staff := models.Identity{ID: uuid.New(), Role: models.RoleManager}
	quote := newQuote(models.StatusDraft, uuid.New())

	res, err := machine.Transition(quote, models.StatusSent, staff, "sent to customer")
	require.NoError(t, err)

	entry := res.Entry
	assert.Equal(t, quote.ID, entry.QuoteID)
	assert.Equal(t, models.ActionStatusChanged, entry.Action)
	assert.Equal(t, "status", entry.FieldChanged)
	assert.Equal(t, string(models.StatusDraft), entry.OldValue)
	assert.Equal(t, string(models.StatusSent), entry.NewValue)
	assert.Equal(t, staff.ID.String(), entry.ChangedBy)
	assert.Equal(t, "sent to customer", entry.Notes)
	assert.False(t, entry.Synthetic())
}

func TestStateMachine_TransitionDefaultNotes(t *testing.T) {
	machine := NewStateMachine()
	staff := models.Identity{ID: uuid.New(), Role: models.RoleAdmin}
	quote := newQuote(models.StatusPending, uuid.New())

	res, err := machine.Transition(quote, models.StatusApproved, staff, "")
	require.NoError(t, err)
	assert.Equal(t, "Status changed from pending to approved", res.Entry.Notes)
}

func TestStateMachine_AdminNotesStaffOnly(t *testing.T) {
	machine := NewStateMachine()
	creatorID := uuid.New()

	t.Run("staff notes land in admin notes", func(t *testing.T) {
		quote := newQuote(models.StatusDraft, creatorID)
		_, err := machine.Transition(quote, models.StatusPending, models.Identity{ID: uuid.New(), Role: models.RoleAdmin}, "needs review")
		require.NoError(t, err)
		assert.Equal(t, "needs review", quote.AdminNotes)
	})

	t.Run("creator notes stay out of admin notes", func(t *testing.T) {
		quote := newQuote(models.StatusDraft, creatorID)
		_, err := machine.Transition(quote, models.StatusPending, models.Identity{ID: creatorID, Role: models.RoleCustomer}, "please approve")
		require.NoError(t, err)
		assert.Empty(t, quote.AdminNotes)
	})
}
