package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	dbmodels "github.com/quotedesk/backend/internal/quote/db/models"
	e "github.com/quotedesk/backend/internal/quote/errors"
	"github.com/quotedesk/backend/internal/quote/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")

	err = gdb.AutoMigrate(
		&dbmodels.Quote{},
		&dbmodels.QuoteItem{},
		&dbmodels.HistoryEntry{},
		&dbmodels.Company{},
		&dbmodels.User{},
		&dbmodels.Product{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return &Repository{db: gdb}
}

func testQuote(createdBy uuid.UUID) *models.Quote {
	price1 := decimal.NewFromInt(100)
	price2 := decimal.NewFromInt(40)
	total := decimal.NewFromInt(180)
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Quote{
		ID: uuid.New(),
		CustomerInfo: models.CustomerInfo{
			Name:  "Acme Corp",
			Email: "buyer@acme.test",
		},
		Items: []models.QuoteItem{
			{ProductID: uuid.New(), ProductName: "Widget", Quantity: 1, UnitPrice: &price1},
			{ProductID: uuid.New(), ProductName: "Bolt", Quantity: 2, UnitPrice: &price2},
		},
		Status:        models.StatusDraft,
		TotalEstimate: &total,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     now.Add(models.DefaultValidityWindow),
	}
}

// TestQuoteRoundTrip verifies a quote and its items survive storage with
// item order preserved.
func TestQuoteRoundTrip(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	quote := testQuote(uuid.New())
	require.NoError(t, repo.CreateQuote(ctx, quote), "CreateQuote should succeed")

	retrieved, err := repo.GetQuote(ctx, quote.ID)
	require.NoError(t, err, "GetQuote should retrieve the created quote")

	assert.Equal(t, quote.CustomerInfo, retrieved.CustomerInfo)
	assert.Equal(t, quote.Status, retrieved.Status)
	require.NotNil(t, retrieved.TotalEstimate)
	assert.True(t, retrieved.TotalEstimate.Equal(*quote.TotalEstimate))

	require.Len(t, retrieved.Items, 2)
	assert.Equal(t, "Widget", retrieved.Items[0].ProductName, "item order should be preserved")
	assert.Equal(t, "Bolt", retrieved.Items[1].ProductName)
	assert.True(t, retrieved.Items[1].UnitPrice.Equal(decimal.NewFromInt(40)))
}

func TestGetQuoteNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetQuote(context.Background(), uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestListQuotesFilters(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	owner := uuid.New()
	other := uuid.New()

	mine := testQuote(owner)
	theirs := testQuote(other)
	theirs.Status = models.StatusSent
	theirs.CustomerInfo.Email = "someone@else.test"

	require.NoError(t, repo.CreateQuote(ctx, mine))
	require.NoError(t, repo.CreateQuote(ctx, theirs))

	t.Run("by creator", func(t *testing.T) {
		quotes, err := repo.ListQuotes(ctx, models.QuoteFilter{CreatedBy: &owner})
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, mine.ID, quotes[0].ID)
	})

	t.Run("by status", func(t *testing.T) {
		status := models.StatusSent
		quotes, err := repo.ListQuotes(ctx, models.QuoteFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, theirs.ID, quotes[0].ID)
	})

	t.Run("by customer email substring", func(t *testing.T) {
		quotes, err := repo.ListQuotes(ctx, models.QuoteFilter{CustomerEmail: "ACME"})
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, mine.ID, quotes[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		quotes, err := repo.ListQuotes(ctx, models.QuoteFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, quotes, 1)

		rest, err := repo.ListQuotes(ctx, models.QuoteFilter{Skip: 1, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, rest, 1)
		assert.NotEqual(t, quotes[0].ID, rest[0].ID)
	})
}

// TestSaveQuoteReplacesItems checks the full document write: row update
// plus item rewrite.
func TestSaveQuoteReplacesItems(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	quote := testQuote(uuid.New())
	require.NoError(t, repo.CreateQuote(ctx, quote))

	price := decimal.NewFromInt(75)
	quote.Status = models.StatusPending
	quote.Items = []models.QuoteItem{
		{ProductID: uuid.New(), ProductName: "Gadget", Quantity: 3, UnitPrice: &price},
	}
	total := decimal.NewFromInt(225)
	quote.TotalEstimate = &total

	require.NoError(t, repo.SaveQuote(ctx, quote), "SaveQuote should succeed")

	retrieved, err := repo.GetQuote(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, retrieved.Status)
	require.Len(t, retrieved.Items, 1)
	assert.Equal(t, "Gadget", retrieved.Items[0].ProductName)
}

func TestDeleteQuote(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	quote := testQuote(uuid.New())
	require.NoError(t, repo.CreateQuote(ctx, quote))

	require.NoError(t, repo.DeleteQuote(ctx, quote.ID), "DeleteQuote should succeed")

	_, err := repo.GetQuote(ctx, quote.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "deleted quote should not be found")
}

func TestDeleteQuoteNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.DeleteQuote(context.Background(), uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestListExpirable(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past := testQuote(uuid.New())
	past.Status = models.StatusSent
	past.ExpiresAt = now.Add(-time.Hour)

	future := testQuote(uuid.New())
	future.Status = models.StatusSent
	future.ExpiresAt = now.Add(time.Hour)

	terminal := testQuote(uuid.New())
	terminal.Status = models.StatusApproved
	terminal.ExpiresAt = now.Add(-time.Hour)

	require.NoError(t, repo.CreateQuote(ctx, past))
	require.NoError(t, repo.CreateQuote(ctx, future))
	require.NoError(t, repo.CreateQuote(ctx, terminal))

	due, err := repo.ListExpirable(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1, "only live quotes past expiry are due")
	assert.Equal(t, past.ID, due[0].ID)
}

func TestHistoryAppendAndRead(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	quoteID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	first := &models.HistoryEntry{
		ID:        uuid.NewString(),
		QuoteID:   quoteID,
		Action:    models.ActionCreated,
		ChangedBy: uuid.NewString(),
		Timestamp: now.Add(-time.Hour),
	}
	second := &models.HistoryEntry{
		ID:        uuid.NewString(),
		QuoteID:   quoteID,
		Action:    models.ActionStatusChanged,
		OldValue:  "draft",
		NewValue:  "sent",
		ChangedBy: first.ChangedBy,
		Timestamp: now,
	}
	require.NoError(t, repo.AppendHistory(ctx, first))
	require.NoError(t, repo.AppendHistory(ctx, second))

	entries, err := repo.HistoryForQuote(ctx, quoteID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID, "entries should come back newest first")
	assert.Equal(t, models.ActionStatusChanged, entries[0].Action)
	assert.Equal(t, first.ID, entries[1].ID)
}

func TestCompanyDirectory(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	repID := uuid.New()
	company := &models.Company{
		ID:                  uuid.New(),
		Name:                "Acme Corp",
		Status:              models.CompanyActive,
		QuoteSharingEnabled: true,
		AssignedSalesRep:    &repID,
	}
	require.NoError(t, repo.SaveCompany(ctx, company))

	retrieved, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, company.Name, retrieved.Name)
	assert.True(t, retrieved.QuoteSharingEnabled)
	require.NotNil(t, retrieved.AssignedSalesRep)
	assert.Equal(t, repID, *retrieved.AssignedSalesRep)

	_, err = repo.GetCompany(ctx, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestUserDirectory(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	companyID := uuid.New()
	user := &models.Identity{
		ID:          uuid.New(),
		Email:       "rep@quotedesk.test",
		Role:        models.RoleSalesRep,
		CompanyID:   &companyID,
		Permissions: []models.Permission{models.PermAnalyticsRead, models.PermCustomersRead},
		Status:      models.AccountActive,
	}
	require.NoError(t, repo.SaveUser(ctx, user))

	retrieved, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSalesRep, retrieved.Role)
	require.NotNil(t, retrieved.CompanyID)
	assert.Equal(t, companyID, *retrieved.CompanyID)
	assert.Equal(t, user.Permissions, retrieved.Permissions, "permission overrides should round trip")
}

func TestGetProducts(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	price := decimal.NewFromInt(15)
	product := &models.Product{ID: uuid.New(), Name: "Widget", Price: &price}
	require.NoError(t, repo.SaveProduct(ctx, product))
	require.NoError(t, repo.SaveProduct(ctx, &models.Product{ID: uuid.New(), Name: "Other"}))

	products, err := repo.GetProducts(ctx, []uuid.UUID{product.ID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)

	none, err := repo.GetProducts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWithTransaction(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	quote := testQuote(uuid.New())
	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		return txRepo.CreateQuote(ctx, quote)
	})
	require.NoError(t, err, "WithTransaction should execute successfully")

	_, err = repo.GetQuote(ctx, quote.ID)
	assert.NoError(t, err, "quote should exist after transaction")
}
