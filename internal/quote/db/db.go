package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	dbmodels "github.com/quotedesk/backend/internal/quote/db/models"
	e "github.com/quotedesk/backend/internal/quote/errors"
	"github.com/quotedesk/backend/internal/quote/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repository is the gorm-backed quote store. It also serves as the
// read-only company/user directory and product catalog view the core's
// collaborator interfaces describe.
type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := gdb.AutoMigrate(
		&dbmodels.Quote{},
		&dbmodels.QuoteItem{},
		&dbmodels.HistoryEntry{},
		&dbmodels.Company{},
		&dbmodels.User{},
		&dbmodels.Product{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: gdb}, nil
}

func (r *Repository) CreateQuote(ctx context.Context, quote *models.Quote) error {
	rec := dbmodels.NewQuoteRecord(quote)
	result := r.db.WithContext(ctx).Create(rec)
	return result.Error
}

func (r *Repository) GetQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var rec dbmodels.Quote
	result := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return rec.Domain(), nil
}

func (r *Repository) ListQuotes(ctx context.Context, filter models.QuoteFilter) ([]*models.Quote, error) {
	query := r.db.WithContext(ctx).Model(&dbmodels.Quote{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })

	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.CustomerEmail != "" {
		query = query.Where("LOWER(customer_email) LIKE LOWER(?)", "%"+filter.CustomerEmail+"%")
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var recs []dbmodels.Quote
	if err := query.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	quotes := make([]*models.Quote, len(recs))
	for i := range recs {
		quotes[i] = recs[i].Domain()
	}
	return quotes, nil
}

// SaveQuote replaces the stored document: the quote row is updated and
// its line items rewritten in order, in one transaction.
func (r *Repository) SaveQuote(ctx context.Context, quote *models.Quote) error {
	rec := dbmodels.NewQuoteRecord(quote)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit("Items").Save(rec)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		if err := tx.Where("quote_id = ?", rec.ID).Delete(&dbmodels.QuoteItem{}).Error; err != nil {
			return err
		}
		if len(rec.Items) > 0 {
			if err := tx.Create(&rec.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&dbmodels.QuoteItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&dbmodels.Quote{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return nil
	})
}

// ListExpirable returns quotes still in a live status whose validity
// window has elapsed.
func (r *Repository) ListExpirable(ctx context.Context, now time.Time) ([]*models.Quote, error) {
	var recs []dbmodels.Quote
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("status IN ?", []string{
			string(models.StatusDraft),
			string(models.StatusPending),
			string(models.StatusSent),
		}).
		Where("expires_at < ?", now).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	quotes := make([]*models.Quote, len(recs))
	for i := range recs {
		quotes[i] = recs[i].Domain()
	}
	return quotes, nil
}

// AppendHistory inserts an audit row. Rows are never updated or deleted.
func (r *Repository) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(dbmodels.NewHistoryRecord(entry)).Error
}

func (r *Repository) HistoryForQuote(ctx context.Context, quoteID uuid.UUID) ([]models.HistoryEntry, error) {
	var recs []dbmodels.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("timestamp DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	entries := make([]models.HistoryEntry, len(recs))
	for i := range recs {
		entries[i] = recs[i].Domain()
	}
	return entries, nil
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var rec dbmodels.Company
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return rec.Domain(), nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var rec dbmodels.User
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return rec.Domain(), nil
}

func (r *Repository) GetProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recs []dbmodels.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, err
	}
	products := make([]models.Product, len(recs))
	for i := range recs {
		products[i] = recs[i].Domain()
	}
	return products, nil
}

// SaveCompany and SaveUser write directory records. Company and user
// management own these tables; the helpers exist for seeding and tests.
func (r *Repository) SaveCompany(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Save(dbmodels.NewCompanyRecord(company)).Error
}

func (r *Repository) SaveUser(ctx context.Context, identity *models.Identity) error {
	return r.db.WithContext(ctx).Save(dbmodels.NewUserRecord(identity)).Error
}

func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	rec := dbmodels.Product{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
	}
	return r.db.WithContext(ctx).Save(&rec).Error
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
