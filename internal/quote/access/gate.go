package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/quotedesk/backend/internal/quote/models"
	"go.uber.org/zap"
)

// CompanyDirectory is the read-only view of company records the gate
// consults when resolving shared visibility.
type CompanyDirectory interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// UserDirectory is the read-only view of user records.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.Identity, error)
}

// Gate resolves whether an identity may read or mutate a specific quote
// or company. Decisions are made per call from current role, ownership
// and sharing state — never cached — so toggling company sharing takes
// effect immediately.
type Gate struct {
	companies CompanyDirectory
	users     UserDirectory
	logger    *zap.Logger
}

// NewGate constructs a Gate over the given directories.
func NewGate(companies CompanyDirectory, users UserDirectory, logger *zap.Logger) *Gate {
	return &Gate{
		companies: companies,
		users:     users,
		logger:    logger.Named("access_gate"),
	}
}

// CanAccessQuote reports whether the identity may read the quote.
// Staff see everything; creators see their own quotes; employees of a
// company with quote sharing enabled see each other's quotes. Any
// directory lookup failure resolves to false — access defaults closed.
func (g *Gate) CanAccessQuote(ctx context.Context, quote *models.Quote, identity models.Identity) bool {
	if identity.IsStaff() {
		return true
	}
	if quote.CreatedBy == identity.ID {
		return true
	}
	if identity.CompanyID == nil {
		return false
	}

	company, err := g.companies.GetCompany(ctx, *identity.CompanyID)
	if err != nil {
		g.logger.Warn("Company lookup failed during quote access check",
			zap.Error(err),
			zap.String("company_id", identity.CompanyID.String()),
		)
		return false
	}
	if !company.QuoteSharingEnabled {
		return false
	}

	creator, err := g.users.GetUser(ctx, quote.CreatedBy)
	if err != nil {
		g.logger.Warn("Creator lookup failed during quote access check",
			zap.Error(err),
			zap.String("quote_id", quote.ID.String()),
		)
		return false
	}
	return creator.CompanyID != nil && *creator.CompanyID == *identity.CompanyID
}

// CanManageCompany reports whether the identity may change company
// settings: staff, or the company's own company_admin.
func (g *Gate) CanManageCompany(company *models.Company, identity models.Identity) bool {
	if identity.IsStaff() {
		return true
	}
	return identity.Role == models.RoleCompanyAdmin &&
		identity.CompanyID != nil && *identity.CompanyID == company.ID
}

// CanAccessCompany reports whether the identity may read company
// information: staff, any employee of the company, or the sales rep
// assigned to it.
func (g *Gate) CanAccessCompany(company *models.Company, identity models.Identity) bool {
	if identity.IsStaff() {
		return true
	}
	if identity.CompanyID != nil && *identity.CompanyID == company.ID {
		return true
	}
	return identity.Role == models.RoleSalesRep &&
		company.AssignedSalesRep != nil && *company.AssignedSalesRep == identity.ID
}
