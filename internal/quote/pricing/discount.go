// Package pricing applies discounts to quote line items and recomputes
// quote totals deterministically.
package pricing

import (
	"fmt"
	"time"

	e "github.com/quotedesk/backend/internal/quote/errors"
	"github.com/quotedesk/backend/internal/quote/models"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	Percentage  DiscountType = "percentage"
	FixedAmount DiscountType = "fixed_amount"
)

var oneHundred = decimal.NewFromInt(100)

// Input describes a discount application. A nil TargetIndices applies
// the discount to every item.
type Input struct {
	Type          DiscountType
	Value         decimal.Decimal
	TargetIndices []int
	Reason        string
}

// Result reports the outcome of a discount application.
type Result struct {
	// TotalDiscount is the per-item discount times quantity, summed
	// across all affected items.
	TotalDiscount decimal.Decimal
	// OldTotal and NewTotal are the quote totals before and after.
	OldTotal *decimal.Decimal
	NewTotal *decimal.Decimal
	// ItemsAffected is the number of item indices the request targeted.
	ItemsAffected int
}

// Engine applies discounts. Stateless; safe for concurrent use.
type Engine struct{}

// NewEngine constructs an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ApplyDiscount discounts the targeted items in place and recomputes the
// quote's total estimate.
//
// Unpriced items and out-of-range indices are skipped silently (stale
// client selections are not an error). The first application on an item
// stores its pre-discount price in OriginalPrice; later applications
// discount the item's current price, so discounts compound across calls.
// Percentage discounts take price*value/100 off; fixed discounts take
// min(value, price). Prices floor at zero.
func (en *Engine) ApplyDiscount(quote *models.Quote, in Input) (*Result, error) {
	if in.Type != Percentage && in.Type != FixedAmount {
		return nil, fmt.Errorf("%w: unknown discount type %q", e.ErrInvalidInput, in.Type)
	}
	if !in.Value.IsPositive() {
		return nil, fmt.Errorf("%w: discount value must be positive", e.ErrInvalidInput)
	}
	if len(quote.Items) == 0 {
		return nil, fmt.Errorf("%w: quote has no items to discount", e.ErrInvalidInput)
	}

	indices := in.TargetIndices
	if indices == nil {
		indices = make([]int, len(quote.Items))
		for i := range quote.Items {
			indices[i] = i
		}
	}

	oldTotal := quote.TotalEstimate
	totalDiscount := decimal.Zero
	for _, i := range indices {
		if i < 0 || i >= len(quote.Items) {
			continue
		}
		item := &quote.Items[i]
		if item.UnitPrice == nil {
			continue
		}
		price := *item.UnitPrice

		var discount decimal.Decimal
		if in.Type == Percentage {
			discount = price.Mul(in.Value).Div(oneHundred)
		} else {
			discount = decimal.Min(in.Value, price)
		}
		newPrice := price.Sub(discount)
		if newPrice.IsNegative() {
			newPrice = decimal.Zero
		}

		if item.OriginalPrice == nil {
			original := price
			item.OriginalPrice = &original
		}
		item.UnitPrice = &newPrice
		item.DiscountApplied = discount
		totalDiscount = totalDiscount.Add(discount.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	quote.TotalEstimate = Total(quote.Items)
	quote.UpdatedAt = time.Now().UTC()

	return &Result{
		TotalDiscount: totalDiscount,
		OldTotal:      oldTotal,
		NewTotal:      quote.TotalEstimate,
		ItemsAffected: len(indices),
	}, nil
}

// Total computes the quote total: the sum of unit_price*quantity over
// priced items. It returns nil iff no item carries a price.
func Total(items []models.QuoteItem) *decimal.Decimal {
	total := decimal.Zero
	priced := false
	for _, item := range items {
		if item.UnitPrice == nil {
			continue
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		priced = true
	}
	if !priced {
		return nil
	}
	return &total
}
