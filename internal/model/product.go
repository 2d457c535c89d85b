package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ExternalProduct is a product sold on external channels.
type ExternalProduct struct {
	ID        int64           `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Status    string          `json:"status"`
	BasePrice decimal.Decimal `json:"basePrice"`
	Currency  string          `json:"currency"`
	ImageURL  *string         `json:"imageUrl"`
	ImageMime string          `json:"imageMime,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Product statuses.
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
	ProductStatusArchived = "archived"
)

// DefaultCurrency is used when a product is created without one.
const DefaultCurrency = "MXN"

// ValidProductStatus reports whether s is a known product status.
func ValidProductStatus(s string) bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusArchived:
		return true
	}
	return false
}
