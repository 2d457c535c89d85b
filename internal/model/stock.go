package model

import "time"

// StockLevel holds the counters for one (warehouse, product) pair.
type StockLevel struct {
	ID                int64     `json:"id"`
	WarehouseID       int64     `json:"warehouseId"`
	ExternalProductID int64     `json:"externalProductId"`
	OnHand            int64     `json:"onHand"`
	Reserved          int64     `json:"reserved"`
	UpdatedAt         time.Time `json:"updatedAt"`

	// Joined fields (not always populated).
	WarehouseCode string `json:"warehouseCode,omitempty"`
	ProductSKU    string `json:"productSku,omitempty"`
}

// Availability is the read-only projection of a stock level.
type Availability struct {
	WarehouseID       int64     `json:"warehouseId"`
	ExternalProductID int64     `json:"externalProductId"`
	OnHand            int64     `json:"onHand"`
	Reserved          int64     `json:"reserved"`
	Available         int64     `json:"available"`
	UpdatedAt         time.Time `json:"updatedAt"`

	WarehouseCode string `json:"warehouseCode,omitempty"`
	ProductSKU    string `json:"productSku,omitempty"`
}
