package model

import "time"

// Mapping links an internal item id to an external product.
type Mapping struct {
	ID                int64     `json:"id"`
	InternalItemID    string    `json:"internalItemId"`
	ExternalProductID int64     `json:"externalProductId"`
	Note              *string   `json:"note"`
	CreatedAt         time.Time `json:"createdAt"`
}
