package model

import "time"

// APIKey is an issued API key. The secret itself is never stored.
type APIKey struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"keyPrefix"`
	KeyHash    string     `json:"-"`
	Scopes     []string   `json:"scopes"`
	RateLimit  int        `json:"rateLimit"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	IsActive   bool       `json:"isActive"`
	CreatedBy  *string    `json:"createdBy"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// DefaultRateLimit is the requests-per-minute value for new keys.
const DefaultRateLimit = 100
