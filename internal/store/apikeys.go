package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

const apiKeyColumns = `id, name, key_prefix, key_hash, scopes, rate_limit, expires_at, is_active,
	created_by, last_used_at, created_at`

// NewAPIKey is the input for CreateAPIKey. The caller hashes the secret.
type NewAPIKey struct {
	Name      string
	KeyPrefix string
	KeyHash   string
	Scopes    []string
	RateLimit int
	ExpiresAt *time.Time
	CreatedBy *string
}

// APIKeyPatch lists the fields UpdateAPIKey may change.
type APIKeyPatch struct {
	Name      *string
	Scopes    []string
	RateLimit *int
	ExpiresAt *time.Time
	IsActive  *bool
}

func scanAPIKey(row interface{ Scan(...any) error }) (*model.APIKey, error) {
	k := &model.APIKey{}
	var scopes string
	var expiresAt, lastUsedAt sql.NullTime
	var createdBy sql.NullString
	err := row.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.KeyHash, &scopes, &k.RateLimit, &expiresAt,
		&k.IsActive, &createdBy, &lastUsedAt, &k.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(scopes), &k.Scopes); err != nil {
		return nil, fmt.Errorf("decoding scopes: %w", err)
	}
	if k.Scopes == nil {
		k.Scopes = []string{}
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Time
	}
	if lastUsedAt.Valid {
		k.LastUsedAt = &lastUsedAt.Time
	}
	if createdBy.Valid {
		k.CreatedBy = &createdBy.String
	}
	return k, nil
}

func encodeScopes(scopes []string) (string, error) {
	if scopes == nil {
		scopes = []string{}
	}
	b, err := json.Marshal(scopes)
	if err != nil {
		return "", fmt.Errorf("encoding scopes: %w", err)
	}
	return string(b), nil
}

// CreateAPIKey stores a new active API key.
func CreateAPIKey(ctx context.Context, conn db.Querier, in NewAPIKey) (*model.APIKey, error) {
	scopes, err := encodeScopes(in.Scopes)
	if err != nil {
		return nil, err
	}
	if in.RateLimit <= 0 {
		in.RateLimit = model.DefaultRateLimit
	}

	var id int64
	err = conn.QueryRowContext(ctx,
		`INSERT INTO api_keys (name, key_prefix, key_hash, scopes, rate_limit, expires_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		in.Name, in.KeyPrefix, in.KeyHash, scopes, in.RateLimit, in.ExpiresAt, in.CreatedBy,
	).Scan(&id)
	if err != nil {
		return nil, wrap("creating api key", err)
	}
	return GetAPIKey(ctx, conn, id)
}

// GetAPIKey returns an API key by ID.
func GetAPIKey(ctx context.Context, conn db.Querier, id int64) (*model.APIKey, error) {
	k, err := scanAPIKey(conn.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id,
	))
	if err != nil {
		return nil, wrap("getting api key", err)
	}
	return k, nil
}

// ListAPIKeys returns all API keys, newest first.
func ListAPIKeys(ctx context.Context, conn db.Querier) ([]model.APIKey, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, wrap("listing api keys", err)
	}
	defer rows.Close()

	keys := []model.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, wrap("scanning api key", err)
		}
		keys = append(keys, *k)
	}
	return keys, wrap("listing api keys", rows.Err())
}

// FindAPIKeysByPrefix returns active keys sharing a clear-text prefix.
func FindAPIKeysByPrefix(ctx context.Context, conn db.Querier, prefix string) ([]model.APIKey, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = ? AND is_active = ?`, prefix, true,
	)
	if err != nil {
		return nil, wrap("finding api keys", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, wrap("scanning api key", err)
		}
		keys = append(keys, *k)
	}
	return keys, wrap("finding api keys", rows.Err())
}

// UpdateAPIKey changes the given fields of a key.
func UpdateAPIKey(ctx context.Context, conn db.Querier, id int64, patch APIKeyPatch) (*model.APIKey, error) {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Scopes != nil {
		scopes, err := encodeScopes(patch.Scopes)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "scopes = ?")
		args = append(args, scopes)
	}
	if patch.RateLimit != nil {
		sets = append(sets, "rate_limit = ?")
		args = append(args, *patch.RateLimit)
	}
	if patch.ExpiresAt != nil {
		sets = append(sets, "expires_at = ?")
		args = append(args, *patch.ExpiresAt)
	}
	if patch.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *patch.IsActive)
	}
	if len(sets) == 0 {
		return GetAPIKey(ctx, conn, id)
	}

	res, err := conn.ExecContext(ctx,
		`UPDATE api_keys SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		append(args, id)...,
	)
	if err != nil {
		return nil, wrap("updating api key", err)
	}
	if err := mustAffect(res); err != nil {
		return nil, wrap("updating api key", err)
	}
	return GetAPIKey(ctx, conn, id)
}

// RevokeAPIKey deactivates a key. Revoked keys stay listed.
func RevokeAPIKey(ctx context.Context, conn db.Querier, id int64) (*model.APIKey, error) {
	inactive := false
	return UpdateAPIKey(ctx, conn, id, APIKeyPatch{IsActive: &inactive})
}

// TouchAPIKey records that a key was just used.
func TouchAPIKey(ctx context.Context, conn db.Querier, id int64) error {
	_, err := conn.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	return wrap("touching api key", err)
}
