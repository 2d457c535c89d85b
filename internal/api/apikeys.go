package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/auth"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

// APIKeysHandler handles API key issuance and management.
type APIKeysHandler struct {
	DB    *db.DB
	Audit *audit.Recorder
}

type createAPIKeyRequest struct {
	Name      string     `json:"name" validate:"required,max=255"`
	Scopes    []string   `json:"scopes" validate:"omitempty,dive,required,max=100"`
	RateLimit int        `json:"rateLimit" validate:"gte=0"`
	ExpiresAt *time.Time `json:"expiresAt"`
	CreatedBy *string    `json:"createdBy" validate:"omitempty,max=255"`
}

type updateAPIKeyRequest struct {
	Name      *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Scopes    []string   `json:"scopes" validate:"omitempty,dive,required,max=100"`
	RateLimit *int       `json:"rateLimit" validate:"omitempty,gt=0"`
	ExpiresAt *time.Time `json:"expiresAt"`
	IsActive  *bool      `json:"isActive"`
}

type verifyAPIKeyRequest struct {
	Key string `json:"key" validate:"required"`
}

// issuedAPIKey is returned once, on creation. Key is the raw secret.
type issuedAPIKey struct {
	*model.APIKey
	Key string `json:"key"`
}

// List handles GET /v1/api-keys.
func (h *APIKeysHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := store.ListAPIKeys(r.Context(), h.DB)
	if err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}
	jsonData(w, http.StatusOK, keys)
}

// Create handles POST /v1/api-keys.
func (h *APIKeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAPIKeyRequest
	if !decodeValid(w, r, &req) {
		return
	}

	issued, err := auth.GenerateAPIKey()
	if err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}

	k, err := store.CreateAPIKey(r.Context(), h.DB, store.NewAPIKey{
		Name:      req.Name,
		KeyPrefix: issued.Prefix,
		KeyHash:   issued.Hash,
		Scopes:    req.Scopes,
		RateLimit: req.RateLimit,
		ExpiresAt: req.ExpiresAt,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		UserID:     req.CreatedBy,
		Action:     "api_key_create",
		EntityType: "api_keys",
		EntityID:   strconv.FormatInt(k.ID, 10),
		Changes:    audit.Changes{After: k},
	})
	jsonData(w, http.StatusCreated, issuedAPIKey{APIKey: k, Key: issued.Raw})
}

// Update handles PUT /v1/api-keys/{id}.
func (h *APIKeysHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "api key")
	if !ok {
		return
	}
	var req updateAPIKeyRequest
	if !decodeValid(w, r, &req) {
		return
	}

	before, err := store.GetAPIKey(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}
	after, err := store.UpdateAPIKey(r.Context(), h.DB, id, store.APIKeyPatch{
		Name:      req.Name,
		Scopes:    req.Scopes,
		RateLimit: req.RateLimit,
		ExpiresAt: req.ExpiresAt,
		IsActive:  req.IsActive,
	})
	if err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "api_key_update",
		EntityType: "api_keys",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: before, After: after},
	})
	jsonData(w, http.StatusOK, after)
}

// Revoke handles DELETE /v1/api-keys/{id}. The key is deactivated, not removed.
func (h *APIKeysHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "api key")
	if !ok {
		return
	}
	before, err := store.GetAPIKey(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}
	after, err := store.RevokeAPIKey(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "api_key_revoke",
		EntityType: "api_keys",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: before, After: after},
	})
	jsonDeleted(w, "api key revoked", after)
}

// Verify handles POST /v1/api-keys/verify. It reports whether a raw key is
// active and unexpired, and records its use.
func (h *APIKeysHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyAPIKeyRequest
	if !decodeValid(w, r, &req) {
		return
	}

	k, err := h.lookup(r, req.Key)
	if err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}
	if k == nil {
		jsonError(w, http.StatusNotFound, kindNotFound, "api key not found or inactive")
		return
	}
	if err := store.TouchAPIKey(r.Context(), h.DB, k.ID); err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}
	touched, err := store.GetAPIKey(r.Context(), h.DB, k.ID)
	if err != nil {
		writeStoreError(w, r, "api key", err)
		return
	}
	jsonData(w, http.StatusOK, touched)
}

func (h *APIKeysHandler) lookup(r *http.Request, raw string) (*model.APIKey, error) {
	prefix, ok := auth.KeyLookupPrefix(raw)
	if !ok {
		return nil, nil
	}
	candidates, err := store.FindAPIKeysByPrefix(r.Context(), h.DB, prefix)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range candidates {
		k := &candidates[i]
		if k.ExpiresAt != nil && k.ExpiresAt.Before(now) {
			continue
		}
		if auth.CheckAPIKey(k.KeyHash, raw) {
			return k, nil
		}
	}
	return nil, nil
}
