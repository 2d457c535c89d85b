package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/auth"
	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

type apiKeyForm struct {
	Name      string `form:"name" validate:"required,max=255"`
	CreatedBy string `form:"createdBy" validate:"max=255"`
}

type apiKeysPage struct {
	PageData
	Keys   []model.APIKey
	Issued *auth.IssuedKey
}

func (s *Server) renderAPIKeys(w http.ResponseWriter, r *http.Request, data apiKeysPage) {
	keys, err := store.ListAPIKeys(r.Context(), s.DB)
	if err != nil {
		logging.FromContext(r.Context()).Error("listing api keys", zap.Error(err))
	}
	data.Keys = keys
	s.Templates.Render(w, r, "api_keys.html", &data)
}

// APIKeysPage handles GET /dashboard/api-keys.
func (s *Server) APIKeysPage(w http.ResponseWriter, r *http.Request) {
	s.renderAPIKeys(w, r, apiKeysPage{PageData: pageData(r, "API keys", "api-keys")})
}

// APIKeyCreateSubmit handles POST /dashboard/api-keys. The raw key is shown
// on the response page only, so the page is rendered instead of redirecting.
func (s *Server) APIKeyCreateSubmit(w http.ResponseWriter, r *http.Request) {
	data := apiKeysPage{PageData: PageData{Title: "API keys", Nav: "api-keys"}}

	f := apiKeyForm{
		Name:      strings.TrimSpace(r.FormValue("name")),
		CreatedBy: strings.TrimSpace(r.FormValue("createdBy")),
	}
	if msg := validateForm(f); msg != "" {
		data.Error = msg
		s.renderAPIKeys(w, r, data)
		return
	}
	rateLimit, err := formInt(r, "rateLimit")
	if err != nil || rateLimit < 0 {
		data.Error = "rateLimit must be a positive whole number"
		s.renderAPIKeys(w, r, data)
		return
	}
	var expiresAt *time.Time
	if v := strings.TrimSpace(r.FormValue("expiresAt")); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			data.Error = "expiresAt must be a date"
			s.renderAPIKeys(w, r, data)
			return
		}
		expiresAt = &t
	}
	var scopes []string
	for _, sc := range strings.Split(r.FormValue("scopes"), ",") {
		if sc = strings.TrimSpace(sc); sc != "" {
			scopes = append(scopes, sc)
		}
	}

	issued, err := auth.GenerateAPIKey()
	if err != nil {
		data.Error = failureMessage(r, "api key", err)
		s.renderAPIKeys(w, r, data)
		return
	}
	k, err := store.CreateAPIKey(r.Context(), s.DB, store.NewAPIKey{
		Name:      f.Name,
		KeyPrefix: issued.Prefix,
		KeyHash:   issued.Hash,
		Scopes:    scopes,
		RateLimit: int(rateLimit),
		ExpiresAt: expiresAt,
		CreatedBy: optional(f.CreatedBy),
	})
	if err != nil {
		data.Error = failureMessage(r, "api key", err)
		s.renderAPIKeys(w, r, data)
		return
	}

	s.record(r, audit.Entry{
		UserID:     k.CreatedBy,
		Action:     "api_key_create",
		EntityType: "api_keys",
		EntityID:   strconv.FormatInt(k.ID, 10),
		Changes:    audit.Changes{After: k},
	})

	data.Success = "API key " + k.Name + " created. Copy it now, it will not be shown again."
	data.Issued = issued
	s.renderAPIKeys(w, r, data)
}

// APIKeyRevokeSubmit handles POST /dashboard/api-keys/{id}/revoke.
func (s *Server) APIKeyRevokeSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	before, err := store.GetAPIKey(r.Context(), s.DB, id)
	if err != nil {
		redirectError(w, r, "/dashboard/api-keys", failureMessage(r, "api key", err))
		return
	}
	after, err := store.RevokeAPIKey(r.Context(), s.DB, id)
	if err != nil {
		redirectError(w, r, "/dashboard/api-keys", failureMessage(r, "api key", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "api_key_revoke",
		EntityType: "api_keys",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: before, After: after},
	})
	redirectNotice(w, r, "/dashboard/api-keys", "API key "+after.Name+" revoked.")
}
