package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/store"
)

// MappingsHandler handles internal-to-external SKU mapping endpoints.
type MappingsHandler struct {
	DB    *db.DB
	Audit *audit.Recorder
}

type createMappingRequest struct {
	InternalItemID    string  `json:"internalItemId" validate:"required,max=255"`
	ExternalProductID int64   `json:"externalProductId" validate:"required,gt=0"`
	Note              *string `json:"note" validate:"omitempty,max=500"`
}

// List handles GET /v1/mappings/internal-to-external. Both filters may be
// combined.
func (h *MappingsHandler) List(w http.ResponseWriter, r *http.Request) {
	pid, ok := queryID(w, r, "externalProductId")
	if !ok {
		return
	}
	mappings, err := store.ListMappings(r.Context(), h.DB, store.MappingFilter{
		InternalItemID:    r.URL.Query().Get("internalItemId"),
		ExternalProductID: pid,
	})
	if err != nil {
		writeStoreError(w, r, "mapping", err)
		return
	}
	jsonData(w, http.StatusOK, mappings)
}

// Get handles GET /v1/mappings/internal-to-external/{id}.
func (h *MappingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mapping")
	if !ok {
		return
	}
	m, err := store.GetMapping(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "mapping", err)
		return
	}
	jsonData(w, http.StatusOK, m)
}

// Create handles POST /v1/mappings/internal-to-external.
func (h *MappingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMappingRequest
	if !decodeValid(w, r, &req) {
		return
	}

	m, err := store.CreateMapping(r.Context(), h.DB, req.InternalItemID, req.ExternalProductID, req.Note)
	if err != nil {
		writeStoreError(w, r, "mapping", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "mapping_create",
		EntityType: "internal_to_external_mappings",
		EntityID:   strconv.FormatInt(m.ID, 10),
		Changes:    audit.Changes{After: m},
	})
	jsonData(w, http.StatusCreated, m)
}

// Delete handles DELETE /v1/mappings/internal-to-external/{id}.
func (h *MappingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mapping")
	if !ok {
		return
	}
	m, err := store.DeleteMapping(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "mapping", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "mapping_delete",
		EntityType: "internal_to_external_mappings",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: m},
	})
	jsonDeleted(w, "mapping deleted", m)
}
