package web

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

type mappingForm struct {
	InternalItemID string `form:"internalItemId" validate:"required,max=255"`
	Note           string `form:"note" validate:"max=500"`
}

// MappingsPage handles GET /dashboard/mappings.
func (s *Server) MappingsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	f := store.MappingFilter{InternalItemID: r.URL.Query().Get("internalItemId")}
	mappings, err := store.ListMappings(ctx, s.DB, f)
	if err != nil {
		logger.Error("listing mappings", zap.Error(err))
	}
	products, _, err := store.ListProducts(ctx, s.DB, store.ProductFilter{})
	if err != nil {
		logger.Error("listing products", zap.Error(err))
	}

	skus := make(map[int64]string, len(products))
	for _, p := range products {
		skus[p.ID] = p.SKU
	}

	s.Templates.Render(w, r, "mappings.html", &struct {
		PageData
		Mappings []model.Mapping
		Products []model.ExternalProduct
		SKUs     map[int64]string
		Filter   store.MappingFilter
	}{
		PageData: pageData(r, "Mappings", "mappings"),
		Mappings: mappings,
		Products: products,
		SKUs:     skus,
		Filter:   f,
	})
}

// MappingCreateSubmit handles POST /dashboard/mappings.
func (s *Server) MappingCreateSubmit(w http.ResponseWriter, r *http.Request) {
	f := mappingForm{
		InternalItemID: strings.TrimSpace(r.FormValue("internalItemId")),
		Note:           strings.TrimSpace(r.FormValue("note")),
	}
	if msg := validateForm(f); msg != "" {
		redirectError(w, r, "/dashboard/mappings", msg)
		return
	}
	productID, err := formInt(r, "externalProductId")
	if err != nil || productID <= 0 {
		redirectError(w, r, "/dashboard/mappings", "product is required")
		return
	}

	m, err := store.CreateMapping(r.Context(), s.DB, f.InternalItemID, productID, optional(f.Note))
	if err != nil {
		redirectError(w, r, "/dashboard/mappings", failureMessage(r, "mapping", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "mapping_create",
		EntityType: "internal_to_external_mappings",
		EntityID:   strconv.FormatInt(m.ID, 10),
		Changes:    audit.Changes{After: m},
	})
	redirectNotice(w, r, "/dashboard/mappings", "Mapping created.")
}

// MappingDeleteSubmit handles POST /dashboard/mappings/{id}/delete.
func (s *Server) MappingDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := store.DeleteMapping(r.Context(), s.DB, id)
	if err != nil {
		redirectError(w, r, "/dashboard/mappings", failureMessage(r, "mapping", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "mapping_delete",
		EntityType: "internal_to_external_mappings",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: m},
	})
	redirectNotice(w, r, "/dashboard/mappings", "Mapping deleted.")
}
