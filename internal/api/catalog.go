package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/imaging"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

// maxImageBytes caps product image uploads.
const maxImageBytes = 5 << 20

// CatalogHandler handles external product endpoints.
type CatalogHandler struct {
	DB    *db.DB
	Audit *audit.Recorder
}

type createProductRequest struct {
	SKU       string           `json:"sku" validate:"required,max=100"`
	Name      string           `json:"name" validate:"required,max=255"`
	Status    string           `json:"status" validate:"omitempty,oneof=active inactive archived"`
	BasePrice *decimal.Decimal `json:"basePrice" validate:"required"`
	Currency  string           `json:"currency" validate:"omitempty,len=3"`
	ImageURL  *string          `json:"imageUrl" validate:"omitempty,url"`
}

type updateProductRequest struct {
	SKU       *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Name      *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Status    *string          `json:"status" validate:"omitempty,oneof=active inactive archived"`
	BasePrice *decimal.Decimal `json:"basePrice"`
	Currency  *string          `json:"currency" validate:"omitempty,len=3"`
	ImageURL  *string          `json:"imageUrl" validate:"omitempty,url"`
}

type productPage struct {
	Data   []model.ExternalProduct `json:"data"`
	Total  int                     `json:"total"`
	Offset int                     `json:"offset"`
	Limit  *int                    `json:"limit"`
}

func productID(p *model.ExternalProduct) string {
	return strconv.FormatInt(p.ID, 10)
}

// List handles GET /v1/catalog.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := q.Get("status")
	if status != "" && !model.ValidProductStatus(status) {
		jsonError(w, http.StatusBadRequest, kindValidation, "status must be one of: active, inactive, archived")
		return
	}
	offset, _, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}
	limit, hasLimit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	products, total, err := store.ListProducts(r.Context(), h.DB, store.ProductFilter{
		Query:  q.Get("q"),
		Status: status,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		writeStoreError(w, r, "product", err)
		return
	}

	page := productPage{Data: products, Total: total, Offset: offset}
	if hasLimit {
		page.Limit = &limit
	}
	jsonResponse(w, http.StatusOK, page)
}

// Get handles GET /v1/catalog/{id}.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}
	p, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "product", err)
		return
	}
	jsonData(w, http.StatusOK, p)
}

// Create handles POST /v1/catalog.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if req.BasePrice.IsNegative() {
		jsonError(w, http.StatusBadRequest, kindValidation, "basePrice must not be negative")
		return
	}

	p, err := store.CreateProduct(r.Context(), h.DB, store.NewProduct{
		SKU:       req.SKU,
		Name:      req.Name,
		Status:    req.Status,
		BasePrice: *req.BasePrice,
		Currency:  req.Currency,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		writeStoreError(w, r, "product", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "catalog_create",
		EntityType: "external_products",
		EntityID:   productID(p),
		Changes:    audit.Changes{After: p},
	})
	jsonData(w, http.StatusCreated, p)
}

// Update handles PUT /v1/catalog/{id}.
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}
	var req updateProductRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if req.BasePrice != nil && req.BasePrice.IsNegative() {
		jsonError(w, http.StatusBadRequest, kindValidation, "basePrice must not be negative")
		return
	}

	before, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "product", err)
		return
	}

	after, err := store.UpdateProduct(r.Context(), h.DB, id, store.ProductPatch{
		SKU:       req.SKU,
		Name:      req.Name,
		Status:    req.Status,
		BasePrice: req.BasePrice,
		Currency:  req.Currency,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		writeStoreError(w, r, "product", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "catalog_update",
		EntityType: "external_products",
		EntityID:   productID(after),
		Changes:    audit.Changes{Before: before, After: after},
	})
	jsonData(w, http.StatusOK, after)
}

// Delete handles DELETE /v1/catalog/{id}.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}
	p, err := store.DeleteProduct(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "product", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "catalog_delete",
		EntityType: "external_products",
		EntityID:   productID(p),
		Changes:    audit.Changes{Before: p},
	})
	jsonDeleted(w, "product deleted", p)
}

// UploadImage handles PUT /v1/catalog/{id}/image. The body is either a
// multipart form with an "image" file or the raw image bytes.
func (h *CatalogHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)

	body := r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			jsonError(w, http.StatusBadRequest, kindValidation, "file too large or invalid multipart form")
			return
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			jsonError(w, http.StatusBadRequest, kindValidation, "image file required")
			return
		}
		defer file.Close()
		body = file
	}

	img, err := imaging.Process(body, imaging.Options{})
	if err != nil {
		writeStoreError(w, r, "product", err)
		return
	}

	if err := store.SetProductImage(r.Context(), h.DB, id, img.Data, img.MIME); err != nil {
		writeStoreError(w, r, "product", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "catalog_image_update",
		EntityType: "external_products",
		EntityID:   strconv.FormatInt(id, 10),
		Metadata:   map[string]any{"width": img.Width, "height": img.Height, "bytes": len(img.Data)},
	})
	jsonData(w, http.StatusOK, map[string]any{
		"mime":   img.MIME,
		"width":  img.Width,
		"height": img.Height,
	})
}

// GetImage handles GET /v1/catalog/{id}/image.
func (h *CatalogHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}
	data, contentType, err := store.GetProductImage(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "image", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
