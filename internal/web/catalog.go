package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/imaging"
	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

// catalogPageSize is the number of products per catalog page.
const catalogPageSize = 25

type productForm struct {
	SKU      string `form:"sku" validate:"required,max=100"`
	Name     string `form:"name" validate:"required,max=255"`
	Status   string `form:"status" validate:"omitempty,oneof=active inactive archived"`
	Price    string `form:"basePrice" validate:"required"`
	Currency string `form:"currency" validate:"omitempty,len=3"`
	ImageURL string `form:"imageUrl" validate:"omitempty,url"`
}

func readProductForm(r *http.Request) (productForm, decimal.Decimal, string) {
	f := productForm{
		SKU:      strings.TrimSpace(r.FormValue("sku")),
		Name:     strings.TrimSpace(r.FormValue("name")),
		Status:   r.FormValue("status"),
		Price:    strings.TrimSpace(r.FormValue("basePrice")),
		Currency: strings.ToUpper(strings.TrimSpace(r.FormValue("currency"))),
		ImageURL: strings.TrimSpace(r.FormValue("imageUrl")),
	}
	if msg := validateForm(f); msg != "" {
		return f, decimal.Zero, msg
	}
	price, err := decimal.NewFromString(f.Price)
	if err != nil {
		return f, decimal.Zero, "basePrice must be a number"
	}
	if price.IsNegative() {
		return f, decimal.Zero, "basePrice must not be negative"
	}
	return f, price.Round(2), ""
}

func productPath(id int64) string {
	return fmt.Sprintf("/dashboard/catalog/%d", id)
}

// CatalogPage handles GET /dashboard/catalog.
func (s *Server) CatalogPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	status := q.Get("status")
	if status != "" && !model.ValidProductStatus(status) {
		status = ""
	}
	page, _ := strconv.Atoi(q.Get("page"))
	page = max(page, 1)

	products, total, err := store.ListProducts(r.Context(), s.DB, store.ProductFilter{
		Query:  query,
		Status: status,
		Offset: (page - 1) * catalogPageSize,
		Limit:  catalogPageSize,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("listing products", zap.Error(err))
	}

	s.Templates.Render(w, r, "catalog.html", &struct {
		PageData
		Products []model.ExternalProduct
		Total    int
		Query    string
		Status   string
		Page     int
		HasPrev  bool
		HasNext  bool
	}{
		PageData: pageData(r, "Catalog", "catalog"),
		Products: products,
		Total:    total,
		Query:    query,
		Status:   status,
		Page:     page,
		HasPrev:  page > 1,
		HasNext:  page*catalogPageSize < total,
	})
}

// CatalogCreateSubmit handles POST /dashboard/catalog.
func (s *Server) CatalogCreateSubmit(w http.ResponseWriter, r *http.Request) {
	f, price, msg := readProductForm(r)
	if msg != "" {
		redirectError(w, r, "/dashboard/catalog", msg)
		return
	}

	p, err := store.CreateProduct(r.Context(), s.DB, store.NewProduct{
		SKU:       f.SKU,
		Name:      f.Name,
		Status:    f.Status,
		BasePrice: price,
		Currency:  f.Currency,
		ImageURL:  optional(f.ImageURL),
	})
	if err != nil {
		redirectError(w, r, "/dashboard/catalog", failureMessage(r, "product", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "catalog_create",
		EntityType: "external_products",
		EntityID:   strconv.FormatInt(p.ID, 10),
		Changes:    audit.Changes{After: p},
	})
	redirectNotice(w, r, productPath(p.ID), "Product created.")
}

// ProductPage handles GET /dashboard/catalog/{id}.
func (s *Server) ProductPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	p, err := store.GetProduct(ctx, s.DB, id)
	if err != nil {
		notFoundOr(w, r, "product", err)
		return
	}
	stock, err := s.Ledger.Availability(ctx, store.StockFilter{ExternalProductID: id})
	if err != nil {
		logger.Error("listing product stock", zap.Error(err))
	}
	mappings, err := store.ListMappings(ctx, s.DB, store.MappingFilter{ExternalProductID: id})
	if err != nil {
		logger.Error("listing product mappings", zap.Error(err))
	}
	warehouses, err := store.ListWarehouses(ctx, s.DB)
	if err != nil {
		logger.Error("listing warehouses", zap.Error(err))
	}

	var total model.Availability
	for _, a := range stock {
		total.OnHand += a.OnHand
		total.Reserved += a.Reserved
		total.Available += a.Available
	}

	s.Templates.Render(w, r, "product_detail.html", &struct {
		PageData
		Product    *model.ExternalProduct
		Stock      []model.Availability
		Total      model.Availability
		Mappings   []model.Mapping
		Warehouses []model.Warehouse
		Statuses   []string
	}{
		PageData:   pageData(r, p.Name, "catalog"),
		Product:    p,
		Stock:      stock,
		Total:      total,
		Mappings:   mappings,
		Warehouses: warehouses,
		Statuses:   []string{model.ProductStatusActive, model.ProductStatusInactive, model.ProductStatusArchived},
	})
}

// ProductUpdateSubmit handles POST /dashboard/catalog/{id}.
func (s *Server) ProductUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f, price, msg := readProductForm(r)
	if msg != "" {
		redirectError(w, r, productPath(id), msg)
		return
	}

	before, err := store.GetProduct(r.Context(), s.DB, id)
	if err != nil {
		redirectError(w, r, productPath(id), failureMessage(r, "product", err))
		return
	}
	patch := store.ProductPatch{
		SKU:       &f.SKU,
		Name:      &f.Name,
		BasePrice: &price,
		ImageURL:  optional(f.ImageURL),
	}
	if f.Status != "" {
		patch.Status = &f.Status
	}
	if f.Currency != "" {
		patch.Currency = &f.Currency
	}
	after, err := store.UpdateProduct(r.Context(), s.DB, id, patch)
	if err != nil {
		redirectError(w, r, productPath(id), failureMessage(r, "product", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "catalog_update",
		EntityType: "external_products",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: before, After: after},
	})
	redirectNotice(w, r, productPath(id), "Product updated.")
}

// ProductDeleteSubmit handles POST /dashboard/catalog/{id}/delete.
func (s *Server) ProductDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := store.DeleteProduct(r.Context(), s.DB, id)
	if err != nil {
		redirectError(w, r, "/dashboard/catalog", failureMessage(r, "product", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "catalog_delete",
		EntityType: "external_products",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: p},
	})
	redirectNotice(w, r, "/dashboard/catalog", "Product "+p.SKU+" deleted.")
}

// ProductImageSubmit handles POST /dashboard/catalog/{id}/image.
func (s *Server) ProductImageSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		redirectError(w, r, productPath(id), "file too large")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		redirectError(w, r, productPath(id), "image required")
		return
	}
	defer file.Close()

	img, err := imaging.Process(file, imaging.Options{})
	if err != nil {
		redirectError(w, r, productPath(id), err.Error())
		return
	}
	if err := store.SetProductImage(r.Context(), s.DB, id, img.Data, img.MIME); err != nil {
		redirectError(w, r, productPath(id), failureMessage(r, "product", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "catalog_image_update",
		EntityType: "external_products",
		EntityID:   strconv.FormatInt(id, 10),
		Metadata:   map[string]any{"width": img.Width, "height": img.Height, "bytes": len(img.Data)},
	})
	redirectNotice(w, r, productPath(id), "Image uploaded.")
}

// ProductImage handles GET /dashboard/catalog/{id}/image.
func (s *Server) ProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	data, contentType, err := store.GetProductImage(r.Context(), s.DB, id)
	if err != nil {
		notFoundOr(w, r, "image", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Warn("writing image response", zap.Error(err))
	}
}
