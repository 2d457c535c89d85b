package store

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

const productColumns = `id, sku, name, status, base_price, currency, image_url, image_mime, created_at, updated_at`

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	Query  string // matched case-insensitively against name or sku
	Status string
	Offset int
	Limit  int // 0 means no limit
}

// NewProduct is the input for CreateProduct.
type NewProduct struct {
	SKU       string
	Name      string
	Status    string
	BasePrice decimal.Decimal
	Currency  string
	ImageURL  *string
}

// ProductPatch lists the fields UpdateProduct may change. Nil fields are left alone.
type ProductPatch struct {
	SKU       *string
	Name      *string
	Status    *string
	BasePrice *decimal.Decimal
	Currency  *string
	ImageURL  *string
}

func scanProduct(row interface{ Scan(...any) error }) (*model.ExternalProduct, error) {
	p := &model.ExternalProduct{}
	var imageURL, imageMime sql.NullString
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Status, &p.BasePrice, &p.Currency,
		&imageURL, &imageMime, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	p.ImageMime = imageMime.String
	return p, nil
}

// CreateProduct inserts a catalog product.
func CreateProduct(ctx context.Context, conn db.Querier, in NewProduct) (*model.ExternalProduct, error) {
	if in.Status == "" {
		in.Status = model.ProductStatusActive
	}
	if in.Currency == "" {
		in.Currency = model.DefaultCurrency
	}

	var id int64
	err := conn.QueryRowContext(ctx,
		`INSERT INTO external_products (sku, name, status, base_price, currency, image_url)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		in.SKU, in.Name, in.Status, in.BasePrice.StringFixed(2), in.Currency, in.ImageURL,
	).Scan(&id)
	if err != nil {
		return nil, wrap("creating product", err)
	}

	return GetProduct(ctx, conn, id)
}

// GetProduct returns a product by ID.
func GetProduct(ctx context.Context, conn db.Querier, id int64) (*model.ExternalProduct, error) {
	p, err := scanProduct(conn.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM external_products WHERE id = ?`, id,
	))
	if err != nil {
		return nil, wrap("getting product", err)
	}
	return p, nil
}

func productWhere(f ProductFilter) (string, []any) {
	var conds []string
	var args []any
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		conds = append(conds, `(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)`)
		args = append(args, like, like)
	}
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, f.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListProducts returns one page of products matching f, ordered by name, and
// the total number of matching products.
func ListProducts(ctx context.Context, conn db.Querier, f ProductFilter) ([]model.ExternalProduct, int, error) {
	where, args := productWhere(f)

	var total int
	if err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM external_products`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, wrap("counting products", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = math.MaxInt32
	}
	offset := max(f.Offset, 0)

	rows, err := conn.QueryContext(ctx,
		`SELECT `+productColumns+` FROM external_products`+where+
			` ORDER BY name, id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, wrap("listing products", err)
	}
	defer rows.Close()

	products := []model.ExternalProduct{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, wrap("scanning product", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap("listing products", err)
	}
	return products, total, nil
}

// UpdateProduct applies patch to a product and returns the updated row.
func UpdateProduct(ctx context.Context, conn db.Querier, id int64, patch ProductPatch) (*model.ExternalProduct, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if patch.SKU != nil {
		sets = append(sets, "sku = ?")
		args = append(args, *patch.SKU)
	}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.BasePrice != nil {
		sets = append(sets, "base_price = ?")
		args = append(args, patch.BasePrice.StringFixed(2))
	}
	if patch.Currency != nil {
		sets = append(sets, "currency = ?")
		args = append(args, *patch.Currency)
	}
	if patch.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, *patch.ImageURL)
	}

	res, err := conn.ExecContext(ctx,
		`UPDATE external_products SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		append(args, id)...,
	)
	if err != nil {
		return nil, wrap("updating product", err)
	}
	if err := mustAffect(res); err != nil {
		return nil, wrap("updating product", err)
	}
	return GetProduct(ctx, conn, id)
}

// DeleteProduct removes a product together with its stock levels and
// mappings, and returns the deleted row.
func DeleteProduct(ctx context.Context, conn db.Querier, id int64) (*model.ExternalProduct, error) {
	p, err := GetProduct(ctx, conn, id)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM external_products WHERE id = ?`, id); err != nil {
		return nil, wrap("deleting product", err)
	}
	return p, nil
}

// SetProductImage stores a processed product image.
func SetProductImage(ctx context.Context, conn db.Querier, id int64, image []byte, mime string) error {
	res, err := conn.ExecContext(ctx,
		`UPDATE external_products SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return wrap("setting product image", err)
	}
	return wrap("setting product image", mustAffect(res))
}

// GetProductImage returns a product's image data and MIME type. A product
// without an image yields ErrNotFound.
func GetProductImage(ctx context.Context, conn db.Querier, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := conn.QueryRowContext(ctx,
		`SELECT image, image_mime FROM external_products WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err != nil {
		return nil, "", wrap("getting product image", err)
	}
	if len(image) == 0 {
		return nil, "", wrap("getting product image", ErrNotFound)
	}
	return image, mime.String, nil
}

// mustAffect turns a zero-row update or delete into ErrNotFound.
func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
