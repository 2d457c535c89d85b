package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

func mustProduct(t *testing.T, conn db.Querier, sku, name string) *model.ExternalProduct {
	t.Helper()
	p, err := CreateProduct(context.Background(), conn, NewProduct{
		SKU:       sku,
		Name:      name,
		BasePrice: decimal.RequireFromString("10.50"),
	})
	require.NoError(t, err)
	return p
}

func mustWarehouse(t *testing.T, conn db.Querier, code string) *model.Warehouse {
	t.Helper()
	w, err := CreateWarehouse(context.Background(), conn, code, "Warehouse "+code)
	require.NoError(t, err)
	return w
}
