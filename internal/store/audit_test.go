package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

func TestAuditLog(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "1"} {
		require.NoError(t, InsertAudit(ctx, database, model.AuditEntry{
			Action:     "warehouse_update",
			EntityType: "warehouses",
			EntityID:   id,
			Changes:    json.RawMessage(`{"after":{"id":` + id + `}}`),
		}))
	}
	require.NoError(t, InsertAudit(ctx, database, model.AuditEntry{
		Action: "catalog_create", EntityType: "external_products", EntityID: "1",
	}))

	all, err := ListAudit(ctx, database, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "catalog_create", all[0].Action)
	assert.JSONEq(t, `{}`, string(all[0].Metadata))

	one, err := ListAudit(ctx, database, AuditFilter{EntityType: "warehouses", EntityID: "1"})
	require.NoError(t, err)
	assert.Len(t, one, 2)

	limited, err := ListAudit(ctx, database, AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
