package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
)

func TestHandlerMountsAPIAndDashboard(t *testing.T) {
	database := db.NewTestDB(t)
	recorder := audit.NewRecorder(audit.StoreEmitter{DB: database}, zap.NewNop())

	handler, err := newHandler(database, recorder, zap.NewNop())
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	defer server.Close()

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/", http.StatusOK, "application/json"},
		{"/healthz", http.StatusOK, "application/json"},
		{"/v1/warehouses", http.StatusOK, "application/json"},
		{"/v1/missing", http.StatusNotFound, "application/json"},
		{"/dashboard/", http.StatusOK, "text/html; charset=utf-8"},
		{"/dashboard/stock", http.StatusOK, "text/html; charset=utf-8"},
		{"/static/style.css", http.StatusOK, "text/css; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestServiceInfo(t *testing.T) {
	database := db.NewTestDB(t)
	handler, err := newHandler(database, nil, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sqlite", body.Data["database"])
	assert.Equal(t, "/v1", body.Data["api"])
}
