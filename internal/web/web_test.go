package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

type testEnv struct {
	DB     *db.DB
	Server *httptest.Server
	Client *http.Client
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	recorder := audit.NewRecorder(audit.StoreEmitter{DB: database}, zap.NewNop())

	handler, err := NewRouter(database, recorder)
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{DB: database, Server: server, Client: client}
}

func (e *testEnv) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := e.Client.Get(e.Server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// post submits a form and returns the status and the decoded redirect target.
func (e *testEnv) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := e.Client.PostForm(e.Server.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	loc, _ := url.QueryUnescape(resp.Header.Get("Location"))
	return resp.StatusCode, loc
}

func seed(t *testing.T, database *db.DB) (*model.Warehouse, *model.ExternalProduct) {
	t.Helper()
	ctx := context.Background()
	wh, err := store.CreateWarehouse(ctx, database, "MX-MTY", "Monterrey")
	require.NoError(t, err)
	p, err := store.CreateProduct(ctx, database, store.NewProduct{
		SKU: "HOODIE-9", Name: "Hoodie", BasePrice: decimal.RequireFromString("499.00"),
	})
	require.NoError(t, err)
	return wh, p
}

func TestLoadTemplates(t *testing.T) {
	ts, err := LoadTemplates()
	require.NoError(t, err)
	for _, page := range pages {
		assert.Contains(t, ts.templates, page)
	}
}

func TestPagesRender(t *testing.T) {
	env := setup(t)
	_, p := seed(t, env.DB)

	for _, path := range []string{
		"/dashboard/",
		"/dashboard/catalog",
		"/dashboard/catalog/" + strconv.FormatInt(p.ID, 10),
		"/dashboard/warehouses",
		"/dashboard/stock",
		"/dashboard/mappings",
		"/dashboard/shipments",
		"/dashboard/api-keys",
		"/dashboard/audit",
	} {
		t.Run(path, func(t *testing.T) {
			status, body := env.get(t, path)
			assert.Equal(t, http.StatusOK, status)
			assert.Contains(t, body, "<nav>")
		})
	}
}

func TestDashboardRedirectAndStatic(t *testing.T) {
	env := setup(t)

	resp, err := env.Client.Get(env.Server.URL + "/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/dashboard/", resp.Header.Get("Location"))

	status, body := env.get(t, "/static/style.css")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "--accent")
}

func TestProductNotFound(t *testing.T) {
	env := setup(t)

	status, _ := env.get(t, "/dashboard/catalog/42")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.get(t, "/dashboard/catalog/abc")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCatalogForms(t *testing.T) {
	env := setup(t)

	status, loc := env.post(t, "/dashboard/catalog", url.Values{
		"sku": {"BAG-1"}, "name": {"Tote bag"}, "basePrice": {"120.5"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Contains(t, loc, "Product created.")

	products, total, err := store.ListProducts(context.Background(), env.DB, store.ProductFilter{Query: "BAG-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "120.5", products[0].BasePrice.String())
	assert.Equal(t, model.DefaultCurrency, products[0].Currency)

	_, loc = env.post(t, "/dashboard/catalog", url.Values{
		"sku": {"BAG-1"}, "name": {"Again"}, "basePrice": {"1"},
	})
	assert.Contains(t, loc, "error=product already exists")

	_, loc = env.post(t, "/dashboard/catalog", url.Values{"sku": {"X"}, "basePrice": {"1"}})
	assert.Contains(t, loc, "name is required")

	_, loc = env.post(t, "/dashboard/catalog", url.Values{"sku": {"X"}, "name": {"X"}, "basePrice": {"-3"}})
	assert.Contains(t, loc, "basePrice must not be negative")

	id := strconv.FormatInt(products[0].ID, 10)
	_, loc = env.post(t, "/dashboard/catalog/"+id, url.Values{
		"sku": {"BAG-1"}, "name": {"Canvas tote"}, "basePrice": {"99"}, "status": {"inactive"},
	})
	assert.Contains(t, loc, "Product updated.")

	status, body := env.get(t, "/dashboard/catalog/"+id)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Canvas tote")
	assert.Contains(t, body, "99.00 MXN")

	_, loc = env.post(t, "/dashboard/catalog/"+id+"/delete", nil)
	assert.Contains(t, loc, "Product BAG-1 deleted.")
}

func TestProductImageUpload(t *testing.T) {
	env := setup(t)
	_, p := seed(t, env.DB)
	id := strconv.FormatInt(p.ID, 10)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 40, 20))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := env.Client.Post(env.Server.URL+"/dashboard/catalog/"+id+"/image", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err = env.Client.Get(env.Server.URL + "/dashboard/catalog/" + id + "/image")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
}

func TestStockAdjustForm(t *testing.T) {
	env := setup(t)
	wh, p := seed(t, env.DB)
	form := url.Values{
		"warehouseId":       {strconv.FormatInt(wh.ID, 10)},
		"externalProductId": {strconv.FormatInt(p.ID, 10)},
		"deltaOnHand":       {"7"},
		"deltaReserved":     {"3"},
		"return":            {"/dashboard/catalog/" + strconv.FormatInt(p.ID, 10) + "?x=1"},
	}

	status, loc := env.post(t, "/dashboard/stock/adjust", form)
	require.Equal(t, http.StatusSeeOther, status)
	assert.True(t, strings.HasPrefix(loc, "/dashboard/catalog/"+strconv.FormatInt(p.ID, 10)+"?notice="))
	assert.Contains(t, loc, "on hand 7, reserved 3")

	form.Set("deltaOnHand", "-100")
	form.Set("deltaReserved", "0")
	form.Set("return", "https://example.com/")
	_, loc = env.post(t, "/dashboard/stock/adjust", form)
	assert.True(t, strings.HasPrefix(loc, "/dashboard/stock?"))
	assert.Contains(t, loc, "on hand 0, reserved 3")

	form.Set("deltaOnHand", "many")
	_, loc = env.post(t, "/dashboard/stock/adjust", form)
	assert.Contains(t, loc, "deltaOnHand must be a whole number")

	form.Set("deltaOnHand", " ")
	_, loc = env.post(t, "/dashboard/stock/adjust", form)
	assert.Contains(t, loc, "deltaOnHand is required")

	form.Set("deltaOnHand", "1")
	form.Set("warehouseId", "999")
	_, loc = env.post(t, "/dashboard/stock/adjust", form)
	assert.Contains(t, loc, "referenced entity not found")

	entries, err := store.ListAudit(context.Background(), env.DB, store.AuditFilter{EntityType: "stock_levels"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		var meta map[string]any
		require.NoError(t, json.Unmarshal(e.Metadata, &meta))
		assert.Equal(t, "dashboard", meta["via"])
		assert.Equal(t, "dashboard adjustment", meta["reason"])
	}

	status, body := env.get(t, "/dashboard/stock?warehouseId="+strconv.FormatInt(wh.ID, 10))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "HOODIE-9")
	assert.Contains(t, body, `class="warn"`)
}

func TestWarehouseAndMappingForms(t *testing.T) {
	env := setup(t)
	_, p := seed(t, env.DB)

	_, loc := env.post(t, "/dashboard/warehouses", url.Values{"code": {"MX-CDMX"}, "name": {"Ciudad de México"}})
	assert.Contains(t, loc, "Warehouse MX-CDMX created.")

	_, loc = env.post(t, "/dashboard/warehouses", url.Values{"code": {"MX-CDMX"}, "name": {"Dup"}})
	assert.Contains(t, loc, "warehouse already exists")

	_, loc = env.post(t, "/dashboard/mappings", url.Values{
		"internalItemId": {"sku-internal-7"}, "externalProductId": {strconv.FormatInt(p.ID, 10)}, "note": {"primary"},
	})
	assert.Contains(t, loc, "Mapping created.")

	status, body := env.get(t, "/dashboard/mappings")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "sku-internal-7")
	assert.Contains(t, body, "HOODIE-9")

	_, loc = env.post(t, "/dashboard/mappings", url.Values{"internalItemId": {"x"}})
	assert.Contains(t, loc, "product is required")
}

func TestShipmentForms(t *testing.T) {
	env := setup(t)

	status, loc := env.post(t, "/dashboard/shipments", url.Values{
		"orderId": {"ORD-77"}, "carrier": {"Estafeta"}, "trackingNumber": {"EST123"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	path, _, _ := strings.Cut(loc, "?")

	_, loc = env.post(t, path+"/status", url.Values{"status": {"delivered"}, "location": {"MTY"}})
	assert.Contains(t, loc, "Status changed to delivered.")

	_, loc = env.post(t, path+"/status", url.Values{"status": {"cancelled"}})
	assert.Contains(t, loc, "error=")

	_, loc = env.post(t, path+"/events", url.Values{"type": {"exception"}, "message": {"damaged box"}})
	assert.Contains(t, loc, "Event added.")

	_, loc = env.post(t, path+"/events", url.Values{"type": {"teleported"}})
	assert.Contains(t, loc, "type must be one of")

	status, body := env.get(t, path)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "damaged box")
	assert.Contains(t, body, "no further status changes")
}

func TestAPIKeyForms(t *testing.T) {
	env := setup(t)

	resp, err := env.Client.PostForm(env.Server.URL+"/dashboard/api-keys", url.Values{
		"name": {"erp"}, "scopes": {"stock:read, catalog:read"}, "rateLimit": {"50"},
	})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "lgk_")
	assert.Contains(t, string(body), "will not be shown again")

	keys, err := store.ListAPIKeys(context.Background(), env.DB)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, []string{"stock:read", "catalog:read"}, keys[0].Scopes)
	assert.Equal(t, 50, keys[0].RateLimit)

	_, loc := env.post(t, "/dashboard/api-keys/"+strconv.FormatInt(keys[0].ID, 10)+"/revoke", nil)
	assert.Contains(t, loc, "API key erp revoked.")

	k, err := store.GetAPIKey(context.Background(), env.DB, keys[0].ID)
	require.NoError(t, err)
	assert.False(t, k.IsActive)
}

func TestAuditPageShowsDashboardEntries(t *testing.T) {
	env := setup(t)

	env.post(t, "/dashboard/warehouses", url.Values{"code": {"MX-QRO"}, "name": {"Querétaro"}})

	status, body := env.get(t, "/dashboard/audit?entityType=warehouses")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "warehouse_create")
	assert.Contains(t, body, "&#34;via&#34;: &#34;dashboard&#34;")
}
