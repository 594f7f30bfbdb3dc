//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retailpos/internal/config"
	"retailpos/internal/infra"
	"retailpos/internal/router"
	"retailpos/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("retailpos_test"),
		tcPostgres.WithUsername("retailpos"),
		tcPostgres.WithPassword("retailpos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		WorkerPoolSize:     1,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		PDFStoragePath:     t.TempDir(),
		PriceCacheTTL:      300,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed an admin user
	hash, err := bcrypt.GenerateFromPassword([]byte("retailpos-e2e"), bcrypt.DefaultCost)
	require.NoError(t, err)
	err = db.Exec(`INSERT INTO users (id, username, name, password_hash, role, active, created_at, updated_at)
		VALUES (gen_random_uuid(), 'admin', 'Admin E2E', ?, 'admin', true, NOW(), NOW())
		ON CONFLICT DO NOTHING`, string(hash)).Error
	require.NoError(t, err)

	r := router.New(cfg, db, rdb, worker.NewDispatcher(rdb))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": "retailpos-e2e"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

// seedCatalog creates a branch, a category and one product, returning their IDs.
func seedCatalog(t *testing.T, env *testEnv, barcode string, stock int) (branchID, productID string) {
	t.Helper()

	branchResp := do(t, env.server, "POST", "/v1/branches",
		jsonBody(t, map[string]any{"code": "BR-" + barcode[len(barcode)-4:], "name": "Test Branch"}),
		env.token)
	require.Equal(t, http.StatusCreated, branchResp.StatusCode)
	var branch struct {
		ID string `json:"id"`
	}
	decodeJSON(t, branchResp, &branch)

	catResp := do(t, env.server, "POST", "/v1/categories",
		jsonBody(t, map[string]any{"name": "Beverages " + barcode}),
		env.token)
	require.Equal(t, http.StatusCreated, catResp.StatusCode)
	var category struct {
		ID string `json:"id"`
	}
	decodeJSON(t, catResp, &category)

	prodResp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"barcode":     barcode,
			"name":        "Mineral Water 1.5L",
			"category_id": category.ID,
			"branch_id":   branch.ID,
			"cost_price":  "1.10",
			"sale_price":  "2.50",
			"stock":       stock,
		}),
		env.token)
	require.Equal(t, http.StatusCreated, prodResp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, prodResp, &prod)

	return branch.ID, prod.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_SaleAndReturnLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	branchID, productID := seedCatalog(t, env, "7790001000001", 20)

	// Register a sale of 5 units.
	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"branch_id":   branchID,
			"items":       []map[string]any{{"product_id": productID, "quantity": 5}},
			"amount_paid": "20.00",
		}),
		env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID     string `json:"id"`
		Code   string `json:"code"`
		Status string `json:"status"`
		Total  string `json:"total"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, "completed", sale.Status)
	assert.Equal(t, "S-000001", sale.Code)

	// Partial return: 3 of 5. Sale stays completed.
	ret1Resp := do(t, env.server, "POST", "/v1/sales/"+sale.ID+"/returns",
		jsonBody(t, map[string]any{
			"items":  []map[string]any{{"product_id": productID, "quantity": 3}},
			"reason": "damaged packaging",
		}),
		env.token)
	require.Equal(t, http.StatusCreated, ret1Resp.StatusCode)
	var ret1 struct {
		SaleStatus string `json:"sale_status"`
	}
	decodeJSON(t, ret1Resp, &ret1)
	assert.Equal(t, "completed", ret1.SaleStatus)

	// Stock went 20 → 15 at sale time, back to 18 after the return.
	prodDetail := do(t, env.server, "GET", "/v1/products/"+productID, nil, env.token)
	require.Equal(t, http.StatusOK, prodDetail.StatusCode)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, prodDetail, &prod)
	assert.Equal(t, 18, prod.Stock)

	// Final return of the remaining 2 cancels the sale.
	ret2Resp := do(t, env.server, "POST", "/v1/sales/"+sale.ID+"/returns",
		jsonBody(t, map[string]any{
			"items": []map[string]any{{"product_id": productID, "quantity": 2}},
		}),
		env.token)
	require.Equal(t, http.StatusCreated, ret2Resp.StatusCode)
	var ret2 struct {
		SaleStatus string `json:"sale_status"`
	}
	decodeJSON(t, ret2Resp, &ret2)
	assert.Equal(t, "cancelled", ret2.SaleStatus)

	getSale := do(t, env.server, "GET", "/v1/sales/"+sale.ID, nil, env.token)
	require.Equal(t, http.StatusOK, getSale.StatusCode)
	var fetched struct {
		Status string `json:"status"`
	}
	decodeJSON(t, getSale, &fetched)
	assert.Equal(t, "cancelled", fetched.Status)

	// Both returns are listed against the sale.
	listResp := do(t, env.server, "GET", "/v1/sales/"+sale.ID+"/returns", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var returns []json.RawMessage
	decodeJSON(t, listResp, &returns)
	assert.Len(t, returns, 2)
}

func TestE2E_OverReturnRejected(t *testing.T) {
	env := setupTestEnv(t)
	branchID, productID := seedCatalog(t, env, "7790001000002", 20)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"branch_id":   branchID,
			"items":       []map[string]any{{"product_id": productID, "quantity": 2}},
			"amount_paid": "10.00",
		}),
		env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID string `json:"id"`
	}
	decodeJSON(t, saleResp, &sale)

	// Asking for 3 when only 2 were sold must fail and change nothing.
	retResp := do(t, env.server, "POST", "/v1/sales/"+sale.ID+"/returns",
		jsonBody(t, map[string]any{
			"items": []map[string]any{{"product_id": productID, "quantity": 3}},
		}),
		env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, retResp.StatusCode)
	retResp.Body.Close()

	prodDetail := do(t, env.server, "GET", "/v1/products/"+productID, nil, env.token)
	require.Equal(t, http.StatusOK, prodDetail.StatusCode)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, prodDetail, &prod)
	assert.Equal(t, 18, prod.Stock)

	listResp := do(t, env.server, "GET", "/v1/sales/"+sale.ID+"/returns", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var returns []json.RawMessage
	decodeJSON(t, listResp, &returns)
	assert.Empty(t, returns)
}

func TestE2E_PriceCheck(t *testing.T) {
	env := setupTestEnv(t)
	_, _ = seedCatalog(t, env, "7790001000003", 12)

	// No auth header: the endpoint is public.
	resp := do(t, env.server, "GET", "/v1/price/7790001000003", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var price struct {
		Name           string `json:"name"`
		SalePrice      string `json:"sale_price"`
		StockAvailable int    `json:"stock_available"`
	}
	decodeJSON(t, resp, &price)
	assert.Equal(t, "Mineral Water 1.5L", price.Name)
	assert.Equal(t, 12, price.StockAvailable)

	// Second hit is served from the Redis cache with identical content.
	resp2 := do(t, env.server, "GET", "/v1/price/7790001000003", nil, "")
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var cached struct {
		Name string `json:"name"`
	}
	decodeJSON(t, resp2, &cached)
	assert.Equal(t, price.Name, cached.Name)

	missing := do(t, env.server, "GET", "/v1/price/0000000000000", nil, "")
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	missing.Body.Close()
}

func TestE2E_DailySalesReport(t *testing.T) {
	env := setupTestEnv(t)
	branchID, productID := seedCatalog(t, env, "7790001000004", 30)

	for i := 0; i < 2; i++ {
		saleResp := do(t, env.server, "POST", "/v1/sales",
			jsonBody(t, map[string]any{
				"branch_id":   branchID,
				"items":       []map[string]any{{"product_id": productID, "quantity": 2}},
				"amount_paid": "10.00",
			}),
			env.token)
		require.Equal(t, http.StatusCreated, saleResp.StatusCode)
		saleResp.Body.Close()
	}

	today := time.Now().Format("2006-01-02")
	repResp := do(t, env.server, "GET",
		fmt.Sprintf("/v1/reports/daily-sales?from=%s&to=%s", today, today), nil, env.token)
	require.Equal(t, http.StatusOK, repResp.StatusCode)
	var report struct {
		Rows []struct {
			SaleCount int `json:"sale_count"`
		} `json:"rows"`
	}
	decodeJSON(t, repResp, &report)
	require.NotEmpty(t, report.Rows)
	assert.Equal(t, 2, report.Rows[0].SaleCount)

	csvResp := do(t, env.server, "GET", "/v1/reports/sales.csv", nil, env.token)
	require.Equal(t, http.StatusOK, csvResp.StatusCode)
	assert.Contains(t, csvResp.Header.Get("Content-Type"), "text/csv")
	csvResp.Body.Close()
}
