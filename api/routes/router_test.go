package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/venuepos/internal/checkout"
	"github.com/angelmondragon/venuepos/internal/members"
	"github.com/angelmondragon/venuepos/internal/pricing"
	"github.com/angelmondragon/venuepos/internal/products"
	"github.com/angelmondragon/venuepos/internal/register"
	"github.com/angelmondragon/venuepos/internal/repo/repotest"
	"github.com/angelmondragon/venuepos/internal/sales"
	"github.com/angelmondragon/venuepos/pkg/config"
	"github.com/angelmondragon/venuepos/pkg/db"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	"github.com/angelmondragon/venuepos/pkg/enums"
	"github.com/angelmondragon/venuepos/pkg/logger"
	"github.com/angelmondragon/venuepos/pkg/metrics"
)

type harness struct {
	t       *testing.T
	handler http.Handler
	catalog *products.Repository
	sales   *sales.Repository
	lager   models.Product
	crisps  models.Product
	member  models.Member
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	conn := repotest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	engine := pricing.NewEngine(decimal.RequireFromString("0.10"))

	productRepo := products.NewRepository(conn)
	catalog, err := products.NewService(productRepo, 10)
	require.NoError(t, err)

	memberRepo := members.NewRepository(conn)
	resolver, err := members.NewResolver(memberRepo, members.DefaultSearchLimit, members.DefaultSearchMinChars)
	require.NoError(t, err)

	salesRepo := sales.NewRepository(conn)
	reg := prometheus.NewRegistry()
	orchestrator, err := checkout.NewOrchestrator(salesRepo, productRepo, checkout.NewClockAllocator(checkout.DefaultSaleNumberPrefix), checkout.Options{
		Engine:  engine,
		Logger:  logg,
		Metrics: metrics.NewCheckoutMetrics(reg),
	})
	require.NoError(t, err)

	registers, err := register.NewService(engine, catalog, resolver, orchestrator, register.NewLocalGuard(), logg)
	require.NoError(t, err)

	lager, err := productRepo.Create(ctx, &models.Product{ID: uuid.New(), Name: "Lager", Category: "Bar",
		UnitPrice: decimal.RequireFromString("10.00"), StockQuantity: 5, LowStockThreshold: 10, IsActive: true})
	require.NoError(t, err)
	crisps, err := productRepo.Create(ctx, &models.Product{ID: uuid.New(), Name: "Crisps", Category: "Snacks",
		UnitPrice: decimal.RequireFromString("5.00"), StockQuantity: 1, LowStockThreshold: 10, IsActive: true})
	require.NoError(t, err)
	member, err := memberRepo.Create(ctx, &models.Member{ID: uuid.New(), MemberNumber: "M-0042", FullName: "Ada Lovelace",
		MembershipTier: enums.MembershipTierVIP, Status: enums.MembershipStatusActive})
	require.NoError(t, err)

	h := &harness{t: t, catalog: productRepo, sales: salesRepo, lager: *lager, crisps: *crisps, member: *member}
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	h.handler = NewRouter(cfg, logg, map[string]db.Pinger{"db": db.NewFromConn(conn, config.DriverSQLite)}, reg, catalog, registers)
	return h
}

func (h *harness) do(method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	h.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var env map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRouterHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec, env := h.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", env["data"].(map[string]any)["checks"].(map[string]any)["db"])

	rec, _ = h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterListsCatalogByCategory(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env["data"], 2)

	rec, env = h.do(http.MethodGet, "/api/v1/products?category=snacks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := env["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Crisps", items[0].(map[string]any)["name"])
}

func TestRouterRegisterCheckoutFlow(t *testing.T) {
	h := newHarness(t)
	base := "/api/v1/registers/bar-1"
	operator := map[string]string{"X-Operator-Id": "op-9"}

	for _, id := range []uuid.UUID{h.lager.ID, h.lager.ID, h.crisps.ID} {
		rec, _ := h.do(http.MethodPost, base+"/cart/items", `{"product_id":"`+id.String()+`"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := h.do(http.MethodPatch, base+"/cart/items/"+h.crisps.ID.String(), `{"discount_percent":"10"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := h.do(http.MethodGet, base+"/members?q=lovel", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	search := env["data"].(map[string]any)
	assert.EqualValues(t, 1, search["seq"])
	require.Len(t, search["members"], 1)

	rec, _ = h.do(http.MethodPost, base+"/cart/member", `{"member_id":"`+h.member.ID.String()+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = h.do(http.MethodGet, base+"/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := env["data"].(map[string]any)["totals"].(map[string]any)
	assert.Equal(t, "24.50", totals["subtotal"])
	assert.Equal(t, "2.45", totals["tax"])
	assert.Equal(t, "26.95", totals["grand_total"])

	rec, _ = h.do(http.MethodPost, base+"/checkout", `{"payment_method":"card"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, "operator header is required")

	rec, env = h.do(http.MethodPost, base+"/checkout", `{"payment_method":"card"}`, operator)
	require.Equal(t, http.StatusCreated, rec.Code)
	result := env["data"].(map[string]any)
	assert.Equal(t, true, result["success"])
	saleNumber := result["sale_number"].(string)
	assert.True(t, strings.HasPrefix(saleNumber, "TXN-"))

	sale, err := h.sales.FindByNumber(context.Background(), saleNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, sale.PaymentStatus)
	assert.Equal(t, "op-9", sale.OperatorID)
	require.NotNil(t, sale.MemberID)
	assert.Equal(t, h.member.ID, *sale.MemberID)
	assert.Len(t, sale.Lines, 2)
	assert.True(t, sale.GrandTotal.Equal(decimal.RequireFromString("26.95")))

	lager, err := h.catalog.FindByID(context.Background(), h.lager.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, lager.StockQuantity)
	crisps, err := h.catalog.FindByID(context.Background(), h.crisps.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, crisps.StockQuantity)

	rec, env = h.do(http.MethodGet, base+"/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env["data"].(map[string]any)["lines"])

	rec, env = h.do(http.MethodPost, base+"/checkout", `{"payment_method":"cash"}`, operator)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart is empty", env["error"].(map[string]any)["message"])

	rec, _ = h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `checkout_outcome_total{outcome="committed"} 1`)
	assert.Contains(t, rec.Body.String(), `checkout_outcome_total{outcome="failed"} 1`)
}

func TestRouterRegistersAreIsolated(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(http.MethodPost, "/api/v1/registers/bar-1/cart/items", `{"product_id":"`+h.lager.ID.String()+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := h.do(http.MethodGet, "/api/v1/registers/bar-2/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env["data"].(map[string]any)["lines"])
	assert.Equal(t, "bar-2", env["data"].(map[string]any)["register_id"])
}

func TestRouterUnknownProductIsNotFound(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.do(http.MethodPost, "/api/v1/registers/bar-1/cart/items", `{"product_id":"`+uuid.NewString()+`"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
