package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/midlandoil/storefront/internal/catalog"
	"github.com/midlandoil/storefront/internal/checkout"
	"github.com/midlandoil/storefront/pkg/config"
	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
	"github.com/midlandoil/storefront/pkg/logger"
	"github.com/midlandoil/storefront/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubCatalog struct{}

func (stubCatalog) Sizes(_ context.Context, slug string) (*catalog.ProductSizes, error) {
	if slug != "engine-oil" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	sizes := catalog.ResolveSizes([]catalog.PackSizeOffer{{Label: "5L"}, {Label: "208L"}}, nil)
	return &catalog.ProductSizes{Slug: slug, Title: "Engine Oil", Sizes: sizes, SizeHint: catalog.SizeHint(sizes)}, nil
}

type noopSink struct{}

func (noopSink) Submit(context.Context, checkout.OrderRequest) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "test", Port: "0"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}},
		RateLimit: config.RateLimitConfig{
			Window:             time.Minute,
			SessionCreateLimit: 5,
			SubmitLimit:        5,
		},
	}
}

func newTestRouter(t *testing.T, dbPinger stubPinger) (http.Handler, *prometheus.Registry) {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	reg := prometheus.NewRegistry()
	svc, err := checkout.NewService(stubCatalog{}, checkout.NewMemoryStore(time.Hour), noopSink{}, logg, checkout.Options{
		Metrics: metrics.NewCheckoutMetrics(reg),
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	return NewRouter(Params{
		Config:   testConfig(),
		Logger:   logg,
		DB:       dbPinger,
		Catalog:  stubCatalog{},
		Checkout: svc,
		Metrics:  reg,
	}), reg
}

func TestHealthRoutes(t *testing.T) {
	h, _ := newTestRouter(t, stubPinger{})

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Storefront-Env") != "test" {
		t.Fatalf("missing env header")
	}

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestReadyFailsWhenDatabaseDown(t *testing.T) {
	h, _ := newTestRouter(t, stubPinger{err: context.DeadlineExceeded})

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestProductSizesRoute(t *testing.T) {
	h, _ := newTestRouter(t, stubPinger{})

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/engine-oil/sizes", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Sizes    []catalog.PackSizeOffer `json:"sizes"`
			SizeHint string                  `json:"sizeHint"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"1L", "5L", "20L", "25L", "200L", "205L", "208L", "1000L", "Bulk Tanker"}
	got := make([]string, 0, len(envelope.Data.Sizes))
	for _, size := range envelope.Data.Sizes {
		got = append(got, size.Label)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected sizes: %v", got)
	}
	if envelope.Data.SizeHint != "9 pack sizes: 1L to Bulk Tanker" {
		t.Fatalf("unexpected size hint %q", envelope.Data.SizeHint)
	}

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products/missing/sizes", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCheckoutRoutesWithoutRedis(t *testing.T) {
	h, _ := newTestRouter(t, stubPinger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", strings.NewReader(`{"productSlug":"engine-oil"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "create-1")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/checkout/sessions/"+envelope.Data.ID+"/selection/size", strings.NewReader(`{"label":"208L"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("choose size: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	h, _ := newTestRouter(t, stubPinger{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", strings.NewReader(`{"productSlug":"engine-oil"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "checkout_sessions_created_total") {
		t.Fatalf("expected checkout metrics in output")
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, stubPinger{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout/sessions", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
