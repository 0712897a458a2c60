package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/heritage-handlooms/checkout-api/internal/config"
	"github.com/heritage-handlooms/checkout-api/internal/coupon"
	"github.com/heritage-handlooms/checkout-api/internal/discount"
	"github.com/heritage-handlooms/checkout-api/internal/metrics"
	"github.com/heritage-handlooms/checkout-api/internal/repository"
	"github.com/heritage-handlooms/checkout-api/internal/service"
	"github.com/heritage-handlooms/checkout-api/pkg/logger"
)

const testAPIKey = "apitest"

type testServer struct {
	handler http.Handler
	store   *coupon.MemoryStore
}

func intPtr(n int) *int { return &n }

// newTestServer wires the full API over in-memory storage. Coupon windows are
// relative to the wall clock because the services run on time.Now.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.New("error")
	m := metrics.New()
	store := coupon.NewMemoryStore(0)
	registry := coupon.NewRegistry(store)

	now := time.Now().UTC()
	live := func(in coupon.Input) coupon.Input {
		in.ValidFrom = now.Add(-24 * time.Hour)
		in.ValidUntil = now.Add(30 * 24 * time.Hour)
		in.IsActive = true
		return in
	}
	expired := coupon.Input{Code: "OLDCODE", Type: discount.TypePercentage, DiscountValue: decimal.NewFromInt(10),
		ValidFrom: now.Add(-60 * 24 * time.Hour), ValidUntil: now.Add(-30 * 24 * time.Hour), IsActive: true}

	inputs := []coupon.Input{
		live(coupon.Input{Code: "WELCOME20", Type: discount.TypePercentage, DiscountValue: decimal.NewFromInt(20),
			MaxDiscount: decimal.NewNullDecimal(decimal.NewFromInt(500)), MinOrderAmount: decimal.NewFromInt(1000),
			UsageLimit: intPtr(100), FirstTimeOnly: true}),
		live(coupon.Input{Code: "SAVE500", Type: discount.TypeFixed, DiscountValue: decimal.NewFromInt(500),
			MinOrderAmount: decimal.NewFromInt(2500), UsageLimit: intPtr(50)}),
		live(coupon.Input{Code: "FREESHIP", Type: discount.TypeFreeShipping, MinOrderAmount: decimal.NewFromInt(1500)}),
		live(coupon.Input{Code: "LASTONE", Type: discount.TypeFixed, DiscountValue: decimal.NewFromInt(100), UsageLimit: intPtr(1)}),
		expired,
	}
	for _, in := range inputs {
		if _, err := registry.Create(context.Background(), in); err != nil {
			t.Fatalf("failed to seed %s: %v", in.Code, err)
		}
	}

	products := repository.NewInMemoryProductRepository()
	orders := service.NewOrderService(products, repository.NewInMemoryOrderRepository(),
		coupon.NewValidator(store, m), discount.DefaultPricing(), log).WithRecorder(m)
	carts := service.NewCartService(repository.NewInMemoryCartRepository(), products, orders, log)

	routes := Routes{
		Health:   NewHealthHandler(log, "test", nil),
		Products: NewProductHandler(service.NewProductService(products), log),
		Coupons:  NewCouponHandler(orders, log),
		Orders:   NewOrderHandler(orders, log),
		Carts:    NewCartHandler(carts, log),
		Admin:    NewAdminCouponHandler(registry, log),
	}
	auth := config.AuthConfig{APIKeys: []string{testAPIKey}}

	return &testServer{handler: NewRouter(routes, auth, m, log), store: store}
}

// do sends a request. A string body is sent verbatim, anything else as JSON.
func (s *testServer) do(t *testing.T, method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		var err error
		if payload, err = json.Marshal(b); err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) usedCount(t *testing.T, code string) int {
	t.Helper()
	c, err := s.store.Get(context.Background(), code)
	if err != nil {
		t.Fatalf("coupon %s: %v", code, err)
	}
	return c.UsedCount
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}

func assertAmount(t *testing.T, field, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}
