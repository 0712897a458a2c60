package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

func TestMetrics_CouponCounters(t *testing.T) {
	m := New()

	m.CouponValidated(discount.ReasonNone)
	m.CouponValidated(discount.ReasonNone)
	m.CouponValidated(discount.ReasonUsageExhausted)
	m.CouponRedeemed("SAVE500")
	m.OrderPlaced("upi")

	if got := testutil.ToFloat64(m.couponValidations.WithLabelValues("accepted")); got != 2 {
		t.Errorf("accepted validations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.couponValidations.WithLabelValues("usage_exhausted")); got != 1 {
		t.Errorf("exhausted validations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.couponRedemptions.WithLabelValues("SAVE500")); got != 1 {
		t.Errorf("redemptions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ordersPlaced.WithLabelValues("upi")); got != 1 {
		t.Errorf("orders = %v, want 1", got)
	}
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/product/{productId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	req := httptest.NewRequest(http.MethodGet, "/api/product/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	if n := testutil.CollectAndCount(m.requestDuration); n != 1 {
		t.Errorf("expected 1 observed series, got %d", n)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Body)
	want := `checkout_http_request_duration_seconds_count{method="GET",route="/api/product/{productId}",status="404"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics output missing %q", want)
	}
}
