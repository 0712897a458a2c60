package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

const namespace = "checkout"

// Metrics owns the service's collectors and the registry that exposes them
type Metrics struct {
	registry *prometheus.Registry

	couponValidations *prometheus.CounterVec
	couponRedemptions *prometheus.CounterVec
	ordersPlaced      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// New creates and registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		couponValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_validations_total",
			Help:      "Coupon validations by outcome.",
		}, []string{"outcome"}),
		couponRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_total",
			Help:      "Committed coupon redemptions by code.",
		}, []string{"code"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed by payment method.",
		}, []string{"payment_method"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.couponValidations,
		m.couponRedemptions,
		m.ordersPlaced,
		m.requestDuration,
	)
	return m
}

// CouponValidated counts a validation. An empty reason counts as "accepted".
func (m *Metrics) CouponValidated(reason discount.Reason) {
	outcome := string(reason)
	if reason == discount.ReasonNone {
		outcome = "accepted"
	}
	m.couponValidations.WithLabelValues(outcome).Inc()
}

// CouponRedeemed counts a committed redemption
func (m *Metrics) CouponRedeemed(code string) {
	m.couponRedemptions.WithLabelValues(code).Inc()
}

// OrderPlaced counts a placed order
func (m *Metrics) OrderPlaced(paymentMethod string) {
	m.ordersPlaced.WithLabelValues(paymentMethod).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware observes request latency labelled by the matched chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
