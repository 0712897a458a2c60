package handlers

import (
	"net/http"
	"sync"
	"testing"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
	"github.com/heritage-handlooms/checkout-api/internal/models"
	"github.com/heritage-handlooms/checkout-api/internal/service"
)

func TestOrderHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(*testing.T, *models.Order)
	}{
		{
			name: "order without coupon",
			requestBody: models.OrderRequest{
				PaymentMethod: models.PaymentUPI,
				Items:         []models.OrderItem{{ProductID: "1", Quantity: 2}},
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, order *models.Order) {
				if order.ID == "" {
					t.Error("order ID is empty")
				}
				assertAmount(t, "subtotal", "4998", order.Pricing.Subtotal)
				assertAmount(t, "shipping", "0", order.Pricing.ShippingFee)
				assertAmount(t, "tax", "899.64", order.Pricing.Tax)
				assertAmount(t, "total", "5897.64", order.Pricing.Total)
				if order.PaymentStatus != "completed" {
					t.Errorf("payment status = %s, want completed", order.PaymentStatus)
				}
			},
		},
		{
			name: "percentage coupon below the free shipping threshold",
			requestBody: models.OrderRequest{
				CouponCode:    "welcome20",
				PaymentMethod: models.PaymentCOD,
				Items:         []models.OrderItem{{ProductID: "5", Quantity: 1}},
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, order *models.Order) {
				if order.CouponCode != "WELCOME20" {
					t.Errorf("coupon = %q, want WELCOME20", order.CouponCode)
				}
				assertAmount(t, "discount", "259.8", order.Pricing.Discount)
				assertAmount(t, "shipping", "150", order.Pricing.ShippingFee)
				assertAmount(t, "tax", "214.06", order.Pricing.Tax)
				assertAmount(t, "total", "1403.26", order.Pricing.Total)
				if order.PaymentStatus != "pending" {
					t.Errorf("payment status = %s, want pending", order.PaymentStatus)
				}
			},
		},
		{
			name: "free shipping coupon",
			requestBody: models.OrderRequest{
				CouponCode:    "FREESHIP",
				PaymentMethod: models.PaymentCard,
				Items:         []models.OrderItem{{ProductID: "6", Quantity: 1}},
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, order *models.Order) {
				assertAmount(t, "shipping", "0", order.Pricing.ShippingFee)
				assertAmount(t, "tax", "341.82", order.Pricing.Tax)
				assertAmount(t, "total", "2240.82", order.Pricing.Total)
				if !order.Pricing.FreeShipping {
					t.Error("expected freeShipping = true")
				}
			},
		},
		{
			name:           "empty order",
			requestBody:    models.OrderRequest{PaymentMethod: models.PaymentUPI, Items: []models.OrderItem{}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid quantity",
			requestBody: models.OrderRequest{
				PaymentMethod: models.PaymentUPI,
				Items:         []models.OrderItem{{ProductID: "1", Quantity: 0}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "quantity above the line maximum",
			requestBody: models.OrderRequest{
				PaymentMethod: models.PaymentUPI,
				Items:         []models.OrderItem{{ProductID: "1", Quantity: models.MaxLineQuantity + 1}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid product",
			requestBody: models.OrderRequest{
				PaymentMethod: models.PaymentUPI,
				Items:         []models.OrderItem{{ProductID: "99999", Quantity: 1}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown payment method",
			requestBody: models.OrderRequest{
				PaymentMethod: "barter",
				Items:         []models.OrderItem{{ProductID: "1", Quantity: 1}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown coupon",
			requestBody: models.OrderRequest{
				CouponCode:    "NOPE",
				PaymentMethod: models.PaymentUPI,
				Items:         []models.OrderItem{{ProductID: "1", Quantity: 1}},
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "coupon minimum not met",
			requestBody: models.OrderRequest{
				CouponCode:    "SAVE500",
				PaymentMethod: models.PaymentUPI,
				Items:         []models.OrderItem{{ProductID: "2", Quantity: 1}},
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown field",
			requestBody:    `{"items":[{"productId":"1","quantity":1}],"paymentMethod":"upi","discount":100}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			w := s.do(t, http.MethodPost, "/api/order", tt.requestBody)
			assertStatus(t, w, tt.expectedStatus)

			if tt.checkResponse != nil {
				var order models.Order
				decode(t, w, &order)
				tt.checkResponse(t, &order)
			}
		})
	}
}

func TestOrderHandler_CreateOrderCommitsRedemption(t *testing.T) {
	s := newTestServer(t)

	req := models.OrderRequest{
		CouponCode:    "SAVE500",
		PaymentMethod: models.PaymentNetbanking,
		Items:         []models.OrderItem{{ProductID: "3", Quantity: 1}},
	}
	w := s.do(t, http.MethodPost, "/api/order", req)
	assertStatus(t, w, http.StatusOK)

	var order models.Order
	decode(t, w, &order)
	if got := s.usedCount(t, "SAVE500"); got != 1 {
		t.Errorf("used count = %d, want 1", got)
	}

	w = s.do(t, http.MethodGet, "/api/order/"+order.ID, nil)
	assertStatus(t, w, http.StatusOK)

	var fetched models.Order
	decode(t, w, &fetched)
	if fetched.ID != order.ID || !fetched.Pricing.Total.Equal(order.Pricing.Total) {
		t.Errorf("fetched order %+v does not match %+v", fetched, order)
	}

	assertStatus(t, s.do(t, http.MethodGet, "/api/order/does-not-exist", nil), http.StatusNotFound)
}

func TestOrderHandler_UsageLimitUnderConcurrency(t *testing.T) {
	s := newTestServer(t)

	req := models.OrderRequest{
		CouponCode:    "LASTONE",
		PaymentMethod: models.PaymentUPI,
		Items:         []models.OrderItem{{ProductID: "2", Quantity: 1}},
	}

	const attempts = 10
	statuses := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses <- s.do(t, http.MethodPost, "/api/order", req).Code
		}()
	}
	wg.Wait()
	close(statuses)

	counts := make(map[int]int)
	for code := range statuses {
		counts[code]++
	}
	if counts[http.StatusOK] != 1 || counts[http.StatusUnprocessableEntity] != attempts-1 {
		t.Errorf("status counts = %v, want one 200 and %d 422", counts, attempts-1)
	}
	if got := s.usedCount(t, "LASTONE"); got != 1 {
		t.Errorf("used count = %d, want 1", got)
	}
}

func TestOrderHandler_Quote(t *testing.T) {
	s := newTestServer(t)

	req := models.OrderRequest{
		CouponCode: "SAVE500",
		Items:      []models.OrderItem{{ProductID: "3", Quantity: 1}},
	}
	w := s.do(t, http.MethodPost, "/api/quote", req)
	assertStatus(t, w, http.StatusOK)

	var priced service.PricedOrder
	decode(t, w, &priced)
	assertAmount(t, "discount", "500", priced.Pricing.Discount)
	assertAmount(t, "tax", "503.82", priced.Pricing.Tax)
	assertAmount(t, "total", "3302.82", priced.Pricing.Total)

	if got := s.usedCount(t, "SAVE500"); got != 0 {
		t.Errorf("quote must not redeem, used count = %d", got)
	}

	req.CouponCode = "OLDCODE"
	w = s.do(t, http.MethodPost, "/api/quote", req)
	assertStatus(t, w, http.StatusUnprocessableEntity)

	var rejection RejectionResponse
	decode(t, w, &rejection)
	if rejection.Reason != discount.ReasonDisabledOrExpired {
		t.Errorf("reason = %s, want %s", rejection.Reason, discount.ReasonDisabledOrExpired)
	}
}
