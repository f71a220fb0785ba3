package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/storeflow/storefront/internal/catalog/domain"
	"github.com/storeflow/storefront/internal/fulfillment/application"
	"github.com/storeflow/storefront/internal/fulfillment/domain"
	"github.com/storeflow/storefront/internal/fulfillment/infrastructure/memory"
	"github.com/storeflow/storefront/pkg/apperr"
	"github.com/storeflow/storefront/pkg/identity"
)

type stubGateway struct {
	charge     application.Charge
	result     domain.PaymentResult
	createErr  error
	captureErr error
}

func (g *stubGateway) CreateCharge(_ context.Context, _ decimal.Decimal, _ string) (application.Charge, error) {
	return g.charge, g.createErr
}

func (g *stubGateway) CaptureCharge(_ context.Context, _ string) (domain.PaymentResult, error) {
	return g.result, g.captureErr
}

type fixture struct {
	repo    *memory.Repository
	gateway *stubGateway
	server  http.Handler
	user    uuid.UUID
	admin   uuid.UUID
	product catalogdomain.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.NewRepository()
	product := catalogdomain.NewProduct("Desk Lamp", "warm light", decimal.NewFromInt(30), 10, nil, "home", false)
	repo.SeedProduct(product)

	gateway := &stubGateway{
		charge: application.Charge{ID: "CH-1", ApprovalURL: "https://pay.example/approve/CH-1"},
		result: domain.PaymentResult{TransactionID: "TX-1", Status: "COMPLETED"},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := application.NewService(log, repo, repo, gateway, memory.NewIdemStore(), "USD")
	h := NewHandler(log, service)

	r := chi.NewRouter()
	r.Use(identity.Middleware)
	r.Mount("/orders", h.Routes())
	r.Mount("/payments", h.PaymentRoutes())

	return &fixture{
		repo:    repo,
		gateway: gateway,
		server:  r,
		user:    uuid.New(),
		admin:   uuid.New(),
		product: product,
	}
}

func (f *fixture) do(t *testing.T, method, path string, as uuid.UUID, admin bool, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(identity.HeaderUserID, as.String())
	if admin {
		req.Header.Set(identity.HeaderAdmin, "true")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) placeReq(quantity int) map[string]any {
	items := []domain.LineItem{{ProductID: f.product.ID, UnitPrice: f.product.Price, Quantity: quantity}}
	b := domain.ComputeBreakdown(items)
	return map[string]any{
		"orderItems": []map[string]any{
			{"productId": f.product.ID, "quantity": quantity},
		},
		"shippingAddress": map[string]string{
			"address": "1 Main St", "city": "Springfield", "postalCode": "12345", "country": "US",
		},
		"paymentMethod": "PayPal",
		"itemsPrice":    b.ItemsPrice,
		"taxPrice":      b.TaxPrice,
		"shippingPrice": b.ShippingPrice,
		"totalPrice":    b.TotalPrice,
	}
}

func (f *fixture) placeOrder(t *testing.T) orderResp {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/orders/", f.user, false, f.placeReq(1), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp orderResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Kind
}

func TestPlaceOrderEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/orders/", f.user, false, f.placeReq(2), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp orderResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, f.user, resp.UserID)
	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.False(t, resp.IsPaid)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Desk Lamp", resp.Items[0].Name)

	p, ok := f.repo.Product(f.product.ID)
	require.True(t, ok)
	assert.Equal(t, 8, p.CountInStock)
}

func TestPlaceOrderRejectsMissingIdentity(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/orders/", nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceOrderRejectsStalePrices(t *testing.T) {
	f := newFixture(t)

	body := f.placeReq(1)
	body["totalPrice"] = decimal.NewFromInt(1)
	rec := f.do(t, http.MethodPost, "/orders/", f.user, false, body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperr.KindValidation), errorKind(t, rec))
}

func TestPlaceOrderInsufficientStockConflicts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/orders/", f.user, false, f.placeReq(11), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(apperr.KindInsufficientStock), errorKind(t, rec))
}

func TestPlaceOrderDuplicateIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	headers := map[string]string{idempotencyHeader: "checkout-42"}

	rec := f.do(t, http.MethodPost, "/orders/", f.user, false, f.placeReq(1), headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/orders/", f.user, false, f.placeReq(1), headers)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(apperr.KindConflict), errorKind(t, rec))
}

func TestGetOrderAuthz(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	rec := f.do(t, http.MethodGet, "/orders/"+placed.ID.String(), f.user, false, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/orders/"+placed.ID.String(), uuid.New(), false, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/orders/"+placed.ID.String(), f.admin, true, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/orders/"+uuid.NewString(), f.user, false, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/orders/not-a-uuid", f.user, false, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEndpoints(t *testing.T) {
	f := newFixture(t)
	f.placeOrder(t)

	rec := f.do(t, http.MethodGet, "/orders/myorders", f.user, false, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []orderResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	rec = f.do(t, http.MethodGet, "/orders/", f.user, false, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/orders/", f.admin, true, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []orderResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestMarkPaidEndpoint(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)
	result := domain.PaymentResult{TransactionID: "TX-9", Status: "COMPLETED", PayerEmail: "buyer@example.com"}

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/orders/%s/pay", placed.ID), f.user, false, result, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp orderResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsPaid)
	require.NotNil(t, resp.PaymentResult)
	assert.Equal(t, "TX-9", resp.PaymentResult.TransactionID)

	// Repeating the call is a no-op, not an error.
	rec = f.do(t, http.MethodPut, fmt.Sprintf("/orders/%s/pay", placed.ID), f.user, false, result, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMarkDeliveredRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/orders/%s/deliver", placed.ID), f.user, false, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/orders/%s/deliver", placed.ID), f.admin, true, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp orderResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsDelivered)
	assert.Equal(t, domain.StatusDelivered, resp.Status)
}

func TestSetStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)
	path := fmt.Sprintf("/orders/%s/status", placed.ID)

	rec := f.do(t, http.MethodPut, path, f.admin, true, map[string]string{"status": "Shipped"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Backward move is an illegal edge.
	rec = f.do(t, http.MethodPut, path, f.admin, true, map[string]string{"status": "Processing"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(apperr.KindInvalidTransition), errorKind(t, rec))
}

func TestInitiatePaymentEndpoint(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)

	rec := f.do(t, http.MethodPost, "/payments/paypal/"+placed.ID.String(), f.user, false, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var charge application.Charge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &charge))
	assert.Equal(t, "CH-1", charge.ID)
	assert.NotEmpty(t, charge.ApprovalURL)
}

func TestInitiatePaymentGatewayFailure(t *testing.T) {
	f := newFixture(t)
	placed := f.placeOrder(t)
	f.gateway.createErr = apperr.Gateway(fmt.Errorf("503 from processor"), true, "gateway unavailable")

	rec := f.do(t, http.MethodPost, "/payments/paypal/"+placed.ID.String(), f.user, false, nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(apperr.KindGateway), errorKind(t, rec))
}

func TestCapturePaymentEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/payments/paypal/CH-1/capture", f.user, false, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.PaymentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "TX-1", result.TransactionID)
}
