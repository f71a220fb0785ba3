package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/storeflow/storefront/internal/fulfillment/application"
	"github.com/storeflow/storefront/internal/fulfillment/domain"
	"github.com/storeflow/storefront/pkg/apperr"
	"github.com/storeflow/storefront/pkg/identity"
	"github.com/storeflow/storefront/pkg/web"
)

const idempotencyHeader = "Idempotency-Key"

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("fulfillment-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.placeOrder)
	r.Get("/", h.listAll)
	r.Get("/myorders", h.listMine)
	r.Get("/{id}", h.getOrder)
	r.Put("/{id}/pay", h.markPaid)
	r.Put("/{id}/deliver", h.markDelivered)
	r.Put("/{id}/status", h.setStatus)
	return r
}

// PaymentRoutes exposes the gateway pass-through endpoints.
func (h *Handler) PaymentRoutes() http.Handler {
	r := chi.NewRouter()
	r.Post("/paypal/{id}", h.initiatePayment)
	r.Post("/paypal/{id}/capture", h.capturePayment)
	return r
}

type placeOrderReq struct {
	Items           []itemReq      `json:"orderItems"`
	ShippingAddress domain.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`

	// Price fields arrive flattened, matching the storefront client.
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

type itemReq struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type orderResp struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"userId"`
	Items           []domain.LineItem     `json:"orderItems"`
	ShippingAddress domain.Address        `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod  `json:"paymentMethod"`
	domain.Breakdown
	Status        domain.Status         `json:"status"`
	PaymentResult *domain.PaymentResult `json:"paymentResult,omitempty"`
	IsPaid        bool                  `json:"isPaid"`
	PaidAt        *time.Time            `json:"paidAt,omitempty"`
	IsDelivered   bool                  `json:"isDelivered"`
	DeliveredAt   *time.Time            `json:"deliveredAt,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
}

func toResp(o domain.Order) orderResp {
	return orderResp{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           o.Items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Breakdown:       o.Breakdown,
		Status:          o.Status,
		PaymentResult:   o.PaymentResult,
		IsPaid:          o.IsPaid(),
		PaidAt:          o.PaidAt,
		IsDelivered:     o.IsDelivered(),
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
	}
}

func toRespList(orders []domain.Order) []orderResp {
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResp(o))
	}
	return out
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	caller, ok := identity.FromContext(ctx)
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}

	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid body"))
		return
	}
	breakdown := domain.Breakdown{
		ItemsPrice:    req.ItemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
	}

	items := make([]application.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, application.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.service.PlaceOrder(ctx, caller, application.PlaceOrderInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		Breakdown:       breakdown,
		IdempotencyKey:  r.Header.Get(idempotencyHeader),
	})
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, toResp(o))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	orders, err := h.service.ListMine(r.Context(), caller)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toRespList(orders))
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	orders, err := h.service.ListAll(r.Context(), caller)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toRespList(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid order id"))
		return
	}
	o, err := h.service.GetOrder(r.Context(), caller, id)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(o))
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MarkPaid")
	defer span.End()

	caller, ok := identity.FromContext(ctx)
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid order id"))
		return
	}
	var result domain.PaymentResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid body"))
		return
	}
	o, err := h.service.MarkPaid(ctx, caller, id, result)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(o))
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MarkDelivered")
	defer span.End()

	caller, ok := identity.FromContext(ctx)
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid order id"))
		return
	}
	o, err := h.service.MarkDelivered(ctx, caller, id)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(o))
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetStatus")
	defer span.End()

	caller, ok := identity.FromContext(ctx)
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid order id"))
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid body"))
		return
	}
	o, err := h.service.SetStatus(ctx, caller, id, domain.Status(req.Status))
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(o))
}

func (h *Handler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "InitiateGatewayPayment")
	defer span.End()

	caller, ok := identity.FromContext(ctx)
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid order id"))
		return
	}
	charge, err := h.service.InitiateGatewayPayment(ctx, caller, orderID)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, charge)
}

func (h *Handler) capturePayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CaptureGatewayPayment")
	defer span.End()

	if _, ok := identity.FromContext(ctx); !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	result, err := h.service.CaptureGatewayPayment(ctx, chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, result)
}
