package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storeflow/storefront/internal/cart/application"
	"github.com/storeflow/storefront/internal/cart/domain"
	"github.com/storeflow/storefront/pkg/apperr"
	"github.com/storeflow/storefront/pkg/identity"
	"github.com/storeflow/storefront/pkg/web"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.get)
	r.Post("/", h.setItem)
	r.Put("/{productId}", h.updateQuantity)
	r.Delete("/{productId}", h.removeItem)
	r.Delete("/", h.clear)
	return r
}

type itemReq struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type cartResp struct {
	UserID    uuid.UUID  `json:"userId"`
	Items     []itemResp `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type itemResp struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

func toResp(c domain.Cart) cartResp {
	items := make([]itemResp, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, itemResp{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return cartResp{UserID: c.UserID, Items: items, UpdatedAt: c.UpdatedAt}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	c, err := h.service.Get(r.Context(), caller.UserID)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(c))
}

func (h *Handler) setItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	var req itemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid body"))
		return
	}
	c, err := h.service.SetItem(r.Context(), caller.UserID, req.ProductID, req.Quantity)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(c))
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid product id"))
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid body"))
		return
	}
	c, err := h.service.UpdateQuantity(r.Context(), caller.UserID, productID, req.Quantity)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(c))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid product id"))
		return
	}
	c, err := h.service.RemoveItem(r.Context(), caller.UserID, productID)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(c))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	if err := h.service.Clear(r.Context(), caller.UserID); err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
