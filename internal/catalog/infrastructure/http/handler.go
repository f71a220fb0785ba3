package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storeflow/storefront/internal/catalog/application"
	"github.com/storeflow/storefront/internal/catalog/domain"
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
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/slug/{slug}", h.getBySlug)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

type productReq struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CountInStock int             `json:"countInStock"`
	Images       []string        `json:"images"`
	Category     string          `json:"category"`
	IsFeatured   bool            `json:"isFeatured"`
}

type productResp struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CountInStock int             `json:"countInStock"`
	Images       []string        `json:"images"`
	Category     string          `json:"category"`
	IsFeatured   bool            `json:"isFeatured"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func toResp(p domain.Product) productResp {
	return productResp{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price,
		CountInStock: p.CountInStock,
		Images:       p.Images,
		Category:     p.Category,
		IsFeatured:   p.IsFeatured,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toRespList(products []domain.Product) []productResp {
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toResp(p))
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := application.Filter{
		Category: r.URL.Query().Get("category"),
		Featured: r.URL.Query().Get("featured") == "true",
	}
	products, err := h.service.List(r.Context(), f)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toRespList(products))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid product id"))
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(p))
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(p))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid body"))
		return
	}
	p, err := h.service.Create(r.Context(), caller, application.ProductInput(req))
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, toResp(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid product id"))
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid body"))
		return
	}
	p, err := h.service.Update(r.Context(), caller, id, application.ProductInput(req))
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid product id"))
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
