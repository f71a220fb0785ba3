package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storeflow/storefront/internal/notification/application"
	"github.com/storeflow/storefront/internal/notification/domain"
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
	r.Patch("/{id}/read", h.markRead)
	return r
}

type notificationResp struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	OrderID   uuid.UUID `json:"orderId"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResp(n domain.Notification) notificationResp {
	return notificationResp{
		ID:        n.ID,
		UserID:    n.UserID,
		OrderID:   n.OrderID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func toRespList(notifications []domain.Notification) []notificationResp {
	out := make([]notificationResp, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, toResp(n))
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	notifications, err := h.service.ListForUser(r.Context(), caller)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toRespList(notifications))
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		web.WriteError(w, h.log, apperr.Forbidden("identity required"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.WriteError(w, h.log, apperr.Validation("invalid notification id"))
		return
	}
	n, err := h.service.MarkRead(r.Context(), caller, id)
	if err != nil {
		web.WriteError(w, h.log, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toResp(n))
}
