// Package memory provides mutex-guarded in-memory implementations of the
// fulfillment ports with the same atomicity guarantees as the postgres
// adapter. Used by tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	catalogdomain "github.com/storeflow/storefront/internal/catalog/domain"
	"github.com/storeflow/storefront/internal/fulfillment/domain"
	notifdomain "github.com/storeflow/storefront/internal/notification/domain"
	"github.com/storeflow/storefront/pkg/apperr"
)

// Event mirrors the outbox row the postgres adapter would write.
type Event struct {
	OrderID uuid.UUID
	Type    string
	Payload []byte
}

type Repository struct {
	mu            sync.Mutex
	products      map[uuid.UUID]catalogdomain.Product
	orders        map[uuid.UUID]domain.Order
	notifications []notifdomain.Notification
	events        []Event
}

func NewRepository() *Repository {
	return &Repository{
		products: make(map[uuid.UUID]catalogdomain.Product),
		orders:   make(map[uuid.UUID]domain.Order),
	}
}

// SeedProduct installs or replaces a product.
func (r *Repository) SeedProduct(p catalogdomain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *Repository) Product(id uuid.UUID) (catalogdomain.Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	return p, ok
}

func (r *Repository) NotificationsFor(userID uuid.UUID) []notifdomain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notifdomain.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (r *Repository) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// GetMany implements the catalog reader port.
func (r *Repository) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]catalogdomain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]catalogdomain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *Repository) Place(_ context.Context, o domain.Order, note string, eventType string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate everything before mutating so a failure leaves no partial
	// state, matching the transactional adapter. Quantities accumulate per
	// product so repeated ids cannot overdraw stock.
	need := make(map[uuid.UUID]int, len(o.Items))
	for _, item := range o.Items {
		p, ok := r.products[item.ProductID]
		if !ok {
			return apperr.NotFound("product %s not found", item.ProductID)
		}
		need[item.ProductID] += item.Quantity
		if p.CountInStock < need[item.ProductID] {
			return apperr.InsufficientStock(p.Name, need[item.ProductID], p.CountInStock)
		}
		if !p.Price.Equal(item.UnitPrice) {
			return apperr.Validation("price of %s changed during checkout", p.Name)
		}
	}

	for _, item := range o.Items {
		p := r.products[item.ProductID]
		p.CountInStock -= item.Quantity
		r.products[item.ProductID] = p
	}
	r.orders[o.ID] = o
	r.notifications = append(r.notifications, notifdomain.New(o.UserID, o.ID, note))
	r.events = append(r.events, Event{OrderID: o.ID, Type: eventType, Payload: payload})
	return nil
}

func (r *Repository) Update(_ context.Context, o domain.Order, expectedVersion int64, note string, eventType string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[o.ID]
	if !ok {
		return apperr.NotFound("order not found")
	}
	if stored.Version != expectedVersion {
		return apperr.Conflict("order %s was modified concurrently", o.ID)
	}
	r.orders[o.ID] = o
	r.notifications = append(r.notifications, notifdomain.New(o.UserID, o.ID, note))
	r.events = append(r.events, Event{OrderID: o.ID, Type: eventType, Payload: payload})
	return nil
}

func (r *Repository) Get(_ context.Context, id uuid.UUID) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, apperr.NotFound("order not found")
	}
	return o, nil
}

func (r *Repository) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *Repository) ListAll(_ context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
