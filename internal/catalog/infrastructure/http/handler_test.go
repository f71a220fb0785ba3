package http

import (
	"bytes"
	"context"
	"encoding/json"
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

	"github.com/storeflow/storefront/internal/catalog/application"
	"github.com/storeflow/storefront/internal/catalog/domain"
	"github.com/storeflow/storefront/pkg/apperr"
	"github.com/storeflow/storefront/pkg/identity"
)

type fakeRepo struct {
	byID map[uuid.UUID]domain.Product
}

func (r *fakeRepo) Create(_ context.Context, p domain.Product) error {
	r.byID[p.ID] = p
	return nil
}

func (r *fakeRepo) Update(_ context.Context, p domain.Product) error {
	if _, ok := r.byID[p.ID]; !ok {
		return apperr.NotFound("product not found")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return apperr.NotFound("product not found")
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (domain.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return domain.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

func (r *fakeRepo) GetBySlug(_ context.Context, slug string) (domain.Product, error) {
	for _, p := range r.byID {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, apperr.NotFound("product not found")
}

func (r *fakeRepo) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	out := make(map[uuid.UUID]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeRepo) List(_ context.Context, _ application.Filter) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func newServer(seed ...domain.Product) http.Handler {
	repo := &fakeRepo{byID: map[uuid.UUID]domain.Product{}}
	for _, p := range seed {
		repo.byID[p.ID] = p
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(identity.Middleware)
	r.Mount("/products", NewHandler(log, application.NewService(repo)).Routes())
	return r
}

func TestGetProductResponseShape(t *testing.T) {
	p := domain.NewProduct("Desk Lamp", "warm light", decimal.NewFromInt(30), 10, []string{"lamp.jpg"}, "home", true)
	server := newServer(p)

	req := httptest.NewRequest(http.MethodGet, "/products/"+p.ID.String(), nil)
	req.Header.Set(identity.HeaderUserID, uuid.NewString())
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The wire format is camelCase like the rest of the API.
	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, key := range []string{"id", "name", "slug", "price", "countInStock", "images", "category", "isFeatured", "createdAt"} {
		assert.Contains(t, resp, key)
	}
	assert.NotContains(t, resp, "CountInStock")
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	server := newServer()
	body, _ := json.Marshal(map[string]any{"name": "Desk Lamp", "price": "30", "countInStock": 10})

	req := httptest.NewRequest(http.MethodPost, "/products/", bytes.NewReader(body))
	req.Header.Set(identity.HeaderUserID, uuid.NewString())
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/products/", bytes.NewReader(body))
	req.Header.Set(identity.HeaderUserID, uuid.NewString())
	req.Header.Set(identity.HeaderAdmin, "true")
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "desk-lamp", resp.Slug)
}
