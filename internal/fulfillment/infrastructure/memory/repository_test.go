package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/storeflow/storefront/internal/catalog/domain"
	"github.com/storeflow/storefront/internal/fulfillment/domain"
	"github.com/storeflow/storefront/pkg/apperr"
)

func seededOrder(p catalogdomain.Product, qtys ...int) domain.Order {
	items := make([]domain.LineItem, 0, len(qtys))
	for _, q := range qtys {
		items = append(items, domain.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  q,
		})
	}
	address := domain.Address{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
	return domain.NewOrder(uuid.New(), items, address, domain.MethodCOD, domain.ComputeBreakdown(items))
}

func TestPlaceAccumulatesQuantitiesPerProduct(t *testing.T) {
	r := NewRepository()
	p := catalogdomain.NewProduct("Ceramic Mug", "a mug", decimal.NewFromInt(5), 5, nil, "kitchen", false)
	r.SeedProduct(p)

	// Two line items for one product must be reserved against a running
	// total, not each against the original stock.
	err := r.Place(context.Background(), seededOrder(p, 3, 3), "note", domain.EventOrderPlaced, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	stored, ok := r.Product(p.ID)
	require.True(t, ok)
	assert.Equal(t, 5, stored.CountInStock)
	assert.Empty(t, r.Events())
}

func TestPlaceWithinAccumulatedStock(t *testing.T) {
	r := NewRepository()
	p := catalogdomain.NewProduct("Ceramic Mug", "a mug", decimal.NewFromInt(5), 5, nil, "kitchen", false)
	r.SeedProduct(p)

	require.NoError(t, r.Place(context.Background(), seededOrder(p, 2, 3), "note", domain.EventOrderPlaced, nil))

	stored, _ := r.Product(p.ID)
	assert.Equal(t, 0, stored.CountInStock)
}
