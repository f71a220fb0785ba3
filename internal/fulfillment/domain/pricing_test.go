package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeflow/storefront/pkg/apperr"
)

func lineItem(price float64, qty int) LineItem {
	return LineItem{
		ProductID: uuid.New(),
		Name:      "item",
		UnitPrice: decimal.NewFromFloat(price),
		Quantity:  qty,
	}
}

func TestComputeBreakdownWithShipping(t *testing.T) {
	// 2 x 30 = 60 items, 10% tax, flat shipping below the threshold.
	b := ComputeBreakdown([]LineItem{lineItem(30, 2)})

	assert.True(t, b.ItemsPrice.Equal(decimal.NewFromInt(60)), b.ItemsPrice)
	assert.True(t, b.TaxPrice.Equal(decimal.NewFromInt(6)), b.TaxPrice)
	assert.True(t, b.ShippingPrice.Equal(decimal.NewFromInt(15)), b.ShippingPrice)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(81)), b.TotalPrice)
}

func TestComputeBreakdownFreeShipping(t *testing.T) {
	b := ComputeBreakdown([]LineItem{lineItem(120, 1)})

	assert.True(t, b.ShippingPrice.IsZero(), b.ShippingPrice)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(132)), b.TotalPrice)
}

func TestComputeBreakdownAtThresholdChargesShipping(t *testing.T) {
	// Exactly 100 is not "above" the threshold.
	b := ComputeBreakdown([]LineItem{lineItem(100, 1)})
	assert.True(t, b.ShippingPrice.Equal(decimal.NewFromInt(15)))
}

func TestComputeBreakdownRoundsTax(t *testing.T) {
	// 3 x 19.99 = 59.97, tax 5.997 -> 6.00
	b := ComputeBreakdown([]LineItem{lineItem(19.99, 3)})
	assert.True(t, b.TaxPrice.Equal(decimal.NewFromFloat(6.00)), b.TaxPrice)
}

func TestBreakdownValidate(t *testing.T) {
	good := Breakdown{
		ItemsPrice:    decimal.NewFromInt(60),
		TaxPrice:      decimal.NewFromInt(6),
		ShippingPrice: decimal.NewFromInt(15),
		TotalPrice:    decimal.NewFromInt(81),
	}
	assert.NoError(t, good.Validate())

	bad := good
	bad.TotalPrice = decimal.NewFromInt(80)
	err := bad.Validate()
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	negative := good
	negative.TaxPrice = decimal.NewFromInt(-1)
	assert.Error(t, negative.Validate())
}

func TestBreakdownEqualIgnoresRepresentation(t *testing.T) {
	a := Breakdown{
		ItemsPrice:    decimal.RequireFromString("60"),
		TaxPrice:      decimal.RequireFromString("6.0"),
		ShippingPrice: decimal.RequireFromString("15.00"),
		TotalPrice:    decimal.RequireFromString("81"),
	}
	b := ComputeBreakdown([]LineItem{lineItem(30, 2)})
	assert.True(t, a.Equal(b))
}
