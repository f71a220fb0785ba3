package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Ceramic Mug":            "ceramic-mug",
		"  Mechanical Keyboard ": "mechanical-keyboard",
		"USB-C Cable (2m)":       "usb-c-cable-2m",
		"Café Brûlée":            "caf-brle",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNewProductDerivesSlug(t *testing.T) {
	p := NewProduct("Ceramic Mug", "a mug", decimal.NewFromInt(12), 3, nil, "kitchen", true)
	assert.Equal(t, "ceramic-mug", p.Slug)
	assert.NotEqual(t, p.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestProductValidate(t *testing.T) {
	p := NewProduct("Mug", "", decimal.NewFromInt(12), 3, nil, "kitchen", false)
	assert.NoError(t, p.Validate())

	noName := p
	noName.Name = "  "
	assert.ErrorIs(t, noName.Validate(), ErrNameRequired)

	badPrice := p
	badPrice.Price = decimal.NewFromInt(-1)
	assert.ErrorIs(t, badPrice.Validate(), ErrNegativePrice)

	badStock := p
	badStock.CountInStock = -1
	assert.ErrorIs(t, badStock.Validate(), ErrNegativeStock)
}
