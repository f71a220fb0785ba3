package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Description  string
	Price        decimal.Decimal
	CountInStock int
	Images       []string
	Category     string
	IsFeatured   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify derives the URL slug from a product name: lowercase, spaces to
// hyphens, everything else dropped.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	return slugStrip.ReplaceAllString(s, "")
}

func NewProduct(name, description string, price decimal.Decimal, stock int, images []string, category string, featured bool) Product {
	now := time.Now().UTC()
	return Product{
		ID:           uuid.New(),
		Name:         name,
		Slug:         Slugify(name),
		Description:  description,
		Price:        price,
		CountInStock: stock,
		Images:       images,
		Category:     category,
		IsFeatured:   featured,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return ErrNameRequired
	case p.Price.IsNegative():
		return ErrNegativePrice
	case p.CountInStock < 0:
		return ErrNegativeStock
	}
	return nil
}
