package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the per-user staging area for a checkout. Items are unique by
// product; setting an existing product overwrites its quantity.
type Cart struct {
	UserID    uuid.UUID
	Items     []Item
	UpdatedAt time.Time
}

type Item struct {
	ProductID uuid.UUID
	Quantity  int
}

func (c *Cart) Set(productID uuid.UUID, quantity int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
}

func (c *Cart) Remove(productID uuid.UUID) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Find(productID uuid.UUID) (Item, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return Item{}, false
}
