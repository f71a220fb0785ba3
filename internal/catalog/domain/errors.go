package domain

import "github.com/storeflow/storefront/pkg/apperr"

var (
	ErrNameRequired  = apperr.Validation("product name is required")
	ErrNegativePrice = apperr.Validation("product price must not be negative")
	ErrNegativeStock = apperr.Validation("product stock must not be negative")
)
