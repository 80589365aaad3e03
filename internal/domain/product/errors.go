package product

import "errors"

var (
	ErrMissingSKU      = errors.New("missing sku")
	ErrMissingName     = errors.New("missing name")
	ErrSKUTooLong      = errors.New("sku too long after normalization")
	ErrPriceOutOfRange = errors.New("price out of range")
	ErrMissingColumn   = errors.New("missing required column")
	ErrConflict        = errors.New("product with the same sku already exists")
	ErrNotFound        = errors.New("product not found")
)
