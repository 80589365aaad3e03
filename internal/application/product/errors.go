package product

import "errors"

var (
	ErrInvalidProduct   = errors.New("invalid product")
	ErrProductConflict  = errors.New("product with the same sku already exists")
	ErrCreateProduct    = errors.New("failed to create product")
	ErrInvalidProductID = errors.New("invalid product id")
	ErrProductNotFound  = errors.New("product not found")
	ErrGetProduct       = errors.New("failed to get product")
)
