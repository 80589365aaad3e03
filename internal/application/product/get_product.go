package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/product"
)

type GetProductInput struct {
	ID string
}

type GetProduct interface {
	Execute(ctx context.Context, in GetProductInput) (ProductOutput, error)
}

type productReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type getProduct struct {
	repo productReader
}

func NewGetProduct(repo productReader) GetProduct {
	return &getProduct{repo: repo}
}

func (uc *getProduct) Execute(ctx context.Context, in GetProductInput) (ProductOutput, error) {
	id, err := strconv.ParseInt(in.ID, 10, 64)
	if err != nil || id <= 0 {
		return ProductOutput{}, ErrInvalidProductID
	}

	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ProductOutput{}, ErrProductNotFound
		}
		return ProductOutput{}, fmt.Errorf("%w: %v", ErrGetProduct, err)
	}

	return toOutput(*p), nil
}
