package product

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/product"
	"github.com/mohammadpnp/catalog-import/internal/domain/webhook"
)

type CreateProductInput struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Active      *bool    `json:"active"`
}

type CreateProduct interface {
	Execute(ctx context.Context, in CreateProductInput) (ProductOutput, error)
}

type productCreator interface {
	Create(ctx context.Context, record domain.Record) (*domain.Product, error)
}

type EventDispatcher interface {
	DispatchAsync(ctx context.Context, event string, data map[string]any)
}

type createProduct struct {
	repo       productCreator
	dispatcher EventDispatcher
}

func NewCreateProduct(repo productCreator, dispatcher EventDispatcher) CreateProduct {
	return &createProduct{repo: repo, dispatcher: dispatcher}
}

func (uc *createProduct) Execute(ctx context.Context, in CreateProductInput) (ProductOutput, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	record, err := domain.NewRecord(in.SKU, in.Name, in.Description, in.Price, active)
	if err != nil {
		return ProductOutput{}, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}

	created, err := uc.repo.Create(ctx, record)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return ProductOutput{}, ErrProductConflict
		}
		return ProductOutput{}, fmt.Errorf("%w: %v", ErrCreateProduct, err)
	}

	out := toOutput(*created)
	if uc.dispatcher != nil {
		uc.dispatcher.DispatchAsync(ctx, webhook.EventProductCreated, map[string]any{
			"id":     out.ID,
			"sku":    out.SKU,
			"name":   out.Name,
			"price":  out.Price,
			"active": out.Active,
		})
	}
	return out, nil
}
