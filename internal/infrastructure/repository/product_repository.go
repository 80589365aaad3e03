package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/product"
	"github.com/mohammadpnp/catalog-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts one product. A second product with the same normalized
// sku is rejected by the unique index and reported as ErrConflict.
func (r *ProductRepository) Create(ctx context.Context, record domain.Record) (*domain.Product, error) {
	row := models.Product{
		SKU:         record.SKU,
		SKUCI:       record.Identity,
		Name:        record.Name,
		Description: nullableText(record.Description),
		Price:       record.Price,
		Active:      record.Active,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	p := toDomainProduct(row)
	return &p, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	p := toDomainProduct(row)
	return &p, nil
}

func (r *ProductRepository) GetByIdentity(ctx context.Context, identity string) (*domain.Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).First(&row, "sku_ci = ?", identity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product by sku: %w", err)
	}

	p := toDomainProduct(row)
	return &p, nil
}

func toDomainProduct(row models.Product) domain.Product {
	p := domain.Product{
		ID:        row.ID,
		SKU:       row.SKU,
		Identity:  row.SKUCI,
		Name:      row.Name,
		Price:     row.Price,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Description != nil {
		p.Description = *row.Description
	}
	return p
}
