package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domain "github.com/mohammadpnp/catalog-import/internal/domain/product"
)

const createProductStagingSQL = `
CREATE TEMP TABLE stg_products (
    row_index BIGINT NOT NULL,
    sku TEXT NOT NULL,
    sku_ci TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    price DOUBLE PRECISION,
    active BOOLEAN NOT NULL
) ON COMMIT DROP
`

const upsertProductsSQL = `
INSERT INTO products (sku, sku_ci, name, description, price, active, created_at, updated_at)
SELECT sku, sku_ci, name, description, price::NUMERIC(12,2), active, NOW(), NOW()
FROM stg_products
ORDER BY sku_ci
ON CONFLICT (sku_ci) DO UPDATE
  SET sku = EXCLUDED.sku,
      name = EXCLUDED.name,
      description = EXCLUDED.description,
      price = EXCLUDED.price,
      active = EXCLUDED.active,
      updated_at = NOW()
RETURNING (xmax = 0) AS inserted
`

// ProductBulkUpsertRepository applies one batch of records as a single
// set-based write: COPY into a transaction-scoped staging table, then one
// INSERT ... ON CONFLICT against the unique sku_ci index.
type ProductBulkUpsertRepository struct {
	pool *pgxpool.Pool
}

func NewProductBulkUpsertRepository(pool *pgxpool.Pool) *ProductBulkUpsertRepository {
	return &ProductBulkUpsertRepository{pool: pool}
}

func (r *ProductBulkUpsertRepository) UpsertBatch(ctx context.Context, records []domain.Record) (domain.BatchResult, error) {
	valid := make([]domain.Record, 0, len(records))
	var skipped int64
	for _, record := range records {
		if !record.Valid() {
			skipped++
			continue
		}
		valid = append(valid, record)
	}

	batch := domain.DedupeLastWins(valid)
	if len(batch) == 0 {
		return domain.BatchResult{Skipped: skipped}, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.BatchResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createProductStagingSQL); err != nil {
		return domain.BatchResult{}, fmt.Errorf("create products staging: %w", err)
	}

	rows := make([][]any, 0, len(batch))
	for i, record := range batch {
		rows = append(rows, []any{
			int64(i),
			record.SKU,
			record.Identity,
			record.Name,
			nullableText(record.Description),
			record.Price,
			record.Active,
		})
	}

	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"stg_products"},
		[]string{"row_index", "sku", "sku_ci", "name", "description", "price", "active"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return domain.BatchResult{}, fmt.Errorf("copy products staging: %w", err)
	}

	result, err := tx.Query(ctx, upsertProductsSQL)
	if err != nil {
		return domain.BatchResult{}, fmt.Errorf("upsert products: %w", err)
	}
	inserted, updated, err := countInsertedUpdated(result)
	result.Close()
	if err != nil {
		return domain.BatchResult{}, fmt.Errorf("upsert products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.BatchResult{}, fmt.Errorf("commit product batch: %w", err)
	}

	return domain.BatchResult{
		Inserted: inserted,
		Updated:  updated,
		Skipped:  skipped,
	}, nil
}

func countInsertedUpdated(rows pgx.Rows) (int64, int64, error) {
	var inserted int64
	var updated int64

	for rows.Next() {
		var isInsert bool
		if err := rows.Scan(&isInsert); err != nil {
			return 0, 0, err
		}
		if isInsert {
			inserted++
		} else {
			updated++
		}
	}

	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	return inserted, updated, nil
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
