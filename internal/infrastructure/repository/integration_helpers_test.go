package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohammadpnp/catalog-import/internal/infrastructure/db"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func testDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	return dsn
}

// openTestDB applies the schema and empties every table.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := gorm.Open(postgres.Open(testDSN(t)), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	if err := db.Migrate(context.Background(), gormDB); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := gormDB.Exec("TRUNCATE webhook_deliveries, webhooks, import_jobs, products RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return gormDB
}

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), testDSN(t))
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
