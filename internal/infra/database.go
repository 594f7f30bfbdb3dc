package infra

import (
	"fmt"

	"retailpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies the idempotent SQL patches
// that GORM cannot express (sequences, check constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies the full schema: AutoMigrate for tables and
// columns, then the SQL patches. Integration tests call this against a
// throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Branch{},
		&model.Product{},
		&model.Client{},
		&model.User{},
		&model.Sale{},
		&model.SaleItem{},
		&model.SaleReturn{},
		&model.SaleReturnItem{},
		&model.StockMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot handle.
// Each statement uses IF NOT EXISTS / guarded DO blocks so re-running on
// an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Sale codes come from a dedicated sequence so they are gap-tolerant
		// but strictly increasing across concurrent registrations.
		{"create sales_code_seq",
			`CREATE SEQUENCE IF NOT EXISTS sales_code_seq START 1`},

		// Quantities are enforced at the service layer too; the DB check is
		// the backstop against writes that bypass the API.
		{"check sale_items.quantity positive", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_sale_items_quantity_positive') THEN
    ALTER TABLE sale_items ADD CONSTRAINT chk_sale_items_quantity_positive CHECK (quantity > 0);
  END IF;
END $$`},
		{"check sale_return_items.quantity positive", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_sale_return_items_quantity_positive') THEN
    ALTER TABLE sale_return_items ADD CONSTRAINT chk_sale_return_items_quantity_positive CHECK (quantity > 0);
  END IF;
END $$`},

		// Composite index for the daily sales report grouping.
		{"index sales by branch and day", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sales_branch_created_at') THEN
    CREATE INDEX idx_sales_branch_created_at ON sales (branch_id, created_at);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
