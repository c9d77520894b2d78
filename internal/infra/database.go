package infra

import (
	"fmt"

	"tiendapos/internal/config"
	"tiendapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the Postgres pool. When DB_AUTO_MIGRATE is set the schema
// is created or updated from the models and the partial indexes are applied.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if cfg.DBAutoMigrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// RunMigrations runs AutoMigrate for every model and then the Postgres-only
// patches. It is also used by the integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches creates the indexes GORM tags cannot express. Every
// statement is idempotent.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// open caja lookup by local
		`CREATE INDEX IF NOT EXISTS idx_caja_local_abierta
		    ON caja (local_id, fecha_apertura DESC)
		    WHERE fecha_cierre IS NULL`,
		// FIFO scan of unreconciled movements
		`CREATE INDEX IF NOT EXISTS idx_pendientes_sin_conciliar
		    ON movimientos_caja_pendientes (local_id, fecha, id)
		    WHERE conciliado_at IS NULL`,
		// sale-linkage guard on stock rows
		`CREATE INDEX IF NOT EXISTS idx_detalle_venta_stock
		    ON detalle_venta (stock_id)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
