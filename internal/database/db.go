// Package database opens the catalog database and keeps its schema current.
package database

import (
	"fmt"
	"log"
	"strings"

	"fiorella/internal/config"
	"fiorella/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite" && strings.Contains(cfg.DSN, "mode=memory") {
		// Every pooled connection must see the same in-memory database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Printf("Connected to %s database", cfg.Driver)
	return db, nil
}

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.ProductImage{}, &models.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// sqliteDSN turns on foreign keys so product deletes cascade to images.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_fk=") || strings.Contains(dsn, "_foreign_keys=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_fk=1"
}

// MemoryDSN returns a DSN for a private in-memory SQLite database called name.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}
