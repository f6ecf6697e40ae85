package db

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/santupramanik23/my-guide-backend/src/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// GetDb returns the shared connection, opening it from the environment on first use.
func GetDb() *gorm.DB {
	if db != nil {
		return db
	}
	_db, err := Open(config.LoadDatabase())
	if err != nil {
		log.Fatalf("Error connecting to database: %s\n", err.Error())
	}
	db = _db
	return _db
}

// Open connects to postgres. Constraint violations surface as gorm's
// translated errors so repositories can match on them.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return open(postgres.Open(cfg.DSN), cfg)
}

func open(dialector gorm.Dialector, cfg config.DatabaseConfig) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("accessing connection pool: %w", err)
	}
	configurePool(sqlDB, cfg)
	return gdb, nil
}

func configurePool(sqlDB *sql.DB, cfg config.DatabaseConfig) {
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// NewDB replaces the shared instance, e.g. with a sqlmock-backed one.
func NewDB(newdb *gorm.DB) {
	db = newdb
}
