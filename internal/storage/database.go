package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlitePragmas makes writers wait for each other instead of failing fast.
const sqlitePragmas = "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// OpenDB opens the configured database and migrates the schema.
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		if !strings.HasPrefix(dsn, "file::memory:") {
			if dir := filepath.Dir(dsn); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create database directory %s: %w", dir, err)
				}
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?" + sqlitePragmas
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}
	if driver != DriverPostgres {
		// A single connection serializes sqlite writers; conditional
		// updates still decide who wins each transition.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&game.Fight{}, &game.Profile{}); err != nil {
		return nil, err
	}
	logging.Info("database ready", logging.Fields{"driver": driverName(driver)})
	return db, nil
}

// CloseDB releases the underlying connection pool.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func driverName(driver string) string {
	if driver == "" {
		return DriverSQLite
	}
	return driver
}
