package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/citia/citewatch/internal/conf"
)

// MySQLStore implements Interface for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the MySQL database connection and migrates the schema.
func (store *MySQLStore) Open() error {
	cfg := store.Settings.Database.MySQL
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		store.logger.Error("failed to open MySQL database",
			"host", cfg.Host,
			"port", cfg.Port,
			"database", cfg.Database,
			"error", err)
		return fmt.Errorf("failed to open MySQL database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "MySQL",
		fmt.Sprintf("%s@%s:%s/%s", cfg.Username, cfg.Host, cfg.Port, cfg.Database),
		store.logger)
}

// Close releases the underlying connection pool.
func (store *MySQLStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access MySQL connection: %w", err)
	}
	return sqlDB.Close()
}
