package datastore

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jtkoskela/melograph/internal/conf"
	"github.com/jtkoskela/melograph/internal/errors"
)

// SQLiteStore implements the store on SQLite.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection and migrates the schema.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Database.SQLite.Path
	if path == "" {
		return errors.Newf("sqlite database path is empty").
			Category(errors.CategoryConfiguration).
			Component("datastore").
			Build()
	}

	dsn := path + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: createGormLogger(store.Settings.Debug),
	})
	if err != nil {
		return errors.Newf("failed to open SQLite database: %w", err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("path", path).
			Build()
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", path)
}

// Close releases the underlying connection pool.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
