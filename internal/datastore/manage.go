package datastore

import (
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jtkoskela/melograph/internal/errors"
	"github.com/jtkoskela/melograph/internal/logging"
)

// slowQueryThreshold marks queries worth surfacing in the log. One
// second accommodates migration batches without flagging normal work.
const slowQueryThreshold = 1 * time.Second

var log = logging.ForService("datastore")

// createGormLogger configures GORM's own logging to stay quiet unless
// something is slow or broken.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.Default.LogMode(level)
}

// performAutoMigration runs the schema migration for both tables and
// wraps failures with backend context.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Artist{}, &Track{}); err != nil {
		return errors.Newf("failed to auto-migrate %s database: %w", dbType, err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("db_type", dbType).
			Build()
	}

	if debug {
		log.Debug("database connection established",
			"db_type", dbType,
			"connection", connectionInfo)
	}
	return nil
}
