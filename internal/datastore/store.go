package datastore

import (
	"context"
	"log"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/citia/citewatch/internal/errors"
)

// createGormLogger returns a GORM logger that stays quiet except for slow
// queries and real errors.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.Default(),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// newDatabaseError wraps a gorm error with datastore context.
func newDatabaseError(err error, operation string, context map[string]any) error {
	eb := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
	for k, v := range context {
		eb = eb.Context(k, v)
	}
	return eb.Build()
}

// checkConn guards data methods against use before Open.
func (ds *DataStore) checkConn(ctx context.Context) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
