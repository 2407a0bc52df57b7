// interfaces.go: store contracts for the citewatch pipeline stages
package datastore

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/logging"
	"github.com/citia/citewatch/internal/model"
)

// Interface abstracts the underlying database implementation. Every pipeline
// stage receives only the slice of this interface it needs, so in-memory
// fakes can stand in during tests.
type Interface interface {
	Open() error
	Close() error

	// Raw answer source (written by the excluded fetch stage, read-only here).
	// Returns answers with CapturedAt in [start, end).
	GetRawAnswers(ctx context.Context, start, end time.Time) ([]model.RawAnswer, error)

	// Entity source (owned by the excluded CRUD layer, read-only here).
	GetActiveEntities(ctx context.Context) ([]model.Entity, error)

	// Mention store. SaveMentions upserts by mention_id; reprocessing a
	// window supersedes earlier records instead of duplicating them.
	SaveMentions(ctx context.Context, mentions []model.Mention) error
	// GetMentions returns mentions with CapturedAt in [start, end).
	GetMentions(ctx context.Context, start, end time.Time) ([]model.Mention, error)

	// Query-volume source: distinct queries per (engine, date) derived from
	// raw answers with CapturedAt in [start, end).
	GetQueryVolumes(ctx context.Context, start, end time.Time) ([]model.QueryVolume, error)

	// Share score store. SaveShareScores upserts by (engine, entity_id, date).
	SaveShareScores(ctx context.Context, scores []model.ShareScore) error
	// GetShareScores returns scores with date in [from, to], inclusive.
	GetShareScores(ctx context.Context, from, to string) ([]model.ShareScore, error)
	// GetEntityShareScores returns one entity's scores with date in
	// [from, to], inclusive, across all engines.
	GetEntityShareScores(ctx context.Context, entityID, from, to string) ([]model.ShareScore, error)

	// Alert rule source (owned by the excluded CRUD layer, read-only here).
	GetActiveAlertRules(ctx context.Context) ([]model.AlertRule, error)

	// Alert event store, append-only.
	SaveAlertEvent(ctx context.Context, event *model.AlertEvent) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB     *gorm.DB
	logger *slog.Logger
}

// New creates a store instance based on the configured backend.
func New(settings *conf.Settings) Interface {
	logger := logging.ForService("datastore")
	if logger == nil {
		logger = slog.Default().With("service", "datastore")
	}
	switch {
	case settings.Database.SQLite.Enabled:
		return &SQLiteStore{
			DataStore: DataStore{logger: logger},
			Settings:  settings,
		}
	case settings.Database.MySQL.Enabled:
		return &MySQLStore{
			DataStore: DataStore{logger: logger},
			Settings:  settings,
		}
	default:
		// conf.Validate rejects this configuration before we get here
		return nil
	}
}

// performAutoMigration creates or updates the schema for every table the
// pipeline touches. Raw answers, entities and alert rules are owned by other
// services but migrated here too so a standalone deployment works.
func performAutoMigration(db *gorm.DB, debug bool, backend, dsn string, logger *slog.Logger) error {
	if err := db.AutoMigrate(
		&model.RawAnswer{},
		&model.Entity{},
		&model.Mention{},
		&model.ShareScore{},
		&model.AlertRule{},
		&model.AlertEvent{},
	); err != nil {
		return newDatabaseError(err, "auto_migration", map[string]any{"backend": backend})
	}
	if debug {
		logger.Debug("database schema migrated", "backend", backend, "dsn", dsn)
	}
	return nil
}
