package datastore

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/citia/citewatch/internal/model"
)

// SaveMentions upserts mention records by mention_id. Reprocessing the same
// answers overwrites earlier records, which keeps re-triggered extraction
// runs idempotent.
func (ds *DataStore) SaveMentions(ctx context.Context, mentions []model.Mention) error {
	if err := ds.checkConn(ctx); err != nil {
		return err
	}
	if len(mentions) == 0 {
		return nil
	}

	err := ds.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "mention_id"}},
			UpdateAll: true,
		}).
		CreateInBatches(mentions, 200).Error
	if err != nil {
		return newDatabaseError(err, "save_mentions", map[string]any{"count": len(mentions)})
	}
	return nil
}

// GetMentions returns mentions with CapturedAt in [start, end).
func (ds *DataStore) GetMentions(ctx context.Context, start, end time.Time) ([]model.Mention, error) {
	if err := ds.checkConn(ctx); err != nil {
		return nil, err
	}

	var mentions []model.Mention
	err := ds.DB.WithContext(ctx).
		Where("captured_at >= ? AND captured_at < ?", start, end).
		Find(&mentions).Error
	if err != nil {
		return nil, newDatabaseError(err, "get_mentions", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})
	}
	return mentions, nil
}
