package datastore

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/citia/citewatch/internal/model"
)

// SaveShareScores upserts score rows by (engine, entity_id, date).
// Reprocessing a date overwrites the prior result; that is the correction
// mechanism for late-arriving mentions.
func (ds *DataStore) SaveShareScores(ctx context.Context, scores []model.ShareScore) error {
	if err := ds.checkConn(ctx); err != nil {
		return err
	}
	if len(scores) == 0 {
		return nil
	}

	err := ds.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "engine"},
				{Name: "entity_id"},
				{Name: "date"},
			},
			UpdateAll: true,
		}).
		CreateInBatches(scores, 200).Error
	if err != nil {
		return newDatabaseError(err, "save_share_scores", map[string]any{"count": len(scores)})
	}
	return nil
}

// GetShareScores returns scores with date in [from, to], inclusive.
func (ds *DataStore) GetShareScores(ctx context.Context, from, to string) ([]model.ShareScore, error) {
	if err := ds.checkConn(ctx); err != nil {
		return nil, err
	}

	var scores []model.ShareScore
	err := ds.DB.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Find(&scores).Error
	if err != nil {
		return nil, newDatabaseError(err, "get_share_scores", map[string]any{"from": from, "to": to})
	}
	return scores, nil
}

// GetEntityShareScores returns one entity's scores with date in [from, to],
// inclusive, across all engines.
func (ds *DataStore) GetEntityShareScores(ctx context.Context, entityID, from, to string) ([]model.ShareScore, error) {
	if err := ds.checkConn(ctx); err != nil {
		return nil, err
	}

	var scores []model.ShareScore
	err := ds.DB.WithContext(ctx).
		Where("entity_id = ? AND date >= ? AND date <= ?", entityID, from, to).
		Find(&scores).Error
	if err != nil {
		return nil, newDatabaseError(err, "get_entity_share_scores", map[string]any{
			"entity_id": entityID,
			"from":      from,
			"to":        to,
		})
	}
	return scores, nil
}
