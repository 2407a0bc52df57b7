package datastore

import (
	"context"

	"github.com/citia/citewatch/internal/model"
)

// GetActiveEntities returns all entities with status active.
func (ds *DataStore) GetActiveEntities(ctx context.Context) ([]model.Entity, error) {
	if err := ds.checkConn(ctx); err != nil {
		return nil, err
	}

	var entities []model.Entity
	err := ds.DB.WithContext(ctx).
		Where("status = ?", model.EntityActive).
		Find(&entities).Error
	if err != nil {
		return nil, newDatabaseError(err, "get_active_entities", nil)
	}
	return entities, nil
}
