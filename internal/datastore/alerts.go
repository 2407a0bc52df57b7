package datastore

import (
	"context"

	"github.com/citia/citewatch/internal/model"
)

// GetActiveAlertRules returns all alert rules with active = true.
func (ds *DataStore) GetActiveAlertRules(ctx context.Context) ([]model.AlertRule, error) {
	if err := ds.checkConn(ctx); err != nil {
		return nil, err
	}

	var rules []model.AlertRule
	err := ds.DB.WithContext(ctx).
		Where("active = ?", true).
		Find(&rules).Error
	if err != nil {
		return nil, newDatabaseError(err, "get_active_alert_rules", nil)
	}
	return rules, nil
}

// SaveAlertEvent appends a triggered alert. Events are never updated or
// deleted by the pipeline.
func (ds *DataStore) SaveAlertEvent(ctx context.Context, event *model.AlertEvent) error {
	if err := ds.checkConn(ctx); err != nil {
		return err
	}

	if err := ds.DB.WithContext(ctx).Create(event).Error; err != nil {
		return newDatabaseError(err, "save_alert_event", map[string]any{"rule_id": event.SourceRuleID})
	}
	return nil
}
