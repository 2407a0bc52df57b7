package datastore

import (
	"context"
	"time"

	"github.com/citia/citewatch/internal/model"
)

// GetRawAnswers returns raw answers with CapturedAt in [start, end),
// newest first.
func (ds *DataStore) GetRawAnswers(ctx context.Context, start, end time.Time) ([]model.RawAnswer, error) {
	if err := ds.checkConn(ctx); err != nil {
		return nil, err
	}

	var answers []model.RawAnswer
	err := ds.DB.WithContext(ctx).
		Where("captured_at >= ? AND captured_at < ?", start, end).
		Order("captured_at DESC").
		Find(&answers).Error
	if err != nil {
		return nil, newDatabaseError(err, "get_raw_answers", map[string]any{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})
	}
	return answers, nil
}

// GetQueryVolumes returns the distinct-query count per (engine, date) for
// raw answers with CapturedAt in [start, end).
func (ds *DataStore) GetQueryVolumes(ctx context.Context, start, end time.Time) ([]model.QueryVolume, error) {
	if err := ds.checkConn(ctx); err != nil {
		return nil, err
	}

	var volumes []model.QueryVolume
	err := ds.DB.WithContext(ctx).
		Raw(`SELECT engine, DATE(captured_at) AS date, COUNT(DISTINCT query_id) AS total_queries
		     FROM raw_answers
		     WHERE captured_at >= ? AND captured_at < ?
		     GROUP BY engine, DATE(captured_at)`, start, end).
		Scan(&volumes).Error
	if err != nil {
		return nil, newDatabaseError(err, "get_query_volumes", nil)
	}
	return volumes, nil
}
