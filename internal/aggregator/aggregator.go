// Package aggregator implements the share-aggregation stage: it turns a
// window of mention records into per-entity-per-engine citation share scores
// and computes trend deltas between score windows.
package aggregator

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/citia/citewatch/internal/errors"
	"github.com/citia/citewatch/internal/logging"
	"github.com/citia/citewatch/internal/model"
	"github.com/citia/citewatch/internal/observability/metrics"
)

// MentionSource reads mention records.
type MentionSource interface {
	GetMentions(ctx context.Context, start, end time.Time) ([]model.Mention, error)
}

// VolumeSource reads the distinct-query counts per (engine, date).
type VolumeSource interface {
	GetQueryVolumes(ctx context.Context, start, end time.Time) ([]model.QueryVolume, error)
}

// ScoreStore persists and reads share scores.
type ScoreStore interface {
	SaveShareScores(ctx context.Context, scores []model.ShareScore) error
	GetShareScores(ctx context.Context, from, to string) ([]model.ShareScore, error)
}

// Aggregator is the share-aggregation stage. Score rows are keyed by
// (engine, entity, date), so re-running over an overlapping window
// overwrites the affected days instead of duplicating them.
type Aggregator struct {
	mentions        MentionSource
	volumes         VolumeSource
	scores          ScoreStore
	metrics         *metrics.PipelineMetrics
	logger          *slog.Logger
	windowDays      int
	trendWindowDays int
}

// New creates an aggregation stage.
func New(mentions MentionSource, volumes VolumeSource, scores ScoreStore, m *metrics.PipelineMetrics, windowDays, trendWindowDays int) *Aggregator {
	logger := logging.ForService("aggregator")
	if logger == nil {
		logger = slog.Default().With("service", "aggregator")
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	if trendWindowDays <= 0 {
		trendWindowDays = 7
	}
	return &Aggregator{
		mentions:        mentions,
		volumes:         volumes,
		scores:          scores,
		metrics:         m,
		logger:          logger,
		windowDays:      windowDays,
		trendWindowDays: trendWindowDays,
	}
}

// Run scores the trailing mention window ending at now and upserts the
// resulting rows. The group-by and volume join complete fully before any row
// is written, since a partial group would produce a wrong average.
func (a *Aggregator) Run(ctx context.Context, now time.Time) (int, error) {
	start := now.AddDate(0, 0, -a.windowDays)

	mentions, err := a.mentions.GetMentions(ctx, start, now)
	if err != nil {
		return 0, errors.New(err).
			Component("aggregator").
			Category(errors.CategoryAggregation).
			Context("operation", "load_mentions").
			Build()
	}

	volumes, err := a.volumes.GetQueryVolumes(ctx, start, now)
	if err != nil {
		return 0, errors.New(err).
			Component("aggregator").
			Category(errors.CategoryAggregation).
			Context("operation", "load_query_volumes").
			Build()
	}

	scores := ComputeScores(mentions, volumes, now)

	if err := a.scores.SaveShareScores(ctx, scores); err != nil {
		return 0, errors.New(err).
			Component("aggregator").
			Category(errors.CategoryDatabase).
			Context("operation", "save_share_scores").
			Context("count", len(scores)).
			Build()
	}

	a.metrics.RecordScores(len(scores))
	a.logger.Info("aggregation completed",
		"mentions", len(mentions),
		"scores", len(scores),
		"window_days", a.windowDays)
	return len(scores), nil
}

type scoreKey struct {
	engine   model.Engine
	entityID string
	date     string
}

type scoreGroup struct {
	entityName    string
	totalMentions int
	queryIDs      map[string]struct{}
	positionSum   float64
	positionCount int
	firstHalf     int
}

// ComputeScores groups mentions by (engine, entity, date), joins the
// per-(engine, date) query volume and derives share percentages. Groups
// whose engine/date has no recorded volume are excluded: their share is
// undefined, not zero.
func ComputeScores(mentions []model.Mention, volumes []model.QueryVolume, calculatedAt time.Time) []model.ShareScore {
	volumeByKey := make(map[string]int, len(volumes))
	for _, v := range volumes {
		volumeByKey[string(v.Engine)+"|"+v.Date] = v.TotalQueries
	}

	groups := make(map[scoreKey]*scoreGroup)
	for i := range mentions {
		m := &mentions[i]
		key := scoreKey{
			engine:   m.Engine,
			entityID: m.EntityID,
			date:     m.CapturedAt.UTC().Format(model.DateLayout),
		}
		g := groups[key]
		if g == nil {
			g = &scoreGroup{queryIDs: make(map[string]struct{})}
			groups[key] = g
		}
		g.entityName = m.EntityName
		g.totalMentions += m.MentionCount
		g.queryIDs[m.QueryID] = struct{}{}
		if m.PositionPct != nil {
			g.positionSum += *m.PositionPct
			g.positionCount++
		}
		if m.IsInFirstHalf {
			g.firstHalf++
		}
	}

	scores := make([]model.ShareScore, 0, len(groups))
	for key, g := range groups {
		totalVolume := volumeByKey[string(key.engine)+"|"+key.date]
		if totalVolume <= 0 {
			continue
		}

		share := roundTwo(float64(len(g.queryIDs)) / float64(totalVolume) * 100)
		avgPosition := 0.0
		if g.positionCount > 0 {
			avgPosition = roundTwo(g.positionSum / float64(g.positionCount))
		}

		scores = append(scores, model.ShareScore{
			Engine:            key.engine,
			EntityID:          key.entityID,
			Date:              key.date,
			EntityName:        g.entityName,
			TotalMentions:     g.totalMentions,
			UniqueQueries:     len(g.queryIDs),
			AvgPosition:       avgPosition,
			FirstHalfMentions: g.firstHalf,
			SharePct:          share,
			Category:          model.CategorizeShare(share),
			CalculatedAt:      calculatedAt,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Date != scores[j].Date {
			return scores[i].Date < scores[j].Date
		}
		if scores[i].Engine != scores[j].Engine {
			return scores[i].Engine < scores[j].Engine
		}
		return scores[i].EntityID < scores[j].EntityID
	})
	return scores
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
