package aggregator

import (
	"context"
	"sort"
	"time"

	"github.com/citia/citewatch/internal/errors"
	"github.com/citia/citewatch/internal/model"
)

// ComputeTrends compares the trailing score window ending at now with the
// window before it and returns the per-(engine, entity) deltas. It is a
// read-only operation and persists nothing.
func (a *Aggregator) ComputeTrends(ctx context.Context, now time.Time) ([]model.TrendDelta, error) {
	days := a.trendWindowDays

	currentFrom := now.AddDate(0, 0, -days).Format(model.DateLayout)
	currentTo := now.Format(model.DateLayout)
	previousFrom := now.AddDate(0, 0, -2*days).Format(model.DateLayout)
	previousTo := now.AddDate(0, 0, -days-1).Format(model.DateLayout)

	current, err := a.scores.GetShareScores(ctx, currentFrom, currentTo)
	if err != nil {
		return nil, errors.New(err).
			Component("aggregator").
			Category(errors.CategoryAggregation).
			Context("operation", "load_current_window").
			Build()
	}
	previous, err := a.scores.GetShareScores(ctx, previousFrom, previousTo)
	if err != nil {
		return nil, errors.New(err).
			Component("aggregator").
			Category(errors.CategoryAggregation).
			Context("operation", "load_previous_window").
			Build()
	}

	trends := TrendsFromWindows(current, previous)
	a.metrics.RecordTrends(len(trends))
	return trends, nil
}

type trendKey struct {
	engine   model.Engine
	entityID string
}

type windowAvg struct {
	entityName string
	sum        float64
	count      int
}

func averageByEntity(scores []model.ShareScore) map[trendKey]*windowAvg {
	avgs := make(map[trendKey]*windowAvg)
	for i := range scores {
		s := &scores[i]
		key := trendKey{engine: s.Engine, entityID: s.EntityID}
		w := avgs[key]
		if w == nil {
			w = &windowAvg{}
			avgs[key] = w
		}
		w.entityName = s.EntityName
		w.sum += s.SharePct
		w.count++
	}
	return avgs
}

// TrendsFromWindows averages share per (engine, entity) in each window and
// computes the deltas. Pairs with an absent or zero previous-window average
// are excluded: there is no meaningful percent change against an empty or
// zero baseline.
func TrendsFromWindows(current, previous []model.ShareScore) []model.TrendDelta {
	currentAvgs := averageByEntity(current)
	previousAvgs := averageByEntity(previous)

	trends := make([]model.TrendDelta, 0, len(currentAvgs))
	for key, cur := range currentAvgs {
		prev, ok := previousAvgs[key]
		if !ok || prev.count == 0 {
			continue
		}
		previousScore := prev.sum / float64(prev.count)
		if previousScore == 0 {
			continue
		}
		currentScore := cur.sum / float64(cur.count)

		trends = append(trends, model.TrendDelta{
			Engine:        key.engine,
			EntityID:      key.entityID,
			EntityName:    cur.entityName,
			CurrentScore:  roundTwo(currentScore),
			PreviousScore: roundTwo(previousScore),
			ScoreChange:   roundTwo(currentScore - previousScore),
			PercentChange: roundTwo((currentScore - previousScore) / previousScore * 100),
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Engine != trends[j].Engine {
			return trends[i].Engine < trends[j].Engine
		}
		return trends[i].EntityID < trends[j].EntityID
	})
	return trends
}
