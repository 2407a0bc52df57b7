package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citia/citewatch/internal/model"
)

func score(engine model.Engine, entityID, date string, share float64) model.ShareScore {
	return model.ShareScore{
		Engine:     engine,
		EntityID:   entityID,
		EntityName: "Entity " + entityID,
		Date:       date,
		SharePct:   share,
	}
}

func TestTrendsFromWindows(t *testing.T) {
	t.Parallel()

	current := []model.ShareScore{
		score(model.EnginePerplexity, "ent-1", "2026-08-26", 50),
		score(model.EnginePerplexity, "ent-1", "2026-08-27", 40),
	}
	previous := []model.ShareScore{
		score(model.EnginePerplexity, "ent-1", "2026-08-19", 30),
		score(model.EnginePerplexity, "ent-1", "2026-08-20", 30),
	}

	trends := TrendsFromWindows(current, previous)
	require.Len(t, trends, 1)

	trend := trends[0]
	assert.Equal(t, "ent-1", trend.EntityID)
	assert.InDelta(t, 45.0, trend.CurrentScore, 0.001)
	assert.InDelta(t, 30.0, trend.PreviousScore, 0.001)
	assert.InDelta(t, 15.0, trend.ScoreChange, 0.001)
	assert.InDelta(t, 50.0, trend.PercentChange, 0.001)
}

func TestTrendsFromWindowsExcludesMissingBaseline(t *testing.T) {
	t.Parallel()

	current := []model.ShareScore{
		score(model.EnginePerplexity, "ent-new", "2026-08-27", 20),
		score(model.EnginePerplexity, "ent-old", "2026-08-27", 20),
	}
	previous := []model.ShareScore{
		score(model.EnginePerplexity, "ent-old", "2026-08-20", 10),
	}

	trends := TrendsFromWindows(current, previous)
	require.Len(t, trends, 1, "entity absent from previous window has no trend")
	assert.Equal(t, "ent-old", trends[0].EntityID)
	assert.InDelta(t, 100.0, trends[0].PercentChange, 0.001)
}

func TestTrendsFromWindowsExcludesZeroBaseline(t *testing.T) {
	t.Parallel()

	current := []model.ShareScore{
		score(model.EngineBingDeep, "ent-1", "2026-08-27", 15),
	}
	previous := []model.ShareScore{
		score(model.EngineBingDeep, "ent-1", "2026-08-20", 0),
	}

	trends := TrendsFromWindows(current, previous)
	assert.Empty(t, trends, "zero baseline has no defined percent change")
}

func TestTrendsKeyedPerEngine(t *testing.T) {
	t.Parallel()

	current := []model.ShareScore{
		score(model.EnginePerplexity, "ent-1", "2026-08-27", 30),
		score(model.EngineChatGPTSearch, "ent-1", "2026-08-27", 60),
	}
	previous := []model.ShareScore{
		score(model.EnginePerplexity, "ent-1", "2026-08-20", 15),
		score(model.EngineChatGPTSearch, "ent-1", "2026-08-20", 30),
	}

	trends := TrendsFromWindows(current, previous)
	require.Len(t, trends, 2, "the same entity trends separately per engine")
}

func TestComputeTrendsWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 6, 0, 0, 0, time.UTC)
	store := &fakeScoreStore{stored: []model.ShareScore{
		// current window [2026-08-20, 2026-08-27]
		score(model.EnginePerplexity, "ent-1", "2026-08-25", 40),
		// previous window [2026-08-13, 2026-08-19]
		score(model.EnginePerplexity, "ent-1", "2026-08-15", 20),
	}}

	a := New(&fakeMentionSource{}, &fakeVolumeSource{}, store, nil, 7, 7)
	trends, err := a.ComputeTrends(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.InDelta(t, 100.0, trends[0].PercentChange, 0.001)
}
