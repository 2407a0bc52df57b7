package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citia/citewatch/internal/model"
)

func ptr(v float64) *float64 { return &v }

func mention(queryID, entityID string, engine model.Engine, capturedAt time.Time, count int) model.Mention {
	return model.Mention{
		MentionID:    model.MentionID(queryID, entityID),
		QueryID:      queryID,
		Engine:       engine,
		EntityID:     entityID,
		EntityName:   "Entity " + entityID,
		MentionCount: count,
		CapturedAt:   capturedAt,
	}
}

func TestComputeScores(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	engine := model.EnginePerplexity

	mentions := []model.Mention{
		mention("q-1", "ent-1", engine, day, 2),
		mention("q-2", "ent-1", engine, day.Add(3*time.Hour), 1),
		mention("q-2", "ent-2", engine, day.Add(3*time.Hour), 1),
	}
	mentions[0].PositionPct = ptr(10.0)
	mentions[0].IsInFirstHalf = true
	mentions[1].PositionPct = ptr(60.0)

	volumes := []model.QueryVolume{
		{Engine: engine, Date: "2026-08-26", TotalQueries: 8},
	}

	scores := ComputeScores(mentions, volumes, time.Now())
	require.Len(t, scores, 2)

	ent1 := scores[0]
	assert.Equal(t, "ent-1", ent1.EntityID)
	assert.Equal(t, "2026-08-26", ent1.Date)
	assert.Equal(t, 3, ent1.TotalMentions)
	assert.Equal(t, 2, ent1.UniqueQueries)
	assert.InDelta(t, 25.0, ent1.SharePct, 0.001) // 2 of 8 queries
	assert.Equal(t, model.CategoryModerate, ent1.Category)
	assert.InDelta(t, 35.0, ent1.AvgPosition, 0.001)
	assert.Equal(t, 1, ent1.FirstHalfMentions)

	ent2 := scores[1]
	assert.Equal(t, "ent-2", ent2.EntityID)
	assert.Equal(t, 1, ent2.UniqueQueries)
	assert.InDelta(t, 12.5, ent2.SharePct, 0.001)
	assert.Equal(t, model.CategoryWeak, ent2.Category)
	assert.Zero(t, ent2.AvgPosition)
}

func TestComputeScoresExcludesMissingVolume(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	mentions := []model.Mention{
		mention("q-1", "ent-1", model.EnginePerplexity, day, 1),
		mention("q-2", "ent-1", model.EngineBingDeep, day, 1),
	}
	// Only perplexity has a recorded volume for the day.
	volumes := []model.QueryVolume{
		{Engine: model.EnginePerplexity, Date: "2026-08-26", TotalQueries: 4},
		{Engine: model.EngineBingDeep, Date: "2026-08-26", TotalQueries: 0},
	}

	scores := ComputeScores(mentions, volumes, time.Now())
	require.Len(t, scores, 1)
	assert.Equal(t, model.EnginePerplexity, scores[0].Engine)
}

func TestComputeScoresRounding(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	mentions := []model.Mention{
		mention("q-1", "ent-1", model.EngineGeminiAIMode, day, 1),
	}
	volumes := []model.QueryVolume{
		{Engine: model.EngineGeminiAIMode, Date: "2026-08-26", TotalQueries: 3},
	}

	scores := ComputeScores(mentions, volumes, time.Now())
	require.Len(t, scores, 1)
	assert.InDelta(t, 33.33, scores[0].SharePct, 0.0001) // 1/3 rounded to 2dp
}

func TestComputeScoresCategoryBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		share float64
		want  model.ShareCategory
	}{
		{75.00, model.CategoryDominant},
		{74.99, model.CategoryStrong},
		{50.00, model.CategoryStrong},
		{49.99, model.CategoryModerate},
		{25.00, model.CategoryModerate},
		{24.99, model.CategoryWeak},
		{10.00, model.CategoryWeak},
		{9.99, model.CategoryMinimal},
		{0, model.CategoryMinimal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, model.CategorizeShare(tt.share), "share %.2f", tt.share)
	}
}

type fakeMentionSource struct {
	mentions []model.Mention
}

func (f *fakeMentionSource) GetMentions(_ context.Context, _, _ time.Time) ([]model.Mention, error) {
	return f.mentions, nil
}

type fakeVolumeSource struct {
	volumes []model.QueryVolume
}

func (f *fakeVolumeSource) GetQueryVolumes(_ context.Context, _, _ time.Time) ([]model.QueryVolume, error) {
	return f.volumes, nil
}

type fakeScoreStore struct {
	saved  []model.ShareScore
	stored []model.ShareScore
}

func (f *fakeScoreStore) SaveShareScores(_ context.Context, scores []model.ShareScore) error {
	f.saved = append(f.saved, scores...)
	return nil
}

func (f *fakeScoreStore) GetShareScores(_ context.Context, from, to string) ([]model.ShareScore, error) {
	var out []model.ShareScore
	for _, s := range f.stored {
		if s.Date >= from && s.Date <= to {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestAggregatorRun(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 27, 6, 0, 0, 0, time.UTC)
	day := now.AddDate(0, 0, -1)

	mentions := &fakeMentionSource{mentions: []model.Mention{
		mention("q-1", "ent-1", model.EnginePerplexity, day, 1),
	}}
	volumes := &fakeVolumeSource{volumes: []model.QueryVolume{
		{Engine: model.EnginePerplexity, Date: day.Format(model.DateLayout), TotalQueries: 2},
	}}
	store := &fakeScoreStore{}

	a := New(mentions, volumes, store, nil, 7, 7)
	count, err := a.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, store.saved, 1)
	assert.InDelta(t, 50.0, store.saved[0].SharePct, 0.001)
}
