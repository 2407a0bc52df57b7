package extractor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citia/citewatch/internal/model"
)

type fakeAnswerSource struct {
	answers []model.RawAnswer
}

func (f *fakeAnswerSource) GetRawAnswers(_ context.Context, _, _ time.Time) ([]model.RawAnswer, error) {
	return f.answers, nil
}

type fakeEntitySource struct {
	entities []model.Entity
}

func (f *fakeEntitySource) GetActiveEntities(_ context.Context) ([]model.Entity, error) {
	return f.entities, nil
}

type fakeMentionStore struct {
	saved []model.Mention
	calls int
}

func (f *fakeMentionStore) SaveMentions(_ context.Context, mentions []model.Mention) error {
	f.saved = append(f.saved, mentions...)
	f.calls++
	return nil
}

func testEntities() []model.Entity {
	return []model.Entity{
		{
			EntityID:   "ent-1",
			EntityName: "Hendricks.ai",
			Domains:    []string{"hendricks.ai"},
			Synonyms:   []string{"Hendricks"},
		},
		{
			EntityID:   "ent-2",
			EntityName: "Acme Analytics",
			Domains:    []string{"acme.io"},
		},
	}
}

func TestExtractMentionsSparseOutput(t *testing.T) {
	t.Parallel()

	answer := &model.RawAnswer{
		QueryID:      "q-1",
		QueryText:    "best ai consultancies",
		Engine:       model.EnginePerplexity,
		ResponseText: "Hendricks.ai is often cited. See hendricks.ai/docs for more.",
		CapturedAt:   time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
	}

	mentions := ExtractMentions(answer, testEntities(), time.Now())
	require.Len(t, mentions, 1, "entity without matches must not produce a record")

	m := mentions[0]
	assert.Equal(t, "q-1_ent-1", m.MentionID)
	assert.Equal(t, "ent-1", m.EntityID)
	assert.Equal(t, "Hendricks.ai", m.EntityName)
	assert.Equal(t, 2, m.MentionCount)
	assert.Equal(t, 1, m.NameMatches)
	assert.Equal(t, 1, m.DomainMatches)
	assert.Equal(t, 0, m.SynonymMatches)
	require.NotNil(t, m.PositionPct)
	assert.InDelta(t, 0.0, *m.PositionPct, 0.001)
	assert.True(t, m.IsInFirstHalf)
	assert.Equal(t, answer.CapturedAt, m.CapturedAt)
}

func TestExtractMentionsPositionOnlyForName(t *testing.T) {
	t.Parallel()

	answer := &model.RawAnswer{
		QueryID:      "q-2",
		Engine:       model.EngineChatGPTSearch,
		ResponseText: "Compare acme.io pricing before deciding on a vendor here.",
		CapturedAt:   time.Now(),
	}

	mentions := ExtractMentions(answer, testEntities(), time.Now())
	require.Len(t, mentions, 1)
	assert.Equal(t, "ent-2", mentions[0].EntityID)
	assert.Equal(t, 1, mentions[0].DomainMatches)
	assert.Nil(t, mentions[0].PositionPct, "domain-only matches carry no position")
	assert.False(t, mentions[0].IsInFirstHalf)
}

func TestExtractMentionsDeterministic(t *testing.T) {
	t.Parallel()

	answer := &model.RawAnswer{
		QueryID:      "q-3",
		Engine:       model.EngineGoogleAIOverview,
		ResponseText: "Hendricks.ai again, and once more Hendricks.ai wins.",
		CapturedAt:   time.Now(),
	}

	first := ExtractMentions(answer, testEntities(), time.Now())
	second := ExtractMentions(answer, testEntities(), time.Now())
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].MentionID, second[0].MentionID)
	assert.Equal(t, first[0].MentionCount, second[0].MentionCount)
}

func TestRunSkipsMalformedAnswers(t *testing.T) {
	t.Parallel()

	captured := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	answers := &fakeAnswerSource{answers: []model.RawAnswer{
		{QueryID: "q-1", Engine: model.EnginePerplexity, ResponseText: "Hendricks.ai leads here.", CapturedAt: captured},
		{QueryID: "", Engine: model.EnginePerplexity, ResponseText: "orphaned response", CapturedAt: captured},
		{QueryID: "q-3", Engine: model.EnginePerplexity, ResponseText: "", CapturedAt: captured},
		{QueryID: "q-4", Engine: model.EngineBingDeep, ResponseText: "Nothing relevant in this one.", CapturedAt: captured},
	}}
	entities := &fakeEntitySource{entities: testEntities()}
	store := &fakeMentionStore{}

	e := New(answers, entities, store, nil, 2)
	stats, err := e.Run(context.Background(), captured.Add(-time.Hour), captured.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Answers)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Mentions)
	assert.Equal(t, 1, store.calls, "batch is written in one call")
	require.Len(t, store.saved, 1)
	assert.Equal(t, "q-1_ent-1", store.saved[0].MentionID)
}

func TestRunNoActiveEntities(t *testing.T) {
	t.Parallel()

	answers := &fakeAnswerSource{answers: []model.RawAnswer{
		{QueryID: "q-1", ResponseText: "anything", CapturedAt: time.Now()},
	}}
	store := &fakeMentionStore{}

	e := New(answers, &fakeEntitySource{}, store, nil, 0)
	stats, err := e.Run(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.Answers)
	assert.Zero(t, store.calls)
}
