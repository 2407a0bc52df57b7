// Package extractor implements the mention-extraction stage: it turns a
// window of raw answers into entity mention records.
package extractor

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/citia/citewatch/internal/errors"
	"github.com/citia/citewatch/internal/logging"
	"github.com/citia/citewatch/internal/model"
	"github.com/citia/citewatch/internal/observability/metrics"
)

// AnswerSource reads raw answers produced by the fetch stage.
type AnswerSource interface {
	GetRawAnswers(ctx context.Context, start, end time.Time) ([]model.RawAnswer, error)
}

// EntitySource reads the tracked entities.
type EntitySource interface {
	GetActiveEntities(ctx context.Context) ([]model.Entity, error)
}

// MentionStore persists mention records.
type MentionStore interface {
	SaveMentions(ctx context.Context, mentions []model.Mention) error
}

// RunStats summarizes one extraction run.
type RunStats struct {
	Answers  int
	Skipped  int
	Mentions int
}

// Extractor is the mention-extraction stage. It is stateless between runs
// and safe to invoke concurrently for overlapping windows: mention IDs are
// deterministic, so duplicate runs upsert the same records.
type Extractor struct {
	answers        AnswerSource
	entities       EntitySource
	mentions       MentionStore
	metrics        *metrics.PipelineMetrics
	logger         *slog.Logger
	maxConcurrency int
}

// New creates an extraction stage. maxConcurrency caps parallel answer
// matching; zero or negative means GOMAXPROCS.
func New(answers AnswerSource, entities EntitySource, mentions MentionStore, m *metrics.PipelineMetrics, maxConcurrency int) *Extractor {
	logger := logging.ForService("extractor")
	if logger == nil {
		logger = slog.Default().With("service", "extractor")
	}
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.GOMAXPROCS(0)
	}
	return &Extractor{
		answers:        answers,
		entities:       entities,
		mentions:       mentions,
		metrics:        m,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Run extracts mentions from raw answers captured in [start, end) and
// upserts them. The full batch is computed before anything is written; a
// write failure surfaces as a stage failure and the caller retries the whole
// window, which the deterministic mention IDs make safe.
func (e *Extractor) Run(ctx context.Context, start, end time.Time) (RunStats, error) {
	var stats RunStats

	entities, err := e.entities.GetActiveEntities(ctx)
	if err != nil {
		return stats, errors.New(err).
			Component("extractor").
			Category(errors.CategoryExtraction).
			Context("operation", "load_entities").
			Build()
	}
	if len(entities) == 0 {
		e.logger.Info("no active entities, nothing to extract")
		return stats, nil
	}

	answers, err := e.answers.GetRawAnswers(ctx, start, end)
	if err != nil {
		return stats, errors.New(err).
			Component("extractor").
			Category(errors.CategoryExtraction).
			Context("operation", "load_answers").
			Build()
	}
	e.logger.Info("extraction started",
		"entities", len(entities),
		"answers", len(answers),
		"window_start", start,
		"window_end", end)

	processedAt := time.Now()

	// Matching is embarrassingly parallel: each goroutine writes only its
	// own slot, results are flattened in answer order afterwards.
	results := make([][]model.Mention, len(answers))
	skipped := make([]bool, len(answers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for i := range answers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			answer := &answers[i]
			if answer.QueryID == "" || answer.ResponseText == "" {
				skipped[i] = true
				e.logger.Warn("skipping malformed raw answer",
					"query_id", answer.QueryID,
					"engine", answer.Engine)
				return nil
			}
			results[i] = ExtractMentions(answer, entities, processedAt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, errors.New(err).
			Component("extractor").
			Category(errors.CategoryExtraction).
			Context("operation", "match_answers").
			Build()
	}

	var mentions []model.Mention
	for i := range results {
		if skipped[i] {
			stats.Skipped++
			continue
		}
		stats.Answers++
		mentions = append(mentions, results[i]...)
	}
	stats.Mentions = len(mentions)

	if err := e.mentions.SaveMentions(ctx, mentions); err != nil {
		return stats, errors.New(err).
			Component("extractor").
			Category(errors.CategoryDatabase).
			Context("operation", "save_mentions").
			Context("count", len(mentions)).
			Build()
	}

	e.metrics.RecordExtraction(stats.Answers, stats.Skipped, stats.Mentions)
	e.logger.Info("extraction completed",
		"answers", stats.Answers,
		"skipped", stats.Skipped,
		"mentions", stats.Mentions)
	return stats, nil
}

// ExtractMentions matches every entity against one answer and returns the
// mention records for entities with at least one hit. Output is sparse:
// entities without matches produce no record. Re-running over the same
// answer and entity set yields identical IDs and counts.
func ExtractMentions(answer *model.RawAnswer, entities []model.Entity, processedAt time.Time) []model.Mention {
	var mentions []model.Mention
	for i := range entities {
		entity := &entities[i]
		result := Match(answer.ResponseText, *entity)
		if result.Total() == 0 {
			continue
		}

		mention := model.Mention{
			MentionID:      model.MentionID(answer.QueryID, entity.EntityID),
			QueryID:        answer.QueryID,
			QueryText:      answer.QueryText,
			Engine:         answer.Engine,
			EntityID:       entity.EntityID,
			EntityName:     entity.EntityName,
			MentionCount:   result.Total(),
			NameMatches:    result.NameMatches,
			DomainMatches:  result.DomainMatches,
			SynonymMatches: result.SynonymMatches,
			CapturedAt:     answer.CapturedAt,
			ProcessedAt:    processedAt,
		}
		if result.FirstNameIndex >= 0 && len(answer.ResponseText) > 0 {
			pct := roundTwo(float64(result.FirstNameIndex) / float64(len(answer.ResponseText)) * 100)
			mention.PositionPct = &pct
			mention.IsInFirstHalf = pct < 50
		}
		mentions = append(mentions, mention)
	}
	return mentions
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
