// Package pipeline wires the stores, metrics and notification channels into
// the three runnable pipeline stages.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/citia/citewatch/internal/aggregator"
	"github.com/citia/citewatch/internal/alerting"
	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/datastore"
	"github.com/citia/citewatch/internal/extractor"
	"github.com/citia/citewatch/internal/logging"
	"github.com/citia/citewatch/internal/notification"
	"github.com/citia/citewatch/internal/observability"
	"github.com/citia/citewatch/internal/trigger"
)

// Runner owns one wired instance of the pipeline: the open datastore, the
// metric collectors and the three stages.
type Runner struct {
	settings   *conf.Settings
	store      datastore.Interface
	metrics    *observability.Metrics
	extractor  *extractor.Extractor
	aggregator *aggregator.Aggregator
	evaluator  *alerting.Evaluator
	logger     *slog.Logger
}

// NewRunner opens the datastore and builds every stage. The caller must
// Close the runner when done.
func NewRunner(settings *conf.Settings) (*Runner, error) {
	logger := logging.ForService("pipeline")
	if logger == nil {
		logger = slog.Default().With("service", "pipeline")
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("error initializing metrics: %w", err)
	}

	store := datastore.New(settings)
	if store == nil {
		return nil, fmt.Errorf("no database backend configured")
	}
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("error opening datastore: %w", err)
	}

	dispatcher, err := notification.NewDispatcher(&settings.Notification, m.Notification)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("error building notification dispatcher: %w", err)
	}

	// The extractor reads the entity list once per answer batch; the cache
	// keeps repeated triggers from hammering the entities table.
	entityStore := datastore.NewCachingEntityStore(store)

	return &Runner{
		settings:   settings,
		store:      store,
		metrics:    m,
		extractor:  extractor.New(store, entityStore, store, m.Pipeline, settings.Pipeline.Extract.MaxConcurrency),
		aggregator: aggregator.New(store, store, store, m.Pipeline, settings.Pipeline.Aggregate.WindowDays, settings.Pipeline.Trend.WindowDays),
		evaluator:  alerting.New(store, store, store, dispatcher, m.Pipeline),
		logger:     logger,
	}, nil
}

// Metrics exposes the runner's collectors for the HTTP endpoint.
func (r *Runner) Metrics() *observability.Metrics { return r.metrics }

// Close releases the datastore connection.
func (r *Runner) Close() error { return r.store.Close() }

// Extract runs mention extraction over the configured trailing window.
func (r *Runner) Extract(ctx context.Context) error {
	end := time.Now()
	start := end.Add(-time.Duration(r.settings.Pipeline.Extract.WindowHours) * time.Hour)
	_, err := r.extractor.Run(ctx, start, end)
	return err
}

// Aggregate recomputes share scores for the configured window and logs the
// resulting trend deltas.
func (r *Runner) Aggregate(ctx context.Context) error {
	now := time.Now()
	if _, err := r.aggregator.Run(ctx, now); err != nil {
		return err
	}

	trends, err := r.aggregator.ComputeTrends(ctx, now)
	if err != nil {
		return err
	}
	for i := range trends {
		t := &trends[i]
		r.logger.Info("trend computed",
			"engine", t.Engine,
			"entity_id", t.EntityID,
			"entity_name", t.EntityName,
			"current", t.CurrentScore,
			"previous", t.PreviousScore,
			"change_pct", t.PercentChange)
	}
	return nil
}

// Alert evaluates the active alert rules.
func (r *Runner) Alert(ctx context.Context) error {
	_, err := r.evaluator.Run(ctx, time.Now())
	return err
}

// Stages maps trigger actions to the stage implementations.
func (r *Runner) Stages() map[string]trigger.StageFunc {
	return map[string]trigger.StageFunc{
		trigger.ActionExtract:   r.Extract,
		trigger.ActionAggregate: r.Aggregate,
		trigger.ActionAlert:     r.Alert,
	}
}
