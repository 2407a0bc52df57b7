// Package metrics provides Prometheus collectors for citewatch components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for the three pipeline stages.
type PipelineMetrics struct {
	registry *prometheus.Registry

	stageRunsTotal   *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	stageErrorsTotal *prometheus.CounterVec

	answersProcessedTotal  prometheus.Counter
	answersSkippedTotal    prometheus.Counter
	mentionsExtractedTotal prometheus.Counter

	scoresComputedTotal prometheus.Counter
	trendsComputedTotal prometheus.Counter

	rulesEvaluatedTotal  *prometheus.CounterVec
	alertsTriggeredTotal *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers the pipeline collectors.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}

	m.stageRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citewatch_stage_runs_total",
		Help: "Total stage invocations by stage and result",
	}, []string{"stage", "result"})

	m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "citewatch_stage_duration_seconds",
		Help:    "Stage run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"stage"})

	m.stageErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citewatch_stage_errors_total",
		Help: "Total stage errors by stage and category",
	}, []string{"stage", "category"})

	m.answersProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citewatch_answers_processed_total",
		Help: "Raw answers run through mention extraction",
	})

	m.answersSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citewatch_answers_skipped_total",
		Help: "Malformed raw answers skipped during extraction",
	})

	m.mentionsExtractedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citewatch_mentions_extracted_total",
		Help: "Mention records produced by extraction",
	})

	m.scoresComputedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citewatch_scores_computed_total",
		Help: "Share score rows computed by aggregation",
	})

	m.trendsComputedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citewatch_trends_computed_total",
		Help: "Trend deltas computed",
	})

	m.rulesEvaluatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citewatch_rules_evaluated_total",
		Help: "Alert rule evaluations by rule type and outcome",
	}, []string{"type", "outcome"})

	m.alertsTriggeredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citewatch_alerts_triggered_total",
		Help: "Alert events persisted by rule type and severity",
	}, []string{"type", "severity"})

	collectors := []prometheus.Collector{
		m.stageRunsTotal,
		m.stageDuration,
		m.stageErrorsTotal,
		m.answersProcessedTotal,
		m.answersSkippedTotal,
		m.mentionsExtractedTotal,
		m.scoresComputedTotal,
		m.trendsComputedTotal,
		m.rulesEvaluatedTotal,
		m.alertsTriggeredTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordStageRun records one completed stage invocation.
func (m *PipelineMetrics) RecordStageRun(stage, result string, seconds float64) {
	if m == nil {
		return
	}
	m.stageRunsTotal.WithLabelValues(stage, result).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordStageError records a stage error by category.
func (m *PipelineMetrics) RecordStageError(stage, category string) {
	if m == nil {
		return
	}
	m.stageErrorsTotal.WithLabelValues(stage, category).Inc()
}

// RecordExtraction records extraction stage counters.
func (m *PipelineMetrics) RecordExtraction(processed, skipped, mentions int) {
	if m == nil {
		return
	}
	m.answersProcessedTotal.Add(float64(processed))
	m.answersSkippedTotal.Add(float64(skipped))
	m.mentionsExtractedTotal.Add(float64(mentions))
}

// RecordScores records the number of share score rows written.
func (m *PipelineMetrics) RecordScores(count int) {
	if m == nil {
		return
	}
	m.scoresComputedTotal.Add(float64(count))
}

// RecordTrends records the number of trend deltas computed.
func (m *PipelineMetrics) RecordTrends(count int) {
	if m == nil {
		return
	}
	m.trendsComputedTotal.Add(float64(count))
}

// RecordRuleEvaluation records one rule evaluation outcome
// (triggered, skipped, failed, not_triggered).
func (m *PipelineMetrics) RecordRuleEvaluation(ruleType, outcome string) {
	if m == nil {
		return
	}
	m.rulesEvaluatedTotal.WithLabelValues(ruleType, outcome).Inc()
}

// RecordAlertTriggered records one persisted alert event.
func (m *PipelineMetrics) RecordAlertTriggered(ruleType, severity string) {
	if m == nil {
		return
	}
	m.alertsTriggeredTotal.WithLabelValues(ruleType, severity).Inc()
}
