// Package alerting implements the alert-evaluation stage: it checks active
// alert rules against the current share scores, persists triggered alert
// events and dispatches notifications.
package alerting

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/citia/citewatch/internal/errors"
	"github.com/citia/citewatch/internal/logging"
	"github.com/citia/citewatch/internal/model"
	"github.com/citia/citewatch/internal/notification"
	"github.com/citia/citewatch/internal/observability/metrics"
)

// Default conditions applied when a rule leaves them unset.
const (
	defaultDecreaseThresholdPct = 10
	defaultIncreaseThresholdPct = 20
)

// RuleSource reads the active alert rules.
type RuleSource interface {
	GetActiveAlertRules(ctx context.Context) ([]model.AlertRule, error)
}

// ScoreReader reads share scores for rule conditions.
type ScoreReader interface {
	GetEntityShareScores(ctx context.Context, entityID, from, to string) ([]model.ShareScore, error)
}

// EventStore appends triggered alert events.
type EventStore interface {
	SaveAlertEvent(ctx context.Context, event *model.AlertEvent) error
}

// Notifier delivers rendered alerts to one channel.
type Notifier interface {
	Send(ctx context.Context, channel string, n *notification.Notification) error
}

// Evaluator is the alert-evaluation stage. Rules are evaluated in
// isolation: one rule failing never aborts the rest of the batch.
type Evaluator struct {
	rules    RuleSource
	scores   ScoreReader
	events   EventStore
	notifier Notifier
	metrics  *metrics.PipelineMetrics
	logger   *slog.Logger
}

// New creates an alert-evaluation stage.
func New(rules RuleSource, scores ScoreReader, events EventStore, notifier Notifier, m *metrics.PipelineMetrics) *Evaluator {
	logger := logging.ForService("alerting")
	if logger == nil {
		logger = slog.Default().With("service", "alerting")
	}
	return &Evaluator{
		rules:    rules,
		scores:   scores,
		events:   events,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// triggerData carries the figures a triggered rule renders into its message.
type triggerData struct {
	EntityID      string  `json:"entity_id"`
	EntityName    string  `json:"entity_name"`
	CurrentScore  float64 `json:"current_score"`
	PreviousScore float64 `json:"previous_score,omitempty"`
	PercentChange float64 `json:"percent_change,omitempty"`
}

// Run evaluates all active rules against the scores as of now and returns
// the number of alerts triggered. Rule failures are logged and counted but
// never abort the pass.
func (ev *Evaluator) Run(ctx context.Context, now time.Time) (int, error) {
	rules, err := ev.rules.GetActiveAlertRules(ctx)
	if err != nil {
		return 0, errors.New(err).
			Component("alerting").
			Category(errors.CategoryAlertRule).
			Context("operation", "load_rules").
			Build()
	}
	if len(rules) == 0 {
		ev.logger.Info("no active alert rules")
		return 0, nil
	}
	ev.logger.Info("alert evaluation started", "rules", len(rules))

	triggered := 0
	warnedReserved := make(map[model.AlertType]bool)

	for i := range rules {
		rule := &rules[i]

		if isReservedType(rule.Type) {
			if !warnedReserved[rule.Type] {
				ev.logger.Warn("alert rule type has no implemented condition, rules of this type never trigger",
					"type", rule.Type)
				warnedReserved[rule.Type] = true
			}
			ev.metrics.RecordRuleEvaluation(string(rule.Type), "skipped")
			continue
		}

		data, err := ev.evaluateRule(ctx, rule, now)
		if err != nil {
			ev.logger.Error("alert rule evaluation failed",
				"rule_id", rule.RuleID,
				"type", rule.Type,
				"error", err)
			ev.metrics.RecordRuleEvaluation(string(rule.Type), "failed")
			continue
		}
		if data == nil {
			ev.metrics.RecordRuleEvaluation(string(rule.Type), "skipped")
			continue
		}

		if err := ev.trigger(ctx, rule, data); err != nil {
			ev.logger.Error("failed to persist alert event",
				"rule_id", rule.RuleID,
				"type", rule.Type,
				"error", err)
			ev.metrics.RecordRuleEvaluation(string(rule.Type), "failed")
			continue
		}
		ev.metrics.RecordRuleEvaluation(string(rule.Type), "triggered")
		triggered++
	}

	ev.logger.Info("alert evaluation completed", "rules", len(rules), "triggered", triggered)
	return triggered, nil
}

func isReservedType(t model.AlertType) bool {
	return t == model.AlertCompetitorMention || t == model.AlertAnswerChange
}

// evaluateRule checks one rule's condition. A nil result means the rule did
// not trigger.
func (ev *Evaluator) evaluateRule(ctx context.Context, rule *model.AlertRule, now time.Time) (*triggerData, error) {
	switch rule.Type {
	case model.AlertCitationDecrease:
		threshold := rule.ThresholdPct
		if threshold <= 0 {
			threshold = defaultDecreaseThresholdPct
		}
		return ev.checkCitationChange(ctx, rule.EntityID, now, func(percentChange float64) bool {
			return percentChange < -threshold
		})

	case model.AlertCitationIncrease:
		threshold := rule.ThresholdPct
		if threshold <= 0 {
			threshold = defaultIncreaseThresholdPct
		}
		return ev.checkCitationChange(ctx, rule.EntityID, now, func(percentChange float64) bool {
			return percentChange > threshold
		})

	case model.AlertThresholdBreach:
		return ev.checkThresholdBreach(ctx, rule, now)

	default:
		ev.logger.Warn("unknown alert rule type", "rule_id", rule.RuleID, "type", rule.Type)
		return nil, nil
	}
}

// checkCitationChange compares yesterday's average share to the day
// before's and triggers when the percent change satisfies the condition.
// Absent or zero baselines never trigger: no meaningful change can be
// computed against them.
func (ev *Evaluator) checkCitationChange(ctx context.Context, entityID string, now time.Time, matches func(float64) bool) (*triggerData, error) {
	current, name, ok, err := ev.avgShareForDate(ctx, entityID, now.AddDate(0, 0, -1))
	if err != nil || !ok {
		return nil, err
	}
	previous, _, ok, err := ev.avgShareForDate(ctx, entityID, now.AddDate(0, 0, -2))
	if err != nil || !ok || previous == 0 {
		return nil, err
	}

	percentChange := roundTwo((current - previous) / previous * 100)
	if !matches(percentChange) {
		return nil, nil
	}
	return &triggerData{
		EntityID:      entityID,
		EntityName:    name,
		CurrentScore:  current,
		PreviousScore: previous,
		PercentChange: percentChange,
	}, nil
}

// checkThresholdBreach compares yesterday's average share against the
// rule's absolute threshold.
func (ev *Evaluator) checkThresholdBreach(ctx context.Context, rule *model.AlertRule, now time.Time) (*triggerData, error) {
	current, name, ok, err := ev.avgShareForDate(ctx, rule.EntityID, now.AddDate(0, 0, -1))
	if err != nil || !ok {
		return nil, err
	}

	operator := rule.Operator
	if operator == "" {
		operator = model.OperatorLessThan
	}

	var breached bool
	switch operator {
	case model.OperatorLessThan:
		breached = current < rule.ThresholdValue
	case model.OperatorGreaterThan:
		breached = current > rule.ThresholdValue
	case model.OperatorEquals:
		breached = current == rule.ThresholdValue
	default:
		return nil, errors.Newf("unknown comparison operator %q", operator).
			Component("alerting").
			Category(errors.CategoryAlertRule).
			Context("rule_id", rule.RuleID).
			Build()
	}
	if !breached {
		return nil, nil
	}
	return &triggerData{
		EntityID:     rule.EntityID,
		EntityName:   name,
		CurrentScore: current,
	}, nil
}

// avgShareForDate averages an entity's share across engines for one
// calendar day. ok is false when the day has no score rows.
func (ev *Evaluator) avgShareForDate(ctx context.Context, entityID string, day time.Time) (avg float64, entityName string, ok bool, err error) {
	date := day.Format(model.DateLayout)
	scores, err := ev.scores.GetEntityShareScores(ctx, entityID, date, date)
	if err != nil {
		return 0, "", false, err
	}
	if len(scores) == 0 {
		return 0, "", false, nil
	}
	sum := 0.0
	for i := range scores {
		sum += scores[i].SharePct
		entityName = scores[i].EntityName
	}
	return roundTwo(sum / float64(len(scores))), entityName, true, nil
}

// trigger persists the alert event and then attempts dispatch on every
// channel the rule names. Event persistence is the only guaranteed part:
// channel failures are logged and do not roll the event back.
func (ev *Evaluator) trigger(ctx context.Context, rule *model.AlertRule, data *triggerData) error {
	message := renderMessage(rule, data)
	severity := rule.Severity
	if severity == "" {
		severity = model.SeverityMedium
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	event := &model.AlertEvent{
		ID:           uuid.New().String(),
		Type:         rule.Type,
		Severity:     severity,
		Message:      message,
		Data:         string(payload),
		SourceRuleID: rule.RuleID,
		CreatedAt:    time.Now(),
	}
	if err := ev.events.SaveAlertEvent(ctx, event); err != nil {
		return err
	}
	ev.metrics.RecordAlertTriggered(string(rule.Type), string(severity))
	ev.logger.Info("alert triggered",
		"rule_id", rule.RuleID,
		"type", rule.Type,
		"severity", severity,
		"entity_id", data.EntityID)

	n := &notification.Notification{
		Title:      "CITIA Alert: " + ruleDisplayName(rule),
		Message:    message,
		Recipients: rule.Recipients,
	}
	for _, channel := range rule.Channels {
		if err := ev.notifier.Send(ctx, channel, n); err != nil {
			ev.logger.Error("alert notification failed",
				"rule_id", rule.RuleID,
				"channel", channel,
				"error", err)
		}
	}
	return nil
}

func ruleDisplayName(rule *model.AlertRule) string {
	if rule.Name != "" {
		return rule.Name
	}
	return string(rule.Type)
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
