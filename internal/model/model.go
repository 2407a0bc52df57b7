// Package model defines the data model shared by the citewatch pipeline stages.
package model

import "time"

// Engine identifies an AI answer surface being monitored.
type Engine string

const (
	EngineGoogleAIOverview Engine = "google_ai_overview"
	EngineGeminiAIMode     Engine = "gemini_ai_mode"
	EnginePerplexity       Engine = "perplexity_answers"
	EngineChatGPTSearch    Engine = "chatgpt_search"
	EngineBingDeep         Engine = "bing_deep"
)

// DateLayout is the calendar-day format used for score keys and range reads.
const DateLayout = "2006-01-02"

// RawAnswer is one engine response to one query. Produced by the fetch
// stage, immutable once written; the pipeline only reads these.
type RawAnswer struct {
	ID           uint   `gorm:"primaryKey"`
	QueryID      string `gorm:"index:idx_raw_answers_query"`
	QueryText    string
	Engine       Engine `gorm:"index:idx_raw_answers_engine"`
	ResponseText string
	CapturedAt   time.Time `gorm:"index:idx_raw_answers_captured"`
}

// EntityStatus is the tracking state of an entity.
type EntityStatus string

const (
	EntityActive EntityStatus = "active"
	EntityPaused EntityStatus = "paused"
)

// Entity is a tracked brand or competitor. Owned by the CRUD layer,
// read-only to the pipeline. EntityID is the join key everywhere downstream.
type Entity struct {
	EntityID   string `gorm:"primaryKey"`
	EntityName string
	Domains    []string     `gorm:"serializer:json"`
	Synonyms   []string     `gorm:"serializer:json"`
	Status     EntityStatus `gorm:"index:idx_entities_status"`
}

// Mention is one observed occurrence of one entity in one raw answer.
// MentionID is a deterministic function of (queryID, entityID) so
// reprocessing upserts instead of duplicating.
type Mention struct {
	MentionID      string `gorm:"primaryKey"`
	QueryID        string `gorm:"index:idx_mentions_query"`
	QueryText      string
	Engine         Engine `gorm:"index:idx_mentions_engine_entity"`
	EntityID       string `gorm:"index:idx_mentions_engine_entity"`
	EntityName     string
	MentionCount   int
	NameMatches    int
	DomainMatches  int
	SynonymMatches int
	// PositionPct is the character offset of the first entityName occurrence
	// divided by text length, as a percentage. Nil when only a synonym or
	// domain matched.
	PositionPct   *float64
	IsInFirstHalf bool
	CapturedAt    time.Time `gorm:"index:idx_mentions_captured"`
	ProcessedAt   time.Time
}

// MentionID derives the deterministic mention key for a (query, entity) pair.
func MentionID(queryID, entityID string) string {
	return queryID + "_" + entityID
}

// ShareCategory buckets a share percentage.
type ShareCategory string

const (
	CategoryDominant ShareCategory = "dominant"
	CategoryStrong   ShareCategory = "strong"
	CategoryModerate ShareCategory = "moderate"
	CategoryWeak     ShareCategory = "weak"
	CategoryMinimal  ShareCategory = "minimal"
)

// CategorizeShare maps a share percentage to its category. The category is a
// pure function of the share and is recomputed whenever a score is written.
func CategorizeShare(share float64) ShareCategory {
	switch {
	case share >= 75:
		return CategoryDominant
	case share >= 50:
		return CategoryStrong
	case share >= 25:
		return CategoryModerate
	case share >= 10:
		return CategoryWeak
	default:
		return CategoryMinimal
	}
}

// ShareScore is one entity's citation share for one engine on one calendar
// day. Keyed by (engine, entity_id, date); recomputed and overwritten on
// reprocessing.
type ShareScore struct {
	Engine            Engine `gorm:"primaryKey"`
	EntityID          string `gorm:"primaryKey"`
	Date              string `gorm:"primaryKey;index:idx_share_scores_date"`
	EntityName        string
	TotalMentions     int
	UniqueQueries     int
	AvgPosition       float64
	FirstHalfMentions int
	SharePct          float64
	Category          ShareCategory
	CalculatedAt      time.Time
}

// QueryVolume is the number of distinct queries run against one engine on
// one calendar day. Derived from raw answers.
type QueryVolume struct {
	Engine       Engine
	Date         string
	TotalQueries int
}

// TrendDelta is the change in average citation share between two comparable
// windows. Computed on demand, never persisted. Pairs with an absent or zero
// previous-window average are excluded upstream.
type TrendDelta struct {
	Engine        Engine
	EntityID      string
	EntityName    string
	CurrentScore  float64
	PreviousScore float64
	ScoreChange   float64
	PercentChange float64
}

// AlertType enumerates the rule trigger conditions.
type AlertType string

const (
	AlertCitationIncrease  AlertType = "citation_increase"
	AlertCitationDecrease  AlertType = "citation_decrease"
	AlertThresholdBreach   AlertType = "threshold_breach"
	AlertCompetitorMention AlertType = "competitor_mention"
	AlertAnswerChange      AlertType = "answer_change"
)

// Severity is the urgency of a rule and the events it produces.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ComparisonOperator for threshold_breach rules.
type ComparisonOperator string

const (
	OperatorLessThan    ComparisonOperator = "less_than"
	OperatorGreaterThan ComparisonOperator = "greater_than"
	OperatorEquals      ComparisonOperator = "equals"
)

// AlertRule is a user-defined trigger condition. Owned by the CRUD layer,
// read-only to the evaluator.
type AlertRule struct {
	RuleID       string `gorm:"primaryKey"`
	Name         string
	Type         AlertType `gorm:"index:idx_alert_rules_type"`
	Active       bool      `gorm:"index:idx_alert_rules_active"`
	EntityID     string
	ThresholdPct float64
	// ThresholdValue is the absolute share compared against for
	// threshold_breach rules.
	ThresholdValue float64
	Operator       ComparisonOperator
	Severity       Severity
	Channels       []string `gorm:"serializer:json"`
	Recipients     []string `gorm:"serializer:json"`
}

// AlertEvent is one triggered alert instance. Append-only; never edited or
// deleted by the pipeline.
type AlertEvent struct {
	ID           string `gorm:"primaryKey"`
	Type         AlertType
	Severity     Severity
	Message      string
	Data         string
	SourceRuleID string    `gorm:"index:idx_alert_events_rule"`
	CreatedAt    time.Time `gorm:"index:idx_alert_events_created"`
}
