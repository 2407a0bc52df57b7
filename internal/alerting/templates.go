package alerting

import (
	"strconv"
	"strings"
	"text/template"

	"github.com/citia/citewatch/internal/model"
)

// Message templates per rule type. Parsed once at package init; the
// fallback covers types without a dedicated message.
var (
	decreaseTmpl = template.Must(template.New("citation_decrease").Parse(
		"Citation share for {{.EntityName}} decreased by {{.AbsChange}}% (from {{.PreviousScore}}% to {{.CurrentScore}}%)"))
	increaseTmpl = template.Must(template.New("citation_increase").Parse(
		"Citation share for {{.EntityName}} increased by {{.PercentChange}}% (from {{.PreviousScore}}% to {{.CurrentScore}}%)"))
	breachTmpl = template.Must(template.New("threshold_breach").Parse(
		"Citation share for {{.EntityName}} is {{.CurrentScore}}% (threshold: {{.Threshold}}%)"))
	fallbackTmpl = template.Must(template.New("fallback").Parse(
		"Alert triggered for rule: {{.RuleName}}"))
)

// messageValues is the flat view the templates render. All numbers are
// pre-formatted so templates never print float noise like 12.300000000000001.
type messageValues struct {
	RuleName      string
	EntityName    string
	CurrentScore  string
	PreviousScore string
	PercentChange string
	AbsChange     string
	Threshold     string
}

// renderMessage produces the human-readable alert body for one triggered
// rule.
func renderMessage(rule *model.AlertRule, data *triggerData) string {
	values := messageValues{
		RuleName:      ruleDisplayName(rule),
		EntityName:    data.EntityName,
		CurrentScore:  formatScore(data.CurrentScore),
		PreviousScore: formatScore(data.PreviousScore),
		PercentChange: formatScore(data.PercentChange),
		AbsChange:     formatScore(abs(data.PercentChange)),
		Threshold:     formatScore(rule.ThresholdValue),
	}
	if values.EntityName == "" {
		values.EntityName = rule.EntityID
	}

	tmpl := fallbackTmpl
	switch rule.Type {
	case model.AlertCitationDecrease:
		tmpl = decreaseTmpl
	case model.AlertCitationIncrease:
		tmpl = increaseTmpl
	case model.AlertThresholdBreach:
		tmpl = breachTmpl
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, values); err != nil {
		return "Alert triggered for rule: " + values.RuleName
	}
	return sb.String()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(roundTwo(v), 'f', -1, 64)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
