package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics contains Prometheus metrics for alert dispatch.
type NotificationMetrics struct {
	registry *prometheus.Registry

	sendsTotal       *prometheus.CounterVec
	sendDuration     *prometheus.HistogramVec
	rateLimitedTotal *prometheus.CounterVec
}

// NewNotificationMetrics creates and registers the dispatch collectors.
func NewNotificationMetrics(registry *prometheus.Registry) (*NotificationMetrics, error) {
	m := &NotificationMetrics{registry: registry}

	m.sendsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citewatch_notification_sends_total",
		Help: "Notification send attempts by channel and status",
	}, []string{"channel", "status"})

	m.sendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "citewatch_notification_send_duration_seconds",
		Help:    "Notification send duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"channel"})

	m.rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citewatch_notification_rate_limited_total",
		Help: "Notification sends rejected by the rate limiter",
	}, []string{"channel"})

	for _, c := range []prometheus.Collector{m.sendsTotal, m.sendDuration, m.rateLimitedTotal} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordSend records one send attempt (status: sent, failed, noop).
func (m *NotificationMetrics) RecordSend(channel, status string, seconds float64) {
	if m == nil {
		return
	}
	m.sendsTotal.WithLabelValues(channel, status).Inc()
	m.sendDuration.WithLabelValues(channel).Observe(seconds)
}

// RecordRateLimited records one send rejected by the rate limiter.
func (m *NotificationMetrics) RecordRateLimited(channel string) {
	if m == nil {
		return
	}
	m.rateLimitedTotal.WithLabelValues(channel).Inc()
}
