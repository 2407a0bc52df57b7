// Package observability provides metrics collection for the citewatch pipeline.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/citia/citewatch/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry     *prometheus.Registry
	Pipeline     *metrics.PipelineMetrics
	Notification *metrics.NotificationMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	pipelineMetrics, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	notificationMetrics, err := metrics.NewNotificationMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification metrics: %w", err)
	}

	return &Metrics{
		registry:     registry,
		Pipeline:     pipelineMetrics,
		Notification: notificationMetrics,
	}, nil
}

// Handler returns an http.Handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
