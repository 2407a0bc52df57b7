// Package trigger exposes the HTTP surface that starts pipeline stages.
// Deliveries are at-least-once: the handler acknowledges with 202 as soon as
// the action is accepted and runs the stage in the background, relying on
// idempotent stage writes to absorb redelivery.
package trigger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/errors"
	"github.com/citia/citewatch/internal/logging"
	"github.com/citia/citewatch/internal/observability"
	"github.com/citia/citewatch/internal/observability/metrics"
)

// Actions accepted by the trigger endpoint.
const (
	ActionExtract   = "extract"
	ActionAggregate = "aggregate"
	ActionAlert     = "alert"
)

// StageFunc runs one pipeline stage to completion.
type StageFunc func(ctx context.Context) error

// pushEnvelope is the Pub/Sub push delivery wrapper. Data carries the
// base64-encoded trigger payload.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type triggerPayload struct {
	Action string `json:"action"`
}

// Controller owns the trigger HTTP server and the background stage runs it
// spawns.
type Controller struct {
	echo     *echo.Echo
	stages   map[string]StageFunc
	timeout  time.Duration
	listen   string
	pipeline *metrics.PipelineMetrics
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// New builds the controller and registers its routes. stages maps action
// names to the stage implementations; actions without a stage are rejected.
func New(settings *conf.Settings, stages map[string]StageFunc, m *observability.Metrics) *Controller {
	logger := logging.ForService("trigger")
	if logger == nil {
		logger = slog.Default().With("service", "trigger")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	c := &Controller{
		echo:    e,
		stages:  stages,
		timeout: settings.Pipeline.StageTimeout,
		listen:  settings.HTTP.Listen,
		logger:  logger,
	}
	if m != nil {
		c.pipeline = m.Pipeline
	}

	e.POST("/", c.handleTrigger)
	e.GET("/health", func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "OK")
	})
	if settings.Metrics.Enabled && m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	return c
}

// Start serves until Shutdown is called.
func (c *Controller) Start() error {
	c.logger.Info("trigger server listening", "addr", c.listen)
	err := c.echo.Start(c.listen)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting triggers and waits for in-flight stage runs
// until ctx expires.
func (c *Controller) Shutdown(ctx context.Context) error {
	if err := c.echo.Shutdown(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) handleTrigger(ctx echo.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable request body"})
	}

	action, err := decodeAction(body)
	if err != nil {
		c.logger.Warn("trigger request rejected", "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	done, ok := c.Trigger(action)
	if !ok {
		c.logger.Warn("trigger request rejected", "action", action)
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "unknown action: " + action})
	}
	// fire-and-forget: the caller gets the ack, not the stage result
	_ = done

	return ctx.JSON(http.StatusAccepted, map[string]string{
		"status": "accepted",
		"action": action,
	})
}

// decodeAction extracts the action from either a Pub/Sub push envelope or a
// plain JSON payload.
func decodeAction(body []byte) (string, error) {
	var envelope pushEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message.Data != "" {
		decoded, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil {
			return "", fmt.Errorf("invalid message data encoding: %w", err)
		}
		body = decoded
	}

	var payload triggerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("invalid trigger payload: %w", err)
	}
	if payload.Action == "" {
		return "", fmt.Errorf("missing action")
	}
	return payload.Action, nil
}

// Trigger accepts an action for background execution. The returned channel
// reports the stage outcome after the run completes; acceptance and
// completion are deliberately separate so the HTTP handler can acknowledge
// immediately while tests can still wait for the result.
func (c *Controller) Trigger(action string) (<-chan error, bool) {
	stage, ok := c.stages[action]
	if !ok {
		return nil, false
	}

	done := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		runCtx := context.Background()
		if c.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, c.timeout)
			defer cancel()
		}

		start := time.Now()
		c.logger.Info("stage run started", "action", action)
		err := stage(runCtx)
		elapsed := time.Since(start)

		if err != nil {
			c.logger.Error("stage run failed", "action", action, "duration", elapsed, "error", err)
			c.pipeline.RecordStageRun(action, "failed", elapsed.Seconds())
			c.pipeline.RecordStageError(action, string(errors.CategoryOf(err)))
		} else {
			c.logger.Info("stage run completed", "action", action, "duration", elapsed)
			c.pipeline.RecordStageRun(action, "success", elapsed.Seconds())
		}
		done <- err
	}()
	return done, true
}
