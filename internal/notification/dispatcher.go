package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/citia/citewatch/internal/conf"
	"github.com/citia/citewatch/internal/errors"
	"github.com/citia/citewatch/internal/logging"
	"github.com/citia/citewatch/internal/observability/metrics"
)

// Dispatcher routes notifications to channel providers. Sends are
// best-effort per channel: an unconfigured channel is a logged no-op, a
// failing channel returns an error to the caller without affecting other
// channels.
type Dispatcher struct {
	providers         map[string]Provider
	limiter           *RateLimiter
	metrics           *metrics.NotificationMetrics
	logger            *slog.Logger
	defaultRecipients []string
	sendTimeout       time.Duration
}

// NewDispatcher builds providers for the configured channels and validates
// their configuration.
func NewDispatcher(settings *conf.NotificationSettings, m *metrics.NotificationMetrics) (*Dispatcher, error) {
	logger := logging.ForService("notification")
	if logger == nil {
		logger = slog.Default().With("service", "notification")
	}

	providers := map[string]Provider{
		ChannelEmail: NewShoutrrrProvider(ChannelEmail, settings.Email.Enabled, settings.Email.URL, "toaddresses", settings.SendTimeout),
		ChannelSlack: NewShoutrrrProvider(ChannelSlack, settings.Slack.Enabled, settings.Slack.URL, "", settings.SendTimeout),
	}
	for name, p := range providers {
		if !p.IsEnabled() {
			logger.Info("notification channel not configured, alerts will be logged only", "channel", name)
			continue
		}
		if err := p.ValidateConfig(); err != nil {
			return nil, errors.New(err).
				Component("notification").
				Category(errors.CategoryConfiguration).
				Context("channel", name).
				Build()
		}
	}

	return &Dispatcher{
		providers:         providers,
		limiter:           NewRateLimiter(settings.RequestsPerMinute, settings.BurstSize),
		metrics:           m,
		logger:            logger,
		defaultRecipients: settings.DefaultRecipients,
		sendTimeout:       settings.SendTimeout,
	}, nil
}

// Send delivers one notification on one channel. Unknown and unconfigured
// channels are no-ops that log the message instead of erroring, so an alert
// rule naming an unconfigured channel still succeeds.
func (d *Dispatcher) Send(ctx context.Context, channel string, n *Notification) error {
	start := time.Now()

	provider, ok := d.providers[channel]
	if !ok {
		d.logger.Warn("unknown notification channel", "channel", channel, "title", n.Title)
		d.metrics.RecordSend(channel, "noop", time.Since(start).Seconds())
		return nil
	}
	if !provider.IsEnabled() {
		d.logger.Info("notification channel not configured, logging alert",
			"channel", channel,
			"title", n.Title,
			"message", n.Message)
		d.metrics.RecordSend(channel, "noop", time.Since(start).Seconds())
		return nil
	}

	if !d.limiter.Allow() {
		d.metrics.RecordRateLimited(channel)
		return errors.Newf("notification rate limit exceeded").
			Component("notification").
			Category(errors.CategoryNotification).
			Context("channel", channel).
			Build()
	}

	if len(n.Recipients) == 0 && channel == ChannelEmail {
		n.Recipients = d.defaultRecipients
	}

	sendCtx := ctx
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	if err := provider.Send(sendCtx, n); err != nil {
		d.metrics.RecordSend(channel, "failed", time.Since(start).Seconds())
		return errors.New(err).
			Component("notification").
			Category(errors.CategoryNotification).
			Context("channel", channel).
			Build()
	}

	d.metrics.RecordSend(channel, "sent", time.Since(start).Seconds())
	d.logger.Debug("notification sent", "channel", channel, "title", n.Title)
	return nil
}
