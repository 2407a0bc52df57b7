// Package notification delivers alert messages to the configured channels
// (email, slack). Channels are independent: one channel failing or being
// unconfigured never blocks another.
package notification

import "context"

// Channel names understood by the dispatcher.
const (
	ChannelEmail = "email"
	ChannelSlack = "slack"
)

// Notification is one message to deliver.
type Notification struct {
	// Title is the subject line for channels that have one.
	Title string
	// Message is the rendered alert body.
	Message string
	// Recipients overrides the channel's default recipients where the
	// channel supports addressing (email). Empty means channel defaults.
	Recipients []string
}

// Provider sends notifications through one external service.
type Provider interface {
	// GetName returns the channel name the provider serves.
	GetName() string
	// IsEnabled reports whether the provider is configured and active.
	IsEnabled() bool
	// ValidateConfig checks the provider configuration and prepares the
	// underlying sender.
	ValidateConfig() error
	// Send delivers one notification.
	Send(ctx context.Context, n *Notification) error
}
