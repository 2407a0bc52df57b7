package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// ShoutrrrProvider sends via nicholas-fedor/shoutrrr. One provider serves
// one channel with one service URL (smtp://... for email, slack://... for
// slack).
type ShoutrrrProvider struct {
	name    string
	enabled bool
	url     string
	sender  *router.ServiceRouter
	timeout time.Duration
	// recipientParam is the shoutrrr param that carries per-send recipients,
	// e.g. "toaddresses" for smtp. Empty for channels without addressing.
	recipientParam string
}

// NewShoutrrrProvider creates a provider for one channel.
func NewShoutrrrProvider(name string, enabled bool, url, recipientParam string, timeout time.Duration) *ShoutrrrProvider {
	sp := &ShoutrrrProvider{
		name:           strings.TrimSpace(name),
		enabled:        enabled && strings.TrimSpace(url) != "",
		url:            strings.TrimSpace(url),
		timeout:        timeout,
		recipientParam: recipientParam,
	}
	if sp.name == "" {
		sp.name = "shoutrrr"
	}
	return sp
}

func (s *ShoutrrrProvider) GetName() string { return s.name }
func (s *ShoutrrrProvider) IsEnabled() bool { return s.enabled }

// ValidateConfig builds the sender, which also validates the service URL.
func (s *ShoutrrrProvider) ValidateConfig() error {
	if !s.enabled {
		return nil
	}
	sender, err := shoutrrr.CreateSender(s.url)
	if err != nil {
		return fmt.Errorf("invalid %s notification URL: %w", s.name, err)
	}
	s.sender = sender
	if s.timeout > 0 {
		s.sender.Timeout = s.timeout
	}
	s.sender.SetLogger(log.New(io.Discard, "", 0))
	return nil
}

// Send delivers one notification through the service router.
func (s *ShoutrrrProvider) Send(ctx context.Context, n *Notification) error {
	if s.sender == nil {
		return fmt.Errorf("%s sender not initialized", s.name)
	}
	_ = ctx // the router applies its own configured timeout

	params := stypes.Params{}
	if n.Title != "" {
		params.SetTitle(n.Title)
	}
	if s.recipientParam != "" && len(n.Recipients) > 0 {
		params[s.recipientParam] = strings.Join(n.Recipients, ",")
	}

	errs := s.sender.Send(n.Message, &params)
	for _, e := range errs {
		if e != nil {
			return fmt.Errorf("%s send failed: %w", s.name, e)
		}
	}
	return nil
}
