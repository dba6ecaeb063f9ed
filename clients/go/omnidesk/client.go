// Package omnidesk provides a client for the Omnidesk customer-messaging
// console API: session handling, per-channel adapters over WhatsApp,
// Instagram and Messenger, and an AI reply test harness.
package omnidesk

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Backend path prefixes.
const (
	PrefixAuth          = "/auth"
	PrefixWhatsApp      = "/whatsapp"
	PrefixInstagram     = "/instagram"
	PrefixMessenger     = "/messenger"
	PrefixConversations = "/conversations"
	PrefixAI            = "/ai"
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// FallbackName labels customers without a name on every channel.
	FallbackName string

	// Channels enabled in the aggregator; empty means all platforms.
	Channels []Platform

	// GenericConversations lists through the cross-channel /conversations
	// backend instead of each channel's own endpoints.
	GenericConversations bool

	// MessageLimit caps how many of the newest messages a thread read
	// returns; zero leaves the backend default.
	MessageLimit int

	// RequestsPerSecond caps outgoing calls; zero disables the limiter.
	RequestsPerSecond float64

	HTTPClient *http.Client
	Session    *SessionStore
	Logger     *zerolog.Logger
}

// Client bundles the gateways and adapters sharing one session.
type Client struct {
	Session    *SessionStore
	API        *Gateway
	Auth       *AuthAPI
	WhatsApp   *WhatsAppAdapter
	Instagram  *InstagramAdapter
	Messenger  *MessengerAdapter
	Aggregator *Aggregator

	ai     *Gateway
	logger zerolog.Logger
}

// NewClient creates a new Omnidesk client.
func NewClient(cfg Config) *Client {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	session := cfg.Session
	if session == nil {
		session = NewSessionStore()
	}

	var opts []GatewayOption
	if cfg.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, WithRequestStage(RateLimit(rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst))))
	}
	opts = append(opts, WithResponseStage(RequestLogger(logger), RecordMetrics()))

	api := NewGateway(cfg.BaseURL, session, opts...)
	adapterOpts := []AdapterOption{
		WithFallbackName(cfg.FallbackName),
		WithMessageLimit(cfg.MessageLimit),
		WithAdapterLogger(logger),
	}

	c := &Client{
		Session:   session,
		API:       api,
		Auth:      NewAuthAPI(api.Prefixed("auth", PrefixAuth)),
		WhatsApp:  NewWhatsAppAdapter(api.Prefixed("whatsapp", PrefixWhatsApp), adapterOpts...),
		Instagram: NewInstagramAdapter(api.Prefixed("instagram", PrefixInstagram), adapterOpts...),
		Messenger: NewMessengerAdapter(api.Prefixed("messenger", PrefixMessenger), adapterOpts...),
		ai:        api.Prefixed("ai", PrefixAI),
		logger:    logger,
	}

	enabled := cfg.Channels
	if len(enabled) == 0 {
		enabled = Platforms
	}
	conversations := api.Prefixed("conversations", PrefixConversations)
	adapters := make([]Adapter, 0, len(enabled))
	for _, p := range enabled {
		if cfg.GenericConversations {
			adapters = append(adapters, NewConversationsAdapter(conversations, p, adapterOpts...))
			continue
		}
		if ch, err := c.Channel(p); err == nil {
			adapters = append(adapters, ch)
		}
	}
	c.Aggregator = NewAggregator(adapters...)

	return c
}

// Channel returns the dedicated adapter for p.
func (c *Client) Channel(p Platform) (Channel, error) {
	switch p {
	case PlatformWhatsApp:
		return c.WhatsApp, nil
	case PlatformInstagram:
		return c.Instagram, nil
	case PlatformMessenger:
		return c.Messenger, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrPlatformNotConfigured, p)
}

// NewHarness starts an AI test dialogue for customerID.
func (c *Client) NewHarness(customerID string, opts ...HarnessOption) *Harness {
	opts = append([]HarnessOption{WithHarnessLogger(c.logger)}, opts...)
	return NewHarness(c.ai, customerID, opts...)
}
