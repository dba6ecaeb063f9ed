package omnidesk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Adapter maps one backend's conversations and messages onto the shared model.
type Adapter interface {
	Platform() Platform
	ListConversations(ctx context.Context) ([]Conversation, error)
	ListMessages(ctx context.Context, customerID string) ([]Message, error)
	Send(ctx context.Context, to, content string) (*SendResult, error)
}

// Channel is an Adapter for a platform with account-level operations.
type Channel interface {
	Adapter
	Settings(ctx context.Context) (*ChannelSettings, error)
	TestConnection(ctx context.Context) (*ConnectionStatus, error)
	SetAutomation(ctx context.Context, customerID string, enabled bool) error
}

// AdapterOption configures an adapter.
type AdapterOption func(*channelBase)

// WithFallbackName sets the label used when the backend omits a customer
// name. Use the same value for every adapter of a client.
func WithFallbackName(name string) AdapterOption {
	return func(b *channelBase) {
		if name != "" {
			b.fallbackName = name
		}
	}
}

// WithMessageLimit asks the backend for at most the n newest messages of a
// thread. Zero leaves the backend default.
func WithMessageLimit(n int) AdapterOption {
	return func(b *channelBase) {
		if n < 0 {
			n = 0
		}
		b.messageLimit = n
	}
}

// WithAdapterLogger sets the logger for adapter diagnostics.
func WithAdapterLogger(logger zerolog.Logger) AdapterOption {
	return func(b *channelBase) {
		b.logger = logger
	}
}

type channelBase struct {
	gw           *Gateway
	platform     Platform
	fallbackName string
	messageLimit int
	logger       zerolog.Logger
}

func newChannelBase(gw *Gateway, platform Platform, opts []AdapterOption) channelBase {
	b := channelBase{
		gw:           gw,
		platform:     platform,
		fallbackName: DefaultFallbackName,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *channelBase) Platform() Platform { return b.platform }

func (b *channelBase) displayName(names ...string) string {
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	return b.fallbackName
}

// limitQuery returns the limit parameter, or nothing when no limit is set.
func (b *channelBase) limitQuery() url.Values {
	v := url.Values{}
	if b.messageLimit > 0 {
		v.Set("limit", strconv.Itoa(b.messageLimit))
	}
	return v
}

// messagesPath is the thread path under /conversations on a channel gateway.
func (b *channelBase) messagesPath(customerID string) string {
	path := customerPath(customerID) + "/messages"
	if q := b.limitQuery().Encode(); q != "" {
		path += "?" + q
	}
	return path
}

// channelAccount adds the account-level operations served under a channel
// prefix. Only the dedicated channel adapters embed it.
type channelAccount struct {
	channelBase
}

type testResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestConnection asks the backend to probe the channel account. Domain
// failures become a failed status; 401 and transport failures are errors.
func (b *channelAccount) TestConnection(ctx context.Context) (*ConnectionStatus, error) {
	var resp testResponse
	err := b.gw.Do(ctx, http.MethodPost, "/test", nil, &resp)

	var se *StatusError
	if errors.As(err, &se) && se.StatusCode != http.StatusUnauthorized {
		return &ConnectionStatus{OK: false, Message: se.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ConnectionStatus{OK: resp.Success, Message: resp.Message}, nil
}

type automationRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAutomation switches automated replies for one customer.
func (b *channelAccount) SetAutomation(ctx context.Context, customerID string, enabled bool) error {
	return b.gw.Do(ctx, http.MethodPut, customerPath(customerID)+"/automation", automationRequest{Enabled: enabled}, nil)
}

func customerPath(customerID string) string {
	return "/conversations/" + url.PathEscape(customerID)
}

// sortMessages orders by creation time; equal timestamps keep backend order.
func sortMessages(msgs []Message) []Message {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}

// parseTime accepts RFC3339 with or without fractional seconds and returns
// the zero time for anything else.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}

func unixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func unixSeconds(s int64) time.Time {
	if s == 0 {
		return time.Time{}
	}
	return time.Unix(s, 0).UTC()
}
