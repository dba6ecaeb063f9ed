package omnidesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Shared wire shape served by the cross-channel /conversations backend.
type sharedConversation struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	Platform      string `json:"platform"`
	PhoneNumber   string `json:"phone_number"`
	InstagramID   string `json:"instagram_id"`
	MessengerID   string `json:"messenger_id"`
	LastMessage   string `json:"last_message"`
	LastMessageAt string `json:"last_message_at"`
	LastDirection string `json:"last_direction"`
	MessageCount  int    `json:"message_count"`
	IsActive      bool   `json:"is_active"`
	Automation    bool   `json:"automation"`
}

type sharedMessage struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Content    string `json:"content"`
	Platform   string `json:"platform"`
	Direction  string `json:"direction"`
	CreatedAt  string `json:"created_at"`
}

type sharedSendRequest struct {
	Content string `json:"content"`
}

// ConversationsAdapter reads one platform's threads through the generic
// /conversations backend. Rows tagged with another platform are dropped.
// It has no account operations; use the platform's Channel for those.
type ConversationsAdapter struct {
	channelBase
}

var _ Adapter = (*ConversationsAdapter)(nil)

// NewConversationsAdapter builds a generic adapter for platform on a gateway
// rooted at /conversations.
func NewConversationsAdapter(gw *Gateway, platform Platform, opts ...AdapterOption) *ConversationsAdapter {
	return &ConversationsAdapter{channelBase: newChannelBase(gw, platform, opts)}
}

func (a *ConversationsAdapter) query() string {
	return "?" + url.Values{"platform": {string(a.platform)}}.Encode()
}

func (a *ConversationsAdapter) messagesQuery() string {
	q := a.limitQuery()
	q.Set("platform", string(a.platform))
	return "?" + q.Encode()
}

// ListConversations returns the platform's threads.
func (a *ConversationsAdapter) ListConversations(ctx context.Context) ([]Conversation, error) {
	var resp struct {
		Conversations []sharedConversation `json:"conversations"`
	}
	if err := a.gw.Do(ctx, http.MethodGet, a.query(), nil, &resp); err != nil {
		return nil, err
	}

	convs := make([]Conversation, 0, len(resp.Conversations))
	for _, sc := range resp.Conversations {
		if Platform(sc.Platform) != a.platform {
			a.logger.Warn().
				Str("platform", string(a.platform)).
				Str("row_platform", sc.Platform).
				Str("customer_id", sc.CustomerID).
				Msg("dropping conversation tagged with another platform")
			continue
		}

		c := Conversation{
			CustomerID:    sc.CustomerID,
			Name:          a.displayName(sc.CustomerName),
			Platform:      a.platform,
			LastMessage:   sc.LastMessage,
			LastMessageAt: parseTime(sc.LastMessageAt),
			LastDirection: Direction(sc.LastDirection),
			MessageCount:  sc.MessageCount,
			Active:        sc.IsActive,
			Automation:    sc.Automation,
		}
		c.PhoneNumber, c.InstagramID, c.MessengerID = sc.PhoneNumber, sc.InstagramID, sc.MessengerID
		id := c.ExternalID()
		if id == "" {
			id = sc.CustomerID
		}
		c.setExternalID(id)
		convs = append(convs, c)
	}
	return convs, nil
}

// ListMessages returns customerID's thread, oldest first.
func (a *ConversationsAdapter) ListMessages(ctx context.Context, customerID string) ([]Message, error) {
	var resp struct {
		Messages []sharedMessage `json:"messages"`
	}
	path := "/" + url.PathEscape(customerID) + "/messages" + a.messagesQuery()
	if err := a.gw.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(resp.Messages))
	for _, sm := range resp.Messages {
		msgs = append(msgs, a.message(customerID, sm))
	}
	return sortMessages(msgs), nil
}

// Send posts content into customerID's thread.
func (a *ConversationsAdapter) Send(ctx context.Context, to, content string) (*SendResult, error) {
	path := "/" + url.PathEscape(to) + "/messages" + a.query()
	raw, err := a.gw.DoRaw(ctx, http.MethodPost, path, sharedSendRequest{Content: content})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Message *sharedMessage `json:"message"`
	}
	result := &SendResult{Raw: raw}
	if err := json.Unmarshal(raw, &resp); err == nil && resp.Message != nil {
		m := a.message(to, *resp.Message)
		result.MessageID = m.ID
		result.Message = &m
	}
	return result, nil
}

func (a *ConversationsAdapter) message(customerID string, sm sharedMessage) Message {
	if sm.CustomerID != "" {
		customerID = sm.CustomerID
	}
	dir := Direction(sm.Direction)
	if dir != DirectionOutbound {
		dir = DirectionInbound
	}
	return Message{
		ID:         sm.ID,
		CustomerID: customerID,
		Body:       sm.Content,
		Platform:   a.platform,
		Direction:  dir,
		CreatedAt:  parseTime(sm.CreatedAt),
	}
}
