package omnidesk

import (
	"context"
	"encoding/json"
	"net/http"
)

// Messenger wire shapes. Timestamps are unix seconds; senders are "page" or "user".
type messengerConversation struct {
	PSID        string `json:"psid"`
	Name        string `json:"name"`
	Snippet     string `json:"snippet"`
	UpdatedTime int64  `json:"updated_time"`
	LastSender  string `json:"last_sender"`
	Count       int    `json:"count"`
	Archived    bool   `json:"archived"`
	BotEnabled  bool   `json:"bot_enabled"`
}

type messengerMessage struct {
	MessageID   string `json:"message_id"`
	PSID        string `json:"psid"`
	Message     string `json:"message"`
	Sender      string `json:"sender"`
	CreatedTime int64  `json:"created_time"`
}

type messengerSendRequest struct {
	PSID    string `json:"psid"`
	Message string `json:"message"`
}

type messengerSettings struct {
	PageID     string `json:"page_id"`
	PageName   string `json:"page_name"`
	Connected  bool   `json:"connected"`
	BotEnabled bool   `json:"bot_enabled"`
}

// MessengerAdapter talks to the /messenger backend.
type MessengerAdapter struct {
	channelAccount
}

var _ Channel = (*MessengerAdapter)(nil)

// NewMessengerAdapter builds the adapter on a gateway rooted at /messenger.
func NewMessengerAdapter(gw *Gateway, opts ...AdapterOption) *MessengerAdapter {
	return &MessengerAdapter{channelAccount{newChannelBase(gw, PlatformMessenger, opts)}}
}

// ListConversations returns every Messenger thread of the page.
func (a *MessengerAdapter) ListConversations(ctx context.Context) ([]Conversation, error) {
	var resp struct {
		Conversations []messengerConversation `json:"conversations"`
	}
	if err := a.gw.Do(ctx, http.MethodGet, "/conversations", nil, &resp); err != nil {
		return nil, err
	}

	convs := make([]Conversation, 0, len(resp.Conversations))
	for _, mc := range resp.Conversations {
		c := Conversation{
			CustomerID:    mc.PSID,
			Name:          a.displayName(mc.Name),
			Platform:      PlatformMessenger,
			LastMessage:   mc.Snippet,
			LastMessageAt: unixSeconds(mc.UpdatedTime),
			MessageCount:  mc.Count,
			Active:        !mc.Archived,
			Automation:    mc.BotEnabled,
		}
		if mc.LastSender != "" {
			c.LastDirection = messengerDirection(mc.LastSender)
		}
		c.setExternalID(mc.PSID)
		convs = append(convs, c)
	}
	return convs, nil
}

// ListMessages returns the thread with page-scoped id customerID, oldest first.
func (a *MessengerAdapter) ListMessages(ctx context.Context, customerID string) ([]Message, error) {
	var resp struct {
		Messages []messengerMessage `json:"messages"`
	}
	if err := a.gw.Do(ctx, http.MethodGet, a.messagesPath(customerID), nil, &resp); err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(resp.Messages))
	for _, mm := range resp.Messages {
		customer := customerID
		if mm.PSID != "" {
			customer = mm.PSID
		}
		msgs = append(msgs, Message{
			ID:         mm.MessageID,
			CustomerID: customer,
			Body:       mm.Message,
			Platform:   PlatformMessenger,
			Direction:  messengerDirection(mm.Sender),
			CreatedAt:  unixSeconds(mm.CreatedTime),
		})
	}
	return sortMessages(msgs), nil
}

// Send delivers content to the page-scoped id to. The Messenger backend only
// acknowledges, so the result never carries a Message.
func (a *MessengerAdapter) Send(ctx context.Context, to, content string) (*SendResult, error) {
	raw, err := a.gw.DoRaw(ctx, http.MethodPost, "/send", messengerSendRequest{PSID: to, Message: content})
	if err != nil {
		return nil, err
	}

	var ack struct {
		MessageID string `json:"message_id"`
	}
	_ = json.Unmarshal(raw, &ack)
	return &SendResult{MessageID: ack.MessageID, Raw: raw}, nil
}

// Settings returns the connected Facebook page.
func (a *MessengerAdapter) Settings(ctx context.Context) (*ChannelSettings, error) {
	raw, err := a.gw.DoRaw(ctx, http.MethodGet, "/settings", nil)
	if err != nil {
		return nil, err
	}

	var ms messengerSettings
	if err := json.Unmarshal(raw, &ms); err != nil {
		return nil, err
	}
	return &ChannelSettings{
		Platform:    PlatformMessenger,
		Connected:   ms.Connected,
		AccountName: ms.PageName,
		AccountID:   ms.PageID,
		AutoReply:   ms.BotEnabled,
		Raw:         raw,
	}, nil
}

func messengerDirection(sender string) Direction {
	if sender == "page" {
		return DirectionOutbound
	}
	return DirectionInbound
}
