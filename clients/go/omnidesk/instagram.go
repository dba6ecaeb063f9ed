package omnidesk

import (
	"context"
	"encoding/json"
	"net/http"
)

// Instagram wire shapes. Timestamps are unix milliseconds.
type instagramLastMessage struct {
	Text           string `json:"text"`
	CreatedAt      int64  `json:"created_at"`
	IsFromBusiness bool   `json:"is_from_business"`
}

type instagramConversation struct {
	InstagramUserID   string                `json:"instagram_user_id"`
	Username          string                `json:"username"`
	FullName          string                `json:"full_name"`
	LastMessage       *instagramLastMessage `json:"last_message"`
	MessageCount      int                   `json:"message_count"`
	Active            bool                  `json:"active"`
	AutomationEnabled bool                  `json:"automation_enabled"`
}

type instagramMessage struct {
	MID          string `json:"mid"`
	UserID       string `json:"instagram_user_id"`
	Text         string `json:"text"`
	FromBusiness bool   `json:"from_business"`
	CreatedAt    int64  `json:"created_at"`
}

type instagramSendRequest struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

type instagramSendResponse struct {
	MessageID string            `json:"message_id"`
	Message   *instagramMessage `json:"message,omitempty"`
}

type instagramSettings struct {
	AccountID  string `json:"instagram_account_id"`
	Username   string `json:"username"`
	Connected  bool   `json:"connected"`
	Automation bool   `json:"automation_enabled"`
}

// InstagramAdapter talks to the /instagram backend.
type InstagramAdapter struct {
	channelAccount
}

var _ Channel = (*InstagramAdapter)(nil)

// NewInstagramAdapter builds the adapter on a gateway rooted at /instagram.
func NewInstagramAdapter(gw *Gateway, opts ...AdapterOption) *InstagramAdapter {
	return &InstagramAdapter{channelAccount{newChannelBase(gw, PlatformInstagram, opts)}}
}

// ListConversations returns every Instagram DM thread.
func (a *InstagramAdapter) ListConversations(ctx context.Context) ([]Conversation, error) {
	var resp struct {
		Data []instagramConversation `json:"data"`
	}
	if err := a.gw.Do(ctx, http.MethodGet, "/conversations", nil, &resp); err != nil {
		return nil, err
	}

	convs := make([]Conversation, 0, len(resp.Data))
	for _, ic := range resp.Data {
		c := Conversation{
			CustomerID:   ic.InstagramUserID,
			Name:         a.displayName(ic.FullName, ic.Username),
			Platform:     PlatformInstagram,
			MessageCount: ic.MessageCount,
			Active:       ic.Active,
			Automation:   ic.AutomationEnabled,
		}
		if lm := ic.LastMessage; lm != nil {
			c.LastMessage = lm.Text
			c.LastMessageAt = unixMilli(lm.CreatedAt)
			c.LastDirection = instagramDirection(lm.IsFromBusiness)
		}
		c.setExternalID(ic.InstagramUserID)
		convs = append(convs, c)
	}
	return convs, nil
}

// ListMessages returns the thread with Instagram user customerID, oldest first.
func (a *InstagramAdapter) ListMessages(ctx context.Context, customerID string) ([]Message, error) {
	var resp struct {
		Data []instagramMessage `json:"data"`
	}
	if err := a.gw.Do(ctx, http.MethodGet, a.messagesPath(customerID), nil, &resp); err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(resp.Data))
	for _, im := range resp.Data {
		msgs = append(msgs, a.message(customerID, im))
	}
	return sortMessages(msgs), nil
}

// Send delivers content to the Instagram user to.
func (a *InstagramAdapter) Send(ctx context.Context, to, content string) (*SendResult, error) {
	raw, err := a.gw.DoRaw(ctx, http.MethodPost, "/messages", instagramSendRequest{RecipientID: to, Text: content})
	if err != nil {
		return nil, err
	}

	var resp instagramSendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return &SendResult{Raw: raw}, nil
	}

	result := &SendResult{MessageID: resp.MessageID, Raw: raw}
	if resp.Message != nil {
		m := a.message(to, *resp.Message)
		result.Message = &m
	}
	return result, nil
}

// Settings returns the connected Instagram professional account.
func (a *InstagramAdapter) Settings(ctx context.Context) (*ChannelSettings, error) {
	raw, err := a.gw.DoRaw(ctx, http.MethodGet, "/settings", nil)
	if err != nil {
		return nil, err
	}

	var is instagramSettings
	if err := json.Unmarshal(raw, &is); err != nil {
		return nil, err
	}
	return &ChannelSettings{
		Platform:    PlatformInstagram,
		Connected:   is.Connected,
		AccountName: is.Username,
		AccountID:   is.AccountID,
		AutoReply:   is.Automation,
		Raw:         raw,
	}, nil
}

func (a *InstagramAdapter) message(customerID string, im instagramMessage) Message {
	if im.UserID != "" {
		customerID = im.UserID
	}
	return Message{
		ID:         im.MID,
		CustomerID: customerID,
		Body:       im.Text,
		Platform:   PlatformInstagram,
		Direction:  instagramDirection(im.FromBusiness),
		CreatedAt:  unixMilli(im.CreatedAt),
	}
}

func instagramDirection(fromBusiness bool) Direction {
	if fromBusiness {
		return DirectionOutbound
	}
	return DirectionInbound
}
