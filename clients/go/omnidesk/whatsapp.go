package omnidesk

import (
	"context"
	"encoding/json"
	"net/http"
)

// WhatsApp wire shapes.
type whatsappConversation struct {
	PhoneNumber          string `json:"phone_number"`
	CustomerName         string `json:"customer_name"`
	ProfileName          string `json:"profile_name"`
	LastMessage          string `json:"last_message"`
	LastMessageTime      string `json:"last_message_time"`
	LastMessageDirection string `json:"last_message_direction"`
	TotalMessages        int    `json:"total_messages"`
	IsActive             bool   `json:"is_active"`
	AIEnabled            bool   `json:"ai_enabled"`
}

type whatsappMessage struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Content     string `json:"content"`
	Direction   string `json:"direction"`
	Timestamp   string `json:"timestamp"`
}

type whatsappSendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type whatsappSendResponse struct {
	Success   bool             `json:"success"`
	MessageID string           `json:"message_id"`
	Message   *whatsappMessage `json:"message,omitempty"`
}

type whatsappSettings struct {
	PhoneNumberID      string `json:"phone_number_id"`
	DisplayPhoneNumber string `json:"display_phone_number"`
	BusinessName       string `json:"business_name"`
	Connected          bool   `json:"connected"`
	AIAutoReply        bool   `json:"ai_auto_reply"`
}

// WhatsAppAdapter talks to the /whatsapp backend.
type WhatsAppAdapter struct {
	channelAccount
}

var _ Channel = (*WhatsAppAdapter)(nil)

// NewWhatsAppAdapter builds the adapter on a gateway rooted at /whatsapp.
func NewWhatsAppAdapter(gw *Gateway, opts ...AdapterOption) *WhatsAppAdapter {
	return &WhatsAppAdapter{channelAccount{newChannelBase(gw, PlatformWhatsApp, opts)}}
}

// ListConversations returns every WhatsApp thread.
func (a *WhatsAppAdapter) ListConversations(ctx context.Context) ([]Conversation, error) {
	var resp struct {
		Conversations []whatsappConversation `json:"conversations"`
	}
	if err := a.gw.Do(ctx, http.MethodGet, "/conversations", nil, &resp); err != nil {
		return nil, err
	}

	convs := make([]Conversation, 0, len(resp.Conversations))
	for _, wc := range resp.Conversations {
		c := Conversation{
			CustomerID:    wc.PhoneNumber,
			Name:          a.displayName(wc.CustomerName, wc.ProfileName),
			Platform:      PlatformWhatsApp,
			LastMessage:   wc.LastMessage,
			LastMessageAt: parseTime(wc.LastMessageTime),
			LastDirection: whatsappDirection(wc.LastMessageDirection),
			MessageCount:  wc.TotalMessages,
			Active:        wc.IsActive,
			Automation:    wc.AIEnabled,
		}
		c.setExternalID(wc.PhoneNumber)
		convs = append(convs, c)
	}
	return convs, nil
}

// ListMessages returns the thread with phone number customerID, oldest first.
func (a *WhatsAppAdapter) ListMessages(ctx context.Context, customerID string) ([]Message, error) {
	var resp struct {
		Messages []whatsappMessage `json:"messages"`
	}
	if err := a.gw.Do(ctx, http.MethodGet, a.messagesPath(customerID), nil, &resp); err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(resp.Messages))
	for _, wm := range resp.Messages {
		msgs = append(msgs, a.message(customerID, wm))
	}
	return sortMessages(msgs), nil
}

// Send delivers content to the phone number to.
func (a *WhatsAppAdapter) Send(ctx context.Context, to, content string) (*SendResult, error) {
	raw, err := a.gw.DoRaw(ctx, http.MethodPost, "/send", whatsappSendRequest{To: to, Message: content})
	if err != nil {
		return nil, err
	}

	var resp whatsappSendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return &SendResult{Raw: raw}, nil
	}

	result := &SendResult{MessageID: resp.MessageID, Raw: raw}
	if resp.Message != nil {
		m := a.message(to, *resp.Message)
		result.Message = &m
		if result.MessageID == "" {
			result.MessageID = m.ID
		}
	}
	return result, nil
}

// Settings returns the WhatsApp Business account binding.
func (a *WhatsAppAdapter) Settings(ctx context.Context) (*ChannelSettings, error) {
	raw, err := a.gw.DoRaw(ctx, http.MethodGet, "/settings", nil)
	if err != nil {
		return nil, err
	}

	var ws whatsappSettings
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, err
	}
	return &ChannelSettings{
		Platform:    PlatformWhatsApp,
		Connected:   ws.Connected,
		AccountName: firstNonEmpty(ws.BusinessName, ws.DisplayPhoneNumber),
		AccountID:   ws.PhoneNumberID,
		AutoReply:   ws.AIAutoReply,
		Raw:         raw,
	}, nil
}

func (a *WhatsAppAdapter) message(customerID string, wm whatsappMessage) Message {
	if wm.PhoneNumber != "" {
		customerID = wm.PhoneNumber
	}
	return Message{
		ID:         wm.ID,
		CustomerID: customerID,
		Body:       wm.Content,
		Platform:   PlatformWhatsApp,
		Direction:  whatsappDirection(wm.Direction),
		CreatedAt:  parseTime(wm.Timestamp),
	}
}

func whatsappDirection(s string) Direction {
	switch s {
	case "outbound", "outgoing", "sent":
		return DirectionOutbound
	case "":
		return ""
	}
	return DirectionInbound
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
