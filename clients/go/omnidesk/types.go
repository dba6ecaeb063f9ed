package omnidesk

import (
	"encoding/json"
	"time"
)

// Platform is an external messaging network.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
	PlatformMessenger Platform = "messenger"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformWhatsApp, PlatformInstagram, PlatformMessenger}

// ParsePlatform maps a user supplied name to a Platform.
func ParsePlatform(s string) (Platform, bool) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Direction tells who authored a message.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// DefaultFallbackName labels conversations whose backend omitted the customer name.
const DefaultFallbackName = "Unknown"

// Conversation is one customer's thread on one channel. Exactly one of the
// identifier fields is set, the one matching Platform.
type Conversation struct {
	CustomerID    string    `json:"customer_id"`
	Name          string    `json:"name"`
	Platform      Platform  `json:"platform"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	InstagramID   string    `json:"instagram_id,omitempty"`
	MessengerID   string    `json:"messenger_id,omitempty"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
	LastDirection Direction `json:"last_direction,omitempty"`
	MessageCount  int       `json:"message_count"`
	Active        bool      `json:"active"`
	Automation    bool      `json:"automation"`
}

// ExternalID returns the platform identifier of the customer.
func (c Conversation) ExternalID() string {
	switch c.Platform {
	case PlatformWhatsApp:
		return c.PhoneNumber
	case PlatformInstagram:
		return c.InstagramID
	case PlatformMessenger:
		return c.MessengerID
	}
	return ""
}

// setExternalID populates exactly the identifier field matching the platform.
func (c *Conversation) setExternalID(id string) {
	c.PhoneNumber, c.InstagramID, c.MessengerID = "", "", ""
	switch c.Platform {
	case PlatformWhatsApp:
		c.PhoneNumber = id
	case PlatformInstagram:
		c.InstagramID = id
	case PlatformMessenger:
		c.MessengerID = id
	}
}

// Message belongs to exactly one conversation.
type Message struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Body       string    `json:"body"`
	Platform   Platform  `json:"platform"`
	Direction  Direction `json:"direction"`
	CreatedAt  time.Time `json:"created_at"`
}

// SendResult is the outcome of an outbound send. Message is nil when the
// backend only acknowledged the send without echoing the created message.
type SendResult struct {
	MessageID string          `json:"message_id,omitempty"`
	Message   *Message        `json:"message,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// ChannelSettings describes a channel's account binding.
type ChannelSettings struct {
	Platform    Platform        `json:"platform"`
	Connected   bool            `json:"connected"`
	AccountName string          `json:"account_name,omitempty"`
	AccountID   string          `json:"account_id,omitempty"`
	AutoReply   bool            `json:"auto_reply"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// ConnectionStatus is the result of a connectivity test.
type ConnectionStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}
