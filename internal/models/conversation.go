package models

import "time"

// Platform values stored with every conversation and message.
const (
	PlatformWhatsApp  = "whatsapp"
	PlatformInstagram = "instagram"
	PlatformMessenger = "messenger"
)

// Platforms lists every platform in display order.
var Platforms = []string{PlatformWhatsApp, PlatformInstagram, PlatformMessenger}

// Direction values.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// IsPlatform reports whether p is a known platform.
func IsPlatform(p string) bool {
	return p == PlatformWhatsApp || p == PlatformInstagram || p == PlatformMessenger
}

// Conversation is one customer's thread on one platform. CustomerID is the
// platform identifier: phone number, Instagram user id or page-scoped id.
type Conversation struct {
	Platform   string    `json:"platform"`
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name,omitempty"`
	Handle     string    `json:"handle,omitempty"` // Instagram username
	Active     bool      `json:"active"`
	Automation bool      `json:"automation"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConversationSummary is a conversation with its denormalized last message.
type ConversationSummary struct {
	Conversation
	LastMessage  *Message `json:"last_message,omitempty"`
	MessageCount int      `json:"message_count"`
}
