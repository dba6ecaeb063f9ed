package handlers

import (
	"net/http"

	"github.com/eldtechnologies/omnidesk/internal/models"
)

type whatsappConversation struct {
	PhoneNumber          string `json:"phone_number"`
	CustomerName         string `json:"customer_name,omitempty"`
	ProfileName          string `json:"profile_name,omitempty"`
	LastMessage          string `json:"last_message"`
	LastMessageTime      string `json:"last_message_time,omitempty"`
	LastMessageDirection string `json:"last_message_direction,omitempty"`
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

func toWhatsAppMessage(m models.Message) whatsappMessage {
	return whatsappMessage{
		ID:          m.ID,
		PhoneNumber: m.CustomerID,
		Content:     m.Body,
		Direction:   m.Direction,
		Timestamp:   rfc3339Millis(m.Timestamp),
	}
}

// WhatsAppConversations handles GET /whatsapp/conversations.
func (h *Handler) WhatsAppConversations(w http.ResponseWriter, r *http.Request) {
	sums, err := h.ds.ListConversations(r.Context(), models.PlatformWhatsApp)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	out := make([]whatsappConversation, 0, len(sums))
	for _, s := range sums {
		wc := whatsappConversation{
			PhoneNumber:   s.CustomerID,
			CustomerName:  s.Name,
			ProfileName:   s.Handle,
			TotalMessages: s.MessageCount,
			IsActive:      s.Active,
			AIEnabled:     s.Automation,
		}
		if s.LastMessage != nil {
			wc.LastMessage = s.LastMessage.Body
			wc.LastMessageTime = rfc3339Millis(s.LastMessage.Timestamp)
			wc.LastMessageDirection = s.LastMessage.Direction
		}
		out = append(out, wc)
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"conversations": out})
}

// WhatsAppMessages handles GET /whatsapp/conversations/{id}/messages.
func (h *Handler) WhatsAppMessages(w http.ResponseWriter, r *http.Request) {
	msgs, ok := h.messagesFor(w, r, models.PlatformWhatsApp, customerParam(r))
	if !ok {
		return
	}
	out := make([]whatsappMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toWhatsAppMessage(m))
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"messages": out})
}

// WhatsAppSend handles POST /whatsapp/send.
func (h *Handler) WhatsAppSend(w http.ResponseWriter, r *http.Request) {
	var req whatsappSendRequest
	if !h.decode(w, r, &req) {
		return
	}
	to, ok := h.requireText(w, "to", req.To)
	if !ok {
		return
	}
	body, ok := h.requireText(w, "message", req.Message)
	if !ok {
		return
	}

	msg, err := h.recordOutbound(r.Context(), models.PlatformWhatsApp, to, body)
	if err != nil {
		h.sendError(w, models.PlatformWhatsApp, err)
		return
	}

	wm := toWhatsAppMessage(*msg)
	h.JSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"message_id": msg.ID,
		"message":    wm,
	})
}

// WhatsAppSettings handles GET /whatsapp/settings.
func (h *Handler) WhatsAppSettings(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.channel(w, r, models.PlatformWhatsApp)
	if !ok {
		return
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{
		"phone_number_id": ch.AccountID,
		"business_name":   ch.AccountName,
		"connected":       ch.Connected,
		"ai_auto_reply":   ch.AutoReply,
	})
}
