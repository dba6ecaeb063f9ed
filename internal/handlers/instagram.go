package handlers

import (
	"net/http"

	"github.com/eldtechnologies/omnidesk/internal/models"
)

type instagramLastMessage struct {
	Text           string `json:"text"`
	CreatedAt      int64  `json:"created_at"`
	IsFromBusiness bool   `json:"is_from_business"`
}

type instagramConversation struct {
	InstagramUserID   string                `json:"instagram_user_id"`
	Username          string                `json:"username,omitempty"`
	FullName          string                `json:"full_name,omitempty"`
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

func toInstagramMessage(m models.Message) instagramMessage {
	return instagramMessage{
		MID:          m.ID,
		UserID:       m.CustomerID,
		Text:         m.Body,
		FromBusiness: m.Direction == models.DirectionOutbound,
		CreatedAt:    m.Timestamp,
	}
}

// InstagramConversations handles GET /instagram/conversations.
func (h *Handler) InstagramConversations(w http.ResponseWriter, r *http.Request) {
	sums, err := h.ds.ListConversations(r.Context(), models.PlatformInstagram)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	out := make([]instagramConversation, 0, len(sums))
	for _, s := range sums {
		ic := instagramConversation{
			InstagramUserID:   s.CustomerID,
			Username:          s.Handle,
			FullName:          s.Name,
			MessageCount:      s.MessageCount,
			Active:            s.Active,
			AutomationEnabled: s.Automation,
		}
		if lm := s.LastMessage; lm != nil {
			ic.LastMessage = &instagramLastMessage{
				Text:           lm.Body,
				CreatedAt:      lm.Timestamp,
				IsFromBusiness: lm.Direction == models.DirectionOutbound,
			}
		}
		out = append(out, ic)
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

// InstagramMessages handles GET /instagram/conversations/{id}/messages.
func (h *Handler) InstagramMessages(w http.ResponseWriter, r *http.Request) {
	msgs, ok := h.messagesFor(w, r, models.PlatformInstagram, customerParam(r))
	if !ok {
		return
	}
	out := make([]instagramMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toInstagramMessage(m))
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"data": out})
}

// InstagramSend handles POST /instagram/messages.
func (h *Handler) InstagramSend(w http.ResponseWriter, r *http.Request) {
	var req instagramSendRequest
	if !h.decode(w, r, &req) {
		return
	}
	to, ok := h.requireText(w, "recipient_id", req.RecipientID)
	if !ok {
		return
	}
	text, ok := h.requireText(w, "text", req.Text)
	if !ok {
		return
	}

	msg, err := h.recordOutbound(r.Context(), models.PlatformInstagram, to, text)
	if err != nil {
		h.sendError(w, models.PlatformInstagram, err)
		return
	}

	im := toInstagramMessage(*msg)
	h.JSON(w, http.StatusCreated, map[string]interface{}{
		"message_id": msg.ID,
		"message":    im,
	})
}

// InstagramSettings handles GET /instagram/settings.
func (h *Handler) InstagramSettings(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.channel(w, r, models.PlatformInstagram)
	if !ok {
		return
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{
		"instagram_account_id": ch.AccountID,
		"username":             ch.AccountName,
		"connected":            ch.Connected,
		"automation_enabled":   ch.AutoReply,
	})
}
