package handlers

import (
	"net/http"

	"github.com/eldtechnologies/omnidesk/internal/models"
)

type messengerConversation struct {
	PSID        string `json:"psid"`
	Name        string `json:"name,omitempty"`
	Snippet     string `json:"snippet"`
	UpdatedTime int64  `json:"updated_time"`
	LastSender  string `json:"last_sender,omitempty"`
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

func messengerSender(direction string) string {
	if direction == models.DirectionOutbound {
		return "page"
	}
	return "user"
}

// MessengerConversations handles GET /messenger/conversations.
// Times are Unix seconds.
func (h *Handler) MessengerConversations(w http.ResponseWriter, r *http.Request) {
	sums, err := h.ds.ListConversations(r.Context(), models.PlatformMessenger)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	out := make([]messengerConversation, 0, len(sums))
	for _, s := range sums {
		mc := messengerConversation{
			PSID:       s.CustomerID,
			Name:       s.Name,
			Count:      s.MessageCount,
			Archived:   !s.Active,
			BotEnabled: s.Automation,
		}
		if lm := s.LastMessage; lm != nil {
			mc.Snippet = lm.Body
			mc.UpdatedTime = lm.Timestamp / 1000
			mc.LastSender = messengerSender(lm.Direction)
		}
		out = append(out, mc)
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"conversations": out})
}

// MessengerMessages handles GET /messenger/conversations/{id}/messages.
func (h *Handler) MessengerMessages(w http.ResponseWriter, r *http.Request) {
	msgs, ok := h.messagesFor(w, r, models.PlatformMessenger, customerParam(r))
	if !ok {
		return
	}
	out := make([]messengerMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messengerMessage{
			MessageID:   m.ID,
			PSID:        m.CustomerID,
			Message:     m.Body,
			Sender:      messengerSender(m.Direction),
			CreatedTime: m.Timestamp / 1000,
		})
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"messages": out})
}

// MessengerSend handles POST /messenger/send. The Send API only
// acknowledges; the created message is not echoed.
func (h *Handler) MessengerSend(w http.ResponseWriter, r *http.Request) {
	var req messengerSendRequest
	if !h.decode(w, r, &req) {
		return
	}
	psid, ok := h.requireText(w, "psid", req.PSID)
	if !ok {
		return
	}
	body, ok := h.requireText(w, "message", req.Message)
	if !ok {
		return
	}

	msg, err := h.recordOutbound(r.Context(), models.PlatformMessenger, psid, body)
	if err != nil {
		h.sendError(w, models.PlatformMessenger, err)
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{
		"message_id":   msg.ID,
		"recipient_id": psid,
	})
}

// MessengerSettings handles GET /messenger/settings.
func (h *Handler) MessengerSettings(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.channel(w, r, models.PlatformMessenger)
	if !ok {
		return
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{
		"page_id":     ch.AccountID,
		"page_name":   ch.AccountName,
		"connected":   ch.Connected,
		"bot_enabled": ch.AutoReply,
	})
}
