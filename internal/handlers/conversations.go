package handlers

import (
	"net/http"
	"strings"

	"github.com/eldtechnologies/omnidesk/internal/models"
)

// sharedConversation is the platform-neutral row served under /conversations.
type sharedConversation struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	Platform      string `json:"platform"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	InstagramID   string `json:"instagram_id,omitempty"`
	MessengerID   string `json:"messenger_id,omitempty"`
	LastMessage   string `json:"last_message"`
	LastMessageAt string `json:"last_message_at,omitempty"`
	LastDirection string `json:"last_direction,omitempty"`
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

func toSharedMessage(m models.Message) sharedMessage {
	return sharedMessage{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		Content:    m.Body,
		Platform:   m.Platform,
		Direction:  m.Direction,
		CreatedAt:  rfc3339Millis(m.Timestamp),
	}
}

// platformParam reads ?platform=. Empty is allowed only when optional.
func (h *Handler) platformParam(w http.ResponseWriter, r *http.Request, optional bool) (string, bool) {
	p := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("platform")))
	if p == "" && optional {
		return "", true
	}
	if !models.IsPlatform(p) {
		h.Error(w, http.StatusBadRequest, "platform must be whatsapp, instagram or messenger")
		return "", false
	}
	return p, true
}

// ListConversations handles GET /conversations[?platform=].
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	platform, ok := h.platformParam(w, r, true)
	if !ok {
		return
	}

	sums, err := h.ds.ListConversations(r.Context(), platform)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	out := make([]sharedConversation, 0, len(sums))
	for _, s := range sums {
		sc := sharedConversation{
			CustomerID:   s.CustomerID,
			CustomerName: s.Name,
			Platform:     s.Platform,
			MessageCount: s.MessageCount,
			IsActive:     s.Active,
			Automation:   s.Automation,
		}
		switch s.Platform {
		case models.PlatformWhatsApp:
			sc.PhoneNumber = s.CustomerID
		case models.PlatformInstagram:
			sc.InstagramID = s.CustomerID
		case models.PlatformMessenger:
			sc.MessengerID = s.CustomerID
		}
		if lm := s.LastMessage; lm != nil {
			sc.LastMessage = lm.Body
			sc.LastMessageAt = rfc3339Millis(lm.Timestamp)
			sc.LastDirection = lm.Direction
		}
		out = append(out, sc)
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"conversations": out})
}

// ConversationMessages handles GET /conversations/{id}/messages?platform=.
func (h *Handler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	platform, ok := h.platformParam(w, r, false)
	if !ok {
		return
	}
	msgs, ok := h.messagesFor(w, r, platform, customerParam(r))
	if !ok {
		return
	}
	out := make([]sharedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toSharedMessage(m))
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"messages": out})
}

// SendConversationMessage handles POST /conversations/{id}/messages?platform=.
func (h *Handler) SendConversationMessage(w http.ResponseWriter, r *http.Request) {
	platform, ok := h.platformParam(w, r, false)
	if !ok {
		return
	}
	customerID := customerParam(r)

	var req sharedSendRequest
	if !h.decode(w, r, &req) {
		return
	}
	content, ok := h.requireText(w, "content", req.Content)
	if !ok {
		return
	}

	msg, err := h.recordOutbound(r.Context(), platform, customerID, content)
	if err != nil {
		h.sendError(w, platform, err)
		return
	}
	h.JSON(w, http.StatusCreated, map[string]interface{}{"message": toSharedMessage(*msg)})
}
