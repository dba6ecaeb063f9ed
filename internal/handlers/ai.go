package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// AIHistoryEntry is one prior turn sent by the test console.
type AIHistoryEntry struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// AITestRequest is the body of POST /ai/test.
type AITestRequest struct {
	Message    string           `json:"message"`
	CustomerID string           `json:"customerId"`
	History    []AIHistoryEntry `json:"history"`
}

// aiMediaReply is the structured reply shape: text plus media links.
type aiMediaReply struct {
	Text      string   `json:"text"`
	MediaURLs []string `json:"mediaUrls"`
}

var mediaKeywords = []string{"photo", "picture", "image", "catalog", "media"}

// AITest handles POST /ai/test with canned replies. Messages that ask for
// media get a JSON-encoded structured reply; everything else is plain text.
func (h *Handler) AITest(w http.ResponseWriter, r *http.Request) {
	var req AITestRequest
	if !h.decode(w, r, &req) {
		return
	}
	msg, ok := h.requireText(w, "message", req.Message)
	if !ok {
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"response": cannedReply(msg, len(req.History))})
}

func cannedReply(msg string, prior int) string {
	lower := strings.ToLower(msg)
	for _, kw := range mediaKeywords {
		if strings.Contains(lower, kw) {
			b, _ := json.Marshal(aiMediaReply{
				Text: "Here is what we have available:",
				MediaURLs: []string{
					"https://cdn.omnidesk.local/catalog/1.jpg",
					"https://cdn.omnidesk.local/catalog/2.jpg",
				},
			})
			return string(b)
		}
	}
	if prior == 0 {
		return fmt.Sprintf("Hi! Thanks for reaching out. You said: %q", msg)
	}
	return fmt.Sprintf("Got it (%d earlier messages). You said: %q", prior, msg)
}
