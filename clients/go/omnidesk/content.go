package omnidesk

import (
	"encoding/json"
	"strings"
)

// Content is a harness turn body: plain text, or text plus media when the
// assistant reply was a structured payload.
type Content struct {
	Text       string   `json:"text"`
	MediaURLs  []string `json:"mediaUrls,omitempty"`
	Structured bool     `json:"structured"`

	// Raw is the exact string exchanged with the backend.
	Raw string `json:"-"`
}

// PlainContent wraps s as plain text.
func PlainContent(s string) Content {
	return Content{Text: s, Raw: s}
}

// ParseContent treats raw as structured only when it is a JSON object holding
// a string "text" or a string array "mediaUrls". Anything else, including
// JSON of another shape, is plain text.
func ParseContent(raw string) Content {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return PlainContent(raw)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return PlainContent(raw)
	}

	textRaw, hasText := fields["text"]
	mediaRaw, hasMedia := fields["mediaUrls"]
	if !hasText && !hasMedia {
		return PlainContent(raw)
	}

	c := Content{Structured: true, Raw: raw}
	if hasText && string(textRaw) != "null" {
		if err := json.Unmarshal(textRaw, &c.Text); err != nil {
			return PlainContent(raw)
		}
	}
	if hasMedia && string(mediaRaw) != "null" {
		if err := json.Unmarshal(mediaRaw, &c.MediaURLs); err != nil {
			return PlainContent(raw)
		}
	}
	return c
}
