package omnidesk

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/omnidesk/internal/metrics"
)

// HarnessErrorNotice replaces the assistant reply when the AI endpoint fails.
const HarnessErrorNotice = "Error: the AI did not respond. Check the backend and try again."

// Role is the author of a harness turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry.
type Turn struct {
	Role    Role      `json:"role"`
	Content Content   `json:"content"`
	At      time.Time `json:"at"`
	Failed  bool      `json:"failed,omitempty"`
}

// HarnessState is Idle between turns and Sending while a reply is awaited.
type HarnessState int

const (
	HarnessIdle HarnessState = iota
	HarnessSending
)

func (s HarnessState) String() string {
	if s == HarnessSending {
		return "sending"
	}
	return "idle"
}

type aiHistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type aiTestRequest struct {
	Message    string           `json:"message"`
	CustomerID string           `json:"customerId"`
	History    []aiHistoryEntry `json:"history"`
}

type aiTestResponse struct {
	Response json.RawMessage `json:"response"`
}

// Harness keeps a client-side dialogue with the backend's reply generator.
// Turns are appended in user/assistant pairs and never removed unless
// WithMaxTurns bounds the transcript or Reset clears it.
type Harness struct {
	gw         *Gateway
	customerID string
	maxTurns   int
	logger     zerolog.Logger
	now        func() time.Time

	turnMu sync.Mutex // held for a whole Send so pairs never interleave

	mu         sync.Mutex
	transcript []Turn
	state      HarnessState
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithMaxTurns keeps at most n turns, dropping the oldest pairs first.
// Zero or a negative n means unbounded.
func WithMaxTurns(n int) HarnessOption {
	return func(h *Harness) {
		switch {
		case n <= 0:
			n = 0
		case n < 2:
			n = 2
		}
		h.maxTurns = n
	}
}

// WithHarnessLogger sets the logger used to report swallowed failures.
func WithHarnessLogger(logger zerolog.Logger) HarnessOption {
	return func(h *Harness) {
		h.logger = logger
	}
}

// NewHarness creates a harness posting to /test on gw, which should be
// rooted at the backend's /ai prefix.
func NewHarness(gw *Gateway, customerID string, opts ...HarnessOption) *Harness {
	h := &Harness{
		gw:         gw,
		customerID: customerID,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CustomerID is the customer the replies are generated for.
func (h *Harness) CustomerID() string { return h.customerID }

// Send appends text as a user turn, asks the backend for a reply and appends
// it as an assistant turn. Failures become a placeholder assistant turn; the
// harness is always Idle again when Send returns.
func (h *Harness) Send(ctx context.Context, text string) Turn {
	h.turnMu.Lock()
	defer h.turnMu.Unlock()

	h.mu.Lock()
	history := make([]aiHistoryEntry, len(h.transcript))
	for i, t := range h.transcript {
		history[i] = aiHistoryEntry{Role: t.Role, Content: t.Content.Raw}
	}
	h.transcript = append(h.transcript, Turn{Role: RoleUser, Content: PlainContent(text), At: h.now()})
	h.state = HarnessSending
	h.mu.Unlock()

	reply := h.ask(ctx, aiTestRequest{Message: text, CustomerID: h.customerID, History: history})

	h.mu.Lock()
	h.transcript = append(h.transcript, reply)
	h.trimLocked()
	h.state = HarnessIdle
	h.mu.Unlock()

	return reply
}

func (h *Harness) ask(ctx context.Context, req aiTestRequest) Turn {
	var resp aiTestResponse
	if err := h.gw.Do(ctx, http.MethodPost, "/test", req, &resp); err != nil {
		h.logger.Warn().Err(err).Str("customer_id", h.customerID).Msg("ai test request failed")
		metrics.HarnessTurns.WithLabelValues("error").Inc()
		return Turn{Role: RoleAssistant, Content: PlainContent(HarnessErrorNotice), At: h.now(), Failed: true}
	}

	content := ParseContent(responseText(resp.Response))
	kind := "text"
	if content.Structured {
		kind = "structured"
	}
	metrics.HarnessTurns.WithLabelValues(kind).Inc()
	return Turn{Role: RoleAssistant, Content: content, At: h.now()}
}

// responseText unwraps a JSON string; any other JSON value is used verbatim.
func responseText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (h *Harness) trimLocked() {
	if h.maxTurns <= 0 || len(h.transcript) <= h.maxTurns {
		return
	}
	excess := len(h.transcript) - h.maxTurns
	if excess%2 == 1 {
		excess++
	}
	h.transcript = append([]Turn(nil), h.transcript[excess:]...)
}

// Transcript returns a copy of all turns.
func (h *Harness) Transcript() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Turn(nil), h.transcript...)
}

// State reports whether a reply is being awaited.
func (h *Harness) State() HarnessState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Reset clears the transcript, waiting for an in-flight Send to finish.
func (h *Harness) Reset() {
	h.turnMu.Lock()
	defer h.turnMu.Unlock()

	h.mu.Lock()
	h.transcript = nil
	h.state = HarnessIdle
	h.mu.Unlock()
}
