package omnidesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarnessPlainReply(t *testing.T) {
	b := newTestBackend(t)
	c := b.client(t, Config{})
	h := c.NewHarness("+5491155550001")

	reply := h.Send(context.Background(), "hola")
	assert.Equal(t, RoleAssistant, reply.Role)
	assert.False(t, reply.Failed)
	assert.False(t, reply.Content.Structured)
	assert.Contains(t, reply.Content.Text, "hola")

	turns := h.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "hola", turns[0].Content.Text)
	assert.Equal(t, HarnessIdle, h.State())
}

func TestHarnessStructuredReply(t *testing.T) {
	b := newTestBackend(t)
	c := b.client(t, Config{})
	h := c.NewHarness("5550003")

	reply := h.Send(context.Background(), "Can you send me a photo of the catalog?")
	require.False(t, reply.Failed)
	assert.True(t, reply.Content.Structured)
	assert.Equal(t, "Here is what we have available:", reply.Content.Text)
	assert.Len(t, reply.Content.MediaURLs, 2)
}

func TestHarnessErrorBecomesPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"model unavailable"}`))
	}))
	defer srv.Close()

	session := NewSessionStore()
	session.Login("tok", Identity{})
	h := NewHarness(NewGateway(srv.URL, session).Prefixed("ai", PrefixAI), "c1")

	reply := h.Send(context.Background(), "hello?")
	assert.True(t, reply.Failed)
	assert.Equal(t, HarnessErrorNotice, reply.Content.Text)
	assert.False(t, reply.Content.Structured)
	assert.Equal(t, HarnessIdle, h.State())
	assert.Len(t, h.Transcript(), 2)
	assert.True(t, session.IsAuthenticated())
}

// recordingAI answers every call with a fixed reply and keeps the requests.
type recordingAI struct {
	mu       sync.Mutex
	requests []aiTestRequest
	paths    []string
	reply    string
}

func (a *recordingAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req aiTestRequest
	json.NewDecoder(r.Body).Decode(&req)

	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.paths = append(a.paths, r.URL.Path)
	a.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]string{"response": a.reply})
}

func TestHarnessSendsPriorHistory(t *testing.T) {
	ai := &recordingAI{reply: `{"text":"ok","mediaUrls":["u"]}`}
	srv := httptest.NewServer(ai)
	defer srv.Close()

	h := NewHarness(NewGateway(srv.URL, nil).Prefixed("ai", PrefixAI), "cust-9")
	ctx := context.Background()

	h.Send(ctx, "first")
	h.Send(ctx, "second")

	ai.mu.Lock()
	defer ai.mu.Unlock()
	require.Len(t, ai.requests, 2)
	assert.Equal(t, []string{"/ai/test", "/ai/test"}, ai.paths)

	first := ai.requests[0]
	assert.Equal(t, "first", first.Message)
	assert.Equal(t, "cust-9", first.CustomerID)
	assert.Empty(t, first.History)

	second := ai.requests[1]
	require.Len(t, second.History, 2, "history excludes the turn being sent")
	assert.Equal(t, RoleUser, second.History[0].Role)
	assert.Equal(t, "first", second.History[0].Content)
	assert.Equal(t, RoleAssistant, second.History[1].Role)
	assert.Equal(t, ai.reply, second.History[1].Content, "structured replies are sent back verbatim")
}

func TestHarnessMaxTurns(t *testing.T) {
	srv := httptest.NewServer(&recordingAI{reply: "pong"})
	defer srv.Close()

	h := NewHarness(NewGateway(srv.URL, nil), "c1", WithMaxTurns(4))
	ctx := context.Background()
	for _, msg := range []string{"one", "two", "three"} {
		h.Send(ctx, msg)
	}

	turns := h.Transcript()
	require.Len(t, turns, 4)
	assert.Equal(t, "two", turns[0].Content.Text)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "three", turns[2].Content.Text)
}

func TestHarnessNonPositiveMaxTurnsIsUnbounded(t *testing.T) {
	srv := httptest.NewServer(&recordingAI{reply: "pong"})
	defer srv.Close()

	for _, n := range []int{0, -1, -7} {
		h := NewHarness(NewGateway(srv.URL, nil), "c1", WithMaxTurns(n))
		ctx := context.Background()
		for _, msg := range []string{"one", "two", "three"} {
			h.Send(ctx, msg)
		}

		assert.Len(t, h.Transcript(), 6, "max turns %d", n)
		assert.Equal(t, HarnessIdle, h.State(), "max turns %d", n)
	}
}

func TestHarnessReset(t *testing.T) {
	srv := httptest.NewServer(&recordingAI{reply: "pong"})
	defer srv.Close()

	h := NewHarness(NewGateway(srv.URL, nil), "c1")
	h.Send(context.Background(), "ping")
	require.Len(t, h.Transcript(), 2)

	h.Reset()
	assert.Empty(t, h.Transcript())
	assert.Equal(t, "c1", h.CustomerID())
	assert.Equal(t, "idle", h.State().String())
}

func TestHarnessConcurrentSendsKeepPairs(t *testing.T) {
	srv := httptest.NewServer(&recordingAI{reply: "pong"})
	defer srv.Close()

	h := NewHarness(NewGateway(srv.URL, nil), "c1")
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Send(context.Background(), "hi")
		}()
	}
	wg.Wait()

	turns := h.Transcript()
	require.Len(t, turns, 10)
	for i, turn := range turns {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		assert.Equal(t, want, turn.Role, "turn %d", i)
	}
}
