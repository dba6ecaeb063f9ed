package omnidesk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestGatewayAttachesBearerToken(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	session := NewSessionStore()
	gw := NewGateway(srv.URL, session)
	ctx := context.Background()

	require.NoError(t, gw.Do(ctx, http.MethodGet, "/x", nil, nil))
	assert.Equal(t, "", got.Load())

	session.Login("tok-123", Identity{})
	require.NoError(t, gw.Do(ctx, http.MethodGet, "/x", nil, nil))
	assert.Equal(t, "Bearer tok-123", got.Load())
}

func TestGatewayUnauthorizedLogsOutEverywhere(t *testing.T) {
	var mu sync.Mutex
	var authHeaders []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		mu.Unlock()
		if r.URL.Path == "/whatsapp/conversations" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid or expired token"}`))
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	session := NewSessionStore()
	session.Login("stale", Identity{ID: "u1"})

	var changes int
	session.OnChange(func(Session) { changes++ })

	api := NewGateway(srv.URL, session)
	wa := api.Prefixed("whatsapp", PrefixWhatsApp)
	ig := api.Prefixed("instagram", PrefixInstagram)

	err := wa.Do(context.Background(), http.MethodGet, "/conversations", nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "invalid or expired token")
	assert.False(t, session.IsAuthenticated())
	assert.Equal(t, 1, changes)

	require.NoError(t, ig.Do(context.Background(), http.MethodGet, "/conversations", nil, nil))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer stale", ""}, authHeaders)
}

func TestGatewayServerErrorKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database error"}`))
	}))
	defer srv.Close()

	session := NewSessionStore()
	session.Login("tok", Identity{})
	gw := NewGateway(srv.URL, session)

	err := gw.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "database error", se.Message)
	assert.True(t, session.IsAuthenticated())
}

func TestGatewayTimeoutIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	session := NewSessionStore()
	session.Login("tok", Identity{})
	gw := NewGateway(srv.URL, session, WithTimeout(50*time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, gw.Timeout())

	start := time.Now()
	err := gw.Do(context.Background(), http.MethodGet, "/slow", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, session.IsAuthenticated(), "a timeout is not an authentication failure")
}

func TestGatewayDefaultTimeout(t *testing.T) {
	gw := NewGateway("http://example.invalid", nil)
	assert.Equal(t, DefaultTimeout, gw.Timeout())
	assert.Equal(t, "api", gw.Name())

	wa := gw.Prefixed("whatsapp", "/whatsapp/")
	assert.Equal(t, "http://example.invalid/whatsapp", wa.BaseURL())
	assert.Same(t, gw.Session(), wa.Session())
}

func TestGatewayStageOrder(t *testing.T) {
	var serverSaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverSaw = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	session := NewSessionStore()
	session.Login("tok", Identity{})

	var stageSaw string
	sawLoggedIn := true
	gw := NewGateway(srv.URL, session,
		WithRequestStage(func(req *http.Request) (*http.Request, error) {
			stageSaw = req.Header.Get("Authorization")
			return req, nil
		}),
		WithResponseStage(func(req *http.Request, resp *http.Response, err error) (*http.Response, error) {
			sawLoggedIn = session.IsAuthenticated()
			return resp, err
		}),
	)

	err := gw.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	assert.True(t, IsUnauthorized(err))
	assert.Empty(t, stageSaw, "custom request stages run before the token is attached")
	assert.Equal(t, "Bearer tok", serverSaw)
	assert.False(t, sawLoggedIn, "custom response stages run after the session stage")
}

func TestGatewayReadsTokenAfterWaitingStages(t *testing.T) {
	var serverSaw []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		serverSaw = append(serverSaw, r.Header.Get("Authorization"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	session := NewSessionStore()
	session.Login("stale", Identity{})

	// Stands in for a limiter wait during which another call's 401 ends the session.
	logoutWhileWaiting := func(req *http.Request) (*http.Request, error) {
		session.Logout()
		return req, nil
	}
	gw := NewGateway(srv.URL, session, WithRequestStage(logoutWhileWaiting))
	require.NoError(t, gw.Do(context.Background(), http.MethodGet, "/x", nil, nil))

	session.Login("fresh", Identity{})
	gw = NewGateway(srv.URL, session, WithRequestStage(RateLimit(rate.NewLimiter(rate.Inf, 1))))
	require.NoError(t, gw.Do(context.Background(), http.MethodGet, "/x", nil, nil))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "Bearer fresh"}, serverSaw)
}

func TestRequestStageErrorAborts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	boom := errors.New("boom")
	gw := NewGateway(srv.URL, nil, WithRequestStage(func(*http.Request) (*http.Request, error) {
		return nil, boom
	}))

	err := gw.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(0), hits.Load())
}

func TestNewStatusErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"bad"}`, "bad"},
		{"message field", `{"message":"worse"}`, "worse"},
		{"detail field", `{"detail":"worst"}`, "worst"},
		{"plain text", "upstream down\n", "upstream down"},
		{"other json", `{"code":7}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := newStatusError(http.StatusBadGateway, []byte(tt.body))
			assert.Equal(t, tt.want, se.Message)
			assert.Equal(t, http.StatusBadGateway, StatusCode(se))
		})
	}
	assert.Equal(t, "omnidesk error 502: Bad Gateway", newStatusError(502, nil).Error())
}

func TestNewStatusErrorTruncatesOnRuneBoundary(t *testing.T) {
	body := []byte(strings.Repeat("é", 300))
	se := newStatusError(http.StatusBadGateway, body)

	assert.True(t, utf8.ValidString(se.Message))
	assert.Equal(t, maxErrorMessageRunes, utf8.RuneCountInString(se.Message))
	assert.Equal(t, body, se.Body, "the raw body is kept whole")

	short := newStatusError(http.StatusBadGateway, []byte("déjà vu"))
	assert.Equal(t, "déjà vu", short.Message)
}
