package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/omnidesk/internal/crypto"
	"github.com/eldtechnologies/omnidesk/internal/store"
)

func newTestRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()
	ds := store.NewMemoryStore()
	hash, err := crypto.HashPassword("pw")
	require.NoError(t, err)
	require.NoError(t, store.Seed(context.Background(), ds, hash))
	return NewRouter(zerolog.Nop(), ds, store.NewMemoryTokenStore(), opts)
}

func call(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	w, out := call(t, h, http.MethodPost, "/auth/login", "", `{"email":"ADMIN@omnidesk.local","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, Options{})
	w, out := call(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", out["status"])

	channels, ok := out["channels"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, channels["whatsapp"])
	assert.Equal(t, false, channels["messenger"])
}

func TestRootListsPlatforms(t *testing.T) {
	h := newTestRouter(t, Options{})
	w, out := call(t, h, http.MethodGet, "/api", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "omnidesk", out["name"])
	assert.Equal(t, []interface{}{"whatsapp", "instagram", "messenger"}, out["platforms"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, Options{})
	call(t, h, http.MethodGet, "/health", "", "")

	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "omnidesk_http_requests_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t, Options{})
	for _, path := range []string{"/auth/me", "/whatsapp/conversations", "/instagram/settings", "/conversations"} {
		w, out := call(t, h, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "missing bearer token", out["error"], path)

		w, _ = call(t, h, http.MethodGet, path, "bogus", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestLoginFlow(t *testing.T) {
	h := newTestRouter(t, Options{})

	w, out := call(t, h, http.MethodPost, "/auth/login", "", `{"email":"admin@omnidesk.local","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", out["error"])

	w, _ = call(t, h, http.MethodPost, "/auth/login", "", `{"email":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := login(t, h)

	w, out = call(t, h, http.MethodGet, "/auth/me", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	user := out["user"].(map[string]interface{})
	assert.Equal(t, store.SeedAdminEmail, user["email"])
	assert.NotContains(t, w.Body.String(), "password")

	w, _ = call(t, h, http.MethodPost, "/auth/logout", token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, h, http.MethodGet, "/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	h := newTestRouter(t, Options{LoginPerMinute: 1})

	w, _ := call(t, h, http.MethodPost, "/auth/login", "", `{"email":"x@y.z","password":"a"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, h, http.MethodPost, "/auth/login", "", `{"email":"x@y.z","password":"a"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestWhatsAppRoutes(t *testing.T) {
	h := newTestRouter(t, Options{})
	token := login(t, h)

	w, out := call(t, h, http.MethodGet, "/whatsapp/conversations", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	convs := out["conversations"].([]interface{})
	require.Len(t, convs, 2)
	first := convs[0].(map[string]interface{})
	assert.Equal(t, "+5491155550001", first["phone_number"])
	assert.Equal(t, "Lucía Gómez", first["customer_name"])
	assert.EqualValues(t, 3, first["total_messages"])

	second := convs[1].(map[string]interface{})
	_, hasName := second["customer_name"]
	assert.False(t, hasName, "unnamed customers omit the name")

	w, out = call(t, h, http.MethodGet, "/whatsapp/conversations/+5491155550001/messages", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["messages"], 3)

	w, _ = call(t, h, http.MethodPost, "/whatsapp/send", token, `{"to":"+5491155550001"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = call(t, h, http.MethodPost, "/whatsapp/send", token, `{"to":"+5491155550001","message":"ok"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, out["success"])
	assert.NotEmpty(t, out["message_id"])

	w, _ = call(t, h, http.MethodPut, "/whatsapp/conversations/+5491155550001/automation", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "enabled is required")

	w, _ = call(t, h, http.MethodPut, "/whatsapp/conversations/+5491155550001/automation", token, `{"enabled":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInstagramWireShape(t *testing.T) {
	h := newTestRouter(t, Options{})
	token := login(t, h)

	w, out := call(t, h, http.MethodGet, "/instagram/conversations", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := out["data"].([]interface{})
	require.Len(t, data, 1)
	row := data[0].(map[string]interface{})
	assert.Equal(t, "5550003", row["instagram_user_id"])
	assert.Equal(t, "marco.rossi", row["username"])
	last := row["last_message"].(map[string]interface{})
	assert.Equal(t, true, last["is_from_business"])
	assert.Greater(t, last["created_at"].(float64), float64(1e12), "instagram times are unix milliseconds")
}

func TestMessengerWireShape(t *testing.T) {
	h := newTestRouter(t, Options{})
	token := login(t, h)

	w, out := call(t, h, http.MethodGet, "/messenger/conversations", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	row := out["conversations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "7000000000000004", row["psid"])
	assert.Equal(t, "page", row["last_sender"])
	assert.Less(t, row["updated_time"].(float64), float64(1e11), "messenger times are unix seconds")

	w, out = call(t, h, http.MethodPost, "/messenger/test", token, "")
	assert.Equal(t, http.StatusFailedDependency, w.Code)
	assert.Contains(t, out["error"], "not connected")
}

func TestGenericConversations(t *testing.T) {
	h := newTestRouter(t, Options{})
	token := login(t, h)

	w, out := call(t, h, http.MethodGet, "/conversations", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["conversations"], 4)

	w, out = call(t, h, http.MethodGet, "/conversations?platform=instagram", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := out["conversations"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "5550003", rows[0].(map[string]interface{})["instagram_id"])

	w, _ = call(t, h, http.MethodGet, "/conversations?platform=telegram", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = call(t, h, http.MethodGet, "/conversations/5550003/messages", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "messages need a platform")

	w, out = call(t, h, http.MethodGet, "/conversations/5550003/messages?platform=instagram", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["messages"], 2)
}

func TestAITest(t *testing.T) {
	h := newTestRouter(t, Options{})
	token := login(t, h)

	w, out := call(t, h, http.MethodPost, "/ai/test", token, `{"message":"hello","customerId":"c1","history":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, out["response"], "hello")

	w, out = call(t, h, http.MethodPost, "/ai/test", token, `{"message":"show me an image","customerId":"c1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var structured struct {
		Text      string   `json:"text"`
		MediaURLs []string `json:"mediaUrls"`
	}
	require.NoError(t, json.Unmarshal([]byte(out["response"].(string)), &structured))
	assert.NotEmpty(t, structured.MediaURLs)

	w, _ = call(t, h, http.MethodPost, "/ai/test", token, `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
