package omnidesk

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/omnidesk/internal/api"
	"github.com/eldtechnologies/omnidesk/internal/crypto"
	"github.com/eldtechnologies/omnidesk/internal/store"
)

const testPassword = "correct horse"

// testBackend is the seeded backend double served over HTTP.
type testBackend struct {
	ds     *store.MemoryStore
	tokens *store.MemoryTokenStore
	srv    *httptest.Server
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	ds := store.NewMemoryStore()
	tokens := store.NewMemoryTokenStore()

	hash, err := crypto.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, store.Seed(context.Background(), ds, hash))

	router := api.NewRouter(zerolog.Nop(), ds, tokens, api.Options{LoginPerMinute: 1000})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testBackend{ds: ds, tokens: tokens, srv: srv}
}

// client returns a logged-in client against the backend.
func (b *testBackend) client(t *testing.T, cfg Config) *Client {
	t.Helper()

	cfg.BaseURL = b.srv.URL
	c := NewClient(cfg)
	_, err := c.Auth.Login(context.Background(), store.SeedAdminEmail, testPassword)
	require.NoError(t, err)
	return c
}
