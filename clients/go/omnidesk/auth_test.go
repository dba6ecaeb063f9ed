package omnidesk

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/omnidesk/internal/store"
)

func TestAuthLoginStoresSession(t *testing.T) {
	b := newTestBackend(t)
	c := NewClient(Config{BaseURL: b.srv.URL})

	resp, err := c.Auth.Login(context.Background(), store.SeedAdminEmail, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, store.SeedAdminEmail, resp.User.Email)

	token, ok := c.Session.Token()
	require.True(t, ok)
	assert.Equal(t, resp.Token, token)

	user, ok := c.Session.User()
	require.True(t, ok)
	assert.Equal(t, store.SeedAdminName, user.Name)
	assert.Equal(t, store.SeedAdminRole, user.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	b := newTestBackend(t)
	c := NewClient(Config{BaseURL: b.srv.URL})

	_, err := c.Auth.Login(context.Background(), store.SeedAdminEmail, "nope")
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.False(t, c.Session.IsAuthenticated())
}

func TestAuthMe(t *testing.T) {
	b := newTestBackend(t)
	c := NewClient(Config{BaseURL: b.srv.URL})

	_, err := c.Auth.Me(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = c.Auth.Login(context.Background(), store.SeedAdminEmail, testPassword)
	require.NoError(t, err)

	me, err := c.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.SeedAdminEmail, me.Email)
	assert.NotEmpty(t, me.ID)
}

func TestAuthLogoutRevokesToken(t *testing.T) {
	b := newTestBackend(t)
	c := b.client(t, Config{})
	ctx := context.Background()

	token, _ := c.Session.Token()
	require.NoError(t, c.Auth.Logout(ctx))
	assert.False(t, c.Session.IsAuthenticated())

	_, err := b.tokens.ResolveToken(ctx, token)
	assert.ErrorIs(t, err, store.ErrTokenNotFound)

	// Logging out again is a local no-op.
	require.NoError(t, c.Auth.Logout(ctx))
}

func TestClientChannels(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://example.invalid", Channels: []Platform{PlatformMessenger, PlatformWhatsApp}})
	assert.Equal(t, []Platform{PlatformMessenger, PlatformWhatsApp}, c.Aggregator.Platforms())

	ch, err := c.Channel(PlatformInstagram)
	require.NoError(t, err)
	assert.Equal(t, PlatformInstagram, ch.Platform())

	_, err = c.Channel("telegram")
	assert.ErrorIs(t, err, ErrPlatformNotConfigured)
}
