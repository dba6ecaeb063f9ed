package omnidesk

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	platform Platform
	convs    []Conversation
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (s *stubAdapter) Platform() Platform { return s.platform }

func (s *stubAdapter) ListConversations(ctx context.Context) ([]Conversation, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.convs, s.err
}

func (s *stubAdapter) ListMessages(ctx context.Context, customerID string) ([]Message, error) {
	return []Message{{ID: "m1", CustomerID: customerID, Platform: s.platform}}, s.err
}

func (s *stubAdapter) Send(ctx context.Context, to, content string) (*SendResult, error) {
	return &SendResult{MessageID: string(s.platform) + ":" + to}, s.err
}

func stub(p Platform, ids ...string) *stubAdapter {
	s := &stubAdapter{platform: p}
	for _, id := range ids {
		s.convs = append(s.convs, Conversation{CustomerID: id, Platform: p})
	}
	return s
}

func customerIDs(convs []Conversation) []string {
	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.CustomerID
	}
	return ids
}

func TestAggregatorConcatenatesInAdapterOrder(t *testing.T) {
	wa := stub(PlatformWhatsApp, "w1", "w2")
	wa.delay = 30 * time.Millisecond // finishes last, still listed first
	ig := stub(PlatformInstagram, "i1")
	ms := stub(PlatformMessenger, "m1", "m2")

	agg := NewAggregator(wa, ig, ms)
	convs, err := agg.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w2", "i1", "m1", "m2"}, customerIDs(convs))
}

func TestAggregatorFilterQueriesOneAdapter(t *testing.T) {
	wa := stub(PlatformWhatsApp, "w1")
	ig := stub(PlatformInstagram, "i1", "i2")
	agg := NewAggregator(wa, ig)

	convs, err := agg.ListAll(context.Background(), PlatformInstagram)
	require.NoError(t, err)
	assert.Equal(t, []string{"i1", "i2"}, customerIDs(convs))
	assert.Equal(t, int32(0), wa.calls.Load())
	assert.Equal(t, int32(1), ig.calls.Load())
}

func TestAggregatorUnconfiguredPlatform(t *testing.T) {
	agg := NewAggregator(stub(PlatformWhatsApp))

	_, err := agg.ListAll(context.Background(), PlatformMessenger)
	assert.ErrorIs(t, err, ErrPlatformNotConfigured)

	_, err = agg.Messages(context.Background(), PlatformMessenger, "x")
	assert.ErrorIs(t, err, ErrPlatformNotConfigured)

	_, err = agg.Send(context.Background(), PlatformInstagram, "x", "hi")
	assert.ErrorIs(t, err, ErrPlatformNotConfigured)
}

func TestAggregatorFailureFailsWholeList(t *testing.T) {
	down := errors.New("backend down")
	ig := stub(PlatformInstagram, "i1")
	ig.err = down

	agg := NewAggregator(stub(PlatformWhatsApp, "w1"), ig)
	convs, err := agg.ListAll(context.Background(), "")
	assert.Nil(t, convs)
	assert.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), "instagram")
}

func TestAggregatorEmpty(t *testing.T) {
	convs, err := NewAggregator().ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestAggregatorLaterAdapterReplacesEarlier(t *testing.T) {
	first := stub(PlatformWhatsApp, "old")
	second := stub(PlatformWhatsApp, "new")
	agg := NewAggregator(first, stub(PlatformInstagram, "i1"), second, nil)

	assert.Equal(t, []Platform{PlatformWhatsApp, PlatformInstagram}, agg.Platforms())

	convs, err := agg.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "i1"}, customerIDs(convs))
	assert.Equal(t, int32(0), first.calls.Load())
}

func TestAggregatorRoutesByPlatform(t *testing.T) {
	agg := NewAggregator(stub(PlatformWhatsApp), stub(PlatformMessenger))

	res, err := agg.Send(context.Background(), PlatformMessenger, "psid-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "messenger:psid-1", res.MessageID)

	msgs, err := agg.Messages(context.Background(), PlatformWhatsApp, "+1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, PlatformWhatsApp, msgs[0].Platform)
}
