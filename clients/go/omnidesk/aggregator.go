package omnidesk

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Aggregator presents the conversations of several adapters as one list.
// It does not merge customers that appear on more than one platform.
type Aggregator struct {
	adapters []Adapter
	byPlat   map[Platform]Adapter
}

// NewAggregator keeps adapters in the given order. A later adapter for an
// already registered platform replaces the earlier one.
func NewAggregator(adapters ...Adapter) *Aggregator {
	a := &Aggregator{byPlat: make(map[Platform]Adapter)}
	for _, ad := range adapters {
		if ad == nil {
			continue
		}
		if _, dup := a.byPlat[ad.Platform()]; dup {
			for i, existing := range a.adapters {
				if existing.Platform() == ad.Platform() {
					a.adapters[i] = ad
				}
			}
		} else {
			a.adapters = append(a.adapters, ad)
		}
		a.byPlat[ad.Platform()] = ad
	}
	return a
}

// Platforms returns the configured platforms in adapter order.
func (a *Aggregator) Platforms() []Platform {
	out := make([]Platform, len(a.adapters))
	for i, ad := range a.adapters {
		out[i] = ad.Platform()
	}
	return out
}

// Adapter returns the adapter for p.
func (a *Aggregator) Adapter(p Platform) (Adapter, error) {
	ad, ok := a.byPlat[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlatformNotConfigured, p)
	}
	return ad, nil
}

// ListAll returns the conversations of filter's adapter, or of every adapter
// when filter is empty. Adapters are queried concurrently and their results
// concatenated in adapter order; each adapter's own ordering is kept.
func (a *Aggregator) ListAll(ctx context.Context, filter Platform) ([]Conversation, error) {
	if filter != "" {
		ad, err := a.Adapter(filter)
		if err != nil {
			return nil, err
		}
		return ad.ListConversations(ctx)
	}

	results := make([][]Conversation, len(a.adapters))
	g, gctx := errgroup.WithContext(ctx)
	for i, ad := range a.adapters {
		i, ad := i, ad
		g.Go(func() error {
			convs, err := ad.ListConversations(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", ad.Platform(), err)
			}
			results[i] = convs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Conversation
	for _, convs := range results {
		all = append(all, convs...)
	}
	return all, nil
}

// Messages fetches a conversation's messages from its owning adapter.
func (a *Aggregator) Messages(ctx context.Context, p Platform, customerID string) ([]Message, error) {
	ad, err := a.Adapter(p)
	if err != nil {
		return nil, err
	}
	return ad.ListMessages(ctx, customerID)
}

// Send routes an outbound message to p's adapter.
func (a *Aggregator) Send(ctx context.Context, p Platform, to, content string) (*SendResult, error) {
	ad, err := a.Adapter(p)
	if err != nil {
		return nil, err
	}
	return ad.Send(ctx, to, content)
}
