package resolver

import (
	"context"
	"time"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/internal/sync_"
)

// shortlinkTTL bounds how long a resolved redirect is reused. Short links
// are occasionally repointed, so this stays small.
const shortlinkTTL = 30 * time.Second

type shortlinkEntry struct {
	target     string
	resolvedAt time.Time
}

// ShortlinkResolver is a LinkResolver with an in-memory micro-cache, so a
// burst of resolutions for the same fb.me/pin.it link costs one round-trip.
type ShortlinkResolver struct {
	upstream medidown.LinkResolver
	entries  *sync_.Mutexed[map[string]shortlinkEntry]
	now      func() time.Time
}

func NewShortlinkResolver(upstream medidown.LinkResolver) *ShortlinkResolver {
	return &ShortlinkResolver{
		upstream: upstream,
		entries:  sync_.NewMutexed(map[string]shortlinkEntry{}),
		now:      time.Now,
	}
}

func (r *ShortlinkResolver) ResolveRedirect(ctx context.Context, shortURL string) (string, error) {
	var cached string
	_ = r.entries.Locked(func(entries map[string]shortlinkEntry) error {
		if entry, ok := entries[shortURL]; ok {
			if r.now().Sub(entry.resolvedAt) < shortlinkTTL {
				cached = entry.target
			} else {
				delete(entries, shortURL)
			}
		}
		return nil
	})
	if cached != "" {
		return cached, nil
	}
	target, err := r.upstream.ResolveRedirect(ctx, shortURL)
	if err != nil {
		return "", err
	}
	_ = r.entries.Locked(func(entries map[string]shortlinkEntry) error {
		entries[shortURL] = shortlinkEntry{target: target, resolvedAt: r.now()}
		return nil
	})
	return target, nil
}

var _ medidown.LinkResolver = (*ShortlinkResolver)(nil)
