// Package feeds owns the podcast feed list: seeding defaults, fetching
// channel metadata, and keeping the stored collection deduplicated.
package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/daybook-app/daybook/internal/daybook"
	derrs "github.com/daybook-app/daybook/internal/errors"
)

// Feeds seeded by the app itself. They are re-fetched on every bootstrap
// and cannot be removed by the user.
var DefaultURLs = []string{
	"https://feeds.buzzsprout.com/1882267.rss",
	"https://media.rss.com/theesportsreport/feed.xml",
}

// Repo holds the session's feed collection. In-memory state is
// authoritative once bootstrapped; the store seeds it and receives
// write-throughs.
type Repo struct {
	store    daybook.Store
	defaults []string

	mu    sync.Mutex
	feeds []daybook.FeedDescriptor
}

func New(store daybook.Store, defaultURLs []string) *Repo {
	if defaultURLs == nil {
		defaultURLs = DefaultURLs
	}
	return &Repo{store: store, defaults: defaultURLs}
}

// Bootstrap builds the session's feed list: stored feeds merged under
// freshly fetched defaults, deduplicated by url with the first occurrence
// winning (defaults are prepended, so they beat stored duplicates).
//
// Default fetches run concurrently; one failing just drops that feed from
// the result, it never aborts the bootstrap. The merged result is persisted
// and returned.
func (r *Repo) Bootstrap(ctx context.Context) ([]daybook.FeedDescriptor, error) {
	stored := []daybook.FeedDescriptor{}
	raw, err := r.store.Get(ctx, daybook.KeyFeeds)
	if err != nil && !errors.Is(err, daybook.ErrNotFound) {
		return nil, fmt.Errorf("error loading rss feeds: %s", err)
	}
	if err == nil {
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return nil, fmt.Errorf("error decoding rss feeds: %s", err)
		}
	}

	// One slot per default so completion order can't reorder the merge.
	fetched := make([]*daybook.FeedDescriptor, len(r.defaults))
	var g errgroup.Group
	for i, url := range r.defaults {
		i, url := i, url
		g.Go(func() error {
			fd, err := Fetch(ctx, url)
			if err != nil {
				slog.Error("error fetching default feed", "url", url, "error", err)
				return nil
			}
			fd.IsDefault = true
			fetched[i] = &fd
			return nil
		})
	}
	// Failures were captured per slot; the join itself cannot fail.
	_ = g.Wait()

	merged := []daybook.FeedDescriptor{}
	for _, fd := range fetched {
		if fd != nil {
			merged = append(merged, *fd)
		}
	}
	merged = dedupe(append(merged, stored...))

	r.mu.Lock()
	r.feeds = merged
	out := slices.Clone(merged)
	r.mu.Unlock()

	r.persist(ctx, out)
	return out, nil
}

// Current returns the session's feed list.
func (r *Repo) Current() []daybook.FeedDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.feeds)
}

// Add fetches the url's metadata and appends it to the collection. An empty
// url is a no-op; a url already present keeps its first occurrence; a failed
// fetch leaves the collection unchanged and surfaces the failure.
func (r *Repo) Add(ctx context.Context, url string) ([]daybook.FeedDescriptor, error) {
	if url == "" {
		return r.Current(), nil
	}

	r.mu.Lock()
	for _, fd := range r.feeds {
		if fd.URL == url {
			out := slices.Clone(r.feeds)
			r.mu.Unlock()
			return out, nil
		}
	}
	r.mu.Unlock()

	fd, err := Fetch(ctx, url)
	if err != nil {
		return r.Current(), derrs.E(fmt.Errorf("failed to fetch rss feed: %w", err), http.StatusBadGateway)
	}

	r.mu.Lock()
	r.feeds = append(r.feeds, fd)
	out := slices.Clone(r.feeds)
	r.mu.Unlock()

	r.persist(ctx, out)
	return out, nil
}

// Remove drops any non-default descriptor matching url. Defaults are
// retained no matter what was asked for; an unknown url is a no-op.
func (r *Repo) Remove(ctx context.Context, url string) []daybook.FeedDescriptor {
	r.mu.Lock()
	kept := make([]daybook.FeedDescriptor, 0, len(r.feeds))
	for _, fd := range r.feeds {
		if fd.URL == url && !fd.IsDefault {
			continue
		}
		kept = append(kept, fd)
	}
	r.feeds = kept
	out := slices.Clone(kept)
	r.mu.Unlock()

	r.persist(ctx, out)
	return out
}

// Keeps the first descriptor seen for each url.
func dedupe(in []daybook.FeedDescriptor) []daybook.FeedDescriptor {
	seen := make(map[string]struct{}, len(in))
	out := make([]daybook.FeedDescriptor, 0, len(in))
	for _, fd := range in {
		if _, ok := seen[fd.URL]; ok {
			continue
		}
		seen[fd.URL] = struct{}{}
		out = append(out, fd)
	}

	return out
}

// Best-effort write-through; a failure is logged and the in-memory list
// stays authoritative for the rest of the session.
func (r *Repo) persist(ctx context.Context, feeds []daybook.FeedDescriptor) {
	raw, err := json.Marshal(feeds)
	if err != nil {
		slog.Error("error encoding rss feeds", "error", err)
		return
	}
	if err := r.store.Set(ctx, daybook.KeyFeeds, string(raw)); err != nil {
		slog.Error("error persisting rss feeds", "error", err)
	}
}
