package feeds_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-app/daybook/internal/daybook"
	"github.com/daybook-app/daybook/internal/feeds"
)

type memStore struct {
	mu      sync.Mutex
	m       map[string]string
	failSet bool
}

func newMemStore() *memStore {
	return &memStore{m: map[string]string{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.m[key]
	if !ok {
		return "", daybook.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSet {
		return errors.New("disk full")
	}
	s.m[key] = value
	return nil
}

func feedServer(t *testing.T, title string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>%s</title></channel></rss>`, title)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func storedFeeds(t *testing.T, s *memStore) []daybook.FeedDescriptor {
	t.Helper()

	raw, ok := s.m[daybook.KeyFeeds]
	require.True(t, ok)

	var fds []daybook.FeedDescriptor
	require.NoError(t, json.Unmarshal([]byte(raw), &fds))
	return fds
}

func TestBootstrapMergesAndPersists(t *testing.T) {
	var (
		ctx   = context.Background()
		store = newMemStore()
		def1  = feedServer(t, "Default One")
		def2  = feedServer(t, "Default Two")
	)
	store.m[daybook.KeyFeeds] = fmt.Sprintf(
		`[{"title":"Mine","description":"","language":"","copyright":"","lastBuildDate":"","url":%q,"isDefault":false}]`,
		"https://example.com/mine.rss",
	)

	repo := feeds.New(store, []string{def1.URL, def2.URL})

	got, err := repo.Bootstrap(ctx)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "Default One", got[0].Title)
	assert.True(t, got[0].IsDefault)
	assert.Equal(t, "Default Two", got[1].Title)
	assert.Equal(t, "Mine", got[2].Title)

	assert.Equal(t, got, storedFeeds(t, store))
}

func TestBootstrapDefaultWinsURLTie(t *testing.T) {
	var (
		ctx   = context.Background()
		store = newMemStore()
		def   = feedServer(t, "Fresh Default")
	)
	// A stale copy of the default feed is already stored under the same url.
	store.m[daybook.KeyFeeds] = fmt.Sprintf(
		`[{"title":"Stale Default","description":"","language":"","copyright":"","lastBuildDate":"","url":%q,"isDefault":false}]`,
		def.URL,
	)

	repo := feeds.New(store, []string{def.URL})

	got, err := repo.Bootstrap(ctx)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Fresh Default", got[0].Title)
	assert.True(t, got[0].IsDefault)
}

func TestBootstrapSkipsFailedDefault(t *testing.T) {
	var (
		ctx   = context.Background()
		store = newMemStore()
		ok    = feedServer(t, "Healthy")
	)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	repo := feeds.New(store, []string{broken.URL, ok.URL})

	got, err := repo.Bootstrap(ctx)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Healthy", got[0].Title)
}

func TestAddEmptyURLIsNoop(t *testing.T) {
	repo := feeds.New(newMemStore(), []string{})

	got, err := repo.Add(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddFetchesAndAppends(t *testing.T) {
	var (
		ctx   = context.Background()
		store = newMemStore()
		srv   = feedServer(t, "New Show")
		repo  = feeds.New(store, []string{})
	)

	got, err := repo.Add(ctx, srv.URL)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "New Show", got[0].Title)
	assert.False(t, got[0].IsDefault)
	assert.Equal(t, got, storedFeeds(t, store))
}

func TestAddFailedFetchLeavesCollectionUnchanged(t *testing.T) {
	var (
		ctx   = context.Background()
		store = newMemStore()
		repo  = feeds.New(store, []string{})
	)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)

	got, err := repo.Add(ctx, broken.URL)
	require.Error(t, err)
	assert.Empty(t, got)
}

func TestAddExistingURLKeepsFirstOccurrence(t *testing.T) {
	var (
		ctx  = context.Background()
		srv  = feedServer(t, "Original")
		repo = feeds.New(newMemStore(), []string{})
	)

	_, err := repo.Add(ctx, srv.URL)
	require.NoError(t, err)

	got, err := repo.Add(ctx, srv.URL)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRemoveProtectsDefaults(t *testing.T) {
	var (
		ctx   = context.Background()
		store = newMemStore()
		def   = feedServer(t, "Protected")
		repo  = feeds.New(store, []string{def.URL})
	)

	_, err := repo.Bootstrap(ctx)
	require.NoError(t, err)

	got := repo.Remove(ctx, def.URL)

	require.Len(t, got, 1)
	assert.Equal(t, "Protected", got[0].Title)
}

func TestRemoveDropsUserFeed(t *testing.T) {
	var (
		ctx   = context.Background()
		store = newMemStore()
		srv   = feedServer(t, "Removable")
		repo  = feeds.New(store, []string{})
	)

	_, err := repo.Add(ctx, srv.URL)
	require.NoError(t, err)

	got := repo.Remove(ctx, srv.URL)

	assert.Empty(t, got)
	assert.Empty(t, storedFeeds(t, store))
}

func TestRemoveUnknownURLIsNoop(t *testing.T) {
	var (
		ctx  = context.Background()
		srv  = feedServer(t, "Keeper")
		repo = feeds.New(newMemStore(), []string{})
	)

	_, err := repo.Add(ctx, srv.URL)
	require.NoError(t, err)

	got := repo.Remove(ctx, "https://example.com/never-added.rss")
	assert.Len(t, got, 1)
}
