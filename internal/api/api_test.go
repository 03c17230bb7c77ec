package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook-app/daybook/internal/daybook"
	derrs "github.com/daybook-app/daybook/internal/errors"
	"github.com/daybook-app/daybook/internal/feeds"
	"github.com/daybook-app/daybook/internal/tasks"
	"github.com/daybook-app/daybook/internal/templates"
)

type memStore struct {
	mu sync.Mutex
	m  map[string]string
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

	s.m[key] = value
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := &memStore{m: map[string]string{}}
	taskRepo := tasks.New(store)
	templateRepo := templates.New(store, taskRepo)
	feedRepo := feeds.New(store, []string{})

	return NewServer(ServerConfig{
		Port:           0,
		CookieHashKey:  []byte(strings.Repeat("h", 32)),
		CookieBlockKey: []byte(strings.Repeat("b", 32)),
	}, taskRepo, templateRepo, feedRepo, nil)
}

func TestPostContentPrecheck_ContainsProfanity(t *testing.T) {
	var (
		req = httptest.NewRequest(http.MethodPost, "/api/tasks/content:precheck", strings.NewReader(`{"content": "f u c k it"}`))
		rec = httptest.NewRecorder()
		s   = newTestServer(t)
	)

	err := s.postContentPrecheck(rec, req)
	require.Error(t, err)

	var derr *derrs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusUnprocessableEntity, derr.Status)
}

func TestPostContentPrecheck_TooLong(t *testing.T) {
	var (
		body = `{"content": "` + strings.Repeat("a", 201) + `"}`
		req  = httptest.NewRequest(http.MethodPost, "/api/tasks/content:precheck", strings.NewReader(body))
		rec  = httptest.NewRecorder()
		s    = newTestServer(t)
	)

	err := s.postContentPrecheck(rec, req)
	require.Error(t, err)

	var derr *derrs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusUnprocessableEntity, derr.Status)
}

func TestPatchTaskEditsContent(t *testing.T) {
	var (
		s   = newTestServer(t)
		rec = httptest.NewRecorder()
	)
	require.NoError(t, s.tasks.Replace(context.Background(), []daybook.Task{
		{ID: 4, Content: "old", Time: "10"},
	}))

	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/4", strings.NewReader(`{"content":"new"}`))
	req = mux.SetURLVars(req, map[string]string{"id": "4"})

	require.NoError(t, s.patchTask(rec, req))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"new"`)
	assert.Equal(t, "new", s.tasks.Current()[0].Content)
}

func TestApplyTemplateNotFound(t *testing.T) {
	var (
		s   = newTestServer(t)
		rec = httptest.NewRecorder()
	)

	req := httptest.NewRequest(http.MethodPost, "/api/templates/42/apply", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "42"})

	err := s.postApplyTemplate(rec, req)
	require.Error(t, err)

	var derr *derrs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusNotFound, derr.Status)
}

func TestApplyTemplateOverwritesSchedule(t *testing.T) {
	var (
		ctx = context.Background()
		s   = newTestServer(t)
		rec = httptest.NewRecorder()
	)
	require.NoError(t, s.templates.SetCatalog(ctx, []daybook.Template{{
		ID:    7,
		Title: "Deep work",
		Items: []daybook.Task{{ID: 1, Content: "focus", Time: "09"}},
	}}))

	req := httptest.NewRequest(http.MethodPost, "/api/templates/7/apply", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "7"})

	require.NoError(t, s.postApplyTemplate(rec, req))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, s.tasks.Current(), 1)
	assert.Equal(t, "focus", s.tasks.Current()[0].Content)
	id, ok := s.templates.ActiveID()
	require.True(t, ok)
	assert.Equal(t, 7, id)
}

func TestSessionGateRejectsAnonymous(t *testing.T) {
	var (
		s   = newTestServer(t)
		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	)

	s.Server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginThenViewer(t *testing.T) {
	s := newTestServer(t)

	// Log in to pick up the session cookie.
	loginRec := httptest.NewRecorder()
	loginReq := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"user_id":"u-1","email":"u@example.com","email_verified":true}`))
	s.Server.Handler.ServeHTTP(loginRec, loginReq)
	require.Equal(t, http.StatusOK, loginRec.Code)

	cookies := loginRec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/viewer", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	s.Server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u@example.com")
}
