// Package api is the HTTP surface the mobile UI talks to. Handlers are
// thin wrappers over the repositories.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/daybook-app/daybook/internal/daybook"
	"github.com/daybook-app/daybook/internal/feeds"
	"github.com/daybook-app/daybook/internal/serverutil"
	"github.com/daybook-app/daybook/internal/sqlite"
	"github.com/daybook-app/daybook/internal/tasks"
	"github.com/daybook-app/daybook/internal/templates"
)

type (
	// StorageLister is the raw-store surface behind the debug endpoint.
	StorageLister interface {
		List(ctx context.Context, prefix string) ([]sqlite.Entry, error)
	}

	// Server handles requests from the app's screens: schedule views and
	// edits, template application, and feed management.
	Server struct {
		*http.Server

		episodeCache *lru.Cache[string, []daybook.Episode]

		tasks     *tasks.Repo
		templates *templates.Repo
		feeds     *feeds.Repo
		storage   StorageLister

		secureCookie *securecookie.SecureCookie
		httpsCookies bool // Whether or not HTTPS should be used for cookies
	}

	ServerConfig struct {
		Port           int
		CookieHashKey  []byte
		CookieBlockKey []byte
		HttpsCookies   bool
		CorsHeader     string

		DebugEndpoints bool
	}
)

func NewServer(config ServerConfig, taskRepo *tasks.Repo, templateRepo *templates.Repo, feedRepo *feeds.Repo, storage StorageLister) *Server {
	var (
		r        = serverutil.ErrRouter{Router: mux.NewRouter()}
		cache, _ = lru.New[string, []daybook.Episode](256)
	)

	srvr := Server{
		episodeCache: cache,
		tasks:        taskRepo,
		templates:    templateRepo,
		feeds:        feedRepo,
		storage:      storage,
		secureCookie: securecookie.New(config.CookieHashKey, config.CookieBlockKey),
		httpsCookies: config.HttpsCookies,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsHeader}),
				handlers.AllowCredentials(),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	r.Use(serverutil.RequestIDMiddleware)
	r.Use(serverutil.AccessLogMiddleware) // Log everything
	r.HandleFuncE("/api/viewer", srvr.handleViewer).Methods(http.MethodGet)
	r.HandleFuncE("/api/login", srvr.handleLogin).Methods(http.MethodPost)
	r.HandleFuncE("/api/logout", srvr.getLogout).Methods(http.MethodGet)

	if config.DebugEndpoints {
		// For local poking at the raw key-value blobs
		r.HandleFuncE("/api/debug/storage", srvr.getDebugStorage).Methods(http.MethodGet)
	}

	authed := serverutil.ErrRouter{Router: r.NewRoute().Subrouter()}
	authed.Use(requireSessionMiddleware(srvr.secureCookie))

	// The daily schedule
	authed.HandleFuncE("/api/tasks", srvr.getTasks).Methods(http.MethodGet)
	authed.HandleFuncE("/api/tasks/nearby", srvr.getNearbyTasks).Methods(http.MethodGet)
	authed.HandleFuncE("/api/tasks/content:precheck", srvr.postContentPrecheck).Methods(http.MethodPost)
	authed.HandleFuncE("/api/tasks/{id}", srvr.patchTask).Methods(http.MethodPatch)

	// Template catalog
	authed.HandleFuncE("/api/templates", srvr.getTemplates).Methods(http.MethodGet)
	authed.HandleFuncE("/api/templates", srvr.putTemplates).Methods(http.MethodPut)
	authed.HandleFuncE("/api/templates/{id}/apply", srvr.postApplyTemplate).Methods(http.MethodPost)

	// Podcast feeds
	authed.HandleFuncE("/api/feeds", srvr.getFeeds).Methods(http.MethodGet)
	authed.HandleFuncE("/api/feeds", srvr.postFeeds).Methods(http.MethodPost)
	authed.HandleFuncE("/api/feeds", srvr.deleteFeeds).Methods(http.MethodDelete)
	authed.HandleFuncE("/api/episodes", srvr.getEpisodes).Methods(http.MethodGet)

	slog.Debug("configured daybook server", "port", config.Port)

	return &srvr
}
