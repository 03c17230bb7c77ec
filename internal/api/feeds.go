package api

import (
	"net/http"

	derrs "github.com/daybook-app/daybook/internal/errors"
	"github.com/daybook-app/daybook/internal/feeds"
	"github.com/daybook-app/daybook/internal/serverutil"
)

func (s *Server) getFeeds(w http.ResponseWriter, r *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, s.feeds.Current())
}

type AddFeedReq struct {
	URL string `json:"url"`
}

func (req AddFeedReq) Validate() error {
	if req.URL == "" {
		return derrs.E("url is required", http.StatusBadRequest,
			derrs.Detail{Field: "url", Error: "missing"})
	}
	return nil
}

func (s *Server) postFeeds(w http.ResponseWriter, r *http.Request) error {
	body, err := serverutil.DecodeValid[AddFeedReq](r.Body)
	if err != nil {
		return derrs.E(err, http.StatusBadRequest)
	}

	updated, err := s.feeds.Add(r.Context(), body.URL)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteFeeds(w http.ResponseWriter, r *http.Request) error {
	url := r.URL.Query().Get("url")
	if url == "" {
		return derrs.E("url is required", http.StatusBadRequest,
			derrs.Detail{Field: "url", Error: "missing"})
	}

	return serverutil.WriteJSON(w, http.StatusOK, s.feeds.Remove(r.Context(), url))
}

func (s *Server) getEpisodes(w http.ResponseWriter, r *http.Request) error {
	url := r.URL.Query().Get("url")
	if url == "" {
		return derrs.E("url is required", http.StatusBadRequest,
			derrs.Detail{Field: "url", Error: "missing"})
	}

	if cached, ok := s.episodeCache.Get(url); ok {
		return serverutil.WriteJSON(w, http.StatusOK, cached)
	}

	episodes, err := feeds.Episodes(r.Context(), url)
	if err != nil {
		return derrs.E(err, http.StatusBadGateway)
	}
	s.episodeCache.Add(url, episodes)

	return serverutil.WriteJSON(w, http.StatusOK, episodes)
}
