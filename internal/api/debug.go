package api

import (
	"net/http"

	"github.com/daybook-app/daybook/internal/serverutil"
)

func (s *Server) getDebugStorage(w http.ResponseWriter, r *http.Request) error {
	entries, err := s.storage.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, entries)
}
