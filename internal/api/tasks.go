package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	goaway "github.com/TwiN/go-away"
	"github.com/gorilla/mux"

	"github.com/daybook-app/daybook/internal/daybook"
	derrs "github.com/daybook-app/daybook/internal/errors"
	"github.com/daybook-app/daybook/internal/serverutil"
	"github.com/daybook-app/daybook/internal/tasks"
)

// Longest content the edit modal accepts.
const maxContentLength = 200

type TaskResp struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Time    string `json:"time"`
	Label   string `json:"label"` // 12-hour display label, e.g. "1 PM"
}

func taskResps(ts []daybook.Task) []TaskResp {
	out := make([]TaskResp, 0, len(ts))
	for _, t := range ts {
		out = append(out, TaskResp{
			ID:      t.ID,
			Content: t.Content,
			Time:    t.Time,
			Label:   tasks.Clock12(t.Time),
		})
	}
	return out
}

func (s *Server) getTasks(w http.ResponseWriter, r *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, taskResps(s.tasks.Current()))
}

type NearbyResp struct {
	Hour  int        `json:"hour"`
	Tasks []TaskResp `json:"tasks"`
}

// The nearby view: tasks at the previous, current and next hour. The hour
// defaults to now; the UI may pin it with ?hour= for previews.
func (s *Server) getNearbyTasks(w http.ResponseWriter, r *http.Request) error {
	hour := time.Now().Hour()
	if raw := r.URL.Query().Get("hour"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < 0 || h > 23 {
			return derrs.E("hour must be 0-23", http.StatusBadRequest,
				derrs.Detail{Field: "hour", Error: "out of range"})
		}
		hour = h
	}

	nearby := tasks.Nearby(s.tasks.Current(), hour)
	return serverutil.WriteJSON(w, http.StatusOK, NearbyResp{
		Hour:  hour,
		Tasks: taskResps(nearby),
	})
}

type editTaskRequest struct {
	Content string `json:"content"`
}

func (s *Server) patchTask(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return derrs.E("invalid task id", http.StatusBadRequest)
	}

	var body editTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return derrs.E(err, http.StatusBadRequest)
	}
	if len(body.Content) > maxContentLength {
		return derrs.E("content too long", http.StatusUnprocessableEntity,
			derrs.Detail{Field: "content", Error: "over 200 characters"})
	}

	// An unknown id leaves the collection untouched; that's still a 200.
	updated := s.tasks.EditContent(r.Context(), id, body.Content)
	return serverutil.WriteJSON(w, http.StatusOK, taskResps(updated))
}

type contentPrecheckRequest struct {
	Content string `json:"content"`
}

// This route is used to aid the front-end with validation, like running a
// profanity check before the edit modal submits.
func (s *Server) postContentPrecheck(w http.ResponseWriter, r *http.Request) error {
	var body contentPrecheckRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return derrs.E(err, http.StatusBadRequest)
	}

	if len(body.Content) > maxContentLength {
		return derrs.E("content too long", http.StatusUnprocessableEntity)
	}
	if goaway.IsProfane(body.Content) {
		return derrs.E("profanity detected in content", http.StatusUnprocessableEntity)
	}

	return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
}
