package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/daybook-app/daybook/internal/daybook"
	derrs "github.com/daybook-app/daybook/internal/errors"
	"github.com/daybook-app/daybook/internal/serverutil"
)

type TemplatesResp struct {
	Templates []daybook.Template `json:"templates"`
	ActiveID  *int               `json:"active_id"`
}

func (s *Server) getTemplates(w http.ResponseWriter, r *http.Request) error {
	resp := TemplatesResp{
		Templates: s.templates.Catalog(),
	}
	if id, ok := s.templates.ActiveID(); ok {
		resp.ActiveID = &id
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

type SetTemplatesReq struct {
	Templates []daybook.Template `json:"templates"`
}

func (req SetTemplatesReq) Validate() error {
	if req.Templates == nil {
		return derrs.E("templates is required", http.StatusBadRequest,
			derrs.Detail{Field: "templates", Error: "missing"})
	}
	return nil
}

func (s *Server) putTemplates(w http.ResponseWriter, r *http.Request) error {
	body, err := serverutil.DecodeValid[SetTemplatesReq](r.Body)
	if err != nil {
		return derrs.E(err, http.StatusBadRequest)
	}

	if err := s.templates.SetCatalog(r.Context(), body.Templates); err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
}

type ApplyTemplateResp struct {
	AppliedID int        `json:"applied_id"`
	Tasks     []TaskResp `json:"tasks"`
}

func (s *Server) postApplyTemplate(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return derrs.E("invalid template id", http.StatusBadRequest)
	}

	tmpl, ok := s.templates.Find(id)
	if !ok {
		return derrs.E("template not found", http.StatusNotFound)
	}

	if err := s.templates.Apply(r.Context(), tmpl); err != nil {
		return err
	}

	// Confirm what the schedule now looks like.
	return serverutil.WriteJSON(w, http.StatusOK, ApplyTemplateResp{
		AppliedID: tmpl.ID,
		Tasks:     taskResps(s.tasks.Current()),
	})
}
