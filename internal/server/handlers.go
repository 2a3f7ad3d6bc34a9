package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/scottgpt/career-cli/internal/company"
	"github.com/scottgpt/career-cli/internal/merge"
	"github.com/scottgpt/career-cli/internal/mergeops"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/report"
	"github.com/scottgpt/career-cli/internal/store"
)

type companiesResponse struct {
	Companies      []company.CompanyGroup `json:"companies"`
	TotalPositions int                    `json:"totalPositions"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) storedPositions(r *http.Request) ([]model.Position, error) {
	positions, err := s.deps.Positions.ListPositions(r.Context(), store.PositionFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "server: list positions")
	}
	return model.NormalizePositions(positions), nil
}

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	positions, err := s.storedPositions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, companiesResponse{
		Companies:      s.deps.Grouper.Group(positions),
		TotalPositions: len(positions),
	})
}

func (s *Server) groupCompanies(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Positions []model.Position `json:"positions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Positions == nil {
		writeError(w, r, model.NewValidationError("positions", "is required"))
		return
	}
	positions := model.NormalizePositions(req.Positions)
	writeJSON(w, http.StatusOK, companiesResponse{
		Companies:      s.deps.Grouper.Group(positions),
		TotalPositions: len(positions),
	})
}

func (s *Server) listDuplicates(w http.ResponseWriter, r *http.Request) {
	positions, err := s.storedPositions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Detector.Detect(positions, r.URL.Query().Get("threshold")))
}

func (s *Server) detectDuplicates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Jobs      []model.Position `json:"jobs"`
		Threshold any              `json:"threshold"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Jobs == nil {
		writeError(w, r, model.NewValidationError("jobs", "is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Detector.Detect(model.NormalizePositions(req.Jobs), req.Threshold))
}

type mergeRequest struct {
	merge.Request
	Confirmed bool `json:"confirmed"`
}

type previewResponse struct {
	Confirmed bool               `json:"confirmed"`
	Preview   *merge.MergeResult `json:"preview"`
}

type startResponse struct {
	Operation *mergeops.Operation `json:"operation"`
	StatusURL string              `json:"statusUrl"`
}

func (s *Server) previewMerge(w http.ResponseWriter, r *http.Request) {
	var req merge.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.Merges.Preview(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// merge previews unless the request is confirmed, in which case the merge runs
// asynchronously and the caller polls the returned status URL.
func (s *Server) merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if !req.Confirmed {
		res, err := s.deps.Merges.Preview(r.Context(), req.Request)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, previewResponse{Confirmed: false, Preview: res})
		return
	}

	op, err := s.deps.Merges.Start(r.Context(), req.Request)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, startResponse{
		Operation: op,
		StatusURL: "/api/merge/" + op.ID + "/status",
	})
}

func (s *Server) mergeStatus(w http.ResponseWriter, r *http.Request) {
	op, err := s.deps.Merges.Status(r.Context(), chi.URLParam(r, "mergeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (s *Server) forgetMerge(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Merges.Forget(r.Context(), chi.URLParam(r, "mergeID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	positions, err := s.storedPositions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := report.Build(r.Context(), positions, report.Deps{
		Grouper:   s.deps.Grouper,
		Detector:  s.deps.Detector,
		Temporal:  s.deps.Temporal,
		Threshold: r.URL.Query().Get("threshold"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
