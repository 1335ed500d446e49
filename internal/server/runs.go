package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/pipeline"
	"github.com/actionplanner/launchkit/internal/storage"
)

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"workflows": s.deps.Workflows.Definitions(),
	})
}

// handleCreateRun executes the workflow synchronously and returns the run
// with its hand-offs. A failed run is still returned; the caller inspects
// the status field.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "workflow")

	p, err := s.deps.Workflows.Get(name)
	if err != nil {
		writeError(w, domain.NewAPIError(domain.ErrorTypeNotFound, "unknown workflow %q", name))
		return
	}

	var body struct {
		Params map[string]string `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.NewAPIError(domain.ErrorTypeInvalidRequest, "invalid request body: %v", err))
		return
	}
	for _, param := range p.Params {
		if body.Params[param] == "" {
			writeError(w, domain.NewAPIError(domain.ErrorTypeInvalidRequest,
				"workflow %q requires param %q", name, param))
			return
		}
	}

	run, err := s.deps.Controller.Execute(r.Context(), p, body.Params)
	if err != nil {
		AddError(r.Context(), err)
		var stageErr *pipeline.StageError
		if run != nil && errors.As(err, &stageErr) {
			// Stage failures are part of the run record.
			writeJSON(w, http.StatusOK, run)
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{
		Workflow: r.URL.Query().Get("workflow"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		opts.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		opts.Offset, _ = strconv.Atoi(v)
	}

	runs, err := s.deps.Store.ListRuns(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.deps.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetHandoff(w http.ResponseWriter, r *http.Request) {
	run, err := s.deps.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	stage := chi.URLParam(r, "stage")
	payload := run.Handoff(stage)
	if payload == nil {
		writeError(w, domain.NewAPIError(domain.ErrorTypeNotFound,
			"run %s has no hand-off for stage %q", run.ID, stage))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (s *Server) handleGetAssets(w http.ResponseWriter, r *http.Request) {
	run, p, err := s.completedRun(r)
	if err != nil {
		writeError(w, err)
		return
	}

	assets, err := p.Renderer.RenderAssets(run)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func (s *Server) handleExportRun(w http.ResponseWriter, r *http.Request) {
	run, p, err := s.completedRun(r)
	if err != nil {
		writeError(w, err)
		return
	}

	manifest, err := s.deps.Exporter.Export(run, p.Renderer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, manifest)
}

// completedRun loads the run and its pipeline, requiring completed status.
func (s *Server) completedRun(r *http.Request) (*domain.PipelineRun, *pipeline.Pipeline, error) {
	run, err := s.deps.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}
	if run.Status != domain.RunCompleted {
		return nil, nil, domain.NewAPIError(domain.ErrorTypeInvalidRequest,
			"run %s is %s; assets exist only for completed runs", run.ID, run.Status)
	}
	p, err := s.deps.Workflows.Get(run.Workflow)
	if err != nil {
		return nil, nil, err
	}
	return run, p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *domain.APIError
	switch {
	case errors.As(err, &apiErr):
		// keep apiErr
	case errors.Is(err, storage.ErrNotFound):
		apiErr = domain.NewAPIError(domain.ErrorTypeNotFound, "run not found")
	default:
		apiErr = domain.NewAPIError(domain.ErrorTypeServer, "%v", err)
	}
	writeJSON(w, apiErr.HTTPStatusCode(), map[string]any{"error": apiErr})
}
