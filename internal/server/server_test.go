package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/export"
	"github.com/actionplanner/launchkit/internal/pipeline"
	"github.com/actionplanner/launchkit/internal/provider"
	"github.com/actionplanner/launchkit/internal/storage"
	"github.com/actionplanner/launchkit/internal/storage/memory"
	"github.com/actionplanner/launchkit/internal/workflow"
)

type cannedProvider struct {
	replies []string
	calls   int
}

func (p *cannedProvider) Name() string { return "canned" }

func (p *cannedProvider) Complete(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	reply := p.replies[p.calls%len(p.replies)]
	p.calls++
	return &domain.ChatResponse{Content: reply, FinishReason: "stop"}, nil
}

const researchReply = `{
	"competitors": [{"name": "A", "angle": "x"}],
	"hooks": ["h1"], "keywords": ["k1"],
	"risks": [{"risk": "r", "mitigation": "m"}],
	"references": [{"title": "t", "url": "u"}]
}`

const planReply = `{
	"milestones": [{"title": "Scaffold", "due_days": 2, "tasks": [{"desc": "init", "effort_hrs": 2}]}],
	"success_metrics": ["m1"], "copy_outline": ["Hero"],
	"repo": {"name": "demo", "description": "d", "private": false,
	         "default_branch": "main", "license": "None",
	         "init_readme": true, "add_ci": false},
	"file_manifest": []
}`

const filesReply = `{"files": {"index.html": "<!doctype html>", "README.md": "# demo"}}`

func newTestServer(t *testing.T, factoryType string) (*Server, storage.RunStore, string) {
	t.Helper()

	provider.RegisterFactory(provider.Factory{
		Type: factoryType,
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			return &cannedProvider{replies: []string{researchReply, planReply, filesReply}}, nil
		},
	})
	reg, err := provider.NewRegistry([]config.ProviderConfig{
		{Name: "groq", Type: factoryType, APIKey: "test-key"},
		{Name: "openai", Type: factoryType, APIKey: "test-key"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	runner := pipeline.NewRunner(reg, logger)
	exportDir := t.TempDir()

	srv := New(0, logger, Deps{
		Workflows:  workflow.NewRegistry(workflow.Deps{Runner: runner}),
		Controller: pipeline.NewController(store, logger),
		Store:      store,
		Exporter:   export.New(exportDir, logger),
	})
	return srv, store, exportDir
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, req)
	return rec
}

func TestAPI_RunLifecycle(t *testing.T) {
	srv, _, exportDir := newTestServer(t, "canned-server-lifecycle")

	// List workflows.
	rec := doRequest(t, srv, http.MethodGet, "/v1/workflows", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/workflows = %d", rec.Code)
	}
	var wfList struct {
		Workflows []workflow.Definition `json:"workflows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &wfList); err != nil {
		t.Fatalf("decode workflows: %v", err)
	}
	if len(wfList.Workflows) != 3 {
		t.Fatalf("workflows = %d, want 3", len(wfList.Workflows))
	}

	// Run the launch workflow synchronously.
	rec = doRequest(t, srv, http.MethodPost, "/v1/workflows/launch/runs", map[string]any{
		"params": map[string]string{"product": "launchkit", "audience": "devs", "brief": "ship"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST run = %d, body %s", rec.Code, rec.Body.String())
	}
	var run domain.PipelineRun
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.Status != domain.RunCompleted || len(run.Handoffs) != 3 {
		t.Fatalf("run = status=%s handoffs=%d", run.Status, len(run.Handoffs))
	}

	// Fetch it back.
	rec = doRequest(t, srv, http.MethodGet, "/v1/runs/"+run.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET run = %d", rec.Code)
	}

	// One hand-off payload, raw.
	rec = doRequest(t, srv, http.MethodGet, "/v1/runs/"+run.ID+"/handoffs/research", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET handoff = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"hooks":["h1"]`) {
		t.Errorf("handoff body = %s", rec.Body.String())
	}

	// Rendered assets.
	rec = doRequest(t, srv, http.MethodGet, "/v1/runs/"+run.ID+"/assets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET assets = %d", rec.Code)
	}
	var assetsResp struct {
		Assets map[string]string `json:"assets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &assetsResp); err != nil {
		t.Fatalf("decode assets: %v", err)
	}
	if assetsResp.Assets["index.html"] != "<!doctype html>" {
		t.Errorf("assets = %v", assetsResp.Assets)
	}

	// Export to disk.
	rec = doRequest(t, srv, http.MethodPost, "/v1/runs/"+run.ID+"/export", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST export = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(exportDir, run.ID, "index.html")); err != nil {
		t.Errorf("exported file missing: %v", err)
	}

	// The run shows up in listings, filtered or not.
	rec = doRequest(t, srv, http.MethodGet, "/v1/runs?workflow=launch", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET runs = %d", rec.Code)
	}
	var listResp struct {
		Runs []domain.PipelineRun `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(listResp.Runs) != 1 || listResp.Runs[0].ID != run.ID {
		t.Errorf("runs = %+v", listResp.Runs)
	}
}

func TestAPI_Validation(t *testing.T) {
	srv, store, _ := newTestServer(t, "canned-server-validation")

	rec := doRequest(t, srv, http.MethodPost, "/v1/workflows/nonsense/runs", map[string]any{
		"params": map[string]string{},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown workflow = %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/v1/workflows/launch/runs", map[string]any{
		"params": map[string]string{"product": "x"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing params = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/v1/runs/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing run = %d, want 404", rec.Code)
	}

	// Negative pagination values are treated as unset, never a 500.
	rec = doRequest(t, srv, http.MethodGet, "/v1/runs?offset=-1&limit=-1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("negative pagination = %d, want 200", rec.Code)
	}

	// Assets for a failed run are a client error.
	failed := &domain.PipelineRun{ID: "failed-run", Workflow: "launch", Params: map[string]string{}, Status: domain.RunPending}
	if err := store.CreateRun(context.Background(), failed); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := store.UpdateRunStatus(context.Background(), "failed-run", domain.RunFailed, "boom"); err != nil {
		t.Fatalf("UpdateRunStatus() error = %v", err)
	}
	rec = doRequest(t, srv, http.MethodGet, "/v1/runs/failed-run/assets", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("assets of failed run = %d, want 400", rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	srv, _, _ := newTestServer(t, "canned-server-reqid")

	rec := doRequest(t, srv, http.MethodGet, "/v1/workflows", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}
