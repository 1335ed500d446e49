package launch

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/pipeline"
	"github.com/actionplanner/launchkit/internal/provider"
	"github.com/actionplanner/launchkit/internal/storage/memory"
)

// cannedProvider returns one scripted reply per call, in order.
type cannedProvider struct {
	replies []string
	calls   int
}

func (p *cannedProvider) Name() string { return "canned" }

func (p *cannedProvider) Complete(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	reply := p.replies[p.calls]
	p.calls++
	return &domain.ChatResponse{Content: reply, FinishReason: "stop"}, nil
}

func newRunnerWith(t *testing.T, factoryType string, p domain.Provider) *pipeline.Runner {
	t.Helper()
	provider.RegisterFactory(provider.Factory{
		Type: factoryType,
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			return p, nil
		},
	})
	reg, err := provider.NewRegistry([]config.ProviderConfig{
		{Name: "groq", Type: factoryType, APIKey: "test-key"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return pipeline.NewRunner(reg, nil)
}

const researchReply = `{
	"competitors": [{"name": "A", "angle": "x"}, {"name": "B", "angle": "y"},
	                {"name": "C", "angle": "z"}, {"name": "D", "angle": "w"}],
	"hooks": ["h1", "h2", "h3", "h4", "h5", "h6", "h7"],
	"keywords": ["k1", "k2", "k3"],
	"risks": [{"risk": "r1", "mitigation": "m1"}],
	"references": [{"title": "t", "url": "https://example.com"}]
}`

const planReply = `{
	"milestones": [{"title": "Scaffold", "due_days": 2,
	                "tasks": [{"desc": "init repo", "effort_hrs": 2}]}],
	"success_metrics": ["m1", "m2", "m3", "m4"],
	"copy_outline": ["Hero", "Quickstart", "FAQ"],
	"repo": {"name": "demo", "description": "d", "private": false,
	         "default_branch": "main", "license": "MIT",
	         "init_readme": true, "add_ci": true},
	"file_manifest": [{"path": "index.html", "why": "entry"}]
}`

const filesReply = `{
	"files": {
		"index.html": "<!doctype html><html></html>",
		"styles.css": "body{}",
		"script.js": "console.log(1)",
		"README.md": "# demo"
	}
}`

func TestLaunchPipeline(t *testing.T) {
	p := &cannedProvider{replies: []string{researchReply, planReply, filesReply}}
	runner := newRunnerWith(t, "canned-launch", p)

	wf := New(runner, nil)
	if got := wf.StageNames(); strings.Join(got, ",") != "research,plan,produce" {
		t.Fatalf("stage order = %v", got)
	}

	c := pipeline.NewController(memory.New(), nil)
	run, err := c.Execute(context.Background(), wf, map[string]string{
		"product": "launchkit", "audience": "devs", "brief": "ship fast",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if run.Status != domain.RunCompleted {
		t.Fatalf("status = %s", run.Status)
	}

	// Research lists are clamped to their documented limits.
	var research ResearchOut
	if err := json.Unmarshal(run.Handoff("research"), &research); err != nil {
		t.Fatalf("unmarshal research: %v", err)
	}
	if len(research.Competitors) != 3 {
		t.Errorf("competitors = %d, want clamped to 3", len(research.Competitors))
	}
	if len(research.Hooks) != 5 {
		t.Errorf("hooks = %d, want clamped to 5", len(research.Hooks))
	}

	// MIT license and CI workflow are injected per the repo settings.
	var files FilesOut
	if err := json.Unmarshal(run.Handoff("produce"), &files); err != nil {
		t.Fatalf("unmarshal produce: %v", err)
	}
	if !strings.HasPrefix(files.Files["LICENSE"], "MIT License") {
		t.Error("LICENSE not injected for MIT repo")
	}
	if !strings.Contains(files.Files[".github/workflows/ci.yml"], "name: CI") {
		t.Error("CI workflow not injected")
	}
	if files.Files["index.html"] == "" {
		t.Error("generated files lost")
	}

	// The renderer exposes the files map verbatim.
	assets, err := Renderer{}.RenderAssets(run)
	if err != nil {
		t.Fatalf("RenderAssets() error = %v", err)
	}
	if len(assets) != 6 {
		t.Errorf("len(assets) = %d, want 6", len(assets))
	}
	if assets["README.md"] != "# demo" {
		t.Errorf("README.md = %q", assets["README.md"])
	}
}

func TestLaunchPipeline_NoInjectionWithoutRepoSettings(t *testing.T) {
	plain := strings.Replace(planReply, `"license": "MIT"`, `"license": "None"`, 1)
	plain = strings.Replace(plain, `"add_ci": true`, `"add_ci": false`, 1)

	p := &cannedProvider{replies: []string{researchReply, plain, filesReply}}
	runner := newRunnerWith(t, "canned-launch-plain", p)

	c := pipeline.NewController(memory.New(), nil)
	run, err := c.Execute(context.Background(), New(runner, nil), map[string]string{
		"product": "launchkit", "audience": "devs", "brief": "ship fast",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var files FilesOut
	if err := json.Unmarshal(run.Handoff("produce"), &files); err != nil {
		t.Fatalf("unmarshal produce: %v", err)
	}
	if _, ok := files.Files["LICENSE"]; ok {
		t.Error("LICENSE injected despite license None")
	}
	if _, ok := files.Files[".github/workflows/ci.yml"]; ok {
		t.Error("CI workflow injected despite add_ci false")
	}
}

func TestLaunchPipeline_Deterministic(t *testing.T) {
	execute := func(factoryType string) *domain.PipelineRun {
		p := &cannedProvider{replies: []string{researchReply, planReply, filesReply}}
		runner := newRunnerWith(t, factoryType, p)
		c := pipeline.NewController(memory.New(), nil)
		run, err := c.Execute(context.Background(), New(runner, nil), map[string]string{
			"product": "launchkit", "audience": "devs", "brief": "ship fast",
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		return run
	}

	first := execute("canned-launch-det-1")
	second := execute("canned-launch-det-2")

	if len(first.Handoffs) != len(second.Handoffs) {
		t.Fatalf("hand-off counts differ: %d vs %d", len(first.Handoffs), len(second.Handoffs))
	}
	for i := range first.Handoffs {
		a, b := first.Handoffs[i], second.Handoffs[i]
		if a.Stage != b.Stage {
			t.Errorf("stage %d differs: %s vs %s", i, a.Stage, b.Stage)
		}
		if !bytes.Equal(a.Payload, b.Payload) {
			t.Errorf("stage %s payload differs:\n%s\nvs\n%s", a.Stage, a.Payload, b.Payload)
		}
	}

	assetsFirst, err := Renderer{}.RenderAssets(first)
	if err != nil {
		t.Fatalf("RenderAssets(first) error = %v", err)
	}
	assetsSecond, err := Renderer{}.RenderAssets(second)
	if err != nil {
		t.Fatalf("RenderAssets(second) error = %v", err)
	}
	if !reflect.DeepEqual(assetsFirst, assetsSecond) {
		t.Errorf("rendered assets differ:\n%v\nvs\n%v", assetsFirst, assetsSecond)
	}
}

func TestRenderer_RequiresProduceOutput(t *testing.T) {
	run := &domain.PipelineRun{
		ID:     "run-1",
		Status: domain.RunFailed,
		Handoffs: []domain.Handoff{
			{Stage: "research", Payload: []byte(`{}`)},
		},
	}
	if _, err := (Renderer{}).RenderAssets(run); err == nil {
		t.Error("expected error when produce never ran")
	}
	if _, err := (Renderer{}).RenderAssets(&domain.PipelineRun{ID: "run-2"}); err == nil {
		t.Error("expected error for run with no hand-offs")
	}
}

func TestPlanClamp(t *testing.T) {
	plan := PlanOut{
		SuccessMetrics: make([]string, 9),
		CopyOutline:    make([]string, 12),
		FileManifest:   make([]FileItem, 25),
	}
	for i := 0; i < 7; i++ {
		plan.Milestones = append(plan.Milestones, Milestone{Tasks: make([]Task, 8)})
	}
	plan.clamp()

	if len(plan.Milestones) != 5 {
		t.Errorf("milestones = %d, want 5", len(plan.Milestones))
	}
	if len(plan.Milestones[0].Tasks) != 5 {
		t.Errorf("tasks = %d, want 5", len(plan.Milestones[0].Tasks))
	}
	if len(plan.SuccessMetrics) != 6 || len(plan.CopyOutline) != 8 || len(plan.FileManifest) != 20 {
		t.Errorf("clamp = %d/%d/%d, want 6/8/20",
			len(plan.SuccessMetrics), len(plan.CopyOutline), len(plan.FileManifest))
	}
}

func TestStageOverride(t *testing.T) {
	cfg := &config.Config{Workflows: map[string]config.WorkflowConfig{
		"launch": {Stages: map[string]config.StageConfig{
			"produce": {Provider: "openai", Model: "gpt-4o", MaxTokens: 8000},
		}},
	}}

	spec := stageSpec(cfg, "produce", 0.2, 4000)
	if spec.Provider != "openai" || spec.Model != "gpt-4o" || spec.MaxTokens != 8000 {
		t.Errorf("override not applied: %+v", spec)
	}
	if spec.Temperature != 0.2 {
		t.Errorf("unset override must keep default temperature, got %v", spec.Temperature)
	}
}
