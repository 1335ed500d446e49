package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/pipeline"
)

// WorkflowName is the registry key for this workflow.
const WorkflowName = "launch"

// New assembles the launch pipeline. Stage defaults can be overridden per
// stage in the workflows section of the config.
func New(runner *pipeline.Runner, cfg *config.Config) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name:        WorkflowName,
		Description: "Research a product idea, plan the project, and produce landing page files.",
		Params:      []string{"product", "audience", "brief"},
		Stages: []domain.Stage{
			&researchStage{runner: runner, spec: stageSpec(cfg, "research", 0.2, 1200)},
			&planStage{runner: runner, spec: stageSpec(cfg, "plan", 0.2, 1600)},
			&produceStage{runner: runner, spec: stageSpec(cfg, "produce", 0.2, 4000)},
		},
		Renderer: Renderer{},
	}
}

func stageSpec(cfg *config.Config, stage string, temperature float64, maxTokens int) pipeline.GenerateSpec {
	spec := pipeline.GenerateSpec{
		Provider:    "groq",
		Model:       "llama-3.1-8b-instant",
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if cfg != nil {
		spec = spec.Override(cfg.StageOverride(WorkflowName, stage))
	}
	return spec
}

type researchStage struct {
	runner *pipeline.Runner
	spec   pipeline.GenerateSpec
}

func (s *researchStage) Name() string      { return "research" }
func (s *researchStage) Role() domain.Role { return domain.RoleResearcher }

func (s *researchStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	spec := s.spec
	spec.System = "You are a concise product researcher for developer-focused landing pages. " +
		"Keep every item short, concrete, and skimmable."
	spec.User = fmt.Sprintf(`Research the landing page inputs for:
Product: %s
Audience: %s
Brief: %s

Return JSON with:
- competitors: 2-3 closest dev tools or pages, each {"name", "angle"}
- hooks: 5 short, code-first hooks for the landing page
- keywords: 6-10 SEO keywords developers would search
- risks: 2-3 delivery risks, each {"risk", "mitigation"}
- references: 3-4 trustworthy sources, each {"title", "url"}`,
		in.Params["product"], in.Params["audience"], in.Params["brief"])

	var out ResearchOut
	if _, err := s.runner.GenerateJSON(ctx, spec, &out); err != nil {
		return nil, err
	}
	out.clamp()

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}

type planStage struct {
	runner *pipeline.Runner
	spec   pipeline.GenerateSpec
}

func (s *planStage) Name() string      { return "plan" }
func (s *planStage) Role() domain.Role { return domain.RolePlanner }

func (s *planStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	research := in.Prior["research"]
	if len(research) == 0 {
		return nil, fmt.Errorf("plan stage requires research output")
	}

	spec := s.spec
	spec.System = "You are a product planner. Keep each entry under 18 words. " +
		"Milestones are due within 10 days and every task fits in 1-8 hours."
	spec.User = fmt.Sprintf(`Based on this prior research, create a concise plan for a landing page project.

--- Research ---
%s
--- End Research ---

Product: %s
Audience: %s
Brief: %s

Return JSON with:
- milestones: 3-5 items, each {"title", "due_days" (1-10), "tasks": [{"desc", "effort_hrs" (1-8)}]}
- success_metrics: 4-6 measurable metrics
- copy_outline: page sections in order (Hero, Quickstart, Features, Playground, FAQ, Footer plus any others)
- repo: {"name", "description", "private", "default_branch", "license" ("None"|"MIT"|"Apache-2.0"), "init_readme", "add_ci"}
- file_manifest: planned files, each {"path", "why"}`,
		research, in.Params["product"], in.Params["audience"], in.Params["brief"])

	var out PlanOut
	if _, err := s.runner.GenerateJSON(ctx, spec, &out); err != nil {
		return nil, err
	}
	out.clamp()

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}

type produceStage struct {
	runner *pipeline.Runner
	spec   pipeline.GenerateSpec
}

func (s *produceStage) Name() string      { return "produce" }
func (s *produceStage) Role() domain.Role { return domain.RoleProducer }

func (s *produceStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	var research ResearchOut
	if ok, err := in.PriorInto("research", &research); err != nil {
		return nil, fmt.Errorf("decode research output: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("produce stage requires research output")
	}
	var plan PlanOut
	if ok, err := in.PriorInto("plan", &plan); err != nil {
		return nil, fmt.Errorf("decode plan output: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("produce stage requires plan output")
	}

	sections := plan.CopyOutline
	if len(sections) == 0 {
		sections = []string{"Hero", "Quickstart", "Features", "FAQ", "Footer"}
	}

	spec := s.spec
	spec.System = `You are a code generator that must return ONLY valid JSON.
Schema:
{
  "files": {
    "index.html": "<HTML5 string>",
    "styles.css": "<CSS string>",
    "script.js": "<JS string>",
    "README.md": "<Markdown string>",
    "DEPLOY.md": "<Markdown string>"
  }
}
No comments, no trailing commas, no prose before or after.`
	spec.User = fmt.Sprintf(`Create a developer-focused landing page.

Product: %s
Audience: %s
Brief: %s

Hooks: %s
Keywords: %s
Sections: %s

Requirements:
- Mobile-first responsive
- Dark mode support (CSS prefers-color-scheme)
- Copy-to-clipboard for code blocks (JS)
- Accessible semantics (landmarks, labels)
- SEO basics (title, meta description, open graph)
- No frameworks: pure HTML/CSS/JS
- Keep inline <script> minimal; use script.js for logic

Return ONLY JSON using the schema above.`,
		in.Params["product"], in.Params["audience"], in.Params["brief"],
		strings.Join(truncate(research.Hooks, 5), ", "),
		strings.Join(truncate(research.Keywords, 8), ", "),
		strings.Join(sections, ", "))

	var out FilesOut
	if _, err := s.runner.GenerateJSON(ctx, spec, &out); err != nil {
		return nil, err
	}
	out.clamp()

	if plan.Repo.License == "MIT" {
		out.Files["LICENSE"] = mitLicense
	}
	if plan.Repo.AddCI {
		out.Files[".github/workflows/ci.yml"] = ciWorkflow
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}
