package workshop

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/actionplanner/launchkit/internal/codec"
	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/pipeline"
)

// WorkflowName is the registry key for this workflow.
const WorkflowName = "workshop"

// New assembles the workshop pipeline. The clock feeds the date context;
// pass nil for time.Now.
func New(runner *pipeline.Runner, cfg *config.Config, clock func() time.Time) *pipeline.Pipeline {
	if clock == nil {
		clock = time.Now
	}
	return &pipeline.Pipeline{
		Name:        WorkflowName,
		Description: "Research, plan, and produce outreach assets for a scheduled workshop.",
		Params:      []string{"goal", "audience", "constraints", "event_date"},
		Stages: []domain.Stage{
			&researchStage{runner: runner, clock: clock, spec: stageSpec(cfg, "research", 0.3, 1600)},
			&planStage{runner: runner, clock: clock, spec: stageSpec(cfg, "plan", 0.25, 2000)},
			&produceStage{runner: runner, clock: clock, spec: stageSpec(cfg, "produce", 0.4, 3000)},
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
	clock  func() time.Time
	spec   pipeline.GenerateSpec
}

func (s *researchStage) Name() string      { return "research" }
func (s *researchStage) Role() domain.Role { return domain.RoleResearcher }

func (s *researchStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	dc, err := newDateContext(s.clock(), in.Params["event_date"])
	if err != nil {
		return nil, err
	}

	spec := s.spec
	spec.System = "You are a researcher. Provide topics, risks, and budget notes for a workshop. " +
		"Use the provided date context for time-sensitive research and recommendations."
	spec.User = fmt.Sprintf(`%s

Workshop Goal: %s
Audience: %s
Constraints: %s

Consider the current date when researching:
- Seasonal considerations and timing
- Current trends and technologies relevant to the workshop
- Time-sensitive budget considerations
- Venue availability and booking lead times

Return JSON with:
- topics (list of strings)
- risks (list of objects with keys "risk" and "mitigation")
- budget_notes (string, plain text)
- references (list of objects with keys "title" and "url")`,
		dc.Prompt(), dc.Goal(in.Params["goal"]), in.Params["audience"], in.Params["constraints"])

	var out WorkshopResearch
	if _, err := s.runner.GenerateJSON(ctx, spec, &out); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}

type planStage struct {
	runner *pipeline.Runner
	clock  func() time.Time
	spec   pipeline.GenerateSpec
}

func (s *planStage) Name() string      { return "plan" }
func (s *planStage) Role() domain.Role { return domain.RolePlanner }

func (s *planStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	dc, err := newDateContext(s.clock(), in.Params["event_date"])
	if err != nil {
		return nil, err
	}
	goal := dc.Goal(in.Params["goal"])

	plan, err := s.structuredPlan(ctx, in, dc, goal)
	if err != nil {
		// Structured output failed even after the runner's retry. Ask
		// for a readable markdown plan instead and parse it
		// heuristically.
		plan, err = s.markdownPlan(ctx, in, dc, goal)
		if err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}

func (s *planStage) structuredPlan(ctx context.Context, in *domain.StageInput, dc dateContext, goal string) (*WorkshopPlan, error) {
	spec := s.spec
	spec.System = `You are an operations planner. Produce a concise, practical workshop plan.
Return JSON with: agenda (list of strings), milestones (list of {"title", "due", "tasks": [{"desc", "effort_hrs", "owner"}]}), success_metrics (list of strings), risks (list of strings).
HARD LIMITS:
- agenda: 5-6 bullets max, one time range per bullet
- milestones: 4-5 distinct items max; NO duplicates; each has at most 3 tasks
- success_metrics: 4-6 items max
- risks: 2-4 items max
Do NOT put "Risks" or "Success Metrics" as milestone titles. Use short phrases (at most 14 words each). Dates use YYYY-MM-DD when possible.`
	spec.User = fmt.Sprintf("Goal: %s\nAudience: %s\nConstraints: %s\nDate context: %s",
		goal, in.Params["audience"], in.Params["constraints"], dc.Prompt())

	var plan WorkshopPlan
	if _, err := s.runner.GenerateJSON(ctx, spec, &plan); err != nil {
		return nil, err
	}
	plan.clamp()
	plan.Markdown = renderPlanMarkdown(goal, in.Params["audience"], &plan)
	return &plan, nil
}

func (s *planStage) markdownPlan(ctx context.Context, in *domain.StageInput, dc dateContext, goal string) (*WorkshopPlan, error) {
	spec := s.spec
	spec.System = `You are an operations planner. Write a readable plan in Markdown (no JSON).
Use short, clear sentences. Headings to include exactly:
1) Agenda
2) Milestones
3) Success Metrics
4) Risks

HARD LIMITS:
- agenda: max 6 bullets
- milestones: max 5, each with at most 3 tasks
- success metrics: max 6
- risks: max 4
For Milestones, use bullets like:
- Title — due YYYY-MM-DD — tasks: task A; task B; task C`
	spec.User = fmt.Sprintf("Goal: %s\nAudience: %s\nConstraints: %s\nDate context: %s\n\nReturn the full plan now.",
		goal, in.Params["audience"], in.Params["constraints"], dc.Prompt())

	md, err := s.runner.GenerateText(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("markdown fallback: %w", err)
	}

	plan := parsePlanMarkdown(md)
	plan.Markdown = md
	return &plan, nil
}

type produceStage struct {
	runner *pipeline.Runner
	clock  func() time.Time
	spec   pipeline.GenerateSpec
}

func (s *produceStage) Name() string      { return "produce" }
func (s *produceStage) Role() domain.Role { return domain.RoleProducer }

func (s *produceStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	dc, err := newDateContext(s.clock(), in.Params["event_date"])
	if err != nil {
		return nil, err
	}
	goal := dc.Goal(in.Params["goal"])

	spec := s.spec
	spec.System = `You are a creative event producer. Generate assets for the workshop.
IMPORTANT: Use actual line breaks and formatting, NOT escape characters like \n or \t.
Generate clean, readable text with proper paragraphs and spacing.
For the checklist, format it as a readable timeline with clear dates and tasks, not as code.`
	spec.User = fmt.Sprintf(`%s

Goal: %s
Audience: %s
Constraints: %s

Plan: %s
Research: %s

Generate workshop assets as JSON with:
1. invite_email: professional email with proper greeting, body paragraphs, and closing. Use real line breaks.
2. poster_text: eye-catching poster content with event details. Use real formatting.
3. checklist: a readable preparation timeline with dates and tasks, as bullet points.

Remember: use actual formatting, not \n or \t escape characters.`,
		dc.Prompt(), goal, in.Params["audience"], in.Params["constraints"],
		in.Prior["plan"], in.Prior["research"])

	var out WorkshopAssets
	if _, err := s.runner.GenerateJSON(ctx, spec, &out); err != nil {
		// Never hand back an empty asset set: compose deterministic
		// assets from the inputs instead.
		out = fallbackAssets(goal, in.Params["audience"], in.Params["constraints"], dc)
	}

	out.InviteEmail = codec.UnescapeLiterals(out.InviteEmail)
	out.PosterText = codec.UnescapeLiterals(out.PosterText)
	out.Checklist = codec.UnescapeLiterals(out.Checklist)

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}

func fallbackAssets(goal, audience, constraints string, dc dateContext) WorkshopAssets {
	return WorkshopAssets{
		InviteEmail: fmt.Sprintf(`Dear Students and Teachers,

We are excited to invite you to our %s.

Audience: %s
%s

Please RSVP by replying to this email.

Best regards,
Workshop Team`, goal, audience, dc.Prompt()),
		PosterText: fmt.Sprintf(`%s

For: %s
When: %s
Where: TBA

Join us for an exciting learning experience!

%s`, strings.ToUpper(goal), audience, dc.EventDate.Format(dateLayout), constraints),
		Checklist: fmt.Sprintf(`Workshop Preparation Checklist:

- Book venue (2 weeks before)
- Create materials (1 week before)
- Send invitations (1 week before)
- Confirm attendees (3 days before)
- Setup equipment (1 day before)
- Final review (day of event)

Budget/Constraints: %s`, constraints),
	}
}
