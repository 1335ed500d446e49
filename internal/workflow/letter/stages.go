package letter

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
const WorkflowName = "letter"

const dateLayout = "2006-01-02"

// New assembles the letter pipeline: research, letter-plan, blog-plan,
// produce. The clock feeds the date context; pass nil for time.Now.
func New(runner *pipeline.Runner, cfg *config.Config, clock func() time.Time) *pipeline.Pipeline {
	if clock == nil {
		clock = time.Now
	}
	return &pipeline.Pipeline{
		Name:        WorkflowName,
		Description: "Research a topic and produce a research letter for email plus a blog post.",
		Params:      []string{"topic"},
		Stages: []domain.Stage{
			&researchStage{runner: runner, clock: clock, spec: stageSpec(cfg, "research", 0.25, 2000)},
			&letterPlanStage{runner: runner, clock: clock, spec: stageSpec(cfg, "letter-plan", 0.25, 2000)},
			&blogPlanStage{runner: runner, clock: clock, spec: stageSpec(cfg, "blog-plan", 0.25, 2000)},
			&produceStage{runner: runner, clock: clock, spec: stageSpec(cfg, "produce", 0.25, 3000)},
		},
		Renderer: Renderer{},
	}
}

func stageSpec(cfg *config.Config, stage string, temperature float64, maxTokens int) pipeline.GenerateSpec {
	spec := pipeline.GenerateSpec{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if cfg != nil {
		spec = spec.Override(cfg.StageOverride(WorkflowName, stage))
	}
	return spec
}

func datePrompt(clock func() time.Time) string {
	return clock().Format(dateLayout)
}

// flatten renders a ResearchLetter as readable prompt text.
func (r *ResearchLetter) flatten() string {
	refs := make([]string, 0, len(r.References))
	for _, ref := range r.References {
		refs = append(refs, fmt.Sprintf("- %s: %s", ref.Title, ref.URL))
	}
	return fmt.Sprintf("Introduction: %s\n\nBody: %s\n\nConclusion: %s\n\nReferences:\n%s",
		r.Introduction, r.Body, r.Conclusion, strings.Join(refs, "\n"))
}

func (b *BlogPost) flatten() string {
	refs := make([]string, 0, len(b.References))
	for _, ref := range b.References {
		refs = append(refs, fmt.Sprintf("- %s: %s", ref.Title, ref.URL))
	}
	return fmt.Sprintf("Title: %s\n\nIntroduction: %s\n\nBackground: %s\n\nBody: %s\n\nConclusion: %s\n\nReferences:\n%s",
		b.Title, b.Introduction, b.Background, b.Body, b.Conclusion, strings.Join(refs, "\n"))
}

type researchStage struct {
	runner *pipeline.Runner
	clock  func() time.Time
	spec   pipeline.GenerateSpec
}

func (s *researchStage) Name() string      { return "research" }
func (s *researchStage) Role() domain.Role { return domain.RoleResearcher }

func (s *researchStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	spec := s.spec
	spec.System = `You are an expert researcher. Your task is to research the given topic and provide:
1. A comprehensive introduction to the topic
2. Latest trends, insights, and analysis in the body
3. Risks and considerations associated with the topic
4. A conclusive summary
5. Relevant references (minimum 3-5 credible sources)
Focus on providing accurate, up-to-date information that would be valuable for the target audience.`
	spec.User = fmt.Sprintf(`Date Context: %s

Research Topic: %s

Return JSON with the structure:
- introduction: brief overview and importance of the topic
- body: latest trends, key insights, detailed analysis, and associated risks
- conclusion: summary of key findings and implications
- references: credible sources, each {"title", "url"}`,
		datePrompt(s.clock), in.Params["topic"])

	var out ResearchLetter
	if _, err := s.runner.GenerateJSON(ctx, spec, &out); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}

type letterPlanStage struct {
	runner *pipeline.Runner
	clock  func() time.Time
	spec   pipeline.GenerateSpec
}

func (s *letterPlanStage) Name() string      { return "letter-plan" }
func (s *letterPlanStage) Role() domain.Role { return domain.RolePlanner }

func (s *letterPlanStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	var research ResearchLetter
	if ok, err := in.PriorInto("research", &research); err != nil {
		return nil, fmt.Errorf("decode research output: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("letter-plan stage requires research output")
	}

	spec := s.spec
	spec.System = `You are a professional content planner specializing in research letters.
Transform the research content into a well-structured research letter suitable for email distribution.
Structure requirements:
- introduction: engaging opening that introduces the research topic
- body: comprehensive analysis with trends, insights, and risks
- conclusion: clear summary and key takeaways
- references: properly formatted citations`
	spec.User = fmt.Sprintf(`Date Context: %s

Research Topic: %s

Research Content to Structure:
%s

Structure this into a professional research letter format as JSON with introduction, body, conclusion, and references.`,
		datePrompt(s.clock), in.Params["topic"], research.flatten())

	var out ResearchLetter
	if _, err := s.runner.GenerateJSON(ctx, spec, &out); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}

type blogPlanStage struct {
	runner *pipeline.Runner
	clock  func() time.Time
	spec   pipeline.GenerateSpec
}

func (s *blogPlanStage) Name() string      { return "blog-plan" }
func (s *blogPlanStage) Role() domain.Role { return domain.RolePlanner }

func (s *blogPlanStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	var research ResearchLetter
	if ok, err := in.PriorInto("research", &research); err != nil {
		return nil, fmt.Errorf("decode research output: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("blog-plan stage requires research output")
	}

	spec := s.spec
	spec.System = `You are a professional content planner specializing in blog posts.
Transform the research content into a well-structured blog post suitable for web publishing.
Structure requirements:
- title: compelling and SEO-friendly
- introduction: hook the reader and introduce the topic
- background: provide necessary context
- body: detailed analysis with trends, insights, and practical implications
- conclusion: summarize key points and provide actionable insights
- references: properly formatted for web`
	spec.User = fmt.Sprintf(`Date Context: %s

Research Topic: %s

Research Content to Structure:
%s

Structure this into an engaging blog post format as JSON with title, introduction, background, body, conclusion, and references.`,
		datePrompt(s.clock), in.Params["topic"], research.flatten())

	var out BlogPost
	if _, err := s.runner.GenerateJSON(ctx, spec, &out); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}

type produceStage struct {
	runner *pipeline.Runner
	clock  func() time.Time
	spec   pipeline.GenerateSpec
}

func (s *produceStage) Name() string      { return "produce" }
func (s *produceStage) Role() domain.Role { return domain.RoleProducer }

// Run generates both publication texts. Three levels of degradation: the
// structured call, then a plain-text call split on LETTER:/BLOG: markers,
// then deterministic composition from the plan structures.
func (s *produceStage) Run(ctx context.Context, in *domain.StageInput) (*domain.StageOutput, error) {
	var letterPlan ResearchLetter
	if ok, err := in.PriorInto("letter-plan", &letterPlan); err != nil {
		return nil, fmt.Errorf("decode letter-plan output: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("produce stage requires letter-plan output")
	}
	var blogPlan BlogPost
	if ok, err := in.PriorInto("blog-plan", &blogPlan); err != nil {
		return nil, fmt.Errorf("decode blog-plan output: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("produce stage requires blog-plan output")
	}

	topic := in.Params["topic"]

	assets, ok := s.structuredAssets(ctx, topic, &letterPlan, &blogPlan)
	if !ok {
		assets, ok = s.splitAssets(ctx, topic, &letterPlan)
	}
	if !ok {
		assets = composeAssets(topic, &letterPlan, &blogPlan)
	}

	payload, err := json.Marshal(assets)
	if err != nil {
		return nil, err
	}
	return &domain.StageOutput{Payload: payload}, nil
}

func (s *produceStage) structuredAssets(ctx context.Context, topic string, letterPlan *ResearchLetter, blogPlan *BlogPost) (FinalAssets, bool) {
	spec := s.spec
	spec.System = "You are an assistant that transforms structured research and blog plans " +
		"into final, polished publications."
	spec.User = fmt.Sprintf(`Today's date: %s
Topic/Goal: %s

Research Letter Structure:
%s

Blog Structure:
%s

Generate the final outputs as high-quality text.
Return them as JSON in the fields letter_content and blog_content.`,
		datePrompt(s.clock), topic, letterPlan.flatten(), blogPlan.flatten())

	var out FinalAssets
	if _, err := s.runner.GenerateJSON(ctx, spec, &out); err != nil {
		return FinalAssets{}, false
	}

	out.LetterContent = strings.TrimSpace(codec.UnescapeLiterals(out.LetterContent))
	out.BlogContent = strings.TrimSpace(codec.UnescapeLiterals(out.BlogContent))
	return out, out.LetterContent != "" || out.BlogContent != ""
}

func (s *produceStage) splitAssets(ctx context.Context, topic string, letterPlan *ResearchLetter) (FinalAssets, bool) {
	spec := s.spec
	spec.System = `Generate publication-ready content. Use actual line breaks, not \n.`
	spec.User = fmt.Sprintf(`Generate two pieces of content for the topic '%s':

1) A professional research letter (start with LETTER:)
2) A blog post (start with BLOG:)

Base it on this research:
%s

Use proper formatting with real line breaks.`, topic, letterPlan.flatten())

	content, err := s.runner.GenerateText(ctx, spec)
	if err != nil || strings.TrimSpace(content) == "" {
		return FinalAssets{}, false
	}
	content = codec.UnescapeLiterals(content)

	var out FinalAssets
	if strings.Contains(content, "LETTER:") && strings.Contains(content, "BLOG:") {
		parts := strings.SplitN(content, "BLOG:", 2)
		out.LetterContent = strings.TrimSpace(strings.Replace(parts[0], "LETTER:", "", 1))
		out.BlogContent = strings.TrimSpace(parts[1])
	} else {
		// No markers: reuse the whole text for both.
		body := strings.TrimSpace(content)
		out.LetterContent = fmt.Sprintf("Dear Reader,\n\n%s\n\nBest regards,\n[Your Name]", body)
		out.BlogContent = body
	}

	return out, out.LetterContent != "" || out.BlogContent != ""
}

// composeAssets is the last resort: deterministic texts assembled from the
// plan structures so the run never completes with empty assets.
func composeAssets(topic string, letterPlan *ResearchLetter, blogPlan *BlogPost) FinalAssets {
	letter := fmt.Sprintf(`Dear Reader,

I'm writing to share insights on %s.

%s

%s

%s

Best regards,
[Your Name]`, topic, letterPlan.Introduction, letterPlan.Body, letterPlan.Conclusion)

	blog := fmt.Sprintf(`# %s

%s

## Background
%s

## Analysis
%s

## Conclusion
%s`, topic, blogPlan.Introduction, blogPlan.Background, blogPlan.Body, blogPlan.Conclusion)

	return FinalAssets{LetterContent: letter, BlogContent: blog}
}
