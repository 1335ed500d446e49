package workshop

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/actionplanner/launchkit/internal/domain"
)

// Renderer turns a completed workshop run into the exportable asset files.
type Renderer struct{}

func (Renderer) RenderAssets(run *domain.PipelineRun) (map[string]string, error) {
	raw := run.Handoff("produce")
	if raw == nil {
		return nil, fmt.Errorf("run %s has no produce output", run.ID)
	}

	var assets WorkshopAssets
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil, fmt.Errorf("decode produce output: %w", err)
	}

	dateTxt, daysTxt := "N/A", "N/A"
	if event, err := time.Parse(dateLayout, run.Params["event_date"]); err == nil {
		dateTxt = event.Format(dateLayout)
		created := run.CreatedAt
		today := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)
		daysTxt = fmt.Sprintf("%d", int(event.Sub(today).Hours()/24))
	}

	return map[string]string{
		"invite_email.txt":  assets.InviteEmail,
		"poster.txt":        assets.PosterText,
		"checklist.txt":     assets.Checklist,
		"workshop_info.txt": fmt.Sprintf("Workshop Date: %s\nDays until workshop: %s", dateTxt, daysTxt),
	}, nil
}

// renderPlanMarkdown builds the concise human-readable summary that travels
// in the plan hand-off next to the structured fields.
func renderPlanMarkdown(goal, audience string, plan *WorkshopPlan) string {
	var b strings.Builder
	b.WriteString("## Workshop Plan\n")
	fmt.Fprintf(&b, "**Goal:** %s\n", goal)
	fmt.Fprintf(&b, "**Audience:** %s\n\n", audience)

	b.WriteString("### Agenda\n")
	for _, a := range plan.Agenda {
		fmt.Fprintf(&b, "- %s\n", a)
	}

	b.WriteString("\n### Milestones\n")
	for _, m := range plan.Milestones {
		due := ""
		if m.Due != "" {
			due = " — due " + m.Due
		}
		fmt.Fprintf(&b, "- %s%s\n", m.Title, due)
		if len(m.Tasks) > 0 {
			descs := make([]string, 0, len(m.Tasks))
			for _, t := range m.Tasks {
				if t.Desc != "" {
					descs = append(descs, t.Desc)
				}
			}
			if len(descs) > 0 {
				fmt.Fprintf(&b, "  - tasks: %s\n", strings.Join(descs, "; "))
			}
		}
	}

	if len(plan.SuccessMetrics) > 0 {
		b.WriteString("\n### Success Metrics\n")
		for _, s := range plan.SuccessMetrics {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	if len(plan.Risks) > 0 {
		b.WriteString("\n### Risks\n")
		for _, r := range plan.Risks {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
