package workshop

import (
	"regexp"
	"strings"
)

var (
	headingRe   = regexp.MustCompile(`^#+\s*`)
	separatorRe = regexp.MustCompile(`\s+—\s+|\s+-\s+`)
)

// parsePlanMarkdown recovers a WorkshopPlan from a readable markdown plan.
// It is the fallback when structured output fails: the sections Agenda,
// Milestones, Success Metrics, and Risks are located by heading and their
// bullets collected up to the plan's hard limits. Milestone bullets follow
// "Title — due YYYY-MM-DD — tasks: task A; task B".
func parsePlanMarkdown(md string) WorkshopPlan {
	var plan WorkshopPlan
	section := ""

	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "#") || strings.HasSuffix(line, ":") {
			title := strings.ToLower(strings.Trim(headingRe.ReplaceAllString(line, ""), ": "))
			switch {
			case strings.Contains(title, "agenda"):
				section = "agenda"
			case strings.Contains(title, "milestone"):
				section = "milestones"
			case strings.Contains(title, "metric"):
				section = "metrics"
			case strings.Contains(title, "risk"):
				section = "risks"
			default:
				section = ""
			}
			continue
		}

		if line == "" || section == "" {
			continue
		}
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "•") {
			continue
		}
		item := strings.TrimSpace(strings.TrimLeft(line, "-*• "))

		switch section {
		case "agenda":
			if len(plan.Agenda) < maxAgenda {
				plan.Agenda = append(plan.Agenda, item)
			}
		case "metrics":
			if len(plan.SuccessMetrics) < maxSuccessMetrics {
				plan.SuccessMetrics = append(plan.SuccessMetrics, item)
			}
		case "risks":
			if len(plan.Risks) < maxRisks {
				plan.Risks = append(plan.Risks, item)
			}
		case "milestones":
			if len(plan.Milestones) >= maxMilestones {
				continue
			}
			plan.Milestones = append(plan.Milestones, parseMilestone(item))
		}
	}

	return plan
}

func parseMilestone(item string) Milestone {
	m := Milestone{Title: item}

	parts := separatorRe.Split(item, -1)
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		m.Title = strings.TrimSpace(parts[0])
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		low := strings.ToLower(p)
		switch {
		case strings.HasPrefix(low, "due"):
			fields := strings.Fields(p)
			if len(fields) > 1 {
				m.Due = fields[len(fields)-1]
			}
		case strings.HasPrefix(low, "tasks:"):
			for _, task := range strings.Split(p[len("tasks:"):], ";") {
				if task = strings.TrimSpace(task); task != "" && len(m.Tasks) < maxTasks {
					m.Tasks = append(m.Tasks, Task{Desc: task})
				}
			}
		}
	}
	return m
}
