// Package workshop is the workshop planner workflow: research the event,
// plan agenda and logistics, then produce the outreach assets. Every prompt
// carries a date context so the model plans against the real calendar.
package workshop

// Reference is a cited source.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// RiskItem pairs a risk with its mitigation.
type RiskItem struct {
	Risk       string `json:"risk"`
	Mitigation string `json:"mitigation"`
}

// WorkshopResearch is the research stage's hand-off.
type WorkshopResearch struct {
	Topics      []string    `json:"topics"`
	Risks       []RiskItem  `json:"risks"`
	BudgetNotes string      `json:"budget_notes"`
	References  []Reference `json:"references"`
}

// Task is one preparation step inside a milestone.
type Task struct {
	Desc      string  `json:"desc"`
	EffortHrs float64 `json:"effort_hrs,omitempty"`
	Owner     string  `json:"owner,omitempty"`
}

// Milestone groups preparation tasks under a due date.
type Milestone struct {
	Title string `json:"title"`
	Due   string `json:"due,omitempty"` // YYYY-MM-DD when possible
	Tasks []Task `json:"tasks"`
}

// WorkshopPlan is the plan stage's hand-off. Markdown carries the
// human-readable summary alongside the structured fields.
type WorkshopPlan struct {
	Agenda         []string    `json:"agenda"`
	Milestones     []Milestone `json:"milestones"`
	SuccessMetrics []string    `json:"success_metrics"`
	Risks          []string    `json:"risks"`
	Markdown       string      `json:"markdown,omitempty"`
}

// Hard limits on plan sizes. Models routinely overshoot these even when the
// prompt states them.
const (
	maxAgenda         = 6
	maxMilestones     = 5
	maxTasks          = 3
	maxSuccessMetrics = 6
	maxRisks          = 4
)

func (p *WorkshopPlan) clamp() {
	p.Agenda = truncate(p.Agenda, maxAgenda)
	p.Milestones = truncate(p.Milestones, maxMilestones)
	for i := range p.Milestones {
		p.Milestones[i].Tasks = truncate(p.Milestones[i].Tasks, maxTasks)
	}
	p.SuccessMetrics = truncate(p.SuccessMetrics, maxSuccessMetrics)
	p.Risks = truncate(p.Risks, maxRisks)
}

// WorkshopAssets is the produce stage's hand-off.
type WorkshopAssets struct {
	InviteEmail string `json:"invite_email"`
	PosterText  string `json:"poster_text"`
	Checklist   string `json:"checklist"`
}

func truncate[T any](s []T, max int) []T {
	if len(s) > max {
		return s[:max]
	}
	return s
}
