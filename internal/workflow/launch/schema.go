// Package launch is the landing page builder workflow: research the product,
// plan the project, then produce the page files.
package launch

// Competitor is one comparable tool or page.
type Competitor struct {
	Name  string `json:"name"`
	Angle string `json:"angle"`
}

// Reference is a cited source.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// RiskItem pairs a delivery risk with its mitigation.
type RiskItem struct {
	Risk       string `json:"risk"`
	Mitigation string `json:"mitigation"`
}

// ResearchOut is the research stage's hand-off.
type ResearchOut struct {
	Competitors []Competitor `json:"competitors"`
	Hooks       []string     `json:"hooks"`
	Keywords    []string     `json:"keywords"`
	Risks       []RiskItem   `json:"risks"`
	References  []Reference  `json:"references"`
}

// clamp trims research output to its documented limits. Models tend to
// overshoot list sizes even when the prompt states them.
func (r *ResearchOut) clamp() {
	r.Competitors = truncate(r.Competitors, 3)
	r.Hooks = truncate(r.Hooks, 5)
	r.Keywords = truncate(r.Keywords, 10)
	r.Risks = truncate(r.Risks, 3)
	r.References = truncate(r.References, 4)
}

// Task is one unit of milestone work.
type Task struct {
	Desc      string `json:"desc"`
	EffortHrs int    `json:"effort_hrs"`
}

// Milestone groups tasks under a due date offset.
type Milestone struct {
	Title   string `json:"title"`
	DueDays int    `json:"due_days"`
	Tasks   []Task `json:"tasks"`
}

// RepoSettings carries the repository choices the producer acts on.
type RepoSettings struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
	License       string `json:"license"` // "None" | "MIT" | "Apache-2.0"
	InitReadme    bool   `json:"init_readme"`
	AddCI         bool   `json:"add_ci"`
}

// FileItem is one planned file with its reason for existing.
type FileItem struct {
	Path string `json:"path"`
	Why  string `json:"why"`
}

// PlanOut is the plan stage's hand-off.
type PlanOut struct {
	Milestones     []Milestone  `json:"milestones"`
	SuccessMetrics []string     `json:"success_metrics"`
	CopyOutline    []string     `json:"copy_outline"`
	Repo           RepoSettings `json:"repo"`
	FileManifest   []FileItem   `json:"file_manifest"`
}

func (p *PlanOut) clamp() {
	p.Milestones = truncate(p.Milestones, 5)
	for i := range p.Milestones {
		p.Milestones[i].Tasks = truncate(p.Milestones[i].Tasks, 5)
	}
	p.SuccessMetrics = truncate(p.SuccessMetrics, 6)
	p.CopyOutline = truncate(p.CopyOutline, 8)
	p.FileManifest = truncate(p.FileManifest, 20)
}

// FilesOut is the produce stage's hand-off: filename to content.
type FilesOut struct {
	Files map[string]string `json:"files"`
}

func (f *FilesOut) clamp() {
	if f.Files == nil {
		f.Files = map[string]string{}
	}
}

func truncate[T any](s []T, max int) []T {
	if len(s) > max {
		return s[:max]
	}
	return s
}
