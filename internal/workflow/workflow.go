// Package workflow registers the built-in pipelines and describes them for
// the API surface.
package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/actionplanner/launchkit/internal/config"
	"github.com/actionplanner/launchkit/internal/pipeline"
	"github.com/actionplanner/launchkit/internal/workflow/launch"
	"github.com/actionplanner/launchkit/internal/workflow/letter"
	"github.com/actionplanner/launchkit/internal/workflow/workshop"
)

// Deps is what every workflow needs to assemble its pipeline.
type Deps struct {
	Runner *pipeline.Runner
	Config *config.Config

	// Clock feeds date-aware prompts. Nil means time.Now.
	Clock func() time.Time
}

// Definition is the API-facing description of one workflow.
type Definition struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Params      []string `json:"params"`
	Stages      []string `json:"stages"`
}

// Registry holds the assembled pipelines by name.
type Registry struct {
	pipelines map[string]*pipeline.Pipeline
}

// NewRegistry assembles every built-in workflow.
func NewRegistry(deps Deps) *Registry {
	return &Registry{pipelines: map[string]*pipeline.Pipeline{
		launch.WorkflowName:   launch.New(deps.Runner, deps.Config),
		workshop.WorkflowName: workshop.New(deps.Runner, deps.Config, deps.Clock),
		letter.WorkflowName:   letter.New(deps.Runner, deps.Config, deps.Clock),
	}}
}

// Get returns the pipeline registered under name.
func (r *Registry) Get(name string) (*pipeline.Pipeline, error) {
	p, ok := r.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("unknown workflow %q", name)
	}
	return p, nil
}

// Definitions lists every workflow, sorted by name.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.pipelines))
	for _, p := range r.pipelines {
		defs = append(defs, Definition{
			Name:        p.Name,
			Description: p.Description,
			Params:      p.Params,
			Stages:      p.StageNames(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
