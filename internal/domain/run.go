package domain

import (
	"context"
	"encoding/json"
	"time"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Handoff is the structured payload one stage passes to the next.
// Payloads are append-only within a run and keyed by stage name.
type Handoff struct {
	Stage     string          `json:"stage"`
	Role      Role            `json:"role"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// PipelineRun is one execution of a workflow: the user's input params plus
// the ordered sequence of hand-offs the stages produced.
type PipelineRun struct {
	ID        string            `json:"id"`
	Workflow  string            `json:"workflow"`
	Params    map[string]string `json:"params"`
	Status    RunStatus         `json:"status"`
	Error     string            `json:"error,omitempty"`
	Handoffs  []Handoff         `json:"handoffs"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Handoff returns the payload recorded for a stage, or nil if the stage has
// not run.
func (r *PipelineRun) Handoff(stage string) json.RawMessage {
	for i := range r.Handoffs {
		if r.Handoffs[i].Stage == stage {
			return r.Handoffs[i].Payload
		}
	}
	return nil
}

// FinalHandoff returns the last recorded hand-off, or nil for an empty run.
func (r *PipelineRun) FinalHandoff() *Handoff {
	if len(r.Handoffs) == 0 {
		return nil
	}
	return &r.Handoffs[len(r.Handoffs)-1]
}

// StageInput is the structured input handed to a stage. It is immutable
// once handed over: the controller passes each stage its own copy of the
// prior-output map.
type StageInput struct {
	// Params are the user-supplied fields that started the run.
	Params map[string]string

	// Prior maps stage name to that stage's output payload, for every
	// stage that already ran in this pipeline.
	Prior map[string]json.RawMessage
}

// PriorInto unmarshals a prior stage's payload into out. It returns false
// when the stage has no recorded output.
func (in *StageInput) PriorInto(stage string, out any) (bool, error) {
	raw, ok := in.Prior[stage]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// StageOutput is the structured output a stage produces.
type StageOutput struct {
	Payload json.RawMessage
}

// Stage is one step in a linear generation pipeline.
type Stage interface {
	Name() string
	Role() Role
	Run(ctx context.Context, in *StageInput) (*StageOutput, error)
}

// AssetRenderer turns a completed run into named text/markdown assets.
// Each workflow supplies its own renderer for the exporter and the HTTP
// assets endpoint.
type AssetRenderer interface {
	RenderAssets(run *PipelineRun) (map[string]string, error)
}
