// Package pipeline runs linear multi-stage generation workflows. A pipeline
// is a fixed, ordered list of stages; each stage consumes the hand-offs of
// the stages before it and produces one typed JSON hand-off of its own.
package pipeline

import (
	"fmt"

	"github.com/actionplanner/launchkit/internal/domain"
)

// Pipeline is a named, ordered stage sequence plus the renderer that turns
// a completed run into exportable assets.
type Pipeline struct {
	Name        string
	Description string

	// Params documents the user-supplied input fields the first stage
	// expects.
	Params []string

	Stages   []domain.Stage
	Renderer domain.AssetRenderer
}

// StageNames returns the stage names in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		names[i] = s.Name()
	}
	return names
}

// StageError is returned when a stage fails. The run halts at the failing
// stage; hand-offs recorded before it are kept.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s error: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
