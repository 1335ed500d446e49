// Package storage defines the hand-off store: persistence for pipeline runs
// and the append-only hand-off sequence each run accumulates.
package storage

import (
	"context"
	"errors"

	"github.com/actionplanner/launchkit/internal/domain"
)

// ErrDuplicateStage is returned when a hand-off is appended for a stage
// that already has one. The hand-off sequence is append-only and keyed by
// stage name.
var ErrDuplicateStage = errors.New("storage: hand-off already recorded for stage")

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("storage: run not found")

// ErrRunExists is returned when creating a run with an ID already in use.
var ErrRunExists = errors.New("storage: run already exists")

// ListOptions filter and page run listings.
type ListOptions struct {
	Workflow string
	Limit    int
	Offset   int
}

// RunStore persists pipeline runs and their hand-offs.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.PipelineRun) error
	GetRun(ctx context.Context, id string) (*domain.PipelineRun, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]*domain.PipelineRun, error)

	// AppendHandoff records a stage's output. It fails with
	// ErrDuplicateStage when the stage already has a hand-off.
	AppendHandoff(ctx context.Context, runID string, h *domain.Handoff) error

	// UpdateRunStatus transitions the run and records the failure message
	// when status is RunFailed.
	UpdateRunStatus(ctx context.Context, id string, status domain.RunStatus, errMsg string) error

	Close() error
}
