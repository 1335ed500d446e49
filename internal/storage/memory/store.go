// Package memory is the default in-process run store. Runs live only as
// long as the server does.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/storage"
)

// Store is an in-memory implementation of RunStore.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*domain.PipelineRun
}

var _ storage.RunStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs: make(map[string]*domain.PipelineRun),
	}
}

func (s *Store) CreateRun(ctx context.Context, run *domain.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return storage.ErrRunExists
	}

	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now
	run.Handoffs = []domain.Handoff{}

	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*domain.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return cloneRun(run), nil
}

func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*domain.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PipelineRun
	for _, run := range s.runs {
		if opts.Workflow != "" && run.Workflow != opts.Workflow {
			continue
		}
		result = append(result, cloneRun(run))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	// Simple pagination. Negative values come straight from query
	// parameters and mean "unset".
	start := opts.Offset
	if start < 0 {
		start = 0
	}
	if start >= len(result) {
		return []*domain.PipelineRun{}, nil
	}

	limit := opts.Limit
	if limit < 0 {
		limit = 0
	}
	end := start + limit
	if limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) AppendHandoff(ctx context.Context, runID string, h *domain.Handoff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[runID]
	if !exists {
		return storage.ErrNotFound
	}

	for i := range run.Handoffs {
		if run.Handoffs[i].Stage == h.Stage {
			return storage.ErrDuplicateStage
		}
	}

	h.CreatedAt = time.Now()
	run.Handoffs = append(run.Handoffs, *h)
	run.UpdatedAt = time.Now()

	return nil
}

func (s *Store) UpdateRunStatus(ctx context.Context, id string, status domain.RunStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[id]
	if !exists {
		return storage.ErrNotFound
	}

	run.Status = status
	run.Error = errMsg
	run.UpdatedAt = time.Now()

	return nil
}

func (s *Store) Close() error {
	return nil
}

// cloneRun copies a run so callers cannot mutate stored state.
func cloneRun(run *domain.PipelineRun) *domain.PipelineRun {
	out := *run
	out.Params = make(map[string]string, len(run.Params))
	for k, v := range run.Params {
		out.Params[k] = v
	}
	out.Handoffs = make([]domain.Handoff, len(run.Handoffs))
	copy(out.Handoffs, run.Handoffs)
	return &out
}
