package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/actionplanner/launchkit/internal/domain"
	"github.com/actionplanner/launchkit/internal/storage"
)

// Controller sequences stage execution. It runs each stage exactly once in
// pipeline order, threads the accumulated hand-off map into the next stage,
// halts on the first failure, and keeps the run record current in the store.
type Controller struct {
	store  storage.RunStore
	logger *slog.Logger
	tracer trace.Tracer

	// newID is swappable for deterministic tests.
	newID func() string
}

// NewController creates a controller backed by the given run store.
func NewController(store storage.RunStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("launchkit/pipeline"),
		newID:  func() string { return uuid.New().String() },
	}
}

// Execute runs every stage of p in order. The returned run reflects the
// final state: completed with all hand-offs, or failed with the hand-offs
// recorded before the failing stage. The error, when non-nil, is a
// *StageError for stage failures.
func (c *Controller) Execute(ctx context.Context, p *Pipeline, params map[string]string) (*domain.PipelineRun, error) {
	run := &domain.PipelineRun{
		ID:       c.newID(),
		Workflow: p.Name,
		Params:   copyParams(params),
		Status:   domain.RunPending,
	}

	if err := c.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	if err := c.store.UpdateRunStatus(ctx, run.ID, domain.RunRunning, ""); err != nil {
		return nil, fmt.Errorf("mark run running: %w", err)
	}
	run.Status = domain.RunRunning

	c.logger.Info("run started",
		"run_id", run.ID, "workflow", p.Name, "stages", len(p.Stages))

	prior := make(map[string]json.RawMessage, len(p.Stages))

	for _, stage := range p.Stages {
		started := time.Now()

		stageCtx, span := c.tracer.Start(ctx, "pipeline.stage",
			trace.WithAttributes(
				attribute.String("workflow", p.Name),
				attribute.String("stage", stage.Name()),
				attribute.String("role", string(stage.Role())),
			))

		// Each stage gets its own copy of the prior-output map so a
		// stage cannot mutate what later stages see.
		in := &domain.StageInput{
			Params: copyParams(params),
			Prior:  copyPrior(prior),
		}

		out, err := stage.Run(stageCtx, in)
		if err != nil {
			span.RecordError(err)
			span.End()

			stageErr := &StageError{Stage: stage.Name(), Err: err}
			c.logger.Error("stage failed",
				"run_id", run.ID, "workflow", p.Name, "stage", stage.Name(),
				"duration", time.Since(started), "error", err)

			if uerr := c.store.UpdateRunStatus(ctx, run.ID, domain.RunFailed, stageErr.Error()); uerr != nil {
				c.logger.Error("failed to record run failure", "run_id", run.ID, "error", uerr)
			}
			run.Status = domain.RunFailed
			run.Error = stageErr.Error()
			return run, stageErr
		}
		span.End()

		h := domain.Handoff{
			Stage:   stage.Name(),
			Role:    stage.Role(),
			Payload: out.Payload,
		}
		if err := c.store.AppendHandoff(ctx, run.ID, &h); err != nil {
			return run, fmt.Errorf("record hand-off for stage %s: %w", stage.Name(), err)
		}
		run.Handoffs = append(run.Handoffs, h)
		prior[stage.Name()] = out.Payload

		c.logger.Info("stage completed",
			"run_id", run.ID, "workflow", p.Name, "stage", stage.Name(),
			"duration", time.Since(started), "payload_bytes", len(out.Payload))
	}

	if err := c.store.UpdateRunStatus(ctx, run.ID, domain.RunCompleted, ""); err != nil {
		return run, fmt.Errorf("mark run completed: %w", err)
	}
	run.Status = domain.RunCompleted

	c.logger.Info("run completed", "run_id", run.ID, "workflow", p.Name)
	return run, nil
}

func copyParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

func copyPrior(prior map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(prior))
	for k, v := range prior {
		out[k] = v
	}
	return out
}
