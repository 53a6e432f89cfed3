// Package orchestrator drives workflow records through the pipeline by
// invoking agent executors in graph order. It is the in-process
// stand-in for the production deployment where each agent is triggered
// independently; both paths share the router's claim and advance
// semantics.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jtlapenna/multi-agent-content-system/internal/agent"
	"github.com/jtlapenna/multi-agent-content-system/internal/router"
	"github.com/jtlapenna/multi-agent-content-system/internal/store"
	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// StepResult records the outcome of one agent invocation.
type StepResult struct {
	Agent   string
	Phase   workflow.Phase
	Success bool
	Err     error
}

// Summary aggregates a sequential run over one record.
type Summary struct {
	PostID      string
	Steps       []StepResult
	Succeeded   int
	Failed      int
	FinalStatus workflow.Status
}

// Orchestrator walks records through the phase graph.
type Orchestrator struct {
	store     store.Store
	graph     *workflow.Graph
	registry  *agent.Registry
	router    *router.Router
	stepDelay time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates an orchestrator. stepDelay is the pause between agent
// invocations in sequential runs; zero disables it.
func New(st store.Store, g *workflow.Graph, reg *agent.Registry, rt *router.Router, stepDelay time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     st,
		graph:     g,
		registry:  reg,
		router:    rt,
		stepDelay: stepDelay,
		logger:    logger.With("component", "orchestrator"),
		tracer:    otel.Tracer("orchestrator"),
	}
}

// Create starts a new workflow for the topic.
func (o *Orchestrator) Create(ctx context.Context, topic string, metadata map[string]string) (*workflow.Record, error) {
	return o.router.CreateNewWorkflow(ctx, topic, metadata)
}

// RunSequential drives the record through every remaining phase,
// stopping at the first agent failure or at the terminal phase. A
// failing step freezes the record via the router before returning; the
// error is captured in the summary, not returned, so callers can
// report partial progress.
func (o *Orchestrator) RunSequential(ctx context.Context, postID string) (*Summary, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.RunSequential",
		trace.WithAttributes(attribute.String("post_id", postID)))
	defer span.End()

	summary := &Summary{PostID: postID}
	for {
		rec, err := o.store.Get(ctx, postID)
		if err != nil {
			return summary, err
		}
		summary.FinalStatus = rec.Status
		if rec.Status != workflow.StatusInProgress || o.graph.IsTerminal(rec.CurrentPhase) {
			break
		}

		res := o.step(ctx, rec)
		summary.Steps = append(summary.Steps, res)
		if !res.Success {
			summary.Failed++
			summary.FinalStatus = workflow.StatusError
			break
		}
		summary.Succeeded++

		if o.stepDelay > 0 {
			select {
			case <-time.After(o.stepDelay):
			case <-ctx.Done():
				return summary, ctx.Err()
			}
		}
	}

	// the loop can exit before re-reading the record
	if rec, err := o.store.Get(ctx, postID); err == nil {
		summary.FinalStatus = rec.Status
	}

	span.SetAttributes(
		attribute.Int("steps.succeeded", summary.Succeeded),
		attribute.Int("steps.failed", summary.Failed),
		attribute.String("final_status", string(summary.FinalStatus)),
	)
	o.logger.Info("sequential run finished",
		"post_id", postID,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"final_status", summary.FinalStatus)
	return summary, nil
}

// RunSingleAgent invokes one agent against the record it currently
// owns. The ownership check happens before execution so a stale
// invocation fails fast instead of doing work it cannot commit.
func (o *Orchestrator) RunSingleAgent(ctx context.Context, postID, agentName string) (*StepResult, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.RunSingleAgent",
		trace.WithAttributes(
			attribute.String("post_id", postID),
			attribute.String("agent", agentName),
		))
	defer span.End()

	rec, err := o.store.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if rec.Status != workflow.StatusInProgress {
		return nil, types.NewValidationError("record " + postID + " is not in progress")
	}
	if rec.NextAgent != agentName {
		return nil, types.NewNotOwnerError(postID, agentName, rec.NextAgent)
	}

	res := o.step(ctx, rec)
	return &res, nil
}

// step runs the executor for the record's current phase and commits the
// outcome through the router.
func (o *Orchestrator) step(ctx context.Context, rec *workflow.Record) StepResult {
	result := StepResult{Phase: rec.CurrentPhase}

	exec, err := o.registry.ForPhase(rec.CurrentPhase)
	if err != nil {
		result.Err = err
		return result
	}
	result.Agent = exec.Name()

	ctx, span := o.tracer.Start(ctx, "orchestrator.step",
		trace.WithAttributes(
			attribute.String("post_id", rec.PostID),
			attribute.String("agent", exec.Name()),
			attribute.String("phase", string(rec.CurrentPhase)),
		))
	defer span.End()

	o.logger.Info("running agent",
		"post_id", rec.PostID, "agent", exec.Name(), "phase", rec.CurrentPhase)

	out, execErr := exec.Execute(ctx, rec.Clone())
	if execErr != nil {
		span.RecordError(execErr)
		result.Err = types.NewAgentFailedError(exec.Name(), execErr)
		if _, rptErr := o.router.ReportError(ctx, rec.PostID, exec.Name(), execErr); rptErr != nil {
			o.logger.Error("failed to record agent error",
				"post_id", rec.PostID, "agent", exec.Name(), "error", rptErr)
		}
		return result
	}

	next, err := o.graph.Next(rec.CurrentPhase)
	if err != nil {
		result.Err = err
		return result
	}

	var outputs map[string]string
	if out != nil {
		outputs = out.Outputs
	}
	if _, err := o.router.CompleteWork(ctx, router.CompleteRequest{
		PostID:    rec.PostID,
		Agent:     exec.Name(),
		NextAgent: next.Agent,
		NextPhase: next.Phase,
		Outputs:   outputs,
	}); err != nil {
		span.RecordError(err)
		result.Err = err
		return result
	}

	result.Success = true
	return result
}
