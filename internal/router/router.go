// Package router implements the claim-and-advance layer of the
// pipeline: finding eligible work for an agent, advancing a record's
// phase and owner on completion, and creating new workflows.
package router

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jtlapenna/multi-agent-content-system/internal/agent"
	"github.com/jtlapenna/multi-agent-content-system/internal/notify"
	"github.com/jtlapenna/multi-agent-content-system/internal/slug"
	"github.com/jtlapenna/multi-agent-content-system/internal/store"
	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

const defaultNotifyTimeout = 10 * time.Second

// slugSuffixKey is the metadata key callers set to disambiguate a second
// post on the same topic the same day.
const slugSuffixKey = "slug_suffix"

// Router routes workflow records through the phase graph. The
// next_agent field acts as an advisory lock: CompleteWork enforces the
// ownership precondition but there is no stronger mutual exclusion,
// matching the single-writer-per-record scope.
type Router struct {
	store         store.Store
	graph         *workflow.Graph
	notifier      notify.Notifier
	workspace     *agent.Workspace
	logger        *slog.Logger
	tracer        trace.Tracer
	notifyTimeout time.Duration
}

// New creates a router. The workspace may be nil when directory
// scaffolding is handled elsewhere.
func New(st store.Store, g *workflow.Graph, n notify.Notifier, ws *agent.Workspace, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if n == nil {
		n = notify.NopNotifier{}
	}
	return &Router{
		store:         st,
		graph:         g,
		notifier:      n,
		workspace:     ws,
		logger:        logger.With("component", "router"),
		tracer:        otel.Tracer("router"),
		notifyTimeout: defaultNotifyTimeout,
	}
}

// FindNextWork returns the oldest in-progress record claimable by the
// agent at the expected phase, or nil when nothing is eligible. FIFO
// selection is a fairness guarantee: older posts cannot be starved by
// newer ones.
func (r *Router) FindNextWork(ctx context.Context, agentName string, expectedPhase workflow.Phase) (*workflow.Record, error) {
	ctx, span := r.tracer.Start(ctx, "router.FindNextWork",
		trace.WithAttributes(
			attribute.String("agent", agentName),
			attribute.String("phase", string(expectedPhase)),
		))
	defer span.End()

	records, err := r.store.ListByPhaseAndAgent(ctx, expectedPhase, agentName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	oldest := records[0]
	for _, rec := range records[1:] {
		if rec.CreatedAt.Before(oldest.CreatedAt) {
			oldest = rec
		}
	}

	span.SetAttributes(attribute.String("post_id", oldest.PostID))
	r.logger.Debug("work claimed",
		"agent", agentName, "phase", expectedPhase, "post_id", oldest.PostID)
	return oldest, nil
}

// CompleteRequest describes one successful agent run to be applied to a
// record.
type CompleteRequest struct {
	PostID    string
	Agent     string
	NextAgent string
	NextPhase workflow.Phase
	Outputs   map[string]string
}

// CompleteWork advances a record after a successful agent run: the
// agent is appended to the history, its outputs merged, and the phase
// and owner moved forward (or the record marked completed at the
// terminal phase). The caller must be the record's current owner.
//
// The hand-off notification fires after the state transition persists
// and never rolls it back; the transition is the source of truth and
// the notification only a wake-up.
func (r *Router) CompleteWork(ctx context.Context, req CompleteRequest) (*workflow.Record, error) {
	ctx, span := r.tracer.Start(ctx, "router.CompleteWork",
		trace.WithAttributes(
			attribute.String("post_id", req.PostID),
			attribute.String("agent", req.Agent),
			attribute.String("next_phase", string(req.NextPhase)),
		))
	defer span.End()

	rec, err := r.store.Get(ctx, req.PostID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if rec.NextAgent != req.Agent {
		err := types.NewNotOwnerError(req.PostID, req.Agent, rec.NextAgent)
		span.RecordError(err)
		return nil, err
	}
	if !r.graph.Contains(req.NextPhase) {
		err := types.NewUnknownPhaseError(string(req.NextPhase))
		span.RecordError(err)
		return nil, err
	}

	terminal := r.graph.IsTerminal(req.NextPhase)
	u := workflow.Update{
		Phase:           &req.NextPhase,
		AppendAgentsRun: []string{req.Agent},
		MergeOutputs:    req.Outputs,
	}
	if terminal {
		done := workflow.StatusCompleted
		noOwner := ""
		u.Status = &done
		u.NextAgent = &noOwner
	} else {
		u.NextAgent = &req.NextAgent
	}

	updated, err := r.store.Update(ctx, req.PostID, u)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if terminal {
		r.logger.Info("pipeline completed", "post_id", req.PostID, "final_agent", req.Agent)
	} else {
		r.logger.Info("work completed, handing off",
			"post_id", req.PostID, "agent", req.Agent,
			"next_agent", req.NextAgent, "next_phase", req.NextPhase)
		r.fireHandoff(req.NextAgent, updated.Clone())
	}
	return updated, nil
}

// CreateNewWorkflow creates a record for a new topic at the first step
// of the pipeline, scaffolds its artifact directory, and fires the
// initial hand-off. A duplicate post_id surfaces as already_exists; see
// the slug package for same-day collision handling.
func (r *Router) CreateNewWorkflow(ctx context.Context, topic string, metadata map[string]string) (*workflow.Record, error) {
	ctx, span := r.tracer.Start(ctx, "router.CreateNewWorkflow")
	defer span.End()

	postID := slug.GenerateWithSuffix(topic, time.Now().UTC(), metadata[slugSuffixKey])
	span.SetAttributes(attribute.String("post_id", postID))

	if r.workspace != nil {
		if _, err := r.workspace.Scaffold(postID); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	first := r.graph.First()
	rec := workflow.NewRecord(postID, topic, first, metadata)
	created, err := r.store.Create(ctx, rec)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	r.logger.Info("workflow created",
		"post_id", postID, "topic", topic, "next_agent", first.Agent)
	r.fireHandoff(first.Agent, created.Clone())
	return created, nil
}

// ReportError records an agent failure and freezes the record. A frozen
// record is excluded from FindNextWork until an operator resets it;
// the core never retries automatically.
func (r *Router) ReportError(ctx context.Context, postID, agentName string, execErr error) (*workflow.Record, error) {
	ctx, span := r.tracer.Start(ctx, "router.ReportError",
		trace.WithAttributes(
			attribute.String("post_id", postID),
			attribute.String("agent", agentName),
		))
	defer span.End()
	span.RecordError(execErr)

	frozen := workflow.StatusError
	updated, err := r.store.Update(ctx, postID, workflow.Update{
		Status: &frozen,
		AppendErrors: []workflow.ErrorEntry{{
			ID:        types.NewID(),
			Agent:     agentName,
			Message:   execErr.Error(),
			Timestamp: time.Now().UTC(),
		}},
	})
	if err != nil {
		return nil, err
	}

	r.logger.Error("agent failed, record frozen",
		"post_id", postID, "agent", agentName, "error", execErr)
	return updated, nil
}

// Reset restores a frozen record to routing: status returns to
// in_progress and ownership moves to nextAgent at the phase that agent
// expects. The error log is preserved.
func (r *Router) Reset(ctx context.Context, postID, nextAgent string) (*workflow.Record, error) {
	step, ok := r.graph.AgentStep(nextAgent)
	if !ok {
		return nil, types.NewValidationError("agent " + nextAgent + " owns no phase in the pipeline")
	}

	resumed := workflow.StatusInProgress
	updated, err := r.store.Update(ctx, postID, workflow.Update{
		Status:    &resumed,
		Phase:     &step.Phase,
		NextAgent: &nextAgent,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("record reset",
		"post_id", postID, "next_agent", nextAgent, "phase", step.Phase)
	r.fireHandoff(nextAgent, updated.Clone())
	return updated, nil
}

// fireHandoff delivers the hand-off notification without blocking the
// caller. Failures are logged, never propagated.
func (r *Router) fireHandoff(agentName string, rec *workflow.Record) {
	h := notify.NewHandoff(agentName, rec)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.notifyTimeout)
		defer cancel()
		if err := r.notifier.Notify(ctx, h); err != nil {
			r.logger.Warn("hand-off notification failed",
				"delivery_id", h.DeliveryID,
				"agent", agentName,
				"post_id", rec.PostID,
				"error", err)
		}
	}()
}
