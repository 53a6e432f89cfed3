package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

type namedExecutor struct {
	name string
}

func (e *namedExecutor) Name() string { return e.name }

func (e *namedExecutor) Execute(ctx context.Context, rec *workflow.Record) (*Result, error) {
	return &Result{}, nil
}

func namedExecutors(names ...string) []Executor {
	out := make([]Executor, len(names))
	for i, n := range names {
		out[i] = &namedExecutor{name: n}
	}
	return out
}

func allAgents() []string {
	return []string{
		workflow.AgentSEO,
		workflow.AgentBlog,
		workflow.AgentReview,
		workflow.AgentImage,
		workflow.AgentPublishing,
	}
}

func TestNewRegistryBindsAllPhases(t *testing.T) {
	g := workflow.DefaultGraph()
	reg, err := NewRegistry(g, namedExecutors(allAgents()...))
	require.NoError(t, err)

	for _, step := range g.Steps() {
		if step.Agent == "" {
			continue
		}
		e, err := reg.ForPhase(step.Phase)
		require.NoError(t, err)
		assert.Equal(t, step.Agent, e.Name())
	}
}

func TestNewRegistryRejectsMissingExecutor(t *testing.T) {
	_, err := NewRegistry(workflow.DefaultGraph(), namedExecutors(
		workflow.AgentSEO, workflow.AgentBlog, workflow.AgentReview, workflow.AgentImage,
	))
	assert.True(t, types.IsValidation(err))
}

func TestNewRegistryRejectsDuplicateExecutor(t *testing.T) {
	execs := append(namedExecutors(allAgents()...), &namedExecutor{name: workflow.AgentSEO})
	_, err := NewRegistry(workflow.DefaultGraph(), execs)
	assert.True(t, types.IsValidation(err))
}

func TestNewRegistryRejectsUnboundExecutor(t *testing.T) {
	execs := append(namedExecutors(allAgents()...), &namedExecutor{name: "StragglerAgent"})
	_, err := NewRegistry(workflow.DefaultGraph(), execs)
	assert.True(t, types.IsValidation(err))
}

func TestRegistryForPhaseUnknown(t *testing.T) {
	reg, err := NewRegistry(workflow.DefaultGraph(), namedExecutors(allAgents()...))
	require.NoError(t, err)

	_, err = reg.ForPhase(workflow.Phase("BOGUS"))
	assert.True(t, types.IsUnknownPhase(err))

	// terminal phase has no executor
	_, err = reg.ForPhase(workflow.PhasePublishingComplete)
	assert.True(t, types.IsUnknownPhase(err))
}
