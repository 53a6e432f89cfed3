package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
)

func TestDefaultGraphOrdering(t *testing.T) {
	g := DefaultGraph()

	first := g.First()
	assert.Equal(t, PhaseInitialized, first.Phase)
	assert.Equal(t, AgentSEO, first.Agent)

	want := []struct {
		from  Phase
		phase Phase
		agent string
	}{
		{PhaseInitialized, PhaseSEOComplete, AgentBlog},
		{PhaseSEOComplete, PhaseBlogComplete, AgentReview},
		{PhaseBlogComplete, PhaseReviewComplete, AgentImage},
		{PhaseReviewComplete, PhaseImageComplete, AgentPublishing},
		{PhaseImageComplete, PhasePublishingComplete, ""},
	}
	for _, w := range want {
		step, err := g.Next(w.from)
		require.NoError(t, err, "Next(%s)", w.from)
		assert.Equal(t, w.phase, step.Phase)
		assert.Equal(t, w.agent, step.Agent)
	}
}

func TestGraphTerminal(t *testing.T) {
	g := DefaultGraph()

	assert.Equal(t, PhasePublishingComplete, g.Terminal())
	assert.True(t, g.IsTerminal(PhasePublishingComplete))
	assert.False(t, g.IsTerminal(PhaseInitialized))
	assert.False(t, g.IsTerminal(Phase("NOT_A_PHASE")))

	_, err := g.Next(PhasePublishingComplete)
	assert.True(t, types.IsValidation(err))
}

func TestGraphNextUnknownPhase(t *testing.T) {
	g := DefaultGraph()

	_, err := g.Next(Phase("BOGUS"))
	assert.True(t, types.IsUnknownPhase(err))

	_, err = g.AgentFor(Phase("BOGUS"))
	assert.True(t, types.IsUnknownPhase(err))
}

func TestGraphAgentFor(t *testing.T) {
	g := DefaultGraph()

	agent, err := g.AgentFor(PhaseSEOComplete)
	require.NoError(t, err)
	assert.Equal(t, AgentBlog, agent)

	agent, err = g.AgentFor(PhasePublishingComplete)
	require.NoError(t, err)
	assert.Equal(t, "", agent)
}

func TestGraphAgentStep(t *testing.T) {
	g := DefaultGraph()

	step, ok := g.AgentStep(AgentImage)
	require.True(t, ok)
	assert.Equal(t, PhaseReviewComplete, step.Phase)

	_, ok = g.AgentStep("NoSuchAgent")
	assert.False(t, ok)

	_, ok = g.AgentStep("")
	assert.False(t, ok)
}

func TestNewGraphValidation(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
	}{
		{"empty", nil},
		{"single step", []Step{{Phase: "ONLY"}}},
		{"duplicate phase", []Step{
			{Phase: "A", Agent: "X"},
			{Phase: "A", Agent: "Y"},
			{Phase: "DONE"},
		}},
		{"empty phase", []Step{
			{Phase: "", Agent: "X"},
			{Phase: "DONE"},
		}},
		{"non-terminal step without agent", []Step{
			{Phase: "A"},
			{Phase: "DONE"},
		}},
		{"terminal step with agent", []Step{
			{Phase: "A", Agent: "X"},
			{Phase: "DONE", Agent: "Y"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.steps)
			assert.True(t, types.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestNewGraphAcceptsAlternateOrdering(t *testing.T) {
	g, err := NewGraph([]Step{
		{Phase: "DRAFTED", Agent: "Writer"},
		{Phase: "EDITED", Agent: "Editor"},
		{Phase: "DONE"},
	})
	require.NoError(t, err)

	assert.Equal(t, []Phase{"DRAFTED", "EDITED", "DONE"}, g.Phases())
	assert.Equal(t, Phase("DONE"), g.Terminal())
}

func TestGraphStepsReturnsCopy(t *testing.T) {
	g := DefaultGraph()
	steps := g.Steps()
	steps[0].Agent = "Mutated"

	assert.Equal(t, AgentSEO, g.First().Agent)
}
