package workflow

import (
	"github.com/jtlapenna/multi-agent-content-system/internal/types"
)

// Phase is a named stage in the publishing pipeline.
type Phase string

const (
	PhaseInitialized        Phase = "INITIALIZED"
	PhaseSEOComplete        Phase = "SEO_COMPLETE"
	PhaseBlogComplete       Phase = "BLOG_COMPLETE"
	PhaseReviewComplete     Phase = "REVIEW_COMPLETE"
	PhaseImageComplete      Phase = "IMAGE_COMPLETE"
	PhasePublishingComplete Phase = "PUBLISHING_COMPLETE"
)

// Agent names for the default pipeline.
const (
	AgentSEO        = "SEOAgent"
	AgentBlog       = "BlogAgent"
	AgentReview     = "ReviewAgent"
	AgentImage      = "ImageAgent"
	AgentPublishing = "PublishingAgent"
)

// Step pairs a phase with the agent that owns it. The final step of a
// graph carries no agent; reaching its phase completes the pipeline.
type Step struct {
	Phase Phase
	Agent string
}

// Graph is the fixed ordered sequence of pipeline phases. It is built
// once at startup and never mutated; lookups are pure.
type Graph struct {
	steps []Step
	index map[Phase]int
}

// DefaultSteps returns the five-agent publishing pipeline.
func DefaultSteps() []Step {
	return []Step{
		{Phase: PhaseInitialized, Agent: AgentSEO},
		{Phase: PhaseSEOComplete, Agent: AgentBlog},
		{Phase: PhaseBlogComplete, Agent: AgentReview},
		{Phase: PhaseReviewComplete, Agent: AgentImage},
		{Phase: PhaseImageComplete, Agent: AgentPublishing},
		{Phase: PhasePublishingComplete},
	}
}

// NewGraph builds a phase graph from an ordered step list. Phases must be
// distinct and non-empty, every step but the last must name an owning
// agent, and the last step must not (it is the terminal phase). A list of
// distinct phases cannot cycle, so no further structural validation is
// performed.
func NewGraph(steps []Step) (*Graph, error) {
	if len(steps) < 2 {
		return nil, types.NewValidationError("phase graph needs at least one working step and a terminal phase")
	}

	index := make(map[Phase]int, len(steps))
	for i, s := range steps {
		if s.Phase == "" {
			return nil, types.NewValidationError("phase graph step has an empty phase")
		}
		if _, dup := index[s.Phase]; dup {
			return nil, types.NewValidationError("duplicate phase in graph: " + string(s.Phase))
		}
		last := i == len(steps)-1
		if last && s.Agent != "" {
			return nil, types.NewValidationError("terminal phase must not have an owning agent: " + string(s.Phase))
		}
		if !last && s.Agent == "" {
			return nil, types.NewValidationError("non-terminal phase missing owning agent: " + string(s.Phase))
		}
		index[s.Phase] = i
	}

	copied := make([]Step, len(steps))
	copy(copied, steps)
	return &Graph{steps: copied, index: index}, nil
}

// DefaultGraph returns the graph for the default pipeline.
func DefaultGraph() *Graph {
	g, err := NewGraph(DefaultSteps())
	if err != nil {
		panic(err) // default steps are statically valid
	}
	return g
}

// First returns the initial step of the pipeline.
func (g *Graph) First() Step {
	return g.steps[0]
}

// Terminal returns the terminal phase of the pipeline.
func (g *Graph) Terminal() Phase {
	return g.steps[len(g.steps)-1].Phase
}

// Contains reports whether the phase is part of the graph.
func (g *Graph) Contains(p Phase) bool {
	_, ok := g.index[p]
	return ok
}

// IsTerminal reports whether the phase is the terminal phase.
func (g *Graph) IsTerminal(p Phase) bool {
	return p == g.Terminal()
}

// Next returns the step that follows the given phase. It fails with an
// unknown-phase error when the phase is not in the graph, and with a
// validation error when the phase is terminal.
func (g *Graph) Next(p Phase) (Step, error) {
	i, ok := g.index[p]
	if !ok {
		return Step{}, types.NewUnknownPhaseError(string(p))
	}
	if i == len(g.steps)-1 {
		return Step{}, types.NewValidationError("phase is terminal: " + string(p))
	}
	return g.steps[i+1], nil
}

// AgentFor returns the agent owning the given phase. The terminal phase
// has no owner and returns an empty string.
func (g *Graph) AgentFor(p Phase) (string, error) {
	i, ok := g.index[p]
	if !ok {
		return "", types.NewUnknownPhaseError(string(p))
	}
	return g.steps[i].Agent, nil
}

// AgentStep returns the step owned by the given agent.
func (g *Graph) AgentStep(agent string) (Step, bool) {
	if agent == "" {
		return Step{}, false
	}
	for _, s := range g.steps {
		if s.Agent == agent {
			return s, true
		}
	}
	return Step{}, false
}

// Phases returns the ordered phase list.
func (g *Graph) Phases() []Phase {
	out := make([]Phase, len(g.steps))
	for i, s := range g.steps {
		out[i] = s.Phase
	}
	return out
}

// Steps returns a copy of the ordered step list.
func (g *Graph) Steps() []Step {
	out := make([]Step, len(g.steps))
	copy(out, g.steps)
	return out
}
