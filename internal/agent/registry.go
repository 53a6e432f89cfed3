package agent

import (
	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// Registry binds each non-terminal phase to the executor owning it. The
// binding is fixed at construction; dispatch is a map lookup, never
// name-based reflection.
type Registry struct {
	byPhase map[workflow.Phase]Executor
}

// NewRegistry builds a registry from a graph and the executors serving
// it. Every non-terminal phase must be covered by exactly one executor
// with a matching name; extra or duplicate executors are rejected.
func NewRegistry(g *workflow.Graph, executors []Executor) (*Registry, error) {
	byName := make(map[string]Executor, len(executors))
	for _, e := range executors {
		if e.Name() == "" {
			return nil, types.NewValidationError("executor has an empty name")
		}
		if _, dup := byName[e.Name()]; dup {
			return nil, types.NewValidationError("duplicate executor: " + e.Name())
		}
		byName[e.Name()] = e
	}

	byPhase := make(map[workflow.Phase]Executor)
	bound := make(map[string]bool, len(executors))
	for _, step := range g.Steps() {
		if step.Agent == "" {
			continue // terminal phase
		}
		e, ok := byName[step.Agent]
		if !ok {
			return nil, types.NewValidationError("no executor for agent " + step.Agent)
		}
		byPhase[step.Phase] = e
		bound[step.Agent] = true
	}

	for name := range byName {
		if !bound[name] {
			return nil, types.NewValidationError("executor " + name + " is not bound to any phase")
		}
	}

	return &Registry{byPhase: byPhase}, nil
}

// ForPhase returns the executor owning the given phase.
func (r *Registry) ForPhase(p workflow.Phase) (Executor, error) {
	e, ok := r.byPhase[p]
	if !ok {
		return nil, types.NewUnknownPhaseError(string(p))
	}
	return e, nil
}
