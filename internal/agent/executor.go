// Package agent defines the executor boundary between the orchestration
// core and the generation services, plus the static registry that binds
// each pipeline phase to its executor.
package agent

import (
	"context"

	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// Result is what an executor reports on success. Outputs maps the agent
// name to a reference to the artifact it produced, relative to the
// post's artifact directory; the core stores the reference without
// interpreting the file contents.
type Result struct {
	Outputs map[string]string
}

// Executor is the capability an agent exposes to the core. The core only
// needs success or failure and an opaque outputs reference; prompt
// content, API clients and retries live behind this interface.
type Executor interface {
	// Name returns the agent name, matching the phase graph binding.
	Name() string

	// Execute runs the agent against a snapshot of the record. A non-nil
	// error freezes the record; there is no partial success.
	Execute(ctx context.Context, rec *workflow.Record) (*Result, error)
}
