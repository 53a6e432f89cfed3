// Package workflow defines the workflow record data model and the fixed
// phase graph the content pipeline advances through.
package workflow

import (
	"time"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
)

// Status is the lifecycle status of a workflow record.
type Status string

const (
	// StatusInProgress marks a record still moving through the pipeline.
	StatusInProgress Status = "in_progress"
	// StatusCompleted marks a record that reached the terminal phase.
	StatusCompleted Status = "completed"
	// StatusError marks a record frozen by an agent failure. Errored
	// records are never routed until an operator resets them.
	StatusError Status = "error"
)

// ErrorEntry is one recorded agent failure. Entries are append-only and
// never cleared.
type ErrorEntry struct {
	ID        types.ID  `json:"id"`
	Agent     string    `json:"agent"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is the persisted state of one post moving through the pipeline.
// PostID, Topic and CreatedAt are immutable after creation; everything
// else mutates only through Update.Apply.
type Record struct {
	PostID       string            `json:"post_id"`
	Topic        string            `json:"topic"`
	CurrentPhase Phase             `json:"current_phase"`
	NextAgent    string            `json:"next_agent,omitempty"`
	Status       Status            `json:"status"`
	AgentsRun    []string          `json:"agents_run"`
	AgentOutputs map[string]string `json:"agent_outputs,omitempty"`
	Errors       []ErrorEntry      `json:"errors,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewRecord builds the initial record for a post at the first step of the
// pipeline.
func NewRecord(postID, topic string, first Step, metadata map[string]string) *Record {
	now := time.Now().UTC()
	var meta map[string]string
	if len(metadata) > 0 {
		meta = make(map[string]string, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
	}
	return &Record{
		PostID:       postID,
		Topic:        topic,
		CurrentPhase: first.Phase,
		NextAgent:    first.Agent,
		Status:       StatusInProgress,
		AgentsRun:    []string{},
		AgentOutputs: map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
		Metadata:     meta,
	}
}

// Validate checks structural invariants of the record.
func (r *Record) Validate() error {
	if r.PostID == "" {
		return types.NewValidationError("record post_id cannot be empty")
	}
	if r.CurrentPhase == "" {
		return types.NewValidationError("record current_phase cannot be empty")
	}
	switch r.Status {
	case StatusInProgress, StatusCompleted, StatusError:
	default:
		return types.NewValidationError("record has unknown status: " + string(r.Status))
	}
	return nil
}

// Claimable reports whether the record can be claimed by the given agent
// expecting the given phase.
func (r *Record) Claimable(agent string, phase Phase) bool {
	return r.Status == StatusInProgress &&
		r.CurrentPhase == phase &&
		r.NextAgent == agent
}

// LastError returns the most recent error entry, or nil.
func (r *Record) LastError() *ErrorEntry {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[len(r.Errors)-1]
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := *r
	if r.AgentsRun != nil {
		out.AgentsRun = make([]string, len(r.AgentsRun))
		copy(out.AgentsRun, r.AgentsRun)
	}
	if r.AgentOutputs != nil {
		out.AgentOutputs = make(map[string]string, len(r.AgentOutputs))
		for k, v := range r.AgentOutputs {
			out.AgentOutputs[k] = v
		}
	}
	if r.Errors != nil {
		out.Errors = make([]ErrorEntry, len(r.Errors))
		copy(out.Errors, r.Errors)
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
