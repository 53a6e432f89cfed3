package workflow

import "time"

// Update is a partial mutation of a record. Nil fields are left
// untouched; slice fields append and map fields merge, which keeps
// agents_run and errors append-only. PostID, Topic and CreatedAt have no
// corresponding fields and therefore cannot be mutated.
type Update struct {
	Phase     *Phase
	NextAgent *string
	Status    *Status

	// AppendAgentsRun appends completed agent names to the history.
	AppendAgentsRun []string

	// MergeOutputs merges artifact references into agent_outputs.
	MergeOutputs map[string]string

	// AppendErrors appends failure entries to the error log.
	AppendErrors []ErrorEntry

	// SetMetadata replaces the metadata bag. Metadata is immutable after
	// creation except by explicit admin edit; routine updates leave this
	// nil.
	SetMetadata map[string]string
}

// IsZero reports whether the update would change nothing.
func (u Update) IsZero() bool {
	return u.Phase == nil &&
		u.NextAgent == nil &&
		u.Status == nil &&
		len(u.AppendAgentsRun) == 0 &&
		len(u.MergeOutputs) == 0 &&
		len(u.AppendErrors) == 0 &&
		u.SetMetadata == nil
}

// Apply merges the update into the record in place and refreshes
// updated_at.
func (u Update) Apply(r *Record, now time.Time) {
	if u.Phase != nil {
		r.CurrentPhase = *u.Phase
	}
	if u.NextAgent != nil {
		r.NextAgent = *u.NextAgent
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if len(u.AppendAgentsRun) > 0 {
		r.AgentsRun = append(r.AgentsRun, u.AppendAgentsRun...)
	}
	if len(u.MergeOutputs) > 0 {
		if r.AgentOutputs == nil {
			r.AgentOutputs = make(map[string]string, len(u.MergeOutputs))
		}
		for k, v := range u.MergeOutputs {
			r.AgentOutputs[k] = v
		}
	}
	if len(u.AppendErrors) > 0 {
		r.Errors = append(r.Errors, u.AppendErrors...)
	}
	if u.SetMetadata != nil {
		meta := make(map[string]string, len(u.SetMetadata))
		for k, v := range u.SetMetadata {
			meta[k] = v
		}
		r.Metadata = meta
	}
	r.UpdatedAt = now.UTC()
}
