// Package notify delivers fire-and-forget hand-off notifications when a
// workflow record changes owner. The notification is only a wake-up
// convenience; an agent's own polling remains the authoritative
// discovery path, so delivery failures never roll back a transition.
package notify

import (
	"context"
	"time"

	"github.com/jtlapenna/multi-agent-content-system/internal/types"
	"github.com/jtlapenna/multi-agent-content-system/internal/workflow"
)

// Handoff is the payload delivered to the next agent's trigger endpoint.
type Handoff struct {
	DeliveryID types.ID        `json:"delivery_id"`
	Agent      string          `json:"agent"`
	PostID     string          `json:"post_id"`
	Phase      workflow.Phase  `json:"phase"`
	Status     workflow.Status `json:"status"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewHandoff builds a hand-off payload for a record snapshot.
func NewHandoff(agent string, rec *workflow.Record) Handoff {
	return Handoff{
		DeliveryID: types.NewID(),
		Agent:      agent,
		PostID:     rec.PostID,
		Phase:      rec.CurrentPhase,
		Status:     rec.Status,
		OccurredAt: time.Now().UTC(),
	}
}

// Notifier delivers hand-off notifications. Implementations must not
// block indefinitely; callers treat errors as log-and-continue.
type Notifier interface {
	Notify(ctx context.Context, h Handoff) error
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(ctx context.Context, h Handoff) error {
	return nil
}
