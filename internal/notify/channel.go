package notify

import (
	"context"
	"fmt"
)

const defaultChannelBuffer = 64

// ChannelNotifier delivers hand-offs over an in-process buffered channel.
// Sends never block: when the buffer is full the hand-off is dropped and
// an error returned, so a slow consumer cannot stall a state transition.
type ChannelNotifier struct {
	ch chan Handoff
}

// NewChannelNotifier creates a channel notifier with the given buffer
// size. A non-positive size uses the default.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = defaultChannelBuffer
	}
	return &ChannelNotifier{ch: make(chan Handoff, buffer)}
}

// Notify performs a non-blocking send.
func (n *ChannelNotifier) Notify(ctx context.Context, h Handoff) error {
	select {
	case n.ch <- h:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("hand-off buffer full, dropped delivery %s for %s", h.DeliveryID, h.PostID)
	}
}

// C exposes the receive side of the channel.
func (n *ChannelNotifier) C() <-chan Handoff {
	return n.ch
}
