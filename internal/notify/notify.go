// Package notify is the boundary between the reminder engine and the outside
// world: a channel-keyed registry of Sender implementations plus message
// rendering. The engine only ever needs send(channel, message) -> outcome.
package notify

import (
	"context"
	"fmt"
)

// Message is one rendered notification addressed to one channel endpoint.
type Message struct {
	// Channel identifies the sender to use (models.ChannelEmail, ...).
	Channel string
	// To is the channel endpoint: an email address, a webhook URL.
	To string
	// Subject and Body are the human-readable rendering.
	Subject string
	Body    string
	// Fields carries the structured payload for machine channels.
	Fields map[string]any
}

// Sender delivers a message over one channel.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Registry maps channel identifiers to Sender implementations. Channels not
// registered here simply fail dispatch with an error recorded per reminder,
// so adding an SMS sender later needs no dispatcher changes.
type Registry struct {
	senders map[string]Sender
}

func NewRegistry() *Registry {
	return &Registry{senders: make(map[string]Sender)}
}

// Register binds a sender to a channel identifier.
func (r *Registry) Register(channel string, s Sender) {
	r.senders[channel] = s
}

// Send routes the message to the sender registered for its channel.
func (r *Registry) Send(ctx context.Context, msg *Message) error {
	s, ok := r.senders[msg.Channel]
	if !ok {
		return fmt.Errorf("no sender registered for channel %q", msg.Channel)
	}
	return s.Send(ctx, msg)
}
