// Package notify implements the Notification Sink collaborator: delivery
// of failover and SLA domain events to external channels. A sink's failure
// to deliver must never roll back the domain event that triggered it.
package notify

import "context"

// Channel is one of the recognized notification channel kinds.
type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelSlack     Channel = "slack"
	ChannelWebhook   Channel = "webhook"
	ChannelPagerDuty Channel = "pagerduty"
)

// Payload is the event data handed to a Sink. Title and Body are always
// populated; Fields carries structured detail a sink may render further.
type Payload struct {
	Title  string
	Body   string
	Fields map[string]string
}

// Sink delivers a Payload to a channel. Implementations must never panic
// and should treat delivery failure as non-fatal to the caller.
type Sink interface {
	Send(ctx context.Context, channel Channel, payload Payload) error
}
