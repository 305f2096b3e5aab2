package notify

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"
)

// SlackSink posts Payloads to a single configured Slack channel.
type SlackSink struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// NewSlackSink creates a SlackSink. If botToken is empty, Send becomes a
// no-op that only logs, so callers don't need to branch on configuration.
func NewSlackSink(botToken, channel string, logger *slog.Logger) *SlackSink {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &SlackSink{client: client, channel: channel, logger: logger}
}

func (s *SlackSink) enabled() bool { return s.client != nil && s.channel != "" }

// Send posts payload to the configured channel. The channel argument is
// accepted for Sink conformance but Slack delivery always targets the one
// channel this sink was configured with.
func (s *SlackSink) Send(ctx context.Context, channel Channel, payload Payload) error {
	if !s.enabled() {
		s.logger.Debug("slack sink disabled, skipping notification", "title", payload.Title)
		return nil
	}

	text := fmt.Sprintf("*%s*\n%s", payload.Title, payload.Body)
	blocks := []goslack.Block{
		goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false), nil, nil),
	}
	if len(payload.Fields) > 0 {
		var fields []*goslack.TextBlockObject
		for k, v := range payload.Fields {
			fields = append(fields, goslack.NewTextBlockObject(goslack.MarkdownType, fmt.Sprintf("*%s*\n%s", k, v), false, false))
		}
		blocks = append(blocks, goslack.NewSectionBlock(nil, fields, nil))
	}

	opts := []goslack.MsgOption{
		goslack.MsgOptionBlocks(blocks...),
		goslack.MsgOptionText(payload.Title, false),
	}

	_, _, err := s.client.PostMessageContext(ctx, s.channel, opts...)
	if err != nil {
		return fmt.Errorf("posting notification to slack: %w", err)
	}
	return nil
}
