package notify

import (
	"context"
	"log/slog"
)

// MultiSink fans a Payload out to every configured Sink. One sink's failure
// does not stop delivery to the others; the first error encountered (if
// any) is returned after all sinks have been tried.
type MultiSink struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMultiSink wires sinks into a single fan-out Sink.
func NewMultiSink(logger *slog.Logger, sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: logger}
}

func (m *MultiSink) Send(ctx context.Context, channel Channel, payload Payload) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Send(ctx, channel, payload); err != nil {
			m.logger.Warn("notification sink failed", "channel", channel, "title", payload.Title, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
