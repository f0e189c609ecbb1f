package notify

import "context"

// NoOpSink is a mock sink that does nothing.
type NoOpSink struct{}

// Notify does nothing.
func (s *NoOpSink) Notify(ctx context.Context, n Notification) error {
	return nil
}
