// Package notify provides Notifier implementations. Delivery transport is
// out of scope for the workflow: notifications are already persisted on the
// request aggregate when they reach a Notifier.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/transitworks/fleetdesk/internal/application/port"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

// LogNotifier records outbound notices on the service log. It stands in for
// a real delivery channel (mail, chat) without changing the workflow side.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a Notifier backed by the service log
func NewLogNotifier(logger *zap.Logger) port.Notifier {
	return &LogNotifier{logger: logger}
}

// Enqueue logs the notification
func (n *LogNotifier) Enqueue(_ context.Context, requestID string, notice workflow.Notification) error {
	n.logger.Info("Notification dispatched",
		zap.String("request_id", requestID),
		zap.String("recipient", notice.Recipient),
		zap.String("type", notice.Type),
		zap.String("message", notice.Message),
	)
	return nil
}
