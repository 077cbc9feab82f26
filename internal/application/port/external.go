package port

import (
	"context"

	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

// Notifier dispatches outbound notices to their recipients. Delivery
// transport is out of scope for the workflow: by the time Enqueue is called
// the notification record is already persisted on the request aggregate, so
// a delivery failure loses nothing.
type Notifier interface {
	Enqueue(ctx context.Context, requestID string, n workflow.Notification) error
}
