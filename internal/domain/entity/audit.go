package entity

import "time"

// AuditEntry is a persisted record of a state-changing action. Entries are
// written fire-and-forget: a failed write is logged but never blocks the
// workflow transition that produced it.
type AuditEntry struct {
	ID          int64     `json:"id"`
	EventID     string    `json:"event_id"`
	ActorID     string    `json:"actor_id"`
	ActorRole   string    `json:"actor_role"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	RequestID   string    `json:"request_id,omitempty"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
