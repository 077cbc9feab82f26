package event

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Entry represents an audit-relevant domain event produced by a workflow
// transition. Entries are emitted by the state machine and recorded by the
// audit log collaborator; recording failures never abort the transition
// that produced them.
type Entry struct {
	ID          string            `json:"id"`
	Type        Type              `json:"type"`
	RequestID   string            `json:"request_id"`
	ActorID     string            `json:"actor_id"`
	ActorRole   string            `json:"actor_role"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// New creates a new domain event with an auto-generated ID
func New(eventType Type, requestID, actorID, actorRole, description string, at time.Time) Entry {
	return Entry{
		ID:          generateID(),
		Type:        eventType,
		RequestID:   requestID,
		ActorID:     actorID,
		ActorRole:   actorRole,
		Description: description,
		Timestamp:   at,
	}
}

// WithMetadata returns a copy of the entry with an added metadata key-value pair
func (e Entry) WithMetadata(key, value string) Entry {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	e.Metadata = meta
	return e
}

// generateID creates a unique ID using timestamp and random bytes
func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
