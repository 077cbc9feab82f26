package entity

import (
	"time"

	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

// Delegation is a temporary role grant with a validity window. While the
// current time falls within [Start, End) the delegated role replaces the
// assigned role for every authorization check.
type Delegation struct {
	Role  workflow.Role `json:"role"`
	Start time.Time     `json:"start"`
	End   time.Time     `json:"end"`
}

// ActiveAt returns true if the delegation window covers the given instant
func (d *Delegation) ActiveAt(now time.Time) bool {
	if d == nil {
		return false
	}
	return !now.Before(d.Start) && now.Before(d.End)
}

// Identity is an organizational actor that submits or processes requests
type Identity struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Role       workflow.Role `json:"role"`
	Delegation *Delegation   `json:"delegation,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// EffectiveRole resolves the role used for authorization checks: the
// delegated role while its window is active, the assigned role otherwise.
// Evaluated once per workflow transition.
func (i *Identity) EffectiveRole(now time.Time) workflow.Role {
	if i.Delegation.ActiveAt(now) {
		return i.Delegation.Role
	}
	return i.Role
}
