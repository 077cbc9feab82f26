package entity

import (
	"testing"
	"time"

	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

func TestEffectiveRole(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)

	identity := &Identity{
		ID:   "staff-014",
		Name: "A. Tetteh",
		Role: workflow.RoleStaff,
		Delegation: &Delegation{
			Role:  workflow.RoleSupervisor,
			Start: start,
			End:   end,
		},
	}

	tests := []struct {
		name string
		now  time.Time
		want workflow.Role
	}{
		{"before window", start.Add(-time.Second), workflow.RoleStaff},
		{"window start is inclusive", start, workflow.RoleSupervisor},
		{"inside window", start.Add(3 * 24 * time.Hour), workflow.RoleSupervisor},
		{"window end is exclusive", end, workflow.RoleStaff},
		{"after window", end.Add(time.Hour), workflow.RoleStaff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := identity.EffectiveRole(tt.now); got != tt.want {
				t.Errorf("EffectiveRole(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestEffectiveRole_NoDelegation(t *testing.T) {
	identity := &Identity{ID: "vo-01", Role: workflow.RoleVehicleOfficer}
	if got := identity.EffectiveRole(time.Now()); got != workflow.RoleVehicleOfficer {
		t.Errorf("EffectiveRole() = %v, want assigned role", got)
	}
}
