package workflow

import "fmt"

// TripType is the routing attribute fixed at request creation. It selects
// which stage sequence the request flows through and can never change
// afterwards.
type TripType string

const (
	TripWithinTown TripType = "within_town"
	TripOutOfTown  TripType = "out_of_town"
)

// Stage is a named step in the approval sequence
type Stage string

const (
	StageSupervisor          Stage = "SUPERVISOR"
	StageCorporate           Stage = "CORPORATE"
	StageRegionalCoordinator Stage = "REGIONAL_COORDINATOR"
	StageVehicleOfficer      Stage = "VEHICLE_OFFICER"

	// StageComplete marks a request whose every stage has been approved
	StageComplete Stage = "COMPLETE"
)

// stageSequences defines the fixed, total stage order per trip type
var stageSequences = map[TripType][]Stage{
	TripWithinTown: {
		StageSupervisor,
		StageVehicleOfficer,
	},
	TripOutOfTown: {
		StageSupervisor,
		StageCorporate,
		StageRegionalCoordinator,
		StageVehicleOfficer,
	},
}

// stageRoles maps each stage to the roles authorized to act on it
var stageRoles = map[Stage][]Role{
	StageSupervisor:          {RoleSupervisor},
	StageCorporate:           {RoleCorporate},
	StageRegionalCoordinator: {RoleRegionalCoordinator},
	StageVehicleOfficer:      {RoleVehicleOfficer},
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// IsValid returns true if the trip type has a defined stage sequence
func (t TripType) IsValid() bool {
	_, ok := stageSequences[t]
	return ok
}

// StagesFor returns the ordered stage sequence for a trip type
func StagesFor(tripType TripType) ([]Stage, error) {
	seq, ok := stageSequences[tripType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTripType, tripType)
	}
	out := make([]Stage, len(seq))
	copy(out, seq)
	return out, nil
}

// AuthorizedRoles returns the roles allowed to act on a stage
func AuthorizedRoles(stage Stage) ([]Role, error) {
	roles, ok := stageRoles[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	out := make([]Role, len(roles))
	copy(out, roles)
	return out, nil
}

// StagesForRole returns the stages a role is authorized to act on,
// in no particular order. Used by the read-side visibility filter.
func StagesForRole(role Role) []Stage {
	var stages []Stage
	for stage, roles := range stageRoles {
		for _, r := range roles {
			if r == role {
				stages = append(stages, stage)
			}
		}
	}
	return stages
}
