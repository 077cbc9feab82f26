package workflow

import (
	"errors"
	"reflect"
	"testing"
)

func TestStagesFor(t *testing.T) {
	tests := []struct {
		tripType TripType
		want     []Stage
		wantErr  error
	}{
		{TripWithinTown, []Stage{StageSupervisor, StageVehicleOfficer}, nil},
		{TripOutOfTown, []Stage{StageSupervisor, StageCorporate, StageRegionalCoordinator, StageVehicleOfficer}, nil},
		{TripType(""), nil, ErrUnknownTripType},
		{TripType("overseas"), nil, ErrUnknownTripType},
	}

	for _, tt := range tests {
		got, err := StagesFor(tt.tripType)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("StagesFor(%q) error = %v, want %v", tt.tripType, err, tt.wantErr)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("StagesFor(%q) = %v, want %v", tt.tripType, got, tt.want)
		}
	}
}

func TestStagesFor_ReturnsCopy(t *testing.T) {
	first, _ := StagesFor(TripWithinTown)
	first[0] = StageCorporate

	second, _ := StagesFor(TripWithinTown)
	if second[0] != StageSupervisor {
		t.Error("mutating a returned sequence must not affect later calls")
	}
}

func TestAuthorizedRoles(t *testing.T) {
	tests := []struct {
		stage   Stage
		want    Role
		wantErr error
	}{
		{StageSupervisor, RoleSupervisor, nil},
		{StageCorporate, RoleCorporate, nil},
		{StageRegionalCoordinator, RoleRegionalCoordinator, nil},
		{StageVehicleOfficer, RoleVehicleOfficer, nil},
		{StageComplete, "", ErrUnknownStage},
		{Stage("JANITOR"), "", ErrUnknownStage},
	}

	for _, tt := range tests {
		got, err := AuthorizedRoles(tt.stage)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("AuthorizedRoles(%q) error = %v, want %v", tt.stage, err, tt.wantErr)
			continue
		}
		if tt.wantErr == nil && (len(got) != 1 || got[0] != tt.want) {
			t.Errorf("AuthorizedRoles(%q) = %v, want [%v]", tt.stage, got, tt.want)
		}
	}
}

func TestStagesForRole(t *testing.T) {
	if got := StagesForRole(RoleSupervisor); len(got) != 1 || got[0] != StageSupervisor {
		t.Errorf("StagesForRole(supervisor) = %v", got)
	}
	if got := StagesForRole(RoleStaff); len(got) != 0 {
		t.Errorf("StagesForRole(staff) = %v, want empty", got)
	}
}
