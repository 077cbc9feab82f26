package event

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ev := New(TypeApprovedRequest, "VR-1", "sup-01", "SUPERVISOR", "approved SUPERVISOR stage", at)

	if ev.ID == "" {
		t.Error("ID must be generated")
	}
	if ev.Type != TypeApprovedRequest {
		t.Errorf("Type = %v", ev.Type)
	}
	if ev.Timestamp != at {
		t.Errorf("Timestamp = %v, want %v", ev.Timestamp, at)
	}

	other := New(TypeApprovedRequest, "VR-1", "sup-01", "SUPERVISOR", "approved SUPERVISOR stage", at)
	if ev.ID == other.ID {
		t.Error("IDs must be unique across events")
	}
}

func TestWithMetadata(t *testing.T) {
	base := New(TypeDispatchedRequest, "VR-1", "vo-01", "VEHICLE_OFFICER", "dispatched vehicle BUS-7", time.Now())
	enriched := base.WithMetadata("vehicle_id", "BUS-7").WithMetadata("urgent", "true")

	if len(base.Metadata) != 0 {
		t.Error("WithMetadata must not mutate the receiver")
	}
	if enriched.Metadata["vehicle_id"] != "BUS-7" || enriched.Metadata["urgent"] != "true" {
		t.Errorf("Metadata = %v", enriched.Metadata)
	}
}

func TestTypeIsValid(t *testing.T) {
	for _, typ := range []Type{TypeSubmittedRequest, TypeApprovedRequest, TypeDeclinedRequest, TypeDispatchedRequest, TypeFacilityChanged, TypeDelegationChanged} {
		if !typ.IsValid() {
			t.Errorf("%s.IsValid() = false", typ)
		}
	}
	if Type("exploded_request").IsValid() {
		t.Error("unknown type must be invalid")
	}
}
