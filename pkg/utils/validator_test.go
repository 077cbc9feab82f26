package utils

import "testing"

func TestValidatePlateNumber(t *testing.T) {
	valid := []string{"GA-4821", "GT 1234", "AS12345", "GR-99"}
	for _, plate := range valid {
		if err := ValidatePlateNumber(plate); err != nil {
			t.Errorf("ValidatePlateNumber(%q) = %v, want nil", plate, err)
		}
	}

	invalid := []string{"", "g-1", "GA--4821", "TOOLONGPLATE12345"}
	for _, plate := range invalid {
		if err := ValidatePlateNumber(plate); err == nil {
			t.Errorf("ValidatePlateNumber(%q) = nil, want error", plate)
		}
	}
}

func TestValidatePassengerCount(t *testing.T) {
	for _, count := range []int{1, 30, 60} {
		if err := ValidatePassengerCount(count); err != nil {
			t.Errorf("ValidatePassengerCount(%d) = %v, want nil", count, err)
		}
	}
	for _, count := range []int{0, -1, 61} {
		if err := ValidatePassengerCount(count); err == nil {
			t.Errorf("ValidatePassengerCount(%d) = nil, want error", count)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("depot\x00 run\x1f"); got != "depot run" {
		t.Errorf("SanitizeString() = %q", got)
	}
	if got := SanitizeString("plain text"); got != "plain text" {
		t.Errorf("SanitizeString() must not alter clean input, got %q", got)
	}
}
