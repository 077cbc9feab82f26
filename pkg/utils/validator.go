package utils

import (
	"fmt"
	"regexp"
)

var plateRegex = regexp.MustCompile(`^[A-Z0-9]{2,4}[- ]?[A-Z0-9]{2,5}$`)

// ValidatePlateNumber validates a vehicle plate number
func ValidatePlateNumber(plate string) error {
	if !plateRegex.MatchString(plate) {
		return fmt.Errorf("invalid plate number format: %s", plate)
	}
	return nil
}

// ValidatePassengerCount validates the passenger count of a trip request
func ValidatePassengerCount(count int) error {
	if count <= 0 {
		return fmt.Errorf("passenger count must be positive: %d", count)
	}
	if count > 60 {
		return fmt.Errorf("passenger count exceeds fleet capacity: %d", count)
	}
	return nil
}

// SanitizeString removes control characters from user-supplied text
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
