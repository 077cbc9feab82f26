package workflow

import "errors"

var (
	// ErrValidation is returned when transition input is missing or malformed
	ErrValidation = errors.New("validation failed")

	// ErrAuthorization is returned when the actor's effective role is not
	// permitted to perform the action at all
	ErrAuthorization = errors.New("role not authorized")

	// ErrStageMismatch is returned when the actor's role is part of the
	// sequence but does not match the request's current stage
	ErrStageMismatch = errors.New("stage mismatch")

	// ErrAlreadyTerminal is returned when a transition is attempted on a
	// declined or dispatched request
	ErrAlreadyTerminal = errors.New("request already terminal")

	// ErrIncompleteApprovals is returned when assignment is attempted before
	// every stage has been approved
	ErrIncompleteApprovals = errors.New("approvals incomplete")

	// ErrUnknownTripType is returned when a trip type has no defined stage sequence
	ErrUnknownTripType = errors.New("unknown trip type")

	// ErrUnknownStage is returned when a stage has no authorized-role entry
	ErrUnknownStage = errors.New("unknown stage")

	// ErrConcurrentModification is returned when a save races with another
	// writer on the same aggregate; the caller may re-load and retry
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrStorageUnavailable is returned when the storage collaborator cannot
	// be reached; transient and retryable
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("request not found")
)
