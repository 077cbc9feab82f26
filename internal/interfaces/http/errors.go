package http

import (
	"errors"
	"net/http"

	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

// statusFor maps typed workflow errors to HTTP status codes. Workflow
// precondition violations map to 409 so callers know to re-inspect current
// state; configuration errors map to 500 because they should not occur in a
// correctly seeded deployment.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrStageMismatch),
		errors.Is(err, workflow.ErrAlreadyTerminal),
		errors.Is(err, workflow.ErrIncompleteApprovals),
		errors.Is(err, workflow.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, workflow.ErrUnknownTripType),
		errors.Is(err, workflow.ErrUnknownStage):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
