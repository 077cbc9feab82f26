package event

// Type identifies the type of domain event
type Type string

const (
	TypeSubmittedRequest  Type = "submitted_request"
	TypeApprovedRequest   Type = "approved_request"
	TypeDeclinedRequest   Type = "declined_request"
	TypeDispatchedRequest Type = "dispatched_request"
	TypeFacilityChanged   Type = "facility_changed"
	TypeDelegationChanged Type = "delegation_changed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSubmittedRequest,
		TypeApprovedRequest,
		TypeDeclinedRequest,
		TypeDispatchedRequest,
		TypeFacilityChanged,
		TypeDelegationChanged:
		return true
	default:
		return false
	}
}
