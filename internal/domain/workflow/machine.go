package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/transitworks/fleetdesk/internal/domain/event"
)

// Actor identifies who is attempting a transition. Role must be the
// actor's effective role, resolved once per transition by the identity
// provider.
type Actor struct {
	ID   string
	Role Role
}

// SubmitInput carries the fields required to create a request
type SubmitInput struct {
	RequesterID    string
	TripType       TripType
	Destination    string
	Purpose        string
	DepartureTime  time.Time
	PassengerCount int
}

// AssignmentInput carries the vehicle and driver details for dispatch
type AssignmentInput struct {
	VehicleID     string
	PlateNumber   string
	DriverName    string
	DriverContact string
	Urgent        bool
}

// Submit creates a new request at the first stage of the sequence selected
// by the trip type. All stage approval records start pending.
func Submit(actor Actor, in SubmitInput, now time.Time) (*Request, []event.Entry, error) {
	if !HasPermission(actor.Role, PermSubmitRequest) {
		return nil, nil, fmt.Errorf("%w: role %s cannot submit requests", ErrAuthorization, actor.Role)
	}
	if err := validateSubmit(in); err != nil {
		return nil, nil, err
	}

	stages, err := StagesFor(in.TripType)
	if err != nil {
		return nil, nil, err
	}

	approvals := make([]StageApproval, len(stages))
	for i, stage := range stages {
		approvals[i] = StageApproval{Stage: stage, Status: ApprovalPending}
	}

	req := &Request{
		ID:             newRequestID(now),
		RequesterID:    in.RequesterID,
		TripType:       in.TripType,
		Destination:    in.Destination,
		Purpose:        in.Purpose,
		DepartureTime:  in.DepartureTime,
		PassengerCount: in.PassengerCount,
		CurrentStage:   stages[0],
		Status:         StatusPending,
		Approvals:      approvals,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	req.appendNotification(req.RequesterID,
		fmt.Sprintf("Request %s submitted, awaiting %s approval", req.ID, stages[0]),
		NotificationApproval, now)

	ev := event.New(event.TypeSubmittedRequest, req.ID, actor.ID, actor.Role.String(),
		fmt.Sprintf("submitted %s request to %s", req.TripType, req.Destination), now).
		WithMetadata("trip_type", string(req.TripType))

	return req, []event.Entry{ev}, nil
}

// Approve writes the approval record for the request's current stage and
// advances the stage pointer. The actor's effective role must be
// authorized for the current stage; matching a later or earlier stage is
// rejected so approvals can never be skipped, re-ordered or repeated.
func Approve(req *Request, actor Actor, comments string, now time.Time) ([]event.Entry, error) {
	if req.IsTerminal() {
		return nil, fmt.Errorf("%w: request %s is %s", ErrAlreadyTerminal, req.ID, req.Status)
	}
	if !HasPermission(actor.Role, PermApproveStage) {
		return nil, fmt.Errorf("%w: role %s cannot approve stages", ErrAuthorization, actor.Role)
	}
	if req.CurrentStage == StageComplete {
		return nil, fmt.Errorf("%w: request %s already fully approved", ErrStageMismatch, req.ID)
	}

	roles, err := AuthorizedRoles(req.CurrentStage)
	if err != nil {
		return nil, err
	}
	if !roleIn(roles, actor.Role) {
		if req.roleInSequence(actor.Role) {
			return nil, fmt.Errorf("%w: role %s cannot act while request %s awaits %s",
				ErrStageMismatch, actor.Role, req.ID, req.CurrentStage)
		}
		return nil, fmt.Errorf("%w: role %s is not an approver for request %s",
			ErrAuthorization, actor.Role, req.ID)
	}

	record := req.ApprovalFor(req.CurrentStage)
	if record == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, req.CurrentStage)
	}
	if record.Status != ApprovalPending {
		return nil, fmt.Errorf("%w: stage %s already %s", ErrStageMismatch, record.Stage, record.Status)
	}

	approvedStage := req.CurrentStage
	at := now
	record.Status = ApprovalApproved
	record.ApprovedBy = actor.ID
	record.ApprovedAt = &at
	record.Comments = comments
	req.recomputeStage()
	req.UpdatedAt = now

	message := fmt.Sprintf("Request %s approved at %s stage", req.ID, approvedStage)
	if req.Status == StatusApproved {
		message = fmt.Sprintf("Request %s fully approved, awaiting vehicle assignment", req.ID)
	}
	req.appendNotification(req.RequesterID, message, NotificationApproval, now)

	ev := event.New(event.TypeApprovedRequest, req.ID, actor.ID, actor.Role.String(),
		fmt.Sprintf("approved %s stage", approvedStage), now).
		WithMetadata("stage", approvedStage.String())

	return []event.Entry{ev}, nil
}

// Decline terminally rejects the request. The current stage pointer is left
// untouched so the record shows where the request stopped.
func Decline(req *Request, actor Actor, reason string, now time.Time) ([]event.Entry, error) {
	if req.IsTerminal() {
		return nil, fmt.Errorf("%w: request %s is %s", ErrAlreadyTerminal, req.ID, req.Status)
	}
	if !HasPermission(actor.Role, PermDeclineRequest) {
		return nil, fmt.Errorf("%w: role %s cannot decline requests", ErrAuthorization, actor.Role)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: decline reason is required", ErrValidation)
	}

	req.Status = StatusDeclined
	req.Decline = &DeclineRecord{
		ActorID:    actor.ID,
		Role:       actor.Role,
		Reason:     reason,
		DeclinedAt: now,
	}
	req.UpdatedAt = now

	req.appendNotification(req.RequesterID,
		fmt.Sprintf("Request %s declined: %s", req.ID, reason),
		NotificationDecline, now)

	ev := event.New(event.TypeDeclinedRequest, req.ID, actor.ID, actor.Role.String(),
		fmt.Sprintf("declined request: %s", reason), now)

	return []event.Entry{ev}, nil
}

// Assign writes the assignment record and dispatches the request. Requires
// every stage to be approved. An urgent assignment produces an additional
// urgent notification on top of the standard dispatch notice.
func Assign(req *Request, actor Actor, in AssignmentInput, now time.Time) ([]event.Entry, error) {
	if req.IsTerminal() {
		return nil, fmt.Errorf("%w: request %s is %s", ErrAlreadyTerminal, req.ID, req.Status)
	}
	if !HasPermission(actor.Role, PermAssignVehicle) {
		return nil, fmt.Errorf("%w: role %s cannot assign vehicles", ErrAuthorization, actor.Role)
	}
	if !req.FullyApproved() {
		return nil, fmt.Errorf("%w: request %s awaits %s approval", ErrIncompleteApprovals, req.ID, req.CurrentStage)
	}
	if in.VehicleID == "" || in.PlateNumber == "" || in.DriverName == "" {
		return nil, fmt.Errorf("%w: vehicle, plate number and driver are required", ErrValidation)
	}

	req.Assignment = &Assignment{
		VehicleID:     in.VehicleID,
		PlateNumber:   in.PlateNumber,
		DriverName:    in.DriverName,
		DriverContact: in.DriverContact,
		Urgent:        in.Urgent,
		AssignedBy:    actor.ID,
		AssignedAt:    now,
	}
	req.Status = StatusDispatched
	req.UpdatedAt = now

	req.appendNotification(req.RequesterID,
		fmt.Sprintf("Request %s dispatched: vehicle %s, driver %s", req.ID, in.PlateNumber, in.DriverName),
		NotificationDispatch, now)
	if in.Urgent {
		req.appendNotification(req.RequesterID,
			fmt.Sprintf("URGENT: vehicle %s for request %s departs immediately", in.PlateNumber, req.ID),
			NotificationUrgent, now)
	}

	ev := event.New(event.TypeDispatchedRequest, req.ID, actor.ID, actor.Role.String(),
		fmt.Sprintf("dispatched vehicle %s", in.VehicleID), now).
		WithMetadata("vehicle_id", in.VehicleID).
		WithMetadata("urgent", fmt.Sprintf("%t", in.Urgent))

	return []event.Entry{ev}, nil
}

// roleInSequence reports whether the role is authorized for any stage of
// the request's sequence
func (r *Request) roleInSequence(role Role) bool {
	for i := range r.Approvals {
		roles, err := AuthorizedRoles(r.Approvals[i].Stage)
		if err != nil {
			continue
		}
		if roleIn(roles, role) {
			return true
		}
	}
	return false
}

func roleIn(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func validateSubmit(in SubmitInput) error {
	var missing []string
	if in.RequesterID == "" {
		missing = append(missing, "requester")
	}
	if in.Destination == "" {
		missing = append(missing, "destination")
	}
	if in.Purpose == "" {
		missing = append(missing, "purpose")
	}
	if in.DepartureTime.IsZero() {
		missing = append(missing, "departure_time")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if in.PassengerCount <= 0 {
		return fmt.Errorf("%w: passenger count must be positive", ErrValidation)
	}
	return nil
}

// newRequestID builds a human-readable request identifier
func newRequestID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("VR-%s-%s", now.Format("20060102"), suffix)
}
