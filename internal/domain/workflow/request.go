package workflow

import "time"

// Status is the overall status of a request, derived from stage progress
// and explicit terminal actions
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusDeclined   Status = "DECLINED"
	StatusDispatched Status = "DISPATCHED"
)

var terminalStatuses = map[Status]bool{
	StatusDeclined:   true,
	StatusDispatched: true,
}

// IsTerminal returns true if no further transitions are allowed
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ApprovalStatus is the status of a single stage's approval record
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalDeclined ApprovalStatus = "DECLINED"
)

// StageApproval is the write-once approval record for one stage
type StageApproval struct {
	Stage      Stage          `json:"stage"`
	Status     ApprovalStatus `json:"status"`
	ApprovedBy string         `json:"approved_by,omitempty"`
	ApprovedAt *time.Time     `json:"approved_at,omitempty"`
	Comments   string         `json:"comments,omitempty"`
}

// DeclineRecord captures the terminal decline action
type DeclineRecord struct {
	ActorID    string    `json:"actor_id"`
	Role       Role      `json:"role"`
	Reason     string    `json:"reason"`
	DeclinedAt time.Time `json:"declined_at"`
}

// Assignment captures the vehicle and driver dispatched for a fully
// approved request
type Assignment struct {
	VehicleID     string    `json:"vehicle_id"`
	PlateNumber   string    `json:"plate_number"`
	DriverName    string    `json:"driver_name"`
	DriverContact string    `json:"driver_contact,omitempty"`
	Urgent        bool      `json:"urgent"`
	AssignedBy    string    `json:"assigned_by"`
	AssignedAt    time.Time `json:"assigned_at"`
}

// Notification is an outbound notice tied to a request. The queue is
// append-only and persisted atomically with the state change that
// produced it; delivery is a separate concern.
type Notification struct {
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification types
const (
	NotificationApproval = "APPROVAL"
	NotificationDecline  = "DECLINE"
	NotificationDispatch = "DISPATCH"
	NotificationUrgent   = "URGENT_DISPATCH"
)

// Request is the aggregate root of the approval workflow. It is mutated
// only through the transition functions in this package; the persistence
// layer guards concurrent writers through the monotonic Version field.
type Request struct {
	ID             string          `json:"id"`
	RequesterID    string          `json:"requester_id"`
	TripType       TripType        `json:"trip_type"`
	Destination    string          `json:"destination"`
	Purpose        string          `json:"purpose"`
	DepartureTime  time.Time       `json:"departure_time"`
	PassengerCount int             `json:"passenger_count"`
	CurrentStage   Stage           `json:"current_stage"`
	Status         Status          `json:"status"`
	Approvals      []StageApproval `json:"approvals"`
	Decline        *DeclineRecord  `json:"decline,omitempty"`
	Assignment     *Assignment     `json:"assignment,omitempty"`
	Notifications  []Notification  `json:"notifications,omitempty"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsTerminal returns true if the request accepts no further transitions
func (r *Request) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// ApprovalFor returns the approval record for a stage, or nil if the stage
// is not part of the request's sequence
func (r *Request) ApprovalFor(stage Stage) *StageApproval {
	for i := range r.Approvals {
		if r.Approvals[i].Stage == stage {
			return &r.Approvals[i]
		}
	}
	return nil
}

// FullyApproved returns true if every stage's record is approved
func (r *Request) FullyApproved() bool {
	for i := range r.Approvals {
		if r.Approvals[i].Status != ApprovalApproved {
			return false
		}
	}
	return len(r.Approvals) > 0
}

// recomputeStage sets CurrentStage to the first non-approved stage in
// sequence order, or StageComplete if none remains. Terminal requests keep
// the stage they were at when the terminal action happened.
func (r *Request) recomputeStage() {
	if r.IsTerminal() {
		return
	}
	for i := range r.Approvals {
		if r.Approvals[i].Status != ApprovalApproved {
			r.CurrentStage = r.Approvals[i].Stage
			return
		}
	}
	r.CurrentStage = StageComplete
	r.Status = StatusApproved
}

// appendNotification appends an outbound notice to the request's queue
func (r *Request) appendNotification(recipient, message, notifType string, at time.Time) {
	r.Notifications = append(r.Notifications, Notification{
		Recipient: recipient,
		Message:   message,
		Type:      notifType,
		CreatedAt: at,
	})
}
