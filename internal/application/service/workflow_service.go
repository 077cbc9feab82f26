package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/transitworks/fleetdesk/internal/application/port"
	"github.com/transitworks/fleetdesk/internal/domain/event"
	"github.com/transitworks/fleetdesk/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SubmitCommand carries the payload for creating a request
type SubmitCommand struct {
	TripType       workflow.TripType
	Destination    string
	Purpose        string
	DepartureTime  time.Time
	PassengerCount int
}

// AssignCommand carries the payload for dispatching a fully approved request
type AssignCommand struct {
	VehicleID     string
	PlateNumber   string
	DriverName    string
	DriverContact string
	Urgent        bool
}

// WorkflowService is the orchestration shell around the request state
// machine: it resolves the actor's effective role, loads the aggregate,
// applies the pure transition, persists the result with a version check,
// and forwards emitted events to the audit and notification collaborators.
type WorkflowService interface {
	Submit(ctx context.Context, actorID string, cmd SubmitCommand) (*workflow.Request, error)
	Approve(ctx context.Context, actorID, requestID, comments string) (*workflow.Request, error)
	Decline(ctx context.Context, actorID, requestID, reason string) (*workflow.Request, error)
	Assign(ctx context.Context, actorID, requestID string, cmd AssignCommand) (*workflow.Request, error)
	Get(ctx context.Context, actorID, requestID string) (*workflow.Request, error)
	List(ctx context.Context, actorID string, limit, offset int) ([]*workflow.Request, error)
}

type workflowServiceImpl struct {
	requests    port.RequestRepository
	identities  port.IdentityRepository
	audit       AuditService
	notifier    port.Notifier
	logger      Logger
	maxAttempts int
}

// NewWorkflowService creates a new WorkflowService. maxAttempts bounds the
// retries performed on concurrent-modification and storage failures.
func NewWorkflowService(
	requests port.RequestRepository,
	identities port.IdentityRepository,
	audit AuditService,
	notifier port.Notifier,
	logger Logger,
	maxAttempts int,
) WorkflowService {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &workflowServiceImpl{
		requests:    requests,
		identities:  identities,
		audit:       audit,
		notifier:    notifier,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// Submit creates a new request for the acting identity
func (s *workflowServiceImpl) Submit(ctx context.Context, actorID string, cmd SubmitCommand) (*workflow.Request, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	req, events, err := workflow.Submit(actor, workflow.SubmitInput{
		RequesterID:    actor.ID,
		TripType:       cmd.TripType,
		Destination:    cmd.Destination,
		Purpose:        cmd.Purpose,
		DepartureTime:  cmd.DepartureTime,
		PassengerCount: cmd.PassengerCount,
	}, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.requests.Create(ctx, req); err != nil {
		s.logger.Error("Failed to create request", "error", err, "actor_id", actorID)
		return nil, err
	}

	s.afterCommit(ctx, req, events, 0)
	s.logger.Info("Request submitted", "request_id", req.ID, "trip_type", req.TripType, "actor_id", actorID)
	return req, nil
}

// Approve applies the approve transition for the actor's effective role
func (s *workflowServiceImpl) Approve(ctx context.Context, actorID, requestID, comments string) (*workflow.Request, error) {
	return s.transition(ctx, actorID, requestID, "approve",
		func(req *workflow.Request, actor workflow.Actor) ([]event.Entry, error) {
			return workflow.Approve(req, actor, comments, time.Now())
		})
}

// Decline terminally rejects a request with the given reason
func (s *workflowServiceImpl) Decline(ctx context.Context, actorID, requestID, reason string) (*workflow.Request, error) {
	return s.transition(ctx, actorID, requestID, "decline",
		func(req *workflow.Request, actor workflow.Actor) ([]event.Entry, error) {
			return workflow.Decline(req, actor, reason, time.Now())
		})
}

// Assign dispatches a fully approved request
func (s *workflowServiceImpl) Assign(ctx context.Context, actorID, requestID string, cmd AssignCommand) (*workflow.Request, error) {
	return s.transition(ctx, actorID, requestID, "assign",
		func(req *workflow.Request, actor workflow.Actor) ([]event.Entry, error) {
			return workflow.Assign(req, actor, workflow.AssignmentInput{
				VehicleID:     cmd.VehicleID,
				PlateNumber:   cmd.PlateNumber,
				DriverName:    cmd.DriverName,
				DriverContact: cmd.DriverContact,
				Urgent:        cmd.Urgent,
			}, time.Now())
		})
}

// Get retrieves a request, applying the same visibility rule as List
func (s *workflowServiceImpl) Get(ctx context.Context, actorID, requestID string) (*workflow.Request, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !s.visibleTo(req, actor) {
		return nil, fmt.Errorf("%w: request %s is not visible to role %s", workflow.ErrAuthorization, requestID, actor.Role)
	}
	return req, nil
}

// List returns the requests visible to the actor: their own submissions,
// requests currently at a stage their effective role acts on, or everything
// for roles with unrestricted visibility.
func (s *workflowServiceImpl) List(ctx context.Context, actorID string, limit, offset int) ([]*workflow.Request, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	filter := port.RequestFilter{Limit: limit, Offset: offset}
	if !workflow.HasPermission(actor.Role, workflow.PermViewAllRequests) {
		filter.RequesterID = actor.ID
		filter.Stages = workflow.StagesForRole(actor.Role)
	}

	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err, "actor_id", actorID)
		return nil, err
	}
	return requests, nil
}

// transition runs a state-machine transition under the bounded retry policy:
// only concurrent-modification and storage-unavailable failures are retried,
// by re-loading the aggregate and re-applying the transition against fresh
// state. Every other failure surfaces verbatim.
func (s *workflowServiceImpl) transition(
	ctx context.Context,
	actorID, requestID, name string,
	apply func(req *workflow.Request, actor workflow.Actor) ([]event.Entry, error),
) (*workflow.Request, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		req, err := s.loadRequest(ctx, requestID)
		if err != nil {
			if retryable(err) {
				lastErr = err
				continue
			}
			return nil, err
		}

		notified := len(req.Notifications)
		events, err := apply(req, actor)
		if err != nil {
			return nil, err
		}

		if err := s.requests.Save(ctx, req, req.Version); err != nil {
			if retryable(err) {
				s.logger.Info("Retrying transition on stale aggregate",
					"request_id", requestID, "action", name, "attempt", attempt)
				lastErr = err
				continue
			}
			s.logger.Error("Failed to save request", "error", err, "request_id", requestID, "action", name)
			return nil, err
		}

		s.afterCommit(ctx, req, events, notified)
		s.logger.Info("Transition applied",
			"request_id", requestID, "action", name, "status", req.Status, "stage", req.CurrentStage)
		return req, nil
	}

	return nil, fmt.Errorf("%s request %s: retries exhausted: %w", name, requestID, lastErr)
}

// afterCommit forwards emitted events to the audit log and dispatches the
// notifications appended during the transition. Both are fire-and-forget:
// failures are logged and never returned to the caller.
func (s *workflowServiceImpl) afterCommit(ctx context.Context, req *workflow.Request, events []event.Entry, notified int) {
	for _, ev := range events {
		s.audit.Record(ctx, ev)
	}
	for _, n := range req.Notifications[notified:] {
		if err := s.notifier.Enqueue(ctx, req.ID, n); err != nil {
			s.logger.Error("Failed to dispatch notification",
				"error", err, "request_id", req.ID, "type", n.Type)
		}
	}
}

// resolveActor loads the identity and evaluates its effective role once
func (s *workflowServiceImpl) resolveActor(ctx context.Context, actorID string) (workflow.Actor, error) {
	if actorID == "" {
		return workflow.Actor{}, fmt.Errorf("%w: actor is required", workflow.ErrValidation)
	}

	identity, err := s.identities.GetByID(ctx, actorID)
	if err != nil {
		s.logger.Error("Failed to resolve actor", "error", err, "actor_id", actorID)
		return workflow.Actor{}, err
	}
	if identity == nil {
		return workflow.Actor{}, fmt.Errorf("%w: unknown actor %q", workflow.ErrAuthorization, actorID)
	}

	return workflow.Actor{ID: identity.ID, Role: identity.EffectiveRole(time.Now())}, nil
}

func (s *workflowServiceImpl) loadRequest(ctx context.Context, requestID string) (*workflow.Request, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %q", workflow.ErrNotFound, requestID)
	}
	return req, nil
}

func (s *workflowServiceImpl) visibleTo(req *workflow.Request, actor workflow.Actor) bool {
	if workflow.HasPermission(actor.Role, workflow.PermViewAllRequests) {
		return true
	}
	if req.RequesterID == actor.ID {
		return true
	}
	for _, stage := range workflow.StagesForRole(actor.Role) {
		if req.CurrentStage == stage {
			return true
		}
	}
	return false
}

func retryable(err error) bool {
	return errors.Is(err, workflow.ErrConcurrentModification) ||
		errors.Is(err, workflow.ErrStorageUnavailable)
}
