package training

import (
	"context"
	"strconv"
	"time"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Auditor records session events.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for training sessions.
type Service struct {
	repo  Repository
	audit Auditor
	now   func() time.Time
}

// NewService creates a new service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetAuditor sets the audit sink.
func (s *Service) SetAuditor(a Auditor) {
	s.audit = a
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// ScheduleInput describes a new session.
type ScheduleInput struct {
	SchoolName  string
	TrainerID   int64
	Topic       *string
	ScheduledAt *time.Time
	Notes       *string
	OrderID     *int64
}

// RescheduleInput moves or annotates an existing session.
type RescheduleInput struct {
	TrainerID   *int64
	Topic       *string
	ScheduledAt *time.Time
	Notes       *string
}

// List returns sessions matching the filter set, soonest first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Session, int, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	if req.Limit > 500 {
		req.Limit = 500
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.List(ctx, req)
}

// Get returns a single session.
func (s *Service) Get(ctx context.Context, id int64) (*Session, error) {
	return s.repo.GetByID(ctx, id)
}

// Schedule books a new session.
func (s *Service) Schedule(ctx context.Context, input ScheduleInput, actor shared.Actor) (*Session, error) {
	if input.SchoolName == "" {
		return nil, ErrSchoolRequired
	}
	if input.TrainerID <= 0 {
		return nil, ErrTrainerRequired
	}
	if input.ScheduledAt == nil {
		return nil, ErrScheduleRequired
	}

	session := Session{
		SchoolName:  input.SchoolName,
		TrainerID:   input.TrainerID,
		Topic:       input.Topic,
		ScheduledAt: *input.ScheduledAt,
		Status:      StatusScheduled,
		Notes:       input.Notes,
		OrderID:     input.OrderID,
		CreatedBy:   actor.ID,
	}

	id, err := s.repo.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "training.schedule", id, map[string]any{
		"school_name": input.SchoolName,
		"trainer_id":  input.TrainerID,
	})

	return s.repo.GetByID(ctx, id)
}

// Reschedule updates session details while it is still open.
func (s *Service) Reschedule(ctx context.Context, id int64, input RescheduleInput, actor shared.Actor) (*Session, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusScheduled {
		return nil, Transition(existing.Status, StatusScheduled)
	}

	updates := map[string]interface{}{}
	if input.TrainerID != nil {
		if *input.TrainerID <= 0 {
			return nil, ErrTrainerRequired
		}
		updates["trainer_id"] = *input.TrainerID
	}
	if input.Topic != nil {
		updates["topic"] = *input.Topic
	}
	if input.ScheduledAt != nil {
		updates["scheduled_at"] = *input.ScheduledAt
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "training.reschedule", id, nil)

	return s.repo.GetByID(ctx, id)
}

// Complete marks the session as delivered.
func (s *Service) Complete(ctx context.Context, id int64, notes *string, actor shared.Actor) (*Session, error) {
	return s.transition(ctx, id, StatusCompleted, notes, actor, "training.complete")
}

// Cancel calls the session off.
func (s *Service) Cancel(ctx context.Context, id int64, notes *string, actor shared.Actor) (*Session, error) {
	return s.transition(ctx, id, StatusCancelled, notes, actor, "training.cancel")
}

func (s *Service) transition(ctx context.Context, id int64, target Status, notes *string, actor shared.Actor, action string) (*Session, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Transition(existing.Status, target); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if notes != nil {
		updates["notes"] = *notes
	}
	if err := s.repo.UpdateStatus(ctx, id, target, updates); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, action, id, nil)

	return s.repo.GetByID(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, sessionID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "training_session",
		EntityID: strconv.FormatInt(sessionID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
