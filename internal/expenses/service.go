package expenses

import (
	"context"
	"strconv"
	"time"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Auditor records expense events.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for expense claims.
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

// SubmitInput describes one expense claim.
type SubmitInput struct {
	Category    string
	Description *string
	Amount      float64
	IncurredAt  *time.Time
	ReceiptURL  *string
	Notes       *string
}

// List returns expenses matching the filter set, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Expense, int, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	if req.Limit > 500 {
		req.Limit = 500
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Stage != nil && !req.Stage.IsValid() {
		return nil, 0, ErrInvalidStage
	}
	return s.repo.List(ctx, req)
}

// Get returns a single expense.
func (s *Service) Get(ctx context.Context, id int64) (*Expense, error) {
	return s.repo.GetByID(ctx, id)
}

// TotalsByStage sums amounts per approval stage.
func (s *Service) TotalsByStage(ctx context.Context) (map[Stage]float64, error) {
	return s.repo.TotalsByStage(ctx)
}

// Submit records a new claim in the pending stage.
func (s *Service) Submit(ctx context.Context, input SubmitInput, actor shared.Actor) (*Expense, error) {
	if input.Category == "" {
		return nil, ErrCategoryRequired
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	incurredAt := s.now()
	if input.IncurredAt != nil {
		incurredAt = *input.IncurredAt
	}

	expense := Expense{
		Category:    input.Category,
		Description: input.Description,
		Amount:      input.Amount,
		IncurredAt:  incurredAt,
		ReceiptURL:  input.ReceiptURL,
		Stage:       StagePending,
		Notes:       input.Notes,
		SubmittedBy: actor.ID,
	}

	id, err := s.repo.Create(ctx, expense)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "expense.submit", id, map[string]any{
		"category": input.Category,
		"amount":   input.Amount,
	})

	return s.repo.GetByID(ctx, id)
}

// ManagerApprove moves a pending claim to manager_approved.
func (s *Service) ManagerApprove(ctx context.Context, id int64, actor shared.Actor) (*Expense, error) {
	return s.advance(ctx, id, StageManagerApproved, actor, map[string]interface{}{
		"reviewed_by": actor.ID,
		"reviewed_at": s.now(),
	}, "expense.manager_approve")
}

// Reject declines a claim at either review step.
func (s *Service) Reject(ctx context.Context, id int64, notes *string, actor shared.Actor) (*Expense, error) {
	updates := map[string]interface{}{
		"settled_by": actor.ID,
		"settled_at": s.now(),
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	return s.advance(ctx, id, StageRejected, actor, updates, "expense.reject")
}

// Approve settles a manager-approved claim.
func (s *Service) Approve(ctx context.Context, id int64, actor shared.Actor) (*Expense, error) {
	return s.advance(ctx, id, StageApproved, actor, map[string]interface{}{
		"settled_by": actor.ID,
		"settled_at": s.now(),
	}, "expense.approve")
}

// ApproveBatch settles a set of manager-approved claims in one
// transaction. Any claim that cannot move fails the whole batch.
func (s *Service) ApproveBatch(ctx context.Context, ids []int64, actor shared.Actor) ([]Expense, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}

	settledAt := s.now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, id := range ids {
			existing, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := Transition(existing.Stage, StageApproved); err != nil {
				return err
			}
			err = tx.UpdateStage(ctx, id, StageApproved, map[string]interface{}{
				"settled_by": actor.ID,
				"settled_at": settledAt,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "expense.approve_batch", 0, map[string]any{"ids": ids})

	results := make([]Expense, 0, len(ids))
	for _, id := range ids {
		expense, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		results = append(results, *expense)
	}
	return results, nil
}

func (s *Service) advance(ctx context.Context, id int64, target Stage, actor shared.Actor, updates map[string]interface{}, action string) (*Expense, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := Transition(existing.Stage, target); err != nil {
			return err
		}
		return tx.UpdateStage(ctx, id, target, updates)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, action, id, nil)

	return s.repo.GetByID(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, expenseID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "expense",
		EntityID: strconv.FormatInt(expenseID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
