package payments

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/keystone-crm/keystone-crm/internal/dc"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// OrderReader looks up the DC order a payment is recorded against.
type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*dc.Order, error)
}

// Auditor records payment events.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for payments.
type Service struct {
	repo   Repository
	orders OrderReader
	audit  Auditor
	now    func() time.Time
}

// NewService creates a new service.
func NewService(repo Repository, orders OrderReader) *Service {
	return &Service{repo: repo, orders: orders, now: time.Now}
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

// RecordInput describes one payment to record.
type RecordInput struct {
	OrderID     int64
	Amount      float64
	Mode        Mode
	ReferenceNo *string
	PaidAt      *time.Time
	Notes       *string
}

// Record stores a payment against an order. The recorder is the actor.
func (s *Service) Record(ctx context.Context, input RecordInput, actor shared.Actor) (*Payment, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !input.Mode.IsValid() {
		return nil, ErrInvalidMode
	}

	if _, err := s.orders.GetByID(ctx, input.OrderID); err != nil {
		if errors.Is(err, dc.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	paidAt := s.now()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}

	payment := Payment{
		OrderID:     input.OrderID,
		Amount:      input.Amount,
		Mode:        input.Mode,
		ReferenceNo: input.ReferenceNo,
		PaidAt:      paidAt,
		Notes:       input.Notes,
		RecordedBy:  actor.ID,
	}

	id, err := s.repo.Create(ctx, payment)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "payment.record", id, map[string]any{
		"order_id": input.OrderID,
		"amount":   input.Amount,
		"mode":     input.Mode,
	})

	return s.repo.GetByID(ctx, id)
}

// Summary returns the ledger for one order including the outstanding
// balance. Overpayment shows as a negative outstanding rather than an
// error; refunds are handled off the books.
func (s *Service) Summary(ctx context.Context, orderID int64) (*OrderSummary, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, dc.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	list, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Payment{}
	}

	var paid float64
	for _, p := range list {
		paid += p.Amount
	}

	return &OrderSummary{
		OrderID:     order.ID,
		DCCode:      order.DCCode,
		TotalAmount: order.TotalAmount,
		Paid:        paid,
		Outstanding: order.TotalAmount - paid,
		Payments:    list,
	}, nil
}

// Remove deletes a mis-entered payment.
func (s *Service) Remove(ctx context.Context, id int64, actor shared.Actor) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, "payment.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, paymentID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "payment",
		EntityID: strconv.FormatInt(paymentID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
